package database

import (
	"context"
	"log/slog"

	"cloud.google.com/go/firestore"

	shared "github.com/0ladayo/strava-data-pipeline/pkg"
	storage "github.com/0ladayo/strava-data-pipeline/pkg/storage/firestore"
	"github.com/0ladayo/strava-data-pipeline/pkg/types"
)

// FirestoreAdapter provides database operations using Firestore
// It wraps our typed storage client
type FirestoreAdapter struct {
	storage *storage.Client
}

func NewFirestoreAdapter(client *firestore.Client) *FirestoreAdapter {
	return &FirestoreAdapter{storage: storage.NewClient(client)}
}

func (a *FirestoreAdapter) SetExecution(ctx context.Context, record *types.ExecutionRecord) error {
	return a.storage.Executions(shared.CollectionExecutions).Doc(record.ExecutionID).Set(ctx, record)
}

func (a *FirestoreAdapter) UpdateExecution(ctx context.Context, id string, data map[string]interface{}) error {
	return a.storage.Executions(shared.CollectionExecutions).Doc(id).Update(ctx, data)
}

// LogDatabase records executions in the log only, for deployments without
// a Firestore execution log.
type LogDatabase struct {
	Logger *slog.Logger
}

func (d *LogDatabase) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func (d *LogDatabase) SetExecution(ctx context.Context, record *types.ExecutionRecord) error {
	d.logger().Debug("execution recorded",
		"execution_id", record.ExecutionID, "service", record.Service, "status", record.Status.String())
	return nil
}

func (d *LogDatabase) UpdateExecution(ctx context.Context, id string, data map[string]interface{}) error {
	attrs := []any{"execution_id", id}
	if s, ok := data["status"].(int32); ok {
		attrs = append(attrs, "status", types.ExecutionStatus(s).String())
	}
	d.logger().Debug("execution updated", attrs...)
	return nil
}
