package shared

import (
	"context"

	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/0ladayo/strava-data-pipeline/pkg/domain/activity"
	"github.com/0ladayo/strava-data-pipeline/pkg/types"
)

// --- Persistence Interfaces ---

type Database interface {
	SetExecution(ctx context.Context, record *types.ExecutionRecord) error
	UpdateExecution(ctx context.Context, id string, data map[string]interface{}) error
}

// Warehouse is the append-only destination table.
type Warehouse interface {
	// ExistingIDs returns every activity id already in the table.
	ExistingIDs(ctx context.Context) (activity.IDSet, error)
	// Append writes records and returns the number of rows appended.
	Append(ctx context.Context, records []activity.Record) (int, error)
	Table() string
}

// --- Messaging Interfaces ---

type Publisher interface {
	PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error)
}

// --- Storage Interfaces ---

type BlobStore interface {
	Write(ctx context.Context, bucket, object string, data []byte) error
	Read(ctx context.Context, bucket, object string) ([]byte, error)
}

// --- Secret Interfaces ---

type SecretStore interface {
	GetSecret(ctx context.Context, projectID, name string) (string, error)
}
