// Package execution records the lifecycle of each function invocation.
package execution

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	shared "github.com/0ladayo/strava-data-pipeline/pkg"
	"github.com/0ladayo/strava-data-pipeline/pkg/types"
)

// ExecutionOptions describes what triggered an execution.
type ExecutionOptions struct {
	TriggerType string
	EventID     string
	Inputs      interface{}
}

// LogStart creates a pending record and marks it started. It returns the new
// execution id even when a write fails, so callers can keep logging with it.
func LogStart(ctx context.Context, db shared.Database, service string, opts ExecutionOptions) (string, error) {
	execID := fmt.Sprintf("%s-%s", service, uuid.NewString())
	now := time.Now().UTC()

	record := &types.ExecutionRecord{
		ExecutionID: execID,
		Service:     service,
		Status:      types.ExecutionStatusPending,
		TriggerType: opts.TriggerType,
		EventID:     opts.EventID,
		Timestamp:   now,
		StartTime:   now,
		InputsJSON:  marshal(opts.Inputs),
	}
	if err := db.SetExecution(ctx, record); err != nil {
		return execID, fmt.Errorf("create execution record: %w", err)
	}

	if err := db.UpdateExecution(ctx, execID, map[string]interface{}{
		"status":    int32(types.ExecutionStatusStarted),
		"timestamp": now,
	}); err != nil {
		return execID, fmt.Errorf("mark execution started: %w", err)
	}
	return execID, nil
}

// LogSuccess marks the execution successful.
func LogSuccess(ctx context.Context, db shared.Database, execID string, outputs interface{}) error {
	return LogExecutionStatus(ctx, db, execID, types.ExecutionStatusSuccess, outputs)
}

// LogFailure marks the execution failed and stores the error message.
func LogFailure(ctx context.Context, db shared.Database, execID string, handlerErr error, outputs interface{}) error {
	data := finish(types.ExecutionStatusFailed, outputs)
	if handlerErr != nil {
		data["error_message"] = handlerErr.Error()
	}
	return update(ctx, db, execID, data)
}

// LogExecutionStatus finishes the execution with an explicit status.
func LogExecutionStatus(ctx context.Context, db shared.Database, execID string, status types.ExecutionStatus, outputs interface{}) error {
	return update(ctx, db, execID, finish(status, outputs))
}

func finish(status types.ExecutionStatus, outputs interface{}) map[string]interface{} {
	now := time.Now().UTC()
	return map[string]interface{}{
		"status":       int32(status),
		"timestamp":    now,
		"end_time":     now,
		"outputs_json": marshal(outputs),
	}
}

func update(ctx context.Context, db shared.Database, execID string, data map[string]interface{}) error {
	if execID == "" {
		return fmt.Errorf("no execution id")
	}
	if err := db.UpdateExecution(ctx, execID, data); err != nil {
		return fmt.Errorf("update execution %s: %w", execID, err)
	}
	return nil
}

func marshal(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
