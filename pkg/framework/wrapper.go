// Package framework wraps Cloud Function handlers with execution logging and
// error reporting.
package framework

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/0ladayo/strava-data-pipeline/pkg/bootstrap"
	"github.com/0ladayo/strava-data-pipeline/pkg/execution"
	infrasentry "github.com/0ladayo/strava-data-pipeline/pkg/infrastructure/sentry"
	"github.com/0ladayo/strava-data-pipeline/pkg/pipelineerr"
	"github.com/0ladayo/strava-data-pipeline/pkg/types"
)

// FrameworkContext contains dependencies injected by the framework
type FrameworkContext struct {
	Service     *bootstrap.Service
	Logger      *slog.Logger
	ExecutionID string
}

// HandlerFunc is the signature for a cloud function handler
type HandlerFunc func(ctx context.Context, e event.Event, fwCtx *FrameworkContext) (interface{}, error)

// WrapCloudEvent wraps a handler with automatic execution logging.
// Pub/Sub, Cloud Storage and HTTP triggers are all accepted. A CloudEvent
// published into a Pub/Sub message is unwrapped before the handler sees it.
func WrapCloudEvent(serviceName string, svc *bootstrap.Service, handler HandlerFunc) func(context.Context, event.Event) error {
	return func(ctx context.Context, e event.Event) error {
		triggerType := triggerTypeOf(e)
		if triggerType == "pubsub" {
			if inner, ok := unwrapPubSub(e); ok {
				e = inner
			}
		}

		logger := bootstrap.NewLogger(serviceName).With("event_id", e.ID())

		execID, err := execution.LogStart(ctx, svc.DB, serviceName, execution.ExecutionOptions{
			TriggerType: triggerType,
			EventID:     e.ID(),
			Inputs:      json.RawMessage(nonEmptyJSON(e.Data())),
		})
		if err != nil {
			// Keep going; a missing audit entry must not fail the run.
			logger.Error("Failed to log execution start", "error", err)
		}

		logger = logger.With("execution_id", execID)
		logger.Info("Function started", "trigger", triggerType, "type", e.Type())
		defer infrasentry.RecoverAndCapture(logger)

		fwCtx := &FrameworkContext{
			Service:     svc,
			Logger:      logger,
			ExecutionID: execID,
		}

		outputs, handlerErr := handler(ctx, e, fwCtx)

		if handlerErr != nil {
			logger.Error("Function failed", "error", handlerErr, "kind", pipelineerr.KindOf(handlerErr).String())
			infrasentry.CaptureException(handlerErr, map[string]string{
				"service":      serviceName,
				"execution_id": execID,
				"error_kind":   pipelineerr.KindOf(handlerErr).String(),
			}, map[string]interface{}{
				"event_id":   e.ID(),
				"event_type": e.Type(),
			}, logger)
			infrasentry.Flush(2 * time.Second)
			if logErr := execution.LogFailure(ctx, svc.DB, execID, handlerErr, outputs); logErr != nil {
				logger.Warn("Failed to log execution failure", "error", logErr)
			}
			return handlerErr
		}

		logger.Info("Function completed successfully")

		if status, ok := customStatus(outputs); ok {
			statusEnum, known := statusFor(status)
			if !known {
				logger.Warn("Unknown custom status returned", "status", status)
			}
			if logErr := execution.LogExecutionStatus(ctx, svc.DB, execID, statusEnum, outputs); logErr != nil {
				logger.Warn("Failed to log execution status", "error", logErr)
			}
			return nil
		}

		if logErr := execution.LogSuccess(ctx, svc.DB, execID, outputs); logErr != nil {
			logger.Warn("Failed to log execution success", "error", logErr)
		}
		return nil
	}
}

func triggerTypeOf(e event.Event) string {
	switch {
	case e.Type() == "google.cloud.functions.http":
		return "http"
	case strings.HasPrefix(e.Type(), "google.cloud.storage."):
		return "storage"
	default:
		return "pubsub"
	}
}

// unwrapPubSub returns the structured CloudEvent carried in a Pub/Sub
// message, if there is one.
func unwrapPubSub(e event.Event) (event.Event, bool) {
	var msg types.PubSubMessage
	if err := e.DataAs(&msg); err != nil || len(msg.Message.Data) == 0 {
		return e, false
	}
	var inner event.Event
	if err := json.Unmarshal(msg.Message.Data, &inner); err != nil {
		return e, false
	}
	if inner.ID() == "" || inner.Type() == "" {
		return e, false
	}
	return inner, true
}

func customStatus(outputs interface{}) (string, bool) {
	m, ok := outputs.(map[string]interface{})
	if !ok {
		return "", false
	}
	s, ok := m["status"].(string)
	return s, ok && s != ""
}

// statusFor accepts either the full status name or its short form
// ("SKIPPED" for "STATUS_SKIPPED").
func statusFor(s string) (types.ExecutionStatus, bool) {
	if v, ok := types.ExecutionStatusValue[s]; ok {
		return v, true
	}
	if v, ok := types.ExecutionStatusValue["STATUS_"+strings.ToUpper(s)]; ok {
		return v, true
	}
	return types.ExecutionStatusUnknown, false
}

func nonEmptyJSON(b []byte) []byte {
	if len(b) == 0 || !json.Valid(b) {
		return []byte("null")
	}
	return b
}
