package firestore

import (
	"bytes"
	"fmt"
	"time"

	"github.com/0ladayo/strava-data-pipeline/pkg/types"
)

// Helper to safely get string from map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getTime(m map[string]interface{}, key string) time.Time {
	if v, ok := m[key]; ok {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}
	return time.Time{}
}

// --- Execution Converters ---

func ExecutionToFirestore(e *types.ExecutionRecord) map[string]interface{} {
	return map[string]interface{}{
		"execution_id":  e.ExecutionID,
		"service":       e.Service,
		"status":        int32(e.Status),
		"trigger_type":  e.TriggerType,
		"event_id":      e.EventID,
		"timestamp":     e.Timestamp,
		"start_time":    e.StartTime,
		"end_time":      e.EndTime,
		"error_message": e.ErrorMessage,
		"inputs_json":   e.InputsJSON,
		"outputs_json":  e.OutputsJSON,
	}
}

func FirestoreToExecution(m map[string]interface{}) (*types.ExecutionRecord, error) {
	e := &types.ExecutionRecord{
		ExecutionID:  getString(m, "execution_id"),
		Service:      getString(m, "service"),
		TriggerType:  getString(m, "trigger_type"),
		EventID:      getString(m, "event_id"),
		Timestamp:    getTime(m, "timestamp"),
		StartTime:    getTime(m, "start_time"),
		EndTime:      getTime(m, "end_time"),
		ErrorMessage: getString(m, "error_message"),
		InputsJSON:   getString(m, "inputs_json"),
		OutputsJSON:  getString(m, "outputs_json"),
	}

	switch v := m["status"].(type) {
	case int64:
		e.Status = types.ExecutionStatus(v)
	case int:
		e.Status = types.ExecutionStatus(v)
	case string:
		e.Status = types.ExecutionStatusValue[v]
	}
	return e, nil
}

// --- Raw Document Converters ---

// RawDocument stores an encoded document verbatim so reads return the exact
// bytes that were written.
type RawDocument struct {
	Content   []byte
	UpdatedAt time.Time
}

func NewRawDocument(content []byte) *RawDocument {
	return &RawDocument{Content: bytes.Clone(content), UpdatedAt: time.Now().UTC()}
}

func (d *RawDocument) Bytes() []byte {
	return bytes.Clone(d.Content)
}

func RawDocumentToFirestore(d *RawDocument) map[string]interface{} {
	return map[string]interface{}{
		"content":    string(d.Content),
		"updated_at": d.UpdatedAt,
	}
}

func FirestoreToRawDocument(m map[string]interface{}) (*RawDocument, error) {
	content, ok := m["content"].(string)
	if !ok {
		return nil, fmt.Errorf("document has no content field")
	}
	return &RawDocument{Content: []byte(content), UpdatedAt: getTime(m, "updated_at")}, nil
}
