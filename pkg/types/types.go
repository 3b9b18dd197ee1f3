// Package types holds the plain data types shared across functions: trigger
// payloads and execution records.
package types

import "time"

// PubSubMessage is the payload of a Pub/Sub push CloudEvent.
type PubSubMessage struct {
	Message struct {
		Data       []byte            `json:"data"`
		Attributes map[string]string `json:"attributes"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// StorageObjectData is the payload of a Cloud Storage object event.
type StorageObjectData struct {
	Bucket      string    `json:"bucket"`
	Name        string    `json:"name"`
	ContentType string    `json:"contentType,omitempty"`
	Size        string    `json:"size,omitempty"`
	TimeCreated time.Time `json:"timeCreated,omitempty"`
}

// ExecutionStatus is the lifecycle state of one function invocation.
type ExecutionStatus int32

const (
	ExecutionStatusUnknown ExecutionStatus = iota
	ExecutionStatusPending
	ExecutionStatusStarted
	ExecutionStatusSuccess
	ExecutionStatusFailed
	ExecutionStatusSkipped
)

var executionStatusNames = map[ExecutionStatus]string{
	ExecutionStatusUnknown: "STATUS_UNKNOWN",
	ExecutionStatusPending: "STATUS_PENDING",
	ExecutionStatusStarted: "STATUS_STARTED",
	ExecutionStatusSuccess: "STATUS_SUCCESS",
	ExecutionStatusFailed:  "STATUS_FAILED",
	ExecutionStatusSkipped: "STATUS_SKIPPED",
}

// ExecutionStatusValue maps status names to values.
var ExecutionStatusValue = func() map[string]ExecutionStatus {
	m := make(map[string]ExecutionStatus, len(executionStatusNames))
	for k, v := range executionStatusNames {
		m[v] = k
	}
	return m
}()

func (s ExecutionStatus) String() string {
	if n, ok := executionStatusNames[s]; ok {
		return n
	}
	return executionStatusNames[ExecutionStatusUnknown]
}

// ExecutionRecord is the audit entry written for each invocation.
type ExecutionRecord struct {
	ExecutionID  string
	Service      string
	Status       ExecutionStatus
	TriggerType  string
	EventID      string
	Timestamp    time.Time
	StartTime    time.Time
	EndTime      time.Time
	ErrorMessage string
	InputsJSON   string
	OutputsJSON  string
}
