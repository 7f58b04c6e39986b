// Package kafka carries analysis-run events between the API server and the
// worker.  Every message on the wire is an EventEnvelope keyed by run ID so
// events for one run stay ordered within a partition.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/rankscope/rankscope/pkg/errors"
)

// Topic names.
const (
	TopicAnalysisRequested = "analysis.requested"
	TopicAnalysisCompleted = "analysis.completed"
	TopicAnalysisFailed    = "analysis.failed"
	TopicDeadLetter        = "analysis.dead_letter"
)

// Event types carried in the envelope.
const (
	EventAnalysisRequested = "analysis.requested.v1"
	EventAnalysisCompleted = "analysis.completed.v1"
	EventAnalysisFailed    = "analysis.failed.v1"
)

// EventEnvelope standardizes event messages.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// ---- Payloads ----

// AnalysisRequestedEvent asks the worker to run one gap analysis.
type AnalysisRequestedEvent struct {
	RunID        string    `json:"run_id"`
	TargetDomain string    `json:"target_domain"`
	Competitors  []string  `json:"competitors"`
	RequestedAt  time.Time `json:"requested_at"`
}

// AnalysisCompletedEvent announces a finished run and where its report lives.
type AnalysisCompletedEvent struct {
	RunID            string    `json:"run_id"`
	TargetDomain     string    `json:"target_domain"`
	OpportunityCount int       `json:"opportunity_count"`
	NoGapsFound      bool      `json:"no_gaps_found"`
	ReportObjectKey  string    `json:"report_object_key,omitempty"`
	CompletedAt      time.Time `json:"completed_at"`
}

// AnalysisFailedEvent announces a run that could not complete.
type AnalysisFailedEvent struct {
	RunID        string    `json:"run_id"`
	TargetDomain string    `json:"target_domain"`
	Reason       string    `json:"reason"`
	FailedAt     time.Time `json:"failed_at"`
}

// NewEnvelope wraps a payload in a fresh envelope.
func NewEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal event payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: "v1",
		Payload:       data,
	}, nil
}

// DecodePayload unmarshals the envelope payload into target.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 {
		return errors.New(errors.ErrCodeValidation, "event envelope has no payload")
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode event payload")
	}
	return nil
}

// ParseEnvelope decodes a raw message value back into an envelope.
func ParseEnvelope(value []byte) (*EventEnvelope, error) {
	if len(value) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal event envelope")
	}
	return &env, nil
}
