package models

import "time"

// PipelineEventKind labels stages emitted to the live event feed.
type PipelineEventKind string

const (
	EventMessageReceived PipelineEventKind = "message_received"
	EventIntentResolved  PipelineEventKind = "intent_resolved"
	EventAnswerProduced  PipelineEventKind = "answer_produced"
	EventDeliveryDone    PipelineEventKind = "delivery_done"
	EventDeliveryFailed  PipelineEventKind = "delivery_failed"
)

// PipelineEvent is one entry on the /ws monitoring feed. CorrelationID ties
// together all events for a single inbound message.
type PipelineEvent struct {
	CorrelationID string            `json:"correlation_id"`
	Kind          PipelineEventKind `json:"kind"`
	Provider      string            `json:"provider,omitempty"`
	UserID        string            `json:"user_id,omitempty"`
	Flow          string            `json:"flow,omitempty"`
	Detail        string            `json:"detail,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}
