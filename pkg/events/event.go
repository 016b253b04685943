package events

import (
	"strings"
	"time"
)

// Event defines the contract for all audit events published on NATS.
type Event interface {
	// EventType returns the unique code for this event (e.g., "USER_LOGIN").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

const (
	TypeUserLogin = "USER_LOGIN"

	// TopicDocumentsChanged is the in-process topic for document mutations.
	TopicDocumentsChanged = "documents.changed"
)

// DocumentChanged is the message published on TopicDocumentsChanged.
type DocumentChanged struct {
	Kind  string  `json:"kind"`
	IDs   []int64 `json:"ids"`
	Actor string  `json:"actor,omitempty"`
}

// Audit converts the change into its NATS audit event, e.g. DOCUMENT_CREATED.
func (d DocumentChanged) Audit(at time.Time) BaseEvent {
	return BaseEvent{
		Type: "DOCUMENT_" + strings.ToUpper(d.Kind),
		Data: map[string]interface{}{
			"ids":   d.IDs,
			"actor": d.Actor,
		},
		OccurredAt: at,
	}
}
