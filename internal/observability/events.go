package observability

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// Routing keys for chat domain events.
const (
	EventRoomCreated    = "chat.room_created"
	EventMessageCreated = "chat.message_created"
	EventChatsCleared   = "chat.rooms_cleared"
)

type EventEnvelope struct {
	SchemaVersion int    `json:"schema_version"`
	EventID       string `json:"event_id"`
	EventType     string `json:"event_type"`
	OccurredAt    string `json:"occurred_at"`
	Service       string `json:"service"`
	TraceID       string `json:"trace_id,omitempty"`
	Payload       any    `json:"payload"`
}

// NewEvent wraps payload in an envelope stamped with the current time and the
// trace id of the span in ctx, if any.
func NewEvent(ctx context.Context, service, eventType string, payload any) EventEnvelope {
	return EventEnvelope{
		SchemaVersion: 1,
		EventID:       uuid.NewString(),
		EventType:     eventType,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       service,
		TraceID:       TraceIDFromContext(ctx),
		Payload:       payload,
	}
}

func TraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
