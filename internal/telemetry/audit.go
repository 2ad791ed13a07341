// Package telemetry records administrative actions as audit events.
package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"motomarket-chat/internal/observability"
)

// Publisher is the event sink audit envelopes are written to.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// AuditEmitter records administrative actions on the audit routing key.
type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
	logger      *slog.Logger
}

// AuditEnvelope is the wire shape of an audit event.
type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventID       string       `json:"event_id"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	UserID        string       `json:"user_id,omitempty"`
	TraceID       string       `json:"trace_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	Text   string         `json:"text"`
	Fields map[string]any `json:"fields,omitempty"`
}

// AuditEntry describes one audited action.
type AuditEntry struct {
	Level     string
	Action    string
	Text      string
	RequestID string
	UserID    string
	Fields    map[string]any
}

func NewAuditEmitter(publisher Publisher, routingKey, service, environment string, logger *slog.Logger) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
		logger:      logger,
	}
}

func (e *AuditEmitter) Emit(ctx context.Context, entry AuditEntry) {
	if e == nil || e.publisher == nil {
		return
	}
	if entry.Level == "" {
		entry.Level = "info"
	}

	e.logger.Log(ctx, levelOf(entry.Level), "audit emit",
		"action", entry.Action,
		"level", entry.Level,
		"request_id", entry.RequestID,
		"user_id", entry.UserID,
		"text", entry.Text,
	)
	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventID:       uuid.NewString(),
		EventType:     "audit_log",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     entry.RequestID,
		UserID:        entry.UserID,
		TraceID:       observability.TraceIDFromContext(ctx),
		Payload: AuditPayload{
			Level:  entry.Level,
			Action: entry.Action,
			Text:   entry.Text,
			Fields: entry.Fields,
		},
	}

	if err := e.publisher.Publish(ctx, e.routingKey, envelope); err != nil {
		e.logger.Error("audit publish failed", "action", entry.Action, "error", err)
	}
}

func levelOf(level string) slog.Level {
	switch level {
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
