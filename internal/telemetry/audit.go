package telemetry

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	AuditEventType     = "audit_log"
	auditSchemaVersion = 1
)

// Publisher is the part of the event publisher the emitter needs.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// Entry is one gateway outcome worth auditing. UserID is 0 for callers that
// never authenticated.
type Entry struct {
	Level     string
	Text      string
	RequestID string
	UserID    int
}

// AuditEnvelope is the audit_log record as it goes over the wire.
type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	UserID        *string      `json:"user_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// MarshalZerologObject lets publishers log an envelope without knowing its type.
func (e AuditEnvelope) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("event_type", e.EventType).Str("request_id", e.RequestID).Str("level", e.Payload.Level)
}

// AuditEmitter stamps entries with the service identity and publishes them
// under one routing key.
type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
	now         func() time.Time
}

func NewAuditEmitter(publisher Publisher, routingKey, service, environment string) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
		now:         time.Now,
	}
}

// Envelope builds the record published for entry.
func (e *AuditEmitter) Envelope(entry Entry) AuditEnvelope {
	env := AuditEnvelope{
		SchemaVersion: auditSchemaVersion,
		EventType:     AuditEventType,
		OccurredAt:    e.now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     entry.RequestID,
		Payload:       AuditPayload{Level: entry.Level, Text: entry.Text},
	}
	if entry.UserID != 0 {
		uid := strconv.Itoa(entry.UserID)
		env.UserID = &uid
	}
	return env
}

// Emit publishes entry. A nil emitter is a no-op, and publish failures are
// logged and dropped.
func (e *AuditEmitter) Emit(ctx context.Context, entry Entry) {
	if e == nil || e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, e.routingKey, e.Envelope(entry)); err != nil {
		log.Warn().Err(err).
			Str("routing_key", e.routingKey).
			Str("request_id", entry.RequestID).
			Msg("audit publish failed")
	}
}
