package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"messenger-service/internal/observability"
)

// Routing keys of the domain events published after a successful commit.
const (
	EventChatCreated        = "chat.created"
	EventChatRenamed        = "chat.renamed"
	EventMemberAdded        = "chat.member.added"
	EventMemberLeft         = "chat.member.left"
	EventMessageSent        = "chat.message.sent"
	EventMessageEdited      = "chat.message.edited"
	EventMessageDeleted     = "chat.message.deleted"
	EventFriendshipCreated  = "relationship.friendship.created"
	EventFriendshipAccepted = "relationship.friendship.accepted"
	EventFriendshipDeleted  = "relationship.friendship.deleted"
	EventBlockCreated       = "relationship.block.created"
	EventBlockDeleted       = "relationship.block.deleted"
)

// EventPublisher delivers a JSON event to a routing key.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

var tracer = otel.Tracer("messenger-service/services")

// publish is best effort: the operation already committed, so a failed
// publish is logged and never surfaced to the caller.
func publish(ctx context.Context, p EventPublisher, name string, payload any) {
	if p == nil {
		return
	}
	envelope := observability.EventEnvelope{
		EventType:  "domain_events",
		EventName:  name,
		OccurredAt: time.Now().UTC().Format(time.RFC3339Nano),
		Payload:    payload,
	}
	if err := p.Publish(ctx, name, envelope); err != nil {
		log.Warn().Err(err).Str("event", name).Msg("domain event publish failed")
	}
}

// finish closes span, recording err and counting domain rejections.
func finish(span trace.Span, operation string, err error) {
	defer span.End()
	if err == nil {
		return
	}
	if kind, ok := KindOf(err); ok {
		observability.IncDomainError(operation, string(kind))
		span.SetStatus(codes.Error, string(kind))
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
