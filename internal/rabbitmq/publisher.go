package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"messenger-service/internal/observability"
)

// Publisher publishes JSON events to a topic exchange.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// Mode names the kind of publisher behind a Publisher.
type Mode string

const (
	ModeAMQP    Mode = "amqp"
	ModeNoop    Mode = "noop"
	ModeUnknown Mode = "unknown"
)

// NewPublisher connects to the broker and declares a durable topic exchange.
// With no URL, or when the broker is unreachable, events are only logged.
func NewPublisher(amqpURL, exchange string) Publisher {
	if amqpURL == "" {
		return disabled("empty amqp url")
	}
	p, err := dial(amqpURL, exchange)
	if err != nil {
		return disabled(err.Error())
	}
	log.Info().Str("exchange", exchange).Msg("rabbitmq connected")
	return p
}

func disabled(reason string) noopPublisher {
	log.Warn().Str("reason", reason).Msg("rabbitmq disabled, events are logged only")
	return noopPublisher{reason: reason}
}

func dial(amqpURL, exchange string) (_ *amqpPublisher, err error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, errors.Wrap(err, "dial broker")
	}
	defer func() {
		if err != nil {
			_ = conn.Close()
		}
	}()

	ch, err := conn.Channel()
	if err != nil {
		return nil, errors.Wrap(err, "open channel")
	}
	if err = ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, errors.Wrapf(err, "declare exchange %q", exchange)
	}
	return &amqpPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

type amqpPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func (p *amqpPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	msg, err := message(ctx, event)
	if err != nil {
		return err
	}
	if err := p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		observability.IncPublishFailure(routingKey)
		return errors.Wrapf(err, "publish %s", routingKey)
	}
	return nil
}

// Close closes the connection, which also closes its channel.
func (p *amqpPublisher) Close() error {
	return p.conn.Close()
}

// message encodes event as a persistent JSON delivery carrying the request
// and trace ids from ctx.
func message(ctx context.Context, event any) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, errors.Wrap(err, "encode event")
	}

	requestID := observability.RequestIDFromContext(ctx)
	headers := amqp.Table{}
	for key, value := range observability.BuildHeaders(requestID, observability.TraceIDFromContext(ctx)) {
		headers[key] = value
	}

	return amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		CorrelationId: requestID,
		Timestamp:     time.Now().UTC(),
		Headers:       headers,
		Body:          body,
	}, nil
}

type noopPublisher struct {
	reason string
}

func (noopPublisher) Publish(_ context.Context, routingKey string, event any) error {
	ev := log.Debug().Str("routing_key", routingKey)
	if obj, ok := event.(zerolog.LogObjectMarshaler); ok {
		ev = ev.Object("event", obj)
	}
	ev.Msg("event dropped, publisher disabled")
	return nil
}

func (noopPublisher) Close() error {
	return nil
}

// Describe reports which kind of publisher p is and, when disabled, why.
func Describe(p Publisher) (Mode, string) {
	switch v := p.(type) {
	case *amqpPublisher:
		return ModeAMQP, ""
	case noopPublisher:
		return ModeNoop, v.reason
	default:
		return ModeUnknown, ""
	}
}
