package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher sends audit events.  Callers treat failures as non-fatal.
type Publisher interface {
	PublishCatalogChanged(ctx context.Context, ev CatalogChangedEvent) error
	PublishRoleChanged(ctx context.Context, ev RoleChangedEvent) error
}

const defaultDialTimeout = 5 * time.Second

// AMQPPublisher dials the broker per message.  Admin writes are rare, so
// no connection is held open between them.
type AMQPPublisher struct {
	URL   string
	Queue string
	Log   *zap.Logger
}

func NewAMQPPublisher(url, queue string, log *zap.Logger) *AMQPPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &AMQPPublisher{URL: url, Queue: queue, Log: log}
}

func (p *AMQPPublisher) PublishCatalogChanged(ctx context.Context, ev CatalogChangedEvent) error {
	return p.publish(ctx, KindCatalogChanged, ev)
}

func (p *AMQPPublisher) PublishRoleChanged(ctx context.Context, ev RoleChangedEvent) error {
	return p.publish(ctx, KindRoleChanged, ev)
}

func (p *AMQPPublisher) publish(ctx context.Context, kind string, ev any) error {
	body, err := encodeEnvelope(kind, ev)
	if err != nil {
		return err
	}
	conn, err := amqp.DialConfig(p.URL, amqp.Config{Dial: amqp.DefaultDial(dialTimeout(ctx))})
	if err != nil {
		p.Log.Warn("rabbitmq: dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.Warn("rabbitmq: channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		p.Log.Warn("rabbitmq: queue declare failed", zap.String("queue", p.Queue), zap.Error(err))
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         kind,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
		p.Log.Warn("rabbitmq: publish failed", zap.String("kind", kind), zap.Error(err))
		return err
	}
	return nil
}

// dialTimeout bounds the broker dial by ctx's deadline, or by
// defaultDialTimeout when ctx has none.
func dialTimeout(ctx context.Context) time.Duration {
	dl, ok := ctx.Deadline()
	if !ok {
		return defaultDialTimeout
	}
	if d := time.Until(dl); d > 0 {
		return d
	}
	return time.Millisecond
}

func encodeEnvelope(kind string, ev any) ([]byte, error) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", kind, err)
	}
	return json.Marshal(envelope{Kind: kind, Event: raw})
}

// NopPublisher drops every event.  Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishCatalogChanged(context.Context, CatalogChangedEvent) error { return nil }
func (NopPublisher) PublishRoleChanged(context.Context, RoleChangedEvent) error       { return nil }
