package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AuditConsumer drains the audit queue into an append-only log file, one
// line per event.
type AuditConsumer struct {
	URL     string
	Queue   string
	LogPath string
	Log     *zap.Logger

	openLog func(path string) (io.WriteCloser, error)
}

func NewAuditConsumer(url, queue, logPath string, log *zap.Logger) *AuditConsumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuditConsumer{URL: url, Queue: queue, LogPath: logPath, Log: log, openLog: openAppend}
}

func openAppend(path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir logs: %w", err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

// Run connects, consumes and reconnects with backoff until ctx is done.
// It returns ctx.Err() on shutdown.
func (c *AuditConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("audit-consumer: failed to dial broker", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn("audit-consumer: consume loop ended; reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *AuditConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn("audit-consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handleMessage(d.Body); err != nil {
				c.Log.Error("audit-consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false) // do not requeue poison messages
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *AuditConsumer) handleMessage(body []byte) error {
	line, err := formatAuditLine(body)
	if err != nil {
		return err
	}
	f, err := c.openLog(c.LogPath)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	// the line is only durable once Close succeeds; the caller acks after
	if _, err := io.WriteString(f, line); err != nil {
		_ = f.Close()
		return fmt.Errorf("write log: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close log: %w", err)
	}
	return nil
}

func formatAuditLine(body []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", fmt.Errorf("unmarshal: %w", err)
	}
	switch env.Kind {
	case KindCatalogChanged:
		var ev CatalogChangedEvent
		if err := json.Unmarshal(env.Event, &ev); err != nil {
			return "", fmt.Errorf("unmarshal %s: %w", env.Kind, err)
		}
		return fmt.Sprintf("[%s] Catalog item %s | product_id=%s | name=%q | actor=%s\n",
			ev.OccurredAt, ev.Action, ev.ProductID, ev.Name, ev.Actor), nil
	case KindRoleChanged:
		var ev RoleChangedEvent
		if err := json.Unmarshal(env.Event, &ev); err != nil {
			return "", fmt.Errorf("unmarshal %s: %w", env.Kind, err)
		}
		return fmt.Sprintf("[%s] Role changed | target_id=%s | new_role=%s | actor=%s\n",
			ev.OccurredAt, ev.TargetID, ev.NewRole, ev.Actor), nil
	}
	return "", fmt.Errorf("unknown event kind %q", env.Kind)
}
