package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AuditLog appends one line per DrinkEvent to <dir>/drinks.log.
type AuditLog struct {
	dir string
	mu  sync.Mutex
}

// NewAuditLog writes into dir, creating it on first use.
func NewAuditLog(dir string) *AuditLog {
	return &AuditLog{dir: dir}
}

// Path is the file events are appended to.
func (a *AuditLog) Path() string { return filepath.Join(a.dir, "drinks.log") }

// Handle decodes a message body and appends it to the log file.
func (a *AuditLog) Handle(body []byte) error {
	var ev DrinkEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" {
		return errors.New("event has no type")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", a.dir, err)
	}
	f, err := os.OpenFile(a.Path(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(ev.String() + "\n"); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// Consume reads the drinks queue until ctx is cancelled, reconnecting with
// exponential backoff whenever the broker is unavailable.  Messages that
// cannot be handled are rejected without requeue.
func Consume(ctx context.Context, url string, sink *AuditLog, log *zap.Logger) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("consumer: dial failed", zap.Duration("retry_in", backoff), zap.Error(err))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, 30*time.Second)
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, sink, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("consumer: loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, sink *AuditLog, log *zap.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(DrinksQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(DrinksQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	log.Info("consumer: listening", zap.String("queue", DrinksQueue), zap.String("file", sink.Path()))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := sink.Handle(d.Body); err != nil {
				log.Warn("consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
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
