package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"gopkg.in/lumberjack.v2"
)

// NewAuditLog returns the rotating file the consumer appends to.
func NewAuditLog(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 10,
		MaxAge:     90, // days
		Compress:   true,
	}
}

// StartAuditConsumer consumes AuditQueue and appends one line per event to
// out.  It reconnects with exponential backoff until ctx is cancelled.
func StartAuditConsumer(ctx context.Context, url string, out io.Writer, logger *slog.Logger) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			logger.Warn("audit-consumer: dial failed", slog.Any("error", err), slog.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, out, logger)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("audit-consumer: consume loop ended, reconnecting", slog.Any("error", err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, out io.Writer, logger *slog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.Warn("audit-consumer: set QoS failed", slog.Any("error", err))
	}
	if _, err := ch.QueueDeclare(AuditQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(AuditQueue, "", false, false, false, false, nil)
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
			if err := handleMessage(d.Body, out); err != nil {
				logger.Error("audit-consumer: handle message failed", slog.Any("error", err))
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func handleMessage(body []byte, out io.Writer) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" {
		return errors.New("event without type")
	}
	if _, err := io.WriteString(out, FormatLine(ev)); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// FormatLine renders ev as a single audit log line.
func FormatLine(ev Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type)
	field := func(k, v string) {
		if v != "" {
			fmt.Fprintf(&b, " | %s=%q", k, v)
		}
	}
	num := func(k string, v int) {
		if v != 0 {
			fmt.Fprintf(&b, " | %s=%d", k, v)
		}
	}
	field("actor", ev.ActorID)
	num("month", ev.MonthID)
	num("day", ev.Day)
	field("user_id", ev.UserID)
	field("email", ev.Email)
	field("step", ev.Step)
	field("detail", ev.Detail)
	if ev.Type == EventOperatorReview {
		b.WriteString(" | NEEDS OPERATOR REVIEW")
	}
	b.WriteByte('\n')
	return b.String()
}
