package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends audit events.  Publishing is best effort: callers log a
// failure and carry on.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// AMQPPublisher publishes each event over a short-lived connection to the
// broker at URL.
type AMQPPublisher struct {
	URL    string
	Logger *slog.Logger
}

// NewPublisher returns an AMQPPublisher, or a publisher that only logs
// when url is empty.
func NewPublisher(url string, logger *slog.Logger) Publisher {
	if url == "" {
		return LogPublisher{Logger: logger}
	}
	return &AMQPPublisher{URL: url, Logger: logger}
}

// Publish stamps OccurredAt when unset and sends ev to AuditQueue as a
// persistent JSON message.
func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Logger.Warn("rabbitmq dial failed", slog.String("event", ev.Type), slog.Any("error", err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Logger.Warn("rabbitmq channel open failed", slog.Any("error", err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(AuditQueue, true, false, false, false, nil); err != nil {
		p.Logger.Warn("rabbitmq queue declare failed", slog.Any("error", err))
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.OccurredAt,
		Type:         ev.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", AuditQueue, false, false, pub); err != nil {
		p.Logger.Warn("rabbitmq publish failed", slog.String("event", ev.Type), slog.Any("error", err))
		return err
	}
	return nil
}

// LogPublisher writes events to the application log instead of a broker.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) Publish(ctx context.Context, ev Event) error {
	level := slog.LevelInfo
	if ev.Type == EventOperatorReview {
		level = slog.LevelError
	}
	p.Logger.Log(ctx, level, "audit event",
		slog.String("type", ev.Type),
		slog.String("user_id", ev.UserID),
		slog.Int("month_id", ev.MonthID),
		slog.Int("day", ev.Day),
		slog.String("step", ev.Step),
		slog.String("detail", ev.Detail))
	return nil
}
