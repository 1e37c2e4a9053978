package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-ga/pkg/config"
)

// Event types published for generator runs.
const (
	TypeRunCompleted = "ga_run.completed"
	TypeRunFailed    = "ga_run.failed"
)

// RunEvent describes the terminal state of a generator run.
type RunEvent struct {
	Type            string    `json:"type"`
	RunID           string    `json:"run_id"`
	UserID          string    `json:"user_id"`
	Status          string    `json:"status"`
	FinalFitness    float64   `json:"final_fitness,omitempty"`
	GenerationCount int       `json:"generation_count,omitempty"`
	ConflictCount   int       `json:"conflict_count,omitempty"`
	SlotCount       int       `json:"slot_count,omitempty"`
	Error           string    `json:"error,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// Publisher delivers run events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event RunEvent) error
	Close() error
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes JSON events to a durable RabbitMQ queue.
type AMQPPublisher struct {
	conn    *amqp.Connection
	ch      channel
	queue   string
	timeout time.Duration
	logger  *zap.Logger
}

// New returns an AMQP publisher when events are enabled and a no-op publisher otherwise.
func New(cfg config.EventsConfig, logger *zap.Logger) (Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		return NopPublisher{}, nil
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", cfg.Queue, err)
	}

	p := newAMQPPublisher(ch, cfg.Queue, cfg.PublishTimeout, logger)
	p.conn = conn
	return p, nil
}

func newAMQPPublisher(ch channel, queue string, timeout time.Duration, logger *zap.Logger) *AMQPPublisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AMQPPublisher{ch: ch, queue: queue, timeout: timeout, logger: logger}
}

// Publish sends event to the configured queue through the default exchange.
func (p *AMQPPublisher) Publish(ctx context.Context, event RunEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.ch.PublishWithContext(ctx, "", p.queue, true, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.RunID,
		Type:         event.Type,
		Timestamp:    event.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	p.logger.Debug("run event published", zap.String("type", event.Type), zap.String("run_id", event.RunID))
	return nil
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, RunEvent) error { return nil }
func (NopPublisher) Close() error                            { return nil }
