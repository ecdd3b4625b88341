// Package messaging publishes domain events to the configured broker.
// Delivery is fire-and-forget: request handling never waits on or fails
// because of a broker.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"internship-service/internal/config"
	"internship-service/internal/metrics"
)

const (
	SubjectInternshipCreated        = "internships.created"
	SubjectApplicationSubmitted     = "applications.submitted"
	SubjectApplicationStatusChanged = "applications.status_changed"
)

// Publisher delivers one encoded event to a broker subject, topic or
// routing key.
type Publisher interface {
	Publish(ctx context.Context, subject string, body []byte) error
	Close() error
}

// NewPublisher connects the broker selected by cfg.Driver.
func NewPublisher(ctx context.Context, cfg config.EventsConfig, logger *slog.Logger) (Publisher, error) {
	switch cfg.Driver {
	case "", "none":
		return NoopPublisher{}, nil
	case "nats":
		return NewNATSPublisher(cfg.NATSURL, logger)
	case "kafka":
		return NewKafkaPublisher(cfg.Brokers, logger)
	case "amqp", "rabbitmq":
		return NewAMQPPublisher(ctx, cfg.AMQPURL, cfg.Exchange, logger)
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
	}
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, []byte) error { return nil }
func (NoopPublisher) Close() error { return nil }

// Envelope is the JSON document written to the broker.
type Envelope struct {
	Subject    string    `json:"subject"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

// Emitter encodes events and hands them to a Publisher, logging and
// counting failures instead of returning them.
type Emitter struct {
	publisher Publisher
	driver    string
	prefix    string
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewEmitter(publisher Publisher, cfg config.EventsConfig, logger *slog.Logger, m *metrics.Metrics) *Emitter {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	driver := cfg.Driver
	if driver == "" {
		driver = "none"
	}
	return &Emitter{
		publisher: publisher,
		driver:    driver,
		prefix:    cfg.Prefix,
		timeout:   2 * time.Second,
		logger:    logger,
		metrics:   m,
	}
}

// Emit publishes data under subject. A nil Emitter drops the event.
func (e *Emitter) Emit(ctx context.Context, subject string, data any) {
	if e == nil {
		return
	}
	if e.prefix != "" {
		subject = e.prefix + "." + subject
	}

	body, err := json.Marshal(Envelope{Subject: subject, OccurredAt: time.Now().UTC(), Data: data})
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to encode event", "subject", subject, "error", err)
		return
	}

	// The request context may be cancelled right after the response is written.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()

	start := time.Now()
	err = e.publisher.Publish(pubCtx, subject, body)
	e.metrics.Messaging.RecordPublish(ctx, e.driver, subject, time.Since(start), err)
	if err != nil {
		e.logger.WarnContext(ctx, "failed to publish event", "driver", e.driver, "subject", subject, "error", err)
		return
	}
	e.logger.DebugContext(ctx, "event published", "driver", e.driver, "subject", subject)
}

func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	return e.publisher.Close()
}
