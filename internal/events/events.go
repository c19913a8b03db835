// Package events publishes domain events through watermill. The default
// driver is an in-process go channel; kafka is used when configured.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/munificent-school/backoffice/internal/metrics"
)

const (
	TopicApplicationCreated = "application.created"
	TopicEnrollmentUpdated  = "enrollment.updated"
	TopicSettingsUpdated    = "settings.updated"
)

const (
	DriverGoChannel = "gochannel"
	DriverKafka     = "kafka"
)

// ===== PAYLOADS =====

type ApplicationCreated struct {
	ApplicationID uint      `json:"application_id"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	Subject       string    `json:"subject,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type EnrollmentUpdated struct {
	StudentID uint   `json:"student_id"`
	ProfileID uint   `json:"profile_id"`
	CourseIDs []uint `json:"course_ids"`
	ActorID   uint   `json:"actor_id"`
}

type SettingsUpdated struct {
	ActorID   uint      `json:"actor_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Publisher sends a JSON-encoded payload to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
	Close() error
}

type Config struct {
	Driver       string
	KafkaBrokers []string
}

type watermillPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
}

// NewPublisher builds the publisher selected by cfg.Driver.
func NewPublisher(cfg Config, logger *slog.Logger) (Publisher, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch cfg.Driver {
	case "", DriverGoChannel:
		return Wrap(gochannel.NewGoChannel(gochannel.Config{}, wmLogger), logger), nil
	case DriverKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("kafka driver requires at least one broker")
		}
		pub, err := kafka.NewPublisher(kafka.PublisherConfig{
			Brokers:   cfg.KafkaBrokers,
			Marshaler: kafka.DefaultMarshaler{},
		}, wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
		}
		return Wrap(pub, logger), nil
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
	}
}

// Wrap adapts any watermill publisher.
func Wrap(publisher message.Publisher, logger *slog.Logger) Publisher {
	return &watermillPublisher{publisher: publisher, logger: logger}
}

func (p *watermillPublisher) Publish(ctx context.Context, topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", topic, err)
	}

	msg := message.NewMessage(uuid.NewString(), data)
	msg.Metadata.Set("event_type", topic)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", topic, err)
	}
	p.logger.Debug("Event published", "topic", topic, "message_uuid", msg.UUID)
	return nil
}

func (p *watermillPublisher) Close() error {
	return p.publisher.Close()
}

// PublishSafe publishes and logs failures instead of returning them.
func PublishSafe(ctx context.Context, publisher Publisher, logger *slog.Logger, topic string, payload interface{}) {
	if publisher == nil {
		return
	}
	err := publisher.Publish(ctx, topic, payload)
	metrics.RecordEvent(topic, err == nil)
	if err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "topic", topic, "error", err)
	}
}
