// Package events publishes domain events to Kafka. Publishing is
// best-effort: a broker outage degrades to logged errors, never to failed
// requests.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"apibase/pkg/requestcontext"
)

const userEventsTopic = "user-events"

// UserRegistered is emitted after a successful registration.
type UserRegistered struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
	RequestID    string    `json:"request_id,omitempty"`
}

// Publisher wraps a Kafka producer for domain events.
type Publisher struct {
	client *kgo.Client
	logger *slog.Logger
}

// NewPublisher connects a producer and verifies broker reachability.
func NewPublisher(ctx context.Context, brokers []string, logger *slog.Logger) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka ping: %w", err)
	}
	return &Publisher{client: client, logger: logger}, nil
}

// PublishUserRegistered produces a user.registered record keyed by user ID.
// Delivery failures are logged, not returned; registration must not fail on
// a broker hiccup.
func (p *Publisher) PublishUserRegistered(ctx context.Context, event UserRegistered) {
	event.RequestID = requestcontext.RequestID(ctx)
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "marshal user.registered event", "error", err)
		return
	}

	record := &kgo.Record{
		Topic: userEventsTopic,
		Key:   []byte(event.UserID),
		Value: value,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("publish user.registered event", "error", err, "user_id", event.UserID)
		}
	})
}

// Close flushes outstanding records and releases the producer.
func (p *Publisher) Close(ctx context.Context) error {
	if err := p.client.Flush(ctx); err != nil {
		p.client.Close()
		return fmt.Errorf("flush kafka producer: %w", err)
	}
	p.client.Close()
	return nil
}
