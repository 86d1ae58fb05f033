// Package kafka publishes notification copies to a Kafka topic for external
// delivery channels. The inbox store is the source of truth; this stream is
// at-least-once and consumers must dedupe on notification ID.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"kindra/internal/notification/models"
	"kindra/internal/platform/config"
)

// Publisher produces notification records keyed by recipient so one
// recipient's notifications stay ordered within a partition.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewPublisher connects to the brokers and ensures the topic exists.
// Returns nil if no brokers are configured (Kafka delivery disabled).
func NewPublisher(cfg config.KafkaConfig, logger *slog.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.NotificationsTopic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.RecordRetries(5),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	p := &Publisher{client: client, topic: cfg.NotificationsTopic, logger: logger}
	if err := p.ensureTopic(cfg.NotificationsTopic); err != nil {
		client.Close()
		return nil, err
	}
	return p, nil
}

func (p *Publisher) ensureTopic(topic string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	adm := kadm.NewClient(p.client)
	resps, err := adm.CreateTopics(ctx, 3, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, resp := range resps.Sorted() {
		// TOPIC_ALREADY_EXISTS is fine; anything else is not.
		if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			if p.logger != nil {
				p.logger.Warn("topic create response", "topic", resp.Topic, "error", resp.Err.Error())
			}
		}
	}
	return nil
}

type payload struct {
	ID        string `json:"id"`
	Recipient string `json:"recipient"`
	Title     string `json:"title"`
	Body      string `json:"message"`
	Kind      string `json:"kind"`
	Category  string `json:"category"`
	Link      string `json:"link,omitempty"`
	CreatedAt string `json:"created_at"`
}

// Publish produces asynchronously; produce failures are logged by the
// callback. The inbox row already exists, so losing a record here only
// delays external delivery.
func (p *Publisher) Publish(ctx context.Context, n models.Notification) error {
	value, err := json.Marshal(payload{
		ID:        n.ID.String(),
		Recipient: n.Recipient.String(),
		Title:     n.Title,
		Body:      n.Body,
		Kind:      string(n.Kind),
		Category:  string(n.Category),
		Link:      n.Link,
		CreatedAt: n.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(n.Recipient.String()),
		Value: value,
	}
	p.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		if err != nil && p.logger != nil {
			p.logger.Error("notification produce failed",
				"notification_id", n.ID.String(),
				"error", err.Error(),
			)
		}
	})
	return nil
}

// Close flushes buffered records and releases the client.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.client.Flush(ctx)
	p.client.Close()
}
