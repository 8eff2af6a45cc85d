// Package kafka publishes tracker events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	tracker "github.com/mohamedar97/finance-tracker"
)

const defaultTopic = "finance-tracker.events"

// Publisher writes tracker events to a single topic, keyed by user so that
// one user's events stay ordered within a partition.
type Publisher struct {
	writer *kafka.Writer
}

var _ tracker.Publisher = (*Publisher)(nil)

// NewPublisher creates a publisher for the given brokers. An empty topic
// selects the default.
func NewPublisher(brokers []string, topic string) *Publisher {
	if topic == "" {
		topic = defaultTopic
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Publish marshals the event and writes it to the topic.
func (p *Publisher) Publish(ctx context.Context, event tracker.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("cannot marshal %s event: %w", event.Kind, err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.UserID),
		Value: data,
	})
}

// Close flushes pending messages and releases the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
