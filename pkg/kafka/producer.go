package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Writer is the subset of *kafka.Writer the producer needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher publishes keyed events.
type Publisher interface {
	Publish(ctx context.Context, key string, event interface{}) error
}

type nopPublisher struct{}

// NewNopPublisher returns a Publisher that discards events. It stands in when
// kafka is disabled.
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, string, interface{}) error { return nil }

// Producer publishes JSON events to a single topic.
type Producer struct {
	writer Writer
	topic  string
}

// NewProducer creates a producer writing to topic on the given brokers.
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Producer{writer: writer, topic: topic}
}

// NewProducerWithWriter wraps an existing writer.
func NewProducerWithWriter(writer Writer, topic string) *Producer {
	return &Producer{writer: writer, topic: topic}
}

// Publish marshals event to JSON and writes it keyed by key.
func (p *Producer) Publish(ctx context.Context, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}

// Topic returns the topic this producer writes to.
func (p *Producer) Topic() string {
	return p.topic
}

// Close flushes pending messages and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
