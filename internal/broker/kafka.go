package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/syntaxarena/arena/internal/arena"
)

// Kafka appends every message to a single topic as an event log. The arena
// topic is the record key, so one session's events stay ordered within a
// partition.
type Kafka struct {
	w      *kafka.Writer
	logger *slog.Logger
}

func NewKafka(brokers []string, topic string, logger *slog.Logger) *Kafka {
	return &Kafka{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			Async:                  true,
			AllowAutoTopicCreation: true,
			Completion: func(messages []kafka.Message, err error) {
				if err != nil {
					logger.Warn("kafka write failed", "messages", len(messages), "error", err)
				}
			},
		},
		logger: logger,
	}
}

func (k *Kafka) Publish(topic string, msg arena.Message) {
	m, err := encodeKafka(topic, msg)
	if err != nil {
		k.logger.Error("encoding message for kafka", "topic", topic, "error", err)
		return
	}
	// Async writers only fail here once closed.
	if err := k.w.WriteMessages(context.Background(), m); err != nil {
		k.logger.Warn("kafka publish failed", "topic", topic, "type", msg.Type, "error", err)
	}
}

// Close flushes pending writes.
func (k *Kafka) Close() error {
	return k.w.Close()
}

func encodeKafka(topic string, msg arena.Message) (kafka.Message, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encoding message: %w", err)
	}
	return kafka.Message{
		Key:   []byte(topic),
		Value: data,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(msg.Type)},
		},
	}, nil
}
