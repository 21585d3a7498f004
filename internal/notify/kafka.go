// Package notify announces committed runs to downstream consumers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/BartekS5/activity-etl/pkg/models"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the notifier needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes one RunCompleted event per committed run.
type KafkaNotifier struct {
	writer MessageWriter
}

// NewKafkaNotifier creates a synchronous writer that waits for all replicas.
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return NewKafkaNotifierWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Async:        false,
	})
}

func NewKafkaNotifierWithWriter(w MessageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: w}
}

func (n *KafkaNotifier) Publish(ctx context.Context, event models.RunCompleted) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal run event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.RunID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte("activity_etl.run_completed")},
		},
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish run %s: %w", event.RunID, err)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
