// Package notify announces completed ingestion runs on a Kafka topic.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/i474232898/weather-vis/internal/weather"
)

// messageWriter is the part of kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// TableUpdated is the message body published after each stored run.
type TableUpdated struct {
	RunID       string    `json:"run_id"`
	Bucket      string    `json:"bucket"`
	Key         string    `json:"key"`
	Rows        int       `json:"rows"`
	Cities      []string  `json:"cities"`
	GeneratedAt time.Time `json:"generated_at"`
}

// KafkaNotifier implements weather.Notifier.
type KafkaNotifier struct {
	writer messageWriter
	bucket string
	key    string
}

// NewKafkaNotifier creates a producer for topic. bucket and key name the
// stored table in every message.
func NewKafkaNotifier(brokers []string, topic, bucket, key string) *KafkaNotifier {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &KafkaNotifier{writer: w, bucket: bucket, key: key}
}

// Notify publishes one TableUpdated message keyed by run ID.
func (n *KafkaNotifier) Notify(ctx context.Context, res weather.Result) error {
	msg, err := serializeToMessage(TableUpdated{
		RunID:       res.RunID,
		Bucket:      n.bucket,
		Key:         n.key,
		Rows:        res.Rows,
		Cities:      res.Cities,
		GeneratedAt: res.GeneratedAt,
	})
	if err != nil {
		return err
	}
	return n.writer.WriteMessages(ctx, msg)
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

func serializeToMessage(ev TableUpdated) (kafkago.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize table update: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(ev.RunID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte("table_updated")},
			{Key: "generated_at", Value: []byte(ev.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
