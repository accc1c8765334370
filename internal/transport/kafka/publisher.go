// Package kafka publishes relevance pipeline decisions to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/kailas-cloud/estatesearch/internal/domain/relevance"
)

// messageWriter is the consumer interface over kafka.Writer (ISP).
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config holds publisher settings.
type Config struct {
	Brokers []string
	Topic   string
	Logger  *zap.Logger
}

// Publisher writes one JSON message per decision event, keyed by article id.
type Publisher struct {
	w      messageWriter
	topic  string
	logger *zap.Logger
}

// NewPublisher creates a publisher over a kafka.Writer.
func NewPublisher(cfg Config) *Publisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return newPublisher(w, cfg.Topic, cfg.Logger)
}

func newPublisher(w messageWriter, topic string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{w: w, topic: topic, logger: logger}
}

// Publish writes events in order.
func (p *Publisher) Publish(ctx context.Context, events ...relevance.Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode event %s: %w", ev.ArticleID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(ev.ArticleID),
			Value: data,
			Time:  ev.Timestamp,
			Headers: []kafka.Header{
				{Key: "run_id", Value: []byte(ev.RunID)},
				{Key: "outcome", Value: []byte(ev.Outcome)},
			},
		})
	}
	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d events to %s: %w", len(msgs), p.topic, err)
	}
	p.logger.Debug("Decision events published", zap.String("topic", p.topic), zap.Int("events", len(msgs)))
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.w.Close()
}
