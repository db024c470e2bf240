// Package events publishes domain events raised by the sync gateway.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/hyperengineering/fastline/internal/types"
)

// TopicFastingCompleted receives one message per completed fast accepted by the gateway.
const TopicFastingCompleted = "fastline.fasting.completed"

// FastingCompleted is the payload consumed by the push-notification service.
type FastingCompleted struct {
	Type        string    `json:"type"`
	UserID      string    `json:"userId"`
	FastID      string    `json:"fastId"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Hours       float64   `json:"hours"`
	TargetHours int       `json:"targetHours"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Publisher emits gateway events.
type Publisher interface {
	FastingCompleted(ctx context.Context, userID string, log types.FastingLog) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events with a kafka-go writer.
type KafkaPublisher struct {
	writer messageWriter
	now    func() time.Time
}

// NewKafkaPublisher creates a publisher for the given brokers.
func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        TopicFastingCompleted,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Compression:  kafka.Snappy,
		},
		now: time.Now,
	}
}

// New returns a KafkaPublisher, or Noop when no brokers are configured.
func New(brokers []string) Publisher {
	if len(brokers) == 0 {
		return Noop{}
	}
	return NewKafkaPublisher(brokers)
}

// FastingCompleted publishes a completion keyed by user so a user's events stay ordered.
// Logs that are not completed are ignored.
func (p *KafkaPublisher) FastingCompleted(ctx context.Context, userID string, log types.FastingLog) error {
	if log.Status != types.StatusCompleted || log.End == nil {
		return nil
	}
	evt := FastingCompleted{
		Type:        "fasting.completed",
		UserID:      userID,
		FastID:      log.ID,
		Start:       log.Start,
		End:         *log.End,
		Hours:       log.Duration().Hours(),
		TargetHours: log.TargetHours,
		OccurredAt:  p.now().UTC(),
	}
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(userID), Value: value}); err != nil {
		return fmt.Errorf("publish %s: %w", TopicFastingCompleted, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Noop drops events when no brokers are configured.
type Noop struct{}

func (Noop) FastingCompleted(ctx context.Context, userID string, log types.FastingLog) error {
	slog.Debug("event dropped, no brokers configured",
		"component", "events",
		"fast_id", log.ID,
	)
	return nil
}

func (Noop) Close() error { return nil }
