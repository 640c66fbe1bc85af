package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TopicUsers        = "user_events"
	TopicMenu         = "menu_events"
	TopicOrders       = "order_events"
	TopicReservations = "reservation_events"
)

const publishTimeout = 5 * time.Second

type Event struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data"`
}

func New(typ string, data any) Event {
	return Event{Type: typ, At: time.Now().UTC(), Data: data}
}

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher returns an asynchronous publisher: PublishEvent only
// queues the message, and delivery failures are reported to l.
func NewKafkaPublisher(brokers []string, l *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		Async:                  true,
		Completion:             completion(l),
	}}
}

func completion(l *slog.Logger) func([]kafka.Message, error) {
	return func(msgs []kafka.Message, err error) {
		if err == nil || len(msgs) == 0 {
			return
		}
		l.Warn("event_publish_error", "topic", msgs[0].Topic, "messages", len(msgs), "error", err)
	}
}

func (p *KafkaPublisher) PublishEvent(ctx context.Context, topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	}); err != nil {
		return fmt.Errorf("kafka: write to %s failed: %w", topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Nop drops every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) PublishEvent(context.Context, string, string, any) error { return nil }
