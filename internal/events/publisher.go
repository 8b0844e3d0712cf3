package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/lizzietrust/chat-backend/internal/metrics"
)

// Event names published to the message lifecycle topic.
const (
	MessageNew     = "message.new"
	MessageRead    = "message.read"
	MessageEdited  = "message.edited"
	MessageDeleted = "message.deleted"
	ChatCleared    = "chat.cleared"
)

type envelope struct {
	Event string    `json:"event"`
	At    time.Time `json:"at"`
	Data  any       `json:"data"`
}

// Publisher writes lifecycle events to Kafka. Publishing is best-effort:
// failures are logged and never surfaced to the request path.
type Publisher struct {
	writer *kafka.Writer
	log    *zap.SugaredLogger
}

func NewPublisher(brokers []string, topic string, log *zap.SugaredLogger) *Publisher {
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &Publisher{writer: w, log: log}
}

func (p *Publisher) Publish(ctx context.Context, event, key string, data any) {
	b, err := json.Marshal(envelope{Event: event, At: time.Now().UTC(), Data: data})
	if err != nil {
		p.log.Warnw("event marshal failed", "event", event, "err", err)
		return
	}
	msg := kafka.Message{Key: []byte(key), Value: b, Time: time.Now()}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Warnw("event publish failed", "event", event, "err", err)
		return
	}
	metrics.EventsPublished.WithLabelValues(event).Inc()
}

func (p *Publisher) Close() error { return p.writer.Close() }
