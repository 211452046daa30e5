// Package events publishes quotation and invoice lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// Type names a lifecycle event.
type Type string

const (
	QuotationCreated       Type = "quotation.created"
	QuotationStatusChanged Type = "quotation.status_changed"
	InvoiceGenerated       Type = "invoice.generated"
	InvoiceStatusChanged   Type = "invoice.status_changed"
)

// Event is the JSON payload written to the lifecycle topic.
type Event struct {
	Type          Type      `json:"type"`
	OccurredAt    time.Time `json:"occurred_at"`
	UserID        string    `json:"user_id,omitempty"`
	QuotationID   string    `json:"quotation_id,omitempty"`
	InvoiceID     string    `json:"invoice_id,omitempty"`
	InvoiceNumber string    `json:"invoice_number,omitempty"`
	From          string    `json:"from,omitempty"`
	Status        string    `json:"status,omitempty"`
}

// key groups every event of a document on the same partition.
func (e Event) key() string {
	if e.QuotationID != "" {
		return e.QuotationID
	}
	return e.InvoiceID
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes events asynchronously; delivery failures are only logged.
type Producer struct {
	l     *slog.Logger
	w     messageWriter
	topic string
}

func NewProducer(l *slog.Logger, brokers []string, topic string) *Producer {
	l = l.WithGroup("kafka").With("topic", topic)
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		Async:                  true,
		AllowAutoTopicCreation: true,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			l.Error(fmt.Sprintf(msg, args...))
		}),
	}
	return &Producer{l: l, w: w, topic: topic}
}

// Publish serializes e and hands it to the writer.
func (p *Producer) Publish(ctx context.Context, e Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	b, err := json.Marshal(e)
	if err != nil {
		p.l.ErrorContext(ctx, "marshal event", "error", err)
		return
	}
	err = p.w.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(e.key()),
		Value: b,
	})
	if err != nil {
		p.l.ErrorContext(ctx, "write kafka message", "type", e.Type, "error", err)
	}
}

func (p *Producer) Close() {
	if err := p.w.Close(); err != nil {
		p.l.Error("close kafka writer", "error", err)
	}
}

// Nop drops every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
