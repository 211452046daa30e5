package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{l: discardLogger(), w: w, topic: "billing.lifecycle"}

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p.Publish(context.Background(), Event{Type: InvoiceGenerated, OccurredAt: at, QuotationID: "q1", InvoiceID: "i1", InvoiceNumber: "FAC-202603-000001"})

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	require.Equal(t, "billing.lifecycle", msg.Topic)
	require.Equal(t, "q1", string(msg.Key))

	var got Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	require.Equal(t, InvoiceGenerated, got.Type)
	require.Equal(t, "FAC-202603-000001", got.InvoiceNumber)
	require.True(t, got.OccurredAt.Equal(at))

	p.Close()
	require.True(t, w.closed)
}

func TestProducer_PublishStampsTimeAndSwallowsErrors(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := &Producer{l: discardLogger(), w: w, topic: "t"}

	p.Publish(context.Background(), Event{Type: InvoiceStatusChanged, InvoiceID: "i1", Status: "sent"})

	require.Len(t, w.msgs, 1)
	require.Equal(t, "i1", string(w.msgs[0].Key))
	var got Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	require.False(t, got.OccurredAt.IsZero())
}
