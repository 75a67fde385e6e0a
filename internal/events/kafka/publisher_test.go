package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"

	"github.com/dukerupert/dinobank/internal/events"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error { return nil }

func TestPublishKeysByFamily(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w}

	e := events.New(events.LedgerCredited, 42, 7, 99).WithAmount(500, 500)
	if err := p.Publish(context.Background(), e); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(w.msgs))
	}

	msg := w.msgs[0]
	if string(msg.Key) != "42" {
		t.Errorf("key = %q, want 42", msg.Key)
	}
	var got events.Event
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Type != events.LedgerCredited || got.AccountID != 7 {
		t.Errorf("event = %+v", got)
	}
	if len(msg.Headers) == 0 || string(msg.Headers[0].Value) != string(events.LedgerCredited) {
		t.Errorf("headers = %+v", msg.Headers)
	}
}

func TestPublishWrapsWriterError(t *testing.T) {
	boom := errors.New("no brokers")
	p := &Publisher{writer: &fakeWriter{err: boom}}

	err := p.Publish(context.Background(), events.New(events.GoalReached, 1, 2, 3))
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped writer error", err)
	}
}
