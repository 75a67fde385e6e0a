package amqp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rabbitmq/amqp091-go"

	"github.com/dukerupert/dinobank/internal/events"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp091.Publishing
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func TestPublishRoutesByType(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{channel: ch, exchange: "dinobank.events"}

	e := events.New(events.GoalReached, 1, 2, 3)
	if err := p.Publish(context.Background(), e); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if ch.exchange != "dinobank.events" {
		t.Errorf("exchange = %q", ch.exchange)
	}
	if ch.key != "goal.reached" {
		t.Errorf("routing key = %q, want goal.reached", ch.key)
	}
	if ch.msg.MessageId != e.ID || ch.msg.ContentType != "application/json" {
		t.Errorf("publishing = %+v", ch.msg)
	}

	var got events.Event
	if err := json.Unmarshal(ch.msg.Body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.EntityID != 3 {
		t.Errorf("entity id = %d, want 3", got.EntityID)
	}
}
