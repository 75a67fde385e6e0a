package events

import (
	"context"
	"errors"
	"testing"
)

type recorder struct {
	got []Event
	err error
}

func (r *recorder) Publish(_ context.Context, e Event) error {
	r.got = append(r.got, e)
	return r.err
}

func TestTypeParts(t *testing.T) {
	if GoalReached.Entity() != "goal" || GoalReached.Action() != "reached" {
		t.Errorf("parts = %q %q", GoalReached.Entity(), GoalReached.Action())
	}
	if ChoreStatusChanged.Action() != "status_changed" {
		t.Errorf("action = %q", ChoreStatusChanged.Action())
	}
}

func TestNewEvent(t *testing.T) {
	e := New(LedgerCredited, 1, 2, 3).WithAmount(500, 700)
	if e.ID == "" {
		t.Error("expected id")
	}
	if e.Amount != 500 || e.Balance == nil || *e.Balance != 700 {
		t.Errorf("event = %+v", e)
	}
	if e.OccurredAt.IsZero() {
		t.Error("expected occurred_at")
	}
}

func TestMultiPublishesToAll(t *testing.T) {
	boom := errors.New("broker down")
	a := &recorder{}
	b := &recorder{err: boom}
	c := &recorder{}

	err := Multi{a, b, c, Nop{}}.Publish(context.Background(), New(GoalReached, 1, 2, 3))
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want broker down", err)
	}
	for i, r := range []*recorder{a, b, c} {
		if len(r.got) != 1 {
			t.Errorf("publisher %d got %d events, want 1", i, len(r.got))
		}
	}
}
