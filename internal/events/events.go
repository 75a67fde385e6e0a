// Package events describes committed changes that are pushed to listeners
// after the fact. Publishing never affects the outcome of the change itself.
package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	ChoreStatusChanged Type = "chore.status_changed"
	LedgerCredited     Type = "ledger.credited"
	LedgerDebited      Type = "ledger.debited"
	GoalContributed    Type = "goal.contributed"
	GoalReached        Type = "goal.reached"
)

// Entity is the part of the type before the dot.
func (t Type) Entity() string {
	e, _, _ := strings.Cut(string(t), ".")
	return e
}

// Action is the part of the type after the dot.
func (t Type) Action() string {
	_, a, _ := strings.Cut(string(t), ".")
	return a
}

type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	FamilyID   int64     `json:"family_id"`
	AccountID  int64     `json:"account_id"`
	EntityID   int64     `json:"entity_id"`
	Amount     int64     `json:"amount,omitempty"`
	Balance    *int64    `json:"balance,omitempty"`
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func New(t Type, familyID, accountID, entityID int64) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		FamilyID:   familyID,
		AccountID:  accountID,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
	}
}

func (e Event) WithAmount(amount, balance int64) Event {
	e.Amount = amount
	e.Balance = &balance
	return e
}

func (e Event) WithStatus(status string) Event {
	e.Status = status
	return e
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
