// Package chore enforces the chore lifecycle:
//
//	pending -> completed -> approved | declined
//
// Approval pays the reward through the ledger in the same unit of work as the
// status change.
package chore

import (
	"context"
	"fmt"

	"github.com/dukerupert/dinobank/internal/access"
	"github.com/dukerupert/dinobank/internal/apperr"
	"github.com/dukerupert/dinobank/internal/ledger"
	"github.com/dukerupert/dinobank/internal/model"
	"github.com/dukerupert/dinobank/internal/store"
)

var edges = map[model.ChoreStatus][]model.ChoreStatus{
	model.ChoreStatusPending:   {model.ChoreStatusCompleted},
	model.ChoreStatusCompleted: {model.ChoreStatusApproved, model.ChoreStatusDeclined},
}

// CanTransition reports whether from -> to is a defined edge.
func CanTransition(from, to model.ChoreStatus) bool {
	for _, s := range edges[from] {
		if s == to {
			return true
		}
	}
	return false
}

// RewardReason is the ledger reason recorded for an approved chore.
func RewardReason(title string) string {
	return "Completed chore: " + title
}

type Machine struct {
	ledger *ledger.Ledger
}

func NewMachine(l *ledger.Ledger) *Machine {
	return &Machine{ledger: l}
}

// Result is a committed-to-be transition. Payout is set only on approval.
type Result struct {
	Chore  model.Chore
	From   model.ChoreStatus
	Payout *ledger.Entry
}

// Transition moves c to the requested status on behalf of actor. c must have
// been read through tx (locked) by the caller. Any error leaves the chore and
// the assignee's balance untouched once the caller rolls back.
func (m *Machine) Transition(ctx context.Context, tx store.Tx, c model.Chore, actor access.Principal, to model.ChoreStatus) (*Result, error) {
	from := c.Status
	if !CanTransition(from, to) {
		return nil, apperr.Newf(apperr.KindInvalidTransition, "cannot move chore from %s to %s", from, to)
	}

	switch to {
	case model.ChoreStatusCompleted:
		if !actor.IsChild() || actor.AccountID != c.AssigneeID {
			return nil, apperr.InvalidTransition("only the assignee can complete a chore")
		}
	case model.ChoreStatusApproved, model.ChoreStatusDeclined:
		ok, err := canReview(ctx, tx, c, actor)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.InvalidTransition("only the creator or the assignee's parent can review a chore")
		}
	}

	ok, err := tx.SetChoreStatus(ctx, c.ID, from, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Newf(apperr.KindInvalidTransition, "chore is no longer %s", from)
	}

	res := &Result{From: from}
	if to == model.ChoreStatusApproved {
		entry, err := m.ledger.Credit(ctx, tx, c.AssigneeID, c.RewardValue, model.KindEarned, RewardReason(c.Title))
		if err != nil {
			return nil, fmt.Errorf("pay chore %d: %w", c.ID, err)
		}
		res.Payout = entry
	}

	c.Status = to
	res.Chore = c
	return res, nil
}

// canReview reports whether actor created c or manages its assignee.
func canReview(ctx context.Context, tx store.Tx, c model.Chore, actor access.Principal) (bool, error) {
	if !actor.IsParent() {
		return false, nil
	}
	if c.CreatorID == actor.AccountID {
		return true, nil
	}
	assignee, err := tx.GetAccount(ctx, c.AssigneeID)
	if err != nil {
		return false, err
	}
	return assignee != nil && assignee.ManagedBy(actor.AccountID), nil
}
