// Package goal moves money from a child's balance into a savings goal.
package goal

import (
	"context"
	"fmt"

	"github.com/dukerupert/dinobank/internal/access"
	"github.com/dukerupert/dinobank/internal/apperr"
	"github.com/dukerupert/dinobank/internal/ledger"
	"github.com/dukerupert/dinobank/internal/model"
	"github.com/dukerupert/dinobank/internal/store"
)

// ContributionReason is the ledger reason recorded for a contribution.
func ContributionReason(title string) string {
	return "Saved for goal: " + title
}

type Engine struct {
	ledger *ledger.Ledger
}

func NewEngine(l *ledger.Ledger) *Engine {
	return &Engine{ledger: l}
}

type Result struct {
	Goal  model.Goal
	Debit *ledger.Entry
	// Reached is true when this contribution moved the goal to reached.
	Reached bool
}

// Contribute debits amount from actor and adds it to the goal. A contribution
// that crosses the target is kept in full and marks the goal reached.
func (e *Engine) Contribute(ctx context.Context, tx store.Tx, goalID int64, actor access.Principal, amount int64) (*Result, error) {
	if amount <= 0 {
		return nil, apperr.Validation("amount must be positive")
	}

	g, err := tx.LockGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, apperr.NotFound("goal not found")
	}
	if g.Status == model.GoalStatusReached {
		return nil, apperr.InvalidState("goal already reached")
	}
	if !access.Allowed(actor, access.ContributeGoal, access.Target{Goal: g}) {
		return nil, apperr.Forbidden("only the goal owner can contribute")
	}

	entry, err := e.ledger.Debit(ctx, tx, actor.AccountID, amount, model.KindGoalContribution, ContributionReason(g.Title))
	if err != nil {
		return nil, err
	}

	g.CurrentAmount += amount
	res := &Result{Debit: entry}
	if g.CurrentAmount >= g.TargetAmount {
		g.Status = model.GoalStatusReached
		res.Reached = true
	}
	if err := tx.UpdateGoalProgress(ctx, g.ID, g.CurrentAmount, g.Status); err != nil {
		return nil, fmt.Errorf("contribute to goal %d: %w", g.ID, err)
	}

	res.Goal = *g
	return res, nil
}
