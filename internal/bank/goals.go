package bank

import (
	"context"

	"github.com/dukerupert/dinobank/internal/access"
	"github.com/dukerupert/dinobank/internal/apperr"
	"github.com/dukerupert/dinobank/internal/events"
	"github.com/dukerupert/dinobank/internal/goal"
	"github.com/dukerupert/dinobank/internal/model"
	"github.com/dukerupert/dinobank/internal/store"
)

// ListGoals returns ownerID's goals; zero means p's own.
func (s *Service) ListGoals(ctx context.Context, p access.Principal, ownerID int64) ([]model.Goal, error) {
	owner, err := s.resolveOwner(ctx, p, ownerID, access.ReadGoals)
	if err != nil {
		return nil, err
	}
	return s.repo.ListGoals(ctx, owner.ID)
}

func (s *Service) CreateGoal(ctx context.Context, p access.Principal, title string, target int64) (*model.Goal, error) {
	title = trimmed(title)
	if title == "" {
		return nil, apperr.Validation("title is required")
	}
	if target <= 0 {
		return nil, apperr.Validation("target must be positive")
	}
	if !access.Allowed(p, access.CreateGoal, access.Target{Account: &model.Account{ID: p.AccountID, Role: p.Role}}) {
		return nil, s.deny(ctx, p, access.CreateGoal, "only children can create goals")
	}

	g := &model.Goal{OwnerID: p.AccountID, Title: title, TargetAmount: target}
	err := s.repo.InTx(ctx, func(tx store.Tx) error {
		return tx.CreateGoal(ctx, g)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("goal created", "goal_id", g.ID, "owner_id", g.OwnerID, "target", g.TargetAmount)
	return g, nil
}

func (s *Service) ContributeGoal(ctx context.Context, p access.Principal, goalID, amount int64) (*model.Goal, error) {
	var res *goal.Result
	var owner *model.Account
	err := s.repo.InTx(ctx, func(tx store.Tx) error {
		var err error
		res, err = s.goals.Contribute(ctx, tx, goalID, p, amount)
		if err != nil {
			return err
		}
		owner, err = account(ctx, tx, res.Goal.OwnerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("goal contribution",
		"goal_id", goalID,
		"amount", amount,
		"current", res.Goal.CurrentAmount,
		"reached", res.Reached,
	)

	family := owner.FamilyID()
	evs := []events.Event{
		balanceEvent(events.LedgerDebited, owner, res.Debit),
		events.New(events.GoalContributed, family, owner.ID, goalID).WithAmount(amount, res.Goal.CurrentAmount),
	}
	if res.Reached {
		evs = append(evs, events.New(events.GoalReached, family, owner.ID, goalID).WithStatus(string(res.Goal.Status)))
	}
	s.publish(ctx, evs...)

	return &res.Goal, nil
}
