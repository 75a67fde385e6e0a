package bank

import (
	"context"

	"github.com/dukerupert/dinobank/internal/access"
	"github.com/dukerupert/dinobank/internal/apperr"
	"github.com/dukerupert/dinobank/internal/chore"
	"github.com/dukerupert/dinobank/internal/events"
	"github.com/dukerupert/dinobank/internal/model"
	"github.com/dukerupert/dinobank/internal/store"
)

// ChoreQuery narrows ListChores. Zero fields are ignored.
type ChoreQuery struct {
	AssigneeID int64
	CreatorID  int64
	Status     model.ChoreStatus
}

// ListChores returns the chores visible to p: a child sees their own, a
// parent sees those assigned to their children.
func (s *Service) ListChores(ctx context.Context, p access.Principal, q ChoreQuery) ([]model.Chore, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, apperr.Validation("invalid status")
	}

	f := store.ChoreFilter{CreatorID: q.CreatorID, Status: q.Status}
	switch {
	case q.AssigneeID != 0:
		if _, err := s.resolveOwner(ctx, p, q.AssigneeID, access.ReadChores); err != nil {
			return nil, err
		}
		f.AssigneeID = q.AssigneeID
	case p.IsChild():
		f.AssigneeID = p.AccountID
	default:
		f.ParentID = p.AccountID
	}
	return s.repo.ListChores(ctx, f)
}

type NewChore struct {
	AssigneeID  int64
	Title       string
	Description string
	RewardValue int64
}

func (s *Service) CreateChore(ctx context.Context, p access.Principal, in NewChore) (*model.Chore, error) {
	if !p.IsParent() {
		return nil, apperr.Forbidden("only parents can create chores")
	}
	in.Title = trimmed(in.Title)
	if in.Title == "" {
		return nil, apperr.Validation("title is required")
	}
	if in.RewardValue <= 0 {
		return nil, apperr.Validation("reward must be positive")
	}
	if in.AssigneeID == 0 {
		return nil, apperr.Validation("assignee is required")
	}

	c := &model.Chore{
		Title:       in.Title,
		Description: trimmed(in.Description),
		RewardValue: in.RewardValue,
		AssigneeID:  in.AssigneeID,
		CreatorID:   p.AccountID,
	}
	err := s.repo.InTx(ctx, func(tx store.Tx) error {
		assignee, err := account(ctx, tx, in.AssigneeID)
		if err != nil {
			return err
		}
		if !access.Allowed(p, access.CreateChore, access.Target{Account: assignee}) {
			return s.deny(ctx, p, access.CreateChore, "chores can only be assigned to your own children")
		}
		return tx.CreateChore(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("chore created", "chore_id", c.ID, "assignee_id", c.AssigneeID, "reward", c.RewardValue)
	return c, nil
}

// SetChoreStatus runs one lifecycle transition. pin is only consulted for
// parent reviews.
func (s *Service) SetChoreStatus(ctx context.Context, p access.Principal, choreID int64, to model.ChoreStatus, pin string) (*model.Chore, error) {
	if !to.Valid() {
		return nil, apperr.Validation("invalid status")
	}
	action, ok := access.ActionForChoreStatus(to)
	if !ok {
		return nil, apperr.Newf(apperr.KindInvalidTransition, "chores cannot move to %s", to)
	}

	var res *chore.Result
	var assignee *model.Account
	err := s.repo.InTx(ctx, func(tx store.Tx) error {
		c, err := tx.LockChore(ctx, choreID)
		if err != nil {
			return err
		}
		if c == nil {
			return apperr.NotFound("chore not found")
		}
		assignee, err = account(ctx, tx, c.AssigneeID)
		if err != nil {
			return err
		}
		if !access.Allowed(p, action, access.Target{Chore: c, Account: assignee}) {
			return s.deny(ctx, p, action, "not allowed to change this chore")
		}
		if action == access.ReviewChore {
			if err := checkParentPIN(ctx, tx, p, pin); err != nil {
				return err
			}
		}

		res, err = s.chores.Transition(ctx, tx, *c, p, to)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("chore status changed",
		"chore_id", choreID,
		"from", res.From,
		"to", res.Chore.Status,
		"actor_id", p.AccountID,
	)

	evs := []events.Event{
		events.New(events.ChoreStatusChanged, assignee.FamilyID(), assignee.ID, choreID).WithStatus(string(res.Chore.Status)),
	}
	if res.Payout != nil {
		evs = append(evs, balanceEvent(events.LedgerCredited, assignee, res.Payout))
	}
	s.publish(ctx, evs...)

	return &res.Chore, nil
}
