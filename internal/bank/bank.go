// Package bank is the operation surface the HTTP layer and the CLI call into.
// Every mutating operation checks the access guard, then runs its state
// machine inside one repository transaction, then publishes events for what
// was committed.
package bank

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/dinobank/internal/access"
	"github.com/dukerupert/dinobank/internal/apperr"
	"github.com/dukerupert/dinobank/internal/auth"
	"github.com/dukerupert/dinobank/internal/chore"
	"github.com/dukerupert/dinobank/internal/events"
	"github.com/dukerupert/dinobank/internal/goal"
	"github.com/dukerupert/dinobank/internal/ledger"
	"github.com/dukerupert/dinobank/internal/model"
	"github.com/dukerupert/dinobank/internal/store"
)

const publishTimeout = 5 * time.Second

type Service struct {
	repo      store.Repository
	ledger    *ledger.Ledger
	chores    *chore.Machine
	goals     *goal.Engine
	publisher events.Publisher
	logger    *slog.Logger
}

func New(repo store.Repository, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	l := ledger.New(logger)
	return &Service{
		repo:      repo,
		ledger:    l,
		chores:    chore.NewMachine(l),
		goals:     goal.NewEngine(l),
		publisher: publisher,
		logger:    logger.With("component", "bank"),
	}
}

// publish delivers committed events. Failures are logged and never change the
// outcome of the operation that produced them.
func (s *Service) publish(ctx context.Context, evs ...events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	for _, e := range evs {
		if err := s.publisher.Publish(ctx, e); err != nil {
			s.logger.Warn("publish event", "type", e.Type, "event_id", e.ID, "error", err)
		}
	}
}

// account loads an account or returns NotFound.
func account(ctx context.Context, r store.Reader, id int64) (*model.Account, error) {
	a, err := r.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.NotFound("account not found")
	}
	return a, nil
}

// resolveOwner returns the account a read targets, defaulting to the
// principal's own, after checking the guard.
func (s *Service) resolveOwner(ctx context.Context, p access.Principal, ownerID int64, action access.Action) (*model.Account, error) {
	if ownerID == 0 {
		ownerID = p.AccountID
	}
	a, err := account(ctx, s.repo, ownerID)
	if err != nil {
		return nil, err
	}
	if !access.Allowed(p, action, access.Target{Account: a}) {
		return nil, s.deny(ctx, p, action, "not allowed to view this account")
	}
	return a, nil
}

// deny records a guard refusal and returns the Forbidden error for it.
func (s *Service) deny(ctx context.Context, p access.Principal, action access.Action, msg string) error {
	s.logger.InfoContext(ctx, "access denied", "account_id", p.AccountID, "role", p.Role, "action", action.String())
	return apperr.Forbidden(msg)
}

// checkParentPIN enforces the review PIN for parents who have set one. Inside
// a transaction r must be the Tx; the pool may have no spare connection.
func checkParentPIN(ctx context.Context, r store.Reader, p access.Principal, pin string) error {
	if !p.IsParent() {
		return nil
	}
	hash, err := r.PINHash(ctx, p.AccountID)
	if err != nil {
		return err
	}
	if !auth.CheckPIN(hash, pin) {
		return apperr.Forbidden("parent PIN required")
	}
	return nil
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

func balanceEvent(t events.Type, acct *model.Account, entry *ledger.Entry) events.Event {
	return events.New(t, acct.FamilyID(), acct.ID, entry.Transaction.ID).
		WithAmount(entry.Transaction.Amount, entry.Balance)
}
