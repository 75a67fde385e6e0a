package bank

import (
	"context"
	"errors"

	"github.com/dukerupert/dinobank/internal/access"
	"github.com/dukerupert/dinobank/internal/apperr"
	"github.com/dukerupert/dinobank/internal/auth"
	"github.com/dukerupert/dinobank/internal/events"
	"github.com/dukerupert/dinobank/internal/ledger"
	"github.com/dukerupert/dinobank/internal/model"
	"github.com/dukerupert/dinobank/internal/store"
)

const defaultDinosaurColor = "green"

// GetProfile returns the account linked to an identity provider subject.
func (s *Service) GetProfile(ctx context.Context, subject string) (*model.Account, error) {
	a, err := s.repo.GetAccountByAuthID(ctx, subject)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.NotFound("profile not found")
	}
	return a, nil
}

type Onboarding struct {
	Username      string
	DisplayName   string
	Role          model.Role
	ParentID      *int64
	DinosaurColor string
}

// Onboard creates the account for subject. Children may link to an existing
// parent; parents never have a parent link, which keeps the family graph one
// level deep.
func (s *Service) Onboard(ctx context.Context, subject string, in Onboarding) (*model.Account, error) {
	in.Username = trimmed(in.Username)
	in.DisplayName = trimmed(in.DisplayName)
	switch {
	case subject == "":
		return nil, apperr.Validation("subject is required")
	case len(in.Username) < 3:
		return nil, apperr.Validation("username must be at least 3 characters")
	case in.DisplayName == "":
		return nil, apperr.Validation("display name is required")
	case !in.Role.Valid():
		return nil, apperr.Validation("role must be parent or child")
	case in.Role == model.RoleParent && in.ParentID != nil:
		return nil, apperr.Validation("parents cannot have a parent")
	}
	if in.DinosaurColor = trimmed(in.DinosaurColor); in.DinosaurColor == "" {
		in.DinosaurColor = defaultDinosaurColor
	}

	a := &model.Account{
		AuthID:        subject,
		Username:      in.Username,
		DisplayName:   in.DisplayName,
		Role:          in.Role,
		ParentID:      in.ParentID,
		DinosaurColor: in.DinosaurColor,
	}
	err := s.repo.InTx(ctx, func(tx store.Tx) error {
		existing, err := tx.GetAccountByAuthID(ctx, subject)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.Validation("already onboarded")
		}
		if in.ParentID != nil {
			parent, err := tx.LockAccount(ctx, *in.ParentID)
			if err != nil {
				return err
			}
			if parent == nil || !parent.IsParent() {
				return apperr.Validation("parent must be an existing parent account")
			}
		}
		return tx.CreateAccount(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("account onboarded", "account_id", a.ID, "role", a.Role)
	return a, nil
}

// SetPIN sets the parent's review PIN.
func (s *Service) SetPIN(ctx context.Context, p access.Principal, pin string) error {
	if !p.IsParent() {
		return apperr.Forbidden("only parents can set a PIN")
	}
	hash, err := auth.HashPIN(pin)
	if errors.Is(err, auth.ErrPINFormat) {
		return apperr.Validation(err.Error())
	}
	if err != nil {
		return err
	}
	return s.repo.InTx(ctx, func(tx store.Tx) error {
		return tx.SetPINHash(ctx, p.AccountID, hash)
	})
}

func (s *Service) ListChildren(ctx context.Context, p access.Principal) ([]model.Account, error) {
	if !access.Allowed(p, access.ListChildren, access.Target{}) {
		return nil, s.deny(ctx, p, access.ListChildren, "only parents can list children")
	}
	return s.repo.ListChildren(ctx, p.AccountID)
}

// ListTransactions returns ownerID's history, newest first; zero means p's own.
func (s *Service) ListTransactions(ctx context.Context, p access.Principal, ownerID int64) ([]model.Transaction, error) {
	owner, err := s.resolveOwner(ctx, p, ownerID, access.ReadLedger)
	if err != nil {
		return nil, err
	}
	return s.repo.ListTransactions(ctx, owner.ID)
}

// GrantAllowance credits a linked child outside of chores.
func (s *Service) GrantAllowance(ctx context.Context, p access.Principal, childID, amount int64, reason, pin string) (*ledger.Entry, error) {
	if reason = trimmed(reason); reason == "" {
		reason = "Allowance"
	}
	return s.move(ctx, p, childID, access.GrantAllowance, pin, func(tx store.Tx) (*ledger.Entry, error) {
		return s.ledger.Credit(ctx, tx, childID, amount, model.KindAllowance, reason)
	})
}

// RecordSpend debits money the child spent outside the app.
func (s *Service) RecordSpend(ctx context.Context, p access.Principal, childID, amount int64, reason string) (*ledger.Entry, error) {
	if reason = trimmed(reason); reason == "" {
		return nil, apperr.Validation("reason is required")
	}
	return s.move(ctx, p, childID, access.RecordSpend, "", func(tx store.Tx) (*ledger.Entry, error) {
		return s.ledger.Debit(ctx, tx, childID, amount, model.KindSpent, reason)
	})
}

func (s *Service) move(ctx context.Context, p access.Principal, accountID int64, action access.Action, pin string, fn func(store.Tx) (*ledger.Entry, error)) (*ledger.Entry, error) {
	var entry *ledger.Entry
	var acct *model.Account
	err := s.repo.InTx(ctx, func(tx store.Tx) error {
		var err error
		acct, err = account(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if !access.Allowed(p, action, access.Target{Account: acct}) {
			return s.deny(ctx, p, action, "not allowed to move money on this account")
		}
		if action == access.GrantAllowance {
			if err := checkParentPIN(ctx, tx, p, pin); err != nil {
				return err
			}
		}
		entry, err = fn(tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	t := events.LedgerCredited
	if entry.Transaction.Amount < 0 {
		t = events.LedgerDebited
	}
	s.publish(ctx, balanceEvent(t, acct, entry))
	return entry, nil
}

type Reconciliation struct {
	AccountID  int64 `json:"account_id"`
	Balance    int64 `json:"balance"`
	Computed   int64 `json:"computed"`
	Consistent bool  `json:"consistent"`
}

// Reconcile compares the stored balance with the transaction log.
func (s *Service) Reconcile(ctx context.Context, p access.Principal, accountID int64) (*Reconciliation, error) {
	var out *Reconciliation
	err := s.repo.InTx(ctx, func(tx store.Tx) error {
		// The row lock keeps ledger writes out until both reads are done.
		acct, err := tx.LockAccount(ctx, accountID)
		if err != nil {
			return err
		}
		if acct == nil {
			return apperr.NotFound("account not found")
		}
		if !access.Allowed(p, access.ReadLedger, access.Target{Account: acct}) {
			return s.deny(ctx, p, access.ReadLedger, "not allowed to view this account")
		}
		sum, err := ledger.Reconcile(ctx, tx, acct.ID)
		if err != nil {
			return err
		}
		out = &Reconciliation{
			AccountID:  acct.ID,
			Balance:    acct.Balance,
			Computed:   sum,
			Consistent: acct.Balance == sum,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !out.Consistent {
		s.logger.Error("balance mismatch", "account_id", out.AccountID, "balance", out.Balance, "computed", out.Computed)
	}
	return out, nil
}
