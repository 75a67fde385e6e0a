// Package ledger is the only code allowed to change an account balance. Every
// change is paired with an appended transaction inside the caller's unit of
// work.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/dinobank/internal/apperr"
	"github.com/dukerupert/dinobank/internal/model"
	"github.com/dukerupert/dinobank/internal/money"
	"github.com/dukerupert/dinobank/internal/store"
)

// Entry is the result of one balance mutation.
type Entry struct {
	Transaction model.Transaction
	Balance     int64
}

type Ledger struct {
	logger *slog.Logger
	now    func() time.Time
}

func New(logger *slog.Logger) *Ledger {
	return &Ledger{
		logger: logger.With("component", "ledger"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

var creditKinds = map[model.TransactionKind]bool{
	model.KindEarned:    true,
	model.KindAllowance: true,
}

var debitKinds = map[model.TransactionKind]bool{
	model.KindGoalContribution: true,
	model.KindSpent:            true,
}

// Credit increases the balance by amount and appends a positive transaction.
func (l *Ledger) Credit(ctx context.Context, tx store.Tx, accountID, amount int64, kind model.TransactionKind, reason string) (*Entry, error) {
	if amount <= 0 {
		return nil, apperr.Validation("amount must be positive")
	}
	if !creditKinds[kind] {
		return nil, apperr.Newf(apperr.KindValidation, "%q is not a credit kind", kind)
	}

	acct, err := tx.LockAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, apperr.NotFound("account not found")
	}

	balance, ok, err := tx.AdjustBalance(ctx, accountID, amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("credit account %d: balance update not applied", accountID)
	}

	return l.append(ctx, tx, accountID, amount, kind, reason, balance)
}

// Debit decreases the balance by amount and appends a negative transaction,
// but only when the balance covers it. Otherwise nothing changes.
func (l *Ledger) Debit(ctx context.Context, tx store.Tx, accountID, amount int64, kind model.TransactionKind, reason string) (*Entry, error) {
	if amount <= 0 {
		return nil, apperr.Validation("amount must be positive")
	}
	if !debitKinds[kind] {
		return nil, apperr.Newf(apperr.KindValidation, "%q is not a debit kind", kind)
	}

	acct, err := tx.LockAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, apperr.NotFound("account not found")
	}
	if acct.Balance < amount {
		l.logger.Info("debit rejected",
			"account_id", accountID,
			"amount", money.Format(amount),
			"balance", money.Format(acct.Balance),
			"kind", kind,
		)
		return nil, apperr.InsufficientFunds("insufficient funds")
	}

	balance, ok, err := tx.AdjustBalance(ctx, accountID, -amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.InsufficientFunds("insufficient funds")
	}

	return l.append(ctx, tx, accountID, -amount, kind, reason, balance)
}

func (l *Ledger) append(ctx context.Context, tx store.Tx, accountID, signed int64, kind model.TransactionKind, reason string, balance int64) (*Entry, error) {
	t := model.Transaction{
		AccountID: accountID,
		Amount:    signed,
		Kind:      kind,
		Reason:    reason,
		CreatedAt: l.now(),
	}
	if err := tx.InsertTransaction(ctx, &t); err != nil {
		return nil, err
	}

	l.logger.Debug("ledger entry",
		"account_id", accountID,
		"amount", money.Format(signed),
		"kind", kind,
		"balance", money.Format(balance),
	)
	return &Entry{Transaction: t, Balance: balance}, nil
}

// Reconcile recomputes the balance from the transaction log.
func Reconcile(ctx context.Context, r store.Reader, accountID int64) (int64, error) {
	return r.SumTransactions(ctx, accountID)
}

// Mismatch is an account whose stored balance differs from its transaction sum.
type Mismatch struct {
	AccountID int64 `json:"account_id"`
	Stored    int64 `json:"stored"`
	Computed  int64 `json:"computed"`
}

// Verify checks every account against its transaction log. Each account is
// read under its row lock, so a concurrent credit or debit lands either wholly
// before or wholly after the comparison.
func Verify(ctx context.Context, repo store.Repository) ([]Mismatch, error) {
	accounts, err := repo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	var out []Mismatch
	for _, a := range accounts {
		var m *Mismatch
		err := repo.InTx(ctx, func(tx store.Tx) error {
			var err error
			m, err = check(ctx, tx, a.ID)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("reconcile account %d: %w", a.ID, err)
		}
		if m != nil {
			out = append(out, *m)
		}
	}
	return out, nil
}

// check compares one locked account with its transaction sum. A missing
// account is not a mismatch.
func check(ctx context.Context, tx store.Tx, accountID int64) (*Mismatch, error) {
	acct, err := tx.LockAccount(ctx, accountID)
	if err != nil || acct == nil {
		return nil, err
	}
	sum, err := Reconcile(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}
	if sum == acct.Balance {
		return nil, nil
	}
	return &Mismatch{AccountID: accountID, Stored: acct.Balance, Computed: sum}, nil
}
