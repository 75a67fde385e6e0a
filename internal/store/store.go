// Package store is the single source of truth for accounts, chores, goals and
// the transaction log. Writes are only reachable through Repository.InTx.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/dinobank/internal/model"
)

// Reader is the read side of the repository. Single-row getters return
// nil, nil when the row does not exist.
type Reader interface {
	GetAccount(ctx context.Context, id int64) (*model.Account, error)
	GetAccountByAuthID(ctx context.Context, authID string) (*model.Account, error)
	ListChildren(ctx context.Context, parentID int64) ([]model.Account, error)
	ListAccounts(ctx context.Context) ([]model.Account, error)
	PINHash(ctx context.Context, accountID int64) (string, error)

	GetChore(ctx context.Context, id int64) (*model.Chore, error)
	ListChores(ctx context.Context, f ChoreFilter) ([]model.Chore, error)

	GetGoal(ctx context.Context, id int64) (*model.Goal, error)
	ListGoals(ctx context.Context, ownerID int64) ([]model.Goal, error)

	ListTransactions(ctx context.Context, accountID int64) ([]model.Transaction, error)
	SumTransactions(ctx context.Context, accountID int64) (int64, error)

	ListModuleProgress(ctx context.Context, accountID int64) ([]model.ModuleProgress, error)
	ListMoods(ctx context.Context, accountID int64) ([]model.DailyMood, error)
}

// Tx is one atomic unit of work. The Lock* getters read a row and hold it
// until the unit commits or rolls back.
type Tx interface {
	Reader

	LockAccount(ctx context.Context, id int64) (*model.Account, error)
	LockChore(ctx context.Context, id int64) (*model.Chore, error)
	LockGoal(ctx context.Context, id int64) (*model.Goal, error)

	CreateAccount(ctx context.Context, a *model.Account) error
	SetPINHash(ctx context.Context, accountID int64, hash string) error
	// AdjustBalance adds delta to the balance unless the result would be
	// negative, in which case applied is false and nothing changes.
	AdjustBalance(ctx context.Context, accountID, delta int64) (balance int64, applied bool, err error)
	InsertTransaction(ctx context.Context, t *model.Transaction) error

	CreateChore(ctx context.Context, c *model.Chore) error
	// SetChoreStatus moves the chore from one status to another and reports
	// false when the chore was no longer in the expected status.
	SetChoreStatus(ctx context.Context, id int64, from, to model.ChoreStatus) (bool, error)

	CreateGoal(ctx context.Context, g *model.Goal) error
	UpdateGoalProgress(ctx context.Context, id, currentAmount int64, status model.GoalStatus) error

	CompleteModule(ctx context.Context, accountID int64, moduleID string, score *int, at time.Time) (*model.ModuleProgress, error)
	CreateMood(ctx context.Context, m *model.DailyMood) error
}

// Repository is what the core is handed explicitly; there is no package-level
// store.
type Repository interface {
	Reader
	InTx(ctx context.Context, fn func(Tx) error) error
}

// ChoreFilter narrows ListChores. Zero fields are ignored.
type ChoreFilter struct {
	AssigneeID int64
	CreatorID  int64
	// ParentID matches chores assigned to any child of the parent.
	ParentID int64
	Status   model.ChoreStatus
}

// Dialect captures the differences between the SQL engines we run on.
type Dialect struct {
	Name      string
	forUpdate string
	numbered  bool
}

var (
	SQLite = Dialect{Name: "sqlite"}
	// Postgres row-locks everything read through Lock*.
	Postgres = Dialect{Name: "postgres", forUpdate: " FOR UPDATE", numbered: true}
)

// rebind rewrites ? placeholders to $n for engines that need them.
func (d Dialect) rebind(q string) string {
	if !d.numbered {
		return q
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements Reader over either the pool or an open transaction.
type queries struct {
	db      dbtx
	dialect Dialect
}

func (q *queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.db.ExecContext(ctx, q.dialect.rebind(query), args...)
}

func (q *queries) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.db.QueryContext(ctx, q.dialect.rebind(query), args...)
}

func (q *queries) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.db.QueryRowContext(ctx, q.dialect.rebind(query), args...)
}

// SQLStore is the database/sql backed Repository.
type SQLStore struct {
	*queries
	db *sql.DB
}

var _ Repository = (*SQLStore)(nil)

func New(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{
		queries: &queries{db: db, dialect: dialect},
		db:      db,
	}
}

// InTx runs fn inside a database transaction. It commits when fn returns nil
// and rolls back otherwise, so no partial effect of fn is ever persisted.
func (s *SQLStore) InTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&txQueries{&queries{db: tx, dialect: s.dialect}}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// txQueries adds the locking reads and the writes. It only ever wraps a
// *sql.Tx handed out by InTx.
type txQueries struct {
	*queries
}

var _ Tx = (*txQueries)(nil)

type scanner interface{ Scan(...any) error }

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}
