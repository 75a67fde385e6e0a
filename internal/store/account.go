package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/dinobank/internal/model"
)

func scanAccount(s scanner) (*model.Account, error) {
	var a model.Account
	var parentID sql.NullInt64
	var pinHash string

	err := s.Scan(
		&a.ID, &a.AuthID, &a.Username, &a.DisplayName, &a.Role,
		&parentID, &a.Balance, &a.DinosaurColor, &pinHash, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		a.ParentID = &parentID.Int64
	}
	a.HasPIN = pinHash != ""
	return &a, nil
}

const accountCols = `id, auth_id, username, display_name, role, parent_id, balance, dinosaur_color, pin_hash, created_at`

func (q *queries) getAccount(ctx context.Context, id int64, lock string) (*model.Account, error) {
	row := q.queryRow(ctx, `SELECT `+accountCols+` FROM accounts WHERE id = ?`+lock, id)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (q *queries) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	return q.getAccount(ctx, id, "")
}

func (q *txQueries) LockAccount(ctx context.Context, id int64) (*model.Account, error) {
	return q.getAccount(ctx, id, q.dialect.forUpdate)
}

func (q *queries) GetAccountByAuthID(ctx context.Context, authID string) (*model.Account, error) {
	row := q.queryRow(ctx, `SELECT `+accountCols+` FROM accounts WHERE auth_id = ?`, authID)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account by auth id: %w", err)
	}
	return a, nil
}

func (q *queries) listAccounts(ctx context.Context, query string, args ...any) ([]model.Account, error) {
	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func (q *queries) ListChildren(ctx context.Context, parentID int64) ([]model.Account, error) {
	return q.listAccounts(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE parent_id = ? ORDER BY display_name ASC, id ASC`,
		parentID,
	)
}

func (q *queries) ListAccounts(ctx context.Context) ([]model.Account, error) {
	return q.listAccounts(ctx, `SELECT `+accountCols+` FROM accounts ORDER BY id ASC`)
}

func (q *queries) PINHash(ctx context.Context, accountID int64) (string, error) {
	var hash string
	err := q.queryRow(ctx, `SELECT pin_hash FROM accounts WHERE id = ?`, accountID).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get pin hash: %w", err)
	}
	return hash, nil
}

func (q *txQueries) CreateAccount(ctx context.Context, a *model.Account) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	err := q.queryRow(ctx,
		`INSERT INTO accounts (auth_id, username, display_name, role, parent_id, balance, dinosaur_color, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?) RETURNING id`,
		a.AuthID, a.Username, a.DisplayName, a.Role, nullInt64(a.ParentID), a.DinosaurColor, a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	a.Balance = 0
	return nil
}

func (q *txQueries) SetPINHash(ctx context.Context, accountID int64, hash string) error {
	_, err := q.exec(ctx, `UPDATE accounts SET pin_hash = ? WHERE id = ?`, hash, accountID)
	if err != nil {
		return fmt.Errorf("set pin hash: %w", err)
	}
	return nil
}

func (q *txQueries) AdjustBalance(ctx context.Context, accountID, delta int64) (int64, bool, error) {
	var balance int64
	err := q.queryRow(ctx,
		`UPDATE accounts SET balance = balance + ? WHERE id = ? AND balance + ? >= 0 RETURNING balance`,
		delta, accountID, delta,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("adjust balance: %w", err)
	}
	return balance, true, nil
}
