package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/dinobank/internal/model"
)

func scanTransaction(s scanner) (*model.Transaction, error) {
	var t model.Transaction
	err := s.Scan(&t.ID, &t.AccountID, &t.Amount, &t.Kind, &t.Reason, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

const transactionCols = `id, user_id, amount, type, description, created_at`

// ListTransactions returns the account's transactions, newest first.
func (q *queries) ListTransactions(ctx context.Context, accountID int64) ([]model.Transaction, error) {
	rows, err := q.query(ctx,
		`SELECT `+transactionCols+` FROM transactions WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

func (q *queries) SumTransactions(ctx context.Context, accountID int64) (int64, error) {
	var sum int64
	err := q.queryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE user_id = ?`,
		accountID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum transactions: %w", err)
	}
	return sum, nil
}

func (q *txQueries) InsertTransaction(ctx context.Context, t *model.Transaction) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	err := q.queryRow(ctx,
		`INSERT INTO transactions (user_id, amount, type, description, created_at)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`,
		t.AccountID, t.Amount, t.Kind, t.Reason, t.CreatedAt,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}
