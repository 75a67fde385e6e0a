package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/dinobank/internal/model"
)

func scanChore(s scanner) (*model.Chore, error) {
	var c model.Chore
	err := s.Scan(
		&c.ID, &c.Title, &c.Description, &c.RewardValue,
		&c.AssigneeID, &c.CreatorID, &c.Status, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const choreCols = `id, title, description, reward_value, assignee_id, creator_id, status, created_at`

func (q *queries) getChore(ctx context.Context, id int64, lock string) (*model.Chore, error) {
	row := q.queryRow(ctx, `SELECT `+choreCols+` FROM chores WHERE id = ?`+lock, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

func (q *queries) GetChore(ctx context.Context, id int64) (*model.Chore, error) {
	return q.getChore(ctx, id, "")
}

func (q *txQueries) LockChore(ctx context.Context, id int64) (*model.Chore, error) {
	return q.getChore(ctx, id, q.dialect.forUpdate)
}

// ListChores returns chores matching f, newest first.
func (q *queries) ListChores(ctx context.Context, f ChoreFilter) ([]model.Chore, error) {
	var where []string
	var args []any
	if f.AssigneeID != 0 {
		where = append(where, "assignee_id = ?")
		args = append(args, f.AssigneeID)
	}
	if f.CreatorID != 0 {
		where = append(where, "creator_id = ?")
		args = append(args, f.CreatorID)
	}
	if f.ParentID != 0 {
		where = append(where, "assignee_id IN (SELECT id FROM accounts WHERE parent_id = ?)")
		args = append(args, f.ParentID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}

	query := `SELECT ` + choreCols + ` FROM chores`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

func (q *txQueries) CreateChore(ctx context.Context, c *model.Chore) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.Status == "" {
		c.Status = model.ChoreStatusPending
	}
	err := q.queryRow(ctx,
		`INSERT INTO chores (title, description, reward_value, assignee_id, creator_id, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		c.Title, c.Description, c.RewardValue, c.AssigneeID, c.CreatorID, c.Status, c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert chore: %w", err)
	}
	return nil
}

func (q *txQueries) SetChoreStatus(ctx context.Context, id int64, from, to model.ChoreStatus) (bool, error) {
	res, err := q.exec(ctx, `UPDATE chores SET status = ? WHERE id = ? AND status = ?`, to, id, from)
	if err != nil {
		return false, fmt.Errorf("update chore status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}
