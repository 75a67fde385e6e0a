package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/dinobank/internal/model"
)

func scanGoal(s scanner) (*model.Goal, error) {
	var g model.Goal
	err := s.Scan(&g.ID, &g.OwnerID, &g.Title, &g.TargetAmount, &g.CurrentAmount, &g.Status, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

const goalCols = `id, user_id, title, target_amount, current_amount, status, created_at`

func (q *queries) getGoal(ctx context.Context, id int64, lock string) (*model.Goal, error) {
	row := q.queryRow(ctx, `SELECT `+goalCols+` FROM goals WHERE id = ?`+lock, id)
	g, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (q *queries) GetGoal(ctx context.Context, id int64) (*model.Goal, error) {
	return q.getGoal(ctx, id, "")
}

func (q *txQueries) LockGoal(ctx context.Context, id int64) (*model.Goal, error) {
	return q.getGoal(ctx, id, q.dialect.forUpdate)
}

// ListGoals returns the owner's goals, active ones first.
func (q *queries) ListGoals(ctx context.Context, ownerID int64) ([]model.Goal, error) {
	rows, err := q.query(ctx,
		`SELECT `+goalCols+` FROM goals WHERE user_id = ? ORDER BY status ASC, created_at ASC, id ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []model.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

func (q *txQueries) CreateGoal(ctx context.Context, g *model.Goal) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	g.CurrentAmount = 0
	g.Status = model.GoalStatusActive
	err := q.queryRow(ctx,
		`INSERT INTO goals (user_id, title, target_amount, current_amount, status, created_at)
		 VALUES (?, ?, ?, 0, ?, ?) RETURNING id`,
		g.OwnerID, g.Title, g.TargetAmount, g.Status, g.CreatedAt,
	).Scan(&g.ID)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

func (q *txQueries) UpdateGoalProgress(ctx context.Context, id, currentAmount int64, status model.GoalStatus) error {
	_, err := q.exec(ctx,
		`UPDATE goals SET current_amount = ?, status = ? WHERE id = ?`,
		currentAmount, status, id,
	)
	if err != nil {
		return fmt.Errorf("update goal progress: %w", err)
	}
	return nil
}
