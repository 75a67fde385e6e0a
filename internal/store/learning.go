package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/dinobank/internal/model"
)

func scanProgress(s scanner) (*model.ModuleProgress, error) {
	var p model.ModuleProgress
	var score sql.NullInt64
	var completedAt sql.NullTime

	err := s.Scan(&p.ID, &p.AccountID, &p.ModuleID, &p.IsCompleted, &score, &completedAt)
	if err != nil {
		return nil, err
	}

	if score.Valid {
		v := int(score.Int64)
		p.Score = &v
	}
	if completedAt.Valid {
		p.CompletedAt = &completedAt.Time
	}
	return &p, nil
}

const progressCols = `id, user_id, module_id, is_completed, score, completed_at`

func (q *queries) ListModuleProgress(ctx context.Context, accountID int64) ([]model.ModuleProgress, error) {
	rows, err := q.query(ctx,
		`SELECT `+progressCols+` FROM module_progress WHERE user_id = ? ORDER BY module_id ASC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("list module progress: %w", err)
	}
	defer rows.Close()

	var progress []model.ModuleProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan module progress: %w", err)
		}
		progress = append(progress, *p)
	}
	return progress, rows.Err()
}

// CompleteModule marks the module completed, keeping the previous score when
// score is nil.
func (q *txQueries) CompleteModule(ctx context.Context, accountID int64, moduleID string, score *int, at time.Time) (*model.ModuleProgress, error) {
	var s sql.NullInt64
	if score != nil {
		s = sql.NullInt64{Int64: int64(*score), Valid: true}
	}

	row := q.queryRow(ctx,
		`INSERT INTO module_progress (user_id, module_id, is_completed, score, completed_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, module_id) DO UPDATE SET
		     is_completed = excluded.is_completed,
		     score = COALESCE(excluded.score, module_progress.score),
		     completed_at = excluded.completed_at
		 RETURNING `+progressCols,
		accountID, moduleID, true, s, at.UTC(),
	)
	p, err := scanProgress(row)
	if err != nil {
		return nil, fmt.Errorf("complete module: %w", err)
	}
	return p, nil
}

func scanMood(s scanner) (*model.DailyMood, error) {
	var m model.DailyMood
	err := s.Scan(&m.ID, &m.AccountID, &m.Mood, &m.Day, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const moodCols = `id, user_id, mood, day, created_at`

// ListMoods returns the account's moods, newest day first.
func (q *queries) ListMoods(ctx context.Context, accountID int64) ([]model.DailyMood, error) {
	rows, err := q.query(ctx,
		`SELECT `+moodCols+` FROM daily_moods WHERE user_id = ? ORDER BY day DESC, id DESC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("list moods: %w", err)
	}
	defer rows.Close()

	var moods []model.DailyMood
	for rows.Next() {
		m, err := scanMood(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mood: %w", err)
		}
		moods = append(moods, *m)
	}
	return moods, rows.Err()
}

func (q *txQueries) CreateMood(ctx context.Context, m *model.DailyMood) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if m.Day == "" {
		m.Day = m.CreatedAt.Format(time.DateOnly)
	}
	err := q.queryRow(ctx,
		`INSERT INTO daily_moods (user_id, mood, day, created_at) VALUES (?, ?, ?, ?) RETURNING id`,
		m.AccountID, m.Mood, m.Day, m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("insert mood: %w", err)
	}
	return nil
}
