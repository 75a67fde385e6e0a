package bank

import (
	"context"
	"time"

	"github.com/dukerupert/dinobank/internal/access"
	"github.com/dukerupert/dinobank/internal/apperr"
	"github.com/dukerupert/dinobank/internal/model"
	"github.com/dukerupert/dinobank/internal/store"
)

func (s *Service) ListModuleProgress(ctx context.Context, p access.Principal, accountID int64) ([]model.ModuleProgress, error) {
	acct, err := s.resolveOwner(ctx, p, accountID, access.ReadProgress)
	if err != nil {
		return nil, err
	}
	return s.repo.ListModuleProgress(ctx, acct.ID)
}

// CompleteModule records that p finished a learning module. A nil score keeps
// any earlier score.
func (s *Service) CompleteModule(ctx context.Context, p access.Principal, moduleID string, score *int) (*model.ModuleProgress, error) {
	if moduleID = trimmed(moduleID); moduleID == "" {
		return nil, apperr.Validation("module id is required")
	}
	if score != nil && (*score < 0 || *score > 100) {
		return nil, apperr.Validation("score must be between 0 and 100")
	}

	var progress *model.ModuleProgress
	err := s.repo.InTx(ctx, func(tx store.Tx) error {
		var err error
		progress, err = tx.CompleteModule(ctx, p.AccountID, moduleID, score, time.Now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}
	return progress, nil
}

func (s *Service) RecordMood(ctx context.Context, p access.Principal, mood model.Mood) (*model.DailyMood, error) {
	if !mood.Valid() {
		return nil, apperr.Validation("invalid mood")
	}
	m := &model.DailyMood{AccountID: p.AccountID, Mood: mood}
	err := s.repo.InTx(ctx, func(tx store.Tx) error {
		return tx.CreateMood(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) ListMoods(ctx context.Context, p access.Principal, accountID int64) ([]model.DailyMood, error) {
	acct, err := s.resolveOwner(ctx, p, accountID, access.ReadProgress)
	if err != nil {
		return nil, err
	}
	return s.repo.ListMoods(ctx, acct.ID)
}
