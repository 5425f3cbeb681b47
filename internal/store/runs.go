package store

import (
	"context"
	"fmt"

	"github.com/jstittsworth/prop-projections/internal/models"
	"github.com/jstittsworth/prop-projections/pkg/database"
)

type RunStore struct {
	db *database.DB
}

func NewRunStore(db *database.DB) *RunStore {
	return &RunStore{db: db}
}

func (s *RunStore) Create(ctx context.Context, run *models.ProjectionRun) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to create projection run: %w", err)
	}
	return nil
}

// Finish persists the final counters and status of run.
func (s *RunStore) Finish(ctx context.Context, run *models.ProjectionRun) error {
	err := s.db.WithContext(ctx).Model(run).Select(
		"status", "finished_at", "total", "projected", "neutral", "skipped", "failed", "failures", "error",
	).Updates(run).Error
	if err != nil {
		return fmt.Errorf("failed to finish projection run %s: %w", run.ID, err)
	}
	return nil
}

// Latest returns the most recently started run.
func (s *RunStore) Latest(ctx context.Context) (*models.ProjectionRun, error) {
	var run models.ProjectionRun
	if err := s.db.WithContext(ctx).Order("started_at DESC").First(&run).Error; err != nil {
		return nil, notFound(err)
	}
	return &run, nil
}
