package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jstittsworth/prop-projections/internal/models"
	"github.com/jstittsworth/prop-projections/internal/projection"
	"github.com/jstittsworth/prop-projections/pkg/database"
)

type InjuryStore struct {
	db *database.DB
}

func NewInjuryStore(db *database.DB) *InjuryStore {
	return &InjuryStore{db: db}
}

// Replace swaps the stored report for the latest feed. Players missing from
// the feed are considered healthy and removed. Duplicate players keep their
// last entry.
func (s *InjuryStore) Replace(ctx context.Context, injuries []models.PlayerInjury) error {
	injuries = dedupeInjuries(injuries)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.PlayerInjury{}).Error; err != nil {
			return fmt.Errorf("failed to clear injuries: %w", err)
		}
		if len(injuries) == 0 {
			return nil
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "player_name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"normalized_name", "team", "status", "injury_type", "details", "reported_at", "updated_at",
			}),
		}).Create(&injuries).Error
		if err != nil {
			return fmt.Errorf("failed to store injuries: %w", err)
		}
		return nil
	})
}

func (s *InjuryStore) List(ctx context.Context) ([]models.PlayerInjury, error) {
	var injuries []models.PlayerInjury
	if err := s.db.WithContext(ctx).Order("team ASC, player_name ASC").Find(&injuries).Error; err != nil {
		return nil, fmt.Errorf("failed to list injuries: %w", err)
	}
	return injuries, nil
}

// Snapshot builds the immutable injury view for one batch. canonicalTeam, if
// non-nil, maps feed team codes onto the codes props use.
func (s *InjuryStore) Snapshot(ctx context.Context, canonicalTeam func(string) string) (*projection.InjurySnapshot, error) {
	injuries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	reports := make([]projection.InjuryReport, len(injuries))
	for i, inj := range injuries {
		reports[i] = inj.Report()
		if canonicalTeam != nil {
			reports[i].Team = canonicalTeam(reports[i].Team)
		}
	}
	return projection.NewInjurySnapshot(reports), nil
}

func dedupeInjuries(injuries []models.PlayerInjury) []models.PlayerInjury {
	index := make(map[string]int, len(injuries))
	out := make([]models.PlayerInjury, 0, len(injuries))
	for _, inj := range injuries {
		if i, ok := index[inj.PlayerName]; ok {
			out[i] = inj
			continue
		}
		index[inj.PlayerName] = len(out)
		out = append(out, inj)
	}
	return out
}
