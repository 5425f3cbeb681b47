// Package store persists slate data and projection results with gorm.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jstittsworth/prop-projections/internal/models"
	"github.com/jstittsworth/prop-projections/pkg/database"
)

var ErrNotFound = errors.New("record not found")

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

type GameStore struct {
	db *database.DB
}

func NewGameStore(db *database.DB) *GameStore {
	return &GameStore{db: db}
}

// Upsert inserts game or refreshes its schedule fields, keyed by external id.
// game.ID is populated with the stored row's id.
func (s *GameStore) Upsert(ctx context.Context, game *models.Game) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"home_team", "away_team", "home_team_name", "away_team_name", "game_time", "status", "source", "updated_at",
		}),
	}).Create(game).Error
	if err != nil {
		return fmt.Errorf("failed to upsert game %s: %w", game.ExternalID, err)
	}

	stored, err := s.FindByExternalID(ctx, game.ExternalID)
	if err != nil {
		return err
	}
	game.ID = stored.ID
	return nil
}

func (s *GameStore) FindByExternalID(ctx context.Context, externalID string) (*models.Game, error) {
	var game models.Game
	if err := s.db.WithContext(ctx).Where("external_id = ?", externalID).First(&game).Error; err != nil {
		return nil, notFound(err)
	}
	return &game, nil
}

// ListBetween returns games starting in [from, to), earliest first.
func (s *GameStore) ListBetween(ctx context.Context, from, to time.Time) ([]models.Game, error) {
	var games []models.Game
	err := s.db.WithContext(ctx).
		Where("game_time >= ? AND game_time < ?", from, to).
		Order("game_time ASC").
		Find(&games).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return games, nil
}
