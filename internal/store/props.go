package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"

	"github.com/jstittsworth/prop-projections/internal/models"
	"github.com/jstittsworth/prop-projections/internal/projection"
	"github.com/jstittsworth/prop-projections/pkg/database"
)

type PropStore struct {
	db *database.DB
}

func NewPropStore(db *database.DB) *PropStore {
	return &PropStore{db: db}
}

// Upsert stores the posted line for each prop, keyed by external id. Stored
// projections survive a line refresh until the next batch overwrites them.
func (s *PropStore) Upsert(ctx context.Context, props []models.Prop) error {
	if len(props) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"game_id", "player_name", "team", "stat_type", "line", "start_time", "updated_at"}),
	}).CreateInBatches(props, 200).Error
	if err != nil {
		return fmt.Errorf("failed to upsert props: %w", err)
	}
	return nil
}

func (s *PropStore) Get(ctx context.Context, id uuid.UUID) (*models.Prop, error) {
	var prop models.Prop
	if err := s.db.WithContext(ctx).Preload("Game").First(&prop, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &prop, nil
}

// ListForProjection returns props whose game has not started before since,
// plus props with no known start time, with their game preloaded.
func (s *PropStore) ListForProjection(ctx context.Context, since time.Time) ([]models.Prop, error) {
	var props []models.Prop
	err := s.db.WithContext(ctx).
		Preload("Game").
		Where("start_time IS NULL OR start_time >= ?", since).
		Order("player_name ASC, stat_type ASC").
		Find(&props).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list props: %w", err)
	}
	return props, nil
}

// Players returns the distinct player names with a prop starting at or after
// since.
func (s *PropStore) Players(ctx context.Context, since time.Time) ([]string, error) {
	var players []string
	err := s.db.WithContext(ctx).
		Model(&models.Prop{}).
		Where("start_time IS NULL OR start_time >= ?", since).
		Distinct("player_name").
		Order("player_name ASC").
		Pluck("player_name", &players).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list prop players: %w", err)
	}
	return players, nil
}

// FindByPlayerStat returns props matching a player and stat label,
// case-insensitively.
func (s *PropStore) FindByPlayerStat(ctx context.Context, player, statType string) ([]models.Prop, error) {
	var props []models.Prop
	err := s.db.WithContext(ctx).
		Where("LOWER(player_name) = LOWER(?) AND LOWER(stat_type) = LOWER(?)", player, statType).
		Find(&props).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find props: %w", err)
	}
	return props, nil
}

// SaveProjection writes the engine output onto the prop.
func (s *PropStore) SaveProjection(ctx context.Context, propID uuid.UUID, proj projection.Projection, at time.Time) error {
	adjustments, err := json.Marshal(proj.Adjustments)
	if err != nil {
		return fmt.Errorf("failed to encode adjustments: %w", err)
	}

	res := s.db.WithContext(ctx).Model(&models.Prop{}).Where("id = ?", propID).Updates(map[string]interface{}{
		"projection":       proj.Value,
		"probability_over": proj.ProbabilityOver,
		"confidence":       string(proj.Confidence),
		"edge":             proj.Edge,
		"adjustments":      datatypes.JSON(adjustments),
		"projected_at":     at,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to save projection for prop %s: %w", propID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// BookLine is one book's two-way market.
type BookLine struct {
	Line  float64
	Over  *int
	Under *int
}

// OddsUpdate is the market snapshot copied onto a prop. Nil book lines leave
// the stored columns untouched.
type OddsUpdate struct {
	Bookmaker             string
	Line                  float64
	OverPrice             *int
	UnderPrice            *int
	MarketProbabilityOver *float64
	RecordedAt            time.Time
	DraftKings            *BookLine
	FanDuel               *BookLine
}

func (s *PropStore) ApplyOdds(ctx context.Context, propID uuid.UUID, odds OddsUpdate) error {
	fields := map[string]interface{}{
		"odds_book":               odds.Bookmaker,
		"odds_line":               odds.Line,
		"over_price":              odds.OverPrice,
		"under_price":             odds.UnderPrice,
		"market_probability_over": odds.MarketProbabilityOver,
		"odds_updated_at":         odds.RecordedAt,
	}
	if odds.DraftKings != nil {
		fields["draftkings_line"] = odds.DraftKings.Line
		fields["draftkings_over"] = odds.DraftKings.Over
		fields["draftkings_under"] = odds.DraftKings.Under
	}
	if odds.FanDuel != nil {
		fields["fanduel_line"] = odds.FanDuel.Line
		fields["fanduel_over"] = odds.FanDuel.Over
		fields["fanduel_under"] = odds.FanDuel.Under
	}
	res := s.db.WithContext(ctx).Model(&models.Prop{}).Where("id = ?", propID).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to apply odds to prop %s: %w", propID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteStale removes props whose game started before cutoff.
func (s *PropStore) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("start_time < ?", cutoff).Delete(&models.Prop{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete stale props: %w", res.Error)
	}
	return res.RowsAffected, nil
}
