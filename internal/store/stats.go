package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"github.com/jstittsworth/prop-projections/internal/models"
	"github.com/jstittsworth/prop-projections/internal/projection"
	"github.com/jstittsworth/prop-projections/pkg/database"
)

// PlayerStatsStore keeps per-game box scores and serves them to the engine.
type PlayerStatsStore struct {
	db *database.DB
}

var _ projection.PlayerStatsProvider = (*PlayerStatsStore)(nil)

func NewPlayerStatsStore(db *database.DB) *PlayerStatsStore {
	return &PlayerStatsStore{db: db}
}

// UpsertMany stores box scores, keyed by player and game date.
func (s *PlayerStatsStore) UpsertMany(ctx context.Context, stats []models.PlayerStat) error {
	if len(stats) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "player_name"}, {Name: "game_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"normalized_name", "player_external_id", "team", "opponent", "minutes", "points", "rebounds", "assists",
			"steals", "blocks", "turnovers", "three_pointers_made", "field_goals_made",
			"field_goals_attempted", "free_throws_made", "free_throws_attempted",
		}),
	}).CreateInBatches(stats, 100).Error
	if err != nil {
		return fmt.Errorf("failed to upsert player stats: %w", err)
	}
	return nil
}

// RecentStats returns up to limit games for player, most recent first.
func (s *PlayerStatsStore) RecentStats(ctx context.Context, player string, limit int) ([]projection.StatRecord, error) {
	var rows []models.PlayerStat
	err := s.db.WithContext(ctx).
		Where("player_name = ?", player).
		Order("game_date DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load stats for %s: %w", player, err)
	}

	records := make([]projection.StatRecord, len(rows))
	for i, row := range rows {
		records[i] = row.StatRecord()
	}
	return records, nil
}

// LatestGameDate is the most recent stored game for player; ok is false when
// none are stored.
func (s *PlayerStatsStore) LatestGameDate(ctx context.Context, player string) (time.Time, bool, error) {
	var row models.PlayerStat
	err := s.db.WithContext(ctx).
		Where("player_name = ?", player).
		Order("game_date DESC").
		Limit(1).
		Find(&row).Error
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to load latest game for %s: %w", player, err)
	}
	if row.PlayerName == "" {
		return time.Time{}, false, nil
	}
	return row.GameDate, true, nil
}
