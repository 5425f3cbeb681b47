package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/prop-projections/internal/models"
	"github.com/jstittsworth/prop-projections/pkg/database"
)

// OddsHistoryStore records sportsbook quotes in the primary database and,
// when configured, in a local SQLite mirror used for offline analysis.
// Mirror failures are logged and never fail the primary write.
type OddsHistoryStore struct {
	db     *database.DB
	mirror *database.DB
	logger *logrus.Logger
}

func NewOddsHistoryStore(db, mirror *database.DB, logger *logrus.Logger) *OddsHistoryStore {
	return &OddsHistoryStore{db: db, mirror: mirror, logger: logger}
}

// Migrate prepares the mirror schema. The primary schema is managed by the
// migrate command.
func (s *OddsHistoryStore) Migrate() error {
	if s.mirror == nil {
		return nil
	}
	if err := s.mirror.AutoMigrate(&models.OddsHistory{}); err != nil {
		return fmt.Errorf("failed to migrate odds mirror: %w", err)
	}
	return nil
}

func (s *OddsHistoryStore) Record(ctx context.Context, quotes []models.OddsHistory) error {
	if len(quotes) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(&quotes, 200).Error; err != nil {
		return fmt.Errorf("failed to record odds: %w", err)
	}

	if s.mirror != nil {
		// Same ids in both stores.
		if err := s.mirror.WithContext(ctx).CreateInBatches(&quotes, 200).Error; err != nil {
			s.logger.WithError(err).WithField("quotes", len(quotes)).Warn("Failed to mirror odds to SQLite")
		}
	}
	return nil
}

// LatestQuotes returns the newest quote per bookmaker for a player and stat
// recorded at or after since.
func (s *OddsHistoryStore) LatestQuotes(ctx context.Context, player, statType string, since time.Time) ([]models.OddsHistory, error) {
	var rows []models.OddsHistory
	err := s.db.WithContext(ctx).
		Where("LOWER(player_name) = LOWER(?) AND stat_type = ? AND recorded_at >= ?", player, statType, since).
		Order("recorded_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load odds for %s: %w", player, err)
	}

	seen := make(map[string]bool)
	latest := make([]models.OddsHistory, 0, len(rows))
	for _, row := range rows {
		if seen[row.Bookmaker] {
			continue
		}
		seen[row.Bookmaker] = true
		latest = append(latest, row)
	}
	return latest, nil
}

// Purge deletes quotes recorded before cutoff from both stores and returns
// the number removed from the primary.
func (s *OddsHistoryStore) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("recorded_at < ?", cutoff).Delete(&models.OddsHistory{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge odds history: %w", res.Error)
	}
	if s.mirror != nil {
		if err := s.mirror.WithContext(ctx).Where("recorded_at < ?", cutoff).Delete(&models.OddsHistory{}).Error; err != nil {
			s.logger.WithError(err).Warn("Failed to purge SQLite odds mirror")
		}
	}
	return res.RowsAffected, nil
}
