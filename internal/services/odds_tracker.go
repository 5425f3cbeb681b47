package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/prop-projections/internal/models"
	"github.com/jstittsworth/prop-projections/internal/projection"
	"github.com/jstittsworth/prop-projections/internal/providers"
	"github.com/jstittsworth/prop-projections/internal/store"
)

type OddsSource interface {
	Enabled() bool
	Events(ctx context.Context) ([]providers.Event, error)
	EventProps(ctx context.Context, eventID string, markets []string) ([]providers.PropQuote, error)
}

type OddsHistory interface {
	Record(ctx context.Context, quotes []models.OddsHistory) error
	LatestQuotes(ctx context.Context, player, statType string, since time.Time) ([]models.OddsHistory, error)
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

type OddsTarget interface {
	ListForProjection(ctx context.Context, since time.Time) ([]models.Prop, error)
	ApplyOdds(ctx context.Context, propID uuid.UUID, odds store.OddsUpdate) error
}

// OddsTrackerService records sportsbook player-prop prices and copies the
// closest market onto each posted prop.
type OddsTrackerService struct {
	source  OddsSource
	history OddsHistory
	props   OddsTarget
	window  time.Duration
	maxAge  time.Duration
	logger  *logrus.Logger
	now     func() time.Time
}

func NewOddsTrackerService(source OddsSource, history OddsHistory, props OddsTarget, logger *logrus.Logger) *OddsTrackerService {
	return &OddsTrackerService{
		source:  source,
		history: history,
		props:   props,
		window:  36 * time.Hour,
		maxAge:  2 * time.Hour,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Track pulls player-prop prices for upcoming events, records them and
// refreshes the market fields on stored props.
func (s *OddsTrackerService) Track(ctx context.Context) (SyncResult, error) {
	var result SyncResult
	if !s.source.Enabled() {
		s.logger.Debug("Odds tracking disabled, no API key configured")
		return result, nil
	}

	events, err := s.source.Events(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list odds events: %w", err)
	}

	now := s.now()
	from, to := now.Add(-3*time.Hour), now.Add(s.window)
	markets := projection.OddsMarkets()

	for _, event := range events {
		if event.CommenceTime.Before(from) || event.CommenceTime.After(to) {
			continue
		}
		quotes, err := s.source.EventProps(ctx, event.ID, markets)
		if err != nil {
			if circuitOpen(err) {
				return result, err
			}
			s.logger.WithError(err).WithField("event", event.ID).Warn("Failed to fetch event props")
			result.Failed++
			continue
		}
		result.Fetched += len(quotes)

		rows := make([]models.OddsHistory, 0, len(quotes))
		for _, q := range quotes {
			category, ok := projection.OddsMarketCategory(q.Market)
			if !ok {
				result.Skipped++
				continue
			}
			rows = append(rows, models.OddsHistory{
				EventID:      q.EventID,
				PlayerName:   q.PlayerName,
				StatType:     category.String(),
				Market:       q.Market,
				Bookmaker:    q.Bookmaker,
				Line:         q.Line,
				OverPrice:    q.OverPrice,
				UnderPrice:   q.UnderPrice,
				HomeTeam:     q.HomeTeam,
				AwayTeam:     q.AwayTeam,
				CommenceTime: q.CommenceTime,
				RecordedAt:   now,
			})
		}
		if err := s.history.Record(ctx, rows); err != nil {
			s.logger.WithError(err).WithField("event", event.ID).Error("Failed to record odds")
			result.Failed++
			continue
		}
		result.Stored += len(rows)
	}

	s.logger.WithFields(logrus.Fields{
		"events": len(events),
		"quotes": result.Stored,
	}).Info("Odds tracking completed")

	updated, err := s.SyncProps(ctx)
	if err != nil {
		return result, err
	}
	s.logger.WithField("props", updated).Debug("Prop market fields refreshed")
	return result, nil
}

// SyncProps copies the freshest market onto each open prop. The book whose
// line is closest to the posted line is reported; the no-vig probability is
// the consensus of every book quoting that same line.
func (s *OddsTrackerService) SyncProps(ctx context.Context) (int, error) {
	now := s.now()
	props, err := s.props.ListForProjection(ctx, now.Add(-6*time.Hour))
	if err != nil {
		return 0, fmt.Errorf("failed to list props for odds: %w", err)
	}

	updated := 0
	for _, prop := range props {
		category, err := projection.ParseStatCategory(prop.StatType)
		if err != nil {
			continue
		}
		quotes, err := s.history.LatestQuotes(ctx, prop.PlayerName, category.String(), now.Add(-s.maxAge))
		if err != nil {
			s.logger.WithError(err).WithField("player", prop.PlayerName).Warn("Failed to load odds")
			continue
		}
		odds, ok := closestMarket(prop.Line, quotes)
		if !ok {
			continue
		}
		if err := s.props.ApplyOdds(ctx, prop.ID, odds); err != nil {
			s.logger.WithError(err).WithField("prop_id", prop.ID.String()).Warn("Failed to apply odds")
			continue
		}
		updated++
	}
	return updated, nil
}

// Cleanup removes quotes older than retention.
func (s *OddsTrackerService) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	removed, err := s.history.Purge(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, err
	}
	s.logger.WithField("removed", removed).Info("Odds history purged")
	return removed, nil
}

// closestQuote picks the two-sided quote nearest line. An empty book matches
// every book.
func closestQuote(line float64, quotes []models.OddsHistory, book string) *models.OddsHistory {
	var best *models.OddsHistory
	for i := range quotes {
		q := &quotes[i]
		if q.OverPrice == nil || q.UnderPrice == nil {
			continue
		}
		if book != "" && q.Bookmaker != book {
			continue
		}
		if best == nil || math.Abs(q.Line-line) < math.Abs(best.Line-line) {
			best = q
		}
	}
	return best
}

func bookLine(line float64, quotes []models.OddsHistory, book string) *store.BookLine {
	q := closestQuote(line, quotes, book)
	if q == nil {
		return nil
	}
	return &store.BookLine{Line: q.Line, Over: q.OverPrice, Under: q.UnderPrice}
}

func closestMarket(line float64, quotes []models.OddsHistory) (store.OddsUpdate, bool) {
	best := closestQuote(line, quotes, "")
	if best == nil {
		return store.OddsUpdate{}, false
	}

	var sameLine []providers.TwoWay
	for _, q := range quotes {
		if q.OverPrice != nil && q.UnderPrice != nil && q.Line == best.Line {
			sameLine = append(sameLine, providers.TwoWay{Over: *q.OverPrice, Under: *q.UnderPrice})
		}
	}

	update := store.OddsUpdate{
		Bookmaker:  best.Bookmaker,
		Line:       best.Line,
		OverPrice:  best.OverPrice,
		UnderPrice: best.UnderPrice,
		RecordedAt: best.RecordedAt,
		DraftKings: bookLine(line, quotes, "draftkings"),
		FanDuel:    bookLine(line, quotes, "fanduel"),
	}
	if prob, books := providers.ConsensusOver(sameLine); books > 0 {
		update.MarketProbabilityOver = &prob
	}
	return update, true
}
