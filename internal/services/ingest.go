package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/jstittsworth/prop-projections/internal/models"
	"github.com/jstittsworth/prop-projections/internal/providers"
)

// PropsChangedChannel is the Postgres NOTIFY channel raised after a prop
// sync.
const PropsChangedChannel = "props_changed"

// SyncResult counts what one ingestion pass did.
type SyncResult struct {
	Fetched int `json:"fetched"`
	Stored  int `json:"stored"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// circuitOpen reports whether err means the provider is short-circuited, in
// which case the rest of the pass is pointless.
func circuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// slateDate is the US Eastern calendar day the evening slate belongs to.
func slateDate(now time.Time) time.Time {
	et := now.UTC().Add(-5 * time.Hour)
	return time.Date(et.Year(), et.Month(), et.Day(), 0, 0, 0, 0, time.UTC)
}

// ---- player game logs -------------------------------------------------------

type PlayerLister interface {
	Players(ctx context.Context, since time.Time) ([]string, error)
}

type GameLogSource interface {
	FindPlayer(ctx context.Context, name string) (*providers.Player, error)
	RecentGameLogs(ctx context.Context, playerID, season, limit int) ([]providers.GameLog, error)
}

type StatsWriter interface {
	UpsertMany(ctx context.Context, stats []models.PlayerStat) error
	LatestGameDate(ctx context.Context, player string) (time.Time, bool, error)
}

type StatsInvalidator interface {
	Invalidate(ctx context.Context, players ...string) error
}

// StatsSyncService refreshes recent box scores for every player with an
// open prop.
type StatsSyncService struct {
	players     PlayerLister
	source      GameLogSource
	stats       StatsWriter
	invalidator StatsInvalidator
	maxGames    int
	logger      *logrus.Logger
	now         func() time.Time
}

func NewStatsSyncService(players PlayerLister, source GameLogSource, stats StatsWriter, invalidator StatsInvalidator, maxGames int, logger *logrus.Logger) *StatsSyncService {
	return &StatsSyncService{
		players:     players,
		source:      source,
		stats:       stats,
		invalidator: invalidator,
		maxGames:    maxGames,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *StatsSyncService) Sync(ctx context.Context) (SyncResult, error) {
	var result SyncResult
	now := s.now()
	players, err := s.players.Players(ctx, now.Add(-6*time.Hour))
	if err != nil {
		return result, fmt.Errorf("failed to list prop players: %w", err)
	}

	// Logs through yesterday's slate are complete once stored.
	fresh := slateDate(now).AddDate(0, 0, -1)
	season := providers.SeasonFor(slateDate(now))

	var updated []string
	for _, name := range players {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		log := s.logger.WithField("player", name)

		latest, ok, err := s.stats.LatestGameDate(ctx, name)
		if err != nil {
			log.WithError(err).Warn("Failed to read stored game logs")
		} else if ok && !latest.Before(fresh) {
			result.Skipped++
			continue
		}

		player, err := s.source.FindPlayer(ctx, name)
		if err != nil {
			if circuitOpen(err) {
				return result, err
			}
			if errors.Is(err, providers.ErrPlayerNotFound) {
				log.Debug("Player not found upstream")
				result.Skipped++
				continue
			}
			log.WithError(err).Warn("Failed to resolve player")
			result.Failed++
			continue
		}

		logs, err := s.source.RecentGameLogs(ctx, player.ID, season, s.maxGames)
		if err != nil {
			if circuitOpen(err) {
				return result, err
			}
			log.WithError(err).Warn("Failed to fetch game logs")
			result.Failed++
			continue
		}
		result.Fetched += len(logs)
		if len(logs) == 0 {
			continue
		}

		rows := make([]models.PlayerStat, len(logs))
		for i, gl := range logs {
			rows[i] = models.PlayerStat{
				// Keyed by the prop's display name so batch lookups match.
				PlayerName:          name,
				PlayerExternalID:    player.ID,
				GameDate:            gl.Date,
				Team:                gl.Team,
				Opponent:            gl.Opponent,
				Minutes:             gl.Minutes,
				Points:              gl.Points,
				Rebounds:            gl.Rebounds,
				Assists:             gl.Assists,
				Steals:              gl.Steals,
				Blocks:              gl.Blocks,
				Turnovers:           gl.Turnovers,
				ThreePointersMade:   gl.ThreePointersMade,
				FieldGoalsMade:      gl.FieldGoalsMade,
				FieldGoalsAttempted: gl.FieldGoalsAttempted,
				FreeThrowsMade:      gl.FreeThrowsMade,
				FreeThrowsAttempted: gl.FreeThrowsAttempted,
			}
		}
		if err := s.stats.UpsertMany(ctx, rows); err != nil {
			log.WithError(err).Error("Failed to store game logs")
			result.Failed++
			continue
		}
		result.Stored += len(rows)
		updated = append(updated, name)
	}

	if s.invalidator != nil && len(updated) > 0 {
		if err := s.invalidator.Invalidate(ctx, updated...); err != nil {
			s.logger.WithError(err).Warn("Failed to invalidate cached game logs")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"players": len(players),
		"stored":  result.Stored,
		"skipped": result.Skipped,
		"failed":  result.Failed,
	}).Info("Player stats sync completed")
	return result, nil
}

// ---- schedule ---------------------------------------------------------------

type ScheduleSource interface {
	Games(ctx context.Context, date time.Time) ([]providers.ScheduledGame, error)
}

type GameWriter interface {
	Upsert(ctx context.Context, game *models.Game) error
}

// GameSyncService stores today's slate, falling back to later sources when
// one fails.
type GameSyncService struct {
	sources []ScheduleSource
	games   GameWriter
	logger  *logrus.Logger
	now     func() time.Time
}

func NewGameSyncService(games GameWriter, logger *logrus.Logger, sources ...ScheduleSource) *GameSyncService {
	return &GameSyncService{
		sources: sources,
		games:   games,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *GameSyncService) Sync(ctx context.Context) (SyncResult, error) {
	var result SyncResult
	date := slateDate(s.now())

	var (
		scheduled []providers.ScheduledGame
		lastErr   error
	)
	for i, source := range s.sources {
		games, err := source.Games(ctx, date)
		if err == nil {
			scheduled = games
			lastErr = nil
			break
		}
		lastErr = err
		s.logger.WithError(err).WithField("source", i).Warn("Schedule source failed, trying next")
	}
	if lastErr != nil {
		return result, fmt.Errorf("all schedule sources failed: %w", lastErr)
	}
	result.Fetched = len(scheduled)

	for _, sg := range scheduled {
		status := models.GameScheduled
		switch {
		case sg.Final:
			status = models.GameFinal
		case sg.Live:
			status = models.GameInProgress
		}
		game := &models.Game{
			ExternalID:   sg.ExternalID,
			HomeTeam:     sg.HomeTeam,
			AwayTeam:     sg.AwayTeam,
			HomeTeamName: sg.HomeTeamName,
			AwayTeamName: sg.AwayTeamName,
			GameTime:     sg.StartTime,
			Status:       status,
			Source:       sg.Source,
		}
		if game.GameTime.IsZero() {
			game.GameTime = date
		}
		if err := s.games.Upsert(ctx, game); err != nil {
			s.logger.WithError(err).WithField("game", sg.ExternalID).Error("Failed to store game")
			result.Failed++
			continue
		}
		result.Stored++
	}

	s.logger.WithFields(logrus.Fields{
		"date":   date.Format("2006-01-02"),
		"games":  result.Fetched,
		"stored": result.Stored,
	}).Info("Game sync completed")
	return result, nil
}

// ---- props ------------------------------------------------------------------

type BoardSource interface {
	Board(ctx context.Context) (*providers.Board, error)
}

type GameRepository interface {
	GameWriter
	ListBetween(ctx context.Context, from, to time.Time) ([]models.Game, error)
}

type PropWriter interface {
	Upsert(ctx context.Context, props []models.Prop) error
}

// Notifier publishes a message on a Postgres channel.
type Notifier interface {
	Notify(ctx context.Context, channel, payload string) error
}

// PropSyncService pulls the PrizePicks board into games and props.
type PropSyncService struct {
	board    BoardSource
	games    GameRepository
	props    PropWriter
	teams    TeamCanonicalizer
	notifier Notifier
	logger   *logrus.Logger
	now      func() time.Time
}

func NewPropSyncService(board BoardSource, games GameRepository, props PropWriter, teams TeamCanonicalizer, notifier Notifier, logger *logrus.Logger) *PropSyncService {
	return &PropSyncService{
		board:    board,
		games:    games,
		props:    props,
		teams:    teams,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *PropSyncService) Sync(ctx context.Context) (SyncResult, error) {
	var result SyncResult
	board, err := s.board.Board(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to fetch prop board: %w", err)
	}
	result.Fetched = len(board.Props)

	opponents := make(map[string]string)
	for _, p := range board.Props {
		if p.GameExternalID != "" && p.Opponent != "" && opponents[p.GameExternalID] == "" {
			opponents[p.GameExternalID] = p.Opponent
		}
	}
	schedule := s.scheduleIndex(ctx)

	gameIDs := make(map[string]*models.Game, len(board.Games))
	for _, bg := range board.Games {
		game := s.boardGame(bg, opponents[bg.ExternalID], schedule)
		if game == nil {
			continue
		}
		if err := s.games.Upsert(ctx, game); err != nil {
			s.logger.WithError(err).WithField("game", bg.ExternalID).Error("Failed to store board game")
			continue
		}
		gameIDs[bg.ExternalID] = game
	}

	props := make([]models.Prop, 0, len(board.Props))
	for _, bp := range board.Props {
		if bp.PlayerName == "" || bp.StatType == "" {
			result.Skipped++
			continue
		}
		prop := models.Prop{
			ExternalID: bp.ExternalID,
			Source:     providers.PrizePicks,
			PlayerName: bp.PlayerName,
			Team:       bp.Team,
			StatType:   bp.StatType,
			Line:       bp.Line,
			StartTime:  bp.StartTime,
		}
		if game, ok := gameIDs[bp.GameExternalID]; ok {
			id := game.ID
			prop.GameID = &id
			if prop.StartTime == nil {
				start := game.GameTime
				prop.StartTime = &start
			}
		}
		props = append(props, prop)
	}

	if err := s.props.Upsert(ctx, props); err != nil {
		return result, fmt.Errorf("failed to store props: %w", err)
	}
	result.Stored = len(props)

	if s.notifier != nil && len(props) > 0 {
		payload := fmt.Sprintf(`{"props":%d}`, len(props))
		if err := s.notifier.Notify(ctx, PropsChangedChannel, payload); err != nil {
			s.logger.WithError(err).Warn("Failed to publish props_changed")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"props":   result.Stored,
		"games":   len(gameIDs),
		"skipped": result.Skipped,
	}).Info("Prop sync completed")
	return result, nil
}

// scheduleIndex maps canonical team codes to their opponent on today's
// stored slate.
func (s *PropSyncService) scheduleIndex(ctx context.Context) map[string]string {
	date := slateDate(s.now())
	games, err := s.games.ListBetween(ctx, date, date.Add(36*time.Hour))
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load schedule for opponent lookup")
		return nil
	}
	index := make(map[string]string, 2*len(games))
	for _, g := range games {
		home := s.teams.CanonicalTeam(g.HomeTeam)
		away := s.teams.CanonicalTeam(g.AwayTeam)
		index[home] = away
		index[away] = home
	}
	return index
}

// boardGame builds a game from the teams seen on the board. When props were
// posted for only one side the opponent comes from the prop description or
// the stored schedule.
func (s *PropSyncService) boardGame(bg providers.BoardGame, opponent string, schedule map[string]string) *models.Game {
	if len(bg.Teams) == 0 {
		return nil
	}
	home := bg.Teams[0]
	away := ""
	if len(bg.Teams) > 1 {
		away = bg.Teams[1]
	} else if opponent != "" && !strings.EqualFold(opponent, home) {
		away = opponent
	} else {
		away = schedule[s.teams.CanonicalTeam(home)]
	}

	start := bg.StartTime
	if start.IsZero() {
		start = s.now()
	}
	return &models.Game{
		ExternalID: "pp-" + bg.ExternalID,
		HomeTeam:   home,
		AwayTeam:   away,
		GameTime:   start,
		Status:     models.GameScheduled,
		Source:     providers.PrizePicks,
	}
}

// ---- injuries ---------------------------------------------------------------

type InjuryFeed interface {
	Injuries(ctx context.Context) ([]providers.InjuryEntry, error)
}

type InjuryWriter interface {
	Replace(ctx context.Context, injuries []models.PlayerInjury) error
}

// InjurySyncService replaces the stored injury report with the feed's.
type InjurySyncService struct {
	feed   InjuryFeed
	store  InjuryWriter
	logger *logrus.Logger
	now    func() time.Time
}

func NewInjurySyncService(feed InjuryFeed, store InjuryWriter, logger *logrus.Logger) *InjurySyncService {
	return &InjurySyncService{
		feed:   feed,
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *InjurySyncService) Sync(ctx context.Context) (SyncResult, error) {
	var result SyncResult
	entries, err := s.feed.Injuries(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to fetch injuries: %w", err)
	}
	result.Fetched = len(entries)

	now := s.now()
	injuries := make([]models.PlayerInjury, 0, len(entries))
	for _, e := range entries {
		if e.PlayerName == "" {
			result.Skipped++
			continue
		}
		status := e.Status
		if status == "" {
			status = "unknown"
		}
		injuries = append(injuries, models.PlayerInjury{
			PlayerName: e.PlayerName,
			Team:       e.Team,
			Status:     status,
			InjuryType: e.InjuryType,
			Details:    e.Details,
			ReportedAt: now,
		})
	}

	if err := s.store.Replace(ctx, injuries); err != nil {
		return result, fmt.Errorf("failed to store injuries: %w", err)
	}
	result.Stored = len(injuries)

	s.logger.WithField("injuries", result.Stored).Info("Injury sync completed")
	return result, nil
}
