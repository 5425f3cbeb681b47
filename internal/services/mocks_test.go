package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/jstittsworth/prop-projections/internal/models"
	"github.com/jstittsworth/prop-projections/internal/projection"
	"github.com/jstittsworth/prop-projections/internal/providers"
	"github.com/jstittsworth/prop-projections/internal/store"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

type MockPropSource struct {
	mock.Mock
}

func (m *MockPropSource) ListForProjection(ctx context.Context, since time.Time) ([]models.Prop, error) {
	args := m.Called(ctx, since)
	props, _ := args.Get(0).([]models.Prop)
	return props, args.Error(1)
}

func (m *MockPropSource) SaveProjection(ctx context.Context, propID uuid.UUID, proj projection.Projection, at time.Time) error {
	args := m.Called(ctx, propID, proj, at)
	return args.Error(0)
}

func (m *MockPropSource) ApplyOdds(ctx context.Context, propID uuid.UUID, odds store.OddsUpdate) error {
	args := m.Called(ctx, propID, odds)
	return args.Error(0)
}

type MockInjurySource struct {
	mock.Mock
}

func (m *MockInjurySource) Snapshot(ctx context.Context, canonicalTeam func(string) string) (*projection.InjurySnapshot, error) {
	args := m.Called(ctx, mock.Anything)
	snap, _ := args.Get(0).(*projection.InjurySnapshot)
	return snap, args.Error(1)
}

type MockStatsProvider struct {
	mock.Mock
}

func (m *MockStatsProvider) RecentStats(ctx context.Context, player string, limit int) ([]projection.StatRecord, error) {
	args := m.Called(ctx, player, limit)
	records, _ := args.Get(0).([]projection.StatRecord)
	return records, args.Error(1)
}

type MockRunRecorder struct {
	mock.Mock
}

func (m *MockRunRecorder) Create(ctx context.Context, run *models.ProjectionRun) error {
	return m.Called(ctx, run).Error(0)
}

func (m *MockRunRecorder) Finish(ctx context.Context, run *models.ProjectionRun) error {
	return m.Called(ctx, run).Error(0)
}

func (m *MockRunRecorder) Latest(ctx context.Context) (*models.ProjectionRun, error) {
	args := m.Called(ctx)
	run, _ := args.Get(0).(*models.ProjectionRun)
	return run, args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *MockCache) Get(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	if fill, ok := args.Get(1).(func(interface{})); ok && fill != nil {
		fill(dest)
	}
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

type MockOddsSource struct {
	mock.Mock
}

func (m *MockOddsSource) Enabled() bool {
	return m.Called().Bool(0)
}

func (m *MockOddsSource) Events(ctx context.Context) ([]providers.Event, error) {
	args := m.Called(ctx)
	events, _ := args.Get(0).([]providers.Event)
	return events, args.Error(1)
}

func (m *MockOddsSource) EventProps(ctx context.Context, eventID string, markets []string) ([]providers.PropQuote, error) {
	args := m.Called(ctx, eventID, markets)
	quotes, _ := args.Get(0).([]providers.PropQuote)
	return quotes, args.Error(1)
}

// gameLogs builds n played games scoring pts, most recent first.
func gameLogs(n int, pts float64) []projection.StatRecord {
	records := make([]projection.StatRecord, n)
	day := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	for i := range records {
		records[i] = projection.StatRecord{
			GameDate: day.AddDate(0, 0, -2*i),
			Minutes:  34,
			Points:   pts,
			Rebounds: 7,
			Assists:  6,
		}
	}
	return records
}

type MockPlayerLister struct {
	mock.Mock
}

func (m *MockPlayerLister) Players(ctx context.Context, since time.Time) ([]string, error) {
	args := m.Called(ctx, since)
	players, _ := args.Get(0).([]string)
	return players, args.Error(1)
}

type MockGameLogSource struct {
	mock.Mock
}

func (m *MockGameLogSource) FindPlayer(ctx context.Context, name string) (*providers.Player, error) {
	args := m.Called(ctx, name)
	player, _ := args.Get(0).(*providers.Player)
	return player, args.Error(1)
}

func (m *MockGameLogSource) RecentGameLogs(ctx context.Context, playerID, season, limit int) ([]providers.GameLog, error) {
	args := m.Called(ctx, playerID, season, limit)
	logs, _ := args.Get(0).([]providers.GameLog)
	return logs, args.Error(1)
}

type MockStatsWriter struct {
	mock.Mock
}

func (m *MockStatsWriter) UpsertMany(ctx context.Context, stats []models.PlayerStat) error {
	return m.Called(ctx, stats).Error(0)
}

func (m *MockStatsWriter) LatestGameDate(ctx context.Context, player string) (time.Time, bool, error) {
	args := m.Called(ctx, player)
	return args.Get(0).(time.Time), args.Bool(1), args.Error(2)
}

type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) Invalidate(ctx context.Context, players ...string) error {
	return m.Called(ctx, players).Error(0)
}

type MockScheduleSource struct {
	mock.Mock
}

func (m *MockScheduleSource) Games(ctx context.Context, date time.Time) ([]providers.ScheduledGame, error) {
	args := m.Called(ctx, date)
	games, _ := args.Get(0).([]providers.ScheduledGame)
	return games, args.Error(1)
}

type MockGameRepository struct {
	mock.Mock
}

func (m *MockGameRepository) Upsert(ctx context.Context, game *models.Game) error {
	return m.Called(ctx, game).Error(0)
}

func (m *MockGameRepository) ListBetween(ctx context.Context, from, to time.Time) ([]models.Game, error) {
	args := m.Called(ctx, from, to)
	games, _ := args.Get(0).([]models.Game)
	return games, args.Error(1)
}

type MockBoardSource struct {
	mock.Mock
}

func (m *MockBoardSource) Board(ctx context.Context) (*providers.Board, error) {
	args := m.Called(ctx)
	board, _ := args.Get(0).(*providers.Board)
	return board, args.Error(1)
}

type MockPropWriter struct {
	mock.Mock
}

func (m *MockPropWriter) Upsert(ctx context.Context, props []models.Prop) error {
	return m.Called(ctx, props).Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, channel, payload string) error {
	return m.Called(ctx, channel, payload).Error(0)
}

type MockInjuryFeed struct {
	mock.Mock
}

func (m *MockInjuryFeed) Injuries(ctx context.Context) ([]providers.InjuryEntry, error) {
	args := m.Called(ctx)
	entries, _ := args.Get(0).([]providers.InjuryEntry)
	return entries, args.Error(1)
}

type MockInjuryWriter struct {
	mock.Mock
}

func (m *MockInjuryWriter) Replace(ctx context.Context, injuries []models.PlayerInjury) error {
	return m.Called(ctx, injuries).Error(0)
}

type MockOddsHistory struct {
	mock.Mock
}

func (m *MockOddsHistory) Record(ctx context.Context, quotes []models.OddsHistory) error {
	return m.Called(ctx, quotes).Error(0)
}

func (m *MockOddsHistory) LatestQuotes(ctx context.Context, player, statType string, since time.Time) ([]models.OddsHistory, error) {
	args := m.Called(ctx, player, statType, since)
	quotes, _ := args.Get(0).([]models.OddsHistory)
	return quotes, args.Error(1)
}

func (m *MockOddsHistory) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}
