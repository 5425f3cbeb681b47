package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/jstittsworth/prop-projections/internal/models"
	"github.com/jstittsworth/prop-projections/internal/projection"
	"github.com/jstittsworth/prop-projections/pkg/database"
)

type StoreTestSuite struct {
	suite.Suite
	db     *database.DB
	mirror *database.DB
	ctx    context.Context
	now    time.Time
}

func (s *StoreTestSuite) SetupTest() {
	db, err := database.NewSQLiteConnection(":memory:", false)
	s.Require().NoError(err)
	s.Require().NoError(db.AutoMigrate(models.All()...))

	mirror, err := database.NewSQLiteConnection(":memory:", false)
	s.Require().NoError(err)

	s.db = db
	s.mirror = mirror
	s.ctx = context.Background()
	s.now = time.Date(2025, 2, 10, 18, 0, 0, 0, time.UTC)
}

func (s *StoreTestSuite) TearDownTest() {
	s.db.Close()
	s.mirror.Close()
}

func (s *StoreTestSuite) createGame(externalID string, at time.Time) *models.Game {
	game := &models.Game{ExternalID: externalID, HomeTeam: "BOS", AwayTeam: "NYK", GameTime: at}
	s.Require().NoError(NewGameStore(s.db).Upsert(s.ctx, game))
	return game
}

func (s *StoreTestSuite) TestGameUpsertKeepsID() {
	games := NewGameStore(s.db)
	first := s.createGame("g-1", s.now)

	again := &models.Game{
		ExternalID: "g-1", HomeTeam: "BOS", AwayTeam: "NYK",
		HomeTeamName: "Boston Celtics", AwayTeamName: "New York Knicks",
		GameTime: s.now.Add(time.Hour), Status: models.GameInProgress, Source: "balldontlie",
	}
	s.Require().NoError(games.Upsert(s.ctx, again))
	s.Equal(first.ID, again.ID)

	stored, err := games.FindByExternalID(s.ctx, "g-1")
	s.Require().NoError(err)
	s.Equal(models.GameInProgress, stored.Status)
	s.Equal("Boston Celtics", stored.HomeTeamName)
	s.Equal("New York Knicks", stored.AwayTeamName)
	s.Equal("balldontlie", stored.Source)
	s.True(stored.GameTime.Equal(s.now.Add(time.Hour)))

	listed, err := games.ListBetween(s.ctx, s.now, s.now.Add(2*time.Hour))
	s.Require().NoError(err)
	s.Len(listed, 1)

	_, err = games.FindByExternalID(s.ctx, "missing")
	s.ErrorIs(err, ErrNotFound)
}

func (s *StoreTestSuite) TestPropsUpsertAndProjection() {
	props := NewPropStore(s.db)
	game := s.createGame("g-1", s.now)
	start := s.now

	s.Require().NoError(props.Upsert(s.ctx, []models.Prop{
		{ExternalID: "p-1", GameID: &game.ID, PlayerName: "Jalen Brunson", Team: "NYK", StatType: "Points", Line: 26.5, StartTime: &start},
		{ExternalID: "p-2", GameID: &game.ID, PlayerName: "Jayson Tatum", Team: "BOS", StatType: "Rebounds", Line: 8.5, StartTime: &start},
	}))

	listed, err := props.ListForProjection(s.ctx, s.now.Add(-time.Minute))
	s.Require().NoError(err)
	s.Require().Len(listed, 2)
	s.Equal("Jalen Brunson", listed[0].PlayerName)
	s.Require().NotNil(listed[0].Game)
	s.Equal("NYK", listed[0].Game.Opponent("BOS"))

	proj := projection.Projection{
		Value:           27.3,
		ProbabilityOver: 0.58,
		Confidence:      projection.ConfidenceMedium,
		Edge:            8,
		Adjustments:     projection.Adjustments{Baseline: 26.9, Injury: 1, Usage: 1, Defense: 1.01, Pace: 1, Rebound: 1, Assist: 1},
	}
	s.Require().NoError(props.SaveProjection(s.ctx, listed[0].ID, proj, s.now))

	// A line move keeps the stored projection.
	s.Require().NoError(props.Upsert(s.ctx, []models.Prop{
		{ExternalID: "p-1", GameID: &game.ID, PlayerName: "Jalen Brunson", Team: "NYK", StatType: "Points", Line: 27.5, StartTime: &start},
	}))

	stored, err := props.Get(s.ctx, listed[0].ID)
	s.Require().NoError(err)
	s.Equal(27.5, stored.Line)
	s.Require().NotNil(stored.Projection)
	s.Equal(27.3, *stored.Projection)
	s.Equal("medium", stored.Confidence)

	var adj projection.Adjustments
	s.Require().NoError(json.Unmarshal(stored.Adjustments, &adj))
	s.Equal(26.9, adj.Baseline)

	s.ErrorIs(props.SaveProjection(s.ctx, uuid.New(), proj, s.now), ErrNotFound)
}

func (s *StoreTestSuite) TestPropPlayersAndStaleCleanup() {
	props := NewPropStore(s.db)
	earlier := s.now.Add(-6 * time.Hour)
	later := s.now.Add(time.Hour)

	s.Require().NoError(props.Upsert(s.ctx, []models.Prop{
		{ExternalID: "p-1", PlayerName: "Jalen Brunson", StatType: "Points", Line: 26.5, StartTime: &later},
		{ExternalID: "p-2", PlayerName: "Jalen Brunson", StatType: "Assists", Line: 7.5, StartTime: &later},
		{ExternalID: "p-3", PlayerName: "Old Game", StatType: "Points", Line: 10.5, StartTime: &earlier},
		{ExternalID: "p-4", PlayerName: "No Start", StatType: "Points", Line: 12.5},
	}))

	players, err := props.Players(s.ctx, s.now)
	s.Require().NoError(err)
	s.Equal([]string{"Jalen Brunson", "No Start"}, players)

	found, err := props.FindByPlayerStat(s.ctx, "jalen brunson", "points")
	s.Require().NoError(err)
	s.Len(found, 1)

	deleted, err := props.DeleteStale(s.ctx, s.now.Add(-time.Hour))
	s.Require().NoError(err)
	s.EqualValues(1, deleted)
}

func (s *StoreTestSuite) TestApplyOddsBookColumns() {
	props := NewPropStore(s.db)
	s.Require().NoError(props.Upsert(s.ctx, []models.Prop{
		{ExternalID: "p-1", PlayerName: "Jalen Brunson", StatType: "Points", Line: 26.5},
	}))
	found, err := props.FindByPlayerStat(s.ctx, "Jalen Brunson", "Points")
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	id := found[0].ID

	over, under := -115, -105
	prob := 0.52
	s.Require().NoError(props.ApplyOdds(s.ctx, id, OddsUpdate{
		Bookmaker: "draftkings", Line: 26.5, OverPrice: &over, UnderPrice: &under,
		MarketProbabilityOver: &prob, RecordedAt: s.now,
		DraftKings: &BookLine{Line: 26.5, Over: &over, Under: &under},
	}))

	stored, err := props.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Require().NotNil(stored.DraftKingsLine)
	s.Equal(26.5, *stored.DraftKingsLine)
	s.Equal(-115, *stored.DraftKingsOver)
	s.Equal(-105, *stored.DraftKingsUnder)
	s.Nil(stored.FanDuelLine)

	// A later update without a fanduel quote leaves draftkings alone.
	fdOver, fdUnder := -120, 100
	s.Require().NoError(props.ApplyOdds(s.ctx, id, OddsUpdate{
		Bookmaker: "fanduel", Line: 27.5, OverPrice: &fdOver, UnderPrice: &fdUnder, RecordedAt: s.now,
		FanDuel: &BookLine{Line: 27.5, Over: &fdOver, Under: &fdUnder},
	}))
	stored, err = props.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(26.5, *stored.DraftKingsLine)
	s.Require().NotNil(stored.FanDuelLine)
	s.Equal(27.5, *stored.FanDuelLine)
	s.Equal(100, *stored.FanDuelUnder)

	s.ErrorIs(props.ApplyOdds(s.ctx, uuid.New(), OddsUpdate{}), ErrNotFound)
}

func (s *StoreTestSuite) TestPlayerStatsRecentFirst() {
	stats := NewPlayerStatsStore(s.db)
	day := func(d int) time.Time { return time.Date(2025, 2, d, 0, 0, 0, 0, time.UTC) }

	s.Require().NoError(stats.UpsertMany(s.ctx, []models.PlayerStat{
		{PlayerName: "Jalen Brunson", GameDate: day(1), Minutes: 35, Points: 30},
		{PlayerName: "Jalen Brunson", GameDate: day(3), Team: "NYK", Opponent: "MIA", Minutes: 36, Points: 22},
		{PlayerName: "Jalen Brunson", GameDate: day(5), Minutes: 34, Points: 28},
		{PlayerName: "Josh Hart", GameDate: day(5), Minutes: 38, Points: 12, Rebounds: 11},
	}))
	// Corrected box score replaces the earlier row.
	s.Require().NoError(stats.UpsertMany(s.ctx, []models.PlayerStat{
		{PlayerName: "Jalen Brunson", GameDate: day(3), Team: "NYK", Opponent: "MIA", Minutes: 36, Points: 24},
	}))

	var row models.PlayerStat
	s.Require().NoError(s.db.Where("normalized_name = ? AND game_date = ?", "jalen brunson", day(3)).First(&row).Error)
	s.Equal("MIA", row.Opponent)
	s.Equal(24.0, row.Points)

	records, err := stats.RecentStats(s.ctx, "Jalen Brunson", 2)
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal(28.0, records[0].Points)
	s.Equal(24.0, records[1].Points)

	latest, ok, err := stats.LatestGameDate(s.ctx, "Josh Hart")
	s.Require().NoError(err)
	s.True(ok)
	s.True(latest.Equal(day(5)))

	_, ok, err = stats.LatestGameDate(s.ctx, "Nobody")
	s.Require().NoError(err)
	s.False(ok)

	none, err := stats.RecentStats(s.ctx, "Nobody", 15)
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *StoreTestSuite) TestInjurySnapshot() {
	injuries := NewInjuryStore(s.db)

	s.Require().NoError(injuries.Replace(s.ctx, []models.PlayerInjury{
		{PlayerName: "Stale Player", Team: "BOS", Status: "Out", ReportedAt: s.now},
	}))
	s.Require().NoError(injuries.Replace(s.ctx, []models.PlayerInjury{
		{PlayerName: "Jayson Tatum", Team: "BOS", Status: "Questionable", ReportedAt: s.now},
		{PlayerName: "Kristaps Porzingis", Team: "BOS", Status: "Day-To-Day", ReportedAt: s.now},
		{PlayerName: "Kristaps Porzingis", Team: "BOS", Status: "Out", ReportedAt: s.now},
		{PlayerName: "Kevin Durant", Team: "PHX", Status: "Doubtful", ReportedAt: s.now},
		{PlayerName: "Nikola Jokić", Team: "DEN", Status: "Questionable", InjuryType: "Wrist", ReportedAt: s.now},
	}))

	listed, err := injuries.List(s.ctx)
	s.Require().NoError(err)
	s.Len(listed, 4)

	var jokic models.PlayerInjury
	s.Require().NoError(s.db.Where("normalized_name = ?", "nikola jokic").First(&jokic).Error)
	s.Equal("Wrist", jokic.InjuryType)

	snap, err := injuries.Snapshot(s.ctx, func(team string) string {
		if team == "PHX" {
			return "PHO"
		}
		return team
	})
	s.Require().NoError(err)

	s.Equal(projection.InjuryQuestionable, snap.Status("Jayson Tatum"))
	s.Equal(projection.InjuryOut, snap.Status("Kristaps Porzingis"))
	s.Equal(projection.InjuryUnknown, snap.Status("Stale Player"))
	s.Equal([]string{"Kristaps Porzingis"}, snap.Absences("BOS"))
	s.Equal([]string{"Kevin Durant"}, snap.Absences("PHO"))
}

func (s *StoreTestSuite) TestOddsHistoryMirrorAndLatest() {
	odds := NewOddsHistoryStore(s.db, s.mirror, logrus.New())
	s.Require().NoError(odds.Migrate())

	over, under := -115, -105
	newer := -125
	s.Require().NoError(odds.Record(s.ctx, []models.OddsHistory{
		{EventID: "e1", PlayerName: "Jalen Brunson", StatType: "Points", Market: "player_points", Bookmaker: "draftkings", Line: 26.5, OverPrice: &over, UnderPrice: &under, RecordedAt: s.now.Add(-3 * time.Hour)},
		{EventID: "e1", PlayerName: "Jalen Brunson", StatType: "Points", Market: "player_points", Bookmaker: "draftkings", Line: 27.5, OverPrice: &newer, UnderPrice: &under, RecordedAt: s.now.Add(-30 * time.Minute)},
		{EventID: "e1", PlayerName: "Jalen Brunson", StatType: "Points", Market: "player_points", Bookmaker: "fanduel", Line: 26.5, OverPrice: &over, UnderPrice: &under, RecordedAt: s.now.Add(-time.Hour)},
	}))

	var mirrored int64
	s.Require().NoError(s.mirror.Model(&models.OddsHistory{}).Count(&mirrored).Error)
	s.EqualValues(3, mirrored)

	latest, err := odds.LatestQuotes(s.ctx, "jalen brunson", "Points", s.now.Add(-2*time.Hour))
	s.Require().NoError(err)
	s.Require().Len(latest, 2)
	s.Equal("draftkings", latest[0].Bookmaker)
	s.Equal(27.5, latest[0].Line)
	s.Equal("fanduel", latest[1].Bookmaker)

	purged, err := odds.Purge(s.ctx, s.now.Add(-2*time.Hour))
	s.Require().NoError(err)
	s.EqualValues(1, purged)
	s.Require().NoError(s.mirror.Model(&models.OddsHistory{}).Count(&mirrored).Error)
	s.EqualValues(2, mirrored)
}

func (s *StoreTestSuite) TestOddsHistoryWithoutMirror() {
	odds := NewOddsHistoryStore(s.db, nil, logrus.New())
	s.Require().NoError(odds.Migrate())
	s.Require().NoError(odds.Record(s.ctx, []models.OddsHistory{
		{EventID: "e1", PlayerName: "A", StatType: "Points", Market: "player_points", Bookmaker: "fanduel", RecordedAt: s.now},
	}))
	s.Require().NoError(odds.Record(s.ctx, nil))
}

func (s *StoreTestSuite) TestRunLifecycle() {
	runs := NewRunStore(s.db)

	_, err := runs.Latest(s.ctx)
	s.ErrorIs(err, ErrNotFound)

	run := &models.ProjectionRun{Trigger: "api", Status: models.RunRunning, StartedAt: s.now}
	s.Require().NoError(runs.Create(s.ctx, run))

	finished := s.now.Add(time.Minute)
	run.Status = models.RunCompleted
	run.FinishedAt = &finished
	run.Total, run.Projected, run.Failed = 10, 9, 1
	run.Failures = []byte(`[{"prop_id":"x","error":"boom"}]`)
	s.Require().NoError(runs.Finish(s.ctx, run))

	latest, err := runs.Latest(s.ctx)
	s.Require().NoError(err)
	s.Equal(run.ID, latest.ID)
	s.Equal(models.RunCompleted, latest.Status)
	s.Equal(9, latest.Projected)
	s.JSONEq(`[{"prop_id":"x","error":"boom"}]`, string(latest.Failures))
}

func (s *StoreTestSuite) TestNotifierSkipsSQLite() {
	s.NoError(NewPgNotifier(s.db).Notify(s.ctx, "props_changed", `{"props":1}`))
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}
