package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jstittsworth/prop-projections/internal/projection"
	"github.com/jstittsworth/prop-projections/pkg/names"
)

// GameStatus mirrors the upstream schedule state.
type GameStatus string

const (
	GameScheduled  GameStatus = "scheduled"
	GameInProgress GameStatus = "in_progress"
	GameFinal      GameStatus = "final"
)

// Game is one NBA game on the slate. HomeTeam and AwayTeam hold
// abbreviations; the names are whatever the source reports.
type Game struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ExternalID   string     `gorm:"uniqueIndex;not null" json:"external_id"`
	HomeTeam     string     `gorm:"type:varchar(8);not null" json:"home_team"`
	AwayTeam     string     `gorm:"type:varchar(8);not null" json:"away_team"`
	HomeTeamName string     `gorm:"type:varchar(64)" json:"home_team_name,omitempty"`
	AwayTeamName string     `gorm:"type:varchar(64)" json:"away_team_name,omitempty"`
	GameTime     time.Time  `gorm:"not null;index" json:"game_time"`
	Status       GameStatus `gorm:"type:varchar(20);default:'scheduled'" json:"status"`
	Source       string     `gorm:"type:varchar(32)" json:"source"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Game) TableName() string {
	return "games"
}

func (g *Game) BeforeCreate(tx *gorm.DB) error {
	ensureID(&g.ID)
	return nil
}

// Opponent returns the other side of the game for team. A team that is not
// the home side is treated as the away side.
func (g *Game) Opponent(team string) string {
	if team == g.HomeTeam {
		return g.AwayTeam
	}
	return g.HomeTeam
}

// Prop is a posted player line plus the latest projection and market data.
type Prop struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ExternalID string     `gorm:"uniqueIndex;not null" json:"external_id"`
	Source     string     `gorm:"type:varchar(32);not null;default:'prizepicks'" json:"source"`
	GameID     *uuid.UUID `gorm:"type:uuid;index" json:"game_id,omitempty"`
	PlayerName string     `gorm:"not null;index" json:"player_name"`
	Team       string     `gorm:"type:varchar(8)" json:"team"`
	StatType   string     `gorm:"not null" json:"stat_type"`
	Line       float64    `gorm:"not null" json:"line"`
	StartTime  *time.Time `json:"start_time,omitempty"`

	// Latest projection
	Projection      *float64       `json:"projection,omitempty"`
	ProbabilityOver *float64       `json:"probability_over,omitempty"`
	Confidence      string         `gorm:"type:varchar(10)" json:"confidence,omitempty"`
	Edge            *float64       `json:"edge,omitempty"`
	Adjustments     datatypes.JSON `gorm:"type:jsonb" json:"adjustments,omitempty"`
	ProjectedAt     *time.Time     `json:"projected_at,omitempty"`

	// Latest sportsbook odds: the closest market across books, plus the
	// DraftKings and FanDuel quotes on their own.
	OddsBook              string     `gorm:"type:varchar(32)" json:"odds_book,omitempty"`
	OddsLine              *float64   `json:"odds_line,omitempty"`
	OverPrice             *int       `json:"over_price,omitempty"`
	UnderPrice            *int       `json:"under_price,omitempty"`
	MarketProbabilityOver *float64   `json:"market_probability_over,omitempty"`
	OddsUpdatedAt         *time.Time `json:"odds_updated_at,omitempty"`
	DraftKingsLine        *float64   `gorm:"column:draftkings_line" json:"draftkings_line,omitempty"`
	DraftKingsOver        *int       `gorm:"column:draftkings_over" json:"draftkings_over,omitempty"`
	DraftKingsUnder       *int       `gorm:"column:draftkings_under" json:"draftkings_under,omitempty"`
	FanDuelLine           *float64   `gorm:"column:fanduel_line" json:"fanduel_line,omitempty"`
	FanDuelOver           *int       `gorm:"column:fanduel_over" json:"fanduel_over,omitempty"`
	FanDuelUnder          *int       `gorm:"column:fanduel_under" json:"fanduel_under,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Game *Game `gorm:"foreignKey:GameID" json:"game,omitempty"`
}

// TableName specifies the table name for GORM
func (Prop) TableName() string {
	return "props"
}

func (p *Prop) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// PlayerStat is one completed game's box score for a player.
type PlayerStat struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PlayerName          string    `gorm:"not null;uniqueIndex:idx_player_stats_player_date" json:"player_name"`
	NormalizedName      string    `gorm:"index" json:"normalized_name"`
	PlayerExternalID    int       `gorm:"index" json:"player_external_id"`
	GameDate            time.Time `gorm:"not null;uniqueIndex:idx_player_stats_player_date" json:"game_date"`
	Team                string    `gorm:"type:varchar(8)" json:"team"`
	Opponent            string    `gorm:"type:varchar(8)" json:"opponent"`
	Minutes             float64   `json:"minutes"`
	Points              float64   `json:"points"`
	Rebounds            float64   `json:"rebounds"`
	Assists             float64   `json:"assists"`
	Steals              float64   `json:"steals"`
	Blocks              float64   `json:"blocks"`
	Turnovers           float64   `json:"turnovers"`
	ThreePointersMade   float64   `json:"three_pointers_made"`
	FieldGoalsMade      float64   `json:"field_goals_made"`
	FieldGoalsAttempted float64   `json:"field_goals_attempted"`
	FreeThrowsMade      float64   `json:"free_throws_made"`
	FreeThrowsAttempted float64   `json:"free_throws_attempted"`
	CreatedAt           time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (PlayerStat) TableName() string {
	return "player_stats"
}

func (s *PlayerStat) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	s.NormalizedName = names.Normalize(s.PlayerName)
	return nil
}

func (s PlayerStat) StatRecord() projection.StatRecord {
	return projection.StatRecord{
		GameDate:            s.GameDate,
		Minutes:             s.Minutes,
		Points:              s.Points,
		Rebounds:            s.Rebounds,
		Assists:             s.Assists,
		Steals:              s.Steals,
		Blocks:              s.Blocks,
		Turnovers:           s.Turnovers,
		ThreePointersMade:   s.ThreePointersMade,
		FieldGoalsMade:      s.FieldGoalsMade,
		FieldGoalsAttempted: s.FieldGoalsAttempted,
		FreeThrowsMade:      s.FreeThrowsMade,
		FreeThrowsAttempted: s.FreeThrowsAttempted,
	}
}

// PlayerInjury is the latest injury-report entry for a player.
type PlayerInjury struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PlayerName     string    `gorm:"not null;uniqueIndex" json:"player_name"`
	NormalizedName string    `gorm:"index" json:"normalized_name"`
	Team           string    `gorm:"type:varchar(8);index" json:"team"`
	Status         string    `gorm:"type:varchar(20);not null" json:"status"`
	InjuryType     string    `gorm:"type:varchar(64)" json:"injury_type,omitempty"`
	Details        string    `json:"details,omitempty"`
	ReportedAt     time.Time `json:"reported_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (PlayerInjury) TableName() string {
	return "player_injuries"
}

func (i *PlayerInjury) BeforeCreate(tx *gorm.DB) error {
	ensureID(&i.ID)
	i.NormalizedName = names.Normalize(i.PlayerName)
	return nil
}

func (i PlayerInjury) Report() projection.InjuryReport {
	return projection.InjuryReport{
		Player: i.PlayerName,
		Team:   i.Team,
		Status: projection.ParseInjuryStatus(i.Status),
	}
}

// OddsHistory is one sportsbook quote for a player prop at a point in time.
// Each book gets its own row so any number of books can be tracked.
type OddsHistory struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EventID      string    `gorm:"not null;index" json:"event_id"`
	PlayerName   string    `gorm:"not null;index:idx_odds_player_stat" json:"player_name"`
	StatType     string    `gorm:"not null;index:idx_odds_player_stat" json:"stat_type"`
	Market       string    `gorm:"not null" json:"market"`
	Bookmaker    string    `gorm:"type:varchar(32);not null" json:"bookmaker"`
	Line         float64   `json:"line"`
	OverPrice    *int      `json:"over_price,omitempty"`
	UnderPrice   *int      `json:"under_price,omitempty"`
	HomeTeam     string    `gorm:"type:varchar(64)" json:"home_team"`
	AwayTeam     string    `gorm:"type:varchar(64)" json:"away_team"`
	CommenceTime time.Time `json:"commence_time"`
	RecordedAt   time.Time `gorm:"not null;index" json:"recorded_at"`
}

// TableName specifies the table name for GORM
func (OddsHistory) TableName() string {
	return "odds_history"
}

func (o *OddsHistory) BeforeCreate(tx *gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// RunStatus is the lifecycle state of a projection batch.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunCancelled RunStatus = "cancelled"
	RunFailed    RunStatus = "failed"
)

// ProjectionRun summarizes one batch run.
type ProjectionRun struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Trigger    string         `gorm:"type:varchar(20);not null" json:"trigger"`
	Status     RunStatus      `gorm:"type:varchar(20);not null;index" json:"status"`
	StartedAt  time.Time      `gorm:"not null;index" json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Total      int            `json:"total"`
	Projected  int            `json:"projected"`
	Neutral    int            `json:"neutral"`
	Skipped    int            `json:"skipped"`
	Failed     int            `json:"failed"`
	Failures   datatypes.JSON `gorm:"type:jsonb" json:"failures,omitempty"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// TableName specifies the table name for GORM
func (ProjectionRun) TableName() string {
	return "projection_runs"
}

func (r *ProjectionRun) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// All lists every model for migrations.
func All() []interface{} {
	return []interface{}{
		&Game{},
		&Prop{},
		&PlayerStat{},
		&PlayerInjury{},
		&OddsHistory{},
		&ProjectionRun{},
	}
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
