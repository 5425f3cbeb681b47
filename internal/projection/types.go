package projection

import (
	"strings"
	"time"
)

// Position is one of the five defensive matchup slots.
type Position string

const (
	PositionPG Position = "PG"
	PositionSG Position = "SG"
	PositionSF Position = "SF"
	PositionPF Position = "PF"
	PositionC  Position = "C"
)

// DefaultPosition is used when a player is missing from the position table.
const DefaultPosition = PositionSF

// ParsePosition accepts the five slot codes plus the long forms and
// guard/forward shorthands used by the feeds. Unrecognized input maps to
// DefaultPosition.
func ParsePosition(s string) Position {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PG", "POINT GUARD", "G":
		return PositionPG
	case "SG", "SHOOTING GUARD", "G-F", "GF":
		return PositionSG
	case "SF", "SMALL FORWARD", "F", "F-G":
		return PositionSF
	case "PF", "POWER FORWARD", "F-C", "FC":
		return PositionPF
	case "C", "CENTER", "C-F":
		return PositionC
	}
	return DefaultPosition
}

// StatRecord is one completed game's box-score line.
type StatRecord struct {
	GameDate            time.Time `json:"game_date"`
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
}

// Played reports whether the record counts toward a baseline.
func (r StatRecord) Played() bool {
	return r.Minutes > 0
}

// TeamProfile holds per-team advanced metrics for one season.
type TeamProfile struct {
	Pace           float64 `json:"pace" yaml:"pace"`
	OffRating      float64 `json:"off_rtg" yaml:"off_rtg"`
	DefRating      float64 `json:"def_rtg" yaml:"def_rtg"`
	EffectiveFGPct float64 `json:"efg" yaml:"efg"`
	AssistPct      float64 `json:"ast_pct" yaml:"ast_pct"`
	TurnoverPct    float64 `json:"tov_pct" yaml:"tov_pct"`
	OffReboundPct  float64 `json:"oreb_pct" yaml:"oreb_pct"`
	DefReboundPct  float64 `json:"dreb_pct" yaml:"dreb_pct"`
}

// LeagueAverages normalizes the team ratios.
type LeagueAverages struct {
	Pace          float64 `json:"pace" yaml:"pace"`
	OffReboundPct float64 `json:"oreb_pct" yaml:"oreb_pct"`
	DefReboundPct float64 `json:"dreb_pct" yaml:"dreb_pct"`
	AssistPct     float64 `json:"ast_pct" yaml:"ast_pct"`
	TurnoverPct   float64 `json:"tov_pct" yaml:"tov_pct"`
	DefRating     float64 `json:"def_rtg" yaml:"def_rtg"`
}

// DefaultLeagueAverages are the 2024-25 league-wide values.
func DefaultLeagueAverages() LeagueAverages {
	return LeagueAverages{
		Pace:          100.0,
		OffReboundPct: 30.0,
		DefReboundPct: 69.0,
		AssistPct:     63.0,
		TurnoverPct:   14.5,
		DefRating:     113.0,
	}
}

// Profile returns a TeamProfile carrying only league-average values.
func (l LeagueAverages) Profile() TeamProfile {
	return TeamProfile{
		Pace:          l.Pace,
		DefRating:     l.DefRating,
		OffRating:     l.DefRating,
		AssistPct:     l.AssistPct,
		TurnoverPct:   l.TurnoverPct,
		OffReboundPct: l.OffReboundPct,
		DefReboundPct: l.DefReboundPct,
	}
}

// DefensiveRanks is a team's rank (1 = hardest, 30 = easiest) against one
// position for each defended stat.
type DefensiveRanks struct {
	Points   int `json:"pts" yaml:"pts"`
	Rebounds int `json:"reb" yaml:"reb"`
	Assists  int `json:"ast" yaml:"ast"`
	Steals   int `json:"stl" yaml:"stl"`
	Blocks   int `json:"blk" yaml:"blk"`
}

// Rank returns the rank for a bucket; zero means no data.
func (d DefensiveRanks) Rank(b DefenseBucket) int {
	switch b {
	case BucketPoints:
		return d.Points
	case BucketRebounds:
		return d.Rebounds
	case BucketAssists:
		return d.Assists
	case BucketSteals:
		return d.Steals
	case BucketBlocks:
		return d.Blocks
	}
	return 0
}

// InjuryStatus is a player's availability tag for the current slate.
type InjuryStatus string

const (
	InjuryActive       InjuryStatus = "active"
	InjuryQuestionable InjuryStatus = "questionable"
	InjuryDoubtful     InjuryStatus = "doubtful"
	InjuryOut          InjuryStatus = "out"
	InjuryDayToDay     InjuryStatus = "day-to-day"
	InjuryUnknown      InjuryStatus = "unknown"
)

// ParseInjuryStatus normalizes a feed's status text.
func ParseInjuryStatus(s string) InjuryStatus {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.NewReplacer("_", "-", " ", "-").Replace(v)
	switch v {
	case "active", "available", "probable":
		return InjuryActive
	case "questionable", "gtd", "game-time-decision":
		return InjuryQuestionable
	case "doubtful":
		return InjuryDoubtful
	case "out", "injured-reserve", "ir", "suspended", "out-for-season":
		return InjuryOut
	case "day-to-day", "dtd":
		return InjuryDayToDay
	}
	return InjuryUnknown
}

// Absent reports whether the status takes the player off the floor for
// teammate usage purposes.
func (s InjuryStatus) Absent() bool {
	return s == InjuryOut || s == InjuryDoubtful
}

// PropLine is the unit of work for one projection.
type PropLine struct {
	PlayerName string       `json:"player_name"`
	Category   StatCategory `json:"category"`
	Line       float64      `json:"line"`
	Team       string       `json:"team"`
	Opponent   string       `json:"opponent"`
	Position   Position     `json:"position"`
}

// Confidence is the qualitative reliability label of a projection.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Adjustments records every factor that produced a projection so the
// persistence layer can store the breakdown next to the result.
type Adjustments struct {
	Baseline   float64 `json:"baseline"`
	Injury     float64 `json:"injury"`
	Usage      float64 `json:"usage"`
	Positional float64 `json:"positional"`
	Efficiency float64 `json:"efficiency"`
	Defense    float64 `json:"defense"`
	Pace       float64 `json:"pace"`
	Rebound    float64 `json:"rebound"`
	Assist     float64 `json:"assist"`
	StdDev     float64 `json:"std_dev"`
	SampleSize int     `json:"sample_size"`
	Neutral    bool    `json:"neutral,omitempty"`
}

// Projection is the engine's output for one PropLine.
type Projection struct {
	Value           float64     `json:"projection"`
	ProbabilityOver float64     `json:"probability_over"`
	Confidence      Confidence  `json:"confidence"`
	Edge            float64     `json:"edge"`
	Adjustments     Adjustments `json:"adjustments"`
}
