package projection

import "context"

// PlayerStatsProvider returns up to limit box scores for a player, most
// recent first. An empty result is not an error.
type PlayerStatsProvider interface {
	RecentStats(ctx context.Context, player string, limit int) ([]StatRecord, error)
}

// TeamReferenceProvider must fall back to league averages for unknown codes.
type TeamReferenceProvider interface {
	Team(code string) TeamProfile
	League() LeagueAverages
}

// DefensiveReferenceProvider reports ok=false when no ranking exists, which
// the engine treats as a neutral matchup.
type DefensiveReferenceProvider interface {
	Ranks(team string, pos Position) (DefensiveRanks, bool)
}

// PlayerReferenceProvider supplies roster metadata that changes season to
// season.
type PlayerReferenceProvider interface {
	Position(player string) Position
	IsHighUsage(player string) bool
	UsageBoosts() UsageBoostTable
}

// InjuryProvider returns InjuryUnknown for players without a report.
type InjuryProvider interface {
	Status(player string) InjuryStatus
}

// InjuryView adds the team index the usage boost needs.
type InjuryView interface {
	InjuryProvider
	// Absences lists players on team whose status is out or doubtful.
	Absences(team string) []string
}
