package projection

import (
	"time"
)

type fakeReference struct {
	teams     map[string]TeamProfile
	ranks     map[string]map[Position]DefensiveRanks
	positions map[string]Position
	highUsage map[string]bool
	boosts    UsageBoostTable
}

func newFakeReference() *fakeReference {
	return &fakeReference{
		teams:     map[string]TeamProfile{},
		ranks:     map[string]map[Position]DefensiveRanks{},
		positions: map[string]Position{},
		highUsage: map[string]bool{},
		boosts:    UsageBoostTable{},
	}
}

func (f *fakeReference) Team(code string) TeamProfile {
	if t, ok := f.teams[code]; ok {
		return t
	}
	return DefaultLeagueAverages().Profile()
}

func (f *fakeReference) League() LeagueAverages {
	return DefaultLeagueAverages()
}

func (f *fakeReference) Ranks(team string, pos Position) (DefensiveRanks, bool) {
	r, ok := f.ranks[team][pos]
	return r, ok
}

func (f *fakeReference) Position(player string) Position {
	if p, ok := f.positions[player]; ok {
		return p
	}
	return DefaultPosition
}

func (f *fakeReference) IsHighUsage(player string) bool {
	return f.highUsage[player]
}

func (f *fakeReference) UsageBoosts() UsageBoostTable {
	return f.boosts
}

func (f *fakeReference) setRank(team string, pos Position, rank int) {
	if f.ranks[team] == nil {
		f.ranks[team] = map[Position]DefensiveRanks{}
	}
	f.ranks[team][pos] = DefensiveRanks{Points: rank, Rebounds: rank, Assists: rank, Steals: rank, Blocks: rank}
}

func newTestEngine(t interface{ Fatalf(string, ...interface{}) }, ref *fakeReference) *Engine {
	engine, err := NewEngine(DefaultParams(), ref, ref, ref)
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}
	return engine
}

// pointsHistory builds most-recent-first records with the given points.
func pointsHistory(points ...float64) []StatRecord {
	start := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	records := make([]StatRecord, len(points))
	for i, p := range points {
		records[i] = StatRecord{
			GameDate: start.AddDate(0, 0, -2*i),
			Minutes:  34,
			Points:   p,
		}
	}
	return records
}
