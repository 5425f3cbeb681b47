// Package reference loads the season reference tables consumed by the
// projection engine: team advanced metrics, positional defensive ranks,
// player positions, the high-usage allow-list and usage boosts.
package reference

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jstittsworth/prop-projections/internal/projection"
	"github.com/jstittsworth/prop-projections/pkg/names"
)

//go:embed data/nba_2024_25.yaml
var defaultTables []byte

type tablesFile struct {
	Season      string                                          `yaml:"season"`
	League      projection.LeagueAverages                       `yaml:"league"`
	Aliases     map[string]string                               `yaml:"aliases"`
	Teams       map[string]projection.TeamProfile               `yaml:"teams"`
	Defense     map[string]map[string]projection.DefensiveRanks `yaml:"defense"`
	Positions   map[string][]string                             `yaml:"positions"`
	HighUsage   []string                                        `yaml:"high_usage"`
	UsageBoosts map[string]map[string]map[string]float64        `yaml:"usage_boosts"`
}

// Tables is an immutable, parsed set of reference tables. It implements the
// engine's team, defensive and player reference providers.
type Tables struct {
	Season string

	league    projection.LeagueAverages
	aliases   map[string]string
	teams     map[string]projection.TeamProfile
	defense   map[string]map[projection.Position]projection.DefensiveRanks
	positions map[string]projection.Position
	highUsage map[string]bool
	boosts    projection.UsageBoostTable
}

var (
	_ projection.TeamReferenceProvider      = (*Tables)(nil)
	_ projection.DefensiveReferenceProvider = (*Tables)(nil)
	_ projection.PlayerReferenceProvider    = (*Tables)(nil)
)

// Default returns the tables compiled into the binary.
func Default() (*Tables, error) {
	return Parse(defaultTables)
}

// Open loads tables from path, or the compiled-in defaults when path is empty.
func Open(path string) (*Tables, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference tables: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML table set.
func Parse(data []byte) (*Tables, error) {
	var f tablesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse reference tables: %w", err)
	}

	t := &Tables{
		Season:    f.Season,
		league:    f.League,
		aliases:   make(map[string]string, len(f.Aliases)),
		teams:     make(map[string]projection.TeamProfile, len(f.Teams)),
		defense:   make(map[string]map[projection.Position]projection.DefensiveRanks, len(f.Defense)),
		positions: make(map[string]projection.Position),
		highUsage: make(map[string]bool, len(f.HighUsage)),
		boosts:    make(projection.UsageBoostTable, len(f.UsageBoosts)),
	}
	if t.league == (projection.LeagueAverages{}) {
		t.league = projection.DefaultLeagueAverages()
	}

	for alias, code := range f.Aliases {
		t.aliases[teamKey(alias)] = teamKey(code)
	}
	for code, profile := range f.Teams {
		t.teams[teamKey(code)] = profile
	}

	for code, byPos := range f.Defense {
		rows := make(map[projection.Position]projection.DefensiveRanks, len(byPos))
		for rawPos, ranks := range byPos {
			pos, err := parseSlot(rawPos)
			if err != nil {
				return nil, fmt.Errorf("defense %s: %w", code, err)
			}
			if err := validateRanks(ranks); err != nil {
				return nil, fmt.Errorf("defense %s/%s: %w", code, pos, err)
			}
			rows[pos] = ranks
		}
		t.defense[teamKey(code)] = rows
	}

	for rawPos, players := range f.Positions {
		pos, err := parseSlot(rawPos)
		if err != nil {
			return nil, fmt.Errorf("positions: %w", err)
		}
		for _, p := range players {
			t.positions[names.Normalize(p)] = pos
		}
	}

	for _, p := range f.HighUsage {
		t.highUsage[names.Normalize(p)] = true
	}

	for rawInjured, bySubject := range f.UsageBoosts {
		injured, err := parseSlot(rawInjured)
		if err != nil {
			return nil, fmt.Errorf("usage boosts: %w", err)
		}
		t.boosts[injured] = make(map[projection.Position]map[projection.StatCategory]float64, len(bySubject))
		for rawSubject, byStat := range bySubject {
			subject, err := parseSlot(rawSubject)
			if err != nil {
				return nil, fmt.Errorf("usage boosts %s: %w", injured, err)
			}
			row := make(map[projection.StatCategory]float64, len(byStat))
			for label, boost := range byStat {
				category, err := projection.ParseStatCategory(label)
				if err != nil {
					return nil, fmt.Errorf("usage boosts %s/%s: %q: %w", injured, subject, label, err)
				}
				if category.IsCombined() {
					return nil, fmt.Errorf("usage boosts %s/%s: %q must be a single stat", injured, subject, label)
				}
				if boost < 0 {
					return nil, fmt.Errorf("usage boosts %s/%s: negative boost %v", injured, subject, boost)
				}
				row[category] = boost
			}
			t.boosts[injured][subject] = row
		}
	}

	return t, nil
}

// CanonicalTeam maps feed-specific abbreviations ("PHX", "GS", "NY") onto
// the codes used by the tables.
func (t *Tables) CanonicalTeam(code string) string {
	key := teamKey(code)
	if canonical, ok := t.aliases[key]; ok {
		return canonical
	}
	return key
}

// Team returns the profile for code, or league averages for unknown teams.
func (t *Tables) Team(code string) projection.TeamProfile {
	if profile, ok := t.teams[t.CanonicalTeam(code)]; ok {
		return profile
	}
	return t.league.Profile()
}

func (t *Tables) League() projection.LeagueAverages {
	return t.league
}

func (t *Tables) Ranks(team string, pos projection.Position) (projection.DefensiveRanks, bool) {
	ranks, ok := t.defense[t.CanonicalTeam(team)][pos]
	return ranks, ok
}

// Position looks the player up by normalized name, defaulting to SF.
func (t *Tables) Position(player string) projection.Position {
	if pos, ok := t.positions[names.Normalize(player)]; ok {
		return pos
	}
	return projection.DefaultPosition
}

func (t *Tables) IsHighUsage(player string) bool {
	return t.highUsage[names.Normalize(player)]
}

func (t *Tables) UsageBoosts() projection.UsageBoostTable {
	return t.boosts
}

// Teams lists the canonical team codes, sorted.
func (t *Tables) Teams() []string {
	codes := make([]string, 0, len(t.teams))
	for code := range t.teams {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// PlayerCount is the number of players with a known position.
func (t *Tables) PlayerCount() int {
	return len(t.positions)
}

func teamKey(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func parseSlot(raw string) (projection.Position, error) {
	switch pos := projection.Position(teamKey(raw)); pos {
	case projection.PositionPG, projection.PositionSG, projection.PositionSF, projection.PositionPF, projection.PositionC:
		return pos, nil
	}
	return "", fmt.Errorf("unknown position %q", raw)
}

func validateRanks(r projection.DefensiveRanks) error {
	for _, rank := range []int{r.Points, r.Rebounds, r.Assists, r.Steals, r.Blocks} {
		if rank < 1 || rank > 30 {
			return fmt.Errorf("rank %d outside 1..30", rank)
		}
	}
	return nil
}
