package projection

import (
	"math"
	"sort"
	"strings"

	"github.com/jstittsworth/prop-projections/pkg/names"
)

// InjuryReport is one player's entry in an injury feed.
type InjuryReport struct {
	Player string
	Team   string
	Status InjuryStatus
}

// InjurySnapshot is an immutable view of the injury report for one batch
// run. It is safe for concurrent readers.
type InjurySnapshot struct {
	statuses map[string]InjuryStatus
	absences map[string][]string
}

// NewInjurySnapshot indexes reports by player and, for out or doubtful
// players, by team. Later reports for the same player win.
func NewInjurySnapshot(reports []InjuryReport) *InjurySnapshot {
	snap := &InjurySnapshot{
		statuses: make(map[string]InjuryStatus, len(reports)),
		absences: make(map[string][]string),
	}
	teams := make(map[string]string, len(reports))
	display := make(map[string]string, len(reports))

	for _, r := range reports {
		key := names.Normalize(r.Player)
		if key == "" {
			continue
		}
		snap.statuses[key] = r.Status
		teams[key] = teamKey(r.Team)
		display[key] = r.Player
	}
	for key, status := range snap.statuses {
		if !status.Absent() || teams[key] == "" {
			continue
		}
		snap.absences[teams[key]] = append(snap.absences[teams[key]], display[key])
	}
	for _, players := range snap.absences {
		sort.Strings(players)
	}
	return snap
}

func (s *InjurySnapshot) Status(player string) InjuryStatus {
	if s == nil {
		return InjuryUnknown
	}
	if status, ok := s.statuses[names.Normalize(player)]; ok {
		return status
	}
	return InjuryUnknown
}

func (s *InjurySnapshot) Absences(team string) []string {
	if s == nil {
		return nil
	}
	return s.absences[teamKey(team)]
}

// Len is the number of players with a report.
func (s *InjurySnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.statuses)
}

func teamKey(team string) string {
	return strings.ToUpper(strings.TrimSpace(team))
}

// UsageBoostTable maps injured position -> subject position -> single-stat
// category -> additive boost.
type UsageBoostTable map[Position]map[Position]map[StatCategory]float64

// Boost returns the boost a subject at subjectPos receives in category when a
// high-usage teammate at injuredPos is absent. Combined categories average
// their components' boosts.
func (t UsageBoostTable) Boost(injuredPos, subjectPos Position, category StatCategory) float64 {
	bySubject, ok := t[injuredPos][subjectPos]
	if !ok {
		return 0
	}
	comps := category.Components()
	if len(comps) == 0 {
		return 0
	}
	var total float64
	for _, c := range comps {
		total += bySubject[c]
	}
	return total / float64(len(comps))
}

// injuryModifier returns the player's own-status multiplier.
func (e *Engine) injuryModifier(prop PropLine, injuries InjuryView) (InjuryStatus, float64) {
	if injuries == nil {
		return InjuryUnknown, 1.0
	}
	status := injuries.Status(prop.PlayerName)
	return status, e.params.injuryModifier(status)
}

// usageMultiplier sums boosts from absent high-usage teammates and caps the
// total at Params.UsageBoostCap.
func (e *Engine) usageMultiplier(prop PropLine, injuries InjuryView) float64 {
	if injuries == nil || e.players == nil {
		return 1.0
	}
	table := e.players.UsageBoosts()
	subject := names.Normalize(prop.PlayerName)

	var total float64
	for _, teammate := range injuries.Absences(prop.Team) {
		if names.Normalize(teammate) == subject {
			continue
		}
		if !e.players.IsHighUsage(teammate) {
			continue
		}
		total += table.Boost(e.players.Position(teammate), prop.Position, prop.Category)
	}
	return 1.0 + math.Max(0, math.Min(total, e.params.UsageBoostCap))
}
