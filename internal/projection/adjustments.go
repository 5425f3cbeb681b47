package projection

import "math"

const (
	minRank = 1
	maxRank = 30
)

// PositionalDefense converts an opponent's rank against the player's
// position into a multiplier. Rank 1 (hardest) maps to DefenseBase and rank
// 30 to DefenseBase+DefenseSpread along a convex curve, so elite defenses are
// separated less than porous ones.
func (p Params) PositionalDefense(rank int) float64 {
	if rank < minRank {
		rank = minRank
	}
	if rank > maxRank {
		rank = maxRank
	}
	percentile := float64(rank-minRank) / float64(maxRank-minRank)
	adj := p.DefenseBase + math.Pow(percentile, p.DefenseExponent)*p.DefenseSpread
	return p.DefenseBounds.Clamp(adj)
}

// Efficiency scales scoring stats by the opponent's defensive rating
// relative to league average. Higher ratings concede more.
func (p Params) Efficiency(opp TeamProfile, league LeagueAverages) float64 {
	defRtg := orDefault(opp.DefRating, league.DefRating)
	return p.EfficiencyBounds.Clamp(defRtg / league.DefRating)
}

// Pace is the average of both teams' pace over league pace.
func (p Params) Pace(team, opp TeamProfile, league LeagueAverages) float64 {
	avg := (orDefault(team.Pace, league.Pace) + orDefault(opp.Pace, league.Pace)) / 2
	return avg / league.Pace
}

// Rebound rewards opponents that concede defensive boards and that force
// misses (low defensive rating means more missed shots to rebound).
func (p Params) Rebound(opp TeamProfile, league LeagueAverages) float64 {
	drebRatio := league.DefReboundPct / orDefault(opp.DefReboundPct, league.DefReboundPct)
	missRatio := league.DefRating / orDefault(opp.DefRating, league.DefRating)
	return p.ReboundBounds.Clamp(drebRatio * missRatio)
}

// Assist scales by the player's team assist rate and the opponent's pace.
func (p Params) Assist(team, opp TeamProfile, league LeagueAverages) float64 {
	astRatio := orDefault(team.AssistPct, league.AssistPct) / league.AssistPct
	paceRatio := orDefault(opp.Pace, league.Pace) / league.Pace
	return p.AssistBounds.Clamp(astRatio * paceRatio)
}

// BlendDefense combines the positional and efficiency factors. Both measure
// opponent defense, so they are averaged rather than multiplied.
func (p Params) BlendDefense(positional, efficiency float64) float64 {
	return p.DefenseBlend*positional + (1-p.DefenseBlend)*efficiency
}

// orDefault substitutes fallback for values that cannot be used as a ratio.
func orDefault(v, fallback float64) float64 {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// adjustmentChain evaluates every contextual factor for prop.
func (e *Engine) adjustmentChain(prop PropLine) Adjustments {
	league := e.league()
	team := e.teamProfile(prop.Team)
	opp := e.teamProfile(prop.Opponent)

	adj := Adjustments{
		Positional: 1.0,
		Efficiency: 1.0,
		Rebound:    1.0,
		Assist:     1.0,
	}

	if e.defense != nil {
		if ranks, ok := e.defense.Ranks(prop.Opponent, prop.Position); ok {
			if rank := ranks.Rank(prop.Category.Bucket()); rank > 0 {
				adj.Positional = e.params.PositionalDefense(rank)
			}
		}
	}

	// Efficiency stays neutral outside scoring, but the blend always applies.
	if prop.Category.IsScoring() {
		adj.Efficiency = e.params.Efficiency(opp, league)
	}
	adj.Defense = e.params.BlendDefense(adj.Positional, adj.Efficiency)

	adj.Pace = e.params.Pace(team, opp, league)

	if prop.Category.HasRebounds() {
		adj.Rebound = e.params.Rebound(opp, league)
	}
	if prop.Category.HasAssists() {
		adj.Assist = e.params.Assist(team, opp, league)
	}
	return adj
}

func (a Adjustments) contextMultiplier() float64 {
	return a.Defense * a.Pace * a.Rebound * a.Assist
}
