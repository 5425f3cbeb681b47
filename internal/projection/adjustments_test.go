package projection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositionalDefense_Curve(t *testing.T) {
	p := DefaultParams()

	assert.InDelta(t, 0.88, p.PositionalDefense(1), 1e-9)
	assert.InDelta(t, 1.12, p.PositionalDefense(30), 1e-9)

	prev := 0.0
	for rank := -3; rank <= 35; rank++ {
		adj := p.PositionalDefense(rank)
		assert.GreaterOrEqual(t, adj, p.DefenseBounds.Min, "rank %d", rank)
		assert.LessOrEqual(t, adj, p.DefenseBounds.Max, "rank %d", rank)
		assert.GreaterOrEqual(t, adj, prev, "rank %d must not be tougher than rank %d", rank, rank-1)
		prev = adj
	}

	// Convex: the midpoint sits below the linear interpolation.
	assert.Less(t, p.PositionalDefense(15), 1.0)
}

func TestContextAdjustments_StayInBounds(t *testing.T) {
	p := DefaultParams()
	league := DefaultLeagueAverages()

	extremes := []float64{0, -10, 1, 30, 63, 100, 113, 400, math.NaN(), math.Inf(1)}
	for _, v := range extremes {
		opp := TeamProfile{Pace: v, DefRating: v, DefReboundPct: v, AssistPct: v}
		team := TeamProfile{Pace: v, AssistPct: v}

		eff := p.Efficiency(opp, league)
		reb := p.Rebound(opp, league)
		ast := p.Assist(team, opp, league)
		pace := p.Pace(team, opp, league)

		assert.True(t, eff >= p.EfficiencyBounds.Min && eff <= p.EfficiencyBounds.Max, "efficiency %v for input %v", eff, v)
		assert.True(t, reb >= p.ReboundBounds.Min && reb <= p.ReboundBounds.Max, "rebound %v for input %v", reb, v)
		assert.True(t, ast >= p.AssistBounds.Min && ast <= p.AssistBounds.Max, "assist %v for input %v", ast, v)
		assert.False(t, math.IsNaN(pace) || math.IsInf(pace, 0) || pace <= 0, "pace %v for input %v", pace, v)
	}
}

func TestContextAdjustments_LeagueAverageIsNeutral(t *testing.T) {
	p := DefaultParams()
	league := DefaultLeagueAverages()
	avg := league.Profile()

	assert.InDelta(t, 1.0, p.Efficiency(avg, league), 1e-9)
	assert.InDelta(t, 1.0, p.Pace(avg, avg, league), 1e-9)
	assert.InDelta(t, 1.0, p.Rebound(avg, league), 1e-9)
	assert.InDelta(t, 1.0, p.Assist(avg, avg, league), 1e-9)
}

func TestBlendDefense(t *testing.T) {
	p := DefaultParams()
	assert.InDelta(t, 0.65*0.88+0.35*1.05, p.BlendDefense(0.88, 1.05), 1e-9)
}

func TestAdjustmentChain_CategoryGating(t *testing.T) {
	ref := newFakeReference()
	ref.teams["MEM"] = TeamProfile{Pace: 104, DefRating: 118, DefReboundPct: 66, AssistPct: 60}
	ref.teams["BOS"] = TeamProfile{Pace: 98, AssistPct: 68}
	ref.setRank("MEM", PositionC, 28)
	engine := newTestEngine(t, ref)

	prop := PropLine{PlayerName: "Test Center", Team: "BOS", Opponent: "MEM", Position: PositionC}

	prop.Category = StatBlocks
	blocks := engine.adjustmentChain(prop)
	assert.Equal(t, 1.0, blocks.Efficiency, "efficiency only applies to scoring")
	assert.InDelta(t, 0.65*blocks.Positional+0.35, blocks.Defense, 1e-9)
	assert.Equal(t, 1.0, blocks.Rebound)
	assert.Equal(t, 1.0, blocks.Assist)

	prop.Category = StatPoints
	points := engine.adjustmentChain(prop)
	assert.Greater(t, points.Efficiency, 1.0)
	assert.InDelta(t, engine.params.BlendDefense(points.Positional, points.Efficiency), points.Defense, 1e-9)

	prop.Category = StatRebsAsts
	combo := engine.adjustmentChain(prop)
	assert.NotEqual(t, 1.0, combo.Rebound)
	assert.NotEqual(t, 1.0, combo.Assist)
	assert.InDelta(t, 1.01, combo.Pace, 1e-9)
}

func TestAdjustmentChain_MissingDefenseDataIsNeutral(t *testing.T) {
	engine := newTestEngine(t, newFakeReference())

	adj := engine.adjustmentChain(PropLine{PlayerName: "Nobody", Category: StatSteals, Team: "XXX", Opponent: "YYY", Position: PositionPG})
	assert.Equal(t, 1.0, adj.Positional)
	assert.InDelta(t, 1.0, adj.Defense, 1e-9)
	assert.InDelta(t, 1.0, adj.contextMultiplier(), 1e-9)
}
