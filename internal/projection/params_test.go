package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParams_Validate(t *testing.T) {
	assert.NoError(t, DefaultParams().Validate())

	tests := []struct {
		name   string
		mutate func(p *Params)
	}{
		{"zero max games", func(p *Params) { p.MaxGames = 0 }},
		{"zero exponent", func(p *Params) { p.DefenseExponent = 0 }},
		{"blend above one", func(p *Params) { p.DefenseBlend = 1.2 }},
		{"inverted defense bounds", func(p *Params) { p.DefenseBounds = Bounds{Min: 1.2, Max: 0.8} }},
		{"zero rebound floor", func(p *Params) { p.ReboundBounds.Min = 0 }},
		{"probability ceiling of one", func(p *Params) { p.ProbabilityBounds.Max = 1 }},
		{"negative usage cap", func(p *Params) { p.UsageBoostCap = -0.1 }},
		{"out probability above the floor", func(p *Params) { p.OutProbability = 0.5 }},
		{"out probability just above the floor", func(p *Params) { p.OutProbability = 0.051 }},
		{"probability floor too high for out", func(p *Params) { p.ProbabilityBounds.Min = 0.1; p.OutProbability = 0.1 }},
		{"zero epsilon", func(p *Params) { p.Epsilon = 0 }},
		{"confidence thresholds inverted", func(p *Params) { p.HighConfidenceCV = 0.6 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestParams_ProbabilityOver(t *testing.T) {
	p := DefaultParams()

	assert.InDelta(t, 0.5, p.ProbabilityOver(20, 20, 4), 1e-9)
	assert.Greater(t, p.ProbabilityOver(22, 20, 4), 0.5)
	assert.Less(t, p.ProbabilityOver(18, 20, 4), 0.5)
	assert.Equal(t, 0.95, p.ProbabilityOver(40, 20, 0))
	assert.Equal(t, 0.05, p.ProbabilityOver(0, 20, 0))
}

func TestParams_Confidence(t *testing.T) {
	p := DefaultParams()

	assert.Equal(t, ConfidenceLow, p.Confidence(9, 20, 1), "below the game floor")
	assert.Equal(t, ConfidenceHigh, p.Confidence(15, 20, 4))
	assert.Equal(t, ConfidenceMedium, p.Confidence(15, 20, 8))
	assert.Equal(t, ConfidenceLow, p.Confidence(15, 20, 12))
}

func TestParams_Edge(t *testing.T) {
	p := DefaultParams()

	assert.InDelta(t, 10.0, p.Edge(0.6), 1e-9)
	assert.InDelta(t, -20.0, p.Edge(0.3), 1e-9)
	assert.Equal(t, 30.0, p.Edge(0.95))
	assert.Equal(t, -30.0, p.Edge(0.01))
}
