package projection

import (
	"fmt"
	"math"
)

// Bounds is an inclusive clamp range.
type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (b Bounds) Clamp(v float64) float64 {
	return math.Max(b.Min, math.Min(b.Max, v))
}

func (b Bounds) valid() bool {
	return b.Min <= b.Max && b.Min > 0
}

// Params holds the calibration constants of the model. The model was tuned
// iteratively, so every constant is configurable rather than fixed.
type Params struct {
	MaxGames int

	// Positional defense curve: base + percentile^exponent * spread.
	DefenseBase     float64
	DefenseSpread   float64
	DefenseExponent float64
	DefenseBounds   Bounds

	// Weight of the positional factor when blended with efficiency.
	DefenseBlend float64

	EfficiencyBounds Bounds
	ReboundBounds    Bounds
	AssistBounds     Bounds

	// Additive cap on the summed usage boosts.
	UsageBoostCap float64

	InjuryModifiers map[InjuryStatus]float64

	// Probability reported for a player ruled out. It is still clamped to
	// ProbabilityBounds.
	OutProbability float64

	ProbabilityBounds Bounds
	EdgeLimit         float64

	// Denominator guard for z-scores and coefficient of variation.
	Epsilon float64

	// Synthetic std-dev, as a fraction of the weighted mean, for samples
	// smaller than two games.
	ThinSampleStdDev float64

	MinConfidenceGames int
	HighConfidenceCV   float64
	MediumConfidenceCV float64
}

// DefaultParams returns the most recent tuning of the model.
func DefaultParams() Params {
	return Params{
		MaxGames:        15,
		DefenseBase:     0.88,
		DefenseSpread:   0.24,
		DefenseExponent: 1.35,
		DefenseBounds:   Bounds{Min: 0.88, Max: 1.12},
		DefenseBlend:    0.65,

		EfficiencyBounds: Bounds{Min: 0.93, Max: 1.07},
		ReboundBounds:    Bounds{Min: 0.92, Max: 1.08},
		AssistBounds:     Bounds{Min: 0.90, Max: 1.10},

		UsageBoostCap: 0.25,

		InjuryModifiers: map[InjuryStatus]float64{
			InjuryOut:          0,
			InjuryDoubtful:     0.70,
			InjuryQuestionable: 0.85,
			InjuryDayToDay:     0.95,
			InjuryActive:       1.0,
			InjuryUnknown:      1.0,
		},
		OutProbability: 0.05,

		ProbabilityBounds: Bounds{Min: 0.05, Max: 0.95},
		EdgeLimit:         30,
		Epsilon:           0.01,
		ThinSampleStdDev:  0.25,

		MinConfidenceGames: 10,
		HighConfidenceCV:   0.3,
		MediumConfidenceCV: 0.5,
	}
}

// A ruled-out player's probability is clamped up to ProbabilityBounds.Min, so
// both are held at or below this.
const maxOutProbability = 0.06

// Validate rejects parameter sets that could produce out-of-range output.
func (p Params) Validate() error {
	if p.MaxGames <= 0 {
		return fmt.Errorf("max games must be positive, got %d", p.MaxGames)
	}
	if p.DefenseExponent <= 0 {
		return fmt.Errorf("defense exponent must be positive, got %v", p.DefenseExponent)
	}
	if p.DefenseBlend < 0 || p.DefenseBlend > 1 {
		return fmt.Errorf("defense blend must be within [0,1], got %v", p.DefenseBlend)
	}
	for name, b := range map[string]Bounds{
		"defense":     p.DefenseBounds,
		"efficiency":  p.EfficiencyBounds,
		"rebound":     p.ReboundBounds,
		"assist":      p.AssistBounds,
		"probability": p.ProbabilityBounds,
	} {
		if !b.valid() {
			return fmt.Errorf("%s bounds invalid: [%v, %v]", name, b.Min, b.Max)
		}
	}
	if p.ProbabilityBounds.Max >= 1 {
		return fmt.Errorf("probability upper bound must be below 1, got %v", p.ProbabilityBounds.Max)
	}
	if p.UsageBoostCap < 0 {
		return fmt.Errorf("usage boost cap must not be negative, got %v", p.UsageBoostCap)
	}
	if p.ProbabilityBounds.Min > maxOutProbability {
		return fmt.Errorf("probability lower bound must not exceed %v, got %v", maxOutProbability, p.ProbabilityBounds.Min)
	}
	if p.OutProbability < 0 || p.OutProbability > p.ProbabilityBounds.Min {
		return fmt.Errorf("out probability must be within [0, %v], got %v", p.ProbabilityBounds.Min, p.OutProbability)
	}
	if p.Epsilon <= 0 {
		return fmt.Errorf("epsilon must be positive, got %v", p.Epsilon)
	}
	if p.HighConfidenceCV > p.MediumConfidenceCV {
		return fmt.Errorf("high confidence CV %v exceeds medium %v", p.HighConfidenceCV, p.MediumConfidenceCV)
	}
	return nil
}

func (p Params) injuryModifier(s InjuryStatus) float64 {
	if m, ok := p.InjuryModifiers[s]; ok {
		return m
	}
	return 1.0
}
