package projection

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ProbabilityOver models the stat as normal around projected with the given
// spread and returns P(stat > line), clamped to ProbabilityBounds.
func (p Params) ProbabilityOver(projected, line, stdDev float64) float64 {
	z := (projected - line) / (stdDev + p.Epsilon)
	prob := distuv.UnitNormal.CDF(z)
	if math.IsNaN(prob) {
		prob = 0.5
	}
	return p.ProbabilityBounds.Clamp(prob)
}

// Confidence labels a sample by its coefficient of variation. Samples below
// MinConfidenceGames are always low.
func (p Params) Confidence(sampleSize int, mean, stdDev float64) Confidence {
	if sampleSize < p.MinConfidenceGames {
		return ConfidenceLow
	}
	cv := stdDev / (mean + p.Epsilon)
	switch {
	case cv < 0:
		return ConfidenceLow
	case cv < p.HighConfidenceCV:
		return ConfidenceHigh
	case cv < p.MediumConfidenceCV:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Edge is the distance from a fair line in percentage points, limited to
// ±EdgeLimit.
func (p Params) Edge(probability float64) float64 {
	edge := (probability - 0.5) * 100
	return math.Max(-p.EdgeLimit, math.Min(p.EdgeLimit, edge))
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
