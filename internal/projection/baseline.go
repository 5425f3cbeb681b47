package projection

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
)

var ErrInsufficientData = errors.New("insufficient stat history")

// Sample is the recency-weighted view of a player's recent games for one
// category.
type Sample struct {
	// Values are the per-game category values, most recent first.
	Values  []float64
	Weights []float64
	Mean    float64
}

func (s Sample) Len() int {
	return len(s.Values)
}

// RecencyWeights returns n normalized weights for a most-recent-first
// sequence: exp(lerp(-1, 0, t)) with t = 1 for the newest game and t = 0 for
// the oldest, so the newest game outweighs the oldest by a factor of e.
func RecencyWeights(n int) []float64 {
	if n <= 0 {
		return nil
	}
	weights := make([]float64, n)
	if n == 1 {
		weights[0] = 1
		return weights
	}

	var sum float64
	for i := range weights {
		t := float64(n-1-i) / float64(n-1)
		weights[i] = math.Exp(-1 + t)
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

// WeightedBaseline filters out games the player did not play, keeps the
// maxGames most recent, and returns their recency-weighted mean. Combined
// categories are summed per game before weighting.
func WeightedBaseline(history []StatRecord, category StatCategory, maxGames int) (Sample, error) {
	values := make([]float64, 0, min(len(history), maxGames))
	for _, rec := range history {
		if len(values) == maxGames {
			break
		}
		if !rec.Played() {
			continue
		}
		values = append(values, category.Value(rec))
	}
	if len(values) == 0 {
		return Sample{}, ErrInsufficientData
	}

	weights := RecencyWeights(len(values))
	return Sample{
		Values:  values,
		Weights: weights,
		Mean:    stat.Mean(values, weights),
	}, nil
}

// StdDev is the population standard deviation of the unweighted values.
// Samples with fewer than two games get a synthetic spread of
// thinFraction * Mean.
func (s Sample) StdDev(thinFraction float64) float64 {
	if s.Len() < 2 {
		return s.Mean * thinFraction
	}
	return stat.PopStdDev(s.Values, nil)
}
