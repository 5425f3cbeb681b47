package providers

// TwoWay is an over/under price pair in American odds.
type TwoWay struct {
	Over  int
	Under int
}

// ImpliedProbability converts an American price to the bookmaker's implied
// probability, vig included. Zero is not a valid price and returns 0.
func ImpliedProbability(american int) float64 {
	switch {
	case american > 0:
		return 100 / float64(american+100)
	case american < 0:
		return float64(-american) / float64(-american+100)
	}
	return 0
}

// NoVigOver strips the overround from a two-way market and returns the fair
// probability of the over. ok is false when either side is missing.
func NoVigOver(p TwoWay) (float64, bool) {
	over := ImpliedProbability(p.Over)
	under := ImpliedProbability(p.Under)
	if over == 0 || under == 0 {
		return 0, false
	}
	return over / (over + under), true
}

// ConsensusOver averages the no-vig over probability across books. books is
// the number of markets that contributed.
func ConsensusOver(prices []TwoWay) (prob float64, books int) {
	var sum float64
	for _, p := range prices {
		if fair, ok := NoVigOver(p); ok {
			sum += fair
			books++
		}
	}
	if books == 0 {
		return 0, 0
	}
	return sum / float64(books), books
}
