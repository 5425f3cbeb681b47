package projection

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidLine = errors.New("invalid prop line")

// Engine computes projections. It holds only read-only reference data, so a
// single Engine may be shared by any number of goroutines.
type Engine struct {
	params  Params
	teams   TeamReferenceProvider
	defense DefensiveReferenceProvider
	players PlayerReferenceProvider
	leagues LeagueAverages
}

// NewEngine validates params and binds the reference providers. Nil
// providers are allowed: teams fall back to league averages, missing defense
// data is neutral and no usage boosts are applied.
func NewEngine(params Params, teams TeamReferenceProvider, defense DefensiveReferenceProvider, players PlayerReferenceProvider) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid projection params: %w", err)
	}

	leagues := DefaultLeagueAverages()
	if teams != nil {
		got := teams.League()
		leagues = LeagueAverages{
			Pace:          orDefault(got.Pace, leagues.Pace),
			OffReboundPct: orDefault(got.OffReboundPct, leagues.OffReboundPct),
			DefReboundPct: orDefault(got.DefReboundPct, leagues.DefReboundPct),
			AssistPct:     orDefault(got.AssistPct, leagues.AssistPct),
			TurnoverPct:   orDefault(got.TurnoverPct, leagues.TurnoverPct),
			DefRating:     orDefault(got.DefRating, leagues.DefRating),
		}
	}

	return &Engine{
		params:  params,
		teams:   teams,
		defense: defense,
		players: players,
		leagues: leagues,
	}, nil
}

func (e *Engine) Params() Params {
	return e.params
}

// Project computes the projection for prop from the player's recent games,
// most recent first. injuries may be nil.
//
// Missing history and unknown categories are not errors: both yield the
// neutral projection (the line itself, probability 0.5, low confidence). A
// player ruled out yields a zero projection. Only malformed calls return an
// error.
func (e *Engine) Project(prop PropLine, history []StatRecord, injuries InjuryView) (Projection, error) {
	if !prop.Category.Valid() {
		return Projection{}, fmt.Errorf("%w: %d", ErrInvalidStatCategory, int(prop.Category))
	}
	if math.IsNaN(prop.Line) || math.IsInf(prop.Line, 0) || prop.Line < 0 {
		return Projection{}, fmt.Errorf("%w: %v", ErrInvalidLine, prop.Line)
	}
	if prop.Position == "" {
		prop.Position = e.position(prop.PlayerName)
	}

	status, injuryMod := e.injuryModifier(prop, injuries)
	if status == InjuryOut || injuryMod == 0 {
		return e.outProjection(), nil
	}
	if prop.Category == StatUnknown {
		return e.Neutral(prop.Line), nil
	}

	sample, err := WeightedBaseline(history, prop.Category, e.params.MaxGames)
	if err != nil {
		return e.Neutral(prop.Line), nil
	}

	adj := e.adjustmentChain(prop)
	adj.Baseline = sample.Mean
	adj.Injury = injuryMod
	adj.Usage = e.usageMultiplier(prop, injuries)
	adj.SampleSize = sample.Len()
	adj.StdDev = sample.StdDev(e.params.ThinSampleStdDev)

	projected := sample.Mean * adj.Injury * adj.Usage * adj.contextMultiplier()
	prob := roundTo(e.params.ProbabilityOver(projected, prop.Line, adj.StdDev), 4)

	return Projection{
		Value:           roundTo(projected, 1),
		ProbabilityOver: prob,
		Confidence:      e.params.Confidence(sample.Len(), sample.Mean, adj.StdDev),
		Edge:            roundTo(e.params.Edge(prob), 2),
		Adjustments:     adj,
	}, nil
}

// Neutral is the projection used when there is nothing to model.
func (e *Engine) Neutral(line float64) Projection {
	return Projection{
		Value:           line,
		ProbabilityOver: 0.5,
		Confidence:      ConfidenceLow,
		Edge:            0,
		Adjustments: Adjustments{
			Injury:     1,
			Usage:      1,
			Positional: 1,
			Efficiency: 1,
			Defense:    1,
			Pace:       1,
			Rebound:    1,
			Assist:     1,
			Neutral:    true,
		},
	}
}

func (e *Engine) outProjection() Projection {
	prob := e.params.ProbabilityBounds.Clamp(e.params.OutProbability)
	return Projection{
		Value:           0,
		ProbabilityOver: prob,
		Confidence:      ConfidenceLow,
		Edge:            e.params.Edge(prob),
		Adjustments:     Adjustments{Injury: 0},
	}
}

func (e *Engine) position(player string) Position {
	if e.players == nil {
		return DefaultPosition
	}
	return e.players.Position(player)
}

func (e *Engine) league() LeagueAverages {
	return e.leagues
}

func (e *Engine) teamProfile(code string) TeamProfile {
	if e.teams == nil {
		return e.leagues.Profile()
	}
	return e.teams.Team(code)
}
