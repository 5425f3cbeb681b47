package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jstittsworth/prop-projections/internal/models"
	"github.com/jstittsworth/prop-projections/internal/projection"
)

var ErrBatchRunning = errors.New("projection batch already running")

// PropSource is the prop persistence the batch needs.
type PropSource interface {
	ListForProjection(ctx context.Context, since time.Time) ([]models.Prop, error)
	SaveProjection(ctx context.Context, propID uuid.UUID, proj projection.Projection, at time.Time) error
}

// InjurySource builds the per-batch injury snapshot.
type InjurySource interface {
	Snapshot(ctx context.Context, canonicalTeam func(string) string) (*projection.InjurySnapshot, error)
}

// RunRecorder persists batch summaries.
type RunRecorder interface {
	Create(ctx context.Context, run *models.ProjectionRun) error
	Finish(ctx context.Context, run *models.ProjectionRun) error
	Latest(ctx context.Context) (*models.ProjectionRun, error)
}

// TeamCanonicalizer maps feed team codes onto reference-table codes.
type TeamCanonicalizer interface {
	CanonicalTeam(code string) string
}

// PropFailure records one prop that could not be projected.
type PropFailure struct {
	PropID   string `json:"prop_id"`
	Player   string `json:"player"`
	StatType string `json:"stat_type"`
	Error    string `json:"error"`
}

// BatchResult summarizes one batch run.
type BatchResult struct {
	RunID     uuid.UUID        `json:"run_id"`
	Status    models.RunStatus `json:"status"`
	Total     int              `json:"total"`
	Projected int              `json:"projected"`
	Neutral   int              `json:"neutral"`
	Skipped   int              `json:"skipped"`
	Failed    int              `json:"failed"`
	Failures  []PropFailure    `json:"failures,omitempty"`
	Duration  time.Duration    `json:"duration"`
}

type outcome int

const (
	outcomeProjected outcome = iota
	outcomeNeutral
	outcomeSkipped
	outcomeFailed
)

// ProjectionService projects every open prop on a bounded worker pool. At
// most one batch runs at a time; a failing prop never stops the batch.
type ProjectionService struct {
	engine   *projection.Engine
	teams    TeamCanonicalizer
	props    PropSource
	injuries InjurySource
	stats    projection.PlayerStatsProvider
	runs     RunRecorder
	workers  int
	lookback time.Duration
	logger   *logrus.Logger
	now      func() time.Time

	mu      sync.Mutex
	running bool
}

func NewProjectionService(
	engine *projection.Engine,
	teams TeamCanonicalizer,
	props PropSource,
	injuries InjurySource,
	stats projection.PlayerStatsProvider,
	runs RunRecorder,
	workers int,
	logger *logrus.Logger,
) *ProjectionService {
	if workers < 1 {
		workers = 1
	}
	return &ProjectionService{
		engine:   engine,
		teams:    teams,
		props:    props,
		injuries: injuries,
		stats:    stats,
		runs:     runs,
		workers:  workers,
		lookback: 6 * time.Hour,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Running reports whether a batch is in progress.
func (s *ProjectionService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// LastRun returns the most recent batch summary.
func (s *ProjectionService) LastRun(ctx context.Context) (*models.ProjectionRun, error) {
	return s.runs.Latest(ctx)
}

func (s *ProjectionService) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *ProjectionService) release() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// RunBatch projects all open props and blocks until the batch finishes.
func (s *ProjectionService) RunBatch(ctx context.Context, trigger string) (*BatchResult, error) {
	if !s.acquire() {
		return nil, ErrBatchRunning
	}
	defer s.release()
	return s.run(ctx, trigger)
}

// Start launches a batch in the background and returns once it is claimed.
// ctx bounds the batch, not the caller's request.
func (s *ProjectionService) Start(ctx context.Context, trigger string) error {
	if !s.acquire() {
		return ErrBatchRunning
	}
	go func() {
		defer s.release()
		if _, err := s.run(ctx, trigger); err != nil {
			s.logger.WithError(err).WithField("trigger", trigger).Error("Projection batch failed")
		}
	}()
	return nil
}

func (s *ProjectionService) run(ctx context.Context, trigger string) (*BatchResult, error) {
	started := s.now()
	run := &models.ProjectionRun{
		ID:        uuid.New(),
		Trigger:   trigger,
		Status:    models.RunRunning,
		StartedAt: started,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record projection run: %w", err)
	}
	log := s.logger.WithFields(logrus.Fields{"run_id": run.ID.String(), "trigger": trigger})
	log.Info("Projection batch started")

	result := &BatchResult{RunID: run.ID, Status: models.RunRunning}
	batchErr := s.project(ctx, log, result)

	switch {
	case batchErr != nil:
		result.Status = models.RunFailed
		run.Error = batchErr.Error()
	case ctx.Err() != nil:
		result.Status = models.RunCancelled
		run.Error = ctx.Err().Error()
	default:
		result.Status = models.RunCompleted
	}
	finished := s.now()
	result.Duration = finished.Sub(started)

	run.Status = result.Status
	run.FinishedAt = &finished
	run.Total = result.Total
	run.Projected = result.Projected
	run.Neutral = result.Neutral
	run.Skipped = result.Skipped
	run.Failed = result.Failed
	if len(result.Failures) > 0 {
		if data, err := json.Marshal(result.Failures); err == nil {
			run.Failures = data
		}
	}
	// The summary is written even when the batch context is gone.
	if err := s.runs.Finish(context.WithoutCancel(ctx), run); err != nil {
		log.WithError(err).Error("Failed to record projection run result")
	}

	log.WithFields(logrus.Fields{
		"status":    result.Status,
		"total":     result.Total,
		"projected": result.Projected,
		"neutral":   result.Neutral,
		"skipped":   result.Skipped,
		"failed":    result.Failed,
		"duration":  result.Duration.String(),
	}).Info("Projection batch finished")

	if batchErr != nil {
		return result, batchErr
	}
	return result, nil
}

func (s *ProjectionService) project(ctx context.Context, log *logrus.Entry, result *BatchResult) error {
	snapshot, err := s.injuries.Snapshot(ctx, s.teams.CanonicalTeam)
	if err != nil {
		return fmt.Errorf("failed to load injury report: %w", err)
	}
	props, err := s.props.ListForProjection(ctx, s.now().Add(-s.lookback))
	if err != nil {
		return fmt.Errorf("failed to load props: %w", err)
	}
	result.Total = len(props)
	log.WithFields(logrus.Fields{"props": len(props), "injuries": snapshot.Len()}).Debug("Projection batch loaded")

	var mu sync.Mutex
	record := func(o outcome, failure *PropFailure) {
		mu.Lock()
		defer mu.Unlock()
		switch o {
		case outcomeProjected:
			result.Projected++
		case outcomeNeutral:
			result.Neutral++
		case outcomeSkipped:
			result.Skipped++
		case outcomeFailed:
			result.Failed++
			result.Failures = append(result.Failures, *failure)
		}
	}

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i := range props {
		if ctx.Err() != nil {
			break
		}
		prop := props[i]
		g.Go(func() error {
			o, err := s.projectProp(ctx, prop, snapshot)
			if err != nil {
				log.WithFields(logrus.Fields{
					"prop_id":   prop.ID.String(),
					"player":    prop.PlayerName,
					"stat_type": prop.StatType,
				}).WithError(err).Warn("Failed to project prop")
				record(outcomeFailed, &PropFailure{
					PropID:   prop.ID.String(),
					Player:   prop.PlayerName,
					StatType: prop.StatType,
					Error:    err.Error(),
				})
				return nil
			}
			record(o, nil)
			return nil
		})
	}
	return g.Wait()
}

func (s *ProjectionService) projectProp(ctx context.Context, prop models.Prop, injuries projection.InjuryView) (outcome, error) {
	if err := ctx.Err(); err != nil {
		return outcomeFailed, err
	}
	team := s.teams.CanonicalTeam(prop.Team)
	if team == "" {
		return outcomeSkipped, nil
	}

	category, err := projection.ParseStatCategory(prop.StatType)
	if err != nil {
		category = projection.StatUnknown
	}

	line := projection.PropLine{
		PlayerName: prop.PlayerName,
		Category:   category,
		Line:       prop.Line,
		Team:       team,
		Opponent:   s.opponent(prop, team),
	}

	var history []projection.StatRecord
	if category != projection.StatUnknown {
		history, err = s.stats.RecentStats(ctx, prop.PlayerName, s.engine.Params().MaxGames)
		if err != nil {
			return outcomeFailed, fmt.Errorf("failed to load game logs: %w", err)
		}
	}

	proj, err := s.engine.Project(line, history, injuries)
	if err != nil {
		return outcomeFailed, err
	}
	if err := s.props.SaveProjection(ctx, prop.ID, proj, s.now()); err != nil {
		return outcomeFailed, err
	}
	if proj.Adjustments.Neutral {
		return outcomeNeutral, nil
	}
	return outcomeProjected, nil
}

func (s *ProjectionService) opponent(prop models.Prop, team string) string {
	if prop.Game == nil {
		return ""
	}
	game := models.Game{
		HomeTeam: s.teams.CanonicalTeam(prop.Game.HomeTeam),
		AwayTeam: s.teams.CanonicalTeam(prop.Game.AwayTeam),
	}
	return game.Opponent(team)
}
