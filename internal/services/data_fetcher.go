package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// SyncFunc runs one ingestion pass.
type SyncFunc func(ctx context.Context) (SyncResult, error)

// IngestStep is a named ingestion pass. Steps run in order; a failing step
// is logged and the next one still runs.
type IngestStep struct {
	Name string
	Run  SyncFunc
}

type BatchStarter interface {
	Start(ctx context.Context, trigger string) error
}

type StalePropCleaner interface {
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type OddsCleaner interface {
	Cleanup(ctx context.Context, retention time.Duration) (int64, error)
}

// FetcherConfig holds the job schedule.
type FetcherConfig struct {
	FetchInterval      time.Duration
	ProjectionSchedule string
	OddsRetention      time.Duration
	InitialRun         bool
}

// DataFetcherService handles scheduled ingestion, projection batches and
// cleanup.
type DataFetcherService struct {
	steps       []IngestStep
	projections BatchStarter
	props       StalePropCleaner
	odds        OddsCleaner
	config      FetcherConfig
	logger      *logrus.Logger
	cron        *cron.Cron
	now         func() time.Time

	mu        sync.Mutex
	isRunning bool
	ingesting sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewDataFetcherService creates a new data fetcher service
func NewDataFetcherService(
	steps []IngestStep,
	projections BatchStarter,
	props StalePropCleaner,
	odds OddsCleaner,
	config FetcherConfig,
	logger *logrus.Logger,
) *DataFetcherService {
	return &DataFetcherService{
		steps:       steps,
		projections: projections,
		props:       props,
		odds:        odds,
		config:      config,
		logger:      logger,
		cron:        cron.New(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ParseFetchInterval reads DATA_FETCH_INTERVAL.
func ParseFetchInterval(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid fetch interval %q: %w", raw, err)
	}
	if d < time.Minute {
		return 0, fmt.Errorf("fetch interval %s is shorter than a minute", d)
	}
	return d, nil
}

// Start begins the scheduled jobs
func (s *DataFetcherService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("data fetcher is already running")
	}

	// Schedule regular ingestion
	schedule := fmt.Sprintf("@every %s", s.config.FetchInterval.String())
	if _, err := s.cron.AddFunc(schedule, s.fetchAll); err != nil {
		return fmt.Errorf("failed to schedule data fetcher: %w", err)
	}

	if s.config.ProjectionSchedule != "" {
		if _, err := s.cron.AddFunc(s.config.ProjectionSchedule, s.startBatch); err != nil {
			return fmt.Errorf("failed to schedule projection batch: %w", err)
		}
	}

	// Schedule daily cleanup
	if _, err := s.cron.AddFunc("0 3 * * *", s.cleanup); err != nil { // 3 AM daily
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()
	s.isRunning = true

	if s.config.InitialRun {
		go s.fetchAll()
	}

	s.logger.WithFields(logrus.Fields{
		"interval":   s.config.FetchInterval.String(),
		"projection": s.config.ProjectionSchedule,
	}).Info("Data fetcher service started")
	return nil
}

// Stop halts the scheduled jobs and waits for running ones to return.
func (s *DataFetcherService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.logger.Info("Data fetcher service stopped")
}

func (s *DataFetcherService) jobContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

func (s *DataFetcherService) fetchAll() {
	ctx := s.jobContext()
	if err := s.RunIngestion(ctx); err != nil {
		s.logger.WithError(err).Warn("Scheduled ingestion skipped")
		return
	}
	s.startBatch()
}

func (s *DataFetcherService) startBatch() {
	if s.projections == nil {
		return
	}
	err := s.projections.Start(s.jobContext(), "schedule")
	if errors.Is(err, ErrBatchRunning) {
		s.logger.Debug("Projection batch already running, skipping scheduled run")
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to start projection batch")
	}
}

// RunIngestion runs every ingestion step once. Overlapping calls return an
// error instead of queueing.
func (s *DataFetcherService) RunIngestion(ctx context.Context) error {
	if !s.ingesting.TryLock() {
		return errors.New("ingestion already running")
	}
	defer s.ingesting.Unlock()

	started := s.now()
	s.logger.Info("Starting scheduled data fetch")
	for _, step := range s.steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		log := s.logger.WithField("step", step.Name)
		result, err := step.Run(ctx)
		if err != nil {
			log.WithError(err).Error("Ingestion step failed")
			continue
		}
		log.WithFields(logrus.Fields{
			"fetched": result.Fetched,
			"stored":  result.Stored,
			"skipped": result.Skipped,
			"failed":  result.Failed,
		}).Debug("Ingestion step completed")
	}
	s.logger.WithField("duration", s.now().Sub(started).String()).Info("Completed scheduled data fetch")
	return nil
}

func (s *DataFetcherService) cleanup() {
	s.RunCleanup(s.jobContext())
}

// RunCleanup drops props for games that started over a day ago and odds
// quotes past retention.
func (s *DataFetcherService) RunCleanup(ctx context.Context) {
	if s.props != nil {
		removed, err := s.props.DeleteStale(ctx, s.now().Add(-24*time.Hour))
		if err != nil {
			s.logger.WithError(err).Error("Failed to clean up stale props")
		} else {
			s.logger.WithField("removed", removed).Info("Stale props cleaned up")
		}
	}
	if s.odds != nil && s.config.OddsRetention > 0 {
		if _, err := s.odds.Cleanup(ctx, s.config.OddsRetention); err != nil {
			s.logger.WithError(err).Error("Failed to purge odds history")
		}
	}
}
