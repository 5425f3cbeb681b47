package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/prop-projections/internal/api"
	"github.com/jstittsworth/prop-projections/internal/api/handlers"
	"github.com/jstittsworth/prop-projections/internal/api/middleware"
	"github.com/jstittsworth/prop-projections/internal/projection"
	"github.com/jstittsworth/prop-projections/internal/providers"
	"github.com/jstittsworth/prop-projections/internal/reference"
	"github.com/jstittsworth/prop-projections/internal/services"
	"github.com/jstittsworth/prop-projections/internal/store"
	"github.com/jstittsworth/prop-projections/pkg/config"
	"github.com/jstittsworth/prop-projections/pkg/database"
	"github.com/jstittsworth/prop-projections/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Setup logging
	log := logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// The odds mirror is optional
	var mirror *database.DB
	if cfg.OddsHistorySQLitePath != "" {
		mirror, err = database.NewSQLiteConnection(cfg.OddsHistorySQLitePath, false)
		if err != nil {
			log.WithError(err).Warn("Odds history mirror disabled")
			mirror = nil
		} else {
			defer mirror.Close()
		}
	}

	// Connect to Redis
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("Redis unavailable, game logs will be read from the database")
	}
	defer redisClient.Close()

	// Projection engine
	params, err := cfg.ProjectionParams()
	if err != nil {
		log.Fatalf("Invalid projection calibration: %v", err)
	}
	tables, err := reference.Open(cfg.ReferenceDataPath)
	if err != nil {
		log.Fatalf("Failed to load reference tables: %v", err)
	}
	engine, err := projection.NewEngine(params, tables, tables, tables)
	if err != nil {
		log.Fatalf("Failed to build projection engine: %v", err)
	}
	logger.WithService("projection").WithFields(logrus.Fields{
		"teams":    len(tables.Teams()),
		"players":  tables.PlayerCount(),
		"maxGames": params.MaxGames,
	}).Info("Projection engine ready")

	// Stores
	games := store.NewGameStore(db)
	props := store.NewPropStore(db)
	stats := store.NewPlayerStatsStore(db)
	injuries := store.NewInjuryStore(db)
	runs := store.NewRunStore(db)
	oddsHistory := store.NewOddsHistoryStore(db, mirror, log)
	if err := oddsHistory.Migrate(); err != nil {
		log.WithError(err).Warn("Failed to prepare odds history mirror")
	}

	// Initialize data providers
	breakers := services.NewCircuitBreakerService(cfg.CircuitBreakerThreshold, cfg.CircuitBreakerTimeout, log)
	ballDontLie := providers.NewBallDontLieClient(cfg.BallDontLieAPIKey, "", cfg.ExternalAPITimeout, breakers, log)
	espn := providers.NewESPNClient("", cfg.ExternalAPITimeout, breakers, log)
	prizePicks := providers.NewPrizePicksClient("", cfg.PrizePicksLeagueID, cfg.ExternalAPITimeout, breakers, log)
	oddsAPI := providers.NewOddsAPIClient(cfg.OddsAPIKey, "", cfg.ExternalAPITimeout, breakers, log)

	// Initialize services
	cacheService := services.NewCacheService(redisClient)
	cachedStats := services.NewCachedStatsProvider(stats, cacheService, 6*time.Hour, log)
	projections := services.NewProjectionService(engine, tables, props, injuries, cachedStats, runs, cfg.ProjectionWorkers, log)

	gameSync := services.NewGameSyncService(games, log, ballDontLie, espn)
	propSync := services.NewPropSyncService(prizePicks, games, props, tables, store.NewPgNotifier(db), log)
	injurySync := services.NewInjurySyncService(espn, injuries, log)
	statsSync := services.NewStatsSyncService(props, ballDontLie, stats, cachedStats, params.MaxGames, log)
	oddsTracker := services.NewOddsTrackerService(oddsAPI, oddsHistory, props, log)

	if cfg.EnableBackgroundJobs {
		fetchInterval, err := services.ParseFetchInterval(cfg.DataFetchInterval)
		if err != nil {
			log.WithError(err).Warn("Invalid fetch interval, using default 2h")
			fetchInterval = 2 * time.Hour
		}

		// Games first so the prop sync can resolve single-team boards.
		steps := []services.IngestStep{
			{Name: "games", Run: gameSync.Sync},
			{Name: "props", Run: propSync.Sync},
			{Name: "injuries", Run: injurySync.Sync},
			{Name: "stats", Run: statsSync.Sync},
			{Name: "odds", Run: oddsTracker.Track},
		}
		dataFetcher := services.NewDataFetcherService(steps, projections, props, oddsTracker, services.FetcherConfig{
			FetchInterval:      fetchInterval,
			ProjectionSchedule: cfg.ProjectionSchedule,
			OddsRetention:      time.Duration(cfg.OddsRetentionDays) * 24 * time.Hour,
			InitialRun:         !cfg.SkipInitialRun,
		}, log)
		if err := dataFetcher.Start(ctx); err != nil {
			log.Errorf("Failed to start data fetcher: %v", err)
		}
		defer dataFetcher.Stop()
	}

	if cfg.EnablePropListener {
		listener, err := services.NewPropListener(cfg.DatabaseURL, projections, log)
		if err != nil {
			log.WithError(err).Error("Failed to start prop listener")
		} else {
			go listener.Run(ctx)
		}
	}

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))

	health := handlers.NewHealthHandler("prop-projections", map[string]handlers.Check{
		"database": db.HealthCheck,
		"redis":    cacheService.Ping,
	})
	api.SetupRoutes(router, health,
		handlers.NewProjectionHandler(ctx, projections, breakers, log),
		handlers.NewPropHandler(props, log),
	)

	// Setup server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Running batches and jobs see cancellation first.
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
