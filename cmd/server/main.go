/*
main.go - Application entry point

PURPOSE:

	Initializes and starts the roster scheduling engine server. Handles
	configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
 1. Read environment configuration
 2. Build the structured logger
 3. Load the engine configuration (JSON file or built-in defaults)
 4. Initialize SQLite store
 5. Create API handler and router
 6. Start the allocation scheduler
 7. Start server with graceful shutdown

ENVIRONMENT:

	ROSTER_PORT            HTTP server port (default: 8080)
	ROSTER_DB_PATH         SQLite database path (default: roster.db,
	                       ":memory:" for in-memory)
	ROSTER_ENGINE_CONFIG   Path to the engine configuration JSON; when unset
	                       the built-in defaults anchor the calendar on the
	                       current year
	ROSTER_DEV_MODE        Log at debug level with console encoding
	ROSTER_SCHEDULER       Run the background allocation scheduler
	                       (default: true)

GRACEFUL SHUTDOWN:

	On SIGINT/SIGTERM:
	1. Stop accepting new connections
	2. Wait for active requests to complete (30s timeout)
	3. Stop the allocation scheduler
	4. Close database connection
	5. Exit

EXAMPLES:

	# Run with file database
	ROSTER_DB_PATH=./data/roster.db ./server

	# Run with a custom engine configuration
	ROSTER_ENGINE_CONFIG=./config/engine.json ./server

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - factory/engine.go: Engine configuration format
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"

	"github.com/meridian/roster-engine/api"
	"github.com/meridian/roster-engine/factory"
	"github.com/meridian/roster-engine/schedule"
	"github.com/meridian/roster-engine/store/sqlite"
)

type config struct {
	Port         int    `envconfig:"PORT" default:"8080"`
	DBPath       string `envconfig:"DB_PATH" default:"roster.db"`
	EngineConfig string `envconfig:"ENGINE_CONFIG"`
	DevMode      bool   `envconfig:"DEV_MODE"`
	Scheduler    bool   `envconfig:"SCHEDULER" default:"true"`
}

func main() {
	var cfg config
	if err := envconfig.Process("roster", &cfg); err != nil {
		log.Fatalf("Failed to read configuration: %v", err)
	}

	logger, err := buildLogger(cfg.DevMode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	engineCfg, err := loadEngineConfig(cfg.EngineConfig)
	if err != nil {
		logger.Fatal("failed to load engine configuration", zap.Error(err))
	}
	engine, err := engineCfg.Build()
	if err != nil {
		logger.Fatal("failed to build engine", zap.Error(err))
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	if cfg.DevMode {
		if err := seedRoster(context.Background(), store); err != nil {
			logger.Warn("dev seeding failed", zap.Error(err))
		}
	}

	handler := api.NewHandler(store, engine, logger)
	router := api.NewRouter(handler)

	scheduler := api.NewAllocationScheduler(handler, logger)
	scheduler.Enabled = cfg.Scheduler
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.Int("port", cfg.Port),
			zap.String("db_path", cfg.DBPath))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func buildLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// loadEngineConfig reads the engine configuration file, falling back to
// defaults that anchor period 1 on the first Monday of the current year.
func loadEngineConfig(path string) (factory.EngineConfig, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return factory.EngineConfig{}, fmt.Errorf("read engine config: %w", err)
		}
		return factory.Parse(data)
	}

	year := time.Now().UTC().Year()
	anchor := schedule.NewDate(year, time.January, 1)
	for anchor.Weekday() != time.Monday {
		anchor = anchor.AddDays(1)
	}

	return factory.EngineConfig{
		Calendar: schedule.CalendarConfig{
			AnchorPeriodNumber: 1,
			AnchorYear:         year,
			AnchorStart:        anchor,
			PeriodLengthDays:   schedule.DefaultPeriodLengthDays,
			PeriodsPerYear:     schedule.DefaultPeriodsPerYear,
			PublishLeadDays:    schedule.DefaultPublishLeadDays,
			DeadlineLeadDays:   schedule.DefaultDeadlineLeadDays,
		},
		MinimumCrewPerRank: schedule.DefaultMinimumCrewPerRank,
		Thresholds:         schedule.DefaultThresholds(),
		Weights:            schedule.DefaultWeights(),
	}, nil
}

// seedRoster populates an empty dev database with a small fleet so the API
// is usable immediately. No-op when crew already exist.
func seedRoster(ctx context.Context, store *sqlite.Store) error {
	roster, err := store.ListCrew(ctx)
	if err != nil {
		return err
	}
	if len(roster) > 0 {
		return nil
	}

	seniority := map[schedule.Rank]int{}
	for i := 1; i <= 24; i++ {
		rank := schedule.RankSenior
		if i%2 == 0 {
			rank = schedule.RankJunior
		}
		seniority[rank]++
		cm := schedule.CrewMember{
			ID:            schedule.CrewMemberID(fmt.Sprintf("%s-%02d", rank, seniority[rank])),
			Rank:          rank,
			SeniorityRank: seniority[rank],
			Active:        true,
		}
		if err := store.PutCrewMember(ctx, cm); err != nil {
			return err
		}
	}
	return nil
}
