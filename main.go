package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nyuchitech/harare-metro-sub001/internal/actor"
	"github.com/nyuchitech/harare-metro-sub001/internal/api"
	"github.com/nyuchitech/harare-metro-sub001/internal/config"
	"github.com/nyuchitech/harare-metro-sub001/internal/engage/analytics"
	"github.com/nyuchitech/harare-metro-sub001/internal/engage/behavior"
	"github.com/nyuchitech/harare-metro-sub001/internal/engage/counters"
	"github.com/nyuchitech/harare-metro-sub001/internal/engage/interactions"
	"github.com/nyuchitech/harare-metro-sub001/internal/handler"
	"github.com/nyuchitech/harare-metro-sub001/internal/logger"
	"github.com/nyuchitech/harare-metro-sub001/internal/middleware"
	"github.com/nyuchitech/harare-metro-sub001/internal/profiling"
	"github.com/nyuchitech/harare-metro-sub001/internal/store"
	"github.com/nyuchitech/harare-metro-sub001/internal/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	// Initialize logger
	log, err := createLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	// Start profiling (if enabled)
	profiling.StartPprofServer(log)
	profiler, err := profiling.StartPyroscope(cfg.Service.Name, cfg.Service.Version, log)
	if err != nil {
		log.Error("Failed to start continuous profiling", logger.Error(err))
		return 1
	}
	defer func() { _ = profiler.Stop() }()

	// Open the state store
	st, err := openStore(cfg, log)
	if err != nil {
		log.Error("Failed to open state store", logger.Error(err))
		return 1
	}
	defer func() { _ = st.Close() }()

	return runServer(cfg, log, st)
}

// loadConfig loads and validates configuration.
func loadConfig() (*config.Config, error) {
	configPath := config.GetConfigPath("config.yml")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if validationErr := cfg.Validate(); validationErr != nil {
		return nil, fmt.Errorf("validate config: %w", validationErr)
	}
	return cfg, nil
}

// createLogger creates a logger instance from configuration.
func createLogger(cfg *config.Config) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(logger.String("service", cfg.Service.Name)), nil
}

// openStore opens the configured state store backend and verifies it.
func openStore(cfg *config.Config, log logger.Logger) (store.StateStore, error) {
	switch cfg.Store.Backend {
	case config.BackendRedis:
		st, err := store.NewRedisStore(store.RedisConfig{
			Address:  cfg.Store.Redis.Address,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		log.Info("State store connected",
			logger.String("backend", cfg.Store.Backend),
			logger.String("address", cfg.Store.Redis.Address),
		)
		return st, nil

	case config.BackendBadger:
		st, err := store.NewBadgerStore(store.BadgerConfig{
			Path:     cfg.Store.Badger.Path,
			InMemory: cfg.Store.Badger.InMemory,
		})
		if err != nil {
			return nil, fmt.Errorf("open badger store: %w", err)
		}
		log.Info("State store opened",
			logger.String("backend", cfg.Store.Backend),
			logger.String("path", cfg.Store.Badger.Path),
			logger.Bool("in_memory", cfg.Store.Badger.InMemory),
		)
		return st, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// runServer creates all dependencies and starts the HTTP server.
func runServer(cfg *config.Config, log logger.Logger, st store.StateStore) int {
	host := actor.NewHost(st)
	metrics := telemetry.NewProvider()

	interactionsActor := interactions.New(host, log)
	countersActor := counters.New(host, log, counters.Config{
		HourlyWindow:  cfg.Retention.HourlyWindow,
		DailyWindow:   cfg.Retention.DailyWindow,
		ActiveUserTTL: cfg.Retention.ActiveUserTTL,
	})
	behaviorActor := behavior.New(host, log)
	analyticsActor := analytics.New(host, log, analytics.Config{
		EventTTL:    cfg.Retention.EventTTL,
		SeenUserTTL: cfg.Retention.SeenUserTTL,
	})

	handlers := api.Handlers{
		Interactions: handler.NewInteractionHandler(interactionsActor, log, metrics),
		Counters:     handler.NewCounterHandler(countersActor, log, metrics),
		Behavior:     handler.NewBehaviorHandler(behaviorActor, log, metrics),
		Analytics:    handler.NewAnalyticsHandler(analyticsActor, log, metrics),
	}

	// done channel signals background goroutines (rate limiter) on shutdown
	done := make(chan struct{})
	defer close(done)

	opts := api.RouteOptions{
		JWTSecret: cfg.Auth.JWTSecret,
		Telemetry: metrics,
	}
	if cfg.RateLimit.Enabled {
		window := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
		opts.RateLimit = &api.RateLimitOptions{
			Store:       middleware.NewMemoryLimiterStore(window, done),
			MaxRequests: cfg.RateLimit.MaxRequestsPerMinute,
			Window:      window,
		}
	}

	server := api.NewServer(&api.Config{
		Port:           cfg.Service.Port,
		Debug:          cfg.Service.Debug,
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
	}, log, func(router *gin.Engine) {
		api.RegisterHealthRoutes(router, cfg.Service.Name, cfg.Service.Version, map[string]api.HealthChecker{
			"store": api.StoreHealthChecker(func() error { return st.Ping(context.Background()) }),
		})
		api.SetupRoutes(router, handlers, opts)
	})

	log.Info("Engagement service starting",
		logger.Int("port", cfg.Service.Port),
		logger.String("store_backend", cfg.Store.Backend),
	)

	if err := server.Run(); err != nil {
		log.Error("Server error", logger.Error(err))
		return 1
	}

	log.Info("Engagement service exited cleanly")
	return 0
}
