package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lurelab/internal/api"
	"lurelab/internal/api/handlers"
	"lurelab/internal/callback"
	"lurelab/internal/config"
	"lurelab/internal/domain/services/detect"
	"lurelab/internal/domain/services/extract"
	"lurelab/internal/domain/services/patterns"
	"lurelab/internal/domain/services/profile"
	"lurelab/internal/engine"
	"lurelab/internal/infrastructure/cache"
	"lurelab/internal/persona"
	"lurelab/internal/session"
	"lurelab/internal/streaming"
	"lurelab/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var log *logger.Logger
	if cfg.App.Environment == "production" {
		log = logger.NewProduction()
	} else {
		log = logger.NewDevelopment()
	}
	logger.SetGlobal(log)

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting LureLab")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis is optional; without it rate limiting and stats caching are off
	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache, err = cache.NewRedis(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without cache")
		} else {
			defer redisCache.Close()
		}
	}

	// Initialize streaming infrastructure
	var natsPublisher *streaming.NATSPublisher
	if cfg.NATS.Enabled {
		natsPublisher, err = streaming.NewNATSPublisher(ctx, cfg.NATS, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to NATS, continuing without event streaming")
		} else {
			log.Info().Str("url", cfg.NATS.URL).Msg("connected to NATS")
		}
	}
	eventBus := streaming.NewEventBus(natsPublisher, log)
	defer eventBus.Close()

	// Initialize the analysis services
	library := patterns.NewLibrary()
	extractor := extract.NewExtractor(library, log)
	detector := detect.NewDetector(detect.Config{
		ScamFloor:     cfg.Engine.ScamConfidenceFloor,
		HighThreshold: cfg.Engine.HighConfidenceThreshold,
	}, log)
	profiler := profile.NewBuilder(log)
	decider := engine.NewDecider(cfg.Engine, log)
	responder := persona.NewTemplateResponder(cfg.Persona, log, time.Now().UnixNano())

	// Session store with eviction events
	store := session.NewStore(cfg.Session, log)
	store.OnEvict(func(sessionID string) {
		_ = eventBus.Publish(context.Background(), streaming.NewEvictionEvent(sessionID))
	})
	go store.Sweep(ctx)

	// Callback dispatcher
	dispatcher := callback.NewDispatcher(cfg.Callback, log)
	go dispatcher.Run(ctx)

	eng := engine.New(store, extractor, detector, profiler, decider, responder, dispatcher, eventBus, log)
	log.Info().
		Float64("confidence_floor", cfg.Engine.ScamConfidenceFloor).
		Int("min_engagement_turns", cfg.Engine.MinEngagementTurns).
		Int("hard_ceiling_turns", cfg.Engine.HardCeilingTurns).
		Msg("engine initialized")

	// Initialize handlers
	h := handlers.NewHandlers(handlers.Dependencies{
		Config:     *cfg,
		Engine:     eng,
		Store:      store,
		Dispatcher: dispatcher,
		Events:     eventBus,
		Cache:      redisCache,
		Logger:     log,
	})

	// Create router
	router := api.NewRouter(*cfg, h, redisCache, log)
	httpHandler := router.Setup()

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	// Cancel context to stop background services
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("shutdown complete")
}
