// competition/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	competitionapi "github.com/Tokioace/N64-Nexus-sub006/competition/api"
	"github.com/Tokioace/N64-Nexus-sub006/competition/service"
	"github.com/Tokioace/N64-Nexus-sub006/competition/store"
	"github.com/Tokioace/N64-Nexus-sub006/competition/stream"
	"github.com/Tokioace/N64-Nexus-sub006/shared/api"
	"github.com/Tokioace/N64-Nexus-sub006/shared/config"
	"github.com/Tokioace/N64-Nexus-sub006/shared/metrics"
	mongodbu "github.com/Tokioace/N64-Nexus-sub006/shared/mongodb"
	"github.com/Tokioace/N64-Nexus-sub006/shared/notify"
	redisu "github.com/Tokioace/N64-Nexus-sub006/shared/redis"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Competition service exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	// --- 1. Load Configuration ---
	cfg, err := config.LoadCompetitionServiceConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// --- 2. Logger ---
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// --- 3. Metrics ---
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- 4. Notification Bus ---
	var redisClient redis.UniversalClient
	var bus notify.Bus
	switch cfg.NotifyBackend {
	case config.NotifyBackendRedis:
		redisClient, err = redisu.NewRedisClient(ctx, cfg.RedisAddrs, cfg.RedisPassword)
		if err != nil {
			return err
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("Error closing Redis client", slog.Any("error", err))
			}
		}()
		bus, err = notify.NewRedisBus(ctx, redisClient, cfg.NotifySubscriberBuffer, logger, m)
		if err != nil {
			return err
		}
	case config.NotifyBackendNATS:
		bus, err = notify.NewNATSBus(cfg.NATSURL, cfg.NotifySubscriberBuffer, logger, m)
		if err != nil {
			return err
		}
	default:
		bus = notify.NewMemoryBus(cfg.NotifySubscriberBuffer, logger, m)
	}
	// Deferred after the Redis close so the bus stops first.
	defer func() {
		if err := bus.Close(); err != nil {
			logger.Warn("Error closing notification bus", slog.Any("error", err))
		}
	}()
	logger.Info("Notification bus ready", slog.String("backend", cfg.NotifyBackend))

	// --- 5. Profile Store ---
	var profiles store.ProfileStore
	switch cfg.ProfileBackend {
	case config.ProfileBackendMongo:
		mongoClient, err := mongodbu.NewClient(ctx, cfg.MongoDBConnStr, cfg.MongoDBDatabase, logger)
		if err != nil {
			return err
		}
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mongoClient.Disconnect(disconnectCtx); err != nil {
				logger.Warn("Failed to disconnect from MongoDB", slog.Any("error", err))
			}
		}()
		profiles = store.NewMongoProfileStore(mongoClient.Collection(cfg.MongoDBProfilesCollection))
	default:
		profiles = store.NewMemoryProfileStore()
	}

	// --- 6. Business Logic Services ---
	teams := store.NewTeamStore()
	events := store.NewEventStore()
	opts := service.Options{Bus: bus, Logger: logger, Observer: m}

	teamService := service.NewTeamService(teams, cfg.DefaultTeamMaxMembers, opts)
	eventService := service.NewEventService(events, teams, cfg.DefaultEventMaxTeams, opts)
	submissionService := service.NewSubmissionService(teams, events, opts)
	statsService := service.NewStatsService(profiles, opts)

	// --- 7. HTTP Server and Routes ---
	baseServer := api.NewBaseServer(cfg.ListenAddr, logger, m)
	handlers := competitionapi.NewCompetitionAPIHandlers(teamService, eventService, submissionService, statsService, logger, cfg.RequestTimeout)
	handlers.RegisterRoutes(baseServer.Router)
	baseServer.Router.Handle("/ws", stream.NewHandler(bus, logger, m))
	if cfg.MetricsEnabled {
		baseServer.Router.Handle("/metrics", m.Handler())
	}

	// --- 8. Start HTTP Server ---
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- baseServer.Start()
	}()

	// --- 9. Graceful Shutdown ---
	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := baseServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server graceful shutdown failed: %w", err)
	}
	logger.Info("Server gracefully stopped")
	return nil
}
