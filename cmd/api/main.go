package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/carelane/clinic-scheduling/internal/adapters/cache"
	"github.com/carelane/clinic-scheduling/internal/adapters/database"
	"github.com/carelane/clinic-scheduling/internal/adapters/events"
	"github.com/carelane/clinic-scheduling/internal/adapters/providers/directory"
	"github.com/carelane/clinic-scheduling/internal/api/handlers"
	"github.com/carelane/clinic-scheduling/internal/api/routes"
	"github.com/carelane/clinic-scheduling/internal/application/services"
	"github.com/carelane/clinic-scheduling/internal/domain/providers"
	"github.com/carelane/clinic-scheduling/internal/infrastructure/clients/postgres"
	"github.com/carelane/clinic-scheduling/internal/infrastructure/clients/redis"
	"github.com/carelane/clinic-scheduling/internal/infrastructure/observability"
	"github.com/carelane/clinic-scheduling/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// OpenTelemetry is optional; the engine runs fine without an exporter
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	log.Info().Msg("PostgreSQL client initialized")

	// Redis is optional: without it the directory goes uncached and no
	// lifecycle events are published
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize Redis client, continuing without it")
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Info().Msg("Redis client initialized")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Info().Msg("event bus initialized")
	} else {
		log.Info().Msg("event bus disabled (Redis not available)")
	}

	scheduleAdapter := database.NewScheduleAdapter(pgClient)
	appointmentAdapter := database.NewAppointmentAdapter(pgClient)

	var directoryProvider providers.DirectoryProvider
	switch cfg.Directory.Mode {
	case "http":
		directoryProvider = directory.NewHTTPProvider(cfg.Directory.BaseURL)
		if cacheProvider != nil {
			ttl := time.Duration(cfg.Directory.CacheTTLSeconds) * time.Second
			directoryProvider = directory.NewCachedProvider(directoryProvider, cacheProvider, ttl)
			log.Info().Dur("ttl", ttl).Msg("directory provider wrapped with cache")
		}
	default:
		directoryProvider = directory.NewMockDirectoryProvider()
		log.Warn().Msg("using mock directory provider")
	}

	scheduleService := services.NewScheduleService(scheduleAdapter)
	availabilityService := services.NewAvailabilityService(scheduleAdapter, appointmentAdapter, directoryProvider)
	bookingService := services.NewBookingService(appointmentAdapter, scheduleAdapter, directoryProvider, eventBus, metrics)
	lifecycleService := services.NewLifecycleService(appointmentAdapter, eventBus)

	scheduleHandler := handlers.NewScheduleHandler(scheduleService)
	availabilityHandler := handlers.NewAvailabilityHandler(availabilityService)
	appointmentHandler := handlers.NewAppointmentHandler(bookingService, lifecycleService)
	eventsHandler := handlers.NewEventsHandler(eventBus)

	router := routes.NewRouter(
		scheduleHandler,
		availabilityHandler,
		appointmentHandler,
		eventsHandler,
		cfg.Server.AllowedOrigins,
		metrics,
	)
	handler := router.SetupRoutes()

	server := &http.Server{
		Addr:         cfg.Server.ServerAddr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("error closing event bus")
		}
	}

	log.Info().Msg("server stopped")
}
