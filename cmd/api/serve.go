package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zatekoja/servicehub/internal/adapters/cache"
	"github.com/zatekoja/servicehub/internal/adapters/database"
	"github.com/zatekoja/servicehub/internal/adapters/events"
	"github.com/zatekoja/servicehub/internal/adapters/search"
	"github.com/zatekoja/servicehub/internal/api/handlers"
	"github.com/zatekoja/servicehub/internal/api/middleware"
	"github.com/zatekoja/servicehub/internal/api/routes"
	"github.com/zatekoja/servicehub/internal/application/services"
	"github.com/zatekoja/servicehub/internal/auth"
	"github.com/zatekoja/servicehub/internal/domain/providers"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	"github.com/zatekoja/servicehub/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/servicehub/internal/infrastructure/clients/redis"
	"github.com/zatekoja/servicehub/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/servicehub/internal/infrastructure/migrations"
	"github.com/zatekoja/servicehub/internal/infrastructure/notifications"
	"github.com/zatekoja/servicehub/internal/infrastructure/observability"
	"github.com/zatekoja/servicehub/internal/infrastructure/storage"
	"github.com/zatekoja/servicehub/internal/loaders"
	"github.com/zatekoja/servicehub/pkg/config"
)

// cacheStore is what both cache backends provide
type cacheStore interface {
	providers.CacheProvider
	providers.RateCounter
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized successfully")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		return fmt.Errorf("initialize metrics: %w", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	migrator, err := migrations.NewMigrator(pgClient.DB())
	if err != nil {
		return err
	}
	if err := migrator.Up(ctx); err != nil {
		return err
	}

	// Redis backs the cache, the login limiter and the event bus. Without it
	// a single instance runs on in-process equivalents.
	var (
		cacheProvider cacheStore
		eventBus      providers.EventBus
	)
	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, using in-process cache and event bus")
		cacheProvider = cache.NewMemoryAdapter()
		eventBus = events.NewLocalEventBus()
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
	}

	var searchRepo repositories.ServiceSearchRepository
	typesenseClient, err := typesense.NewClient(ctx, &cfg.Typesense)
	if err != nil {
		log.Warn().Err(err).Msg("Typesense unavailable, search falls back to the database")
	} else {
		if err := typesenseClient.InitSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to init Typesense schema")
		}
		searchRepo = search.NewTypesenseAdapter(typesenseClient)
	}

	var uploader providers.ImageUploader
	if cfg.Cloudinary.Enabled() {
		cloudinary, err := storage.NewCloudinaryUploader(cfg.Cloudinary)
		if err != nil {
			log.Warn().Err(err).Msg("Image uploads disabled")
		} else {
			uploader = cloudinary
		}
	} else {
		log.Warn().Msg("CLOUDINARY_* not set; image uploads disabled")
	}

	var sender providers.EmailSender
	if cfg.Mail.Enabled() {
		smtp, err := notifications.NewSMTPEmailSender(cfg.Mail)
		if err != nil {
			log.Warn().Err(err).Msg("Email notifications disabled")
		} else {
			sender = smtp
		}
	} else {
		log.Warn().Msg("SMTP_USER/SMTP_PASSWORD not set; email notifications disabled")
	}

	tokens, err := auth.NewTokenService(cfg.Auth)
	if err != nil {
		return err
	}

	userRepo := database.NewUserAdapter(pgClient)
	providerRepo := database.NewProviderAdapter(pgClient)
	serviceRepo := database.NewServiceAdapter(pgClient)
	bookingRepo := database.NewBookingAdapter(pgClient)
	reviewRepo := database.NewReviewAdapter(pgClient)

	loaderFactory := loaders.NewFactory(userRepo, providerRepo, serviceRepo)

	notifier := services.NewNotificationService(sender, metrics)
	accountService := services.NewAccountService(userRepo, providerRepo, tokens, uploader, cacheProvider)
	catalogService := services.NewCatalogService(services.CatalogDependencies{
		Services:  serviceRepo,
		Providers: providerRepo,
		Search:    searchRepo,
		Cache:     cacheProvider,
		Uploader:  uploader,
		Events:    eventBus,
		Loaders:   loaderFactory,
		Metrics:   metrics,
	})
	bookingService := services.NewBookingService(services.BookingDependencies{
		Bookings:  bookingRepo,
		Services:  serviceRepo,
		Users:     userRepo,
		Providers: providerRepo,
		Loaders:   loaderFactory,
		Notifier:  notifier,
		Events:    eventBus,
		Metrics:   metrics,
	})
	reviewService := services.NewReviewService(services.ReviewDependencies{
		Reviews:   reviewRepo,
		Bookings:  bookingRepo,
		Loaders:   loaderFactory,
		Reindexer: catalogService,
		Events:    eventBus,
		Metrics:   metrics,
	})
	profileService := services.NewProfileService(userRepo, providerRepo, eventBus)

	cacheInvalidationService := services.NewCacheInvalidationService(cacheProvider, eventBus)
	if err := cacheInvalidationService.Start(); err != nil {
		log.Warn().Err(err).Msg("Failed to start cache invalidation service")
	}

	eventStream := handlers.NewEventStreamHandler(eventBus)
	if err := observability.RegisterStreamClientGauge(eventStream.GetClientCount); err != nil {
		log.Warn().Err(err).Msg("Failed to register stream client gauge")
	}

	router := routes.NewRouter(
		routes.Handlers{
			Auth:        handlers.NewAuthHandler(accountService, cfg.Auth, cfg.Server.TrustedProxy),
			Services:    handlers.NewServiceHandler(catalogService),
			Bookings:    handlers.NewBookingHandler(bookingService),
			Reviews:     handlers.NewReviewHandler(reviewService),
			Profiles:    handlers.NewProfileHandler(profileService),
			Upload:      handlers.NewUploadHandler(uploader),
			Dashboard:   handlers.NewDashboardHandler(),
			EventStream: eventStream,
		},
		middleware.NewAccessGate(tokens, cfg.Auth.CookieName),
		middleware.NewCacheMiddleware(cacheProvider, metrics, nil),
		loaderFactory,
		cfg.Server.AllowedOrigins,
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// No WriteTimeout: provider event streams stay open.
		IdleTimeout: 60 * time.Second,
	}
	server.RegisterOnShutdown(eventStream.Close)

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", serverAddr).Str("version", Version).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Server shutting down")
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	// Let queued confirmation emails finish before the process exits.
	notifier.Wait()

	cacheInvalidationService.Stop()
	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing event bus")
	}

	log.Info().Msg("Server stopped")
	return nil
}
