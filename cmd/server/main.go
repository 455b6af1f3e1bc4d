package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"carrent/internal/app"
	"carrent/internal/client"
	"carrent/internal/config"
	"carrent/internal/handler"
	"carrent/internal/maps"
	"carrent/internal/metrics"
	"carrent/internal/middleware"
	internalRedis "carrent/internal/redis"
	"carrent/internal/repository/postgres"
	"carrent/internal/service"
	"carrent/web"
	"carrent/internal/wizard"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", zap.Error(err))
		} else {
			logger.Info("New Relic enabled", zap.String("app", cfg.NewRelic.AppName))
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("connected to Redis")

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// Wire dependencies.
	server, err := wireServer(runCtx, db, redisClient, nrApp, cfg, logger)
	if err != nil {
		logger.Fatal("failed to wire server", zap.Error(err))
	}

	// Start server in goroutine.
	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")
	stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	logger.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(
	ctx context.Context,
	db *sql.DB,
	redisClient *redis.Client,
	nrApp *newrelic.Application,
	cfg *config.Config,
	logger *zap.Logger,
) (*http.Server, error) {
	// Metrics.
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	bookingMetrics := metrics.NewBookingMetrics(registry)

	// Initialize Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	carRepo := postgres.NewCarRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	depositRepo := postgres.NewDepositRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	// Initialize services.
	loc := cfg.Location()
	notificationService := service.NewNotificationService(notificationRepo, logger)
	carService := service.NewCarService(carRepo, bookingRepo, cacheStore, cacheStore, logger)
	bookingService := service.NewBookingService(db, carRepo, bookingRepo, lockStore, cacheStore, notificationService, logger).
		WithClock(time.Now, loc)
	psp := service.NewMockPSP()
	depositService := service.NewDepositService(db, bookingRepo, depositRepo, psp, notificationService, logger)
	receiptService := service.NewReceiptService(cfg.Shop.Name, cfg.Shop.Address)

	// Maps.
	loader := app.NewMapLoader(cfg.Maps, logger, bookingMetrics.LoaderTransition)
	app.StartMapLoader(ctx, loader, logger)

	tileSource := maps.NewTileSource(cfg.Maps.PrimaryTiles, cfg.Maps.AlternateTiles, cfg.Maps.TileFailureThreshold)
	tileSource.OnSwitch(bookingMetrics.TileSwitched)

	geocoder := app.NewGeocoder(cfg.Maps, cacheStore, logger)

	// Wizard sessions talk to the local services unless a backend is configured.
	var fetcher wizard.AvailabilityFetcher = carService
	var submitter wizard.Submitter = bookingService
	if cfg.Wizard.BackendURL != "" {
		backend := client.NewClient(client.WithBaseURL(cfg.Wizard.BackendURL))
		fetcher, submitter = backend, backend
		logger.Info("wizard uses remote booking backend", zap.String("url", cfg.Wizard.BackendURL))
	}

	sessions := wizard.NewSessions(app.NewWizardFactory(app.WizardDeps{
		Config:    cfg,
		Catalog:   carService,
		Fetcher:   fetcher,
		Submitter: submitter,
		Loader:    loader,
		Geocoder:  geocoder,
		Observer:  bookingMetrics,
	}), cfg.Wizard.SessionTTL)
	go sessions.Run(ctx, time.Minute)

	templates, err := web.Templates()
	if err != nil {
		return nil, err
	}

	// Initialize handlers.
	carHandler := handler.NewCarHandler(carService)
	bookingHandler := handler.NewBookingHandler(bookingService, depositService, receiptService, notificationService)
	depositHandler := handler.NewDepositHandler(depositService)
	wizardHandler := handler.NewWizardHandler(sessions, cfg.Wizard.SessionTTL, cfg.IsProduction(), logger)
	tileHandler := handler.NewTileHandler(tileSource, cacheStore, nil, cfg.Maps.UserAgent, bookingMetrics, logger)
	geocodeHandler := handler.NewGeocodeHandler(geocoder, logger)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		CarHandler:     carHandler,
		BookingHandler: bookingHandler,
		DepositHandler: depositHandler,
		WizardHandler:  wizardHandler,
		TileHandler:    tileHandler,
		GeocodeHandler: geocodeHandler,
		Templates:      templates,
		DB:             db,
		RedisClient:    redisClient,
		MapLoader:      loader,
		Metrics:        bookingMetrics,
		Gatherer:       registry,
		NewRelicApp:    nrApp,
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimiter:    middleware.NewRateLimiter(cfg.Server.MaxRequestsPerMin),
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, nil
}
