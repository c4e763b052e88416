package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/delivery"
	httpapi "github.com/aussiebroadwan/otpgate/internal/otp/http"
	"github.com/aussiebroadwan/otpgate/internal/otp/service"
	"github.com/aussiebroadwan/otpgate/internal/otp/store"
	"github.com/aussiebroadwan/otpgate/internal/otp/store/drivers/sqlite"
	"github.com/aussiebroadwan/otpgate/pkg/cryptox"
	"github.com/aussiebroadwan/otpgate/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the otpgate service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db store.Store

	// Services
	challengeService    *service.ChallengeService
	principalService    *service.PrincipalService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "otpgate",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if cfg.AssertionSecret == "" {
		return nil, fmt.Errorf("OTPGATE_ASSERTION_SECRET is required")
	}

	// Set master key path for TOTP secret encryption at rest
	if cfg.MasterKeyPath != "" {
		cryptox.SetMasterKeyPath(cfg.MasterKeyPath)
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("otpgate service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"strategy", app.cfg.Strategy,
		"delivery", app.cfg.Delivery,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down otpgate service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("otpgate service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	strategy, err := app.buildStrategy()
	if err != nil {
		return err
	}

	gateway, err := app.buildGateway()
	if err != nil {
		return err
	}

	app.challengeService = &service.ChallengeService{
		Store:    app.db,
		Strategy: strategy,
		Gateway:  gateway,
		Assertions: &service.AssertionSigner{
			Secret: []byte(app.cfg.AssertionSecret),
			Issuer: app.cfg.Issuer,
			TTL:    app.cfg.AssertionTTL,
		},
		SessionTTL: app.cfg.ChallengeTTL,
	}
	app.principalService = &service.PrincipalService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)

	return nil
}

func (app *Application) buildStrategy() (service.Strategy, error) {
	switch app.cfg.Strategy {
	case "random":
		return &service.RandomStrategy{
			Store: app.db,
			TTL:   app.cfg.CodeTTL,
		}, nil
	case "totp":
		backSteps := app.cfg.TOTPBackSteps
		if backSteps < 0 {
			backSteps = service.DefaultTOTPBackSteps
		}
		return &service.TOTPStrategy{
			Store:     app.db,
			Issuer:    app.cfg.Issuer,
			Period:    app.cfg.TOTPPeriod,
			BackSteps: uint(backSteps),
		}, nil
	default:
		return nil, fmt.Errorf("unknown code strategy %q", app.cfg.Strategy)
	}
}

func (app *Application) buildGateway() (delivery.Gateway, error) {
	switch app.cfg.Delivery {
	case "telegram":
		if app.cfg.TelegramToken == "" {
			return nil, fmt.Errorf("OTPGATE_TELEGRAM_TOKEN is required for telegram delivery")
		}
		return delivery.NewTelegramGateway(app.cfg.TelegramToken, "", app.cfg.DeliveryTimeout), nil
	case "relay":
		if app.cfg.RelayURL == "" {
			return nil, fmt.Errorf("OTPGATE_RELAY_URL is required for relay delivery")
		}
		return delivery.NewRelayGateway(app.cfg.RelayURL, app.cfg.DeliveryTimeout), nil
	default:
		return nil, fmt.Errorf("unknown delivery gateway %q", app.cfg.Delivery)
	}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	// Wire services to router
	router.ChallengeService = app.challengeService
	router.PrincipalService = app.principalService
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
