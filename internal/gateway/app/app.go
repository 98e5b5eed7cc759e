package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	httpapi "github.com/evamind/gateway/internal/gateway/http"
	"github.com/evamind/gateway/internal/gateway/metrics"
	"github.com/evamind/gateway/internal/gateway/ratelimit"
	"github.com/evamind/gateway/internal/gateway/service"
	"github.com/evamind/gateway/internal/gateway/store"
	"github.com/evamind/gateway/internal/gateway/store/drivers/postgres"
	"github.com/evamind/gateway/internal/gateway/store/drivers/sqlite"
	"github.com/evamind/gateway/pkg/cryptox"
	"github.com/evamind/gateway/pkg/jwtx"
	"github.com/evamind/gateway/pkg/slogx"
	"github.com/redis/go-redis/v9"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"

	redisConnectTimeout = 5 * time.Second
)

// Application wires the gateway's store, services and HTTP server.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db    store.Store
	keys  *jwtx.SecretSet
	redis *redis.Client // only with the redis rate limit backend

	// Services
	tokenService        *service.TokenService
	rateLimitService    *service.RateLimitService
	auditLogger         *service.AuditLogger
	dispatcher          *service.Dispatcher
	healthAggregator    *service.HealthAggregator
	clientService       *service.ClientService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService
	sweepers            map[string]service.Sweeper
	housekeepingRunning bool

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "api-gateway",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		sweepers: make(map[string]service.Sweeper),
	}

	if err := cryptox.LoadPepper(cfg.PepperFile); err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}

	ctx := context.Background()
	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	keys, err := InitSigningKeys(cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize signing keys: %w", err)
	}
	app.keys = keys

	if err := app.initServices(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	app.housekeepingService = service.NewHousekeepingService(app.logger, cfg.HousekeepingInterval, app.sweepers)

	return app, nil
}

// Handler exposes the routed HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()
	app.housekeepingRunning = true

	app.logger.Info("gateway starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"downstream", app.cfg.DownstreamURL,
		"rate_limit_backend", app.cfg.RateLimitBackend,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.Shutdown()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains the HTTP server, flushes the audit queue and closes the
// store, in that order.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.housekeepingRunning {
		app.housekeepingService.Stop()
		app.housekeepingRunning = false
	}

	if err := app.auditLogger.Close(ctx); err != nil {
		app.logger.Error("audit queue not drained", "error", err)
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("gateway stopped")
	return nil
}

// initDatabase opens the store named by DatabaseURL and applies migrations.
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)
	if isPostgresURL(app.cfg.DatabaseURL) {
		var pg *postgres.Store
		pg, err = postgres.NewStore(ctx, app.cfg.DatabaseURL, postgres.Options{})
		if err == nil {
			metrics.RegisterPgxPoolMetrics(pg.Pool())
			db = pg
		}
		app.logger.Info("using postgres store")
	} else {
		dsn := app.cfg.DatabaseURL
		if dsn != ":memory:" {
			dsn = sqlite.FileDSN(dsn)
		}
		db, err = sqlite.NewStore(dsn)
		app.logger.Info("using sqlite store", "path", app.cfg.DatabaseURL)
	}
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

func isPostgresURL(s string) bool {
	return strings.HasPrefix(s, "postgres://") || strings.HasPrefix(s, "postgresql://")
}

// initServices builds the business services and the configured rate
// limit counter.
func (app *Application) initServices(ctx context.Context) error {
	app.tokenService = service.NewTokenService(app.db, app.keys, service.TokenOptions{
		Issuer:         app.cfg.Issuer,
		TTL:            app.cfg.TokenTTL,
		StatusCacheTTL: app.cfg.StatusCacheTTL,
	})
	app.sweepers["status_cache"] = app.tokenService

	counter, err := app.initCounter(ctx)
	if err != nil {
		return err
	}
	app.rateLimitService = service.NewRateLimitService(counter, app.cfg.RateLimitWindow)

	app.auditLogger = service.NewAuditLogger(app.db.RequestLogs(), app.logger, app.cfg.AuditBuffer)

	app.dispatcher, err = service.NewDispatcher(service.DispatcherOptions{
		BaseURL:      app.cfg.DownstreamURL,
		Timeout:      app.cfg.DownstreamTimeout,
		RetryBackoff: app.cfg.DownstreamRetryBackoff,
	})
	if err != nil {
		return err
	}

	app.healthAggregator = &service.HealthAggregator{
		Local:      app.db,
		Downstream: app.dispatcher,
		Timeout:    app.cfg.HealthProbeTimeout,
	}

	app.clientService = &service.ClientService{Store: app.db, Tokens: app.tokenService}
	app.bootstrapService = &service.BootstrapService{
		Clients: app.clientService,
		Token:   app.cfg.BootstrapToken,
	}
	return nil
}

func (app *Application) initCounter(ctx context.Context) (ratelimit.Counter, error) {
	switch app.cfg.RateLimitBackend {
	case BackendMemory:
		m := ratelimit.NewMemory()
		app.sweepers["ratelimit"] = m
		app.logger.Warn("in-memory rate limiting: counts are per process and lost on restart")
		return m, nil

	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     app.cfg.RedisAddr,
			Password: app.cfg.RedisPassword,
			DB:       app.cfg.RedisDB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", app.cfg.RedisAddr, err)
		}
		app.redis = client
		app.logger.Info("redis rate limiting enabled", "addr", app.cfg.RedisAddr, "db", app.cfg.RedisDB)
		return ratelimit.NewRedis(client, ""), nil

	default:
		return ratelimit.NewLedger(app.db.RequestLogs()), nil
	}
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	router.TokenService = app.tokenService
	router.RateLimitService = app.rateLimitService
	router.AuditLogger = app.auditLogger
	router.Dispatcher = app.dispatcher
	router.Health = app.healthAggregator
	router.ClientService = app.clientService
	router.BootstrapService = app.bootstrapService
	router.ApplyRoutes()

	app.router = router
	app.sweepers["throttles"] = service.SweeperFunc(router.SweepThrottles)

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
