// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/storefront/internal/admin"
	"github.com/carterperez-dev/storefront/internal/auth"
	"github.com/carterperez-dev/storefront/internal/config"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/health"
	"github.com/carterperez-dev/storefront/internal/metrics"
	"github.com/carterperez-dev/storefront/internal/middleware"
	"github.com/carterperez-dev/storefront/internal/notify"
	"github.com/carterperez-dev/storefront/internal/payment"
	"github.com/carterperez-dev/storefront/internal/product"
	"github.com/carterperez-dev/storefront/internal/productview"
	"github.com/carterperez-dev/storefront/internal/server"
	"github.com/carterperez-dev/storefront/internal/user"
	"github.com/carterperez-dev/storefront/migrations"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	telemetry, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		logger.Warn("failed to initialize telemetry", "error", err)
	} else if telemetry.TracerProvider != nil {
		logger.Info("OpenTelemetry tracer initialized",
			"endpoint", cfg.Otel.Endpoint,
		)
	}

	db, err := core.NewDatabase(ctx, cfg.Database, cfg.Upstream.Timeout)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(db.DB.DB, logger); err != nil {
			return err
		}
	}

	redis, err := core.NewRedis(ctx, cfg.Redis, cfg.Upstream.Timeout)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	registry := metrics.NewRegistry()
	upstreamTimeout := cfg.Upstream.Timeout
	httpClient := &http.Client{Timeout: upstreamTimeout}

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "HS256",
		"access_ttl", jwtManager.AccessTTL().String(),
		"refresh_ttl", jwtManager.RefreshTTL().String(),
	)

	refreshStore := auth.NewRefreshStore(
		redis.Client,
		cfg.JWT.RefreshTokenExpire,
		upstreamTimeout,
	)
	tokens := auth.NewTokenService(jwtManager, refreshStore, logger, registry)

	userRepo := user.NewRepository(db.DB, upstreamTimeout)
	userSvc := user.NewService(userRepo)
	userHandler := user.NewHandler(userSvc)

	mailer := notify.NewMailer(cfg.Email, httpClient, logger)
	if !mailer.Enabled() {
		logger.Warn("email api key not set, welcome emails disabled")
	}

	authSvc := auth.NewService(auth.ServiceConfig{
		Tokens:      tokens,
		Users:       userSvc,
		Mailer:      mailer,
		Logger:      logger,
		MailTimeout: upstreamTimeout,
	})
	cookies := auth.NewCookieWriter(
		cfg.Cookie,
		cfg.IsProduction(),
		jwtManager.AccessTTL(),
		jwtManager.RefreshTTL(),
	)
	authHandler := auth.NewHandler(authSvc, cookies)

	productRepo := product.NewRepository(db.DB, upstreamTimeout)
	views := productview.New(redis.Client, productRepo, productview.Options{
		Logger:  logger,
		Metrics: registry,
		Timeout: upstreamTimeout,
	})
	productSvc := product.NewService(
		productRepo,
		logger,
		productview.NewInvalidator(views, logger),
	)
	productHandler := product.NewHandler(productSvc, views)

	gateway := payment.NewGateway(cfg.Payment, upstreamTimeout, httpClient)
	paymentHandler := payment.NewHandler(gateway, logger)

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		Checker:    healthHandler,
		Cache:      views,
		Logger:     logger,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics(registry))
	router.Use(middleware.NewThrottle(
		redis.Client,
		middleware.GlobalPolicy(cfg.RateLimit),
		registry,
	).Handler)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, registry.Handler())
	}

	authenticator := middleware.Authenticator(tokens, userSvc, cookies.AccessName())
	adminOnly := middleware.RequireAdmin
	authLimiter := middleware.NewThrottle(
		redis.Client,
		middleware.CredentialPolicy(cfg.AuthRateLimit),
		registry,
	).Handler

	router.Route("/api", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator, authLimiter)
		productHandler.RegisterRoutes(r, authenticator, adminOnly)
		paymentHandler.RegisterRoutes(r, authenticator)

		userHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	authSvc.Wait()

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
