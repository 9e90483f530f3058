// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gestia-dev/gestia-backend/internal/admin"
	"github.com/gestia-dev/gestia-backend/internal/auth"
	"github.com/gestia-dev/gestia-backend/internal/authz"
	"github.com/gestia-dev/gestia-backend/internal/config"
	"github.com/gestia-dev/gestia-backend/internal/core"
	"github.com/gestia-dev/gestia-backend/internal/entitlement"
	"github.com/gestia-dev/gestia-backend/internal/health"
	"github.com/gestia-dev/gestia-backend/internal/middleware"
	"github.com/gestia-dev/gestia-backend/internal/permission"
	"github.com/gestia-dev/gestia-backend/internal/product"
	"github.com/gestia-dev/gestia-backend/internal/server"
	"github.com/gestia-dev/gestia-backend/internal/tenant"
	"github.com/gestia-dev/gestia-backend/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
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

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	tokenService, err := auth.NewTokenService(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("token service initialized",
		"algorithm", "HS256",
		"issuer", cfg.JWT.Issuer,
	)

	ownerRepo := tenant.NewRepository(db.DB)
	userRepo := user.NewRepository(db.DB)
	permRepo := permission.NewRepository(db.DB)
	subRepo := entitlement.NewRepository(db.DB)
	productRepo := product.NewRepository(db.DB)

	userSvc := user.NewService(userRepo)
	permSvc := permission.NewService(permRepo, userSvc)
	evaluator := entitlement.NewEvaluator(ownerRepo, userSvc, subRepo)
	entitlementSvc := entitlement.NewService(db.DB, subRepo, evaluator)
	gate := authz.NewGate(permSvc, evaluator, ownerRepo, userSvc)
	authSvc := auth.NewService(tokenService, ownerRepo, userRepo)
	productSvc := product.NewService(productRepo)

	authHandler := auth.NewHandler(authSvc)
	userHandler := user.NewHandler(userSvc, permSvc, gate)
	productHandler := product.NewHandler(productSvc, gate)
	entitlementHandler := entitlement.NewHandler(entitlementSvc, gate)
	healthHandler := health.NewHandler(db, redis)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
	})

	srv := server.New(server.Config{
		ServerConfig: cfg.Server,
		Logger:       logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.App.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORS))
	router.Use(middleware.IdentityExtractor(tokenService))

	healthHandler.RegisterRoutes(router)

	requireAuth := gate.Require(authz.Requirements{})

	credentialLimit := middleware.NewRateLimiter(
		redis.Client,
		middleware.RateLimitConfig{
			Limit: middleware.PerHour(
				cfg.RateLimit.AuthRequests,
				cfg.RateLimit.AuthBurst,
			),
		},
	).Handler

	router.Route("/v1", func(r chi.Router) {
		r.Use(middleware.TenantRateLimiter(
			redis.Client,
			middleware.PerMinute(cfg.RateLimit.Requests, cfg.RateLimit.Burst),
		))
		r.Use(
			middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
				Limit:    middleware.PerSecond(cfg.RateLimit.Burst, cfg.RateLimit.Burst),
				KeyFunc:  middleware.KeyByUserAndEndpoint,
				FailOpen: true,
			}).Handler,
		)

		authHandler.RegisterRoutes(r, requireAuth, credentialLimit)
		userHandler.RegisterRoutes(r)
		productHandler.RegisterRoutes(r)
		entitlementHandler.RegisterRoutes(r)
		adminHandler.RegisterRoutes(r, middleware.RequireAdministrator)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()
	healthHandler.SetReady(true)

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	// Flip the probes before the drain delay so load balancers stop
	// routing to this instance while it still accepts connections.
	healthHandler.SetShutdown(true)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
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
