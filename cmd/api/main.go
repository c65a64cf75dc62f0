// TrustGuardianHub | 2026
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

	"github.com/trustguardianhub/backend/internal/admin"
	"github.com/trustguardianhub/backend/internal/auth"
	"github.com/trustguardianhub/backend/internal/config"
	"github.com/trustguardianhub/backend/internal/core"
	"github.com/trustguardianhub/backend/internal/health"
	"github.com/trustguardianhub/backend/internal/jobs"
	"github.com/trustguardianhub/backend/internal/mail"
	"github.com/trustguardianhub/backend/internal/media"
	"github.com/trustguardianhub/backend/internal/message"
	"github.com/trustguardianhub/backend/internal/middleware"
	"github.com/trustguardianhub/backend/internal/payment"
	"github.com/trustguardianhub/backend/internal/report"
	"github.com/trustguardianhub/backend/internal/search"
	"github.com/trustguardianhub/backend/internal/server"
	"github.com/trustguardianhub/backend/internal/tag"
	"github.com/trustguardianhub/backend/internal/user"
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

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	mediaStore, err := media.NewStore(cfg.Media.PublicDir)
	if err != nil {
		return err
	}

	mailer, err := mail.New(cfg.Mail, logger)
	if err != nil {
		return err
	}

	maxUploadMB := int(cfg.Media.MaxUploadMB)

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo, mediaStore)
	userHandler := user.NewHandler(userSvc, mediaStore, maxUploadMB)

	authRepo := auth.NewRepository(db.DB)
	authSvc := auth.NewService(
		authRepo,
		jwtManager,
		userSvc,
		redis.Client,
		mailer,
		cfg.App.BaseURL,
	)
	authHandler := auth.NewHandler(authSvc)

	reportRepo := report.NewRepository(db.DB)
	reportSvc := report.NewService(reportRepo, mediaStore)
	reportHandler := report.NewHandler(reportSvc, mediaStore, maxUploadMB)

	tagSvc := tag.NewService(tag.NewRepository(db.DB))
	tagHandler := tag.NewHandler(tagSvc)

	messageSvc := message.NewService(message.NewRepository(db.DB))
	messageHandler := message.NewHandler(messageSvc)

	searchSvc := search.NewService(search.NewRepository(db.DB))
	searchHandler := search.NewHandler(searchSvc)

	mpesaClient := payment.NewMpesaClient(cfg.Mpesa)
	paymentRepo := payment.NewRepository(db.DB)
	paymentSvc := payment.NewService(
		paymentRepo,
		mpesaClient,
		cfg.App.BaseURL,
		logger,
	)
	paymentHandler := payment.NewHandler(paymentSvc)

	healthHandler := health.NewHandler(db, redis)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		Users:      userSvc,
		Reports:    reportSvc,
		Tags:       tagSvc,
	})

	scheduler := jobs.NewScheduler(
		logger,
		authRepo,
		userSvc,
		paymentSvc,
		cfg.Mpesa.PendingExpiry,
	)
	if err := scheduler.Start(); err != nil {
		return err
	}

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
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

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	fileServer := http.StripPrefix(
		"/public/",
		http.FileServer(http.Dir(mediaStore.Dir())),
	)
	router.Get("/public/*", fileServer.ServeHTTP)

	authenticator := middleware.Authenticator(jwtManager)
	adminOnly := middleware.RequireAdmin

	router.Route("/api", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)

		userHandler.RegisterRoutes(r, authenticator)
		reportHandler.RegisterRoutes(r, authenticator)
		tagHandler.RegisterRoutes(r, authenticator)
		messageHandler.RegisterRoutes(r, authenticator)
		searchHandler.RegisterRoutes(r, authenticator)
		paymentHandler.RegisterRoutes(r, authenticator)

		userHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		messageHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
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

	scheduler.Stop()

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
