// Package main is the entrypoint for the Dropgate API server.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/dropgate/dropgate/internal/cache"
	"github.com/dropgate/dropgate/internal/config"
	"github.com/dropgate/dropgate/internal/handler"
	"github.com/dropgate/dropgate/internal/identity"
	"github.com/dropgate/dropgate/internal/metrics"
	"github.com/dropgate/dropgate/internal/middleware"
	"github.com/dropgate/dropgate/internal/payment"
	"github.com/dropgate/dropgate/internal/server"
	"github.com/dropgate/dropgate/internal/storage"
)

func main() {
	ctx := context.Background()

	// Local development convenience; the file is absent in production
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found")
	}

	// Load configuration. Missing required provider settings fail the boot.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Storage provider
	store, err := storage.NewMinioStore(ctx, storage.MinioConfig{
		Endpoint:   cfg.StorageEndpoint,
		AccessKey:  cfg.StorageAccessKey,
		SecretKey:  cfg.StorageSecretKey,
		Bucket:     cfg.StorageBucket,
		PublicBase: cfg.StoragePublicBase,
		UseSSL:     cfg.StorageUseSSL,
	})
	if err != nil {
		logger.Error("failed to connect to storage provider",
			slog.String("endpoint", cfg.StorageEndpoint),
			slog.String("bucket", cfg.StorageBucket),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	logger.Info("connected to storage provider",
		slog.String("endpoint", cfg.StorageEndpoint),
		slog.String("bucket", cfg.StorageBucket),
	)

	// Identity provider
	identityClient := identity.NewClient(cfg.IdentityURL, cfg.IdentityAPIKey, cfg.IdentityEmailDomain)

	// Payment provider. The client is always constructed; handlers refuse
	// checkout operations when PaymentConfigured is false.
	paymentClient := payment.NewClient(cfg.PaymentAPIURL, cfg.PaymentAPIKey)
	if !cfg.PaymentConfigured() {
		logger.Warn("payment provider not configured, checkout endpoints will return configuration errors")
	}

	// Optional Redis cache for auth-endpoint rate limiting
	var cacheClient *cache.Cache
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("connected to Redis")
	} else {
		logger.Info("Redis not configured, auth rate limiting disabled")
	}

	var recorder metrics.Recorder = metrics.NewNoop()
	var snapshotter metrics.Snapshotter
	if cfg.IsDevelopment() {
		inmem := metrics.NewInMemory()
		recorder = inmem
		snapshotter = inmem
	}

	r := setupRouter(cfg, logger, identityClient, paymentClient, store, cacheClient, recorder, snapshotter)

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	if cacheClient != nil {
		srv.OnShutdown("redis", func(ctx context.Context) error {
			return cacheClient.Close()
		})
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	cfg *config.Config,
	logger *slog.Logger,
	identityClient *identity.Client,
	paymentClient *payment.Client,
	store *storage.MinioStore,
	cacheClient *cache.Cache,
	recorder metrics.Recorder,
	snapshotter metrics.Snapshotter,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	// Handlers
	authHandler := handler.NewAuthHandler(logger, identityClient)
	fileHandler := handler.NewFileHandler(logger, store, store.Bucket(), recorder)
	paymentHandler := handler.NewPaymentHandler(logger, paymentClient, handler.PaymentConfig{
		Configured: cfg.PaymentConfigured(),
		ProductID:  cfg.PaymentProductID,
		ReturnURL:  cfg.PaymentReturnURL,
	}, recorder)
	webhookHandler := handler.NewWebhookHandler(logger, cfg.PaymentWebhookSecret, recorder)

	// A nil *cache.Cache must stay a nil interface for the readiness probe
	var cacheChecker handler.HealthChecker
	if cacheClient != nil {
		cacheChecker = cacheClient
	}
	healthHandler := handler.NewHealthHandler(identityClient, store, cacheChecker)

	// Health endpoints (no auth required)
	r.Get("/api/health", healthHandler.Healthz)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)

	authCfg := middleware.AuthConfig{
		Logger:   logger,
		Resolver: identityClient,
		Metrics:  recorder,
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:      logger,
		Cache:       cacheClient,
		AuthEnabled: cfg.RateLimitAuthEnabled,
		AuthRPM:     cfg.RateLimitAuthRPM,
		AuthBurst:   cfg.RateLimitAuthBurst,
	}

	r.Route("/api", func(r chi.Router) {
		// Unauthenticated auth endpoints, rate limited per IP
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitAuth(rateLimitCfg))
			r.Post("/auth/signup", authHandler.Signup)
			r.Post("/auth/login", authHandler.Login)
		})

		// Logout accepts an optional bearer token; no guard so that an
		// already-expired token can still be discarded cleanly.
		r.Post("/auth/logout", authHandler.Logout)

		// Webhook receiver authenticates by signature, not bearer token
		r.Post("/webhooks/payment", webhookHandler.Receive)

		// Bearer-guarded routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authCfg))

			r.Get("/auth/verify", authHandler.Verify)

			r.With(middleware.MaxBodySize(cfg.MaxUploadBytes)).Post("/upload", fileHandler.Upload)
			r.Get("/files", fileHandler.List)

			r.Post("/checkout/create", paymentHandler.CreateCheckout)
			r.Get("/payment/verify/{sessionID}", paymentHandler.VerifyPayment)
		})
	})

	// Development-only metrics dump
	if snapshotter != nil {
		r.Get("/debug/metrics", handler.NewMetricsHandler(snapshotter).Snapshot)
	}

	// 404 and 405 handlers
	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	return r
}
