package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/redis/go-redis/v9"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/apps"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/apps/assistant"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/apps/library"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/apps/tracking"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/integrations/nutrition"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/integrations/payment"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/live"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/realtime"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/siteconfig"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/storage"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

const registryRefreshInterval = time.Minute

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	logging.Setup(cfg.Environment)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("core migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.StdoutHandler(cfg.Environment),
		pgLogHandler,
	)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	// Change feed: Redis fan-out when configured, in-process otherwise
	var feed realtime.Feed = realtime.NewLocalFeed()
	var redisFeed *realtime.RedisFeed
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		redisFeed = realtime.NewRedisFeed(redis.NewClient(opts))
		if err := redisFeed.Start(ctx); err != nil {
			slog.Error("redis feed failed to start, using local feed", "error", err)
			redisFeed = nil
		} else {
			feed = redisFeed
			slog.Info("redis change feed enabled")
		}
	}

	// Tenant registry
	registry, err := tenant.Load(ctx, database.DB)
	if err != nil {
		slog.Error("failed to load tenant registry", "error", err)
		os.Exit(1)
	}
	slog.Info("tenant registry loaded", "tenants", registry.Count())
	go refreshRegistry(ctx, registry)

	tenantResolver := tenant.NewResolver(cfg.PlatformDomainList(), registry)
	configStore := siteconfig.NewGormStore(database.DB)
	configResolver := siteconfig.NewResolver(configStore, feed)

	// Logo uploads are optional
	var uploader services.LogoUploader
	if cfg.S3BucketName != "" {
		s3Uploader, err := storage.NewS3Uploader(ctx, cfg.AWSRegion, cfg.S3BucketName)
		if err != nil {
			slog.Error("s3 uploader unavailable", "error", err)
		} else {
			uploader = s3Uploader
		}
	}

	// Services
	authService := services.NewAuthService(database.DB, cfg, feed)
	profileService := services.NewProfileService(database.DB, feed)
	roomService := services.NewRoomService(database.DB, feed)
	messageService := services.NewMessageService(database.DB, feed)
	paymentService := services.NewPaymentService(database.DB, feed,
		payment.NewClient(cfg.PaymentAPIURL, cfg.PaymentAPIKey), cfg.SubscriptionPriceCents)
	adminService := services.NewAdminService(database.DB, feed, registry, configStore, uploader)
	nutritionClient := nutrition.NewClient(cfg.NutritionWebhookURL, cfg.AITimeout)

	// Feature plugins
	plugins := []apps.Plugin{
		tracking.New(feed),
		library.New(feed, roomService),
		assistant.New(nutritionClient),
	}
	for _, p := range plugins {
		if models := p.Models(); len(models) > 0 {
			if err := database.MigrateModels(database.DB, models); err != nil {
				slog.Error("plugin migration failed", "plugin", p.ID(), "error", err)
				os.Exit(1)
			}
			slog.Info("plugin migrated", "plugin", p.ID(), "models", len(models))
		}
	}

	// Handlers
	liveServer := &live.Server{
		Tokens:   authService,
		Profiles: profileService,
		Rooms:    roomService,
		Messages: messageService,
		Tenants:  tenantResolver,
		Configs:  configResolver,
		Feed:     feed,
		Detailed: cfg.IsDevelopment(),
	}
	h := routes.Handlers{
		Auth:       handlers.NewAuthHandler(authService),
		Health:     handlers.NewHealthHandler(registry),
		SiteConfig: handlers.NewSiteConfigHandler(configResolver),
		Profile:    handlers.NewProfileHandler(profileService),
		Room:       handlers.NewRoomHandler(roomService, messageService, profileService, feed, cfg.IsDevelopment()),
		Payment:    handlers.NewPaymentHandler(paymentService),
		Webhook:    handlers.NewWebhookHandler(paymentService, cfg.PaymentWebhookSecret),
		Admin:      handlers.NewAdminHandler(adminService),
		Legal:      handlers.NewLegalHandler(registry, configResolver),
		Live:       handlers.NewLiveHandler(ctx, liveServer),
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg, registry))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})
	app.Use(middleware.TenantMiddleware(registry, tenantResolver))

	routes.Setup(app, cfg, database.DB, h, plugins)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	// Ends live connections and watches
	cancel()

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if redisFeed != nil {
		if err := redisFeed.Close(); err != nil {
			slog.Error("redis feed close error", "error", err)
		}
	}

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

// refreshRegistry picks up tenant changes made by other instances.
func refreshRegistry(ctx context.Context, registry *tenant.Registry) {
	ticker := time.NewTicker(registryRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := registry.Refresh(ctx); err != nil && ctx.Err() == nil {
				slog.Warn("tenant registry refresh failed", "error", err)
			}
		}
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
