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

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/spectralabs/spectra-backend/internal/billing"
	"github.com/spectralabs/spectra-backend/internal/config"
	"github.com/spectralabs/spectra-backend/internal/database"
	"github.com/spectralabs/spectra-backend/internal/documents"
	"github.com/spectralabs/spectra-backend/internal/handlers"
	"github.com/spectralabs/spectra-backend/internal/logging"
	"github.com/spectralabs/spectra-backend/internal/mail"
	"github.com/spectralabs/spectra-backend/internal/middleware"
	"github.com/spectralabs/spectra-backend/internal/pricing"
	"github.com/spectralabs/spectra-backend/internal/routes"
	"github.com/spectralabs/spectra-backend/internal/services"
	"github.com/spectralabs/spectra-backend/internal/storage"
	"github.com/spectralabs/spectra-backend/internal/store"
)

func storageFromConfig(cfg *config.Config) (storage.ImageStore, error) {
	return storage.NewCloudinaryStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
}

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.StripeSecretKey == "" {
		slog.Error("STRIPE_SECRET_KEY environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		pgLogHandler,
	)))

	// Log and access-code cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	st := store.NewGormStore(database.DB)

	// Collaborators
	provider := billing.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	images, err := storageFromConfig(cfg)
	if err != nil {
		slog.Error("image store init failed", "error", err)
		os.Exit(1)
	}
	mailer := mail.NewSMTPDispatcher(cfg.EmailHost, cfg.EmailPort, cfg.EmailUser, cfg.EmailPass, cfg.EmailFrom, cfg.AdminEmail)
	docs := documents.NewPDFGenerator(images)

	// Price oracle and broadcast loop
	scraper := pricing.NewPageScraper(cfg.QuotesPageURL, cfg.ScrapeTimeout)
	feed := pricing.NewChartFeed(cfg.FeedBaseURL, cfg.FeedTimeout)
	oracle := pricing.NewOracle(scraper, feed)
	hub := pricing.NewHub()
	broadcaster := pricing.NewBroadcaster(oracle, hub, cfg.BroadcastTick)
	broadcastCtx, stopBroadcast := context.WithCancel(context.Background())
	broadcaster.Start(broadcastCtx)

	// Services
	submissionService := services.NewSubmissionService(st, oracle, images)
	orderService := services.NewOrderService(st, docs, mailer)
	paymentService := services.NewPaymentService(st, provider, docs, mailer)
	subscriptionService := services.NewSubscriptionService(st, provider, oracle, mailer)
	claimService := services.NewClaimService(st, images)
	accessService := services.NewAccessService(st, mailer, cfg.JWTSecret, cfg.AccessTokenExpiry)
	authService := services.NewAuthService(cfg.AdminUsername, cfg.AdminPasswordHash, cfg.JWTSecret, cfg.JWTAccessExpiry)

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    16 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	routes.Setup(app, cfg, routes.Handlers{
		Health:       handlers.NewHealthHandler(),
		Submission:   handlers.NewSubmissionHandler(submissionService),
		Order:        handlers.NewOrderHandler(orderService),
		Payment:      handlers.NewPaymentHandler(paymentService, cfg.FrontendURL+"/payment/return"),
		Webhook:      handlers.NewWebhookHandler(provider, subscriptionService),
		Subscription: handlers.NewSubscriptionHandler(subscriptionService),
		Claim:        handlers.NewClaimHandler(claimService),
		Price:        handlers.NewPriceHandler(oracle, hub, feed),
		Access:       handlers.NewAccessHandler(accessService),
		Admin:        handlers.NewAdminHandler(authService, submissionService, orderService, subscriptionService, claimService),
	})

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

	stopBroadcast()
	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
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
