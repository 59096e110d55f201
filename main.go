package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/drumok/cashflowpre/analytics"
	"github.com/drumok/cashflowpre/config"
	"github.com/drumok/cashflowpre/database"
	"github.com/drumok/cashflowpre/handlers"
	"github.com/drumok/cashflowpre/jobs"
	"github.com/drumok/cashflowpre/logger"
	"github.com/drumok/cashflowpre/metrics"
	"github.com/drumok/cashflowpre/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.WithError(err).Fatal("Invalid configuration")
	}
	logger.Setup(cfg.IsProduction(), cfg.LogLevel)

	// Initialize store
	var store database.Store
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		pg, err := database.Connect(ctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			logger.Log.WithError(err).Fatal("Unable to connect to database")
		}
		store = pg
		logger.Log.Info("Connected to PostgreSQL")
	} else {
		store = database.NewMemoryStore()
		logger.Log.Warn("DATABASE_URL is not set, using the in-memory store")
	}
	database.SetStore(store)
	defer database.Close()

	if cfg.CostRatioBaseline > 0 {
		model := analytics.DefaultCostModel()
		model.Baseline = cfg.CostRatioBaseline
		handlers.SetEngine(analytics.NewEngine(analytics.WithCostModel(model)))
	}

	if cfg.StripeEnabled() {
		handlers.ConfigureStripe(cfg.StripeSecretKey)
	} else {
		logger.Log.Warn("STRIPE_SECRET_KEY is not set, billing endpoints are disabled")
	}

	if cfg.GeminiAPIKey != "" {
		gemini, err := handlers.NewGeminiSummarizer(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Log.WithError(err).Fatal("Unable to create Gemini client")
		}
		defer gemini.Close()
		handlers.SetSummarizer(gemini)
	}

	scheduler, err := jobs.NewScheduler(cfg.UsageResetSchedule, &jobs.ResetUsageJob{
		Store:  store,
		Now:    time.Now,
		Logger: logger.Log,
	}, logger.Log)
	if err != nil {
		logger.Log.WithError(err).Fatal("Unable to schedule usage reset")
	}
	scheduler.Start()

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		// multipart overhead on top of the largest allowed CSV
		BodyLimit: (cfg.MaxUploadMB + 1) << 20,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Stripe-Signature",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health" || c.Path() == "/metrics"
		},
	}))
	app.Use(metrics.Middleware)

	// Setup routes
	routes.SetupRoutes(app)

	go func() {
		addr := ":" + cfg.Port
		logger.Log.WithField("addr", addr).Info("Server listening")
		if err := app.Listen(addr); err != nil {
			logger.Log.WithError(err).Fatal("Server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	scheduler.Stop(ctx)
	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Log.WithError(err).Error("Server shutdown failed")
	}
}
