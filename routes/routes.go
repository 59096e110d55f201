package routes

import (
	"github.com/drumok/cashflowpre/handlers"
	"github.com/drumok/cashflowpre/metrics"
	"github.com/drumok/cashflowpre/middleware"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes defines all the routes for the application.
func SetupRoutes(app *fiber.App) {
	app.Get("/health", handlers.HandleHealth)
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api/v1")

	// --- Public Routes ---
	api.Get("/plans", handlers.HandleListPlans)
	api.Post("/webhooks/stripe", handlers.HandleStripeWebhook)

	// --- Analytics Routes ---
	analytics := api.Group("/analytics", middleware.Authenticate)
	analytics.Post("/", middleware.RequireAnalysisQuota, handlers.HandleRunAnalysis)
	analytics.Post("/upload", middleware.LimitUpload, middleware.RequireAnalysisQuota, handlers.HandleUploadAnalysis)
	analytics.Get("/", handlers.HandleListAnalyses)
	analytics.Get("/:id", handlers.HandleGetAnalysis)
	analytics.Post("/:id/summary", handlers.HandleSummarizeAnalysis)

	// --- Lead Routes ---
	leads := api.Group("/leads", middleware.Authenticate)
	leads.Post("/", handlers.HandleGenerateLeads)
	leads.Post("/all", handlers.HandleGenerateAllLeads)
	leads.Get("/", handlers.HandleListLeads)

	// --- Account Routes ---
	api.Get("/usage", middleware.Authenticate, handlers.HandleGetUsage)

	subscription := api.Group("/subscription", middleware.Authenticate)
	subscription.Post("/checkout", handlers.HandleCreateCheckout)
	subscription.Post("/cancel", handlers.HandleCancelSubscription)
}
