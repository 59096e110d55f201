package handlers

import (
	"context"
	"time"

	"github.com/drumok/cashflowpre/database"
	"github.com/drumok/cashflowpre/middleware"
	"github.com/drumok/cashflowpre/models"

	"github.com/gofiber/fiber/v2"
)

// HandleGetUsage reports the caller's plan, counters and remaining runs.
// GET /api/v1/usage
func HandleGetUsage(c *fiber.Ctx) error {
	profile, err := middleware.Profile(c)
	if err != nil {
		return err
	}
	plan := profile.Plan()
	return c.JSON(fiber.Map{
		"success": true,
		"data": models.UsageResponse{
			Plan:         plan,
			Status:       profile.Subscription.Status,
			Usage:        profile.Usage,
			Remaining:    max(0, plan.MonthlyAnalysisRuns-profile.Usage.AnalysisRuns),
			UsageResetAt: profile.UsageResetAt,
		},
	})
}

// HandleListPlans returns the subscription plan catalogue.
// GET /api/v1/plans
func HandleListPlans(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "data": models.PlanCatalogue()})
}

// HandleHealth reports liveness and whether the store answers.
// GET /health
func HandleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := database.GetStore().Ping(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "store": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
