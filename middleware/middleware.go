package middleware

import (
	"fmt"

	"github.com/drumok/cashflowpre/config"
	"github.com/drumok/cashflowpre/database"
	"github.com/drumok/cashflowpre/metrics"
	"github.com/drumok/cashflowpre/models"

	"github.com/gofiber/fiber/v2"
)

const bytesPerMB = 1 << 20

// Profile loads the caller's profile once per request, creating it on the
// user's first visit.
func Profile(c *fiber.Ctx) (*models.UserProfile, error) {
	if p, ok := c.Locals(localProfile).(*models.UserProfile); ok {
		return p, nil
	}
	claims, err := ExtractClaims(c)
	if err != nil {
		return nil, err
	}
	p, err := database.GetStore().GetOrCreateProfile(c.UserContext(), claims.Identity(), claims.Email)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	c.Locals(localProfile, p)
	return p, nil
}

// RequireAnalysisQuota rejects the request with 402 once the plan's monthly
// analysis runs are used up.
func RequireAnalysisQuota(c *fiber.Ctx) error {
	profile, err := Profile(c)
	if err != nil {
		return err
	}

	plan := profile.Plan()
	if profile.Usage.AnalysisRuns >= plan.MonthlyAnalysisRuns {
		metrics.QuotaRejected(string(plan.Tier), "analysis_runs")
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"success": false,
			"message": fmt.Sprintf("Monthly analysis limit of %d reached for the %s plan", plan.MonthlyAnalysisRuns, plan.Name),
			"data": fiber.Map{
				"plan":  plan.Tier,
				"limit": plan.MonthlyAnalysisRuns,
				"used":  profile.Usage.AnalysisRuns,
			},
		})
	}
	return c.Next()
}

// UploadLimitBytes is the largest upload the profile may send. The server
// wide cap applies on top of the plan limit.
func UploadLimitBytes(p *models.UserProfile) int64 {
	limitMB := p.Plan().MaxUploadMB
	if global := config.AppConfig.MaxUploadMB; global > 0 {
		limitMB = min(limitMB, global)
	}
	return int64(limitMB) * bytesPerMB
}

// LimitUpload rejects request bodies larger than the caller's upload limit.
func LimitUpload(c *fiber.Ctx) error {
	profile, err := Profile(c)
	if err != nil {
		return err
	}

	limit := UploadLimitBytes(profile)
	if size := int64(c.Request().Header.ContentLength()); size > limit {
		metrics.QuotaRejected(string(profile.Plan().Tier), "upload_size")
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"success": false,
			"message": fmt.Sprintf("Upload exceeds the %d MB limit of your plan", limit/bytesPerMB),
		})
	}
	return c.Next()
}
