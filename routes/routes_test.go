package routes

import (
	"net/http/httptest"
	"testing"

	"github.com/drumok/cashflowpre/config"
	"github.com/drumok/cashflowpre/database"
	"github.com/drumok/cashflowpre/handlers"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupRoutes(t *testing.T) {
	config.AppConfig = config.Config{JWTSecret: "routes-secret", MaxUploadMB: 50}
	database.SetStore(database.NewMemoryStore())

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	SetupRoutes(app)

	tests := []struct {
		method string
		path   string
		code   int
	}{
		{"GET", "/health", fiber.StatusOK},
		{"GET", "/metrics", fiber.StatusOK},
		{"GET", "/api/v1/plans", fiber.StatusOK},
		{"POST", "/api/v1/webhooks/stripe", fiber.StatusServiceUnavailable},
		{"POST", "/api/v1/analytics", fiber.StatusUnauthorized},
		{"POST", "/api/v1/analytics/upload", fiber.StatusUnauthorized},
		{"GET", "/api/v1/analytics", fiber.StatusUnauthorized},
		{"GET", "/api/v1/analytics/abc", fiber.StatusUnauthorized},
		{"POST", "/api/v1/analytics/abc/summary", fiber.StatusUnauthorized},
		{"POST", "/api/v1/leads", fiber.StatusUnauthorized},
		{"POST", "/api/v1/leads/all", fiber.StatusUnauthorized},
		{"GET", "/api/v1/leads", fiber.StatusUnauthorized},
		{"GET", "/api/v1/usage", fiber.StatusUnauthorized},
		{"POST", "/api/v1/subscription/checkout", fiber.StatusUnauthorized},
		{"POST", "/api/v1/subscription/cancel", fiber.StatusUnauthorized},
		{"GET", "/api/v1/merchant/invoices", fiber.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(tt.method, tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.code, resp.StatusCode)
		})
	}
}
