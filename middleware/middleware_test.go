package middleware

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/drumok/cashflowpre/config"
	"github.com/drumok/cashflowpre/database"
	"github.com/drumok/cashflowpre/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func setup(t *testing.T) *database.MemoryStore {
	t.Helper()
	config.AppConfig = config.Config{JWTSecret: testSecret, MaxUploadMB: 50}
	store := database.NewMemoryStore()
	database.SetStore(store)
	return store
}

func signToken(t *testing.T, claims models.JwtClaims, secret string) string {
	t.Helper()
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{BodyLimit: 16 * bytesPerMB})
	chain := append([]fiber.Handler{Authenticate}, handlers...)
	chain = append(chain, func(c *fiber.Ctx) error {
		return c.SendString(UserID(c))
	})
	app.Post("/test", chain...)
	return app
}

func do(t *testing.T, app *fiber.App, token string, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("POST", "/test", strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	buf := new(strings.Builder)
	_, _ = io.Copy(buf, resp.Body)
	return resp.StatusCode, buf.String()
}

func TestAuthenticate(t *testing.T) {
	setup(t)
	app := newApp()

	status, body := do(t, app, signToken(t, models.JwtClaims{UserID: "user-1"}, testSecret), "")
	assert.Equal(t, 200, status)
	assert.Equal(t, "user-1", body)

	sub := models.JwtClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "sub-9"}}
	status, body = do(t, app, signToken(t, sub, testSecret), "")
	assert.Equal(t, 200, status)
	assert.Equal(t, "sub-9", body)
}

func TestAuthenticateRejects(t *testing.T) {
	setup(t)
	app := newApp()

	status, _ := do(t, app, "", "")
	assert.Equal(t, 401, status)

	status, _ = do(t, app, signToken(t, models.JwtClaims{UserID: "u"}, "other-secret"), "")
	assert.Equal(t, 401, status)

	expired := models.JwtClaims{UserID: "u", RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}
	status, _ = do(t, app, signToken(t, expired, testSecret), "")
	assert.Equal(t, 401, status)

	status, _ = do(t, app, signToken(t, models.JwtClaims{}, testSecret), "")
	assert.Equal(t, 401, status)
}

func TestAuthenticateIssuer(t *testing.T) {
	setup(t)
	config.AppConfig.JWTIssuer = "https://auth.example.com"
	app := newApp()

	wrong := models.JwtClaims{UserID: "u", RegisteredClaims: jwt.RegisteredClaims{Issuer: "https://evil.example.com"}}
	status, _ := do(t, app, signToken(t, wrong, testSecret), "")
	assert.Equal(t, 401, status)

	right := models.JwtClaims{UserID: "u", RegisteredClaims: jwt.RegisteredClaims{Issuer: "https://auth.example.com"}}
	status, _ = do(t, app, signToken(t, right, testSecret), "")
	assert.Equal(t, 200, status)
}

func TestRequireAnalysisQuota(t *testing.T) {
	store := setup(t)
	app := newApp(RequireAnalysisQuota)
	token := signToken(t, models.JwtClaims{UserID: "u1", Email: "u1@example.com"}, testSecret)

	status, _ := do(t, app, token, "")
	require.Equal(t, 200, status)

	limit := models.Plans[models.PlanFree].MonthlyAnalysisRuns
	require.NoError(t, store.IncrementUsage(context.Background(), "u1", models.Usage{AnalysisRuns: limit}))

	status, body := do(t, app, token, "")
	assert.Equal(t, 402, status)
	assert.Contains(t, body, "Monthly analysis limit")

	require.NoError(t, store.UpdateSubscription(context.Background(), "u1", models.Subscription{
		Plan: models.PlanPro, Status: models.StatusActive,
	}))
	status, _ = do(t, app, token, "")
	assert.Equal(t, 200, status)
}

func TestLimitUpload(t *testing.T) {
	setup(t)
	app := newApp(LimitUpload)
	token := signToken(t, models.JwtClaims{UserID: "u1"}, testSecret)

	status, _ := do(t, app, token, "small")
	assert.Equal(t, 200, status)

	big := strings.Repeat("x", 6*bytesPerMB)
	status, body := do(t, app, token, big)
	assert.Equal(t, 413, status)
	assert.Contains(t, body, "5 MB")
}

func TestUploadLimitBytes(t *testing.T) {
	setup(t)
	pro := &models.UserProfile{Subscription: models.Subscription{Plan: models.PlanPro, Status: models.StatusActive}}
	assert.Equal(t, int64(50*bytesPerMB), UploadLimitBytes(pro))

	config.AppConfig.MaxUploadMB = 0
	assert.Equal(t, int64(1024*bytesPerMB), UploadLimitBytes(pro))
}
