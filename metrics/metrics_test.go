package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveAnalysis(t *testing.T) {
	before := testutil.ToFloat64(analysisRuns.WithLabelValues("sales_forecasting", "ok"))
	ObserveAnalysis("sales_forecasting", 12, time.Millisecond, nil)
	ObserveAnalysis("sales_forecasting", 1, time.Millisecond, errors.New("boom"))

	assert.Equal(t, before+1, testutil.ToFloat64(analysisRuns.WithLabelValues("sales_forecasting", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(analysisRuns.WithLabelValues("sales_forecasting", "error")))
}

func TestObserveLeads(t *testing.T) {
	ObserveLeads("top_customer_upsell", []string{"high", "high", "medium"}, time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(leadsGenerated.WithLabelValues("top_customer_upsell", "high")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware)
	app.Get("/metrics", Handler())
	app.Get("/ping/:id", func(c *fiber.Ctx) error { return c.SendString("pong") })

	resp, err := app.Test(httptest.NewRequest("GET", "/ping/7", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 1.0, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/ping/:id", "200")))

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "cashflowpre_http_requests_total")
}
