// Package metrics exposes Prometheus collectors for the analysis service.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const prefix = "cashflowpre"

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	analysisRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_analysis_runs_total",
			Help: "Analyses executed, by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	analysisRecords = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_analysis_records",
			Help:    "Records submitted per analysis",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
		[]string{"type"},
	)

	coreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_core_duration_seconds",
			Help:    "Time spent inside the analysis and lead engines",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
		[]string{"operation", "type"},
	)

	leadsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_leads_generated_total",
			Help: "Leads produced, by type and urgency",
		},
		[]string{"type", "urgency"},
	)

	quotaRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_quota_rejections_total",
			Help: "Requests rejected for exceeding plan limits",
		},
		[]string{"plan", "limit"},
	)

	usageResets = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_usage_resets_total",
			Help: "Profiles whose usage counters were reset",
		},
	)
)

// Middleware records request counts and latency per route pattern.
func Middleware(c *fiber.Ctx) error {
	start := time.Now()
	if err := c.Next(); err != nil {
		if herr := c.App().ErrorHandler(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	route := c.Route().Path
	status := strconv.Itoa(c.Response().StatusCode())
	httpRequestsTotal.WithLabelValues(c.Method(), route, status).Inc()
	httpRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
	return nil
}

// Handler serves the Prometheus exposition format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

// ObserveAnalysis records one analysis execution.
func ObserveAnalysis(analysisType string, records int, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	analysisRuns.WithLabelValues(analysisType, outcome).Inc()
	analysisRecords.WithLabelValues(analysisType).Observe(float64(records))
	coreDuration.WithLabelValues("analysis", analysisType).Observe(elapsed.Seconds())
}

// ObserveLeads records one lead generation pass.
func ObserveLeads(leadType string, urgencies []string, elapsed time.Duration) {
	coreDuration.WithLabelValues("leads", leadType).Observe(elapsed.Seconds())
	for _, u := range urgencies {
		leadsGenerated.WithLabelValues(leadType, u).Inc()
	}
}

func QuotaRejected(plan, limit string) {
	quotaRejections.WithLabelValues(plan, limit).Inc()
}

func UsageReset(n int64) {
	usageResets.Add(float64(n))
}
