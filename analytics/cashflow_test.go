package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monthlySales(amounts ...float64) []SalesRecord {
	records := make([]SalesRecord, len(amounts))
	for i, a := range amounts {
		records[i] = sale("Acme", time.Date(2024, time.Month(i+1), 10, 0, 0, 0, 0, time.UTC), a)
	}
	return records
}

func TestPredictCashFlowSteady(t *testing.T) {
	res := PredictCashFlow(monthlySales(1000, 1000, 1000))

	require.Len(t, res.Predictions, 3)
	for _, p := range res.Predictions {
		assert.Equal(t, 1000.0, p.Predicted)
		assert.Equal(t, 1.0, p.Confidence)
	}
	assert.Equal(t, "Apr 2024", res.Predictions[0].Month)
	assert.Equal(t, TrendStable, res.Trend)
	assert.Equal(t, 1000.0, res.AverageMonthlyFlow)
	assert.Empty(t, res.Recommendations)
}

func TestPredictCashFlowDeclining(t *testing.T) {
	res := PredictCashFlow(monthlySales(2000, 2000, 2000, 1000, 1000, 1000))

	assert.Equal(t, TrendDeclining, res.Trend)
	assert.Equal(t, 1500.0, res.AverageMonthlyFlow)
	require.Len(t, res.Recommendations, 2)

	assert.Equal(t, "Urgent: Address Cash Flow Decline", res.Recommendations[0].Title)
	assert.Equal(t, 450.0, res.Recommendations[0].RevenueImpact)
	assert.Equal(t, PriorityHigh, res.Recommendations[0].Priority)

	assert.Equal(t, "Prepare for Jul 2024 Cash Flow Dip", res.Recommendations[1].Title)
	assert.Equal(t, 500.0, res.Recommendations[1].RevenueImpact)
	assert.Contains(t, res.Insights, "Warning: Cash flow is declining - immediate action recommended")
}

func TestPredictCashFlowConfidenceFloor(t *testing.T) {
	res := PredictCashFlow(monthlySales(100, 10000, 100))

	require.NotEmpty(t, res.Predictions)
	assert.Equal(t, 0.6, res.Predictions[0].Confidence)
}

func TestPredictCashFlowNeedsThreeMonths(t *testing.T) {
	res := PredictCashFlow(monthlySales(1000, 2000))

	assert.Empty(t, res.Predictions)
	assert.Empty(t, res.Recommendations)
	require.Len(t, res.Insights, 1)
	assert.Contains(t, res.Insights[0], InsufficientDataPrefix)
}
