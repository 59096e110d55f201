package analytics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecastSalesRegression(t *testing.T) {
	res := ForecastSales(fourMonths())

	assert.InDelta(t, 120, res.Slope, 1e-9)
	assert.InDelta(t, 970, res.Intercept, 1e-9)
	require.Len(t, res.Forecast, 3)

	want := []struct {
		period, month string
		predicted     float64
	}{
		{"2024-05", "May 2024", 1450},
		{"2024-06", "Jun 2024", 1570},
		{"2024-07", "Jul 2024", 1690},
	}
	for i, w := range want {
		assert.Equal(t, w.period, res.Forecast[i].Period)
		assert.Equal(t, w.month, res.Forecast[i].Month)
		assert.InDelta(t, w.predicted, res.Forecast[i].Predicted, 1e-6)
	}

	assert.Equal(t, TrendIncreasing, res.Trend)
	assert.InDelta(t, 9.0909, res.GrowthRate, 1e-3)
}

func TestForecastConfidenceNonIncreasing(t *testing.T) {
	res := ForecastSales(fourMonths())
	require.NotEmpty(t, res.Forecast)

	prev := 1.0
	for _, p := range res.Forecast {
		assert.LessOrEqual(t, p.Confidence, prev)
		assert.GreaterOrEqual(t, p.Confidence, 0.6)
		prev = p.Confidence
	}
	assert.InDelta(t, 0.9, res.Forecast[0].Confidence, 1e-9)
	assert.InDelta(t, 0.7, res.Forecast[2].Confidence, 1e-9)
}

func TestForecastRecommendations(t *testing.T) {
	res := ForecastSales(fourMonths())

	// growth is below 10%, so only the peak preparation applies
	require.Len(t, res.Recommendations, 1)
	rec := res.Recommendations[0]
	assert.Equal(t, "Prepare for Jul 2024 Peak", rec.Title)
	assert.Equal(t, PriorityMedium, rec.Priority)
	assert.Equal(t, 169.0, rec.RevenueImpact)
	assert.Equal(t, ImpactPotential, rec.ImpactType)
	require.Len(t, rec.Contacts, 1)
	assert.Nil(t, rec.Contacts[0].Email)

	assert.Contains(t, res.Insights, "Next month forecast: $1,450 (90% confidence)")
	assert.Contains(t, res.Insights, "Total forecasted revenue (next 3 months): $4,710")
}

func TestForecastDecliningSales(t *testing.T) {
	var records []SalesRecord
	for i, a := range []float64{5000, 5000, 5000, 2000, 2000, 2000} {
		records = append(records, sale("Acme", time.Date(2024, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC), a))
	}

	res := ForecastSales(records)
	assert.Equal(t, TrendDecreasing, res.Trend)
	for _, p := range res.Forecast {
		assert.GreaterOrEqual(t, p.Predicted, 0.0)
	}
	assert.Equal(t, "Urgent: Address Declining Sales", res.Recommendations[0].Title)
}

func TestForecastInsufficientHistory(t *testing.T) {
	res := ForecastSales([]SalesRecord{sale("Acme", daysAgo(3), 500)})

	assert.NotNil(t, res.Forecast)
	assert.Empty(t, res.Forecast)
	assert.Empty(t, res.Recommendations)
	assert.Equal(t, TrendStable, res.Trend)
	require.NotEmpty(t, res.Insights)
	assert.True(t, strings.HasPrefix(res.Insights[len(res.Insights)-1], InsufficientDataPrefix))
}

func TestForecastIsPure(t *testing.T) {
	records := fourMonths()
	snapshot := append([]SalesRecord(nil), records...)

	first := ForecastSales(records)
	second := ForecastSales(records)
	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, records)
}
