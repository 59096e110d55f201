package analytics

import (
	"fmt"
	"math"
	"time"
)

const (
	forecastHorizon   = 3
	forecastMinMonths = 2
	confidenceFloor   = 0.6
	salesTrendBand    = 5.0
)

// Trend is the direction of a revenue series.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
	TrendImproving  Trend = "improving"
	TrendDeclining  Trend = "declining"
)

// ForecastPoint is one projected month.
type ForecastPoint struct {
	Month      string  `json:"month"`  // display label, e.g. "May 2024"
	Period     string  `json:"period"` // YYYY-MM
	Predicted  float64 `json:"predicted"`
	Confidence float64 `json:"confidence"`
}

// SalesForecastResult is the sales_forecasting variant.
type SalesForecastResult struct {
	Envelope
	Forecast   []ForecastPoint `json:"forecast"`
	History    []MonthlyTotal  `json:"history"`
	Trend      Trend           `json:"trend"`
	GrowthRate float64         `json:"growthRate"`
	Slope      float64         `json:"slope"`
	Intercept  float64         `json:"intercept"`
}

func (r *SalesForecastResult) Type() AnalysisType { return SalesForecasting }
func (r *SalesForecastResult) Common() *Envelope  { return &r.Envelope }
func (*SalesForecastResult) sealed()              {}

// ForecastSales projects monthly revenue with an ordinary least-squares
// line over the monthly totals.
func ForecastSales(records []SalesRecord) *SalesForecastResult {
	months := AggregateByMonth(records)
	values := monthlyValues(months)

	res := &SalesForecastResult{
		Envelope: newEnvelope(),
		Forecast: []ForecastPoint{},
		History:  months,
		Trend:    TrendStable,
	}

	if len(months) >= forecastMinMonths {
		res.Slope, res.Intercept = linearFit(values)
		res.Forecast = projectLinear(months, res.Slope, res.Intercept, forecastHorizon)
		res.Trend = classifySalesTrend(values)
		res.GrowthRate = growthRate(values)
	}

	res.Insights = salesForecastInsights(months, res)
	res.Recommendations = salesForecastRecommendations(res)
	return res
}

// linearFit returns slope and intercept of y over x = 0..n-1.
func linearFit(values []float64) (slope, intercept float64) {
	n := float64(len(values))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	slope = safeRatio(n*sumXY-sumX*sumY, n*sumXX-sumX*sumX)
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

func projectLinear(months []MonthlyTotal, slope, intercept float64, horizon int) []ForecastPoint {
	n := len(months)
	last := periodStart(months[n-1].Period)

	points := make([]ForecastPoint, 0, horizon)
	for i := 1; i <= horizon; i++ {
		month := last.AddDate(0, i, 0)
		predicted := slope*float64(n+i-1) + intercept
		points = append(points, ForecastPoint{
			Month:      monthLabel(month),
			Period:     month.Format("2006-01"),
			Predicted:  math.Max(0, predicted),
			Confidence: math.Max(confidenceFloor, 1-float64(i)*0.1),
		})
	}
	return points
}

// periodStart parses a YYYY-MM key into the first day of that month (UTC).
func periodStart(period string) time.Time {
	t, err := time.Parse("2006-01", period)
	if err != nil {
		return time.Time{}
	}
	return t
}

// windowChange compares the mean of the last three values against the mean
// of the three before them and returns the change in percent. ok is false
// when there is no earlier window to compare with.
func windowChange(values []float64) (change float64, ok bool) {
	n := len(values)
	recent := values[max(0, n-3):]
	older := values[max(0, n-6):max(0, n-3)]
	if len(recent) == 0 || len(older) == 0 {
		return 0, false
	}

	recentAvg, olderAvg := mean(recent), mean(older)
	if olderAvg == 0 {
		switch {
		case recentAvg > 0:
			return math.MaxFloat64, true
		case recentAvg < 0:
			return -math.MaxFloat64, true
		}
		return 0, true
	}
	return (recentAvg - olderAvg) / olderAvg * 100, true
}

func classifySalesTrend(values []float64) Trend {
	if len(values) < 2 {
		return TrendStable
	}
	change, ok := windowChange(values)
	switch {
	case !ok:
		return TrendStable
	case change > salesTrendBand:
		return TrendIncreasing
	case change < -salesTrendBand:
		return TrendDecreasing
	}
	return TrendStable
}

// growthRate compares the mean of the first half of the series with the
// mean of the second half, in percent.
func growthRate(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	half := len(values) / 2
	first, second := mean(values[:half]), mean(values[half:])
	return safeRatio(second-first, first) * 100
}

func salesForecastInsights(months []MonthlyTotal, res *SalesForecastResult) []string {
	insights := []string{}

	if len(months) > 0 {
		current := months[len(months)-1]
		insights = append(insights, fmt.Sprintf("Current month revenue: %s", money(current.Total)))
	}

	if len(res.Forecast) == 0 {
		return append(insights, insufficientData(
			"not enough monthly history to forecast (need at least %d months, have %d)",
			forecastMinMonths, len(months)))
	}

	next := res.Forecast[0]
	insights = append(insights,
		fmt.Sprintf("Next month forecast: %s (%d%% confidence)", money(next.Predicted), int(math.Round(next.Confidence*100))),
		fmt.Sprintf("Sales trend: %s with %.1f%% growth rate", res.Trend, res.GrowthRate),
	)

	switch res.Trend {
	case TrendIncreasing:
		insights = append(insights, "Strong upward momentum detected - consider scaling operations")
	case TrendDecreasing:
		insights = append(insights, "Declining trend identified - immediate action recommended")
	}

	insights = append(insights, fmt.Sprintf("Total forecasted revenue (next %d months): %s",
		len(res.Forecast), money(totalPredicted(res.Forecast))))
	return insights
}

func salesForecastRecommendations(res *SalesForecastResult) []Recommendation {
	recs := []Recommendation{}
	if len(res.Forecast) == 0 {
		return recs
	}
	total := totalPredicted(res.Forecast)

	if res.Trend == TrendIncreasing && res.GrowthRate > 10 {
		recs = append(recs, recommend(
			"Scale Operations for Growth",
			"Strong growth trend detected. Consider increasing inventory, staff, and marketing budget.",
			PriorityHigh, total*0.15,
			roleContact("Operations Manager", "Coordinate scaling operations for projected growth"),
			roleContact("Finance Director", "Approve budget increase for growth initiatives"),
		))
	}

	if res.Trend == TrendDecreasing {
		recs = append(recs, recommend(
			"Urgent: Address Declining Sales",
			"Sales are trending downward. Implement retention campaigns and review pricing strategy.",
			PriorityHigh, total*0.25,
			roleContact("Sales Director", "Implement immediate sales recovery strategies"),
			roleContact("Marketing Manager", "Launch customer retention and acquisition campaigns"),
		))
	}

	peak := res.Forecast[0]
	for _, p := range res.Forecast[1:] {
		if p.Predicted > peak.Predicted {
			peak = p
		}
	}
	recs = append(recs, recommend(
		fmt.Sprintf("Prepare for %s Peak", peak.Month),
		fmt.Sprintf("%s shows highest revenue potential. Ensure adequate resources and inventory.", peak.Month),
		PriorityMedium, peak.Predicted*0.1,
		roleContact("Supply Chain Manager", fmt.Sprintf("Prepare inventory for %s peak demand", peak.Month)),
	))
	return recs
}

func totalPredicted(points []ForecastPoint) float64 {
	var total float64
	for _, p := range points {
		total += p.Predicted
	}
	return total
}
