package analytics

import (
	"fmt"
	"math"
)

const (
	cashFlowWindow    = 3
	cashFlowMinMonths = 3
	cashFlowTrendBand = 10.0
)

// CashFlowResult is the cash_flow_prediction variant.
type CashFlowResult struct {
	Envelope
	Predictions        []ForecastPoint `json:"predictions"`
	History            []MonthlyTotal  `json:"history"`
	Trend              Trend           `json:"trend"`
	AverageMonthlyFlow float64         `json:"averageMonthlyFlow"`
}

func (r *CashFlowResult) Type() AnalysisType { return CashFlowPrediction }
func (r *CashFlowResult) Common() *Envelope  { return &r.Envelope }
func (*CashFlowResult) sealed()              {}

// PredictCashFlow projects the next months as the moving average of the
// trailing window.
func PredictCashFlow(records []SalesRecord) *CashFlowResult {
	months := AggregateByMonth(records)
	values := monthlyValues(months)

	res := &CashFlowResult{
		Envelope:           newEnvelope(),
		Predictions:        []ForecastPoint{},
		History:            months,
		Trend:              classifyCashFlowTrend(values),
		AverageMonthlyFlow: mean(values),
	}
	if len(months) >= cashFlowMinMonths {
		res.Predictions = movingAverageForecast(months, cashFlowWindow, forecastHorizon)
	}

	res.Insights = cashFlowInsights(months, res)
	res.Recommendations = cashFlowRecommendations(res)
	return res
}

func movingAverageForecast(months []MonthlyTotal, window, horizon int) []ForecastPoint {
	values := monthlyValues(months)
	trailing := values[len(values)-min(window, len(values)):]
	avg := mean(trailing)
	confidence := math.Max(confidenceFloor, 1-safeRatio(stdDev(trailing), avg)*0.5)

	last := periodStart(months[len(months)-1].Period)
	points := make([]ForecastPoint, 0, horizon)
	for i := 1; i <= horizon; i++ {
		month := last.AddDate(0, i, 0)
		points = append(points, ForecastPoint{
			Month:      monthLabel(month),
			Period:     month.Format("2006-01"),
			Predicted:  math.Max(0, avg),
			Confidence: math.Min(1, confidence),
		})
	}
	return points
}

func classifyCashFlowTrend(values []float64) Trend {
	if len(values) < cashFlowMinMonths {
		return TrendStable
	}
	change, ok := windowChange(values)
	switch {
	case !ok:
		return TrendStable
	case change > cashFlowTrendBand:
		return TrendImproving
	case change < -cashFlowTrendBand:
		return TrendDeclining
	}
	return TrendStable
}

func cashFlowInsights(months []MonthlyTotal, res *CashFlowResult) []string {
	insights := []string{}
	if len(res.Predictions) == 0 {
		return append(insights, insufficientData(
			"need at least %d months of history to predict cash flow, have %d",
			cashFlowMinMonths, len(months)))
	}

	next := res.Predictions[0]
	insights = append(insights,
		fmt.Sprintf("Average monthly cash flow: %s", money(res.AverageMonthlyFlow)),
		fmt.Sprintf("Next month prediction: %s (%d%% confidence)", money(next.Predicted), int(math.Round(next.Confidence*100))),
		fmt.Sprintf("Cash flow trend: %s", res.Trend),
	)

	switch res.Trend {
	case TrendDeclining:
		insights = append(insights, "Warning: Cash flow is declining - immediate action recommended")
	case TrendImproving:
		insights = append(insights, "Positive: Cash flow is improving - consider scaling operations")
	}

	insights = append(insights, fmt.Sprintf("Total predicted cash flow (next %d months): %s",
		len(res.Predictions), money(totalPredicted(res.Predictions))))
	return insights
}

func cashFlowRecommendations(res *CashFlowResult) []Recommendation {
	recs := []Recommendation{}
	if len(res.Predictions) == 0 {
		return recs
	}
	avg := res.AverageMonthlyFlow

	if res.Trend == TrendDeclining {
		recs = append(recs, recommend(
			"Urgent: Address Cash Flow Decline",
			"Cash flow is trending downward. Implement immediate cost reduction and revenue acceleration strategies.",
			PriorityHigh, avg*0.3,
			roleContact("CFO/Finance Manager", "Review cash flow projections and implement cost controls"),
			roleContact("Sales Director", "Accelerate revenue collection and new sales"),
		))
	}

	if res.Trend == TrendImproving && avg > 50000 {
		recs = append(recs, recommend(
			"Scale Operations for Growth",
			"Strong cash flow trend detected. Consider investing in growth opportunities.",
			PriorityMedium, avg*0.2,
			roleContact("Operations Manager", "Plan operational scaling for sustained growth"),
		))
	}

	lowest := res.Predictions[0]
	for _, p := range res.Predictions[1:] {
		if p.Predicted < lowest.Predicted {
			lowest = p
		}
	}
	if lowest.Predicted < avg*0.7 {
		recs = append(recs, recommend(
			fmt.Sprintf("Prepare for %s Cash Flow Dip", lowest.Month),
			fmt.Sprintf("%s shows lower predicted cash flow. Ensure adequate reserves.", lowest.Month),
			PriorityMedium, avg-lowest.Predicted,
			roleContact("Finance Manager", fmt.Sprintf("Prepare cash reserves for %s shortfall", lowest.Month)),
		))
	}
	return recs
}
