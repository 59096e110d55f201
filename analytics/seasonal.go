package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Seasonality classifies a month against the yearly average.
type Seasonality string

const (
	SeasonPeak   Seasonality = "peak"
	SeasonHigh   Seasonality = "high"
	SeasonNormal Seasonality = "normal"
	SeasonLow    Seasonality = "low"
)

const nextPeakAlertMonths = 3

// MonthTrend is the averaged revenue of one calendar month across years.
type MonthTrend struct {
	Month          int         `json:"month"` // 1-12
	MonthName      string      `json:"monthName"`
	AverageRevenue float64     `json:"averageRevenue"`
	SalesCount     int         `json:"salesCount"` // average orders per year, rounded
	GrowthRate     float64     `json:"growthRate"` // percent vs. overall monthly average, 2 decimals
	Seasonality    Seasonality `json:"seasonality"`
}

// SeasonalMetrics summarizes how seasonal the business is.
type SeasonalMetrics struct {
	PeakMonth          string `json:"peakMonth"`
	LowMonth           string `json:"lowMonth"`
	SeasonalityIndex   int    `json:"seasonalityIndex"` // coefficient of variation, percent
	PredictedNextPeak  string `json:"predictedNextPeak"`
	NextPeakMonthsAway int    `json:"nextPeakMonthsAway"`
	StrongestQuarter   string `json:"strongestQuarter"`
}

// SeasonalResult is the seasonal_trends variant.
type SeasonalResult struct {
	Envelope
	MonthlyTrends []MonthTrend    `json:"monthlyTrends"`
	Metrics       SeasonalMetrics `json:"seasonalMetrics"`
}

func (r *SeasonalResult) Type() AnalysisType { return SeasonalTrends }
func (r *SeasonalResult) Common() *Envelope  { return &r.Envelope }
func (*SeasonalResult) sealed()              {}

// AnalyzeSeasonality averages revenue per calendar month and flags the
// strong and weak parts of the year.
func AnalyzeSeasonality(records []SalesRecord, now time.Time) *SeasonalResult {
	res := &SeasonalResult{
		Envelope:      newEnvelope(),
		MonthlyTrends: []MonthTrend{},
	}
	if len(records) == 0 {
		res.Insights = append(res.Insights, insufficientData("no sales to detect seasonal patterns"))
		return res
	}

	res.MonthlyTrends = MonthlyTrends(records)
	res.Metrics = seasonalMetrics(res.MonthlyTrends, now)
	res.Insights = seasonalInsights(res)
	res.Recommendations = seasonalRecommendations(res)
	return res
}

// MonthlyTrends returns all twelve calendar months. Each month's revenue is
// averaged over the distinct years that have sales in that month.
func MonthlyTrends(records []SalesRecord) []MonthTrend {
	var revenue [12]float64
	var count [12]int
	var years [12]map[int]struct{}
	for i := range years {
		years[i] = make(map[int]struct{})
	}

	for _, r := range records {
		d := r.Date.UTC()
		m := int(d.Month()) - 1
		revenue[m] += r.Amount
		count[m]++
		years[m][d.Year()] = struct{}{}
	}

	trends := make([]MonthTrend, 12)
	var sum float64
	for m := 0; m < 12; m++ {
		n := float64(max(1, len(years[m])))
		trends[m] = MonthTrend{
			Month:          m + 1,
			MonthName:      time.Month(m + 1).String(),
			AverageRevenue: revenue[m] / n,
			SalesCount:     int(math.Round(float64(count[m]) / n)),
		}
		sum += trends[m].AverageRevenue
	}

	overall := sum / 12
	for i := range trends {
		growth := safeRatio(trends[i].AverageRevenue-overall, overall) * 100
		trends[i].GrowthRate = round2(growth)
		trends[i].Seasonality = classifySeason(growth)
	}
	return trends
}

func classifySeason(growth float64) Seasonality {
	switch {
	case growth > 25:
		return SeasonPeak
	case growth > 10:
		return SeasonHigh
	case growth < -25:
		return SeasonLow
	}
	return SeasonNormal
}

func seasonalMetrics(trends []MonthTrend, now time.Time) SeasonalMetrics {
	ordered := make([]MonthTrend, len(trends))
	copy(ordered, trends)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].AverageRevenue > ordered[j].AverageRevenue })
	peak, low := ordered[0], ordered[len(ordered)-1]

	revenues := make([]float64, len(trends))
	for i, t := range trends {
		revenues[i] = t.AverageRevenue
	}
	index := 0
	if m := mean(revenues); m > 0 {
		index = int(math.Round(stdDev(revenues) / m * 100))
	}

	cur := now.UTC()
	away := peak.Month - int(cur.Month())
	if away <= 0 {
		away += 12
	}
	next := time.Date(cur.Year(), cur.Month()+time.Month(away), 1, 0, 0, 0, 0, time.UTC)

	return SeasonalMetrics{
		PeakMonth:          peak.MonthName,
		LowMonth:           low.MonthName,
		SeasonalityIndex:   index,
		PredictedNextPeak:  next.Format("January 2006"),
		NextPeakMonthsAway: away,
		StrongestQuarter:   strongestQuarter(trends),
	}
}

func strongestQuarter(trends []MonthTrend) string {
	best, bestRevenue := 0, math.Inf(-1)
	for q := 0; q < 4; q++ {
		var revenue float64
		for _, t := range trends[q*3 : q*3+3] {
			revenue += t.AverageRevenue
		}
		if revenue > bestRevenue {
			best, bestRevenue = q, revenue
		}
	}
	return fmt.Sprintf("Q%d", best+1)
}

func quarterRevenue(trends []MonthTrend, quarter string) float64 {
	var q int
	fmt.Sscanf(quarter, "Q%d", &q)
	var revenue float64
	for _, t := range trends {
		if (t.Month-1)/3+1 == q {
			revenue += t.AverageRevenue
		}
	}
	return revenue
}

func monthsBySeason(trends []MonthTrend, seasons ...Seasonality) []MonthTrend {
	var out []MonthTrend
	for _, t := range trends {
		for _, s := range seasons {
			if t.Seasonality == s {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

func monthNames(trends []MonthTrend) string {
	names := make([]string, len(trends))
	for i, t := range trends {
		names[i] = t.MonthName
	}
	return strings.Join(names, ", ")
}

func trendRevenue(trends []MonthTrend) float64 {
	var sum float64
	for _, t := range trends {
		sum += t.AverageRevenue
	}
	return sum
}

func seasonalInsights(res *SeasonalResult) []string {
	m := res.Metrics
	insights := []string{
		fmt.Sprintf("Peak sales month: %s", m.PeakMonth),
		fmt.Sprintf("Lowest sales month: %s", m.LowMonth),
		fmt.Sprintf("Business seasonality index: %d%% (higher = more seasonal)", m.SeasonalityIndex),
	}

	switch {
	case m.SeasonalityIndex > 30:
		insights = append(insights, "High seasonality detected - significant monthly variations in revenue")
	case m.SeasonalityIndex < 15:
		insights = append(insights, "Low seasonality - relatively stable revenue throughout the year")
	}

	insights = append(insights, fmt.Sprintf("Next predicted peak: %s", m.PredictedNextPeak))

	if strong := monthsBySeason(res.MonthlyTrends, SeasonPeak, SeasonHigh); len(strong) > 0 {
		insights = append(insights, "Strong months: "+monthNames(strong))
	}
	if weak := monthsBySeason(res.MonthlyTrends, SeasonLow); len(weak) > 0 {
		insights = append(insights, "Weak months: "+monthNames(weak))
	}

	insights = append(insights, fmt.Sprintf("Strongest quarter: %s (%s avg)",
		m.StrongestQuarter, money(quarterRevenue(res.MonthlyTrends, m.StrongestQuarter))))
	return insights
}

func seasonalRecommendations(res *SeasonalResult) []Recommendation {
	recs := []Recommendation{}
	m := res.Metrics

	if strong := monthsBySeason(res.MonthlyTrends, SeasonPeak, SeasonHigh); len(strong) > 0 {
		names := monthNames(strong)
		recs = append(recs, recommend(
			"Prepare for Peak Season: "+names,
			"Peak months identified. Increase inventory, staff, and marketing budget 2 months in advance.",
			PriorityHigh, trendRevenue(strong)*0.15,
			roleContact("Operations Manager", "Prepare operations for peak months: "+names),
			roleContact("Inventory Manager", "Increase inventory levels before peak season"),
			roleContact("Marketing Manager", "Plan peak season marketing campaigns"),
		))
	}

	if weak := monthsBySeason(res.MonthlyTrends, SeasonLow); len(weak) > 0 {
		names := monthNames(weak)
		recs = append(recs, recommend(
			"Boost Low Season Performance: "+names,
			"Low-performing months identified. Implement promotions, new product launches, or cost reduction strategies.",
			PriorityMedium, trendRevenue(weak)*0.25,
			roleContact("Sales Manager", "Plan special promotions for low months: "+names),
			roleContact("Product Manager", "Consider new product launches during slow periods"),
		))
	}

	if m.SeasonalityIndex > 30 {
		recs = append(recs, recommend(
			"Implement Seasonal Cash Flow Management",
			fmt.Sprintf("High seasonality (%d%%) requires careful cash flow planning. Build reserves during peak months.", m.SeasonalityIndex),
			PriorityMedium, trendRevenue(res.MonthlyTrends)*0.05,
			roleContact("CFO/Finance Manager", "Develop seasonal cash flow management strategy"),
			roleContact("Business Development Manager", "Explore counter-seasonal revenue opportunities"),
		))
	}

	if m.NextPeakMonthsAway <= nextPeakAlertMonths {
		var peakRevenue float64
		for _, t := range res.MonthlyTrends {
			if t.MonthName == m.PeakMonth {
				peakRevenue = t.AverageRevenue
			}
		}
		recs = append(recs, recommend(
			fmt.Sprintf("Immediate: Next Peak Season in %d Month(s)", m.NextPeakMonthsAway),
			fmt.Sprintf("%s is approaching. Finalize inventory, staffing, and marketing preparations now.", m.PredictedNextPeak),
			PriorityHigh, peakRevenue*0.2,
			roleContact("Operations Director", fmt.Sprintf("Urgent: Peak season %s preparation needed", m.PredictedNextPeak)),
		))
	}
	return recs
}
