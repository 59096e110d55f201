package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ProfitClass grades an estimated margin.
type ProfitClass string

const (
	ProfitHigh     ProfitClass = "high"
	ProfitMedium   ProfitClass = "medium"
	ProfitLow      ProfitClass = "low"
	ProfitNegative ProfitClass = "negative"
)

// ProfitabilityMetrics are business-wide estimates.
type ProfitabilityMetrics struct {
	TotalRevenue       float64 `json:"totalRevenue"`
	EstimatedCosts     float64 `json:"estimatedCosts"`
	GrossProfit        float64 `json:"grossProfit"`
	ProfitMargin       float64 `json:"profitMargin"` // percent, 2 decimals
	AverageOrderProfit float64 `json:"averageOrderProfit"`
}

// ProfitEntry is the estimated profit of one product or customer.
type ProfitEntry struct {
	Name          string      `json:"name"`
	Revenue       float64     `json:"revenue"`
	EstimatedCost float64     `json:"estimatedCost"`
	Profit        float64     `json:"profit"`
	Margin        float64     `json:"margin"` // percent, 2 decimals
	Profitability ProfitClass `json:"profitability"`
}

// ProfitabilityResult is the profitability_analysis variant. All figures
// derive from the cost model, not from real cost data.
type ProfitabilityResult struct {
	Envelope
	Metrics   ProfitabilityMetrics `json:"profitabilityMetrics"`
	Products  []ProfitEntry        `json:"productProfitability"`
	Customers []ProfitEntry        `json:"customerProfitability"`
}

func (r *ProfitabilityResult) Type() AnalysisType { return ProfitabilityAnalysis }
func (r *ProfitabilityResult) Common() *Envelope  { return &r.Envelope }
func (*ProfitabilityResult) sealed()              {}

// AnalyzeProfitability estimates margins by product and by customer using
// costs. A nil costs uses DefaultCostModel.
func AnalyzeProfitability(records []SalesRecord, costs CostModel) *ProfitabilityResult {
	if costs == nil {
		costs = DefaultCostModel()
	}
	res := &ProfitabilityResult{
		Envelope:  newEnvelope(),
		Products:  []ProfitEntry{},
		Customers: []ProfitEntry{},
	}
	if len(records) == 0 {
		res.Insights = append(res.Insights, insufficientData("no sales to estimate profitability"))
		return res
	}

	res.Metrics = overallProfitability(records, costs)
	res.Products = profitByDimension(records, ProductKey, costs)
	res.Customers = profitByDimension(records, CustomerKey, costs)
	res.Insights = profitabilityInsights(res)
	res.Recommendations = profitabilityRecommendations(res)
	return res
}

func overallProfitability(records []SalesRecord, costs CostModel) ProfitabilityMetrics {
	var revenue float64
	for _, r := range records {
		revenue += r.Amount
	}
	cost := revenue * costs.OverallRatio()
	profit := revenue - cost
	return ProfitabilityMetrics{
		TotalRevenue:       revenue,
		EstimatedCosts:     cost,
		GrossProfit:        profit,
		ProfitMargin:       round2(safeRatio(profit, revenue) * 100),
		AverageOrderProfit: safeRatio(profit, float64(len(records))),
	}
}

func profitByDimension(records []SalesRecord, keyFn KeyFunc, costs CostModel) []ProfitEntry {
	groups := SortedDimensions(AggregateByDimension(records, keyFn))
	entries := make([]ProfitEntry, 0, len(groups))
	for _, g := range groups {
		cost := g.Total * costs.RatioFor(g.Total)
		profit := g.Total - cost
		margin := round2(safeRatio(profit, g.Total) * 100)
		entries = append(entries, ProfitEntry{
			Name:          g.Label,
			Revenue:       g.Total,
			EstimatedCost: cost,
			Profit:        profit,
			Margin:        margin,
			Profitability: classifyMargin(margin),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Profit > entries[j].Profit })
	return entries
}

func classifyMargin(margin float64) ProfitClass {
	switch {
	case margin > 40:
		return ProfitHigh
	case margin > 20:
		return ProfitMedium
	case margin > 0:
		return ProfitLow
	}
	return ProfitNegative
}

func entriesByClass(entries []ProfitEntry, classes ...ProfitClass) []ProfitEntry {
	var out []ProfitEntry
	for _, e := range entries {
		for _, c := range classes {
			if e.Profitability == c {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

func marginLabels(entries []ProfitEntry) string {
	labels := make([]string, len(entries))
	for i, e := range entries {
		labels[i] = fmt.Sprintf("%s (%.2f%%)", e.Name, e.Margin)
	}
	return strings.Join(labels, ", ")
}

func profitabilityInsights(res *ProfitabilityResult) []string {
	m := res.Metrics
	insights := []string{
		fmt.Sprintf("Total revenue: %s", money(m.TotalRevenue)),
		fmt.Sprintf("Estimated gross profit: %s", money(m.GrossProfit)),
		fmt.Sprintf("Overall profit margin: %.2f%%", m.ProfitMargin),
	}

	switch {
	case m.ProfitMargin > 40:
		insights = append(insights, "Excellent: High profit margins - strong business model")
	case m.ProfitMargin > 25:
		insights = append(insights, "Good: Healthy profit margins - room for optimization")
	case m.ProfitMargin > 10:
		insights = append(insights, "Moderate: Profit margins need improvement")
	default:
		insights = append(insights, "Warning: Low profit margins - immediate action needed")
	}

	if high := entriesByClass(res.Products, ProfitHigh); len(high) > 0 {
		insights = append(insights,
			fmt.Sprintf("%d high-profit products identified", len(high)),
			fmt.Sprintf("Top profit product: %s (%.2f%% margin)", high[0].Name, high[0].Margin),
		)
	}
	if low := entriesByClass(res.Products, ProfitLow, ProfitNegative); len(low) > 0 {
		insights = append(insights, fmt.Sprintf("%d low-profit products need attention", len(low)))
	}

	if high := entriesByClass(res.Customers, ProfitHigh); len(high) > 0 {
		top := res.Customers[0]
		insights = append(insights,
			fmt.Sprintf("%d high-profit customers identified", len(high)),
			fmt.Sprintf("Most profitable customer: %s (%s profit)", top.Name, money(top.Profit)),
		)
	}
	if low := entriesByClass(res.Customers, ProfitLow, ProfitNegative); len(low) > 0 {
		insights = append(insights, fmt.Sprintf("%d low-profit customers may need service optimization", len(low)))
	}

	insights = append(insights, "Costs are estimated from revenue tiers, not actual cost data")
	return insights
}

func profitabilityRecommendations(res *ProfitabilityResult) []Recommendation {
	m := res.Metrics
	recs := []Recommendation{}

	if high := entriesByClass(res.Products, ProfitHigh); len(high) > 0 {
		var profit float64
		for _, e := range high {
			profit += e.Profit
		}
		recs = append(recs, recommend(
			"Scale High-Profit Products",
			fmt.Sprintf("%d products show excellent margins. Increase marketing and sales focus on these profitable offerings.", len(high)),
			PriorityHigh, profit*0.3,
			roleContact("Product Manager", "Focus on high-margin products: "+marginLabels(high[:min(3, len(high))])),
			roleContact("Sales Manager", "Prioritize selling high-profit products"),
		))
	}

	if low := entriesByClass(res.Products, ProfitLow, ProfitNegative); len(low) > 0 {
		var loss float64
		for _, e := range low {
			loss += math.Abs(e.Profit)
		}
		recs = append(recs, recommend(
			"Optimize or Discontinue Low-Profit Products",
			fmt.Sprintf("%d products have poor margins. Review pricing, costs, or consider discontinuation.", len(low)),
			PriorityHigh, loss*0.5,
			roleContact("Product Manager", "Review low-margin products: "+marginLabels(low[:min(3, len(low))])),
			roleContact("Operations Manager", "Analyze cost reduction opportunities for underperforming products"),
		))
	}

	if high := entriesByClass(res.Customers, ProfitHigh); len(high) > 0 {
		var profit float64
		contacts := make([]ContactInfo, 0, 5)
		for i, e := range high {
			profit += e.Profit
			if i < 5 {
				value := e.Profit
				contacts = append(contacts, ContactInfo{
					Name:         e.Name,
					Context:      fmt.Sprintf("High-profit customer: %s profit (%.2f%% margin)", money(e.Profit), e.Margin),
					RevenueValue: &value,
				})
			}
		}
		recs = append(recs, recommend(
			"Nurture High-Profit Customers",
			fmt.Sprintf("%d customers generate excellent margins. Implement VIP program and increase engagement.", len(high)),
			PriorityHigh, profit*0.2,
			contacts...,
		))
	}

	if m.ProfitMargin < 30 {
		recs = append(recs, recommend(
			"Implement Margin Improvement Strategy",
			fmt.Sprintf("Current margin is %.2f%%. Focus on cost reduction, pricing optimization, and operational efficiency.", m.ProfitMargin),
			PriorityHigh, m.TotalRevenue*0.05,
			roleContact("CFO/Finance Manager", "Develop comprehensive margin improvement strategy"),
			roleContact("Operations Director", "Identify cost reduction opportunities across operations"),
			roleContact("Pricing Manager", "Review and optimize pricing strategy for better margins"),
		))
	}

	recs = append(recs, recommend(
		"Optimize Operational Costs",
		fmt.Sprintf("Estimated costs are %s. Identify cost reduction opportunities to improve profitability.", money(m.EstimatedCosts)),
		PriorityMedium, m.EstimatedCosts*0.1,
		roleContact("Operations Manager", "Conduct comprehensive cost analysis and optimization"),
		roleContact("Procurement Manager", "Negotiate better supplier terms and reduce material costs"),
	))
	return recs
}
