package analytics

import (
	"fmt"
	"math"
	"time"
)

// Day thresholds for the retention segmentation. They are independent of
// the customer analysis segments on purpose.
const (
	retentionNewDays     = 30
	retentionActiveDays  = 90
	retentionChurnDays   = 180
	retentionLapsedDays  = 365
	retentionAtRiskSpend = 500
)

// RetentionMetrics summarizes the retention segmentation.
type RetentionMetrics struct {
	OverallRetentionRate         float64 `json:"overallRetentionRate"` // percent, 2 decimals
	AverageDaysSinceLastPurchase int     `json:"averageDaysSinceLastPurchase"`
	NewCustomers                 int     `json:"newCustomers"`
	LoyalCustomers               int     `json:"loyalCustomers"`
	AtRiskCustomers              int     `json:"atRiskCustomers"`
	ChurnedCustomers             int     `json:"churnedCustomers"`
	LapsedOverYear               int     `json:"lapsedOverYear"`
}

// RetentionSegments buckets customers by recency and frequency.
type RetentionSegments struct {
	New     []Customer `json:"new"`
	Loyal   []Customer `json:"loyal"`
	AtRisk  []Customer `json:"atRisk"`
	Churned []Customer `json:"churned"`
}

// RetentionResult is the customer_retention variant.
type RetentionResult struct {
	Envelope
	Metrics  RetentionMetrics  `json:"retentionMetrics"`
	Segments RetentionSegments `json:"customerSegments"`
}

func (r *RetentionResult) Type() AnalysisType { return CustomerRetention }
func (r *RetentionResult) Common() *Envelope  { return &r.Envelope }
func (*RetentionResult) sealed()              {}

// AnalyzeRetention measures how many customers keep coming back.
func AnalyzeRetention(records []SalesRecord, now time.Time) *RetentionResult {
	customers := BuildCustomers(records)
	res := &RetentionResult{
		Envelope: newEnvelope(),
		Segments: SegmentByRetention(customers, now),
	}
	if len(customers) == 0 {
		res.Insights = append(res.Insights, insufficientData("no customers found to measure retention"))
		return res
	}

	res.Metrics = retentionMetrics(customers, res.Segments, now)
	res.Insights = retentionInsights(res)
	res.Recommendations = retentionRecommendations(res, now)
	return res
}

// SegmentByRetention splits customers into new, loyal, at-risk and churned.
// New means a first purchase in the last 30 days and at most two orders;
// loyal means three or more orders with activity in the last 90 days.
// Customers inactive for more than 180 days are churned. Everyone else is
// at risk.
func SegmentByRetention(customers []Customer, now time.Time) RetentionSegments {
	seg := RetentionSegments{
		New:     []Customer{},
		Loyal:   []Customer{},
		AtRisk:  []Customer{},
		Churned: []Customer{},
	}
	for _, c := range customers {
		sinceLast := daysBetween(c.LastPurchase, now)
		sinceFirst := daysBetween(c.FirstPurchase, now)
		switch {
		case sinceFirst < retentionNewDays && c.PurchaseCount <= 2:
			seg.New = append(seg.New, c)
		case c.PurchaseCount >= 3 && sinceLast < retentionActiveDays:
			seg.Loyal = append(seg.Loyal, c)
		case sinceLast > retentionActiveDays && sinceLast < retentionChurnDays && c.TotalSpent > retentionAtRiskSpend:
			seg.AtRisk = append(seg.AtRisk, c)
		case sinceLast > retentionChurnDays:
			seg.Churned = append(seg.Churned, c)
		default:
			seg.AtRisk = append(seg.AtRisk, c)
		}
	}
	return seg
}

func retentionMetrics(customers []Customer, seg RetentionSegments, now time.Time) RetentionMetrics {
	var totalDays float64
	lapsed := 0
	for _, c := range customers {
		d := daysBetween(c.LastPurchase, now)
		totalDays += d
		if d > retentionLapsedDays {
			lapsed++
		}
	}
	total := float64(len(customers))
	active := float64(len(seg.Loyal) + len(seg.New))

	return RetentionMetrics{
		OverallRetentionRate:         round2(safeRatio(active, total) * 100),
		AverageDaysSinceLastPurchase: int(math.Round(safeRatio(totalDays, total))),
		NewCustomers:                 len(seg.New),
		LoyalCustomers:               len(seg.Loyal),
		AtRiskCustomers:              len(seg.AtRisk),
		ChurnedCustomers:             len(seg.Churned),
		LapsedOverYear:               lapsed,
	}
}

func retentionInsights(res *RetentionResult) []string {
	m := res.Metrics
	insights := []string{
		fmt.Sprintf("Overall customer retention rate: %.2f%%", m.OverallRetentionRate),
		fmt.Sprintf("%d loyal customers identified", m.LoyalCustomers),
		fmt.Sprintf("%d customers at risk of churning", m.AtRiskCustomers),
		fmt.Sprintf("%d customers have churned (6+ months inactive)", m.ChurnedCustomers),
	}

	switch {
	case m.OverallRetentionRate < 70:
		insights = append(insights, "Warning: Low retention rate - immediate action needed")
	case m.OverallRetentionRate > 85:
		insights = append(insights, "Excellent: High retention rate - maintain current strategies")
	}

	insights = append(insights, fmt.Sprintf("Average days since last purchase: %d days", m.AverageDaysSinceLastPurchase))

	if m.LapsedOverYear > 0 {
		insights = append(insights, fmt.Sprintf("%d customers have not purchased in over a year", m.LapsedOverYear))
	}
	if len(res.Segments.AtRisk) > 0 {
		insights = append(insights, fmt.Sprintf("At-risk customers represent %s in lifetime value",
			money(totalSpent(res.Segments.AtRisk))))
	}
	if n := len(res.Segments.Loyal); n > 0 {
		insights = append(insights, fmt.Sprintf("Loyal customers average %s lifetime value",
			money(totalSpent(res.Segments.Loyal)/float64(n))))
	}
	return insights
}

func retentionRecommendations(res *RetentionResult, now time.Time) []Recommendation {
	recs := []Recommendation{}
	seg := res.Segments

	if len(seg.AtRisk) > 0 {
		top := SortBySpend(seg.AtRisk)
		top = top[:min(10, len(top))]
		contacts := make([]ContactInfo, 0, len(top))
		for _, c := range top {
			contacts = append(contacts, customerContact(c, fmt.Sprintf("At-risk: %s LTV, last purchase %d days ago",
				money(c.TotalSpent), wholeDaysBetween(c.LastPurchase, now))))
		}
		recs = append(recs, recommend(
			"URGENT: Re-engage At-Risk Customers",
			fmt.Sprintf("%d high-value customers are at risk of churning. Launch immediate win-back campaign.", len(seg.AtRisk)),
			PriorityHigh, totalSpent(seg.AtRisk)*0.3,
			contacts...,
		))
	}

	if len(seg.Loyal) > 0 {
		top := SortBySpend(seg.Loyal)
		top = top[:min(5, len(top))]
		contacts := make([]ContactInfo, 0, len(top))
		for _, c := range top {
			contacts = append(contacts, customerContact(c, fmt.Sprintf("Loyal customer: %s LTV, %d purchases",
				money(c.TotalSpent), c.PurchaseCount)))
		}
		recs = append(recs, recommend(
			"Nurture Loyal Customer Relationships",
			fmt.Sprintf("%d loyal customers identified. Implement VIP program and exclusive offers to maintain loyalty.", len(seg.Loyal)),
			PriorityHigh, totalSpent(seg.Loyal)*0.15,
			contacts...,
		))
	}

	var winBack []Customer
	for _, c := range SortBySpend(seg.Churned) {
		if c.TotalSpent > 1000 && len(winBack) < 10 {
			winBack = append(winBack, c)
		}
	}
	if len(winBack) > 0 {
		var aov float64
		contacts := make([]ContactInfo, 0, len(winBack))
		for _, c := range winBack {
			aov += c.AverageOrderValue
			contacts = append(contacts, customerContact(c, fmt.Sprintf("Churned: %s LTV, inactive for %d days",
				money(c.TotalSpent), wholeDaysBetween(c.LastPurchase, now))))
		}
		recs = append(recs, recommend(
			"Win-Back High-Value Churned Customers",
			fmt.Sprintf("%d high-value customers have churned. Launch targeted win-back campaign with special offers.", len(winBack)),
			PriorityMedium, aov*0.2,
			contacts...,
		))
	}

	if n := len(seg.New); n > 0 {
		recs = append(recs, recommend(
			"Optimize New Customer Onboarding",
			fmt.Sprintf("%d new customers identified. Implement onboarding sequence to increase retention and repeat purchases.", n),
			PriorityMedium, totalSpent(seg.New)*2,
			roleContact("Customer Success Manager", fmt.Sprintf("Design onboarding program for %d new customers", n)),
			roleContact("Marketing Manager", "Create new customer nurture email sequence"),
		))
	}

	if rate := res.Metrics.OverallRetentionRate; rate < 75 {
		recs = append(recs, recommend(
			"Implement Comprehensive Retention Strategy",
			fmt.Sprintf("Retention rate is %.2f%%. Develop loyalty program, improve customer service, and create retention campaigns.", rate),
			PriorityHigh, float64(len(seg.Loyal)+len(seg.AtRisk))*500,
			roleContact("Customer Experience Manager", "Develop comprehensive customer retention strategy"),
			roleContact("Product Manager", "Improve product experience to increase retention"),
		))
	}
	return recs
}
