package analytics

import (
	"fmt"
	"time"
)

// Segment names used by customer analysis.
const (
	SegmentVIP       = "VIP Customers"
	SegmentLoyal     = "Loyal Customers"
	SegmentPotential = "Potential Customers"
	SegmentAtRisk    = "At-Risk Customers"
)

const (
	topCustomerLimit    = 10
	atRiskMinDays       = 90
	atRiskMinLifetime   = 1000
	vipContactLimit     = 3
	recoveryContactCap  = 5
	upsellContactCap    = 5
	upsellAOVMultiplier = 1.5
)

// CustomerSegment is one bucket of the RFM-like segmentation.
type CustomerSegment struct {
	Name            string     `json:"name"`
	Customers       []Customer `json:"customers"`
	Characteristics []string   `json:"characteristics"`
	AverageValue    float64    `json:"averageValue"`
	Count           int        `json:"count"`
}

// CustomerAnalysisResult is the customer_analysis variant.
type CustomerAnalysisResult struct {
	Envelope
	Segments        []CustomerSegment `json:"segments"`
	TopCustomers    []Customer        `json:"topCustomers"`
	AtRiskCustomers []Customer        `json:"atRiskCustomers"`
}

func (r *CustomerAnalysisResult) Type() AnalysisType { return CustomerAnalysis }
func (r *CustomerAnalysisResult) Common() *Envelope  { return &r.Envelope }
func (*CustomerAnalysisResult) sealed()              {}

// AnalyzeCustomers segments customers and picks out the most valuable and
// the high-value customers that have gone quiet.
func AnalyzeCustomers(records []SalesRecord, now time.Time) *CustomerAnalysisResult {
	customers := BuildCustomers(records)

	res := &CustomerAnalysisResult{
		Envelope:        newEnvelope(),
		Segments:        []CustomerSegment{},
		TopCustomers:    []Customer{},
		AtRiskCustomers: []Customer{},
	}
	if len(customers) == 0 {
		res.Insights = append(res.Insights, insufficientData("no customers found in the sales records"))
		return res
	}

	bySpend := SortBySpend(customers)
	res.Segments = SegmentCustomers(customers, now)
	res.TopCustomers = bySpend[:min(topCustomerLimit, len(bySpend))]
	for _, c := range bySpend {
		if daysBetween(c.LastPurchase, now) > atRiskMinDays && c.TotalSpent > atRiskMinLifetime {
			res.AtRiskCustomers = append(res.AtRiskCustomers, c)
		}
	}

	res.Insights = customerInsights(customers, res)
	res.Recommendations = customerRecommendations(res, now)
	return res
}

// SegmentCustomers assigns every customer to exactly one of four segments.
// Rules are tried in order and the first match wins: VIP, Loyal, Potential,
// then At-Risk for everyone left.
func SegmentCustomers(customers []Customer, now time.Time) []CustomerSegment {
	segments := []CustomerSegment{
		{Name: SegmentVIP, Characteristics: []string{"High value", "Frequent purchases", "Recent activity"}},
		{Name: SegmentLoyal, Characteristics: []string{"Regular purchases", "Good value", "Consistent"}},
		{Name: SegmentPotential, Characteristics: []string{"Recent purchases", "Growing value", "Opportunity"}},
		{Name: SegmentAtRisk, Characteristics: []string{"Declining activity", "Long time since purchase", "Needs attention"}},
	}
	for i := range segments {
		segments[i].Customers = []Customer{}
	}

	for _, c := range customers {
		i := customerSegmentIndex(c, now)
		segments[i].Customers = append(segments[i].Customers, c)
	}

	for i := range segments {
		s := &segments[i]
		s.Count = len(s.Customers)
		s.AverageValue = safeRatio(totalSpent(s.Customers), float64(s.Count))
	}
	return segments
}

func customerSegmentIndex(c Customer, now time.Time) int {
	days := daysBetween(c.LastPurchase, now)
	switch {
	case c.TotalSpent > 10000 && c.PurchaseCount >= 5 && days <= 60:
		return 0
	case c.PurchaseCount >= 3 && days <= 90:
		return 1
	case days <= 30:
		return 2
	}
	return 3
}

func totalSpent(customers []Customer) float64 {
	var sum float64
	for _, c := range customers {
		sum += c.TotalSpent
	}
	return sum
}

func customerInsights(customers []Customer, res *CustomerAnalysisResult) []string {
	insights := []string{fmt.Sprintf("Total customers analyzed: %d", len(customers))}

	vip, loyal := res.Segments[0], res.Segments[1]
	if vip.Count > 0 {
		share := safeRatio(totalSpent(vip.Customers), totalSpent(customers)) * 100
		insights = append(insights, fmt.Sprintf("VIP customers (%d) generate %.1f%% of revenue", vip.Count, share))
	}

	if len(res.TopCustomers) > 0 {
		top := res.TopCustomers[0]
		insights = append(insights, fmt.Sprintf("Top customer: %s (%s)", top.Name, money(top.TotalSpent)))
	}

	if n := len(res.AtRiskCustomers); n > 0 {
		insights = append(insights, fmt.Sprintf("%d high-value customers at risk (%s total value)",
			n, money(totalSpent(res.AtRiskCustomers))))
	}

	if loyal.Count > 0 {
		insights = append(insights, fmt.Sprintf("%d loyal customers with average value of %s",
			loyal.Count, money(loyal.AverageValue)))
	}
	return insights
}

func customerRecommendations(res *CustomerAnalysisResult, now time.Time) []Recommendation {
	recs := []Recommendation{}
	vip, loyal := res.Segments[0], res.Segments[1]

	if vip.Count > 0 {
		contacts := make([]ContactInfo, 0, vipContactLimit)
		for _, c := range SortBySpend(vip.Customers)[:min(vipContactLimit, vip.Count)] {
			contacts = append(contacts, customerContact(c, fmt.Sprintf("VIP customer - %s lifetime value", money(c.TotalSpent))))
		}
		recs = append(recs, recommend(
			"VIP Customer Retention Program",
			fmt.Sprintf("Launch exclusive program for %d VIP customers to maintain loyalty and increase spend.", vip.Count),
			PriorityHigh, vip.AverageValue*float64(vip.Count)*0.2,
			contacts...,
		))
	}

	if len(res.AtRiskCustomers) > 0 {
		top := res.AtRiskCustomers[:min(recoveryContactCap, len(res.AtRiskCustomers))]
		var aov float64
		contacts := make([]ContactInfo, 0, len(top))
		for _, c := range top {
			aov += c.AverageOrderValue
			contacts = append(contacts, customerContact(c, fmt.Sprintf("At-risk customer - last purchase %d days ago",
				wholeDaysBetween(c.LastPurchase, now))))
		}
		recs = append(recs, recommend(
			"Urgent: At-Risk Customer Recovery",
			fmt.Sprintf("%d high-value customers haven't purchased recently. Immediate outreach required.", len(res.AtRiskCustomers)),
			PriorityHigh, aov*0.3,
			contacts...,
		))
	}

	if loyal.Count > 0 {
		var aov float64
		contacts := []ContactInfo{}
		for _, c := range loyal.Customers {
			if len(contacts) == upsellContactCap {
				break
			}
			if c.AverageOrderValue >= loyal.AverageValue*upsellAOVMultiplier {
				continue
			}
			aov += c.AverageOrderValue
			contacts = append(contacts, customerContact(c, fmt.Sprintf("Upsell opportunity - current AOV %s", money(c.AverageOrderValue))))
		}
		if len(contacts) > 0 {
			recs = append(recs, recommend(
				"Loyal Customer Upsell Campaign",
				fmt.Sprintf("Target %d loyal customers with premium offerings to increase order value.", len(contacts)),
				PriorityMedium, aov*0.4,
				contacts...,
			))
		}
	}
	return recs
}
