package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ProductStat is one ranked product.
type ProductStat struct {
	Product           string  `json:"product"`
	TotalRevenue      float64 `json:"totalRevenue"`
	TotalSales        int     `json:"totalSales"`
	AverageOrderValue float64 `json:"averageOrderValue"`
	Rank              int     `json:"rank"`
}

// ProductMetrics summarizes the product ranking.
type ProductMetrics struct {
	TotalProducts          int     `json:"totalProducts"`
	TopPerformerRevenue    float64 `json:"topPerformerRevenue"`
	BottomPerformerRevenue float64 `json:"bottomPerformerRevenue"`
	RevenueConcentration   float64 `json:"revenueConcentration"` // percent from top 20% of products, 2 decimals
}

// ProductPerformanceResult is the product_performance variant.
type ProductPerformanceResult struct {
	Envelope
	TopProducts []ProductStat  `json:"topProducts"`
	Metrics     ProductMetrics `json:"performanceMetrics"`
}

func (r *ProductPerformanceResult) Type() AnalysisType { return ProductPerformance }
func (r *ProductPerformanceResult) Common() *Envelope  { return &r.Envelope }
func (*ProductPerformanceResult) sealed()              {}

// AnalyzeProducts ranks products by revenue and measures how concentrated
// revenue is in the best sellers.
func AnalyzeProducts(records []SalesRecord) *ProductPerformanceResult {
	res := &ProductPerformanceResult{
		Envelope:    newEnvelope(),
		TopProducts: RankProducts(records),
	}
	if len(res.TopProducts) == 0 {
		res.Insights = append(res.Insights, insufficientData("no product sales to rank"))
		return res
	}

	res.Metrics = productMetrics(res.TopProducts)
	res.Insights = productInsights(res)
	res.Recommendations = productRecommendations(res)
	return res
}

// RankProducts orders products by total revenue descending, ties by name.
func RankProducts(records []SalesRecord) []ProductStat {
	groups := SortedDimensions(AggregateByDimension(records, ProductKey))
	ranked := make([]ProductStat, 0, len(groups))
	for i, g := range groups {
		ranked = append(ranked, ProductStat{
			Product:           g.Label,
			TotalRevenue:      g.Total,
			TotalSales:        g.Count,
			AverageOrderValue: safeRatio(g.Total, float64(g.Orders)),
			Rank:              i + 1,
		})
	}
	return ranked
}

// RevenueConcentration is the percentage of revenue earned by the top
// max(1, ceil(20%)) of ranked products.
func RevenueConcentration(ranked []ProductStat) float64 {
	if len(ranked) == 0 {
		return 0
	}
	top := max(1, int(math.Ceil(float64(len(ranked))*0.2)))
	return round2(safeRatio(productRevenue(ranked[:top]), productRevenue(ranked)) * 100)
}

func productRevenue(products []ProductStat) float64 {
	var sum float64
	for _, p := range products {
		sum += p.TotalRevenue
	}
	return sum
}

func productNames(products []ProductStat) string {
	names := make([]string, len(products))
	for i, p := range products {
		names[i] = p.Product
	}
	return strings.Join(names, ", ")
}

func productMetrics(ranked []ProductStat) ProductMetrics {
	return ProductMetrics{
		TotalProducts:          len(ranked),
		TopPerformerRevenue:    ranked[0].TotalRevenue,
		BottomPerformerRevenue: ranked[len(ranked)-1].TotalRevenue,
		RevenueConcentration:   RevenueConcentration(ranked),
	}
}

func productInsights(res *ProductPerformanceResult) []string {
	ranked := res.TopProducts
	total := productRevenue(ranked)
	avg := total / float64(len(ranked))
	top := ranked[0]

	insights := []string{
		fmt.Sprintf("%d products analyzed", res.Metrics.TotalProducts),
		fmt.Sprintf("Top performer: %s (%s revenue)", top.Product, money(top.TotalRevenue)),
		fmt.Sprintf("Top product generates %.1f%% of total revenue", safeRatio(top.TotalRevenue, total)*100),
		fmt.Sprintf("Top 20%% of products generate %.2f%% of revenue", res.Metrics.RevenueConcentration),
	}

	under := 0
	for _, p := range ranked {
		if p.TotalRevenue < avg*0.5 {
			under++
		}
	}
	if under > 0 {
		insights = append(insights, fmt.Sprintf("%d products are significantly underperforming (below 50%% of average)", under))
	}

	highAOV := 0
	for _, p := range ranked {
		if p.AverageOrderValue > avg/float64(len(ranked))*2 {
			highAOV++
		}
	}
	if highAOV > 0 {
		insights = append(insights, fmt.Sprintf("%d products have high average order values - focus on promotion", highAOV))
	}
	return insights
}

func productRecommendations(res *ProductPerformanceResult) []Recommendation {
	ranked := res.TopProducts
	total := productRevenue(ranked)
	avg := total / float64(len(ranked))
	recs := []Recommendation{}

	top := ranked[:min(3, len(ranked))]
	recs = append(recs, recommend(
		"Double Down on Top Performers",
		fmt.Sprintf("Your top %d products generate significant revenue. Increase marketing and inventory focus.", len(top)),
		PriorityHigh, productRevenue(top)*0.2,
		roleContact("Product Manager", "Focus on top products: "+productNames(top)),
		roleContact("Marketing Manager", "Increase marketing spend on top-performing products"),
	))

	var under []ProductStat
	for _, p := range ranked {
		if p.TotalRevenue < avg*0.3 {
			under = append(under, p)
		}
	}
	if len(under) > 0 {
		recs = append(recs, recommend(
			"Review Underperforming Products",
			fmt.Sprintf("%d products are significantly underperforming. Consider discontinuation or repositioning.", len(under)),
			PriorityMedium, productRevenue(under)*0.5,
			roleContact("Product Manager", "Review underperformers: "+productNames(under[:min(3, len(under))])),
			roleContact("Operations Manager", "Analyze inventory and operational costs for underperforming products"),
		))
	}

	byAOV := make([]ProductStat, len(ranked))
	copy(byAOV, ranked)
	sort.SliceStable(byAOV, func(i, j int) bool { return byAOV[i].AverageOrderValue > byAOV[j].AverageOrderValue })
	premium := byAOV[:min(3, len(byAOV))]
	if premium[0].AverageOrderValue > avg {
		labels := make([]string, len(premium))
		for i, p := range premium {
			labels[i] = fmt.Sprintf("%s (%s AOV)", p.Product, money(p.AverageOrderValue))
		}
		recs = append(recs, recommend(
			"Promote High-Value Products",
			"Products with high average order values identified. Focus sales efforts on these premium offerings.",
			PriorityMedium, productRevenue(premium)*0.15,
			roleContact("Sales Manager", "Promote high-AOV products: "+strings.Join(labels, ", ")),
		))
	}

	if c := res.Metrics.RevenueConcentration; c > 80 {
		recs = append(recs, recommend(
			"Diversify Product Portfolio",
			fmt.Sprintf("%.2f%% of revenue comes from top products. Consider diversification to reduce risk.", c),
			PriorityLow, total*0.1,
			roleContact("Product Strategy Manager", "Develop strategy to diversify product portfolio and reduce concentration risk"),
		))
	}
	return recs
}
