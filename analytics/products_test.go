package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productFixture() []SalesRecord {
	return []SalesRecord{
		productSale("Alpha", 3000),
		productSale("Charlie", 3000),
		productSale("Alpha", 2000),
		productSale("Bravo", 3000),
		productSale("Delta", 500),
		productSale("", 100),
	}
}

func TestRankProducts(t *testing.T) {
	ranked := RankProducts(productFixture())
	require.Len(t, ranked, 5)

	var order []string
	for i, p := range ranked {
		order = append(order, p.Product)
		assert.Equal(t, i+1, p.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, ranked[i-1].TotalRevenue, p.TotalRevenue)
		}
	}
	assert.Equal(t, []string{"Alpha", "Bravo", "Charlie", "Delta", UnknownProduct}, order)
	assert.Equal(t, 2, ranked[0].TotalSales)
	assert.Equal(t, 2500.0, ranked[0].AverageOrderValue)
}

func TestRevenueConcentration(t *testing.T) {
	ranked := RankProducts(productFixture())
	assert.Equal(t, 43.1, RevenueConcentration(ranked))

	single := RankProducts([]SalesRecord{productSale("Only", 10)})
	assert.Equal(t, 100.0, RevenueConcentration(single))

	assert.Zero(t, RevenueConcentration(nil))
	zero := RankProducts([]SalesRecord{productSale("Free", 0)})
	assert.Zero(t, RevenueConcentration(zero))
}

func TestRevenueConcentrationBounds(t *testing.T) {
	var records []SalesRecord
	for i, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"} {
		records = append(records, productSale(name, float64((i+1)*137)))
		c := RevenueConcentration(RankProducts(records))
		assert.GreaterOrEqual(t, c, 0.0)
		assert.LessOrEqual(t, c, 100.0)
	}
}

func TestAnalyzeProducts(t *testing.T) {
	res := AnalyzeProducts(productFixture())

	assert.Equal(t, ProductMetrics{
		TotalProducts:          5,
		TopPerformerRevenue:    5000,
		BottomPerformerRevenue: 100,
		RevenueConcentration:   43.1,
	}, res.Metrics)
	assert.Contains(t, res.Insights, "Top performer: Alpha ($5,000 revenue)")
	assert.Contains(t, res.Insights, "2 products are significantly underperforming (below 50% of average)")

	require.NotEmpty(t, res.Recommendations)
	top := res.Recommendations[0]
	assert.Equal(t, "Double Down on Top Performers", top.Title)
	assert.Equal(t, 2200.0, top.RevenueImpact)
	assert.Equal(t, "Focus on top products: Alpha, Bravo, Charlie", top.Contacts[0].Context)

	under := res.Recommendations[1]
	assert.Equal(t, "Review Underperforming Products", under.Title)
	assert.Equal(t, 300.0, under.RevenueImpact)
}

func TestAnalyzeProductsEmpty(t *testing.T) {
	res := AnalyzeProducts(nil)

	assert.NotNil(t, res.TopProducts)
	assert.Empty(t, res.TopProducts)
	assert.Zero(t, res.Metrics.RevenueConcentration)
	require.Len(t, res.Insights, 1)
	assert.Contains(t, res.Insights[0], InsufficientDataPrefix)
}
