package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fourMonths() []SalesRecord {
	amounts := []float64{1000, 1200, 900, 1500}
	records := make([]SalesRecord, len(amounts))
	for i, a := range amounts {
		records[i] = sale("Acme", time.Date(2024, time.Month(i+1), 15, 0, 0, 0, 0, time.UTC), a)
	}
	return records
}

func TestAggregateByMonth(t *testing.T) {
	months := AggregateByMonth(fourMonths())

	assert.Equal(t, []MonthlyTotal{
		{Period: "2024-01", Total: 1000},
		{Period: "2024-02", Total: 1200},
		{Period: "2024-03", Total: 900},
		{Period: "2024-04", Total: 1500},
	}, months)
}

func TestAggregateByMonthSortsAndMerges(t *testing.T) {
	records := []SalesRecord{
		sale("a", time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), 10),
		sale("b", time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), 5),
		sale("c", time.Date(2024, 3, 30, 0, 0, 0, 0, time.UTC), 15),
	}

	months := AggregateByMonth(records)
	require.Len(t, months, 2)
	assert.Equal(t, "2023-12", months[0].Period)
	assert.Equal(t, MonthlyTotal{Period: "2024-03", Total: 25}, months[1])
}

func TestAggregateEmpty(t *testing.T) {
	assert.NotNil(t, AggregateByMonth(nil))
	assert.Empty(t, AggregateByMonth(nil))
	assert.Empty(t, AggregateByDimension(nil, ProductKey))
	assert.Empty(t, BuildCustomers(nil))
}

func TestAggregateByDimensionProducts(t *testing.T) {
	groups := AggregateByDimension([]SalesRecord{
		productSale("Widget", 100),
		productSale("Widget", 50),
		productSale("", 30),
	}, ProductKey)

	require.Len(t, groups, 2)
	assert.Equal(t, DimensionTotal{Key: "Widget", Label: "Widget", Total: 150, Count: 2, Orders: 2}, groups["Widget"])
	assert.Equal(t, 30.0, groups[UnknownProduct].Total)
}

func TestSortedDimensionsBreaksTiesByLabel(t *testing.T) {
	groups := AggregateByDimension([]SalesRecord{
		productSale("Zeta", 100),
		productSale("Alpha", 100),
		productSale("Mid", 300),
	}, ProductKey)

	sorted := SortedDimensions(groups)
	require.Len(t, sorted, 3)
	assert.Equal(t, "Mid", sorted[0].Label)
	assert.Equal(t, "Alpha", sorted[1].Label)
	assert.Equal(t, "Zeta", sorted[2].Label)
}

func TestBuildCustomers(t *testing.T) {
	customers := BuildCustomers(customerFixture())
	require.Len(t, customers, 5)

	alice := customers[0]
	assert.Equal(t, "customer_1", alice.ID)
	assert.Equal(t, "Alice", alice.Name)
	assert.Equal(t, 6, alice.PurchaseCount)
	assert.Equal(t, 15000.0, alice.TotalSpent)
	assert.Equal(t, 2500.0, alice.AverageOrderValue)
	assert.Equal(t, daysAgo(10), alice.LastPurchase)
	assert.Equal(t, daysAgo(60), alice.FirstPurchase)
	require.NotNil(t, alice.Email)
	assert.Equal(t, "alice@example.com", *alice.Email, "last record supplying an email wins")
	assert.Nil(t, alice.Phone)

	assert.Equal(t, "customer_5", customers[4].ID)
	assert.Equal(t, "Eve", customers[4].Name)
}

func TestSortBySpendLeavesInputAlone(t *testing.T) {
	customers := BuildCustomers(customerFixture())
	first := customers[0].Name

	sorted := SortBySpend(customers)
	assert.Equal(t, first, customers[0].Name)
	assert.Equal(t, "Alice", sorted[0].Name)
	assert.Equal(t, "Dave", sorted[1].Name)
	assert.Equal(t, "Eve", sorted[len(sorted)-1].Name)
}
