package analytics

import (
	"fmt"
	"sort"
	"strings"
)

// UnknownProduct labels sales that carry no product name.
const UnknownProduct = "Unknown Product"

// MonthlyTotal is the revenue of one calendar month.
type MonthlyTotal struct {
	Period string  `json:"period"` // YYYY-MM
	Total  float64 `json:"total"`
}

// DimensionTotal aggregates the records that share a grouping key.
type DimensionTotal struct {
	Key    string  `json:"key"`
	Label  string  `json:"label"` // first spelling seen for the key
	Total  float64 `json:"total"`
	Count  int     `json:"count"`
	Orders int     `json:"orders"`
}

// KeyFunc maps a record to its grouping key and display label.
type KeyFunc func(SalesRecord) (key, label string)

// CustomerKey groups by case-insensitive customer name.
func CustomerKey(r SalesRecord) (string, string) {
	return strings.ToLower(r.CustomerName), r.CustomerName
}

// ProductKey groups by product, falling back to UnknownProduct.
func ProductKey(r SalesRecord) (string, string) {
	if r.Product == nil || *r.Product == "" {
		return UnknownProduct, UnknownProduct
	}
	return *r.Product, *r.Product
}

// AggregateByMonth sums records into UTC calendar months, ascending by period.
func AggregateByMonth(records []SalesRecord) []MonthlyTotal {
	totals := make(map[string]float64)
	for _, r := range records {
		totals[r.Date.UTC().Format("2006-01")] += r.Amount
	}

	months := make([]MonthlyTotal, 0, len(totals))
	for period, total := range totals {
		months = append(months, MonthlyTotal{Period: period, Total: total})
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Period < months[j].Period })
	return months
}

// AggregateByDimension groups records by keyFn and totals each group.
func AggregateByDimension(records []SalesRecord, keyFn KeyFunc) map[string]DimensionTotal {
	groups := make(map[string]DimensionTotal)
	for _, r := range records {
		key, label := keyFn(r)
		g, ok := groups[key]
		if !ok {
			g = DimensionTotal{Key: key, Label: label}
		}
		g.Total += r.Amount
		g.Count++
		g.Orders++
		groups[key] = g
	}
	return groups
}

// SortedDimensions returns the groups ordered by total descending, then
// label ascending, so callers never depend on map iteration order.
func SortedDimensions(groups map[string]DimensionTotal) []DimensionTotal {
	out := make([]DimensionTotal, 0, len(groups))
	for _, g := range groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// BuildCustomers folds sales into customers keyed by lower-cased name.
// Customers are returned in first-seen order; contact details take the last
// non-empty value in record order.
func BuildCustomers(records []SalesRecord) []Customer {
	index := make(map[string]int)
	customers := make([]Customer, 0)

	for _, r := range records {
		key, _ := CustomerKey(r)
		i, ok := index[key]
		if !ok {
			i = len(customers)
			index[key] = i
			customers = append(customers, Customer{
				ID:            fmt.Sprintf("customer_%d", i+1),
				Name:          r.CustomerName,
				FirstPurchase: r.Date,
				LastPurchase:  r.Date,
			})
		}

		c := &customers[i]
		c.TotalSpent += r.Amount
		c.PurchaseCount++
		if r.Date.After(c.LastPurchase) {
			c.LastPurchase = r.Date
		}
		if r.Date.Before(c.FirstPurchase) {
			c.FirstPurchase = r.Date
		}
		if r.CustomerEmail != nil && *r.CustomerEmail != "" {
			email := *r.CustomerEmail
			c.Email = &email
		}
		if r.CustomerPhone != nil && *r.CustomerPhone != "" {
			phone := *r.CustomerPhone
			c.Phone = &phone
		}
	}

	for i := range customers {
		customers[i].AverageOrderValue = customers[i].TotalSpent / float64(customers[i].PurchaseCount)
	}
	return customers
}

// SortBySpend returns a copy of customers ordered by total spent
// descending. Ties keep their original order.
func SortBySpend(customers []Customer) []Customer {
	out := make([]Customer, len(customers))
	copy(out, customers)
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalSpent > out[j].TotalSpent })
	return out
}

func monthlyValues(months []MonthlyTotal) []float64 {
	values := make([]float64, len(months))
	for i, m := range months {
		values[i] = m.Total
	}
	return values
}
