package leads

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/drumok/cashflowpre/analytics"
)

const (
	seasonalLapsedDays = 60
	seasonalUrgentDays = 120
	seasonalLeadCap    = 8
	seasonalScoreBase  = 50
	seasonalScorePerYr = 10
	seasonalMaxScore   = 80
)

type seasonalBuyer struct {
	customer analytics.Customer
	revenue  float64
	years    map[int]struct{}
}

// SeasonalLeads finds customers who bought during the current quarter in
// past years but have not purchased in the last two months. Buyers are
// ordered by their revenue in that quarter; the score grows with the number
// of years they bought in it.
func SeasonalLeads(records []analytics.SalesRecord, now time.Time) []Lead {
	leads := []Lead{}
	quarter := quarterOf(now.UTC().Month())

	customers := analytics.BuildCustomers(records)
	index := make(map[string]int, len(customers))
	for i, c := range customers {
		index[strings.ToLower(c.Name)] = i
	}

	buyers := make(map[string]*seasonalBuyer)
	for _, r := range records {
		d := r.Date.UTC()
		if quarterOf(d.Month()) != quarter {
			continue
		}
		key := strings.ToLower(r.CustomerName)
		b, ok := buyers[key]
		if !ok {
			b = &seasonalBuyer{customer: customers[index[key]], years: make(map[int]struct{})}
			buyers[key] = b
		}
		b.revenue += r.Amount
		b.years[d.Year()] = struct{}{}
	}

	candidates := make([]*seasonalBuyer, 0, len(buyers))
	for _, b := range buyers {
		if daysSince(b.customer.LastPurchase, now) > seasonalLapsedDays {
			candidates = append(candidates, b)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].revenue != candidates[j].revenue {
			return candidates[i].revenue > candidates[j].revenue
		}
		return candidates[i].customer.Name < candidates[j].customer.Name
	})

	for _, b := range candidates[:min(seasonalLeadCap, len(candidates))] {
		c := b.customer
		days := wholeDaysSince(c.LastPurchase, now)
		urgency := UrgencyMedium
		if daysSince(c.LastPurchase, now) > seasonalUrgentDays {
			urgency = UrgencyHigh
		}
		leads = append(leads, Lead{
			ID:      "seasonal_" + c.ID,
			Type:    SeasonalOpportunity,
			Contact: customerContact(c, fmt.Sprintf("Seasonal buyer - typically purchases in Q%d", quarter), c.AverageOrderValue),
			Score:   math.Min(seasonalMaxScore, float64(seasonalScoreBase+seasonalScorePerYr*len(b.years))),
			RevenueRange: RevenueRange{
				Min: math.Floor(c.AverageOrderValue * 0.8),
				Max: math.Floor(c.AverageOrderValue * 1.5),
			},
			Urgency: urgency,
			Context: fmt.Sprintf("Seasonal pattern detected - typically buys in Q%d, last purchase %d days ago",
				quarter, days),
			GeneratedAt: now,
		})
	}
	return leads
}

func quarterOf(m time.Month) int {
	return (int(m)-1)/3 + 1
}
