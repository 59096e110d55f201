package leads

import (
	"fmt"
	"math"
	"time"

	"github.com/drumok/cashflowpre/analytics"
)

const (
	reactivationMinDays  = 180
	reactivationMaxDays  = 360
	reactivationMinSpent = 2000
	reactivationLeadCap  = 15

	upsellActiveDays = 90
	upsellLeadCap    = 10

	successfulMinSpent  = 2000
	successfulMinOrders = 2
	prospectRecentDays  = 30
	prospectLeadCap     = 10
)

// ReactivationLeads targets valuable customers who stopped buying six to
// twelve months ago.
func ReactivationLeads(customers []analytics.Customer, now time.Time) []Lead {
	leads := []Lead{}
	for _, c := range analytics.SortBySpend(customers) {
		if len(leads) == reactivationLeadCap {
			break
		}
		days := daysSince(c.LastPurchase, now)
		if days <= reactivationMinDays || days >= reactivationMaxDays || c.TotalSpent <= reactivationMinSpent {
			continue
		}

		urgency := UrgencyMedium
		if c.TotalSpent > 10000 {
			urgency = UrgencyHigh
		}
		whole := wholeDaysSince(c.LastPurchase, now)
		leads = append(leads, Lead{
			ID:      "reactivation_" + c.ID,
			Type:    RepeatCustomerReactivation,
			Contact: customerContact(c, fmt.Sprintf("Last purchase %d days ago", whole), c.TotalSpent),
			Score:   math.Min(100, 40+c.TotalSpent/1000*3),
			RevenueRange: RevenueRange{
				Min: math.Floor(c.AverageOrderValue * 0.8),
				Max: math.Floor(c.AverageOrderValue * 2.5),
			},
			Urgency:     urgency,
			Context:     fmt.Sprintf("Inactive for %d days - %s lifetime value", whole, money(c.TotalSpent)),
			GeneratedAt: now,
		})
	}
	return leads
}

// UpsellLeads picks the active customers among the top 20% by spend.
func UpsellLeads(customers []analytics.Customer, now time.Time) []Lead {
	leads := []Lead{}
	if len(customers) == 0 {
		return leads
	}

	ranked := analytics.SortBySpend(customers)
	top := ranked[:max(1, len(ranked)/5)]
	for i, c := range top {
		if len(leads) == upsellLeadCap {
			break
		}
		if daysSince(c.LastPurchase, now) >= upsellActiveDays {
			continue
		}

		urgency := UrgencyMedium
		if c.TotalSpent > 50000 {
			urgency = UrgencyHigh
		}
		percentile := (100*(i+1) + len(ranked) - 1) / len(ranked)
		leads = append(leads, Lead{
			ID:      "upsell_" + c.ID,
			Type:    TopCustomerUpsell,
			Contact: customerContact(c, fmt.Sprintf("Top %d%% customer by value", percentile), c.TotalSpent),
			Score:   math.Min(100, 70+c.TotalSpent/10000*10),
			RevenueRange: RevenueRange{
				Min: math.Floor(c.AverageOrderValue * 2),
				Max: math.Floor(c.AverageOrderValue * 5),
			},
			Urgency:     urgency,
			Context:     fmt.Sprintf("Top customer with %s lifetime value - perfect for premium upsell", money(c.TotalSpent)),
			GeneratedAt: now,
		})
	}
	return leads
}

// ProspectLeads finds recent first-time buyers whose first order looks like
// the orders of established customers. Without established customers there
// is nothing to compare against and no leads are produced.
func ProspectLeads(customers []analytics.Customer, now time.Time) []Lead {
	leads := []Lead{}

	var successful []analytics.Customer
	for _, c := range customers {
		if c.TotalSpent > successfulMinSpent && c.PurchaseCount > successfulMinOrders {
			successful = append(successful, c)
		}
	}
	if len(successful) == 0 {
		return leads
	}

	var sumAOV float64
	for _, c := range successful {
		sumAOV += c.AverageOrderValue
	}
	avgAOV := sumAOV / float64(len(successful))
	potential := avgAOV * 2

	for _, c := range customers {
		if len(leads) == prospectLeadCap {
			break
		}
		if c.PurchaseCount != 1 || daysSince(c.LastPurchase, now) >= prospectRecentDays || c.TotalSpent < avgAOV*0.5 {
			continue
		}
		leads = append(leads, Lead{
			ID:      "prospect_" + c.ID,
			Type:    NewCustomerProspects,
			Contact: customerContact(c, "Recent first-time buyer - "+money(c.TotalSpent), potential),
			Score:   math.Min(100, c.TotalSpent/avgAOV*60),
			RevenueRange: RevenueRange{
				Min: math.Min(2000, potential*0.5),
				Max: math.Min(12000, potential*1.5),
			},
			Urgency:     UrgencyMedium,
			Context:     "New customer with potential for repeat business",
			GeneratedAt: now,
		})
	}
	return leads
}
