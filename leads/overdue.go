package leads

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/drumok/cashflowpre/analytics"
)

const (
	overdueMinAmount = 1000
	overdueLeadCap   = 20
)

// OverdueLeads ranks significant overdue invoices by amount.
func OverdueLeads(invoices []analytics.Invoice, now time.Time) []Lead {
	var overdue []analytics.Invoice
	for _, inv := range invoices {
		if inv.IsOverdue(now) && inv.Amount >= overdueMinAmount {
			overdue = append(overdue, inv)
		}
	}
	sort.SliceStable(overdue, func(i, j int) bool { return overdue[i].Amount > overdue[j].Amount })

	leads := make([]Lead, 0, min(overdueLeadCap, len(overdue)))
	for _, inv := range overdue[:min(overdueLeadCap, len(overdue))] {
		days := max(0, wholeDaysSince(inv.DueDate, now))
		amount := inv.Amount
		leads = append(leads, Lead{
			ID:   "overdue_" + inv.ID,
			Type: OverduePaymentRecovery,
			Contact: analytics.ContactInfo{
				Name:         "Customer " + inv.CustomerID,
				Context:      fmt.Sprintf("Invoice #%s overdue by %d days", inv.ID, days),
				RevenueValue: &amount,
			},
			Score: math.Min(100, 60+inv.Amount/1000*2),
			RevenueRange: RevenueRange{
				Min: math.Floor(inv.Amount * 0.8),
				Max: math.Floor(inv.Amount * 1.2),
			},
			Urgency:     overdueUrgency(inv.Amount),
			Context:     fmt.Sprintf("Overdue payment of %s - %d days past due", money(inv.Amount), days),
			GeneratedAt: now,
		})
	}
	return leads
}

func overdueUrgency(amount float64) Urgency {
	switch {
	case amount > 10000:
		return UrgencyHigh
	case amount > 5000:
		return UrgencyMedium
	}
	return UrgencyLow
}
