// Package leads turns sales and invoice records into scored, prioritized
// contact lists. Like package analytics it is pure: no I/O and no clock.
package leads

import (
	"time"

	"github.com/drumok/cashflowpre/analytics"
)

// LeadType tags one of the lead generators.
type LeadType string

const (
	OverduePaymentRecovery     LeadType = "overdue_payment_recovery"
	RepeatCustomerReactivation LeadType = "repeat_customer_reactivation"
	TopCustomerUpsell          LeadType = "top_customer_upsell"
	NewCustomerProspects       LeadType = "new_customer_prospects"
	SeasonalOpportunity        LeadType = "seasonal_opportunity"
)

// LeadTypes lists every generator in display order.
var LeadTypes = []LeadType{
	OverduePaymentRecovery,
	RepeatCustomerReactivation,
	TopCustomerUpsell,
	NewCustomerProspects,
	SeasonalOpportunity,
}

func (t LeadType) Valid() bool {
	for _, known := range LeadTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Urgency ranks how soon a lead should be worked.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// RevenueRange is the estimated value of working a lead.
type RevenueRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Lead is a scored contact with a suggested action.
type Lead struct {
	ID           string                `json:"id"`
	Type         LeadType              `json:"type"`
	Contact      analytics.ContactInfo `json:"contact"`
	Score        float64               `json:"score"` // 0-100
	RevenueRange RevenueRange          `json:"revenueRange"`
	Urgency      Urgency               `json:"urgency"`
	Context      string                `json:"context"`
	GeneratedAt  time.Time             `json:"generatedAt"`
}

// Input is the record batch the generators read.
type Input struct {
	Sales    []analytics.SalesRecord `json:"sales,omitempty"`
	Invoices []analytics.Invoice     `json:"invoices,omitempty"`
}
