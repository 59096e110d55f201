package analytics

import (
	"strings"
	"time"
)

// SalesRecord is a single sale line as uploaded by the business.
type SalesRecord struct {
	ID            string    `json:"id"`
	Date          time.Time `json:"date"`
	Amount        float64   `json:"amount"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail *string   `json:"customerEmail,omitempty"`
	CustomerPhone *string   `json:"customerPhone,omitempty"`
	Product       *string   `json:"product,omitempty"`
	Category      *string   `json:"category,omitempty"`
}

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "pending"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// ParseInvoiceStatus normalizes a status string. The second return value is
// false for anything outside the four known states.
func ParseInvoiceStatus(s string) (InvoiceStatus, bool) {
	switch st := InvoiceStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case InvoicePending, InvoicePaid, InvoiceOverdue, InvoiceCancelled:
		return st, true
	}
	return "", false
}

// Invoice is an issued bill for a customer.
type Invoice struct {
	ID         string        `json:"id"`
	CustomerID string        `json:"customerId"`
	Amount     float64       `json:"amount"`
	IssueDate  time.Time     `json:"issueDate"`
	DueDate    time.Time     `json:"dueDate"`
	PaidDate   *time.Time    `json:"paidDate,omitempty"`
	Status     InvoiceStatus `json:"status"`
}

// IsOverdue reports whether the invoice is overdue at now. An explicit
// overdue status and a pending invoice past its due date are equivalent.
func (inv Invoice) IsOverdue(now time.Time) bool {
	return inv.Status == InvoiceOverdue || (inv.Status == InvoicePending && inv.DueDate.Before(now))
}

// Customer is derived from sales records, never supplied directly.
type Customer struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             *string   `json:"email,omitempty"`
	Phone             *string   `json:"phone,omitempty"`
	TotalSpent        float64   `json:"totalSpent"`
	FirstPurchase     time.Time `json:"firstPurchase"`
	LastPurchase      time.Time `json:"lastPurchase"`
	PurchaseCount     int       `json:"purchaseCount"`
	AverageOrderValue float64   `json:"averageOrderValue"`
}

// Priority ranks a recommendation.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ImpactType labels what a revenue impact figure means. Every figure the
// engine produces is an estimated opportunity, never a guaranteed outcome.
type ImpactType string

const ImpactPotential ImpactType = "potential"

// ContactInfo is someone to reach out to. Nil email/phone means unknown.
type ContactInfo struct {
	Name         string   `json:"name"`
	Email        *string  `json:"email,omitempty"`
	Phone        *string  `json:"phone,omitempty"`
	Context      string   `json:"context"`
	RevenueValue *float64 `json:"revenueValue,omitempty"`
}

// Recommendation is an actionable suggestion with an estimated revenue impact.
type Recommendation struct {
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Priority      Priority      `json:"priority"`
	RevenueImpact float64       `json:"revenueImpact"`
	ImpactType    ImpactType    `json:"impactType"`
	Contacts      []ContactInfo `json:"contacts"`
}

// AnalysisType tags one of the eight business analyses.
type AnalysisType string

const (
	SalesForecasting      AnalysisType = "sales_forecasting"
	CustomerAnalysis      AnalysisType = "customer_analysis"
	CashFlowPrediction    AnalysisType = "cash_flow_prediction"
	PaymentAnalysis       AnalysisType = "payment_analysis"
	ProductPerformance    AnalysisType = "product_performance"
	SeasonalTrends        AnalysisType = "seasonal_trends"
	CustomerRetention     AnalysisType = "customer_retention"
	ProfitabilityAnalysis AnalysisType = "profitability_analysis"
)

// AnalysisTypes lists every supported analysis in display order.
var AnalysisTypes = []AnalysisType{
	SalesForecasting,
	CustomerAnalysis,
	CashFlowPrediction,
	PaymentAnalysis,
	ProductPerformance,
	SeasonalTrends,
	CustomerRetention,
	ProfitabilityAnalysis,
}

// Valid reports whether t is a known analysis type.
func (t AnalysisType) Valid() bool {
	for _, known := range AnalysisTypes {
		if t == known {
			return true
		}
	}
	return false
}

// UsesInvoices reports whether the analysis reads invoices instead of sales.
func (t AnalysisType) UsesInvoices() bool {
	return t == PaymentAnalysis
}

// Envelope holds the parts every analysis result shares.
type Envelope struct {
	Insights        []string         `json:"insights"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Result is the sealed union of analysis outputs. Switch on the concrete
// type to read the variant-specific metric block.
type Result interface {
	Type() AnalysisType
	Common() *Envelope
	sealed()
}

// Input is the record batch handed to the engine. Payment analysis reads
// Invoices; every other analysis reads Sales.
type Input struct {
	Sales    []SalesRecord `json:"sales,omitempty"`
	Invoices []Invoice     `json:"invoices,omitempty"`
}

// Len returns the number of records relevant to t.
func (in Input) Len(t AnalysisType) int {
	if t.UsesInvoices() {
		return len(in.Invoices)
	}
	return len(in.Sales)
}
