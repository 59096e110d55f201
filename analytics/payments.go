package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// PaymentUrgency grades how late an overdue invoice is.
type PaymentUrgency string

const (
	UrgencyCritical PaymentUrgency = "critical"
	UrgencyHigh     PaymentUrgency = "high"
	UrgencyMedium   PaymentUrgency = "medium"
)

const (
	criticalPastDueDays  = 60
	highPastDueDays      = 30
	slowPaymentDays      = 45
	healthyPaymentRate   = 85
	collectionContactCap = 5
)

// OverduePayment is an invoice that should already have been paid.
type OverduePayment struct {
	InvoiceID   string         `json:"invoiceId"`
	CustomerID  string         `json:"customerId"`
	Amount      float64        `json:"amount"`
	DueDate     time.Time      `json:"dueDate"`
	DaysPastDue int            `json:"daysPastDue"`
	Urgency     PaymentUrgency `json:"urgency"`
}

// PaymentMetrics summarizes collection health.
type PaymentMetrics struct {
	AveragePaymentTime int     `json:"averagePaymentTime"` // whole days, issue to payment
	PaymentRate        float64 `json:"paymentRate"`        // percent, 2 decimals
	TotalOverdue       float64 `json:"totalOverdue"`
	OverdueCount       int     `json:"overdueCount"`
	RecentOverdueRate  float64 `json:"recentOverdueRate"` // percent of invoices issued in the last 3 months
}

// PaymentAnalysisResult is the payment_analysis variant.
type PaymentAnalysisResult struct {
	Envelope
	OverduePayments []OverduePayment `json:"overduePayments"`
	Metrics         PaymentMetrics   `json:"paymentMetrics"`
}

func (r *PaymentAnalysisResult) Type() AnalysisType { return PaymentAnalysis }
func (r *PaymentAnalysisResult) Common() *Envelope  { return &r.Envelope }
func (*PaymentAnalysisResult) sealed()              {}

// AnalyzePayments finds overdue invoices and measures how quickly invoices
// get paid.
func AnalyzePayments(invoices []Invoice, now time.Time) *PaymentAnalysisResult {
	res := &PaymentAnalysisResult{
		Envelope:        newEnvelope(),
		OverduePayments: OverduePayments(invoices, now),
	}
	if len(invoices) == 0 {
		res.Insights = append(res.Insights, insufficientData("no invoices to analyze"))
		return res
	}

	res.Metrics = paymentMetrics(invoices, res.OverduePayments, now)
	res.Insights = paymentInsights(res)
	res.Recommendations = paymentRecommendations(res)
	return res
}

// OverduePayments lists every overdue invoice, most days past due first.
func OverduePayments(invoices []Invoice, now time.Time) []OverduePayment {
	overdue := []OverduePayment{}
	for _, inv := range invoices {
		if !inv.IsOverdue(now) {
			continue
		}
		days := max(0, wholeDaysBetween(inv.DueDate, now))
		overdue = append(overdue, OverduePayment{
			InvoiceID:   inv.ID,
			CustomerID:  inv.CustomerID,
			Amount:      inv.Amount,
			DueDate:     inv.DueDate,
			DaysPastDue: days,
			Urgency:     paymentUrgency(days),
		})
	}
	sort.SliceStable(overdue, func(i, j int) bool { return overdue[i].DaysPastDue > overdue[j].DaysPastDue })
	return overdue
}

func paymentUrgency(daysPastDue int) PaymentUrgency {
	switch {
	case daysPastDue > criticalPastDueDays:
		return UrgencyCritical
	case daysPastDue > highPastDueDays:
		return UrgencyHigh
	}
	return UrgencyMedium
}

func paymentMetrics(invoices []Invoice, overdue []OverduePayment, now time.Time) PaymentMetrics {
	var paid int
	var paymentDays float64
	for _, inv := range invoices {
		if inv.Status == InvoicePaid && inv.PaidDate != nil {
			paid++
			paymentDays += daysBetween(inv.IssueDate, *inv.PaidDate)
		}
	}

	var totalOverdue float64
	for _, p := range overdue {
		totalOverdue += p.Amount
	}

	since := now.AddDate(0, -3, 0)
	var recent, recentOverdue int
	for _, inv := range invoices {
		if inv.IssueDate.Before(since) {
			continue
		}
		recent++
		if inv.IsOverdue(now) {
			recentOverdue++
		}
	}

	return PaymentMetrics{
		AveragePaymentTime: int(math.Round(safeRatio(paymentDays, float64(paid)))),
		PaymentRate:        round2(safeRatio(float64(paid), float64(len(invoices))) * 100),
		TotalOverdue:       totalOverdue,
		OverdueCount:       len(overdue),
		RecentOverdueRate:  round2(safeRatio(float64(recentOverdue), float64(recent)) * 100),
	}
}

func countUrgency(payments []OverduePayment, u PaymentUrgency) (n int, amount float64, matched []OverduePayment) {
	for _, p := range payments {
		if p.Urgency == u {
			n++
			amount += p.Amount
			matched = append(matched, p)
		}
	}
	return n, amount, matched
}

func paymentInsights(res *PaymentAnalysisResult) []string {
	m := res.Metrics
	insights := []string{
		fmt.Sprintf("%d overdue invoices totaling %s", m.OverdueCount, money(m.TotalOverdue)),
		fmt.Sprintf("Average payment time: %d days", m.AveragePaymentTime),
		fmt.Sprintf("Payment success rate: %.2f%%", m.PaymentRate),
	}

	if n, _, _ := countUrgency(res.OverduePayments, UrgencyCritical); n > 0 {
		insights = append(insights, fmt.Sprintf("%d critical overdue payments (60+ days)", n))
	}
	if n, _, _ := countUrgency(res.OverduePayments, UrgencyHigh); n > 0 {
		insights = append(insights, fmt.Sprintf("%d high priority overdue payments (30+ days)", n))
	}

	switch {
	case m.RecentOverdueRate > 20:
		insights = append(insights, fmt.Sprintf("Warning: Recent overdue rate is %.1f%% - above healthy threshold", m.RecentOverdueRate))
	case m.RecentOverdueRate < 10:
		insights = append(insights, fmt.Sprintf("Good: Recent overdue rate is %.1f%% - within healthy range", m.RecentOverdueRate))
	}
	return insights
}

func collectionContacts(payments []OverduePayment, label string) []ContactInfo {
	contacts := make([]ContactInfo, 0, collectionContactCap)
	for _, p := range payments[:min(collectionContactCap, len(payments))] {
		amount := p.Amount
		contacts = append(contacts, ContactInfo{
			Name:         "Customer " + p.CustomerID,
			Context:      fmt.Sprintf("%s: %s overdue %d days", label, money(p.Amount), p.DaysPastDue),
			RevenueValue: &amount,
		})
	}
	return contacts
}

func paymentRecommendations(res *PaymentAnalysisResult) []Recommendation {
	recs := []Recommendation{}
	m := res.Metrics

	if n, amount, critical := countUrgency(res.OverduePayments, UrgencyCritical); n > 0 {
		recs = append(recs, recommend(
			"URGENT: Critical Overdue Payments",
			fmt.Sprintf("%d invoices are 60+ days overdue. Immediate collection action required.", n),
			PriorityHigh, amount,
			collectionContacts(critical, "Critical")...,
		))
	}

	if n, amount, high := countUrgency(res.OverduePayments, UrgencyHigh); n > 0 {
		recs = append(recs, recommend(
			"High Priority Payment Collection",
			fmt.Sprintf("%d invoices are 30+ days overdue. Escalate collection efforts.", n),
			PriorityHigh, amount,
			collectionContacts(high, "High priority")...,
		))
	}

	if m.AveragePaymentTime > slowPaymentDays {
		recs = append(recs, recommend(
			"Improve Payment Terms & Processes",
			fmt.Sprintf("Average payment time is %d days. Consider shorter terms and automated reminders.", m.AveragePaymentTime),
			PriorityMedium, m.TotalOverdue*0.1,
			roleContact("Accounts Receivable Manager", "Implement automated payment reminders and shorter terms"),
			roleContact("Customer Success Manager", "Work with customers on payment process improvements"),
		))
	}

	if m.PaymentRate < healthyPaymentRate {
		recs = append(recs, recommend(
			"Implement Early Payment Incentives",
			fmt.Sprintf("Payment rate is %.2f%%. Consider early payment discounts to improve cash flow.", m.PaymentRate),
			PriorityMedium, m.TotalOverdue*0.05,
			roleContact("Finance Director", "Design early payment discount program"),
		))
	}
	return recs
}
