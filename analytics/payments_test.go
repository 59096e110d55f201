package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timePtr(t time.Time) *time.Time { return &t }

func invoiceFixture() []Invoice {
	return []Invoice{
		{ID: "inv-1", CustomerID: "c1", Amount: 5000, IssueDate: daysAgo(70), DueDate: daysAgo(40), Status: InvoicePending},
		{ID: "inv-2", CustomerID: "c2", Amount: 1000, IssueDate: daysAgo(100), DueDate: daysAgo(70), Status: InvoiceOverdue},
		{ID: "inv-3", CustomerID: "c3", Amount: 800,
			IssueDate: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			DueDate:   time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC),
			PaidDate:  timePtr(time.Date(2024, 5, 21, 12, 0, 0, 0, time.UTC)),
			Status:    InvoicePaid},
		{ID: "inv-4", CustomerID: "c4", Amount: 300, IssueDate: daysAgo(5), DueDate: testNow.AddDate(0, 0, 10), Status: InvoicePending},
		{ID: "inv-5", CustomerID: "c5", Amount: 700, IssueDate: daysAgo(60), DueDate: daysAgo(45),
			PaidDate: timePtr(daysAgo(30)), Status: InvoicePaid},
	}
}

func TestOverduePaymentScenario(t *testing.T) {
	overdue := OverduePayments([]Invoice{{
		ID: "inv-1", CustomerID: "c1", Amount: 5000,
		IssueDate: daysAgo(70), DueDate: daysAgo(40), Status: InvoicePending,
	}}, testNow)

	require.Len(t, overdue, 1)
	assert.Equal(t, 40, overdue[0].DaysPastDue)
	assert.Equal(t, UrgencyHigh, overdue[0].Urgency)
}

func TestOverduePaymentsInclusion(t *testing.T) {
	invoices := invoiceFixture()
	overdue := OverduePayments(invoices, testNow)

	ids := make(map[string]bool)
	for _, p := range overdue {
		ids[p.InvoiceID] = true
	}
	for _, inv := range invoices {
		late := inv.DueDate.Before(testNow) && (inv.Status == InvoicePending || inv.Status == InvoiceOverdue)
		if late {
			assert.True(t, ids[inv.ID], "%s should be overdue", inv.ID)
		}
		if inv.Status == InvoicePaid {
			assert.False(t, ids[inv.ID], "%s is paid", inv.ID)
		}
	}
	assert.False(t, ids["inv-4"])

	require.Len(t, overdue, 2)
	assert.Equal(t, "inv-2", overdue[0].InvoiceID, "most days past due first")
	assert.Equal(t, UrgencyCritical, overdue[0].Urgency)
}

func TestPaymentUrgencyThresholds(t *testing.T) {
	assert.Equal(t, UrgencyMedium, paymentUrgency(30))
	assert.Equal(t, UrgencyHigh, paymentUrgency(31))
	assert.Equal(t, UrgencyHigh, paymentUrgency(60))
	assert.Equal(t, UrgencyCritical, paymentUrgency(61))
}

func TestAnalyzePaymentsMetrics(t *testing.T) {
	res := AnalyzePayments(invoiceFixture(), testNow)

	assert.Equal(t, 25, res.Metrics.AveragePaymentTime)
	assert.Equal(t, 40.0, res.Metrics.PaymentRate)
	assert.Equal(t, 6000.0, res.Metrics.TotalOverdue)
	assert.Equal(t, 2, res.Metrics.OverdueCount)
	assert.Contains(t, res.Insights, "2 overdue invoices totaling $6,000")
	assert.Contains(t, res.Insights, "1 critical overdue payments (60+ days)")
}

func TestAnalyzePaymentsRecommendations(t *testing.T) {
	res := AnalyzePayments(invoiceFixture(), testNow)
	require.Len(t, res.Recommendations, 3)

	critical := res.Recommendations[0]
	assert.Equal(t, "URGENT: Critical Overdue Payments", critical.Title)
	assert.Equal(t, 1000.0, critical.RevenueImpact)
	require.Len(t, critical.Contacts, 1)
	assert.Equal(t, "Customer c2", critical.Contacts[0].Name)
	assert.Nil(t, critical.Contacts[0].Email)
	assert.Equal(t, "Critical: $1,000 overdue 70 days", critical.Contacts[0].Context)

	assert.Equal(t, "High Priority Payment Collection", res.Recommendations[1].Title)
	assert.Equal(t, 5000.0, res.Recommendations[1].RevenueImpact)

	incentive := res.Recommendations[2]
	assert.Equal(t, "Implement Early Payment Incentives", incentive.Title)
	assert.Equal(t, 300.0, incentive.RevenueImpact)
}

func TestAnalyzePaymentsEmpty(t *testing.T) {
	res := AnalyzePayments(nil, testNow)

	assert.NotNil(t, res.OverduePayments)
	assert.Empty(t, res.OverduePayments)
	assert.Empty(t, res.Recommendations)
	require.Len(t, res.Insights, 1)
	assert.Contains(t, res.Insights[0], InsufficientDataPrefix)
}
