package leads

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/drumok/cashflowpre/analytics"

	"github.com/dustin/go-humanize"
)

// ErrInvalidLeadType is returned for an unknown lead tag.
var ErrInvalidLeadType = errors.New("invalid lead type")

// ParseLeadType validates a tag received from a client.
func ParseLeadType(s string) (LeadType, error) {
	t := LeadType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidLeadType, s)
	}
	return t, nil
}

// Generate runs the generator for t as of now. It never returns a nil
// slice on success.
func Generate(t LeadType, in Input, now time.Time) ([]Lead, error) {
	switch t {
	case OverduePaymentRecovery:
		return OverdueLeads(in.Invoices, now), nil
	case RepeatCustomerReactivation:
		return ReactivationLeads(analytics.BuildCustomers(in.Sales), now), nil
	case TopCustomerUpsell:
		return UpsellLeads(analytics.BuildCustomers(in.Sales), now), nil
	case NewCustomerProspects:
		return ProspectLeads(analytics.BuildCustomers(in.Sales), now), nil
	case SeasonalOpportunity:
		return SeasonalLeads(in.Sales, now), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidLeadType, t)
}

const day = 24 * time.Hour

func daysSince(t, now time.Time) float64 {
	return float64(now.Sub(t)) / float64(day)
}

func wholeDaysSince(t, now time.Time) int {
	return int(math.Floor(daysSince(t, now)))
}

func money(v float64) string {
	return "$" + humanize.Comma(int64(math.Round(v)))
}

func customerContact(c analytics.Customer, context string, value float64) analytics.ContactInfo {
	return analytics.ContactInfo{
		Name:         c.Name,
		Email:        c.Email,
		Phone:        c.Phone,
		Context:      context,
		RevenueValue: &value,
	}
}
