package analytics

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

const day = 24 * time.Hour

// InsufficientDataPrefix starts every insight emitted on the
// not-enough-data path so callers can recognise it.
const InsufficientDataPrefix = "Insufficient data:"

func insufficientData(format string, args ...any) string {
	return InsufficientDataPrefix + " " + fmt.Sprintf(format, args...)
}

// money renders a currency amount rounded to whole units with thousands
// separators, e.g. 12345.6 -> "$12,346".
func money(v float64) string {
	return "$" + humanize.Comma(int64(math.Round(v)))
}

// round2 rounds to two decimal places for display fields.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// daysBetween returns fractional days from t to now.
func daysBetween(t, now time.Time) float64 {
	return float64(now.Sub(t)) / float64(day)
}

// wholeDaysBetween floors daysBetween.
func wholeDaysBetween(t, now time.Time) int {
	return int(math.Floor(daysBetween(t, now)))
}

// safeRatio returns num/den, or 0 when den is zero. Results must stay
// JSON-encodable, so NaN and Inf never escape.
func safeRatio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	r := num / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the population standard deviation.
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sq float64
	for _, v := range values {
		sq += (v - m) * (v - m)
	}
	return math.Sqrt(sq / float64(len(values)))
}

func recommend(title, description string, p Priority, impact float64, contacts ...ContactInfo) Recommendation {
	if contacts == nil {
		contacts = []ContactInfo{}
	}
	return Recommendation{
		Title:         title,
		Description:   description,
		Priority:      p,
		RevenueImpact: math.Round(impact),
		ImpactType:    ImpactPotential,
		Contacts:      contacts,
	}
}

// roleContact names an internal role to involve. Roles have no known
// address, so email and phone stay unset.
func roleContact(role, context string) ContactInfo {
	return ContactInfo{Name: role, Context: context}
}

func customerContact(c Customer, context string) ContactInfo {
	return ContactInfo{
		Name:    c.Name,
		Email:   c.Email,
		Phone:   c.Phone,
		Context: context,
	}
}

func monthLabel(t time.Time) string {
	return t.Format("Jan 2006")
}

func newEnvelope() Envelope {
	return Envelope{Insights: []string{}, Recommendations: []Recommendation{}}
}
