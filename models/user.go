package models

import "time"

// Subscription statuses mirrored from Stripe.
const (
	StatusNone     = "none"
	StatusActive   = "active"
	StatusPastDue  = "past_due"
	StatusCanceled = "canceled"
)

// Usage counts metered activity in the current period.
type Usage struct {
	AnalysisRuns   int     `json:"analysisRuns"`
	LeadsGenerated int     `json:"leadsGenerated"`
	DataUploadedMB float64 `json:"dataUploadedMB"`
}

// Add returns u with delta applied.
func (u Usage) Add(delta Usage) Usage {
	return Usage{
		AnalysisRuns:   u.AnalysisRuns + delta.AnalysisRuns,
		LeadsGenerated: u.LeadsGenerated + delta.LeadsGenerated,
		DataUploadedMB: u.DataUploadedMB + delta.DataUploadedMB,
	}
}

// Subscription is the billing state of a profile.
type Subscription struct {
	Plan                 PlanTier `json:"plan"`
	Status               string   `json:"status"`
	StripeCustomerID     *string  `json:"stripeCustomerId,omitempty"`
	StripeSubscriptionID *string  `json:"stripeSubscriptionId,omitempty"`
}

// UserProfile is created on a user's first authenticated request.
type UserProfile struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	Subscription Subscription `json:"subscription"`
	Usage        Usage        `json:"usage"`
	UsageResetAt time.Time    `json:"usageResetAt"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Plan returns the limits the profile is entitled to. A paid tier whose
// subscription is not active falls back to the free limits.
func (p *UserProfile) Plan() Plan {
	if p.Subscription.Plan != PlanFree && p.Subscription.Status != StatusActive {
		return Plans[PlanFree]
	}
	return PlanFor(p.Subscription.Plan)
}

// HasPaidSubscription reports whether usage resets with the billing cycle.
func (p *UserProfile) HasPaidSubscription() bool {
	return p.Subscription.Plan != PlanFree && p.Subscription.Status == StatusActive
}

// UsageResponse is returned by GET /usage.
type UsageResponse struct {
	Plan         Plan      `json:"plan"`
	Status       string    `json:"status"`
	Usage        Usage     `json:"usage"`
	Remaining    int       `json:"remainingAnalysisRuns"`
	UsageResetAt time.Time `json:"usageResetAt"`
}
