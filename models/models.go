package models

import (
	"time"

	"github.com/drumok/cashflowpre/analytics"
	"github.com/drumok/cashflowpre/leads"

	"github.com/golang-jwt/jwt/v4"
)

// --- JWT & Auth ---

// JwtClaims is the token issued by the identity provider. UserID falls back
// to the standard subject claim when the provider does not set userId.
type JwtClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Identity returns the user id carried by the token.
func (c *JwtClaims) Identity() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// --- Requests ---

// AnalysisRequest is the body of POST /analytics.
type AnalysisRequest struct {
	AnalysisType string                  `json:"analysisType"`
	Sales        []analytics.SalesRecord `json:"sales"`
	Invoices     []analytics.Invoice     `json:"invoices"`
}

// LeadRequest is the body of POST /leads and POST /leads/all.
type LeadRequest struct {
	LeadType string                  `json:"leadType"`
	Sales    []analytics.SalesRecord `json:"sales"`
	Invoices []analytics.Invoice     `json:"invoices"`
}

// CheckoutRequest is the body of POST /subscription/checkout.
type CheckoutRequest struct {
	Plan string `json:"plan"`
}

// --- Stored leads ---

// StoredLead is a generated lead persisted for a user. The lead's own ID is
// only unique within one generation, so rows get their own id.
type StoredLead struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Lead      leads.Lead `json:"lead"`
	CreatedAt time.Time  `json:"createdAt"`
}

// LeadFilter narrows a stored lead listing. Empty fields match everything.
type LeadFilter struct {
	Type    leads.LeadType
	Urgency leads.Urgency
	Limit   int
}

// Matches reports whether l passes the filter.
func (f LeadFilter) Matches(l leads.Lead) bool {
	return (f.Type == "" || l.Type == f.Type) && (f.Urgency == "" || l.Urgency == f.Urgency)
}
