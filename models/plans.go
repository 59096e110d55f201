package models

import "strings"

// PlanTier names a subscription plan.
type PlanTier string

const (
	PlanFree    PlanTier = "free"
	PlanPro     PlanTier = "pro"
	PlanProPlus PlanTier = "pro_plus"
)

// Plan is the set of limits attached to a tier.
type Plan struct {
	Tier                PlanTier `json:"tier"`
	Name                string   `json:"name"`
	MonthlyAnalysisRuns int      `json:"monthlyAnalysisRuns"`
	MaxUploadMB         int      `json:"maxUploadMB"`
	MaxUsers            int      `json:"maxUsers"`
	StorageGB           int      `json:"storageGB"`
	Paid                bool     `json:"paid"`
}

var Plans = map[PlanTier]Plan{
	PlanFree: {
		Tier: PlanFree, Name: "Free",
		MonthlyAnalysisRuns: 5, MaxUploadMB: 5, MaxUsers: 1,
	},
	PlanPro: {
		Tier: PlanPro, Name: "Pro",
		MonthlyAnalysisRuns: 2000, MaxUploadMB: 1024, MaxUsers: 3, StorageGB: 50, Paid: true,
	},
	PlanProPlus: {
		Tier: PlanProPlus, Name: "Pro Plus",
		MonthlyAnalysisRuns: 5000, MaxUploadMB: 5120, MaxUsers: 4, StorageGB: 100, Paid: true,
	},
}

// PlanCatalogue lists plans from cheapest to most expensive.
func PlanCatalogue() []Plan {
	return []Plan{Plans[PlanFree], Plans[PlanPro], Plans[PlanProPlus]}
}

// PlanFor returns the plan for tier, or the free plan for an unknown tier.
func PlanFor(tier PlanTier) Plan {
	if p, ok := Plans[tier]; ok {
		return p
	}
	return Plans[PlanFree]
}

// ParsePaidTier accepts the tiers that can be bought through checkout.
func ParsePaidTier(s string) (PlanTier, bool) {
	t := PlanTier(strings.ToLower(strings.TrimSpace(s)))
	p, ok := Plans[t]
	return t, ok && p.Paid
}
