package analytics

// CostModel estimates cost as a share of revenue. No real cost data exists
// for uploaded sales, so every implementation is an approximation.
type CostModel interface {
	// OverallRatio applies to the business as a whole.
	OverallRatio() float64
	// RatioFor applies to one product's or customer's revenue.
	RatioFor(revenue float64) float64
}

// TierOp says which side of the threshold a tier matches.
type TierOp string

const (
	Above TierOp = "above"
	Below TierOp = "below"
)

// CostTier assigns Ratio to revenues strictly above or below Threshold.
type CostTier struct {
	Op        TierOp  `json:"op" mapstructure:"op"`
	Threshold float64 `json:"threshold" mapstructure:"threshold"`
	Ratio     float64 `json:"ratio" mapstructure:"ratio"`
}

func (t CostTier) matches(revenue float64) bool {
	if t.Op == Below {
		return revenue < t.Threshold
	}
	return revenue > t.Threshold
}

// TieredCostModel tries Tiers in order and falls back to Baseline.
type TieredCostModel struct {
	Baseline float64
	Tiers    []CostTier
}

func (m TieredCostModel) OverallRatio() float64 { return m.Baseline }

func (m TieredCostModel) RatioFor(revenue float64) float64 {
	for _, t := range m.Tiers {
		if t.matches(revenue) {
			return t.Ratio
		}
	}
	return m.Baseline
}

// DefaultCostModel is the small-business rule of thumb: larger accounts
// earn better margins, small ones cost more to serve.
func DefaultCostModel() TieredCostModel {
	return TieredCostModel{
		Baseline: 0.65,
		Tiers: []CostTier{
			{Op: Above, Threshold: 50000, Ratio: 0.55},
			{Op: Above, Threshold: 20000, Ratio: 0.60},
			{Op: Below, Threshold: 5000, Ratio: 0.75},
		},
	}
}
