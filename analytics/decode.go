package analytics

import (
	"encoding/json"
	"fmt"
)

// NewResult returns an empty variant for t, ready to be decoded into.
func NewResult(t AnalysisType) (Result, error) {
	switch t {
	case SalesForecasting:
		return &SalesForecastResult{}, nil
	case CustomerAnalysis:
		return &CustomerAnalysisResult{}, nil
	case CashFlowPrediction:
		return &CashFlowResult{}, nil
	case PaymentAnalysis:
		return &PaymentAnalysisResult{}, nil
	case ProductPerformance:
		return &ProductPerformanceResult{}, nil
	case SeasonalTrends:
		return &SeasonalResult{}, nil
	case CustomerRetention:
		return &RetentionResult{}, nil
	case ProfitabilityAnalysis:
		return &ProfitabilityResult{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidAnalysisType, t)
}

// DecodeResult restores a stored result into its variant.
func DecodeResult(t AnalysisType, data []byte) (Result, error) {
	res, err := NewResult(t)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, res); err != nil {
		return nil, fmt.Errorf("decode %s result: %w", t, err)
	}
	return res, nil
}
