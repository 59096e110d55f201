package analytics

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidAnalysisType is returned for an unknown analysis tag.
var ErrInvalidAnalysisType = errors.New("invalid analysis type")

// ParseAnalysisType validates a tag received from a client.
func ParseAnalysisType(s string) (AnalysisType, error) {
	t := AnalysisType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidAnalysisType, s)
	}
	return t, nil
}

// Option configures an Engine.
type Option func(*Engine)

// WithCostModel replaces the cost model used by profitability analysis.
func WithCostModel(m CostModel) Option {
	return func(e *Engine) {
		if m != nil {
			e.costs = m
		}
	}
}

// Engine dispatches an analysis tag to its estimator. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	costs CostModel
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{costs: DefaultCostModel()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes analysis t over in as of now. Empty input is not an error;
// the result then carries an insufficient-data insight.
func (e *Engine) Run(t AnalysisType, in Input, now time.Time) (Result, error) {
	switch t {
	case SalesForecasting:
		return ForecastSales(in.Sales), nil
	case CustomerAnalysis:
		return AnalyzeCustomers(in.Sales, now), nil
	case CashFlowPrediction:
		return PredictCashFlow(in.Sales), nil
	case PaymentAnalysis:
		return AnalyzePayments(in.Invoices, now), nil
	case ProductPerformance:
		return AnalyzeProducts(in.Sales), nil
	case SeasonalTrends:
		return AnalyzeSeasonality(in.Sales, now), nil
	case CustomerRetention:
		return AnalyzeRetention(in.Sales, now), nil
	case ProfitabilityAnalysis:
		return AnalyzeProfitability(in.Sales, e.costs), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidAnalysisType, t)
}
