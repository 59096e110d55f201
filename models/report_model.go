package models

import (
	"encoding/json"
	"time"

	"github.com/drumok/cashflowpre/analytics"
)

// AnalysisRun is one stored execution of an analysis. Result holds the
// variant's JSON; decode it with analytics.DecodeResult.
type AnalysisRun struct {
	ID          string                 `json:"id"`
	UserID      string                 `json:"userId"`
	Type        analytics.AnalysisType `json:"analysisType"`
	RecordCount int                    `json:"recordCount"`
	Source      string                 `json:"source"`
	Result      json.RawMessage        `json:"result"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// Run sources.
const (
	SourceJSON   = "json"
	SourceUpload = "upload"
)

// Decode restores the typed result.
func (r *AnalysisRun) Decode() (analytics.Result, error) {
	return analytics.DecodeResult(r.Type, r.Result)
}

// RunFilter pages through a user's analysis history.
type RunFilter struct {
	Type     analytics.AnalysisType
	Page     int
	PageSize int
}

// Offset is the number of rows skipped before the requested page.
func (f RunFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}
