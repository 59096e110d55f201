package models

import "time"

// AnalysisSummary is the narrative the AI service writes for a stored run.
type AnalysisSummary struct {
	RunID           string    `json:"runId"`
	Summary         string    `json:"summary"`
	PositiveFactors []string  `json:"positive_factors"`
	NegativeFactors []string  `json:"negative_factors"`
	NextSteps       []string  `json:"next_steps"`
	GeneratedAt     time.Time `json:"generatedAt"`
}
