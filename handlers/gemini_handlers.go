package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/drumok/cashflowpre/analytics"
	"github.com/drumok/cashflowpre/database"
	"github.com/drumok/cashflowpre/logger"
	"github.com/drumok/cashflowpre/middleware"
	"github.com/drumok/cashflowpre/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Summarizer writes a narrative for a stored analysis.
type Summarizer interface {
	Summarize(ctx context.Context, run *models.AnalysisRun, result analytics.Result) (*models.AnalysisSummary, error)
}

var summarizer Summarizer

// SetSummarizer installs the AI summarizer. Without one the summary
// endpoint answers 503.
func SetSummarizer(s Summarizer) {
	summarizer = s
}

var errNoAIContent = errors.New("no content received from AI")

// GeminiSummarizer asks a Gemini model for the narrative.
type GeminiSummarizer struct {
	client *genai.Client
	model  string
}

func NewGeminiSummarizer(ctx context.Context, apiKey, model string) (*GeminiSummarizer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiSummarizer{client: client, model: model}, nil
}

func (g *GeminiSummarizer) Close() error {
	return g.client.Close()
}

func (g *GeminiSummarizer) Summarize(ctx context.Context, run *models.AnalysisRun, result analytics.Result) (*models.AnalysisSummary, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0.2)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(buildSummaryPrompt(run, result)))
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errNoAIContent
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	return parseSummary(run.ID, text.String())
}

// buildSummaryPrompt feeds the model only the computed insights and
// recommendations, never the raw records.
func buildSummaryPrompt(run *models.AnalysisRun, result analytics.Result) string {
	env := result.Common()

	var insights strings.Builder
	for _, s := range env.Insights {
		fmt.Fprintf(&insights, "- %s\n", s)
	}
	if insights.Len() == 0 {
		insights.WriteString("- (none)\n")
	}

	var recs strings.Builder
	for _, r := range env.Recommendations {
		fmt.Fprintf(&recs, "- [%s] %s: %s (potential impact %.0f)\n", r.Priority, r.Title, r.Description, r.RevenueImpact)
	}
	if recs.Len() == 0 {
		recs.WriteString("- (none)\n")
	}

	jsonFormat := `{"summary":"string","positive_factors":["string",...],"negative_factors":["string",...],"next_steps":["string",...]}`

	return fmt.Sprintf(`
        You are an experienced small-business advisor. Explain the analysis below to the owner in plain language.
        Revenue impacts are estimates of potential, not guarantees; say so where relevant.

        **Analysis Context:**
        - Analysis: %s
        - Records analysed: %d
        - Run date: %s

        **Insights:**
        %s
        **Recommendations:**
        %s
        **Required Output:**
        You must provide a single, minified JSON object with the following exact structure. Do not include any markdown formatting, backticks, or explanatory text before or after the JSON object.

        %s
    `, run.Type, run.RecordCount, run.CreatedAt.Format("2006-01-02"), insights.String(), recs.String(), jsonFormat)
}

func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return raw[start : end+1]
}

func parseSummary(runID, text string) (*models.AnalysisSummary, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errNoAIContent
	}
	jsonStr := extractJSON(text)
	if jsonStr == "" {
		return nil, fmt.Errorf("failed to parse AI response format")
	}

	var out models.AnalysisSummary
	if err := json.Unmarshal([]byte(jsonStr), &out); err != nil {
		return nil, fmt.Errorf("failed to parse AI summary: %w", err)
	}
	if out.Summary == "" {
		return nil, errNoAIContent
	}
	out.RunID = runID
	out.GeneratedAt = now().UTC()
	return &out, nil
}

// HandleSummarizeAnalysis asks the AI service to narrate a stored run.
// POST /api/v1/analytics/:id/summary
func HandleSummarizeAnalysis(c *fiber.Ctx) error {
	if summarizer == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"success": false, "message": "AI summaries are not configured"})
	}

	run, err := database.GetStore().GetAnalysisRun(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return err
	}
	result, err := run.Decode()
	if err != nil {
		return err
	}

	summary, err := summarizer.Summarize(c.UserContext(), run, result)
	if err != nil {
		logger.Log.WithError(err).WithField("runId", run.ID).Error("[AI SUMMARY] generation failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"success": false, "message": "Failed to generate summary from AI"})
	}
	return c.JSON(fiber.Map{"success": true, "data": summary})
}
