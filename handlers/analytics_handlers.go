package handlers

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/drumok/cashflowpre/analytics"
	"github.com/drumok/cashflowpre/database"
	"github.com/drumok/cashflowpre/ingest"
	"github.com/drumok/cashflowpre/logger"
	"github.com/drumok/cashflowpre/metrics"
	"github.com/drumok/cashflowpre/middleware"
	"github.com/drumok/cashflowpre/models"
	"github.com/drumok/cashflowpre/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const bytesPerMB = 1 << 20

// runView is a stored run with its result decoded into the typed variant.
type runView struct {
	*models.AnalysisRun
	Result analytics.Result `json:"result"`
}

// runAnalysis executes t, stores the run and meters it against the profile.
func runAnalysis(c *fiber.Ctx, profile *models.UserProfile, t analytics.AnalysisType, in analytics.Input, source string, uploadedMB float64) (*runView, error) {
	at := now()
	records := in.Len(t)

	start := time.Now()
	result, err := engine.Run(t, in, at)
	metrics.ObserveAnalysis(string(t), records, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", t, err)
	}
	run := &models.AnalysisRun{
		ID:          uuid.NewString(),
		UserID:      profile.ID,
		Type:        t,
		RecordCount: records,
		Source:      source,
		Result:      data,
		CreatedAt:   at.UTC(),
	}

	store := database.GetStore()
	ctx := c.UserContext()
	if err := store.SaveAnalysisRun(ctx, run); err != nil {
		return nil, err
	}
	if err := store.IncrementUsage(ctx, profile.ID, models.Usage{AnalysisRuns: 1, DataUploadedMB: uploadedMB}); err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"userId":       profile.ID,
		"analysisType": t,
		"records":      records,
		"source":       source,
		"runId":        run.ID,
	}).Info("[ANALYTICS] run stored")
	return &runView{AnalysisRun: run, Result: result}, nil
}

// HandleRunAnalysis runs an analysis over records posted as JSON.
// POST /api/v1/analytics
func HandleRunAnalysis(c *fiber.Ctx) error {
	profile, err := middleware.Profile(c)
	if err != nil {
		return err
	}

	var req models.AnalysisRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	t, err := analytics.ParseAnalysisType(req.AnalysisType)
	if err != nil {
		return err
	}

	in := analytics.Input{Sales: req.Sales, Invoices: req.Invoices}
	if problems := validateInput(in); len(problems) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid records",
			"errors":  problems,
		})
	}

	view, err := runAnalysis(c, profile, t, in, models.SourceJSON, 0)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": view})
}

// HandleUploadAnalysis ingests a CSV export and runs an analysis over it.
// The record kind defaults to whatever the analysis reads.
// POST /api/v1/analytics/upload
func HandleUploadAnalysis(c *fiber.Ctx) error {
	profile, err := middleware.Profile(c)
	if err != nil {
		return err
	}

	t, err := analytics.ParseAnalysisType(c.FormValue("analysisType"))
	if err != nil {
		return err
	}
	kind, err := ingest.ParseKind(c.FormValue("recordKind"))
	if err != nil {
		return err
	}
	if c.FormValue("recordKind") == "" && t.UsesInvoices() {
		kind = ingest.KindInvoices
	}
	if (kind == ingest.KindInvoices) != t.UsesInvoices() {
		return badRequest(c, fmt.Sprintf("%s cannot be computed from %s records", t, kind))
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "A CSV file is required in the 'file' field")
	}
	if !strings.HasSuffix(strings.ToLower(fh.Filename), ".csv") {
		return badRequest(c, "Only .csv files are supported")
	}
	if limit := middleware.UploadLimitBytes(profile); fh.Size > limit {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"success": false,
			"message": fmt.Sprintf("Upload exceeds the %d MB limit of your plan", limit/bytesPerMB),
		})
	}

	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	in, err := ingest.Read(kind, f)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"userId": profile.ID, "file": fh.Filename}).
			WithError(err).Warn("[ANALYTICS] upload rejected")
		return err
	}

	view, err := runAnalysis(c, profile, t, in, models.SourceUpload, float64(fh.Size)/bytesPerMB)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": view})
}

// HandleListAnalyses pages through the caller's stored runs, newest first.
// GET /api/v1/analytics?page=&pageSize=&type=
func HandleListAnalyses(c *fiber.Ctx) error {
	var filter models.RunFilter
	if raw := c.Query("type"); raw != "" {
		t, err := analytics.ParseAnalysisType(raw)
		if err != nil {
			return err
		}
		filter.Type = t
	}
	filter.Page, filter.PageSize = utils.NormalizePage(c.QueryInt("page", 1), c.QueryInt("pageSize", utils.DefaultPageSize))

	runs, total, err := database.GetStore().ListAnalysisRuns(c.UserContext(), middleware.UserID(c), filter)
	if err != nil {
		return err
	}

	// listings carry metadata only; fetch a run to read its result
	items := make([]fiber.Map, len(runs))
	for i, r := range runs {
		items[i] = fiber.Map{
			"id":           r.ID,
			"analysisType": r.Type,
			"recordCount":  r.RecordCount,
			"source":       r.Source,
			"createdAt":    r.CreatedAt,
		}
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"data":       items,
		"pagination": utils.CreatePagination(total, filter.Page, filter.PageSize),
	})
}

// HandleGetAnalysis returns one stored run.
// GET /api/v1/analytics/:id
func HandleGetAnalysis(c *fiber.Ctx) error {
	run, err := database.GetStore().GetAnalysisRun(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return err
	}
	result, err := run.Decode()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": runView{AnalysisRun: run, Result: result}})
}
