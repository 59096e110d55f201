package handlers

import (
	"context"
	"time"

	"github.com/drumok/cashflowpre/analytics"
	"github.com/drumok/cashflowpre/database"
	"github.com/drumok/cashflowpre/leads"
	"github.com/drumok/cashflowpre/logger"
	"github.com/drumok/cashflowpre/metrics"
	"github.com/drumok/cashflowpre/middleware"
	"github.com/drumok/cashflowpre/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func generateLeads(t leads.LeadType, in leads.Input, at time.Time) ([]leads.Lead, error) {
	start := time.Now()
	out, err := leads.Generate(t, in, at)
	if err != nil {
		return nil, err
	}
	urgencies := make([]string, len(out))
	for i, l := range out {
		urgencies[i] = string(l.Urgency)
	}
	metrics.ObserveLeads(string(t), urgencies, time.Since(start))
	return out, nil
}

// storeLeads persists generated leads and meters them.
func storeLeads(ctx context.Context, userID string, generated []leads.Lead, at time.Time) error {
	if len(generated) == 0 {
		return nil
	}
	rows := make([]models.StoredLead, len(generated))
	for i, l := range generated {
		rows[i] = models.StoredLead{ID: uuid.NewString(), UserID: userID, Lead: l, CreatedAt: at.UTC()}
	}
	store := database.GetStore()
	if err := store.SaveLeads(ctx, rows); err != nil {
		return err
	}
	return store.IncrementUsage(ctx, userID, models.Usage{LeadsGenerated: len(generated)})
}

func bindLeadRequest(c *fiber.Ctx) (leads.Input, *models.LeadRequest, error) {
	var req models.LeadRequest
	if err := c.BodyParser(&req); err != nil {
		return leads.Input{}, nil, badRequest(c, "Invalid request body")
	}
	in := leads.Input{Sales: req.Sales, Invoices: req.Invoices}
	if problems := validateInput(analytics.Input{Sales: in.Sales, Invoices: in.Invoices}); len(problems) > 0 {
		return leads.Input{}, nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid records",
			"errors":  problems,
		})
	}
	return in, &req, nil
}

// HandleGenerateLeads runs one lead generator.
// POST /api/v1/leads
func HandleGenerateLeads(c *fiber.Ctx) error {
	profile, err := middleware.Profile(c)
	if err != nil {
		return err
	}
	in, req, err := bindLeadRequest(c)
	if req == nil {
		return err
	}
	t, err := leads.ParseLeadType(req.LeadType)
	if err != nil {
		return err
	}

	at := now()
	generated, err := generateLeads(t, in, at)
	if err != nil {
		return err
	}
	if err := storeLeads(c.UserContext(), profile.ID, generated, at); err != nil {
		return err
	}

	logger.Log.WithFields(logrus.Fields{
		"userId":   profile.ID,
		"leadType": t,
		"leads":    len(generated),
	}).Info("[LEADS] generated")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"leadType": t,
			"count":    len(generated),
			"leads":    generated,
		},
	})
}

// HandleGenerateAllLeads runs every generator concurrently over one batch.
// POST /api/v1/leads/all
func HandleGenerateAllLeads(c *fiber.Ctx) error {
	profile, err := middleware.Profile(c)
	if err != nil {
		return err
	}
	in, req, err := bindLeadRequest(c)
	if req == nil {
		return err
	}

	at := now()
	results := make([][]leads.Lead, len(leads.LeadTypes))
	g, ctx := errgroup.WithContext(c.UserContext())
	for i, t := range leads.LeadTypes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := generateLeads(t, in, at)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	byType := make(map[leads.LeadType][]leads.Lead, len(results))
	var all []leads.Lead
	for i, t := range leads.LeadTypes {
		byType[t] = results[i]
		all = append(all, results[i]...)
	}
	if err := storeLeads(c.UserContext(), profile.ID, all, at); err != nil {
		return err
	}

	logger.Log.WithFields(logrus.Fields{"userId": profile.ID, "leads": len(all)}).Info("[LEADS] generated all types")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total": len(all),
			"leads": byType,
		},
	})
}

// HandleListLeads returns stored leads, newest first.
// GET /api/v1/leads?leadType=&urgency=&limit=
func HandleListLeads(c *fiber.Ctx) error {
	filter := models.LeadFilter{Limit: c.QueryInt("limit", 0)}
	if raw := c.Query("leadType"); raw != "" {
		t, err := leads.ParseLeadType(raw)
		if err != nil {
			return err
		}
		filter.Type = t
	}
	if raw := c.Query("urgency"); raw != "" {
		switch u := leads.Urgency(raw); u {
		case leads.UrgencyHigh, leads.UrgencyMedium, leads.UrgencyLow:
			filter.Urgency = u
		default:
			return badRequest(c, "urgency must be high, medium or low")
		}
	}

	stored, err := database.GetStore().ListLeads(c.UserContext(), middleware.UserID(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": stored})
}
