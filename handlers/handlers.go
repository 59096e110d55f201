package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/drumok/cashflowpre/analytics"
	"github.com/drumok/cashflowpre/database"
	"github.com/drumok/cashflowpre/ingest"
	"github.com/drumok/cashflowpre/leads"
	"github.com/drumok/cashflowpre/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

var (
	engine = analytics.NewEngine()
	now    = time.Now
)

// SetEngine replaces the analysis engine, e.g. to install a configured
// cost model.
func SetEngine(e *analytics.Engine) {
	engine = e
}

const maxReportedProblems = 10

// validateInput checks the records a client posted as JSON. Uploaded files
// are validated by package ingest instead.
func validateInput(in analytics.Input) []string {
	var problems []string
	add := func(format string, args ...interface{}) {
		if len(problems) < maxReportedProblems {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}
	for i, s := range in.Sales {
		switch {
		case s.CustomerName == "":
			add("sales[%d]: customerName is required", i)
		case s.Date.IsZero():
			add("sales[%d]: date is required", i)
		case s.Amount < 0:
			add("sales[%d]: amount must not be negative", i)
		}
	}
	for i, inv := range in.Invoices {
		if _, ok := analytics.ParseInvoiceStatus(string(inv.Status)); !ok {
			add("invoices[%d]: unknown status %q", i, inv.Status)
		}
		switch {
		case inv.CustomerID == "":
			add("invoices[%d]: customerId is required", i)
		case inv.DueDate.IsZero():
			add("invoices[%d]: dueDate is required", i)
		case inv.Amount < 0:
			add("invoices[%d]: amount must not be negative", i)
		}
	}
	return problems
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": message})
}

// ErrorHandler is installed as the Fiber error handler. It maps domain
// errors to status codes and hides internal errors from clients.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	body := fiber.Map{"success": false, "message": "Internal server error"}

	var fe *fiber.Error
	var verr *ingest.ValidationError
	switch {
	case errors.As(err, &fe):
		code = fe.Code
		body["message"] = fe.Message
	case errors.Is(err, analytics.ErrInvalidAnalysisType),
		errors.Is(err, leads.ErrInvalidLeadType),
		errors.Is(err, ingest.ErrUnknownKind):
		code = fiber.StatusBadRequest
		body["message"] = err.Error()
	case errors.As(err, &verr):
		code = fiber.StatusUnprocessableEntity
		body["message"] = "File contains invalid rows"
		rows := make([]fiber.Map, len(verr.Rows))
		for i, r := range verr.Rows {
			rows[i] = fiber.Map{"row": r.Row, "column": r.Column, "error": r.Err.Error()}
		}
		body["errors"] = rows
		body["truncated"] = verr.Truncated
	case errors.Is(err, ingest.ErrMissingColumn), errors.Is(err, ingest.ErrEmptyFile):
		code = fiber.StatusUnprocessableEntity
		body["message"] = err.Error()
	case errors.Is(err, database.ErrNotFound):
		code = fiber.StatusNotFound
		body["message"] = "Not found"
	}

	if code >= fiber.StatusInternalServerError {
		logger.Log.WithError(err).WithFields(logrus.Fields{
			"method": c.Method(),
			"path":   c.Path(),
		}).Error("[HTTP] request failed")
	}
	return c.Status(code).JSON(body)
}
