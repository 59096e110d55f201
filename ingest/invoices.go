package ingest

import (
	"errors"
	"fmt"
	"io"

	"github.com/drumok/cashflowpre/analytics"
	"github.com/drumok/cashflowpre/utils"
)

var invoiceColumns = []column{
	{name: "id", aliases: []string{"invoice_id", "invoice_number", "number"}},
	{name: "customer_id", aliases: []string{"customer", "client_id", "client"}, required: true},
	{name: "amount", aliases: []string{"total", "total_amount", "amount_due"}, required: true},
	{name: "issue_date", aliases: []string{"issued", "invoice_date", "date"}, required: true},
	{name: "due_date", aliases: []string{"due", "due_on"}, required: true},
	{name: "paid_date", aliases: []string{"paid", "paid_at", "payment_date"}},
	{name: "status", aliases: []string{"invoice_status", "state"}},
}

// ReadInvoices parses an invoice export. A blank status is derived from the
// paid date: paid when one is present, pending otherwise.
func ReadInvoices(r io.Reader) ([]analytics.Invoice, error) {
	t, err := openTable(r, invoiceColumns)
	if err != nil {
		return nil, err
	}

	invoices := []analytics.Invoice{}
	verr := &ValidationError{}
	for {
		rec, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read invoices: %w", err)
		}

		inv := analytics.Invoice{
			ID:         t.get(rec, "id"),
			CustomerID: t.get(rec, "customer_id"),
		}
		if inv.ID == "" {
			inv.ID = fmt.Sprintf("row_%d", t.row)
		}

		ok := true
		fail := func(col string, err error) {
			verr.add(t.row, col, err)
			ok = false
		}
		if inv.CustomerID == "" {
			fail("customer_id", errRequired)
		}
		if inv.Amount, err = parseAmount(t.get(rec, "amount")); err != nil {
			fail("amount", err)
		}
		if inv.IssueDate, err = utils.ParseDate(t.get(rec, "issue_date")); err != nil {
			fail("issue_date", err)
		}
		if inv.DueDate, err = utils.ParseDate(t.get(rec, "due_date")); err != nil {
			fail("due_date", err)
		}
		if raw := t.get(rec, "paid_date"); raw != "" {
			paid, err := utils.ParseDate(raw)
			if err != nil {
				fail("paid_date", err)
			} else {
				inv.PaidDate = &paid
			}
		}

		switch raw := t.get(rec, "status"); {
		case raw != "":
			st, known := analytics.ParseInvoiceStatus(raw)
			if !known {
				fail("status", fmt.Errorf("unknown status %q", raw))
			}
			inv.Status = st
		case inv.PaidDate != nil:
			inv.Status = analytics.InvoicePaid
		default:
			inv.Status = analytics.InvoicePending
		}

		if ok {
			invoices = append(invoices, inv)
		}
	}

	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return invoices, nil
}
