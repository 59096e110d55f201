package ingest

import (
	"errors"
	"fmt"
	"io"

	"github.com/drumok/cashflowpre/analytics"
	"github.com/drumok/cashflowpre/utils"
)

var salesColumns = []column{
	{name: "id", aliases: []string{"sale_id", "order_id", "transaction_id"}},
	{name: "date", aliases: []string{"sale_date", "order_date", "transaction_date"}, required: true},
	{name: "amount", aliases: []string{"total", "total_amount", "revenue", "value"}, required: true},
	{name: "customer_name", aliases: []string{"customer", "customername", "client", "client_name"}, required: true},
	{name: "customer_email", aliases: []string{"email", "customer_mail"}},
	{name: "customer_phone", aliases: []string{"phone", "customer_phone_number"}},
	{name: "product", aliases: []string{"product_name", "item", "item_name"}},
	{name: "category", aliases: []string{"product_category"}},
}

// ReadSales parses a sales export. Rows without an id get "row_<n>".
func ReadSales(r io.Reader) ([]analytics.SalesRecord, error) {
	t, err := openTable(r, salesColumns)
	if err != nil {
		return nil, err
	}

	records := []analytics.SalesRecord{}
	verr := &ValidationError{}
	for {
		rec, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read sales: %w", err)
		}

		s := analytics.SalesRecord{
			ID:            t.get(rec, "id"),
			CustomerName:  t.get(rec, "customer_name"),
			CustomerEmail: utils.OptionalString(t.get(rec, "customer_email")),
			CustomerPhone: utils.OptionalString(t.get(rec, "customer_phone")),
			Product:       utils.OptionalString(t.get(rec, "product")),
			Category:      utils.OptionalString(t.get(rec, "category")),
		}
		if s.ID == "" {
			s.ID = fmt.Sprintf("row_%d", t.row)
		}

		ok := true
		if s.CustomerName == "" {
			verr.add(t.row, "customer_name", errRequired)
			ok = false
		}
		if s.Date, err = utils.ParseDate(t.get(rec, "date")); err != nil {
			verr.add(t.row, "date", err)
			ok = false
		}
		if s.Amount, err = parseAmount(t.get(rec, "amount")); err != nil {
			verr.add(t.row, "amount", err)
			ok = false
		}
		if ok {
			records = append(records, s)
		}
	}

	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return records, nil
}
