package ingest

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/drumok/cashflowpre/analytics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSales(t *testing.T) {
	in := "Sale ID,Order Date,Total,Customer,Email,Product\n" +
		"S1,2024-01-15,\"$1,250.50\",Alice,alice@example.com,Widget\n" +
		",01/20/2024,300,Bob,,\n" +
		"\n" +
		"S3,2024-02-01T10:00:00Z,99.5,Carol, ,Gadget\n"

	sales, err := ReadSales(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, sales, 3)

	a := sales[0]
	assert.Equal(t, "S1", a.ID)
	assert.Equal(t, 1250.5, a.Amount)
	assert.Equal(t, "Alice", a.CustomerName)
	require.NotNil(t, a.CustomerEmail)
	assert.Equal(t, "alice@example.com", *a.CustomerEmail)
	require.NotNil(t, a.Product)
	assert.Equal(t, "Widget", *a.Product)
	assert.Nil(t, a.Category)
	assert.True(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC).Equal(a.Date))

	assert.Equal(t, "row_3", sales[1].ID)
	assert.Nil(t, sales[1].CustomerEmail)
	assert.Nil(t, sales[2].CustomerEmail)
}

func TestReadSalesHeaderOnly(t *testing.T) {
	sales, err := ReadSales(strings.NewReader("date,amount,customer_name\n"))
	require.NoError(t, err)
	assert.NotNil(t, sales)
	assert.Empty(t, sales)
}

func TestReadSalesMissingColumns(t *testing.T) {
	_, err := ReadSales(strings.NewReader("date,customer\n2024-01-01,Alice\n"))
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "amount")
}

func TestReadSalesEmptyFile(t *testing.T) {
	_, err := ReadSales(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestReadSalesRowErrors(t *testing.T) {
	in := "date,amount,customer_name\n" +
		"2024-01-01,100,Alice\n" +
		"not-a-date,-5,\n" +
		"2024-01-03,abc,Carol\n"

	_, err := ReadSales(strings.NewReader(in))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Rows, 4)

	assert.Equal(t, 3, verr.Rows[0].Row)
	assert.Equal(t, "customer_name", verr.Rows[0].Column)
	assert.ErrorIs(t, verr.Rows[0], errRequired)
	assert.Equal(t, "date", verr.Rows[1].Column)
	assert.Equal(t, "amount", verr.Rows[2].Column)
	assert.Contains(t, verr.Rows[2].Error(), "negative")
	assert.Equal(t, 4, verr.Rows[3].Row)
}

func TestReadSalesTruncatesErrors(t *testing.T) {
	var b strings.Builder
	b.WriteString("date,amount,customer_name\n")
	for i := 0; i < maxRowErrors+5; i++ {
		b.WriteString("bad,1,X\n")
	}

	_, err := ReadSales(strings.NewReader(b.String()))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Rows, maxRowErrors)
	assert.True(t, verr.Truncated)
	assert.Contains(t, err.Error(), "further errors omitted")
}

func TestReadInvoices(t *testing.T) {
	in := "Invoice Number,Client ID,Amount Due,Invoice Date,Due,Paid At,Status\n" +
		"INV-1,C1,1000,2024-01-01,2024-01-31,2024-01-20,\n" +
		"INV-2,C2,2500,2024-02-01,2024-03-01,,\n" +
		"INV-3,C3,400,2024-02-01,2024-03-01,,OVERDUE\n"

	invoices, err := ReadInvoices(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, invoices, 3)

	assert.Equal(t, analytics.InvoicePaid, invoices[0].Status)
	require.NotNil(t, invoices[0].PaidDate)
	assert.Equal(t, 20, invoices[0].PaidDate.Day())

	assert.Equal(t, analytics.InvoicePending, invoices[1].Status)
	assert.Nil(t, invoices[1].PaidDate)
	assert.Equal(t, analytics.InvoiceOverdue, invoices[2].Status)
	assert.Equal(t, "C3", invoices[2].CustomerID)
}

func TestReadInvoicesRowErrors(t *testing.T) {
	in := "id,customer_id,amount,issue_date,due_date,paid_date,status\n" +
		"I1,C1,100,2024-01-01,2024-02-01,someday,lost\n"

	_, err := ReadInvoices(strings.NewReader(in))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Rows, 2)
	assert.Equal(t, "paid_date", verr.Rows[0].Column)
	assert.Equal(t, "status", verr.Rows[1].Column)
	assert.Equal(t, 2, verr.Rows[0].Row)
}

func TestRead(t *testing.T) {
	in, err := Read(KindInvoices, strings.NewReader("customer_id,amount,issue_date,due_date\nC1,10,2024-01-01,2024-01-15\n"))
	require.NoError(t, err)
	assert.Len(t, in.Invoices, 1)
	assert.Empty(t, in.Sales)

	_, err = Read("payroll", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindSales, k)

	k, err = ParseKind(" Invoices ")
	require.NoError(t, err)
	assert.Equal(t, KindInvoices, k)

	_, err = ParseKind("orders")
	assert.ErrorIs(t, err, ErrUnknownKind)
}
