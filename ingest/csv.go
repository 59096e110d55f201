// Package ingest turns uploaded CSV exports into analytics records.
// Headers are matched case-insensitively against a set of common aliases;
// every data row is validated and reported by its spreadsheet row number.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/drumok/cashflowpre/analytics"
)

var (
	ErrEmptyFile     = errors.New("file has no header row")
	ErrMissingColumn = errors.New("missing required column")
	ErrUnknownKind   = errors.New("unknown record kind")
)

// Kind selects which record type a file holds.
type Kind string

const (
	KindSales    Kind = "sales"
	KindInvoices Kind = "invoices"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindSales, KindInvoices:
		return k, nil
	case "":
		return KindSales, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// maxRowErrors bounds how many bad rows are reported back.
const maxRowErrors = 20

// RowError describes one invalid cell. Row is the line the record starts on
// in the file, so a header on the first line puts the first record on row 2.
type RowError struct {
	Row    int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d, column %s: %v", e.Row, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// ValidationError collects the row errors found in a file.
type ValidationError struct {
	Rows      []*RowError
	Truncated bool
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Rows))
	for i, r := range e.Rows {
		msgs[i] = r.Error()
	}
	s := strings.Join(msgs, "; ")
	if e.Truncated {
		s += "; further errors omitted"
	}
	return s
}

func (e *ValidationError) add(row int, column string, err error) {
	if len(e.Rows) == maxRowErrors {
		e.Truncated = true
		return
	}
	e.Rows = append(e.Rows, &RowError{Row: row, Column: column, Err: err})
}

func (e *ValidationError) orNil() error {
	if len(e.Rows) == 0 {
		return nil
	}
	return e
}

// Read parses r as the given kind into an analytics input batch.
func Read(kind Kind, r io.Reader) (analytics.Input, error) {
	switch kind {
	case KindSales:
		sales, err := ReadSales(r)
		return analytics.Input{Sales: sales}, err
	case KindInvoices:
		invoices, err := ReadInvoices(r)
		return analytics.Input{Invoices: invoices}, err
	}
	return analytics.Input{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// column is a canonical field and the header spellings accepted for it.
type column struct {
	name     string
	aliases  []string
	required bool
}

// table is a parsed file: the header index plus an iterator over rows.
type table struct {
	reader *csv.Reader
	index  map[string]int
	row    int
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

func openTable(r io.Reader, columns []column) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	positions := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := positions[normalizeHeader(h)]; !dup {
			positions[normalizeHeader(h)] = i
		}
	}

	index := make(map[string]int, len(columns))
	var missing []string
	for _, c := range columns {
		found := false
		for _, alias := range append([]string{c.name}, c.aliases...) {
			if pos, ok := positions[alias]; ok {
				index[c.name] = pos
				found = true
				break
			}
		}
		if !found && c.required {
			missing = append(missing, c.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return &table{reader: reader, index: index}, nil
}

// next returns the next non-blank row, or io.EOF.
func (t *table) next() ([]string, error) {
	for {
		rec, err := t.reader.Read()
		if err != nil {
			return nil, err
		}
		t.row, _ = t.reader.FieldPos(0)
		if !blank(rec) {
			return rec, nil
		}
	}
}

func (t *table) get(rec []string, name string) string {
	pos, ok := t.index[name]
	if !ok || pos >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[pos])
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

var errRequired = errors.New("value is required")

// parseAmount accepts currency-formatted numbers such as "$1,250.00".
func parseAmount(s string) (float64, error) {
	if s == "" {
		return 0, errRequired
	}
	clean := strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative amount %q", s)
	}
	return v, nil
}
