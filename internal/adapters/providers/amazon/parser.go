package amazon

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/eshaffer321/amazon-tagger/internal/domain/aggregator"
	"github.com/eshaffer321/amazon-tagger/internal/domain/model"
	"github.com/eshaffer321/amazon-tagger/internal/domain/money"
)

// dateLayouts are tried in order. Older exports use two digit years; newer
// ones use ISO 8601 with a time component.
var dateLayouts = []string{
	"01/02/2006",
	"01/02/06",
	"2006-01-02",
	time.RFC3339,
}

// report is one CSV report indexed by header name
type report struct {
	source  string
	columns map[string]int
	records [][]string
}

// readReport reads a whole report. Missing required columns make the report
// unusable; everything else is checked row by row.
func readReport(r io.Reader, source string, required []string) (*report, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &report{source: source, columns: map[string]int{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s header: %w", source, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}

	var missing []string
	for _, col := range required {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s report is missing columns: %s", source, strings.Join(missing, ", "))
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s report: %w", source, err)
	}

	return &report{source: source, columns: columns, records: records}, nil
}

// row reads typed fields from one record, keeping the first error
type row struct {
	rep  *report
	rec  []string
	line int
	err  error
}

func (rp *report) row(i int) *row {
	return &row{rep: rp, rec: rp.records[i], line: i + 1}
}

func (r *row) blank() bool {
	for _, f := range r.rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func (r *row) str(col string) string {
	idx, ok := r.rep.columns[col]
	if !ok || idx >= len(r.rec) {
		return ""
	}
	return strings.TrimSpace(r.rec[idx])
}

func (r *row) fail(col string, err error) {
	if r.err == nil {
		r.err = &model.MalformedInputError{Source: r.rep.source, Row: r.line, Field: col, Err: err}
	}
}

func (r *row) amount(col string) money.Money {
	m, err := parseAmount(r.str(col))
	if err != nil {
		r.fail(col, err)
	}
	return m
}

func (r *row) date(col string) time.Time {
	s := r.str(col)
	if s == "" {
		return time.Time{}
	}
	d, err := parseDate(s)
	if err != nil {
		r.fail(col, err)
	}
	return d
}

func (r *row) quantity(col string) int {
	s := r.str(col)
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		r.fail(col, fmt.Errorf("invalid quantity %q", s))
	}
	return n
}

// ParseItems reads the items report. Rows that cannot be parsed are returned
// as MalformedInputError warnings and skipped.
func ParseItems(r io.Reader) ([]aggregator.ItemRow, []error, error) {
	rep, err := readReport(r, SourceItems, itemColumns)
	if err != nil {
		return nil, nil, err
	}

	var rows []aggregator.ItemRow
	var warnings []error
	for i := range rep.records {
		rr := rep.row(i)
		if rr.blank() {
			continue
		}
		item := aggregator.ItemRow{
			Line:         rr.line,
			OrderID:      rr.str(ColOrderID),
			OrderDate:    rr.date(ColOrderDate),
			Title:        rr.str(ColTitle),
			Category:     rr.str(ColCategory),
			Quantity:     rr.quantity(ColQuantity),
			UnitPrice:    rr.amount(ColUnitPrice),
			Subtotal:     rr.amount(ColItemSubtotal),
			Tax:          rr.amount(ColItemTax),
			ShipmentDate: rr.date(ColShipmentDate),
			Tracking:     rr.str(ColTracking),
		}
		if rr.err != nil {
			warnings = append(warnings, rr.err)
			continue
		}
		rows = append(rows, item)
	}
	return rows, warnings, nil
}

// ParseOrders reads the orders and shipments report.
func ParseOrders(r io.Reader) ([]aggregator.OrderRow, []error, error) {
	rep, err := readReport(r, SourceOrders, orderColumns)
	if err != nil {
		return nil, nil, err
	}

	var rows []aggregator.OrderRow
	var warnings []error
	for i := range rep.records {
		rr := rep.row(i)
		if rr.blank() {
			continue
		}
		order := aggregator.OrderRow{
			Line:         rr.line,
			OrderID:      rr.str(ColOrderID),
			OrderDate:    rr.date(ColOrderDate),
			ShipmentDate: rr.date(ColShipmentDate),
			Tracking:     rr.str(ColTracking),
			Subtotal:     rr.amount(ColSubtotal),
			Shipping:     rr.amount(ColShipping),
			Tax:          rr.amount(ColTaxCharged),
			Promotions:   rr.amount(ColPromotions).Abs(),
			Total:        rr.amount(ColTotal),
		}
		if rr.err != nil {
			warnings = append(warnings, rr.err)
			continue
		}
		rows = append(rows, order)
	}
	return rows, warnings, nil
}

// ParseRefunds reads the refunds report.
func ParseRefunds(r io.Reader) ([]aggregator.RefundRow, []error, error) {
	rep, err := readReport(r, SourceRefunds, refundColumns)
	if err != nil {
		return nil, nil, err
	}

	var rows []aggregator.RefundRow
	var warnings []error
	for i := range rep.records {
		rr := rep.row(i)
		if rr.blank() {
			continue
		}
		refund := aggregator.RefundRow{
			Line:       rr.line,
			OrderID:    rr.str(ColOrderID),
			OrderDate:  rr.date(ColOrderDate),
			Title:      rr.str(ColTitle),
			Category:   rr.str(ColCategory),
			Quantity:   rr.quantity(ColQuantity),
			RefundDate: rr.date(ColRefundDate),
			Amount:     rr.amount(ColRefundAmount),
			Tax:        rr.amount(ColRefundTax),
			Reason:     rr.str(ColRefundReason),
		}
		if rr.err != nil {
			warnings = append(warnings, rr.err)
			continue
		}
		rows = append(rows, refund)
	}
	return rows, warnings, nil
}

// parseAmount parses a currency string like "$116.20" or "$1,234.56"
func parseAmount(s string) (money.Money, error) {
	m, err := money.Parse(s)
	if err != nil {
		return money.Zero, fmt.Errorf("invalid amount: %w", err)
	}
	return m, nil
}

// parseDate parses the date formats found in Amazon reports. The result is
// the calendar date at midnight UTC.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date %q", s)
}
