// Package ingest parses uploaded sales data files into domain records. Column
// headers are matched loosely (case, spacing and punctuation insensitive) so
// exports from different tools ingest without manual cleanup.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/salescast/backend-go/internal/domain"
)

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// dateLayouts are accepted input formats, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
	time.RFC3339,
}

// ReadSalesCSV parses a sales CSV into records. Required columns are date,
// brand, model and quantity_sold; unknown columns are ignored. Rows sharing a
// (date, brand, model) key have their quantities summed. Parse failures on
// date or quantity abort the whole file with an InvalidInputError, so a bad
// upload never half-loads.
func ReadSalesCSV(r io.Reader) ([]domain.SalesRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colIndex := func(names ...string) int {
		targets := make(map[string]struct{}, len(names))
		for _, name := range names {
			targets[normalizeColumnName(name)] = struct{}{}
		}
		for i, h := range header {
			if _, ok := targets[normalizeColumnName(h)]; ok {
				return i
			}
		}
		return -1
	}

	idxDate := colIndex("date", "sale date", "tanggal")
	idxBrand := colIndex("brand")
	idxModel := colIndex("model", "product", "product name", "sku")
	idxQty := colIndex("quantity_sold", "quantity sold", "quantity", "qty", "sales")

	for name, idx := range map[string]int{
		"date": idxDate, "brand": idxBrand, "model": idxModel, "quantity_sold": idxQty,
	} {
		if idx < 0 {
			return nil, domain.NewInvalidInput(name, "column is missing from the CSV header")
		}
	}

	type key struct {
		date  string
		brand string
		model string
	}
	totals := make(map[key]float64)
	var order []key

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		line++

		get := func(idx int) string {
			if idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		rawDate := get(idxDate)
		date, err := parseDate(rawDate)
		if err != nil {
			return nil, domain.NewInvalidInput("date", "row %d: unparseable value %q", line, rawDate)
		}

		rawQty := get(idxQty)
		qty, err := strconv.ParseFloat(strings.ReplaceAll(rawQty, ",", ""), 64)
		if err != nil {
			return nil, domain.NewInvalidInput("quantity_sold", "row %d: unparseable value %q", line, rawQty)
		}
		if qty < 0 {
			return nil, domain.NewInvalidInput("quantity_sold", "row %d: negative quantity %v", line, qty)
		}

		k := key{date: date.Format(domain.DateLayout), brand: get(idxBrand), model: get(idxModel)}
		if k.brand == "" || k.model == "" {
			return nil, domain.NewInvalidInput("brand", "row %d: brand and model must not be empty", line)
		}
		if _, ok := totals[k]; !ok {
			order = append(order, k)
		}
		totals[k] += qty
	}

	if len(order) == 0 {
		return nil, domain.ErrEmptySeries
	}

	records := make([]domain.SalesRecord, 0, len(order))
	for _, k := range order {
		date, _ := time.Parse(domain.DateLayout, k.date)
		records = append(records, domain.SalesRecord{
			Date:         date.UTC(),
			Brand:        k.brand,
			Model:        k.model,
			QuantitySold: totals[k],
		})
	}
	return records, nil
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
