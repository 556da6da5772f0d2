package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"AgriIntel/internal/domain/models"
	"AgriIntel/internal/usecase"
)

var header = []string{"state", "commodity", "price_date", "modal_price"}

// Rejected is a CSV line that failed validation.
type Rejected struct {
	Line int
	Err  error
}

// ReadPriceCSV parses the feed file. Invalid lines are returned in rejected
// and skipped; a malformed header or unreadable file is an error.
func ReadPriceCSV(r io.Reader) (rows []models.PriceRow, rejected []Rejected, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)
	cr.TrimLeadingSpace = true

	first, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := headerIndex(first)
	if err != nil {
		return nil, nil, err
	}

	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) && errors.Is(pe.Err, csv.ErrFieldCount) {
				rejected = append(rejected, Rejected{Line: line, Err: err})
				continue
			}
			return nil, nil, err
		}
		row, err := parseRecord(rec, cols)
		if err != nil {
			rejected = append(rejected, Rejected{Line: line, Err: err})
			continue
		}
		rows = append(rows, row)
	}
	return rows, rejected, nil
}

func headerIndex(rec []string) (map[string]int, error) {
	idx := make(map[string]int, len(rec))
	for i, name := range rec {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, h := range header {
		if _, ok := idx[h]; !ok {
			return nil, fmt.Errorf("header missing column %q", h)
		}
	}
	return idx, nil
}

func parseRecord(rec []string, cols map[string]int) (models.PriceRow, error) {
	m := models.PriceMessage{
		State:     rec[cols["state"]],
		Commodity: rec[cols["commodity"]],
		PriceDate: strings.TrimSpace(rec[cols["price_date"]]),
	}
	if raw := strings.TrimSpace(rec[cols["modal_price"]]); raw != "" {
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.PriceRow{}, fmt.Errorf("modal_price: %w", err)
		}
		m.ModalPrice = &p
	}
	return usecase.ParsePriceMessage(m)
}
