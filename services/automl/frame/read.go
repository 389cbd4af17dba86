// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package frame

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// naTokens are cell renderings treated as null on ingest.
var naTokens = map[string]bool{
	"": true, "na": true, "n/a": true, "nan": true, "null": true, "none": true,
}

var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// ReadCSV parses CSV bytes into a frame. The first record is the header;
// column kinds are inferred from the observed non-null values.
func ReadCSV(r io.Reader) (*Frame, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parse csv: empty file")
	}
	return buildFrame(records[0], records[1:])
}

// ReadXLSX parses spreadsheet bytes into a frame using the first sheet.
func ReadXLSX(data []byte) (*Frame, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse xlsx: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("parse xlsx: no sheets")
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("parse xlsx: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("parse xlsx: empty sheet")
	}
	header := rows[0]
	body := make([][]string, len(rows)-1)
	for i, row := range rows[1:] {
		// excelize truncates trailing empty cells; pad back to header width
		padded := make([]string, len(header))
		copy(padded, row)
		body[i] = padded
	}
	return buildFrame(header, body)
}

func buildFrame(header []string, rows [][]string) (*Frame, error) {
	f := New()
	for j, rawName := range header {
		name := strings.TrimSpace(rawName)
		if name == "" {
			name = fmt.Sprintf("column_%d", j)
		}
		raw := make([]string, len(rows))
		for i, row := range rows {
			if j < len(row) {
				raw[i] = strings.TrimSpace(row[j])
			}
		}
		if err := f.AddColumn(inferColumn(name, raw)); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// inferColumn probes a raw string column in priority order: boolean, then
// numeric, then datetime, falling back to categorical. A column with no
// observed values is unknown.
func inferColumn(name string, raw []string) *Column {
	nulls := make([]bool, len(raw))
	observed := 0
	for i, cell := range raw {
		if naTokens[strings.ToLower(cell)] {
			nulls[i] = true
		} else {
			observed++
		}
	}
	if observed == 0 {
		return &Column{name: name, kind: KindUnknown, null: nulls}
	}

	if vals, ok := tryBools(raw, nulls); ok {
		return NewBoolColumn(name, vals, nulls)
	}
	if vals, integral, ok := tryFloats(raw, nulls); ok {
		c := NewNumericColumn(name, vals, nulls)
		c.integral = integral
		return c
	}
	if vals, ok := tryTimes(raw, nulls); ok {
		return NewDatetimeColumn(name, vals, nulls)
	}

	vals := make([]string, len(raw))
	copy(vals, raw)
	return NewCategoricalColumn(name, vals, nulls)
}

func tryBools(raw []string, nulls []bool) ([]bool, bool) {
	vals := make([]bool, len(raw))
	for i, cell := range raw {
		if nulls[i] {
			continue
		}
		switch strings.ToLower(cell) {
		case "true":
			vals[i] = true
		case "false":
			vals[i] = false
		default:
			return nil, false
		}
	}
	return vals, true
}

func tryFloats(raw []string, nulls []bool) (vals []float64, integral, ok bool) {
	vals = make([]float64, len(raw))
	integral = true
	for i, cell := range raw {
		if nulls[i] {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, false, false
		}
		vals[i] = v
		if v != float64(int64(v)) || strings.ContainsAny(cell, ".eE") {
			integral = false
		}
	}
	return vals, integral, true
}

func tryTimes(raw []string, nulls []bool) ([]time.Time, bool) {
	vals := make([]time.Time, len(raw))
	for i, cell := range raw {
		if nulls[i] {
			continue
		}
		parsed := false
		for _, layout := range datetimeLayouts {
			if t, err := time.Parse(layout, cell); err == nil {
				vals[i] = t
				parsed = true
				break
			}
		}
		if !parsed {
			return nil, false
		}
	}
	return vals, true
}
