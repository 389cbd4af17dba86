// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package frame implements the tabular container the pipeline operates on:
// an ordered mapping from column name to a typed column with per-cell null
// tracking, plus the statistical reductions the EDA and transform stages
// need.
//
// Frames are value-ish: stages that transform data Clone() first and swap
// the clone in only on success, which is what gives every stage its
// all-or-nothing commit behavior.
package frame

import (
	"fmt"
	"math"
)

// Kind classifies a column for type-based selection.
type Kind int

const (
	KindNumeric Kind = iota
	KindCategorical
	KindBool
	KindDatetime
	KindUnknown
)

// String returns the client-facing inferred-type token.
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numerical"
	case KindCategorical:
		return "categorical"
	case KindBool:
		return "boolean"
	case KindDatetime:
		return "datetime"
	default:
		return "unknown"
	}
}

// Frame is an ordered set of equal-length columns.
type Frame struct {
	cols  []*Column
	index map[string]int
}

// New returns an empty frame.
func New() *Frame {
	return &Frame{index: make(map[string]int)}
}

// FromMatrix builds an all-numeric frame from a dense row-major matrix.
// Used to rebuild the working table after balancing.
func FromMatrix(names []string, rows [][]float64) (*Frame, error) {
	f := New()
	for j, name := range names {
		vals := make([]float64, len(rows))
		for i, row := range rows {
			if j >= len(row) {
				return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), len(names))
			}
			vals[i] = row[j]
		}
		if err := f.AddColumn(NewNumericColumn(name, vals, nil)); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// AddColumn appends a column. All columns must share the same length and
// names must be unique.
func (f *Frame) AddColumn(c *Column) error {
	if _, dup := f.index[c.name]; dup {
		return fmt.Errorf("duplicate column %q", c.name)
	}
	if len(f.cols) > 0 && c.Len() != f.NumRows() {
		return fmt.Errorf("column %q has %d rows, frame has %d", c.name, c.Len(), f.NumRows())
	}
	f.index[c.name] = len(f.cols)
	f.cols = append(f.cols, c)
	return nil
}

// ReplaceColumn swaps the column of the same name in place, keeping order.
func (f *Frame) ReplaceColumn(c *Column) error {
	i, ok := f.index[c.name]
	if !ok {
		return fmt.Errorf("no column %q", c.name)
	}
	if c.Len() != f.NumRows() {
		return fmt.Errorf("column %q has %d rows, frame has %d", c.name, c.Len(), f.NumRows())
	}
	f.cols[i] = c
	return nil
}

// Column looks a column up by name.
func (f *Frame) Column(name string) (*Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.cols[i], true
}

// Names returns column names in order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.name
	}
	return names
}

// NumRows returns the row count (0 for an empty frame).
func (f *Frame) NumRows() int {
	if len(f.cols) == 0 {
		return 0
	}
	return f.cols[0].Len()
}

// NumCols returns the column count.
func (f *Frame) NumCols() int { return len(f.cols) }

// ColumnsOfKind returns names of columns matching any of the given kinds,
// in frame order.
func (f *Frame) ColumnsOfKind(kinds ...Kind) []string {
	var names []string
	for _, c := range f.cols {
		for _, k := range kinds {
			if c.kind == k {
				names = append(names, c.name)
				break
			}
		}
	}
	return names
}

// NumericColumns returns names of numeric columns.
func (f *Frame) NumericColumns() []string { return f.ColumnsOfKind(KindNumeric) }

// CategoricalColumns returns names of object-like columns (categorical and
// boolean), matching the pandas select_dtypes grouping the stages use.
func (f *Frame) CategoricalColumns() []string { return f.ColumnsOfKind(KindCategorical, KindBool) }

// NullCounts returns the per-column null count.
func (f *Frame) NullCounts() map[string]int {
	out := make(map[string]int, len(f.cols))
	for _, c := range f.cols {
		out[c.name] = c.NullCount()
	}
	return out
}

// Clone deep-copies the frame.
func (f *Frame) Clone() *Frame {
	out := New()
	for _, c := range f.cols {
		// AddColumn cannot fail here: names and lengths come from a valid frame.
		_ = out.AddColumn(c.Clone())
	}
	return out
}

// DropColumns removes the named columns, silently ignoring unknown names
// (errors='ignore' semantics; the transform stage drops the target this way
// whether or not it is set).
func (f *Frame) DropColumns(names ...string) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := f.cols[:0]
	for _, c := range f.cols {
		if !drop[c.name] {
			kept = append(kept, c)
		}
	}
	f.cols = kept
	f.index = make(map[string]int, len(f.cols))
	for i, c := range f.cols {
		f.index[c.name] = i
	}
}

// Select returns a new frame holding clones of the named columns, in the
// given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	out := New()
	for _, n := range names {
		c, ok := f.Column(n)
		if !ok {
			return nil, fmt.Errorf("no column %q", n)
		}
		if err := out.AddColumn(c.Clone()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Filter returns a new frame containing only rows where keep[i] is true.
func (f *Frame) Filter(keep []bool) *Frame {
	out := New()
	for _, c := range f.cols {
		_ = out.AddColumn(c.filter(keep))
	}
	return out
}

// Gather returns a new frame built from the rows at the given indices, in
// order. Indices may repeat.
func (f *Frame) Gather(idx []int) *Frame {
	out := New()
	for _, c := range f.cols {
		_ = out.AddColumn(c.Gather(idx))
	}
	return out
}

// Head returns up to n rows as records with explicit nulls (nil values),
// never NaN sentinels.
func (f *Frame) Head(n int) []map[string]any {
	if n > f.NumRows() {
		n = f.NumRows()
	}
	out := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		rec := make(map[string]any, len(f.cols))
		for _, c := range f.cols {
			rec[c.name] = c.Value(i)
		}
		out[i] = rec
	}
	return out
}

// Records returns every row as a record. Same null policy as Head.
func (f *Frame) Records() []map[string]any { return f.Head(f.NumRows()) }

// Matrix extracts the named columns as a dense row-major float matrix.
// Fails if a column is missing, non-numeric, or still has nulls; model
// fitting requires a fully numeric, fully observed feature set.
func (f *Frame) Matrix(names []string) ([][]float64, error) {
	cols := make([]*Column, len(names))
	for j, n := range names {
		c, ok := f.Column(n)
		if !ok {
			return nil, fmt.Errorf("no column %q", n)
		}
		if c.kind != KindNumeric && c.kind != KindBool {
			return nil, fmt.Errorf("column %q is %s, not numeric; encode it before training", n, c.kind)
		}
		if c.NullCount() > 0 {
			return nil, fmt.Errorf("column %q has %d nulls; clean it before training", n, c.NullCount())
		}
		cols[j] = c
	}
	rows := make([][]float64, f.NumRows())
	for i := range rows {
		row := make([]float64, len(cols))
		for j, c := range cols {
			v, _ := c.Float(i)
			row[j] = v
		}
		rows[i] = row
	}
	return rows, nil
}

// round2 is the shared 2-decimal rounding for EDA outputs.
func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}
