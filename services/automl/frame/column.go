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
	"strconv"
	"time"
)

// Column is a typed sequence of scalars with per-cell null tracking.
// Exactly one of the value slices is populated, matching the Kind.
type Column struct {
	name     string
	kind     Kind
	floats   []float64
	strs     []string
	bools    []bool
	times    []time.Time
	null     []bool
	integral bool // numeric column whose source values were all integers
}

// NewNumericColumn builds a numeric column. nulls may be nil (no nulls).
func NewNumericColumn(name string, vals []float64, nulls []bool) *Column {
	return &Column{name: name, kind: KindNumeric, floats: vals, null: normalizeNulls(nulls, len(vals))}
}

// NewIntegralColumn builds a numeric column whose values render as integers.
func NewIntegralColumn(name string, vals []float64, nulls []bool) *Column {
	c := NewNumericColumn(name, vals, nulls)
	c.integral = true
	return c
}

// NewCategoricalColumn builds a string column.
func NewCategoricalColumn(name string, vals []string, nulls []bool) *Column {
	return &Column{name: name, kind: KindCategorical, strs: vals, null: normalizeNulls(nulls, len(vals))}
}

// NewBoolColumn builds a boolean column.
func NewBoolColumn(name string, vals []bool, nulls []bool) *Column {
	return &Column{name: name, kind: KindBool, bools: vals, null: normalizeNulls(nulls, len(vals))}
}

// NewDatetimeColumn builds a datetime column.
func NewDatetimeColumn(name string, vals []time.Time, nulls []bool) *Column {
	return &Column{name: name, kind: KindDatetime, times: vals, null: normalizeNulls(nulls, len(vals))}
}

func normalizeNulls(nulls []bool, n int) []bool {
	if nulls == nil {
		return make([]bool, n)
	}
	return nulls
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Kind returns the inferred kind.
func (c *Column) Kind() Kind { return c.kind }

// Dtype returns a storage-type label for the upload schema.
func (c *Column) Dtype() string {
	switch c.kind {
	case KindNumeric:
		if c.integral {
			return "int64"
		}
		return "float64"
	case KindBool:
		return "bool"
	case KindDatetime:
		return "datetime64"
	default:
		return "object"
	}
}

// Len returns the number of cells, nulls included.
func (c *Column) Len() int { return len(c.null) }

// IsNull reports whether cell i is null.
func (c *Column) IsNull(i int) bool { return c.null[i] }

// NullCount returns the number of null cells.
func (c *Column) NullCount() int {
	n := 0
	for _, isNull := range c.null {
		if isNull {
			n++
		}
	}
	return n
}

// Value returns cell i as a JSON-friendly scalar, nil when null. Integral
// numeric values come back as int64 so previews render without a trailing
// ".0" the way the source data was written.
func (c *Column) Value(i int) any {
	if c.null[i] {
		return nil
	}
	switch c.kind {
	case KindNumeric:
		if c.integral {
			return int64(c.floats[i])
		}
		return c.floats[i]
	case KindCategorical:
		return c.strs[i]
	case KindBool:
		return c.bools[i]
	case KindDatetime:
		return c.times[i].Format(time.RFC3339)
	default:
		return nil
	}
}

// String renders cell i for counting and display; nulls render as "".
func (c *Column) String(i int) string {
	if c.null[i] {
		return ""
	}
	switch c.kind {
	case KindNumeric:
		if c.integral {
			return strconv.FormatInt(int64(c.floats[i]), 10)
		}
		return strconv.FormatFloat(c.floats[i], 'g', -1, 64)
	case KindCategorical:
		return c.strs[i]
	case KindBool:
		return strconv.FormatBool(c.bools[i])
	case KindDatetime:
		return c.times[i].Format(time.RFC3339)
	default:
		return ""
	}
}

// Float returns cell i as a float64. ok is false for nulls and for kinds
// with no numeric reading. Booleans read as 0/1.
func (c *Column) Float(i int) (float64, bool) {
	if c.null[i] {
		return 0, false
	}
	switch c.kind {
	case KindNumeric:
		return c.floats[i], true
	case KindBool:
		if c.bools[i] {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// SetFloat overwrites cell i of a numeric column and clears its null flag.
func (c *Column) SetFloat(i int, v float64) {
	c.floats[i] = v
	c.null[i] = false
	if v != float64(int64(v)) {
		c.integral = false
	}
}

// SetString overwrites cell i of a categorical column and clears its null flag.
func (c *Column) SetString(i int, v string) {
	c.strs[i] = v
	c.null[i] = false
}

// SetBool overwrites cell i of a boolean column and clears its null flag.
func (c *Column) SetBool(i int, v bool) {
	c.bools[i] = v
	c.null[i] = false
}

// Floats returns the non-null numeric values, in row order. Boolean columns
// yield 0/1.
func (c *Column) Floats() []float64 {
	out := make([]float64, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		if v, ok := c.Float(i); ok {
			out = append(out, v)
		}
	}
	return out
}

// Clone deep-copies the column.
func (c *Column) Clone() *Column {
	out := &Column{name: c.name, kind: c.kind, integral: c.integral}
	out.null = append([]bool(nil), c.null...)
	switch c.kind {
	case KindNumeric:
		out.floats = append([]float64(nil), c.floats...)
	case KindCategorical:
		out.strs = append([]string(nil), c.strs...)
	case KindBool:
		out.bools = append([]bool(nil), c.bools...)
	case KindDatetime:
		out.times = append([]time.Time(nil), c.times...)
	}
	return out
}

// CopyCell copies cell src over cell dst within the same column.
func (c *Column) CopyCell(dst, src int) {
	c.null[dst] = c.null[src]
	switch c.kind {
	case KindNumeric:
		c.floats[dst] = c.floats[src]
	case KindCategorical:
		c.strs[dst] = c.strs[src]
	case KindBool:
		c.bools[dst] = c.bools[src]
	case KindDatetime:
		c.times[dst] = c.times[src]
	}
}

// Gather builds a new column from the cells at the given row indices, in
// order. Indices may repeat.
func (c *Column) Gather(idx []int) *Column {
	out := &Column{name: c.name, kind: c.kind, integral: c.integral}
	for _, i := range idx {
		out.null = append(out.null, c.null[i])
		switch c.kind {
		case KindNumeric:
			out.floats = append(out.floats, c.floats[i])
		case KindCategorical:
			out.strs = append(out.strs, c.strs[i])
		case KindBool:
			out.bools = append(out.bools, c.bools[i])
		case KindDatetime:
			out.times = append(out.times, c.times[i])
		}
	}
	return out
}

func (c *Column) filter(keep []bool) *Column {
	out := &Column{name: c.name, kind: c.kind, integral: c.integral}
	for i := 0; i < c.Len(); i++ {
		if !keep[i] {
			continue
		}
		out.null = append(out.null, c.null[i])
		switch c.kind {
		case KindNumeric:
			out.floats = append(out.floats, c.floats[i])
		case KindCategorical:
			out.strs = append(out.strs, c.strs[i])
		case KindBool:
			out.bools = append(out.bools, c.bools[i])
		case KindDatetime:
			out.times = append(out.times, c.times[i])
		}
	}
	return out
}
