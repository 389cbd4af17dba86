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
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean returns the mean of the non-null values, NaN when none exist.
func (c *Column) Mean() float64 {
	vals := c.Floats()
	if len(vals) == 0 {
		return math.NaN()
	}
	return stat.Mean(vals, nil)
}

// Median returns the median of the non-null values, NaN when none exist.
func (c *Column) Median() float64 { return c.Quantile(0.5) }

// Std returns the sample standard deviation of the non-null values.
func (c *Column) Std() float64 {
	vals := c.Floats()
	if len(vals) < 2 {
		return math.NaN()
	}
	return stat.StdDev(vals, nil)
}

// Min returns the smallest non-null value, NaN when none exist.
func (c *Column) Min() float64 {
	vals := c.Floats()
	if len(vals) == 0 {
		return math.NaN()
	}
	min := vals[0]
	for _, v := range vals[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// Max returns the largest non-null value, NaN when none exist.
func (c *Column) Max() float64 {
	vals := c.Floats()
	if len(vals) == 0 {
		return math.NaN()
	}
	max := vals[0]
	for _, v := range vals[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// Quantile returns the p-quantile (0..1) of the non-null values using
// linear interpolation between order statistics, the same convention as
// pandas describe().
func (c *Column) Quantile(p float64) float64 {
	vals := c.Floats()
	if len(vals) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Skew returns the adjusted Fisher-Pearson sample skewness of the non-null
// values. NaN when fewer than 3 values or zero variance.
func (c *Column) Skew() float64 {
	vals := c.Floats()
	n := float64(len(vals))
	if n < 3 {
		return math.NaN()
	}
	mean := stat.Mean(vals, nil)
	sd := stat.StdDev(vals, nil)
	if sd == 0 {
		return math.NaN()
	}
	var m3 float64
	for _, v := range vals {
		d := (v - mean) / sd
		m3 += d * d * d
	}
	return n / ((n - 1) * (n - 2)) * m3
}

// Mode returns the most frequent non-null value. Ties break toward the
// lexically smallest rendering so the result is deterministic for a given
// value set. ok is false when the column is entirely null.
func (c *Column) Mode() (any, bool) {
	counts := make(map[string]int)
	first := make(map[string]int)
	for i := 0; i < c.Len(); i++ {
		if c.null[i] {
			continue
		}
		key := c.String(i)
		if _, seen := counts[key]; !seen {
			first[key] = i
		}
		counts[key]++
	}
	if len(counts) == 0 {
		return nil, false
	}
	best := ""
	bestCount := -1
	for key, n := range counts {
		if n > bestCount || (n == bestCount && key < best) {
			best, bestCount = key, n
		}
	}
	return c.Value(first[best]), true
}

// ModeIndex returns the row index of the first occurrence of the modal
// value. ok is false when the column is entirely null.
func (c *Column) ModeIndex() (int, bool) {
	counts := make(map[string]int)
	first := make(map[string]int)
	for i := 0; i < c.Len(); i++ {
		if c.null[i] {
			continue
		}
		key := c.String(i)
		if _, seen := counts[key]; !seen {
			first[key] = i
		}
		counts[key]++
	}
	if len(counts) == 0 {
		return 0, false
	}
	best := ""
	bestCount := -1
	for key, n := range counts {
		if n > bestCount || (n == bestCount && key < best) {
			best, bestCount = key, n
		}
	}
	return first[best], true
}

// ValueCounts returns counts of non-null values keyed by their rendering.
func (c *Column) ValueCounts() map[string]int {
	counts := make(map[string]int)
	for i := 0; i < c.Len(); i++ {
		if !c.null[i] {
			counts[c.String(i)]++
		}
	}
	return counts
}

// DistinctCount returns the number of distinct non-null values.
func (c *Column) DistinctCount() int { return len(c.ValueCounts()) }

// Correlation returns the pairwise Pearson correlation matrix over the
// named numeric columns, rounded to 2 decimals with NaN entries zeroed.
// Rows with a null in either column of a pair are excluded pairwise.
func (f *Frame) Correlation(names []string) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(names))
	for _, a := range names {
		out[a] = make(map[string]float64, len(names))
		for _, b := range names {
			out[a][b] = round2(f.pearson(a, b))
		}
	}
	return out
}

// Pearson returns the correlation of two columns over rows where both are
// observed. NaN when undefined.
func (f *Frame) Pearson(a, b string) float64 { return f.pearson(a, b) }

func (f *Frame) pearson(a, b string) float64 {
	ca, okA := f.Column(a)
	cb, okB := f.Column(b)
	if !okA || !okB {
		return math.NaN()
	}
	var xs, ys []float64
	for i := 0; i < f.NumRows(); i++ {
		x, okX := ca.Float(i)
		y, okY := cb.Float(i)
		if okX && okY {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

// Skewness returns per-column skewness for the named columns, rounded to
// 2 decimals with NaN zeroed.
func (f *Frame) Skewness(names []string) map[string]float64 {
	out := make(map[string]float64, len(names))
	for _, n := range names {
		if c, ok := f.Column(n); ok {
			out[n] = round2(c.Skew())
		}
	}
	return out
}

// Describe returns the count/mean/std/min/quartiles/max summary per named
// numeric column, rounded to 2 decimals with NaN zeroed.
func (f *Frame) Describe(names []string) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(names))
	for _, n := range names {
		c, ok := f.Column(n)
		if !ok {
			continue
		}
		out[n] = map[string]float64{
			"count": float64(c.Len() - c.NullCount()),
			"mean":  round2(c.Mean()),
			"std":   round2(c.Std()),
			"min":   round2(c.Min()),
			"25%":   round2(c.Quantile(0.25)),
			"50%":   round2(c.Quantile(0.5)),
			"75%":   round2(c.Quantile(0.75)),
			"max":   round2(c.Max()),
		}
	}
	return out
}
