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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumn_BasicStats(t *testing.T) {
	c := NewNumericColumn("x", []float64{1, 2, 3, 4, 0}, []bool{false, false, false, false, true})

	assert.InDelta(t, 2.5, c.Mean(), 1e-9, "nulls must be excluded from the mean")
	assert.InDelta(t, 2.5, c.Median(), 1e-9)
	assert.InDelta(t, 1.0, c.Min(), 1e-9)
	assert.InDelta(t, 4.0, c.Max(), 1e-9)
	// sample std of {1,2,3,4}
	assert.InDelta(t, math.Sqrt(5.0/3.0), c.Std(), 1e-9)
}

func TestColumn_QuantileInterpolates(t *testing.T) {
	c := NewNumericColumn("x", []float64{10, 20, 30, 40}, nil)
	assert.InDelta(t, 17.5, c.Quantile(0.25), 1e-9)
	assert.InDelta(t, 25.0, c.Quantile(0.5), 1e-9)
	assert.InDelta(t, 32.5, c.Quantile(0.75), 1e-9)
}

func TestColumn_SkewSignsMatchShape(t *testing.T) {
	right := NewNumericColumn("r", []float64{1, 1, 1, 2, 2, 10}, nil)
	assert.Greater(t, right.Skew(), 0.0)

	left := NewNumericColumn("l", []float64{-10, -2, -2, -1, -1, -1}, nil)
	assert.Less(t, left.Skew(), 0.0)

	constant := NewNumericColumn("c", []float64{5, 5, 5, 5}, nil)
	assert.True(t, math.IsNaN(constant.Skew()))
}

func TestColumn_ModeTieBreaksLexically(t *testing.T) {
	c := NewCategoricalColumn("m", []string{"b", "a", "b", "a", "z"}, nil)
	mode, ok := c.Mode()
	require.True(t, ok)
	assert.Equal(t, "a", mode)
}

func TestColumn_Mode_AllNull(t *testing.T) {
	c := NewNumericColumn("m", []float64{0, 0}, []bool{true, true})
	_, ok := c.Mode()
	assert.False(t, ok)
}

func TestColumn_ModeIndexPointsAtFirstOccurrence(t *testing.T) {
	c := NewCategoricalColumn("m", []string{"x", "y", "y", "x"}, nil)
	// tie between x and y breaks to "x", first seen at row 0
	i, ok := c.ModeIndex()
	require.True(t, ok)
	assert.Equal(t, 0, i)
}

func TestFrame_Correlation_RoundedAndZeroedNaN(t *testing.T) {
	f := New()
	require.NoError(t, f.AddColumn(NewNumericColumn("a", []float64{1, 2, 3, 4}, nil)))
	require.NoError(t, f.AddColumn(NewNumericColumn("b", []float64{2, 4, 6, 8}, nil)))
	require.NoError(t, f.AddColumn(NewNumericColumn("c", []float64{7, 7, 7, 7}, nil)))

	corr := f.Correlation([]string{"a", "b", "c"})
	assert.Equal(t, 1.0, corr["a"]["b"])
	assert.Equal(t, 1.0, corr["a"]["a"])
	assert.Equal(t, 0.0, corr["a"]["c"], "undefined correlation must report as 0")
}

func TestFrame_Correlation_PairwiseCompleteRows(t *testing.T) {
	f := New()
	require.NoError(t, f.AddColumn(NewNumericColumn("a", []float64{1, 2, 3, 0}, []bool{false, false, false, true})))
	require.NoError(t, f.AddColumn(NewNumericColumn("b", []float64{1, 2, 3, 100}, nil)))

	corr := f.Correlation([]string{"a", "b"})
	assert.Equal(t, 1.0, corr["a"]["b"], "the null row must be excluded pairwise")
}

func TestFrame_Describe(t *testing.T) {
	f := New()
	require.NoError(t, f.AddColumn(NewNumericColumn("x", []float64{1, 2, 3, 0}, []bool{false, false, false, true})))

	d := f.Describe([]string{"x"})
	require.Contains(t, d, "x")
	assert.Equal(t, 3.0, d["x"]["count"])
	assert.Equal(t, 2.0, d["x"]["mean"])
	assert.Equal(t, 1.0, d["x"]["min"])
	assert.Equal(t, 3.0, d["x"]["max"])
}

func TestColumn_ValueCountsSkipsNulls(t *testing.T) {
	c := NewCategoricalColumn("v", []string{"a", "b", "a", ""}, []bool{false, false, false, true})
	counts := c.ValueCounts()
	assert.Equal(t, map[string]int{"a": 2, "b": 1}, counts)
	assert.Equal(t, 2, c.DistinctCount())
}
