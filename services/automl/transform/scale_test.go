// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package transform

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianAutoML/services/automl/datatypes"
	"github.com/AleutianAI/AleutianAutoML/services/automl/frame"
)

func scaleFixture(t *testing.T) *frame.Frame {
	t.Helper()
	f := frame.New()
	require.NoError(t, f.AddColumn(frame.NewNumericColumn("x",
		[]float64{10, 20, 0, 30}, []bool{false, false, true, false})))
	require.NoError(t, f.AddColumn(frame.NewNumericColumn("flat",
		[]float64{5, 5, 5, 5}, nil)))
	require.NoError(t, f.AddColumn(frame.NewCategoricalColumn("city",
		[]string{"oslo", "lima", "oslo", "lima"}, nil)))
	return f
}

func columnFloats(t *testing.T, f *frame.Frame, name string) []float64 {
	t.Helper()
	col, ok := f.Column(name)
	require.True(t, ok)
	vals := make([]float64, col.Len())
	for i := range vals {
		v, _ := col.Float(i)
		vals[i] = v
	}
	return vals
}

func TestScale_Standard(t *testing.T) {
	f := scaleFixture(t)
	out, err := Scale(f, "standard", []string{"x"})
	require.NoError(t, err)

	// observed values {10,20,30}: mean 20, population std sqrt(200/3)
	std := math.Sqrt(200.0 / 3)
	got := columnFloats(t, out, "x")
	assert.InDelta(t, -10/std, got[0], 1e-12)
	assert.InDelta(t, 0, got[1], 1e-12)
	assert.InDelta(t, 10/std, got[3], 1e-12)

	col, _ := out.Column("x")
	assert.True(t, col.IsNull(2), "null cells stay null")
}

func TestScale_MinMax(t *testing.T) {
	out, err := Scale(scaleFixture(t), "minmax", []string{"x"})
	require.NoError(t, err)
	got := columnFloats(t, out, "x")
	assert.InDelta(t, 0, got[0], 1e-12)
	assert.InDelta(t, 0.5, got[1], 1e-12)
	assert.InDelta(t, 1, got[3], 1e-12)
}

func TestScale_Robust(t *testing.T) {
	f := frame.New()
	require.NoError(t, f.AddColumn(frame.NewNumericColumn("x",
		[]float64{10, 20, 30, 40}, nil)))
	out, err := Scale(f, "robust", []string{"x"})
	require.NoError(t, err)

	// median 25, IQR = 32.5 - 17.5 = 15
	got := columnFloats(t, out, "x")
	assert.InDelta(t, -1, got[0], 1e-12)
	assert.InDelta(t, 1, got[3], 1e-12)
}

func TestScale_MaxAbs(t *testing.T) {
	f := frame.New()
	require.NoError(t, f.AddColumn(frame.NewNumericColumn("x",
		[]float64{-4, 2, 8}, nil)))
	out, err := Scale(f, "maxabs", []string{"x"})
	require.NoError(t, err)
	got := columnFloats(t, out, "x")
	assert.InDelta(t, -0.5, got[0], 1e-12)
	assert.InDelta(t, 0.25, got[1], 1e-12)
	assert.InDelta(t, 1, got[2], 1e-12)
}

func TestScale_ConstantColumnZeroes(t *testing.T) {
	out, err := Scale(scaleFixture(t), "standard", []string{"flat"})
	require.NoError(t, err)
	for _, v := range columnFloats(t, out, "flat") {
		assert.Equal(t, 0.0, v)
	}
}

func TestScale_RejectsCategorical(t *testing.T) {
	_, err := Scale(scaleFixture(t), "standard", []string{"city"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, datatypes.ErrInvalidArgument))
	assert.Contains(t, err.Error(), "city")
}

func TestScale_UnknownMethod(t *testing.T) {
	_, err := Scale(scaleFixture(t), "quantile", []string{"x"})
	assert.True(t, errors.Is(err, datatypes.ErrInvalidArgument))
}

func TestScale_DoesNotMutateInput(t *testing.T) {
	f := scaleFixture(t)
	_, err := Scale(f, "minmax", []string{"x"})
	require.NoError(t, err)
	got := columnFloats(t, f, "x")
	assert.Equal(t, 10.0, got[0])
	assert.Equal(t, 30.0, got[3])
}

func TestScale_StandardIsIdempotent(t *testing.T) {
	f := frame.New()
	require.NoError(t, f.AddColumn(frame.NewNumericColumn("x",
		[]float64{3, 7, 11, 19, 40, 2, 8}, nil)))

	once, err := Scale(f, "standard", []string{"x"})
	require.NoError(t, err)
	twice, err := Scale(once, "standard", []string{"x"})
	require.NoError(t, err)

	first := columnFloats(t, once, "x")
	second := columnFloats(t, twice, "x")
	var mean, variance float64
	for i := range second {
		assert.InDelta(t, first[i], second[i], 1e-9)
		mean += second[i]
	}
	mean /= float64(len(second))
	for _, v := range second {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(second))
	assert.InDelta(t, 0, mean, 1e-9)
	assert.InDelta(t, 1, variance, 1e-9)
}
