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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianAutoML/services/automl/datatypes"
	"github.com/AleutianAI/AleutianAutoML/services/automl/frame"
)

func cleanFixture(t *testing.T) *frame.Frame {
	t.Helper()
	f := frame.New()
	require.NoError(t, f.AddColumn(frame.NewNumericColumn("age",
		[]float64{10, 20, 0, 30}, []bool{false, false, true, false})))
	require.NoError(t, f.AddColumn(frame.NewCategoricalColumn("city",
		[]string{"oslo", "", "oslo", "bergen"}, []bool{false, true, false, false})))
	return f
}

func TestClean_MeanFill(t *testing.T) {
	f := cleanFixture(t)
	out, err := Clean(f, []datatypes.FillRule{{Column: "age", Strategy: "mean"}})
	require.NoError(t, err)

	col, _ := out.Column("age")
	assert.Equal(t, 0, col.NullCount())
	v, _ := col.Float(2)
	assert.InDelta(t, 20.0, v, 1e-9)

	// original untouched
	orig, _ := f.Column("age")
	assert.Equal(t, 1, orig.NullCount())
}

func TestClean_MedianFill(t *testing.T) {
	f := cleanFixture(t)
	out, err := Clean(f, []datatypes.FillRule{{Column: "age", Strategy: "median"}})
	require.NoError(t, err)
	col, _ := out.Column("age")
	v, _ := col.Float(2)
	assert.InDelta(t, 20.0, v, 1e-9)
}

func TestClean_ModeFillCategorical(t *testing.T) {
	f := cleanFixture(t)
	out, err := Clean(f, []datatypes.FillRule{{Column: "city", Strategy: "mode"}})
	require.NoError(t, err)
	col, _ := out.Column("city")
	assert.Equal(t, 0, col.NullCount())
	assert.Equal(t, "oslo", col.String(1))
}

func TestClean_DropShrinksLaterRules(t *testing.T) {
	f := cleanFixture(t)
	out, err := Clean(f, []datatypes.FillRule{
		{Column: "age", Strategy: "drop"},
		{Column: "city", Strategy: "mode"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, out.NumRows(), "the null age row must be gone")
	col, _ := out.Column("city")
	assert.Equal(t, 0, col.NullCount())
}

func TestClean_MeanOnCategoricalRejected(t *testing.T) {
	f := cleanFixture(t)
	_, err := Clean(f, []datatypes.FillRule{{Column: "city", Strategy: "mean"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, datatypes.ErrInvalidArgument))
	assert.Contains(t, err.Error(), "city")
}

func TestClean_UnknownStrategyRejected(t *testing.T) {
	f := cleanFixture(t)
	_, err := Clean(f, []datatypes.FillRule{{Column: "age", Strategy: "interpolate"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, datatypes.ErrInvalidArgument))
	assert.Contains(t, err.Error(), "interpolate")
}

func TestClean_UnknownColumnRejected(t *testing.T) {
	f := cleanFixture(t)
	_, err := Clean(f, []datatypes.FillRule{{Column: "ghost", Strategy: "mean"}})
	assert.True(t, errors.Is(err, datatypes.ErrInvalidArgument))
}
