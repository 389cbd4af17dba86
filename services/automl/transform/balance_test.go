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

// imbalancedSet builds a 6:2 two-class sample over two features.
func imbalancedSet(t *testing.T) (*frame.Frame, *frame.Column) {
	t.Helper()
	X := frame.New()
	require.NoError(t, X.AddColumn(frame.NewNumericColumn("f1",
		[]float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 10, 10.5}, nil)))
	require.NoError(t, X.AddColumn(frame.NewNumericColumn("f2",
		[]float64{1, 1.1, 1.2, 1.3, 1.4, 1.5, -5, -5.2}, nil)))
	y := frame.NewCategoricalColumn("label",
		[]string{"a", "a", "a", "a", "a", "a", "b", "b"}, nil)
	return X, y
}

func classCounts(y *frame.Column) map[string]int {
	counts := make(map[string]int)
	for i := 0; i < y.Len(); i++ {
		counts[y.String(i)]++
	}
	return counts
}

func TestBalance_SMOTEEqualizesToMajority(t *testing.T) {
	X, y := imbalancedSet(t)
	outX, outY, err := Balance(X, y, "smote")
	require.NoError(t, err)

	counts := classCounts(outY)
	assert.Equal(t, 6, counts["a"])
	assert.Equal(t, 6, counts["b"])
	assert.Equal(t, 12, outX.NumRows())

	// synthetic minority rows interpolate between existing class-b rows,
	// so every feature value stays inside the class-b hull
	f1, _ := outX.Column("f1")
	for i := 8; i < outX.NumRows(); i++ {
		v, ok := f1.Float(i)
		require.True(t, ok)
		assert.GreaterOrEqual(t, v, 10.0)
		assert.LessOrEqual(t, v, 10.5)
	}
}

func TestBalance_SMOTEDeterministic(t *testing.T) {
	X1, y1 := imbalancedSet(t)
	X2, y2 := imbalancedSet(t)
	a, _, err := Balance(X1, y1, "smote")
	require.NoError(t, err)
	b, _, err := Balance(X2, y2, "smote")
	require.NoError(t, err)

	assert.Equal(t, columnFloats(t, a, "f1"), columnFloats(t, b, "f1"))
	assert.Equal(t, columnFloats(t, a, "f2"), columnFloats(t, b, "f2"))
}

func TestBalance_SMOTESingletonClassFails(t *testing.T) {
	X := frame.New()
	require.NoError(t, X.AddColumn(frame.NewNumericColumn("f1",
		[]float64{0, 1, 2, 9}, nil)))
	y := frame.NewCategoricalColumn("label",
		[]string{"a", "a", "a", "b"}, nil)

	_, _, err := Balance(X, y, "smote")
	require.Error(t, err)
	assert.True(t, errors.Is(err, datatypes.ErrInvalidArgument))
	assert.Contains(t, err.Error(), `"b"`)
}

func TestBalance_UndersampleShrinksToMinority(t *testing.T) {
	X, y := imbalancedSet(t)
	outX, outY, err := Balance(X, y, "undersample")
	require.NoError(t, err)

	counts := classCounts(outY)
	assert.Equal(t, 2, counts["a"])
	assert.Equal(t, 2, counts["b"])
	assert.Equal(t, 4, outX.NumRows())
}

func TestBalance_SingleClassRejected(t *testing.T) {
	X := frame.New()
	require.NoError(t, X.AddColumn(frame.NewNumericColumn("f1", []float64{1, 2}, nil)))
	y := frame.NewCategoricalColumn("label", []string{"a", "a"}, nil)

	_, _, err := Balance(X, y, "undersample")
	assert.True(t, errors.Is(err, datatypes.ErrInvalidArgument))
}

func TestBalance_NullTargetRejected(t *testing.T) {
	X, _ := imbalancedSet(t)
	y := frame.NewCategoricalColumn("label",
		[]string{"a", "a", "a", "a", "a", "", "b", "b"},
		[]bool{false, false, false, false, false, true, false, false})

	_, _, err := Balance(X, y, "smote")
	assert.True(t, errors.Is(err, datatypes.ErrInvalidArgument))
}

func TestBalance_UnknownMethod(t *testing.T) {
	X, y := imbalancedSet(t)
	_, _, err := Balance(X, y, "oversample")
	assert.True(t, errors.Is(err, datatypes.ErrInvalidArgument))
}
