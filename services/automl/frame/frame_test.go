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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFrame(t *testing.T) *Frame {
	t.Helper()
	f := New()
	require.NoError(t, f.AddColumn(NewNumericColumn("age", []float64{25, 30, 0, 40}, []bool{false, false, true, false})))
	require.NoError(t, f.AddColumn(NewCategoricalColumn("city", []string{"oslo", "bergen", "oslo", "oslo"}, nil)))
	require.NoError(t, f.AddColumn(NewIntegralColumn("score", []float64{1, 2, 3, 4}, nil)))
	return f
}

func TestFrame_Shape(t *testing.T) {
	f := sampleFrame(t)
	assert.Equal(t, 4, f.NumRows())
	assert.Equal(t, 3, f.NumCols())
	assert.Equal(t, []string{"age", "city", "score"}, f.Names())
}

func TestFrame_AddColumn_RejectsDuplicateAndMismatch(t *testing.T) {
	f := sampleFrame(t)
	err := f.AddColumn(NewNumericColumn("age", []float64{1, 2, 3, 4}, nil))
	assert.Error(t, err, "duplicate name must be rejected")

	err = f.AddColumn(NewNumericColumn("short", []float64{1, 2}, nil))
	assert.Error(t, err, "length mismatch must be rejected")
}

func TestFrame_NullCounts(t *testing.T) {
	f := sampleFrame(t)
	nulls := f.NullCounts()
	assert.Equal(t, 1, nulls["age"])
	assert.Equal(t, 0, nulls["city"])
	assert.Equal(t, 0, nulls["score"])
}

func TestFrame_CloneIsIndependent(t *testing.T) {
	f := sampleFrame(t)
	clone := f.Clone()

	col, ok := clone.Column("age")
	require.True(t, ok)
	col.SetFloat(0, 99)

	orig, _ := f.Column("age")
	v, _ := orig.Float(0)
	assert.Equal(t, 25.0, v, "mutating the clone must not touch the original")
}

func TestFrame_DropColumns_IgnoresMissing(t *testing.T) {
	f := sampleFrame(t)
	f.DropColumns("city", "no_such_column")
	assert.Equal(t, []string{"age", "score"}, f.Names())
}

func TestFrame_Select(t *testing.T) {
	f := sampleFrame(t)
	sub, err := f.Select("score", "age")
	require.NoError(t, err)
	assert.Equal(t, []string{"score", "age"}, sub.Names())

	_, err = f.Select("missing")
	assert.Error(t, err)
}

func TestFrame_Gather(t *testing.T) {
	f := sampleFrame(t)
	got := f.Gather([]int{3, 0})
	require.Equal(t, 2, got.NumRows())
	col, _ := got.Column("age")
	v, _ := col.Float(0)
	assert.Equal(t, 40.0, v)
}

func TestFrame_Head_NullsAreNil(t *testing.T) {
	f := sampleFrame(t)
	head := f.Head(3)
	require.Len(t, head, 3)
	assert.Nil(t, head[2]["age"], "null cells must render as explicit nil")
	assert.Equal(t, "oslo", head[2]["city"])
}

func TestFrame_Matrix_RejectsNullsAndNonNumeric(t *testing.T) {
	f := sampleFrame(t)
	_, err := f.Matrix([]string{"age"})
	assert.Error(t, err, "null cell must fail matrix extraction")

	_, err = f.Matrix([]string{"city"})
	assert.Error(t, err, "categorical column must fail matrix extraction")

	m, err := f.Matrix([]string{"score"})
	require.NoError(t, err)
	require.Len(t, m, 4)
	assert.Equal(t, 3.0, m[2][0])
}

func TestColumn_FloatTreatsBoolAsIndicator(t *testing.T) {
	c := NewBoolColumn("flag", []bool{true, false}, nil)
	v, ok := c.Float(0)
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
	v, _ = c.Float(1)
	assert.Equal(t, 0.0, v)
}

func TestColumn_DtypeIntegralStaysInt64(t *testing.T) {
	c := NewIntegralColumn("n", []float64{1, 2}, nil)
	assert.Equal(t, "int64", c.Dtype())
	assert.Equal(t, int64(2), c.Value(1))
}

func TestReadCSV_TypeInference(t *testing.T) {
	csv := strings.Join([]string{
		"id,price,active,signup,city",
		"1,9.5,true,2024-01-02,oslo",
		"2,NA,false,2024-02-03,bergen",
		"3,7.25,true,2024-03-04,",
	}, "\n")

	f, err := ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, 3, f.NumRows())

	id, _ := f.Column("id")
	assert.Equal(t, KindNumeric, id.Kind())
	assert.Equal(t, "int64", id.Dtype())

	price, _ := f.Column("price")
	assert.Equal(t, KindNumeric, price.Kind())
	assert.Equal(t, 1, price.NullCount(), "NA token must infer as null")

	active, _ := f.Column("active")
	assert.Equal(t, KindBool, active.Kind())

	signup, _ := f.Column("signup")
	assert.Equal(t, KindDatetime, signup.Kind())

	city, _ := f.Column("city")
	assert.Equal(t, KindCategorical, city.Kind())
	assert.Equal(t, 1, city.NullCount(), "empty cell must infer as null")
}

func TestReadCSV_RowLengthMismatch(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,b\n1,2\n3"))
	assert.Error(t, err)
}
