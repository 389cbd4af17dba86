// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package charts

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianAutoML/services/automl/datatypes"
	"github.com/AleutianAI/AleutianAutoML/services/automl/frame"
	"github.com/AleutianAI/AleutianAutoML/services/automl/training"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func chartFixture(t *testing.T) *frame.Frame {
	t.Helper()
	f := frame.New()
	require.NoError(t, f.AddColumn(frame.NewNumericColumn("age",
		[]float64{22, 35, 41, 29, 55, 38, 47, 33, 26, 61}, nil)))
	require.NoError(t, f.AddColumn(frame.NewNumericColumn("income",
		[]float64{20, 42, 55, 31, 80, 45, 66, 38, 25, 95}, nil)))
	require.NoError(t, f.AddColumn(frame.NewCategoricalColumn("city",
		[]string{"oslo", "lima", "oslo", "kyiv", "lima", "oslo", "kyiv", "oslo", "lima", "oslo"}, nil)))
	return f
}

func assertPNG(t *testing.T, img []byte, err error) {
	t.Helper()
	require.NoError(t, err)
	require.Greater(t, len(img), 8)
	assert.True(t, bytes.HasPrefix(img, pngMagic), "expected PNG output")
}

func TestEDACharts_RenderPNG(t *testing.T) {
	tbl := chartFixture(t)

	img, err := Histogram(tbl, "age")
	assertPNG(t, img, err)

	img, err = Bar(tbl, "city")
	assertPNG(t, img, err)

	img, err = Pie(tbl, "city")
	assertPNG(t, img, err)

	img, err = Boxplot(tbl, []string{"age", "income"})
	assertPNG(t, img, err)

	img, err = QQ(tbl, "income")
	assertPNG(t, img, err)

	img, err = Scatter(tbl, "age", "income")
	assertPNG(t, img, err)

	img, err = Line(tbl, "income", "age")
	assertPNG(t, img, err)

	img, err = Heatmap(tbl)
	assertPNG(t, img, err)
}

func TestHistogram_RejectsCategorical(t *testing.T) {
	_, err := Histogram(chartFixture(t), "city")
	assert.True(t, errors.Is(err, datatypes.ErrInvalidArgument))
}

func TestHistogram_MissingColumn(t *testing.T) {
	_, err := Histogram(chartFixture(t), "height")
	assert.True(t, errors.Is(err, datatypes.ErrInvalidArgument))
}

func TestQQ_RejectsConstantColumn(t *testing.T) {
	f := frame.New()
	require.NoError(t, f.AddColumn(frame.NewNumericColumn("flat",
		[]float64{1, 1, 1, 1}, nil)))
	_, err := QQ(f, "flat")
	assert.True(t, errors.Is(err, datatypes.ErrInvalidArgument))
}

func TestHeatmap_NeedsTwoNumericColumns(t *testing.T) {
	f := frame.New()
	require.NoError(t, f.AddColumn(frame.NewNumericColumn("only",
		[]float64{1, 2, 3}, nil)))
	_, err := Heatmap(f)
	assert.True(t, errors.Is(err, datatypes.ErrInvalidArgument))
}

func trainStepWithSplit(t *testing.T) *datatypes.TrainStep {
	t.Helper()
	split := frame.New()
	require.NoError(t, split.AddColumn(frame.NewNumericColumn("f1",
		[]float64{1, 2, 3, 4, 5, 6}, nil)))
	require.NoError(t, split.AddColumn(frame.NewNumericColumn(training.YTrueColumn,
		[]float64{0, 0, 1, 0, 1, 1}, nil)))
	require.NoError(t, split.AddColumn(frame.NewNumericColumn(training.YScoreColumn,
		[]float64{0.1, 0.3, 0.7, 0.4, 0.8, 0.9}, nil)))
	return &datatypes.TrainStep{
		Model:     "LogisticRegression",
		Metrics:   map[string]float64{"roc_auc": 1.0},
		TestSplit: split,
	}
}

func TestROC_RendersFromTestSplit(t *testing.T) {
	img, err := ROC(trainStepWithSplit(t))
	assertPNG(t, img, err)
}

func TestROC_NoSplitUnavailable(t *testing.T) {
	step := &datatypes.TrainStep{Model: "LogisticRegression"}
	_, err := ROC(step)
	assert.Error(t, err)
}

func TestCompareModels(t *testing.T) {
	steps := []datatypes.TrainStep{
		{Model: "LogisticRegression", Metrics: map[string]float64{"roc_auc": 0.91}},
		{Model: "SVC", Metrics: map[string]float64{"roc_auc": 0.88}},
		{Model: "LogisticRegression", Metrics: map[string]float64{"roc_auc": 0.94}},
	}
	img, err := CompareModels(steps)
	assertPNG(t, img, err)
}

func TestShapSummary(t *testing.T) {
	step := &datatypes.ExplainStep{
		Model: "DecisionTreeClassifier",
		ShapValues: []datatypes.FeatureImportance{
			{Feature: "signal", Importance: 0.8},
			{Feature: "noise", Importance: 0.1},
		},
	}
	img, err := ShapSummary(step)
	assertPNG(t, img, err)
}
