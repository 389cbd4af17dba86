// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianAutoML/services/automl/datatypes"
	"github.com/AleutianAI/AleutianAutoML/services/automl/frame"
)

func promptSession(t *testing.T) *datatypes.SessionRecord {
	t.Helper()
	tbl := frame.New()
	require.NoError(t, tbl.AddColumn(frame.NewNumericColumn("age",
		[]float64{30, 40, 0, 50}, []bool{false, false, true, false})))
	require.NoError(t, tbl.AddColumn(frame.NewNumericColumn("income",
		[]float64{10, 20, 30, 40}, nil)))
	require.NoError(t, tbl.AddColumn(frame.NewCategoricalColumn("churn",
		[]string{"yes", "no", "no", "no"}, nil)))
	return &datatypes.SessionRecord{
		ID:           "s1",
		Filename:     "churn.csv",
		TargetColumn: "churn",
		Table:        tbl,
	}
}

func TestBuildSystemPrompt_DescribesDataset(t *testing.T) {
	got := BuildSystemPrompt(promptSession(t), "transform")

	assert.Contains(t, got, `"transform" page`)
	assert.Contains(t, got, `Dataset "churn.csv": 4 rows x 3 columns`)
	assert.Contains(t, got, "age: float64, 1 nulls")
	assert.Contains(t, got, `Target column: "churn"`)
	assert.Contains(t, got, "Class balance:")
}

func TestBuildSystemPrompt_ConstrainsVocabulary(t *testing.T) {
	got := BuildSystemPrompt(promptSession(t), "train")

	assert.Contains(t, got, "mean, median, mode, drop")
	assert.Contains(t, got, "label, ordinal, onehot, binary")
	assert.Contains(t, got, "standard, minmax, robust, maxabs")
	assert.Contains(t, got, "smote, undersample")
	assert.Contains(t, got, "logistic")
	assert.Contains(t, got, "lightgbm")
	assert.Contains(t, got, "Hyperparameter space:")
	assert.Contains(t, got, "under 300 words")
}

func TestBuildSystemPrompt_NoTable(t *testing.T) {
	rec := &datatypes.SessionRecord{ID: "s1", Filename: "x.csv"}
	got := BuildSystemPrompt(rec, "upload")
	assert.NotContains(t, got, "Dataset")
	assert.Contains(t, got, "Only suggest operations")
}

func TestBuildUserPrompt_IncludesHistory(t *testing.T) {
	rec := promptSession(t)
	rec.Steps.Clean = []datatypes.CleanStep{{Strategies: []datatypes.FillRule{
		{Column: "age", Strategy: "mean"},
	}}}

	got := BuildUserPrompt(rec, "what should I do next?")
	assert.Contains(t, got, "what should I do next?")
	assert.Contains(t, got, "Steps already applied")
	assert.Contains(t, got, `"column":"age"`)
	assert.Contains(t, got, `"strategy":"mean"`)
}

func TestBuildUserPrompt_NoHistoryOmitsSteps(t *testing.T) {
	got := BuildUserPrompt(promptSession(t), "hello")
	assert.Equal(t, "hello", got)
}
