// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package training

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys_SortedAndComplete(t *testing.T) {
	want := []string{
		"decision_tree", "knn", "lightgbm", "linear", "logistic",
		"naive_bayes", "random_forest", "svm", "xgboost",
	}
	assert.Equal(t, want, Keys())
}

func TestLookup(t *testing.T) {
	spec, ok := Lookup("logistic")
	require.True(t, ok)
	assert.Equal(t, "LogisticRegression", spec.Name)
	assert.True(t, spec.Classifier)

	_, ok = Lookup("perceptron")
	assert.False(t, ok)
}

func TestResolve_DefaultsWhenUserEmpty(t *testing.T) {
	spec, _ := Lookup("logistic")
	params, coerced := Resolve(spec, nil)
	assert.Equal(t, 100, params["max_iter"])
	assert.Equal(t, 1.0, params["c"])
	assert.Empty(t, coerced)
}

func TestResolve_ClampsOutOfRange(t *testing.T) {
	spec, _ := Lookup("random_forest")
	params, coerced := Resolve(spec, map[string]any{
		"n_estimators": float64(99999),
		"max_depth":    float64(-3),
	})
	assert.Equal(t, 2000, params["n_estimators"])
	assert.Equal(t, 0, params["max_depth"])
	assert.Equal(t, 2000, coerced["n_estimators"])
	assert.Equal(t, 0, coerced["max_depth"])
}

func TestResolve_UnknownKeyDropped(t *testing.T) {
	spec, _ := Lookup("knn")
	params, coerced := Resolve(spec, map[string]any{"weights": "distance"})
	_, present := params["weights"]
	assert.False(t, present)
	val, flagged := coerced["weights"]
	assert.True(t, flagged)
	assert.Nil(t, val)
}

func TestResolve_WrongTypeFallsBackToDefault(t *testing.T) {
	spec, _ := Lookup("logistic")
	params, coerced := Resolve(spec, map[string]any{"max_iter": "many"})
	assert.Equal(t, 100, params["max_iter"])
	assert.Equal(t, 100, coerced["max_iter"])
}

func TestResolve_StringOutsideAllowed(t *testing.T) {
	spec, _ := Lookup("svm")
	params, coerced := Resolve(spec, map[string]any{"kernel": "rbf"})
	assert.Equal(t, "linear", params["kernel"])
	assert.Equal(t, "linear", coerced["kernel"])
}

func TestResolve_ValidValueNotFlagged(t *testing.T) {
	spec, _ := Lookup("xgboost")
	params, coerced := Resolve(spec, map[string]any{"learning_rate": 0.05})
	assert.Equal(t, 0.05, params["learning_rate"])
	assert.Empty(t, coerced)
}

func TestResolve_IntTruncatesFraction(t *testing.T) {
	spec, _ := Lookup("knn")
	params, coerced := Resolve(spec, map[string]any{"n_neighbors": 3.7})
	assert.Equal(t, 3, params["n_neighbors"])
	assert.Equal(t, 3, coerced["n_neighbors"])
}

func TestHyperparameterSpace(t *testing.T) {
	space := HyperparameterSpace()
	require.Contains(t, space, "lightgbm")
	assert.Equal(t, 0.1, space["lightgbm"]["learning_rate"])
	assert.Empty(t, space["linear"], "linear regression takes no hyperparameters")
}
