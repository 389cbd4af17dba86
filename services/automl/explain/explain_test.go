// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package explain

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianAutoML/services/automl/datatypes"
	"github.com/AleutianAI/AleutianAutoML/services/automl/frame"
)

// informativeSet builds a table where "signal" fully determines the label
// and "noise" is independent of it.
func informativeSet(t *testing.T, n int) *frame.Frame {
	t.Helper()
	rng := rand.New(rand.NewSource(3))
	signal := make([]float64, n)
	noise := make([]float64, n)
	label := make([]float64, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			signal[i] = rng.NormFloat64() * 0.3
		} else {
			signal[i] = 6 + rng.NormFloat64()*0.3
			label[i] = 1
		}
		noise[i] = rng.NormFloat64()
	}
	tbl := frame.New()
	require.NoError(t, tbl.AddColumn(frame.NewNumericColumn("signal", signal, nil)))
	require.NoError(t, tbl.AddColumn(frame.NewNumericColumn("noise", noise, nil)))
	require.NoError(t, tbl.AddColumn(frame.NewIntegralColumn("label", label, nil)))
	return tbl
}

func importanceOf(imps []datatypes.FeatureImportance, feature string) (float64, bool) {
	for _, fi := range imps {
		if fi.Feature == feature {
			return fi.Importance, true
		}
	}
	return 0, false
}

func TestExplain_TreeAttributionsRankSignalFirst(t *testing.T) {
	tbl := informativeSet(t, 80)
	imps, params, err := Explain(tbl, "label", "decision_tree", nil, 42)
	require.NoError(t, err)
	require.Len(t, imps, 2)
	assert.Contains(t, params, "max_depth")

	assert.Equal(t, "signal", imps[0].Feature)
	sig, _ := importanceOf(imps, "signal")
	noi, _ := importanceOf(imps, "noise")
	assert.Greater(t, sig, noi)
}

func TestExplain_PermutationFallbackRanksSignalFirst(t *testing.T) {
	// knn has no native attributions, so this exercises permutation importance
	tbl := informativeSet(t, 80)
	imps, _, err := Explain(tbl, "label", "knn", nil, 42)
	require.NoError(t, err)
	require.Len(t, imps, 2)
	assert.Equal(t, "signal", imps[0].Feature)
}

func TestExplain_SortedDescending(t *testing.T) {
	tbl := informativeSet(t, 60)
	imps, _, err := Explain(tbl, "label", "random_forest",
		map[string]any{"n_estimators": 10}, 42)
	require.NoError(t, err)
	for i := 1; i < len(imps); i++ {
		assert.GreaterOrEqual(t, imps[i-1].Importance, imps[i].Importance)
	}
}

func TestExplain_Deterministic(t *testing.T) {
	tbl := informativeSet(t, 60)
	a, _, err := Explain(tbl, "label", "knn", nil, 42)
	require.NoError(t, err)
	b, _, err := Explain(tbl, "label", "knn", nil, 42)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestExplain_UnknownModel(t *testing.T) {
	tbl := informativeSet(t, 20)
	_, _, err := Explain(tbl, "label", "tabnet", nil, 42)
	assert.True(t, errors.Is(err, datatypes.ErrUnsupportedModel))
}

func TestExplain_MissingTarget(t *testing.T) {
	tbl := informativeSet(t, 20)
	_, _, err := Explain(tbl, "class", "logistic", nil, 42)
	assert.True(t, errors.Is(err, datatypes.ErrInvalidArgument))
}
