// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package explain ranks feature contributions of a fitted model. The tree
// and linear families expose native per-row attributions; anything else
// falls back to seeded permutation importance.
package explain

import (
	"math"
	"math/rand"
	"sort"

	"github.com/AleutianAI/AleutianAutoML/services/automl/datatypes"
	"github.com/AleutianAI/AleutianAutoML/services/automl/frame"
	"github.com/AleutianAI/AleutianAutoML/services/automl/training"
)

const permutationSeed = 42

// Explain refits the keyed model on the full table and returns feature
// importances sorted by descending magnitude. Hyperparameters follow the
// same coercion rules as training, so the explained model matches the
// trained one when the caller passes the recorded params through.
func Explain(tbl *frame.Frame, target, modelKey string,
	userParams map[string]any, seed int64) ([]datatypes.FeatureImportance, map[string]any, error) {

	model, _, params, features, X, err := training.FitFull(tbl, target, modelKey, userParams, seed)
	if err != nil {
		return nil, nil, err
	}

	var scores []float64
	if attributor, ok := model.(training.Attributor); ok {
		scores = meanAbsolute(attributor.Attributions(X), len(features))
	} else {
		scores = permutationImportance(model, X)
	}
	if scores == nil {
		return nil, nil, datatypes.ErrExplanationUnavailable
	}

	out := make([]datatypes.FeatureImportance, len(features))
	for i, name := range features {
		out[i] = datatypes.FeatureImportance{Feature: name, Importance: round6(scores[i])}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Importance > out[b].Importance
	})
	return out, params, nil
}

// meanAbsolute collapses per-row attributions to one magnitude per feature.
func meanAbsolute(attr [][]float64, nFeatures int) []float64 {
	if len(attr) == 0 {
		return nil
	}
	sums := make([]float64, nFeatures)
	for _, row := range attr {
		for j := 0; j < nFeatures && j < len(row); j++ {
			sums[j] += math.Abs(row[j])
		}
	}
	for j := range sums {
		sums[j] /= float64(len(attr))
	}
	return sums
}

// permutationImportance measures the mean absolute prediction shift when a
// single feature column is shuffled. Deterministic via a fixed seed.
func permutationImportance(model training.Model, X [][]float64) []float64 {
	if len(X) == 0 {
		return nil
	}
	base := model.Predict(X)
	rng := rand.New(rand.NewSource(permutationSeed))
	nFeatures := len(X[0])
	out := make([]float64, nFeatures)

	shuffled := make([][]float64, len(X))
	for i, row := range X {
		shuffled[i] = make([]float64, len(row))
		copy(shuffled[i], row)
	}

	for j := 0; j < nFeatures; j++ {
		perm := rng.Perm(len(X))
		for i := range shuffled {
			shuffled[i][j] = X[perm[i]][j]
		}
		pred := model.Predict(shuffled)
		var shift float64
		for i := range pred {
			shift += math.Abs(pred[i] - base[i])
		}
		out[j] = shift / float64(len(pred))
		for i := range shuffled {
			shuffled[i][j] = X[i][j]
		}
	}
	return out
}

func round6(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*1e6) / 1e6
}
