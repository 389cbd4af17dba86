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
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/AleutianAI/AleutianAutoML/services/automl/datatypes"
	"github.com/AleutianAI/AleutianAutoML/services/automl/frame"
)

// Balancing methods accepted by Balance.
const (
	BalanceSMOTE       = "smote"
	BalanceUndersample = "undersample"
)

// balanceSeed fixes the RNG so balancing is reproducible across calls.
const balanceSeed = 42

// Balance resamples the feature frame X and target column y so every class
// reaches the majority (smote) or minority (undersample) count. X must be
// fully numeric; balancing runs after encoding by contract.
//
// SMOTE synthesizes minority samples by interpolating between a sample and
// one of its k nearest in-class neighbors, k clamped to min(5, count-1).
// A class with fewer than 2 samples cannot be oversampled and fails the
// call.
func Balance(X *frame.Frame, y *frame.Column, method string) (*frame.Frame, *frame.Column, error) {
	if y.NullCount() > 0 {
		return nil, nil, fmt.Errorf("%w: target column %q has nulls", datatypes.ErrInvalidArgument, y.Name())
	}
	classes := classIndices(y)
	if len(classes) < 2 {
		return nil, nil, fmt.Errorf("%w: balancing requires at least 2 classes, found %d",
			datatypes.ErrInvalidArgument, len(classes))
	}

	switch method {
	case BalanceSMOTE:
		return smote(X, y, classes)
	case BalanceUndersample:
		return undersample(X, y, classes)
	default:
		return nil, nil, fmt.Errorf("%w: unknown balancing %q", datatypes.ErrInvalidArgument, method)
	}
}

// classIndices groups row indices by target value, keyed by rendering.
// Keys are only used for grouping; rows are gathered by index so the target
// keeps its original type.
func classIndices(y *frame.Column) map[string][]int {
	classes := make(map[string][]int)
	for i := 0; i < y.Len(); i++ {
		classes[y.String(i)] = append(classes[y.String(i)], i)
	}
	return classes
}

// sortedClassKeys fixes iteration order for determinism.
func sortedClassKeys(classes map[string][]int) []string {
	keys := make([]string, 0, len(classes))
	for k := range classes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func smote(X *frame.Frame, y *frame.Column, classes map[string][]int) (*frame.Frame, *frame.Column, error) {
	names := X.Names()
	matrix, err := X.Matrix(names)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", datatypes.ErrInvalidArgument, err)
	}

	majority := 0
	for _, idx := range classes {
		if len(idx) > majority {
			majority = len(idx)
		}
	}

	rng := rand.New(rand.NewSource(balanceSeed))
	outRows := append([][]float64{}, matrix...)
	srcIdx := make([]int, 0, len(matrix))
	for i := range matrix {
		srcIdx = append(srcIdx, i)
	}

	for _, key := range sortedClassKeys(classes) {
		idx := classes[key]
		need := majority - len(idx)
		if need == 0 {
			continue
		}
		if len(idx) < 2 {
			return nil, nil, fmt.Errorf("%w: class %q has %d sample(s); smote requires at least 2",
				datatypes.ErrInvalidArgument, key, len(idx))
		}
		k := len(idx) - 1
		if k > 5 {
			k = 5
		}
		for s := 0; s < need; s++ {
			base := idx[rng.Intn(len(idx))]
			neighbor := nearestNeighbors(matrix, idx, base, k)[rng.Intn(k)]
			gap := rng.Float64()
			synthetic := make([]float64, len(names))
			for j := range synthetic {
				synthetic[j] = matrix[base][j] + gap*(matrix[neighbor][j]-matrix[base][j])
			}
			outRows = append(outRows, synthetic)
			srcIdx = append(srcIdx, base)
		}
	}

	outX, err := frame.FromMatrix(names, outRows)
	if err != nil {
		return nil, nil, err
	}
	return outX, y.Gather(srcIdx), nil
}

// nearestNeighbors returns the k in-class row indices closest to base by
// Euclidean distance, excluding base itself. Brute force; the session table
// is in-memory scale by design.
func nearestNeighbors(matrix [][]float64, idx []int, base, k int) []int {
	type cand struct {
		row  int
		dist float64
	}
	cands := make([]cand, 0, len(idx)-1)
	for _, i := range idx {
		if i == base {
			continue
		}
		var d float64
		for j := range matrix[base] {
			diff := matrix[base][j] - matrix[i][j]
			d += diff * diff
		}
		cands = append(cands, cand{row: i, dist: math.Sqrt(d)})
	}
	sort.Slice(cands, func(a, b int) bool {
		if cands[a].dist != cands[b].dist {
			return cands[a].dist < cands[b].dist
		}
		return cands[a].row < cands[b].row
	})
	out := make([]int, k)
	for i := 0; i < k; i++ {
		out[i] = cands[i].row
	}
	return out
}

func undersample(X *frame.Frame, y *frame.Column, classes map[string][]int) (*frame.Frame, *frame.Column, error) {
	minority := math.MaxInt
	for _, idx := range classes {
		if len(idx) < minority {
			minority = len(idx)
		}
	}

	rng := rand.New(rand.NewSource(balanceSeed))
	var keep []int
	for _, key := range sortedClassKeys(classes) {
		idx := append([]int(nil), classes[key]...)
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
		keep = append(keep, idx[:minority]...)
	}
	sort.Ints(keep)

	return X.Gather(keep), y.Gather(keep), nil
}
