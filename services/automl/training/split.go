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
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// splitResult carries the train/test partition of a dataset by row index.
type splitResult struct {
	trainIdx []int
	testIdx  []int
}

// trainTestSplit shuffles rows with the given seed and holds out a
// testSize fraction. When stratify is set, the holdout is drawn per class
// so class proportions survive the split. Both partitions are returned in
// ascending row order, so a fixed seed gives an identical split every
// call.
func trainTestSplit(y []float64, testSize float64, seed int64, stratify bool) (splitResult, error) {
	n := len(y)
	if n < 2 {
		return splitResult{}, fmt.Errorf("need at least 2 rows to split, got %d", n)
	}
	rng := rand.New(rand.NewSource(seed))
	var testIdx []int

	if stratify {
		byClass := make(map[int][]int)
		for i, v := range y {
			byClass[int(v)] = append(byClass[int(v)], i)
		}
		classes := make([]int, 0, len(byClass))
		for c := range byClass {
			classes = append(classes, c)
		}
		sort.Ints(classes)
		for _, c := range classes {
			idx := byClass[c]
			rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
			take := int(math.Round(float64(len(idx)) * testSize))
			if take >= len(idx) {
				take = len(idx) - 1
			}
			testIdx = append(testIdx, idx[:take]...)
		}
	} else {
		idx := allRows(n)
		rng.Shuffle(n, func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
		take := int(math.Round(float64(n) * testSize))
		if take >= n {
			take = n - 1
		}
		testIdx = idx[:take]
	}

	if len(testIdx) == 0 {
		return splitResult{}, fmt.Errorf("test fraction %.3f leaves an empty holdout", testSize)
	}

	inTest := make(map[int]bool, len(testIdx))
	for _, i := range testIdx {
		inTest[i] = true
	}
	trainIdx := make([]int, 0, n-len(testIdx))
	for i := 0; i < n; i++ {
		if !inTest[i] {
			trainIdx = append(trainIdx, i)
		}
	}
	sort.Ints(testIdx)
	return splitResult{trainIdx: trainIdx, testIdx: testIdx}, nil
}

func gatherRows(X [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for k, i := range idx {
		out[k] = X[i]
	}
	return out
}

func gatherVals(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = y[i]
	}
	return out
}
