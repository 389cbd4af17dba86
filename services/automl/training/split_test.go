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

func TestTrainTestSplit_StratifiedProportions(t *testing.T) {
	// 80 of class 0, 20 of class 1
	y := make([]float64, 100)
	for i := 80; i < 100; i++ {
		y[i] = 1
	}
	res, err := trainTestSplit(y, 0.2, 42, true)
	require.NoError(t, err)

	assert.Len(t, res.testIdx, 20)
	assert.Len(t, res.trainIdx, 80)

	var testPos int
	for _, i := range res.testIdx {
		if y[i] == 1 {
			testPos++
		}
	}
	assert.Equal(t, 4, testPos, "holdout keeps the 20%% class-1 share")
}

func TestTrainTestSplit_Deterministic(t *testing.T) {
	y := make([]float64, 50)
	for i := range y {
		y[i] = float64(i % 2)
	}
	a, err := trainTestSplit(y, 0.3, 7, true)
	require.NoError(t, err)
	b, err := trainTestSplit(y, 0.3, 7, true)
	require.NoError(t, err)
	assert.Equal(t, a.testIdx, b.testIdx)
	assert.Equal(t, a.trainIdx, b.trainIdx)
}

func TestTrainTestSplit_DifferentSeedsDiffer(t *testing.T) {
	y := make([]float64, 50)
	a, err := trainTestSplit(y, 0.3, 1, false)
	require.NoError(t, err)
	b, err := trainTestSplit(y, 0.3, 2, false)
	require.NoError(t, err)
	assert.NotEqual(t, a.testIdx, b.testIdx)
}

func TestTrainTestSplit_PartitionsAreDisjointAndComplete(t *testing.T) {
	y := make([]float64, 30)
	res, err := trainTestSplit(y, 0.25, 42, false)
	require.NoError(t, err)

	seen := make(map[int]int)
	for _, i := range res.trainIdx {
		seen[i]++
	}
	for _, i := range res.testIdx {
		seen[i]++
	}
	require.Len(t, seen, 30)
	for i, count := range seen {
		assert.Equal(t, 1, count, "row %d", i)
	}
}

func TestTrainTestSplit_HoldoutNeverSwallowsAClass(t *testing.T) {
	// testSize near 1 must still leave one row per class in train
	y := []float64{0, 0, 0, 1, 1, 1}
	res, err := trainTestSplit(y, 0.99, 42, true)
	require.NoError(t, err)

	trainClasses := make(map[float64]bool)
	for _, i := range res.trainIdx {
		trainClasses[y[i]] = true
	}
	assert.True(t, trainClasses[0])
	assert.True(t, trainClasses[1])
}

func TestTrainTestSplit_TooFewRows(t *testing.T) {
	_, err := trainTestSplit([]float64{0}, 0.2, 42, false)
	assert.Error(t, err)
}

func TestTrainTestSplit_EmptyHoldoutRejected(t *testing.T) {
	y := make([]float64, 10)
	_, err := trainTestSplit(y, 0.0, 42, false)
	assert.Error(t, err)
}
