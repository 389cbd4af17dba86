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
	"math"
	"sort"
)

// Accuracy is the fraction of exact label matches.
func Accuracy(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	hits := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(yTrue))
}

// PrecisionRecallF1 returns zero-division-safe precision, recall, and F1.
// Binary problems score the positive class (1); multiclass problems score
// the unweighted macro average.
func PrecisionRecallF1(yTrue, yPred []float64, nClasses int) (precision, recall, f1 float64) {
	if nClasses <= 2 {
		return classPRF(yTrue, yPred, 1)
	}
	for class := 0; class < nClasses; class++ {
		p, r, f := classPRF(yTrue, yPred, float64(class))
		precision += p
		recall += r
		f1 += f
	}
	k := float64(nClasses)
	return precision / k, recall / k, f1 / k
}

func classPRF(yTrue, yPred []float64, positive float64) (precision, recall, f1 float64) {
	var tp, fp, fn float64
	for i := range yTrue {
		switch {
		case yPred[i] == positive && yTrue[i] == positive:
			tp++
		case yPred[i] == positive:
			fp++
		case yTrue[i] == positive:
			fn++
		}
	}
	if tp+fp > 0 {
		precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		recall = tp / (tp + fn)
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return precision, recall, f1
}

// ROCAUC computes the area under the ROC curve for binary labels as the
// Mann-Whitney rank statistic, with average ranks on score ties. Returns 0
// when only one class is present (zero-division-safe convention).
func ROCAUC(yTrue, scores []float64) float64 {
	n := len(yTrue)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return scores[order[a]] < scores[order[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && scores[order[j]] == scores[order[i]] {
			j++
		}
		avgRank := float64(i+j+1) / 2 // ranks are 1-based
		for k := i; k < j; k++ {
			ranks[order[k]] = avgRank
		}
		i = j
	}

	var nPos, nNeg, rankSum float64
	for i := range yTrue {
		if yTrue[i] == 1 {
			nPos++
			rankSum += ranks[i]
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return 0
	}
	return (rankSum - nPos*(nPos+1)/2) / (nPos * nNeg)
}

// ConfusionMatrix returns the nClasses x nClasses count matrix with true
// labels as rows and predictions as columns.
func ConfusionMatrix(yTrue, yPred []float64, nClasses int) [][]int {
	cm := make([][]int, nClasses)
	for i := range cm {
		cm[i] = make([]int, nClasses)
	}
	for i := range yTrue {
		cm[int(yTrue[i])][int(yPred[i])]++
	}
	return cm
}

// RMSE is the root mean squared error.
func RMSE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	var ss float64
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(yTrue)))
}

// MAE is the mean absolute error.
func MAE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	var sum float64
	for i := range yTrue {
		sum += math.Abs(yTrue[i] - yPred[i])
	}
	return sum / float64(len(yTrue))
}

// R2 is the coefficient of determination. Returns 0 when the target has
// zero variance.
func R2(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	var mean float64
	for _, v := range yTrue {
		mean += v
	}
	mean /= float64(len(yTrue))
	var ssRes, ssTot float64
	for i := range yTrue {
		ssRes += (yTrue[i] - yPred[i]) * (yTrue[i] - yPred[i])
		ssTot += (yTrue[i] - mean) * (yTrue[i] - mean)
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

// round4 keeps reported metrics at 4 decimals, NaN/Inf collapsed to 0.
func round4(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*10000) / 10000
}
