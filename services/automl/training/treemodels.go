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
)

// decisionTree is a single CART classifier.
type decisionTree struct {
	maxDepth int
	nClasses int
	root     *treeNode
}

func (m *decisionTree) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training set")
	}
	m.nClasses = countClasses(y)
	idx := allRows(len(X))
	m.root = buildTree(X, y, idx, 0, &treeConfig{
		maxDepth: m.maxDepth, minSamplesSplit: 2, nClasses: m.nClasses,
	})
	return nil
}

func (m *decisionTree) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = float64(argmax(m.root.predictLeaf(x).probs))
	}
	return out
}

func (m *decisionTree) Score(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = m.root.predictLeaf(x).probs[1]
	}
	return out
}

func (m *decisionTree) Attributions(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, x := range X {
		row := make([]float64, len(x))
		m.root.pathAttribution(x, row)
		out[i] = row
	}
	return out
}

// randomForest bags decision trees over bootstrap samples with sqrt(d)
// feature subsampling. The seed pins the bootstrap so two fits on the same
// data agree.
type randomForest struct {
	nEstimators int
	maxDepth    int
	seed        int64
	nClasses    int
	trees       []*treeNode
}

func (m *randomForest) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training set")
	}
	m.nClasses = countClasses(y)
	n := len(X)
	maxFeatures := int(math.Sqrt(float64(len(X[0]))))
	if maxFeatures < 1 {
		maxFeatures = 1
	}
	rng := rand.New(rand.NewSource(m.seed))
	m.trees = make([]*treeNode, m.nEstimators)
	for t := range m.trees {
		sample := make([]int, n)
		for i := range sample {
			sample[i] = rng.Intn(n)
		}
		m.trees[t] = buildTree(X, y, sample, 0, &treeConfig{
			maxDepth: m.maxDepth, minSamplesSplit: 2, nClasses: m.nClasses,
			maxFeatures: maxFeatures, rng: rng,
		})
	}
	return nil
}

func (m *randomForest) classProbs(x []float64) []float64 {
	probs := make([]float64, m.nClasses)
	for _, tree := range m.trees {
		for c, p := range tree.predictLeaf(x).probs {
			probs[c] += p
		}
	}
	for c := range probs {
		probs[c] /= float64(len(m.trees))
	}
	return probs
}

func (m *randomForest) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = float64(argmax(m.classProbs(x)))
	}
	return out
}

func (m *randomForest) Score(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = m.classProbs(x)[1]
	}
	return out
}

func (m *randomForest) Attributions(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, x := range X {
		row := make([]float64, len(x))
		for _, tree := range m.trees {
			tree.pathAttribution(x, row)
		}
		for j := range row {
			row[j] /= float64(len(m.trees))
		}
		out[i] = row
	}
	return out
}

// gradientBoost is binary gradient boosting with logistic loss: shallow
// regression trees fit to residuals, leaf values refined by a Newton step.
// Serves both the xgboost and lightgbm model keys, which differ only in
// their defaults.
type gradientBoost struct {
	nEstimators  int
	learningRate float64
	maxDepth     int
	base         float64
	trees        []*treeNode
}

func (m *gradientBoost) fitBinary(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training set")
	}
	n := len(X)
	var pos float64
	for _, v := range y {
		pos += v
	}
	prior := clampProb(pos / float64(n))
	m.base = math.Log(prior / (1 - prior))

	logit := make([]float64, n)
	for i := range logit {
		logit[i] = m.base
	}
	residual := make([]float64, n)
	idx := allRows(n)

	m.trees = make([]*treeNode, 0, m.nEstimators)
	for t := 0; t < m.nEstimators; t++ {
		for i := range residual {
			residual[i] = y[i] - sigmoid(logit[i])
		}
		tree := buildTree(X, residual, idx, 0, &treeConfig{
			maxDepth: m.maxDepth, minSamplesSplit: 2,
		})
		m.newtonAdjust(tree, X, y, logit, idx)
		m.trees = append(m.trees, tree)
		for i, x := range X {
			logit[i] += m.learningRate * tree.predictLeaf(x).value
		}
	}
	return nil
}

// newtonAdjust replaces each leaf's mean residual with the Newton step
// sum(residual) / sum(p(1-p)) over the rows that land in the leaf.
func (m *gradientBoost) newtonAdjust(tree *treeNode, X [][]float64, y, logit []float64, idx []int) {
	leafRows := make(map[*treeNode][]int)
	for _, i := range idx {
		leaf := tree.predictLeaf(X[i])
		leafRows[leaf] = append(leafRows[leaf], i)
	}
	for leaf, rows := range leafRows {
		var num, den float64
		for _, i := range rows {
			p := sigmoid(logit[i])
			num += y[i] - p
			den += p * (1 - p)
		}
		if den < 1e-12 {
			den = 1e-12
		}
		leaf.value = num / den
	}
}

func (m *gradientBoost) rawLogit(x []float64) float64 {
	v := m.base
	for _, tree := range m.trees {
		v += m.learningRate * tree.predictLeaf(x).value
	}
	return v
}

func (m *gradientBoost) score(x []float64) float64 { return sigmoid(m.rawLogit(x)) }

func (m *gradientBoost) threshold() float64 { return 0.5 }

// attribute works in logit space: each tree's path deltas scaled by the
// learning rate.
func (m *gradientBoost) attribute(x []float64) []float64 {
	out := make([]float64, len(x))
	for _, tree := range m.trees {
		deltas := make([]float64, len(x))
		tree.pathAttribution(x, deltas)
		for j := range out {
			out[j] += m.learningRate * deltas[j]
		}
	}
	return out
}

func clampProb(p float64) float64 {
	if p < 1e-6 {
		return 1e-6
	}
	if p > 1-1e-6 {
		return 1 - 1e-6
	}
	return p
}

func allRows(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func argmax(vals []float64) int {
	best := 0
	for i, v := range vals {
		if v > vals[best] {
			best = i
		}
	}
	return best
}
