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
	"math/rand"
	"sort"
)

// treeNode is one node of a CART tree. Leaves carry the class distribution
// (classification) or the mean target (regression); internal nodes also
// carry their value so path attribution can difference parent and child.
type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	leaf      bool
	probs     []float64 // classification only
	value     float64   // regression mean, or p(class 1) for classification
}

type treeConfig struct {
	maxDepth        int // 0 = unbounded
	minSamplesSplit int
	nClasses        int // 0 = regression
	maxFeatures     int // 0 = all
	rng             *rand.Rand
}

// buildTree grows a CART tree over the rows named by idx. Splits maximize
// Gini decrease (classification) or variance decrease (regression);
// candidate thresholds are midpoints between consecutive distinct feature
// values, so fitting is deterministic for a given sample and feature set.
func buildTree(X [][]float64, y []float64, idx []int, depth int, cfg *treeConfig) *treeNode {
	node := &treeNode{}
	node.value, node.probs = nodeValue(y, idx, cfg.nClasses)

	if len(idx) < cfg.minSamplesSplit ||
		(cfg.maxDepth > 0 && depth >= cfg.maxDepth) ||
		isPure(y, idx) {
		node.leaf = true
		return node
	}

	feature, threshold, ok := bestSplit(X, y, idx, cfg)
	if !ok {
		node.leaf = true
		return node
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		node.leaf = true
		return node
	}

	node.feature = feature
	node.threshold = threshold
	node.left = buildTree(X, y, left, depth+1, cfg)
	node.right = buildTree(X, y, right, depth+1, cfg)
	return node
}

func nodeValue(y []float64, idx []int, nClasses int) (float64, []float64) {
	if nClasses == 0 {
		var sum float64
		for _, i := range idx {
			sum += y[i]
		}
		return sum / float64(len(idx)), nil
	}
	probs := make([]float64, nClasses)
	for _, i := range idx {
		probs[int(y[i])]++
	}
	for c := range probs {
		probs[c] /= float64(len(idx))
	}
	value := 0.0
	if nClasses >= 2 {
		value = probs[1]
	}
	return value, probs
}

func isPure(y []float64, idx []int) bool {
	for _, i := range idx[1:] {
		if y[i] != y[idx[0]] {
			return false
		}
	}
	return true
}

func bestSplit(X [][]float64, y []float64, idx []int, cfg *treeConfig) (int, float64, bool) {
	nFeatures := len(X[idx[0]])
	features := make([]int, nFeatures)
	for j := range features {
		features[j] = j
	}
	if cfg.maxFeatures > 0 && cfg.maxFeatures < nFeatures && cfg.rng != nil {
		cfg.rng.Shuffle(nFeatures, func(a, b int) { features[a], features[b] = features[b], features[a] })
		features = features[:cfg.maxFeatures]
		sort.Ints(features)
	}

	bestGain := 1e-12
	bestFeature, bestThreshold, found := 0, 0.0, false
	parent := impurity(y, idx, cfg.nClasses)

	sorted := make([]int, len(idx))
	for _, j := range features {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, b int) bool { return X[sorted[a]][j] < X[sorted[b]][j] })

		for cut := 1; cut < len(sorted); cut++ {
			lo, hi := X[sorted[cut-1]][j], X[sorted[cut]][j]
			if lo == hi {
				continue
			}
			left, right := sorted[:cut], sorted[cut:]
			gain := parent -
				(float64(len(left))*impurity(y, left, cfg.nClasses)+
					float64(len(right))*impurity(y, right, cfg.nClasses))/float64(len(idx))
			if gain > bestGain {
				bestGain, bestFeature, bestThreshold, found = gain, j, (lo+hi)/2, true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func impurity(y []float64, idx []int, nClasses int) float64 {
	if nClasses == 0 {
		// variance
		var mean float64
		for _, i := range idx {
			mean += y[i]
		}
		mean /= float64(len(idx))
		var ss float64
		for _, i := range idx {
			d := y[i] - mean
			ss += d * d
		}
		return ss / float64(len(idx))
	}
	counts := make([]float64, nClasses)
	for _, i := range idx {
		counts[int(y[i])]++
	}
	gini := 1.0
	for _, c := range counts {
		p := c / float64(len(idx))
		gini -= p * p
	}
	return gini
}

func (n *treeNode) predictLeaf(x []float64) *treeNode {
	node := n
	for !node.leaf {
		if x[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node
}

// pathAttribution differences node values along the decision path, which
// credits each split's feature with the change it caused (Saabas-style
// tree attribution). out accumulates in place.
func (n *treeNode) pathAttribution(x []float64, out []float64) {
	node := n
	for !node.leaf {
		next := node.left
		if x[node.feature] > node.threshold {
			next = node.right
		}
		out[node.feature] += next.value - node.value
		node = next
	}
}
