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
	"sort"

	"gonum.org/v1/gonum/stat"
)

// gaussianNB is Gaussian naive Bayes with variance smoothing.
type gaussianNB struct {
	varSmoothing float64
	nClasses     int
	priors       []float64
	means        [][]float64 // [class][feature]
	variances    [][]float64
}

func (m *gaussianNB) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training set")
	}
	m.nClasses = countClasses(y)
	d := len(X[0])
	m.priors = make([]float64, m.nClasses)
	m.means = make([][]float64, m.nClasses)
	m.variances = make([][]float64, m.nClasses)

	byClass := make(map[int][]int)
	for i, v := range y {
		byClass[int(v)] = append(byClass[int(v)], i)
	}

	// smoothing floor is relative to the largest overall feature variance
	var maxVar float64
	col := make([]float64, len(X))
	for j := 0; j < d; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		if v := popVariance(col); v > maxVar {
			maxVar = v
		}
	}
	floor := m.varSmoothing * maxVar

	for class := 0; class < m.nClasses; class++ {
		rows := byClass[class]
		m.priors[class] = float64(len(rows)) / float64(len(X))
		m.means[class] = make([]float64, d)
		m.variances[class] = make([]float64, d)
		vals := make([]float64, len(rows))
		for j := 0; j < d; j++ {
			for k, i := range rows {
				vals[k] = X[i][j]
			}
			m.means[class][j] = stat.Mean(vals, nil)
			m.variances[class][j] = popVariance(vals) + floor
			if m.variances[class][j] == 0 {
				m.variances[class][j] = 1e-12
			}
		}
	}
	return nil
}

func (m *gaussianNB) logPosteriors(x []float64) []float64 {
	out := make([]float64, m.nClasses)
	for class := 0; class < m.nClasses; class++ {
		ll := math.Log(math.Max(m.priors[class], 1e-12))
		for j, v := range x {
			variance := m.variances[class][j]
			diff := v - m.means[class][j]
			ll += -0.5*math.Log(2*math.Pi*variance) - diff*diff/(2*variance)
		}
		out[class] = ll
	}
	return out
}

func (m *gaussianNB) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = float64(argmax(m.logPosteriors(x)))
	}
	return out
}

// Score returns the normalized posterior probability of class 1.
func (m *gaussianNB) Score(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		lp := m.logPosteriors(x)
		maxLP := lp[argmax(lp)]
		var total, class1 float64
		for class, v := range lp {
			p := math.Exp(v - maxLP)
			total += p
			if class == 1 {
				class1 = p
			}
		}
		out[i] = class1 / total
	}
	return out
}

// kNeighbors is a brute-force k-nearest-neighbors classifier.
type kNeighbors struct {
	k        int
	nClasses int
	X        [][]float64
	y        []float64
}

func (m *kNeighbors) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training set")
	}
	m.X, m.y = X, y
	m.nClasses = countClasses(y)
	if m.k > len(X) {
		m.k = len(X)
	}
	return nil
}

// neighborVotes returns the class distribution among the k nearest
// training rows. Distance ties break by training index for determinism.
func (m *kNeighbors) neighborVotes(x []float64) []float64 {
	type neighbor struct {
		idx  int
		dist float64
	}
	all := make([]neighbor, len(m.X))
	for i, xi := range m.X {
		var d float64
		for j := range x {
			diff := x[j] - xi[j]
			d += diff * diff
		}
		all[i] = neighbor{idx: i, dist: d}
	}
	sort.Slice(all, func(a, b int) bool {
		if all[a].dist != all[b].dist {
			return all[a].dist < all[b].dist
		}
		return all[a].idx < all[b].idx
	})
	votes := make([]float64, m.nClasses)
	for _, nb := range all[:m.k] {
		votes[int(m.y[nb.idx])] += 1 / float64(m.k)
	}
	return votes
}

func (m *kNeighbors) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = float64(argmax(m.neighborVotes(x)))
	}
	return out
}

// Score returns the fraction of nearest neighbors in class 1.
func (m *kNeighbors) Score(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = m.neighborVotes(x)[1]
	}
	return out
}

func popVariance(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	return stat.Variance(vals, nil) * float64(len(vals)-1) / float64(len(vals))
}
