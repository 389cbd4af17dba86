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

import "fmt"

// binaryModel is an estimator that separates class 1 from class 0. score
// is monotone in class-1 likelihood: a probability where the model has
// one, a decision-function value otherwise.
type binaryModel interface {
	fitBinary(X [][]float64, y []float64) error
	score(x []float64) float64
	// threshold is the score above which class 1 is predicted: 0.5 for
	// probability scorers, 0 for margin scorers.
	threshold() float64
}

// binaryAttributor is implemented by binary models that can attribute
// their score to input features.
type binaryAttributor interface {
	attribute(x []float64) []float64
}

// oneVsRest lifts a binary model to multiclass by training one scorer per
// class. With two classes it trains a single model on the raw labels.
type oneVsRest struct {
	newBase  func() binaryModel
	nClasses int
	models   []binaryModel
}

func newOneVsRest(newBase func() binaryModel) *oneVsRest {
	return &oneVsRest{newBase: newBase}
}

func (m *oneVsRest) Fit(X [][]float64, y []float64) error {
	m.nClasses = countClasses(y)
	if m.nClasses < 2 {
		return fmt.Errorf("need at least 2 classes, got %d", m.nClasses)
	}
	if m.nClasses == 2 {
		base := m.newBase()
		if err := base.fitBinary(X, y); err != nil {
			return err
		}
		m.models = []binaryModel{base}
		return nil
	}
	m.models = make([]binaryModel, m.nClasses)
	for class := 0; class < m.nClasses; class++ {
		rest := make([]float64, len(y))
		for i, v := range y {
			if int(v) == class {
				rest[i] = 1
			}
		}
		base := m.newBase()
		if err := base.fitBinary(X, rest); err != nil {
			return err
		}
		m.models[class] = base
	}
	return nil
}

func (m *oneVsRest) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		if m.nClasses == 2 {
			if m.models[0].score(x) >= m.models[0].threshold() {
				out[i] = 1
			}
			continue
		}
		best, bestScore := 0, m.models[0].score(x)
		for class := 1; class < m.nClasses; class++ {
			if s := m.models[class].score(x); s > bestScore {
				best, bestScore = class, s
			}
		}
		out[i] = float64(best)
	}
	return out
}

func (m *oneVsRest) Score(X [][]float64) []float64 {
	out := make([]float64, len(X))
	scorer := m.models[len(m.models)-1] // binary: the single model; OvR: class k-1 vs rest
	for i, x := range X {
		out[i] = scorer.score(x)
	}
	return out
}

func (m *oneVsRest) Attributions(X [][]float64) [][]float64 {
	attr, ok := m.models[len(m.models)-1].(binaryAttributor)
	if !ok {
		return nil
	}
	out := make([][]float64, len(X))
	for i, x := range X {
		out[i] = attr.attribute(x)
	}
	return out
}

func countClasses(y []float64) int {
	max := -1
	for _, v := range y {
		if int(v) > max {
			max = int(v)
		}
	}
	return max + 1
}
