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

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// standardizer holds per-feature location/scale fit on the training split.
// The gradient-based models standardize internally so fixed learning rates
// behave across feature scales; coefficients live in standardized space.
type standardizer struct {
	mean []float64
	std  []float64
}

func fitStandardizer(X [][]float64) *standardizer {
	if len(X) == 0 {
		return &standardizer{}
	}
	d := len(X[0])
	s := &standardizer{mean: make([]float64, d), std: make([]float64, d)}
	col := make([]float64, len(X))
	for j := 0; j < d; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		s.mean[j] = stat.Mean(col, nil)
		variance := stat.Variance(col, nil) * float64(len(col)-1) / float64(len(col))
		s.std[j] = math.Sqrt(variance)
		if s.std[j] == 0 {
			s.std[j] = 1
		}
	}
	return s
}

func (s *standardizer) apply(x []float64) []float64 {
	z := make([]float64, len(x))
	for j, v := range x {
		z[j] = (v - s.mean[j]) / s.std[j]
	}
	return z
}

func sigmoid(v float64) float64 { return 1 / (1 + math.Exp(-v)) }

// logisticRegression is binary logistic regression fit by full-batch
// gradient descent with L2 regularization strength 1/c.
type logisticRegression struct {
	maxIter int
	c       float64
	scaler  *standardizer
	w       []float64
	b       float64
}

func (m *logisticRegression) fitBinary(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training set")
	}
	m.scaler = fitStandardizer(X)
	Z := make([][]float64, len(X))
	for i, x := range X {
		Z[i] = m.scaler.apply(x)
	}
	d := len(Z[0])
	m.w = make([]float64, d)
	n := float64(len(Z))
	lr := 0.5
	grad := make([]float64, d)
	for iter := 0; iter < m.maxIter; iter++ {
		for j := range grad {
			grad[j] = m.w[j] / (m.c * n)
		}
		var gradB float64
		for i, z := range Z {
			p := sigmoid(dot(m.w, z) + m.b)
			diff := (p - y[i]) / n
			for j := range grad {
				grad[j] += diff * z[j]
			}
			gradB += diff
		}
		for j := range m.w {
			m.w[j] -= lr * grad[j]
		}
		m.b -= lr * gradB
	}
	return nil
}

func (m *logisticRegression) score(x []float64) float64 {
	return sigmoid(dot(m.w, m.scaler.apply(x)) + m.b)
}

func (m *logisticRegression) threshold() float64 { return 0.5 }

// attribute reports each feature's additive term in the logit.
func (m *logisticRegression) attribute(x []float64) []float64 {
	z := m.scaler.apply(x)
	out := make([]float64, len(z))
	for j := range z {
		out[j] = m.w[j] * z[j]
	}
	return out
}

// linearSVM is a linear support vector classifier fit with the Pegasos
// subgradient method. Its score is the raw margin (no probability).
type linearSVM struct {
	c       float64
	maxIter int
	seed    int64
	scaler  *standardizer
	w       []float64
	b       float64
}

func (m *linearSVM) fitBinary(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training set")
	}
	m.scaler = fitStandardizer(X)
	Z := make([][]float64, len(X))
	for i, x := range X {
		Z[i] = m.scaler.apply(x)
	}
	d := len(Z[0])
	m.w = make([]float64, d)
	n := len(Z)
	lambda := 1 / (m.c * float64(n))
	rng := rand.New(rand.NewSource(m.seed))
	for t := 1; t <= m.maxIter*n; t++ {
		i := rng.Intn(n)
		eta := 1 / (lambda * float64(t))
		yi := 2*y[i] - 1 // {0,1} -> {-1,+1}
		margin := yi * (dot(m.w, Z[i]) + m.b)
		for j := range m.w {
			m.w[j] *= 1 - eta*lambda
		}
		if margin < 1 {
			for j := range m.w {
				m.w[j] += eta * yi * Z[i][j] / float64(n)
			}
			m.b += eta * yi / float64(n)
		}
	}
	return nil
}

func (m *linearSVM) score(x []float64) float64 {
	return dot(m.w, m.scaler.apply(x)) + m.b
}

func (m *linearSVM) threshold() float64 { return 0 }

func (m *linearSVM) attribute(x []float64) []float64 {
	z := m.scaler.apply(x)
	out := make([]float64, len(z))
	for j := range z {
		out[j] = m.w[j] * z[j]
	}
	return out
}

// linearRegression is ordinary least squares via QR factorization.
type linearRegression struct {
	coef []float64 // last entry is the intercept
}

func (m *linearRegression) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training set")
	}
	n, d := len(X), len(X[0])
	A := mat.NewDense(n, d+1, nil)
	for i, row := range X {
		for j, v := range row {
			A.Set(i, j, v)
		}
		A.Set(i, d, 1)
	}
	b := mat.NewVecDense(n, y)

	var qr mat.QR
	qr.Factorize(A)
	var sol mat.VecDense
	if err := qr.SolveVecTo(&sol, false, b); err != nil {
		return fmt.Errorf("least squares solve: %w", err)
	}
	m.coef = make([]float64, d+1)
	for j := 0; j <= d; j++ {
		m.coef[j] = sol.AtVec(j)
	}
	return nil
}

func (m *linearRegression) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		v := m.coef[len(m.coef)-1]
		for j, xv := range x {
			v += m.coef[j] * xv
		}
		out[i] = v
	}
	return out
}

// Attributions reports each feature's additive term in the prediction.
func (m *linearRegression) Attributions(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, x := range X {
		row := make([]float64, len(x))
		for j, xv := range x {
			row[j] = m.coef[j] * xv
		}
		out[i] = row
	}
	return out
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
