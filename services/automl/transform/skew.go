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

	"github.com/AleutianAI/AleutianAutoML/services/automl/datatypes"
	"github.com/AleutianAI/AleutianAutoML/services/automl/frame"
	"gonum.org/v1/gonum/stat"
)

// Skew-correction methods accepted by FixSkew.
const (
	SkewLog        = "log"
	SkewSqrt       = "sqrt"
	SkewBoxCox     = "boxcox"
	SkewYeoJohnson = "yeojohnson"
)

// boxcoxEpsilon is the floor applied before a Box-Cox transform, which
// requires strictly positive input.
const boxcoxEpsilon = 1e-6

// FixSkew applies the named skew-correction to the given numeric columns
// on a copy of f. log and sqrt clip negatives at 0 first; boxcox clips at a
// small epsilon; boxcox and yeojohnson fit a per-column lambda by maximum
// likelihood over a fixed grid, so results are deterministic.
func FixSkew(f *frame.Frame, method string, cols []string) (*frame.Frame, error) {
	out := f.Clone()
	for _, name := range cols {
		col, ok := out.Column(name)
		if !ok {
			return nil, fmt.Errorf("%w: no column %q", datatypes.ErrInvalidArgument, name)
		}
		if col.Kind() != frame.KindNumeric {
			return nil, fmt.Errorf("%w: skew fix %q requires numeric column, %q is %s",
				datatypes.ErrInvalidArgument, method, name, col.Kind())
		}
		switch method {
		case SkewLog:
			applyElementwise(col, func(v float64) float64 { return math.Log1p(math.Max(v, 0)) })
		case SkewSqrt:
			applyElementwise(col, func(v float64) float64 { return math.Sqrt(math.Max(v, 0)) })
		case SkewBoxCox:
			applyElementwise(col, func(v float64) float64 { return math.Max(v, boxcoxEpsilon) })
			lambda := fitLambda(col.Floats(), boxcox, boxcoxLogJacobian)
			applyElementwise(col, func(v float64) float64 { return boxcox(v, lambda) })
		case SkewYeoJohnson:
			lambda := fitLambda(col.Floats(), yeoJohnson, yeoJohnsonLogJacobian)
			applyElementwise(col, func(v float64) float64 { return yeoJohnson(v, lambda) })
		default:
			return nil, fmt.Errorf("%w: unknown skew fix %q", datatypes.ErrInvalidArgument, method)
		}
	}
	return out, nil
}

func applyElementwise(col *frame.Column, fn func(float64) float64) {
	for i := 0; i < col.Len(); i++ {
		if v, isSet := col.Float(i); isSet {
			col.SetFloat(i, fn(v))
		}
	}
}

func boxcox(x, lambda float64) float64 {
	if lambda == 0 {
		return math.Log(x)
	}
	return (math.Pow(x, lambda) - 1) / lambda
}

func boxcoxLogJacobian(x, _ float64) float64 { return math.Log(x) }

func yeoJohnson(x, lambda float64) float64 {
	switch {
	case x >= 0 && lambda != 0:
		return (math.Pow(x+1, lambda) - 1) / lambda
	case x >= 0:
		return math.Log1p(x)
	case lambda != 2:
		return -(math.Pow(-x+1, 2-lambda) - 1) / (2 - lambda)
	default:
		return -math.Log1p(-x)
	}
}

func yeoJohnsonLogJacobian(x, _ float64) float64 {
	if x >= 0 {
		return math.Log1p(x)
	}
	return -math.Log1p(-x)
}

// fitLambda maximizes the profile log-likelihood of the transformed sample
// over a [-5, 5] grid in 0.01 steps. The Jacobian term is weighted by
// (lambda - 1) for both families.
func fitLambda(vals []float64, tf func(x, lambda float64) float64,
	logJacobian func(x, lambda float64) float64) float64 {

	if len(vals) < 2 {
		return 1
	}
	bestLambda, bestLL := 1.0, math.Inf(-1)
	n := float64(len(vals))
	transformed := make([]float64, len(vals))
	for lambda := -5.0; lambda <= 5.0+1e-9; lambda += 0.01 {
		var jac float64
		for i, v := range vals {
			transformed[i] = tf(v, lambda)
			jac += logJacobian(v, lambda)
		}
		variance := stat.Variance(transformed, nil) * (n - 1) / n
		if variance <= 0 || math.IsNaN(variance) {
			continue
		}
		ll := -n/2*math.Log(variance) + (lambda-1)*jac
		if ll > bestLL {
			bestLL, bestLambda = ll, lambda
		}
	}
	return bestLambda
}
