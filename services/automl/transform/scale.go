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

// Scaling methods accepted by Scale.
const (
	ScaleStandard = "standard"
	ScaleMinMax   = "minmax"
	ScaleRobust   = "robust"
	ScaleMaxAbs   = "maxabs"
)

// Scale rescales the named numeric columns on a copy of f. Statistics are
// fit over the observed values of each column; null cells stay null.
// Degenerate columns (zero spread) map to all zeros rather than NaN.
func Scale(f *frame.Frame, method string, cols []string) (*frame.Frame, error) {
	out := f.Clone()
	for _, name := range cols {
		col, ok := out.Column(name)
		if !ok {
			return nil, fmt.Errorf("%w: no column %q", datatypes.ErrInvalidArgument, name)
		}
		if col.Kind() != frame.KindNumeric {
			return nil, fmt.Errorf("%w: scaling %q requires numeric column, %q is %s",
				datatypes.ErrInvalidArgument, method, name, col.Kind())
		}
		shift, span, err := scaleParams(method, col)
		if err != nil {
			return nil, err
		}
		for i := 0; i < col.Len(); i++ {
			if v, isSet := col.Float(i); isSet {
				if span == 0 {
					col.SetFloat(i, 0)
				} else {
					col.SetFloat(i, (v-shift)/span)
				}
			}
		}
	}
	return out, nil
}

// scaleParams returns the (shift, span) pair so every method reduces to
// (x - shift) / span.
func scaleParams(method string, col *frame.Column) (float64, float64, error) {
	vals := col.Floats()
	if len(vals) == 0 {
		return 0, 0, fmt.Errorf("%w: column %q has no observed values to scale",
			datatypes.ErrInvalidArgument, col.Name())
	}
	switch method {
	case ScaleStandard:
		mean := stat.Mean(vals, nil)
		// population std, the sklearn StandardScaler fit convention
		var ss float64
		for _, v := range vals {
			d := v - mean
			ss += d * d
		}
		return mean, math.Sqrt(ss / float64(len(vals))), nil
	case ScaleMinMax:
		return col.Min(), col.Max() - col.Min(), nil
	case ScaleRobust:
		return col.Median(), col.Quantile(0.75) - col.Quantile(0.25), nil
	case ScaleMaxAbs:
		maxAbs := 0.0
		for _, v := range vals {
			if a := math.Abs(v); a > maxAbs {
				maxAbs = a
			}
		}
		return 0, maxAbs, nil
	default:
		return 0, 0, fmt.Errorf("%w: unknown scaling %q", datatypes.ErrInvalidArgument, method)
	}
}
