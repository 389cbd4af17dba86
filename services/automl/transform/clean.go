// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package transform implements the pure data transformations of the
// pipeline: null cleaning, encoding, scaling, skewness correction, and
// class balancing. Functions take a frame and return a new frame; they
// never touch session state.
package transform

import (
	"fmt"

	"github.com/AleutianAI/AleutianAutoML/services/automl/datatypes"
	"github.com/AleutianAI/AleutianAutoML/services/automl/frame"
)

// Fill strategies accepted by Clean.
const (
	StrategyMean   = "mean"
	StrategyMedian = "median"
	StrategyMode   = "mode"
	StrategyDrop   = "drop"
)

// Clean applies the fill rules in caller order over a copy of f and returns
// the cleaned frame. A "drop" rule removes rows with a null in its column,
// so later rules in the same call see the already-shrunk table; that
// ordering is part of the contract.
func Clean(f *frame.Frame, rules []datatypes.FillRule) (*frame.Frame, error) {
	out := f.Clone()
	for _, rule := range rules {
		col, ok := out.Column(rule.Column)
		if !ok {
			return nil, fmt.Errorf("%w: no column %q", datatypes.ErrInvalidArgument, rule.Column)
		}
		switch rule.Strategy {
		case StrategyMean, StrategyMedian:
			if col.Kind() != frame.KindNumeric {
				return nil, fmt.Errorf("%w: strategy %q on non-numeric column %q",
					datatypes.ErrInvalidArgument, rule.Strategy, rule.Column)
			}
			stat := col.Mean()
			if rule.Strategy == StrategyMedian {
				stat = col.Median()
			}
			if col.NullCount() == col.Len() {
				return nil, fmt.Errorf("%w: column %q has no observed values to fill from",
					datatypes.ErrInvalidArgument, rule.Column)
			}
			for i := 0; i < col.Len(); i++ {
				if col.IsNull(i) {
					col.SetFloat(i, stat)
				}
			}
		case StrategyMode:
			if err := fillMode(col); err != nil {
				return nil, err
			}
		case StrategyDrop:
			keep := make([]bool, col.Len())
			for i := range keep {
				keep[i] = !col.IsNull(i)
			}
			out = out.Filter(keep)
		default:
			return nil, fmt.Errorf("%w: unknown strategy %q for column %q",
				datatypes.ErrInvalidArgument, rule.Strategy, rule.Column)
		}
	}
	return out, nil
}

func fillMode(col *frame.Column) error {
	src, ok := col.ModeIndex()
	if !ok {
		return fmt.Errorf("%w: column %q has no observed values to fill from",
			datatypes.ErrInvalidArgument, col.Name())
	}
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			col.CopyCell(i, src)
		}
	}
	return nil
}
