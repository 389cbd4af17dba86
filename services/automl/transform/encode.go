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
	"sort"

	"github.com/AleutianAI/AleutianAutoML/services/automl/datatypes"
	"github.com/AleutianAI/AleutianAutoML/services/automl/frame"
)

// Encoding methods accepted by Encode.
const (
	EncodeLabel   = "label"
	EncodeOneHot  = "onehot"
	EncodeOrdinal = "ordinal"
	EncodeBinary  = "binary"
)

// Encode converts the named categorical columns to numeric form on a copy
// of f.
//
// label and ordinal assign integer codes over the sorted distinct value
// set, so the mapping is deterministic for a given column. onehot expands a
// column into k-1 indicator columns (first sorted category dropped). binary
// maps the literal "yes" token to 1 and everything else, nulls included,
// to 0 - a deliberately narrow policy.
func Encode(f *frame.Frame, method string, cols []string) (*frame.Frame, error) {
	out := f.Clone()
	for _, name := range cols {
		col, ok := out.Column(name)
		if !ok {
			return nil, fmt.Errorf("%w: no column %q", datatypes.ErrInvalidArgument, name)
		}
		switch method {
		case EncodeLabel, EncodeOrdinal:
			if err := out.ReplaceColumn(labelEncode(col)); err != nil {
				return nil, err
			}
		case EncodeOneHot:
			if err := oneHotEncode(out, col); err != nil {
				return nil, err
			}
		case EncodeBinary:
			if err := out.ReplaceColumn(binaryEncode(col)); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: unknown encoding %q", datatypes.ErrInvalidArgument, method)
		}
	}
	return out, nil
}

// sortedCategories returns the distinct renderings of a column's cells,
// sorted. Nulls render as "nan", the pandas astype(str) convention, so
// null is its own category.
func sortedCategories(col *frame.Column) []string {
	set := make(map[string]bool)
	for i := 0; i < col.Len(); i++ {
		set[cellToken(col, i)] = true
	}
	cats := make([]string, 0, len(set))
	for v := range set {
		cats = append(cats, v)
	}
	sort.Strings(cats)
	return cats
}

func cellToken(col *frame.Column, i int) string {
	if col.IsNull(i) {
		return "nan"
	}
	return col.String(i)
}

func labelEncode(col *frame.Column) *frame.Column {
	cats := sortedCategories(col)
	codes := make(map[string]float64, len(cats))
	for i, c := range cats {
		codes[c] = float64(i)
	}
	vals := make([]float64, col.Len())
	for i := 0; i < col.Len(); i++ {
		vals[i] = codes[cellToken(col, i)]
	}
	return frame.NewIntegralColumn(col.Name(), vals, nil)
}

func oneHotEncode(f *frame.Frame, col *frame.Column) error {
	cats := sortedCategories(col)
	name := col.Name()
	n := col.Len()
	f.DropColumns(name)
	// first category dropped to avoid collinearity
	for _, cat := range cats[1:] {
		vals := make([]float64, n)
		for i := 0; i < n; i++ {
			if cellToken(col, i) == cat {
				vals[i] = 1
			}
		}
		indicator := frame.NewIntegralColumn(fmt.Sprintf("%s_%s", name, cat), vals, nil)
		if err := f.AddColumn(indicator); err != nil {
			return err
		}
	}
	return nil
}

func binaryEncode(col *frame.Column) *frame.Column {
	vals := make([]float64, col.Len())
	for i := 0; i < col.Len(); i++ {
		if !col.IsNull(i) && col.String(i) == "yes" {
			vals[i] = 1
		}
	}
	return frame.NewIntegralColumn(col.Name(), vals, nil)
}
