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
	"sort"
	"strconv"

	"github.com/AleutianAI/AleutianAutoML/services/automl/datatypes"
	"github.com/AleutianAI/AleutianAutoML/services/automl/frame"
)

// Columns added to the retained test split for later ROC rendering.
const (
	YTrueColumn  = "__y_true"
	YScoreColumn = "__y_score"
)

// Result is the outcome of one training run.
type Result struct {
	ModelKey   string
	ModelName  string
	Classifier bool
	Params     map[string]any
	Coerced    map[string]any
	Metrics    map[string]float64
	Confusion  [][]int // classification only
	TestSplit  *frame.Frame
	Rows       int
	Features   int
}

// Options are the split controls of one training request.
type Options struct {
	TestSize float64
	Seed     int64
	Stratify bool
}

// DefaultOptions are the split defaults applied when a request omits them.
func DefaultOptions() Options {
	return Options{TestSize: 0.2, Seed: 42, Stratify: true}
}

// TrainAndEvaluate fits the keyed model on a train split of tbl and
// evaluates it on the holdout. The feature set is every column except the
// target, which must be fully numeric and null-free (encode and clean
// first). Given a fixed seed and fixed hyperparameters the result is
// deterministic.
func TrainAndEvaluate(tbl *frame.Frame, target, modelKey string,
	userParams map[string]any, opts Options) (*Result, error) {

	spec, ok := Lookup(modelKey)
	if !ok {
		return nil, fmt.Errorf("%w: %q", datatypes.ErrUnsupportedModel, modelKey)
	}
	params, coerced := Resolve(spec, userParams)

	features, X, y, classes, err := designMatrix(tbl, target, spec.Classifier)
	if err != nil {
		return nil, err
	}

	split, err := trainTestSplit(y, opts.TestSize, opts.Seed, opts.Stratify && spec.Classifier)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", datatypes.ErrInvalidArgument, err)
	}
	XTrain, yTrain := gatherRows(X, split.trainIdx), gatherVals(y, split.trainIdx)
	XTest, yTest := gatherRows(X, split.testIdx), gatherVals(y, split.testIdx)

	model := spec.New(params, opts.Seed)
	if err := model.Fit(XTrain, yTrain); err != nil {
		return nil, fmt.Errorf("fit %s: %w", spec.Name, err)
	}
	yPred := model.Predict(XTest)

	result := &Result{
		ModelKey:   modelKey,
		ModelName:  spec.Name,
		Classifier: spec.Classifier,
		Params:     params,
		Coerced:    coerced,
		Rows:       tbl.NumRows(),
		Features:   len(features),
	}

	if spec.Classifier {
		scores := yPred
		if scorer, hasScore := model.(Scorer); hasScore {
			scores = scorer.Score(XTest)
		}
		precision, recall, f1 := PrecisionRecallF1(yTest, yPred, len(classes))
		auc := 0.0
		if len(classes) == 2 {
			auc = ROCAUC(yTest, scores)
		}
		result.Metrics = map[string]float64{
			"accuracy":  round4(Accuracy(yTest, yPred)),
			"precision": round4(precision),
			"recall":    round4(recall),
			"f1":        round4(f1),
			"roc_auc":   round4(auc),
		}
		result.Confusion = ConfusionMatrix(yTest, yPred, len(classes))
		result.TestSplit = testSplitFrame(tbl, features, split.testIdx, yTest, scores)
	} else {
		result.Metrics = map[string]float64{
			"rmse": round4(RMSE(yTest, yPred)),
			"mae":  round4(MAE(yTest, yPred)),
			"r2":   round4(R2(yTest, yPred)),
		}
		result.TestSplit = testSplitFrame(tbl, features, split.testIdx, yTest, yPred)
	}
	return result, nil
}

// FitFull resolves and fits the keyed model on the whole table, for the
// explain stage. Returns the fitted model, its spec, the resolved params,
// the feature names, and the design matrix.
func FitFull(tbl *frame.Frame, target, modelKey string,
	userParams map[string]any, seed int64) (Model, Spec, map[string]any, []string, [][]float64, error) {

	spec, ok := Lookup(modelKey)
	if !ok {
		return nil, Spec{}, nil, nil, nil, fmt.Errorf("%w: %q", datatypes.ErrUnsupportedModel, modelKey)
	}
	params, _ := Resolve(spec, userParams)
	features, X, y, _, err := designMatrix(tbl, target, spec.Classifier)
	if err != nil {
		return nil, Spec{}, nil, nil, nil, err
	}
	model := spec.New(params, seed)
	if err := model.Fit(X, y); err != nil {
		return nil, Spec{}, nil, nil, nil, fmt.Errorf("fit %s: %w", spec.Name, err)
	}
	return model, spec, params, features, X, nil
}

// designMatrix extracts features (all columns but the target) and the
// target vector. Classification targets are encoded to class indices over
// the sorted distinct value set; regression targets must be numeric.
func designMatrix(tbl *frame.Frame, target string, classifier bool) (
	features []string, X [][]float64, y []float64, classes []string, err error) {

	targetCol, ok := tbl.Column(target)
	if !ok {
		return nil, nil, nil, nil, fmt.Errorf("%w: target column %q not found",
			datatypes.ErrInvalidArgument, target)
	}
	if targetCol.NullCount() > 0 {
		return nil, nil, nil, nil, fmt.Errorf("%w: target column %q has %d nulls",
			datatypes.ErrInvalidArgument, target, targetCol.NullCount())
	}

	for _, name := range tbl.Names() {
		if name != target {
			features = append(features, name)
		}
	}
	if len(features) == 0 {
		return nil, nil, nil, nil, fmt.Errorf("%w: no feature columns besides target %q",
			datatypes.ErrInvalidArgument, target)
	}
	X, err = tbl.Matrix(features)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("%w: %v", datatypes.ErrInvalidArgument, err)
	}

	if classifier {
		classes = sortedTargetClasses(targetCol)
		if len(classes) < 2 {
			return nil, nil, nil, nil, fmt.Errorf("%w: target column %q has %d class(es); need at least 2",
				datatypes.ErrInvalidArgument, target, len(classes))
		}
		index := make(map[string]int, len(classes))
		for i, c := range classes {
			index[c] = i
		}
		y = make([]float64, targetCol.Len())
		for i := range y {
			y[i] = float64(index[targetCol.String(i)])
		}
		return features, X, y, classes, nil
	}

	if targetCol.Kind() != frame.KindNumeric && targetCol.Kind() != frame.KindBool {
		return nil, nil, nil, nil, fmt.Errorf("%w: regression target %q must be numeric, is %s",
			datatypes.ErrInvalidArgument, target, targetCol.Kind())
	}
	y = make([]float64, targetCol.Len())
	for i := range y {
		y[i], _ = targetCol.Float(i)
	}
	return features, X, y, nil, nil
}

// sortedTargetClasses orders distinct target renderings numerically when
// every value parses as a number, lexically otherwise, so class indices
// are stable for a given value set.
func sortedTargetClasses(col *frame.Column) []string {
	set := make(map[string]bool)
	for i := 0; i < col.Len(); i++ {
		set[col.String(i)] = true
	}
	classes := make([]string, 0, len(set))
	numeric := true
	for v := range set {
		classes = append(classes, v)
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			numeric = false
		}
	}
	if numeric {
		sort.Slice(classes, func(a, b int) bool {
			fa, _ := strconv.ParseFloat(classes[a], 64)
			fb, _ := strconv.ParseFloat(classes[b], 64)
			return fa < fb
		})
	} else {
		sort.Strings(classes)
	}
	return classes
}

func testSplitFrame(tbl *frame.Frame, features []string, testIdx []int, yTrue, scores []float64) *frame.Frame {
	selected, err := tbl.Select(features...)
	if err != nil {
		return nil
	}
	out := selected.Gather(testIdx)
	_ = out.AddColumn(frame.NewNumericColumn(YTrueColumn, yTrue, nil))
	_ = out.AddColumn(frame.NewNumericColumn(YScoreColumn, scores, nil))
	return out
}
