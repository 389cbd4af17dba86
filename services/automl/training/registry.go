// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package training maps model keys to constructors, default
// hyperparameters, and the evaluation protocol. Hyperparameter resolution
// is best-effort: an invalid value is coerced to the nearest valid one or
// replaced by the default, never rejected, and every substitution is
// reported back to the caller.
package training

import (
	"math"
	"sort"
)

// Model is a fitted estimator over dense float features.
type Model interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) []float64
}

// Scorer yields a positive-class score per row: a probability where the
// model has one, a decision-function value otherwise.
type Scorer interface {
	Score(X [][]float64) []float64
}

// Attributor yields per-row, per-feature contributions to the model output.
// Implemented by the tree and linear families; the explain stage falls back
// to permutation importance for anything else.
type Attributor interface {
	Attributions(X [][]float64) [][]float64
}

// ParamKind tags the expected type of a hyperparameter.
type ParamKind int

const (
	ParamInt ParamKind = iota
	ParamFloat
	ParamString
	ParamBool
)

// ParamSpec bounds one hyperparameter. Numeric values outside [Min, Max]
// clamp to the nearer bound; string values outside Allowed fall back to
// the default.
type ParamSpec struct {
	Kind    ParamKind
	Default any
	Min     float64
	Max     float64
	Allowed []string
}

// Spec describes one registered model.
type Spec struct {
	Key        string
	Name       string // estimator class name, as reported to clients
	Classifier bool
	Tree       bool // tree-ensemble family, for explainer selection
	Params     map[string]ParamSpec
	New        func(params map[string]any, seed int64) Model
}

var registry = map[string]Spec{
	"logistic": {
		Key: "logistic", Name: "LogisticRegression", Classifier: true,
		Params: map[string]ParamSpec{
			"max_iter": {Kind: ParamInt, Default: 100, Min: 1, Max: 100000},
			"c":        {Kind: ParamFloat, Default: 1.0, Min: 1e-6, Max: 1e6},
		},
		New: func(p map[string]any, seed int64) Model {
			return newOneVsRest(func() binaryModel {
				return &logisticRegression{maxIter: asInt(p["max_iter"]), c: asFloat(p["c"])}
			})
		},
	},
	"linear": {
		Key: "linear", Name: "LinearRegression", Classifier: false,
		Params: map[string]ParamSpec{},
		New: func(p map[string]any, seed int64) Model {
			return &linearRegression{}
		},
	},
	"random_forest": {
		Key: "random_forest", Name: "RandomForestClassifier", Classifier: true, Tree: true,
		Params: map[string]ParamSpec{
			"n_estimators": {Kind: ParamInt, Default: 100, Min: 1, Max: 2000},
			"max_depth":    {Kind: ParamInt, Default: 0, Min: 0, Max: 1000},
		},
		New: func(p map[string]any, seed int64) Model {
			return &randomForest{
				nEstimators: asInt(p["n_estimators"]),
				maxDepth:    asInt(p["max_depth"]),
				seed:        seed,
			}
		},
	},
	"decision_tree": {
		Key: "decision_tree", Name: "DecisionTreeClassifier", Classifier: true, Tree: true,
		Params: map[string]ParamSpec{
			"max_depth": {Kind: ParamInt, Default: 0, Min: 0, Max: 1000},
		},
		New: func(p map[string]any, seed int64) Model {
			return &decisionTree{maxDepth: asInt(p["max_depth"])}
		},
	},
	"naive_bayes": {
		Key: "naive_bayes", Name: "GaussianNB", Classifier: true,
		Params: map[string]ParamSpec{
			"var_smoothing": {Kind: ParamFloat, Default: 1e-9, Min: 0, Max: 1},
		},
		New: func(p map[string]any, seed int64) Model {
			return &gaussianNB{varSmoothing: asFloat(p["var_smoothing"])}
		},
	},
	"svm": {
		Key: "svm", Name: "SVC", Classifier: true,
		Params: map[string]ParamSpec{
			"c":        {Kind: ParamFloat, Default: 1.0, Min: 1e-6, Max: 1e6},
			"max_iter": {Kind: ParamInt, Default: 1000, Min: 1, Max: 100000},
			"kernel":   {Kind: ParamString, Default: "linear", Allowed: []string{"linear"}},
		},
		New: func(p map[string]any, seed int64) Model {
			return newOneVsRest(func() binaryModel {
				return &linearSVM{c: asFloat(p["c"]), maxIter: asInt(p["max_iter"]), seed: seed}
			})
		},
	},
	"knn": {
		Key: "knn", Name: "KNeighborsClassifier", Classifier: true,
		Params: map[string]ParamSpec{
			"n_neighbors": {Kind: ParamInt, Default: 5, Min: 1, Max: 1000},
		},
		New: func(p map[string]any, seed int64) Model {
			return &kNeighbors{k: asInt(p["n_neighbors"])}
		},
	},
	"xgboost": {
		Key: "xgboost", Name: "XGBClassifier", Classifier: true, Tree: true,
		Params: map[string]ParamSpec{
			"n_estimators":  {Kind: ParamInt, Default: 100, Min: 1, Max: 5000},
			"learning_rate": {Kind: ParamFloat, Default: 0.3, Min: 1e-4, Max: 1},
			"max_depth":     {Kind: ParamInt, Default: 6, Min: 1, Max: 64},
		},
		New: newBoostedModel,
	},
	"lightgbm": {
		Key: "lightgbm", Name: "LGBMClassifier", Classifier: true, Tree: true,
		Params: map[string]ParamSpec{
			"n_estimators":  {Kind: ParamInt, Default: 100, Min: 1, Max: 5000},
			"learning_rate": {Kind: ParamFloat, Default: 0.1, Min: 1e-4, Max: 1},
			"max_depth":     {Kind: ParamInt, Default: 3, Min: 1, Max: 64},
		},
		New: newBoostedModel,
	},
}

func newBoostedModel(p map[string]any, seed int64) Model {
	return newOneVsRest(func() binaryModel {
		return &gradientBoost{
			nEstimators:  asInt(p["n_estimators"]),
			learningRate: asFloat(p["learning_rate"]),
			maxDepth:     asInt(p["max_depth"]),
		}
	})
}

// Lookup returns the spec for a model key.
func Lookup(key string) (Spec, bool) {
	s, ok := registry[key]
	return s, ok
}

// Keys returns the registered model keys, sorted.
func Keys() []string {
	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HyperparameterSpace returns the closed hyperparameter space per model,
// for the assistant prompt and for clients.
func HyperparameterSpace() map[string]map[string]any {
	out := make(map[string]map[string]any, len(registry))
	for key, spec := range registry {
		params := make(map[string]any, len(spec.Params))
		for name, ps := range spec.Params {
			params[name] = ps.Default
		}
		out[key] = params
	}
	return out
}

// Resolve merges user hyperparameters over the spec defaults. Every value
// that had to be changed (wrong type, out of range, unknown key) lands in
// coerced with the value actually used; unknown keys coerce to dropped
// (nil). Resolution never fails.
func Resolve(spec Spec, user map[string]any) (params, coerced map[string]any) {
	params = make(map[string]any, len(spec.Params))
	coerced = make(map[string]any)
	for name, ps := range spec.Params {
		params[name] = ps.Default
	}
	for name, raw := range user {
		ps, known := spec.Params[name]
		if !known {
			coerced[name] = nil
			continue
		}
		val, changed := coerceValue(ps, raw)
		params[name] = val
		if changed {
			coerced[name] = val
		}
	}
	return params, coerced
}

func coerceValue(ps ParamSpec, raw any) (any, bool) {
	switch ps.Kind {
	case ParamInt:
		f, ok := toFloat(raw)
		if !ok {
			return ps.Default, true
		}
		clamped := clamp(math.Trunc(f), ps.Min, ps.Max)
		return int(clamped), clamped != f
	case ParamFloat:
		f, ok := toFloat(raw)
		if !ok {
			return ps.Default, true
		}
		clamped := clamp(f, ps.Min, ps.Max)
		return clamped, clamped != f
	case ParamString:
		s, ok := raw.(string)
		if !ok {
			return ps.Default, true
		}
		for _, allowed := range ps.Allowed {
			if s == allowed {
				return s, false
			}
		}
		return ps.Default, true
	case ParamBool:
		b, ok := raw.(bool)
		if !ok {
			return ps.Default, true
		}
		return b, false
	}
	return ps.Default, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}
