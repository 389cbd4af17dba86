// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the session record, step history, request and
// response schemas, and the error taxonomy shared by all pipeline handlers.
package datatypes

import (
	"time"

	"github.com/AleutianAI/AleutianAutoML/services/automl/frame"
	"github.com/google/uuid"
)

// NilUserID is the sentinel identity for sessions created without a user.
var NilUserID = uuid.Nil.String()

// Stage names, in pipeline order.
const (
	StageClean     = "clean"
	StageEDA       = "eda"
	StageTransform = "transform"
	StageTrain     = "train"
	StageExplain   = "explain"
)

// FillRule pairs one column with the null-fill strategy requested for it.
// Rules apply in caller order; a "drop" rule shrinks the table for every
// rule after it in the same call.
type FillRule struct {
	Column   string `json:"column"`
	Strategy string `json:"strategy"`
}

// CleanStep records one successful cleaning call.
//
// The history is always a list of these records, one per call, regardless
// of how many columns a single call touched.
type CleanStep struct {
	Strategies []FillRule `json:"strategies"`
}

// TransformStep records which methods were applied to which columns in one
// transform call. Skipped concerns are recorded as empty maps so the step
// list replays without special cases.
type TransformStep struct {
	Encoding       map[string][]string `json:"encoding"`
	Scaling        map[string][]string `json:"scaling"`
	Balancing      map[string][]string `json:"balancing"`
	SkewFix        map[string][]string `json:"skew_fix"`
	DroppedColumns []string            `json:"dropped_columns"`
}

// TrainStep records one training run: the resolved model configuration, the
// held-out metrics, and (classification only) the confusion matrix.
//
// TestSplit holds the held-out features plus the __y_true/__y_score columns
// used by ROC rendering. It is transient working state, never serialized.
type TrainStep struct {
	Model           string             `json:"model"`
	Params          map[string]any     `json:"params"`
	Coerced         map[string]any     `json:"coerced,omitempty"`
	Metrics         map[string]float64 `json:"metrics"`
	ConfusionMatrix [][]int            `json:"confusion_matrix,omitempty"`
	TestSplit       *frame.Frame       `json:"-"`
}

// FeatureImportance is one entry of a ranked feature attribution.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// ExplainStep records one explanation run for a model.
type ExplainStep struct {
	Model      string              `json:"model"`
	Params     map[string]any      `json:"params"`
	ShapValues []FeatureImportance `json:"shap_values"`
}

// Steps is the append-only step history of a session, one ordered list per
// mutating stage. Every stage, including clean, is a list.
type Steps struct {
	Clean     []CleanStep     `json:"clean,omitempty"`
	Transform []TransformStep `json:"transform,omitempty"`
	Train     []TrainStep     `json:"train,omitempty"`
	Explain   []ExplainStep   `json:"explain,omitempty"`
}

// LastExplain returns the most recent explain step for the given model.
func (s *Steps) LastExplain(model string) (ExplainStep, bool) {
	for i := len(s.Explain) - 1; i >= 0; i-- {
		if s.Explain[i].Model == model {
			return s.Explain[i], true
		}
	}
	return ExplainStep{}, false
}

// SessionRecord is the unit of mutable state for one uploaded dataset.
//
// Table is replaced wholesale by every mutating stage (copy-on-write); the
// store serializes replacements per session id. TargetColumn persists once
// resolved. Tips accumulate assistant answers per page, append-only.
type SessionRecord struct {
	ID           string              `json:"session_id"`
	Filename     string              `json:"filename"`
	UserID       string              `json:"user_id"`
	TargetColumn string              `json:"target_column,omitempty"`
	Table        *frame.Frame        `json:"-"`
	Steps        Steps               `json:"steps"`
	Tips         map[string][]string `json:"tips,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

// ResolveTarget applies the precedence rule for the label column: a value
// already stored on the session wins; otherwise a request-supplied name is
// adopted and persisted if it names an existing column.
func (r *SessionRecord) ResolveTarget(requested string) string {
	if r.TargetColumn != "" {
		return r.TargetColumn
	}
	if requested != "" && r.Table != nil {
		if _, ok := r.Table.Column(requested); ok {
			r.TargetColumn = requested
		}
	}
	return r.TargetColumn
}

// Summary projects the record into its listing shape.
func (r *SessionRecord) Summary() SessionSummary {
	rows, cols := 0, 0
	if r.Table != nil {
		rows, cols = r.Table.NumRows(), r.Table.NumCols()
	}
	return SessionSummary{
		SessionID:    r.ID,
		Filename:     r.Filename,
		Rows:         rows,
		Columns:      cols,
		TargetColumn: r.TargetColumn,
		TrainRuns:    len(r.Steps.Train),
		CreatedAt:    r.CreatedAt,
	}
}

// SessionSummary is the listing shape for session administration routes.
type SessionSummary struct {
	SessionID    string    `json:"session_id"`
	Filename     string    `json:"filename"`
	Rows         int       `json:"rows"`
	Columns      int       `json:"columns"`
	TargetColumn string    `json:"target_column,omitempty"`
	TrainRuns    int       `json:"train_runs"`
	CreatedAt    time.Time `json:"created_at"`
}
