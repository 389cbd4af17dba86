// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianAutoML/services/automl/datatypes"
	"github.com/AleutianAI/AleutianAutoML/services/automl/explain"
	"github.com/AleutianAI/AleutianAutoML/services/automl/frame"
	"github.com/AleutianAI/AleutianAutoML/services/automl/observability"
	"github.com/AleutianAI/AleutianAutoML/services/automl/training"
	"github.com/AleutianAI/AleutianAutoML/services/automl/transform"
)

// Clean fills or drops nulls per the ordered strategy map. The table is
// replaced only when every strategy applied; a failed call leaves the
// session untouched.
func Clean(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.CleanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		started := time.Now()

		var rec *datatypes.SessionRecord
		var nullsBefore map[string]int
		err := deps.Store.Mutate(req.SessionID, func(r *datatypes.SessionRecord) error {
			r.ResolveTarget(req.TargetColumn)
			nullsBefore = r.Table.NullCounts()
			cleaned, err := transform.Clean(r.Table, req.FillStrategies)
			if err != nil {
				return err
			}
			r.Table = cleaned
			r.Steps.Clean = append(r.Steps.Clean, datatypes.CleanStep{
				Strategies: req.FillStrategies,
			})
			rec = r
			return nil
		})
		observability.ObserveStage(datatypes.StageClean, time.Since(started).Seconds(), err)
		if err != nil {
			writeError(c, err)
			return
		}
		recordJob(c.Request.Context(), deps, rec, datatypes.StageClean)

		c.JSON(http.StatusOK, gin.H{
			"session_id":          rec.ID,
			"rows":                rec.Table.NumRows(),
			"columns":             rec.Table.NumCols(),
			"null_counts_before":  nullsBefore,
			"null_counts":         rec.Table.NullCounts(),
			"numeric_columns":     rec.Table.NumericColumns(),
			"categorical_columns": rec.Table.CategoricalColumns(),
			"preview":             rec.Table.Head(previewRows),
			"steps":               rec.Steps.Clean,
		})
	}
}

// EDA computes the read-only exploratory summary under the session read
// lock. The write lock is taken only when the request names a target
// column the session has not adopted yet.
func EDA(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.EDARequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		started := time.Now()

		var resp gin.H
		var adopted string
		err := deps.Store.View(req.SessionID, func(r *datatypes.SessionRecord) error {
			tbl := r.Table
			target := r.TargetColumn
			if target == "" && req.TargetColumn != "" {
				if _, ok := tbl.Column(req.TargetColumn); ok {
					target = req.TargetColumn
					adopted = req.TargetColumn
				}
			}
			numeric := tbl.NumericColumns()
			unique := make(map[string]int)
			for _, name := range tbl.CategoricalColumns() {
				if col, ok := tbl.Column(name); ok {
					unique[name] = col.DistinctCount()
				}
			}
			resp = gin.H{
				"session_id":    r.ID,
				"rows":          tbl.NumRows(),
				"columns":       tbl.NumCols(),
				"schema":        schemaOf(tbl),
				"describe":      tbl.Describe(numeric),
				"correlation":   tbl.Correlation(numeric),
				"skewness":      tbl.Skewness(numeric),
				"null_counts":   tbl.NullCounts(),
				"unique_values": unique,
			}
			if target != "" {
				if col, ok := tbl.Column(target); ok {
					resp["target_column"] = target
					resp["class_balance"] = col.ValueCounts()
				}
			}
			return nil
		})
		if err == nil && adopted != "" {
			err = deps.Store.Mutate(req.SessionID, func(r *datatypes.SessionRecord) error {
				r.ResolveTarget(adopted)
				return nil
			})
		}
		observability.ObserveStage(datatypes.StageEDA, time.Since(started).Seconds(), err)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// Transform applies the requested concerns in the fixed order drop ->
// encode -> skew fix -> scale -> balance, with the target column held out
// of encoding and scaling. All-or-nothing: any failure leaves the session
// untouched.
func Transform(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.TransformRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		started := time.Now()

		var rec *datatypes.SessionRecord
		err := deps.Store.Mutate(req.SessionID, func(r *datatypes.SessionRecord) error {
			tbl, step, err := applyTransforms(r, &req)
			if err != nil {
				return err
			}
			r.Table = tbl
			r.Steps.Transform = append(r.Steps.Transform, step)
			rec = r
			return nil
		})
		observability.ObserveStage(datatypes.StageTransform, time.Since(started).Seconds(), err)
		if err != nil {
			writeError(c, err)
			return
		}
		recordJob(c.Request.Context(), deps, rec, datatypes.StageTransform)

		c.JSON(http.StatusOK, gin.H{
			"session_id": rec.ID,
			"rows":       rec.Table.NumRows(),
			"columns":    rec.Table.NumCols(),
			"schema":     schemaOf(rec.Table),
			"preview":    rec.Table.Head(previewRows),
			"steps":      rec.Steps.Transform,
		})
	}
}

// applyTransforms runs the transform stages against a working copy and
// returns the new table plus the step record. The session's table is not
// touched until the caller commits the result.
func applyTransforms(r *datatypes.SessionRecord, req *datatypes.TransformRequest) (
	*frame.Frame, datatypes.TransformStep, error) {

	step := datatypes.TransformStep{
		Encoding:  map[string][]string{},
		Scaling:   map[string][]string{},
		Balancing: map[string][]string{},
		SkewFix:   map[string][]string{},
	}
	tbl := r.Table

	if len(req.DropColumns) > 0 {
		tbl = tbl.Clone()
		tbl.DropColumns(req.DropColumns...)
		step.DroppedColumns = req.DropColumns
	}

	target := r.TargetColumn
	if wanted(req.Encoding) {
		cols := withoutTarget(orDefault(req.EncodingColumns, tbl.CategoricalColumns()), target)
		out, err := transform.Encode(tbl, req.Encoding, cols)
		if err != nil {
			return nil, step, err
		}
		tbl = out
		step.Encoding[req.Encoding] = cols
	}
	if wanted(req.Skewness) {
		cols := withoutTarget(orDefault(req.SkewnessColumns, tbl.NumericColumns()), target)
		out, err := transform.FixSkew(tbl, req.Skewness, cols)
		if err != nil {
			return nil, step, err
		}
		tbl = out
		step.SkewFix[req.Skewness] = cols
	}
	if wanted(req.Scaling) {
		cols := withoutTarget(orDefault(req.ScalingColumns, tbl.NumericColumns()), target)
		out, err := transform.Scale(tbl, req.Scaling, cols)
		if err != nil {
			return nil, step, err
		}
		tbl = out
		step.Scaling[req.Scaling] = cols
	}
	if wanted(req.Balancing) {
		if target == "" {
			return nil, step, fmt.Errorf("%w: balancing requires a resolved target column",
				datatypes.ErrInvalidArgument)
		}
		yCol, ok := tbl.Column(target)
		if !ok {
			return nil, step, fmt.Errorf("%w: target column %q not found",
				datatypes.ErrInvalidArgument, target)
		}
		features, err := tbl.Select(withoutTarget(tbl.Names(), target)...)
		if err != nil {
			return nil, step, fmt.Errorf("%w: %v", datatypes.ErrInvalidArgument, err)
		}
		newX, newY, err := transform.Balance(features, yCol, req.Balancing)
		if err != nil {
			return nil, step, err
		}
		if err := newX.AddColumn(newY); err != nil {
			return nil, step, fmt.Errorf("%w: %v", datatypes.ErrInvalidArgument, err)
		}
		tbl = newX
		step.Balancing[req.Balancing] = []string{target}
	}
	return tbl, step, nil
}

func wanted(method string) bool {
	return method != "" && method != "none"
}

func orDefault(requested, fallback []string) []string {
	if len(requested) > 0 {
		return requested
	}
	return fallback
}

func withoutTarget(cols []string, target string) []string {
	if target == "" {
		return cols
	}
	out := cols[:0:0]
	for _, c := range cols {
		if c != target {
			out = append(out, c)
		}
	}
	return out
}

// Train fits the requested model on a split of the current table and
// appends the run to the session history.
func Train(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.TrainRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		started := time.Now()

		opts := training.DefaultOptions()
		if req.TestSize != nil {
			opts.TestSize = *req.TestSize
		}
		if req.RandomState != nil {
			opts.Seed = *req.RandomState
		}
		if req.Stratify != nil {
			opts.Stratify = *req.Stratify
		}

		var rec *datatypes.SessionRecord
		var result *training.Result
		err := deps.Store.Mutate(req.SessionID, func(r *datatypes.SessionRecord) error {
			if r.TargetColumn == "" {
				return fmt.Errorf("%w: no target column resolved for session",
					datatypes.ErrInvalidArgument)
			}
			res, err := training.TrainAndEvaluate(r.Table, r.TargetColumn, req.ModelKey,
				req.Hyperparameters, opts)
			if err != nil {
				return err
			}
			r.Steps.Train = append(r.Steps.Train, datatypes.TrainStep{
				Model:           res.ModelName,
				Params:          res.Params,
				Coerced:         res.Coerced,
				Metrics:         res.Metrics,
				ConfusionMatrix: res.Confusion,
				TestSplit:       res.TestSplit,
			})
			rec, result = r, res
			return nil
		})
		observability.ObserveStage(datatypes.StageTrain, time.Since(started).Seconds(), err)
		if observability.DefaultMetrics != nil {
			status := "success"
			if err != nil {
				status = "error"
			}
			observability.DefaultMetrics.TrainingsTotal.WithLabelValues(req.ModelKey, status).Inc()
		}
		if err != nil {
			writeError(c, err)
			return
		}
		recordJob(c.Request.Context(), deps, rec, datatypes.StageTrain)

		slog.Info("model trained",
			"session_id", rec.ID,
			"model", result.ModelName,
			"rows", result.Rows,
			"features", result.Features,
		)
		resp := gin.H{
			"session_id": rec.ID,
			"model":      result.ModelName,
			"params":     result.Params,
			"metrics":    result.Metrics,
		}
		if len(result.Coerced) > 0 {
			resp["coerced"] = result.Coerced
		}
		if result.Confusion != nil {
			resp["confusion_matrix"] = result.Confusion
		}
		c.JSON(http.StatusOK, resp)
	}
}

// Explain refits the model on the full table and returns ranked feature
// importances, recording them for the SHAP summary chart.
func Explain(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.ExplainRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		started := time.Now()

		var rec *datatypes.SessionRecord
		var ranked []datatypes.FeatureImportance
		err := deps.Store.Mutate(req.SessionID, func(r *datatypes.SessionRecord) error {
			if r.TargetColumn == "" {
				return fmt.Errorf("%w: no target column resolved for session",
					datatypes.ErrInvalidArgument)
			}
			params := lastTrainParams(r, req.ModelKey)
			out, resolved, err := explain.Explain(r.Table, r.TargetColumn, req.ModelKey,
				params, training.DefaultOptions().Seed)
			if err != nil {
				return err
			}
			spec, _ := training.Lookup(req.ModelKey)
			r.Steps.Explain = append(r.Steps.Explain, datatypes.ExplainStep{
				Model:      spec.Name,
				Params:     resolved,
				ShapValues: out,
			})
			rec, ranked = r, out
			return nil
		})
		observability.ObserveStage(datatypes.StageExplain, time.Since(started).Seconds(), err)
		if err != nil {
			writeError(c, err)
			return
		}
		recordJob(c.Request.Context(), deps, rec, datatypes.StageExplain)

		c.JSON(http.StatusOK, gin.H{
			"session_id":  rec.ID,
			"model":       rec.Steps.Explain[len(rec.Steps.Explain)-1].Model,
			"shap_values": ranked,
		})
	}
}

// lastTrainParams returns the hyperparameters of the most recent training
// run of the keyed model, so the explained model matches the trained one.
func lastTrainParams(r *datatypes.SessionRecord, modelKey string) map[string]any {
	spec, ok := training.Lookup(modelKey)
	if !ok {
		return nil
	}
	for i := len(r.Steps.Train) - 1; i >= 0; i-- {
		if r.Steps.Train[i].Model == spec.Name {
			return r.Steps.Train[i].Params
		}
	}
	return nil
}

// Data returns the current table contents, for client-side grids.
func Data(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.SessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var resp gin.H
		err := deps.Store.View(req.SessionID, func(r *datatypes.SessionRecord) error {
			resp = gin.H{
				"session_id": r.ID,
				"rows":       r.Table.NumRows(),
				"columns":    r.Table.Names(),
				"records":    r.Table.Records(),
			}
			return nil
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// Metrics returns the metric history of every training run of a session.
func Metrics(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Query("session_id")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session_id query parameter required"})
			return
		}
		var resp gin.H
		err := deps.Store.View(sessionID, func(r *datatypes.SessionRecord) error {
			runs := make([]gin.H, 0, len(r.Steps.Train))
			for _, step := range r.Steps.Train {
				run := gin.H{
					"model":   step.Model,
					"params":  step.Params,
					"metrics": step.Metrics,
				}
				if step.ConfusionMatrix != nil {
					run["confusion_matrix"] = step.ConfusionMatrix
				}
				runs = append(runs, run)
			}
			resp = gin.H{"session_id": r.ID, "runs": runs}
			return nil
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
