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
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianAutoML/services/automl/charts"
	"github.com/AleutianAI/AleutianAutoML/services/automl/datatypes"
	"github.com/AleutianAI/AleutianAutoML/services/automl/observability"
	"github.com/AleutianAI/AleutianAutoML/services/automl/training"
)

// Graph renders one chart kind for a session as PNG. Chart parameters
// arrive as query strings: session_id always, column/x/y/model_key per
// kind.
func Graph(deps Deps, kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Query("session_id")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session_id query parameter required"})
			return
		}

		var png []byte
		err := deps.Store.View(sessionID, func(r *datatypes.SessionRecord) error {
			var err error
			png, err = renderChart(r, kind, c)
			return err
		})
		if err != nil {
			writeError(c, err)
			return
		}
		if observability.DefaultMetrics != nil {
			observability.DefaultMetrics.ChartsTotal.WithLabelValues(kind).Inc()
		}
		c.Data(http.StatusOK, "image/png", png)
	}
}

func renderChart(r *datatypes.SessionRecord, kind string, c *gin.Context) ([]byte, error) {
	switch kind {
	case "histogram":
		return charts.Histogram(r.Table, requiredColumn(c))
	case "bar":
		return charts.Bar(r.Table, requiredColumn(c))
	case "pie":
		return charts.Pie(r.Table, requiredColumn(c))
	case "boxplot":
		return charts.Boxplot(r.Table, splitColumns(c.Query("columns")))
	case "qq":
		return charts.QQ(r.Table, requiredColumn(c))
	case "scatter":
		return charts.Scatter(r.Table, c.Query("x"), c.Query("y"))
	case "line":
		return charts.Line(r.Table, c.Query("y"), c.Query("x"))
	case "heatmap":
		return charts.Heatmap(r.Table)
	case "roc_plot":
		step, err := latestTrainStep(r, c.Query("model_key"))
		if err != nil {
			return nil, err
		}
		return charts.ROC(step)
	case "compare-models":
		return charts.CompareModels(r.Steps.Train)
	case "shap-summary":
		spec, ok := training.Lookup(c.Query("model_key"))
		if !ok {
			return nil, fmt.Errorf("%w: %q", datatypes.ErrUnsupportedModel, c.Query("model_key"))
		}
		step, found := r.Steps.LastExplain(spec.Name)
		if !found {
			return nil, fmt.Errorf("%w: model %q has no explain run",
				datatypes.ErrExplanationUnavailable, spec.Name)
		}
		return charts.ShapSummary(&step)
	default:
		return nil, fmt.Errorf("%w: unknown chart kind %q", datatypes.ErrInvalidArgument, kind)
	}
}

func requiredColumn(c *gin.Context) string {
	return c.Query("column")
}

func splitColumns(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// latestTrainStep finds the most recent training run, optionally filtered
// by model key.
func latestTrainStep(r *datatypes.SessionRecord, modelKey string) (*datatypes.TrainStep, error) {
	if len(r.Steps.Train) == 0 {
		return nil, fmt.Errorf("%w: no models trained yet", datatypes.ErrInvalidArgument)
	}
	if modelKey == "" {
		return &r.Steps.Train[len(r.Steps.Train)-1], nil
	}
	spec, ok := training.Lookup(modelKey)
	if !ok {
		return nil, fmt.Errorf("%w: %q", datatypes.ErrUnsupportedModel, modelKey)
	}
	for i := len(r.Steps.Train) - 1; i >= 0; i-- {
		if r.Steps.Train[i].Model == spec.Name {
			return &r.Steps.Train[i], nil
		}
	}
	return nil, fmt.Errorf("%w: model %q has no training run",
		datatypes.ErrInvalidArgument, spec.Name)
}
