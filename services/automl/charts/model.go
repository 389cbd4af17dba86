// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package charts

import (
	"fmt"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/AleutianAI/AleutianAutoML/services/automl/datatypes"
	"github.com/AleutianAI/AleutianAutoML/services/automl/frame"
	"github.com/AleutianAI/AleutianAutoML/services/automl/training"
)

const maxShapFeatures = 15

// Heatmap renders the pairwise correlation matrix of the numeric columns.
func Heatmap(tbl *frame.Frame) ([]byte, error) {
	names := tbl.NumericColumns()
	if len(names) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 numeric columns for a heatmap",
			datatypes.ErrInvalidArgument)
	}
	corr := tbl.Correlation(names)

	grid := corrGrid{names: names, cells: make([][]float64, len(names))}
	for r, row := range names {
		grid.cells[r] = make([]float64, len(names))
		for c, col := range names {
			grid.cells[r][c] = corr[row][col]
		}
	}

	p := plot.New()
	p.Title.Text = "Correlation matrix"
	cm := moreland.SmoothBlueRed()
	cm.SetMin(-1)
	cm.SetMax(1)
	heat := plotter.NewHeatMap(grid, cm.Palette(255))
	heat.Min, heat.Max = -1, 1
	p.Add(heat)
	p.X.Tick.Marker = nominalTicks{names: names}
	p.Y.Tick.Marker = nominalTicks{names: names}
	p.X.Tick.Label.Rotation = -0.6
	p.X.Tick.Label.XAlign = -0.3

	return renderPNG(p)
}

// corrGrid adapts a square correlation matrix to plotter.GridXYZ.
type corrGrid struct {
	names []string
	cells [][]float64
}

func (g corrGrid) Dims() (int, int)   { return len(g.names), len(g.names) }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }
func (g corrGrid) Z(c, r int) float64 { return g.cells[r][c] }

// ROC renders the receiver operating characteristic of the latest training
// run for the given model key, from its retained test split. Requires a
// binary classification run.
func ROC(step *datatypes.TrainStep) ([]byte, error) {
	if step.TestSplit == nil {
		return nil, fmt.Errorf("%w: train run kept no test split", datatypes.ErrInvalidArgument)
	}
	yTrue, err := splitColumn(step.TestSplit, training.YTrueColumn)
	if err != nil {
		return nil, err
	}
	yScore, err := splitColumn(step.TestSplit, training.YScoreColumn)
	if err != nil {
		return nil, err
	}
	if !isBinary(yTrue) {
		return nil, fmt.Errorf("%w: ROC requires a binary target", datatypes.ErrInvalidArgument)
	}

	fpr, tpr := rocCurve(yTrue, yScore)
	pts := make(plotter.XYs, len(fpr))
	for i := range fpr {
		pts[i] = plotter.XY{X: fpr[i], Y: tpr[i]}
	}

	p := plot.New()
	auc := step.Metrics["roc_auc"]
	p.Title.Text = fmt.Sprintf("ROC curve, %s (AUC %.4f)", step.Model, auc)
	p.X.Label.Text = "false positive rate"
	p.Y.Label.Text = "true positive rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	curve, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	curve.Color = seriesColor(0)
	curve.Width = vg.Points(1.5)
	chance, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return nil, err
	}
	chance.Color = seriesColor(7)
	chance.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(curve, chance)
	p.Legend.Add(step.Model, curve)
	p.Legend.Add("chance", chance)

	return renderPNG(p)
}

func splitColumn(tbl *frame.Frame, name string) ([]float64, error) {
	col, ok := tbl.Column(name)
	if !ok {
		return nil, fmt.Errorf("%w: test split lacks column %q", datatypes.ErrInvalidArgument, name)
	}
	return col.Floats(), nil
}

func isBinary(y []float64) bool {
	seen := map[float64]bool{}
	for _, v := range y {
		seen[v] = true
		if len(seen) > 2 {
			return false
		}
	}
	return len(seen) == 2
}

// rocCurve sweeps the score thresholds, descending, and returns one
// (fpr, tpr) point per distinct score plus the (0,0) origin.
func rocCurve(yTrue, yScore []float64) (fpr, tpr []float64) {
	idx := make([]int, len(yScore))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return yScore[idx[a]] > yScore[idx[b]] })

	var pos, neg float64
	for _, v := range yTrue {
		if v == 1 {
			pos++
		} else {
			neg++
		}
	}
	fpr = append(fpr, 0)
	tpr = append(tpr, 0)
	var tp, fp float64
	for k, i := range idx {
		if yTrue[i] == 1 {
			tp++
		} else {
			fp++
		}
		if k+1 < len(idx) && yScore[idx[k+1]] == yScore[i] {
			continue
		}
		if pos > 0 && neg > 0 {
			fpr = append(fpr, fp/neg)
			tpr = append(tpr, tp/pos)
		}
	}
	return fpr, tpr
}

// CompareModels renders one ROC-AUC bar per trained model, latest run of
// each model key.
func CompareModels(steps []datatypes.TrainStep) ([]byte, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: no models trained yet", datatypes.ErrInvalidArgument)
	}
	latest := map[string]float64{}
	var order []string
	for _, s := range steps {
		if _, seen := latest[s.Model]; !seen {
			order = append(order, s.Model)
		}
		latest[s.Model] = s.Metrics["roc_auc"]
	}

	p := plot.New()
	p.Title.Text = "Model comparison (ROC-AUC)"
	p.Y.Label.Text = "ROC-AUC"
	p.Y.Min, p.Y.Max = 0, 1

	vals := make(plotter.Values, len(order))
	for i, m := range order {
		vals[i] = latest[m]
	}
	bars, err := plotter.NewBarChart(vals, vg.Points(30))
	if err != nil {
		return nil, err
	}
	bars.Color = seriesColor(0)
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(order...)

	return renderPNG(p)
}

// ShapSummary renders the ranked feature importances of an explain run as
// horizontal bars, largest on top.
func ShapSummary(step *datatypes.ExplainStep) ([]byte, error) {
	if len(step.ShapValues) == 0 {
		return nil, fmt.Errorf("%w: explanation holds no features", datatypes.ErrInvalidArgument)
	}
	ranked := step.ShapValues
	if len(ranked) > maxShapFeatures {
		ranked = ranked[:maxShapFeatures]
	}

	// Reverse so the largest bar draws at the top of the axis.
	names := make([]string, len(ranked))
	vals := make(plotter.Values, len(ranked))
	for i, fi := range ranked {
		j := len(ranked) - 1 - i
		names[j] = fi.Feature
		vals[j] = fi.Importance
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Feature importance, %s", step.Model)
	p.X.Label.Text = "mean |contribution|"

	bars, err := plotter.NewBarChart(vals, vg.Points(14))
	if err != nil {
		return nil, err
	}
	bars.Horizontal = true
	bars.Color = seriesColor(4)
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalY(names...)

	return renderPNG(p)
}
