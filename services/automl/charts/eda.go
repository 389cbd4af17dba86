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

	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/AleutianAI/AleutianAutoML/services/automl/datatypes"
	"github.com/AleutianAI/AleutianAutoML/services/automl/frame"
)

const (
	histogramBins = 16
	maxPieSlices  = 10
	maxBarBars    = 20
)

// Histogram renders the value distribution of a numeric column with mean
// and median markers; the skewness goes in the title.
func Histogram(tbl *frame.Frame, column string) ([]byte, error) {
	col, vals, err := numericColumn(tbl, column)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Distribution of %s (skew %.2f)", column, col.Skew())
	p.X.Label.Text = column
	p.Y.Label.Text = "count"

	hist, err := plotter.NewHist(plotter.Values(vals), histogramBins)
	if err != nil {
		return nil, fmt.Errorf("histogram %q: %w", column, err)
	}
	hist.FillColor = seriesColor(0)
	p.Add(hist)

	peak := binPeak(vals, histogramBins)
	mean, median := col.Mean(), col.Median()
	meanLine, err := plotter.NewLine(plotter.XYs{{X: mean, Y: 0}, {X: mean, Y: peak}})
	if err != nil {
		return nil, err
	}
	meanLine.Color = seriesColor(3)
	meanLine.Width = vg.Points(1.5)
	medianLine, err := plotter.NewLine(plotter.XYs{{X: median, Y: 0}, {X: median, Y: peak}})
	if err != nil {
		return nil, err
	}
	medianLine.Color = seriesColor(2)
	medianLine.Width = vg.Points(1.5)
	medianLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(meanLine, medianLine)
	p.Legend.Add(fmt.Sprintf("mean %.2f", mean), meanLine)
	p.Legend.Add(fmt.Sprintf("median %.2f", median), medianLine)
	p.Legend.Top = true

	return renderPNG(p)
}

// binPeak is the tallest equal-width bin count, used to size marker lines.
func binPeak(vals []float64, bins int) float64 {
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		return float64(len(vals))
	}
	counts := make([]int, bins)
	width := (hi - lo) / float64(bins)
	for _, v := range vals {
		b := int((v - lo) / width)
		if b >= bins {
			b = bins - 1
		}
		counts[b]++
	}
	peak := 0
	for _, c := range counts {
		if c > peak {
			peak = c
		}
	}
	return float64(peak)
}

// Bar renders value counts of a column, most frequent first.
func Bar(tbl *frame.Frame, column string) ([]byte, error) {
	col, err := anyColumn(tbl, column)
	if err != nil {
		return nil, err
	}
	labels, counts := rankedCounts(col, maxBarBars)
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: column %q has no non-null values",
			datatypes.ErrInvalidArgument, column)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Value counts of %s", column)
	p.Y.Label.Text = "count"

	bars, err := plotter.NewBarChart(plotter.Values(counts), vg.Points(24))
	if err != nil {
		return nil, fmt.Errorf("bar chart %q: %w", column, err)
	}
	bars.Color = seriesColor(0)
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(labels...)

	return renderPNG(p)
}

// rankedCounts returns value counts in descending order, ties lexical,
// truncated to limit.
func rankedCounts(col *frame.Column, limit int) ([]string, []float64) {
	counts := col.ValueCounts()
	labels := make([]string, 0, len(counts))
	for v := range counts {
		labels = append(labels, v)
	}
	sort.Slice(labels, func(a, b int) bool {
		if counts[labels[a]] != counts[labels[b]] {
			return counts[labels[a]] > counts[labels[b]]
		}
		return labels[a] < labels[b]
	})
	if len(labels) > limit {
		labels = labels[:limit]
	}
	vals := make([]float64, len(labels))
	for i, l := range labels {
		vals[i] = float64(counts[l])
	}
	return labels, vals
}

// Boxplot renders one box per requested numeric column. With no columns
// given it covers every numeric column.
func Boxplot(tbl *frame.Frame, columns []string) ([]byte, error) {
	if len(columns) == 0 {
		columns = tbl.NumericColumns()
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: no numeric columns to plot", datatypes.ErrInvalidArgument)
	}

	p := plot.New()
	p.Title.Text = "Feature spread"
	p.Y.Label.Text = "value"

	for i, name := range columns {
		_, vals, err := numericColumn(tbl, name)
		if err != nil {
			return nil, err
		}
		box, err := plotter.NewBoxPlot(vg.Points(28), float64(i), plotter.Values(vals))
		if err != nil {
			return nil, fmt.Errorf("boxplot %q: %w", name, err)
		}
		p.Add(box)
	}
	p.NominalX(columns...)

	return renderPNG(p)
}

// QQ renders sample quantiles of a numeric column against the standard
// normal, with the identity reference line.
func QQ(tbl *frame.Frame, column string) ([]byte, error) {
	col, vals, err := numericColumn(tbl, column)
	if err != nil {
		return nil, err
	}
	std := col.Std()
	if std == 0 {
		return nil, fmt.Errorf("%w: column %q is constant", datatypes.ErrInvalidArgument, column)
	}
	mean := col.Mean()

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	pts := make(plotter.XYs, len(sorted))
	for i, v := range sorted {
		q := (float64(i) + 0.5) / float64(len(sorted))
		pts[i] = plotter.XY{X: distuv.UnitNormal.Quantile(q), Y: (v - mean) / std}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Q-Q plot of %s", column)
	p.X.Label.Text = "theoretical quantiles"
	p.Y.Label.Text = "standardized sample quantiles"

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	scatter.GlyphStyle.Color = seriesColor(0)
	scatter.GlyphStyle.Radius = vg.Points(2)

	lo, hi := pts[0].X, pts[len(pts)-1].X
	ref, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return nil, err
	}
	ref.Color = seriesColor(3)
	ref.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(scatter, ref)

	return renderPNG(p)
}

// Scatter renders one numeric column against another, Pearson r in the
// title. Rows where either side is null are skipped.
func Scatter(tbl *frame.Frame, xColumn, yColumn string) ([]byte, error) {
	xCol, _, err := numericColumn(tbl, xColumn)
	if err != nil {
		return nil, err
	}
	yCol, _, err := numericColumn(tbl, yColumn)
	if err != nil {
		return nil, err
	}

	var pts plotter.XYs
	for i := 0; i < xCol.Len(); i++ {
		x, okX := xCol.Float(i)
		y, okY := yCol.Float(i)
		if okX && okY {
			pts = append(pts, plotter.XY{X: x, Y: y})
		}
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("%w: no complete rows across %q and %q",
			datatypes.ErrInvalidArgument, xColumn, yColumn)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s vs %s (r %.2f)", yColumn, xColumn, tbl.Pearson(xColumn, yColumn))
	p.X.Label.Text = xColumn
	p.Y.Label.Text = yColumn

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	scatter.GlyphStyle.Color = seriesColor(0)
	scatter.GlyphStyle.Radius = vg.Points(2)
	p.Add(scatter)

	return renderPNG(p)
}

// Line renders a numeric column over the row index, or over an x column
// when one is named.
func Line(tbl *frame.Frame, yColumn, xColumn string) ([]byte, error) {
	yCol, _, err := numericColumn(tbl, yColumn)
	if err != nil {
		return nil, err
	}

	var pts plotter.XYs
	if xColumn == "" {
		for i := 0; i < yCol.Len(); i++ {
			if y, ok := yCol.Float(i); ok {
				pts = append(pts, plotter.XY{X: float64(i), Y: y})
			}
		}
	} else {
		xCol, _, err := numericColumn(tbl, xColumn)
		if err != nil {
			return nil, err
		}
		for i := 0; i < yCol.Len(); i++ {
			x, okX := xCol.Float(i)
			y, okY := yCol.Float(i)
			if okX && okY {
				pts = append(pts, plotter.XY{X: x, Y: y})
			}
		}
		sort.Slice(pts, func(a, b int) bool { return pts[a].X < pts[b].X })
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("%w: column %q has no plottable rows",
			datatypes.ErrInvalidArgument, yColumn)
	}

	p := plot.New()
	p.Title.Text = yColumn
	p.Y.Label.Text = yColumn
	if xColumn != "" {
		p.X.Label.Text = xColumn
	} else {
		p.X.Label.Text = "row"
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Color = seriesColor(0)
	p.Add(line)

	return renderPNG(p)
}
