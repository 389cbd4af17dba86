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
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/AleutianAI/AleutianAutoML/services/automl/datatypes"
	"github.com/AleutianAI/AleutianAutoML/services/automl/frame"
)

// Pie renders the share of each value of a column. Low-frequency values
// past the slice cap are merged into an "other" slice.
func Pie(tbl *frame.Frame, column string) ([]byte, error) {
	col, err := anyColumn(tbl, column)
	if err != nil {
		return nil, err
	}
	labels, counts := rankedCounts(col, maxPieSlices)
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: column %q has no non-null values",
			datatypes.ErrInvalidArgument, column)
	}
	total := float64(col.Len() - col.NullCount())
	var shown float64
	for _, c := range counts {
		shown += c
	}
	if rest := total - shown; rest > 0 {
		labels = append(labels, "other")
		counts = append(counts, rest)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Share of %s", column)
	p.HideAxes()
	p.Add(&pieWedges{values: counts, total: total})
	for i, label := range labels {
		pct := 100 * counts[i] / total
		p.Legend.Add(fmt.Sprintf("%s (%.1f%%)", label, pct), swatch{seriesColor(i)})
	}
	p.Legend.Top = true

	return renderPNG(p)
}

// pieWedges draws filled circle sectors; gonum/plot has no pie plotter of
// its own. Slices start at twelve o'clock and advance clockwise.
type pieWedges struct {
	values []float64
	total  float64
}

// Plot implements plot.Plotter.
func (w *pieWedges) Plot(c draw.Canvas, _ *plot.Plot) {
	center := vg.Point{X: (c.Min.X + c.Max.X) / 2, Y: (c.Min.Y + c.Max.Y) / 2}
	radius := (c.Max.X - c.Min.X) / 2
	if h := (c.Max.Y - c.Min.Y) / 2; h < radius {
		radius = h
	}
	radius *= 0.9

	start := math.Pi / 2
	for i, v := range w.values {
		delta := -2 * math.Pi * v / w.total
		var path vg.Path
		path.Move(center)
		path.Arc(center, radius, start, delta)
		path.Close()
		c.SetColor(seriesColor(i))
		c.Fill(path)
		start += delta
	}
}

// DataRange implements plot.DataRanger; the wedges ignore data space.
func (w *pieWedges) DataRange() (xmin, xmax, ymin, ymax float64) {
	return 0, 1, 0, 1
}
