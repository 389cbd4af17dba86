// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package charts renders the exploratory and model-diagnostic plots as
// PNG images. Every renderer validates its column arguments and returns
// ErrInvalidArgument with the offending name rather than drawing an empty
// or misleading figure.
package charts

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/AleutianAI/AleutianAutoML/services/automl/datatypes"
	"github.com/AleutianAI/AleutianAutoML/services/automl/frame"
)

// Default canvas size for all figures.
const (
	chartWidth  = 7 * vg.Inch
	chartHeight = 5 * vg.Inch
)

// Plot palette, loosely matching the frontend's series colors.
var seriesColors = []color.Color{
	color.RGBA{R: 0x35, G: 0x78, B: 0xc1, A: 0xff},
	color.RGBA{R: 0xe8, G: 0x6a, B: 0x33, A: 0xff},
	color.RGBA{R: 0x43, G: 0x9d, B: 0x52, A: 0xff},
	color.RGBA{R: 0xc8, G: 0x3c, B: 0x3c, A: 0xff},
	color.RGBA{R: 0x8a, G: 0x62, B: 0xb8, A: 0xff},
	color.RGBA{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
	color.RGBA{R: 0xd6, G: 0x7f, B: 0xbe, A: 0xff},
	color.RGBA{R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff},
	color.RGBA{R: 0xb5, G: 0xbd, B: 0x36, A: 0xff},
	color.RGBA{R: 0x3e, G: 0xbe, B: 0xcd, A: 0xff},
}

func seriesColor(i int) color.Color {
	return seriesColors[i%len(seriesColors)]
}

// renderPNG finalizes a plot into PNG bytes.
func renderPNG(p *plot.Plot) ([]byte, error) {
	wt, err := p.WriterTo(chartWidth, chartHeight, "png")
	if err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}

// numericColumn fetches a column and its non-null float values, rejecting
// missing or non-numeric columns.
func numericColumn(tbl *frame.Frame, name string) (*frame.Column, []float64, error) {
	col, ok := tbl.Column(name)
	if !ok {
		return nil, nil, fmt.Errorf("%w: column %q not found", datatypes.ErrInvalidArgument, name)
	}
	if col.Kind() != frame.KindNumeric && col.Kind() != frame.KindBool {
		return nil, nil, fmt.Errorf("%w: column %q is %s, need numeric",
			datatypes.ErrInvalidArgument, name, col.Kind())
	}
	vals := col.Floats()
	if len(vals) == 0 {
		return nil, nil, fmt.Errorf("%w: column %q has no non-null values",
			datatypes.ErrInvalidArgument, name)
	}
	return col, vals, nil
}

func anyColumn(tbl *frame.Frame, name string) (*frame.Column, error) {
	col, ok := tbl.Column(name)
	if !ok {
		return nil, fmt.Errorf("%w: column %q not found", datatypes.ErrInvalidArgument, name)
	}
	return col, nil
}

// swatch is a legend thumbnail drawn as a filled square.
type swatch struct{ color.Color }

func (s swatch) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	poly := c.ClipPolygonXY(pts)
	c.FillPolygon(s.Color, poly)
}

// nominalTicks labels integer positions with category names.
type nominalTicks struct{ names []string }

func (t nominalTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	for i, name := range t.names {
		x := float64(i)
		if x < min || x > max {
			continue
		}
		ticks = append(ticks, plot.Tick{Value: x, Label: name})
	}
	return ticks
}
