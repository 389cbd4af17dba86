// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package export turns a session's state and step history into shareable
// artifacts: a PDF report and a runnable Jupyter notebook.
package export

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/AleutianAI/AleutianAutoML/services/automl/datatypes"
)

const (
	pdfFont        = "Helvetica"
	corrColumnCap  = 3
	skewColumnCap  = 5
	tableCellWidth = 28.0
	tableCellH     = 7.0
)

// PDF renders a session report: dataset shape, EDA highlights, the
// transform history, and every training run with its metrics.
func PDF(rec *datatypes.SessionRecord) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("AutoML session report", false)
	pdf.AddPage()

	pdf.SetFont(pdfFont, "B", 18)
	pdf.CellFormat(0, 12, "AutoML Session Report", "", 1, "L", false, 0, "")
	pdf.SetFont(pdfFont, "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Dataset: %s", rec.Filename), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Session: %s", rec.ID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Created: %s", rec.CreatedAt.Format("2006-01-02 15:04:05 MST")), "", 1, "L", false, 0, "")
	if rec.Table != nil {
		pdf.CellFormat(0, 7, fmt.Sprintf("Shape: %d rows x %d columns", rec.Table.NumRows(), rec.Table.NumCols()), "", 1, "L", false, 0, "")
	}
	if rec.TargetColumn != "" {
		pdf.CellFormat(0, 7, fmt.Sprintf("Target column: %s", rec.TargetColumn), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	writeEDASection(pdf, rec)
	writeCleanSection(pdf, rec)
	writeTransformSection(pdf, rec)
	writeTrainSection(pdf, rec)
	writeExplainSection(pdf, rec)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func sectionTitle(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont(pdfFont, "B", 14)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.SetFont(pdfFont, "", 10)
}

func writeEDASection(pdf *fpdf.Fpdf, rec *datatypes.SessionRecord) {
	if rec.Table == nil {
		return
	}
	numeric := rec.Table.NumericColumns()
	if len(numeric) == 0 {
		return
	}
	sectionTitle(pdf, "Exploratory summary")

	corrCols := numeric
	if len(corrCols) > corrColumnCap {
		corrCols = corrCols[:corrColumnCap]
	}
	corr := rec.Table.Correlation(corrCols)
	pdf.CellFormat(0, 6, fmt.Sprintf("Correlation (first %d numeric columns):", len(corrCols)), "", 1, "L", false, 0, "")
	header := append([]string{""}, corrCols...)
	writeTableRow(pdf, header, true)
	for _, row := range corrCols {
		cells := []string{row}
		for _, col := range corrCols {
			cells = append(cells, fmt.Sprintf("%.2f", corr[row][col]))
		}
		writeTableRow(pdf, cells, false)
	}
	pdf.Ln(3)

	skewCols := numeric
	if len(skewCols) > skewColumnCap {
		skewCols = skewCols[:skewColumnCap]
	}
	skew := rec.Table.Skewness(skewCols)
	pdf.CellFormat(0, 6, "Skewness:", "", 1, "L", false, 0, "")
	for _, name := range skewCols {
		pdf.CellFormat(0, 6, fmt.Sprintf("  %s: %.2f", name, skew[name]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func writeCleanSection(pdf *fpdf.Fpdf, rec *datatypes.SessionRecord) {
	if len(rec.Steps.Clean) == 0 {
		return
	}
	sectionTitle(pdf, "Cleaning steps")
	for i, step := range rec.Steps.Clean {
		var parts []string
		for _, rule := range step.Strategies {
			parts = append(parts, fmt.Sprintf("%s=%s", rule.Column, rule.Strategy))
		}
		pdf.CellFormat(0, 6, fmt.Sprintf("%d. %s", i+1, strings.Join(parts, ", ")), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func writeTransformSection(pdf *fpdf.Fpdf, rec *datatypes.SessionRecord) {
	if len(rec.Steps.Transform) == 0 {
		return
	}
	sectionTitle(pdf, "Transform steps")
	for i, step := range rec.Steps.Transform {
		pdf.CellFormat(0, 6, fmt.Sprintf("%d.", i+1), "", 1, "L", false, 0, "")
		writeMethodMap(pdf, "encoding", step.Encoding)
		writeMethodMap(pdf, "scaling", step.Scaling)
		writeMethodMap(pdf, "skew fix", step.SkewFix)
		writeMethodMap(pdf, "balancing", step.Balancing)
		if len(step.DroppedColumns) > 0 {
			pdf.CellFormat(0, 6, fmt.Sprintf("  dropped: %s", strings.Join(step.DroppedColumns, ", ")), "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(4)
}

func writeMethodMap(pdf *fpdf.Fpdf, label string, methods map[string][]string) {
	keys := make([]string, 0, len(methods))
	for method := range methods {
		keys = append(keys, method)
	}
	sort.Strings(keys)
	for _, method := range keys {
		pdf.CellFormat(0, 6, fmt.Sprintf("  %s %s: %s", label, method, strings.Join(methods[method], ", ")), "", 1, "L", false, 0, "")
	}
}

func writeTrainSection(pdf *fpdf.Fpdf, rec *datatypes.SessionRecord) {
	if len(rec.Steps.Train) == 0 {
		return
	}
	sectionTitle(pdf, "Training runs")
	for i, step := range rec.Steps.Train {
		pdf.SetFont(pdfFont, "B", 11)
		pdf.CellFormat(0, 7, fmt.Sprintf("Run %d: %s", i+1, step.Model), "", 1, "L", false, 0, "")
		pdf.SetFont(pdfFont, "", 10)
		for _, name := range metricOrder(step.Metrics) {
			pdf.CellFormat(0, 6, fmt.Sprintf("  %s: %.4f", name, step.Metrics[name]), "", 1, "L", false, 0, "")
		}
		if len(step.ConfusionMatrix) > 0 {
			pdf.CellFormat(0, 6, "  Confusion matrix (rows true, cols predicted):", "", 1, "L", false, 0, "")
			for _, row := range step.ConfusionMatrix {
				cells := make([]string, len(row))
				for j, v := range row {
					cells[j] = fmt.Sprintf("%d", v)
				}
				writeTableRow(pdf, cells, false)
			}
		}
		pdf.Ln(2)
	}
	pdf.Ln(2)
}

func writeExplainSection(pdf *fpdf.Fpdf, rec *datatypes.SessionRecord) {
	if len(rec.Steps.Explain) == 0 {
		return
	}
	sectionTitle(pdf, "Feature importance")
	for _, step := range rec.Steps.Explain {
		pdf.SetFont(pdfFont, "B", 11)
		pdf.CellFormat(0, 7, step.Model, "", 1, "L", false, 0, "")
		pdf.SetFont(pdfFont, "", 10)
		for _, fi := range step.ShapValues {
			pdf.CellFormat(0, 6, fmt.Sprintf("  %s: %.6f", fi.Feature, fi.Importance), "", 1, "L", false, 0, "")
		}
		pdf.Ln(2)
	}
}

func writeTableRow(pdf *fpdf.Fpdf, cells []string, bold bool) {
	if bold {
		pdf.SetFont(pdfFont, "B", 9)
	} else {
		pdf.SetFont(pdfFont, "", 9)
	}
	for _, cell := range cells {
		pdf.CellFormat(tableCellWidth, tableCellH, cell, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont(pdfFont, "", 10)
}

// metricOrder yields a stable, readable metric ordering: the well-known
// names first, anything else appended alphabetically.
func metricOrder(metrics map[string]float64) []string {
	preferred := []string{"accuracy", "precision", "recall", "f1", "roc_auc", "rmse", "mae", "r2"}
	var out []string
	seen := map[string]bool{}
	for _, name := range preferred {
		if _, ok := metrics[name]; ok {
			out = append(out, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range metrics {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
