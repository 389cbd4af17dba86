// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package assistant

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AleutianAI/AleutianAutoML/services/automl/datatypes"
	"github.com/AleutianAI/AleutianAutoML/services/automl/training"
)

// corrPreviewLimit caps how many numeric columns the correlation block in
// the prompt covers; wide tables would otherwise dominate the context.
const corrPreviewLimit = 8

// BuildSystemPrompt summarizes the session's table and constrains the
// model to the operation vocabulary the pipeline actually accepts, so
// suggestions stay executable.
func BuildSystemPrompt(rec *datatypes.SessionRecord, page string) string {
	var b strings.Builder
	b.WriteString("You are a data science assistant embedded in an AutoML pipeline. ")
	b.WriteString("Answer with concrete, actionable suggestions the user can apply on the current page. ")
	fmt.Fprintf(&b, "The user is on the %q page.\n\n", page)

	tbl := rec.Table
	if tbl != nil {
		fmt.Fprintf(&b, "Dataset %q: %d rows x %d columns.\n", rec.Filename, tbl.NumRows(), tbl.NumCols())
		b.WriteString("Columns (name: dtype, nulls):\n")
		for _, name := range tbl.Names() {
			col, _ := tbl.Column(name)
			fmt.Fprintf(&b, "  - %s: %s, %d nulls\n", name, col.Dtype(), col.NullCount())
		}
		numeric := tbl.NumericColumns()
		if len(numeric) > 1 {
			preview := numeric
			if len(preview) > corrPreviewLimit {
				preview = preview[:corrPreviewLimit]
			}
			if corr, err := json.Marshal(tbl.Correlation(preview)); err == nil {
				fmt.Fprintf(&b, "Correlation (rounded): %s\n", corr)
			}
			if skew, err := json.Marshal(tbl.Skewness(numeric)); err == nil {
				fmt.Fprintf(&b, "Skewness: %s\n", skew)
			}
		}
		if rec.TargetColumn != "" {
			fmt.Fprintf(&b, "Target column: %q.", rec.TargetColumn)
			if col, ok := tbl.Column(rec.TargetColumn); ok {
				if counts, err := json.Marshal(col.ValueCounts()); err == nil {
					fmt.Fprintf(&b, " Class balance: %s", counts)
				}
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\nOnly suggest operations from this vocabulary:\n")
	b.WriteString("  - clean strategies: mean, median, mode, drop\n")
	b.WriteString("  - encodings: label, ordinal, onehot, binary\n")
	b.WriteString("  - scalers: standard, minmax, robust, maxabs\n")
	b.WriteString("  - skew fixes: log, sqrt, boxcox, yeojohnson\n")
	b.WriteString("  - balancers: smote, undersample\n")
	fmt.Fprintf(&b, "  - models: %s\n", strings.Join(training.Keys(), ", "))
	if space, err := json.Marshal(training.HyperparameterSpace()); err == nil {
		fmt.Fprintf(&b, "Hyperparameter space: %s\n", space)
	}
	b.WriteString("Keep answers under 300 words.")
	return b.String()
}

// BuildUserPrompt combines the user's question with the step history, so
// the model sees what has already been applied to the table.
func BuildUserPrompt(rec *datatypes.SessionRecord, question string) string {
	var b strings.Builder
	b.WriteString(question)
	if history, err := json.Marshal(rec.Steps); err == nil && string(history) != "{}" {
		fmt.Fprintf(&b, "\n\nSteps already applied to this dataset: %s", history)
	}
	return b.String()
}
