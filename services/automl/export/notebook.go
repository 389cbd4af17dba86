// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package export

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/AleutianAI/AleutianAutoML/services/automl/datatypes"
)

// notebook is the nbformat v4 document shape.
type notebook struct {
	Cells         []cell         `json:"cells"`
	Metadata      map[string]any `json:"metadata"`
	NBFormat      int            `json:"nbformat"`
	NBFormatMinor int            `json:"nbformat_minor"`
}

type cell struct {
	CellType string         `json:"cell_type"`
	Metadata map[string]any `json:"metadata"`
	Source   []string       `json:"source"`
	// Outputs and ExecutionCount only apply to code cells.
	Outputs        []any `json:"outputs,omitempty"`
	ExecutionCount *int  `json:"execution_count"`
}

func markdownCell(text string) cell {
	return cell{CellType: "markdown", Metadata: map[string]any{}, Source: splitLines(text)}
}

func codeCell(code string) cell {
	return cell{
		CellType: "code",
		Metadata: map[string]any{},
		Source:   splitLines(code),
		Outputs:  []any{},
	}
}

// splitLines renders text as nbformat source: every line keeps its
// trailing newline except the last.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	out := make([]string, len(lines))
	for i, l := range lines {
		if i < len(lines)-1 {
			out[i] = l + "\n"
		} else {
			out[i] = l
		}
	}
	return out
}

// Notebook reproduces the session's pipeline as a Jupyter notebook: one
// code cell per recorded step, in the order the steps ran.
func Notebook(rec *datatypes.SessionRecord) ([]byte, error) {
	nb := notebook{
		Metadata: map[string]any{
			"kernelspec": map[string]any{
				"display_name": "Python 3",
				"language":     "python",
				"name":         "python3",
			},
			"language_info": map[string]any{"name": "python", "version": "3.11"},
		},
		NBFormat:      4,
		NBFormatMinor: 5,
	}

	nb.Cells = append(nb.Cells,
		markdownCell(fmt.Sprintf("# AutoML pipeline: %s\n\nGenerated from session `%s`.", rec.Filename, rec.ID)),
		codeCell(importsSource(rec)),
		codeCell(fmt.Sprintf("df = pd.read_csv(%q)\ndf.head()", rec.Filename)),
	)

	for _, step := range rec.Steps.Clean {
		nb.Cells = append(nb.Cells, codeCell(cleanSource(step)))
	}
	for _, step := range rec.Steps.Transform {
		nb.Cells = append(nb.Cells, codeCell(transformSource(step)))
	}
	for _, step := range rec.Steps.Train {
		nb.Cells = append(nb.Cells, markdownCell(fmt.Sprintf("## Train `%s`", step.Model)))
		nb.Cells = append(nb.Cells, codeCell(trainSource(rec, step)))
	}

	return json.MarshalIndent(nb, "", " ")
}

func importsSource(rec *datatypes.SessionRecord) string {
	var b strings.Builder
	b.WriteString("import pandas as pd\nimport numpy as np\n")
	if len(rec.Steps.Transform) > 0 {
		b.WriteString("from sklearn.preprocessing import LabelEncoder, StandardScaler, MinMaxScaler\n")
	}
	if len(rec.Steps.Train) > 0 {
		b.WriteString("from sklearn.model_selection import train_test_split\n")
		b.WriteString("from sklearn.metrics import accuracy_score, precision_score, recall_score, f1_score\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func cleanSource(step datatypes.CleanStep) string {
	var b strings.Builder
	for _, rule := range step.Strategies {
		switch rule.Strategy {
		case "mean":
			fmt.Fprintf(&b, "df[%q] = df[%q].fillna(df[%q].mean())\n", rule.Column, rule.Column, rule.Column)
		case "median":
			fmt.Fprintf(&b, "df[%q] = df[%q].fillna(df[%q].median())\n", rule.Column, rule.Column, rule.Column)
		case "mode":
			fmt.Fprintf(&b, "df[%q] = df[%q].fillna(df[%q].mode()[0])\n", rule.Column, rule.Column, rule.Column)
		case "drop":
			fmt.Fprintf(&b, "df = df.dropna(subset=[%q])\n", rule.Column)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func transformSource(step datatypes.TransformStep) string {
	var b strings.Builder
	if len(step.DroppedColumns) > 0 {
		cols, _ := json.Marshal(step.DroppedColumns)
		fmt.Fprintf(&b, "df = df.drop(columns=%s, errors='ignore')\n", cols)
	}
	for _, method := range sortedKeys(step.Encoding) {
		for _, col := range step.Encoding[method] {
			switch method {
			case "onehot":
				fmt.Fprintf(&b, "df = pd.get_dummies(df, columns=[%q], drop_first=True)\n", col)
			case "binary":
				fmt.Fprintf(&b, "df[%q] = (df[%q] == 'yes').astype(int)\n", col, col)
			default:
				fmt.Fprintf(&b, "df[%q] = LabelEncoder().fit_transform(df[%q].astype(str))\n", col, col)
			}
		}
	}
	for _, method := range sortedKeys(step.SkewFix) {
		for _, col := range step.SkewFix[method] {
			switch method {
			case "log":
				fmt.Fprintf(&b, "df[%q] = np.log1p(df[%q].clip(lower=0))\n", col, col)
			case "sqrt":
				fmt.Fprintf(&b, "df[%q] = np.sqrt(df[%q].clip(lower=0))\n", col, col)
			default:
				fmt.Fprintf(&b, "from scipy import stats\ndf[%q], _ = stats.%s(df[%q])\n", col, method, col)
			}
		}
	}
	for _, method := range sortedKeys(step.Scaling) {
		cols, _ := json.Marshal(step.Scaling[method])
		scaler := map[string]string{
			"standard": "StandardScaler()",
			"minmax":   "MinMaxScaler()",
			"robust":   "RobustScaler()",
			"maxabs":   "MaxAbsScaler()",
		}[method]
		if scaler == "" {
			scaler = "StandardScaler()"
		}
		fmt.Fprintf(&b, "df[%s] = %s.fit_transform(df[%s])\n", cols, scaler, cols)
	}
	for _, method := range sortedKeys(step.Balancing) {
		switch method {
		case "smote":
			b.WriteString("from imblearn.over_sampling import SMOTE\nX, y = SMOTE(random_state=42).fit_resample(X, y)\n")
		case "undersample":
			b.WriteString("from imblearn.under_sampling import RandomUnderSampler\nX, y = RandomUnderSampler(random_state=42).fit_resample(X, y)\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func trainSource(rec *datatypes.SessionRecord, step datatypes.TrainStep) string {
	var b strings.Builder
	target := rec.TargetColumn
	fmt.Fprintf(&b, "X = df.drop(columns=[%q])\ny = df[%q]\n", target, target)
	b.WriteString("X_train, X_test, y_train, y_test = train_test_split(X, y, test_size=0.2, random_state=42, stratify=y)\n")
	params, _ := json.Marshal(step.Params)
	fmt.Fprintf(&b, "model = %s(**%s)\n", step.Model, params)
	b.WriteString("model.fit(X_train, y_train)\ny_pred = model.predict(X_test)\n")
	if len(step.ConfusionMatrix) > 0 {
		b.WriteString("print('accuracy', accuracy_score(y_test, y_pred))")
	} else {
		b.WriteString("from sklearn.metrics import mean_squared_error, r2_score\nprint('r2', r2_score(y_test, y_pred))")
	}
	return b.String()
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
