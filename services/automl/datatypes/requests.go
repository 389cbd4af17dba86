// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FillStrategies is an ordered column->strategy mapping.
//
// JSON objects lose ordering under map decoding, but strategy order is
// significant (a drop rule shrinks the table for the rules after it), so
// this type decodes the object token stream and keeps caller order.
type FillStrategies []FillRule

// UnmarshalJSON decodes either a JSON object (preserving key order) or a
// list of {column, strategy} pairs.
func (f *FillStrategies) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var rules []FillRule
		if err := json.Unmarshal(trimmed, &rules); err != nil {
			return err
		}
		*f = rules
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("fill_strategies: expected object or list, got %v", tok)
	}

	var rules []FillRule
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		val, ok := valTok.(string)
		if !ok {
			return fmt.Errorf("fill_strategies: strategy for column %q must be a string", key)
		}
		rules = append(rules, FillRule{Column: key, Strategy: val})
	}
	*f = rules
	return nil
}

// MarshalJSON renders the original object shape, in rule order.
func (f FillStrategies) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, rule := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(rule.Column)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(rule.Strategy)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// CleanRequest drives the cleaning stage.
type CleanRequest struct {
	SessionID      string         `json:"session_id" binding:"required"`
	TargetColumn   string         `json:"target_column"`
	FillStrategies FillStrategies `json:"fill_strategies" binding:"required"`
}

// EDARequest drives the read-only EDA stage.
type EDARequest struct {
	SessionID    string `json:"session_id" binding:"required"`
	TargetColumn string `json:"target_column"`
}

// TransformRequest drives the transform stage. Every concern is optional;
// "none" or an absent method skips it.
type TransformRequest struct {
	SessionID        string   `json:"session_id" binding:"required"`
	Encoding         string   `json:"encoding"`
	EncodingColumns  []string `json:"encoding_columns"`
	Scaling          string   `json:"scaling"`
	ScalingColumns   []string `json:"scaling_columns"`
	Balancing        string   `json:"balancing"`
	BalancingColumns []string `json:"balancing_columns"`
	Skewness         string   `json:"skewness"`
	SkewnessColumns  []string `json:"skewness_columns"`
	DropColumns      []string `json:"drop_columns"`
}

// TrainRequest drives the training stage. Pointer fields distinguish
// "absent" from zero so defaults apply only when the caller omitted them.
type TrainRequest struct {
	SessionID       string         `json:"session_id" binding:"required"`
	ModelKey        string         `json:"model_key" binding:"required"`
	Hyperparameters map[string]any `json:"hyperparameters"`
	TestSize        *float64       `json:"test_size" binding:"omitempty,gt=0,lt=1"`
	RandomState     *int64         `json:"random_state"`
	Stratify        *bool          `json:"stratify"`
}

// ExplainRequest drives the explain stage.
type ExplainRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	ModelKey  string `json:"model_key" binding:"required"`
}

// SessionRequest carries just a session id.
type SessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// SuggestRequest drives the assistant endpoint.
type SuggestRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Question  string `json:"question" binding:"required"`
	Page      string `json:"page" binding:"required"`
}

// ColumnSchema describes one uploaded column for the client.
type ColumnSchema struct {
	Column       string `json:"column"`
	Dtype        string `json:"dtype"`
	InferredType string `json:"inferred_type"`
	NullCount    int    `json:"null_count"`
}
