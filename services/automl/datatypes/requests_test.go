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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFillStrategies_ObjectPreservesOrder(t *testing.T) {
	raw := `{"zeta":"mean","alpha":"drop","mid":"mode"}`
	var f FillStrategies
	require.NoError(t, json.Unmarshal([]byte(raw), &f))

	want := FillStrategies{
		{Column: "zeta", Strategy: "mean"},
		{Column: "alpha", Strategy: "drop"},
		{Column: "mid", Strategy: "mode"},
	}
	assert.Equal(t, want, f)
}

func TestFillStrategies_ListForm(t *testing.T) {
	raw := `[{"column":"a","strategy":"median"},{"column":"b","strategy":"drop"}]`
	var f FillStrategies
	require.NoError(t, json.Unmarshal([]byte(raw), &f))
	require.Len(t, f, 2)
	assert.Equal(t, "a", f[0].Column)
	assert.Equal(t, "drop", f[1].Strategy)
}

func TestFillStrategies_MarshalKeepsObjectShape(t *testing.T) {
	f := FillStrategies{
		{Column: "b", Strategy: "mean"},
		{Column: "a", Strategy: "mode"},
	}
	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Equal(t, `{"b":"mean","a":"mode"}`, string(out))
}

func TestFillStrategies_RoundTrip(t *testing.T) {
	raw := `{"c":"mean","a":"drop"}`
	var f FillStrategies
	require.NoError(t, json.Unmarshal([]byte(raw), &f))
	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Equal(t, raw, string(out))
}

func TestFillStrategies_NonStringStrategyRejected(t *testing.T) {
	var f FillStrategies
	err := json.Unmarshal([]byte(`{"a":3}`), &f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"a"`)
}

func TestFillStrategies_ScalarRejected(t *testing.T) {
	var f FillStrategies
	assert.Error(t, json.Unmarshal([]byte(`"mean"`), &f))
}

func TestCleanRequest_Decode(t *testing.T) {
	raw := `{"session_id":"s1","fill_strategies":{"age":"mean"}}`
	var req CleanRequest
	require.NoError(t, json.Unmarshal([]byte(raw), &req))
	assert.Equal(t, "s1", req.SessionID)
	require.Len(t, req.FillStrategies, 1)
	assert.Equal(t, FillRule{Column: "age", Strategy: "mean"}, req.FillStrategies[0])
}

func TestResolveTarget_StoredValueWins(t *testing.T) {
	rec := &SessionRecord{TargetColumn: "label"}
	assert.Equal(t, "label", rec.ResolveTarget("other"))
	assert.Equal(t, "label", rec.TargetColumn)
}

func TestResolveTarget_EmptyWhenUnresolvable(t *testing.T) {
	rec := &SessionRecord{}
	assert.Equal(t, "", rec.ResolveTarget("missing"))
}

func TestLastExplain(t *testing.T) {
	steps := Steps{Explain: []ExplainStep{
		{Model: "SVC"},
		{Model: "LogisticRegression", Params: map[string]any{"c": 1.0}},
		{Model: "SVC", Params: map[string]any{"c": 2.0}},
	}}

	step, ok := steps.LastExplain("SVC")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"c": 2.0}, step.Params)

	_, ok = steps.LastExplain("GaussianNB")
	assert.False(t, ok)
}
