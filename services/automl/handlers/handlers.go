// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the HTTP surface of the AutoML pipeline
// service. Handlers stay lean: they bind and validate the request, call
// into the pipeline packages, and map the error taxonomy onto status
// codes.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianAutoML/services/automl/assistant"
	"github.com/AleutianAI/AleutianAutoML/services/automl/datatypes"
	"github.com/AleutianAI/AleutianAutoML/services/automl/jobs"
	"github.com/AleutianAI/AleutianAutoML/services/automl/store"
)

// Deps bundles the shared state handlers close over. Assistant is nil
// when no Groq credential was configured; Jobs is always non-nil (an
// in-memory store when no DSN is set).
type Deps struct {
	Store     *store.Store
	Jobs      jobs.Store
	Assistant *assistant.Client
}

// HealthCheck reports liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeError maps the error taxonomy onto HTTP status codes, preserving
// the wrapped diagnostic message.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, datatypes.ErrSessionNotFound),
		errors.Is(err, datatypes.ErrExplanationUnavailable):
		status = http.StatusNotFound
	case errors.Is(err, datatypes.ErrInvalidArgument),
		errors.Is(err, datatypes.ErrUnsupportedModel):
		status = http.StatusBadRequest
	case errors.Is(err, datatypes.ErrAssistantUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// recordJob mirrors the session's state into the job-record store. A
// failed write is logged and dropped; it never fails the pipeline call.
func recordJob(ctx context.Context, deps Deps, rec *datatypes.SessionRecord, stage string) {
	if deps.Jobs == nil {
		return
	}
	steps, err := json.Marshal(rec.Steps)
	if err != nil {
		slog.Warn("failed to serialize steps for job record", "error", err)
		return
	}
	job := jobs.Record{
		SessionID: rec.ID,
		UserID:    rec.UserID,
		Filename:  rec.Filename,
		Target:    rec.TargetColumn,
		Stage:     stage,
		Steps:     steps,
	}
	if rec.Table != nil {
		job.Rows = rec.Table.NumRows()
		job.Cols = rec.Table.NumCols()
	}
	if n := len(rec.Steps.Train); n > 0 {
		last := rec.Steps.Train[n-1]
		job.Model = last.Model
		job.ModelParams = last.Params
		job.Metrics = last.Metrics
	}
	if err := deps.Jobs.Upsert(ctx, job); err != nil {
		slog.Warn("job record write failed", "session_id", rec.ID, "stage", stage, "error", err)
	}
}
