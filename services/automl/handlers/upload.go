// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianAutoML/services/automl/datatypes"
	"github.com/AleutianAI/AleutianAutoML/services/automl/frame"
	"github.com/AleutianAI/AleutianAutoML/services/automl/observability"
)

const previewRows = 5

// maxUploadBytes caps dataset uploads at 50 MiB.
const maxUploadBytes = 50 << 20

// UploadFile ingests a CSV or XLSX dataset and opens a new session.
func UploadFile(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
			return
		}
		if fileHeader.Size > maxUploadBytes {
			c.JSON(http.StatusBadRequest,
				gin.H{"error": fmt.Sprintf("file exceeds %d byte limit", maxUploadBytes)})
			return
		}

		src, err := fileHeader.Open()
		if err != nil {
			writeError(c, fmt.Errorf("open upload: %w", err))
			return
		}
		defer src.Close()
		data, err := io.ReadAll(io.LimitReader(src, maxUploadBytes+1))
		if err != nil {
			writeError(c, fmt.Errorf("read upload: %w", err))
			return
		}
		if observability.DefaultMetrics != nil {
			observability.DefaultMetrics.UploadBytes.Observe(float64(len(data)))
		}

		tbl, err := parseDataset(fileHeader.Filename, data)
		if err != nil {
			writeError(c, err)
			return
		}

		userID := c.PostForm("user_id")
		if userID == "" {
			userID = datatypes.NilUserID
		}

		rec := &datatypes.SessionRecord{
			ID:        uuid.NewString(),
			Filename:  fileHeader.Filename,
			UserID:    userID,
			Table:     tbl,
			Tips:      make(map[string][]string),
			CreatedAt: time.Now().UTC(),
		}
		if target := c.PostForm("target_column"); target != "" {
			rec.ResolveTarget(target)
		}
		deps.Store.Create(rec)
		if observability.DefaultMetrics != nil {
			observability.DefaultMetrics.ActiveSessions.Set(float64(deps.Store.Len()))
		}
		recordJob(c.Request.Context(), deps, rec, "upload")

		slog.Info("dataset uploaded",
			"session_id", rec.ID,
			"filename", rec.Filename,
			"rows", tbl.NumRows(),
			"columns", tbl.NumCols(),
		)
		c.JSON(http.StatusOK, gin.H{
			"session_id": rec.ID,
			"filename":   rec.Filename,
			"rows":       tbl.NumRows(),
			"columns":    tbl.NumCols(),
			"schema":     schemaOf(tbl),
			"preview":    tbl.Head(previewRows),
		})
	}
}

// parseDataset picks the reader from the file extension. Only .csv and
// .xlsx datasets are accepted.
func parseDataset(filename string, data []byte) (*frame.Frame, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".xlsx":
		tbl, err := frame.ReadXLSX(data)
		if err != nil {
			return nil, fmt.Errorf("%w: parse xlsx: %v", datatypes.ErrInvalidArgument, err)
		}
		return tbl, nil
	case ".csv":
		tbl, err := frame.ReadCSV(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: parse csv: %v", datatypes.ErrInvalidArgument, err)
		}
		return tbl, nil
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q, expected .csv or .xlsx",
			datatypes.ErrInvalidArgument, ext)
	}
}

func schemaOf(tbl *frame.Frame) []datatypes.ColumnSchema {
	nulls := tbl.NullCounts()
	out := make([]datatypes.ColumnSchema, 0, tbl.NumCols())
	for _, name := range tbl.Names() {
		col, _ := tbl.Column(name)
		out = append(out, datatypes.ColumnSchema{
			Column:       name,
			Dtype:        col.Dtype(),
			InferredType: col.Kind().String(),
			NullCount:    nulls[name],
		})
	}
	return out
}
