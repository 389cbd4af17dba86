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
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianAutoML/services/automl/datatypes"
	"github.com/AleutianAI/AleutianAutoML/services/automl/export"
)

// ExportPDF renders the session report as a downloadable PDF.
func ExportPDF(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.SessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var pdf []byte
		var name string
		err := deps.Store.View(req.SessionID, func(r *datatypes.SessionRecord) error {
			var err error
			pdf, err = export.PDF(r)
			name = baseName(r.Filename) + "_report.pdf"
			return err
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		c.Data(http.StatusOK, "application/pdf", pdf)
	}
}

// ExportNotebook renders the session's pipeline as a Jupyter notebook.
func ExportNotebook(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.SessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var nb []byte
		var name string
		err := deps.Store.View(req.SessionID, func(r *datatypes.SessionRecord) error {
			var err error
			nb, err = export.Notebook(r)
			name = baseName(r.Filename) + "_pipeline.ipynb"
			return err
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		c.Data(http.StatusOK, "application/x-ipynb+json", nb)
	}
}

func baseName(filename string) string {
	if i := strings.LastIndex(filename, "."); i > 0 {
		return filename[:i]
	}
	return filename
}
