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
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianAutoML/services/automl/observability"
)

// ListSessions returns summaries of every resident session.
func ListSessions(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"sessions": deps.Store.List()})
	}
}

// DeleteSession removes a session and its job record.
func DeleteSession(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("sessionId")
		slog.Info("Received a request to delete a session", "sessionId", sessionID)

		if err := deps.Store.Delete(sessionID); err != nil {
			writeError(c, err)
			return
		}
		if deps.Jobs != nil {
			if err := deps.Jobs.DeleteSession(c.Request.Context(), sessionID); err != nil {
				slog.Warn("failed to delete job record", "session_id", sessionID, "error", err)
			}
		}
		if observability.DefaultMetrics != nil {
			observability.DefaultMetrics.ActiveSessions.Set(float64(deps.Store.Len()))
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "deleted_session_id": sessionID})
	}
}
