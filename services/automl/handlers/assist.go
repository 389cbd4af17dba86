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

	"github.com/AleutianAI/AleutianAutoML/services/automl/assistant"
	"github.com/AleutianAI/AleutianAutoML/services/automl/datatypes"
	"github.com/AleutianAI/AleutianAutoML/services/automl/observability"
)

// Suggest streams a dataset-aware assistant answer over SSE. The answer
// is appended to the session's per-page tips only after the stream drains
// cleanly, so an interrupted stream leaves no partial tip behind.
func Suggest(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.SuggestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if deps.Assistant == nil {
			writeError(c, datatypes.ErrAssistantUnavailable)
			return
		}

		// Snapshot the prompts under the read lock; the stream itself runs
		// without holding the session.
		var system, user string
		if err := deps.Store.View(req.SessionID, func(r *datatypes.SessionRecord) error {
			system = assistant.BuildSystemPrompt(r, req.Page)
			user = assistant.BuildUserPrompt(r, req.Question)
			return nil
		}); err != nil {
			writeError(c, err)
			return
		}

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		sse, err := newSSEWriter(c.Writer)
		if err != nil {
			writeError(c, err)
			return
		}

		answer, err := deps.Assistant.Suggest(c.Request.Context(), system, user,
			func(token string) error {
				if observability.DefaultMetrics != nil {
					observability.DefaultMetrics.AssistantTokensTotal.Inc()
				}
				return sse.writeToken(token)
			})
		if err != nil {
			slog.Error("suggestion stream failed", "session_id", req.SessionID, "error", err)
			_ = sse.writeError("assistant unavailable")
			return
		}

		if err := deps.Store.Mutate(req.SessionID, func(r *datatypes.SessionRecord) error {
			if r.Tips == nil {
				r.Tips = make(map[string][]string)
			}
			r.Tips[req.Page] = append(r.Tips[req.Page], answer)
			return nil
		}); err != nil {
			// Session may have expired mid-stream; the answer was still
			// delivered, so finish the stream normally.
			slog.Warn("failed to record tip", "session_id", req.SessionID, "error", err)
		}
		_ = sse.writeDone()
	}
}

// Tips returns the accumulated assistant answers of a session by page.
func Tips(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Query("session_id")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session_id query parameter required"})
			return
		}
		var resp gin.H
		err := deps.Store.View(sessionID, func(r *datatypes.SessionRecord) error {
			resp = gin.H{"session_id": r.ID, "tips": r.Tips}
			return nil
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
