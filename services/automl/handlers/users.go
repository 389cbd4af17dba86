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
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianAutoML/services/automl/jobs"
)

// UserHistory lists a user's persisted pipeline runs, newest first.
func UserHistory(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("user_id")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id query parameter required"})
			return
		}
		records, err := deps.Jobs.UserJobs(c.Request.Context(), userID)
		if err != nil {
			writeError(c, err)
			return
		}
		if records == nil {
			records = []jobs.Record{}
		}
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "jobs": records})
	}
}
