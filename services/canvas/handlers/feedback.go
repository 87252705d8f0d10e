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
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianCanvas/services/canvas/datatypes"
	"github.com/AleutianAI/AleutianCanvas/services/canvas/feedback"
	"github.com/AleutianAI/AleutianCanvas/services/canvas/middleware"
)

// Feedback handles POST /feedback by filing an issue with the tracker.
func Feedback(filer feedback.Filer) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := middleware.GetClaims(c)
		if claims == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "unauthenticated"})
			return
		}

		var req datatypes.FeedbackRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}

		title := "User feedback"
		if req.Path != "" {
			title = fmt.Sprintf("User feedback from %s", req.Path)
		}
		body := fmt.Sprintf("%s\n\n---\nReported by: %s", req.Message, claims.Email)

		issueURL, err := filer.FileIssue(c.Request.Context(), title, body)
		if err != nil {
			slog.Error("Failed to file feedback issue", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to submit feedback"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"issue_url": issueURL,
		})
	}
}
