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

	"github.com/AleutianAI/AleutianCanvas/services/canvas/datatypes"
	"github.com/AleutianAI/AleutianCanvas/services/canvas/middleware"
	"github.com/AleutianAI/AleutianCanvas/services/canvas/store"
)

// Me handles GET /users/me. The first authenticated call creates the
// user record, so a brand-new caller sees the default quota and an
// empty activity list rather than a 404.
func Me(users store.UserStore, history store.HistoryLog) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := middleware.GetClaims(c)
		if claims == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "unauthenticated"})
			return
		}

		ctx := c.Request.Context()
		user, err := users.GetOrCreate(ctx, claims.Subject, claims.Email)
		if err != nil {
			slog.Error("Failed to load user", "subject", claims.Subject, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to load user"})
			return
		}

		recent, err := history.Recent(ctx, claims.Subject, datatypes.HistoryPageSize)
		if err != nil {
			slog.Error("Failed to load history", "subject", claims.Subject, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to load history"})
			return
		}

		c.JSON(http.StatusOK, datatypes.MeResponse{
			UID:             user.SubjectID,
			Email:           user.Email,
			TokensRemaining: user.TokensRemaining,
			StreakCount:     user.StreakCount,
			RecentActivity:  recent,
		})
	}
}
