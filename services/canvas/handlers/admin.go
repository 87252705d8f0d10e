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
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianCanvas/services/canvas/middleware"
	"github.com/AleutianAI/AleutianCanvas/services/canvas/store"
)

// SetTokens handles POST /admin/set-tokens/:n. It overwrites the
// caller's own balance unconditionally. Exists for deterministic test
// setup, not general use.
func SetTokens(users store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := middleware.GetClaims(c)
		if claims == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "unauthenticated"})
			return
		}

		n, err := strconv.Atoi(c.Param("n"))
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "token count must be a non-negative integer"})
			return
		}

		ctx := c.Request.Context()
		if _, err := users.GetOrCreate(ctx, claims.Subject, claims.Email); err != nil {
			slog.Error("Failed to load user", "subject", claims.Subject, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to load user"})
			return
		}

		user, err := users.SetTokens(ctx, claims.Subject, n)
		if err != nil {
			slog.Error("Failed to set tokens", "subject", claims.Subject, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to set tokens"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":          "token balance updated",
			"tokens_remaining": user.TokensRemaining,
		})
	}
}
