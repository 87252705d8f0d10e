// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides HTTP middleware for the canvas service.
//
// The auth middleware extracts a bearer token from the Authorization
// header, validates it with the configured identity.Verifier, and
// stores the resulting claims in the Gin context for downstream
// handlers. All verification failures surface uniformly as 401; the
// handler layer never learns why a token was rejected.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianCanvas/services/canvas/identity"
)

// claimsKey is the context key for storing verified claims.
// Using a dedicated key prevents collisions with other context values.
const claimsKey = "canvas_identity_claims"

// SetClaims stores the authenticated subject's claims in the Gin
// context. Called by AuthMiddleware after successful verification.
func SetClaims(c *gin.Context, claims *identity.Claims) {
	c.Set(claimsKey, claims)
}

// GetClaims retrieves the verified claims, or nil if the request was
// not authenticated (or the stored value has the wrong type).
func GetClaims(c *gin.Context) *identity.Claims {
	if v, exists := c.Get(claimsKey); exists {
		if claims, ok := v.(*identity.Claims); ok {
			return claims
		}
	}
	return nil
}

// AuthMiddleware authenticates requests with the given verifier.
// Requests without a valid bearer credential are aborted with 401
// before any handler runs, so no handler side effects can occur for
// an unauthenticated caller.
func AuthMiddleware(verifier identity.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)

		claims, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"detail": "unauthenticated",
			})
			return
		}

		SetClaims(c, claims)
		c.Next()
	}
}

// extractBearerToken parses "Authorization: Bearer <token>". Returns
// empty string if the header is missing or malformed. The scheme is
// case-insensitive per RFC 7235.
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
