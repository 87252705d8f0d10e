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
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianCanvas/services/canvas/generation"
)

// respondGenerationError maps a generation failure to an HTTP status
// with a fixed detail message. The underlying cause goes to the log
// only; clients never see provider or store internals.
func respondGenerationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, generation.ErrQuotaExceeded):
		c.JSON(http.StatusPaymentRequired, gin.H{"detail": "no tokens remaining"})
	case errors.Is(err, generation.ErrNoArtifact):
		slog.Warn("Generation produced no artifact", "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "the model produced no image"})
	case errors.Is(err, generation.ErrPersistenceFailed):
		slog.Error("Generation persistence failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to store the generated image"})
	default:
		slog.Error("Generation failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "image generation failed"})
	}
}
