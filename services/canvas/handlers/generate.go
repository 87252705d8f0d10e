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
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/AleutianCanvas/services/canvas/datatypes"
	"github.com/AleutianAI/AleutianCanvas/services/canvas/generation"
	"github.com/AleutianAI/AleutianCanvas/services/canvas/middleware"
)

var generateTracer = otel.Tracer("aleutian.canvas.handlers")

// MaxUploadBytes bounds the translation input image.
const MaxUploadBytes = 10 << 20 // 10MB

// Generator runs one generation lifecycle. Satisfied by
// *generation.Orchestrator; tests substitute a double.
type Generator interface {
	Generate(ctx context.Context, subjectID, email string, req generation.Request) (*generation.Result, error)
}

// GenerateNotes handles POST /generate/notes: transcript in, image out.
func GenerateNotes(gen Generator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := generateTracer.Start(c.Request.Context(), "GenerateNotes")
		defer span.End()

		claims := middleware.GetClaims(c)
		if claims == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "unauthenticated"})
			return
		}

		var req datatypes.NotesRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}

		res, err := gen.Generate(ctx, claims.Subject, claims.Email, generation.NotesRequest(req.Text))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			respondGenerationError(c, err)
			return
		}
		c.Data(http.StatusOK, res.MIMEType, res.Data)
	}
}

// GenerateTranslation handles POST /generate/translation: multipart
// image plus target_lang in, translated image out.
func GenerateTranslation(gen Generator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := generateTracer.Start(c.Request.Context(), "GenerateTranslation")
		defer span.End()

		claims := middleware.GetClaims(c)
		if claims == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "unauthenticated"})
			return
		}

		targetLang := strings.TrimSpace(c.PostForm("target_lang"))
		if targetLang == "" {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "target_lang is required"})
			return
		}

		fileHeader, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "image file is required"})
			return
		}
		if fileHeader.Size > MaxUploadBytes {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "image file too large"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			slog.Error("Failed to open uploaded image", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"detail": "could not read image file"})
			return
		}
		defer file.Close()

		imageData, err := io.ReadAll(io.LimitReader(file, MaxUploadBytes))
		if err != nil {
			slog.Error("Failed to read uploaded image", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"detail": "could not read image file"})
			return
		}

		mimeType := fileHeader.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "image/png"
		}

		res, err := gen.Generate(ctx, claims.Subject, claims.Email,
			generation.TranslationRequest(imageData, mimeType, targetLang))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			respondGenerationError(c, err)
			return
		}
		c.Data(http.StatusOK, res.MIMEType, res.Data)
	}
}
