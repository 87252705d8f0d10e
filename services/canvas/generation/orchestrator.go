// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package generation coordinates one quota-gated generation request:
// quota check, provider call, artifact persistence, then history append
// plus quota decrement as one commit.
//
// The ordering carries the core invariant: a user is only ever charged
// for a generation that produced a persisted artifact. The quota check
// happens strictly before the provider call, so a zero-balance user
// never incurs provider cost, and the decrement happens strictly after
// upload and history append succeed.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/AleutianCanvas/services/canvas/artifacts"
	"github.com/AleutianAI/AleutianCanvas/services/canvas/datatypes"
	"github.com/AleutianAI/AleutianCanvas/services/canvas/store"
	"github.com/AleutianAI/AleutianCanvas/services/genai"
)

var tracer = otel.Tracer("aleutian.canvas.generation")

// titleRunes is how much of a transcript survives into the history title.
const titleRunes = 30

const notesPromptPrefix = "Analyze the following transcript and create an image that maps all the key ideas together.\nTranscript: "

const translationPromptTemplate = "Look at this image.\n1. Identify the text in the image.\n2. Translate that text into %s, keeping everything else the same.\nRender the translated image."

// Request is one generation to run: the prompt for the provider plus
// the metadata that ends up in history.
type Request struct {
	Type   datatypes.HistoryType
	Prompt string
	Title  string
	Image  *genai.ImageInput
}

// NotesRequest builds the visual-notes variant from a transcript.
func NotesRequest(text string) Request {
	return Request{
		Type:   datatypes.HistoryTypeVisualNotes,
		Prompt: notesPromptPrefix + text,
		Title:  truncateTitle(text),
	}
}

// TranslationRequest builds the translation variant from an uploaded
// image and a target language.
func TranslationRequest(imageData []byte, mimeType, targetLang string) Request {
	return Request{
		Type:   datatypes.HistoryTypeTranslation,
		Prompt: fmt.Sprintf(translationPromptTemplate, targetLang),
		Title:  "Translation to " + targetLang,
		Image:  &genai.ImageInput{Data: imageData, MIMEType: mimeType},
	}
}

// Result is a successful generation: the artifact bytes to stream back
// and the user record after the quota decrement.
type Result struct {
	Data     []byte
	MIMEType string
	User     *datatypes.User
}

// Orchestrator runs generation requests against injected collaborators.
// All dependencies are explicit so tests can substitute doubles.
type Orchestrator struct {
	store     store.Store
	provider  genai.Client
	artifacts artifacts.Store
}

func NewOrchestrator(st store.Store, provider genai.Client, artifactStore artifacts.Store) *Orchestrator {
	return &Orchestrator{
		store:     st,
		provider:  provider,
		artifacts: artifactStore,
	}
}

// Generate runs the full lifecycle for one authenticated subject.
// Failures map to the sentinel errors in errors.go; on none of the
// failure paths has the user been charged or history written.
func (o *Orchestrator) Generate(ctx context.Context, subjectID, email string, req Request) (*Result, error) {
	ctx, span := tracer.Start(ctx, "Orchestrator.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("generation.type", string(req.Type)))

	user, err := o.store.GetOrCreate(ctx, subjectID, email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: user lookup: %w", ErrPersistenceFailed, err)
	}

	if user.TokensRemaining <= 0 {
		slog.Info("Generation rejected, no tokens remaining", "subject", subjectID)
		return nil, ErrQuotaExceeded
	}

	parts, err := o.provider.Generate(ctx, req.Prompt, req.Image)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("Provider call failed", "subject", subjectID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	// The provider may interleave commentary with the image. Take the
	// first binary part; text parts are logged and skipped.
	var artifact *genai.Part
	for i := range parts {
		if parts[i].IsImage() {
			artifact = &parts[i]
			break
		}
		if parts[i].Text != "" {
			slog.Debug("Skipping text part from provider", "len", len(parts[i].Text))
		}
	}
	if artifact == nil {
		slog.Warn("Provider returned no image part", "subject", subjectID, "parts", len(parts))
		return nil, ErrNoArtifact
	}

	mimeType := artifact.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}

	entryID := uuid.NewString()
	object := fmt.Sprintf("artifacts/%s/%s.png", subjectID, entryID)
	imageURL, err := o.artifacts.Upload(ctx, object, artifact.Data, mimeType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("Artifact upload failed", "subject", subjectID, "object", object, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}

	entry := &datatypes.HistoryEntry{
		ID:        entryID,
		SubjectID: subjectID,
		Title:     req.Title,
		Type:      req.Type,
		ImageURL:  imageURL,
	}
	user, err = o.store.CommitGeneration(ctx, entry)
	if errors.Is(err, store.ErrInsufficientTokens) {
		// A concurrent request spent the last token between the
		// pre-check and the commit. Nothing was written.
		slog.Info("Generation lost the last token to a concurrent request", "subject", subjectID)
		return nil, ErrQuotaExceeded
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("Generation commit failed", "subject", subjectID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}

	slog.Info("Generation committed",
		"subject", subjectID,
		"type", string(req.Type),
		"tokens_remaining", user.TokensRemaining)
	return &Result{
		Data:     artifact.Data,
		MIMEType: mimeType,
		User:     user,
	}, nil
}

func truncateTitle(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= titleRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:titleRunes]) + "..."
}
