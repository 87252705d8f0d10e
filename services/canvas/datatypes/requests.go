// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// This file contains request and response types for the HTTP surface.
package datatypes

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

const (
	// MaxTranscriptBytes bounds the notes transcript. Anything larger
	// is rejected before the provider is involved.
	MaxTranscriptBytes = 32 * 1024

	// MaxFeedbackBytes bounds a single feedback message.
	MaxFeedbackBytes = 8 * 1024
)

// canvasValidate is the shared validator instance for request types.
var canvasValidate = validator.New()

// NotesRequest is the body of POST /generate/notes.
type NotesRequest struct {
	Text string `json:"text" validate:"required"`
}

// Validate checks the transcript is present and within bounds.
func (r *NotesRequest) Validate() error {
	if err := canvasValidate.Struct(r); err != nil {
		return err
	}
	if len(r.Text) > MaxTranscriptBytes {
		return fmt.Errorf("transcript exceeds %d bytes", MaxTranscriptBytes)
	}
	return nil
}

// FeedbackRequest is the body of POST /feedback.
type FeedbackRequest struct {
	Message string `json:"message" validate:"required"`
	Path    string `json:"path,omitempty"`
}

// Validate checks the message is present and within bounds.
func (r *FeedbackRequest) Validate() error {
	if err := canvasValidate.Struct(r); err != nil {
		return err
	}
	if len(r.Message) > MaxFeedbackBytes {
		return fmt.Errorf("message exceeds %d bytes", MaxFeedbackBytes)
	}
	return nil
}

// MeResponse is the body of GET /users/me.
type MeResponse struct {
	UID             string         `json:"uid"`
	Email           string         `json:"email"`
	TokensRemaining int            `json:"tokens_remaining"`
	StreakCount     int            `json:"streak_count"`
	RecentActivity  []HistoryEntry `json:"recentActivity"`
}
