// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store persists users and generation history.
//
// The user quota is the one piece of state with a real race: two
// concurrent requests from the same user must not drive the balance
// negative. Every implementation therefore performs the decrement as a
// conditional update at the store level, never as a read-modify-write
// in application memory.
package store

import (
	"context"
	"errors"

	"github.com/AleutianAI/AleutianCanvas/services/canvas/datatypes"
)

// ErrInsufficientTokens is returned when a decrement would drive the
// balance below zero. Callers pre-check the balance, so hitting this
// under normal load means a concurrent request won the last token.
var ErrInsufficientTokens = errors.New("insufficient tokens")

// UserStore maps stable subject identifiers to user records.
type UserStore interface {
	// GetOrCreate returns the record for subjectID, creating it with
	// the default quota on first sight. Idempotent: repeated calls
	// with the same subjectID never create duplicates.
	GetOrCreate(ctx context.Context, subjectID, email string) (*datatypes.User, error)

	// DecrementTokens atomically reduces the balance by one iff it is
	// currently positive, returning the updated record. Returns
	// ErrInsufficientTokens when the balance is already zero.
	DecrementTokens(ctx context.Context, subjectID string) (*datatypes.User, error)

	// SetTokens overwrites the balance unconditionally. Admin/test
	// support only.
	SetTokens(ctx context.Context, subjectID string, value int) (*datatypes.User, error)
}

// HistoryLog is the append-only record of past generations.
type HistoryLog interface {
	// Append durably records one entry.
	Append(ctx context.Context, entry *datatypes.HistoryEntry) error

	// Recent returns at most limit entries for the subject, newest
	// first. A subject with no history yields an empty slice.
	Recent(ctx context.Context, subjectID string, limit int) ([]datatypes.HistoryEntry, error)
}

// Store is the full persistence surface the generation flow needs.
type Store interface {
	UserStore
	HistoryLog

	// CommitGeneration appends the entry and decrements the owner's
	// balance as a single transaction, so a crash mid-commit never
	// charges a user for an unrecorded artifact. Returns the updated
	// user record, or ErrInsufficientTokens with nothing written.
	CommitGeneration(ctx context.Context, entry *datatypes.HistoryEntry) (*datatypes.User, error)
}
