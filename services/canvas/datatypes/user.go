// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides data structures for the canvas service.
package datatypes

import "time"

// DefaultTokens is the quota granted to a user on first sight.
const DefaultTokens = 5

// User is the persistent record for one authenticated subject. Exactly
// one row exists per subject id; rows are created lazily on the first
// authenticated request and never deleted.
type User struct {
	SubjectID       string     `db:"subject_id" json:"uid"`
	Email           string     `db:"email" json:"email"`
	TokensRemaining int        `db:"tokens_remaining" json:"tokens_remaining"`
	StreakCount     int        `db:"streak_count" json:"streak_count"`
	LastActivityAt  *time.Time `db:"last_activity_at" json:"last_activity_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"-"`
	UpdatedAt       time.Time  `db:"updated_at" json:"-"`
}
