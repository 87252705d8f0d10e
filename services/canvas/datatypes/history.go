// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import "time"

// HistoryType tags what kind of generation produced a history entry.
type HistoryType string

const (
	HistoryTypeVisualNotes HistoryType = "visual-notes"
	HistoryTypeTranslation HistoryType = "translation"
)

// HistoryPageSize caps how many entries /users/me returns.
const HistoryPageSize = 5

// HistoryEntry is one past generation. Entries are written only after
// the artifact has been persisted and are immutable afterwards.
type HistoryEntry struct {
	ID        string      `db:"id" json:"id"`
	SubjectID string      `db:"subject_id" json:"-"`
	Title     string      `db:"title" json:"title"`
	Type      HistoryType `db:"type" json:"type"`
	ImageURL  string      `db:"image_url" json:"image_url"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}
