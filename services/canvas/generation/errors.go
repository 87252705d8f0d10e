// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package generation

import "errors"

// Terminal failure kinds of a generation request. Handlers map these to
// HTTP statuses; underlying causes are wrapped so they reach the logs
// but never the client.
var (
	// ErrQuotaExceeded: the user has no tokens left. Raised before the
	// provider is ever contacted.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrGenerationFailed: the provider call itself failed (network,
	// timeout, provider error). Nothing was charged.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrNoArtifact: the provider answered but produced no image part.
	// Nothing was charged.
	ErrNoArtifact = errors.New("no artifact produced")

	// ErrPersistenceFailed: artifact upload or the history/quota commit
	// failed. Nothing was charged.
	ErrPersistenceFailed = errors.New("artifact persistence failed")
)
