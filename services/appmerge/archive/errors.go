// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package archive

import "errors"

// Sentinel errors for archive operations. Both are fatal for the run
// that hit them: without an enumerable archive no partial blueprint is
// trustworthy.
var (
	// ErrArchiveOpen is returned when the package cannot be opened or an
	// entry cannot be read.
	ErrArchiveOpen = errors.New("package archive cannot be opened")

	// ErrArchiveEmpty is returned when the archive contains no object
	// documents at all.
	ErrArchiveEmpty = errors.New("package archive contains no object documents")
)
