// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package model defines the core data model for application bundle
// comparison: design objects, blueprints, and change records.
//
// # Ownership Model
//
// AppObject and Blueprint are immutable after construction:
//   - Parsers build AppObjects and hand them to a Blueprint exactly once
//   - Consumers (classifiers, formatters, renderers) only read
//   - The one concession to laziness is the memoized content hash, which
//     is computed on first use and then cached
//
// # Thread Safety
//
// Because the structures are read-only after the build phase, they can be
// shared freely across goroutines. ContentHash() is safe for concurrent
// use; the memoization is guarded by sync.Once.
//
// # Identity
//
// Every object carries a stable UUID that is unique within a single
// blueprint and denotes the same logical object across blueprints.
// Process-model nodes additionally carry a gui id, a short identifier
// scoped to their parent process model, which connection records use in
// place of the UUID.
package model
