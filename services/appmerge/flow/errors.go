// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package flow reconstructs directed control-flow graphs from process
// model node sets.
//
// Connection records live inside their originating node and reference
// targets by gui id, a short identifier scoped to the parent process
// model. Reconstruction resolves gui ids to node UUIDs via a per-model
// mapping; unresolved targets are kept as edges with an empty target and
// surfaced as warnings rather than dropped.
//
// # Ownership Model
//
// The graph stores adjacency by node UUID, never direct node-to-node
// pointers, so cyclic flows create no ownership cycles.
//
// # Lifecycle
//
// A Graph is produced fully assembled by Reconstruct and is read-only
// from then on. After that it can be read from multiple goroutines.
package flow

import "errors"

// Sentinel errors for flow reconstruction.
var (
	// ErrNotProcessModel is returned when the object handed to
	// Reconstruct is not a process model.
	ErrNotProcessModel = errors.New("object is not a process model")
)
