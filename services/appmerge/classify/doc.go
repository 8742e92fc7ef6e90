// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package classify assigns change types and merge statuses to object
// identities across blueprints.
//
// # Two-layer change detection
//
// Pairwise classification consults the version marker first and the
// content hash only when the markers disagree. The marker is bumped by
// tooling even without content change, so it alone produces false
// positives; hashing every object is wasteful at scale. Equal markers
// short-circuit to NOT_CHANGED without touching the hash, and marker
// churn with an identical canonical hash also lands on NOT_CHANGED.
//
// # Parallelism
//
// Each identity's classification is independent once the blueprints are
// built, so classification fans out over a bounded worker pool. Small
// unions run sequentially for better cache locality, mirroring the
// traversal thresholds used elsewhere in the codebase.
package classify
