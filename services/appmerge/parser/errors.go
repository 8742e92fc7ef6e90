// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package parser builds blueprints from package archives.
//
// Parsing is recovery-oriented: a document that cannot be parsed is
// downgraded to an Unknown-typed object carrying the raw payload, never
// dropped. Every entry in the archive appears in the resulting blueprint
// exactly once. The only errors that escape Build are archive-level
// failures propagated from the archive package and context cancellation.
package parser

import "errors"

// Sentinel errors for document parsing. All of them are absorbed by the
// builder via the Unknown-object downgrade; they surface in warnings,
// not in Build's error return.
var (
	// ErrUnknownObjectType is returned for a type tag outside the closed
	// enumeration.
	ErrUnknownObjectType = errors.New("unknown object type tag")

	// ErrMalformedDocument is returned when a document decodes but
	// violates structural expectations (missing uuid, node without uuid).
	ErrMalformedDocument = errors.New("malformed object document")
)
