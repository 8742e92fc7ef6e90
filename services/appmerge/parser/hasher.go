// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package parser

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher computes content hashes over canonical document bytes.
type Hasher interface {
	// Hash returns a deterministic digest as lowercase hex.
	Hash(canonical []byte) string
}

// SHA256Hasher is the default Hasher implementation.
//
// Thread Safety: safe for concurrent use; the hasher is stateless.
type SHA256Hasher struct{}

// NewSHA256Hasher creates a SHA256Hasher.
func NewSHA256Hasher() *SHA256Hasher {
	return &SHA256Hasher{}
}

// Hash returns the SHA-256 digest of the canonical bytes as 64 lowercase
// hex characters.
func (h *SHA256Hasher) Hash(canonical []byte) string {
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}
