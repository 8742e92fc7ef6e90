// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package render produces unified line-level diffs between two source
// texts.
//
// The renderer is label-pure: the caller-supplied labels appear only in
// the diff headers and never influence the diff algorithm. Which label
// is semantically "old" or "new" is a presentation decision made by the
// calling layer from the merge classification, not here.
package render

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	sgdiff "github.com/sourcegraph/go-diff/diff"
)

// DefaultContextLines is the default number of context lines per hunk.
const DefaultContextLines = 3

// Diff is the rendered result of comparing two texts.
type Diff struct {
	// Unified is the unified diff text. Empty when the inputs are equal.
	Unified string

	// OldLabel and NewLabel echo the caller-supplied labels.
	OldLabel string
	NewLabel string

	// AddedLines and DeletedLines count changed lines across all hunks.
	// A changed line counts on both sides.
	AddedLines   int
	DeletedLines int
}

// Equal reports whether the two inputs were identical.
func (d *Diff) Equal() bool {
	return d.Unified == ""
}

// RendererOption is a functional option for configuring Renderer.
type RendererOption func(*Renderer)

// WithContextLines sets the hunk context size.
func WithContextLines(n int) RendererOption {
	return func(r *Renderer) {
		if n >= 0 {
			r.contextLines = n
		}
	}
}

// Renderer produces unified diffs.
//
// Thread Safety: safe for concurrent use; Renderer holds only
// configuration.
type Renderer struct {
	contextLines int
}

// New creates a Renderer.
func New(opts ...RendererOption) *Renderer {
	r := &Renderer{contextLines: DefaultContextLines}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render diffs oldText against newText with the given header labels.
func (r *Renderer) Render(oldText, newText, oldLabel, newLabel string) (*Diff, error) {
	out := &Diff{OldLabel: oldLabel, NewLabel: newLabel}
	if oldText == newText {
		return out, nil
	}

	unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldText),
		B:        difflib.SplitLines(newText),
		FromFile: oldLabel,
		ToFile:   newLabel,
		Context:  r.contextLines,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering unified diff: %w", err)
	}
	out.Unified = unified

	added, deleted, err := stat(unified)
	if err != nil {
		return nil, fmt.Errorf("computing diff stat: %w", err)
	}
	out.AddedLines = added
	out.DeletedLines = deleted
	return out, nil
}

// stat parses the rendered diff back and counts added and deleted lines.
func stat(unified string) (added, deleted int, err error) {
	if strings.TrimSpace(unified) == "" {
		return 0, 0, nil
	}
	fd, err := sgdiff.ParseFileDiff([]byte(unified))
	if err != nil {
		return 0, 0, err
	}
	s := fd.Stat()
	return int(s.Added + s.Changed), int(s.Deleted + s.Changed), nil
}
