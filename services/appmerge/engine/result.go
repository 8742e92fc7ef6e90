// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"encoding/json"
	"time"

	"github.com/AleutianAI/appmerge/services/appmerge/model"
)

// The view structs below are the serialization contract consumed by the
// presentation and persistence layers. Field names and nesting are
// load-bearing; renaming requires a coordinated change downstream.

// TypeCounts is one summary bucket.
type TypeCounts struct {
	Added      int `json:"added"`
	Removed    int `json:"removed"`
	Modified   int `json:"modified"`
	NotChanged int `json:"not_changed"`
}

func (t *TypeCounts) add(c model.ChangeType) {
	switch c {
	case model.ChangeAdded:
		t.Added++
	case model.ChangeRemoved:
		t.Removed++
	case model.ChangeModified:
		t.Modified++
	default:
		t.NotChanged++
	}
}

// Summary aggregates a run.
type Summary struct {
	// ByType buckets change counts per object-type tag.
	ByType map[string]*TypeCounts `json:"by_type"`

	// Totals sums the buckets.
	Totals TypeCounts `json:"totals"`

	// Merge-status counters. Zero in pairwise runs.
	Conflicts   int `json:"conflicts"`
	NoConflicts int `json:"no_conflicts"`
	New         int `json:"new"`

	// Data-quality indicators.
	WarningCount       int `json:"warning_count"`
	DuplicateUUIDCount int `json:"duplicate_uuid_count"`
}

// SourceView carries before/after source text and the name-resolved
// variants for objects with embedded SAIL.
type SourceView struct {
	Base     string `json:"base,omitempty"`
	Customer string `json:"customer,omitempty"`
	Vendor   string `json:"vendor,omitempty"`

	FormattedBase     string `json:"formatted_base,omitempty"`
	FormattedCustomer string `json:"formatted_customer,omitempty"`
	FormattedVendor   string `json:"formatted_vendor,omitempty"`

	// Diff is the unified diff between the two presentation sides; the
	// labels record which side is which.
	Diff         string `json:"diff,omitempty"`
	DiffOldLabel string `json:"diff_old_label,omitempty"`
	DiffNewLabel string `json:"diff_new_label,omitempty"`
	AddedLines   int    `json:"added_lines"`
	DeletedLines int    `json:"deleted_lines"`
}

// EdgeView is one flow edge.
type EdgeView struct {
	From      string `json:"from"`
	To        string `json:"to,omitempty"`
	TargetGUI string `json:"target_gui_id,omitempty"`
	Condition string `json:"condition,omitempty"`
	Default   bool   `json:"default,omitempty"`
}

// FlowNodeView is one process-model node with its adjacency.
type FlowNodeView struct {
	UUID     string     `json:"uuid"`
	GUIID    string     `json:"gui_id,omitempty"`
	Name     string     `json:"name,omitempty"`
	Incoming []EdgeView `json:"incoming"`
	Outgoing []EdgeView `json:"outgoing"`
}

// VariableView is one process variable.
type VariableView struct {
	Name      string `json:"name"`
	Type      string `json:"type,omitempty"`
	Parameter bool   `json:"parameter,omitempty"`
}

// FlowView is the reconstructed flow graph of a process model.
type FlowView struct {
	StartNodes []string       `json:"start_nodes"`
	EndNodes   []string       `json:"end_nodes"`
	Nodes      []FlowNodeView `json:"nodes"`
	Variables  []VariableView `json:"variables,omitempty"`
}

// ChangeView is one classified object identity.
type ChangeView struct {
	UUID        string      `json:"uuid"`
	Name        string      `json:"name"`
	ObjectType  string      `json:"object_type"`
	ChangeType  string      `json:"change_type"`
	MergeStatus string      `json:"merge_status"`
	Source      *SourceView `json:"source,omitempty"`
	Flow        *FlowView   `json:"flow,omitempty"`
}

// Result is the full output of one comparison run.
type Result struct {
	Summary     Summary         `json:"summary"`
	Changes     []ChangeView    `json:"changes"`
	Warnings    []model.Warning `json:"warnings"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// JSON serializes the result with stable indentation.
func (r *Result) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

func newSummary() Summary {
	return Summary{ByType: make(map[string]*TypeCounts)}
}

func (s *Summary) record(rec *model.ChangeRecord) {
	tag := rec.ObjectType().String()
	bucket, ok := s.ByType[tag]
	if !ok {
		bucket = &TypeCounts{}
		s.ByType[tag] = bucket
	}
	bucket.add(rec.ChangeType)
	s.Totals.add(rec.ChangeType)

	switch rec.MergeStatus {
	case model.MergeConflict:
		s.Conflicts++
	case model.MergeNoConflict:
		s.NoConflicts++
	case model.MergeNew:
		s.New++
	}
}
