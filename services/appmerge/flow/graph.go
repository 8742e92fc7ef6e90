// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package flow

import (
	"github.com/AleutianAI/appmerge/services/appmerge/model"
)

// Edge is one resolved (or unresolvable) flow connection.
type Edge struct {
	// From is the originating node UUID.
	From string

	// To is the target node UUID. Empty when the target gui id could not
	// be resolved; such edges still count as outgoing flow of From.
	To string

	// TargetGUIID is the raw gui id the connection referenced. Kept so
	// unresolved edges remain diagnosable.
	TargetGUIID string

	// Condition is the optional flow condition expression.
	Condition string

	// Default marks the default outgoing flow of a gateway node.
	Default bool
}

// Resolved reports whether the edge's target gui id resolved to a node.
func (e *Edge) Resolved() bool {
	return e.To != ""
}

// Graph is the reconstructed control-flow graph of one process model.
type Graph struct {
	processUUID string
	nodes       map[string]*model.ProcessModelNode
	order       []string
	edges       []*Edge
	incoming    map[string][]*Edge
	outgoing    map[string][]*Edge
	warnings    []model.Warning
}

// ProcessUUID returns the UUID of the process model the graph was
// reconstructed from.
func (g *Graph) ProcessUUID() string {
	return g.processUUID
}

// Nodes returns node UUIDs in declaration order.
func (g *Graph) Nodes() []string {
	return g.order
}

// Node returns the node record for a UUID.
func (g *Graph) Node(uuid string) (*model.ProcessModelNode, bool) {
	n, ok := g.nodes[uuid]
	return n, ok
}

// Edges returns every edge, resolved or not, in declaration order.
func (g *Graph) Edges() []*Edge {
	return g.edges
}

// Incoming returns the edges arriving at a node.
func (g *Graph) Incoming(uuid string) []*Edge {
	return g.incoming[uuid]
}

// Outgoing returns the edges leaving a node, including unresolved ones.
func (g *Graph) Outgoing(uuid string) []*Edge {
	return g.outgoing[uuid]
}

// StartNodes returns the UUIDs of nodes with no incoming edges, in
// declaration order. For a model with zero resolvable connections this
// is every node; that is a valid state, not an error.
func (g *Graph) StartNodes() []string {
	starts := make([]string, 0, len(g.order))
	for _, id := range g.order {
		if len(g.incoming[id]) == 0 {
			starts = append(starts, id)
		}
	}
	return starts
}

// EndNodes returns the UUIDs of nodes with no outgoing edges, in
// declaration order.
func (g *Graph) EndNodes() []string {
	ends := make([]string, 0, len(g.order))
	for _, id := range g.order {
		if len(g.outgoing[id]) == 0 {
			ends = append(ends, id)
		}
	}
	return ends
}

// Warnings returns data-quality warnings collected during
// reconstruction (unresolved targets, duplicate gui ids).
func (g *Graph) Warnings() []model.Warning {
	return g.warnings
}

// UnresolvedEdges returns how many edges have no resolved target.
func (g *Graph) UnresolvedEdges() int {
	n := 0
	for _, e := range g.edges {
		if !e.Resolved() {
			n++
		}
	}
	return n
}
