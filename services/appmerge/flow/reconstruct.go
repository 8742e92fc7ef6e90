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
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/appmerge/services/appmerge/model"
)

var flowTracer = otel.Tracer("appmerge.flow")

// Reconstructor builds flow graphs from process-model objects.
//
// Thread Safety: safe for concurrent use; each Reconstruct call builds
// an independent graph. Reconstruction per process model is independent,
// so callers may fan out across models.
type Reconstructor struct {
	logger *slog.Logger
}

// ReconstructorOption is a functional option for configuring
// Reconstructor.
type ReconstructorOption func(*Reconstructor)

// WithLogger sets the logger for reconstruction warnings.
func WithLogger(l *slog.Logger) ReconstructorOption {
	return func(r *Reconstructor) {
		r.logger = l
	}
}

// NewReconstructor creates a Reconstructor.
func NewReconstructor(opts ...ReconstructorOption) *Reconstructor {
	r := &Reconstructor{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconstruct builds the flow graph for one process-model object.
//
// The pass runs in three steps: map every node's declared gui id to its
// UUID, resolve each node-embedded connection through the map, then the
// adjacency index yields start and end sets on demand. Unresolved
// targets and duplicate gui ids degrade to warnings, never errors.
func (r *Reconstructor) Reconstruct(ctx context.Context, obj *model.AppObject) (*Graph, error) {
	_, span := flowTracer.Start(ctx, "flow.Reconstruct")
	defer span.End()
	span.SetAttributes(attribute.String("process_uuid", obj.UUID))

	detail, ok := obj.Detail.(model.ProcessModelDetail)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotProcessModel, obj.UUID, obj.Type)
	}

	g := &Graph{
		processUUID: obj.UUID,
		nodes:       make(map[string]*model.ProcessModelNode, len(detail.Nodes)),
		incoming:    make(map[string][]*Edge),
		outgoing:    make(map[string][]*Edge),
	}

	// Step 1: gui id -> UUID map. Last declaration wins on duplicates.
	guiToUUID := make(map[string]string, len(detail.Nodes))
	for _, node := range detail.Nodes {
		if node.GUIID != "" {
			if prev, dup := guiToUUID[node.GUIID]; dup {
				g.warnings = append(g.warnings, model.Warning{
					Code:       model.WarnDuplicateGUIID,
					ObjectUUID: obj.UUID,
					Message:    fmt.Sprintf("gui id %s declared by nodes %s and %s; keeping %s", node.GUIID, prev, node.UUID, node.UUID),
				})
			}
			guiToUUID[node.GUIID] = node.UUID
		}
		if _, seen := g.nodes[node.UUID]; !seen {
			g.order = append(g.order, node.UUID)
		}
		g.nodes[node.UUID] = node
	}

	// Steps 2-3: resolve each node's embedded connection list.
	for _, node := range detail.Nodes {
		for _, conn := range node.Connections {
			edge := &Edge{
				From:        node.UUID,
				TargetGUIID: conn.ToGUIID,
				Condition:   conn.Condition,
				Default:     conn.Default,
			}
			if target, ok := guiToUUID[conn.ToGUIID]; ok {
				edge.To = target
			} else {
				g.warnings = append(g.warnings, model.Warning{
					Code:       model.WarnUnresolvedFlowTarget,
					ObjectUUID: obj.UUID,
					Message:    fmt.Sprintf("node %s references gui id %q with no matching node", node.UUID, conn.ToGUIID),
				})
				r.logger.Warn("unresolved flow target",
					slog.String("process_uuid", obj.UUID),
					slog.String("node_uuid", node.UUID),
					slog.String("target_gui_id", conn.ToGUIID))
			}
			g.edges = append(g.edges, edge)
			g.outgoing[node.UUID] = append(g.outgoing[node.UUID], edge)
			if edge.Resolved() {
				g.incoming[edge.To] = append(g.incoming[edge.To], edge)
			}
		}
	}

	span.SetAttributes(
		attribute.Int("nodes", len(g.order)),
		attribute.Int("edges", len(g.edges)),
		attribute.Int("unresolved_edges", g.UnresolvedEdges()),
	)
	return g, nil
}
