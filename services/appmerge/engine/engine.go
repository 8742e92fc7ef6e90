// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine orchestrates a comparison run: archive enumeration,
// blueprint building, classification, flow reconstruction, and result
// assembly.
//
// A run owns its resolver and blueprints exclusively; nothing outlives
// the returned Result. All parsing happens up front, classification runs
// over materialized in-memory structures, and the resolver is frozen
// before any formatting or diff step executes.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/appmerge/services/appmerge/archive"
	"github.com/AleutianAI/appmerge/services/appmerge/classify"
	"github.com/AleutianAI/appmerge/services/appmerge/config"
	"github.com/AleutianAI/appmerge/services/appmerge/flow"
	"github.com/AleutianAI/appmerge/services/appmerge/model"
	"github.com/AleutianAI/appmerge/services/appmerge/parser"
	"github.com/AleutianAI/appmerge/services/appmerge/render"
	"github.com/AleutianAI/appmerge/services/appmerge/resolver"
	"github.com/AleutianAI/appmerge/services/appmerge/sail"
)

var engineTracer = otel.Tracer("appmerge.engine")

// Blueprint labels used in diff headers and warnings.
const (
	labelBase     = "base"
	labelCustomer = "customer"
	labelVendor   = "vendor"
	labelOld      = "old"
	labelNew      = "new"
)

// Option is a functional option for configuring Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// Engine runs batch comparisons over package archives.
//
// Thread Safety: safe for concurrent use; every run builds its own
// resolver and blueprints.
type Engine struct {
	cfg    config.Config
	logger *slog.Logger
}

// New creates an Engine with the given configuration.
func New(cfg config.Config, opts ...Option) *Engine {
	e := &Engine{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compare runs a pairwise comparison between an older and a newer
// package. Records carry base (old) and vendor (new) references; merge
// statuses are not applicable.
func (e *Engine) Compare(ctx context.Context, oldPath, newPath string) (*Result, error) {
	ctx, span := engineTracer.Start(ctx, "engine.Compare")
	defer span.End()

	run, err := e.load(ctx, []packageInput{
		{path: oldPath, label: labelOld},
		{path: newPath, label: labelNew},
	})
	if err != nil {
		return nil, err
	}

	records, err := run.classifier.ComparePair(ctx, run.blueprints[0], run.blueprints[1])
	if err != nil {
		return nil, err
	}
	return e.assemble(ctx, run, records)
}

// Merge runs a three-way comparison across base, customer, and vendor
// packages.
func (e *Engine) Merge(ctx context.Context, basePath, customerPath, vendorPath string) (*Result, error) {
	ctx, span := engineTracer.Start(ctx, "engine.Merge")
	defer span.End()

	run, err := e.load(ctx, []packageInput{
		{path: basePath, label: labelBase},
		{path: customerPath, label: labelCustomer},
		{path: vendorPath, label: labelVendor},
	})
	if err != nil {
		return nil, err
	}

	records, err := run.classifier.Merge(ctx, run.blueprints[0], run.blueprints[1], run.blueprints[2])
	if err != nil {
		return nil, err
	}
	return e.assemble(ctx, run, records)
}

type packageInput struct {
	path  string
	label string
}

// runState holds the per-run materialized structures.
type runState struct {
	blueprints []*model.Blueprint
	resolver   *resolver.Resolver
	classifier *classify.Classifier
	formatter  *sail.Formatter
	renderer   *render.Renderer
	warnings   []model.Warning
}

// load opens every archive and builds every blueprint, registering all
// objects into one shared resolver. Archive failures are fatal; the
// resolver is frozen before load returns. Registration order matters:
// the vendor package is built last so its display names win lookups.
func (e *Engine) load(ctx context.Context, inputs []packageInput) (*runState, error) {
	ctx, span := engineTracer.Start(ctx, "engine.load")
	defer span.End()
	span.SetAttributes(attribute.Int("packages", len(inputs)))

	readerOpts := []archive.ReaderOption{}
	if e.cfg.MaxEntryBytes > 0 {
		readerOpts = append(readerOpts, archive.WithMaxEntryBytes(e.cfg.MaxEntryBytes))
	}
	reader := archive.NewReader(readerOpts...)

	run := &runState{
		resolver: resolver.New(),
		renderer: render.New(render.WithContextLines(e.cfg.DiffContext)),
	}
	builder := parser.NewBuilder(run.resolver, parser.WithLogger(e.logger))

	for _, in := range inputs {
		pkg, err := reader.Open(in.path)
		if err != nil {
			return nil, fmt.Errorf("package %s: %w", in.label, err)
		}
		bp, err := builder.Build(ctx, in.label, pkg)
		if err != nil {
			return nil, fmt.Errorf("package %s: %w", in.label, err)
		}
		e.logger.Info("blueprint built",
			slog.String("package", in.label),
			slog.Int("objects", bp.Len()),
			slog.Int("warnings", len(bp.Warnings())))
		run.blueprints = append(run.blueprints, bp)
		run.warnings = append(run.warnings, bp.Warnings()...)
	}

	// Registration is complete; readers must never observe a partially
	// populated resolver.
	run.resolver.Freeze()
	run.classifier = classify.New(classify.WithWorkers(e.cfg.Workers))
	run.formatter = sail.New(run.resolver)
	return run, nil
}

// assemble turns classified records into the serializable result.
func (e *Engine) assemble(ctx context.Context, run *runState, records []*model.ChangeRecord) (*Result, error) {
	_, span := engineTracer.Start(ctx, "engine.assemble")
	defer span.End()

	result := &Result{
		Summary:     newSummary(),
		GeneratedAt: time.Now().UTC(),
	}
	reconstructor := flow.NewReconstructor(flow.WithLogger(e.logger))
	seenMissing := make(map[string]struct{})

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Summary.record(rec)

		view := ChangeView{
			UUID:        rec.UUID,
			Name:        rec.DisplayName(),
			ObjectType:  rec.ObjectType().String(),
			ChangeType:  rec.ChangeType.String(),
			MergeStatus: rec.MergeStatus.String(),
		}

		if src := e.sourceView(run, rec, seenMissing); src != nil {
			view.Source = src
		}
		if e.cfg.FlowGraphs && rec.ObjectType() == model.TypeProcessModel {
			fv, warns := e.flowView(ctx, reconstructor, rec)
			view.Flow = fv
			run.warnings = append(run.warnings, warns...)
		}

		result.Changes = append(result.Changes, view)
	}

	result.Warnings = run.warnings
	result.Summary.WarningCount = len(run.warnings)
	for _, bp := range run.blueprints {
		result.Summary.DuplicateUUIDCount += bp.DuplicateUUIDs()
	}

	span.SetAttributes(
		attribute.Int("changes", len(result.Changes)),
		attribute.Int("warnings", result.Summary.WarningCount),
	)
	return result, nil
}

// sourceView builds the before/after source payload for SAIL-bearing
// objects. The diff's presentation sides are the customer's text when
// the customer has one (else base) against the vendor's; that mapping is
// the calling-layer label decision the renderer itself stays pure of.
func (e *Engine) sourceView(run *runState, rec *model.ChangeRecord, seenMissing map[string]struct{}) *SourceView {
	baseSrc := sailSource(rec.Base)
	custSrc := sailSource(rec.Customer)
	vendSrc := sailSource(rec.Vendor)
	if baseSrc == "" && custSrc == "" && vendSrc == "" {
		return nil
	}

	src := &SourceView{Base: baseSrc, Customer: custSrc, Vendor: vendSrc}

	if e.cfg.FormatSail {
		src.FormattedBase = e.format(run, rec.Base, baseSrc, seenMissing)
		src.FormattedCustomer = e.format(run, rec.Customer, custSrc, seenMissing)
		src.FormattedVendor = e.format(run, rec.Vendor, vendSrc, seenMissing)
	}

	oldText, oldLabel := baseSrc, blueprintLabel(run, 0)
	if rec.Customer != nil {
		oldText, oldLabel = custSrc, labelCustomer
	}
	newText, newLabel := vendSrc, blueprintLabel(run, len(run.blueprints)-1)

	diff, err := run.renderer.Render(oldText, newText, oldLabel, newLabel)
	if err != nil {
		e.logger.Warn("diff rendering failed",
			slog.String("uuid", rec.UUID),
			slog.String("error", err.Error()))
		return src
	}
	src.Diff = diff.Unified
	src.DiffOldLabel = diff.OldLabel
	src.DiffNewLabel = diff.NewLabel
	src.AddedLines = diff.AddedLines
	src.DeletedLines = diff.DeletedLines
	return src
}

// format runs the SAIL formatter and records unresolved references once
// per missing id.
func (e *Engine) format(run *runState, obj *model.AppObject, source string, seenMissing map[string]struct{}) string {
	if source == "" {
		return ""
	}
	for _, id := range sail.ReferencedIDs(source) {
		if _, ok := run.resolver.Resolve(id); ok {
			continue
		}
		if _, dup := seenMissing[id]; dup {
			continue
		}
		seenMissing[id] = struct{}{}
		run.warnings = append(run.warnings, model.Warning{
			Code:       model.WarnUnresolvedReference,
			ObjectUUID: obj.UUID,
			Message:    fmt.Sprintf("reference %s does not resolve within the uploaded packages", id),
		})
	}
	return run.formatter.Format(source)
}

// flowView reconstructs the flow graph from the newest snapshot that
// carries the process model.
func (e *Engine) flowView(ctx context.Context, r *flow.Reconstructor, rec *model.ChangeRecord) (*FlowView, []model.Warning) {
	obj := rec.Object()
	if obj == nil {
		return nil, nil
	}
	g, err := r.Reconstruct(ctx, obj)
	if err != nil {
		e.logger.Warn("flow reconstruction failed",
			slog.String("uuid", rec.UUID),
			slog.String("error", err.Error()))
		return nil, nil
	}

	fv := &FlowView{
		StartNodes: g.StartNodes(),
		EndNodes:   g.EndNodes(),
	}
	for _, id := range g.Nodes() {
		node, _ := g.Node(id)
		nv := FlowNodeView{
			UUID:     id,
			GUIID:    node.GUIID,
			Name:     node.Name,
			Incoming: edgeViews(g.Incoming(id)),
			Outgoing: edgeViews(g.Outgoing(id)),
		}
		fv.Nodes = append(fv.Nodes, nv)
	}
	if detail, ok := obj.Detail.(model.ProcessModelDetail); ok {
		for _, v := range detail.Variables {
			fv.Variables = append(fv.Variables, VariableView{
				Name:      v.Name,
				Type:      v.Type,
				Parameter: v.Parameter,
			})
		}
	}
	return fv, g.Warnings()
}

func edgeViews(edges []*flow.Edge) []EdgeView {
	out := make([]EdgeView, 0, len(edges))
	for _, e := range edges {
		out = append(out, EdgeView{
			From:      e.From,
			To:        e.To,
			TargetGUI: e.TargetGUIID,
			Condition: e.Condition,
			Default:   e.Default,
		})
	}
	return out
}

func sailSource(obj *model.AppObject) string {
	if obj == nil {
		return ""
	}
	return obj.SailSource()
}

func blueprintLabel(run *runState, i int) string {
	if i >= 0 && i < len(run.blueprints) {
		return run.blueprints[i].Label()
	}
	return ""
}
