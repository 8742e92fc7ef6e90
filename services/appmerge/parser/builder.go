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
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/appmerge/services/appmerge/archive"
	"github.com/AleutianAI/appmerge/services/appmerge/model"
	"github.com/AleutianAI/appmerge/services/appmerge/resolver"
)

var builderTracer = otel.Tracer("appmerge.parser")

// uuidAttrPattern salvages the uuid attribute from documents that fail
// full XML decoding, so the downgraded Unknown object keeps its identity.
var uuidAttrPattern = regexp.MustCompile(`\buuid="([^"]+)"`)

// versionAttrPattern salvages the version marker the same way.
var versionAttrPattern = regexp.MustCompile(`versionUuid="([^"]+)"`)

// BuilderOption is a functional option for configuring Builder.
type BuilderOption func(*Builder)

// WithHasher sets a custom content hasher.
func WithHasher(h Hasher) BuilderOption {
	return func(b *Builder) {
		b.hasher = h
	}
}

// WithRegistry sets a custom parser registry.
func WithRegistry(r *Registry) BuilderOption {
	return func(b *Builder) {
		b.registry = r
	}
}

// WithLogger sets the logger for parse warnings.
func WithLogger(l *slog.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = l
	}
}

// Builder parses one package into a blueprint, registering every object
// into the shared resolver as a side effect.
//
// Thread Safety: a Builder may run concurrent Build calls; the resolver
// serializes registrations internally.
type Builder struct {
	registry *Registry
	res      *resolver.Resolver
	hasher   Hasher
	logger   *slog.Logger
}

// NewBuilder creates a Builder bound to the run's resolver.
func NewBuilder(res *resolver.Resolver, opts ...BuilderOption) *Builder {
	b := &Builder{
		registry: NewRegistry(),
		res:      res,
		hasher:   NewSHA256Hasher(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build parses every entry of the package into an AppObject and
// assembles the blueprint. Parse failures downgrade to Unknown objects;
// the entry count of the package always equals the object count of the
// blueprint (modulo duplicate-UUID collapsing, which is warned about).
func (b *Builder) Build(ctx context.Context, label string, pkg *archive.Package) (*model.Blueprint, error) {
	ctx, span := builderTracer.Start(ctx, "parser.Build")
	defer span.End()
	span.SetAttributes(
		attribute.String("package", label),
		attribute.Int("entries", len(pkg.Entries)),
	)

	warnings := append([]model.Warning(nil), pkg.Warnings...)
	objects := make([]*model.AppObject, 0, len(pkg.Entries))

	for _, entry := range pkg.Entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		obj, warn := b.parseEntry(entry)
		if warn != nil {
			warnings = append(warnings, *warn)
			b.logger.Warn("document downgraded to unknown object",
				slog.String("package", label),
				slog.String("entry", entry.Path),
				slog.String("uuid", obj.UUID),
				slog.String("reason", warn.Message))
		}
		objects = append(objects, obj)
		if err := b.res.Register(obj); err != nil {
			// Registration after freeze is an engine sequencing bug, not
			// a data problem; surface it hard.
			return nil, fmt.Errorf("registering %s: %w", obj.UUID, err)
		}
	}

	bp := model.NewBlueprint(label, objects, warnings)
	span.SetAttributes(
		attribute.Int("objects", bp.Len()),
		attribute.Int("warnings", len(bp.Warnings())),
	)
	return bp, nil
}

// parseEntry parses one archive entry. The returned warning is non-nil
// when the entry was downgraded to an Unknown object.
func (b *Builder) parseEntry(entry archive.Entry) (*model.AppObject, *model.Warning) {
	if entry.Oversized {
		obj := b.unknownObject(entry, nil, "entry exceeds size limit")
		return obj, &model.Warning{
			Code:       model.WarnEntryTooLarge,
			ObjectUUID: obj.UUID,
			Message:    entry.Path + ": entry exceeds size limit",
		}
	}

	var doc document
	if err := xml.Unmarshal(entry.Data, &doc); err != nil {
		obj := b.unknownObject(entry, entry.Data, err.Error())
		return obj, &model.Warning{
			Code:       model.WarnParseFailure,
			ObjectUUID: obj.UUID,
			Message:    entry.Path + ": " + err.Error(),
		}
	}
	if doc.UUID == "" {
		obj := b.unknownObject(entry, entry.Data, "document has no uuid attribute")
		return obj, &model.Warning{
			Code:       model.WarnParseFailure,
			ObjectUUID: obj.UUID,
			Message:    entry.Path + ": document has no uuid attribute",
		}
	}

	objType, detail, err := b.registry.Parse(&doc)
	if err != nil {
		obj := b.unknownObject(entry, entry.Data, err.Error())
		obj.UUID = normalizeUUID(doc.UUID)
		obj.Name = doc.Name
		obj.VersionMarker = doc.VersionUUID
		return obj, &model.Warning{
			Code:       model.WarnParseFailure,
			ObjectUUID: obj.UUID,
			Message:    entry.Path + ": " + err.Error(),
		}
	}

	payload := string(entry.Data)
	return &model.AppObject{
		UUID:          normalizeUUID(doc.UUID),
		Type:          objType,
		Name:          doc.Name,
		Description:   doc.Description,
		VersionMarker: doc.VersionUUID,
		Payload:       payload,
		Detail:        detail,
		HashFn:        b.hashFn(entry.Data),
	}, nil
}

// unknownObject builds the downgraded object for an unparseable entry.
// Identity is salvaged from the raw bytes where possible so the object
// still lines up across blueprints; otherwise the entry path stands in.
func (b *Builder) unknownObject(entry archive.Entry, raw []byte, reason string) *model.AppObject {
	id := ""
	marker := ""
	if raw != nil {
		if m := uuidAttrPattern.FindSubmatch(raw); m != nil {
			id = normalizeUUID(string(m[1]))
		}
		if m := versionAttrPattern.FindSubmatch(raw); m != nil {
			marker = string(m[1])
		}
	}
	if id == "" {
		id = "unparsed:" + entry.Path
	}
	return &model.AppObject{
		UUID:          id,
		Type:          model.TypeUnknown,
		Name:          entry.Path,
		VersionMarker: marker,
		Payload:       string(raw),
		Detail:        model.UnknownDetail{ParseErr: reason},
		HashFn:        b.hashFn(raw),
	}
}

// hashFn returns the lazy content-hash closure for a payload. The hash
// is only computed when a classification actually needs it.
func (b *Builder) hashFn(raw []byte) func() string {
	return func() string {
		return b.hasher.Hash(Canonicalize(raw))
	}
}

// normalizeUUID lowercases RFC-format UUIDs so identity comparison is
// case-insensitive. Appian also emits non-RFC identifiers (for example
// "_a-0000e4c9-..."); those pass through unchanged.
func normalizeUUID(id string) string {
	if err := uuid.Validate(id); err == nil {
		return strings.ToLower(id)
	}
	return id
}
