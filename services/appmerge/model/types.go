// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package model

import (
	"sync"
)

// ObjectType identifies the design-object category declared by a package
// document. The enumeration is closed: documents declaring anything else
// are downgraded to TypeUnknown.
type ObjectType int

const (
	// TypeUnknown holds documents that failed to parse or declared an
	// unrecognized type. Unknown objects still participate in
	// classification via their raw payload hash.
	TypeUnknown ObjectType = iota

	// TypeInterface is a SAIL interface definition.
	TypeInterface

	// TypeExpressionRule is a reusable SAIL expression.
	TypeExpressionRule

	// TypeProcessModel is a process model with nodes and flow connections.
	TypeProcessModel

	// TypeRecordType is a record type definition.
	TypeRecordType

	// TypeCDT is a custom data type.
	TypeCDT

	// TypeConstant is a named constant value.
	TypeConstant

	// TypeIntegration is an outbound integration definition.
	TypeIntegration

	// TypeWebAPI is an inbound web API definition.
	TypeWebAPI

	// TypeSite is a site definition.
	TypeSite

	// TypeGroup is a security group.
	TypeGroup

	// TypeConnectedSystem is a connected system definition.
	TypeConnectedSystem

	// TypeDataStore is a data store definition.
	TypeDataStore

	// NumObjectTypes is the total number of object types (for array sizing).
	NumObjectTypes
)

// objectTypeNames maps ObjectType values to the type tags used in package
// documents. These strings are also the summary bucket keys in serialized
// results, so they are part of the output contract.
var objectTypeNames = map[ObjectType]string{
	TypeUnknown:         "unknown",
	TypeInterface:       "interface",
	TypeExpressionRule:  "expressionRule",
	TypeProcessModel:    "processModel",
	TypeRecordType:      "recordType",
	TypeCDT:             "cdt",
	TypeConstant:        "constant",
	TypeIntegration:     "integration",
	TypeWebAPI:          "webApi",
	TypeSite:            "site",
	TypeGroup:           "group",
	TypeConnectedSystem: "connectedSystem",
	TypeDataStore:       "dataStore",
}

// String returns the document type tag for the ObjectType.
func (t ObjectType) String() string {
	if name, ok := objectTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ObjectTypeFromTag returns the ObjectType for a document type tag.
// Unrecognized tags map to TypeUnknown with ok=false.
func ObjectTypeFromTag(tag string) (ObjectType, bool) {
	for t, name := range objectTypeNames {
		if name == tag && t != TypeUnknown {
			return t, true
		}
	}
	return TypeUnknown, false
}

// ChangeType is the result of a pairwise blueprint comparison for one
// object identity.
type ChangeType int

const (
	// ChangeNotChanged indicates no semantic difference between the two
	// snapshots (equal version marker, or equal content hash).
	ChangeNotChanged ChangeType = iota

	// ChangeAdded indicates the object exists only in the newer snapshot.
	ChangeAdded

	// ChangeRemoved indicates the object exists only in the older snapshot.
	ChangeRemoved

	// ChangeModified indicates the version marker and the content hash
	// both differ between the snapshots.
	ChangeModified
)

var changeTypeNames = map[ChangeType]string{
	ChangeNotChanged: "NOT_CHANGED",
	ChangeAdded:      "ADDED",
	ChangeRemoved:    "REMOVED",
	ChangeModified:   "MODIFIED",
}

// String returns the serialized name of the ChangeType.
func (c ChangeType) String() string {
	if name, ok := changeTypeNames[c]; ok {
		return name
	}
	return "NOT_CHANGED"
}

// MergeStatus is the result of a three-way (base/customer/vendor)
// comparison for one object identity. It is only meaningful when the
// change type indicates a difference somewhere in the triple; otherwise
// it is MergeNotApplicable.
type MergeStatus int

const (
	// MergeNotApplicable marks records with no vendor-side event to merge.
	MergeNotApplicable MergeStatus = iota

	// MergeNew marks objects present only in the vendor snapshot.
	MergeNew

	// MergeNoConflict marks vendor-side changes the customer can absorb
	// without manual reconciliation.
	MergeNoConflict

	// MergeConflict marks objects where both sides diverged from base and
	// a human must reconcile.
	MergeConflict
)

var mergeStatusNames = map[MergeStatus]string{
	MergeNotApplicable: "N/A",
	MergeNew:           "NEW",
	MergeNoConflict:    "NO_CONFLICT",
	MergeConflict:      "CONFLICT",
}

// String returns the serialized name of the MergeStatus.
func (m MergeStatus) String() string {
	if name, ok := mergeStatusNames[m]; ok {
		return name
	}
	return "N/A"
}

// Detail is the type-specific payload of an AppObject. Exactly one
// concrete Detail implementation exists per ObjectType; parsers select
// the implementation from the declared type tag.
type Detail interface {
	detail()
}

// InterfaceDetail holds the SAIL definition of an interface.
type InterfaceDetail struct {
	Definition string
}

// ExpressionRuleDetail holds the SAIL definition of an expression rule.
type ExpressionRuleDetail struct {
	Definition string
}

// IntegrationDetail holds an integration's SAIL definition and the UUID
// of the connected system it targets.
type IntegrationDetail struct {
	Definition          string
	ConnectedSystemUUID string
}

// WebAPIDetail holds a web API's SAIL definition and endpoint path.
type WebAPIDetail struct {
	Definition string
	Endpoint   string
}

// ConstantDetail holds a constant's literal value and declared type.
type ConstantDetail struct {
	Value     string
	ValueType string
}

// ProcessModelDetail holds a process model's node set and variables.
// Connections live inside their originating node, not at the model level.
type ProcessModelDetail struct {
	Nodes     []*ProcessModelNode
	Variables []Variable
}

// RecordTypeDetail holds a record type's source and field names.
type RecordTypeDetail struct {
	SourceType string
	FieldNames []string
}

// CDTDetail holds a custom data type's namespace and field names.
type CDTDetail struct {
	Namespace  string
	FieldNames []string
}

// SiteDetail holds a site's page names.
type SiteDetail struct {
	PageNames []string
}

// GroupDetail holds a group's parent and member UUIDs.
type GroupDetail struct {
	ParentUUID  string
	MemberUUIDs []string
}

// ConnectedSystemDetail holds a connected system's template and
// non-secret properties.
type ConnectedSystemDetail struct {
	TemplateType string
	Properties   map[string]string
}

// DataStoreDetail holds a data store's entity names.
type DataStoreDetail struct {
	EntityNames []string
}

// UnknownDetail carries the raw payload of a document that could not be
// parsed, plus the parse error that caused the downgrade.
type UnknownDetail struct {
	DeclaredType string
	ParseErr     string
}

func (InterfaceDetail) detail()       {}
func (ExpressionRuleDetail) detail()  {}
func (IntegrationDetail) detail()     {}
func (WebAPIDetail) detail()          {}
func (ConstantDetail) detail()        {}
func (ProcessModelDetail) detail()    {}
func (RecordTypeDetail) detail()      {}
func (CDTDetail) detail()             {}
func (SiteDetail) detail()            {}
func (GroupDetail) detail()           {}
func (ConnectedSystemDetail) detail() {}
func (DataStoreDetail) detail()       {}
func (UnknownDetail) detail()         {}

// AppObject is one design object extracted from a package document.
//
// AppObject is immutable after construction. The content hash is
// memoized: HashFn is invoked at most once, on first ContentHash call.
type AppObject struct {
	// UUID is the stable object identifier, unique within a blueprint.
	UUID string

	// Type is the declared object category.
	Type ObjectType

	// Name is the display name declared by the document.
	Name string

	// Description is the optional document description.
	Description string

	// VersionMarker is the opaque token bumped on every edit. Tooling
	// bumps it even without content change, so it is only a fast-path
	// signal, never proof of modification.
	VersionMarker string

	// Payload is the raw document text as read from the archive.
	Payload string

	// Detail is the type-specific parsed payload.
	Detail Detail

	// HashFn computes the canonical content hash of the payload. Set by
	// the builder; must be deterministic and version-marker independent.
	HashFn func() string

	hashOnce sync.Once
	hash     string
}

// ContentHash returns the canonical content hash, computing it on first
// call. Safe for concurrent use.
func (o *AppObject) ContentHash() string {
	o.hashOnce.Do(func() {
		if o.HashFn != nil {
			o.hash = o.HashFn()
		}
	})
	return o.hash
}

// SailSource returns the embedded SAIL source of the object, or "" when
// the type carries none.
func (o *AppObject) SailSource() string {
	switch d := o.Detail.(type) {
	case InterfaceDetail:
		return d.Definition
	case ExpressionRuleDetail:
		return d.Definition
	case IntegrationDetail:
		return d.Definition
	case WebAPIDetail:
		return d.Definition
	case ConstantDetail:
		return d.Value
	default:
		return ""
	}
}

// ProcessModelNode is one node of a process model.
type ProcessModelNode struct {
	// UUID is the node's globally unique identifier.
	UUID string

	// GUIID is the locally-scoped identifier connection records use to
	// reference this node. Unique only within the parent process model.
	GUIID string

	// Name is the node's display label.
	Name string

	// Connections are the outgoing connections declared inside this node.
	Connections []Connection
}

// Connection is one outgoing connection record embedded in a node. The
// target is referenced by gui id, not UUID.
type Connection struct {
	ToGUIID   string
	Condition string
	Default   bool
}

// Variable is one process variable declaration.
type Variable struct {
	Name      string
	Type      string
	Parameter bool
}

// WarningCode categorizes recoverable data-quality problems surfaced
// during a run.
type WarningCode string

const (
	// WarnParseFailure marks a document downgraded to an Unknown object.
	WarnParseFailure WarningCode = "parse_failure"

	// WarnDuplicateUUID marks a UUID registered more than once within one
	// blueprint. The last registration wins deterministically.
	WarnDuplicateUUID WarningCode = "duplicate_uuid"

	// WarnUnresolvedReference marks a UUID lookup miss during formatting.
	WarnUnresolvedReference WarningCode = "unresolved_reference"

	// WarnUnresolvedFlowTarget marks a connection whose target gui id has
	// no matching node declaration.
	WarnUnresolvedFlowTarget WarningCode = "unresolved_flow_target"

	// WarnDuplicateGUIID marks a gui id declared by more than one node in
	// the same process model.
	WarnDuplicateGUIID WarningCode = "duplicate_gui_id"

	// WarnMissingManifest marks an archive whose manifest was absent or
	// unreadable; entries were enumerated directly instead.
	WarnMissingManifest WarningCode = "missing_manifest"

	// WarnEntryTooLarge marks an archive entry that exceeded the size
	// limit and was downgraded to an Unknown object.
	WarnEntryTooLarge WarningCode = "entry_too_large"
)

// Warning is one recoverable data-quality problem. Warnings are absorbed
// and annotated, never fatal.
type Warning struct {
	Code       WarningCode `json:"code"`
	ObjectUUID string      `json:"object_uuid,omitempty"`
	Message    string      `json:"message"`
}

// Blueprint is an immutable snapshot of one package: every object in the
// archive, in manifest order, plus a UUID lookup.
type Blueprint struct {
	label      string
	objects    []*AppObject
	byUUID     map[string]*AppObject
	warnings   []Warning
	duplicates int
}

// NewBlueprint assembles a blueprint from parsed objects. Duplicate UUIDs
// keep their first position in the ordered collection but the last parsed
// object wins the lookup slot; each duplicate adds a warning.
func NewBlueprint(label string, objects []*AppObject, warnings []Warning) *Blueprint {
	b := &Blueprint{
		label:    label,
		byUUID:   make(map[string]*AppObject, len(objects)),
		warnings: warnings,
	}
	for _, obj := range objects {
		if prev, ok := b.byUUID[obj.UUID]; ok {
			b.duplicates++
			b.warnings = append(b.warnings, Warning{
				Code:       WarnDuplicateUUID,
				ObjectUUID: obj.UUID,
				Message:    "duplicate UUID in package " + label + "; replacing " + prev.Name + " with " + obj.Name,
			})
			for i, existing := range b.objects {
				if existing.UUID == obj.UUID {
					b.objects[i] = obj
					break
				}
			}
			b.byUUID[obj.UUID] = obj
			continue
		}
		b.objects = append(b.objects, obj)
		b.byUUID[obj.UUID] = obj
	}
	return b
}

// Label returns the caller-supplied package label (base/customer/vendor
// or a file name).
func (b *Blueprint) Label() string {
	return b.label
}

// Objects returns the ordered object collection. Callers must not mutate
// the returned slice.
func (b *Blueprint) Objects() []*AppObject {
	return b.objects
}

// Lookup resolves a UUID within this blueprint.
func (b *Blueprint) Lookup(uuid string) (*AppObject, bool) {
	obj, ok := b.byUUID[uuid]
	return obj, ok
}

// Len returns the number of distinct objects.
func (b *Blueprint) Len() int {
	return len(b.objects)
}

// UUIDs returns every object UUID in manifest order.
func (b *Blueprint) UUIDs() []string {
	ids := make([]string, 0, len(b.objects))
	for _, obj := range b.objects {
		ids = append(ids, obj.UUID)
	}
	return ids
}

// Warnings returns data-quality warnings collected while building the
// blueprint.
func (b *Blueprint) Warnings() []Warning {
	return b.warnings
}

// DuplicateUUIDs returns how many duplicate registrations occurred.
func (b *Blueprint) DuplicateUUIDs() int {
	return b.duplicates
}

// ChangeRecord relates one logical object identity across up to three
// blueprints. Vendor is present for every record except removals and
// customer-only objects.
type ChangeRecord struct {
	UUID        string
	Base        *AppObject
	Customer    *AppObject
	Vendor      *AppObject
	ChangeType  ChangeType
	MergeStatus MergeStatus
}

// Object returns the preferred object reference for presentation:
// vendor, then customer, then base.
func (r *ChangeRecord) Object() *AppObject {
	switch {
	case r.Vendor != nil:
		return r.Vendor
	case r.Customer != nil:
		return r.Customer
	default:
		return r.Base
	}
}

// DisplayName returns the display name of the preferred object, or the
// raw UUID when no reference carries a name.
func (r *ChangeRecord) DisplayName() string {
	if obj := r.Object(); obj != nil && obj.Name != "" {
		return obj.Name
	}
	return r.UUID
}

// ObjectType returns the object type of the preferred object.
func (r *ChangeRecord) ObjectType() ObjectType {
	if obj := r.Object(); obj != nil {
		return obj.Type
	}
	return TypeUnknown
}
