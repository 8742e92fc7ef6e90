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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/appmerge/services/appmerge/archive"
	"github.com/AleutianAI/appmerge/services/appmerge/model"
	"github.com/AleutianAI/appmerge/services/appmerge/resolver"
)

func pkgOf(entries ...archive.Entry) *archive.Package {
	return &archive.Package{Name: "test", Entries: entries}
}

func entry(path, content string) archive.Entry {
	return archive.Entry{Path: path, Data: []byte(content)}
}

const ruleDoc = `<appianObject type="expressionRule" uuid="4A5A1B9E-73F5-4C09-9505-8E3F9F7A2F10" versionUuid="v-7">
  <name>GetOpenCases</name>
  <description>Open cases for a user</description>
  <definition>rule!{11111111-1111-1111-1111-111111111111}(pv!user)</definition>
</appianObject>`

const processDoc = `<appianObject type="processModel" uuid="pm-1" versionUuid="v-1">
  <name>Review Flow</name>
  <nodes>
    <node uuid="n-a" guiId="1">
      <name>Start</name>
      <connections>
        <connection toGuiId="2"/>
      </connections>
    </node>
    <node uuid="n-b" guiId="2">
      <name>End</name>
    </node>
  </nodes>
  <variables>
    <variable name="approved" type="Boolean" parameter="true"/>
  </variables>
</appianObject>`

func TestBuilder_ParsesTypedObjects(t *testing.T) {
	res := resolver.New()
	b := NewBuilder(res)

	bp, err := b.Build(context.Background(), "base", pkgOf(
		entry("objects/rule.xml", ruleDoc),
		entry("objects/pm.xml", processDoc),
	))
	require.NoError(t, err)
	require.Equal(t, 2, bp.Len())
	assert.Empty(t, bp.Warnings())

	rule, ok := bp.Lookup("4a5a1b9e-73f5-4c09-9505-8e3f9f7a2f10")
	require.True(t, ok, "RFC uuids are lowercased")
	assert.Equal(t, model.TypeExpressionRule, rule.Type)
	assert.Equal(t, "GetOpenCases", rule.Name)
	assert.Equal(t, "v-7", rule.VersionMarker)
	detail, ok := rule.Detail.(model.ExpressionRuleDetail)
	require.True(t, ok)
	assert.Contains(t, detail.Definition, "rule!{11111111-")

	pm, ok := bp.Lookup("pm-1")
	require.True(t, ok, "non-RFC uuids pass through unchanged")
	pmDetail, ok := pm.Detail.(model.ProcessModelDetail)
	require.True(t, ok)
	require.Len(t, pmDetail.Nodes, 2)
	assert.Equal(t, "1", pmDetail.Nodes[0].GUIID)
	require.Len(t, pmDetail.Nodes[0].Connections, 1)
	assert.Equal(t, "2", pmDetail.Nodes[0].Connections[0].ToGUIID)
	require.Len(t, pmDetail.Variables, 1)
	assert.True(t, pmDetail.Variables[0].Parameter)

	// Side effect: everything registered into the resolver.
	assert.Equal(t, 2, res.Len())
	name, ok := res.DisplayName("pm-1")
	assert.True(t, ok)
	assert.Equal(t, "Review Flow", name)
}

func TestBuilder_MalformedDocumentDowngrades(t *testing.T) {
	res := resolver.New()
	b := NewBuilder(res)

	raw := `<appianObject type="interface" uuid="iface-1" versionUuid="v-3"><name>Broken`
	bp, err := b.Build(context.Background(), "base", pkgOf(entry("objects/broken.xml", raw)))
	require.NoError(t, err, "parse failures never abort the build")

	require.Equal(t, 1, bp.Len(), "every archive entry appears exactly once")
	obj, ok := bp.Lookup("iface-1")
	require.True(t, ok, "uuid salvaged from the raw bytes")
	assert.Equal(t, model.TypeUnknown, obj.Type)
	assert.Equal(t, "v-3", obj.VersionMarker, "version marker salvaged too")
	assert.Equal(t, raw, obj.Payload)

	detail, ok := obj.Detail.(model.UnknownDetail)
	require.True(t, ok)
	assert.NotEmpty(t, detail.ParseErr)

	require.Len(t, bp.Warnings(), 1)
	assert.Equal(t, model.WarnParseFailure, bp.Warnings()[0].Code)
}

func TestBuilder_UnsalvageableUUIDUsesPath(t *testing.T) {
	b := NewBuilder(resolver.New())

	bp, err := b.Build(context.Background(), "base", pkgOf(entry("objects/junk.xml", "no xml here")))
	require.NoError(t, err)
	require.Equal(t, 1, bp.Len())

	obj := bp.Objects()[0]
	assert.Equal(t, "unparsed:objects/junk.xml", obj.UUID)
	assert.Equal(t, model.TypeUnknown, obj.Type)
}

func TestBuilder_UnknownTypeTagDowngrades(t *testing.T) {
	b := NewBuilder(resolver.New())

	doc := `<appianObject type="decisionTable" uuid="dt-1" versionUuid="v-1"><name>Routing</name></appianObject>`
	bp, err := b.Build(context.Background(), "base", pkgOf(entry("objects/dt.xml", doc)))
	require.NoError(t, err)

	obj, ok := bp.Lookup("dt-1")
	require.True(t, ok)
	assert.Equal(t, model.TypeUnknown, obj.Type)
	assert.Equal(t, "Routing", obj.Name, "parsed metadata kept on the downgrade")
	require.Len(t, bp.Warnings(), 1)
	assert.Equal(t, model.WarnParseFailure, bp.Warnings()[0].Code)
}

func TestBuilder_MissingUUIDDowngrades(t *testing.T) {
	b := NewBuilder(resolver.New())

	doc := `<appianObject type="constant"><name>NoIdentity</name></appianObject>`
	bp, err := b.Build(context.Background(), "base", pkgOf(entry("objects/c.xml", doc)))
	require.NoError(t, err)
	require.Equal(t, 1, bp.Len())
	assert.Equal(t, model.TypeUnknown, bp.Objects()[0].Type)
}

func TestBuilder_OversizedEntryDowngrades(t *testing.T) {
	b := NewBuilder(resolver.New())

	bp, err := b.Build(context.Background(), "base", pkgOf(archive.Entry{Path: "objects/huge.xml", Oversized: true}))
	require.NoError(t, err)
	require.Equal(t, 1, bp.Len())
	assert.Equal(t, model.TypeUnknown, bp.Objects()[0].Type)
	require.Len(t, bp.Warnings(), 1)
	assert.Equal(t, model.WarnEntryTooLarge, bp.Warnings()[0].Code)
}

func TestBuilder_LazyHashing(t *testing.T) {
	calls := 0
	b := NewBuilder(resolver.New(), WithHasher(countingHasher{calls: &calls}))

	bp, err := b.Build(context.Background(), "base", pkgOf(entry("objects/rule.xml", ruleDoc)))
	require.NoError(t, err)
	assert.Zero(t, calls, "building must not hash")

	_ = bp.Objects()[0].ContentHash()
	_ = bp.Objects()[0].ContentHash()
	assert.Equal(t, 1, calls, "hash computed once, on demand")
}

type countingHasher struct {
	calls *int
}

func (h countingHasher) Hash(canonical []byte) string {
	*h.calls++
	return NewSHA256Hasher().Hash(canonical)
}

func TestBuilder_HashStableAcrossReserialization(t *testing.T) {
	b := NewBuilder(resolver.New())

	compact := `<appianObject type="constant" uuid="c1" versionUuid="v-1"><name>MAX</name><value>10</value></appianObject>`
	pretty := "<appianObject uuid=\"c1\" versionUuid=\"v-2\" type=\"constant\">\r\n  <name>MAX</name>\r\n  <value>10</value>\r\n</appianObject>"

	bp, err := b.Build(context.Background(), "base", pkgOf(
		entry("objects/a.xml", compact),
	))
	require.NoError(t, err)
	bp2, err := b.Build(context.Background(), "other", pkgOf(
		entry("objects/a.xml", pretty),
	))
	require.NoError(t, err)

	assert.Equal(t, bp.Objects()[0].ContentHash(), bp2.Objects()[0].ContentHash(),
		"cosmetic re-serialization and marker churn must not change the hash")
}

func TestBuilder_ContextCancellation(t *testing.T) {
	b := NewBuilder(resolver.New())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Build(ctx, "base", pkgOf(entry("objects/rule.xml", ruleDoc)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegistry_CoversAllTypes(t *testing.T) {
	r := NewRegistry()
	for _, tag := range []string{
		"interface", "expressionRule", "processModel", "recordType", "cdt",
		"constant", "integration", "webApi", "site", "group",
		"connectedSystem", "dataStore",
	} {
		_, ok := r.Lookup(tag)
		assert.True(t, ok, "no parser for %q", tag)
	}
	_, ok := r.Lookup("unknown")
	assert.False(t, ok, "unknown must not be parseable directly")
}
