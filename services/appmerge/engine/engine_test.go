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
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/appmerge/services/appmerge/config"
	"github.com/AleutianAI/appmerge/services/appmerge/model"
)

const (
	constUUID = "22222222-2222-2222-2222-222222222222"
	ruleUUID  = "11111111-1111-1111-1111-111111111111"
)

// writePackage assembles a package zip on disk from path->content pairs,
// generating a manifest over the object entries.
func writePackage(t *testing.T, name string, objects map[string]string) string {
	t.Helper()

	manifest := `<manifest application="CaseTracker" version="1.0">` + "\n"
	var paths []string
	for p := range objects {
		paths = append(paths, p)
	}
	// Deterministic manifest order keeps entry order stable run to run.
	for i := 0; i < len(paths); i++ {
		for j := i + 1; j < len(paths); j++ {
			if paths[j] < paths[i] {
				paths[i], paths[j] = paths[j], paths[i]
			}
		}
	}
	for _, p := range paths {
		manifest += `  <entry path="` + p + `"/>` + "\n"
	}
	manifest += `</manifest>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("META-INF/manifest.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(manifest))
	require.NoError(t, err)
	for _, p := range paths {
		w, err := zw.Create(p)
		require.NoError(t, err)
		_, err = w.Write([]byte(objects[p]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func constantDoc(marker, value string) string {
	return `<appianObject type="constant" uuid="` + constUUID + `" versionUuid="` + marker + `">
  <name>MAX_RETRIES</name>
  <value>` + value + `</value>
</appianObject>`
}

func ruleDoc(marker, definition string) string {
	return `<appianObject type="expressionRule" uuid="` + ruleUUID + `" versionUuid="` + marker + `">
  <name>GetRetryBudget</name>
  <definition>` + definition + `</definition>
</appianObject>`
}

const processDoc = `<appianObject type="processModel" uuid="pm-1" versionUuid="v-1">
  <name>Review Flow</name>
  <nodes>
    <node uuid="n-start" guiId="1">
      <name>Start</name>
      <connections>
        <connection toGuiId="2"/>
      </connections>
    </node>
    <node uuid="n-end" guiId="2">
      <name>End</name>
    </node>
  </nodes>
  <variables>
    <variable name="approved" type="Boolean" parameter="true"/>
  </variables>
</appianObject>`

func TestEngine_Compare(t *testing.T) {
	oldPath := writePackage(t, "old.zip", map[string]string{
		"objects/const.xml": constantDoc("v-1", "3"),
		"objects/rule.xml":  ruleDoc("v-1", "cons!{"+constUUID+"}MAX_RETRIES"),
	})
	newPath := writePackage(t, "new.zip", map[string]string{
		"objects/const.xml": constantDoc("v-1", "3"),
		"objects/rule.xml":  ruleDoc("v-2", "cons!{"+constUUID+"}MAX_RETRIES * 2"),
		"objects/pm.xml":    processDoc,
	})

	res, err := New(config.Default()).Compare(context.Background(), oldPath, newPath)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Summary.Totals.Modified)
	assert.Equal(t, 1, res.Summary.Totals.Added)
	assert.Equal(t, 1, res.Summary.Totals.NotChanged)
	assert.Zero(t, res.Summary.Conflicts, "pairwise runs carry no merge statuses")
	assert.Zero(t, res.Summary.New)

	byUUID := make(map[string]ChangeView)
	for _, c := range res.Changes {
		byUUID[c.UUID] = c
	}

	rule := byUUID[ruleUUID]
	assert.Equal(t, "GetRetryBudget", rule.Name)
	assert.Equal(t, "expressionRule", rule.ObjectType)
	assert.Equal(t, "MODIFIED", rule.ChangeType)
	assert.Equal(t, "N/A", rule.MergeStatus)
	require.NotNil(t, rule.Source)
	assert.Equal(t, "old", rule.Source.DiffOldLabel)
	assert.Equal(t, "new", rule.Source.DiffNewLabel)
	assert.Contains(t, rule.Source.Diff, "+cons!{"+constUUID+"}MAX_RETRIES * 2")
	assert.Contains(t, rule.Source.FormattedVendor, "cons!MAX_RETRIES * 2", "constant reference resolved by name")

	pm := byUUID["pm-1"]
	assert.Equal(t, "ADDED", pm.ChangeType)
	require.NotNil(t, pm.Flow)
	assert.Equal(t, []string{"n-start"}, pm.Flow.StartNodes)
	assert.Equal(t, []string{"n-end"}, pm.Flow.EndNodes)
	require.Len(t, pm.Flow.Nodes, 2)
	require.Len(t, pm.Flow.Variables, 1)
	assert.True(t, pm.Flow.Variables[0].Parameter)

	assert.Empty(t, res.Warnings)
	assert.Zero(t, res.Summary.DuplicateUUIDCount)
}

func TestEngine_Merge(t *testing.T) {
	base := map[string]string{
		"objects/const.xml": constantDoc("v-1", "3"),
		"objects/rule.xml":  ruleDoc("v-1", "cons!{"+constUUID+"}MAX_RETRIES"),
	}
	customer := map[string]string{
		"objects/const.xml": constantDoc("v-1", "3"),
		"objects/rule.xml":  ruleDoc("c-7", "cons!{"+constUUID+"}MAX_RETRIES + 1"),
	}
	vendor := map[string]string{
		"objects/const.xml": constantDoc("v-1", "3"),
		"objects/rule.xml":  ruleDoc("v-2", "cons!{"+constUUID+"}MAX_RETRIES * 2"),
		"objects/pm.xml":    processDoc,
	}

	basePath := writePackage(t, "base.zip", base)
	customerPath := writePackage(t, "customer.zip", customer)
	vendorPath := writePackage(t, "vendor.zip", vendor)

	res, err := New(config.Default()).Merge(context.Background(), basePath, customerPath, vendorPath)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Summary.Conflicts, "both sides edited the rule")
	assert.Equal(t, 1, res.Summary.New, "vendor-only process model")
	assert.Equal(t, 1, res.Summary.Totals.NotChanged)

	byUUID := make(map[string]ChangeView)
	for _, c := range res.Changes {
		byUUID[c.UUID] = c
	}

	rule := byUUID[ruleUUID]
	assert.Equal(t, "MODIFIED", rule.ChangeType)
	assert.Equal(t, "CONFLICT", rule.MergeStatus)
	require.NotNil(t, rule.Source)
	// Customer has a copy, so the presentation sides are customer vs vendor.
	assert.Equal(t, "customer", rule.Source.DiffOldLabel)
	assert.Equal(t, "vendor", rule.Source.DiffNewLabel)
	assert.Contains(t, rule.Source.Diff, "-cons!{"+constUUID+"}MAX_RETRIES + 1")
	assert.NotEmpty(t, rule.Source.FormattedBase)
	assert.NotEmpty(t, rule.Source.FormattedCustomer)
	assert.NotEmpty(t, rule.Source.FormattedVendor)

	pm := byUUID["pm-1"]
	assert.Equal(t, "ADDED", pm.ChangeType)
	assert.Equal(t, "NEW", pm.MergeStatus)
	require.NotNil(t, pm.Flow)
}

func TestEngine_UnresolvedReferenceWarning(t *testing.T) {
	missing := "99999999-9999-9999-9999-999999999999"
	oldPath := writePackage(t, "old.zip", map[string]string{
		"objects/rule.xml": ruleDoc("v-1", "rule!{"+missing+"}()"),
	})
	newPath := writePackage(t, "new.zip", map[string]string{
		"objects/rule.xml": ruleDoc("v-2", "rule!{"+missing+"}(1)"),
	})

	res, err := New(config.Default()).Compare(context.Background(), oldPath, newPath)
	require.NoError(t, err)

	var unresolved int
	for _, w := range res.Warnings {
		if w.Code == model.WarnUnresolvedReference {
			unresolved++
			assert.Contains(t, w.Message, missing)
		}
	}
	assert.Equal(t, 1, unresolved, "each missing id reported once per run")
	assert.Equal(t, 1, res.Summary.WarningCount)

	// The opaque token survives formatting untouched.
	rule := res.Changes[0]
	require.NotNil(t, rule.Source)
	assert.Contains(t, rule.Source.FormattedVendor, "rule!{"+missing+"}")
}

func TestEngine_TogglesDisableViews(t *testing.T) {
	oldPath := writePackage(t, "old.zip", map[string]string{
		"objects/rule.xml": ruleDoc("v-1", "1"),
	})
	newPath := writePackage(t, "new.zip", map[string]string{
		"objects/rule.xml": ruleDoc("v-2", "2"),
		"objects/pm.xml":   processDoc,
	})

	cfg := config.Default()
	cfg.FlowGraphs = false
	cfg.FormatSail = false

	res, err := New(cfg).Compare(context.Background(), oldPath, newPath)
	require.NoError(t, err)

	for _, c := range res.Changes {
		assert.Nil(t, c.Flow)
		if c.Source != nil {
			assert.Empty(t, c.Source.FormattedVendor)
		}
	}
}

func TestEngine_MissingArchiveIsFatal(t *testing.T) {
	present := writePackage(t, "ok.zip", map[string]string{
		"objects/rule.xml": ruleDoc("v-1", "1"),
	})

	_, err := New(config.Default()).Compare(context.Background(), present, filepath.Join(t.TempDir(), "absent.zip"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "package new")
}

func TestResult_JSONRoundTrip(t *testing.T) {
	oldPath := writePackage(t, "old.zip", map[string]string{
		"objects/const.xml": constantDoc("v-1", "3"),
	})
	newPath := writePackage(t, "new.zip", map[string]string{
		"objects/const.xml": constantDoc("v-2", "4"),
	})

	res, err := New(config.Default()).Compare(context.Background(), oldPath, newPath)
	require.NoError(t, err)

	data, err := res.JSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Contains(t, decoded, "summary")
	require.Contains(t, decoded, "changes")
	require.Contains(t, decoded, "generated_at")

	summary := decoded["summary"].(map[string]any)
	byType := summary["by_type"].(map[string]any)
	assert.Contains(t, byType, "constant")
}
