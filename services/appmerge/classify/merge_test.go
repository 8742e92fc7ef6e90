// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package classify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/appmerge/services/appmerge/model"
)

func mergeOne(t *testing.T, base, customer, vendor *model.AppObject) *model.ChangeRecord {
	t.Helper()
	wrap := func(label string, o *model.AppObject) *model.Blueprint {
		if o == nil {
			return blueprint(label)
		}
		return blueprint(label, o)
	}

	records, err := New().Merge(context.Background(), wrap("base", base), wrap("customer", customer), wrap("vendor", vendor))
	require.NoError(t, err)
	require.Len(t, records, 1)
	return records[0]
}

func TestMerge_VendorModifiedCustomerUntouched(t *testing.T) {
	rec := mergeOne(t,
		obj("u1", "v1", "h-base"),
		obj("u1", "v1", "h-base"),
		obj("u1", "v2", "h-vendor"),
	)
	assert.Equal(t, model.ChangeModified, rec.ChangeType)
	assert.Equal(t, model.MergeNoConflict, rec.MergeStatus)
}

func TestMerge_BothSidesModified(t *testing.T) {
	rec := mergeOne(t,
		obj("u1", "v1", "h-base"),
		obj("u1", "v9", "h-cust"),
		obj("u1", "v2", "h-vendor"),
	)
	assert.Equal(t, model.ChangeModified, rec.ChangeType)
	assert.Equal(t, model.MergeConflict, rec.MergeStatus)
}

func TestMerge_VendorOnlyAddition(t *testing.T) {
	rec := mergeOne(t, nil, nil, obj("u1", "v1", "h"))
	assert.Equal(t, model.ChangeAdded, rec.ChangeType)
	assert.Equal(t, model.MergeNew, rec.MergeStatus)
}

func TestMerge_IndependentIdenticalAdditions(t *testing.T) {
	rec := mergeOne(t, nil, obj("u1", "c-9", "same"), obj("u1", "v-3", "same"))
	assert.Equal(t, model.ChangeAdded, rec.ChangeType)
	assert.Equal(t, model.MergeNoConflict, rec.MergeStatus, "identical content: either copy can be kept")
}

func TestMerge_IndependentDivergentAdditions(t *testing.T) {
	rec := mergeOne(t, nil, obj("u1", "c-9", "h-cust"), obj("u1", "v-3", "h-vendor"))
	assert.Equal(t, model.ChangeAdded, rec.ChangeType)
	assert.Equal(t, model.MergeConflict, rec.MergeStatus)
}

func TestMerge_BothRemoved(t *testing.T) {
	rec := mergeOne(t, obj("u1", "v1", "h"), nil, nil)
	assert.Equal(t, model.ChangeRemoved, rec.ChangeType)
	assert.Equal(t, model.MergeNoConflict, rec.MergeStatus, "agreement on removal is not a conflict")
}

func TestMerge_VendorRemovedCustomerModified(t *testing.T) {
	// Removal dominates the change-type bucket even though the customer
	// modified the object.
	rec := mergeOne(t,
		obj("u1", "v1", "h-base"),
		obj("u1", "v9", "h-cust"),
		nil,
	)
	assert.Equal(t, model.ChangeRemoved, rec.ChangeType)
	assert.Equal(t, model.MergeConflict, rec.MergeStatus)
}

func TestMerge_VendorRemovedCustomerKept(t *testing.T) {
	rec := mergeOne(t,
		obj("u1", "v1", "h-base"),
		obj("u1", "v1", "h-base"),
		nil,
	)
	assert.Equal(t, model.ChangeRemoved, rec.ChangeType)
	assert.Equal(t, model.MergeConflict, rec.MergeStatus, "customer still holds what vendor deleted")
}

func TestMerge_CustomerOnlyIdentity(t *testing.T) {
	rec := mergeOne(t, nil, obj("u1", "c-1", "h"), nil)
	assert.Equal(t, model.ChangeNotChanged, rec.ChangeType)
	assert.Equal(t, model.MergeNotApplicable, rec.MergeStatus)
	assert.NotNil(t, rec.Customer)
}

func TestMerge_VendorUnchanged(t *testing.T) {
	rec := mergeOne(t,
		obj("u1", "v1", "h"),
		obj("u1", "c-5", "h-cust"),
		obj("u1", "v1", "h"),
	)
	assert.Equal(t, model.ChangeNotChanged, rec.ChangeType)
	assert.Equal(t, model.MergeNotApplicable, rec.MergeStatus, "no vendor event to reconcile")
}

func TestMerge_CustomerRemovedVendorModified(t *testing.T) {
	rec := mergeOne(t,
		obj("u1", "v1", "h-base"),
		nil,
		obj("u1", "v2", "h-vendor"),
	)
	assert.Equal(t, model.ChangeModified, rec.ChangeType)
	assert.Equal(t, model.MergeConflict, rec.MergeStatus, "customer deletion diverges from base")
}

func TestMerge_TotalityOverUnion(t *testing.T) {
	base := blueprint("base", obj("u-mod", "v1", "h1"), obj("u-gone", "v1", "h2"))
	customer := blueprint("customer", obj("u-mod", "v1", "h1"), obj("u-local", "c1", "h3"))
	vendor := blueprint("vendor", obj("u-mod", "v2", "h1x"), obj("u-new", "v1", "h4"))

	records, err := New().Merge(context.Background(), base, customer, vendor)
	require.NoError(t, err)
	require.Len(t, records, 4, "every identity from all three inputs gets exactly one record")

	seen := make(map[string]model.MergeStatus)
	for _, r := range records {
		seen[r.UUID] = r.MergeStatus
	}
	assert.Equal(t, model.MergeNoConflict, seen["u-mod"])
	assert.Equal(t, model.MergeNoConflict, seen["u-gone"])
	assert.Equal(t, model.MergeNotApplicable, seen["u-local"])
	assert.Equal(t, model.MergeNew, seen["u-new"])
}
