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

	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/appmerge/services/appmerge/model"
)

// Merge policy decisions. These are deliberate choices, not emergent
// behavior, and changing them changes what auditors see:
//
//  1. Vendor-side removal dominates the change-type bucket. When vendor
//     removed an object the customer modified, the record counts as
//     REMOVED (with CONFLICT status), because the removal is the
//     structurally dominant event.
//
//  2. Independent agreement on removal is not a conflict. When both
//     vendor and customer removed an object from base, the record is
//     REMOVED with NO_CONFLICT: nothing remains to reconcile.
//
//  3. An identity both sides added independently conflicts only when
//     the contents diverge; identical canonical hashes mean either copy
//     can be kept.

// Merge classifies every identity in base ∪ customer ∪ vendor,
// producing exactly one ChangeRecord per UUID. The change type is the
// base→vendor delta (vendor-release perspective); the merge status
// overlays the customer's divergence from base.
//
// customer may be nil for a two-sided run, in which case the result
// degenerates to ComparePair semantics with merge statuses still
// populated from the vendor perspective.
func (c *Classifier) Merge(ctx context.Context, base, customer, vendor *model.Blueprint) ([]*model.ChangeRecord, error) {
	ctx, span := classifyTracer.Start(ctx, "classify.Merge")
	defer span.End()

	uuids := unionUUIDs(base, customer, vendor)
	span.SetAttributes(attribute.Int("union_size", len(uuids)))

	records, err := c.classifyAll(ctx, uuids, func(id string) *model.ChangeRecord {
		baseObj, _ := lookup(base, id)
		custObj, _ := lookup(customer, id)
		vendObj, _ := lookup(vendor, id)
		changeType, status := c.classifyTriple(baseObj, custObj, vendObj)
		return &model.ChangeRecord{
			UUID:        id,
			Base:        baseObj,
			Customer:    custObj,
			Vendor:      vendObj,
			ChangeType:  changeType,
			MergeStatus: status,
		}
	})
	if err != nil {
		return nil, err
	}
	sortRecords(records)
	return records, nil
}

func (c *Classifier) classifyTriple(baseObj, custObj, vendObj *model.AppObject) (model.ChangeType, model.MergeStatus) {
	switch {
	case baseObj == nil && vendObj != nil:
		if custObj == nil {
			// Present only in vendor.
			return model.ChangeAdded, model.MergeNew
		}
		// Both sides added the same identity independently.
		if c.hash(custObj) == c.hash(vendObj) {
			return model.ChangeAdded, model.MergeNoConflict
		}
		return model.ChangeAdded, model.MergeConflict

	case baseObj != nil && vendObj == nil:
		if custObj == nil {
			// Policy 2: independent removal on both sides.
			return model.ChangeRemoved, model.MergeNoConflict
		}
		// Policy 1: customer kept (or modified) what vendor deleted.
		return model.ChangeRemoved, model.MergeConflict

	case baseObj == nil && vendObj == nil:
		// Customer-only identity: the vendor release carries no event
		// for it, but totality over the union requires a record.
		return model.ChangeNotChanged, model.MergeNotApplicable
	}

	// Present in base and vendor.
	baseToVendor := c.Pair(baseObj, vendObj)
	if baseToVendor == model.ChangeNotChanged {
		return model.ChangeNotChanged, model.MergeNotApplicable
	}

	// Vendor modified the object; the customer's own delta decides the
	// status.
	baseToCustomer := c.Pair(baseObj, custObj)
	if baseToCustomer == model.ChangeNotChanged {
		return model.ChangeModified, model.MergeNoConflict
	}
	// Customer modified or removed it: both sides diverged from base.
	return model.ChangeModified, model.MergeConflict
}
