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
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/appmerge/services/appmerge/model"
)

var classifyTracer = otel.Tracer("appmerge.classify")

// Fan-out configuration constants.
const (
	// sequentialThreshold is the minimum union size to trigger the
	// worker pool. Smaller unions classify sequentially.
	sequentialThreshold = 32

	// maxWorkers caps the number of goroutines regardless of CPU count.
	maxWorkers = 8
)

// HashFunc produces the content hash for an object. Injectable so tests
// can observe when hashing actually happens.
type HashFunc func(*model.AppObject) string

// ClassifierOption is a functional option for configuring Classifier.
type ClassifierOption func(*Classifier)

// WithHashFunc replaces the content-hash source.
func WithHashFunc(fn HashFunc) ClassifierOption {
	return func(c *Classifier) {
		c.hashFn = fn
	}
}

// WithWorkers sets the worker count for the classification fan-out.
// Zero means min(NumCPU, 8).
func WithWorkers(n int) ClassifierOption {
	return func(c *Classifier) {
		c.workers = n
	}
}

// Classifier assigns change types across blueprints.
//
// Thread Safety: safe for concurrent use. The only mutable state is the
// hash-computation counter, which is atomic.
type Classifier struct {
	hashFn    HashFunc
	workers   int
	hashCalls atomic.Int64
}

// New creates a Classifier. The default hash source is the object's
// memoized ContentHash.
func New(opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		hashFn: func(o *model.AppObject) string { return o.ContentHash() },
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.workers <= 0 {
		c.workers = runtime.NumCPU()
	}
	if c.workers > maxWorkers {
		c.workers = maxWorkers
	}
	return c
}

// HashComputations returns how many content hashes the classifier has
// requested so far. Exists for the fast-path guarantee: identities with
// equal version markers must classify without hashing.
func (c *Classifier) HashComputations() int64 {
	return c.hashCalls.Load()
}

func (c *Classifier) hash(obj *model.AppObject) string {
	c.hashCalls.Add(1)
	return c.hashFn(obj)
}

// Pair classifies one identity across an older and a newer snapshot.
// Either side may be nil (absent).
func (c *Classifier) Pair(older, newer *model.AppObject) model.ChangeType {
	switch {
	case older == nil && newer == nil:
		return model.ChangeNotChanged
	case older == nil:
		return model.ChangeAdded
	case newer == nil:
		return model.ChangeRemoved
	}

	// Layer 1: equal version markers prove nothing changed. Empty
	// markers carry no signal and fall through to the hash.
	if older.VersionMarker != "" && older.VersionMarker == newer.VersionMarker {
		return model.ChangeNotChanged
	}

	// Layer 2: marker churn without canonical content change is a known
	// false signal from the export format.
	if c.hash(older) == c.hash(newer) {
		return model.ChangeNotChanged
	}
	return model.ChangeModified
}

// ComparePair classifies every identity in the union of two blueprints,
// producing one record per UUID with Base set from the older snapshot
// and Vendor from the newer. Merge status is not applicable in a
// pairwise run.
func (c *Classifier) ComparePair(ctx context.Context, older, newer *model.Blueprint) ([]*model.ChangeRecord, error) {
	ctx, span := classifyTracer.Start(ctx, "classify.ComparePair")
	defer span.End()

	uuids := unionUUIDs(older, newer)
	span.SetAttributes(attribute.Int("union_size", len(uuids)))

	records, err := c.classifyAll(ctx, uuids, func(id string) *model.ChangeRecord {
		oldObj, _ := lookup(older, id)
		newObj, _ := lookup(newer, id)
		return &model.ChangeRecord{
			UUID:        id,
			Base:        oldObj,
			Vendor:      newObj,
			ChangeType:  c.Pair(oldObj, newObj),
			MergeStatus: model.MergeNotApplicable,
		}
	})
	if err != nil {
		return nil, err
	}
	sortRecords(records)
	return records, nil
}

// classifyAll runs fn for every UUID, fanning out over the worker pool
// when the union is large enough. Output order matches the input order;
// workers write disjoint index ranges, so no locking is needed.
func (c *Classifier) classifyAll(ctx context.Context, uuids []string, fn func(string) *model.ChangeRecord) ([]*model.ChangeRecord, error) {
	records := make([]*model.ChangeRecord, len(uuids))

	if len(uuids) < sequentialThreshold || c.workers <= 1 {
		for i, id := range uuids {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			records[i] = fn(id)
		}
		return records, nil
	}

	var wg sync.WaitGroup
	chunk := (len(uuids) + c.workers - 1) / c.workers
	for w := 0; w < c.workers; w++ {
		lo := w * chunk
		if lo >= len(uuids) {
			break
		}
		hi := lo + chunk
		if hi > len(uuids) {
			hi = len(uuids)
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				if ctx.Err() != nil {
					return
				}
				records[i] = fn(uuids[i])
			}
		}(lo, hi)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// unionUUIDs returns the deduplicated union of blueprint UUIDs in a
// deterministic order: first-seen order across the blueprints in the
// order given.
func unionUUIDs(blueprints ...*model.Blueprint) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, bp := range blueprints {
		if bp == nil {
			continue
		}
		for _, id := range bp.UUIDs() {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func lookup(bp *model.Blueprint, id string) (*model.AppObject, bool) {
	if bp == nil {
		return nil, false
	}
	return bp.Lookup(id)
}

// sortRecords orders records for stable presentation: object type, then
// display name, then UUID.
func sortRecords(records []*model.ChangeRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		ti, tj := records[i].ObjectType(), records[j].ObjectType()
		if ti != tj {
			return ti < tj
		}
		ni, nj := records[i].DisplayName(), records[j].DisplayName()
		if ni != nj {
			return ni < nj
		}
		return records[i].UUID < records[j].UUID
	})
}
