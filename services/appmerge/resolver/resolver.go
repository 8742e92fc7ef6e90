// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package resolver provides the run-scoped UUID lookup shared between the
// build phase and the formatting/diff phase.
//
// # Lifecycle
//
// A Resolver starts in the building state, accepting Register calls while
// blueprints are parsed. Freeze() finalizes it into a read-only lookup;
// registration after Freeze fails with ErrResolverFrozen. The two-state
// split guarantees readers never observe a partially populated resolver:
// the engine freezes before any formatting or diff step runs.
//
// # Resolution failures
//
// Resolution misses are non-fatal by contract. Exported packages
// routinely reference environment-specific objects outside the uploaded
// archives, so callers substitute a placeholder (typically the raw UUID)
// instead of aborting. DisplayName encodes that fallback.
package resolver

import (
	"errors"
	"sync"

	"github.com/AleutianAI/appmerge/services/appmerge/model"
)

// ErrResolverFrozen is returned when registering after Freeze().
var ErrResolverFrozen = errors.New("resolver is frozen and cannot accept registrations")

// State represents the lifecycle state of the resolver.
type State int

const (
	// StateBuilding indicates the resolver is accepting Register calls.
	StateBuilding State = iota

	// StateFrozen indicates the resolver is finalized and read-only.
	StateFrozen
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateFrozen:
		return "frozen"
	default:
		return "unknown"
	}
}

// Resolver maps stable object UUIDs to object records across every
// blueprint of one comparison run.
//
// Thread Safety: safe for concurrent use. Registration and reads are
// guarded by a RWMutex; after Freeze() all access is read-only.
type Resolver struct {
	mu         sync.RWMutex
	state      State
	objects    map[string]*model.AppObject
	overwrites int
}

// New creates an empty Resolver in the building state.
func New() *Resolver {
	return &Resolver{
		objects: make(map[string]*model.AppObject),
	}
}

// Register inserts or overwrites an object by UUID. Last write wins:
// when the same logical object appears in several blueprints, the most
// recently registered appearance provides the display name. Returns
// ErrResolverFrozen after Freeze().
func (r *Resolver) Register(obj *model.AppObject) error {
	if obj == nil || obj.UUID == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateFrozen {
		return ErrResolverFrozen
	}
	if _, ok := r.objects[obj.UUID]; ok {
		r.overwrites++
	}
	r.objects[obj.UUID] = obj
	return nil
}

// Freeze finalizes the resolver into its read-only state. Idempotent.
func (r *Resolver) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StateFrozen
}

// State returns the current lifecycle state.
func (r *Resolver) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Resolve looks up an object by UUID.
func (r *Resolver) Resolve(uuid string) (*model.AppObject, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	obj, ok := r.objects[uuid]
	return obj, ok
}

// DisplayName returns the registered display name for a UUID. The second
// return reports whether the lookup resolved; on a miss the first return
// is the raw UUID so callers can substitute it directly.
func (r *Resolver) DisplayName(uuid string) (string, bool) {
	obj, ok := r.Resolve(uuid)
	if !ok || obj.Name == "" {
		return uuid, false
	}
	return obj.Name, true
}

// Len returns the number of registered objects.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.objects)
}

// Overwrites returns how many registrations replaced an earlier entry.
func (r *Resolver) Overwrites() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.overwrites
}
