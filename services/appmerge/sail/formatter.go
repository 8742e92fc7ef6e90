// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sail rewrites embedded SAIL source for human readability,
// substituting resolved display names for opaque references.
//
// Exactly three reference patterns are recognized:
//
//	#"SYSTEM_SYSRULES_<ident>"   system rule        -> a!<ident>
//	rule!{<id>} / type!{<id>}    object reference   -> rule!<Name> / type!<Name>
//	cons!{<id>}<IDENT>           constant reference -> cons!<Name>
//
// Nothing outside the three patterns is touched: the formatter performs
// no generic reformatting, and a reference whose id does not resolve
// keeps its original opaque token.
package sail

import (
	"regexp"
)

// NameLookup resolves an object id to its display name. The boolean
// reports whether the lookup resolved; on a miss the formatter keeps the
// original token. resolver.Resolver satisfies this.
type NameLookup interface {
	DisplayName(id string) (string, bool)
}

// Reference ids appear either as RFC UUIDs or as Appian's underscore
// form ("_a-0000e4c9-...").
const idBody = `[0-9a-zA-Z_][0-9a-zA-Z_-]{7,63}`

var (
	sysRulePattern  = regexp.MustCompile(`#"SYSTEM_SYSRULES_([A-Za-z0-9_]+)"`)
	objectPattern   = regexp.MustCompile(`\b(rule|type)!\{(` + idBody + `)\}`)
	constantPattern = regexp.MustCompile(`\bcons!\{(` + idBody + `)\}([A-Za-z0-9_]*)`)
)

// Formatter substitutes resolved names into SAIL source.
//
// Thread Safety: safe for concurrent use; the formatter holds only the
// read-only lookup.
type Formatter struct {
	lookup NameLookup
}

// New creates a Formatter over a finalized lookup. The lookup must be
// fully populated before the first Format call; the engine freezes the
// resolver before any formatting step runs.
func New(lookup NameLookup) *Formatter {
	return &Formatter{lookup: lookup}
}

// Format rewrites the three reference patterns in source. Unresolvable
// references are left untouched.
func (f *Formatter) Format(source string) string {
	if source == "" {
		return source
	}

	out := sysRulePattern.ReplaceAllString(source, `a!$1`)

	out = objectPattern.ReplaceAllStringFunc(out, func(tok string) string {
		m := objectPattern.FindStringSubmatch(tok)
		name, ok := f.lookup.DisplayName(m[2])
		if !ok {
			return tok
		}
		return m[1] + "!" + name
	})

	out = constantPattern.ReplaceAllStringFunc(out, func(tok string) string {
		m := constantPattern.FindStringSubmatch(tok)
		name, ok := f.lookup.DisplayName(m[1])
		if !ok {
			return tok
		}
		return "cons!" + name
	})

	return out
}

// ReferencedIDs returns every object id the three patterns reference in
// source, in first-appearance order without duplicates. Used to report
// unresolved references as warnings.
func ReferencedIDs(source string) []string {
	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, m := range objectPattern.FindAllStringSubmatch(source, -1) {
		add(m[2])
	}
	for _, m := range constantPattern.FindAllStringSubmatch(source, -1) {
		add(m[1])
	}
	return ids
}
