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
	"bytes"
	"encoding/xml"
	"io"
	"sort"
	"strings"
)

// versionMarkerAttr is excluded from the canonical form so that marker
// churn can never leak into the content hash.
const versionMarkerAttr = "versionUuid"

// Canonicalize produces a deterministic byte form of a document for
// hashing: attributes sorted by name, the version marker dropped,
// whitespace-only character data removed, LF line endings, and trailing
// space stripped per line. Two documents that differ only in
// re-serialization cosmetics canonicalize identically.
//
// Input that is not well-formed XML falls back to text canonicalization
// of the raw bytes (line endings and trailing space only), so Unknown
// objects still hash deterministically.
func Canonicalize(raw []byte) []byte {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	var buf bytes.Buffer

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return canonicalizeText(raw)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			buf.WriteByte('<')
			buf.WriteString(t.Name.Local)
			writeCanonicalAttrs(&buf, t.Attr)
			buf.WriteByte('>')
		case xml.EndElement:
			buf.WriteString("</")
			buf.WriteString(t.Name.Local)
			buf.WriteByte('>')
		case xml.CharData:
			text := canonicalizeText(t)
			if len(bytes.TrimSpace(text)) == 0 {
				continue
			}
			buf.Write(text)
		}
		// Comments, directives, and processing instructions are
		// insignificant for content identity.
	}

	return buf.Bytes()
}

func writeCanonicalAttrs(buf *bytes.Buffer, attrs []xml.Attr) {
	filtered := make([]xml.Attr, 0, len(attrs))
	for _, a := range attrs {
		if a.Name.Local == versionMarkerAttr {
			continue
		}
		filtered = append(filtered, a)
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Name.Local < filtered[j].Name.Local
	})
	for _, a := range filtered {
		buf.WriteByte(' ')
		buf.WriteString(a.Name.Local)
		buf.WriteString(`="`)
		buf.WriteString(a.Value)
		buf.WriteByte('"')
	}
}

// canonicalizeText normalizes CRLF to LF and strips trailing whitespace
// from every line.
func canonicalizeText(raw []byte) []byte {
	s := strings.ReplaceAll(string(raw), "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return []byte(strings.Join(lines, "\n"))
}
