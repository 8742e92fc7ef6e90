// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package archive reads application package archives.
//
// A package is a zip archive carrying one XML document per design object
// under objects/, plus META-INF/manifest.xml enumerating the documents.
// Archive-level failures are the only fatal error class in a comparison
// run: a package that cannot be opened or enumerated yields no
// trustworthy partial blueprint. Everything below archive level (missing
// manifest, oversized entries) degrades to warnings.
package archive

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/AleutianAI/appmerge/services/appmerge/model"
)

// Default reader configuration values.
const (
	// DefaultMaxEntryBytes is the default per-entry size limit (32MB).
	// Entries above the limit are not read; the builder downgrades them
	// to Unknown objects.
	DefaultMaxEntryBytes int64 = 32 << 20

	// manifestPath is the manifest location inside the archive.
	manifestPath = "META-INF/manifest.xml"

	// objectPrefix is the directory holding object documents.
	objectPrefix = "objects/"
)

// Entry is one object document read from the archive.
type Entry struct {
	// Path is the entry path inside the archive.
	Path string

	// Data is the raw document bytes. Nil when the entry exceeded the
	// size limit; Oversized is set instead.
	Data []byte

	// Oversized indicates the entry exceeded the size limit and was not
	// read.
	Oversized bool
}

// Package is the enumerated content of one archive.
type Package struct {
	// Name is the application name declared by the manifest, or the
	// archive label when no manifest was present.
	Name string

	// Version is the application version declared by the manifest.
	Version string

	// Entries are the object documents in manifest order (or lexical
	// entry order when the manifest was missing).
	Entries []Entry

	// Warnings are archive-level data-quality warnings.
	Warnings []model.Warning
}

// manifest mirrors META-INF/manifest.xml.
type manifest struct {
	XMLName     xml.Name        `xml:"manifest"`
	Application string          `xml:"application,attr"`
	Version     string          `xml:"version,attr"`
	Entries     []manifestEntry `xml:"entry"`
}

type manifestEntry struct {
	Path string `xml:"path,attr"`
}

// ReaderOption is a functional option for configuring Reader.
type ReaderOption func(*Reader)

// WithMaxEntryBytes sets the per-entry size limit.
func WithMaxEntryBytes(n int64) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.maxEntryBytes = n
		}
	}
}

// Reader opens and enumerates package archives.
//
// Thread Safety: safe for concurrent use; Reader holds no per-call state.
type Reader struct {
	maxEntryBytes int64
}

// NewReader creates a Reader with the given options.
func NewReader(opts ...ReaderOption) *Reader {
	r := &Reader{maxEntryBytes: DefaultMaxEntryBytes}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open reads a package archive from disk.
//
// Returns ErrArchiveOpen (wrapped) when the file cannot be opened as a
// zip archive; this is fatal for the comparison run.
func (r *Reader) Open(pathOnDisk string) (*Package, error) {
	zr, err := zip.OpenReader(pathOnDisk)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArchiveOpen, pathOnDisk, err)
	}
	defer zr.Close()
	return r.enumerate(&zr.Reader, path.Base(pathOnDisk))
}

// OpenBytes reads a package archive from memory. Used by callers that
// already hold the upload in a buffer, and by tests.
func (r *Reader) OpenBytes(data []byte, label string) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArchiveOpen, label, err)
	}
	return r.enumerate(zr, label)
}

func (r *Reader) enumerate(zr *zip.Reader, label string) (*Package, error) {
	pkg := &Package{Name: label}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	paths, ok := r.manifestPaths(files, pkg)
	if !ok {
		// No usable manifest: enumerate objects/ directly, in stable
		// lexical order.
		for name := range files {
			if strings.HasPrefix(name, objectPrefix) && strings.HasSuffix(name, ".xml") {
				paths = append(paths, name)
			}
		}
		sort.Strings(paths)
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s: no object documents found", ErrArchiveEmpty, label)
	}

	for _, p := range paths {
		f, ok := files[p]
		if !ok {
			pkg.Warnings = append(pkg.Warnings, model.Warning{
				Code:    model.WarnParseFailure,
				Message: "manifest references missing entry " + p,
			})
			continue
		}
		entry, err := r.readEntry(f)
		if err != nil {
			return nil, err
		}
		if entry.Oversized {
			pkg.Warnings = append(pkg.Warnings, model.Warning{
				Code:    model.WarnEntryTooLarge,
				Message: fmt.Sprintf("entry %s exceeds %d bytes; content not read", p, r.maxEntryBytes),
			})
		}
		pkg.Entries = append(pkg.Entries, entry)
	}

	return pkg, nil
}

// manifestPaths reads the manifest and returns the declared entry paths.
// A missing or malformed manifest degrades to a warning; the caller
// falls back to direct enumeration.
func (r *Reader) manifestPaths(files map[string]*zip.File, pkg *Package) ([]string, bool) {
	mf, ok := files[manifestPath]
	if !ok {
		pkg.Warnings = append(pkg.Warnings, model.Warning{
			Code:    model.WarnMissingManifest,
			Message: "archive has no " + manifestPath + "; enumerating objects directly",
		})
		return nil, false
	}

	rc, err := mf.Open()
	if err != nil {
		pkg.Warnings = append(pkg.Warnings, model.Warning{
			Code:    model.WarnMissingManifest,
			Message: "manifest unreadable: " + err.Error(),
		})
		return nil, false
	}
	defer rc.Close()

	var m manifest
	if err := xml.NewDecoder(rc).Decode(&m); err != nil {
		pkg.Warnings = append(pkg.Warnings, model.Warning{
			Code:    model.WarnMissingManifest,
			Message: "manifest malformed: " + err.Error(),
		})
		return nil, false
	}

	if m.Application != "" {
		pkg.Name = m.Application
	}
	pkg.Version = m.Version

	paths := make([]string, 0, len(m.Entries))
	for _, e := range m.Entries {
		if e.Path != "" {
			paths = append(paths, e.Path)
		}
	}
	return paths, true
}

func (r *Reader) readEntry(f *zip.File) (Entry, error) {
	if int64(f.UncompressedSize64) > r.maxEntryBytes {
		return Entry{Path: f.Name, Oversized: true}, nil
	}
	rc, err := f.Open()
	if err != nil {
		return Entry{}, fmt.Errorf("%w: entry %s: %v", ErrArchiveOpen, f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, r.maxEntryBytes+1))
	if err != nil {
		return Entry{}, fmt.Errorf("%w: entry %s: %v", ErrArchiveOpen, f.Name, err)
	}
	if int64(len(data)) > r.maxEntryBytes {
		return Entry{Path: f.Name, Oversized: true}, nil
	}
	return Entry{Path: f.Name, Data: data}, nil
}
