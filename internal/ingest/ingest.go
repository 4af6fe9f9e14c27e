// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package ingest turns files into plain text ready for detection.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultMaxFileBytes caps input size when Options leaves it unset
const DefaultMaxFileBytes int64 = 25 << 20

var (
	// ErrUnsupported is returned for file types no extractor handles
	ErrUnsupported = errors.New("file type not supported")
	// ErrTooLarge is returned for files above the configured size limit
	ErrTooLarge = errors.New("file exceeds size limit")
	// ErrNotUTF8 is returned for plain text that is not valid UTF-8
	ErrNotUTF8 = errors.New("file is not valid UTF-8 text")
)

// Options controls extraction
type Options struct {
	MaxFileBytes int64
	// SkipMetadata omits document properties and EXIF tags from the text
	SkipMetadata bool
}

func (o Options) maxBytes() int64 {
	if o.MaxFileBytes <= 0 {
		return DefaultMaxFileBytes
	}
	return o.MaxFileBytes
}

// Document is the extracted content of a single file
type Document struct {
	Path      string            `json:"path"`
	Filename  string            `json:"filename"`
	Format    string            `json:"format"`
	Text      string            `json:"-"`
	PageCount int               `json:"page_count,omitempty"`
	CharCount int               `json:"char_count"`
	LineCount int               `json:"line_count"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Extractor handles one family of file types
type Extractor interface {
	Name() string
	Extensions() []string
	Extract(path string, opts Options) (*Document, error)
}

var extractors = []Extractor{
	plainText{},
	htmlText{},
	pdfText{},
	imageMetadata{},
}

// Extensions lists every supported file extension, sorted
func Extensions() []string {
	var out []string
	for _, e := range extractors {
		out = append(out, e.Extensions()...)
	}
	sort.Strings(out)
	return out
}

// Supported reports whether a file name has a supported extension
func Supported(name string) bool {
	return extractorFor(name) != nil
}

func extractorFor(name string) Extractor {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extractors {
		for _, supported := range e.Extensions() {
			if ext == supported {
				return e
			}
		}
	}
	return nil
}

// Extract reads path with the extractor registered for its extension
func Extract(path string, opts Options) (*Document, error) {
	e := extractorFor(path)
	if e == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > opts.maxBytes() {
		return nil, fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrTooLarge, path, info.Size(), opts.maxBytes())
	}

	doc, err := e.Extract(path, opts)
	if err != nil {
		return nil, err
	}
	doc.Path = path
	doc.Filename = filepath.Base(path)
	doc.CharCount = len([]rune(doc.Text))
	doc.LineCount = strings.Count(doc.Text, "\n") + 1
	return doc, nil
}

// ExtractReader spools r to a temporary file named like name and extracts
// it. Reading stops one byte past the size limit.
func ExtractReader(name string, r io.Reader, opts Options) (*Document, error) {
	if !Supported(name) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(name))
	}

	tmp, err := os.CreateTemp("", "sentinel-*"+strings.ToLower(filepath.Ext(name)))
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(r, opts.maxBytes()+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to buffer upload: %w", err)
	}
	if n > opts.maxBytes() {
		return nil, fmt.Errorf("%w: %s (limit %d bytes)", ErrTooLarge, name, opts.maxBytes())
	}

	doc, err := Extract(tmp.Name(), opts)
	if err != nil {
		return nil, err
	}
	doc.Path = name
	doc.Filename = filepath.Base(name)
	return doc, nil
}

// appendMetadata adds sorted key/value lines under a header so that
// properties are scanned like body text.
func appendMetadata(text string, meta map[string]string) string {
	if len(meta) == 0 {
		return text
	}
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(text)
	if text != "" && !strings.HasSuffix(text, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("--- Document Metadata ---\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, meta[k])
	}
	return b.String()
}
