// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

type imageMetadata struct{}

func (imageMetadata) Name() string { return "Image Metadata" }

func (imageMetadata) Extensions() []string { return []string{".jpg", ".jpeg", ".tif", ".tiff"} }

// Extract reports the textual EXIF tags of an image. Images without EXIF
// data yield an empty document rather than an error.
func (imageMetadata) Extract(path string, opts Options) (*Document, error) {
	doc := &Document{Format: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")}
	if opts.SkipMetadata {
		return doc, nil
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return doc, nil
	}

	w := &exifWalker{tags: map[string]string{}}
	if err := x.Walk(w); err != nil {
		return nil, fmt.Errorf("error reading EXIF tags: %w", err)
	}
	if lat, long, err := x.LatLong(); err == nil {
		w.tags["GPSPosition"] = fmt.Sprintf("%.6f, %.6f", lat, long)
	}

	doc.Metadata = w.tags
	doc.Text = appendMetadata("", w.tags)
	return doc, nil
}

type exifWalker struct {
	tags map[string]string
}

// Walk keeps string-valued tags only.
func (w *exifWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if tag == nil || tag.Format() != tiff.StringVal {
		return nil
	}
	s, err := tag.StringVal()
	if err != nil {
		return nil
	}
	if s = strings.TrimSpace(strings.TrimRight(s, "\x00")); s != "" {
		w.tags[string(name)] = s
	}
	return nil
}
