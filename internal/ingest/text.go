// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

type plainText struct{}

func (plainText) Name() string { return "Plain Text" }

func (plainText) Extensions() []string {
	return []string{".txt", ".text", ".csv", ".tsv", ".md", ".log", ".json", ".jsonl", ".yaml", ".yml"}
}

func (plainText) Extract(path string, _ Options) (*Document, error) {
	content, err := readUTF8(path)
	if err != nil {
		return nil, err
	}
	return &Document{
		Format: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		Text:   content,
	}, nil
}

func readUTF8(path string) (string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	content := strings.TrimPrefix(string(data), "\ufeff")
	if !utf8.ValidString(content) {
		return "", fmt.Errorf("%w: %s", ErrNotUTF8, path)
	}
	return content, nil
}

// blockBoundary matches tags that end a visual line
var blockBoundary = regexp.MustCompile(`(?i)<(?:br|/p|/div|/li|/tr|/h[1-6]|/title)\b[^>]*>`)

type htmlText struct{}

func (htmlText) Name() string { return "HTML" }

func (htmlText) Extensions() []string { return []string{".html", ".htm"} }

func (htmlText) Extract(path string, _ Options) (*Document, error) {
	content, err := readUTF8(path)
	if err != nil {
		return nil, err
	}
	return &Document{Format: "html", Text: StripHTML(content)}, nil
}

// StripHTML removes all markup and decodes entities. Block-level closing
// tags become newlines so words from adjacent blocks stay apart.
func StripHTML(s string) string {
	s = blockBoundary.ReplaceAllStringFunc(s, func(tag string) string { return "\n" + tag })
	s = bluemonday.StrictPolicy().Sanitize(s)
	return html.UnescapeString(s)
}
