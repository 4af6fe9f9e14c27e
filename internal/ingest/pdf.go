// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// maxPDFPages bounds extraction time on very large documents
const maxPDFPages = 200

type pdfText struct{}

func (pdfText) Name() string { return "PDF" }

func (pdfText) Extensions() []string { return []string{".pdf"} }

func (pdfText) Extract(path string, opts Options) (*Document, error) {
	conf := model.NewDefaultConfiguration()
	if err := api.ValidateFile(path, conf); err != nil {
		return nil, fmt.Errorf("invalid PDF file: %w", err)
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening PDF: %w", err)
	}
	defer f.Close()

	pages := r.NumPage()
	if pages > maxPDFPages {
		pages = maxPDFPages
	}

	var buf bytes.Buffer
	for i := 1; i <= pages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := pageText(p)
		if err != nil {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(text)
	}

	doc := &Document{Format: "pdf", PageCount: r.NumPage(), Text: buf.String()}
	if !opts.SkipMetadata {
		doc.Metadata = pdfInfo(path)
		doc.Text = appendMetadata(doc.Text, doc.Metadata)
	}
	return doc, nil
}

// pageText joins text rows top to bottom, falling back to the plain text
// stream when row grouping fails.
func pageText(p pdf.Page) (string, error) {
	rows, err := p.GetTextByRow()
	if err != nil {
		return p.GetPlainText(nil)
	}

	var b strings.Builder
	for _, row := range rows {
		if row == nil {
			continue
		}
		var line strings.Builder
		for _, t := range row.Content {
			line.WriteString(t.S)
		}
		if s := strings.TrimSpace(line.String()); s != "" {
			b.WriteString(s)
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

// pdfInfo reads the document information dictionary
func pdfInfo(path string) map[string]string {
	ctx, err := api.ReadContextFile(path)
	if err != nil || ctx.XRefTable == nil {
		return nil
	}
	x := ctx.XRefTable
	meta := map[string]string{}
	for k, v := range map[string]string{
		"Title":    x.Title,
		"Author":   x.Author,
		"Subject":  x.Subject,
		"Keywords": x.Keywords,
		"Creator":  x.Creator,
		"Producer": x.Producer,
	} {
		if v = strings.TrimSpace(v); v != "" {
			meta[k] = v
		}
	}
	for k, v := range x.Properties {
		if v = strings.TrimSpace(v); v != "" {
			meta[k] = v
		}
	}
	return meta
}
