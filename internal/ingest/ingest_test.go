// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestExtract_PlainText(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("\ufeffContact: john@example.com\nsecond line"))

	doc, err := Extract(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Contact: john@example.com\nsecond line", doc.Text)
	assert.Equal(t, "txt", doc.Format)
	assert.Equal(t, "notes.txt", doc.Filename)
	assert.Equal(t, 2, doc.LineCount)
}

func TestExtract_HTML(t *testing.T) {
	page := `<html><head><title>Profile</title><script>var x = "9876543210";</script></head>
<body><p>Name: <b>Asha Verma</b></p><p>Email &amp; phone: a@b.co</p></body></html>`
	path := writeFile(t, "page.html", []byte(page))

	doc, err := Extract(path, Options{})
	require.NoError(t, err)
	assert.NotContains(t, doc.Text, "<")
	assert.NotContains(t, doc.Text, "9876543210", "script content must be dropped")
	assert.Contains(t, doc.Text, "Name: Asha Verma\n")
	assert.Contains(t, doc.Text, "Email & phone: a@b.co")
}

func TestStripHTML_KeepsBlocksApart(t *testing.T) {
	assert.Equal(t, "one\ntwo\n", StripHTML("<div>one</div><div>two</div>"))
	assert.Equal(t, "a\nb", StripHTML("a<br/>b"))
}

func TestExtract_Errors(t *testing.T) {
	_, err := Extract(writeFile(t, "archive.zip", []byte("PK")), Options{})
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = Extract(writeFile(t, "big.txt", []byte(strings.Repeat("x", 64))), Options{MaxFileBytes: 10})
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = Extract(writeFile(t, "bin.txt", []byte{0xff, 0xfe, 0x00, 0x41}), Options{})
	assert.ErrorIs(t, err, ErrNotUTF8)

	_, err = Extract(filepath.Join(t.TempDir(), "missing.txt"), Options{})
	assert.Error(t, err)
}

func TestExtract_ImageWithoutExif(t *testing.T) {
	path := writeFile(t, "photo.jpg", []byte{0xff, 0xd8, 0xff, 0xd9})

	doc, err := Extract(path, Options{})
	require.NoError(t, err)
	assert.Empty(t, doc.Text)
	assert.Equal(t, "jpg", doc.Format)
}

func TestExtractReader(t *testing.T) {
	doc, err := ExtractReader("upload.csv", strings.NewReader("name,phone\nRavi,9876543210\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, "upload.csv", doc.Filename)
	assert.Equal(t, "csv", doc.Format)
	assert.Contains(t, doc.Text, "9876543210")

	_, err = ExtractReader("upload.txt", strings.NewReader(strings.Repeat("y", 20)), Options{MaxFileBytes: 8})
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = ExtractReader("upload.exe", strings.NewReader("MZ"), Options{})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a.PDF"))
	assert.True(t, Supported("dir/b.jpeg"))
	assert.False(t, Supported("c.docx"))
	assert.Contains(t, Extensions(), ".csv")
	assert.Contains(t, Extensions(), ".tiff")
}

func TestAppendMetadata(t *testing.T) {
	got := appendMetadata("body", map[string]string{"Title": "Report", "Author": "Meera Nair"})
	assert.Equal(t, "body\n--- Document Metadata ---\nAuthor: Meera Nair\nTitle: Report\n", got)
	assert.Equal(t, "body", appendMetadata("body", nil))
}
