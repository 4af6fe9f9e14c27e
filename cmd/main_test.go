// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"privacy-sentinel/internal/formatters/shared"
)

// run executes the CLI with a throwaway config file and returns stdout
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sentinel.yaml")
	cfg := "suppressions:\n  file: " + filepath.Join(dir, "rules.yaml") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	var out, errOut bytes.Buffer
	root := newRootCmd(strings.NewReader(stdin), &out, &errOut)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestScanText_JSON(t *testing.T) {
	out, err := run(t, "", "scan", "--text", "mail john@example.com", "--format", "json")
	require.NoError(t, err)

	var resp shared.JSONResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "j****@e****", resp.Results[0].Value)
	assert.Equal(t, "text", resp.Source)
	assert.NotContains(t, out, "john@example.com")
}

func TestScanStdin(t *testing.T) {
	out, err := run(t, "card 4111 1111 1111 1111\n", "scan", "--format", "csv", "--show-match")
	require.NoError(t, err)
	assert.Contains(t, out, "stdin,CreditCard,high")
	assert.Contains(t, out, "4111 1111 1111 1111")
}

func TestScanFile_RenderText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("mail john@example.com\n"), 0o600))

	out, err := run(t, "", "scan", "--file", path, "--render", "--masked", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "Email")
	assert.Contains(t, out, "=== Rendered Text ===")
	assert.Contains(t, out, "[Email:j****@e****]")
	assert.False(t, regexp.MustCompile("\x1b\\[").MatchString(out), "no ANSI escapes expected")
}

func TestScanOutputFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "report.yaml")
	out, err := run(t, "", "scan", "--text", "mail john@example.com", "--format", "yaml", "--output", dest)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "category: Email")
}

func TestScan_Errors(t *testing.T) {
	_, err := run(t, "", "scan", "--text", "x", "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")

	_, err = run(t, "", "scan", "--text", "x", "--profile", "missing")
	assert.ErrorContains(t, err, `profile "missing" not found`)

	_, err = run(t, "", "scan", "--text", "x", "--categories", "SSN")
	assert.Error(t, err)

	_, err = run(t, "", "scan", "--file", filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)

	_, err = run(t, "", "scan", "--text", "x", "--file", "y.txt")
	assert.Error(t, err)
}

func TestScan_Profile(t *testing.T) {
	out, err := run(t, "", "scan", "--profile", "financial", "--format", "json",
		"--text", "mail john@example.com, card 4111 1111 1111 1111")
	require.NoError(t, err)

	var resp shared.JSONResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, 1, resp.Total)
	assert.EqualValues(t, "CreditCard", resp.Results[0].Category)
}

func TestSuppressLifecycle(t *testing.T) {
	rules := filepath.Join(t.TempDir(), "rules.yaml")

	out, err := run(t, "", "suppress", "add", "--suppression-file", rules,
		"--category", "email", "--value", "john@example.com", "--reason", "test account")
	require.NoError(t, err)
	assert.Contains(t, out, "Added suppression rule SUP-")
	id := regexp.MustCompile(`SUP-[0-9A-F]{8}`).FindString(out)
	require.NotEmpty(t, id)

	data, err := os.ReadFile(rules)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "john@example.com")

	out, err = run(t, "", "scan", "--text", "mail john@example.com", "--format", "json", "--suppression-file", rules)
	require.NoError(t, err)
	var resp shared.JSONResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 0, resp.Total)
	require.Len(t, resp.Suppressed, 1)
	assert.Equal(t, id, resp.Suppressed[0].SuppressedBy)

	out, err = run(t, "", "suppress", "list", "--suppression-file", rules)
	require.NoError(t, err)
	assert.Contains(t, out, "ID: "+id)
	assert.Contains(t, out, "Value: j****@e****")

	out, err = run(t, "", "suppress", "cleanup", "--suppression-file", rules)
	require.NoError(t, err)
	assert.Contains(t, out, "Cleaned up 0 expired")

	out, err = run(t, "", "suppress", "remove", strings.ToLower(id), "--suppression-file", rules)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed suppression rule "+id)

	_, err = run(t, "", "suppress", "remove", id, "--suppression-file", rules)
	assert.Error(t, err)

	_, err = run(t, "", "suppress", "add", "--suppression-file", rules,
		"--category", "SSN", "--value", "1", "--reason", "x")
	assert.ErrorContains(t, err, "unknown category")
}

func TestProfilesAndVersion(t *testing.T) {
	out, err := run(t, "", "profiles")
	require.NoError(t, err)
	assert.Contains(t, out, "financial")
	assert.Contains(t, out, "redact")

	out, err = run(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "sentinel "))

	out, err = run(t, "", "version", "--json")
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "go_version")
}
