// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"privacy-sentinel/internal/config"
	"privacy-sentinel/internal/core"
	"privacy-sentinel/internal/formatters"
	"privacy-sentinel/internal/ingest"

	// Register the report formatters.
	_ "privacy-sentinel/internal/formatters/csv"
	_ "privacy-sentinel/internal/formatters/json"
	_ "privacy-sentinel/internal/formatters/text"
	_ "privacy-sentinel/internal/formatters/yaml"
)

// scanFlags holds the raw flag values; only flags the user set override
// the resolved profile
type scanFlags struct {
	file            string
	text            string
	format          string
	masked          bool
	render          bool
	showMatch       bool
	verbose         bool
	confidence      string
	categories      string
	output          string
	profile         string
	supplemental    bool
	suppressionFile string
	noColor         bool
}

func newScanCmd(a *app) *cobra.Command {
	f := &scanFlags{}
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a file, a string or standard input for personal data",
		Example: `  sentinel scan --text "mail me at jane@example.com"
  sentinel scan --file statement.pdf --format json --categories CreditCard,BankAccount
  cat notes.txt | sentinel scan --render --masked`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runScan(cmd, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.file, "file", "f", "", "file to scan (.txt, .csv, .md, .json, .html, .pdf, .jpg, .tiff, ...)")
	fl.StringVarP(&f.text, "text", "t", "", "text to scan")
	fl.StringVar(&f.format, "format", "", "output format: "+strings.Join(config.Formats, ", "))
	fl.BoolVar(&f.masked, "masked", false, "render masked values instead of raw ones")
	fl.BoolVar(&f.render, "render", false, "include the annotated text in the report")
	fl.BoolVar(&f.showMatch, "show-match", false, "show raw matched values in findings")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "show the line around each finding")
	fl.StringVar(&f.confidence, "confidence", "", "confidence levels to report: all, or a list of high, medium, low")
	fl.StringVar(&f.categories, "categories", "", "categories to detect: all, or a comma-separated list")
	fl.StringVarP(&f.output, "output", "o", "", "write the report to this file instead of stdout")
	fl.StringVar(&f.profile, "profile", "", "named profile from the configuration")
	fl.BoolVar(&f.supplemental, "supplemental", false, "enable model-backed supplemental detection")
	fl.StringVar(&f.suppressionFile, "suppression-file", "", "suppression rule file (default from configuration)")
	fl.BoolVar(&f.noColor, "no-color", false, "disable colored output")
	cmd.MarkFlagsMutuallyExclusive("file", "text")
	return cmd
}

// resolve applies the profile and then every flag the user set
func (f *scanFlags) resolve(cmd *cobra.Command, cfg *config.Config) (config.Defaults, bool, error) {
	d, supplemental, err := cfg.Resolve(f.profile)
	if err != nil {
		return d, false, err
	}

	changed := cmd.Flags().Changed
	if changed("format") {
		d.Format = strings.ToLower(f.format)
	}
	if changed("confidence") {
		d.ConfidenceLevels = f.confidence
	}
	if changed("categories") {
		d.Categories = f.categories
	}
	if changed("masked") {
		d.Masked = f.masked
	}
	if changed("render") {
		d.Render = f.render
	}
	if changed("show-match") {
		d.ShowMatch = f.showMatch
	}
	if changed("verbose") {
		d.Verbose = f.verbose
	}
	if changed("no-color") {
		d.NoColor = f.noColor
	}
	if changed("supplemental") {
		supplemental = f.supplemental
	}

	if err := config.ValidateFormat(d.Format); err != nil {
		return d, false, err
	}
	if err := config.ValidateConfidenceLevels(d.ConfidenceLevels); err != nil {
		return d, false, err
	}
	return d, supplemental, nil
}

func (a *app) runScan(cmd *cobra.Command, f *scanFlags) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	d, supplemental, err := f.resolve(cmd, cfg)
	if err != nil {
		return err
	}

	engine, err := core.BuildEngine(cfg, d, supplemental, a.logger)
	if err != nil {
		return err
	}
	sm, err := core.BuildSuppressionManager(cfg, f.suppressionFile)
	if err != nil {
		return err
	}

	scanConfig := core.ScanConfig{
		Engine:             engine,
		Ingest:             ingest.Options{MaxFileBytes: cfg.Ingest.MaxFileBytes},
		Render:             d.Render,
		Masked:             d.Masked,
		SuppressionManager: sm,
	}

	var result *core.ScanResult
	switch {
	case f.file != "":
		scanConfig.FilePath = f.file
		result, err = core.ScanFile(cmd.Context(), scanConfig)
	case cmd.Flags().Changed("text"):
		scanConfig.Text = f.text
		result, err = core.ScanText(cmd.Context(), scanConfig)
	default:
		if isTerminal(a.in) {
			return errors.New("nothing to scan: use --file, --text or pipe text on standard input")
		}
		data, rerr := io.ReadAll(io.LimitReader(a.in, cfg.Ingest.MaxFileBytes+1))
		if rerr != nil {
			return fmt.Errorf("failed to read standard input: %w", rerr)
		}
		if int64(len(data)) > cfg.Ingest.MaxFileBytes {
			return fmt.Errorf("%w: standard input (limit %d bytes)", ingest.ErrTooLarge, cfg.Ingest.MaxFileBytes)
		}
		scanConfig.Text = string(data)
		scanConfig.Source = "stdin"
		result, err = core.ScanText(cmd.Context(), scanConfig)
	}
	if err != nil {
		return err
	}

	a.logger.Info().
		Str("scan_id", result.ScanID).
		Str("source", result.Source).
		Int("matches", len(result.Matches)).
		Int("suppressed", len(result.SuppressedMatches)).
		Dur("duration", result.Duration).
		Msg("scan complete")

	out := a.out
	if f.output != "" {
		file, err := os.OpenFile(filepath.Clean(f.output), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	report, err := formatters.Export(d.Format, formatters.NewReport(result), formatters.FormatterOptions{
		ConfidenceLevel: core.ParseConfidenceLevels(d.ConfidenceLevels),
		Verbose:         d.Verbose,
		NoColor:         d.NoColor || !isTerminal(out),
		ShowMatch:       d.ShowMatch,
		ShowRendered:    d.Render,
	})
	if err != nil {
		return err
	}
	if _, err := io.WriteString(out, report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
