// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"privacy-sentinel/internal/config"
	"privacy-sentinel/internal/observability"
	"privacy-sentinel/internal/version"
)

// app carries the state shared by all subcommands
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configFile string
	logLevel   string
	logFormat  string

	logger zerolog.Logger
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, errOut: errOut, logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "sentinel",
		Short: "Detect, mask and summarize personal data in text and documents",
		Long: `sentinel finds personally identifiable information (names, emails, phone
numbers, card and account numbers, government IDs, addresses and dates of
birth) in text, PDFs, HTML and image metadata. It reports each finding with
a masked value and confidence, and can render a redacted copy of the text.`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Logs go to stderr so stdout stays clean for reports.
			a.logger = observability.NewLogger(a.errOut, a.logLevel, a.logFormat)
			return nil
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "configuration file (default: ./sentinel.yaml or the user config directory)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "console", "log format (console, json)")

	root.AddCommand(
		newScanCmd(a),
		newServeCmd(a),
		newProfilesCmd(a),
		newSuppressCmd(a),
		newVersionCmd(a),
	)
	return root
}

// loadConfig loads the file named by --config, or the first default
// location that exists. An explicit file that fails to load is an error.
func (a *app) loadConfig() (*config.Config, error) {
	path := a.configFile
	if path == "" {
		path = config.FindConfigFile()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		if a.configFile != "" {
			return nil, err
		}
		a.logger.Warn().Err(err).Str("path", path).Msg("ignoring unreadable config file")
		return config.Default(), nil
	}
	if path != "" {
		a.logger.Debug().Str("path", path).Msg("loaded config")
	}
	return cfg, nil
}

// isTerminal reports whether w is a terminal
func isTerminal(w interface{}) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func newVersionCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if asJSON {
				return writeJSON(a.out, version.Full())
			}
			_, err := fmt.Fprintln(a.out, version.Info())
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print build information as JSON")
	return cmd
}

func newProfilesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the scan profiles in the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			names := cfg.ListProfiles()
			if len(names) == 0 {
				fmt.Fprintln(a.out, "No profiles defined.")
				return nil
			}
			for _, name := range names {
				p := cfg.Profiles[name]
				fmt.Fprintf(a.out, "%-16s %s\n", name, p.Description)
			}
			return nil
		},
	}
}
