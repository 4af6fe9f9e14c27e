// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"privacy-sentinel/internal/detector"
	"privacy-sentinel/internal/masker"
	"privacy-sentinel/internal/suppressions"
)

func newSuppressCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "suppress",
		Short: "Manage suppression rules for accepted findings",
	}
	cmd.PersistentFlags().StringVar(&file, "suppression-file", "", "suppression rule file (default from configuration)")

	open := func() (*suppressions.SuppressionManager, error) {
		path := file
		if path == "" {
			cfg, err := a.loadConfig()
			if err != nil {
				return nil, err
			}
			path = cfg.Suppressions.File
		}
		return suppressions.Load(path)
	}

	cmd.AddCommand(
		newSuppressAddCmd(a, open),
		newSuppressListCmd(a, open),
		newSuppressRemoveCmd(a, open),
		newSuppressCleanupCmd(a, open),
	)
	return cmd
}

type openManager func() (*suppressions.SuppressionManager, error)

func newSuppressAddCmd(a *app, open openManager) *cobra.Command {
	var category, value, reason, createdBy string
	var expiresIn time.Duration
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Suppress a finding by category and value",
		Long: `Adds a rule that suppresses every finding of the given category whose value
matches. Only a hash of the value is written to the rule file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, ok := detector.ParseCategory(category)
			if !ok {
				return fmt.Errorf("unknown category %q", category)
			}
			sm, err := open()
			if err != nil {
				return err
			}

			var expiresAt *time.Time
			if expiresIn > 0 {
				t := time.Now().Add(expiresIn)
				expiresAt = &t
			}
			rule, err := sm.AddSuppression(detector.Match{
				Category:    c,
				RawValue:    value,
				MaskedValue: masker.Mask(value, c),
			}, reason, createdBy, expiresAt)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Added suppression rule %s for %s %s\n", rule.ID, rule.Category, rule.Metadata["masked_value"])
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "category of the finding")
	cmd.Flags().StringVar(&value, "value", "", "matched value to suppress")
	cmd.Flags().StringVar(&reason, "reason", "", "why the finding is accepted")
	cmd.Flags().StringVar(&createdBy, "created-by", os.Getenv("USER"), "author of the rule")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "rule lifetime, e.g. 720h (default 7 days)")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("value")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func newSuppressListCmd(a *app, open openManager) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List suppression rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sm, err := open()
			if err != nil {
				return err
			}
			rules := sm.ListSuppressions()
			if asJSON {
				return writeJSON(a.out, rules)
			}
			printRules(a.out, rules, time.Now())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print rules as JSON")
	return cmd
}

func newSuppressRemoveCmd(a *app, open openManager) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Remove a suppression rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sm, err := open()
			if err != nil {
				return err
			}
			id := strings.ToUpper(strings.TrimSpace(args[0]))
			if err := sm.RemoveSuppression(id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Removed suppression rule %s\n", id)
			return nil
		},
	}
}

func newSuppressCleanupCmd(a *app, open openManager) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired suppression rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sm, err := open()
			if err != nil {
				return err
			}
			removed, err := sm.CleanupExpired()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Cleaned up %d expired suppression rules\n", removed)
			return nil
		},
	}
}

func printRules(w io.Writer, rules []suppressions.SuppressionRule, now time.Time) {
	if len(rules) == 0 {
		fmt.Fprintln(w, "No suppression rules found.")
		return
	}
	fmt.Fprintf(w, "Found %d suppression rules:\n\n", len(rules))
	for _, rule := range rules {
		fmt.Fprintf(w, "ID: %s\n", rule.ID)
		fmt.Fprintf(w, "Category: %s\n", rule.Category)
		if masked := rule.Metadata["masked_value"]; masked != "" {
			fmt.Fprintf(w, "Value: %s\n", masked)
		}
		fmt.Fprintf(w, "Reason: %s\n", rule.Reason)
		if rule.CreatedBy != "" {
			fmt.Fprintf(w, "Created By: %s\n", rule.CreatedBy)
		}
		fmt.Fprintf(w, "Created At: %s\n", rule.CreatedAt.Format("2006-01-02 15:04:05"))
		if rule.ExpiresAt != nil {
			status := ""
			if rule.Expired(now) {
				status = " (expired)"
			}
			fmt.Fprintf(w, "Expires At: %s%s\n", rule.ExpiresAt.Format("2006-01-02 15:04:05"), status)
		}
		if !rule.Enabled {
			fmt.Fprintln(w, "Disabled")
		}
		fmt.Fprintln(w, "---")
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
