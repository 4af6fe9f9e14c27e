// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/cobra"

	"privacy-sentinel/internal/core"
	"privacy-sentinel/internal/ingest"
	"privacy-sentinel/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	var addr, profile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the detection API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			d, supplemental, err := cfg.Resolve(profile)
			if err != nil {
				return err
			}
			engine, err := core.BuildEngine(cfg, d, supplemental, a.logger)
			if err != nil {
				return err
			}
			sm, err := core.BuildSuppressionManager(cfg, "")
			if err != nil {
				return err
			}

			srv := web.NewServer(engine, cfg.Server,
				web.WithSuppressions(sm),
				web.WithIngestOptions(ingest.Options{MaxFileBytes: cfg.Ingest.MaxFileBytes}),
				web.WithLogger(a.logger),
			)
			if addr == "" {
				addr = cfg.Server.Address
			}
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from configuration, 127.0.0.1:8080)")
	cmd.Flags().StringVar(&profile, "profile", "", "named profile whose categories and collaborator settings the API uses")
	return cmd
}
