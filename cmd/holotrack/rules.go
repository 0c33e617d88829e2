// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/holomush/holotrack/internal/config"
	"github.com/holomush/holotrack/internal/tracking"
)

// NewRulesCmd creates the rules subcommand.
func NewRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and validate tracking rules files",
	}

	var configSchema bool
	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for rules files",
		Long: `Prints the JSON Schema for standalone rules files. With --config-schema
it prints the schema for the whole configuration file instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gen := config.GenerateRulesSchema
			if configSchema {
				gen = config.GenerateSchema
			}
			data, err := gen()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
	schemaCmd.Flags().BoolVar(&configSchema, "config-schema", false, "print the configuration file schema")
	cmd.AddCommand(schemaCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "validate FILE...",
		Short: "Validate rules files",
		Long: `Checks each rules file against the schema, the supported rules
version and the rules invariants. Does not touch the database.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateRules(cmd, args)
		},
	})

	return cmd
}

func runValidateRules(cmd *cobra.Command, paths []string) error {
	var firstErr error
	for _, path := range paths {
		rules, err := config.LoadRules(path)
		if err != nil {
			cmd.PrintErrf("%s: %s\n", path, config.FormatSchemaError(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (version %s)\n", path, rules.Version)
	}
	return firstErr
}

// NewVersionCmd creates the version subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "holotrack %s (commit: %s, built: %s)\n", version, commit, date)
			fmt.Fprintf(out, "rules %s (supported %s)\n", tracking.RulesVersion, config.SupportedRulesVersions)
			return nil
		},
	}
}
