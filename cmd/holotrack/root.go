// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/holotrack/internal/config"
	"github.com/holomush/holotrack/internal/logging"
	"github.com/holomush/holotrack/internal/tracking"
	"github.com/holomush/holotrack/internal/tracking/memory"
	"github.com/holomush/holotrack/internal/tracking/postgres"
	"github.com/holomush/holotrack/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the holotrack CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holotrack",
		Short: "holotrack - wasteland tracking rules engine",
		Long: `holotrack runs the tracking state machine used to follow a quarry
across the wasteland: acquisition, pursuit, recovery of a lost trail and
closing in. It can simulate pursuits to balance the rules, and manage the
PostgreSQL schema that stores them.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file path (default $XDG_CONFIG_HOME/holotrack/holotrack.yaml)")
	flags.String("log-format", "text", "log format (json or text)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("storage", config.StorageMemory, "storage backend (memory or postgres)")
	flags.String("database-url", "", "PostgreSQL connection URL")
	flags.String("rules-file", "", "standalone tracking rules file")

	cmd.AddCommand(NewSimulateCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewRulesCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// loadConfig reads the config file named by --config, or holotrack.yaml in
// the XDG config directory, overlays the flags that were set on cmd and
// builds a logger from the result.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path := configFile
	if path == "" {
		found, err := xdg.FindConfigFile()
		if err != nil {
			return nil, nil, err
		}
		path = found
	}
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	logger := logging.Setup("holotrack", version, logging.Options{
		Format: cfg.LogFormat,
		Level:  cfg.LogLevel,
	}, cmd.ErrOrStderr())
	return cfg, logger, nil
}

// backend is the storage a tracking service runs against.
type backend struct {
	repo  tracking.Repository
	tx    tracking.Transactor
	close func()
}

func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
	switch cfg.Storage {
	case config.StoragePostgres:
		opts := postgres.DefaultConnectOptions()
		opts.Logger = logger
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL, opts)
		if err != nil {
			return nil, err
		}
		return &backend{
			repo:  postgres.NewRepository(pool),
			tx:    postgres.NewTransactor(pool),
			close: pool.Close,
		}, nil
	case config.StorageMemory:
		store := memory.NewStore()
		return &backend{repo: store, tx: store, close: func() {}}, nil
	default:
		return nil, oops.Code("CONFIG_INVALID").With("storage", cfg.Storage).Errorf("unknown storage backend")
	}
}
