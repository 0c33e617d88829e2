// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/holotrack/internal/config"
	"github.com/holomush/holotrack/internal/dice"
	"github.com/holomush/holotrack/internal/logging"
	"github.com/holomush/holotrack/internal/observability"
	"github.com/holomush/holotrack/internal/simulation"
	"github.com/holomush/holotrack/internal/skillcheck"
	"github.com/holomush/holotrack/internal/tracking"
	"github.com/holomush/holotrack/internal/xdg"
)

type simulateFlags struct {
	runs      int
	workers   int
	seed      uint64
	trailAge  string
	terrain   string
	miles     float64
	feet      int
	attribute int
	rank      int
	maxSteps  int
}

// NewSimulateCmd creates the simulate subcommand.
func NewSimulateCmd() *cobra.Command {
	defaults := simulation.DefaultOptions()
	f := &simulateFlags{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate pursuits to measure how the rules play out",
		Long: `Runs many pursuits end to end through the tracking service, rolling
skill checks with the reference dice-pool resolver, and reports how often
the quarry was found or the trail went cold.

Pass --seed to reproduce a run. With --workers 1 (the default) the same
seed always produces the same report.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSimulate(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&f.runs, "runs", defaults.Runs, "number of pursuits")
	flags.IntVar(&f.workers, "workers", defaults.Workers, "pursuits run concurrently")
	flags.Uint64Var(&f.seed, "seed", 0, "dice seed (0 picks a random seed)")
	flags.StringVar(&f.trailAge, "trail-age", defaults.TrailAge.String(), "trail age at the start of each pursuit")
	flags.StringVar(&f.terrain, "terrain", defaults.Mods.Terrain.String(), "terrain crossed during pursuit")
	flags.Float64Var(&f.miles, "miles", defaults.PursuitMiles, "distance to the quarry in miles")
	flags.IntVar(&f.feet, "feet", defaults.ApproachFeet, "distance in feet when closing in starts")
	flags.IntVar(&f.attribute, "attribute", defaults.Attribute, "tracker attribute dice")
	flags.IntVar(&f.rank, "rank", defaults.Rank, "tracker rank in the tracking skill")
	flags.IntVar(&f.maxSteps, "max-steps", defaults.MaxSteps, "actions allowed per pursuit")
	flags.String("metrics-file", "", "write Prometheus metrics to this textfile")
	flags.String("metrics-addr", "", "serve metrics and health probes on this address while running")

	return cmd
}

func (f *simulateFlags) options() (simulation.Options, error) {
	age, err := tracking.ParseTrailAge(f.trailAge)
	if err != nil {
		return simulation.Options{}, oops.Code("SIMULATION_INVALID").With("trail_age", f.trailAge).Wrap(err)
	}
	opts := simulation.DefaultOptions()
	opts.Runs = f.runs
	opts.Workers = f.workers
	opts.TrailAge = age
	opts.Mods.Terrain = tracking.Terrain(f.terrain)
	opts.PursuitMiles = f.miles
	opts.ApproachFeet = f.feet
	opts.Attribute = f.attribute
	opts.Rank = f.rank
	opts.MaxSteps = f.maxSteps
	return opts, opts.Validate()
}

func runSimulate(cmd *cobra.Command, f *simulateFlags) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	opts, err := f.options()
	if err != nil {
		return err
	}
	if cfg.Storage == config.StoragePostgres {
		opts.TrackerPrefix = "sim-" + ulid.Make().String()
	}

	seed := f.seed
	if seed == 0 {
		if seed, err = dice.NewSeed(); err != nil {
			return err
		}
	}
	src := dice.New(seed)
	resolver, err := skillcheck.New(src, cfg.SkillCheck, logger)
	if err != nil {
		return err
	}

	store, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logging.LogError(ctx, logger, "open storage", err)
		return err
	}
	defer store.close()

	rules := cfg.Rules
	svc, err := tracking.NewService(tracking.ServiceConfig{
		Repo:       store.repo,
		Transactor: store.tx,
		Checker:    resolver,
		Random:     src,
		Rules:      &rules,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	tracking.RegisterMetrics(reg)

	var running atomic.Bool
	if cfg.MetricsAddr != "" {
		srv := observability.NewServer(cfg.MetricsAddr, reg, running.Load, logger)
		if _, err := srv.Start(); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := srv.Stop(stopCtx); err != nil {
				logging.LogError(ctx, logger, "stop observability server", err)
			}
		}()
	}

	logger.InfoContext(ctx, "starting simulation",
		"runs", opts.Runs,
		"workers", opts.Workers,
		"seed", seed,
		"storage", cfg.Storage,
		"trail_age", opts.TrailAge.String(),
		"terrain", opts.Mods.Terrain.String(),
	)
	running.Store(true)
	report, err := simulation.Run(ctx, svc, opts, logger)
	running.Store(false)
	if err != nil {
		logging.LogError(ctx, logger, "simulation failed", err)
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "seed=%d\n%s\n", seed, report)

	if cfg.MetricsFile != "" {
		if err := xdg.EnsureDir(filepath.Dir(cfg.MetricsFile)); err != nil {
			return err
		}
		if err := prometheus.WriteToTextfile(cfg.MetricsFile, reg); err != nil {
			return oops.Code("METRICS_WRITE_FAILED").With("path", cfg.MetricsFile).Wrap(err)
		}
		cmd.Printf("metrics written to %s\n", cfg.MetricsFile)
	}
	return nil
}
