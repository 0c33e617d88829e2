// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package simulation drives many pursuits end to end through a tracking
// service to measure how the rules play out.
package simulation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"golang.org/x/sync/errgroup"

	"github.com/holomush/holotrack/internal/tracking"
)

// Options describes the pursuits to run.
type Options struct {
	Runs      int
	Workers   int // runs in flight at once; 1 keeps seeded runs reproducible
	TrailAge  tracking.TrailAge
	Mods      tracking.Modifiers
	Attribute int
	Rank      int

	// PursuitMiles is how far the quarry is; once covered the tracker closes in.
	PursuitMiles float64

	// ApproachFeet is the distance at which each close-in attempt starts.
	ApproachFeet int

	// MaxSteps bounds the actions taken in a single pursuit.
	MaxSteps int

	// TrackerPrefix starts every simulated tracker id. Runs against a shared
	// store need a fresh prefix or they collide with earlier active pursuits.
	TrackerPrefix string
}

// DefaultOptions returns a short pursuit across open wasteland.
func DefaultOptions() Options {
	return Options{
		Runs:         100,
		Workers:      1,
		TrailAge:     tracking.TrailFresh,
		Mods:         tracking.DefaultModifiers(),
		Attribute:    3,
		Rank:         2,
		PursuitMiles: 6,
		ApproachFeet: 300,
		MaxSteps:     40,

		TrackerPrefix: "sim",
	}
}

// Validate checks that the options describe a runnable simulation.
func (o Options) Validate() error {
	switch {
	case o.Runs < 1:
		return oops.Code("SIMULATION_INVALID").With("runs", o.Runs).Errorf("runs must be positive")
	case o.Workers < 1:
		return oops.Code("SIMULATION_INVALID").With("workers", o.Workers).Errorf("workers must be positive")
	case o.PursuitMiles < 0:
		return oops.Code("SIMULATION_INVALID").With("pursuit_miles", o.PursuitMiles).Errorf("pursuit distance cannot be negative")
	case o.ApproachFeet < 0:
		return oops.Code("SIMULATION_INVALID").With("approach_feet", o.ApproachFeet).Errorf("approach distance cannot be negative")
	case o.MaxSteps < 1:
		return oops.Code("SIMULATION_INVALID").With("max_steps", o.MaxSteps).Errorf("max_steps must be positive")
	}
	if err := o.TrailAge.Validate(); err != nil {
		return oops.Code("SIMULATION_INVALID").With("trail_age", int(o.TrailAge)).Wrap(err)
	}
	return o.Mods.Validate()
}

// Outcome is how a single simulated pursuit ended.
type Outcome struct {
	TrackingID string
	Status     tracking.Status
	Phase      tracking.Phase
	Checks     int
	Miles      float64
}

// Report aggregates a simulation.
type Report struct {
	Runs        int
	TargetFound int
	Cold        int
	StillActive int
	TotalChecks int
	Outcomes    []Outcome
}

// Rate returns n as a fraction of all runs.
func (r Report) Rate(n int) float64 {
	if r.Runs == 0 {
		return 0
	}
	return float64(n) / float64(r.Runs)
}

// MeanChecks returns the average number of checks per pursuit.
func (r Report) MeanChecks() float64 {
	return r.Rate(r.TotalChecks)
}

// String summarizes the report on one line.
func (r Report) String() string {
	return fmt.Sprintf("runs=%d found=%d (%.1f%%) cold=%d (%.1f%%) active=%d (%.1f%%) mean_checks=%.2f",
		r.Runs,
		r.TargetFound, 100*r.Rate(r.TargetFound),
		r.Cold, 100*r.Rate(r.Cold),
		r.StillActive, 100*r.Rate(r.StillActive),
		r.MeanChecks())
}

// Tracker is the part of tracking.Service a simulation drives.
type Tracker interface {
	Initiate(ctx context.Context, actor tracking.Actor, targetDescription string, age tracking.TrailAge, mods tracking.Modifiers) (*tracking.Result, error)
	RetryAcquisition(ctx context.Context, actor tracking.Actor, id ulid.ULID, mods tracking.Modifiers) (*tracking.Result, error)
	ContinuePursuit(ctx context.Context, actor tracking.Actor, id ulid.ULID, mods tracking.Modifiers, distanceAdvanced float64) (*tracking.Result, error)
	AttemptRecovery(ctx context.Context, actor tracking.Actor, id ulid.ULID, recovery tracking.RecoveryType, mods tracking.Modifiers) (*tracking.Result, error)
	CloseIn(ctx context.Context, actor tracking.Actor, id ulid.ULID, mods tracking.Modifiers, currentDistanceFeet int) (*tracking.Result, error)
	Rules() tracking.Rules
}

var recoveryOrder = []tracking.RecoveryType{
	tracking.RecoveryBacktrack,
	tracking.RecoverySpiralSearch,
	tracking.RecoveryReturnToLastKnown,
}

// Run executes opts.Runs pursuits, at most opts.Workers at a time. Each run
// uses its own tracker so runs never contend for the one-active-pursuit rule.
// The first failing run stops the simulation; no further runs start.
func Run(ctx context.Context, svc Tracker, opts Options, logger *slog.Logger) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	outcomes := make([]Outcome, opts.Runs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i := range opts.Runs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			o, err := runOne(gctx, svc, opts, i)
			if err != nil {
				return oops.Code("SIMULATION_FAILED").With("run", i).Wrap(err)
			}
			outcomes[i] = o
			return nil
		})
	}
	runErr := g.Wait()

	// a cancelled caller outranks the run error it caused
	if err := ctx.Err(); err != nil {
		return nil, oops.Code("SIMULATION_CANCELLED").Wrap(err)
	}
	if runErr != nil {
		return nil, runErr
	}
	report := &Report{Runs: opts.Runs, Outcomes: outcomes}
	for _, o := range outcomes {
		report.TotalChecks += o.Checks
		switch o.Status {
		case tracking.StatusTargetFound:
			report.TargetFound++
		case tracking.StatusCold:
			report.Cold++
		default:
			report.StillActive++
		}
	}
	logger.InfoContext(ctx, "simulation complete",
		"runs", report.Runs,
		"target_found", report.TargetFound,
		"cold", report.Cold,
		"still_active", report.StillActive,
		"mean_checks", report.MeanChecks(),
	)
	return report, nil
}

func runOne(ctx context.Context, svc Tracker, opts Options, n int) (Outcome, error) {
	actor := tracking.Actor{
		ID:        fmt.Sprintf("%s-%05d", opts.TrackerPrefix, n),
		Name:      fmt.Sprintf("Tracker %d", n+1),
		Attribute: opts.Attribute,
		Ranks:     map[string]int{svc.Rules().SkillID: opts.Rank},
	}
	interval := opts.Mods.CheckIntervalMiles(svc.Rules())

	res, err := svc.Initiate(ctx, actor, "simulated quarry", opts.TrailAge, opts.Mods)
	if err != nil {
		return Outcome{}, err
	}
	st := res.State

	for step := 1; step < opts.MaxSteps && st.IsActive(); step++ {
		switch st.Phase {
		case tracking.PhaseAcquisition:
			res, err = svc.RetryAcquisition(ctx, actor, st.ID, opts.Mods)
		case tracking.PhasePursuit:
			if st.DistanceCovered >= opts.PursuitMiles {
				res, err = svc.CloseIn(ctx, actor, st.ID, opts.Mods, opts.ApproachFeet)
			} else {
				res, err = svc.ContinuePursuit(ctx, actor, st.ID, opts.Mods, min(interval, opts.PursuitMiles-st.DistanceCovered))
			}
		case tracking.PhaseLost:
			res, err = svc.AttemptRecovery(ctx, actor, st.ID, recoveryOrder[st.FailedAttemptsInPhase%len(recoveryOrder)], opts.Mods)
		case tracking.PhaseClosingIn:
			feet := opts.ApproachFeet
			if st.DistanceToTargetFeet != nil {
				feet = *st.DistanceToTargetFeet / 2
			}
			res, err = svc.CloseIn(ctx, actor, st.ID, opts.Mods, feet)
		default:
			return Outcome{}, oops.Code("SIMULATION_FAILED").With("phase", st.Phase.String()).Errorf("active pursuit in terminal phase")
		}
		if err != nil {
			return Outcome{}, err
		}
		st = res.State
	}

	return Outcome{
		TrackingID: st.ID.String(),
		Status:     st.Status,
		Phase:      st.Phase,
		Checks:     st.TotalChecks(),
		Miles:      st.DistanceCovered,
	}, nil
}
