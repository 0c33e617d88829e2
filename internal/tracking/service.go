// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/holotrack/internal/logging"
)

var tracer = otel.Tracer("holotrack/tracking")

// ServiceConfig holds dependencies for Service.
type ServiceConfig struct {
	Repo       Repository
	Transactor Transactor
	Checker    SkillChecker
	Ranks      RankChecker // defaults to MinimumRank{Rules.MasterRank}
	Random     Random      // must be safe for concurrent use
	Rules      *Rules      // defaults to DefaultRules()
	Logger     *slog.Logger
	Clock      func() time.Time
}

// Service runs the tracking state machine. Each operation loads a pursuit,
// checks its preconditions, rolls, applies the outcome and saves, all inside
// one transaction keyed by the pursuit.
type Service struct {
	repo    Repository
	tx      Transactor
	checker SkillChecker
	ranks   RankChecker
	random  Random
	rules   Rules
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a new Service with the given configuration.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Repo == nil || cfg.Transactor == nil || cfg.Checker == nil || cfg.Random == nil {
		return nil, oops.Code(CodeInvalidArgument).
			Wrapf(ErrInvalidArgument, "tracking service requires a repository, transactor, checker and random source")
	}
	rules := DefaultRules()
	if cfg.Rules != nil {
		rules = *cfg.Rules
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		repo:    cfg.Repo,
		tx:      cfg.Transactor,
		checker: cfg.Checker,
		ranks:   cfg.Ranks,
		random:  cfg.Random,
		rules:   rules,
		logger:  cfg.Logger,
		now:     cfg.Clock,
	}
	if s.ranks == nil {
		s.ranks = MinimumRank{Rank: rules.MasterRank}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s, nil
}

// Rules returns the rules the service was configured with.
func (s *Service) Rules() Rules {
	return s.rules
}

// Initiate starts a new pursuit and makes the acquisition check.
func (s *Service) Initiate(ctx context.Context, actor Actor, targetDescription string, age TrailAge, mods Modifiers) (result *Result, err error) {
	ctx, span := tracer.Start(ctx, "tracking.initiate", trace.WithAttributes(
		attribute.String("tracker.id", actor.ID),
		attribute.String("trail.age", age.String()),
	))
	defer func() { endSpan(span, err) }()
	defer recordDuration("initiate", time.Now())

	if strings.TrimSpace(actor.ID) == "" {
		return nil, invalidArgument("tracker_id", "cannot be empty")
	}
	if strings.TrimSpace(targetDescription) == "" {
		return nil, invalidArgument("target_description", "cannot be empty")
	}
	if err := age.Validate(); err != nil {
		return nil, invalidArgument("trail_age", "is not a known trail age")
	}
	if err := mods.Validate(); err != nil {
		return nil, err
	}

	err = s.tx.InTransaction(ctx, "tracker:"+actor.ID, func(ctx context.Context) error {
		active, err := s.repo.HasActive(ctx, actor.ID)
		if err != nil {
			return oops.With("tracker_id", actor.ID).Wrapf(err, "check active tracking")
		}
		if active {
			s.logger.WarnContext(ctx, "tracker already has an active pursuit", "tracker_id", actor.ID)
			return AlreadyTrackingError(actor.ID)
		}
		if age == TrailCold {
			ok, err := s.ranks.HasMasterRank(ctx, actor, s.rules.SkillID)
			if err != nil {
				return oops.With("tracker_id", actor.ID).Wrapf(err, "check master rank")
			}
			if !ok {
				s.logger.WarnContext(ctx, "cold trail attempted without master rank", "tracker_id", actor.ID)
				return rankRequiredError(actor.ID, s.rules)
			}
		}

		state := NewState(actor.ID, targetDescription, age, s.rules.BaseDC.For(age), s.now())
		ctx = logging.WithTracking(ctx, state.ID.String(), state.TrackerID)
		s.logger.InfoContext(ctx, "initiating tracking",
			"target", targetDescription, "trail_age", age.String(), "base_dc", state.BaseDC)

		result, err = s.acquire(ctx, actor, state, mods)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.observe(result)
	return result, nil
}

// RetryAcquisition repeats the acquisition check on a pursuit that has not
// yet found the trail. Each earlier failure has raised the difficulty.
func (s *Service) RetryAcquisition(ctx context.Context, actor Actor, trackingID ulid.ULID, mods Modifiers) (result *Result, err error) {
	ctx, span := s.startSpan(ctx, "tracking.retry_acquisition", trackingID)
	defer func() { endSpan(span, err) }()
	defer recordDuration("retry_acquisition", time.Now())

	if err := mods.Validate(); err != nil {
		return nil, err
	}
	err = s.tx.InTransaction(ctx, trackingID.String(), func(ctx context.Context) error {
		state, err := s.load(ctx, "retry_acquisition", trackingID, PhaseAcquisition)
		if err != nil {
			return err
		}
		ctx = logging.WithTracking(ctx, state.ID.String(), state.TrackerID)
		result, err = s.acquire(ctx, actor, state, mods)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.observe(result)
	return result, nil
}

func (s *Service) acquire(ctx context.Context, actor Actor, state *State, mods Modifiers) (*Result, error) {
	baseDC := state.ActualBaseDC()
	effectiveDC := clampDC(baseDC + state.CumulativeDCModifier + mods.TotalDCModifier())
	s.logger.DebugContext(ctx, "acquisition check",
		"base_dc", baseDC,
		"counter_tracking", state.ContestedDC != nil,
		"cumulative", state.CumulativeDCModifier,
		"condition", mods.TotalDCModifier(),
		"effective_dc", effectiveDC,
	)

	res, err := s.roll(ctx, actor, effectiveDC, fmt.Sprintf("Tracking Acquisition (%s)", state.TrailAge), mods)
	if err != nil {
		return nil, err
	}
	check := NewCheck(PhaseAcquisition, baseDC, effectiveDC, res, mods.terrain(), 0, mods.String(), s.now())

	if res.IsFumble {
		s.logger.InfoContext(ctx, "fumble during acquisition, trail cold")
		state.RecordFailure(check)
		if err := state.TransitionToCold(); err != nil {
			return nil, err
		}
		if err := s.save(ctx, state); err != nil {
			return nil, err
		}
		return NewTrailGoneCold(PhaseAcquisition, check, state, narrativeAcquisitionFumble), nil
	}

	if res.IsSuccess() {
		s.logger.InfoContext(ctx, "trail acquired, transitioning to pursuit", "outcome", res.Outcome.String())
		state.RecordSuccess(check, 0, mods.terrain())
		if err := state.TransitionToPursuit(); err != nil {
			return nil, err
		}
		if err := s.save(ctx, state); err != nil {
			return nil, err
		}
		direction := Directions[s.random.IntN(len(Directions))]
		return NewSuccess(PhaseAcquisition, check, state,
			acquisitionNarrative(res.Outcome, direction),
			s.rules.acquiredActions(),
			&Discovery{Direction: direction}), nil
	}

	state.RecordFailure(check)
	s.logger.InfoContext(ctx, "failed acquisition attempt",
		"failed_attempts", state.FailedAttemptsInPhase, "max_attempts", s.rules.MaxFailedAttempts)
	if state.FailedAttemptsInPhase >= s.rules.MaxFailedAttempts {
		if err := state.TransitionToCold(); err != nil {
			return nil, err
		}
		if err := s.save(ctx, state); err != nil {
			return nil, err
		}
		return NewTrailGoneCold(PhaseAcquisition, check, state, narrativeAcquisitionExhausted), nil
	}

	state.IncreaseCumulativeModifier(s.rules.AcquisitionRetryModifier)
	if err := s.save(ctx, state); err != nil {
		return nil, err
	}
	narrative := fmt.Sprintf("You fail to locate the trail. You can retry after 10 minutes at DC +%d. Failed attempts: %d/%d.",
		s.rules.AcquisitionRetryModifier, state.FailedAttemptsInPhase, s.rules.MaxFailedAttempts)
	return NewFailure(PhaseAcquisition, check, state, narrative, s.rules.acquisitionRetryActions()), nil
}

// ContinuePursuit follows the trail for another leg of distanceAdvanced miles.
// Any failure loses the trail.
func (s *Service) ContinuePursuit(ctx context.Context, actor Actor, trackingID ulid.ULID, mods Modifiers, distanceAdvanced float64) (result *Result, err error) {
	ctx, span := s.startSpan(ctx, "tracking.continue_pursuit", trackingID)
	defer func() { endSpan(span, err) }()
	defer recordDuration("continue_pursuit", time.Now())

	if err := mods.Validate(); err != nil {
		return nil, err
	}
	if distanceAdvanced < 0 || math.IsNaN(distanceAdvanced) || math.IsInf(distanceAdvanced, 0) {
		return nil, invalidArgument("distance_advanced", "must be a non-negative number of miles")
	}

	err = s.tx.InTransaction(ctx, trackingID.String(), func(ctx context.Context) error {
		state, err := s.load(ctx, "continue_pursuit", trackingID, PhasePursuit)
		if err != nil {
			return err
		}
		ctx = logging.WithTracking(ctx, state.ID.String(), state.TrackerID)

		baseDC := state.ActualBaseDC()
		effectiveDC := clampDC(baseDC + state.CumulativeDCModifier + mods.TotalDCModifier())
		s.logger.DebugContext(ctx, "pursuit check",
			"base_dc", baseDC,
			"counter_tracking", state.ContestedDC != nil,
			"cumulative", state.CumulativeDCModifier,
			"condition", mods.TotalDCModifier(),
			"effective_dc", effectiveDC,
		)
		res, err := s.roll(ctx, actor, effectiveDC, fmt.Sprintf("Tracking Pursuit (%s)", state.TrailAge), mods)
		if err != nil {
			return err
		}
		check := NewCheck(PhasePursuit, baseDC, effectiveDC, res, mods.terrain(),
			state.DistanceCovered+distanceAdvanced, mods.String(), s.now())

		if res.IsSuccess() {
			state.RecordSuccess(check, distanceAdvanced, mods.terrain())
			s.logger.InfoContext(ctx, "pursuit continued", "total_distance", state.DistanceCovered)
			if err := s.save(ctx, state); err != nil {
				return err
			}
			next := []string{
				fmt.Sprintf("Continue pursuit (next check in %.1f miles)", mods.CheckIntervalMiles(s.rules)),
				ActionAbandon,
			}
			narrative := pursuitNarrative(res.Outcome, distanceAdvanced, state.DistanceCovered) +
				concealmentNote(state.ConcealmentTimeMultiplier)
			result = NewSuccess(PhasePursuit, check, state, narrative, next, nil)
			return nil
		}

		s.logger.InfoContext(ctx, "pursuit failed, trail lost", "fumble", res.IsFumble)
		state.RecordFailure(check)
		if err := state.TransitionToLost(); err != nil {
			return err
		}
		if err := s.save(ctx, state); err != nil {
			return err
		}
		lead := ""
		if res.IsFumble {
			lead = "You've completely lost your bearings. "
		}
		narrative := fmt.Sprintf("%sYou've lost the trail after %.1f miles. Choose a recovery method to try to relocate it.",
			lead, state.DistanceCovered)
		result = NewFailure(PhasePursuit, check, state, narrative, s.rules.recoveryActions())
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.observe(result)
	return result, nil
}

// AttemptRecovery tries to find a lost trail again using the given technique.
func (s *Service) AttemptRecovery(ctx context.Context, actor Actor, trackingID ulid.ULID, recovery RecoveryType, mods Modifiers) (result *Result, err error) {
	ctx, span := s.startSpan(ctx, "tracking.attempt_recovery", trackingID)
	span.SetAttributes(attribute.String("recovery.type", string(recovery)))
	defer func() { endSpan(span, err) }()
	defer recordDuration("attempt_recovery", time.Now())

	if err := recovery.Validate(); err != nil {
		return nil, invalidArgument("recovery_type", "is not a known recovery technique")
	}
	if err := mods.Validate(); err != nil {
		return nil, err
	}

	err = s.tx.InTransaction(ctx, trackingID.String(), func(ctx context.Context) error {
		state, err := s.load(ctx, "attempt_recovery", trackingID, PhaseLost)
		if err != nil {
			return err
		}
		ctx = logging.WithTracking(ctx, state.ID.String(), state.TrackerID)

		name := recovery.DisplayName()
		surcharge := s.rules.RecoverySurcharge(recovery)
		baseDC := state.ActualBaseDC()
		effectiveDC := clampDC(baseDC + state.CumulativeDCModifier + mods.TotalDCModifier() + surcharge)
		s.logger.DebugContext(ctx, "recovery check",
			"base_dc", baseDC,
			"counter_tracking", state.ContestedDC != nil,
			"cumulative", state.CumulativeDCModifier,
			"condition", mods.TotalDCModifier(),
			"recovery", surcharge,
			"effective_dc", effectiveDC,
		)
		res, err := s.roll(ctx, actor, effectiveDC, fmt.Sprintf("Tracking Recovery (%s)", name), mods)
		if err != nil {
			return err
		}
		check := NewCheck(PhaseLost, baseDC, effectiveDC, res, mods.terrain(),
			state.DistanceCovered, name+": "+mods.String(), s.now())

		if res.IsSuccess() {
			s.logger.InfoContext(ctx, "trail recovered, returning to pursuit", "recovery", string(recovery))
			state.RecordSuccess(check, 0, mods.terrain())
			if err := state.RecoverToPursuit(); err != nil {
				return err
			}
			if err := s.save(ctx, state); err != nil {
				return err
			}
			narrative := fmt.Sprintf("Using the %s technique, you successfully relocate the trail. You can continue the pursuit.",
				strings.ToLower(name))
			result = NewSuccess(PhaseLost, check, state, narrative, []string{ActionContinuePursuit, ActionAbandon}, nil)
			return nil
		}

		state.RecordFailure(check)
		s.logger.InfoContext(ctx, "failed recovery attempt",
			"failed_attempts", state.FailedAttemptsInPhase, "max_attempts", s.rules.MaxFailedAttempts)
		if state.FailedAttemptsInPhase >= s.rules.MaxFailedAttempts {
			if err := state.TransitionToCold(); err != nil {
				return err
			}
			if err := s.save(ctx, state); err != nil {
				return err
			}
			result = NewTrailGoneCold(PhaseLost, check, state, narrativeRecoveryExhausted)
			return nil
		}
		if err := s.save(ctx, state); err != nil {
			return err
		}
		narrative := fmt.Sprintf("The %s attempt fails. Failed recovery attempts: %d/%d.",
			strings.ToLower(name), state.FailedAttemptsInPhase, s.rules.MaxFailedAttempts)
		result = NewFailure(PhaseLost, check, state, narrative, s.rules.recoveryActions())
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.observe(result)
	return result, nil
}

// CloseIn makes the final approach on the target from currentDistanceFeet.
// Calling it during pursuit starts the approach.
func (s *Service) CloseIn(ctx context.Context, actor Actor, trackingID ulid.ULID, mods Modifiers, currentDistanceFeet int) (result *Result, err error) {
	ctx, span := s.startSpan(ctx, "tracking.close_in", trackingID)
	span.SetAttributes(attribute.Int("distance.feet", currentDistanceFeet))
	defer func() { endSpan(span, err) }()
	defer recordDuration("close_in", time.Now())

	if err := mods.Validate(); err != nil {
		return nil, err
	}
	if currentDistanceFeet < 0 {
		return nil, invalidArgument("current_distance_feet", "cannot be negative")
	}

	err = s.tx.InTransaction(ctx, trackingID.String(), func(ctx context.Context) error {
		state, err := s.load(ctx, "close_in", trackingID, PhasePursuit, PhaseClosingIn)
		if err != nil {
			return err
		}
		ctx = logging.WithTracking(ctx, state.ID.String(), state.TrackerID)

		if state.Phase == PhasePursuit {
			if err := state.TransitionToClosingIn(currentDistanceFeet); err != nil {
				return err
			}
			s.logger.DebugContext(ctx, "transitioned to closing in")
		}
		state.UpdateDistanceToTarget(currentDistanceFeet)

		if s.rules.IsAutoSuccess(currentDistanceFeet) {
			s.logger.InfoContext(ctx, "auto-success while closing in", "distance_feet", currentDistanceFeet)
			res := CheckResult{NetSuccesses: 99, Outcome: OutcomeCriticalSuccess, Margin: 99}
			check := NewCheck(PhaseClosingIn, state.BaseDC, 0, res, mods.terrain(), state.DistanceCovered,
				fmt.Sprintf("Auto-success: Within %dft", s.rules.Closing.AutoSuccessFeet), s.now())
			state.RecordSuccess(check, 0, mods.terrain())
			if err := state.MarkTargetFound(); err != nil {
				return err
			}
			if err := s.save(ctx, state); err != nil {
				return err
			}
			AutoSuccessTotal.Inc()
			result = NewTargetLocated(PhaseClosingIn, check, state, narrativeAutoSuccess)
			return nil
		}

		distanceMod := s.rules.DistanceModifier(currentDistanceFeet)
		baseDC := state.ActualBaseDC()
		effectiveDC := clampDC(baseDC + state.CumulativeDCModifier + mods.TotalDCModifier() + distanceMod)
		s.logger.DebugContext(ctx, "closing check",
			"base_dc", baseDC,
			"counter_tracking", state.ContestedDC != nil,
			"distance_modifier", distanceMod,
			"effective_dc", effectiveDC,
		)
		res, err := s.roll(ctx, actor, effectiveDC, fmt.Sprintf("Tracking Close In (%dft)", currentDistanceFeet), mods)
		if err != nil {
			return err
		}
		check := NewCheck(PhaseClosingIn, baseDC, effectiveDC, res, mods.terrain(), state.DistanceCovered,
			fmt.Sprintf("Closing (%dft): %s", currentDistanceFeet, mods), s.now())

		if res.IsSuccess() {
			s.logger.InfoContext(ctx, "closed in, target found", "outcome", res.Outcome.String())
			state.RecordSuccess(check, 0, mods.terrain())
			if err := state.MarkTargetFound(); err != nil {
				return err
			}
			if err := s.save(ctx, state); err != nil {
				return err
			}
			result = NewTargetLocated(PhaseClosingIn, check, state, closingNarrative(res.Outcome))
			return nil
		}

		s.logger.InfoContext(ctx, "failed closing in, target may be alerted", "fumble", res.IsFumble)
		state.RecordFailure(check)
		if err := state.TransitionToLost(); err != nil {
			return err
		}
		if err := s.save(ctx, state); err != nil {
			return err
		}
		alert := narrativeClosingFailed
		if res.IsFumble {
			alert = narrativeClosingFumble
		}
		result = NewFailure(PhaseClosingIn, check, state, alert+narrativeChooseRecovery, s.rules.recoveryActions())
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.observe(result)
	return result, nil
}

// Abandon ends an active pursuit.
func (s *Service) Abandon(ctx context.Context, trackingID ulid.ULID) (err error) {
	ctx, span := s.startSpan(ctx, "tracking.abandon", trackingID)
	defer func() { endSpan(span, err) }()
	defer recordDuration("abandon", time.Now())

	var from Phase
	err = s.tx.InTransaction(ctx, trackingID.String(), func(ctx context.Context) error {
		state, err := s.load(ctx, "abandon", trackingID)
		if err != nil {
			return err
		}
		ctx = logging.WithTracking(ctx, state.ID.String(), state.TrackerID)
		from = state.Phase
		if err := state.Abandon(); err != nil {
			return err
		}
		if err := s.save(ctx, state); err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "tracking abandoned", "phase", from.String())
		return nil
	})
	if err != nil {
		return err
	}
	recordFinished(StatusAbandoned)
	return nil
}

// GetTracking returns a pursuit by ID.
func (s *Service) GetTracking(ctx context.Context, trackingID ulid.ULID) (*State, error) {
	state, err := s.repo.Get(ctx, trackingID)
	if err != nil {
		return nil, oops.With("tracking_id", trackingID.String()).Wrapf(err, "get tracking")
	}
	return state, nil
}

// GetActiveTracking returns the tracker's active pursuit, or ErrNotFound.
func (s *Service) GetActiveTracking(ctx context.Context, trackerID string) (*State, error) {
	if strings.TrimSpace(trackerID) == "" {
		return nil, invalidArgument("tracker_id", "cannot be empty")
	}
	state, err := s.repo.GetActiveByTracker(ctx, trackerID)
	if err != nil {
		return nil, oops.With("tracker_id", trackerID).Wrapf(err, "get active tracking")
	}
	return state, nil
}

// HasActiveTracking reports whether the tracker has an active pursuit.
func (s *Service) HasActiveTracking(ctx context.Context, trackerID string) (bool, error) {
	if strings.TrimSpace(trackerID) == "" {
		return false, invalidArgument("tracker_id", "cannot be empty")
	}
	active, err := s.repo.HasActive(ctx, trackerID)
	if err != nil {
		return false, oops.With("tracker_id", trackerID).Wrapf(err, "check active tracking")
	}
	return active, nil
}

// load fetches a pursuit and checks that it is active and, when phases are
// given, in one of them.
func (s *Service) load(ctx context.Context, op string, id ulid.ULID, allowed ...Phase) (*State, error) {
	state, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, oops.With("tracking_id", id.String()).Wrapf(err, "load tracking")
	}
	if !state.IsActive() {
		s.logger.WarnContext(ctx, "operation on finished pursuit",
			"operation", op, "tracking_id", id.String(), "status", state.Status.String())
		return nil, notActiveError(op, state)
	}
	if len(allowed) > 0 && !slices.Contains(allowed, state.Phase) {
		s.logger.WarnContext(ctx, "operation in wrong phase",
			"operation", op, "tracking_id", id.String(), "phase", state.Phase.String())
		return nil, wrongPhaseError(op, state, allowed...)
	}
	return state, nil
}

func (s *Service) roll(ctx context.Context, actor Actor, dc int, label string, mods Modifiers) (CheckResult, error) {
	res, err := s.checker.CheckWithContext(ctx, actor, s.rules.SkillID, dc, label, mods.SkillContext())
	if err != nil {
		return CheckResult{}, oops.Code(CodeCheckFailed).With("label", label).With("dc", dc).Wrap(err)
	}
	s.logger.DebugContext(ctx, "skill check result",
		"net_successes", res.NetSuccesses,
		"outcome", res.Outcome.String(),
		"fumble", res.IsFumble,
	)
	return res, nil
}

func (s *Service) save(ctx context.Context, state *State) error {
	if err := ctx.Err(); err != nil {
		return oops.With("tracking_id", state.ID.String()).Wrapf(err, "save tracking")
	}
	if err := s.repo.Save(ctx, state); err != nil {
		return oops.With("tracking_id", state.ID.String()).Wrapf(err, "save tracking")
	}
	return nil
}

// observe records metrics for a committed result.
func (s *Service) observe(r *Result) {
	recordCheck(r.Check.Phase, r.Check.Result)
	recordTransition(r.PreviousPhase, r.Phase)
	if r.IsComplete() {
		recordFinished(r.State.Status)
	}
}

func (s *Service) startSpan(ctx context.Context, name string, id ulid.ULID) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attribute.String("tracking.id", id.String())))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
