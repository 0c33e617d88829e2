// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package tracking

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel/attribute"

	"github.com/holomush/holotrack/internal/logging"
)

// EstimateTargetCount reads the trail for the size of the party being
// followed. ok is false when the check failed; nothing is recorded then.
// A successful estimate is stored on the pursuit.
func (s *Service) EstimateTargetCount(ctx context.Context, actor Actor, trackingID ulid.ULID) (count int, ok bool, err error) {
	ctx, span := s.startSpan(ctx, "tracking.estimate_target_count", trackingID)
	defer func() { endSpan(span, err) }()
	defer recordDuration("estimate_target_count", time.Now())

	err = s.tx.InTransaction(ctx, trackingID.String(), func(ctx context.Context) error {
		state, err := s.load(ctx, "estimate_target_count", trackingID)
		if err != nil {
			return err
		}
		ctx = logging.WithTracking(ctx, state.ID.String(), state.TrackerID)

		res, err := s.checkFixed(ctx, actor, s.rules.Estimation.TargetCountDC, "Estimate Target Count")
		if err != nil {
			return err
		}
		if !res.IsSuccess() {
			s.logger.DebugContext(ctx, "failed to estimate target count")
			return nil
		}

		base := 2 + 1 + s.random.IntN(3)
		variance := max(0, 3-res.Margin)
		estimate := max(1, base+s.random.IntN(2*variance+1)-variance)

		state.SetEstimatedTargetCount(estimate)
		if err := s.save(ctx, state); err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "estimated target count", "count", estimate)
		count, ok = estimate, true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	span.SetAttributes(attribute.Bool("estimate.ok", ok))
	return count, ok, nil
}

// EstimateTrailAge reads how old the trail is. A marginal success may be off
// by one band. ok is false when the check failed.
func (s *Service) EstimateTrailAge(ctx context.Context, actor Actor, trackingID ulid.ULID) (age TrailAge, ok bool, err error) {
	ctx, span := s.startSpan(ctx, "tracking.estimate_trail_age", trackingID)
	defer func() { endSpan(span, err) }()
	defer recordDuration("estimate_trail_age", time.Now())

	err = s.tx.InTransaction(ctx, trackingID.String(), func(ctx context.Context) error {
		state, err := s.load(ctx, "estimate_trail_age", trackingID)
		if err != nil {
			return err
		}
		ctx = logging.WithTracking(ctx, state.ID.String(), state.TrackerID)

		res, err := s.checkFixed(ctx, actor, s.rules.Estimation.TrailAgeDC, "Estimate Trail Age")
		if err != nil {
			return err
		}
		if !res.IsSuccess() {
			s.logger.DebugContext(ctx, "failed to estimate trail age")
			return nil
		}

		age = state.TrailAge
		if res.Outcome == OutcomeMarginalSuccess && s.random.Float64() < s.rules.Estimation.MisestimateChance {
			offset := 1
			if s.random.IntN(2) == 0 {
				offset = -1
			}
			age = TrailAge(min(max(int(age)+offset, int(TrailObvious)), int(TrailCold)))
		}
		s.logger.InfoContext(ctx, "estimated trail age", "age", age.String())
		ok = true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return age, ok, nil
}

func (s *Service) checkFixed(ctx context.Context, actor Actor, dc int, label string) (CheckResult, error) {
	res, err := s.checker.CheckWithDC(ctx, actor, s.rules.SkillID, dc, label)
	if err != nil {
		return CheckResult{}, oops.Code(CodeCheckFailed).With("label", label).With("dc", dc).Wrap(err)
	}
	return res, nil
}
