// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package skillcheck resolves skill checks with a d10 success-counting pool.
//
// The pool is the actor's attribute plus their rank in the skill plus any
// dice modifiers from the check context, never fewer than one die. Each die
// showing SuccessOn or higher is a success; each die showing BotchOn is a
// botch. Net successes are successes minus botches. A difficulty class is
// converted to a number of required successes, one per DCPerSuccess points,
// rounded up, and the margin is net successes minus that requirement.
package skillcheck

import (
	"context"
	"log/slog"

	"github.com/samber/oops"

	"github.com/holomush/holotrack/internal/tracking"
)

// Roller rolls dice pools. *dice.Source satisfies it.
type Roller interface {
	Pool(count, sides int) []int
}

// Config holds the pool mechanics.
type Config struct {
	Sides        int `yaml:"sides" jsonschema:"minimum=2"`
	SuccessOn    int `yaml:"success_on" jsonschema:"minimum=2"`
	BotchOn      int `yaml:"botch_on" jsonschema:"minimum=1"`
	DCPerSuccess int `yaml:"dc_per_success" jsonschema:"minimum=1"`
}

// DefaultConfig returns d10 mechanics: 8+ succeeds, 1 botches, four DC per
// required success.
func DefaultConfig() Config {
	return Config{Sides: 10, SuccessOn: 8, BotchOn: 1, DCPerSuccess: 4}
}

// Validate checks that the mechanics can produce every outcome.
func (c Config) Validate() error {
	switch {
	case c.Sides < 2:
		return oops.Code("SKILLCHECK_INVALID_CONFIG").With("sides", c.Sides).Errorf("dice need at least two sides")
	case c.SuccessOn <= c.BotchOn || c.SuccessOn > c.Sides:
		return oops.Code("SKILLCHECK_INVALID_CONFIG").
			With("success_on", c.SuccessOn).With("botch_on", c.BotchOn).
			Errorf("success threshold must be above the botch face and on the die")
	case c.BotchOn < 1:
		return oops.Code("SKILLCHECK_INVALID_CONFIG").With("botch_on", c.BotchOn).Errorf("botch face must be on the die")
	case c.DCPerSuccess < 1:
		return oops.Code("SKILLCHECK_INVALID_CONFIG").With("dc_per_success", c.DCPerSuccess).Errorf("dc_per_success must be positive")
	}
	return nil
}

// Outcome tier thresholds on the margin.
const (
	fullMargin        = 1
	exceptionalMargin = 3
	criticalMargin    = 5
)

// Resolver implements tracking.SkillChecker.
type Resolver struct {
	roller Roller
	cfg    Config
	logger *slog.Logger
}

// New creates a Resolver. A nil logger uses slog.Default.
func New(roller Roller, cfg Config, logger *slog.Logger) (*Resolver, error) {
	if roller == nil {
		return nil, oops.Code("SKILLCHECK_INVALID_CONFIG").Errorf("resolver requires a roller")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{roller: roller, cfg: cfg, logger: logger}, nil
}

// CheckWithContext rolls the actor's pool, adjusted by the context's dice
// modifiers, against dc. DC modifiers in the context are informational; the
// caller has already folded them into dc.
func (r *Resolver) CheckWithContext(ctx context.Context, actor tracking.Actor, skillID string, dc int, label string, sc tracking.SkillContext) (tracking.CheckResult, error) {
	return r.check(ctx, actor, skillID, dc, label, sc.DiceModifier())
}

// CheckWithDC rolls the actor's unmodified pool against dc.
func (r *Resolver) CheckWithDC(ctx context.Context, actor tracking.Actor, skillID string, dc int, label string) (tracking.CheckResult, error) {
	return r.check(ctx, actor, skillID, dc, label, 0)
}

func (r *Resolver) check(ctx context.Context, actor tracking.Actor, skillID string, dc int, label string, diceModifier int) (tracking.CheckResult, error) {
	if err := ctx.Err(); err != nil {
		return tracking.CheckResult{}, oops.With("label", label).Wrap(err)
	}
	size := PoolSize(actor, skillID, diceModifier)
	dice := r.roller.Pool(size, r.cfg.Sides)
	res := r.cfg.Evaluate(dice, dc)
	r.logger.DebugContext(ctx, "skill check rolled",
		"label", label,
		"skill_id", skillID,
		"pool", size,
		"dice", dice,
		"dc", dc,
		"net_successes", res.NetSuccesses,
		"outcome", res.Outcome.String(),
		"fumble", res.IsFumble,
	)
	return res, nil
}

// PoolSize returns the number of dice the actor rolls for skillID.
func PoolSize(actor tracking.Actor, skillID string, diceModifier int) int {
	return max(1, actor.Attribute+actor.Rank(skillID)+diceModifier)
}

// RequiredSuccesses converts a difficulty class into the successes needed.
func (c Config) RequiredSuccesses(dc int) int {
	if dc <= 0 {
		return 0
	}
	return (dc + c.DCPerSuccess - 1) / c.DCPerSuccess
}

// Evaluate scores a rolled pool against dc.
func (c Config) Evaluate(dice []int, dc int) tracking.CheckResult {
	successes, botches := 0, 0
	for _, d := range dice {
		switch {
		case d >= c.SuccessOn:
			successes++
		case d <= c.BotchOn:
			botches++
		}
	}
	net := successes - botches
	margin := net - c.RequiredSuccesses(dc)
	return tracking.CheckResult{
		NetSuccesses: net,
		Outcome:      outcomeFor(margin),
		IsFumble:     successes == 0 && botches > 0,
		Margin:       margin,
	}
}

func outcomeFor(margin int) tracking.Outcome {
	switch {
	case margin >= criticalMargin:
		return tracking.OutcomeCriticalSuccess
	case margin >= exceptionalMargin:
		return tracking.OutcomeExceptionalSuccess
	case margin >= fullMargin:
		return tracking.OutcomeFullSuccess
	case margin == 0:
		return tracking.OutcomeMarginalSuccess
	default:
		return tracking.OutcomeFailure
	}
}
