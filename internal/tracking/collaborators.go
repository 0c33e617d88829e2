// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package tracking

import (
	"context"
)

// Outcome is the tiered result of a skill check.
type Outcome int

// Skill check outcomes, worst first.
const (
	OutcomeFailure Outcome = iota
	OutcomeMarginalSuccess
	OutcomeFullSuccess
	OutcomeExceptionalSuccess
	OutcomeCriticalSuccess
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeFailure:
		return "failure"
	case OutcomeMarginalSuccess:
		return "marginal_success"
	case OutcomeFullSuccess:
		return "full_success"
	case OutcomeExceptionalSuccess:
		return "exceptional_success"
	case OutcomeCriticalSuccess:
		return "critical_success"
	default:
		return "unknown"
	}
}

// ParseOutcome parses the string form produced by Outcome.String.
func ParseOutcome(s string) (Outcome, bool) {
	for o := OutcomeFailure; o <= OutcomeCriticalSuccess; o++ {
		if o.String() == s {
			return o, true
		}
	}
	return OutcomeFailure, false
}

// CheckResult is what the skill-check resolver reports for one roll.
type CheckResult struct {
	NetSuccesses int     `json:"net_successes"`
	Outcome      Outcome `json:"outcome"`
	IsFumble     bool    `json:"is_fumble"` // no successes and at least one botch
	Margin       int     `json:"margin"`
}

// IsSuccess reports whether the check succeeded. A fumble never succeeds.
func (r CheckResult) IsSuccess() bool {
	return !r.IsFumble && r.Outcome >= OutcomeMarginalSuccess
}

// SkillModifier is one named adjustment passed to the resolver.
type SkillModifier struct {
	ID           string
	Name         string
	Source       string
	DiceModifier int
	DCModifier   int
}

// SkillContext carries the situational modifiers for a check.
type SkillContext struct {
	Modifiers []SkillModifier
}

// DiceModifier returns the total dice adjustment in the context.
func (c SkillContext) DiceModifier() int {
	total := 0
	for _, m := range c.Modifiers {
		total += m.DiceModifier
	}
	return total
}

// SkillChecker resolves skill checks. Implementations may perform I/O.
type SkillChecker interface {
	// CheckWithContext rolls the skill against dc with situational modifiers.
	CheckWithContext(ctx context.Context, actor Actor, skillID string, dc int, label string, sc SkillContext) (CheckResult, error)

	// CheckWithDC rolls the skill against a fixed dc without modifiers.
	CheckWithDC(ctx context.Context, actor Actor, skillID string, dc int, label string) (CheckResult, error)
}

// RankChecker answers whether an actor holds master rank in a skill.
type RankChecker interface {
	HasMasterRank(ctx context.Context, actor Actor, skillID string) (bool, error)
}

// MinimumRank is a RankChecker that compares the actor's recorded rank
// against a threshold.
type MinimumRank struct {
	Rank int
}

// HasMasterRank reports whether the actor's rank in skillID reaches the threshold.
func (m MinimumRank) HasMasterRank(_ context.Context, actor Actor, skillID string) (bool, error) {
	return actor.Rank(skillID) >= m.Rank, nil
}

// Random is the uniform random source used for directions and estimates.
// *math/rand/v2.Rand satisfies it.
type Random interface {
	IntN(n int) int
	Float64() float64
}
