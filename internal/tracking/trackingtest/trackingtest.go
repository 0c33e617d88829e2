// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package trackingtest provides deterministic collaborators and assertions
// for tests of the tracking rules.
package trackingtest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/holotrack/internal/tracking"
)

// ErrScriptExhausted is returned when a ScriptedChecker runs out of results.
var ErrScriptExhausted = errors.New("scripted checker has no more results")

// Call records one request made to a ScriptedChecker.
type Call struct {
	ActorID string
	SkillID string
	DC      int
	Label   string
	Context tracking.SkillContext
	Fixed   bool // made through CheckWithDC
}

// ScriptedChecker returns queued results in order and records every call.
type ScriptedChecker struct {
	mu      sync.Mutex
	results []tracking.CheckResult
	calls   []Call
	Err     error // returned instead of a result when set
}

// NewScriptedChecker creates a checker that will return results in order.
func NewScriptedChecker(results ...tracking.CheckResult) *ScriptedChecker {
	return &ScriptedChecker{results: results}
}

// Push appends results to the queue.
func (c *ScriptedChecker) Push(results ...tracking.CheckResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, results...)
}

// CheckWithContext implements tracking.SkillChecker.
func (c *ScriptedChecker) CheckWithContext(_ context.Context, actor tracking.Actor, skillID string, dc int, label string, sc tracking.SkillContext) (tracking.CheckResult, error) {
	return c.next(Call{ActorID: actor.ID, SkillID: skillID, DC: dc, Label: label, Context: sc})
}

// CheckWithDC implements tracking.SkillChecker.
func (c *ScriptedChecker) CheckWithDC(_ context.Context, actor tracking.Actor, skillID string, dc int, label string) (tracking.CheckResult, error) {
	return c.next(Call{ActorID: actor.ID, SkillID: skillID, DC: dc, Label: label, Fixed: true})
}

func (c *ScriptedChecker) next(call Call) (tracking.CheckResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
	if c.Err != nil {
		return tracking.CheckResult{}, c.Err
	}
	if len(c.results) == 0 {
		return tracking.CheckResult{}, ErrScriptExhausted
	}
	res := c.results[0]
	c.results = c.results[1:]
	return res, nil
}

// Calls returns a copy of the recorded calls.
func (c *ScriptedChecker) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// LastCall returns the most recent call. It fails the test if there was none.
func (c *ScriptedChecker) LastCall(t *testing.T) Call {
	t.Helper()
	calls := c.Calls()
	require.NotEmpty(t, calls, "expected at least one skill check")
	return calls[len(calls)-1]
}

// Remaining returns how many queued results have not been used.
func (c *ScriptedChecker) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}

// Success returns a successful result with the given outcome and margin.
func Success(outcome tracking.Outcome, margin int) tracking.CheckResult {
	return tracking.CheckResult{NetSuccesses: 1 + margin, Outcome: outcome, Margin: margin}
}

// Marginal returns a marginal success with no margin.
func Marginal() tracking.CheckResult {
	return Success(tracking.OutcomeMarginalSuccess, 0)
}

// Failure returns an ordinary failed result.
func Failure() tracking.CheckResult {
	return tracking.CheckResult{Outcome: tracking.OutcomeFailure, Margin: -1}
}

// Fumble returns a fumbled result.
func Fumble() tracking.CheckResult {
	return tracking.CheckResult{NetSuccesses: -1, Outcome: tracking.OutcomeFailure, IsFumble: true, Margin: -2}
}

// FixedRandom replays queued values. An exhausted queue yields zero.
type FixedRandom struct {
	mu     sync.Mutex
	ints   []int
	floats []float64
}

// NewFixedRandom creates a FixedRandom that returns ints from IntN in order.
func NewFixedRandom(ints ...int) *FixedRandom {
	return &FixedRandom{ints: ints}
}

// WithInts queues values for IntN.
func (r *FixedRandom) WithInts(ints ...int) *FixedRandom {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ints = append(r.ints, ints...)
	return r
}

// WithFloats queues values for Float64.
func (r *FixedRandom) WithFloats(floats ...float64) *FixedRandom {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.floats = append(r.floats, floats...)
	return r
}

// IntN implements tracking.Random. Queued values are reduced modulo n.
func (r *FixedRandom) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ints) == 0 || n <= 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}

// Float64 implements tracking.Random.
func (r *FixedRandom) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.floats) == 0 {
		return 0
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

// AssertErrorCode asserts that err is an oops error with the given code.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	assert.Equal(t, code, oopsErr.Code())
}

// AssertErrorContext asserts that err is an oops error with the given context key/value.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	ctx := oopsErr.Context()
	assert.Contains(t, ctx, key)
	assert.Equal(t, value, ctx[key])
}
