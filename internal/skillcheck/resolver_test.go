// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package skillcheck_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/holotrack/internal/dice"
	"github.com/holomush/holotrack/internal/skillcheck"
	"github.com/holomush/holotrack/internal/tracking"
)

// fixedRoller returns the same faces for every pool, truncated or padded
// with blanks (5s) to the requested size.
type fixedRoller struct {
	faces []int
	sizes []int
}

func (r *fixedRoller) Pool(count, _ int) []int {
	r.sizes = append(r.sizes, count)
	out := make([]int, count)
	for i := range out {
		out[i] = 5
		if i < len(r.faces) {
			out[i] = r.faces[i]
		}
	}
	return out
}

var scout = tracking.Actor{
	ID:        "p1",
	Attribute: 3,
	Ranks:     map[string]int{tracking.SkillWastelandSurvival: 2},
}

func TestConfig_RequiredSuccesses(t *testing.T) {
	cfg := skillcheck.DefaultConfig()
	tests := []struct{ dc, want int }{
		{-3, 0}, {0, 0}, {1, 1}, {4, 1}, {5, 2}, {8, 2}, {12, 3}, {28, 7},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cfg.RequiredSuccesses(tt.dc), "dc %d", tt.dc)
	}
}

func TestConfig_Evaluate(t *testing.T) {
	cfg := skillcheck.DefaultConfig()
	tests := []struct {
		name    string
		dice    []int
		dc      int
		net     int
		margin  int
		outcome tracking.Outcome
		fumble  bool
	}{
		{"blank pool fails", []int{5, 6, 7}, 4, 0, -1, tracking.OutcomeFailure, false},
		{"botch without success fumbles", []int{1, 5, 6}, 4, -1, -2, tracking.OutcomeFailure, true},
		{"botch cancels success but no fumble", []int{1, 9, 5}, 4, 0, -1, tracking.OutcomeFailure, false},
		{"exact requirement is marginal", []int{8, 9, 10, 2}, 12, 3, 0, tracking.OutcomeMarginalSuccess, false},
		{"one over is full", []int{8, 9}, 4, 2, 1, tracking.OutcomeFullSuccess, false},
		{"three over is exceptional", []int{8, 8, 8}, 0, 3, 3, tracking.OutcomeExceptionalSuccess, false},
		{"five over is critical", []int{10, 10, 10, 10, 10, 10}, 4, 6, 5, tracking.OutcomeCriticalSuccess, false},
		{"dc zero with nothing is marginal", []int{5}, 0, 0, 0, tracking.OutcomeMarginalSuccess, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := cfg.Evaluate(tt.dice, tt.dc)
			assert.Equal(t, tt.net, res.NetSuccesses)
			assert.Equal(t, tt.margin, res.Margin)
			assert.Equal(t, tt.outcome, res.Outcome)
			assert.Equal(t, tt.fumble, res.IsFumble)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, skillcheck.DefaultConfig().Validate())

	bad := []skillcheck.Config{
		{Sides: 1, SuccessOn: 8, BotchOn: 1, DCPerSuccess: 4},
		{Sides: 10, SuccessOn: 1, BotchOn: 1, DCPerSuccess: 4},
		{Sides: 10, SuccessOn: 11, BotchOn: 1, DCPerSuccess: 4},
		{Sides: 10, SuccessOn: 8, BotchOn: 0, DCPerSuccess: 4},
		{Sides: 10, SuccessOn: 8, BotchOn: 1, DCPerSuccess: 0},
	}
	for _, cfg := range bad {
		assert.Error(t, cfg.Validate(), "%+v", cfg)
	}
}

func TestPoolSize(t *testing.T) {
	assert.Equal(t, 5, skillcheck.PoolSize(scout, tracking.SkillWastelandSurvival, 0))
	assert.Equal(t, 7, skillcheck.PoolSize(scout, tracking.SkillWastelandSurvival, 2))
	assert.Equal(t, 3, skillcheck.PoolSize(scout, "lockpicking", 0))
	assert.Equal(t, 1, skillcheck.PoolSize(scout, tracking.SkillWastelandSurvival, -10), "never fewer than one die")
}

func TestResolver_AppliesDiceModifiers(t *testing.T) {
	roller := &fixedRoller{faces: []int{9, 9, 9}}
	r, err := skillcheck.New(roller, skillcheck.DefaultConfig(), nil)
	require.NoError(t, err)
	sc := tracking.Modifiers{IsFamiliarTerritory: true, HasBloodTrail: true}.SkillContext()

	res, err := r.CheckWithContext(context.Background(), scout, tracking.SkillWastelandSurvival, 12, "Tracking", sc)

	require.NoError(t, err)
	assert.Equal(t, []int{7}, roller.sizes, "familiar territory adds two dice; blood trail changes only the DC")
	assert.Equal(t, 3, res.NetSuccesses)
	assert.Equal(t, tracking.OutcomeMarginalSuccess, res.Outcome)
}

func TestResolver_CheckWithDC(t *testing.T) {
	roller := &fixedRoller{faces: []int{1}}
	r, err := skillcheck.New(roller, skillcheck.DefaultConfig(), nil)
	require.NoError(t, err)

	res, err := r.CheckWithDC(context.Background(), scout, tracking.SkillWastelandSurvival, 10, "Estimate")

	require.NoError(t, err)
	assert.Equal(t, []int{5}, roller.sizes)
	assert.True(t, res.IsFumble)
	assert.False(t, res.IsSuccess())
}

func TestResolver_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	roller := &fixedRoller{}
	r, err := skillcheck.New(roller, skillcheck.DefaultConfig(), nil)
	require.NoError(t, err)

	_, err = r.CheckWithDC(ctx, scout, tracking.SkillWastelandSurvival, 10, "Estimate")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, roller.sizes)
}

func TestNew_Validation(t *testing.T) {
	_, err := skillcheck.New(nil, skillcheck.DefaultConfig(), nil)
	assert.Error(t, err)

	_, err = skillcheck.New(dice.New(1), skillcheck.Config{}, nil)
	assert.Error(t, err)
}

func TestResolver_WithSeededDiceIsReproducible(t *testing.T) {
	a, err := skillcheck.New(dice.New(99), skillcheck.DefaultConfig(), nil)
	require.NoError(t, err)
	b, err := skillcheck.New(dice.New(99), skillcheck.DefaultConfig(), nil)
	require.NoError(t, err)

	for range 20 {
		ra, err := a.CheckWithDC(context.Background(), scout, tracking.SkillWastelandSurvival, 12, "x")
		require.NoError(t, err)
		rb, err := b.CheckWithDC(context.Background(), scout, tracking.SkillWastelandSurvival, 12, "x")
		require.NoError(t, err)
		assert.Equal(t, ra, rb)
	}
}
