// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package tracking_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/holotrack/internal/tracking"
	"github.com/holomush/holotrack/internal/tracking/trackingtest"
)

func newConcealer(checker tracking.SkillChecker) *tracking.Concealer {
	return tracking.NewConcealer(checker, "", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestTechnique_Properties(t *testing.T) {
	tests := []struct {
		tech  tracking.Technique
		bonus int
		time  float64
		name  string
	}{
		{tracking.TechniqueHardSurfaces, 2, 1.0, "Hard Surfaces"},
		{tracking.TechniqueBrushTracks, 4, 1.5, "Brush Tracks"},
		{tracking.TechniqueFalseTrail, 6, 2.0, "False Trail"},
		{tracking.TechniqueWaterCrossing, 8, 1.0, "Water Crossing"},
		{tracking.TechniqueBacktracking, 4, 1.25, "Backtracking"},
	}
	for _, tt := range tests {
		t.Run(string(tt.tech), func(t *testing.T) {
			assert.Equal(t, tt.bonus, tt.tech.Bonus())
			assert.InDelta(t, tt.time, tt.tech.TimeMultiplier(), 1e-9)
			assert.Equal(t, tt.name, tt.tech.DisplayName())
			assert.NotEmpty(t, tt.tech.Description())
		})
	}

	unknown := tracking.Technique("teleport")
	assert.Equal(t, 0, unknown.Bonus())
	assert.InDelta(t, 1.0, unknown.TimeMultiplier(), 1e-9)
	assert.Equal(t, "Unknown", unknown.DisplayName())
}

func TestParseTechnique(t *testing.T) {
	got, err := tracking.ParseTechnique(" False_Trail ")
	require.NoError(t, err)
	assert.Equal(t, tracking.TechniqueFalseTrail, got)

	_, err = tracking.ParseTechnique("teleport")
	assert.ErrorIs(t, err, tracking.ErrInvalidArgument)
}

func TestAvailableTechniques(t *testing.T) {
	base := []tracking.Technique{tracking.TechniqueHardSurfaces, tracking.TechniqueFalseTrail, tracking.TechniqueBacktracking}
	assert.ElementsMatch(t, base, tracking.AvailableTechniques(false, false))
	assert.ElementsMatch(t,
		append(append([]tracking.Technique{}, base...), tracking.TechniqueWaterCrossing, tracking.TechniqueBrushTracks),
		tracking.AvailableTechniques(true, true))
}

func TestCounterContext_FiltersByEnvironment(t *testing.T) {
	cc := tracking.CounterContext{
		Techniques:     []tracking.Technique{tracking.TechniqueWaterCrossing, tracking.TechniqueBrushTracks, tracking.TechniqueHardSurfaces},
		HasWaterNearby: true,
	}
	assert.Equal(t, []tracking.Technique{tracking.TechniqueWaterCrossing, tracking.TechniqueHardSurfaces}, cc.ValidTechniques())
	assert.Equal(t, []tracking.Technique{tracking.TechniqueBrushTracks}, cc.InvalidTechniques())
	assert.False(t, cc.IsValid("teleport"))
}

func TestConceal(t *testing.T) {
	tests := []struct {
		name       string
		net        int
		cc         tracking.CounterContext
		wantDC     int
		wantBonus  int
		wantTime   float64
		wantTechs  int
		wantDetail string
	}{
		{
			name: "bonuses add to net successes",
			net:  5,
			cc: tracking.CounterContext{
				ConcealerID:    "raider",
				Techniques:     []tracking.Technique{tracking.TechniqueHardSurfaces, tracking.TechniqueWaterCrossing, tracking.TechniqueBrushTracks},
				HasWaterNearby: true,
			},
			wantDC: 15, wantBonus: 10, wantTime: 1.0, wantTechs: 2,
			wantDetail: "5 net successes + 10 technique bonus (Hard Surfaces, Water Crossing) = DC 15",
		},
		{
			name:   "clamped to minimum",
			net:    0,
			cc:     tracking.CounterContext{ConcealerID: "raider"},
			wantDC: 10, wantBonus: 0, wantTime: 1.0, wantTechs: 0,
			wantDetail: "(none)",
		},
		{
			name: "clamped to maximum and slowed",
			net:  25,
			cc: tracking.CounterContext{
				ConcealerID:        "raider",
				Techniques:         []tracking.Technique{tracking.TechniqueFalseTrail, tracking.TechniqueBrushTracks},
				HasFoliageOrDebris: true,
			},
			wantDC: 30, wantBonus: 10, wantTime: 3.0, wantTechs: 2,
			wantDetail: "= DC 30",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := trackingtest.NewScriptedChecker(tracking.CheckResult{NetSuccesses: tt.net, Outcome: tracking.OutcomeFullSuccess})
			c := newConcealer(checker)

			res, err := c.Conceal(context.Background(), tracker, tt.cc)

			require.NoError(t, err)
			assert.Equal(t, tt.net, res.NetSuccesses)
			assert.Equal(t, tt.wantDC, res.ConcealmentDC)
			assert.Equal(t, tt.wantBonus, res.TechniqueBonus)
			assert.InDelta(t, tt.wantTime, res.TimeMultiplier, 1e-9)
			assert.Len(t, res.Techniques, tt.wantTechs)
			assert.Contains(t, res.Details, tt.wantDetail)

			call := checker.LastCall(t)
			assert.Equal(t, 0, call.DC)
			assert.Equal(t, tracking.SkillWastelandSurvival, call.SkillID)
			assert.Len(t, call.Context.Modifiers, tt.wantTechs)
		})
	}
}

func TestConceal_CheckerError(t *testing.T) {
	checker := trackingtest.NewScriptedChecker()

	_, err := newConcealer(checker).Conceal(context.Background(), tracker, tracking.CounterContext{})

	assert.ErrorIs(t, err, trackingtest.ErrScriptExhausted)
	trackingtest.AssertErrorCode(t, err, tracking.CodeCheckFailed)
}

func TestCounterTracking_ContestsThePursuit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	st := f.seed(t, tracking.PhasePursuit)
	f.checker.Push(trackingtest.Marginal(), trackingtest.Marginal())

	got, err := f.svc.ApplyCounterTracking(ctx, st.ID, tracking.CounterResult{ConcealmentDC: 22, TimeMultiplier: 2})
	require.NoError(t, err)
	require.NotNil(t, got.ContestedDC)
	assert.Equal(t, 22, *got.ContestedDC)
	assert.InDelta(t, 2.0, got.ConcealmentTimeMultiplier, 1e-9)

	res, err := f.svc.ContinuePursuit(ctx, tracker, st.ID, tracking.DefaultModifiers(), 1)
	require.NoError(t, err)
	assert.Equal(t, 22, res.Check.BaseDC)
	assert.Contains(t, res.Narrative, "takes 2x as long")
	assert.InDelta(t, 1.0, res.State.DistanceCovered, 1e-9, "the multiplier never scales distance")

	got, err = f.svc.ClearCounterTracking(ctx, st.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ContestedDC)

	res, err = f.svc.ContinuePursuit(ctx, tracker, st.ID, tracking.DefaultModifiers(), 1)
	require.NoError(t, err)
	assert.NotContains(t, res.Narrative, "covered its tracks")
	assert.Equal(t, []int{22, 12}, f.dcs())
}

func TestApplyCounterTracking_Preconditions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	st := f.seed(t, tracking.PhasePursuit)

	_, err := f.svc.ApplyCounterTracking(ctx, st.ID, tracking.CounterResult{ConcealmentDC: -1})
	assert.ErrorIs(t, err, tracking.ErrInvalidArgument)

	require.NoError(t, f.svc.Abandon(ctx, st.ID))
	_, err = f.svc.ApplyCounterTracking(ctx, st.ID, tracking.CounterResult{ConcealmentDC: 15})
	assert.ErrorIs(t, err, tracking.ErrNotActive)
	_, err = f.svc.ClearCounterTracking(ctx, st.ID)
	assert.ErrorIs(t, err, tracking.ErrNotActive)
}
