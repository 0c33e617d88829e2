// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package tracking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/holotrack/internal/tracking"
	"github.com/holomush/holotrack/internal/tracking/trackingtest"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newState(t *testing.T) *tracking.State {
	t.Helper()
	return tracking.NewState("p1", "raider band", tracking.TrailFresh, tracking.BaseDC(tracking.TrailFresh), epoch)
}

func check(phase tracking.Phase, res tracking.CheckResult) tracking.Check {
	return tracking.NewCheck(phase, 12, 12, res, tracking.TerrainOpenWasteland, 0, "", epoch.Add(time.Minute))
}

func TestNewState(t *testing.T) {
	s := newState(t)

	assert.False(t, s.ID.IsZero())
	assert.Equal(t, tracking.PhaseAcquisition, s.Phase)
	assert.Equal(t, tracking.StatusActive, s.Status)
	assert.Equal(t, 12, s.BaseDC)
	assert.Equal(t, 0, s.FailedAttemptsInPhase)
	assert.InDelta(t, 1.0, s.ConcealmentTimeMultiplier, 1e-9)
	assert.Equal(t, epoch, s.StartedAt)
	assert.True(t, s.IsActive())
}

func TestState_ActualBaseDC(t *testing.T) {
	for _, age := range tracking.TrailAges() {
		s := tracking.NewState("p1", "x", age, tracking.BaseDC(age), epoch)
		assert.Equal(t, tracking.BaseDC(age), s.ActualBaseDC(), age.String())

		s.ApplyCounterTracking(17, 1.5)
		assert.Equal(t, 17, s.ActualBaseDC(), "contested DC replaces %s base", age)

		s.ClearCounterTracking()
		assert.Equal(t, tracking.BaseDC(age), s.ActualBaseDC())
		assert.InDelta(t, 1.0, s.ConcealmentTimeMultiplier, 1e-9)
	}
}

func TestState_ApplyCounterTrackingDefaultsMultiplier(t *testing.T) {
	s := newState(t)
	s.ApplyCounterTracking(20, 0)
	assert.InDelta(t, 1.0, s.ConcealmentTimeMultiplier, 1e-9)
}

func TestState_EffectiveDCClampsAtZero(t *testing.T) {
	s := newState(t)
	s.ApplyCounterTracking(0, 1)
	assert.Equal(t, 0, s.EffectiveDC())

	s.ClearCounterTracking()
	s.IncreaseCumulativeModifier(4)
	assert.Equal(t, 16, s.EffectiveDC())
}

func TestState_CumulativeModifierNeverDecreases(t *testing.T) {
	s := newState(t)
	s.IncreaseCumulativeModifier(2)
	s.IncreaseCumulativeModifier(-5)
	s.IncreaseCumulativeModifier(0)
	assert.Equal(t, 2, s.CumulativeDCModifier)
}

func TestState_RecordSuccessAndFailure(t *testing.T) {
	s := newState(t)

	s.RecordFailure(check(tracking.PhaseAcquisition, trackingtest.Failure()))
	s.RecordFailure(check(tracking.PhaseAcquisition, trackingtest.Failure()))
	assert.Equal(t, 2, s.FailedAttemptsInPhase)

	s.RecordSuccess(check(tracking.PhaseAcquisition, trackingtest.Marginal()), 1.5, tracking.TerrainDenseRuins)

	assert.Equal(t, 0, s.FailedAttemptsInPhase)
	assert.InDelta(t, 1.5, s.DistanceCovered, 1e-9)
	assert.Equal(t, []tracking.Terrain{tracking.TerrainDenseRuins}, s.TerrainHistory)
	assert.Equal(t, 3, s.TotalChecks())
	assert.Equal(t, 1, s.SuccessfulChecks())
	assert.Equal(t, 2, s.FailedChecks())
	assert.Equal(t, epoch.Add(time.Minute), s.LastCheckAt)

	last, ok := s.LastCheck()
	require.True(t, ok)
	assert.True(t, last.Succeeded())
}

func TestState_LastCheckEmpty(t *testing.T) {
	_, ok := newState(t).LastCheck()
	assert.False(t, ok)
}

func TestState_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    tracking.Phase
		apply   func(s *tracking.State) error
		want    tracking.Phase
		wantErr bool
	}{
		{"acquisition to pursuit", tracking.PhaseAcquisition, (*tracking.State).TransitionToPursuit, tracking.PhasePursuit, false},
		{"lost to pursuit is not acquisition", tracking.PhaseLost, (*tracking.State).TransitionToPursuit, tracking.PhaseLost, true},
		{"pursuit to lost", tracking.PhasePursuit, (*tracking.State).TransitionToLost, tracking.PhaseLost, false},
		{"closing in to lost", tracking.PhaseClosingIn, (*tracking.State).TransitionToLost, tracking.PhaseLost, false},
		{"acquisition cannot be lost", tracking.PhaseAcquisition, (*tracking.State).TransitionToLost, tracking.PhaseAcquisition, true},
		{"acquisition to cold", tracking.PhaseAcquisition, (*tracking.State).TransitionToCold, tracking.PhaseCold, false},
		{"lost to cold", tracking.PhaseLost, (*tracking.State).TransitionToCold, tracking.PhaseCold, false},
		{"pursuit cannot go cold", tracking.PhasePursuit, (*tracking.State).TransitionToCold, tracking.PhasePursuit, true},
		{"lost recovers", tracking.PhaseLost, (*tracking.State).RecoverToPursuit, tracking.PhasePursuit, false},
		{"pursuit cannot recover", tracking.PhasePursuit, (*tracking.State).RecoverToPursuit, tracking.PhasePursuit, true},
		{
			"pursuit to closing in", tracking.PhasePursuit,
			func(s *tracking.State) error { return s.TransitionToClosingIn(200) },
			tracking.PhaseClosingIn, false,
		},
		{
			"lost cannot close in", tracking.PhaseLost,
			func(s *tracking.State) error { return s.TransitionToClosingIn(200) },
			tracking.PhaseLost, true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState(t)
			s.Phase = tt.from
			s.FailedAttemptsInPhase = 2

			err := tt.apply(s)

			assert.Equal(t, tt.want, s.Phase)
			if tt.wantErr {
				assert.ErrorIs(t, err, tracking.ErrIllegalTransition)
				trackingtest.AssertErrorCode(t, err, tracking.CodeIllegalTransition)
				assert.Equal(t, 2, s.FailedAttemptsInPhase, "failed transition must not reset counters")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 0, s.FailedAttemptsInPhase)
		})
	}
}

func TestState_TransitionToColdSetsStatus(t *testing.T) {
	s := newState(t)
	require.NoError(t, s.TransitionToCold())
	assert.Equal(t, tracking.StatusCold, s.Status)
	assert.False(t, s.IsActive())

	err := s.TransitionToPursuit()
	assert.ErrorIs(t, err, tracking.ErrIllegalTransition, "terminal pursuits cannot move")
}

func TestState_TransitionToClosingInRecordsDistance(t *testing.T) {
	s := newState(t)
	s.Phase = tracking.PhasePursuit
	require.NoError(t, s.TransitionToClosingIn(320))
	require.NotNil(t, s.DistanceToTargetFeet)
	assert.Equal(t, 320, *s.DistanceToTargetFeet)
}

func TestState_MarkTargetFound(t *testing.T) {
	s := newState(t)
	assert.ErrorIs(t, s.MarkTargetFound(), tracking.ErrIllegalTransition)

	s.Phase = tracking.PhaseClosingIn
	require.NoError(t, s.MarkTargetFound())
	assert.Equal(t, tracking.StatusTargetFound, s.Status)
	assert.Equal(t, tracking.PhaseClosingIn, s.Phase)
}

func TestState_Abandon(t *testing.T) {
	s := newState(t)
	require.NoError(t, s.Abandon())
	assert.Equal(t, tracking.StatusAbandoned, s.Status)
	assert.ErrorIs(t, s.Abandon(), tracking.ErrIllegalTransition)
}

func TestState_CloneIsDeep(t *testing.T) {
	s := newState(t)
	s.SetEstimatedTargetCount(4)
	s.UpdateDistanceToTarget(100)
	s.ApplyCounterTracking(15, 2)
	s.RecordFailure(check(tracking.PhaseAcquisition, trackingtest.Failure()))

	c := s.Clone()
	*c.EstimatedTargetCount = 9
	*c.DistanceToTargetFeet = 1
	*c.ContestedDC = 30
	c.History[0].Notes = "changed"
	c.UpdateTargetDescription("someone else")

	assert.Equal(t, 4, *s.EstimatedTargetCount)
	assert.Equal(t, 100, *s.DistanceToTargetFeet)
	assert.Equal(t, 15, *s.ContestedDC)
	assert.Empty(t, s.History[0].Notes)
	assert.Equal(t, "raider band", s.TargetDescription)
}

func TestState_String(t *testing.T) {
	s := newState(t)
	assert.Contains(t, s.String(), "raider band")
	assert.Contains(t, s.String(), "acquisition")
}

func TestCheck_String(t *testing.T) {
	assert.Contains(t, check(tracking.PhasePursuit, trackingtest.Marginal()).String(), "PASS")
	assert.Contains(t, check(tracking.PhasePursuit, trackingtest.Failure()).String(), "FAIL")
	assert.Contains(t, check(tracking.PhasePursuit, trackingtest.Fumble()).String(), "FUMBLE")
}
