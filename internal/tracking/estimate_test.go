// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package tracking_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/holotrack/internal/tracking"
	"github.com/holomush/holotrack/internal/tracking/trackingtest"
)

func TestEstimateTargetCount(t *testing.T) {
	tests := []struct {
		name   string
		result tracking.CheckResult
		ints   []int
		want   int
	}{
		// base = 3 + IntN(3); spread shrinks with margin.
		{"wide margin is exact", trackingtest.Success(tracking.OutcomeExceptionalSuccess, 3), []int{1}, 4},
		{"narrow margin low roll", trackingtest.Success(tracking.OutcomeMarginalSuccess, 1), []int{0, 0}, 1},
		{"narrow margin high roll", trackingtest.Success(tracking.OutcomeMarginalSuccess, 1), []int{2, 4}, 7},
		{"never below one", trackingtest.Marginal(), []int{0, 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			st := f.seed(t, tracking.PhasePursuit)
			f.checker.Push(tt.result)
			f.random.WithInts(tt.ints...)

			count, ok, err := f.svc.EstimateTargetCount(context.Background(), tracker, st.ID)

			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, tt.want, count)
			got := f.get(t, st.ID)
			require.NotNil(t, got.EstimatedTargetCount)
			assert.Equal(t, tt.want, *got.EstimatedTargetCount)

			call := f.checker.LastCall(t)
			assert.True(t, call.Fixed)
			assert.Equal(t, 10, call.DC)
		})
	}
}

func TestEstimateTargetCount_FailureRecordsNothing(t *testing.T) {
	f := newFixture(t)
	st := f.seed(t, tracking.PhaseAcquisition)
	f.checker.Push(trackingtest.Failure())

	count, ok, err := f.svc.EstimateTargetCount(context.Background(), tracker, st.ID)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, count)
	assert.Equal(t, st, f.get(t, st.ID))
}

func TestEstimateTrailAge(t *testing.T) {
	tests := []struct {
		name   string
		age    tracking.TrailAge
		result tracking.CheckResult
		floats []float64
		ints   []int
		want   tracking.TrailAge
	}{
		{"full success is exact", tracking.TrailFaint, trackingtest.Success(tracking.OutcomeFullSuccess, 1), []float64{0}, nil, tracking.TrailFaint},
		{"marginal and lucky", tracking.TrailFaint, trackingtest.Marginal(), []float64{0.9}, nil, tracking.TrailFaint},
		{"marginal misjudged younger", tracking.TrailFaint, trackingtest.Marginal(), []float64{0.1}, []int{0}, tracking.TrailModerate},
		{"marginal misjudged older", tracking.TrailFaint, trackingtest.Marginal(), []float64{0.1}, []int{1}, tracking.TrailOld},
		{"clamped at youngest", tracking.TrailObvious, trackingtest.Marginal(), []float64{0.1}, []int{0}, tracking.TrailObvious},
		{"clamped at oldest", tracking.TrailCold, trackingtest.Marginal(), []float64{0.1}, []int{1}, tracking.TrailCold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			st := tracking.NewState(tracker.ID, "raider band", tt.age, tracking.BaseDC(tt.age), epoch)
			st.Phase = tracking.PhasePursuit
			require.NoError(t, f.store.Save(context.Background(), st))
			f.checker.Push(tt.result)
			f.random.WithFloats(tt.floats...).WithInts(tt.ints...)

			age, ok, err := f.svc.EstimateTrailAge(context.Background(), tracker, st.ID)

			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, tt.want, age)
			assert.Equal(t, 12, f.checker.LastCall(t).DC)
			assert.Equal(t, st, f.get(t, st.ID), "estimating age stores nothing")
		})
	}
}

func TestEstimateTrailAge_Failure(t *testing.T) {
	f := newFixture(t)
	st := f.seed(t, tracking.PhasePursuit)
	f.checker.Push(trackingtest.Fumble())

	_, ok, err := f.svc.EstimateTrailAge(context.Background(), tracker, st.ID)

	require.NoError(t, err)
	assert.False(t, ok)
}
