// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package tracking_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/holomush/holotrack/internal/tracking"
	"github.com/holomush/holotrack/internal/tracking/trackingtest"
)

func TestDefaultRules_Valid(t *testing.T) {
	assert.NoError(t, tracking.DefaultRules().Validate())
}

func TestBaseDC_StrictlyIncreasesWithAge(t *testing.T) {
	ages := tracking.TrailAges()
	for i := 1; i < len(ages); i++ {
		assert.Greater(t, tracking.BaseDC(ages[i]), tracking.BaseDC(ages[i-1]),
			"%s should be harder than %s", ages[i], ages[i-1])
	}
}

func TestBaseDC_DefaultSchedule(t *testing.T) {
	want := map[tracking.TrailAge]int{
		tracking.TrailObvious:  8,
		tracking.TrailFresh:    12,
		tracking.TrailModerate: 16,
		tracking.TrailFaint:    20,
		tracking.TrailOld:      24,
		tracking.TrailCold:     28,
	}
	for age, dc := range want {
		assert.Equal(t, dc, tracking.BaseDC(age), age.String())
	}
	assert.Equal(t, 0, tracking.BaseDC(tracking.TrailAge(99)))
}

func TestRules_Validate(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(r *tracking.Rules)
		field string
	}{
		{"empty skill", func(r *tracking.Rules) { r.SkillID = "" }, "skill_id"},
		{"non increasing base dc", func(r *tracking.Rules) { r.BaseDC.Faint = r.BaseDC.Moderate }, "base_dc.faint"},
		{"zero attempts", func(r *tracking.Rules) { r.MaxFailedAttempts = 0 }, "max_failed_attempts"},
		{"negative retry modifier", func(r *tracking.Rules) { r.AcquisitionRetryModifier = -1 }, "acquisition_retry_modifier"},
		{"negative surcharge", func(r *tracking.Rules) { r.Recovery.SpiralSearch = -4 }, "recovery"},
		{"auto success beyond near", func(r *tracking.Rules) { r.Closing.AutoSuccessFeet = 200 }, "closing"},
		{"positive distance modifier", func(r *tracking.Rules) { r.Closing.FarModifier = 2 }, "closing"},
		{"negative estimation dc", func(r *tracking.Rules) { r.Estimation.TrailAgeDC = -1 }, "estimation"},
		{"misestimate above one", func(r *tracking.Rules) { r.Estimation.MisestimateChance = 1.5 }, "estimation.misestimate_chance"},
		{"zero master rank", func(r *tracking.Rules) { r.MasterRank = 0 }, "master_rank"},
		{"zero interval", func(r *tracking.Rules) { r.CheckInterval.DenseRuins = 0 }, "check_interval.dense_ruins"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := tracking.DefaultRules()
			tt.mut(&rules)

			err := rules.Validate()

			assert.ErrorIs(t, err, tracking.ErrInvalidRules)
			trackingtest.AssertErrorCode(t, err, tracking.CodeInvalidRules)
			trackingtest.AssertErrorContext(t, err, "field", tt.field)
		})
	}
}

func TestRules_RecoverySurcharge(t *testing.T) {
	r := tracking.DefaultRules()
	assert.Equal(t, 0, r.RecoverySurcharge(tracking.RecoveryBacktrack))
	assert.Equal(t, 4, r.RecoverySurcharge(tracking.RecoverySpiralSearch))
	assert.Equal(t, 8, r.RecoverySurcharge(tracking.RecoveryReturnToLastKnown))
}

func TestRules_DistanceModifier(t *testing.T) {
	r := tracking.DefaultRules()
	tests := []struct {
		feet int
		want int
		auto bool
	}{
		{0, -6, true},
		{50, -6, true},
		{51, -6, false},
		{75, -6, false},
		{100, -6, false},
		{101, -4, false},
		{300, -4, false},
		{500, -4, false},
		{501, 0, false},
		{5000, 0, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.DistanceModifier(tt.feet), "%dft", tt.feet)
		assert.Equal(t, tt.auto, r.IsAutoSuccess(tt.feet), "%dft", tt.feet)
	}
}

func TestTerrainIntervals_For(t *testing.T) {
	iv := tracking.DefaultRules().CheckInterval
	assert.InDelta(t, 2.0, iv.For(tracking.TerrainOpenWasteland), 1e-9)
	assert.InDelta(t, 1.0, iv.For(tracking.TerrainModerateRuins), 1e-9)
	assert.InDelta(t, 0.5, iv.For(tracking.TerrainDenseRuins), 1e-9)
	assert.InDelta(t, 0.1, iv.For(tracking.TerrainLabyrinthine), 1e-9)
	assert.InDelta(t, 0.1, iv.For(tracking.TerrainGlitchedLabyrinth), 1e-9)
	assert.InDelta(t, 1.0, iv.For(tracking.Terrain("swamp")), 1e-9)
}
