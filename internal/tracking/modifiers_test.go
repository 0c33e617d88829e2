// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package tracking_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/holomush/holotrack/internal/tracking"
)

func TestModifiers_TotalDCModifier(t *testing.T) {
	tests := []struct {
		name string
		mods tracking.Modifiers
		want int
	}{
		{"none", tracking.DefaultModifiers(), 0},
		{"blood trail", tracking.Modifiers{HasBloodTrail: true}, -4},
		{"fresh injury", tracking.Modifiers{TargetIsFreshlyInjured: true}, -2},
		{"single target", tracking.Modifiers{TargetCount: 1}, 0},
		{"multiple targets", tracking.Modifiers{TargetCount: 4}, -2},
		{"recent rain", tracking.Modifiers{HasRecentRain: true}, 4},
		{"target hiding", tracking.Modifiers{TargetIsHiding: true}, 2},
		{"hours elapsed", tracking.Modifiers{HoursElapsed: 3}, 3},
		{"adjustment", tracking.Modifiers{Adjustment: -5}, -5},
		{
			"combined",
			tracking.Modifiers{HasBloodTrail: true, HasRecentRain: true, TargetCount: 2, HoursElapsed: 2},
			-4 + 4 - 2 + 2,
		},
		{"dice modifiers do not change dc", tracking.Modifiers{EquipmentBonus: 3, IsFamiliarTerritory: true}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.mods.TotalDCModifier())
		})
	}
}

func TestModifiers_TotalDiceModifier(t *testing.T) {
	assert.Equal(t, 0, tracking.DefaultModifiers().TotalDiceModifier())
	assert.Equal(t, 2, tracking.Modifiers{EquipmentBonus: 2}.TotalDiceModifier())
	assert.Equal(t, 2, tracking.Modifiers{IsFamiliarTerritory: true}.TotalDiceModifier())
	assert.Equal(t, 3, tracking.Modifiers{EquipmentBonus: 1, IsFamiliarTerritory: true}.TotalDiceModifier())
}

func TestModifiers_SkillContext(t *testing.T) {
	mods := tracking.Modifiers{
		HasBloodTrail:       true,
		HoursElapsed:        2,
		EquipmentBonus:      1,
		IsFamiliarTerritory: true,
	}

	sc := mods.SkillContext()

	ids := make([]string, 0, len(sc.Modifiers))
	dc := 0
	for _, m := range sc.Modifiers {
		ids = append(ids, m.ID)
		dc += m.DCModifier
	}
	assert.ElementsMatch(t, []string{"tracking-gear", "blood-trail", "time-elapsed", "familiar-territory"}, ids)
	assert.Equal(t, mods.TotalDiceModifier(), sc.DiceModifier())
	assert.Equal(t, mods.TotalDCModifier(), dc)
}

func TestModifiers_SkillContextEmpty(t *testing.T) {
	sc := tracking.DefaultModifiers().SkillContext()
	assert.Empty(t, sc.Modifiers)
	assert.Equal(t, 0, sc.DiceModifier())
}

func TestModifiers_CheckIntervalMiles(t *testing.T) {
	rules := tracking.DefaultRules()
	assert.InDelta(t, 2.0, tracking.Modifiers{}.CheckIntervalMiles(rules), 1e-9, "empty terrain is open wasteland")
	assert.InDelta(t, 0.5, tracking.Modifiers{Terrain: tracking.TerrainDenseRuins}.CheckIntervalMiles(rules), 1e-9)
}

func TestModifiers_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mods    tracking.Modifiers
		wantErr bool
	}{
		{"defaults", tracking.DefaultModifiers(), false},
		{"zero value", tracking.Modifiers{}, false},
		{"unknown terrain", tracking.Modifiers{Terrain: "swamp"}, true},
		{"negative hours", tracking.Modifiers{HoursElapsed: -1}, true},
		{"negative targets", tracking.Modifiers{TargetCount: -2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mods.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, tracking.ErrInvalidArgument)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestModifiers_String(t *testing.T) {
	assert.Equal(t, "No modifiers", tracking.DefaultModifiers().String())

	s := tracking.Modifiers{HasBloodTrail: true, TargetCount: 3, EquipmentBonus: 2}.String()
	assert.Contains(t, s, "Blood Trail (-4 DC)")
	assert.Contains(t, s, "Multiple Targets (3, -2 DC)")
	assert.Contains(t, s, "Equipment (+2d10)")
}
