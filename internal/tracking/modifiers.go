// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package tracking

import (
	"fmt"
	"strings"
)

// Condition DC adjustments.
const (
	bloodTrailDC      = -4
	freshInjuryDC     = -2
	multipleTargetsDC = -2
	recentRainDC      = 4
	targetHidingDC    = 2
	familiarDice      = 2
)

// Modifiers are the conditions for a single tracking attempt. They are
// supplied fresh on each call and never persisted.
type Modifiers struct {
	HasBloodTrail          bool
	HasRecentRain          bool
	TargetCount            int
	TargetIsHiding         bool
	TargetIsFreshlyInjured bool
	HoursElapsed           int
	Terrain                Terrain
	EquipmentBonus         int
	IsFamiliarTerritory    bool
	Adjustment             int // signed DC change on top of the named conditions
}

// DefaultModifiers returns modifiers for a single target in open wasteland.
func DefaultModifiers() Modifiers {
	return Modifiers{TargetCount: 1, Terrain: TerrainOpenWasteland}
}

func (m Modifiers) terrain() Terrain {
	if m.Terrain == "" {
		return TerrainOpenWasteland
	}
	return m.Terrain
}

// TotalDCModifier returns the signed DC adjustment of all conditions.
func (m Modifiers) TotalDCModifier() int {
	total := m.Adjustment
	if m.HasBloodTrail {
		total += bloodTrailDC
	}
	if m.TargetIsFreshlyInjured {
		total += freshInjuryDC
	}
	if m.TargetCount >= 2 {
		total += multipleTargetsDC
	}
	if m.HasRecentRain {
		total += recentRainDC
	}
	if m.TargetIsHiding {
		total += targetHidingDC
	}
	if m.HoursElapsed > 0 {
		total += m.HoursElapsed
	}
	return total
}

// CheckIntervalMiles returns how far the tracker travels between pursuit
// checks on the modifiers' terrain.
func (m Modifiers) CheckIntervalMiles(rules Rules) float64 {
	return rules.CheckInterval.For(m.terrain())
}

// TotalDiceModifier returns the bonus dice from equipment and familiarity.
func (m Modifiers) TotalDiceModifier() int {
	total := m.EquipmentBonus
	if m.IsFamiliarTerritory {
		total += familiarDice
	}
	return total
}

// SkillContext converts the modifiers into the resolver's context format.
func (m Modifiers) SkillContext() SkillContext {
	var mods []SkillModifier
	add := func(id, name, source string, dice, dc int) {
		mods = append(mods, SkillModifier{ID: id, Name: name, Source: source, DiceModifier: dice, DCModifier: dc})
	}
	if m.EquipmentBonus != 0 {
		add("tracking-gear", "Tracking Equipment", "equipment", m.EquipmentBonus, 0)
	}
	if m.HasBloodTrail {
		add("blood-trail", "Blood Trail", "Target is leaving a blood trail", 0, bloodTrailDC)
	}
	if m.TargetIsFreshlyInjured {
		add("fresh-injury", "Fresh Injury", "Target is actively bleeding", 0, freshInjuryDC)
	}
	if m.TargetCount >= 2 {
		add("multiple-targets", "Multiple Targets", fmt.Sprintf("%d targets leave more signs", m.TargetCount), 0, multipleTargetsDC)
	}
	if m.HasRecentRain {
		add("recent-rain", "Recent Rain", "Rain has obscured tracks", 0, recentRainDC)
	}
	if m.TargetIsHiding {
		add("target-hiding", "Target Hiding", "Target is actively concealing their trail", 0, targetHidingDC)
	}
	if m.HoursElapsed > 0 {
		add("time-elapsed", "Trail Degradation", fmt.Sprintf("%d hour(s) elapsed", m.HoursElapsed), 0, m.HoursElapsed)
	}
	if m.IsFamiliarTerritory {
		add("familiar-territory", "Familiar Territory", "Tracker knows this area well", familiarDice, 0)
	}
	if m.Adjustment != 0 {
		add("adjustment", "Adjustment", "situational", 0, m.Adjustment)
	}
	return SkillContext{Modifiers: mods}
}

// Validate checks the modifiers for impossible values.
func (m Modifiers) Validate() error {
	if m.Terrain != "" {
		if err := m.Terrain.Validate(); err != nil {
			return invalidArgument("terrain", "is not a known terrain")
		}
	}
	if m.HoursElapsed < 0 {
		return invalidArgument("hours_elapsed", "cannot be negative")
	}
	if m.TargetCount < 0 {
		return invalidArgument("target_count", "cannot be negative")
	}
	return nil
}

// String lists the active conditions, for check annotations.
func (m Modifiers) String() string {
	var parts []string
	if m.HasBloodTrail {
		parts = append(parts, "Blood Trail (-4 DC)")
	}
	if m.TargetIsFreshlyInjured {
		parts = append(parts, "Fresh Injury (-2 DC)")
	}
	if m.TargetCount >= 2 {
		parts = append(parts, fmt.Sprintf("Multiple Targets (%d, -2 DC)", m.TargetCount))
	}
	if m.HasRecentRain {
		parts = append(parts, "Recent Rain (+4 DC)")
	}
	if m.TargetIsHiding {
		parts = append(parts, "Target Hiding (+2 DC)")
	}
	if m.HoursElapsed > 0 {
		parts = append(parts, fmt.Sprintf("Time Elapsed (+%d DC)", m.HoursElapsed))
	}
	if m.EquipmentBonus != 0 {
		parts = append(parts, fmt.Sprintf("Equipment (%+dd10)", m.EquipmentBonus))
	}
	if m.IsFamiliarTerritory {
		parts = append(parts, "Familiar Territory (+2d10)")
	}
	if m.Adjustment != 0 {
		parts = append(parts, fmt.Sprintf("Adjustment (%+d DC)", m.Adjustment))
	}
	if len(parts) == 0 {
		return "No modifiers"
	}
	return strings.Join(parts, ", ")
}
