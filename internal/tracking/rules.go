// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package tracking

import (
	"fmt"
)

// TrailDCs holds the base difficulty for each trail age.
type TrailDCs struct {
	Obvious  int `yaml:"obvious" jsonschema:"minimum=0"`
	Fresh    int `yaml:"fresh" jsonschema:"minimum=0"`
	Moderate int `yaml:"moderate" jsonschema:"minimum=0"`
	Faint    int `yaml:"faint" jsonschema:"minimum=0"`
	Old      int `yaml:"old" jsonschema:"minimum=0"`
	Cold     int `yaml:"cold" jsonschema:"minimum=0"`
}

// For returns the base DC for the given trail age, or 0 for an unknown age.
func (d TrailDCs) For(age TrailAge) int {
	switch age {
	case TrailObvious:
		return d.Obvious
	case TrailFresh:
		return d.Fresh
	case TrailModerate:
		return d.Moderate
	case TrailFaint:
		return d.Faint
	case TrailOld:
		return d.Old
	case TrailCold:
		return d.Cold
	default:
		return 0
	}
}

// RecoveryRules holds the DC surcharge for each recovery technique.
type RecoveryRules struct {
	Backtrack         int `yaml:"backtrack" jsonschema:"minimum=0"`
	SpiralSearch      int `yaml:"spiral_search" jsonschema:"minimum=0"`
	ReturnToLastKnown int `yaml:"return_to_last_known" jsonschema:"minimum=0"`
}

// ClosingRules holds the distance bands used while closing in.
type ClosingRules struct {
	AutoSuccessFeet int `yaml:"auto_success_feet" jsonschema:"minimum=0"`
	NearFeet        int `yaml:"near_feet" jsonschema:"minimum=0"`
	NearModifier    int `yaml:"near_modifier" jsonschema:"maximum=0"`
	FarFeet         int `yaml:"far_feet" jsonschema:"minimum=0"`
	FarModifier     int `yaml:"far_modifier" jsonschema:"maximum=0"`
}

// EstimationRules holds the fixed DCs of the optional side checks.
type EstimationRules struct {
	TargetCountDC     int     `yaml:"target_count_dc" jsonschema:"minimum=0"`
	TrailAgeDC        int     `yaml:"trail_age_dc" jsonschema:"minimum=0"`
	MisestimateChance float64 `yaml:"misestimate_chance" jsonschema:"minimum=0,maximum=1"`
}

// TerrainIntervals holds the distance in miles between pursuit checks.
type TerrainIntervals struct {
	OpenWasteland     float64 `yaml:"open_wasteland" jsonschema:"exclusiveMinimum=0"`
	ModerateRuins     float64 `yaml:"moderate_ruins" jsonschema:"exclusiveMinimum=0"`
	DenseRuins        float64 `yaml:"dense_ruins" jsonschema:"exclusiveMinimum=0"`
	Labyrinthine      float64 `yaml:"labyrinthine" jsonschema:"exclusiveMinimum=0"`
	GlitchedLabyrinth float64 `yaml:"glitched_labyrinth" jsonschema:"exclusiveMinimum=0"`
}

// For returns the check interval for the terrain. Unknown terrain uses one mile.
func (t TerrainIntervals) For(terrain Terrain) float64 {
	switch terrain {
	case TerrainOpenWasteland:
		return t.OpenWasteland
	case TerrainModerateRuins:
		return t.ModerateRuins
	case TerrainDenseRuins:
		return t.DenseRuins
	case TerrainLabyrinthine:
		return t.Labyrinthine
	case TerrainGlitchedLabyrinth:
		return t.GlitchedLabyrinth
	default:
		return 1.0
	}
}

// Rules holds every tunable number used by the tracking rules.
type Rules struct {
	Version                  string           `yaml:"version" jsonschema:"minLength=1"`
	SkillID                  string           `yaml:"skill_id" jsonschema:"minLength=1"`
	BaseDC                   TrailDCs         `yaml:"base_dc"`
	MaxFailedAttempts        int              `yaml:"max_failed_attempts" jsonschema:"minimum=1"`
	AcquisitionRetryModifier int              `yaml:"acquisition_retry_modifier" jsonschema:"minimum=0"`
	Recovery                 RecoveryRules    `yaml:"recovery"`
	Closing                  ClosingRules     `yaml:"closing"`
	Estimation               EstimationRules  `yaml:"estimation"`
	MasterRank               int              `yaml:"master_rank" jsonschema:"minimum=1"`
	CheckInterval            TerrainIntervals `yaml:"check_interval"`
}

// SkillWastelandSurvival is the skill used for every tracking check.
const SkillWastelandSurvival = "wasteland-survival"

// RulesVersion is the rules format written by DefaultRules.
const RulesVersion = "1.0.0"

// DefaultRules returns the standard tracking rules.
func DefaultRules() Rules {
	return Rules{
		Version: RulesVersion,
		SkillID: SkillWastelandSurvival,
		BaseDC: TrailDCs{
			Obvious:  8,
			Fresh:    12,
			Moderate: 16,
			Faint:    20,
			Old:      24,
			Cold:     28,
		},
		MaxFailedAttempts:        3,
		AcquisitionRetryModifier: 2,
		Recovery: RecoveryRules{
			Backtrack:         0,
			SpiralSearch:      4,
			ReturnToLastKnown: 8,
		},
		Closing: ClosingRules{
			AutoSuccessFeet: 50,
			NearFeet:        100,
			NearModifier:    -6,
			FarFeet:         500,
			FarModifier:     -4,
		},
		Estimation: EstimationRules{
			TargetCountDC:     10,
			TrailAgeDC:        12,
			MisestimateChance: 0.3,
		},
		MasterRank: 5,
		CheckInterval: TerrainIntervals{
			OpenWasteland:     2.0,
			ModerateRuins:     1.0,
			DenseRuins:        0.5,
			Labyrinthine:      0.1,
			GlitchedLabyrinth: 0.1,
		},
	}
}

// Validate checks that the rules are internally consistent.
func (r Rules) Validate() error {
	if r.SkillID == "" {
		return invalidRules("skill_id", "cannot be empty")
	}
	prev := -1
	for _, age := range TrailAges() {
		dc := r.BaseDC.For(age)
		if dc <= prev {
			return invalidRules("base_dc."+age.String(),
				fmt.Sprintf("must be greater than the previous band (%d), got %d", prev, dc))
		}
		prev = dc
	}
	if r.MaxFailedAttempts < 1 {
		return invalidRules("max_failed_attempts", "must be at least 1")
	}
	if r.AcquisitionRetryModifier < 0 {
		return invalidRules("acquisition_retry_modifier", "cannot be negative")
	}
	if r.Recovery.Backtrack < 0 || r.Recovery.SpiralSearch < 0 || r.Recovery.ReturnToLastKnown < 0 {
		return invalidRules("recovery", "surcharges cannot be negative")
	}
	c := r.Closing
	if c.AutoSuccessFeet < 0 || c.AutoSuccessFeet >= c.NearFeet || c.NearFeet >= c.FarFeet {
		return invalidRules("closing", "distances must satisfy 0 <= auto_success_feet < near_feet < far_feet")
	}
	if c.NearModifier > 0 || c.FarModifier > 0 {
		return invalidRules("closing", "distance modifiers cannot be positive")
	}
	if r.Estimation.TargetCountDC < 0 || r.Estimation.TrailAgeDC < 0 {
		return invalidRules("estimation", "DCs cannot be negative")
	}
	if r.Estimation.MisestimateChance < 0 || r.Estimation.MisestimateChance > 1 {
		return invalidRules("estimation.misestimate_chance", "must be between 0 and 1")
	}
	if r.MasterRank < 1 {
		return invalidRules("master_rank", "must be at least 1")
	}
	for _, terrain := range ValidTerrains() {
		if r.CheckInterval.For(terrain) <= 0 {
			return invalidRules("check_interval."+terrain.String(), "must be positive")
		}
	}
	return nil
}
