// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package tracking implements the multi-phase pursuit rules: finding a trail,
// following it, losing and recovering it, and closing in on the quarry.
package tracking

import (
	"errors"
	"strings"
)

// TrailAge classifies how old a trail is. Older trails are harder to follow.
type TrailAge int

// Trail ages, youngest first.
const (
	TrailObvious TrailAge = iota
	TrailFresh
	TrailModerate
	TrailFaint
	TrailOld
	TrailCold
)

var trailAgeNames = [...]string{"obvious", "fresh", "moderate", "faint", "old", "cold"}

// ErrInvalidTrailAge indicates an unrecognized trail age.
var ErrInvalidTrailAge = errors.New("invalid trail age")

// String returns the lowercase name of the trail age.
func (a TrailAge) String() string {
	if a < TrailObvious || a > TrailCold {
		return "unknown"
	}
	return trailAgeNames[a]
}

// Validate checks that the trail age is one of the defined bands.
func (a TrailAge) Validate() error {
	if a < TrailObvious || a > TrailCold {
		return ErrInvalidTrailAge
	}
	return nil
}

// ParseTrailAge parses a trail age name, ignoring case.
func ParseTrailAge(s string) (TrailAge, error) {
	for i, name := range trailAgeNames {
		if strings.EqualFold(s, name) {
			return TrailAge(i), nil
		}
	}
	return 0, ErrInvalidTrailAge
}

// TrailAges returns every trail age in ascending order.
func TrailAges() []TrailAge {
	return []TrailAge{TrailObvious, TrailFresh, TrailModerate, TrailFaint, TrailOld, TrailCold}
}

// Phase is the current step of a pursuit.
type Phase string

// Tracking phases.
const (
	PhaseAcquisition Phase = "acquisition"
	PhasePursuit     Phase = "pursuit"
	PhaseClosingIn   Phase = "closing_in"
	PhaseLost        Phase = "lost"
	PhaseCold        Phase = "cold"
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// ErrInvalidPhase indicates an unrecognized phase.
var ErrInvalidPhase = errors.New("invalid tracking phase")

// Validate checks that the phase is a known phase.
func (p Phase) Validate() error {
	switch p {
	case PhaseAcquisition, PhasePursuit, PhaseClosingIn, PhaseLost, PhaseCold:
		return nil
	default:
		return ErrInvalidPhase
	}
}

// Status is the lifecycle status of a pursuit. Every status except
// StatusActive is terminal.
type Status string

// Tracking statuses.
const (
	StatusActive      Status = "active"
	StatusTargetFound Status = "target_found"
	StatusCold        Status = "cold"
	StatusAbandoned   Status = "abandoned"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// ErrInvalidStatus indicates an unrecognized status.
var ErrInvalidStatus = errors.New("invalid tracking status")

// Validate checks that the status is a known status.
func (s Status) Validate() error {
	switch s {
	case StatusActive, StatusTargetFound, StatusCold, StatusAbandoned:
		return nil
	default:
		return ErrInvalidStatus
	}
}

// Terrain classifies the ground being crossed. It controls how often a
// pursuit check is required.
type Terrain string

// Terrain types.
const (
	TerrainOpenWasteland     Terrain = "open_wasteland"
	TerrainModerateRuins     Terrain = "moderate_ruins"
	TerrainDenseRuins        Terrain = "dense_ruins"
	TerrainLabyrinthine      Terrain = "labyrinthine"
	TerrainGlitchedLabyrinth Terrain = "glitched_labyrinth"
)

// String returns the string representation of the terrain.
func (t Terrain) String() string {
	return string(t)
}

// ErrInvalidTerrain indicates an unrecognized terrain.
var ErrInvalidTerrain = errors.New("invalid terrain")

// Validate checks that the terrain is a known terrain.
func (t Terrain) Validate() error {
	switch t {
	case TerrainOpenWasteland, TerrainModerateRuins, TerrainDenseRuins,
		TerrainLabyrinthine, TerrainGlitchedLabyrinth:
		return nil
	default:
		return ErrInvalidTerrain
	}
}

// ValidTerrains returns all valid terrains.
func ValidTerrains() []Terrain {
	return []Terrain{
		TerrainOpenWasteland, TerrainModerateRuins, TerrainDenseRuins,
		TerrainLabyrinthine, TerrainGlitchedLabyrinth,
	}
}

// RecoveryType is the technique used to find a lost trail again.
type RecoveryType string

// Recovery techniques, cheapest first.
const (
	RecoveryBacktrack         RecoveryType = "backtrack"
	RecoverySpiralSearch      RecoveryType = "spiral_search"
	RecoveryReturnToLastKnown RecoveryType = "return_to_last_known"
)

// ErrInvalidRecoveryType indicates an unrecognized recovery technique.
var ErrInvalidRecoveryType = errors.New("invalid recovery type")

// Validate checks that the recovery type is a known technique.
func (r RecoveryType) Validate() error {
	switch r {
	case RecoveryBacktrack, RecoverySpiralSearch, RecoveryReturnToLastKnown:
		return nil
	default:
		return ErrInvalidRecoveryType
	}
}

// DisplayName returns the human-readable technique name.
func (r RecoveryType) DisplayName() string {
	switch r {
	case RecoveryBacktrack:
		return "Backtrack"
	case RecoverySpiralSearch:
		return "Spiral Search"
	case RecoveryReturnToLastKnown:
		return "Return to Last Known"
	default:
		return "Recovery"
	}
}

// Actor is the character attempting a check.
type Actor struct {
	ID        string
	Name      string
	Attribute int            // governing attribute score, sizes dice pools
	Ranks     map[string]int // skill ID to rank
}

// Rank returns the actor's rank in the given skill, or 0.
func (a Actor) Rank(skillID string) int {
	return a.Ranks[skillID]
}
