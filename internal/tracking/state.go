// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package tracking

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// State is the record of one pursuit. It is mutated only through its
// methods, which enforce legal phase transitions. A State is not safe for
// concurrent use; the Service serializes access per tracking ID.
type State struct {
	ID                ulid.ULID
	TrackerID         string
	TargetDescription string
	TrailAge          TrailAge
	BaseDC            int // trail-age difficulty captured from the rules at creation

	Phase                     Phase
	Status                    Status
	CumulativeDCModifier      int
	FailedAttemptsInPhase     int
	DistanceCovered           float64 // miles
	DistanceToTargetFeet      *int
	ContestedDC               *int // set by counter-tracking; replaces BaseDC
	// ConcealmentTimeMultiplier is advisory: how much longer the concealed
	// trail takes to follow. It is reported in pursuit narratives and never
	// changes a DC or the distance covered.
	ConcealmentTimeMultiplier float64
	EstimatedTargetCount      *int

	History        []Check
	TerrainHistory []Terrain

	StartedAt   time.Time
	LastCheckAt time.Time
}

// NewState creates a pursuit in the acquisition phase.
func NewState(trackerID, targetDescription string, age TrailAge, baseDC int, now time.Time) *State {
	return &State{
		ID:                        ulid.Make(),
		TrackerID:                 trackerID,
		TargetDescription:         targetDescription,
		TrailAge:                  age,
		BaseDC:                    baseDC,
		Phase:                     PhaseAcquisition,
		Status:                    StatusActive,
		ConcealmentTimeMultiplier: 1.0,
		StartedAt:                 now,
		LastCheckAt:               now,
	}
}

// IsActive reports whether the pursuit can still be acted upon.
func (s *State) IsActive() bool {
	return s.Status == StatusActive
}

// ActualBaseDC returns the contested DC when one is set, otherwise the
// trail-age base DC.
func (s *State) ActualBaseDC() int {
	if s.ContestedDC != nil {
		return *s.ContestedDC
	}
	return s.BaseDC
}

// EffectiveDC returns the actual base DC plus accumulated trail degradation.
func (s *State) EffectiveDC() int {
	return clampDC(s.ActualBaseDC() + s.CumulativeDCModifier)
}

// RecordSuccess appends a successful check, clears the failure counter, and
// advances the distance covered.
func (s *State) RecordSuccess(check Check, distanceDelta float64, terrain Terrain) {
	s.History = append(s.History, check)
	s.FailedAttemptsInPhase = 0
	s.DistanceCovered += distanceDelta
	s.TerrainHistory = append(s.TerrainHistory, terrain)
	s.LastCheckAt = check.Timestamp
}

// RecordFailure appends a failed check and counts it against the phase.
func (s *State) RecordFailure(check Check) {
	s.History = append(s.History, check)
	s.FailedAttemptsInPhase++
	s.LastCheckAt = check.Timestamp
}

func (s *State) enter(to Phase, from ...Phase) error {
	if !s.IsActive() {
		return illegalTransition(s.Phase, to)
	}
	for _, p := range from {
		if s.Phase == p {
			s.Phase = to
			s.FailedAttemptsInPhase = 0
			return nil
		}
	}
	return illegalTransition(s.Phase, to)
}

// TransitionToPursuit moves a freshly acquired trail into pursuit.
func (s *State) TransitionToPursuit() error {
	return s.enter(PhasePursuit, PhaseAcquisition)
}

// TransitionToLost records that the trail was lost.
func (s *State) TransitionToLost() error {
	return s.enter(PhaseLost, PhasePursuit, PhaseClosingIn)
}

// TransitionToClosingIn starts the final approach from the given distance.
func (s *State) TransitionToClosingIn(distanceFeet int) error {
	if err := s.enter(PhaseClosingIn, PhasePursuit); err != nil {
		return err
	}
	s.UpdateDistanceToTarget(distanceFeet)
	return nil
}

// TransitionToCold ends the pursuit because the trail can no longer be followed.
func (s *State) TransitionToCold() error {
	if err := s.enter(PhaseCold, PhaseAcquisition, PhaseLost); err != nil {
		return err
	}
	s.Status = StatusCold
	return nil
}

// RecoverToPursuit resumes pursuit after a lost trail was found again.
func (s *State) RecoverToPursuit() error {
	return s.enter(PhasePursuit, PhaseLost)
}

// MarkTargetFound ends the pursuit successfully.
func (s *State) MarkTargetFound() error {
	if !s.IsActive() || s.Phase != PhaseClosingIn {
		return illegalTransition(s.Phase, s.Phase)
	}
	s.Status = StatusTargetFound
	s.FailedAttemptsInPhase = 0
	return nil
}

// Abandon ends an active pursuit at the tracker's request.
func (s *State) Abandon() error {
	if !s.IsActive() {
		return illegalTransition(s.Phase, s.Phase)
	}
	s.Status = StatusAbandoned
	return nil
}

// IncreaseCumulativeModifier adds trail degradation. Negative deltas are ignored.
func (s *State) IncreaseCumulativeModifier(delta int) {
	if delta > 0 {
		s.CumulativeDCModifier += delta
	}
}

// SetEstimatedTargetCount records the tracker's estimate of the party size.
func (s *State) SetEstimatedTargetCount(n int) {
	s.EstimatedTargetCount = &n
}

// UpdateDistanceToTarget records the current distance to the target in feet.
func (s *State) UpdateDistanceToTarget(feet int) {
	s.DistanceToTargetFeet = &feet
}

// UpdateTargetDescription replaces the free-text description of the quarry.
func (s *State) UpdateTargetDescription(desc string) {
	s.TargetDescription = desc
}

// ApplyCounterTracking replaces the base DC with a contested DC.
func (s *State) ApplyCounterTracking(contestedDC int, timeMultiplier float64) {
	s.ContestedDC = &contestedDC
	if timeMultiplier <= 0 {
		timeMultiplier = 1.0
	}
	s.ConcealmentTimeMultiplier = timeMultiplier
}

// ClearCounterTracking restores the trail-age base DC.
func (s *State) ClearCounterTracking() {
	s.ContestedDC = nil
	s.ConcealmentTimeMultiplier = 1.0
}

// TotalChecks returns the number of checks made.
func (s *State) TotalChecks() int {
	return len(s.History)
}

// SuccessfulChecks returns the number of successful checks.
func (s *State) SuccessfulChecks() int {
	n := 0
	for _, c := range s.History {
		if c.Succeeded() {
			n++
		}
	}
	return n
}

// FailedChecks returns the number of failed checks.
func (s *State) FailedChecks() int {
	return s.TotalChecks() - s.SuccessfulChecks()
}

// LastCheck returns the most recent check, if any.
func (s *State) LastCheck() (Check, bool) {
	if len(s.History) == 0 {
		return Check{}, false
	}
	return s.History[len(s.History)-1], true
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	c := *s
	c.DistanceToTargetFeet = cloneInt(s.DistanceToTargetFeet)
	c.ContestedDC = cloneInt(s.ContestedDC)
	c.EstimatedTargetCount = cloneInt(s.EstimatedTargetCount)
	c.History = append([]Check(nil), s.History...)
	c.TerrainHistory = append([]Terrain(nil), s.TerrainHistory...)
	return &c
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// String returns a short summary of the pursuit.
func (s *State) String() string {
	return fmt.Sprintf("Tracking %s: %s (%s) - %s, %.1f miles, %d checks",
		s.ID, s.TargetDescription, s.TrailAge, s.Phase, s.DistanceCovered, s.TotalChecks())
}
