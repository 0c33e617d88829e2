// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package tracking

import (
	"fmt"
	"strings"
)

// Discovery is information learned during a check.
type Discovery struct {
	Direction      string
	TargetCount    *int
	TrailAge       *TrailAge
	AdditionalInfo string
}

// IsEmpty reports whether nothing was discovered.
func (d Discovery) IsEmpty() bool {
	return d.Direction == "" && d.TargetCount == nil && d.TrailAge == nil && d.AdditionalInfo == ""
}

// String returns a comma-separated list of the discovered details.
func (d Discovery) String() string {
	var parts []string
	if d.Direction != "" {
		parts = append(parts, "Direction: "+d.Direction)
	}
	if d.TargetCount != nil {
		parts = append(parts, fmt.Sprintf("Targets: ~%d", *d.TargetCount))
	}
	if d.TrailAge != nil {
		parts = append(parts, "Age: "+d.TrailAge.String())
	}
	if d.AdditionalInfo != "" {
		parts = append(parts, d.AdditionalInfo)
	}
	if len(parts) == 0 {
		return "No additional information"
	}
	return strings.Join(parts, ", ")
}

// Result is the outcome of a tracking action.
type Result struct {
	Success       bool
	Phase         Phase
	PreviousPhase Phase
	Check         Check
	State         *State
	Narrative     string
	NextActions   []string
	Discovery     *Discovery
}

// NewSuccess builds the result of a successful check.
func NewSuccess(previous Phase, check Check, state *State, narrative string, nextActions []string, discovery *Discovery) *Result {
	return &Result{
		Success:       true,
		Phase:         state.Phase,
		PreviousPhase: previous,
		Check:         check,
		State:         state,
		Narrative:     narrative,
		NextActions:   nextActions,
		Discovery:     discovery,
	}
}

// NewFailure builds the result of a failed check that left the pursuit active.
func NewFailure(previous Phase, check Check, state *State, narrative string, nextActions []string) *Result {
	return &Result{
		Phase:         state.Phase,
		PreviousPhase: previous,
		Check:         check,
		State:         state,
		Narrative:     narrative,
		NextActions:   nextActions,
	}
}

// NewTrailGoneCold builds the result of a pursuit that ended with a cold trail.
func NewTrailGoneCold(previous Phase, check Check, state *State, narrative string) *Result {
	return &Result{
		Phase:         PhaseCold,
		PreviousPhase: previous,
		Check:         check,
		State:         state,
		Narrative:     narrative,
		NextActions:   []string{ActionFindNewLead},
	}
}

// NewTargetLocated builds the result of a pursuit that found its target.
func NewTargetLocated(previous Phase, check Check, state *State, narrative string) *Result {
	return &Result{
		Success:       true,
		Phase:         PhaseClosingIn,
		PreviousPhase: previous,
		Check:         check,
		State:         state,
		Narrative:     narrative,
		NextActions:   []string{},
	}
}

// PhaseChanged reports whether the action moved the pursuit to another phase.
func (r *Result) PhaseChanged() bool {
	return r.Phase != r.PreviousPhase
}

// IsComplete reports whether the pursuit has ended.
func (r *Result) IsComplete() bool {
	return r.State != nil && !r.State.IsActive()
}

// TrailWentCold reports whether the trail is now unrecoverable.
func (r *Result) TrailWentCold() bool {
	return r.Phase == PhaseCold
}

// TargetFound reports whether the target was located.
func (r *Result) TargetFound() bool {
	return r.State != nil && r.State.Status == StatusTargetFound
}

// TrailLost reports whether this action lost the trail.
func (r *Result) TrailLost() bool {
	return r.Phase == PhaseLost && r.PreviousPhase != PhaseLost
}

// RecoverySuccessful reports whether a lost trail was found again.
func (r *Result) RecoverySuccessful() bool {
	return r.Success && r.PreviousPhase == PhaseLost && r.Phase == PhasePursuit
}

// HasDiscovery reports whether anything was discovered.
func (r *Result) HasDiscovery() bool {
	return r.Discovery != nil && !r.Discovery.IsEmpty()
}

// String summarizes the result for display.
func (r *Result) String() string {
	status := "FAILURE"
	if r.Success {
		status = "SUCCESS"
	}
	switch {
	case r.TargetFound():
		status = "TARGET FOUND"
	case r.TrailWentCold():
		status = "TRAIL COLD"
	case r.TrailLost():
		status = "TRAIL LOST"
	case r.RecoverySuccessful():
		status = "RECOVERED"
	}
	return fmt.Sprintf("Tracking %s: %s", status, r.Narrative)
}
