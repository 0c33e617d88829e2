// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package tracking

import "fmt"

// Next-action labels offered to the player.
const (
	ActionContinuePursuit    = "Continue pursuit"
	ActionContinueFromAcq    = "Continue pursuit (track continue)"
	actionEstimateCount      = "Estimate target count (optional, DC %d)"
	actionEstimateAge        = "Estimate trail age (optional, DC %d)"
	ActionAbandon            = "Abandon tracking"
	ActionFindNewLead        = "Find a new lead to resume tracking"
	ActionBacktrack          = "Backtrack (same DC, 10 minutes)"
	actionSpiralSearchFormat = "Spiral search (+%d DC, 30 minutes)"
	actionReturnFormat       = "Return to last known (+%d DC, 1 hour)"
)

// Directions are the compass directions a trail may head in.
var Directions = []string{
	"North", "Northeast", "East", "Southeast",
	"South", "Southwest", "West", "Northwest",
}

func (r Rules) recoveryActions() []string {
	return []string{
		ActionBacktrack,
		fmt.Sprintf(actionSpiralSearchFormat, r.Recovery.SpiralSearch),
		fmt.Sprintf(actionReturnFormat, r.Recovery.ReturnToLastKnown),
		ActionAbandon,
	}
}

func (r Rules) acquiredActions() []string {
	return []string{
		ActionContinueFromAcq,
		fmt.Sprintf(actionEstimateCount, r.Estimation.TargetCountDC),
		fmt.Sprintf(actionEstimateAge, r.Estimation.TrailAgeDC),
		ActionAbandon,
	}
}

func (r Rules) acquisitionRetryActions() []string {
	return []string{
		fmt.Sprintf("Retry acquisition (DC +%d, 10 minutes)", r.AcquisitionRetryModifier),
		ActionAbandon,
	}
}

func acquisitionNarrative(o Outcome, direction string) string {
	switch o {
	case OutcomeCriticalSuccess:
		return fmt.Sprintf("You expertly locate and identify the trail heading %s. "+
			"The signs are crystal clear - this is the work of a master tracker.", direction)
	case OutcomeExceptionalSuccess:
		return fmt.Sprintf("You quickly find the trail heading %s. "+
			"The target's passage is evident in the disturbed terrain.", direction)
	case OutcomeFullSuccess:
		return fmt.Sprintf("You locate the trail heading %s. "+
			"The signs of passage are clear enough to follow.", direction)
	default:
		return fmt.Sprintf("After careful searching, you find faint signs of the trail heading %s. "+
			"It's subtle, but followable.", direction)
	}
}

func pursuitNarrative(o Outcome, advanced, total float64) string {
	var lead string
	switch o {
	case OutcomeCriticalSuccess:
		lead = fmt.Sprintf("You follow the trail with exceptional skill, covering %.1f miles.", advanced)
	case OutcomeExceptionalSuccess:
		lead = fmt.Sprintf("You maintain the trail easily across %.1f miles.", advanced)
	case OutcomeFullSuccess:
		lead = fmt.Sprintf("You follow the trail for %.1f miles.", advanced)
	default:
		lead = fmt.Sprintf("You manage to maintain the trail for %.1f miles, though it was difficult.", advanced)
	}
	return fmt.Sprintf("%s Total distance: %.1f miles.", lead, total)
}

func concealmentNote(multiplier float64) string {
	if multiplier <= 1 {
		return ""
	}
	return fmt.Sprintf(" The quarry has covered its tracks; following them takes %.2gx as long.", multiplier)
}

func closingNarrative(o Outcome) string {
	switch o {
	case OutcomeCriticalSuccess:
		return "You close in with perfect stealth and positioning. " +
			"You have the advantage - the target is unaware of your presence!"
	case OutcomeExceptionalSuccess:
		return "You successfully close in on your target without being detected. " +
			"The encounter begins on your terms."
	case OutcomeFullSuccess:
		return "You locate your target. The encounter begins."
	default:
		return "You find your target, but they may have noticed your approach. " +
			"The encounter begins - be ready!"
	}
}

const (
	narrativeAcquisitionFumble    = "A critical error in your tracking technique has obliterated all signs of the trail. The trail is completely cold - you must find a new lead."
	narrativeAcquisitionExhausted = "After three failed attempts, you've exhausted your options. The trail has gone completely cold. You must find a new lead to resume tracking."
	narrativeRecoveryExhausted    = "After three failed recovery attempts, the trail has gone completely cold. You must find a new lead to resume tracking."
	narrativeAutoSuccess          = "You're so close that you can practically see your target. The encounter begins!"
	narrativeClosingFumble        = "You've made a terrible mistake - the target has definitely spotted you and is now fleeing! "
	narrativeClosingFailed        = "You lose sight of the target. They may have been alerted to your presence. "
	narrativeChooseRecovery       = "Choose a recovery method to try to relocate them."
)
