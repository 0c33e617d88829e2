// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package tracking

// BaseDC returns the standard base difficulty for a trail age.
func BaseDC(age TrailAge) int {
	return DefaultRules().BaseDC.For(age)
}

// RecoverySurcharge returns the extra difficulty of a recovery technique.
func (r Rules) RecoverySurcharge(rt RecoveryType) int {
	switch rt {
	case RecoverySpiralSearch:
		return r.Recovery.SpiralSearch
	case RecoveryReturnToLastKnown:
		return r.Recovery.ReturnToLastKnown
	default:
		return r.Recovery.Backtrack
	}
}

// DistanceModifier returns the DC adjustment for closing in from the given
// distance. Within the auto-success range no check is rolled at all; see
// IsAutoSuccess.
func (r Rules) DistanceModifier(feet int) int {
	switch {
	case feet <= r.Closing.NearFeet:
		return r.Closing.NearModifier
	case feet <= r.Closing.FarFeet:
		return r.Closing.FarModifier
	default:
		return 0
	}
}

// IsAutoSuccess reports whether the tracker is close enough to spot the
// target without a check.
func (r Rules) IsAutoSuccess(feet int) bool {
	return feet <= r.Closing.AutoSuccessFeet
}

func clampDC(dc int) int {
	return max(0, dc)
}
