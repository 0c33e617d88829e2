// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package tracking

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Check records one skill-check attempt within a pursuit. Checks are
// immutable once appended to a State's history.
type Check struct {
	ID          ulid.ULID   `json:"id"`
	Phase       Phase       `json:"phase"`
	BaseDC      int         `json:"base_dc"`
	EffectiveDC int         `json:"effective_dc"`
	Result      CheckResult `json:"result"`
	Terrain     Terrain     `json:"terrain"`
	Distance    float64     `json:"distance"` // cumulative miles when the check was made
	Notes       string      `json:"notes,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}

// NewCheck builds a check record with a fresh ID.
func NewCheck(phase Phase, baseDC, effectiveDC int, result CheckResult, terrain Terrain, distance float64, notes string, at time.Time) Check {
	return Check{
		ID:          ulid.Make(),
		Phase:       phase,
		BaseDC:      baseDC,
		EffectiveDC: effectiveDC,
		Result:      result,
		Terrain:     terrain,
		Distance:    distance,
		Notes:       notes,
		Timestamp:   at,
	}
}

// Succeeded reports whether the recorded roll succeeded.
func (c Check) Succeeded() bool {
	return c.Result.IsSuccess()
}

// String returns a one-line summary of the check.
func (c Check) String() string {
	verdict := "FAIL"
	switch {
	case c.Result.IsFumble:
		verdict = "FUMBLE"
	case c.Result.IsSuccess():
		verdict = "PASS"
	}
	return fmt.Sprintf("[%s] DC %d (base %d): %d net, %s, %s",
		c.Phase, c.EffectiveDC, c.BaseDC, c.Result.NetSuccesses, c.Result.Outcome, verdict)
}
