// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package tracking

import (
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Error codes attached to tracking errors.
const (
	CodeAlreadyActive     = "TRACKING_ALREADY_ACTIVE"
	CodeNotFound          = "TRACKING_NOT_FOUND"
	CodeWrongPhase        = "TRACKING_WRONG_PHASE"
	CodeNotActive         = "TRACKING_NOT_ACTIVE"
	CodeRankRequired      = "TRACKING_RANK_REQUIRED"
	CodeInvalidArgument   = "TRACKING_INVALID_ARGUMENT"
	CodeIllegalTransition = "TRACKING_ILLEGAL_TRANSITION"
	CodeInvalidRules      = "TRACKING_INVALID_RULES"
	CodeCheckFailed       = "TRACKING_CHECK_FAILED"
	CodeSaveFailed        = "TRACKING_SAVE_FAILED"
)

// Sentinel errors. Every error returned by this package wraps one of these,
// so callers can match with errors.Is.
var (
	ErrAlreadyTracking   = errors.New("tracker already has an active pursuit")
	ErrNotFound          = errors.New("tracking not found")
	ErrWrongPhase        = errors.New("wrong phase for requested operation")
	ErrNotActive         = errors.New("tracking is no longer active")
	ErrRankRequired      = errors.New("cold trail requires master rank")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrIllegalTransition = errors.New("illegal phase transition")
	ErrInvalidRules      = errors.New("invalid tracking rules")
)

// ErrorKind distinguishes failure categories so callers can react to them,
// for example by prompting the player to abandon their current pursuit.
type ErrorKind string

// Error kinds.
const (
	KindUnknown         ErrorKind = ""
	KindAlreadyTracking ErrorKind = "already_tracking"
	KindNotFound        ErrorKind = "not_found"
	KindWrongPhase      ErrorKind = "wrong_phase"
	KindNotActive       ErrorKind = "not_active"
	KindRankRequired    ErrorKind = "rank_required"
	KindInvalidArgument ErrorKind = "invalid_argument"
)

// KindOf reports the kind of a tracking error.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrAlreadyTracking):
		return KindAlreadyTracking
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrWrongPhase):
		return KindWrongPhase
	case errors.Is(err, ErrNotActive):
		return KindNotActive
	case errors.Is(err, ErrRankRequired):
		return KindRankRequired
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	default:
		return KindUnknown
	}
}

// IsPrecondition reports whether err is a precondition violation, which is
// always returned before any state is mutated.
func IsPrecondition(err error) bool {
	switch KindOf(err) {
	case KindAlreadyTracking, KindWrongPhase, KindNotActive, KindRankRequired, KindInvalidArgument:
		return true
	default:
		return false
	}
}

// NotFoundError builds the error returned when a tracking ID is unknown.
// Repositories use it so the code and context match the service's own errors.
func NotFoundError(id ulid.ULID) error {
	return oops.Code(CodeNotFound).With("tracking_id", id.String()).Wrap(ErrNotFound)
}

// AlreadyTrackingError builds the error returned when a tracker already has
// an active pursuit.
func AlreadyTrackingError(trackerID string) error {
	return oops.Code(CodeAlreadyActive).
		With("tracker_id", trackerID).
		Hint("abandon the current pursuit first").
		Wrap(ErrAlreadyTracking)
}

func wrongPhaseError(op string, state *State, allowed ...Phase) error {
	names := make([]string, len(allowed))
	for i, p := range allowed {
		names[i] = p.String()
	}
	return oops.Code(CodeWrongPhase).
		With("operation", op).
		With("tracking_id", state.ID.String()).
		With("phase", state.Phase.String()).
		With("allowed", names).
		Wrap(ErrWrongPhase)
}

func notActiveError(op string, state *State) error {
	return oops.Code(CodeNotActive).
		With("operation", op).
		With("tracking_id", state.ID.String()).
		With("status", state.Status.String()).
		Wrap(ErrNotActive)
}

func invalidArgument(field, msg string) error {
	return oops.Code(CodeInvalidArgument).With("field", field).Wrapf(ErrInvalidArgument, "%s %s", field, msg)
}

func illegalTransition(from Phase, to Phase) error {
	return oops.Code(CodeIllegalTransition).
		With("from", from.String()).
		With("to", to.String()).
		Wrap(ErrIllegalTransition)
}

func invalidRules(field, msg string) error {
	return oops.Code(CodeInvalidRules).With("field", field).Wrapf(ErrInvalidRules, "%s %s", field, msg)
}

func rankRequiredError(trackerID string, rules Rules) error {
	return oops.Code(CodeRankRequired).
		With("tracker_id", trackerID).
		With("skill_id", rules.SkillID).
		With("required_rank", rules.MasterRank).
		Hint(fmt.Sprintf("cold trails (DC %d) require master rank (rank %d)", rules.BaseDC.Cold, rules.MasterRank)).
		Wrap(ErrRankRequired)
}
