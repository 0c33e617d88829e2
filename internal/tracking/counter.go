// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/holotrack/internal/logging"
)

// Technique is a way of hiding a trail from pursuers.
type Technique string

// Concealment techniques.
const (
	TechniqueHardSurfaces  Technique = "hard_surfaces"
	TechniqueBrushTracks   Technique = "brush_tracks"
	TechniqueFalseTrail    Technique = "false_trail"
	TechniqueWaterCrossing Technique = "water_crossing"
	TechniqueBacktracking  Technique = "backtracking"
)

// Concealment DC bounds.
const (
	MinConcealmentDC = 10
	MaxConcealmentDC = 30
)

type techniqueInfo struct {
	name        string
	description string
	bonus       int
	time        float64
}

var techniques = map[Technique]techniqueInfo{
	TechniqueHardSurfaces:  {"Hard Surfaces", "Walk on stone, metal, or packed earth that doesn't hold tracks well.", 2, 1.0},
	TechniqueBrushTracks:   {"Brush Tracks", "Use branches or debris to sweep away your footprints as you go.", 4, 1.5},
	TechniqueFalseTrail:    {"False Trail", "Create misleading tracks leading in a different direction, then double back.", 6, 2.0},
	TechniqueWaterCrossing: {"Water Crossing", "Wade through a stream or pond to break your scent and visual trail.", 8, 1.0},
	TechniqueBacktracking:  {"Backtracking", "Walk backwards over your own trail to confuse pursuers about your direction.", 4, 1.25},
}

// Bonus returns the concealment DC bonus of the technique.
func (t Technique) Bonus() int {
	return techniques[t].bonus
}

// TimeMultiplier returns how much the technique slows the concealer down.
func (t Technique) TimeMultiplier() float64 {
	if info, ok := techniques[t]; ok {
		return info.time
	}
	return 1.0
}

// DisplayName returns the human-readable technique name.
func (t Technique) DisplayName() string {
	if info, ok := techniques[t]; ok {
		return info.name
	}
	return "Unknown"
}

// Description explains what the technique involves.
func (t Technique) Description() string {
	if info, ok := techniques[t]; ok {
		return info.description
	}
	return "Unknown concealment technique."
}

// ParseTechnique parses a technique name.
func ParseTechnique(s string) (Technique, error) {
	t := Technique(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := techniques[t]; !ok {
		return "", invalidArgument("technique", fmt.Sprintf("%q is not a known technique", s))
	}
	return t, nil
}

// CounterContext describes a concealment attempt.
type CounterContext struct {
	ConcealerID        string
	Techniques         []Technique
	HasWaterNearby     bool
	HasFoliageOrDebris bool
}

// IsValid reports whether the environment supports the technique.
func (c CounterContext) IsValid(t Technique) bool {
	switch t {
	case TechniqueWaterCrossing:
		return c.HasWaterNearby
	case TechniqueBrushTracks:
		return c.HasFoliageOrDebris
	default:
		_, ok := techniques[t]
		return ok
	}
}

// ValidTechniques returns the chosen techniques the environment supports.
func (c CounterContext) ValidTechniques() []Technique {
	var out []Technique
	for _, t := range c.Techniques {
		if c.IsValid(t) {
			out = append(out, t)
		}
	}
	return out
}

// InvalidTechniques returns the chosen techniques the environment rules out.
func (c CounterContext) InvalidTechniques() []Technique {
	var out []Technique
	for _, t := range c.Techniques {
		if !c.IsValid(t) {
			out = append(out, t)
		}
	}
	return out
}

// AvailableTechniques lists what can be used in the given environment.
func AvailableTechniques(hasWaterNearby, hasFoliageOrDebris bool) []Technique {
	out := []Technique{TechniqueHardSurfaces, TechniqueFalseTrail, TechniqueBacktracking}
	if hasWaterNearby {
		out = append(out, TechniqueWaterCrossing)
	}
	if hasFoliageOrDebris {
		out = append(out, TechniqueBrushTracks)
	}
	return out
}

// CounterResult is the outcome of a concealment attempt.
type CounterResult struct {
	NetSuccesses   int
	TechniqueBonus int
	ConcealmentDC  int
	TimeMultiplier float64
	Techniques     []Technique
	Details        string
}

// Concealer resolves counter-tracking attempts.
type Concealer struct {
	checker SkillChecker
	skillID string
	logger  *slog.Logger
}

// NewConcealer creates a Concealer that rolls skillID with checker.
func NewConcealer(checker SkillChecker, skillID string, logger *slog.Logger) *Concealer {
	if logger == nil {
		logger = slog.Default()
	}
	if skillID == "" {
		skillID = SkillWastelandSurvival
	}
	return &Concealer{checker: checker, skillID: skillID, logger: logger}
}

// Conceal rolls the concealment check. Techniques the environment does not
// support are dropped. The resulting DC is the net successes plus the
// technique bonuses, clamped to [MinConcealmentDC, MaxConcealmentDC].
func (c *Concealer) Conceal(ctx context.Context, actor Actor, cc CounterContext) (CounterResult, error) {
	valid := cc.ValidTechniques()
	if invalid := cc.InvalidTechniques(); len(invalid) > 0 {
		c.logger.WarnContext(ctx, "invalid concealment techniques filtered out",
			"concealer_id", cc.ConcealerID, "techniques", invalid)
	}

	bonus := 0
	multiplier := 1.0
	var mods []SkillModifier
	for _, t := range valid {
		bonus += t.Bonus()
		multiplier *= t.TimeMultiplier()
		mods = append(mods, SkillModifier{
			ID:     "concealment-" + string(t),
			Name:   t.DisplayName(),
			Source: t.Description(),
		})
	}

	res, err := c.checker.CheckWithContext(ctx, actor, c.skillID, 0, "Counter-Tracking Concealment", SkillContext{Modifiers: mods})
	if err != nil {
		return CounterResult{}, oops.Code(CodeCheckFailed).With("concealer_id", cc.ConcealerID).Wrap(err)
	}

	raw := res.NetSuccesses + bonus
	dc := min(max(raw, MinConcealmentDC), MaxConcealmentDC)
	c.logger.InfoContext(ctx, "concealment resolved",
		"concealer_id", cc.ConcealerID, "raw_dc", raw, "concealment_dc", dc, "time_multiplier", multiplier)

	names := make([]string, len(valid))
	for i, t := range valid {
		names[i] = t.DisplayName()
	}
	techList := "none"
	if len(names) > 0 {
		techList = strings.Join(names, ", ")
	}
	return CounterResult{
		NetSuccesses:   res.NetSuccesses,
		TechniqueBonus: bonus,
		ConcealmentDC:  dc,
		TimeMultiplier: multiplier,
		Techniques:     valid,
		Details:        fmt.Sprintf("%d net successes + %d technique bonus (%s) = DC %d", res.NetSuccesses, bonus, techList, dc),
	}, nil
}

// ApplyCounterTracking makes an active pursuit contest the concealer's DC.
func (s *Service) ApplyCounterTracking(ctx context.Context, trackingID ulid.ULID, cr CounterResult) (state *State, err error) {
	ctx, span := s.startSpan(ctx, "tracking.apply_counter_tracking", trackingID)
	defer func() { endSpan(span, err) }()
	defer recordDuration("apply_counter_tracking", time.Now())

	if cr.ConcealmentDC < 0 {
		return nil, invalidArgument("concealment_dc", "cannot be negative")
	}
	err = s.tx.InTransaction(ctx, trackingID.String(), func(ctx context.Context) error {
		st, err := s.load(ctx, "apply_counter_tracking", trackingID)
		if err != nil {
			return err
		}
		ctx = logging.WithTracking(ctx, st.ID.String(), st.TrackerID)
		st.ApplyCounterTracking(cr.ConcealmentDC, cr.TimeMultiplier)
		if err := s.save(ctx, st); err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "counter-tracking applied",
			"contested_dc", cr.ConcealmentDC, "time_multiplier", st.ConcealmentTimeMultiplier)
		state = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// ClearCounterTracking restores the trail-age DC on an active pursuit.
func (s *Service) ClearCounterTracking(ctx context.Context, trackingID ulid.ULID) (state *State, err error) {
	ctx, span := s.startSpan(ctx, "tracking.clear_counter_tracking", trackingID)
	defer func() { endSpan(span, err) }()
	defer recordDuration("clear_counter_tracking", time.Now())

	err = s.tx.InTransaction(ctx, trackingID.String(), func(ctx context.Context) error {
		st, err := s.load(ctx, "clear_counter_tracking", trackingID)
		if err != nil {
			return err
		}
		ctx = logging.WithTracking(ctx, st.ID.String(), st.TrackerID)
		st.ClearCounterTracking()
		if err := s.save(ctx, st); err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "counter-tracking cleared")
		state = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}
