package stat

import (
	"math"

	"github.com/udisondev/opdps/internal/model"
)

type bound struct {
	attr     model.Attribute
	min, max float64
	minOpen  bool // value must be strictly greater than min
	reason   string
}

var bounds = []bound{
	{attr: model.AttrAttack, min: 0, max: math.Inf(1), reason: "must not be negative"},
	{attr: model.AttrAttackInterval, min: 0, max: math.Inf(1), minOpen: true, reason: "must be positive"},
	{attr: model.AttrAttackSpeed, min: -1, max: math.Inf(1), minOpen: true, reason: "must be greater than -100%"},
	{attr: model.AttrCritChance, min: 0, max: 1, reason: "must be in [0,1]"},
	{attr: model.AttrCritMultiplier, min: 1, max: math.Inf(1), reason: "must be at least 1"},
	{attr: model.AttrDefenseIgnore, min: 0, max: 1, reason: "must be in [0,1]"},
	{attr: model.AttrResistanceIgnore, min: 0, max: 1, reason: "must be in [0,1]"},
	{attr: model.AttrHitCount, min: 0, max: math.Inf(1), minOpen: true, reason: "must be positive"},
	{attr: model.AttrTargets, min: 1, max: math.Inf(1), reason: "must be at least 1"},
	{attr: model.AttrHP, min: 0, max: math.Inf(1), reason: "must not be negative"},
	{attr: model.AttrDefense, min: 0, max: math.Inf(1), reason: "must not be negative"},
	{attr: model.AttrResistance, min: 0, max: math.Inf(1), reason: "must not be negative"},
	{attr: model.AttrCost, min: 0, max: math.Inf(1), reason: "must not be negative"},
	{attr: model.AttrBlockCount, min: 0, max: math.Inf(1), reason: "must not be negative"},
	{attr: model.AttrHealAmount, min: 0, max: math.Inf(1), reason: "must not be negative"},
	{attr: model.AttrSkillMultiplier, min: 0, max: math.Inf(1), reason: "must not be negative"},
}

// validateResolved rejects attribute values that would make simulation
// produce non-physical cadence or negative damage.
func validateResolved(r Resolved) error {
	for _, b := range bounds {
		v := r.Values[b.attr]
		bad := math.IsNaN(v) || math.IsInf(v, 0) || v > b.max || v < b.min || (b.minOpen && v == b.min)
		if bad {
			return &model.InvalidProfileError{Operator: r.Operator, Field: b.attr.String(), Value: v, Reason: b.reason}
		}
	}
	if !r.DamageType.Valid() {
		return &model.UnknownDamageTypeError{Value: r.DamageType.String()}
	}
	return validateSkill(r)
}

func validateSkill(r Resolved) error {
	s := r.Skill
	if s == nil {
		return nil
	}
	fail := func(field string, v float64, reason string) error {
		return &model.InvalidProfileError{Operator: r.Operator, Field: "skill." + field, Value: v, Reason: reason}
	}
	if s.InitialDelay < 0 {
		return fail("initial_delay", s.InitialDelay, "must not be negative")
	}
	if s.AttackSpeed <= -1 {
		return fail("attack_speed", s.AttackSpeed, "must be greater than -100%")
	}
	if s.MaxTargets < 0 {
		return fail("max_targets", float64(s.MaxTargets), "must not be negative")
	}
	switch s.Trigger {
	case model.TriggerAlways:
	case model.TriggerTimed:
		if s.Duration <= 0 {
			return fail("duration", s.Duration, "timed skill needs a positive duration")
		}
		if s.Cooldown < 0 {
			return fail("cooldown", s.Cooldown, "must not be negative")
		}
	case model.TriggerManual:
		if s.Duration <= 0 {
			return fail("duration", s.Duration, "manual skill needs a positive duration")
		}
	case model.TriggerEveryN:
		if s.EveryN < 1 {
			return fail("every_n", float64(s.EveryN), "must be at least 1")
		}
	default:
		return fail("trigger", float64(s.Trigger), "unknown trigger")
	}
	if s.DamageType != nil && !s.DamageType.Valid() {
		return &model.UnknownDamageTypeError{Value: s.DamageType.String()}
	}
	if d := s.DoT; d != nil {
		if d.Ratio < 0 {
			return fail("dot.ratio", d.Ratio, "must not be negative")
		}
		if d.TickInterval <= 0 {
			return fail("dot.tick_interval", d.TickInterval, "must be positive")
		}
		if d.Duration <= 0 {
			return fail("dot.duration", d.Duration, "must be positive")
		}
		if !d.DamageType.Valid() {
			return &model.UnknownDamageTypeError{Value: d.DamageType.String()}
		}
	}
	return nil
}
