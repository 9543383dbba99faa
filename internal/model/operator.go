package model

import (
	"fmt"
	"math"
	"strings"
)

// OperatorProfile is the stored description of a player unit. The engine
// treats it as an immutable snapshot for the duration of a calculation.
type OperatorProfile struct {
	ID    int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Name  string `json:"name" yaml:"name"`
	Class string `json:"class,omitempty" yaml:"class,omitempty"`

	DamageType DamageType `json:"damage_type" yaml:"damage_type"`

	Attack           float64 `json:"attack" yaml:"attack"`
	AttackInterval   float64 `json:"attack_interval" yaml:"attack_interval"` // seconds
	AttackSpeed      float64 `json:"attack_speed,omitempty" yaml:"attack_speed,omitempty"`
	CritChance       float64 `json:"crit_chance,omitempty" yaml:"crit_chance,omitempty"`
	CritMultiplier   float64 `json:"crit_multiplier,omitempty" yaml:"crit_multiplier,omitempty"`
	DefenseIgnore    float64 `json:"defense_ignore,omitempty" yaml:"defense_ignore,omitempty"`
	ResistanceIgnore float64 `json:"resistance_ignore,omitempty" yaml:"resistance_ignore,omitempty"`
	HitCount         float64 `json:"hit_count,omitempty" yaml:"hit_count,omitempty"`
	Targets          int     `json:"targets,omitempty" yaml:"targets,omitempty"`

	HP         float64 `json:"hp,omitempty" yaml:"hp,omitempty"`
	Defense    float64 `json:"defense,omitempty" yaml:"defense,omitempty"`
	Resistance float64 `json:"resistance,omitempty" yaml:"resistance,omitempty"`
	Cost       int     `json:"cost,omitempty" yaml:"cost,omitempty"`
	BlockCount int     `json:"block_count,omitempty" yaml:"block_count,omitempty"`
	HealAmount float64 `json:"heal_amount,omitempty" yaml:"heal_amount,omitempty"`

	Skill *Skill `json:"skill,omitempty" yaml:"skill,omitempty"`
}

// ClassMedic is the class label whose attacks heal instead of damage.
const ClassMedic = "medic"

// IsHealer reports whether the operator's primary output is healing.
func (p OperatorProfile) IsHealer() bool {
	return IsHealerClass(p.Class)
}

// IsHealerClass reports whether class names a healing class.
func IsHealerClass(class string) bool {
	c := strings.ToLower(strings.TrimSpace(class))
	return c == ClassMedic || c == "医疗"
}

// Defines reports whether the profile carries a value for a. Every schema
// attribute is defined except the skill multiplier of a skill-less operator.
func (p OperatorProfile) Defines(a Attribute) bool {
	if !a.Valid() {
		return false
	}
	if a == AttrSkillMultiplier {
		return p.Skill != nil
	}
	return true
}

// Base returns the profile attributes as a schema-indexed set.
// Neutral defaults fill unset multiplicative fields (hit count, targets,
// crit multiplier, skill multiplier = 1).
func (p OperatorProfile) Base() AttributeSet {
	var s AttributeSet
	s[AttrAttack] = p.Attack
	s[AttrAttackInterval] = p.AttackInterval
	s[AttrAttackSpeed] = p.AttackSpeed
	s[AttrCritChance] = p.CritChance
	s[AttrCritMultiplier] = orOne(p.CritMultiplier)
	s[AttrDefenseIgnore] = p.DefenseIgnore
	s[AttrResistanceIgnore] = p.ResistanceIgnore
	s[AttrHitCount] = orOne(p.HitCount)
	s[AttrTargets] = orOne(float64(p.Targets))
	s[AttrHP] = p.HP
	s[AttrDefense] = p.Defense
	s[AttrResistance] = p.Resistance
	s[AttrCost] = float64(p.Cost)
	s[AttrBlockCount] = float64(p.BlockCount)
	s[AttrHealAmount] = p.HealAmount
	if p.Skill != nil {
		s[AttrSkillMultiplier] = orOne(p.Skill.Multiplier)
	}
	return s
}

func orOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

// SkillTrigger selects when a skill is active.
type SkillTrigger int8

const (
	TriggerAlways SkillTrigger = iota // active for the whole window
	TriggerTimed                      // InitialDelay, then Duration on / Cooldown off, repeating
	TriggerManual                     // a single activation at InitialDelay lasting Duration
	TriggerEveryN                     // every EveryN-th attack is a skill attack
)

var triggerNames = map[SkillTrigger]string{
	TriggerAlways: "always",
	TriggerTimed:  "timed",
	TriggerManual: "manual",
	TriggerEveryN: "every_n",
}

func (t SkillTrigger) String() string {
	if n, ok := triggerNames[t]; ok {
		return n
	}
	return fmt.Sprintf("SkillTrigger(%d)", int8(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t SkillTrigger) MarshalText() ([]byte, error) {
	n, ok := triggerNames[t]
	if !ok {
		return nil, fmt.Errorf("unknown skill trigger %d", int8(t))
	}
	return []byte(n), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *SkillTrigger) UnmarshalText(text []byte) error {
	key := strings.ToLower(strings.TrimSpace(string(text)))
	for k, n := range triggerNames {
		if n == key {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("unknown skill trigger %q", string(text))
}

// Skill describes an operator skill. Times are in seconds.
type Skill struct {
	Name         string       `json:"name" yaml:"name"`
	Trigger      SkillTrigger `json:"trigger" yaml:"trigger"`
	Multiplier   float64      `json:"multiplier" yaml:"multiplier"`
	InitialDelay float64      `json:"initial_delay,omitempty" yaml:"initial_delay,omitempty"`
	Duration     float64      `json:"duration,omitempty" yaml:"duration,omitempty"`
	Cooldown     float64      `json:"cooldown,omitempty" yaml:"cooldown,omitempty"`
	EveryN       int          `json:"every_n,omitempty" yaml:"every_n,omitempty"`

	// AttackSpeed is added to the resolved attack speed while the skill is active.
	AttackSpeed float64 `json:"attack_speed,omitempty" yaml:"attack_speed,omitempty"`
	// MaxTargets replaces the operator's target count while active; 0 keeps it.
	MaxTargets int         `json:"max_targets,omitempty" yaml:"max_targets,omitempty"`
	DamageType *DamageType `json:"damage_type,omitempty" yaml:"damage_type,omitempty"`
	DoT        *DoT        `json:"dot,omitempty" yaml:"dot,omitempty"`
}

// ActiveAt reports whether the skill window covers time t.
// TriggerEveryN has no time window and always reports false.
func (s *Skill) ActiveAt(t float64) bool {
	if s == nil {
		return false
	}
	switch s.Trigger {
	case TriggerAlways:
		return true
	case TriggerManual:
		return t >= s.InitialDelay && t < s.InitialDelay+s.Duration
	case TriggerTimed:
		if t < s.InitialDelay {
			return false
		}
		cycle := s.Duration + s.Cooldown
		if cycle <= 0 {
			return false
		}
		return math.Mod(t-s.InitialDelay, cycle) < s.Duration
	default:
		return false
	}
}

// NextBoundary returns the first time after t at which ActiveAt may change,
// or +Inf when the state never changes again.
func (s *Skill) NextBoundary(t float64) float64 {
	if s == nil {
		return math.Inf(1)
	}
	switch s.Trigger {
	case TriggerManual:
		switch {
		case t < s.InitialDelay:
			return s.InitialDelay
		case t < s.InitialDelay+s.Duration:
			return s.InitialDelay + s.Duration
		}
	case TriggerTimed:
		if t < s.InitialDelay {
			return s.InitialDelay
		}
		cycle := s.Duration + s.Cooldown
		if cycle <= 0 {
			break
		}
		start := s.InitialDelay + math.Floor((t-s.InitialDelay)/cycle)*cycle
		if t < start+s.Duration {
			return start + s.Duration
		}
		return start + cycle
	}
	return math.Inf(1)
}

// DoT is a damage-over-time effect applied by skill attacks.
type DoT struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Ratio is the fraction of resolved attack dealt per tick.
	Ratio        float64    `json:"ratio" yaml:"ratio"`
	TickInterval float64    `json:"tick_interval" yaml:"tick_interval"`
	Duration     float64    `json:"duration" yaml:"duration"`
	DamageType   DamageType `json:"damage_type" yaml:"damage_type"`
}
