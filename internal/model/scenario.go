package model

import "fmt"

// EnemyProfile describes the target being attacked.
type EnemyProfile struct {
	Name    string  `json:"name,omitempty" yaml:"name,omitempty"`
	Defense float64 `json:"defense" yaml:"defense"`
	// Resistance is a fraction; values above the configured cap are clamped.
	Resistance float64 `json:"resistance" yaml:"resistance"`
	// DamageTaken overrides the damage received per type after mitigation
	// (1.2 = takes 20% more). Missing entries mean 1. True damage ignores it.
	DamageTaken map[DamageType]float64 `json:"damage_taken,omitempty" yaml:"damage_taken,omitempty"`
}

// TakenMultiplier returns the damage-taken override for dt.
func (e EnemyProfile) TakenMultiplier(dt DamageType) float64 {
	if dt == DamageTrue {
		return 1
	}
	if m, ok := e.DamageTaken[dt]; ok {
		return m
	}
	return 1
}

// CritMode selects how crit chance is turned into damage.
type CritMode int8

const (
	CritExpected   CritMode = iota // scale each hit by its expected crit factor
	CritStochastic                 // roll each hit with a seeded generator
)

func (m CritMode) String() string {
	switch m {
	case CritExpected:
		return "expected"
	case CritStochastic:
		return "stochastic"
	default:
		return fmt.Sprintf("CritMode(%d)", int8(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m CritMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *CritMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "", "expected":
		*m = CritExpected
	case "stochastic":
		*m = CritStochastic
	default:
		return fmt.Errorf("unknown crit mode %q", string(text))
	}
	return nil
}

// Scenario is the shared context every compared operator is evaluated under.
type Scenario struct {
	// TimeWindow is the simulated duration in seconds.
	TimeWindow float64      `json:"time_window" yaml:"time_window"`
	Enemy      EnemyProfile `json:"enemy" yaml:"enemy"`
	// Enemies optionally gives a distinct profile per target index; targets
	// beyond its length fall back to Enemy.
	Enemies []EnemyProfile `json:"enemies,omitempty" yaml:"enemies,omitempty"`
	Targets int            `json:"targets" yaml:"targets"`
	// Environment modifiers apply to every operator before its own modifiers.
	Environment []Modifier `json:"environment,omitempty" yaml:"environment,omitempty"`

	CritMode CritMode `json:"crit_mode,omitempty" yaml:"crit_mode,omitempty"`
	Seed     uint64   `json:"seed,omitempty" yaml:"seed,omitempty"`

	// BurstWindow is the sliding window (seconds) for burst DPS; 0 picks the
	// skill duration or the configured default.
	BurstWindow float64 `json:"burst_window,omitempty" yaml:"burst_window,omitempty"`
	// TimelineStep samples cumulative damage every step seconds; 0 uses the default.
	TimelineStep float64 `json:"timeline_step,omitempty" yaml:"timeline_step,omitempty"`
	RecordEvents bool    `json:"record_events,omitempty" yaml:"record_events,omitempty"`
}

// EnemyFor returns the enemy profile facing target index i.
func (s Scenario) EnemyFor(i int) EnemyProfile {
	if i >= 0 && i < len(s.Enemies) {
		return s.Enemies[i]
	}
	return s.Enemy
}
