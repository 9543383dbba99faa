package model

import (
	"fmt"
	"strings"
)

// ModOp defines how a modifier combines with the base value.
type ModOp int8

const (
	ModAdd        ModOp = iota // base + value
	ModMulPercent              // (base + Σadd) * (1 + Σvalue)
	ModOverride                // replaces the computed value
)

var modOpNames = map[ModOp]string{
	ModAdd:        "add",
	ModMulPercent: "mul_percent",
	ModOverride:   "override",
}

func (o ModOp) String() string {
	if n, ok := modOpNames[o]; ok {
		return n
	}
	return fmt.Sprintf("ModOp(%d)", int8(o))
}

// Valid reports whether o is a recognized operation.
func (o ModOp) Valid() bool {
	_, ok := modOpNames[o]
	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (o ModOp) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("unknown modifier operation %d", int8(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *ModOp) UnmarshalText(text []byte) error {
	key := strings.ToLower(strings.TrimSpace(string(text)))
	switch key {
	case "additive", "+":
		key = "add"
	case "mul", "multiplicative", "percent", "%":
		key = "mul_percent"
	case "set", "=":
		key = "override"
	}
	for k, n := range modOpNames {
		if n == key {
			*o = k
			return nil
		}
	}
	return fmt.Errorf("unknown modifier operation %q", string(text))
}

// Stacking defines how modifiers from the same source combine.
type Stacking int8

const (
	Stackable   Stacking = iota // every modifier contributes
	Exclusive                   // one per (source, attribute); suppresses the source's stackable ones too
	HighestOnly                 // strongest of the source's highest-only modifiers on the attribute
)

var stackingNames = map[Stacking]string{
	Stackable:   "stackable",
	Exclusive:   "exclusive",
	HighestOnly: "highest_only",
}

func (s Stacking) String() string {
	if n, ok := stackingNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Stacking(%d)", int8(s))
}

// Valid reports whether s is a recognized stacking rule.
func (s Stacking) Valid() bool {
	_, ok := stackingNames[s]
	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (s Stacking) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown stacking rule %d", int8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stacking) UnmarshalText(text []byte) error {
	key := strings.ToLower(strings.TrimSpace(string(text)))
	if key == "highest" {
		key = "highest_only"
	}
	for k, n := range stackingNames {
		if n == key {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown stacking rule %q", string(text))
}

// Modifier is a buff, debuff, talent or equipment adjustment to one attribute.
type Modifier struct {
	Name      string    `json:"name" yaml:"name"`
	Attribute Attribute `json:"attribute" yaml:"attribute"`
	Op        ModOp     `json:"op" yaml:"op"`
	Value     float64   `json:"value" yaml:"value"`
	Source    string    `json:"source,omitempty" yaml:"source,omitempty"`
	Stacking  Stacking  `json:"stacking,omitempty" yaml:"stacking,omitempty"`
}
