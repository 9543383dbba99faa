package model

import (
	"fmt"
	"strings"
)

// DamageType classifies a hit and selects the mitigation rule applied to it.
type DamageType int8

const (
	DamagePhysical DamageType = iota // reduced by defense
	DamageArts                       // reduced by resistance
	DamageTrue                       // never reduced
)

// DamageTypes lists every recognized damage type in display order.
var DamageTypes = [...]DamageType{DamagePhysical, DamageArts, DamageTrue}

// String returns the canonical lowercase name.
func (d DamageType) String() string {
	switch d {
	case DamagePhysical:
		return "physical"
	case DamageArts:
		return "arts"
	case DamageTrue:
		return "true"
	default:
		return fmt.Sprintf("DamageType(%d)", int8(d))
	}
}

// Valid reports whether d is one of the recognized damage types.
func (d DamageType) Valid() bool {
	return d >= DamagePhysical && d <= DamageTrue
}

// damageTypeAliases maps import spellings (including the labels used by the
// legacy desktop tool) to damage types.
var damageTypeAliases = map[string]DamageType{
	"physical": DamagePhysical,
	"phys":     DamagePhysical,
	"物伤":       DamagePhysical,
	"物理":       DamagePhysical,
	"物理伤害":     DamagePhysical,
	"arts":     DamageArts,
	"magic":    DamageArts,
	"magical":  DamageArts,
	"法伤":       DamageArts,
	"法术":       DamageArts,
	"法术伤害":     DamageArts,
	"true":     DamageTrue,
	"pure":     DamageTrue,
	"真伤":       DamageTrue,
	"真实伤害":     DamageTrue,
}

// ParseDamageType resolves a damage type name. Unknown names are rejected
// with *UnknownDamageTypeError instead of falling back to physical.
func ParseDamageType(s string) (DamageType, error) {
	if dt, ok := damageTypeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return dt, nil
	}
	return 0, &UnknownDamageTypeError{Value: s}
}

// MarshalText implements encoding.TextMarshaler.
func (d DamageType) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, &UnknownDamageTypeError{Value: d.String()}
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DamageType) UnmarshalText(text []byte) error {
	dt, err := ParseDamageType(string(text))
	if err != nil {
		return err
	}
	*d = dt
	return nil
}
