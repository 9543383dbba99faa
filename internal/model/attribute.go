package model

import (
	"fmt"
	"strings"
)

// Attribute identifies one slot of the closed operator attribute schema.
// Fractions (attack speed, crit chance, ignore, resistance) use 0.5 for 50%.
type Attribute uint8

const (
	AttrAttack           Attribute = iota // damage per hit before mitigation
	AttrAttackInterval                    // seconds between attacks
	AttrAttackSpeed                       // bonus fraction, interval /= 1+speed
	AttrCritChance                        // [0,1]
	AttrCritMultiplier                    // damage multiplier on crit
	AttrDefenseIgnore                     // fraction of enemy defense ignored
	AttrResistanceIgnore                  // fraction of enemy resistance ignored
	AttrHitCount                          // hits per attack
	AttrTargets                           // targets per attack
	AttrHP
	AttrDefense
	AttrResistance
	AttrCost
	AttrBlockCount
	AttrHealAmount
	AttrSkillMultiplier

	AttrCount
)

var attributeNames = [AttrCount]string{
	AttrAttack:           "attack",
	AttrAttackInterval:   "attack_interval",
	AttrAttackSpeed:      "attack_speed",
	AttrCritChance:       "crit_chance",
	AttrCritMultiplier:   "crit_multiplier",
	AttrDefenseIgnore:    "defense_ignore",
	AttrResistanceIgnore: "resistance_ignore",
	AttrHitCount:         "hit_count",
	AttrTargets:          "targets",
	AttrHP:               "hp",
	AttrDefense:          "defense",
	AttrResistance:       "resistance",
	AttrCost:             "cost",
	AttrBlockCount:       "block_count",
	AttrHealAmount:       "heal_amount",
	AttrSkillMultiplier:  "skill_multiplier",
}

// String returns the schema name of the attribute.
func (a Attribute) String() string {
	if a.Valid() {
		return attributeNames[a]
	}
	return fmt.Sprintf("Attribute(%d)", uint8(a))
}

// Valid reports whether a belongs to the schema.
func (a Attribute) Valid() bool {
	return a < AttrCount
}

// ParseAttribute resolves a schema name (case-insensitive, '-' or ' ' accepted for '_').
func ParseAttribute(s string) (Attribute, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	switch key {
	case "atk":
		return AttrAttack, true
	case "def":
		return AttrDefense, true
	case "mdef", "res":
		return AttrResistance, true
	}
	for i, name := range attributeNames {
		if name == key {
			return Attribute(i), true
		}
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler.
func (a Attribute) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("attribute %d outside schema", uint8(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Attribute) UnmarshalText(text []byte) error {
	attr, ok := ParseAttribute(string(text))
	if !ok {
		return fmt.Errorf("unknown attribute %q", string(text))
	}
	*a = attr
	return nil
}

// AttributeSet stores one value per schema attribute.
type AttributeSet [AttrCount]float64

// Get returns the value of a, or 0 for attributes outside the schema.
func (s AttributeSet) Get(a Attribute) float64 {
	if !a.Valid() {
		return 0
	}
	return s[a]
}
