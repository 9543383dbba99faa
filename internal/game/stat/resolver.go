package stat

import (
	"math"
	"slices"
	"strconv"

	"github.com/udisondev/opdps/internal/model"
)

// Resolved is an operator's attribute set after all modifiers are applied.
// It is the only input the damage engine reads from an operator.
type Resolved struct {
	Operator   string
	Class      string
	DamageType model.DamageType
	Values     model.AttributeSet
	Skill      *model.Skill
}

// Get returns the resolved value of a.
func (r Resolved) Get(a model.Attribute) float64 {
	return r.Values.Get(a)
}

type indexed struct {
	pos int
	mod model.Modifier
}

// Resolve merges profile base attributes with mods.
//
// Per attribute: final = (base + Σadd) * (1 + Σmul_percent); an override then
// replaces the value (the last override in input order wins). Exclusive and
// highest-only modifiers sharing a source tag are reduced to the single
// strongest one before aggregation.
//
// The profile is never mutated. Additive and multiplicative contributions are
// summed in value order, so permuting mods never changes the result.
func Resolve(profile model.OperatorProfile, mods []model.Modifier) (Resolved, error) {
	base := profile.Base()

	list := make([]indexed, 0, len(mods))
	for i, m := range mods {
		if err := validateModifier(profile, m); err != nil {
			return Resolved{}, err
		}
		list = append(list, indexed{pos: i, mod: m})
	}

	kept := applyStacking(list, base)

	var adds, muls [model.AttrCount][]float64
	var override [model.AttrCount]*indexed
	for i := range kept {
		im := &kept[i]
		a := im.mod.Attribute
		switch im.mod.Op {
		case model.ModAdd:
			adds[a] = append(adds[a], im.mod.Value)
		case model.ModMulPercent:
			muls[a] = append(muls[a], im.mod.Value)
		case model.ModOverride:
			if override[a] == nil || im.pos > override[a].pos {
				override[a] = im
			}
		}
	}

	out := Resolved{
		Operator:   profile.Name,
		Class:      profile.Class,
		DamageType: profile.DamageType,
		Skill:      copySkill(profile.Skill),
	}
	for a := range model.AttrCount {
		v := (base[a] + orderedSum(adds[a])) * (1 + orderedSum(muls[a]))
		if override[a] != nil {
			v = override[a].mod.Value
		}
		out.Values[a] = v
	}

	if err := validateResolved(out); err != nil {
		return Resolved{}, err
	}
	return out, nil
}

func validateModifier(profile model.OperatorProfile, m model.Modifier) error {
	switch {
	case !m.Attribute.Valid():
		return &model.InvalidModifierError{Modifier: m.Name, Field: "attribute", Value: m.Attribute.String(), Reason: "not in attribute schema"}
	case !profile.Defines(m.Attribute):
		return &model.InvalidModifierError{Modifier: m.Name, Field: "attribute", Value: m.Attribute.String(), Reason: "not defined by operator " + strconv.Quote(profile.Name)}
	case !m.Op.Valid():
		return &model.InvalidModifierError{Modifier: m.Name, Field: "op", Value: m.Op.String(), Reason: "unrecognized operation"}
	case !m.Stacking.Valid():
		return &model.InvalidModifierError{Modifier: m.Name, Field: "stacking", Value: m.Stacking.String(), Reason: "unrecognized stacking rule"}
	case math.IsNaN(m.Value) || math.IsInf(m.Value, 0):
		return &model.InvalidModifierError{Modifier: m.Name, Field: "value", Value: strconv.FormatFloat(m.Value, 'g', -1, 64), Reason: "not a finite number"}
	}
	return nil
}

type groupKey struct {
	source string
	attr   model.Attribute
}

// applyStacking drops the modifiers suppressed by exclusive and highest-only
// rules, keeping input order for the rest.
func applyStacking(list []indexed, base model.AttributeSet) []indexed {
	bestExclusive := make(map[groupKey]int)
	bestHighest := make(map[groupKey]int)
	for i, im := range list {
		if im.mod.Source == "" {
			continue
		}
		key := groupKey{source: im.mod.Source, attr: im.mod.Attribute}
		var best map[groupKey]int
		switch im.mod.Stacking {
		case model.Exclusive:
			best = bestExclusive
		case model.HighestOnly:
			best = bestHighest
		default:
			continue
		}
		cur, ok := best[key]
		if !ok || strength(im.mod, base) > strength(list[cur].mod, base) {
			best[key] = i
		}
	}

	kept := make([]indexed, 0, len(list))
	for i, im := range list {
		if im.mod.Source == "" {
			kept = append(kept, im)
			continue
		}
		key := groupKey{source: im.mod.Source, attr: im.mod.Attribute}
		if ex, ok := bestExclusive[key]; ok {
			if i == ex {
				kept = append(kept, im)
			}
			continue
		}
		if im.mod.Stacking == model.HighestOnly && bestHighest[key] != i {
			continue
		}
		kept = append(kept, im)
	}
	return kept
}

// strength is the absolute change a modifier would make to the base value on its own.
func strength(m model.Modifier, base model.AttributeSet) float64 {
	b := base[m.Attribute]
	switch m.Op {
	case model.ModMulPercent:
		if b == 0 {
			return math.Abs(m.Value)
		}
		return math.Abs(b * m.Value)
	case model.ModOverride:
		return math.Abs(m.Value - b)
	default:
		return math.Abs(m.Value)
	}
}

func orderedSum(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := slices.Clone(vals)
	slices.Sort(sorted)
	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	return sum
}

func copySkill(s *model.Skill) *model.Skill {
	if s == nil {
		return nil
	}
	c := *s
	if s.DamageType != nil {
		dt := *s.DamageType
		c.DamageType = &dt
	}
	if s.DoT != nil {
		d := *s.DoT
		c.DoT = &d
	}
	return &c
}
