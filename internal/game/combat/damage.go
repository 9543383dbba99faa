package combat

import (
	"math"

	"github.com/udisondev/opdps/internal/config"
	"github.com/udisondev/opdps/internal/model"
)

// Penetration is the share of enemy mitigation an operator ignores.
type Penetration struct {
	Defense    float64 // fraction of defense ignored
	Resistance float64 // fraction of resistance ignored
}

// Mitigate converts raw damage into effective damage against enemy.
//
// Physical: max(raw - def*(1-ignore), raw*floor).
// Arts:     max(raw * (1 - min(res, cap)), raw*floor).
// True:     raw, regardless of enemy stats.
//
// Safe for concurrent use: it reads only its arguments.
func Mitigate(rules config.Rules, raw float64, dt model.DamageType, enemy model.EnemyProfile, defenseIgnore float64) (float64, error) {
	return MitigateWith(rules, raw, dt, enemy, Penetration{Defense: defenseIgnore})
}

// MitigateWith is Mitigate with resistance ignore applied to arts damage.
func MitigateWith(rules config.Rules, raw float64, dt model.DamageType, enemy model.EnemyProfile, pen Penetration) (float64, error) {
	if !dt.Valid() {
		return 0, &model.UnknownDamageTypeError{Value: dt.String()}
	}
	if raw <= 0 {
		return 0, nil
	}

	floor := raw * rules.MinDamageFloor

	switch dt {
	case model.DamageTrue:
		return raw, nil

	case model.DamagePhysical:
		def := math.Max(0, enemy.Defense*(1-clamp01(pen.Defense)))
		dmg := math.Max(raw-def, floor)
		return dmg * enemy.TakenMultiplier(dt), nil

	default: // arts
		res := math.Min(math.Max(enemy.Resistance, 0), rules.ResistanceCap)
		res *= 1 - clamp01(pen.Resistance)
		dmg := math.Max(raw*(1-res), floor)
		return dmg * enemy.TakenMultiplier(dt), nil
	}
}

// ArmorBreakPoint returns the defense at which a physical hit of the given
// attack drops to the damage floor.
func ArmorBreakPoint(rules config.Rules, attack float64) float64 {
	if attack <= 0 {
		return 0
	}
	return attack * (1 - rules.MinDamageFloor)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
