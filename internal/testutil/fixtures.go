package testutil

import (
	"github.com/udisondev/opdps/internal/config"
	"github.com/udisondev/opdps/internal/model"
)

// Fixtures holds shared operator and scenario data so tests don't repeat
// the same literals.
var Fixtures = struct {
	// Guard: physical, 100 attack, 1s interval.
	Guard model.OperatorProfile
	// Caster: arts, 100 attack, 1s interval.
	Caster model.OperatorProfile
	// Medic heals 200 per 2.5s.
	Medic model.OperatorProfile
	// Sniper carries a timed skill and crit stats.
	Sniper model.OperatorProfile
}{
	Guard: model.OperatorProfile{
		Name:           "Guard",
		Class:          "guard",
		DamageType:     model.DamagePhysical,
		Attack:         100,
		AttackInterval: 1.0,
		HP:             2000,
		Defense:        300,
		Cost:           10,
		BlockCount:     2,
	},
	Caster: model.OperatorProfile{
		Name:           "Caster",
		Class:          "caster",
		DamageType:     model.DamageArts,
		Attack:         100,
		AttackInterval: 1.0,
		HP:             1200,
		Cost:           20,
	},
	Medic: model.OperatorProfile{
		Name:           "Medic",
		Class:          model.ClassMedic,
		DamageType:     model.DamageArts,
		Attack:         200,
		AttackInterval: 2.5,
		HealAmount:     200,
		HP:             1000,
		Cost:           16,
	},
	Sniper: model.OperatorProfile{
		Name:           "Sniper",
		Class:          "sniper",
		DamageType:     model.DamagePhysical,
		Attack:         400,
		AttackInterval: 1.0,
		CritChance:     0.2,
		CritMultiplier: 1.6,
		Cost:           12,
		Skill: &model.Skill{
			Name:         "Rapid Fire",
			Trigger:      model.TriggerTimed,
			Multiplier:   1.5,
			InitialDelay: 10,
			Duration:     10,
			Cooldown:     20,
		},
	},
}

// Scenario returns a single-target scenario of the given window against
// an enemy with the given defense and resistance.
func Scenario(window, defense, resistance float64) model.Scenario {
	return model.Scenario{
		TimeWindow: window,
		Enemy:      model.EnemyProfile{Name: "dummy", Defense: defense, Resistance: resistance},
		Targets:    1,
	}
}

// Rules returns the default engine rules.
func Rules() config.Rules {
	return config.DefaultRules()
}
