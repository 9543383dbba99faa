package stat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/opdps/internal/model"
)

func guard() model.OperatorProfile {
	return model.OperatorProfile{
		Name:           "Guard",
		DamageType:     model.DamagePhysical,
		Attack:         100,
		AttackInterval: 1.0,
	}
}

func add(a model.Attribute, v float64) model.Modifier {
	return model.Modifier{Name: "add", Attribute: a, Op: model.ModAdd, Value: v}
}

func TestResolve_NoModifiers(t *testing.T) {
	r, err := Resolve(guard(), nil)
	require.NoError(t, err)

	assert.Equal(t, "Guard", r.Operator)
	assert.Equal(t, 100.0, r.Get(model.AttrAttack))
	assert.Equal(t, 1.0, r.Get(model.AttrAttackInterval))
	// neutral defaults
	assert.Equal(t, 1.0, r.Get(model.AttrCritMultiplier))
	assert.Equal(t, 1.0, r.Get(model.AttrHitCount))
	assert.Equal(t, 1.0, r.Get(model.AttrTargets))
}

func TestResolve_AdditiveThenMultiplicative(t *testing.T) {
	mods := []model.Modifier{
		{Name: "atk%", Attribute: model.AttrAttack, Op: model.ModMulPercent, Value: 0.5},
		add(model.AttrAttack, 20),
	}
	r, err := Resolve(guard(), mods)
	require.NoError(t, err)

	// (100 + 20) * (1 + 0.5)
	assert.InDelta(t, 180.0, r.Get(model.AttrAttack), 1e-9)
}

func TestResolve_OverrideAppliedLast(t *testing.T) {
	mods := []model.Modifier{
		{Name: "first", Attribute: model.AttrAttack, Op: model.ModOverride, Value: 200},
		add(model.AttrAttack, 50),
		{Name: "second", Attribute: model.AttrAttack, Op: model.ModOverride, Value: 300},
		{Name: "mul", Attribute: model.AttrAttack, Op: model.ModMulPercent, Value: 1},
	}
	r, err := Resolve(guard(), mods)
	require.NoError(t, err)
	assert.Equal(t, 300.0, r.Get(model.AttrAttack))
}

func TestResolve_AdditiveIsCommutative(t *testing.T) {
	mods := []model.Modifier{
		add(model.AttrAttackSpeed, 0.1),
		add(model.AttrAttackSpeed, 0.2),
		add(model.AttrAttackSpeed, 0.3),
		add(model.AttrAttack, 12.5),
		add(model.AttrAttack, -7.3),
		add(model.AttrCritChance, 0.07),
	}

	want, err := Resolve(guard(), mods)
	require.NoError(t, err)

	perms := [][]int{
		{5, 4, 3, 2, 1, 0},
		{2, 0, 1, 5, 3, 4},
		{1, 3, 5, 0, 2, 4},
		{4, 2, 0, 3, 5, 1},
	}
	for _, p := range perms {
		shuffled := make([]model.Modifier, len(p))
		for i, idx := range p {
			shuffled[i] = mods[idx]
		}
		got, err := Resolve(guard(), shuffled)
		require.NoError(t, err)
		assert.Equal(t, want.Values, got.Values, "permutation %v", p)
	}
}

func TestResolve_Stacking(t *testing.T) {
	tests := []struct {
		name string
		mods []model.Modifier
		want float64
	}{
		{
			name: "stackable same source sums",
			mods: []model.Modifier{
				{Name: "a", Attribute: model.AttrAttack, Op: model.ModAdd, Value: 10, Source: "aura"},
				{Name: "b", Attribute: model.AttrAttack, Op: model.ModAdd, Value: 30, Source: "aura"},
			},
			want: 140,
		},
		{
			name: "highest only keeps strongest",
			mods: []model.Modifier{
				{Name: "a", Attribute: model.AttrAttack, Op: model.ModAdd, Value: 10, Source: "aura", Stacking: model.HighestOnly},
				{Name: "b", Attribute: model.AttrAttack, Op: model.ModAdd, Value: 30, Source: "aura", Stacking: model.HighestOnly},
				{Name: "c", Attribute: model.AttrAttack, Op: model.ModAdd, Value: 20, Source: "aura", Stacking: model.HighestOnly},
			},
			want: 130,
		},
		{
			name: "highest only compares percent against base",
			mods: []model.Modifier{
				{Name: "flat", Attribute: model.AttrAttack, Op: model.ModAdd, Value: 40, Source: "buff", Stacking: model.HighestOnly},
				{Name: "pct", Attribute: model.AttrAttack, Op: model.ModMulPercent, Value: 0.5, Source: "buff", Stacking: model.HighestOnly},
			},
			want: 150,
		},
		{
			name: "different sources stack",
			mods: []model.Modifier{
				{Name: "a", Attribute: model.AttrAttack, Op: model.ModAdd, Value: 10, Source: "aura", Stacking: model.HighestOnly},
				{Name: "b", Attribute: model.AttrAttack, Op: model.ModAdd, Value: 30, Source: "song", Stacking: model.HighestOnly},
			},
			want: 140,
		},
		{
			name: "exclusive suppresses the rest of its source",
			mods: []model.Modifier{
				{Name: "plain", Attribute: model.AttrAttack, Op: model.ModAdd, Value: 5, Source: "module"},
				{Name: "ex1", Attribute: model.AttrAttack, Op: model.ModAdd, Value: 20, Source: "module", Stacking: model.Exclusive},
				{Name: "ex2", Attribute: model.AttrAttack, Op: model.ModAdd, Value: 15, Source: "module", Stacking: model.Exclusive},
				{Name: "other", Attribute: model.AttrAttack, Op: model.ModAdd, Value: 1, Source: "talent"},
			},
			want: 121,
		},
		{
			name: "ties keep the earliest",
			mods: []model.Modifier{
				{Name: "first", Attribute: model.AttrAttack, Op: model.ModOverride, Value: 150, Source: "s", Stacking: model.HighestOnly},
				{Name: "second", Attribute: model.AttrAttack, Op: model.ModOverride, Value: 50, Source: "s", Stacking: model.HighestOnly},
			},
			want: 150,
		},
		{
			name: "empty source never groups",
			mods: []model.Modifier{
				{Name: "a", Attribute: model.AttrAttack, Op: model.ModAdd, Value: 10, Stacking: model.Exclusive},
				{Name: "b", Attribute: model.AttrAttack, Op: model.ModAdd, Value: 30, Stacking: model.Exclusive},
			},
			want: 140,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Resolve(guard(), tt.mods)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, r.Get(model.AttrAttack), 1e-9)
		})
	}
}

func TestResolve_InvalidModifier(t *testing.T) {
	tests := []struct {
		name  string
		mod   model.Modifier
		field string
	}{
		{name: "attribute outside schema", mod: model.Modifier{Name: "x", Attribute: model.AttrCount, Op: model.ModAdd, Value: 1}, field: "attribute"},
		{name: "skill multiplier without skill", mod: model.Modifier{Name: "x", Attribute: model.AttrSkillMultiplier, Op: model.ModAdd, Value: 1}, field: "attribute"},
		{name: "unknown op", mod: model.Modifier{Name: "x", Attribute: model.AttrAttack, Op: model.ModOp(42), Value: 1}, field: "op"},
		{name: "unknown stacking", mod: model.Modifier{Name: "x", Attribute: model.AttrAttack, Op: model.ModAdd, Value: 1, Stacking: model.Stacking(9)}, field: "stacking"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(guard(), []model.Modifier{tt.mod})
			var target *model.InvalidModifierError
			require.ErrorAs(t, err, &target)
			assert.Equal(t, tt.field, target.Field)
			assert.Equal(t, "x", target.Modifier)
		})
	}
}

func TestResolve_InvalidResolvedValues(t *testing.T) {
	tests := []struct {
		name  string
		mods  []model.Modifier
		field string
	}{
		{name: "zero interval", mods: []model.Modifier{{Name: "z", Attribute: model.AttrAttackInterval, Op: model.ModOverride, Value: 0}}, field: "attack_interval"},
		{name: "negative attack", mods: []model.Modifier{add(model.AttrAttack, -150)}, field: "attack"},
		{name: "crit chance above one", mods: []model.Modifier{add(model.AttrCritChance, 1.5)}, field: "crit_chance"},
		{name: "attack speed at -100%", mods: []model.Modifier{add(model.AttrAttackSpeed, -1)}, field: "attack_speed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(guard(), tt.mods)
			var target *model.InvalidProfileError
			require.ErrorAs(t, err, &target)
			assert.Equal(t, tt.field, target.Field)
		})
	}
}

func TestResolve_InvalidSkill(t *testing.T) {
	p := guard()
	p.Skill = &model.Skill{Name: "burst", Trigger: model.TriggerTimed, Multiplier: 2}

	_, err := Resolve(p, nil)
	var target *model.InvalidProfileError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "skill.duration", target.Field)
}

func TestResolve_UnknownDamageType(t *testing.T) {
	p := guard()
	p.DamageType = model.DamageType(7)

	_, err := Resolve(p, nil)
	var target *model.UnknownDamageTypeError
	require.ErrorAs(t, err, &target)
}

func TestResolve_DoesNotMutateProfile(t *testing.T) {
	dt := model.DamageArts
	p := guard()
	p.Skill = &model.Skill{
		Name:       "always",
		Trigger:    model.TriggerAlways,
		Multiplier: 2,
		DamageType: &dt,
		DoT:        &model.DoT{Ratio: 0.1, TickInterval: 1, Duration: 3, DamageType: model.DamageArts},
	}
	before := p
	beforeSkill := *p.Skill
	beforeDoT := *p.Skill.DoT

	r, err := Resolve(p, []model.Modifier{
		add(model.AttrAttack, 50),
		{Name: "skill", Attribute: model.AttrSkillMultiplier, Op: model.ModMulPercent, Value: 0.5},
	})
	require.NoError(t, err)

	assert.Equal(t, before, p)
	assert.Equal(t, beforeSkill, *p.Skill)
	assert.Equal(t, beforeDoT, *p.Skill.DoT)
	assert.Equal(t, 150.0, r.Get(model.AttrAttack))
	assert.Equal(t, 3.0, r.Get(model.AttrSkillMultiplier))

	// the resolved skill is a copy
	r.Skill.DoT.Ratio = 9
	*r.Skill.DamageType = model.DamageTrue
	assert.Equal(t, 0.1, p.Skill.DoT.Ratio)
	assert.Equal(t, model.DamageArts, *p.Skill.DamageType)
}
