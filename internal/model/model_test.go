package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDamageType(t *testing.T) {
	tests := []struct {
		in   string
		want DamageType
	}{
		{"physical", DamagePhysical},
		{" Phys ", DamagePhysical},
		{"物伤", DamagePhysical},
		{"ARTS", DamageArts},
		{"magic", DamageArts},
		{"法术伤害", DamageArts},
		{"true", DamageTrue},
		{"真伤", DamageTrue},
	}
	for _, tt := range tests {
		got, err := ParseDamageType(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseDamageType("plasma")
	var dtErr *UnknownDamageTypeError
	require.ErrorAs(t, err, &dtErr)
	assert.Equal(t, "plasma", dtErr.Value)

	_, err = DamageType(9).MarshalText()
	assert.Error(t, err)
}

func TestParseSortKey(t *testing.T) {
	for _, in := range []string{"", "dps", "average_dps", " Average_DPS "} {
		k, err := ParseSortKey(in)
		require.NoError(t, err, in)
		assert.Equal(t, SortAverageDps, k, in)
	}
	k, err := ParseSortKey("cost_efficiency")
	require.NoError(t, err)
	assert.Equal(t, SortCostEfficiency, k)

	_, err = ParseSortKey("luck")
	assert.Error(t, err)
}

func TestSortKey_Metric(t *testing.T) {
	r := DpsResult{AverageDps: 1, BurstDps: 2, SustainedDps: 3, TotalDamage: 4, DPH: 5, CostEfficiency: 6}
	assert.Equal(t, 1.0, SortAverageDps.Metric(r))
	assert.Equal(t, 2.0, SortBurstDps.Metric(r))
	assert.Equal(t, 3.0, SortSustainedDps.Metric(r))
	assert.Equal(t, 4.0, SortTotalDamage.Metric(r))
	assert.Equal(t, 5.0, SortDPH.Metric(r))
	assert.Equal(t, 6.0, SortCostEfficiency.Metric(r))
}

func TestParseAttribute(t *testing.T) {
	tests := []struct {
		in   string
		want Attribute
	}{
		{"atk", AttrAttack},
		{"attack-interval", AttrAttackInterval},
		{"Crit Chance", AttrCritChance},
		{"mdef", AttrResistance},
		{"def", AttrDefense},
	}
	for _, tt := range tests {
		got, ok := ParseAttribute(tt.in)
		require.True(t, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, ok := ParseAttribute("charisma")
	assert.False(t, ok)
	assert.False(t, AttrCount.Valid())
}

func TestModifier_JSONNames(t *testing.T) {
	var m Modifier
	err := json.Unmarshal([]byte(`{"name":"buff","attribute":"atk","op":"%","value":0.3,"stacking":"highest"}`), &m)
	require.NoError(t, err)
	assert.Equal(t, AttrAttack, m.Attribute)
	assert.Equal(t, ModMulPercent, m.Op)
	assert.Equal(t, HighestOnly, m.Stacking)

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"buff","attribute":"attack","op":"mul_percent","value":0.3,"stacking":"highest_only"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"op":"divide"}`), &m))
	assert.Error(t, json.Unmarshal([]byte(`{"stacking":"sometimes"}`), &m))
}

func TestCritMode_UnmarshalText(t *testing.T) {
	var m CritMode
	require.NoError(t, m.UnmarshalText([]byte("stochastic")))
	assert.Equal(t, CritStochastic, m)
	require.NoError(t, m.UnmarshalText(nil))
	assert.Equal(t, CritExpected, m)
	assert.Error(t, m.UnmarshalText([]byte("lucky")))
}

func TestEnemyProfile_TakenMultiplier(t *testing.T) {
	e := EnemyProfile{DamageTaken: map[DamageType]float64{DamageArts: 1.5, DamageTrue: 2}}
	assert.Equal(t, 1.5, e.TakenMultiplier(DamageArts))
	assert.Equal(t, 1.0, e.TakenMultiplier(DamagePhysical))
	assert.Equal(t, 1.0, e.TakenMultiplier(DamageTrue))
}

func TestScenario_EnemyFor(t *testing.T) {
	sc := Scenario{
		Enemy:   EnemyProfile{Name: "base"},
		Enemies: []EnemyProfile{{Name: "first"}},
	}
	assert.Equal(t, "first", sc.EnemyFor(0).Name)
	assert.Equal(t, "base", sc.EnemyFor(1).Name)
	assert.Equal(t, "base", sc.EnemyFor(-1).Name)
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, `duplicate operator "Guard"`, (&DuplicateOperatorError{Name: "Guard"}).Error())
	assert.Equal(t, "comparison requires at least one operator", (&EmptyOperatorSetError{}).Error())
	assert.Equal(t, `invalid scenario: targets=0: must be at least 1`,
		(&InvalidScenarioError{Field: "targets", Value: "0", Reason: "must be at least 1"}).Error())
}
