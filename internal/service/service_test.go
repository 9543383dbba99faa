package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/opdps/internal/config"
	"github.com/udisondev/opdps/internal/dataio"
	"github.com/udisondev/opdps/internal/model"
	"github.com/udisondev/opdps/internal/testutil"
)

func newCalculator(t *testing.T) (*Calculator, *testutil.MemStore) {
	t.Helper()
	store := testutil.NewMemStore()
	cfg := config.DefaultApp()
	cfg.Scenario = testutil.Scenario(10, 0, 0)
	return New(cfg, store, store.History(), store.Imports()), store
}

func profile(p model.OperatorProfile) *model.OperatorProfile {
	return &p
}

func TestCalculator_OperatorCRUD(t *testing.T) {
	ctx := context.Background()
	calc, _ := newCalculator(t)

	created, err := calc.CreateOperator(ctx, model.OperatorRecord{Profile: testutil.Fixtures.Guard})
	require.NoError(t, err)
	require.NotZero(t, created.Profile.ID)

	_, err = calc.CreateOperator(ctx, model.OperatorRecord{Profile: testutil.Fixtures.Guard})
	var dup *model.DuplicateOperatorError
	assert.ErrorAs(t, err, &dup)

	got, err := calc.Operator(ctx, created.Profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "Guard", got.Profile.Name)

	got.Profile.Attack = 150
	updated, err := calc.UpdateOperator(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, 150.0, updated.Profile.Attack)

	list, err := calc.Operators(ctx, "guard")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, calc.DeleteOperator(ctx, created.Profile.ID))
	assert.ErrorIs(t, calc.DeleteOperator(ctx, created.Profile.ID), ErrOperatorNotFound)

	_, err = calc.Operator(ctx, created.Profile.ID)
	assert.ErrorIs(t, err, ErrOperatorNotFound)

	missing := model.OperatorRecord{Profile: testutil.Fixtures.Guard}
	missing.Profile.ID = 999
	_, err = calc.UpdateOperator(ctx, missing)
	assert.ErrorIs(t, err, ErrOperatorNotFound)
}

func TestCalculator_CreateOperatorValidates(t *testing.T) {
	ctx := context.Background()
	calc, store := newCalculator(t)

	bad := testutil.Fixtures.Guard
	bad.AttackInterval = 0
	_, err := calc.CreateOperator(ctx, model.OperatorRecord{Profile: bad})
	var invalid *model.InvalidProfileError
	assert.ErrorAs(t, err, &invalid)

	noName := testutil.Fixtures.Guard
	noName.Name = ""
	_, err = calc.CreateOperator(ctx, model.OperatorRecord{Profile: noName})
	assert.ErrorAs(t, err, &invalid)

	assert.Empty(t, store.Operators)
}

func TestCalculator_CalculateRecordsAndCaches(t *testing.T) {
	ctx := context.Background()
	calc, store := newCalculator(t)

	req := CalculateRequest{Operator: OperatorRef{Profile: profile(testutil.Fixtures.Guard)}}
	first, err := calc.Calculate(ctx, req)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.InDelta(t, 100.0, first.Result.AverageDps, 1e-9)
	require.Len(t, store.Calculations, 1)
	assert.Equal(t, model.KindCalculate, store.Calculations[0].Kind)
	assert.Len(t, store.Calculations[0].Fingerprint, 64)

	second, err := calc.Calculate(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.HistoryID, second.HistoryID)
	assert.Equal(t, first.Result.TotalDamage, second.Result.TotalDamage)
	assert.Len(t, store.Calculations, 1)

	sc := testutil.Scenario(10, 50, 0)
	third, err := calc.Calculate(ctx, CalculateRequest{Operator: req.Operator, Scenario: &sc})
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.InDelta(t, 50.0, third.Result.AverageDps, 1e-9)
	assert.Len(t, store.Calculations, 2)
}

func TestCalculator_CalculateCacheKeepsLabel(t *testing.T) {
	ctx := context.Background()
	calc, store := newCalculator(t)

	first, err := calc.Calculate(ctx, CalculateRequest{Operator: OperatorRef{Label: "A", Profile: profile(testutil.Fixtures.Guard)}})
	require.NoError(t, err)
	assert.Equal(t, "A", first.Result.Operator)

	second, err := calc.Calculate(ctx, CalculateRequest{Operator: OperatorRef{Label: "B", Profile: profile(testutil.Fixtures.Guard)}})
	require.NoError(t, err)
	assert.Equal(t, "B", second.Result.Operator)
	assert.False(t, second.Cached)
	assert.Len(t, store.Calculations, 2)

	again, err := calc.Calculate(ctx, CalculateRequest{Operator: OperatorRef{Label: "B", Profile: profile(testutil.Fixtures.Guard)}})
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, "B", again.Result.Operator)
}

func TestCalculator_CalculateRejectsOversizedScenario(t *testing.T) {
	ctx := context.Background()
	calc, store := newCalculator(t)

	for _, sc := range []model.Scenario{
		{TimeWindow: 1e9, Targets: 1},
		{TimeWindow: 10, Targets: 1_000_000_000},
		{TimeWindow: 10, Targets: 1, TimelineStep: 1e-300},
	} {
		_, err := calc.Calculate(ctx, CalculateRequest{Operator: OperatorRef{Profile: profile(testutil.Fixtures.Guard)}, Scenario: &sc})
		var invalid *model.InvalidScenarioError
		assert.ErrorAs(t, err, &invalid)
	}
	assert.Empty(t, store.Calculations)
}

func TestCalculator_CalculateStoredOperator(t *testing.T) {
	ctx := context.Background()
	calc, store := newCalculator(t)

	rec, err := calc.CreateOperator(ctx, model.OperatorRecord{
		Profile:   testutil.Fixtures.Guard,
		Modifiers: []model.Modifier{{Name: "trust", Attribute: model.AttrAttack, Op: model.ModAdd, Value: 50}},
	})
	require.NoError(t, err)

	res, err := calc.Calculate(ctx, CalculateRequest{Operator: OperatorRef{
		ID:        rec.Profile.ID,
		Modifiers: []model.Modifier{{Name: "buff", Attribute: model.AttrAttack, Op: model.ModMulPercent, Value: 1}},
	}})
	require.NoError(t, err)
	// (100 + 50) * 2 = 300 per second
	assert.InDelta(t, 300.0, res.Result.AverageDps, 1e-9)

	require.Len(t, store.Calculations, 1)
	require.NotNil(t, store.Calculations[0].OperatorID)
	assert.Equal(t, rec.Profile.ID, *store.Calculations[0].OperatorID)

	_, err = calc.Calculate(ctx, CalculateRequest{Operator: OperatorRef{ID: 12345}})
	assert.ErrorIs(t, err, ErrOperatorNotFound)

	_, err = calc.Calculate(ctx, CalculateRequest{})
	var invalid *model.InvalidProfileError
	assert.ErrorAs(t, err, &invalid)
}

func TestCalculator_StoreFailure(t *testing.T) {
	ctx := context.Background()
	calc, store := newCalculator(t)
	store.FailWith = testutil.ErrSimulated

	_, err := calc.Calculate(ctx, CalculateRequest{Operator: OperatorRef{ID: 1}})
	assert.ErrorIs(t, err, testutil.ErrSimulated)
}

func TestCalculator_Compare(t *testing.T) {
	ctx := context.Background()
	calc, store := newCalculator(t)

	caster, err := calc.CreateOperator(ctx, model.OperatorRecord{Profile: testutil.Fixtures.Caster})
	require.NoError(t, err)

	sc := testutil.Scenario(10, 500, 0.5)
	out, err := calc.Compare(ctx, CompareRequest{
		Operators: []OperatorRef{
			{Profile: profile(testutil.Fixtures.Guard)},
			{ID: caster.Profile.ID},
		},
		Scenario: &sc,
	})
	require.NoError(t, err)
	// guard: max(100-500, 5) = 5; caster: 100 * 0.5 = 50
	assert.Equal(t, []string{"Caster", "Guard"}, out.Names())
	assert.InDelta(t, 0.1, out.Entries[1].RelativeToBest, 1e-9)

	require.Len(t, store.Calculations, 1)
	assert.Equal(t, model.KindCompare, store.Calculations[0].Kind)

	_, err = calc.Compare(ctx, CompareRequest{})
	var empty *model.EmptyOperatorSetError
	assert.ErrorAs(t, err, &empty)

	_, err = calc.Compare(ctx, CompareRequest{Operators: []OperatorRef{{ID: 777}}})
	assert.ErrorIs(t, err, ErrOperatorNotFound)
}

func TestCalculator_Curve(t *testing.T) {
	ctx := context.Background()
	calc, store := newCalculator(t)

	out, err := calc.Curve(ctx, CurveRequest{
		Operator: OperatorRef{Profile: profile(testutil.Fixtures.Guard)},
		Max:      100,
		Step:     50,
	})
	require.NoError(t, err)
	assert.Equal(t, CurveDefense, out.Kind)
	require.Len(t, out.Points, 3)
	assert.InDelta(t, 5.0, out.Points[2].Dps, 1e-9)

	res, err := calc.Curve(ctx, CurveRequest{
		Operator: OperatorRef{Profile: profile(testutil.Fixtures.Caster)},
		Kind:     "Resistance",
	})
	require.NoError(t, err)
	assert.Equal(t, CurveResistance, res.Kind)
	assert.Len(t, res.Points, 21)

	_, err = calc.Curve(ctx, CurveRequest{Operator: OperatorRef{Profile: profile(testutil.Fixtures.Guard)}, Kind: "hp"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = calc.Curve(ctx, CurveRequest{Operator: OperatorRef{Profile: profile(testutil.Fixtures.Guard)}, Max: 1000, Step: 1e-300})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	assert.Len(t, store.Calculations, 2)
	hist, err := calc.History(ctx, model.KindCurve, 0)
	require.NoError(t, err)
	assert.Len(t, hist, 2)
}

func TestCalculator_ImportAndExport(t *testing.T) {
	ctx := context.Background()
	calc, store := newCalculator(t)

	csv := "name,class,attack,attack_interval,atk_type\n" +
		"Guard,guard,500,1.2,physical\n" +
		"Broken,guard,500,0,physical\n" +
		"Caster,caster,600,1.6,arts\n" +
		"Bad,caster,600,1.6,plasma\n"

	summary, err := calc.Import(ctx, strings.NewReader(csv), dataio.FormatCSV, "ops.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Imported)
	assert.Equal(t, model.ImportPartial, summary.Status)
	assert.Len(t, summary.Errors, 2)
	assert.Len(t, store.Operators, 2)

	require.Len(t, store.ImportLog, 1)
	assert.Equal(t, "ops.csv", store.ImportLog[0].FileName)
	assert.Contains(t, store.ImportLog[0].ErrorMessage, "Broken")

	// re-import updates in place
	again, err := calc.Import(ctx, strings.NewReader(csv), dataio.FormatCSV, "ops.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, again.Imported)
	assert.Len(t, store.Operators, 2)

	var buf bytes.Buffer
	n, err := calc.Export(ctx, &buf, dataio.FormatJSON, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, buf.String(), "Caster")

	recent, err := calc.Imports(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, again.ID, recent[0].ID)
}

func TestCalculator_ImportUnreadable(t *testing.T) {
	ctx := context.Background()
	calc, store := newCalculator(t)

	summary, err := calc.Import(ctx, strings.NewReader("[1,"), dataio.FormatJSON, "broken.json")
	require.Error(t, err)
	assert.Equal(t, model.ImportFailed, summary.Status)
	require.Len(t, store.ImportLog, 1)
	assert.Equal(t, model.ImportFailed, store.ImportLog[0].Status)
}
