package report

import (
	"bytes"
	"image/png"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/udisondev/opdps/internal/model"
)

func sampleComparison() model.ComparisonResult {
	return model.ComparisonResult{
		ID:        uuid.New(),
		SortKey:   model.SortAverageDps,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Scenario: model.Scenario{
			TimeWindow: 10,
			Targets:    1,
			Enemy:      model.EnemyProfile{Name: "dummy", Defense: 300},
		},
		Entries: []model.RankedResult{
			{
				Rank: 1, RelativeToBest: 1, GapToNext: 25,
				Result: model.DpsResult{
					Operator: "A", Class: "guard", AverageDps: 75, TotalDamage: 750,
					ByType:   map[model.DamageType]float64{model.DamagePhysical: 750},
					Timeline: []model.TimelinePoint{{Time: 0}, {Time: 5, Damage: 375}, {Time: 10, Damage: 750}},
				},
			},
			{
				Rank: 2, RelativeToBest: 50.0 / 75,
				Result: model.DpsResult{
					Operator: "B", Class: "caster", AverageDps: 50, TotalDamage: 500,
					ByType:   map[model.DamageType]float64{model.DamageArts: 500},
					Timeline: []model.TimelinePoint{{Time: 0}, {Time: 5, Damage: 250}, {Time: 10, Damage: 500}},
				},
			},
		},
	}
}

func TestWriteComparisonXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteComparisonXLSX(&buf, sampleComparison()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetRanking, sheetTimeline, sheetScenario}, f.GetSheetList())

	v, err := f.GetCellValue(sheetRanking, "B3")
	require.NoError(t, err)
	assert.Equal(t, "A", v)
	v, err = f.GetCellValue(sheetRanking, "B4")
	require.NoError(t, err)
	assert.Equal(t, "B", v)

	v, err = f.GetCellValue(sheetRanking, "D1")
	require.NoError(t, err)
	assert.Equal(t, "DPS", v)

	v, err = f.GetCellValue(sheetRanking, "G4", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "0.6666666666666666", v)

	rows, err := f.GetRows(sheetTimeline)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Time (s)", "A", "B"}, rows[0])
	assert.Equal(t, []string{"10", "750", "500"}, rows[3])

	v, err = f.GetCellValue(sheetScenario, "B3")
	require.NoError(t, err)
	assert.Equal(t, "average_dps", v)
}

func TestSaveComparisonXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cmp.xlsx")
	require.NoError(t, SaveComparisonXLSX(path, sampleComparison()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), 3)
}

func TestComparisonBarChart(t *testing.T) {
	data, err := ComparisonBarChart(sampleComparison())
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, chartWidth, img.Bounds().Dx())
	assert.Equal(t, chartHeight, img.Bounds().Dy())

	_, err = ComparisonBarChart(model.ComparisonResult{})
	assert.Error(t, err)
}

func TestLineChart(t *testing.T) {
	series := TimelineSeries(sampleComparison())
	require.Len(t, series, 2)
	assert.Equal(t, Point{X: 10, Y: 750}, series[0].Points[2])

	data, err := LineChart("Cumulative damage", "time (s)", "damage", series)
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	_, err = LineChart("empty", "x", "y", nil)
	assert.Error(t, err)
}

func TestNiceCeil(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 1},
		{0.3, 0.5},
		{7, 10},
		{75, 100},
		{120, 200},
		{400, 500},
		{1000, 1000},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, niceCeil(tt.in), 1e-9, "niceCeil(%v)", tt.in)
	}
}
