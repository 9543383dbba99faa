// Package report renders comparison results as spreadsheets and charts.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/udisondev/opdps/internal/model"
)

const (
	sheetRanking  = "Ranking"
	sheetTimeline = "Timeline"
	sheetScenario = "Scenario"
)

// Headers (2 rows):
// Row 1: group names (merged)
// Row 2: metric names
var rankingGroups = []struct {
	title   string
	metrics []string
}{
	{title: "", metrics: []string{"Rank", "Operator", "Class"}},
	{title: "DPS", metrics: []string{"Average", "Burst", "Sustained", "% of best", "Gap to next"}},
	{title: "Damage", metrics: []string{"Total", "Physical", "Arts", "True", "DPH"}},
	{title: "Utility", metrics: []string{"Skill uptime", "Cost efficiency", "HPS", "Armor break", "Survivability"}},
}

// Percent-formatted ranking columns (1-based).
var rankingPercentCols = []int{7, 14}

// WriteComparisonXLSX writes a ranking sheet, a cumulative damage timeline
// sheet and a scenario summary sheet.
func WriteComparisonXLSX(w io.Writer, cmp model.ComparisonResult) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetRanking); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRanking(f, cmp); err != nil {
		return fmt.Errorf("ranking sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetTimeline); err != nil {
		return err
	}
	if err := writeTimeline(f, cmp); err != nil {
		return fmt.Errorf("timeline sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetScenario); err != nil {
		return err
	}
	if err := writeScenario(f, cmp); err != nil {
		return fmt.Errorf("scenario sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// SaveComparisonXLSX writes the report to path.
func SaveComparisonXLSX(path string, cmp model.ComparisonResult) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteComparisonXLSX(fh, cmp); err != nil {
		_ = fh.Close()
		return err
	}
	return fh.Close()
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func writeRanking(f *excelize.File, cmp model.ComparisonResult) error {
	sheet := sheetRanking
	col := 1
	for _, g := range rankingGroups {
		start := col
		for _, m := range g.metrics {
			if g.title == "" {
				// ungrouped columns span both header rows
				_ = f.SetCellValue(sheet, cell(col, 1), m)
				_ = f.MergeCell(sheet, cell(col, 1), cell(col, 2))
			} else {
				_ = f.SetCellValue(sheet, cell(col, 2), m)
			}
			col++
		}
		if g.title != "" {
			_ = f.SetCellValue(sheet, cell(start, 1), g.title)
			_ = f.MergeCell(sheet, cell(start, 1), cell(col-1, 1))
		}
	}
	lastCol := col - 1

	headerStyleID, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", cell(lastCol, 2), headerStyleID); err != nil {
		return err
	}

	for i, e := range cmp.Entries {
		row := i + 3
		r := e.Result
		values := []any{
			e.Rank, r.Operator, r.Class,
			r.AverageDps, r.BurstDps, r.SustainedDps, e.RelativeToBest, e.GapToNext,
			r.TotalDamage, r.ByType[model.DamagePhysical], r.ByType[model.DamageArts], r.ByType[model.DamageTrue], r.DPH,
			r.SkillUptime, r.CostEfficiency, r.HPS, r.ArmorBreakPoint, r.Survivability,
		}
		for c, v := range values {
			if err := f.SetCellValue(sheet, cell(c+1, row), v); err != nil {
				return err
			}
		}
	}

	// Percent formatting: 1.0 => 100%
	if len(cmp.Entries) > 0 {
		pctStyleID, err := f.NewStyle(&excelize.Style{NumFmt: 10})
		if err != nil {
			return err
		}
		lastRow := len(cmp.Entries) + 2
		for _, c := range rankingPercentCols {
			if err := f.SetCellStyle(sheet, cell(c, 3), cell(c, lastRow), pctStyleID); err != nil {
				return err
			}
		}
		numStyleID, err := f.NewStyle(&excelize.Style{NumFmt: 4})
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell(4, 3), cell(6, lastRow), numStyleID); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheet, "B", "B", 18); err != nil {
		return err
	}
	lastName, _ := excelize.ColumnNumberToName(lastCol)
	if err := f.SetColWidth(sheet, "C", lastName, 13); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, XSplit: 2, YSplit: 2, TopLeftCell: "C3", ActivePane: "bottomRight"})
}

// writeTimeline lays out one column per operator. Rows follow the first
// operator's sample times; every operator shares the scenario so the
// samples line up.
func writeTimeline(f *excelize.File, cmp model.ComparisonResult) error {
	sheet := sheetTimeline
	_ = f.SetCellValue(sheet, "A1", "Time (s)")
	for i, e := range cmp.Entries {
		_ = f.SetCellValue(sheet, cell(i+2, 1), e.Result.Operator)
	}
	if len(cmp.Entries) == 0 {
		return nil
	}
	for ri, p := range cmp.Entries[0].Result.Timeline {
		row := ri + 2
		_ = f.SetCellValue(sheet, cell(1, row), p.Time)
		for ci, e := range cmp.Entries {
			if ri < len(e.Result.Timeline) {
				if err := f.SetCellValue(sheet, cell(ci+2, row), e.Result.Timeline[ri].Damage); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func writeScenario(f *excelize.File, cmp model.ComparisonResult) error {
	sheet := sheetScenario
	sc := cmp.Scenario
	rows := [][2]any{
		{"Comparison", cmp.ID.String()},
		{"Created", cmp.CreatedAt.Format("2006-01-02 15:04:05")},
		{"Sort key", cmp.SortKey.String()},
		{"Time window (s)", sc.TimeWindow},
		{"Targets", sc.Targets},
		{"Enemy", sc.Enemy.Name},
		{"Enemy defense", sc.Enemy.Defense},
		{"Enemy resistance", sc.Enemy.Resistance},
		{"Crit mode", sc.CritMode.String()},
	}
	for i, r := range rows {
		if err := f.SetCellValue(sheet, cell(1, i+1), r[0]); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell(2, i+1), r[1]); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "B", 24)
}
