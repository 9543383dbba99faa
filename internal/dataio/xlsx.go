package dataio

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/udisondev/opdps/internal/model"
)

const operatorSheet = "Operators"

// ReadXLSX parses operators from the "Operators" sheet, or the first sheet
// when there is none. Row 1 is the header.
func ReadXLSX(r io.Reader) (Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := operatorSheet
	if idx, _ := f.GetSheetIndex(sheet); idx == -1 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return Result{}, fmt.Errorf("xlsx has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return Result{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return Result{}, fmt.Errorf("sheet %q is empty", sheet)
	}
	m := newMapper(rows[0])
	if !m.hasName {
		return Result{}, fmt.Errorf("sheet %q has no operator name column", sheet)
	}

	var res Result
	for i, cells := range rows[1:] {
		if blank(cells) {
			continue
		}
		p, err := m.profile(cells)
		if err != nil {
			res.Errors = append(res.Errors, RowError{Row: i + 2, Err: err})
			continue
		}
		res.Records = append(res.Records, model.OperatorRecord{Profile: p})
	}
	return res, nil
}

// WriteXLSX writes recs to an "Operators" sheet with a centered header row
// and percent formatting on fractional columns.
func WriteXLSX(w io.Writer, recs []model.OperatorRecord) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", operatorSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := headerNames()
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(operatorSheet, cell, h); err != nil {
			return fmt.Errorf("write header %s: %w", h, err)
		}
	}
	headerStyleID, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetCellStyle(operatorSheet, "A1", lastCol+"1", headerStyleID); err != nil {
		return err
	}

	for ri, rec := range recs {
		for ci, v := range row(rec.Profile) {
			cell, _ := excelize.CoordinatesToCellName(ci+1, ri+2)
			if err := f.SetCellValue(operatorSheet, cell, v); err != nil {
				return fmt.Errorf("write %s: %w", cell, err)
			}
		}
	}

	if len(recs) > 0 {
		pctStyleID, err := f.NewStyle(&excelize.Style{NumFmt: 10})
		if err != nil {
			return err
		}
		lastRow := len(recs) + 1
		for ci, c := range columns {
			if !c.percent {
				continue
			}
			col, _ := excelize.ColumnNumberToName(ci + 1)
			if err := f.SetCellStyle(operatorSheet, fmt.Sprintf("%s2", col), fmt.Sprintf("%s%d", col, lastRow), pctStyleID); err != nil {
				return err
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
