package reporting

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"gld-feature-lab/internal/domain"
)

// Sheet names of the XLSX export.
const (
	TableSheet   = "aligned_table"
	WindowsSheet = "windows"
)

// RenderTableXLSX renders the aligned table and its windows as a workbook.
// Null cells are left blank. Dates are written as YYYY-MM-DD text so the
// workbook matches the CSV exactly.
func RenderTableXLSX(t *domain.Table, windows []WindowRow) ([]byte, error) {
	fx := excelize.NewFile()
	defer fx.Close()

	if err := fx.SetSheetName(fx.GetSheetName(0), TableSheet); err != nil {
		return nil, err
	}
	if _, err := fx.NewSheet(WindowsSheet); err != nil {
		return nil, err
	}

	header, err := fx.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	if err := writeTableSheet(fx, t, header); err != nil {
		return nil, err
	}
	if err := writeWindowsSheet(fx, windows, header); err != nil {
		return nil, err
	}

	buf, err := fx.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTableSheet(fx *excelize.File, t *domain.Table, header int) error {
	names := append([]string{DateHeader}, t.ColumnNames()...)
	if err := writeHeader(fx, TableSheet, names, header); err != nil {
		return err
	}

	cols := t.Columns()
	for i := 0; i < t.Len(); i++ {
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := fx.SetCellStr(TableSheet, cell, t.Date(i).Format(domain.DateLayout)); err != nil {
			return err
		}
		for j, c := range cols {
			v := c.Values[i]
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(j+2, row)
			if err := fx.SetCellFloat(TableSheet, cell, *v, -1, 64); err != nil {
				return err
			}
		}
	}

	return fx.SetPanes(TableSheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      1,
		TopLeftCell: "B2",
		ActivePane:  "bottomRight",
	})
}

func writeWindowsSheet(fx *excelize.File, windows []WindowRow, header int) error {
	names := []string{"window", "train_start", "train_end", "test_start", "test_end", "train_rows", "test_rows"}
	if err := writeHeader(fx, WindowsSheet, names, header); err != nil {
		return err
	}

	for i, w := range windows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{
			w.Index,
			w.TrainStart.Format(domain.DateLayout),
			w.TrainEnd.Format(domain.DateLayout),
			w.TestStart.Format(domain.DateLayout),
			w.TestEnd.Format(domain.DateLayout),
			w.TrainRows,
			w.TestRows,
		}
		if err := fx.SetSheetRow(WindowsSheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(fx *excelize.File, sheet string, names []string, style int) error {
	row := make([]interface{}, len(names))
	for i, n := range names {
		row[i] = n
	}
	if err := fx.SetSheetRow(sheet, "A1", &row); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(names), 1)
	return fx.SetCellStyle(sheet, "A1", last, style)
}
