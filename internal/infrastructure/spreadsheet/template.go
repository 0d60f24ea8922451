package spreadsheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

var headers = map[string][]any{
	SheetStudents: {"id", "name"},
	SheetSubjects: {"id", "subjectName"},
	SheetMarks:    {"studentId", "subjectId", "mark"},
}

// NewTemplate returns an empty workbook with the three import sheets and
// their header rows. The caller closes it.
func NewTemplate() (*excelize.File, error) {
	f := excelize.NewFile()

	for _, sheet := range []string{SheetStudents, SheetSubjects, SheetMarks} {
		if _, err := f.NewSheet(sheet); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
		row := headers[sheet]
		if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to write header of %s: %w", sheet, err)
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}
	f.SetActiveSheet(0)
	return f, nil
}

// AppendRow writes values to the first free row of sheet.
func AppendRow(f *excelize.File, sheet string, values ...any) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return err
	}
	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
