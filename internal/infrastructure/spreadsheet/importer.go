// Package spreadsheet loads college records from an xlsx workbook.
//
// The workbook is expected to carry up to three sheets, each with a header row:
//
//	Students  id | name
//	Subjects  id | subjectName
//	Marks     studentId | subjectId | mark
//
// Rows go through the same command handlers as the HTTP API, so a bad row is
// rejected exactly as a bad request would be. Row failures are collected in
// the Report and never abort the import.
package spreadsheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Java42-DashaShamis/college-mongo/internal/application/command"
	"github.com/Java42-DashaShamis/college-mongo/internal/domain/college"
	"github.com/Java42-DashaShamis/college-mongo/internal/domain/shared"
	"github.com/Java42-DashaShamis/college-mongo/pkg/logger"
)

// Sheet names.
const (
	SheetStudents = "Students"
	SheetSubjects = "Subjects"
	SheetMarks    = "Marks"
)

// StudentAdder is satisfied by command.AddStudentHandler.
type StudentAdder interface {
	Handle(ctx context.Context, cmd command.AddStudentCommand) (*college.Student, error)
}

// SubjectAdder is satisfied by command.AddSubjectHandler.
type SubjectAdder interface {
	Handle(ctx context.Context, cmd command.AddSubjectCommand) (*college.Subject, error)
}

// MarkAdder is satisfied by command.AddMarkHandler.
type MarkAdder interface {
	Handle(ctx context.Context, cmd command.AddMarkCommand) (*college.Mark, error)
}

// RowError describes one rejected row. Row is 1-based as shown in a spreadsheet app.
type RowError struct {
	Sheet string
	Row   int
	Err   error
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s!%d: %v", e.Sheet, e.Row, e.Err)
}

// Report summarises an import run.
type Report struct {
	Students int
	Subjects int
	Marks    int
	Failures []RowError
}

// Imported returns the total number of accepted rows.
func (r *Report) Imported() int {
	return r.Students + r.Subjects + r.Marks
}

// Importer feeds workbook rows into the command handlers.
type Importer struct {
	students StudentAdder
	subjects SubjectAdder
	marks    MarkAdder
	log      *logger.Logger
}

// NewImporter creates an Importer.
func NewImporter(students StudentAdder, subjects SubjectAdder, marks MarkAdder, log *logger.Logger) *Importer {
	if log == nil {
		log = logger.Nop()
	}
	return &Importer{
		students: students,
		subjects: subjects,
		marks:    marks,
		log:      log.With(logger.Component("spreadsheet_import")),
	}
}

// ImportFile opens the workbook at path and imports it.
func (i *Importer) ImportFile(ctx context.Context, path string) (*Report, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			i.log.Warn("failed to close workbook", logger.Err(err))
		}
	}()
	return i.Import(ctx, f)
}

// ImportReader reads a workbook from r and imports it.
func (i *Importer) ImportReader(ctx context.Context, r io.Reader) (*Report, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			i.log.Warn("failed to close workbook", logger.Err(err))
		}
	}()
	return i.Import(ctx, f)
}

// Import processes Subjects, then Students, then Marks, so marks can refer
// to rows added earlier in the same workbook. A missing sheet is skipped.
func (i *Importer) Import(ctx context.Context, f *excelize.File) (*Report, error) {
	present := make(map[string]bool)
	for _, name := range f.GetSheetList() {
		present[name] = true
	}
	if !present[SheetStudents] && !present[SheetSubjects] && !present[SheetMarks] {
		return nil, errors.New("workbook has none of the Students, Subjects or Marks sheets")
	}

	report := &Report{}
	steps := []struct {
		sheet   string
		columns int
		apply   func(ctx context.Context, cells []string) error
		counter *int
	}{
		{SheetSubjects, 2, i.addSubject, &report.Subjects},
		{SheetStudents, 2, i.addStudent, &report.Students},
		{SheetMarks, 3, i.addMark, &report.Marks},
	}

	for _, step := range steps {
		if !present[step.sheet] {
			i.log.Debug("sheet not present, skipping", logger.String("sheet", step.sheet))
			continue
		}
		rows, err := f.GetRows(step.sheet)
		if err != nil {
			return report, fmt.Errorf("failed to read sheet %s: %w", step.sheet, err)
		}

		for idx, row := range rows {
			if idx == 0 || blank(row) {
				continue // header
			}
			if err := ctx.Err(); err != nil {
				return report, err
			}

			cells := pad(row, step.columns)
			if err := step.apply(ctx, cells); err != nil {
				rowErr := RowError{Sheet: step.sheet, Row: idx + 1, Err: err}
				report.Failures = append(report.Failures, rowErr)
				i.log.Warn("row rejected",
					logger.String("sheet", step.sheet),
					logger.Int("row", idx+1),
					logger.Err(err),
				)
				continue
			}
			*step.counter++
		}
	}

	i.log.Info("workbook imported",
		logger.Int("students", report.Students),
		logger.Int("subjects", report.Subjects),
		logger.Int("marks", report.Marks),
		logger.Int("failed", len(report.Failures)),
	)
	return report, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ROW MAPPING
// ══════════════════════════════════════════════════════════════════════════════

func (i *Importer) addSubject(ctx context.Context, cells []string) error {
	id, err := parseInt64("id", cells[0])
	if err != nil {
		return err
	}
	_, err = i.subjects.Handle(ctx, command.AddSubjectCommand{ID: id, SubjectName: strings.TrimSpace(cells[1])})
	return err
}

func (i *Importer) addStudent(ctx context.Context, cells []string) error {
	id, err := parseInt64("id", cells[0])
	if err != nil {
		return err
	}
	_, err = i.students.Handle(ctx, command.AddStudentCommand{ID: id, Name: strings.TrimSpace(cells[1])})
	return err
}

func (i *Importer) addMark(ctx context.Context, cells []string) error {
	studentID, err := parseInt64("studentId", cells[0])
	if err != nil {
		return err
	}
	subjectID, err := parseInt64("subjectId", cells[1])
	if err != nil {
		return err
	}
	mark, err := strconv.Atoi(strings.TrimSpace(cells[2]))
	if err != nil {
		return shared.WrapError("import", "Parse", shared.ErrInvalidInput, "mark must be an integer", err)
	}
	_, err = i.marks.Handle(ctx, command.AddMarkCommand{StudentID: studentID, SubjectID: subjectID, Mark: mark})
	return err
}

func parseInt64(column, raw string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, shared.WrapError("import", "Parse", shared.ErrInvalidInput,
			fmt.Sprintf("%s must be an integer", column), err)
	}
	return v, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// pad extends a short row; GetRows drops trailing empty cells.
func pad(row []string, n int) []string {
	if len(row) >= n {
		return row
	}
	out := make([]string, n)
	copy(out, row)
	return out
}
