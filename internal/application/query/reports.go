// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"

	"github.com/Java42-DashaShamis/college-mongo/internal/domain/college"
	"github.com/Java42-DashaShamis/college-mongo/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPORT QUERIES
// Отчёты передаются в хранилище как есть; здесь только проверка параметров.
// ══════════════════════════════════════════════════════════════════════════════

// BestStudentsQuery - n студентов с наибольшей средней оценкой.
type BestStudentsQuery struct {
	N int
}

// BestStudentsSubjectQuery - n лучших студентов по предмету.
type BestStudentsSubjectQuery struct {
	N           int
	SubjectName string
}

// Validate проверяет корректность параметров запроса.
func (q BestStudentsSubjectQuery) Validate() error {
	if q.SubjectName == "" {
		return shared.ErrEmptySubjectName
	}
	return college.ValidateLimit(q.N)
}

// StudentsAllMarksSubjectQuery - студенты, все оценки которых по предмету не ниже Mark.
type StudentsAllMarksSubjectQuery struct {
	Mark        int
	SubjectName string
}

// Validate проверяет корректность параметров запроса.
func (q StudentsAllMarksSubjectQuery) Validate() error {
	if q.SubjectName == "" {
		return shared.ErrEmptySubjectName
	}
	return nil
}

// ReportsHandler обслуживает все отчёты колледжа.
type ReportsHandler struct {
	reports college.ReportRepository
}

// NewReportsHandler создаёт обработчик.
func NewReportsHandler(reports college.ReportRepository) *ReportsHandler {
	return &ReportsHandler{reports: reports}
}

// BestStudents возвращает лучших студентов колледжа.
func (h *ReportsHandler) BestStudents(ctx context.Context, q BestStudentsQuery) ([]college.StudentRef, error) {
	if err := college.ValidateLimit(q.N); err != nil {
		return nil, err
	}
	return h.reports.FindTopBestStudents(ctx, q.N)
}

// GoodCollegeStudents возвращает студентов со средней выше средней по колледжу.
func (h *ReportsHandler) GoodCollegeStudents(ctx context.Context) ([]college.StudentRef, error) {
	return h.reports.FindGoodStudents(ctx)
}

// BestStudentsSubject возвращает лучших студентов по предмету.
func (h *ReportsHandler) BestStudentsSubject(ctx context.Context, q BestStudentsSubjectQuery) ([]college.StudentRef, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return h.reports.FindBestStudentsSubject(ctx, q.N, q.SubjectName)
}

// SubjectGreatestAvgMark возвращает предмет с наибольшей средней оценкой.
func (h *ReportsHandler) SubjectGreatestAvgMark(ctx context.Context) (*college.Subject, error) {
	return h.reports.FindSubjectGreatestAvgMark(ctx)
}

// SubjectsAvgMarkGreater возвращает предметы со средней выше avgMark.
func (h *ReportsHandler) SubjectsAvgMarkGreater(ctx context.Context, avgMark int) ([]college.Subject, error) {
	return h.reports.FindSubjectsAvgMarkGreater(ctx, avgMark)
}

// StudentsAllMarksSubject возвращает студентов без оценок ниже порога по предмету.
func (h *ReportsHandler) StudentsAllMarksSubject(ctx context.Context, q StudentsAllMarksSubjectQuery) ([]college.StudentRef, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return h.reports.FindStudentsAllMarksSubject(ctx, q.Mark, q.SubjectName)
}

// StudentsMaxMarksCount возвращает студентов с наибольшим числом оценок.
func (h *ReportsHandler) StudentsMaxMarksCount(ctx context.Context) ([]college.StudentRef, error) {
	return h.reports.FindStudentsMaxMarksCount(ctx)
}

// SubjectsAvgMarkLess возвращает предметы со средней ниже avgMark,
// включая предметы без оценок.
func (h *ReportsHandler) SubjectsAvgMarkLess(ctx context.Context, avgMark int) ([]college.Subject, error) {
	return h.reports.FindSubjectsAvgMarkLess(ctx, avgMark)
}
