package query

import (
	"context"
	"fmt"

	"github.com/Java42-DashaShamis/college-mongo/internal/domain/college"
	"github.com/Java42-DashaShamis/college-mongo/internal/domain/shared"
	"github.com/Java42-DashaShamis/college-mongo/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT AND SUBJECT QUERIES
// Точечные запросы по студентам и предметам.
// ══════════════════════════════════════════════════════════════════════════════

// StudentsSubjectMarkQuery - имена студентов, у которых есть оценка
// не ниже Mark по предмету SubjectName.
type StudentsSubjectMarkQuery struct {
	SubjectName string
	Mark        int
}

// StudentMarksSubjectQuery - все оценки студента Name по предмету SubjectName.
type StudentMarksSubjectQuery struct {
	Name        string
	SubjectName string
}

// Validate проверяет корректность параметров запроса.
func (q StudentMarksSubjectQuery) Validate() error {
	if q.Name == "" {
		return shared.ErrEmptyStudentName
	}
	if q.SubjectName == "" {
		return shared.ErrEmptySubjectName
	}
	return nil
}

// StudentsHandler обслуживает точечные запросы.
type StudentsHandler struct {
	students college.StudentRepository
	subjects college.SubjectRepository
	log      *logger.Logger
}

// NewStudentsHandler создаёт обработчик.
func NewStudentsHandler(students college.StudentRepository, subjects college.SubjectRepository, log *logger.Logger) *StudentsHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &StudentsHandler{
		students: students,
		subjects: subjects,
		log:      log.With(logger.Component("student_queries")),
	}
}

// StudentsSubjectMark возвращает имена студентов, упорядоченные по id.
func (h *StudentsHandler) StudentsSubjectMark(ctx context.Context, q StudentsSubjectMarkQuery) ([]string, error) {
	if q.SubjectName == "" {
		return nil, shared.ErrEmptySubjectName
	}
	names, err := h.students.FindNamesBySubjectMark(ctx, q.SubjectName, q.Mark)
	if err != nil {
		return nil, fmt.Errorf("students_subject_mark: %w", err)
	}
	h.log.Debug("students by subject mark",
		logger.SubjectName(q.SubjectName),
		logger.Int("mark", q.Mark),
		logger.Int("found", len(names)),
	)
	return names, nil
}

// StudentMarksSubject возвращает оценки студента по предмету в порядке добавления.
// У студента может быть несколько оценок по одному предмету.
func (h *StudentsHandler) StudentMarksSubject(ctx context.Context, q StudentMarksSubjectQuery) ([]int, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	st, err := h.students.GetByName(ctx, q.Name)
	if err != nil {
		return nil, err
	}
	marks := st.MarksFor(q.SubjectName)
	h.log.Debug("student marks by subject",
		logger.StudentID(st.ID),
		logger.SubjectName(q.SubjectName),
		logger.Any("marks", marks),
	)
	return marks, nil
}

// Student возвращает студента со всеми оценками.
func (h *StudentsHandler) Student(ctx context.Context, id int64) (*college.Student, error) {
	return h.students.GetByID(ctx, id)
}

// Subject возвращает предмет по id.
func (h *StudentsHandler) Subject(ctx context.Context, id int64) (*college.Subject, error) {
	return h.subjects.GetByID(ctx, id)
}
