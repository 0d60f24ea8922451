// Package command contains write operations (CQRS - Commands).
// Commands change the stored college records; every command checks the
// existence invariants it depends on before it touches the store.
package command

import (
	"context"
	"fmt"

	"github.com/Java42-DashaShamis/college-mongo/internal/domain/college"
	"github.com/Java42-DashaShamis/college-mongo/internal/domain/shared"
	"github.com/Java42-DashaShamis/college-mongo/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADD STUDENT COMMAND
// Регистрирует нового студента с пустым списком оценок.
// ══════════════════════════════════════════════════════════════════════════════

// AddStudentCommand содержит данные нового студента.
type AddStudentCommand struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Validate проверяет корректность команды.
func (c AddStudentCommand) Validate() error {
	return college.NewStudent(c.ID, c.Name).Validate()
}

// AddStudentHandler обрабатывает AddStudentCommand.
type AddStudentHandler struct {
	students college.StudentRepository
	log      *logger.Logger
}

// NewAddStudentHandler создаёт обработчик.
func NewAddStudentHandler(students college.StudentRepository, log *logger.Logger) *AddStudentHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AddStudentHandler{
		students: students,
		log:      log.With(logger.Component("add_student")),
	}
}

// Handle выполняет команду. Повторный id отклоняется без изменения состояния.
func (h *AddStudentHandler) Handle(ctx context.Context, cmd AddStudentCommand) (*college.Student, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("add_student: validation failed: %w", err)
	}

	exists, err := h.students.Exists(ctx, cmd.ID)
	if err != nil {
		return nil, fmt.Errorf("add_student: failed to check student %d: %w", cmd.ID, err)
	}
	if exists {
		return nil, shared.StudentAlreadyExists(cmd.ID)
	}

	st := college.NewStudent(cmd.ID, cmd.Name)
	// Insert сам отклоняет дубликат, если студента добавили между проверкой и записью.
	if err := h.students.Insert(ctx, st); err != nil {
		return nil, err
	}

	h.log.Info("student added", logger.StudentID(st.ID))
	return st, nil
}
