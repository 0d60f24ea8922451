package command

import (
	"context"
	"fmt"

	"github.com/Java42-DashaShamis/college-mongo/internal/domain/college"
	"github.com/Java42-DashaShamis/college-mongo/internal/domain/shared"
	"github.com/Java42-DashaShamis/college-mongo/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADD MARK COMMAND
// Добавляет оценку студенту. В оценку копируется текущее имя предмета.
// ══════════════════════════════════════════════════════════════════════════════

// AddMarkCommand ссылается на студента и предмет по id.
type AddMarkCommand = college.Mark

// AddMarkHandler обрабатывает AddMarkCommand.
type AddMarkHandler struct {
	students college.StudentRepository
	subjects college.SubjectRepository
	log      *logger.Logger
}

// NewAddMarkHandler создаёт обработчик.
func NewAddMarkHandler(students college.StudentRepository, subjects college.SubjectRepository, log *logger.Logger) *AddMarkHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AddMarkHandler{
		students: students,
		subjects: subjects,
		log:      log.With(logger.Component("add_mark")),
	}
}

// Handle выполняет команду. При неизвестном студенте или предмете
// список оценок не меняется.
func (h *AddMarkHandler) Handle(ctx context.Context, cmd AddMarkCommand) (*college.Mark, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("add_mark: validation failed: %w", err)
	}

	exists, err := h.students.Exists(ctx, cmd.StudentID)
	if err != nil {
		return nil, fmt.Errorf("add_mark: failed to check student %d: %w", cmd.StudentID, err)
	}
	if !exists {
		return nil, shared.StudentNotFound(cmd.StudentID)
	}

	subj, err := h.subjects.GetByID(ctx, cmd.SubjectID)
	if err != nil {
		return nil, err
	}

	// Атомарное добавление в конец: параллельные оценки одному студенту не теряются.
	mark := college.SubjectMark{Subject: subj.SubjectName, Mark: cmd.Mark}
	if err := h.students.AppendMark(ctx, cmd.StudentID, mark); err != nil {
		return nil, err
	}

	h.log.Info("mark added",
		logger.StudentID(cmd.StudentID),
		logger.SubjectID(cmd.SubjectID),
		logger.Int("mark", cmd.Mark),
	)
	return &cmd, nil
}
