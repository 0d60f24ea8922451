package command

import (
	"context"
	"fmt"

	"github.com/Java42-DashaShamis/college-mongo/internal/domain/college"
	"github.com/Java42-DashaShamis/college-mongo/internal/domain/shared"
	"github.com/Java42-DashaShamis/college-mongo/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADD SUBJECT COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// AddSubjectCommand содержит данные нового предмета.
type AddSubjectCommand struct {
	ID          int64  `json:"id"`
	SubjectName string `json:"subjectName"`
}

// Validate проверяет корректность команды.
func (c AddSubjectCommand) Validate() error {
	return college.NewSubject(c.ID, c.SubjectName).Validate()
}

// AddSubjectHandler обрабатывает AddSubjectCommand.
type AddSubjectHandler struct {
	subjects college.SubjectRepository
	log      *logger.Logger
}

// NewAddSubjectHandler создаёт обработчик.
func NewAddSubjectHandler(subjects college.SubjectRepository, log *logger.Logger) *AddSubjectHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AddSubjectHandler{
		subjects: subjects,
		log:      log.With(logger.Component("add_subject")),
	}
}

// Handle выполняет команду. Дубликат id отклоняется проверкой,
// дубликат имени - уникальным индексом хранилища.
func (h *AddSubjectHandler) Handle(ctx context.Context, cmd AddSubjectCommand) (*college.Subject, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("add_subject: validation failed: %w", err)
	}

	exists, err := h.subjects.Exists(ctx, cmd.ID)
	if err != nil {
		return nil, fmt.Errorf("add_subject: failed to check subject %d: %w", cmd.ID, err)
	}
	if exists {
		return nil, shared.SubjectAlreadyExists(cmd.ID)
	}

	subj := college.NewSubject(cmd.ID, cmd.SubjectName)
	if err := h.subjects.Insert(ctx, subj); err != nil {
		return nil, err
	}

	h.log.Info("subject added", logger.SubjectID(subj.ID), logger.SubjectName(subj.SubjectName))
	return subj, nil
}
