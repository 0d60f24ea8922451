package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/Java42-DashaShamis/college-mongo/internal/domain/college"
	"github.com/Java42-DashaShamis/college-mongo/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELETE STUDENTS COMMANDS
// Отчёт выбирает студентов, затем каждый удаляется отдельно по id.
// Пакет удалений не атомарен: ошибка на одном id не откатывает остальные.
// ══════════════════════════════════════════════════════════════════════════════

// DeleteStudentsAvgMarkLessCommand удаляет студентов со средней ниже AvgMark,
// включая студентов без оценок.
type DeleteStudentsAvgMarkLessCommand struct {
	AvgMark int `json:"avgMark"`
}

// DeleteStudentsMarksCountLessCommand удаляет студентов, у которых есть
// оценки, но их меньше Count.
type DeleteStudentsMarksCountLessCommand struct {
	Count int `json:"count"`
}

// DeleteFailure описывает id, который не удалось удалить.
type DeleteFailure struct {
	StudentID int64  `json:"studentId"`
	Error     string `json:"error"`
}

// DeleteStudentsAvgMarkLessResult содержит id удалённых студентов.
type DeleteStudentsAvgMarkLessResult struct {
	DeletedIDs []int64         `json:"deletedIds"`
	Failed     []DeleteFailure `json:"failed,omitempty"`
}

// DeleteStudentsMarksCountLessResult содержит удалённых студентов
// в том виде, в каком их вернул отчёт до удаления.
type DeleteStudentsMarksCountLessResult struct {
	Students []college.StudentRef `json:"students"`
	Failed   []DeleteFailure      `json:"failed,omitempty"`
}

// DeleteStudentsHandler обрабатывает обе команды удаления.
type DeleteStudentsHandler struct {
	students college.StudentRepository
	reports  college.ReportRepository
	log      *logger.Logger
}

// NewDeleteStudentsHandler создаёт обработчик.
func NewDeleteStudentsHandler(students college.StudentRepository, reports college.ReportRepository, log *logger.Logger) *DeleteStudentsHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &DeleteStudentsHandler{
		students: students,
		reports:  reports,
		log:      log.With(logger.Component("delete_students")),
	}
}

// HandleAvgMarkLess выполняет DeleteStudentsAvgMarkLessCommand.
func (h *DeleteStudentsHandler) HandleAvgMarkLess(ctx context.Context, cmd DeleteStudentsAvgMarkLessCommand) (*DeleteStudentsAvgMarkLessResult, error) {
	ids, err := h.reports.FindStudentsAvgMarkLess(ctx, cmd.AvgMark)
	if err != nil {
		return nil, fmt.Errorf("delete_students_avg_mark_less: %w", err)
	}
	h.log.Debug("ids to delete", logger.Operation("avg_mark_less"), logger.Any("ids", ids))

	result := &DeleteStudentsAvgMarkLessResult{DeletedIDs: make([]int64, 0, len(ids))}
	var errs []error
	for _, id := range ids {
		if err := h.deleteOne(ctx, id); err != nil {
			result.Failed = append(result.Failed, DeleteFailure{StudentID: id, Error: err.Error()})
			errs = append(errs, err)
			continue
		}
		result.DeletedIDs = append(result.DeletedIDs, id)
	}

	h.log.Info("students deleted",
		logger.Operation("avg_mark_less"),
		logger.Int("deleted", len(result.DeletedIDs)),
		logger.Int("failed", len(result.Failed)),
	)
	return result, errors.Join(errs...)
}

// HandleMarksCountLess выполняет DeleteStudentsMarksCountLessCommand.
func (h *DeleteStudentsHandler) HandleMarksCountLess(ctx context.Context, cmd DeleteStudentsMarksCountLessCommand) (*DeleteStudentsMarksCountLessResult, error) {
	refs, err := h.reports.FindStudentsMarksCountLess(ctx, cmd.Count)
	if err != nil {
		return nil, fmt.Errorf("delete_students_marks_count_less: %w", err)
	}
	h.log.Debug("students to delete", logger.Operation("marks_count_less"), logger.Int("count", len(refs)))

	result := &DeleteStudentsMarksCountLessResult{Students: make([]college.StudentRef, 0, len(refs))}
	var errs []error
	for _, ref := range refs {
		if err := h.deleteOne(ctx, ref.ID); err != nil {
			result.Failed = append(result.Failed, DeleteFailure{StudentID: ref.ID, Error: err.Error()})
			errs = append(errs, err)
			continue
		}
		result.Students = append(result.Students, ref)
	}

	h.log.Info("students deleted",
		logger.Operation("marks_count_less"),
		logger.Int("deleted", len(result.Students)),
		logger.Int("failed", len(result.Failed)),
	)
	return result, errors.Join(errs...)
}

func (h *DeleteStudentsHandler) deleteOne(ctx context.Context, id int64) error {
	if err := h.students.Delete(ctx, id); err != nil {
		h.log.Warn("failed to delete student", logger.StudentID(id), logger.Err(err))
		return err
	}
	return nil
}
