package college

import (
	"sort"
	"strings"

	"github.com/Java42-DashaShamis/college-mongo/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// SubjectMark - оценка студента, встроенная в его документ.
// Subject хранит имя предмета, а не его id.
type SubjectMark struct {
	Subject string `json:"subject"`
	Mark    int    `json:"mark"`
}

// Student - студент со списком оценок.
// Список оценок только растёт: оценки добавляются в конец и не редактируются.
type Student struct {
	ID    int64         `json:"id"`
	Name  string        `json:"name"`
	Marks []SubjectMark `json:"marks"`
}

// NewStudent создаёт студента с пустым списком оценок.
func NewStudent(id int64, name string) *Student {
	return &Student{
		ID:    id,
		Name:  strings.TrimSpace(name),
		Marks: []SubjectMark{},
	}
}

// Validate проверяет инварианты студента.
func (s *Student) Validate() error {
	if s.ID <= 0 {
		return shared.ErrInvalidStudentID
	}
	if strings.TrimSpace(s.Name) == "" {
		return shared.ErrEmptyStudentName
	}
	return nil
}

// AppendMark добавляет оценку в конец списка.
func (s *Student) AppendMark(m SubjectMark) {
	s.Marks = append(s.Marks, m)
}

// MarksFor возвращает все оценки студента по предмету в порядке добавления.
func (s *Student) MarksFor(subjectName string) []int {
	marks := make([]int, 0)
	for _, m := range s.Marks {
		if m.Subject == subjectName {
			marks = append(marks, m.Mark)
		}
	}
	return marks
}

// AverageMark возвращает среднюю оценку. Второй результат false,
// если у студента нет ни одной оценки (среднее не определено).
func (s *Student) AverageMark() (float64, bool) {
	if len(s.Marks) == 0 {
		return 0, false
	}
	total := 0
	for _, m := range s.Marks {
		total += m.Mark
	}
	return float64(total) / float64(len(s.Marks)), true
}

// Subject - предмет. Имя предмета уникально в коллекции.
type Subject struct {
	ID          int64  `json:"id"`
	SubjectName string `json:"subjectName"`
}

// NewSubject создаёт предмет.
func NewSubject(id int64, name string) *Subject {
	return &Subject{
		ID:          id,
		SubjectName: strings.TrimSpace(name),
	}
}

// Validate проверяет инварианты предмета.
func (s *Subject) Validate() error {
	if s.ID <= 0 {
		return shared.ErrInvalidSubjectID
	}
	if strings.TrimSpace(s.SubjectName) == "" {
		return shared.ErrEmptySubjectName
	}
	return nil
}

// Mark - запрос на добавление оценки: студент и предмет указаны по id.
type Mark struct {
	StudentID int64 `json:"stid"`
	SubjectID int64 `json:"suid"`
	Mark      int   `json:"mark"`
}

// Validate проверяет корректность запроса.
func (m Mark) Validate() error {
	if m.StudentID <= 0 {
		return shared.ErrInvalidStudentID
	}
	if m.SubjectID <= 0 {
		return shared.ErrInvalidSubjectID
	}
	if m.Mark < 0 {
		return shared.ErrNegativeMark
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REPORT ROWS
// ══════════════════════════════════════════════════════════════════════════════

// StudentRef - строка отчёта о студенте: только id и имя.
type StudentRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SortStudentsByID упорядочивает строки отчёта по id по возрастанию.
func SortStudentsByID(refs []StudentRef) []StudentRef {
	sort.SliceStable(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs
}

// SortSubjectsByID упорядочивает предметы по id по возрастанию.
func SortSubjectsByID(subjects []Subject) []Subject {
	sort.SliceStable(subjects, func(i, j int) bool { return subjects[i].ID < subjects[j].ID })
	return subjects
}

// ValidateLimit проверяет размер топа для отчётов вида "лучшие N".
func ValidateLimit(n int) error {
	if n <= 0 {
		return shared.ErrInvalidLimit
	}
	return nil
}
