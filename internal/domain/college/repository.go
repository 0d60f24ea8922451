package college

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// StudentRepository определяет точечные операции над коллекцией студентов.
type StudentRepository interface {
	// Exists проверяет, есть ли студент с данным id.
	Exists(ctx context.Context, id int64) (bool, error)

	// GetByID возвращает студента по id.
	// Возвращает ошибку вида ErrNotFound, если студента нет.
	GetByID(ctx context.Context, id int64) (*Student, error)

	// GetByName возвращает первого студента с данным именем.
	GetByName(ctx context.Context, name string) (*Student, error)

	// Insert сохраняет нового студента.
	// Возвращает ошибку вида ErrAlreadyExists при конфликте id.
	Insert(ctx context.Context, student *Student) error

	// AppendMark атомарно добавляет оценку в конец списка оценок студента.
	// Возвращает ошибку вида ErrNotFound, если студента уже нет.
	AppendMark(ctx context.Context, studentID int64, mark SubjectMark) error

	// Delete удаляет студента по id.
	Delete(ctx context.Context, id int64) error

	// FindNamesBySubjectMark возвращает имена студентов, у которых есть
	// хотя бы одна оценка не ниже mark по предмету subjectName.
	FindNamesBySubjectMark(ctx context.Context, subjectName string, mark int) ([]string, error)
}

// SubjectRepository определяет операции над коллекцией предметов.
type SubjectRepository interface {
	// Exists проверяет, есть ли предмет с данным id.
	Exists(ctx context.Context, id int64) (bool, error)

	// GetByID возвращает предмет по id.
	GetByID(ctx context.Context, id int64) (*Subject, error)

	// GetByName возвращает предмет по уникальному имени.
	GetByName(ctx context.Context, name string) (*Subject, error)

	// Insert сохраняет новый предмет.
	Insert(ctx context.Context, subject *Subject) error
}

// ReportRepository определяет аналитические запросы (агрегации).
// Все списки студентов и предметов упорядочены по id по возрастанию.
type ReportRepository interface {
	// FindTopBestStudents - n студентов с наибольшей средней оценкой.
	FindTopBestStudents(ctx context.Context, n int) ([]StudentRef, error)

	// FindGoodStudents - студенты со средней оценкой строго выше средней по колледжу.
	FindGoodStudents(ctx context.Context) ([]StudentRef, error)

	// FindBestStudentsSubject - n лучших студентов по средней оценке в предмете.
	FindBestStudentsSubject(ctx context.Context, n int, subjectName string) ([]StudentRef, error)

	// FindSubjectGreatestAvgMark - предмет с наибольшей средней оценкой.
	// Возвращает ErrNoUniqueResult, если оценок нет вовсе.
	FindSubjectGreatestAvgMark(ctx context.Context) (*Subject, error)

	// FindSubjectsAvgMarkGreater - предметы со средней оценкой выше avgMark.
	FindSubjectsAvgMarkGreater(ctx context.Context, avgMark int) ([]Subject, error)

	// FindStudentsAvgMarkLess - id студентов со средней оценкой ниже avgMark,
	// включая студентов без оценок.
	FindStudentsAvgMarkLess(ctx context.Context, avgMark int) ([]int64, error)

	// FindStudentsMarksCountLess - студенты, у которых меньше count оценок.
	// Студенты без оценок сюда не попадают.
	FindStudentsMarksCountLess(ctx context.Context, count int) ([]StudentRef, error)

	// FindStudentsAllMarksSubject - студенты, все оценки которых по предмету не ниже mark.
	FindStudentsAllMarksSubject(ctx context.Context, mark int, subjectName string) ([]StudentRef, error)

	// FindStudentsMaxMarksCount - студенты с максимальным количеством оценок.
	FindStudentsMaxMarksCount(ctx context.Context) ([]StudentRef, error)

	// FindSubjectsAvgMarkLess - предметы со средней оценкой ниже avgMark,
	// включая предметы без оценок.
	FindSubjectsAvgMarkLess(ctx context.Context, avgMark int) ([]Subject, error)
}

// SubjectResolver восстанавливает предмет (с id) по имени из оценки.
// Единственная точка, где имя предмета превращается в id.
type SubjectResolver interface {
	ResolveByName(ctx context.Context, subjectName string) (*Subject, error)
}

// SubjectCache - кеш предметов по имени (опционален).
type SubjectCache interface {
	// Get возвращает предмет из кеша; при промахе (nil, nil).
	Get(ctx context.Context, subjectName string) (*Subject, error)

	// Set кладёт предмет в кеш.
	Set(ctx context.Context, subject *Subject, ttl time.Duration) error
}
