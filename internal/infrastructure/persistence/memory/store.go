// Package memory is an in-process implementation of the college repositories.
// It backs the "memory" storage mode used for local runs and for tests of the
// layers above persistence, and mirrors the report semantics of the Mongo
// pipelines row for row.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Java42-DashaShamis/college-mongo/internal/domain/college"
	"github.com/Java42-DashaShamis/college-mongo/internal/domain/shared"
)

// Store holds both collections behind one lock.
type Store struct {
	mu       sync.RWMutex
	students map[int64]*college.Student
	subjects map[int64]*college.Subject
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		students: make(map[int64]*college.Student),
		subjects: make(map[int64]*college.Subject),
	}
}

// Students returns the student repository view of the store.
func (s *Store) Students() *StudentRepository { return &StudentRepository{s: s} }

// Subjects returns the subject repository view of the store.
func (s *Store) Subjects() *SubjectRepository { return &SubjectRepository{s: s} }

// Reports returns the report repository view of the store.
func (s *Store) Reports() *ReportRepository { return &ReportRepository{s: s} }

func cloneStudent(st *college.Student) *college.Student {
	out := college.NewStudent(st.ID, st.Name)
	out.Marks = append(out.Marks, st.Marks...)
	return out
}

// sortedStudents returns the students ordered by id. Caller holds the lock.
func (s *Store) sortedStudents() []*college.Student {
	out := make([]*college.Student, 0, len(s.students))
	for _, st := range s.students {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENTS
// ══════════════════════════════════════════════════════════════════════════════

// StudentRepository implements college.StudentRepository.
type StudentRepository struct {
	s *Store
}

func (r *StudentRepository) Exists(ctx context.Context, id int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.students[id]
	return ok, nil
}

func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*college.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	st, ok := r.s.students[id]
	if !ok {
		return nil, shared.StudentNotFound(id)
	}
	return cloneStudent(st), nil
}

func (r *StudentRepository) GetByName(ctx context.Context, name string) (*college.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, st := range r.s.sortedStudents() {
		if st.Name == name {
			return cloneStudent(st), nil
		}
	}
	return nil, shared.WrapError("student", "FindByName", shared.ErrNotFound,
		fmt.Sprintf("student %q does not exist", name), nil)
}

func (r *StudentRepository) Insert(ctx context.Context, st *college.Student) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.students[st.ID]; ok {
		return shared.StudentAlreadyExists(st.ID)
	}
	r.s.students[st.ID] = cloneStudent(st)
	return nil
}

func (r *StudentRepository) AppendMark(ctx context.Context, studentID int64, mark college.SubjectMark) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.students[studentID]
	if !ok {
		return shared.StudentNotFound(studentID)
	}
	st.AppendMark(mark)
	return nil
}

func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.students[id]; !ok {
		return shared.StudentNotFound(id)
	}
	delete(r.s.students, id)
	return nil
}

func (r *StudentRepository) FindNamesBySubjectMark(ctx context.Context, subjectName string, mark int) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	names := make([]string, 0)
	for _, st := range r.s.sortedStudents() {
		for _, m := range st.Marks {
			if m.Subject == subjectName && m.Mark >= mark {
				names = append(names, st.Name)
				break
			}
		}
	}
	return names, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// SubjectRepository implements college.SubjectRepository.
type SubjectRepository struct {
	s *Store
}

func (r *SubjectRepository) Exists(ctx context.Context, id int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.subjects[id]
	return ok, nil
}

func (r *SubjectRepository) GetByID(ctx context.Context, id int64) (*college.Subject, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	subj, ok := r.s.subjects[id]
	if !ok {
		return nil, shared.SubjectNotFound(id)
	}
	cp := *subj
	return &cp, nil
}

func (r *SubjectRepository) GetByName(ctx context.Context, name string) (*college.Subject, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if subj := r.s.subjectByName(name); subj != nil {
		cp := *subj
		return &cp, nil
	}
	return nil, shared.WrapError("subject", "FindByName", shared.ErrNotFound,
		fmt.Sprintf("subject %q does not exist", name), nil)
}

func (r *SubjectRepository) Insert(ctx context.Context, subj *college.Subject) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.subjects[subj.ID]; ok || r.s.subjectByName(subj.SubjectName) != nil {
		return shared.WrapError("subject", "Create", shared.ErrAlreadyExists,
			fmt.Sprintf("subject with id %d or name %q already exists", subj.ID, subj.SubjectName), nil)
	}
	cp := *subj
	r.s.subjects[subj.ID] = &cp
	return nil
}

// subjectByName scans for the subject. Caller holds the lock.
func (s *Store) subjectByName(name string) *college.Subject {
	for _, subj := range s.subjects {
		if subj.SubjectName == name {
			return subj
		}
	}
	return nil
}

var (
	_ college.StudentRepository = (*StudentRepository)(nil)
	_ college.SubjectRepository = (*SubjectRepository)(nil)
)
