package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/Java42-DashaShamis/college-mongo/internal/domain/college"
	"github.com/Java42-DashaShamis/college-mongo/internal/domain/shared"
)

// ReportRepository implements college.ReportRepository by scanning the store.
type ReportRepository struct {
	s *Store
}

type markStats struct {
	sum   int
	count int
	min   int
}

func (m *markStats) add(v int) {
	if m.count == 0 || v < m.min {
		m.min = v
	}
	m.sum += v
	m.count++
}

func (m markStats) avg() float64 { return float64(m.sum) / float64(m.count) }

type rankedStudent struct {
	ref   college.StudentRef
	value float64
}

// topStudents keeps the n best by value, ties broken by id, and returns them by id.
func topStudents(rows []rankedStudent, n int) []college.StudentRef {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].value != rows[j].value {
			return rows[i].value > rows[j].value
		}
		return rows[i].ref.ID < rows[j].ref.ID
	})
	if len(rows) > n {
		rows = rows[:n]
	}
	refs := make([]college.StudentRef, 0, len(rows))
	for _, r := range rows {
		refs = append(refs, r.ref)
	}
	return college.SortStudentsByID(refs)
}

func ref(st *college.Student) college.StudentRef {
	return college.StudentRef{ID: st.ID, Name: st.Name}
}

// statsOf folds the marks of st that pass keep. Caller holds the lock.
func statsOf(st *college.Student, keep func(college.SubjectMark) bool) markStats {
	var ms markStats
	for _, m := range st.Marks {
		if keep == nil || keep(m) {
			ms.add(m.Mark)
		}
	}
	return ms
}

func inSubject(name string) func(college.SubjectMark) bool {
	return func(m college.SubjectMark) bool { return m.Subject == name }
}

// subjectStats folds every mark by subject name. Caller holds the lock.
func (s *Store) subjectStats() map[string]*markStats {
	out := make(map[string]*markStats)
	for _, st := range s.students {
		for _, m := range st.Marks {
			ms, ok := out[m.Subject]
			if !ok {
				ms = &markStats{}
				out[m.Subject] = ms
			}
			ms.add(m.Mark)
		}
	}
	return out
}

func noUniqueResult(op string) error {
	return shared.WrapError("report", op, shared.ErrNoUniqueResult, "required a unique result but found none", nil)
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT REPORTS
// ══════════════════════════════════════════════════════════════════════════════

func (r *ReportRepository) FindTopBestStudents(ctx context.Context, n int) ([]college.StudentRef, error) {
	if err := college.ValidateLimit(n); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var rows []rankedStudent
	for _, st := range r.s.students {
		if ms := statsOf(st, nil); ms.count > 0 {
			rows = append(rows, rankedStudent{ref: ref(st), value: ms.avg()})
		}
	}
	return topStudents(rows, n), nil
}

func (r *ReportRepository) FindGoodStudents(ctx context.Context) ([]college.StudentRef, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var total markStats
	for _, st := range r.s.students {
		for _, m := range st.Marks {
			total.add(m.Mark)
		}
	}
	if total.count == 0 {
		return nil, noUniqueResult("CollegeAvgMark")
	}
	collegeAvg := total.avg()

	refs := make([]college.StudentRef, 0)
	for _, st := range r.s.sortedStudents() {
		if ms := statsOf(st, nil); ms.count > 0 && ms.avg() > collegeAvg {
			refs = append(refs, ref(st))
		}
	}
	return refs, nil
}

func (r *ReportRepository) FindBestStudentsSubject(ctx context.Context, n int, subjectName string) ([]college.StudentRef, error) {
	if err := college.ValidateLimit(n); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var rows []rankedStudent
	for _, st := range r.s.students {
		if ms := statsOf(st, inSubject(subjectName)); ms.count > 0 {
			rows = append(rows, rankedStudent{ref: ref(st), value: ms.avg()})
		}
	}
	return topStudents(rows, n), nil
}

// FindStudentsAvgMarkLess includes students without marks.
func (r *ReportRepository) FindStudentsAvgMarkLess(ctx context.Context, avgMark int) ([]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := make([]int64, 0)
	for _, st := range r.s.sortedStudents() {
		ms := statsOf(st, nil)
		if ms.count == 0 || ms.avg() < float64(avgMark) {
			ids = append(ids, st.ID)
		}
	}
	return ids, nil
}

// FindStudentsMarksCountLess excludes students without marks.
func (r *ReportRepository) FindStudentsMarksCountLess(ctx context.Context, count int) ([]college.StudentRef, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	refs := make([]college.StudentRef, 0)
	for _, st := range r.s.sortedStudents() {
		if n := len(st.Marks); n > 0 && n < count {
			refs = append(refs, ref(st))
		}
	}
	return refs, nil
}

func (r *ReportRepository) FindStudentsAllMarksSubject(ctx context.Context, mark int, subjectName string) ([]college.StudentRef, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	refs := make([]college.StudentRef, 0)
	for _, st := range r.s.sortedStudents() {
		if ms := statsOf(st, inSubject(subjectName)); ms.count > 0 && ms.min >= mark {
			refs = append(refs, ref(st))
		}
	}
	return refs, nil
}

func (r *ReportRepository) FindStudentsMaxMarksCount(ctx context.Context) ([]college.StudentRef, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	maxCount := 0
	for _, st := range r.s.students {
		if len(st.Marks) > maxCount {
			maxCount = len(st.Marks)
		}
	}
	if maxCount == 0 {
		return nil, noUniqueResult("MaxMarksCount")
	}

	refs := make([]college.StudentRef, 0)
	for _, st := range r.s.sortedStudents() {
		if len(st.Marks) == maxCount {
			refs = append(refs, ref(st))
		}
	}
	return refs, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBJECT REPORTS
// ══════════════════════════════════════════════════════════════════════════════

func (r *ReportRepository) FindSubjectGreatestAvgMark(ctx context.Context) (*college.Subject, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	best := ""
	bestAvg := 0.0
	for name, ms := range r.s.subjectStats() {
		a := ms.avg()
		if best == "" || a > bestAvg || (a == bestAvg && name < best) {
			best, bestAvg = name, a
		}
	}
	if best == "" {
		return nil, noUniqueResult("FindSubjectGreatestAvgMark")
	}
	return r.resolve(best)
}

func (r *ReportRepository) FindSubjectsAvgMarkGreater(ctx context.Context, avgMark int) ([]college.Subject, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]college.Subject, 0)
	for name, ms := range r.s.subjectStats() {
		if ms.avg() <= float64(avgMark) {
			continue
		}
		subj, err := r.resolve(name)
		if err != nil {
			return nil, err
		}
		out = append(out, *subj)
	}
	return college.SortSubjectsByID(out), nil
}

// FindSubjectsAvgMarkLess includes subjects nobody has a mark in.
func (r *ReportRepository) FindSubjectsAvgMarkLess(ctx context.Context, avgMark int) ([]college.Subject, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stats := r.s.subjectStats()
	out := make([]college.Subject, 0)
	for _, subj := range r.s.subjects {
		ms, ok := stats[subj.SubjectName]
		if !ok || ms.avg() < float64(avgMark) {
			out = append(out, *subj)
		}
	}
	return college.SortSubjectsByID(out), nil
}

// resolve maps a mark's subject name to the stored subject. Caller holds the lock.
func (r *ReportRepository) resolve(name string) (*college.Subject, error) {
	subj := r.s.subjectByName(name)
	if subj == nil {
		return nil, shared.WrapError("subject", "FindByName", shared.ErrNotFound,
			fmt.Sprintf("subject %q does not exist", name), nil)
	}
	cp := *subj
	return &cp, nil
}

var _ college.ReportRepository = (*ReportRepository)(nil)
