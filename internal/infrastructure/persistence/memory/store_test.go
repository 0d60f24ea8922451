package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Java42-DashaShamis/college-mongo/internal/domain/college"
	"github.com/Java42-DashaShamis/college-mongo/internal/domain/shared"
)

type fixture struct {
	store *Store
	ctx   context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{store: NewStore(), ctx: context.Background()}
}

func (f *fixture) student(t *testing.T, id int64, name string, marks ...college.SubjectMark) {
	t.Helper()
	require.NoError(t, f.store.Students().Insert(f.ctx, college.NewStudent(id, name)))
	for _, m := range marks {
		require.NoError(t, f.store.Students().AppendMark(f.ctx, id, m))
	}
}

func (f *fixture) subject(t *testing.T, id int64, name string) {
	t.Helper()
	require.NoError(t, f.store.Subjects().Insert(f.ctx, college.NewSubject(id, name)))
}

func mk(subject string, marks ...int) []college.SubjectMark {
	out := make([]college.SubjectMark, 0, len(marks))
	for _, m := range marks {
		out = append(out, college.SubjectMark{Subject: subject, Mark: m})
	}
	return out
}

func ids(refs []college.StudentRef) []int64 {
	out := make([]int64, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.ID)
	}
	return out
}

func TestStudentRepository_InsertDuplicate(t *testing.T) {
	f := newFixture(t)
	f.student(t, 1, "Vasya")

	err := f.store.Students().Insert(f.ctx, college.NewStudent(1, "Other"))
	assert.True(t, shared.IsAlreadyExists(err))

	st, err := f.store.Students().GetByID(f.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Vasya", st.Name)
}

func TestStudentRepository_GetByIDReturnsCopy(t *testing.T) {
	f := newFixture(t)
	f.student(t, 1, "Vasya", mk("Math", 80)...)

	st, err := f.store.Students().GetByID(f.ctx, 1)
	require.NoError(t, err)
	st.AppendMark(college.SubjectMark{Subject: "Math", Mark: 1})

	again, err := f.store.Students().GetByID(f.ctx, 1)
	require.NoError(t, err)
	assert.Len(t, again.Marks, 1)
}

func TestSubjectRepository_NameIsUnique(t *testing.T) {
	f := newFixture(t)
	f.subject(t, 1, "Math")

	err := f.store.Subjects().Insert(f.ctx, college.NewSubject(2, "Math"))
	assert.True(t, shared.IsAlreadyExists(err))

	_, err = f.store.Subjects().GetByName(f.ctx, "Art")
	assert.True(t, shared.IsNotFound(err))
}

func TestFindNamesBySubjectMark_SameMarkMustMatchBoth(t *testing.T) {
	f := newFixture(t)
	f.student(t, 1, "A", append(mk("Math", 50), mk("Art", 90)...)...)
	f.student(t, 2, "B", mk("Math", 95)...)

	names, err := f.store.Students().FindNamesBySubjectMark(f.ctx, "Math", 90)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, names)
}

func TestFindTopBestStudents(t *testing.T) {
	f := newFixture(t)
	f.student(t, 3, "C", mk("Math", 90)...)
	f.student(t, 1, "A", mk("Math", 60)...)
	f.student(t, 2, "B", mk("Math", 100)...)
	f.student(t, 4, "D")

	refs, err := f.store.Reports().FindTopBestStudents(f.ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, ids(refs))

	_, err = f.store.Reports().FindTopBestStudents(f.ctx, 0)
	assert.True(t, shared.IsValidation(err))
}

func TestFindGoodStudents(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.Reports().FindGoodStudents(f.ctx)
	assert.ErrorIs(t, err, shared.ErrNoUniqueResult)

	f.student(t, 1, "A", mk("Math", 90, 80)...)
	f.student(t, 2, "B", mk("Math", 70)...)
	f.student(t, 3, "C", mk("Math", 80)...)

	// college average 80: only A is strictly above it
	refs, err := f.store.Reports().FindGoodStudents(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(refs))
}

func TestFindBestStudentsSubject(t *testing.T) {
	f := newFixture(t)
	f.student(t, 1, "A", mk("Math", 80, 90)...)
	f.student(t, 2, "B", mk("Math", 70)...)

	refs, err := f.store.Reports().FindBestStudentsSubject(f.ctx, 1, "Math")
	require.NoError(t, err)
	assert.Equal(t, []college.StudentRef{{ID: 1, Name: "A"}}, refs)
}

func TestFindSubjectGreatestAvgMark(t *testing.T) {
	f := newFixture(t)
	f.subject(t, 1, "Math")
	f.subject(t, 2, "Art")

	_, err := f.store.Reports().FindSubjectGreatestAvgMark(f.ctx)
	assert.True(t, shared.IsNoUniqueResult(err))

	f.student(t, 1, "A", mk("Math", 80, 90, 100)...)
	f.student(t, 2, "B", mk("Art", 50, 60)...)

	subj, err := f.store.Reports().FindSubjectGreatestAvgMark(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, &college.Subject{ID: 1, SubjectName: "Math"}, subj)
}

func TestFindSubjectsAvgMarkGreaterAndLess(t *testing.T) {
	f := newFixture(t)
	f.subject(t, 1, "Math")
	f.subject(t, 2, "Art")
	f.subject(t, 3, "Music")
	f.student(t, 1, "A", append(mk("Math", 80, 90), mk("Art", 50)...)...)

	greater, err := f.store.Reports().FindSubjectsAvgMarkGreater(f.ctx, 60)
	require.NoError(t, err)
	assert.Equal(t, []college.Subject{{ID: 1, SubjectName: "Math"}}, greater)

	less, err := f.store.Reports().FindSubjectsAvgMarkLess(f.ctx, 60)
	require.NoError(t, err)
	assert.Equal(t, []college.Subject{{ID: 2, SubjectName: "Art"}, {ID: 3, SubjectName: "Music"}}, less)
}

func TestAvgLessAndCountLessAsymmetry(t *testing.T) {
	f := newFixture(t)
	f.student(t, 1, "NoMarks")
	f.student(t, 2, "Weak", mk("Math", 40)...)
	f.student(t, 3, "Strong", mk("Math", 95, 90)...)

	avgLess, err := f.store.Reports().FindStudentsAvgMarkLess(f.ctx, 60)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, avgLess)

	countLess, err := f.store.Reports().FindStudentsMarksCountLess(f.ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, ids(countLess))
}

func TestFindStudentsAllMarksSubject(t *testing.T) {
	f := newFixture(t)
	f.student(t, 1, "A", mk("Math", 70, 80, 90)...)

	refs, err := f.store.Reports().FindStudentsAllMarksSubject(f.ctx, 70, "Math")
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(refs))

	refs, err = f.store.Reports().FindStudentsAllMarksSubject(f.ctx, 71, "Math")
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestFindStudentsMaxMarksCount(t *testing.T) {
	f := newFixture(t)
	f.student(t, 1, "A")

	_, err := f.store.Reports().FindStudentsMaxMarksCount(f.ctx)
	assert.ErrorIs(t, err, shared.ErrNoUniqueResult)

	f.student(t, 2, "B", mk("Math", 1, 2)...)
	f.student(t, 3, "C", mk("Art", 3, 4)...)
	f.student(t, 4, "D", mk("Art", 5)...)

	refs, err := f.store.Reports().FindStudentsMaxMarksCount(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, ids(refs))
}
