package college

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Java42-DashaShamis/college-mongo/internal/domain/shared"
)

func TestNewStudent_StartsWithoutMarks(t *testing.T) {
	st := NewStudent(1, "  Vasya ")

	assert.Equal(t, "Vasya", st.Name)
	assert.NotNil(t, st.Marks)
	assert.Empty(t, st.Marks)

	_, ok := st.AverageMark()
	assert.False(t, ok)
}

func TestStudent_MarksForKeepsOrderAndDuplicates(t *testing.T) {
	st := NewStudent(1, "Vasya")
	st.AppendMark(SubjectMark{Subject: "Math", Mark: 80})
	st.AppendMark(SubjectMark{Subject: "Art", Mark: 50})
	st.AppendMark(SubjectMark{Subject: "Math", Mark: 90})

	assert.Equal(t, []int{80, 90}, st.MarksFor("Math"))
	assert.Empty(t, st.MarksFor("History"))

	avg, ok := st.AverageMark()
	assert.True(t, ok)
	assert.InDelta(t, 73.33, avg, 0.01)
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, NewStudent(0, "x").Validate(), shared.ErrInvalidID)
	assert.ErrorIs(t, NewStudent(1, " ").Validate(), shared.ErrEmptyValue)
	assert.NoError(t, NewStudent(1, "x").Validate())

	assert.ErrorIs(t, NewSubject(-1, "Math").Validate(), shared.ErrInvalidID)
	assert.ErrorIs(t, NewSubject(1, "").Validate(), shared.ErrEmptyValue)

	assert.ErrorIs(t, Mark{StudentID: 1, SubjectID: 1, Mark: -5}.Validate(), shared.ErrNegativeValue)
	assert.NoError(t, Mark{StudentID: 1, SubjectID: 1, Mark: 0}.Validate())

	assert.Error(t, ValidateLimit(0))
	assert.NoError(t, ValidateLimit(3))
}

func TestSortStudentsByID(t *testing.T) {
	refs := SortStudentsByID([]StudentRef{{ID: 3, Name: "c"}, {ID: 1, Name: "a"}, {ID: 2, Name: "b"}})
	assert.Equal(t, []int64{1, 2, 3}, []int64{refs[0].ID, refs[1].ID, refs[2].ID})

	subjects := SortSubjectsByID([]Subject{{ID: 9, SubjectName: "Art"}, {ID: 4, SubjectName: "Math"}})
	assert.Equal(t, "Math", subjects[0].SubjectName)
}
