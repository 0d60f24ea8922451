package mongo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/Java42-DashaShamis/college-mongo/internal/domain/college"
	"github.com/Java42-DashaShamis/college-mongo/internal/domain/shared"
)

func TestStudentDoc_EmptyMarksStoredAsArray(t *testing.T) {
	doc := newStudentDoc(college.NewStudent(5, "Petya"))

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	marks, err := bson.Raw(raw).LookupErr("marks")
	require.NoError(t, err)
	assert.Equal(t, bson.TypeArray, marks.Type)
}

func TestStudentDoc_ToDomain(t *testing.T) {
	doc := studentDoc{ID: 1, Name: "Vasya", Marks: []subjectMarkDoc{{Subject: "Math", Mark: 80}}}

	st := doc.toDomain()
	assert.Equal(t, int64(1), st.ID)
	assert.Equal(t, []college.SubjectMark{{Subject: "Math", Mark: 80}}, st.Marks)
}

func TestStudentRefs_DecodeAndSortByID(t *testing.T) {
	raws := []bson.M{
		{"_id": bson.M{"id": int64(3), "name": "Sasha"}},
		{"_id": bson.M{"id": int64(1), "name": "Vasya"}},
	}

	rows := make([]studentRow, 0, len(raws))
	for _, r := range raws {
		data, err := bson.Marshal(r)
		require.NoError(t, err)
		var row studentRow
		require.NoError(t, bson.Unmarshal(data, &row))
		rows = append(rows, row)
	}

	assert.Equal(t, []college.StudentRef{{ID: 1, Name: "Vasya"}, {ID: 3, Name: "Sasha"}}, studentRefs(rows))
}

func TestAvgMarkRow_NullAverage(t *testing.T) {
	data, err := bson.Marshal(bson.M{"_id": nil, "avgMark": nil})
	require.NoError(t, err)

	var row avgMarkRow
	require.NoError(t, bson.Unmarshal(data, &row))
	assert.Nil(t, row.AvgMark)
}

func TestMarksCountRow_DecodesInt32(t *testing.T) {
	data, err := bson.Marshal(bson.M{"countOfMarks": int32(4)})
	require.NoError(t, err)

	var row marksCountRow
	require.NoError(t, bson.Unmarshal(data, &row))
	assert.Equal(t, int64(4), row.Count)
}

type fakeCursor struct {
	rows []bson.M
	pos  int
	err  error
}

func (c *fakeCursor) Next(ctx context.Context) bool {
	if c.pos >= len(c.rows) {
		return false
	}
	c.pos++
	return true
}

func (c *fakeCursor) Decode(val any) error {
	data, err := bson.Marshal(c.rows[c.pos-1])
	if err != nil {
		return err
	}
	return bson.Unmarshal(data, val)
}

func (c *fakeCursor) Err() error { return c.err }

func TestDecodeUnique(t *testing.T) {
	ctx := context.Background()

	var row subjectNameRow
	err := decodeUnique(ctx, &fakeCursor{rows: []bson.M{{"_id": "Math"}}}, "op", &row)
	require.NoError(t, err)
	assert.Equal(t, "Math", row.Name)

	err = decodeUnique(ctx, &fakeCursor{}, "op", &row)
	assert.ErrorIs(t, err, shared.ErrNoUniqueResult)

	err = decodeUnique(ctx, &fakeCursor{rows: []bson.M{{"_id": "a"}, {"_id": "b"}}}, "op", &row)
	assert.ErrorIs(t, err, shared.ErrNonUniqueResult)

	boom := errors.New("cursor died")
	err = decodeUnique(ctx, &fakeCursor{err: boom}, "op", &row)
	assert.ErrorIs(t, err, boom)
}
