package mongo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/Java42-DashaShamis/college-mongo/internal/domain/college"
	"github.com/Java42-DashaShamis/college-mongo/internal/domain/shared"
)

const testNS = "college.students"

// mockConn binds a Connection to the mock deployment behind mt.
func mockConn(mt *mtest.T) *Connection {
	return &Connection{
		client: mt.Client,
		db:     mt.DB,
		config: Config{StudentsCollection: mt.Coll.Name(), SubjectsCollection: "subjects"},
	}
}

type nameResolver map[string]*college.Subject

func (r nameResolver) ResolveByName(ctx context.Context, name string) (*college.Subject, error) {
	if s, ok := r[name]; ok {
		return s, nil
	}
	return nil, shared.ErrSubjectNotFound
}

func studentRowDoc(id int64, name string) bson.D {
	return bson.D{{Key: "_id", Value: bson.D{{Key: "id", Value: id}, {Key: "name", Value: name}}}}
}

func startedCommands(mt *mtest.T, name string) []*event.CommandStartedEvent {
	var out []*event.CommandStartedEvent
	for _, ev := range mt.GetAllStartedEvents() {
		if ev.CommandName == name {
			out = append(out, ev)
		}
	}
	return out
}

func TestReportRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("good students without any marks", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch))
		repo := NewReportRepository(mockConn(mt), nameResolver{}, nil)

		_, err := repo.FindGoodStudents(ctx)
		assert.ErrorIs(mt, err, shared.ErrNoUniqueResult)
	})

	mt.Run("max marks count without any marks", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch))
		repo := NewReportRepository(mockConn(mt), nameResolver{}, nil)

		_, err := repo.FindStudentsMaxMarksCount(ctx)
		assert.ErrorIs(mt, err, shared.ErrNoUniqueResult)
		assert.Len(mt, startedCommands(mt, "aggregate"), 1)
	})

	mt.Run("max marks count feeds the second pass", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch, bson.D{{Key: "countOfMarks", Value: int64(3)}}),
			mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch, studentRowDoc(2, "Petya"), studentRowDoc(1, "Vasya")),
		)
		repo := NewReportRepository(mockConn(mt), nameResolver{}, nil)

		refs, err := repo.FindStudentsMaxMarksCount(ctx)
		require.NoError(mt, err)
		assert.Equal(mt, []college.StudentRef{{ID: 1, Name: "Vasya"}, {ID: 2, Name: "Petya"}}, refs)

		aggs := startedCommands(mt, "aggregate")
		require.Len(mt, aggs, 2)
		stages, err := aggs[1].Command.Lookup("pipeline").Array().Values()
		require.NoError(mt, err)
		require.Len(mt, stages, 4)
		count, ok := stages[2].Document().Lookup("$match", "countOfMarks").AsInt64OK()
		require.True(mt, ok)
		assert.Equal(mt, int64(3), count)
	})

	mt.Run("subject greatest avg mark resolves the name", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch, bson.D{{Key: "_id", Value: "Math"}}))
		repo := NewReportRepository(mockConn(mt), nameResolver{"Math": {ID: 10, SubjectName: "Math"}}, nil)

		subj, err := repo.FindSubjectGreatestAvgMark(ctx)
		require.NoError(mt, err)
		assert.Equal(mt, &college.Subject{ID: 10, SubjectName: "Math"}, subj)
	})

	mt.Run("subject greatest avg mark with unknown name", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch, bson.D{{Key: "_id", Value: "Gone"}}))
		repo := NewReportRepository(mockConn(mt), nameResolver{}, nil)

		_, err := repo.FindSubjectGreatestAvgMark(ctx)
		assert.True(mt, shared.IsNotFound(err))
	})

	mt.Run("avg mark less returns ids ascending", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: int64(3)}},
			bson.D{{Key: "_id", Value: int64(1)}},
			bson.D{{Key: "_id", Value: int64(2)}},
		))
		repo := NewReportRepository(mockConn(mt), nameResolver{}, nil)

		ids, err := repo.FindStudentsAvgMarkLess(ctx, 70)
		require.NoError(mt, err)
		assert.Equal(mt, []int64{1, 2, 3}, ids)
	})

	mt.Run("aggregate command error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Name: "BadValue", Message: "bad stage"}))
		repo := NewReportRepository(mockConn(mt), nameResolver{}, nil)

		_, err := repo.FindTopBestStudents(ctx, 2)
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "FindTopBestStudents")
	})
}

func TestStudentRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("append mark to missing student", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))
		repo := NewStudentRepository(mockConn(mt))

		err := repo.AppendMark(ctx, 42, college.SubjectMark{Subject: "Math", Mark: 90})
		assert.True(mt, shared.IsNotFound(err))
		assert.Contains(mt, err.Error(), "student with id 42 does not exist")
	})

	mt.Run("append mark pushes onto marks", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		repo := NewStudentRepository(mockConn(mt))

		require.NoError(mt, repo.AppendMark(ctx, 1, college.SubjectMark{Subject: "Math", Mark: 90}))

		updates := startedCommands(mt, "update")
		require.Len(mt, updates, 1)
		push := updates[0].Command.Lookup("updates").Array().Index(0).Value().Document().Lookup("u", "$push", "marks")
		assert.Equal(mt, "Math", push.Document().Lookup("subject").StringValue())
	})

	mt.Run("insert duplicate id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "E11000 duplicate key error",
		}))
		repo := NewStudentRepository(mockConn(mt))

		err := repo.Insert(ctx, &college.Student{ID: 1, Name: "Vasya"})
		assert.True(mt, shared.IsAlreadyExists(err))
		assert.Contains(mt, err.Error(), "student with id 1 already exists")
	})

	mt.Run("get by id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: int64(1)},
			{Key: "name", Value: "Vasya"},
			{Key: "marks", Value: bson.A{bson.D{{Key: "subject", Value: "Math"}, {Key: "mark", Value: 90}}}},
		}))
		repo := NewStudentRepository(mockConn(mt))

		st, err := repo.GetByID(ctx, 1)
		require.NoError(mt, err)
		assert.Equal(mt, "Vasya", st.Name)
		assert.Equal(mt, []college.SubjectMark{{Subject: "Math", Mark: 90}}, st.Marks)
	})

	mt.Run("get by id not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch))
		repo := NewStudentRepository(mockConn(mt))

		_, err := repo.GetByID(ctx, 5)
		assert.True(mt, shared.IsNotFound(err))
	})

	mt.Run("names by subject mark match one element", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: int64(1)}, {Key: "name", Value: "Vasya"}},
		))
		repo := NewStudentRepository(mockConn(mt))

		names, err := repo.FindNamesBySubjectMark(ctx, "Math", 80)
		require.NoError(mt, err)
		assert.Equal(mt, []string{"Vasya"}, names)

		finds := startedCommands(mt, "find")
		require.Len(mt, finds, 1)
		elem := finds[0].Command.Lookup("filter", "marks", "$elemMatch")
		assert.Equal(mt, "Math", elem.Document().Lookup("subject").StringValue())
	})

	mt.Run("delete missing student", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		repo := NewStudentRepository(mockConn(mt))

		assert.True(mt, shared.IsNotFound(repo.Delete(ctx, 9)))
	})
}

func TestSubjectRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("insert duplicate name", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "E11000 duplicate key error index: subjectName_unique",
		}))
		repo := NewSubjectRepository(mockConn(mt))

		err := repo.Insert(ctx, &college.Subject{ID: 2, SubjectName: "Math"})
		assert.True(mt, shared.IsAlreadyExists(err))
	})

	mt.Run("get by name", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "college.subjects", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: int64(10)}, {Key: "subjectName", Value: "Math"}},
		))
		repo := NewSubjectRepository(mockConn(mt))

		subj, err := repo.GetByName(ctx, "Math")
		require.NoError(mt, err)
		assert.Equal(mt, int64(10), subj.ID)
	})

	mt.Run("get by name not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "college.subjects", mtest.FirstBatch))
		repo := NewSubjectRepository(mockConn(mt))

		_, err := repo.GetByName(ctx, "Art")
		assert.True(mt, shared.IsNotFound(err))
	})
}
