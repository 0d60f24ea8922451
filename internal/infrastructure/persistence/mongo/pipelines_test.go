package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func operators(p mongo.Pipeline) []string {
	ops := make([]string, 0, len(p))
	for _, stage := range p {
		ops = append(ops, stage[0].Key)
	}
	return ops
}

func stageValue(t *testing.T, stage bson.D) bson.D {
	t.Helper()
	v, ok := stage[0].Value.(bson.D)
	require.True(t, ok, "stage %s has no document value", stage[0].Key)
	return v
}

func lookup(d bson.D, key string) any {
	for _, e := range d {
		if e.Key == key {
			return e.Value
		}
	}
	return nil
}

func TestTopBestStudentsPipeline_Shape(t *testing.T) {
	p := topBestStudentsPipeline(3)

	assert.Equal(t, []string{"$unwind", "$group", "$sort", "$limit", "$project"}, operators(p))
	assert.Equal(t, "$marks", p[0][0].Value)

	g := stageValue(t, p[1])
	assert.Equal(t, bson.D{{Key: "id", Value: "$_id"}, {Key: "name", Value: "$name"}}, lookup(g, "_id"))
	assert.Equal(t, bson.D{{Key: "$avg", Value: "$marks.mark"}}, lookup(g, "avgMark"))

	s := stageValue(t, p[2])
	assert.Equal(t, bson.D{{Key: "avgMark", Value: -1}, {Key: "_id", Value: 1}}, s)

	assert.Equal(t, int64(3), p[3][0].Value)
	assert.Equal(t, bson.D{{Key: "avgMark", Value: 0}}, stageValue(t, p[4]))
}

func TestStudentsAvgMarkGreaterPipeline_UsesThresholdParameter(t *testing.T) {
	p := studentsAvgMarkGreaterPipeline(77.5)

	assert.Equal(t, []string{"$unwind", "$group", "$match", "$project"}, operators(p))
	m := stageValue(t, p[2])
	assert.Equal(t, bson.D{{Key: "avgMark", Value: bson.D{{Key: "$gt", Value: 77.5}}}}, m)
}

func TestCollegeAvgMarkPipeline_GroupsEverything(t *testing.T) {
	p := collegeAvgMarkPipeline()

	assert.Equal(t, []string{"$unwind", "$group"}, operators(p))
	assert.Nil(t, lookup(stageValue(t, p[1]), "_id"))
}

func TestBestStudentsSubjectPipeline_FiltersBeforeGrouping(t *testing.T) {
	p := bestStudentsSubjectPipeline(1, "Math")

	assert.Equal(t, []string{"$unwind", "$match", "$group", "$sort", "$limit", "$project"}, operators(p))
	assert.Equal(t, bson.D{{Key: "marks.subject", Value: "Math"}}, stageValue(t, p[1]))
}

func TestSubjectGreatestAvgMarkPipeline_GroupsBySubjectName(t *testing.T) {
	p := subjectGreatestAvgMarkPipeline()

	assert.Equal(t, []string{"$unwind", "$group", "$sort", "$limit", "$project"}, operators(p))
	assert.Equal(t, "$marks.subject", lookup(stageValue(t, p[1]), "_id"))
	assert.Equal(t, int64(1), p[3][0].Value)
}

func TestStudentsAvgMarkLessPipeline_KeepsStudentsWithoutMarks(t *testing.T) {
	p := studentsAvgMarkLessPipeline(60)

	unwind := stageValue(t, p[0])
	assert.Equal(t, "$marks", lookup(unwind, "path"))
	assert.Equal(t, true, lookup(unwind, "preserveNullAndEmptyArrays"))

	assert.Equal(t, "$_id", lookup(stageValue(t, p[1]), "_id"))

	or := lookup(stageValue(t, p[2]), "$or").(bson.A)
	require.Len(t, or, 2)
	assert.Equal(t, bson.D{{Key: "avgMark", Value: bson.D{{Key: "$lt", Value: 60}}}}, or[0])
	assert.Equal(t, bson.D{{Key: "avgMark", Value: nil}}, or[1])
}

func TestStudentsMarksCountLessPipeline_DropsStudentsWithoutMarks(t *testing.T) {
	p := studentsMarksCountLessPipeline(5)

	// plain unwind: a student with an empty marks array never reaches $group
	assert.Equal(t, "$marks", p[0][0].Value)
	assert.Equal(t, bson.D{{Key: "$sum", Value: 1}}, lookup(stageValue(t, p[1]), "countOfMarks"))

	or := lookup(stageValue(t, p[2]), "$or").(bson.A)
	assert.Equal(t, bson.D{{Key: "countOfMarks", Value: bson.D{{Key: "$lt", Value: 5}}}}, or[0])
}

func TestStudentsAllMarksSubjectPipeline_UsesMinimum(t *testing.T) {
	p := studentsAllMarksSubjectPipeline(70, "Math")

	assert.Equal(t, []string{"$unwind", "$match", "$group", "$match", "$project"}, operators(p))
	assert.Equal(t, bson.D{{Key: "$min", Value: "$marks.mark"}}, lookup(stageValue(t, p[2]), "minMark"))
	assert.Equal(t, bson.D{{Key: "minMark", Value: bson.D{{Key: "$gte", Value: 70}}}}, stageValue(t, p[3]))
	assert.Equal(t, bson.D{{Key: "minMark", Value: 0}}, stageValue(t, p[4]))
}

func TestMaxMarksCountPipelines(t *testing.T) {
	first := maxMarksCountPipeline()
	assert.Equal(t, []string{"$unwind", "$group", "$sort", "$limit", "$project"}, operators(first))
	assert.Equal(t, bson.D{{Key: "_id", Value: 0}}, stageValue(t, first[4]))

	second := studentsMarksCountEqualPipeline(4)
	assert.Equal(t, []string{"$unwind", "$group", "$match", "$project"}, operators(second))
	assert.Equal(t, bson.D{{Key: "countOfMarks", Value: int64(4)}}, stageValue(t, second[2]))
}

func TestSubjectsAvgMarkGreaterPipeline(t *testing.T) {
	p := subjectsAvgMarkGreaterPipeline(80)

	assert.Equal(t, []string{"$unwind", "$group", "$match", "$project"}, operators(p))
	assert.Equal(t, bson.D{{Key: "avgMark", Value: bson.D{{Key: "$gt", Value: 80}}}}, stageValue(t, p[2]))
}

func TestSubjectsAvgMarkLessPipeline_StartsFromSubjects(t *testing.T) {
	p := subjectsAvgMarkLessPipeline(50, "students")

	assert.Equal(t, []string{"$lookup", "$unwind", "$group", "$match", "$project"}, operators(p))

	l := stageValue(t, p[0])
	assert.Equal(t, "students", lookup(l, "from"))
	assert.Equal(t, "marks", lookup(l, "as"))
	assert.Len(t, lookup(l, "pipeline").(bson.A), 3)

	assert.Equal(t, true, lookup(stageValue(t, p[1]), "preserveNullAndEmptyArrays"))
	assert.Equal(t, bson.D{
		{Key: "id", Value: "$_id"},
		{Key: "subjectName", Value: "$subjectName"},
	}, lookup(stageValue(t, p[2]), "_id"))
}

func TestPipelines_MarshalToBSON(t *testing.T) {
	pipelines := []mongo.Pipeline{
		topBestStudentsPipeline(2),
		collegeAvgMarkPipeline(),
		studentsAvgMarkLessPipeline(10),
		subjectsAvgMarkLessPipeline(10, "students"),
	}
	for _, p := range pipelines {
		for _, stage := range p {
			_, err := bson.Marshal(stage)
			assert.NoError(t, err)
		}
	}
}
