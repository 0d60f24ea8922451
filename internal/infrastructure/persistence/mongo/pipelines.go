package mongo

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ══════════════════════════════════════════════════════════════════════════════
// STAGES
// Small constructors for the stock stages; every report below is a fixed
// composition of them.
// ══════════════════════════════════════════════════════════════════════════════

func ref(field string) string { return "$" + field }

// unwindMarks emits one row per mark; students without marks are dropped.
func unwindMarks() bson.D {
	return bson.D{{Key: "$unwind", Value: ref(fieldMarks)}}
}

// unwindMarksKeepEmpty emits one row per mark and keeps students without marks
// as a single row with no mark, so their aggregates come out null.
func unwindMarksKeepEmpty() bson.D {
	return bson.D{{Key: "$unwind", Value: bson.D{
		{Key: "path", Value: ref(fieldMarks)},
		{Key: "preserveNullAndEmptyArrays", Value: true},
	}}}
}

func matchSubject(subjectName string) bson.D {
	return bson.D{{Key: "$match", Value: bson.D{{Key: fieldMarkSubject, Value: subjectName}}}}
}

func match(field, op string, value any) bson.D {
	return bson.D{{Key: "$match", Value: bson.D{{Key: field, Value: bson.D{{Key: op, Value: value}}}}}}
}

func matchEq(field string, value any) bson.D {
	return bson.D{{Key: "$match", Value: bson.D{{Key: field, Value: value}}}}
}

// matchLessOrNull keeps rows whose field is below value or null/absent.
func matchLessOrNull(field string, value any) bson.D {
	return bson.D{{Key: "$match", Value: bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: field, Value: bson.D{{Key: "$lt", Value: value}}}},
		bson.D{{Key: field, Value: nil}},
	}}}}}
}

func avg(field string) bson.D { return bson.D{{Key: "$avg", Value: ref(field)}} }
func minOf(field string) bson.D { return bson.D{{Key: "$min", Value: ref(field)}} }
func count() bson.D { return bson.D{{Key: "$sum", Value: 1}} }

func group(key any, as string, acc bson.D) bson.D {
	return bson.D{{Key: "$group", Value: bson.D{
		{Key: fieldID, Value: key},
		{Key: as, Value: acc},
	}}}
}

// byStudent groups by {id, name}.
func byStudent() bson.D {
	return bson.D{{Key: "id", Value: ref(fieldID)}, {Key: "name", Value: ref(fieldName)}}
}

// byStudentID groups by the student id only.
func byStudentID() string { return ref(fieldID) }

// bySubjectName groups by the subject name copied into the mark.
func bySubjectName() string { return ref(fieldMarkSubject) }

// sortDesc sorts by field descending, then by group key so truncation is deterministic.
func sortDesc(field string) bson.D {
	return bson.D{{Key: "$sort", Value: bson.D{
		{Key: field, Value: -1},
		{Key: fieldID, Value: 1},
	}}}
}

func limit(n int) bson.D {
	return bson.D{{Key: "$limit", Value: int64(n)}}
}

func exclude(fields ...string) bson.D {
	proj := bson.D{}
	for _, f := range fields {
		proj = append(proj, bson.E{Key: f, Value: 0})
	}
	return bson.D{{Key: "$project", Value: proj}}
}

// ══════════════════════════════════════════════════════════════════════════════
// REPORT PIPELINES
// ══════════════════════════════════════════════════════════════════════════════

func topBestStudentsPipeline(n int) mongo.Pipeline {
	return mongo.Pipeline{
		unwindMarks(),
		group(byStudent(), fieldAvgMark, avg(fieldMarkValue)),
		sortDesc(fieldAvgMark),
		limit(n),
		exclude(fieldAvgMark),
	}
}

// collegeAvgMarkPipeline yields a single row {avgMark} over every recorded mark.
func collegeAvgMarkPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		unwindMarks(),
		group(nil, fieldAvgMark, avg(fieldMarkValue)),
	}
}

// studentsAvgMarkGreaterPipeline keeps students whose average is strictly above threshold.
// findGoodStudents feeds it the college-wide average.
func studentsAvgMarkGreaterPipeline(threshold float64) mongo.Pipeline {
	return mongo.Pipeline{
		unwindMarks(),
		group(byStudent(), fieldAvgMark, avg(fieldMarkValue)),
		match(fieldAvgMark, "$gt", threshold),
		exclude(fieldAvgMark),
	}
}

func bestStudentsSubjectPipeline(n int, subjectName string) mongo.Pipeline {
	return mongo.Pipeline{
		unwindMarks(),
		matchSubject(subjectName),
		group(byStudent(), fieldAvgMark, avg(fieldMarkValue)),
		sortDesc(fieldAvgMark),
		limit(n),
		exclude(fieldAvgMark),
	}
}

func subjectGreatestAvgMarkPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		unwindMarks(),
		group(bySubjectName(), fieldAvgMark, avg(fieldMarkValue)),
		sortDesc(fieldAvgMark),
		limit(1),
		exclude(fieldAvgMark),
	}
}

func subjectsAvgMarkGreaterPipeline(avgMark int) mongo.Pipeline {
	return mongo.Pipeline{
		unwindMarks(),
		group(bySubjectName(), fieldAvgMark, avg(fieldMarkValue)),
		match(fieldAvgMark, "$gt", avgMark),
		exclude(fieldAvgMark),
	}
}

// studentsAvgMarkLessPipeline keeps zero-mark students: their average is null.
func studentsAvgMarkLessPipeline(avgMark int) mongo.Pipeline {
	return mongo.Pipeline{
		unwindMarksKeepEmpty(),
		group(byStudentID(), fieldAvgMark, avg(fieldMarkValue)),
		matchLessOrNull(fieldAvgMark, avgMark),
		exclude(fieldAvgMark),
	}
}

// studentsMarksCountLessPipeline uses the plain unwind, so zero-mark students
// never reach the count stage and cannot match.
func studentsMarksCountLessPipeline(n int) mongo.Pipeline {
	return mongo.Pipeline{
		unwindMarks(),
		group(byStudent(), fieldCountOfMarks, count()),
		matchLessOrNull(fieldCountOfMarks, n),
		exclude(fieldCountOfMarks),
	}
}

// studentsAllMarksSubjectPipeline checks "every mark >= threshold" via the minimum mark.
func studentsAllMarksSubjectPipeline(mark int, subjectName string) mongo.Pipeline {
	return mongo.Pipeline{
		unwindMarks(),
		matchSubject(subjectName),
		group(byStudent(), fieldMinMark, minOf(fieldMarkValue)),
		match(fieldMinMark, "$gte", mark),
		exclude(fieldMinMark),
	}
}

// maxMarksCountPipeline yields a single row {countOfMarks} with the largest per-student count.
func maxMarksCountPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		unwindMarks(),
		group(byStudentID(), fieldCountOfMarks, count()),
		sortDesc(fieldCountOfMarks),
		limit(1),
		exclude(fieldID),
	}
}

func studentsMarksCountEqualPipeline(n int64) mongo.Pipeline {
	return mongo.Pipeline{
		unwindMarks(),
		group(byStudent(), fieldCountOfMarks, count()),
		matchEq(fieldCountOfMarks, n),
		exclude(fieldCountOfMarks),
	}
}

// subjectsAvgMarkLessPipeline runs against the subjects collection and pulls the
// marks of each subject from students, so a subject nobody has a mark in gets a
// null average and matches.
func subjectsAvgMarkLessPipeline(avgMark int, studentsCollection string) mongo.Pipeline {
	lookup := bson.D{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: studentsCollection},
		{Key: "let", Value: bson.D{{Key: "subjectName", Value: ref(fieldSubjectName)}}},
		{Key: "pipeline", Value: bson.A{
			unwindMarks(),
			bson.D{{Key: "$match", Value: bson.D{{Key: "$expr", Value: bson.D{
				{Key: "$eq", Value: bson.A{ref(fieldMarkSubject), "$$subjectName"}},
			}}}}},
			bson.D{{Key: "$project", Value: bson.D{
				{Key: fieldID, Value: 0},
				{Key: "mark", Value: ref(fieldMarkValue)},
			}}},
		}},
		{Key: "as", Value: fieldMarks},
	}}}

	return mongo.Pipeline{
		lookup,
		unwindMarksKeepEmpty(),
		group(bson.D{
			{Key: "id", Value: ref(fieldID)},
			{Key: fieldSubjectName, Value: ref(fieldSubjectName)},
		}, fieldAvgMark, avg(fieldMarkValue)),
		matchLessOrNull(fieldAvgMark, avgMark),
		exclude(fieldAvgMark),
	}
}
