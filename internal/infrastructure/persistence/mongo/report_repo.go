package mongo

import (
	"context"
	"fmt"
	"slices"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Java42-DashaShamis/college-mongo/internal/domain/college"
	"github.com/Java42-DashaShamis/college-mongo/internal/domain/shared"
	"github.com/Java42-DashaShamis/college-mongo/pkg/logger"
)

// ReportRepository implements college.ReportRepository with aggregation pipelines.
// Marks are embedded in students, so every report starts by unwinding them.
type ReportRepository struct {
	students           *mongo.Collection
	subjects           *mongo.Collection
	studentsCollection string
	resolver           college.SubjectResolver
	log                *logger.Logger
}

// NewReportRepository creates a new ReportRepository.
// resolver turns subject names found in marks back into subjects with ids.
func NewReportRepository(conn *Connection, resolver college.SubjectResolver, log *logger.Logger) *ReportRepository {
	if log == nil {
		log = logger.Nop()
	}
	return &ReportRepository{
		students:           conn.Students(),
		subjects:           conn.Subjects(),
		studentsCollection: conn.config.StudentsCollection,
		resolver:           resolver,
		log:                log.With(logger.Component("report_repository")),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT REPORTS
// ══════════════════════════════════════════════════════════════════════════════

// FindTopBestStudents returns up to n students with the highest average mark.
func (r *ReportRepository) FindTopBestStudents(ctx context.Context, n int) ([]college.StudentRef, error) {
	if err := college.ValidateLimit(n); err != nil {
		return nil, err
	}
	return r.studentReport(ctx, "FindTopBestStudents", topBestStudentsPipeline(n))
}

// FindGoodStudents returns students whose average is strictly above the college average.
// The college average is a second round-trip; with no marks at all it fails
// with a no-unique-result error.
func (r *ReportRepository) FindGoodStudents(ctx context.Context) ([]college.StudentRef, error) {
	collegeAvg, err := r.collegeAvgMark(ctx)
	if err != nil {
		return nil, err
	}
	return r.studentReport(ctx, "FindGoodStudents", studentsAvgMarkGreaterPipeline(collegeAvg))
}

func (r *ReportRepository) collegeAvgMark(ctx context.Context) (float64, error) {
	var row avgMarkRow
	if err := r.aggregateUnique(ctx, r.students, "CollegeAvgMark", collegeAvgMarkPipeline(), &row); err != nil {
		return 0, err
	}
	if row.AvgMark == nil {
		return 0, shared.ErrNoMarksRecorded
	}
	return *row.AvgMark, nil
}

// FindBestStudentsSubject returns up to n students with the highest average in subjectName.
func (r *ReportRepository) FindBestStudentsSubject(ctx context.Context, n int, subjectName string) ([]college.StudentRef, error) {
	if err := college.ValidateLimit(n); err != nil {
		return nil, err
	}
	return r.studentReport(ctx, "FindBestStudentsSubject", bestStudentsSubjectPipeline(n, subjectName))
}

// FindStudentsAvgMarkLess returns raw ids of students averaging below avgMark.
// Students without marks have a null average and are included. Ids come back
// ascending; $group does not keep any order.
func (r *ReportRepository) FindStudentsAvgMarkLess(ctx context.Context, avgMark int) ([]int64, error) {
	var rows []studentIDRow
	if err := r.aggregate(ctx, r.students, "FindStudentsAvgMarkLess", studentsAvgMarkLessPipeline(avgMark), &rows); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	slices.Sort(ids)
	return ids, nil
}

// FindStudentsMarksCountLess returns students with fewer than n marks.
// Students without any marks are not part of the result.
func (r *ReportRepository) FindStudentsMarksCountLess(ctx context.Context, n int) ([]college.StudentRef, error) {
	return r.studentReport(ctx, "FindStudentsMarksCountLess", studentsMarksCountLessPipeline(n))
}

// FindStudentsAllMarksSubject returns students whose every mark in subjectName is >= mark.
func (r *ReportRepository) FindStudentsAllMarksSubject(ctx context.Context, mark int, subjectName string) ([]college.StudentRef, error) {
	return r.studentReport(ctx, "FindStudentsAllMarksSubject", studentsAllMarksSubjectPipeline(mark, subjectName))
}

// FindStudentsMaxMarksCount returns every student sharing the largest number of marks.
func (r *ReportRepository) FindStudentsMaxMarksCount(ctx context.Context) ([]college.StudentRef, error) {
	var row marksCountRow
	if err := r.aggregateUnique(ctx, r.students, "MaxMarksCount", maxMarksCountPipeline(), &row); err != nil {
		return nil, err
	}
	return r.studentReport(ctx, "FindStudentsMaxMarksCount", studentsMarksCountEqualPipeline(row.Count))
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBJECT REPORTS
// ══════════════════════════════════════════════════════════════════════════════

// FindSubjectGreatestAvgMark returns the subject with the highest average mark.
func (r *ReportRepository) FindSubjectGreatestAvgMark(ctx context.Context) (*college.Subject, error) {
	var row subjectNameRow
	if err := r.aggregateUnique(ctx, r.students, "FindSubjectGreatestAvgMark", subjectGreatestAvgMarkPipeline(), &row); err != nil {
		return nil, err
	}
	return r.resolver.ResolveByName(ctx, row.Name)
}

// FindSubjectsAvgMarkGreater returns subjects whose average mark is above avgMark.
func (r *ReportRepository) FindSubjectsAvgMarkGreater(ctx context.Context, avgMark int) ([]college.Subject, error) {
	var rows []subjectNameRow
	if err := r.aggregate(ctx, r.students, "FindSubjectsAvgMarkGreater", subjectsAvgMarkGreaterPipeline(avgMark), &rows); err != nil {
		return nil, err
	}

	out := make([]college.Subject, 0, len(rows))
	for _, row := range rows {
		subj, err := r.resolver.ResolveByName(ctx, row.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, *subj)
	}
	return college.SortSubjectsByID(out), nil
}

// FindSubjectsAvgMarkLess returns subjects averaging below avgMark, including
// subjects without a single recorded mark.
func (r *ReportRepository) FindSubjectsAvgMarkLess(ctx context.Context, avgMark int) ([]college.Subject, error) {
	var rows []subjectRow
	pipeline := subjectsAvgMarkLessPipeline(avgMark, r.studentsCollection)
	if err := r.aggregate(ctx, r.subjects, "FindSubjectsAvgMarkLess", pipeline, &rows); err != nil {
		return nil, err
	}
	return subjectList(rows), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// AGGREGATION HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func (r *ReportRepository) studentReport(ctx context.Context, op string, pipeline mongo.Pipeline) ([]college.StudentRef, error) {
	var rows []studentRow
	if err := r.aggregate(ctx, r.students, op, pipeline, &rows); err != nil {
		return nil, err
	}
	return studentRefs(rows), nil
}

// aggregate runs the pipeline and decodes every row into dest (a pointer to a slice).
func (r *ReportRepository) aggregate(ctx context.Context, coll *mongo.Collection, op string, pipeline mongo.Pipeline, dest any) error {
	r.log.Debug("aggregate", logger.Operation(op), logger.Int("stages", len(pipeline)))

	cur, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("mongo: %s: aggregate: %w", op, err)
	}
	if err := cur.All(ctx, dest); err != nil {
		return fmt.Errorf("mongo: %s: decode: %w", op, err)
	}
	return nil
}

// aggregateUnique runs a pipeline that must produce exactly one row.
// Zero rows is reported as ErrNoUniqueResult and never defaulted.
func (r *ReportRepository) aggregateUnique(ctx context.Context, coll *mongo.Collection, op string, pipeline mongo.Pipeline, dest any) error {
	r.log.Debug("aggregate unique", logger.Operation(op), logger.Int("stages", len(pipeline)))

	cur, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("mongo: %s: aggregate: %w", op, err)
	}
	defer cur.Close(ctx)

	return decodeUnique(ctx, cur, op, dest)
}

// rowCursor is the part of *mongo.Cursor decodeUnique needs.
type rowCursor interface {
	Next(ctx context.Context) bool
	Decode(val any) error
	Err() error
}

func decodeUnique(ctx context.Context, cur rowCursor, op string, dest any) error {
	if !cur.Next(ctx) {
		if err := cur.Err(); err != nil {
			return fmt.Errorf("mongo: %s: %w", op, err)
		}
		return shared.WrapError("report", op, shared.ErrNoUniqueResult, "required a unique result but found none", nil)
	}
	if err := cur.Decode(dest); err != nil {
		return fmt.Errorf("mongo: %s: decode: %w", op, err)
	}
	if cur.Next(ctx) {
		return shared.WrapError("report", op, shared.ErrNonUniqueResult, "required a unique result but found several", nil)
	}
	return cur.Err()
}

var _ college.ReportRepository = (*ReportRepository)(nil)
