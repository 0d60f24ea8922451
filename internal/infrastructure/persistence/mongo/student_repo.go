package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Java42-DashaShamis/college-mongo/internal/domain/college"
	"github.com/Java42-DashaShamis/college-mongo/internal/domain/shared"
)

// StudentRepository implements college.StudentRepository on the students collection.
type StudentRepository struct {
	coll *mongo.Collection
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(conn *Connection) *StudentRepository {
	return &StudentRepository{coll: conn.Students()}
}

// Exists reports whether a student with the given id is stored.
func (r *StudentRepository) Exists(ctx context.Context, id int64) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.D{{Key: fieldID, Value: id}}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("mongo: count student %d: %w", id, err)
	}
	return n > 0, nil
}

// GetByID loads a student with all marks.
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*college.Student, error) {
	var doc studentDoc
	err := r.coll.FindOne(ctx, bson.D{{Key: fieldID, Value: id}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, shared.StudentNotFound(id)
		}
		return nil, fmt.Errorf("mongo: find student %d: %w", id, err)
	}
	return doc.toDomain(), nil
}

// GetByName loads the first student with the given name.
func (r *StudentRepository) GetByName(ctx context.Context, name string) (*college.Student, error) {
	var doc studentDoc
	err := r.coll.FindOne(ctx, bson.D{{Key: fieldName, Value: name}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, shared.WrapError("student", "FindByName", shared.ErrNotFound,
				fmt.Sprintf("student %q does not exist", name), nil)
		}
		return nil, fmt.Errorf("mongo: find student %q: %w", name, err)
	}
	return doc.toDomain(), nil
}

// Insert stores a new student. A duplicate _id surfaces as an already-exists error.
func (r *StudentRepository) Insert(ctx context.Context, s *college.Student) error {
	_, err := r.coll.InsertOne(ctx, newStudentDoc(s))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return shared.StudentAlreadyExists(s.ID)
		}
		return fmt.Errorf("mongo: insert student %d: %w", s.ID, err)
	}
	return nil
}

// AppendMark pushes a mark onto the student's list in one update,
// so concurrent appends to the same student are never lost.
func (r *StudentRepository) AppendMark(ctx context.Context, studentID int64, mark college.SubjectMark) error {
	update := bson.D{{Key: "$push", Value: bson.D{
		{Key: fieldMarks, Value: subjectMarkDoc{Subject: mark.Subject, Mark: mark.Mark}},
	}}}

	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: fieldID, Value: studentID}}, update)
	if err != nil {
		return fmt.Errorf("mongo: append mark to student %d: %w", studentID, err)
	}
	if res.MatchedCount == 0 {
		return shared.StudentNotFound(studentID)
	}
	return nil
}

// Delete removes a student by id.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: fieldID, Value: id}})
	if err != nil {
		return fmt.Errorf("mongo: delete student %d: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return shared.StudentNotFound(id)
	}
	return nil
}

// FindNamesBySubjectMark returns names of students holding at least one mark
// >= mark in subjectName. Both conditions apply to the same array element.
func (r *StudentRepository) FindNamesBySubjectMark(ctx context.Context, subjectName string, mark int) ([]string, error) {
	filter := bson.D{{Key: fieldMarks, Value: bson.D{{Key: "$elemMatch", Value: bson.D{
		{Key: "subject", Value: subjectName},
		{Key: "mark", Value: bson.D{{Key: "$gte", Value: mark}}},
	}}}}}
	opts := options.Find().
		SetProjection(bson.D{{Key: fieldName, Value: 1}}).
		SetSort(bson.D{{Key: fieldID, Value: 1}})

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: find students by subject mark: %w", err)
	}

	var docs []struct {
		Name string `bson:"name"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decode students by subject mark: %w", err)
	}

	names := make([]string, 0, len(docs))
	for _, d := range docs {
		names = append(names, d.Name)
	}
	return names, nil
}

var _ college.StudentRepository = (*StudentRepository)(nil)
