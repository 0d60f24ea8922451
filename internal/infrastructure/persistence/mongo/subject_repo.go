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

// SubjectRepository implements college.SubjectRepository on the subjects collection.
type SubjectRepository struct {
	coll *mongo.Collection
}

// NewSubjectRepository creates a new SubjectRepository.
func NewSubjectRepository(conn *Connection) *SubjectRepository {
	return &SubjectRepository{coll: conn.Subjects()}
}

// Exists reports whether a subject with the given id is stored.
func (r *SubjectRepository) Exists(ctx context.Context, id int64) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.D{{Key: fieldID, Value: id}}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("mongo: count subject %d: %w", id, err)
	}
	return n > 0, nil
}

// GetByID loads a subject by id.
func (r *SubjectRepository) GetByID(ctx context.Context, id int64) (*college.Subject, error) {
	return r.findOne(ctx, bson.D{{Key: fieldID, Value: id}}, func() error { return shared.SubjectNotFound(id) })
}

// GetByName loads a subject by its unique name.
func (r *SubjectRepository) GetByName(ctx context.Context, name string) (*college.Subject, error) {
	return r.findOne(ctx, bson.D{{Key: fieldSubjectName, Value: name}}, func() error {
		return shared.WrapError("subject", "FindByName", shared.ErrNotFound,
			fmt.Sprintf("subject %q does not exist", name), nil)
	})
}

func (r *SubjectRepository) findOne(ctx context.Context, filter bson.D, notFound func() error) (*college.Subject, error) {
	var doc subjectDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound()
		}
		return nil, fmt.Errorf("mongo: find subject: %w", err)
	}
	return doc.toDomain(), nil
}

// Insert stores a new subject. Duplicate id or name surfaces as an already-exists error.
func (r *SubjectRepository) Insert(ctx context.Context, s *college.Subject) error {
	_, err := r.coll.InsertOne(ctx, newSubjectDoc(s))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return shared.WrapError("subject", "Create", shared.ErrAlreadyExists,
				fmt.Sprintf("subject with id %d or name %q already exists", s.ID, s.SubjectName), nil)
		}
		return fmt.Errorf("mongo: insert subject %d: %w", s.ID, err)
	}
	return nil
}

var _ college.SubjectRepository = (*SubjectRepository)(nil)
