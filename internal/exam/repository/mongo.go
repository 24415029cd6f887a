package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/onlineexam/exam-service/internal/exam"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements Repository on a MongoDB collection. Documents use the
// native ObjectID as _id and carry the owner in "ownerId".
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

// EnsureIndexes creates the ownerId index used by every query. Safe to call repeatedly.
func (m *MongoRepo) EnsureIndexes(ctx context.Context) error {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "ownerId", Value: 1}}}
	if _, err := m.col.Indexes().CreateOne(ctx, idx); err != nil {
		return fmt.Errorf("create ownerId index: %w", err)
	}
	return nil
}

func (m *MongoRepo) Create(ctx context.Context, e *exam.Exam) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	e.CreatedAt = now
	e.UpdatedAt = now
	e.ID = primitive.NewObjectID()
	if _, err := m.col.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("insert exam: %w", err)
	}
	return nil
}

func (m *MongoRepo) ListByOwner(ctx context.Context, ownerID string) ([]*exam.Exam, error) {
	cur, err := m.col.Find(ctx, bson.M{"ownerId": ownerID})
	if err != nil {
		return nil, fmt.Errorf("find exams: %w", err)
	}
	defer cur.Close(ctx)
	out := []*exam.Exam{}
	for cur.Next(ctx) {
		var e exam.Exam
		if err := cur.Decode(&e); err != nil {
			return nil, fmt.Errorf("decode exam: %w", err)
		}
		out = append(out, &e)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate exams: %w", err)
	}
	return out, nil
}

// UpdateOwned replaces the mutable fields with one findAndModify so the
// ownership check and the write cannot be split by a concurrent request.
func (m *MongoRepo) UpdateOwned(ctx context.Context, id, ownerID string, f exam.Fields) (*exam.Exam, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"_id": oid, "ownerId": ownerID}
	update := bson.M{"$set": bson.M{
		"title":       f.Title,
		"description": f.Description,
		"date":        f.Date,
		"duration":    f.Duration,
		"updatedAt":   time.Now().UTC().Truncate(time.Millisecond),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var e exam.Exam
	if err := m.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update exam: %w", err)
	}
	return &e, nil
}

func (m *MongoRepo) DeleteOwned(ctx context.Context, id, ownerID string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": oid, "ownerId": ownerID})
	if err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
