package repository

import (
	"context"
	"errors"

	"github.com/onlineexam/exam-service/internal/exam"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned when no record matches both the id and the owner.
// A record owned by someone else is reported the same way as a missing one.
var ErrNotFound = errors.New("exam not found")

// Repository persists exams. Every lookup is scoped to an owner; mutations
// match on (id, owner) in a single atomic store operation.
type Repository interface {
	Create(ctx context.Context, e *exam.Exam) error
	ListByOwner(ctx context.Context, ownerID string) ([]*exam.Exam, error)
	UpdateOwned(ctx context.Context, id, ownerID string, f exam.Fields) (*exam.Exam, error)
	DeleteOwned(ctx context.Context, id, ownerID string) error
}

// parseID converts a hex id; malformed ids can never match a record.
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}
