package exam

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Exam is an online exam record owned by exactly one user. OwnerID is set from
// the verified caller identity on creation and never changes afterwards.
type Exam struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Date        time.Time          `json:"date" bson:"date"`
	Duration    int                `json:"duration" bson:"duration"` // minutes
	OwnerID     string             `json:"ownerId" bson:"ownerId"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Fields holds the four mutable fields, already validated. Updates replace all
// of them together.
type Fields struct {
	Title       string
	Description string
	Date        time.Time
	Duration    int
}

// Apply overwrites the mutable fields of e.
func (f Fields) Apply(e *Exam) {
	e.Title = f.Title
	e.Description = f.Description
	e.Date = f.Date
	e.Duration = f.Duration
}
