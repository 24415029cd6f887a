package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/onlineexam/exam-service/internal/exam"
	"github.com/onlineexam/exam-service/internal/exam/repository"
)

var (
	ErrFieldsRequired         = errors.New("all fields are required")
	ErrInvalidDuration        = errors.New("duration must be a positive number of minutes")
	ErrInvalidDate            = errors.New("date must be RFC3339 or YYYY-MM-DD")
	ErrNotFoundOrUnauthorized = errors.New("exam not found or unauthorized")
	ErrMissingOwner           = errors.New("missing owner identity")
)

// Input is the client payload for create and update. All four fields are
// required together; a zero duration counts as missing.
type Input struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Date        string `json:"date" validate:"required"`
	Duration    int    `json:"duration" validate:"required,gt=0"`
}

// Service defines the exam operations used by the handler layer. The owner id
// is always the verified caller identity.
type Service interface {
	List(ctx context.Context, ownerID string) ([]*exam.Exam, error)
	Create(ctx context.Context, ownerID string, in Input) (*exam.Exam, error)
	Update(ctx context.Context, ownerID, id string, in Input) (*exam.Exam, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// New returns a Service on top of any repository.
func New(repo repository.Repository) Service {
	return &examService{repo: repo, validate: validator.New()}
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService() Service {
	return New(repository.NewMemoryRepo())
}

type examService struct {
	repo     repository.Repository
	validate *validator.Validate
}

func (s *examService) List(ctx context.Context, ownerID string) ([]*exam.Exam, error) {
	if ownerID == "" {
		return nil, ErrMissingOwner
	}
	list, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	return list, nil
}

func (s *examService) Create(ctx context.Context, ownerID string, in Input) (*exam.Exam, error) {
	if ownerID == "" {
		return nil, ErrMissingOwner
	}
	f, err := s.fields(in)
	if err != nil {
		return nil, err
	}
	e := &exam.Exam{OwnerID: ownerID}
	f.Apply(e)
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}
	return e, nil
}

func (s *examService) Update(ctx context.Context, ownerID, id string, in Input) (*exam.Exam, error) {
	if ownerID == "" {
		return nil, ErrMissingOwner
	}
	f, err := s.fields(in)
	if err != nil {
		return nil, err
	}
	e, err := s.repo.UpdateOwned(ctx, id, ownerID, f)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFoundOrUnauthorized
		}
		return nil, fmt.Errorf("update exam: %w", err)
	}
	return e, nil
}

func (s *examService) Delete(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return ErrMissingOwner
	}
	if err := s.repo.DeleteOwned(ctx, id, ownerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFoundOrUnauthorized
		}
		return fmt.Errorf("delete exam: %w", err)
	}
	return nil
}

// fields validates in and converts it to the stored representation. Text
// fields are trimmed first so whitespace-only values count as missing.
func (s *examService) fields(in Input) (exam.Fields, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Tag() == "required" {
					return exam.Fields{}, ErrFieldsRequired
				}
			}
			return exam.Fields{}, ErrInvalidDuration
		}
		return exam.Fields{}, err
	}
	date, err := ParseDate(in.Date)
	if err != nil {
		return exam.Fields{}, err
	}
	return exam.Fields{
		Title:       in.Title,
		Description: in.Description,
		Date:        date,
		Duration:    in.Duration,
	}, nil
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"}

// ParseDate accepts RFC3339 timestamps and plain calendar dates (UTC
// midnight). Results are UTC at millisecond precision, matching what the
// store keeps.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(time.Millisecond), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}
