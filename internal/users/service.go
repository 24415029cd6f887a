package users

import (
	"context"

	"github.com/onlineexam/exam-service/internal/models"
	"github.com/onlineexam/exam-service/pkg/middleware"
)

// Service encapsulates owner-profile logic
type Service struct {
	repo UserRepository
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r}
}

// UpsertFromClaims creates or updates a profile from verified token claims.
// Returns (nil, nil) when the claims carry no identity.
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.User, error) {
	sub := middleware.OwnerFromClaims(claims)
	if sub == "" {
		return nil, nil
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	if name == "" {
		name, _ = claims["preferred_username"].(string)
	}
	return s.repo.UpsertBySub(ctx, &models.User{Sub: sub, Email: email, Name: name})
}

func (s *Service) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	return s.repo.GetBySub(ctx, sub)
}
