package services

import (
	"context"
	"errors"

	"flashdeal/internal/apperr"
	"flashdeal/internal/models"
	"flashdeal/internal/repositories"
)

// UserService serves profile lookups.
type UserService struct {
	repo repositories.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(repo repositories.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// GetProfile returns the user with the given id.
func (s *UserService) GetProfile(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Internal("failed to load user", err)
	}
	return user, nil
}

// ListUsers returns every account.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to list users", err)
	}
	return users, nil
}
