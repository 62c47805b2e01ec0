package services

import (
	"context"
	"errors"
	"strings"

	"flashdeal/internal/apperr"
	"flashdeal/internal/models"
	"flashdeal/internal/repositories"
)

// CategoryService handles business logic related to categories.
type CategoryService struct {
	repo repositories.CategoryRepository
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(repo repositories.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to list categories", err)
	}
	return categories, nil
}

func (s *CategoryService) Get(ctx context.Context, id uint) (*models.Category, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperr.NotFound("Category not found")
		}
		return nil, apperr.Internal("failed to load category", err)
	}
	return category, nil
}

func (s *CategoryService) Create(ctx context.Context, name, description string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	category := &models.Category{Name: name, Description: description}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, apperr.Internal("failed to create category", err)
	}
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, id uint, name, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Validation("name is required")
	}
	n, err := s.repo.Update(ctx, id, name, description)
	if err != nil {
		return apperr.Internal("failed to update category", err)
	}
	if n == 0 {
		return apperr.NotFound("Category not found")
	}
	return nil
}

// Delete removes the category. Products keep existing without a category.
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return apperr.Internal("failed to delete category", err)
	}
	if n == 0 {
		return apperr.NotFound("Category not found")
	}
	return nil
}
