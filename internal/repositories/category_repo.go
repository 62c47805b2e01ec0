package repositories

import (
	"context"

	"flashdeal/internal/models"
)

// CategoryRepository defines the interface for category data access.
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Update(ctx context.Context, id uint, name, description string) (int64, error)
	Delete(ctx context.Context, id uint) (int64, error)
}
