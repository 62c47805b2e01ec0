package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"flashdeal/internal/models"

	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %d: %w", id, err)
	}
	return &product, nil
}

func (r *GORMProductRepository) listingQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("products AS p").
		Select("p.*, u.username AS seller_username, c.name AS category_name").
		Joins("JOIN users u ON p.seller_id = u.id").
		Joins("LEFT JOIN categories c ON p.category_id = c.id")
}

func applyFilter(q *gorm.DB, filter ProductFilter) *gorm.DB {
	if filter.CategoryID != nil {
		q = q.Where("p.category_id = ?", *filter.CategoryID)
	}
	if term := strings.TrimSpace(filter.SearchTerm); term != "" {
		q = q.Where("LOWER(p.name) LIKE ?", "%"+strings.ToLower(term)+"%")
	}
	return q.Order("p.id").Limit(filter.Limit).Offset(filter.Offset())
}

// ListApproved returns the public listing.
func (r *GORMProductRepository) ListApproved(ctx context.Context, filter ProductFilter) ([]models.ProductListing, error) {
	var listings []models.ProductListing
	q := applyFilter(r.listingQuery(ctx).Where("p.approved = ?", true), filter)
	if err := q.Scan(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to list approved products: %w", err)
	}
	return listings, nil
}

// ListBySeller returns a seller's own products, approved or not.
func (r *GORMProductRepository) ListBySeller(ctx context.Context, sellerID uint, filter ProductFilter) ([]models.ProductListing, error) {
	var listings []models.ProductListing
	q := applyFilter(r.listingQuery(ctx).Where("p.seller_id = ?", sellerID), filter)
	if err := q.Scan(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to list products of seller %d: %w", sellerID, err)
	}
	return listings, nil
}

// ListPending returns the products awaiting approval.
func (r *GORMProductRepository) ListPending(ctx context.Context) ([]models.ProductListing, error) {
	var listings []models.ProductListing
	err := r.listingQuery(ctx).Where("p.approved = ?", false).Order("p.id").Scan(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending products: %w", err)
	}
	return listings, nil
}

func (r *GORMProductRepository) Approve(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND approved = ?", id, false).
		Update("approved", true)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to approve product %d: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *GORMProductRepository) Update(ctx context.Context, id, sellerID uint, patch ProductPatch) (int64, error) {
	cols := patch.Columns()
	if len(cols) == 0 {
		return 0, fmt.Errorf("no fields to update for product %d", id)
	}
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND seller_id = ?", id, sellerID).
		Updates(cols)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update product %d: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *GORMProductRepository) Delete(ctx context.Context, id uint, sellerID *uint) (int64, error) {
	q := r.db.WithContext(ctx).Where("id = ?", id)
	if sellerID != nil {
		q = q.Where("seller_id = ?", *sellerID)
	}
	res := q.Delete(&models.Product{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete product %d: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *GORMProductRepository) DeductStock(ctx context.Context, id uint, qty int) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return 0, fmt.Errorf("failed to deduct stock of product %d: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}
