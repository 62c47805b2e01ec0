package repositories

import (
	"context"
	"errors"
	"fmt"

	"flashdeal/internal/models"

	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *GORMOrderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %d: %w", id, err)
	}
	return &order, nil
}

func (r *GORMOrderRepository) ListByBuyer(ctx context.Context, buyerID uint) ([]models.BuyerOrderView, error) {
	orders := make([]models.BuyerOrderView, 0)
	err := r.db.WithContext(ctx).
		Table("orders AS o").
		Select("o.*, p.name AS product_name, p.price, p.discount, p.product_img").
		Joins("JOIN products p ON o.product_id = p.id").
		Where("o.buyer_id = ?", buyerID).
		Order("o.id DESC").
		Scan(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders of buyer %d: %w", buyerID, err)
	}
	return orders, nil
}

func (r *GORMOrderRepository) ListBySeller(ctx context.Context, sellerID uint) ([]models.SellerOrderView, error) {
	orders := make([]models.SellerOrderView, 0)
	err := r.db.WithContext(ctx).
		Table("orders AS o").
		Select(`o.*, p.name AS product_name, p.price, p.discount, p.product_img,
			u.username AS buyer_username`).
		Joins("JOIN products p ON o.product_id = p.id").
		Joins("JOIN users u ON o.buyer_id = u.id").
		Where("p.seller_id = ?", sellerID).
		Order("o.id DESC").
		Scan(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders of seller %d: %w", sellerID, err)
	}
	return orders, nil
}

func (r *GORMOrderRepository) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update status of order %d: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}
