package repositories

import (
	"context"
	"errors"
	"fmt"

	"flashdeal/internal/models"

	"gorm.io/gorm"
)

// GORMPaymentRepository is a GORM implementation of PaymentRepository.
type GORMPaymentRepository struct {
	db *gorm.DB
}

// NewGORMPaymentRepository creates a new instance of GORMPaymentRepository.
func NewGORMPaymentRepository(db *gorm.DB) *GORMPaymentRepository {
	return &GORMPaymentRepository{db: db}
}

func (r *GORMPaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return fmt.Errorf("failed to create payment for order %d: %w", payment.OrderID, err)
	}
	return nil
}

// GetByOrderID returns the most recent payment recorded for the order.
func (r *GORMPaymentRepository) GetByOrderID(ctx context.Context, orderID uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id DESC").First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment for order %d: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get payment for order %d: %w", orderID, err)
	}
	return &payment, nil
}

func (r *GORMPaymentRepository) UpdateStatusByOrderID(ctx context.Context, orderID uint, status models.PaymentStatus) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("order_id = ?", orderID).
		Update("payment_status", status)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update payment status of order %d: %w", orderID, res.Error)
	}
	return res.RowsAffected, nil
}
