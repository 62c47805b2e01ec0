package repositories

import (
	"context"

	"flashdeal/internal/models"
)

// PaymentRepository defines the interface for payment data access. Payments
// are always addressed by the internal order id.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByOrderID(ctx context.Context, orderID uint) (*models.Payment, error)
	UpdateStatusByOrderID(ctx context.Context, orderID uint, status models.PaymentStatus) (int64, error)
}
