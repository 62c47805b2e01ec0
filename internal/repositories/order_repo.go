package repositories

import (
	"context"

	"flashdeal/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	// ListByBuyer returns the buyer's orders, newest first.
	ListByBuyer(ctx context.Context, buyerID uint) ([]models.BuyerOrderView, error)
	// ListBySeller returns orders for the seller's products with the buyer's username.
	ListBySeller(ctx context.Context, sellerID uint) ([]models.SellerOrderView, error)
	// UpdateStatus overwrites the status and reports the matched rows.
	UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) (int64, error)
}
