package repositories

import (
	"context"

	"flashdeal/internal/models"
)

// CartRepository defines the interface for cart data access.
type CartRepository interface {
	// FindByBuyer returns the buyer's cart or an ErrNotFound wrap.
	FindByBuyer(ctx context.Context, buyerID uint) (*models.Cart, error)
	// GetOrCreate returns the buyer's cart, inserting it when absent.
	GetOrCreate(ctx context.Context, buyerID uint) (*models.Cart, error)
	// Lines returns the buyer's cart items joined with product fields.
	Lines(ctx context.Context, buyerID uint) ([]models.CartLine, error)
	// UpsertItem sets the quantity of productID in the cart, inserting the line when absent.
	UpsertItem(ctx context.Context, cartID, productID uint, quantity int) error
	RemoveItem(ctx context.Context, cartID, productID uint) (int64, error)
	ClearItems(ctx context.Context, cartID uint) (int64, error)
}
