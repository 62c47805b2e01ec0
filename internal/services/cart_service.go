package services

import (
	"context"

	"flashdeal/internal/apperr"
	"flashdeal/internal/models"
	"flashdeal/internal/repositories"
)

// CartService manages each buyer's single cart.
type CartService struct {
	carts    repositories.CartRepository
	products repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(carts repositories.CartRepository, products repositories.ProductRepository) *CartService {
	return &CartService{carts: carts, products: products}
}

// GetCart returns the buyer's lines joined with current product fields. A
// buyer without a cart gets an empty slice.
func (s *CartService) GetCart(ctx context.Context, buyerID uint) ([]models.CartLine, error) {
	lines, err := s.carts.Lines(ctx, buyerID)
	if err != nil {
		return nil, apperr.Internal("failed to load cart", err)
	}
	return lines, nil
}

// UpsertItem sets the quantity of a product in the buyer's cart. A repeated
// call overwrites the quantity rather than adding to it.
func (s *CartService) UpsertItem(ctx context.Context, buyerID, productID uint, quantity int) error {
	if quantity < 1 {
		return apperr.Validation("quantity must be at least 1")
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errNotFound(err) {
			return apperr.NotFound("Product not found")
		}
		return apperr.Internal("failed to load product", err)
	}
	if !product.Approved {
		return apperr.NotFound("Product not found")
	}

	cart, err := s.carts.GetOrCreate(ctx, buyerID)
	if err != nil {
		return apperr.Internal("failed to load cart", err)
	}
	if err := s.carts.UpsertItem(ctx, cart.ID, productID, quantity); err != nil {
		return apperr.Internal("failed to update cart", err)
	}
	return nil
}

// RemoveItem deletes one product line from the buyer's cart.
func (s *CartService) RemoveItem(ctx context.Context, buyerID, productID uint) error {
	cart, err := s.findCart(ctx, buyerID)
	if err != nil {
		return err
	}
	n, err := s.carts.RemoveItem(ctx, cart.ID, productID)
	if err != nil {
		return apperr.Internal("failed to remove cart item", err)
	}
	if n == 0 {
		return apperr.NotFound("Product not found in cart")
	}
	return nil
}

// Clear empties the buyer's cart.
func (s *CartService) Clear(ctx context.Context, buyerID uint) error {
	cart, err := s.findCart(ctx, buyerID)
	if err != nil {
		return err
	}
	if _, err := s.carts.ClearItems(ctx, cart.ID); err != nil {
		return apperr.Internal("failed to clear cart", err)
	}
	return nil
}

func (s *CartService) findCart(ctx context.Context, buyerID uint) (*models.Cart, error) {
	cart, err := s.carts.FindByBuyer(ctx, buyerID)
	if err != nil {
		if errNotFound(err) {
			return nil, apperr.NotFound("Cart not found")
		}
		return nil, apperr.Internal("failed to load cart", err)
	}
	return cart, nil
}
