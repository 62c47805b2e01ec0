package repositories

import (
	"context"
	"errors"
	"fmt"

	"flashdeal/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{db: db}
}

func (r *GORMCartRepository) FindByBuyer(ctx context.Context, buyerID uint) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.WithContext(ctx).First(&cart, "buyer_id = ?", buyerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart of buyer %d: %w", buyerID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get cart of buyer %d: %w", buyerID, err)
	}
	return &cart, nil
}

func (r *GORMCartRepository) GetOrCreate(ctx context.Context, buyerID uint) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Where(models.Cart{BuyerID: buyerID}).
		FirstOrCreate(&cart).Error
	if err == nil {
		return &cart, nil
	}
	// A concurrent request created the cart between our read and insert.
	if IsUniqueViolation(err) {
		return r.FindByBuyer(ctx, buyerID)
	}
	return nil, fmt.Errorf("failed to get or create cart of buyer %d: %w", buyerID, err)
}

func (r *GORMCartRepository) Lines(ctx context.Context, buyerID uint) ([]models.CartLine, error) {
	lines := make([]models.CartLine, 0)
	err := r.db.WithContext(ctx).
		Table("cart_items AS ci").
		Select(`ci.id AS cart_item_id, ci.quantity,
			p.id AS product_id, p.name, p.description, p.price, p.product_img,
			p.discount, p.stock`).
		Joins("JOIN products p ON ci.product_id = p.id").
		Joins("JOIN carts c ON ci.cart_id = c.id").
		Where("c.buyer_id = ?", buyerID).
		Order("ci.id").
		Scan(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load cart lines of buyer %d: %w", buyerID, err)
	}
	return lines, nil
}

func (r *GORMCartRepository) UpsertItem(ctx context.Context, cartID, productID uint, quantity int) error {
	item := models.CartItem{CartID: cartID, ProductID: productID, Quantity: quantity}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity"}),
	}).Create(&item).Error
	if err != nil {
		return fmt.Errorf("failed to upsert product %d in cart %d: %w", productID, cartID, err)
	}
	return nil
}

func (r *GORMCartRepository) RemoveItem(ctx context.Context, cartID, productID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to remove product %d from cart %d: %w", productID, cartID, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *GORMCartRepository) ClearItems(ctx context.Context, cartID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clear cart %d: %w", cartID, res.Error)
	}
	return res.RowsAffected, nil
}
