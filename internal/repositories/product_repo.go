package repositories

import (
	"context"
	"time"

	"flashdeal/internal/models"

	"github.com/shopspring/decimal"
)

// ProductFilter narrows a product listing. Page is 1-based.
type ProductFilter struct {
	CategoryID *uint
	SearchTerm string
	Page       int
	Limit      int
}

// Offset returns the row offset for the filter's page.
func (f ProductFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// ProductPatch carries the fields a seller may change. Nil fields are left untouched.
type ProductPatch struct {
	CategoryID  *uint
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Discount    *decimal.Decimal
	Stock       *int
	DealExpiry  *time.Time
	ProductImg  *string
}

// Columns returns the patch as a column -> value map.
func (p ProductPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.CategoryID != nil {
		cols["category_id"] = *p.CategoryID
	}
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Price != nil {
		cols["price"] = *p.Price
	}
	if p.Discount != nil {
		cols["discount"] = *p.Discount
	}
	if p.Stock != nil {
		cols["stock"] = *p.Stock
	}
	if p.DealExpiry != nil {
		cols["deal_expiry"] = *p.DealExpiry
	}
	if p.ProductImg != nil {
		cols["product_img"] = *p.ProductImg
	}
	return cols
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	ListApproved(ctx context.Context, filter ProductFilter) ([]models.ProductListing, error)
	ListBySeller(ctx context.Context, sellerID uint, filter ProductFilter) ([]models.ProductListing, error)
	ListPending(ctx context.Context) ([]models.ProductListing, error)
	// Approve flips approved to true. Already approved rows are not matched.
	Approve(ctx context.Context, id uint) (int64, error)
	// Update applies patch to the product only when it belongs to sellerID.
	Update(ctx context.Context, id, sellerID uint, patch ProductPatch) (int64, error)
	// Delete removes the product. A nil sellerID deletes regardless of owner.
	Delete(ctx context.Context, id uint, sellerID *uint) (int64, error)
	// DeductStock decrements stock only when at least qty units remain.
	DeductStock(ctx context.Context, id uint, qty int) (int64, error)
}
