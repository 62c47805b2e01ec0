package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a seller's listing. It stays hidden from public listings until
// an admin approves it.
type Product struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	SellerID    uint            `json:"seller_id" gorm:"index;not null"`
	CategoryID  *uint           `json:"category_id" gorm:"index"`
	Name        string          `json:"name" gorm:"type:varchar(255);not null"`
	Description string          `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Discount    decimal.Decimal `json:"discount" gorm:"type:decimal(5,2);not null;default:0"` // percent, 0-100
	Stock       int             `json:"stock" gorm:"not null;default:0;check:stock >= 0"`
	DealExpiry  *time.Time      `json:"deal_expiry"`
	Approved    bool            `json:"approved" gorm:"not null;default:false;index"`
	ProductImg  *string         `json:"product_img" gorm:"type:varchar(512)"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// UnitPrice returns the price after the percentage discount.
func (p Product) UnitPrice() decimal.Decimal {
	return DiscountedPrice(p.Price, p.Discount)
}

// DiscountedPrice applies a percentage discount to price.
func DiscountedPrice(price, discount decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(discount.Div(decimal.NewFromInt(100)))
	return price.Mul(factor)
}

// ProductListing is a product joined with its seller and category names.
type ProductListing struct {
	Product
	SellerUsername string  `json:"seller_username"`
	CategoryName   *string `json:"category_name"`
}
