package models

import "github.com/shopspring/decimal"

// Cart is the single cart owned by a buyer. It is created on first write.
type Cart struct {
	ID      uint `json:"id" gorm:"primaryKey"`
	BuyerID uint `json:"buyer_id" gorm:"uniqueIndex;not null"`
}

// CartItem is one product line in a cart.
type CartItem struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	CartID    uint `json:"cart_id" gorm:"uniqueIndex:idx_cart_product;not null"`
	ProductID uint `json:"product_id" gorm:"uniqueIndex:idx_cart_product;not null"`
	Quantity  int  `json:"quantity" gorm:"not null;check:quantity >= 1"`
}

// CartLine is a cart item joined with the current product fields.
type CartLine struct {
	CartItemID  uint            `json:"cart_item_id"`
	Quantity    int             `json:"quantity"`
	ProductID   uint            `json:"product_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ProductImg  *string         `json:"product_img"`
	Discount    decimal.Decimal `json:"discount"`
	Stock       int             `json:"stock"`
}
