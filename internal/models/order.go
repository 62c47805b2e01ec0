package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order line.
type OrderStatus string

const (
	OrderPending   OrderStatus = "Pending"
	OrderConfirmed OrderStatus = "Confirmed"
	OrderShipped   OrderStatus = "Shipped"
	OrderDelivered OrderStatus = "Delivered"
	OrderCancelled OrderStatus = "Cancelled"
)

// Order is one buyer/product/quantity line created at checkout. There is no
// header row grouping the lines of one checkout.
type Order struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	BuyerID    uint            `json:"buyer_id" gorm:"index;not null"`
	ProductID  uint            `json:"product_id" gorm:"index;not null"`
	Quantity   int             `json:"quantity" gorm:"not null"`
	TotalPrice decimal.Decimal `json:"total_price" gorm:"type:decimal(12,2);not null"` // snapshot at placement
	Status     OrderStatus     `json:"status" gorm:"type:varchar(20);not null"`
	CreatedAt  time.Time       `json:"created_at"`
}

// BuyerOrderView is an order joined with product details for the buyer's history.
type BuyerOrderView struct {
	Order
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"`
	ProductImg  *string         `json:"product_img"`
}

// SellerOrderView adds the buyer's username for the seller dashboard.
type SellerOrderView struct {
	BuyerOrderView
	BuyerUsername string `json:"buyer_username"`
}
