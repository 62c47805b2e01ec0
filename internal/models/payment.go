package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the state of a payment attempt.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentCompleted PaymentStatus = "Completed"
	PaymentFailed    PaymentStatus = "Failed"
	PaymentRefunded  PaymentStatus = "Refunded"
)

// Payment records a gateway charge against an internal order id.
type Payment struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	OrderID       uint            `json:"order_id" gorm:"index;not null"`
	PaymentMethod string          `json:"payment_method" gorm:"type:varchar(50);not null"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	PaymentStatus PaymentStatus   `json:"payment_status" gorm:"type:varchar(20);not null"`
	PaymentDate   time.Time       `json:"payment_date"`
}
