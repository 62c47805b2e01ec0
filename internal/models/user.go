package models

import "time"

// Role is the fixed role a user registers with.
type Role string

const (
	RoleAdmin  Role = "Admin"
	RoleSeller Role = "Seller"
	RoleBuyer  Role = "Buyer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSeller, RoleBuyer:
		return true
	}
	return false
}

// User represents a marketplace account.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"uniqueIndex;type:varchar(100);not null"`
	Email        string    `json:"email" gorm:"type:varchar(255)"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"` // never serialized
	Role         Role      `json:"role" gorm:"type:varchar(10);not null"`
	CreatedAt    time.Time `json:"created_at"`
}
