// Package testutil provides fixtures shared by the package tests.
package testutil

import (
	"fmt"
	"testing"

	"flashdeal/internal/models"
	"flashdeal/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDB opens a private in-memory SQLite database with the full schema.
// The pool is limited to one connection so transactions serialize the same
// way row locks would on a server database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         repositories.NewZapGormLogger(zap.NewNop()),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := repositories.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

// SeedUser inserts a user with the given role. The password hash is a placeholder.
func SeedUser(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()

	user := &models.User{Username: username, Email: username + "@example.com", PasswordHash: "x", Role: role}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed user %s: %v", username, err)
	}
	return user
}

// ProductSeed describes a product fixture. Price and Discount are decimal strings.
type ProductSeed struct {
	SellerID uint
	Name     string
	Price    string
	Discount string
	Stock    int
	Approved bool
}

// SeedProduct inserts a product fixture.
func SeedProduct(t *testing.T, db *gorm.DB, seed ProductSeed) *models.Product {
	t.Helper()

	discount := seed.Discount
	if discount == "" {
		discount = "0"
	}
	name := seed.Name
	if name == "" {
		name = "Product " + uuid.NewString()[:8]
	}
	product := &models.Product{
		SellerID: seed.SellerID,
		Name:     name,
		Price:    decimal.RequireFromString(seed.Price),
		Discount: decimal.RequireFromString(discount),
		Stock:    seed.Stock,
		Approved: seed.Approved,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("Failed to seed product %s: %v", name, err)
	}
	return product
}

// Stock reads the current stock of a product.
func Stock(t *testing.T, db *gorm.DB, productID uint) int {
	t.Helper()

	var product models.Product
	if err := db.First(&product, productID).Error; err != nil {
		t.Fatalf("Failed to load product %d: %v", productID, err)
	}
	return product.Stock
}
