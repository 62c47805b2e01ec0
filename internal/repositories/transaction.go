package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// RepositoryFactory hands out repositories bound to one transaction.
type RepositoryFactory interface {
	Carts() CartRepository
	Orders() OrderRepository
	Products() ProductRepository
	Payments() PaymentRepository
}

// TransactionManager runs a unit of work inside a database transaction.
type TransactionManager interface {
	// Execute commits when fn returns nil and rolls back otherwise. The
	// connection is released on every path, including a panic in fn.
	Execute(ctx context.Context, fn func(repos RepositoryFactory) error) error
}

type gormTransactionManager struct {
	db *gorm.DB
}

type gormRepositoryFactory struct {
	tx *gorm.DB
}

func (f *gormRepositoryFactory) Carts() CartRepository       { return NewGORMCartRepository(f.tx) }
func (f *gormRepositoryFactory) Orders() OrderRepository     { return NewGORMOrderRepository(f.tx) }
func (f *gormRepositoryFactory) Products() ProductRepository { return NewGORMProductRepository(f.tx) }
func (f *gormRepositoryFactory) Payments() PaymentRepository { return NewGORMPaymentRepository(f.tx) }

// NewTransactionManager creates a TransactionManager over db.
func NewTransactionManager(db *gorm.DB) TransactionManager {
	return &gormTransactionManager{db: db}
}

func (tm *gormTransactionManager) Execute(ctx context.Context, fn func(repos RepositoryFactory) error) error {
	tx := tm.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(&gormRepositoryFactory{tx: tx}); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			return fmt.Errorf("transaction rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
