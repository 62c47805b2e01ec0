package services_test

import (
	"testing"

	"flashdeal/internal/events"
	"flashdeal/internal/repositories"
	"flashdeal/internal/testutil"

	"gorm.io/gorm"
)

// env bundles GORM repositories over a private in-memory database.
type env struct {
	db       *gorm.DB
	tx       repositories.TransactionManager
	users    *repositories.GORMUserRepository
	products *repositories.GORMProductRepository
	carts    *repositories.GORMCartRepository
	orders   *repositories.GORMOrderRepository
	payments *repositories.GORMPaymentRepository
	events   *events.Recorder
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	return &env{
		db:       db,
		tx:       repositories.NewTransactionManager(db),
		users:    repositories.NewGORMUserRepository(db),
		products: repositories.NewGORMProductRepository(db),
		carts:    repositories.NewGORMCartRepository(db),
		orders:   repositories.NewGORMOrderRepository(db),
		payments: repositories.NewGORMPaymentRepository(db),
		events:   &events.Recorder{},
	}
}
