package repositories_test

import (
	"context"
	"testing"

	"flashdeal/internal/models"
	"flashdeal/internal/repositories"
	"flashdeal/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGORMOrderRepository_Views(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewGORMOrderRepository(db)
	ctx := context.Background()
	buyer := testutil.SeedUser(t, db, "alice", models.RoleBuyer)
	seller := testutil.SeedUser(t, db, "bob", models.RoleSeller)
	otherSeller := testutil.SeedUser(t, db, "carol", models.RoleSeller)
	mine := testutil.SeedProduct(t, db, testutil.ProductSeed{SellerID: seller.ID, Name: "Kettle", Price: "40", Discount: "25", Stock: 5, Approved: true})
	theirs := testutil.SeedProduct(t, db, testutil.ProductSeed{SellerID: otherSeller.ID, Name: "Mug", Price: "5", Stock: 5, Approved: true})

	first := &models.Order{BuyerID: buyer.ID, ProductID: mine.ID, Quantity: 1, TotalPrice: decimal.NewFromInt(30), Status: models.OrderPending}
	second := &models.Order{BuyerID: buyer.ID, ProductID: theirs.ID, Quantity: 2, TotalPrice: decimal.NewFromInt(10), Status: models.OrderPending}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	buyerOrders, err := repo.ListByBuyer(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, buyerOrders, 2)
	assert.Equal(t, second.ID, buyerOrders[0].ID, "newest first")
	assert.Equal(t, "Mug", buyerOrders[0].ProductName)

	sellerOrders, err := repo.ListBySeller(ctx, seller.ID)
	require.NoError(t, err)
	require.Len(t, sellerOrders, 1)
	assert.Equal(t, first.ID, sellerOrders[0].ID)
	assert.Equal(t, "alice", sellerOrders[0].BuyerUsername)
	assert.Equal(t, "Kettle", sellerOrders[0].ProductName)
	assert.True(t, sellerOrders[0].Discount.Equal(decimal.NewFromInt(25)))

	n, err := repo.UpdateStatus(ctx, first.ID, models.OrderShipped)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.UpdateStatus(ctx, 9999, models.OrderShipped)
	require.NoError(t, err)
	assert.Zero(t, n)

	stored, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, stored.Status)
}
