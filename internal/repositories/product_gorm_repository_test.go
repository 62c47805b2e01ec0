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

func TestGORMProductRepository_DeductStockIsConditional(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewGORMProductRepository(db)
	ctx := context.Background()
	seller := testutil.SeedUser(t, db, "seller", models.RoleSeller)
	product := testutil.SeedProduct(t, db, testutil.ProductSeed{SellerID: seller.ID, Price: "10", Stock: 3, Approved: true})

	n, err := repo.DeductStock(ctx, product.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, testutil.Stock(t, db, product.ID))

	n, err = repo.DeductStock(ctx, product.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "deduction beyond stock must not match")
	assert.Equal(t, 1, testutil.Stock(t, db, product.ID))
}

func TestGORMProductRepository_ListApproved(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewGORMProductRepository(db)
	ctx := context.Background()
	seller := testutil.SeedUser(t, db, "seller", models.RoleSeller)

	category := &models.Category{Name: "Electronics"}
	require.NoError(t, db.Create(category).Error)

	phone := testutil.SeedProduct(t, db, testutil.ProductSeed{SellerID: seller.ID, Name: "Smart Phone", Price: "300", Stock: 1, Approved: true})
	require.NoError(t, db.Model(phone).Update("category_id", category.ID).Error)
	testutil.SeedProduct(t, db, testutil.ProductSeed{SellerID: seller.ID, Name: "Phone Case", Price: "5", Stock: 1, Approved: true})
	testutil.SeedProduct(t, db, testutil.ProductSeed{SellerID: seller.ID, Name: "Hidden Phone", Price: "5", Stock: 1})

	all, err := repo.ListApproved(ctx, repositories.ProductFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "seller", all[0].SellerUsername)

	byCategory, err := repo.ListApproved(ctx, repositories.ProductFilter{CategoryID: &category.ID, Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, phone.ID, byCategory[0].ID)
	require.NotNil(t, byCategory[0].CategoryName)
	assert.Equal(t, "Electronics", *byCategory[0].CategoryName)

	search, err := repo.ListApproved(ctx, repositories.ProductFilter{SearchTerm: "CASE", Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, search, 1)
	assert.Equal(t, "Phone Case", search[0].Name)

	page2, err := repo.ListApproved(ctx, repositories.ProductFilter{Page: 2, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "Phone Case", page2[0].Name)

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Hidden Phone", pending[0].Name)
}

func TestGORMProductRepository_ApproveIsMonotonic(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewGORMProductRepository(db)
	ctx := context.Background()
	seller := testutil.SeedUser(t, db, "seller", models.RoleSeller)
	product := testutil.SeedProduct(t, db, testutil.ProductSeed{SellerID: seller.ID, Price: "10", Stock: 1})

	n, err := repo.Approve(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.Approve(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestGORMProductRepository_UpdateAndDeleteRespectOwner(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewGORMProductRepository(db)
	ctx := context.Background()
	owner := testutil.SeedUser(t, db, "owner", models.RoleSeller)
	other := testutil.SeedUser(t, db, "other", models.RoleSeller)
	product := testutil.SeedProduct(t, db, testutil.ProductSeed{SellerID: owner.ID, Name: "Lamp", Price: "10", Stock: 1})

	name := "Stolen Lamp"
	n, err := repo.Update(ctx, product.ID, other.ID, repositories.ProductPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	price := decimal.RequireFromString("12.50")
	n, err = repo.Update(ctx, product.ID, owner.ID, repositories.ProductPatch{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stored, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lamp", stored.Name)
	assert.True(t, stored.Price.Equal(price))

	_, err = repo.Update(ctx, product.ID, owner.ID, repositories.ProductPatch{})
	assert.Error(t, err)

	n, err = repo.Delete(ctx, product.ID, &other.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = repo.Delete(ctx, product.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.GetByID(ctx, product.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
