package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"flashdeal/internal/apperr"
	"flashdeal/internal/events"
	"flashdeal/internal/models"
	"flashdeal/internal/repositories"
	"flashdeal/internal/services"
	"flashdeal/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newOrderService(e *env) *services.OrderService {
	return services.NewOrderService(e.tx, e.orders, e.products, nil, e.events, zap.NewNop())
}

func TestLineTotal(t *testing.T) {
	got := services.LineTotal(decimal.NewFromInt(100), decimal.NewFromInt(10), 2)
	assert.Equal(t, "180.00", got.StringFixed(2))

	// 19.99 * 0.85 * 3 = 50.9745
	got = services.LineTotal(decimal.RequireFromString("19.99"), decimal.NewFromInt(15), 3)
	assert.Equal(t, "50.97", got.StringFixed(2))
}

func TestOrderService_PlaceOrder_EndToEnd(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	carts := services.NewCartService(e.carts, e.products)
	orders := newOrderService(e)
	buyer := testutil.SeedUser(t, e.db, "buyer", models.RoleBuyer)
	seller := testutil.SeedUser(t, e.db, "seller", models.RoleSeller)
	product := testutil.SeedProduct(t, e.db, testutil.ProductSeed{SellerID: seller.ID, Price: "100", Discount: "10", Stock: 5, Approved: true})

	require.NoError(t, carts.UpsertItem(ctx, buyer.ID, product.ID, 2))

	result, err := orders.PlaceOrder(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, result.OrderIDs, 1)
	assert.Equal(t, "180.00", result.TotalOrderPrice.StringFixed(2))

	assert.Equal(t, 3, testutil.Stock(t, e.db, product.ID))

	lines, err := carts.GetCart(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	order, err := e.orders.GetByID(ctx, result.OrderIDs[0])
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, 2, order.Quantity)
	assert.True(t, order.TotalPrice.Equal(decimal.NewFromInt(180)))

	published := e.events.OfType(events.NewOrder)
	require.Len(t, published, 1)
	assert.Equal(t, order.ID, published[0].OrderID)
}

func TestOrderService_PlaceOrder_MultipleLines(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	carts := services.NewCartService(e.carts, e.products)
	orders := newOrderService(e)
	buyer := testutil.SeedUser(t, e.db, "buyer", models.RoleBuyer)
	seller := testutil.SeedUser(t, e.db, "seller", models.RoleSeller)
	a := testutil.SeedProduct(t, e.db, testutil.ProductSeed{SellerID: seller.ID, Price: "19.99", Discount: "15", Stock: 10, Approved: true})
	b := testutil.SeedProduct(t, e.db, testutil.ProductSeed{SellerID: seller.ID, Price: "5", Stock: 1, Approved: true})

	require.NoError(t, carts.UpsertItem(ctx, buyer.ID, a.ID, 3))
	require.NoError(t, carts.UpsertItem(ctx, buyer.ID, b.ID, 1))

	result, err := orders.PlaceOrder(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Len(t, result.OrderIDs, 2)
	// 50.97 + 5.00
	assert.Equal(t, "55.97", result.TotalOrderPrice.StringFixed(2))
	assert.Equal(t, 7, testutil.Stock(t, e.db, a.ID))
	assert.Equal(t, 0, testutil.Stock(t, e.db, b.ID))
}

func TestOrderService_PlaceOrder_EmptyCart(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	orders := newOrderService(e)
	buyer := testutil.SeedUser(t, e.db, "buyer", models.RoleBuyer)

	_, err := orders.PlaceOrder(ctx, buyer.ID)
	assert.True(t, apperr.Is(err, apperr.KindBusinessRule))
	assert.Equal(t, "Cart is empty", apperr.PublicMessage(err))
	assert.Empty(t, e.events.Events())
}

func TestOrderService_PlaceOrder_IsAtomic(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	carts := services.NewCartService(e.carts, e.products)
	orders := newOrderService(e)
	buyer := testutil.SeedUser(t, e.db, "buyer", models.RoleBuyer)
	seller := testutil.SeedUser(t, e.db, "seller", models.RoleSeller)
	inStock := testutil.SeedProduct(t, e.db, testutil.ProductSeed{SellerID: seller.ID, Price: "10", Stock: 2, Approved: true})
	soldOut := testutil.SeedProduct(t, e.db, testutil.ProductSeed{SellerID: seller.ID, Price: "10", Stock: 0, Approved: true})

	require.NoError(t, carts.UpsertItem(ctx, buyer.ID, inStock.ID, 1))
	require.NoError(t, carts.UpsertItem(ctx, buyer.ID, soldOut.ID, 1))

	_, err := orders.PlaceOrder(ctx, buyer.ID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindBusinessRule))
	assert.Equal(t, fmt.Sprintf("Insufficient stock for product %d", soldOut.ID), apperr.PublicMessage(err))

	var count int64
	e.db.Model(&models.Order{}).Count(&count)
	assert.Zero(t, count)
	assert.Equal(t, 2, testutil.Stock(t, e.db, inStock.ID))

	lines, err := carts.GetCart(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 2)
	assert.Empty(t, e.events.Events())
}

// lostRaceTx runs the real transaction but reports every stock deduction as
// matching no row, as when another checkout took the stock first.
type lostRaceTx struct {
	repositories.TransactionManager
}

func (tx lostRaceTx) Execute(ctx context.Context, fn func(repos repositories.RepositoryFactory) error) error {
	return tx.TransactionManager.Execute(ctx, func(repos repositories.RepositoryFactory) error {
		return fn(lostRaceRepos{repos})
	})
}

type lostRaceRepos struct {
	repositories.RepositoryFactory
}

func (r lostRaceRepos) Products() repositories.ProductRepository {
	return lostRaceProducts{r.RepositoryFactory.Products()}
}

type lostRaceProducts struct {
	repositories.ProductRepository
}

func (lostRaceProducts) DeductStock(ctx context.Context, id uint, qty int) (int64, error) {
	return 0, nil
}

func TestOrderService_PlaceOrder_DeductionLosesRace(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	carts := services.NewCartService(e.carts, e.products)
	orders := services.NewOrderService(lostRaceTx{e.tx}, e.orders, e.products, nil, e.events, zap.NewNop())
	buyer := testutil.SeedUser(t, e.db, "buyer", models.RoleBuyer)
	seller := testutil.SeedUser(t, e.db, "seller", models.RoleSeller)
	product := testutil.SeedProduct(t, e.db, testutil.ProductSeed{SellerID: seller.ID, Price: "10", Stock: 3, Approved: true})

	require.NoError(t, carts.UpsertItem(ctx, buyer.ID, product.ID, 2))

	_, err := orders.PlaceOrder(ctx, buyer.ID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindBusinessRule))
	assert.Equal(t, fmt.Sprintf("Insufficient stock for product %d", product.ID), apperr.PublicMessage(err))

	// The order row written before the deduction is rolled back.
	var count int64
	e.db.Model(&models.Order{}).Count(&count)
	assert.Zero(t, count)
	assert.Equal(t, 3, testutil.Stock(t, e.db, product.ID))

	lines, err := carts.GetCart(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Empty(t, e.events.Events())
}

func TestOrderService_PlaceOrder_InvalidatesListings(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	cache := new(MockListingCache)
	carts := services.NewCartService(e.carts, e.products)
	orders := services.NewOrderService(e.tx, e.orders, e.products, cache, e.events, zap.NewNop())
	buyer := testutil.SeedUser(t, e.db, "buyer", models.RoleBuyer)
	seller := testutil.SeedUser(t, e.db, "seller", models.RoleSeller)
	product := testutil.SeedProduct(t, e.db, testutil.ProductSeed{SellerID: seller.ID, Price: "10", Stock: 3, Approved: true})

	// A rejected placement leaves the cache alone.
	_, err := orders.PlaceOrder(ctx, buyer.ID)
	require.Error(t, err)
	cache.AssertNotCalled(t, "Invalidate", mock.Anything)

	require.NoError(t, carts.UpsertItem(ctx, buyer.ID, product.ID, 1))
	cache.On("Invalidate", mock.Anything).Once()

	_, err = orders.PlaceOrder(ctx, buyer.ID)
	require.NoError(t, err)
	cache.AssertExpectations(t)
}

func TestOrderService_PlaceOrder_ConcurrentNeverOversells(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	carts := services.NewCartService(e.carts, e.products)
	orders := newOrderService(e)
	seller := testutil.SeedUser(t, e.db, "seller", models.RoleSeller)
	const stock, buyers, perBuyer = 5, 6, 2
	product := testutil.SeedProduct(t, e.db, testutil.ProductSeed{SellerID: seller.ID, Price: "10", Stock: stock, Approved: true})

	ids := make([]uint, buyers)
	for i := range ids {
		buyer := testutil.SeedUser(t, e.db, fmt.Sprintf("buyer%d", i), models.RoleBuyer)
		require.NoError(t, carts.UpsertItem(ctx, buyer.ID, product.ID, perBuyer))
		ids[i] = buyer.ID
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(buyerID uint) {
			defer wg.Done()
			_, err := orders.PlaceOrder(ctx, buyerID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			if apperr.Is(err, apperr.KindBusinessRule) {
				rejected++
			}
		}(id)
	}
	wg.Wait()

	assert.LessOrEqual(t, succeeded*perBuyer, stock)
	assert.Equal(t, buyers, succeeded+rejected)
	assert.GreaterOrEqual(t, rejected, 1)

	remaining := testutil.Stock(t, e.db, product.ID)
	assert.GreaterOrEqual(t, remaining, 0)
	assert.Equal(t, stock-succeeded*perBuyer, remaining)

	var count int64
	e.db.Model(&models.Order{}).Count(&count)
	assert.Equal(t, int64(succeeded), count)
}

func TestOrderService_Listings(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	carts := services.NewCartService(e.carts, e.products)
	orders := newOrderService(e)
	buyer := testutil.SeedUser(t, e.db, "buyer", models.RoleBuyer)
	seller := testutil.SeedUser(t, e.db, "seller", models.RoleSeller)
	product := testutil.SeedProduct(t, e.db, testutil.ProductSeed{SellerID: seller.ID, Name: "Headphones", Price: "50", Stock: 5, Approved: true})

	require.NoError(t, carts.UpsertItem(ctx, buyer.ID, product.ID, 1))
	_, err := orders.PlaceOrder(ctx, buyer.ID)
	require.NoError(t, err)

	mine, err := orders.ListBuyerOrders(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Headphones", mine[0].ProductName)

	theirs, err := orders.ListSellerOrders(ctx, seller.ID)
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.Equal(t, "buyer", theirs[0].BuyerUsername)

	none, err := orders.ListSellerOrders(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	orders := newOrderService(e)
	buyer := testutil.SeedUser(t, e.db, "buyer", models.RoleBuyer)
	seller := testutil.SeedUser(t, e.db, "seller", models.RoleSeller)
	other := testutil.SeedUser(t, e.db, "other", models.RoleSeller)
	admin := testutil.SeedUser(t, e.db, "admin", models.RoleAdmin)
	product := testutil.SeedProduct(t, e.db, testutil.ProductSeed{SellerID: seller.ID, Price: "50", Stock: 5, Approved: true})

	order := &models.Order{BuyerID: buyer.ID, ProductID: product.ID, Quantity: 1, TotalPrice: decimal.NewFromInt(50), Status: models.OrderPending}
	require.NoError(t, e.orders.Create(ctx, order))

	asSeller := services.Principal{UserID: seller.ID, Role: models.RoleSeller}
	asOther := services.Principal{UserID: other.ID, Role: models.RoleSeller}
	asAdmin := services.Principal{UserID: admin.ID, Role: models.RoleAdmin}

	err := orders.UpdateStatus(ctx, order.ID, models.OrderPending, asSeller)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	err = orders.UpdateStatus(ctx, order.ID, models.OrderCancelled, asAdmin)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	err = orders.UpdateStatus(ctx, order.ID, models.OrderShipped, asOther)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	err = orders.UpdateStatus(ctx, 9999, models.OrderShipped, asAdmin)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	require.NoError(t, orders.UpdateStatus(ctx, order.ID, models.OrderShipped, asSeller))
	stored, err := e.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, stored.Status)

	require.NoError(t, orders.UpdateStatus(ctx, order.ID, models.OrderDelivered, asAdmin))

	updates := e.events.OfType(events.OrderStatusUpdate)
	require.Len(t, updates, 2)
	assert.Equal(t, "Shipped", updates[0].Status)
	assert.Equal(t, "Delivered", updates[1].Status)
}
