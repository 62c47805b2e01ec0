package services

import (
	"context"
	"fmt"

	"flashdeal/internal/apperr"
	"flashdeal/internal/events"
	"flashdeal/internal/models"
	"flashdeal/internal/repositories"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PlacementResult is the outcome of a checkout: one order per cart line.
type PlacementResult struct {
	OrderIDs        []uint          `json:"orderIds"`
	TotalOrderPrice decimal.Decimal `json:"totalOrderPrice"`
}

// OrderService handles business logic related to orders.
type OrderService struct {
	tx        repositories.TransactionManager
	orders    repositories.OrderRepository
	products  repositories.ProductRepository
	cache     ListingCache
	publisher events.Publisher
	log       *zap.Logger
}

// NewOrderService creates a new OrderService. cache may be nil.
func NewOrderService(tx repositories.TransactionManager, orders repositories.OrderRepository, products repositories.ProductRepository, cache ListingCache, publisher events.Publisher, log *zap.Logger) *OrderService {
	return &OrderService{
		tx:        tx,
		orders:    orders,
		products:  products,
		cache:     cache,
		publisher: publisher,
		log:       log.Named("orders"),
	}
}

// LineTotal is the discounted price of one cart line, rounded to cents.
func LineTotal(price, discount decimal.Decimal, quantity int) decimal.Decimal {
	return models.DiscountedPrice(price, discount).Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// PlaceOrder turns the buyer's cart into one Pending order per line, deducts
// stock and empties the cart. Either every step commits or none does.
func (s *OrderService) PlaceOrder(ctx context.Context, buyerID uint) (*PlacementResult, error) {
	result := &PlacementResult{OrderIDs: []uint{}, TotalOrderPrice: decimal.Zero}
	var created []models.Order

	err := s.tx.Execute(ctx, func(repos repositories.RepositoryFactory) error {
		lines, err := repos.Carts().Lines(ctx, buyerID)
		if err != nil {
			return apperr.Internal("failed to load cart", err)
		}
		if len(lines) == 0 {
			return apperr.BusinessRule("Cart is empty")
		}

		for _, line := range lines {
			lineTotal := LineTotal(line.Price, line.Discount, line.Quantity)
			result.TotalOrderPrice = result.TotalOrderPrice.Add(lineTotal)

			if line.Stock < line.Quantity {
				return insufficientStock(line.ProductID)
			}

			order := models.Order{
				BuyerID:    buyerID,
				ProductID:  line.ProductID,
				Quantity:   line.Quantity,
				TotalPrice: lineTotal,
				Status:     models.OrderPending,
			}
			if err := repos.Orders().Create(ctx, &order); err != nil {
				return apperr.Internal("failed to create order", err)
			}

			// The conditional update is the only guard against a concurrent
			// placement that passed the same stock check.
			n, err := repos.Products().DeductStock(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return apperr.Internal("failed to deduct stock", err)
			}
			if n == 0 {
				return insufficientStock(line.ProductID)
			}

			result.OrderIDs = append(result.OrderIDs, order.ID)
			created = append(created, order)
		}

		cart, err := repos.Carts().FindByBuyer(ctx, buyerID)
		if err != nil {
			return apperr.Internal("failed to load cart", err)
		}
		if _, err := repos.Carts().ClearItems(ctx, cart.ID); err != nil {
			return apperr.Internal("failed to clear cart", err)
		}
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			s.log.Error("order placement failed", zap.Uint("buyer_id", buyerID), zap.Error(err))
		}
		return nil, err
	}

	// Listings carry stock, so cached pages are stale once placement commits.
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}

	s.log.Info("orders placed",
		zap.Uint("buyer_id", buyerID),
		zap.Uints("order_ids", result.OrderIDs),
		zap.String("total", result.TotalOrderPrice.StringFixed(2)),
	)
	for _, order := range created {
		event := events.New(events.NewOrder)
		event.OrderID = order.ID
		event.ProductID = order.ProductID
		event.Status = string(order.Status)
		event.Payload = map[string]interface{}{
			"buyer_id":    order.BuyerID,
			"quantity":    order.Quantity,
			"total_price": order.TotalPrice.StringFixed(2),
		}
		publish(ctx, s.log, s.publisher, event)
	}
	return result, nil
}

func insufficientStock(productID uint) error {
	return apperr.BusinessRule(fmt.Sprintf("Insufficient stock for product %d", productID))
}

// ListBuyerOrders returns the buyer's orders, newest first.
func (s *OrderService) ListBuyerOrders(ctx context.Context, buyerID uint) ([]models.BuyerOrderView, error) {
	orders, err := s.orders.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, apperr.Internal("failed to list orders", err)
	}
	return orders, nil
}

// ListSellerOrders returns the orders placed for the seller's products.
func (s *OrderService) ListSellerOrders(ctx context.Context, sellerID uint) ([]models.SellerOrderView, error) {
	orders, err := s.orders.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, apperr.Internal("failed to list seller orders", err)
	}
	return orders, nil
}

var sellerSettableStatuses = map[models.OrderStatus]bool{
	models.OrderConfirmed: true,
	models.OrderShipped:   true,
	models.OrderDelivered: true,
}

// UpdateStatus moves an order to Confirmed, Shipped or Delivered. A seller
// may only update orders for their own products.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uint, status models.OrderStatus, actor Principal) error {
	if !sellerSettableStatuses[status] {
		return apperr.Validation(fmt.Sprintf("invalid order status: %s", status))
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errNotFound(err) {
			return apperr.NotFound("Order not found")
		}
		return apperr.Internal("failed to load order", err)
	}
	if actor.Role == models.RoleSeller {
		product, err := s.products.GetByID(ctx, order.ProductID)
		if err != nil && !errNotFound(err) {
			return apperr.Internal("failed to load product", err)
		}
		if product == nil || product.SellerID != actor.UserID {
			return apperr.NotFound("Order not found")
		}
	}

	n, err := s.orders.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return apperr.Internal("failed to update order status", err)
	}
	if n == 0 {
		return apperr.NotFound("Order not found")
	}

	event := events.New(events.OrderStatusUpdate)
	event.OrderID = orderID
	event.ProductID = order.ProductID
	event.Status = string(status)
	event.Payload = map[string]interface{}{"buyer_id": order.BuyerID}
	publish(ctx, s.log, s.publisher, event)
	return nil
}
