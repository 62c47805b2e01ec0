package handlers

import (
	"encoding/json"
	"fmt"

	"flashdeal/internal/middleware"
	"flashdeal/internal/models"
	"flashdeal/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	buyer := middleware.RequireRoles(models.RoleBuyer)
	orderRoutes := router.Group("/orders", auth)
	orderRoutes.Post("/", buyer, h.HandlePlaceOrder)
	orderRoutes.Get("/", buyer, h.HandleBuyerOrders)
	orderRoutes.Get("/seller", middleware.RequireRoles(models.RoleSeller), h.HandleSellerOrders)
	orderRoutes.Put("/:id/status", middleware.RequireRoles(models.RoleSeller, models.RoleAdmin), h.HandleUpdateOrderStatus)
}

// HandlePlaceOrder turns the buyer's cart into one order per line.
func (h *OrderHandler) HandlePlaceOrder(c *fiber.Ctx) error {
	p, _ := middleware.PrincipalFrom(c)
	res, err := h.service.PlaceOrder(c.UserContext(), p.UserID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":         "Order placed successfully",
		"orderIds":        res.OrderIDs,
		"totalOrderPrice": json.Number(res.TotalOrderPrice.StringFixed(2)),
	})
}

// HandleBuyerOrders lists the caller's orders, newest first.
func (h *OrderHandler) HandleBuyerOrders(c *fiber.Ctx) error {
	p, _ := middleware.PrincipalFrom(c)
	orders, err := h.service.ListBuyerOrders(c.UserContext(), p.UserID)
	if err != nil {
		return err
	}
	return c.JSON(orders)
}

// HandleSellerOrders lists orders placed for the caller's products.
func (h *OrderHandler) HandleSellerOrders(c *fiber.Ctx) error {
	p, _ := middleware.PrincipalFrom(c)
	orders, err := h.service.ListSellerOrders(c.UserContext(), p.UserID)
	if err != nil {
		return err
	}
	return c.JSON(orders)
}

// StatusRequest is the body of PUT /orders/:id/status.
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// HandleUpdateOrderStatus updates the status of an existing order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	p, _ := middleware.PrincipalFrom(c)
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req StatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.service.UpdateStatus(c.UserContext(), id, models.OrderStatus(req.Status), p); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, fmt.Sprintf("Order status updated to %s", req.Status))
}
