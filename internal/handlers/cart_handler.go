package handlers

import (
	"flashdeal/internal/middleware"
	"flashdeal/internal/models"
	"flashdeal/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CartHandler serves the buyer's cart.
type CartHandler struct {
	service *services.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{service: service}
}

// RegisterRoutes registers the buyer-only cart routes.
func (h *CartHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	cart := router.Group("/cart", auth, middleware.RequireRoles(models.RoleBuyer))
	cart.Get("/", h.HandleGet)
	cart.Post("/", h.HandleUpsert)
	cart.Delete("/:productId", h.HandleRemove)
	cart.Delete("/", h.HandleClear)
}

// CartItemRequest is the body of POST /cart.
type CartItemRequest struct {
	ProductID uint `json:"product_id" validate:"required,min=1"`
	Quantity  int  `json:"quantity" validate:"required,min=1"`
}

func (h *CartHandler) HandleGet(c *fiber.Ctx) error {
	p, _ := middleware.PrincipalFrom(c)
	lines, err := h.service.GetCart(c.UserContext(), p.UserID)
	if err != nil {
		return err
	}
	return c.JSON(lines)
}

// HandleUpsert sets the quantity of a product in the cart, adding the line
// when it is new.
func (h *CartHandler) HandleUpsert(c *fiber.Ctx) error {
	p, _ := middleware.PrincipalFrom(c)
	var req CartItemRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.service.UpsertItem(c.UserContext(), p.UserID, req.ProductID, req.Quantity); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "Cart updated successfully")
}

func (h *CartHandler) HandleRemove(c *fiber.Ctx) error {
	p, _ := middleware.PrincipalFrom(c)
	productID, err := paramID(c, "productId")
	if err != nil {
		return err
	}
	if err := h.service.RemoveItem(c.UserContext(), p.UserID, productID); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "Product removed from cart successfully")
}

func (h *CartHandler) HandleClear(c *fiber.Ctx) error {
	p, _ := middleware.PrincipalFrom(c)
	if err := h.service.Clear(c.UserContext(), p.UserID); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "Cart cleared successfully")
}
