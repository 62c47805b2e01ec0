package handlers

import (
	"flashdeal/internal/middleware"
	"flashdeal/internal/models"
	"flashdeal/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// SignatureHeader carries the provider's HMAC of the webhook body.
const SignatureHeader = "x-razorpay-signature"

// PaymentHandler exposes the payment gateway adapter.
type PaymentHandler struct {
	service *services.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// RegisterRoutes registers the payment routes. The webhook is authenticated
// by its signature alone.
func (h *PaymentHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	buyer := middleware.RequireRoles(models.RoleBuyer)
	payments := router.Group("/payments")
	payments.Post("/webhook", h.HandleWebhook)
	payments.Post("/create-order", auth, buyer, h.HandleCreateOrder)
	payments.Get("/key", auth, buyer, h.HandleKey)
	payments.Post("/verify", auth, buyer, h.HandleVerify)
}

// CreateOrderRequest is the body of POST /payments/create-order.
type CreateOrderRequest struct {
	OrderID  uint            `json:"order_id" validate:"required,min=1"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency" validate:"omitempty,oneof=INR"`
}

// HandleCreateOrder opens a gateway order for one of the buyer's orders.
func (h *PaymentHandler) HandleCreateOrder(c *fiber.Ctx) error {
	p, _ := middleware.PrincipalFrom(c)
	var req CreateOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	order, err := h.service.CreateGatewayOrder(c.UserContext(), p.UserID, services.GatewayOrderInput{
		OrderID:  req.OrderID,
		Amount:   req.Amount,
		Currency: req.Currency,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":       "Razorpay order created",
		"razorpayOrder": order,
	})
}

// HandleKey returns the public key the checkout widget needs.
func (h *PaymentHandler) HandleKey(c *fiber.Ctx) error {
	key, err := h.service.PublicKey()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"key": key})
}

// VerifyRequest is what the checkout widget hands back after payment.
type VerifyRequest struct {
	GatewayOrderID   string `json:"razorpay_order_id" validate:"required"`
	GatewayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature        string `json:"razorpay_signature" validate:"required"`
	OrderID          uint   `json:"order_id" validate:"required,min=1"`
}

// HandleVerify checks the client callback signature and records the result.
func (h *PaymentHandler) HandleVerify(c *fiber.Ctx) error {
	p, _ := middleware.PrincipalFrom(c)
	var req VerifyRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	err := h.service.VerifyClientCallback(c.UserContext(), p.UserID, services.CallbackInput{
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
		OrderID:          req.OrderID,
	})
	if err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "Payment verified successfully")
}

// HandleWebhook applies a provider event. The signature covers the raw body,
// so it is verified before any parsing.
func (h *PaymentHandler) HandleWebhook(c *fiber.Ctx) error {
	if err := h.service.HandleWebhook(c.UserContext(), c.Body(), c.Get(SignatureHeader)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusOK)
}
