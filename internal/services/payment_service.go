package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"flashdeal/internal/apperr"
	"flashdeal/internal/config"
	"flashdeal/internal/events"
	"flashdeal/internal/gateway"
	"flashdeal/internal/models"
	"flashdeal/internal/repositories"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	paymentMethod   = "Razorpay"
	defaultCurrency = "INR"
)

// GatewayOrderInput asks for a remote order covering an internal order.
type GatewayOrderInput struct {
	OrderID  uint
	Amount   decimal.Decimal
	Currency string
}

// CallbackInput is what the hosted checkout hands back to the client.
type CallbackInput struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
	OrderID          uint
}

// PaymentService creates gateway orders and reconciles payment state from
// client callbacks and provider webhooks. Payments are always addressed by
// the internal order id.
type PaymentService struct {
	tx        repositories.TransactionManager
	orders    repositories.OrderRepository
	payments  repositories.PaymentRepository
	gateway   gateway.Client
	keys      config.RazorpayConfig
	publisher events.Publisher
	log       *zap.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	tx repositories.TransactionManager,
	orders repositories.OrderRepository,
	payments repositories.PaymentRepository,
	client gateway.Client,
	keys config.RazorpayConfig,
	publisher events.Publisher,
	log *zap.Logger,
) *PaymentService {
	return &PaymentService{
		tx:        tx,
		orders:    orders,
		payments:  payments,
		gateway:   client,
		keys:      keys,
		publisher: publisher,
		log:       log.Named("payments"),
	}
}

// CreateGatewayOrder mints a remote order tagged with the internal order id
// and records a Pending payment. The order status is left untouched.
func (s *PaymentService) CreateGatewayOrder(ctx context.Context, buyerID uint, in GatewayOrderInput) (*gateway.Order, error) {
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	if currency != defaultCurrency {
		return nil, apperr.Validation(`"currency" must be [INR]`)
	}
	if !in.Amount.IsPositive() {
		return nil, apperr.Validation(`"amount" must be a positive number`)
	}
	if err := s.ownedOrder(ctx, in.OrderID, buyerID); err != nil {
		return nil, err
	}

	remote, err := s.gateway.CreateOrder(ctx, gateway.OrderRequest{
		Amount:   in.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
		Currency: currency,
		Receipt:  fmt.Sprintf("receipt_order_%d", in.OrderID),
		Notes:    map[string]string{"internal_order_id": strconv.FormatUint(uint64(in.OrderID), 10)},
	})
	if err != nil {
		return nil, apperr.Internal("failed to create gateway order", err)
	}

	payment := &models.Payment{
		OrderID:       in.OrderID,
		PaymentMethod: paymentMethod,
		Amount:        in.Amount.Round(2),
		PaymentStatus: models.PaymentPending,
		PaymentDate:   time.Now(),
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, apperr.Internal("failed to record payment", err)
	}

	s.log.Info("gateway order created", zap.Uint("order_id", in.OrderID), zap.String("gateway_order_id", remote.ID))
	return remote, nil
}

func (s *PaymentService) ownedOrder(ctx context.Context, orderID, buyerID uint) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errNotFound(err) {
			return apperr.NotFound("Order not found")
		}
		return apperr.Internal("failed to load order", err)
	}
	if order.BuyerID != buyerID {
		return apperr.NotFound("Order not found")
	}
	return nil
}

// PublicKey returns the key id the client needs for hosted checkout.
func (s *PaymentService) PublicKey() (string, error) {
	if s.keys.KeyID == "" {
		return "", apperr.Internal("Razorpay key not configured", nil)
	}
	return s.keys.KeyID, nil
}

// VerifyClientCallback checks the checkout signature. A match marks the
// payment Completed; a mismatch marks it Failed and returns SignatureMismatch.
// The order stays Pending either way; only a refund webhook moves it.
func (s *PaymentService) VerifyClientCallback(ctx context.Context, buyerID uint, in CallbackInput) error {
	if s.keys.KeySecret == "" {
		return apperr.Internal("Razorpay key secret not configured", nil)
	}
	if err := s.ownedOrder(ctx, in.OrderID, buyerID); err != nil {
		return err
	}

	payload := gateway.CallbackPayload(in.GatewayOrderID, in.GatewayPaymentID)
	if gateway.VerifySignature(s.keys.KeySecret, payload, in.Signature) {
		return s.setPaymentStatus(ctx, in.OrderID, models.PaymentCompleted)
	}

	s.log.Warn("payment signature mismatch", zap.Uint("order_id", in.OrderID), zap.String("gateway_order_id", in.GatewayOrderID))
	if err := s.setPaymentStatus(ctx, in.OrderID, models.PaymentFailed); err != nil {
		return err
	}
	return apperr.SignatureMismatch("Payment verification failed")
}

func (s *PaymentService) setPaymentStatus(ctx context.Context, orderID uint, status models.PaymentStatus) error {
	if _, err := s.payments.UpdateStatusByOrderID(ctx, orderID, status); err != nil {
		return apperr.Internal("failed to update payment status", err)
	}
	s.publishPayment(ctx, orderID, status)
	return nil
}

func (s *PaymentService) publishPayment(ctx context.Context, orderID uint, status models.PaymentStatus) {
	event := events.New(events.PaymentStatusUpdate)
	event.OrderID = orderID
	event.Status = string(status)
	publish(ctx, s.log, s.publisher, event)
}

// Webhook event names the adapter reacts to.
const (
	EventPaymentCaptured = "payment.captured"
	EventOrderPaid       = "order.paid"
	EventPaymentFailed   = "payment.failed"
	EventRefundProcessed = "refund.processed"
	EventRefundCreated   = "refund.created"
)

type webhookEntity struct {
	Entity struct {
		Notes json.RawMessage `json:"notes"`
	} `json:"entity"`
}

type webhookBody struct {
	Event   string `json:"event"`
	Payload struct {
		Payment *webhookEntity `json:"payment"`
		Order   *webhookEntity `json:"order"`
	} `json:"payload"`
}

// internalOrderID reads notes.internal_order_id from the payment entity,
// then the order entity. ok is false when neither carries a positive id.
func (b *webhookBody) internalOrderID() (uint, bool) {
	for _, e := range []*webhookEntity{b.Payload.Payment, b.Payload.Order} {
		if e == nil {
			continue
		}
		if id, ok := noteOrderID(e.Entity.Notes); ok {
			return id, true
		}
	}
	return 0, false
}

func noteOrderID(raw json.RawMessage) (uint, bool) {
	// Notes arrive as [] when empty, so anything but an object is skipped.
	// Numbers are kept as json.Number so large ids keep their digits.
	var notes map[string]interface{}
	if len(raw) == 0 {
		return 0, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if dec.Decode(&notes) != nil {
		return 0, false
	}

	var text string
	switch v := notes["internal_order_id"].(type) {
	case string:
		text = strings.TrimSpace(v)
	case json.Number:
		text = v.String()
	default:
		return 0, false
	}
	id, err := strconv.ParseUint(text, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// HandleWebhook verifies the signature over the raw body and applies the
// event. Deliveries without a usable internal order id are acknowledged and
// ignored so the provider stops retrying them.
func (s *PaymentService) HandleWebhook(ctx context.Context, rawBody []byte, signature string) error {
	if s.keys.WebhookSecret == "" {
		return apperr.Internal("webhook secret not configured", nil)
	}
	if !gateway.VerifySignature(s.keys.WebhookSecret, rawBody, signature) {
		s.log.Warn("invalid webhook signature")
		return apperr.SignatureMismatch("Invalid webhook signature")
	}

	var body webhookBody
	if err := json.Unmarshal(rawBody, &body); err != nil {
		return apperr.Validation("Malformed webhook payload")
	}

	orderID, ok := body.internalOrderID()
	if !ok {
		s.log.Warn("webhook without internal_order_id in notes", zap.String("event", body.Event))
		return nil
	}
	log := s.log.With(zap.String("event", body.Event), zap.Uint("order_id", orderID))

	switch body.Event {
	case EventPaymentCaptured, EventOrderPaid:
		if err := s.setPaymentStatus(ctx, orderID, models.PaymentCompleted); err != nil {
			return err
		}
	case EventPaymentFailed:
		if err := s.setPaymentStatus(ctx, orderID, models.PaymentFailed); err != nil {
			return err
		}
	case EventRefundProcessed, EventRefundCreated:
		if err := s.refund(ctx, orderID); err != nil {
			return err
		}
	default:
		log.Debug("webhook event ignored")
		return nil
	}
	log.Info("webhook applied")
	return nil
}

// refund marks the payment Refunded and cancels the order together.
func (s *PaymentService) refund(ctx context.Context, orderID uint) error {
	err := s.tx.Execute(ctx, func(repos repositories.RepositoryFactory) error {
		if _, err := repos.Payments().UpdateStatusByOrderID(ctx, orderID, models.PaymentRefunded); err != nil {
			return err
		}
		_, err := repos.Orders().UpdateStatus(ctx, orderID, models.OrderCancelled)
		return err
	})
	if err != nil {
		return apperr.Internal("failed to apply refund", err)
	}

	s.publishPayment(ctx, orderID, models.PaymentRefunded)
	event := events.New(events.OrderStatusUpdate)
	event.OrderID = orderID
	event.Status = string(models.OrderCancelled)
	publish(ctx, s.log, s.publisher, event)
	return nil
}
