package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"flashdeal/internal/events"

	"github.com/google/uuid"
	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

// QueueName is the durable queue every marketplace event is routed to.
const QueueName = "marketplace_events"

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	mu      sync.Mutex // serializes publishes on the shared channel
	log     *zap.Logger
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ, opens a channel and declares the event queue.
func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareQueue(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log = log.Named("rabbitmq")
	log.Info("connected", zap.String("queue", QueueName))

	return &Client{conn: conn, channel: ch, log: log}, nil
}

func declareQueue(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(
		QueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s: %w", QueueName, err)
	}
	return nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// Publish sends event as a persistent JSON message on the event queue.
func (c *Client) Publish(ctx context.Context, event events.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := encode(event)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}
	if err := c.channel.Publish("", QueueName, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}

	c.log.Debug("event published", zap.String("type", string(event.Type)), zap.String("message_id", msg.MessageId))
	return nil
}

func encode(event events.Event) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		Type:         string(event.Type),
		MessageId:    uuid.NewString(),
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	}, nil
}

// Handler processes one decoded event. A returned error requeues the message.
type Handler func(ctx context.Context, event events.Event) error

// Consume delivers queued events to handler until ctx is done or the channel
// closes. Messages that cannot be decoded are dropped without requeue.
func (c *Client) Consume(ctx context.Context, handler Handler) error {
	msgs, err := c.channel.Consume(
		QueueName,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.log.Info("waiting for events", zap.String("queue", QueueName))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.dispatch(ctx, msg, handler)
		}
	}
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (c *Client) dispatch(ctx context.Context, msg amqp.Delivery, handler Handler) {
	settle(ctx, c.log, &msg, msg.Body, msg.MessageId, handler)
}

func settle(ctx context.Context, log *zap.Logger, ack acknowledger, body []byte, messageID string, handler Handler) {
	var event events.Event
	if err := json.Unmarshal(body, &event); err != nil {
		log.Warn("dropping undecodable message", zap.String("message_id", messageID), zap.Error(err))
		if err := ack.Nack(false, false); err != nil {
			log.Error("nack failed", zap.Error(err))
		}
		return
	}

	if err := handler(ctx, event); err != nil {
		log.Error("event handler failed", zap.String("message_id", messageID), zap.String("type", string(event.Type)), zap.Error(err))
		if err := ack.Nack(false, true); err != nil {
			log.Error("nack failed", zap.Error(err))
		}
		return
	}
	if err := ack.Ack(false); err != nil {
		log.Error("ack failed", zap.Error(err))
	}
}

// LogHandler returns a handler that records each event. It stands in for the
// socket fan-out that pushes events to connected clients.
func LogHandler(log *zap.Logger) Handler {
	return func(_ context.Context, event events.Event) error {
		log.Info("event received",
			zap.String("type", string(event.Type)),
			zap.Uint("order_id", event.OrderID),
			zap.Uint("product_id", event.ProductID),
			zap.String("status", event.Status),
		)
		return nil
	}
}
