package rabbitmq

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"kasir/internal/models"

	amqp "github.com/streadway/amqp"
)

// paymentEventsQueue carries downstream notifications (email, dashboards)
// emitted after the engine commits a state change.
const paymentEventsQueue = "payment_events"

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient creates a new RabbitMQ client. It connects to RabbitMQ, sets up
// a channel and declares the durable payment events queue.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		paymentEventsQueue, // name
		true,               // durable (persists messages across broker restarts)
		false,              // delete when unused
		false,              // exclusive
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s queue: %w", paymentEventsQueue, err)
	}

	log.Printf("RabbitMQ client connected and %s queue declared.", paymentEventsQueue)

	return &Client{
		conn:    conn,
		channel: ch,
	}, nil
}

// Close closes the RabbitMQ connection and channel.
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

// Publish sends a persistent message to the payment events queue. The event
// name travels in the message Type property.
func (c *Client) Publish(eventType string, body []byte) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	err := c.channel.Publish(
		"",                 // exchange: default exchange
		paymentEventsQueue, // routing key: the queue name
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         eventType,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// PublishOrderStatusChanged emits an order status-change event consumed by
// the notification collaborator (email/dashboard).
func (c *Client) PublishOrderStatusChanged(orderReference string, from, to models.OrderStatus) error {
	body, err := json.Marshal(map[string]interface{}{
		"event":     "order.status_changed",
		"reference": orderReference,
		"from":      from,
		"to":        to,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal status event: %w", err)
	}
	return c.Publish("order.status_changed", body)
}

// PublishCommissionCreated emits a commission-created event.
func (c *Client) PublishCommissionCreated(commission *models.Commission) error {
	body, err := json.Marshal(map[string]interface{}{
		"event":             "commission.created",
		"order_reference":   commission.OrderReference,
		"commission_amount": commission.CommissionAmount,
		"vendor_amount":     commission.VendorAmount,
		"platform_amount":   commission.PlatformAmount,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal commission event: %w", err)
	}
	return c.Publish("commission.created", body)
}

// ConsumePaymentEvents starts a goroutine that feeds queue messages to the
// handler, acking on success and nacking (with requeue) on error.
func (c *Client) ConsumePaymentEvents(messageHandler func(msg amqp.Delivery) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	queue, err := c.channel.QueueDeclare(
		paymentEventsQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue for consuming: %w", err)
	}

	msgs, err := c.channel.Consume(
		queue.Name, // queue
		"",         // consumer tag
		false,      // auto-ack: manual acknowledgement
		false,      // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			if err := messageHandler(msg); err != nil {
				log.Printf("Error processing message %d: %v", msg.DeliveryTag, err)
				if requeueErr := msg.Nack(false, true); requeueErr != nil {
					log.Printf("Error nacking message %d: %v", msg.DeliveryTag, requeueErr)
				}
			} else {
				if ackErr := msg.Ack(false); ackErr != nil {
					log.Printf("Error acking message %d: %v", msg.DeliveryTag, ackErr)
				}
			}
		}
	}()

	return nil
}
