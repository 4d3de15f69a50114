package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/streadway/amqp"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	// Exchange is the topic exchange every gallery event is published to.
	Exchange = "gallery.events"
	// ImageEventsQueue receives all "image.*" events.
	ImageEventsQueue = "image_events"
)

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *zap.Logger

	// amqp.Channel is not safe for concurrent publishing.
	mu sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ, opens a channel and declares the event
// exchange together with the image events queue.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	logger.Info("RabbitMQ client connected", zap.String("exchange", Exchange), zap.String("queue", ImageEventsQueue))

	return &Client{
		conn:    conn,
		channel: ch,
		logger:  logger,
	}, nil
}

func declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(
		Exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-delete
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", Exchange, err)
	}

	if _, err := ch.QueueDeclare(
		ImageEventsQueue, // name
		true,             // durable
		false,            // delete when unused
		false,            // exclusive
		false,            // no-wait
		nil,              // arguments
	); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", ImageEventsQueue, err)
	}

	if err := ch.QueueBind(ImageEventsQueue, "image.*", Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", ImageEventsQueue, err)
	}
	return nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var err error
	if c.channel != nil {
		if cerr := c.channel.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("failed to close channel: %w", cerr))
		}
	}
	if c.conn != nil {
		if cerr := c.conn.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("failed to close connection: %w", cerr))
		}
	}
	return err
}

// Publish sends a persistent JSON message to the event exchange.
func (c *Client) Publish(ctx context.Context, routingKey string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.channel.Publish(
		Exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	c.logger.Debug("published event", zap.String("routingKey", routingKey))
	return nil
}

// ConsumeEvents delivers messages from the image events queue to handler
// until ctx is done or the channel closes. Messages are acked when handler
// returns nil and requeued otherwise; a message that fails twice is dropped.
func (c *Client) ConsumeEvents(ctx context.Context, handler func(msg amqp.Delivery) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		ImageEventsQueue, // queue
		"",               // consumer tag
		false,            // auto-ack
		false,            // exclusive
		false,            // no-local
		false,            // no-wait
		nil,              // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("waiting for image events", zap.String("queue", ImageEventsQueue))

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("consumer channel closed")
			}
			c.handle(msg, handler)
		}
	}
}

func (c *Client) handle(msg amqp.Delivery, handler func(msg amqp.Delivery) error) {
	if err := handler(msg); err != nil {
		c.logger.Error("failed to process event",
			zap.Uint64("deliveryTag", msg.DeliveryTag),
			zap.String("routingKey", msg.RoutingKey),
			zap.Error(err))
		if nackErr := msg.Nack(false, !msg.Redelivered); nackErr != nil {
			c.logger.Error("failed to nack event", zap.Uint64("deliveryTag", msg.DeliveryTag), zap.Error(nackErr))
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		c.logger.Error("failed to ack event", zap.Uint64("deliveryTag", msg.DeliveryTag), zap.Error(ackErr))
	}
}
