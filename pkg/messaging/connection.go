package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/latchjack/burger/pkg/config"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Connection wraps a RabbitMQ connection and channel, reconnecting when the
// broker drops it.
type Connection struct {
	url      string
	exchange string
	logger   *zap.Logger

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

func Dial(cfg *config.RabbitMQConfig, logger *zap.Logger) (*Connection, error) {
	c := &Connection{
		url:      cfg.URL,
		exchange: cfg.Exchange,
		logger:   logger,
	}
	if err := c.connect(); err != nil {
		return nil, fmt.Errorf("failed to establish initial connection: %w", err)
	}
	return c, nil
}

// connect dials with a linear backoff and declares the exchange.
func (c *Connection) connect() error {
	const maxRetries = 5
	var err error

	for i := 0; i < maxRetries; i++ {
		if err = c.dial(); err == nil {
			return nil
		}
		if i < maxRetries-1 {
			wait := time.Duration(i+1) * 2 * time.Second
			c.logger.Warn("Failed to connect to RabbitMQ, retrying",
				zap.Duration("wait", wait), zap.Error(err))
			time.Sleep(wait)
		}
	}
	return fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxRetries, err)
}

func (c *Connection) dial() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}
	err = ch.ExchangeDeclare(
		c.exchange, // name
		"topic",    // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare %s exchange: %w", c.exchange, err)
	}
	c.conn = conn
	c.channel = ch
	return nil
}

func (c *Connection) Publish(ctx context.Context, routingKey string, msg amqp091.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || c.conn.IsClosed() {
		c.close()
		if err := c.connect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}
	return c.channel.PublishWithContext(
		ctx,
		c.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		msg,
	)
}

func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.close()
}

func (c *Connection) close() error {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}
