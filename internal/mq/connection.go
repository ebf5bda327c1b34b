package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	minRedialDelay = time.Second
	maxRedialDelay = 30 * time.Second
)

// Connection держит одно AMQP соединение и один канал.
//
// При разрыве соединение восстанавливается в фоне; подписчики
// Reconnected получают сигнал после каждого успешного переподключения.
type Connection struct {
	url    string
	logger *slog.Logger

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool

	done        chan struct{}
	reconnected chan struct{}
}

// Dial подключается к брокеру по url и запускает наблюдение за соединением.
func Dial(url string, logger *slog.Logger) (*Connection, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Connection{
		url:         url,
		logger:      logger.With("component", "amqp"),
		done:        make(chan struct{}),
		reconnected: make(chan struct{}, 1),
	}

	conn, err := c.open()
	if err != nil {
		return nil, err
	}
	go c.supervise(conn)

	c.logger.Info("connected to broker")
	return c, nil
}

// open устанавливает соединение и канал и публикует их в c.
func (c *Connection) open() (*amqp.Connection, error) {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		_ = conn.Close()
		return nil, ErrClosed
	}
	c.conn, c.channel = conn, ch
	return conn, nil
}

// supervise ждёт разрыва conn и переподключается, пока не вызван Close.
func (c *Connection) supervise(conn *amqp.Connection) {
	for {
		lost := conn.NotifyClose(make(chan *amqp.Error, 1))
		select {
		case <-c.done:
			return
		case reason := <-lost:
			c.mu.Lock()
			c.channel = nil
			c.mu.Unlock()
			c.logger.Warn("connection lost", "reason", reason)
		}

		next, ok := c.redial()
		if !ok {
			return
		}
		conn = next

		select {
		case c.reconnected <- struct{}{}:
		default:
		}
	}
}

// redial повторяет open с экспоненциальной задержкой.
func (c *Connection) redial() (*amqp.Connection, bool) {
	delay := minRedialDelay
	for {
		select {
		case <-c.done:
			return nil, false
		case <-time.After(delay):
		}

		conn, err := c.open()
		if err == nil {
			c.logger.Info("reconnected to broker")
			return conn, true
		}
		if errors.Is(err, ErrClosed) {
			return nil, false
		}
		c.logger.Warn("reconnect failed", "delay", delay, "error", err)
		delay = min(delay*2, maxRedialDelay)
	}
}

// Channel возвращает текущий канал или nil во время переподключения.
func (c *Connection) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// Reconnected сигнализирует о восстановлении соединения.
func (c *Connection) Reconnected() <-chan struct{} {
	return c.reconnected
}

// Healthy сообщает, открыт ли канал.
func (c *Connection) Healthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.conn.IsClosed() && c.channel != nil
}

// WithChannel вызывает fn с текущим каналом.
func (c *Connection) WithChannel(ctx context.Context, fn func(ch *amqp.Channel) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ch := c.Channel()
	if ch == nil {
		return ErrNoChannel
	}
	return fn(ch)
}

// Close закрывает канал и соединение. Повторный вызов ничего не делает.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)

	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}
	c.logger.Info("broker connection closed")
	return errors.Join(errs...)
}
