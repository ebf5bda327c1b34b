package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"
)

// Handler обрабатывает одно сообщение.
//
// nil — ack. Ошибка — nack без requeue, сообщение уходит в DLQ очереди:
// run не идемпотентен относительно внешнего сервиса, повторять его
// автоматически нельзя.
type Handler func(ctx context.Context, d *Delivery) error

// Delivery — полученное сообщение.
type Delivery struct {
	Message Message
	Raw     amqp.Delivery
}

// Decode разбирает payload сообщения в T.
func Decode[T any](d *Delivery) (T, error) {
	var out T
	if len(d.Message.Payload) == 0 {
		return out, fmt.Errorf("%w: empty payload", ErrBadMessage)
	}
	if err := json.Unmarshal(d.Message.Payload, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	return out, nil
}

// ConsumerConfig — настройки Consumer.
type ConsumerConfig struct {
	Queue   Queue
	Handler Handler

	// Prefetch — сколько неподтверждённых сообщений держит брокер.
	Prefetch int

	// Pool — пул, в котором выполняются обработчики. Лимит пула
	// ограничивает параллелизм; nil означает обработку по одному.
	Pool *errgroup.Group

	Logger *slog.Logger
}

// Consumer читает очередь и передаёт сообщения обработчику.
type Consumer struct {
	conn     *Connection
	queue    Queue
	handler  Handler
	prefetch int
	pool     *errgroup.Group
	logger   *slog.Logger
}

// NewConsumer создаёт Consumer.
func NewConsumer(conn *Connection, cfg ConsumerConfig) *Consumer {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Pool == nil {
		cfg.Pool = new(errgroup.Group)
		cfg.Pool.SetLimit(1)
	}
	return &Consumer{
		conn:     conn,
		queue:    cfg.Queue,
		handler:  cfg.Handler,
		prefetch: cfg.Prefetch,
		pool:     cfg.Pool,
		logger:   cfg.Logger.With("queue", string(cfg.Queue)),
	}
}

// Run потребляет очередь до отмены ctx. После разрыва соединения
// подписка восстанавливается по сигналу Reconnected.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		deliveries, err := c.subscribe()
		if err != nil {
			c.logger.Error("failed to subscribe", "error", err)
		} else {
			c.logger.Info("consumer started")
			c.drain(ctx, deliveries)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("subscription lost, waiting for reconnect")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.conn.Reconnected():
		}
	}
}

func (c *Consumer) subscribe() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, ErrNoChannel
	}
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.Consume(string(c.queue), "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", c.queue, err)
	}
	return deliveries, nil
}

// drain читает deliveries, пока канал открыт и ctx не отменён.
func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-deliveries:
			if !ok {
				return
			}
			c.pool.Go(func() error {
				c.handle(ctx, raw)
				return nil
			})
		}
	}
}

func (c *Consumer) handle(ctx context.Context, raw amqp.Delivery) {
	var msg Message
	if err := json.Unmarshal(raw.Body, &msg); err != nil {
		c.logger.Error("dropping malformed message", "error", err, "body", string(raw.Body))
		_ = raw.Nack(false, false)
		return
	}

	logger := c.logger.With("message_id", msg.ID, "type", msg.Type)
	logger.Debug("message received")

	if err := c.handler(ctx, &Delivery{Message: msg, Raw: raw}); err != nil {
		logger.Error("handler failed, dead-lettering message", "error", err)
		_ = raw.Nack(false, false)
		return
	}
	_ = raw.Ack(false)
}
