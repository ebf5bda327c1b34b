package mq

import (
	"context"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — имя обменника.
type Exchange string

// Queue — имя очереди.
type Queue string

// RoutingKey — ключ маршрутизации.
type RoutingKey string

const (
	ExchangeFiles Exchange = "datahub.files"
	ExchangeDLQ   Exchange = "datahub.dlq"
)

const (
	QueueFilesPending   Queue = "files.pending"
	QueueFilesCompleted Queue = "files.completed"
	QueueDataPublished  Queue = "data.published"
	QueueDLQFiles       Queue = "dlq.files"
)

const (
	RoutingKeyPending   RoutingKey = "pending"
	RoutingKeyCompleted RoutingKey = "completed"
	RoutingKeyPublished RoutingKey = "published"
	RoutingKeyDLQFiles  RoutingKey = "files"
)

// binding — очередь, её аргументы и привязка к обменнику.
type binding struct {
	queue      Queue
	exchange   Exchange
	routingKey RoutingKey
	args       amqp.Table
	consumer   string
}

// topology — полное описание очередей Datahub.
//
// files.pending уходит в DLQ: сообщение, которое воркер не смог
// разобрать или записать в БД, не должно крутиться бесконечно.
var topology = []binding{
	{
		queue:      QueueFilesPending,
		exchange:   ExchangeFiles,
		routingKey: RoutingKeyPending,
		args: amqp.Table{
			"x-dead-letter-exchange":    string(ExchangeDLQ),
			"x-dead-letter-routing-key": string(RoutingKeyDLQFiles),
		},
		consumer: "datahub-worker",
	},
	{queue: QueueFilesCompleted, exchange: ExchangeFiles, routingKey: RoutingKeyCompleted, consumer: "external"},
	{queue: QueueDataPublished, exchange: ExchangeFiles, routingKey: RoutingKeyPublished, consumer: "external"},
	{queue: QueueDLQFiles, exchange: ExchangeDLQ, routingKey: RoutingKeyDLQFiles, consumer: "manual"},
}

// SetupTopology объявляет обменники и очереди и связывает их.
// Операция идемпотентна, её вызывает каждый бинарник при старте.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		for _, ex := range []Exchange{ExchangeFiles, ExchangeDLQ} {
			if err := ch.ExchangeDeclare(string(ex), amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex, err)
			}
		}

		for _, b := range topology {
			if _, err := ch.QueueDeclare(string(b.queue), true, false, false, false, b.args); err != nil {
				return fmt.Errorf("declare queue %s: %w", b.queue, err)
			}
			if err := ch.QueueBind(string(b.queue), string(b.routingKey), string(b.exchange), false, nil); err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
			}
		}
		return nil
	})
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	var sb strings.Builder
	sb.WriteString("datahub topology:\n")
	for _, b := range topology {
		fmt.Fprintf(&sb, "  %s --[%s]--> %s (consumer: %s", b.exchange, b.routingKey, b.queue, b.consumer)
		if dlx, ok := b.args["x-dead-letter-exchange"]; ok {
			fmt.Fprintf(&sb, ", dlx: %v", dlx)
		}
		sb.WriteString(")\n")
	}
	return sb.String()
}
