package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Datahub/internal/domain"
)

// MessageType — тип сообщения в конверте.
type MessageType string

const (
	MessageTypeFilePending   MessageType = "file.pending"
	MessageTypeFileCompleted MessageType = "file.completed"
	MessageTypeDataPublished MessageType = "data.published"
)

// Message — конверт всех сообщений Datahub.
type Message struct {
	ID        string          `json:"id"`
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// FilePendingPayload — файл принят API и ждёт воркера.
type FilePendingPayload struct {
	TaskID   uuid.UUID         `json:"task_id"`
	FilePath string            `json:"file_path"`
	Source   domain.SourceType `json:"source"`
}

// FileCompletedPayload — run по файлу закончен.
type FileCompletedPayload struct {
	TaskID   uuid.UUID         `json:"task_id"`
	FilePath string            `json:"file_path"`
	Status   domain.TaskStatus `json:"status"`
	Result   string            `json:"result"`
}

// DataPublishedPayload — результат шага publish_data.
type DataPublishedPayload struct {
	RunID    string                  `json:"run_id"`
	FilePath string                  `json:"file_path"`
	Category domain.DocumentCategory `json:"category"`
	Data     any                     `json:"data"`
}

// Publisher публикует сообщения в обменник datahub.files.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
	now    func() time.Time
}

// NewPublisher создаёт Publisher поверх conn.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: conn, logger: logger, now: time.Now}
}

// Encode упаковывает payload в конверт Message.
func Encode(msgType MessageType, payload any, now time.Time) ([]byte, *Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	msg := &Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Payload:   raw,
		Timestamp: now.UTC(),
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal message: %w", err)
	}
	return body, msg, nil
}

// Publish отправляет payload как persistent сообщение.
func (p *Publisher) Publish(ctx context.Context, key RoutingKey, msgType MessageType, payload any) error {
	body, msg, err := Encode(msgType, payload, p.now())
	if err != nil {
		return err
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(ctx, string(ExchangeFiles), string(key), false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.ID,
			Type:         string(msg.Type),
			Timestamp:    msg.Timestamp,
			Body:         body,
		})
		if err != nil {
			return fmt.Errorf("publish %s to %s/%s: %w", msgType, ExchangeFiles, key, err)
		}

		p.logger.Debug("message published",
			"routing_key", key,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// PublishFilePending ставит файл в очередь воркерам.
func (p *Publisher) PublishFilePending(ctx context.Context, task *domain.Task) error {
	return p.Publish(ctx, RoutingKeyPending, MessageTypeFilePending, FilePendingPayload{
		TaskID:   task.ID,
		FilePath: task.FilePath,
		Source:   task.Source,
	})
}

// PublishFileCompleted сообщает о завершении run.
func (p *Publisher) PublishFileCompleted(ctx context.Context, task *domain.Task) error {
	return p.Publish(ctx, RoutingKeyCompleted, MessageTypeFileCompleted, FileCompletedPayload{
		TaskID:   task.ID,
		FilePath: task.FilePath,
		Status:   task.Status,
		Result:   task.Result,
	})
}

// PublishData публикует данные шага publish_data.
func (p *Publisher) PublishData(ctx context.Context, runID, filePath string, category domain.DocumentCategory, data any) error {
	return p.Publish(ctx, RoutingKeyPublished, MessageTypeDataPublished, DataPublishedPayload{
		RunID:    runID,
		FilePath: filePath,
		Category: category,
		Data:     data,
	})
}
