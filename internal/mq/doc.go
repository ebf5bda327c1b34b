// Package mq — очереди RabbitMQ между API, воркерами и потребителями
// результатов.
//
// Обменник datahub.files (direct):
//   - files.pending   — file.pending, новый файл для воркера (DLQ: dlq.files)
//   - files.completed — file.completed, итог run
//   - data.published  — data.published, выход шага publish_data
//
// Все сообщения — JSON конверт Message с payload нужного типа.
// Publisher реализует публикацию для шага publish_data.
package mq
