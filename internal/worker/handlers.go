package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/shaiso/Datahub/internal/domain"
	"github.com/shaiso/Datahub/internal/mq"
	"github.com/shaiso/Datahub/internal/repo"
	"github.com/shaiso/Datahub/internal/telemetry"
)

// handleFilePending обрабатывает сообщение file.pending.
func (w *Worker) handleFilePending(ctx context.Context, d *mq.Delivery) error {
	payload, err := mq.Decode[mq.FilePendingPayload](d)
	if err != nil {
		return err
	}

	if err := w.process(ctx, payload.TaskID); err != nil {
		if skippable(err) {
			w.logger.Debug("task skipped", "task_id", payload.TaskID, "reason", err)
			return nil
		}
		return err
	}
	return nil
}

// process забирает задачу, выполняет run и записывает результат.
//
// Отозванная или уже взятая задача не выполняется (ErrTaskNotQueued).
// Ошибка возвращается только для проблем с БД: итог run сам по себе
// ошибкой не считается.
func (w *Worker) process(ctx context.Context, id uuid.UUID) error {
	task, err := w.tasks.Claim(ctx, id)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	case errors.Is(err, repo.ErrInvalidState):
		return fmt.Errorf("%w: %v", ErrTaskNotQueued, err)
	case err != nil:
		return fmt.Errorf("claim task %s: %w", id, err)
	}

	logger := telemetry.WithRunID(w.logger, task.ID.String())
	logger.Info("task started", "file_path", task.FilePath, "source", task.Source)

	telemetry.TasksInFlight.Inc()
	result := w.execute(ctx, task)
	telemetry.TasksInFlight.Dec()

	task.Finish(result)

	// Результат записывается и при остановке воркера.
	bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bookkeepingTimeout)
	defer cancel()

	if err := w.tasks.Finish(bctx, task); err != nil {
		return fmt.Errorf("finish task %s: %w", task.ID, err)
	}
	logger.Info("task finished", "status", task.Status, "result", task.Result, "duration", task.Duration())

	if w.notifier != nil {
		if err := w.notifier.PublishFileCompleted(bctx, task); err != nil {
			logger.Warn("failed to publish file.completed", "error", err)
		}
	}
	return nil
}

// execute запускает run под hard time limit.
func (w *Worker) execute(ctx context.Context, task *domain.Task) string {
	runCtx, cancel := context.WithTimeout(ctx, w.hardTimeLimit)
	defer cancel()

	result := w.runner.Run(runCtx, task.FilePath, task.ID.String(), task.Source)
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return domain.RunResultFailed + ": " + ErrTimeLimit.Error()
	}
	return result
}
