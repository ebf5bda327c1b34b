package worker

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/Datahub/internal/domain"
)

// StepStore — операции task_steps.
type StepStore interface {
	Start(ctx context.Context, rec *domain.StepRecord) error
	Finish(ctx context.Context, taskID uuid.UUID, order int, location string) error
}

// StepRecorder пишет историю шагов run в task_steps.
// Ошибки записи только логируются: run от них не зависит.
type StepRecorder struct {
	steps  StepStore
	logger *slog.Logger
}

// NewStepRecorder создаёт StepRecorder.
func NewStepRecorder(steps StepStore, logger *slog.Logger) *StepRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &StepRecorder{steps: steps, logger: logger}
}

// StepStarted записывает шаг в статусе RUNNING.
func (r *StepRecorder) StepStarted(ctx context.Context, runID string, order int, step domain.WorkflowStep, historyID string) {
	taskID, ok := r.taskID(runID)
	if !ok {
		return
	}
	err := r.steps.Start(ctx, &domain.StepRecord{
		TaskID:    taskID,
		StepName:  step.Name,
		StepOrder: order,
		HistoryID: historyID,
		Status:    domain.StepStatusRunning,
	})
	if err != nil {
		r.logger.Warn("failed to record step start", "run_id", runID, "step", step.Name, "error", err)
	}
}

// StepFinished помечает шаг SUCCESS с адресом материализованного выхода.
func (r *StepRecorder) StepFinished(ctx context.Context, runID string, order int, step domain.WorkflowStep, location string) {
	taskID, ok := r.taskID(runID)
	if !ok {
		return
	}
	if err := r.steps.Finish(ctx, taskID, order, location); err != nil {
		r.logger.Warn("failed to record step finish", "run_id", runID, "step", step.Name, "error", err)
	}
}

// taskID — run id задачи воркера совпадает с её ID. Runs, запущенные
// не воркером (CLI run), могут иметь произвольный id и не записываются.
func (r *StepRecorder) taskID(runID string) (uuid.UUID, bool) {
	id, err := uuid.Parse(runID)
	if err != nil {
		r.logger.Debug("run id is not a task id, step history not recorded", "run_id", runID)
		return uuid.Nil, false
	}
	return id, true
}
