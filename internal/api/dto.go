package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Datahub/internal/domain"
)

// ProcessFileRequest — запрос на обработку файла.
type ProcessFileRequest struct {
	FilePath string `json:"file_path"`
	// Source — "s3" (по умолчанию) или "local".
	Source string `json:"source,omitempty"`
}

// ProcessFileResponse — ID задачи, он же run id.
type ProcessFileResponse struct {
	ID uuid.UUID `json:"id"`
}

// TaskResponse — задача.
type TaskResponse struct {
	ID         uuid.UUID         `json:"id"`
	FilePath   string            `json:"file_path"`
	Source     domain.SourceType `json:"source"`
	Status     domain.TaskStatus `json:"status"`
	Result     string            `json:"result,omitempty"`
	Error      string            `json:"error,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	StartedAt  *time.Time        `json:"started_at,omitempty"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
	DurationMs int64             `json:"duration_ms,omitempty"`
}

// TaskFromDomain конвертирует domain.Task в TaskResponse.
func TaskFromDomain(t domain.Task) TaskResponse {
	return TaskResponse{
		ID:         t.ID,
		FilePath:   t.FilePath,
		Source:     t.Source,
		Status:     t.Status,
		Result:     t.Result,
		Error:      t.Error,
		CreatedAt:  t.CreatedAt,
		StartedAt:  t.StartedAt,
		FinishedAt: t.FinishedAt,
		DurationMs: t.Duration().Milliseconds(),
	}
}

// StepResponse — шаг из локальной истории задачи.
type StepResponse struct {
	Order          int               `json:"step_order"`
	Name           string            `json:"step_name"`
	HistoryID      string            `json:"history_id,omitempty"`
	Status         domain.StepStatus `json:"status"`
	OutputLocation string            `json:"output_location,omitempty"`
	StartedAt      time.Time         `json:"started_at"`
	FinishedAt     *time.Time        `json:"finished_at,omitempty"`
}

// StepFromDomain конвертирует domain.StepRecord в StepResponse.
func StepFromDomain(s domain.StepRecord) StepResponse {
	return StepResponse{
		Order:          s.StepOrder,
		Name:           s.StepName,
		HistoryID:      s.HistoryID,
		Status:         s.Status,
		OutputLocation: s.OutputLocation,
		StartedAt:      s.StartedAt,
		FinishedAt:     s.FinishedAt,
	}
}

// StopTaskResponse — результат отзыва задачи.
type StopTaskResponse struct {
	Task         TaskResponse `json:"task"`
	SkippedSteps int64        `json:"skipped_steps"`
}
