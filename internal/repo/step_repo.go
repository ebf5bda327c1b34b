package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Datahub/internal/domain"
)

// StepRepo — таблица task_steps, локальная история шагов задачи.
type StepRepo struct {
	pool *pgxpool.Pool
}

// NewStepRepo создаёт StepRepo.
func NewStepRepo(pool *pgxpool.Pool) *StepRepo {
	return &StepRepo{pool: pool}
}

// Start записывает начало шага.
func (r *StepRepo) Start(ctx context.Context, rec *domain.StepRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now()
	}
	if rec.Status == "" {
		rec.Status = domain.StepStatusRunning
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO task_steps (id, task_id, step_name, step_order, history_id, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rec.ID, rec.TaskID, rec.StepName, rec.StepOrder, nullString(rec.HistoryID), rec.Status, rec.StartedAt)
	if err != nil {
		return fmt.Errorf("insert task step: %w", err)
	}
	return nil
}

// Finish помечает шаг SUCCESS. Шаг, уже помеченный SKIPPED, не меняется.
func (r *StepRepo) Finish(ctx context.Context, taskID uuid.UUID, order int, location string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE task_steps
		SET status = 'SUCCESS', output_location = $3, finished_at = now()
		WHERE task_id = $1 AND step_order = $2 AND status = 'RUNNING'
	`, taskID, order, nullString(location))
	if err != nil {
		return fmt.Errorf("finish task step: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: step %d of task %s is not running", ErrInvalidState, order, taskID)
	}
	return nil
}

// ListByTask возвращает шаги задачи по порядку.
func (r *StepRepo) ListByTask(ctx context.Context, taskID uuid.UUID) ([]domain.StepRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, task_id, step_name, step_order, history_id, status, output_location, started_at, finished_at
		FROM task_steps
		WHERE task_id = $1
		ORDER BY step_order ASC
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list task steps: %w", err)
	}
	defer rows.Close()

	var out []domain.StepRecord
	for rows.Next() {
		var rec domain.StepRecord
		var historyID, location *string
		if err := rows.Scan(
			&rec.ID,
			&rec.TaskID,
			&rec.StepName,
			&rec.StepOrder,
			&historyID,
			&rec.Status,
			&location,
			&rec.StartedAt,
			&rec.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan task step: %w", err)
		}
		if historyID != nil {
			rec.HistoryID = *historyID
		}
		if location != nil {
			rec.OutputLocation = *location
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// skipOpenSteps помечает RUNNING шаги задачи как SKIPPED.
func skipOpenSteps(ctx context.Context, q querier, taskID uuid.UUID) (int64, error) {
	tag, err := q.Exec(ctx, `
		UPDATE task_steps
		SET status = 'SKIPPED', finished_at = now()
		WHERE task_id = $1 AND status = 'RUNNING'
	`, taskID)
	if err != nil {
		return 0, fmt.Errorf("skip open steps: %w", err)
	}
	return tag.RowsAffected(), nil
}
