package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Datahub/internal/domain"
)

const taskColumns = `id, file_path, source, status, result, error, started_at, finished_at, created_at`

// TaskFilter — фильтр списка задач.
type TaskFilter struct {
	Status domain.TaskStatus // пусто — все статусы
	Limit  int
	Offset int
}

// TaskRepo — таблица file_tasks.
type TaskRepo struct {
	pool *pgxpool.Pool
}

// NewTaskRepo создаёт TaskRepo.
func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

// Create сохраняет новую задачу.
func (r *TaskRepo) Create(ctx context.Context, task *domain.Task) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO file_tasks (id, file_path, source, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, task.ID, task.FilePath, task.Source, task.Status, task.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert file task: %w", err)
	}
	return nil
}

// Get возвращает задачу по ID.
func (r *TaskRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM file_tasks WHERE id = $1`, id))
}

// List возвращает задачи, новые первыми.
func (r *TaskRepo) List(ctx context.Context, f TaskFilter) ([]domain.Task, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM file_tasks
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, nullString(string(f.Status)), f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("list file tasks: %w", err)
	}
	return collectTasks(rows)
}

// ListQueued возвращает QUEUED задачи, старые первыми.
func (r *TaskRepo) ListQueued(ctx context.Context, limit int) ([]domain.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM file_tasks
		WHERE status = 'QUEUED'
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list queued tasks: %w", err)
	}
	return collectTasks(rows)
}

// Claim атомарно переводит QUEUED задачу в RUNNING.
//
// Если задачу уже забрал другой воркер или её отозвали, возвращает
// ErrInvalidState, для отсутствующей — ErrNotFound.
func (r *TaskRepo) Claim(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	task, err := scanTask(r.pool.QueryRow(ctx, `
		UPDATE file_tasks
		SET status = 'RUNNING', started_at = now()
		WHERE id = $1 AND status = 'QUEUED'
		RETURNING `+taskColumns, id))
	if errors.Is(err, ErrNotFound) {
		return nil, r.stateError(ctx, id)
	}
	return task, err
}

// Finish записывает результат run.
//
// Статус меняется, только если задача всё ещё RUNNING: отзыв или
// reaper во время run сохраняют свой статус, результат пишется всегда.
// task.Status обновляется фактическим статусом строки.
func (r *TaskRepo) Finish(ctx context.Context, task *domain.Task) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE file_tasks
		SET status = CASE WHEN status = 'RUNNING' THEN $2 ELSE status END,
		    result = $3,
		    error = COALESCE(error, $4),
		    finished_at = COALESCE(finished_at, $5)
		WHERE id = $1
		RETURNING status
	`, task.ID, task.Status, nullString(task.Result), nullString(task.Error), task.FinishedAt).Scan(&task.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("finish file task: %w", err)
	}
	return nil
}

// Revoke отзывает незавершённую задачу и помечает её открытые шаги SKIPPED.
// Выполняющийся run при этом не прерывается.
func (r *TaskRepo) Revoke(ctx context.Context, id uuid.UUID) (*domain.Task, int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	task, err := scanTask(tx.QueryRow(ctx, `
		UPDATE file_tasks
		SET status = 'REVOKED', finished_at = now()
		WHERE id = $1 AND status IN ('QUEUED', 'RUNNING')
		RETURNING `+taskColumns, id))
	if errors.Is(err, ErrNotFound) {
		return nil, 0, r.stateError(ctx, id)
	}
	if err != nil {
		return nil, 0, err
	}

	skipped, err := skipOpenSteps(ctx, tx, id)
	if err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, fmt.Errorf("commit: %w", err)
	}
	return task, skipped, nil
}

// FailStale помечает FAILED задачи, которые RUNNING дольше olderThan.
// Возвращает ID изменённых задач.
func (r *TaskRepo) FailStale(ctx context.Context, olderThan time.Duration) ([]uuid.UUID, error) {
	reason := fmt.Sprintf("stale: running longer than %s", olderThan)
	rows, err := r.pool.Query(ctx, `
		UPDATE file_tasks
		SET status = 'FAILED',
		    error = $2,
		    result = 'failed: ' || $2,
		    finished_at = now()
		WHERE status = 'RUNNING' AND started_at < now() - make_interval(secs => $1)
		RETURNING id
	`, olderThan.Seconds(), reason)
	if err != nil {
		return nil, fmt.Errorf("fail stale tasks: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("collect stale ids: %w", err)
	}
	return ids, nil
}

// stateError различает отсутствующую задачу и недопустимый переход.
func (r *TaskRepo) stateError(ctx context.Context, id uuid.UUID) error {
	task, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: task %s is %s", ErrInvalidState, id, task.Status)
}

// --- Helpers ---

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	var result, taskErr *string

	err := row.Scan(
		&t.ID,
		&t.FilePath,
		&t.Source,
		&t.Status,
		&result,
		&taskErr,
		&t.StartedAt,
		&t.FinishedAt,
		&t.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan file task: %w", err)
	}
	if result != nil {
		t.Result = *result
	}
	if taskErr != nil {
		t.Error = *taskErr
	}
	return &t, nil
}

func collectTasks(rows pgx.Rows) ([]domain.Task, error) {
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}
