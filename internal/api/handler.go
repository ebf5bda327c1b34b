package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/Datahub/internal/domain"
	"github.com/shaiso/Datahub/internal/repo"
)

// TaskStore — операции file_tasks, нужные API.
type TaskStore interface {
	Create(ctx context.Context, task *domain.Task) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	List(ctx context.Context, f repo.TaskFilter) ([]domain.Task, error)
	Revoke(ctx context.Context, id uuid.UUID) (*domain.Task, int64, error)
}

// StepLister читает локальную историю шагов.
type StepLister interface {
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]domain.StepRecord, error)
}

// Enqueuer ставит задачу в очередь воркерам.
type Enqueuer interface {
	PublishFilePending(ctx context.Context, task *domain.Task) error
}

// Handler — обработчики HTTP API.
type Handler struct {
	tasks    TaskStore
	steps    StepLister
	enqueuer Enqueuer
	logger   *slog.Logger
}

// Config — зависимости Handler.
type Config struct {
	Tasks TaskStore
	Steps StepLister

	// Enqueuer — может быть nil: задачу подхватит polling воркера.
	Enqueuer Enqueuer

	Logger *slog.Logger
}

// NewHandler создаёт Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		tasks:    cfg.Tasks,
		steps:    cfg.Steps,
		enqueuer: cfg.Enqueuer,
		logger:   logger,
	}
}
