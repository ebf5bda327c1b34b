package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Datahub/internal/telemetry"
)

// StaleStore помечает зависшие задачи как FAILED.
type StaleStore interface {
	FailStale(ctx context.Context, olderThan time.Duration) ([]uuid.UUID, error)
}

// Locker — распределённая блокировка между экземплярами scheduler.
type Locker interface {
	TryLock(ctx context.Context) (release func(), ok bool, err error)
}

// Config — конфигурация Reaper.
type Config struct {
	Tasks StaleStore

	// Locker — может быть nil, тогда тик выполняется без блокировки.
	Locker Locker

	// Schedule — cron-выражение (5 полей).
	Schedule string

	// StaleAfter — сколько задача может быть RUNNING.
	StaleAfter time.Duration

	Logger *slog.Logger
}

// Reaper переводит в FAILED задачи, которые RUNNING дольше StaleAfter.
//
// Такие задачи остаются после падения воркера посреди run: hard time
// limit их уже не завершит.
type Reaper struct {
	tasks      StaleStore
	locker     Locker
	schedule   string
	staleAfter time.Duration
	logger     *slog.Logger
}

// New создаёт Reaper.
func New(cfg Config) *Reaper {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = time.Hour
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "*/5 * * * *"
	}
	return &Reaper{
		tasks:      cfg.Tasks,
		locker:     cfg.Locker,
		schedule:   cfg.Schedule,
		staleAfter: cfg.StaleAfter,
		logger:     cfg.Logger.With("component", "reaper"),
	}
}

// Tick выполняет один проход. Если блокировка у другого экземпляра,
// проход пропускается. Возвращает число помеченных задач.
func (r *Reaper) Tick(ctx context.Context) (int, error) {
	if r.locker != nil {
		release, ok, err := r.locker.TryLock(ctx)
		if err != nil {
			return 0, fmt.Errorf("acquire reaper lock: %w", err)
		}
		if !ok {
			r.logger.Debug("reaper lock held elsewhere, skipping tick")
			return 0, nil
		}
		defer release()
	}

	ids, err := r.tasks.FailStale(ctx, r.staleAfter)
	if err != nil {
		return 0, fmt.Errorf("fail stale tasks: %w", err)
	}

	for _, id := range ids {
		r.logger.Warn("stale task failed", "task_id", id, "stale_after", r.staleAfter)
	}
	telemetry.TasksReaped.Add(float64(len(ids)))

	r.logger.Info("reaper tick completed", "reaped", len(ids))
	return len(ids), nil
}
