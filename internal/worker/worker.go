package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Datahub/internal/domain"
	"github.com/shaiso/Datahub/internal/mq"
)

const (
	defaultConcurrency   = 4
	defaultPollInterval  = 5 * time.Second
	defaultBatchSize     = 50
	defaultHardTimeLimit = 30 * time.Minute

	// bookkeepingTimeout — на запись результата после run, даже при остановке.
	bookkeepingTimeout = 10 * time.Second
)

// TaskStore — операции file_tasks, нужные воркеру.
type TaskStore interface {
	ListQueued(ctx context.Context, limit int) ([]domain.Task, error)
	Claim(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	Finish(ctx context.Context, task *domain.Task) error
}

// Runner выполняет run по файлу и возвращает строку результата.
type Runner interface {
	Run(ctx context.Context, filePath, runID string, source domain.SourceType) string
}

// Notifier сообщает о завершении run.
type Notifier interface {
	PublishFileCompleted(ctx context.Context, task *domain.Task) error
}

// Config — конфигурация Worker.
type Config struct {
	Tasks  TaskStore
	Runner Runner

	// Notifier — может быть nil, тогда file.completed не публикуется.
	Notifier Notifier

	// Conn — соединение с брокером; nil — только polling.
	Conn     *mq.Connection
	Prefetch int

	Concurrency   int
	PollInterval  time.Duration
	BatchSize     int
	HardTimeLimit time.Duration

	Logger *slog.Logger
}

// Worker выполняет задачи file_tasks.
//
// Задачи приходят из files.pending и, как fallback, из периодического
// опроса QUEUED строк. Оба источника делят один пул, так что одновременно
// выполняется не больше Concurrency runs. Кто первым сделал Claim, тот
// и выполняет задачу.
type Worker struct {
	tasks    TaskStore
	runner   Runner
	notifier Notifier
	conn     *mq.Connection
	prefetch int

	concurrency   int
	pollInterval  time.Duration
	batchSize     int
	hardTimeLimit time.Duration

	logger *slog.Logger

	pool   *errgroup.Group
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New создаёт Worker.
func New(cfg Config) *Worker {
	w := &Worker{
		tasks:         cfg.Tasks,
		runner:        cfg.Runner,
		notifier:      cfg.Notifier,
		conn:          cfg.Conn,
		prefetch:      cfg.Prefetch,
		concurrency:   cfg.Concurrency,
		pollInterval:  cfg.PollInterval,
		batchSize:     cfg.BatchSize,
		hardTimeLimit: cfg.HardTimeLimit,
		logger:        cfg.Logger,
	}
	if w.concurrency <= 0 {
		w.concurrency = defaultConcurrency
	}
	if w.pollInterval <= 0 {
		w.pollInterval = defaultPollInterval
	}
	if w.batchSize <= 0 {
		w.batchSize = defaultBatchSize
	}
	if w.hardTimeLimit <= 0 {
		w.hardTimeLimit = defaultHardTimeLimit
	}
	if w.prefetch <= 0 {
		w.prefetch = w.concurrency
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}

	w.pool = new(errgroup.Group)
	w.pool.SetLimit(w.concurrency)
	return w
}

// Start запускает consumer (если есть соединение) и polling.
func (w *Worker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	w.logger.Info("starting worker",
		"concurrency", w.concurrency,
		"poll_interval", w.pollInterval,
		"hard_time_limit", w.hardTimeLimit,
		"consumer", w.conn != nil,
	)

	if w.conn != nil {
		consumer := mq.NewConsumer(w.conn, mq.ConsumerConfig{
			Queue:    mq.QueueFilesPending,
			Handler:  w.handleFilePending,
			Prefetch: w.prefetch,
			Pool:     w.pool,
			Logger:   w.logger,
		})
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error("consumer stopped", "error", err)
			}
		}()
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.pollLoop(ctx)
	}()
}

// Stop прекращает приём задач и ждёт выполняющиеся runs.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker")
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	_ = w.pool.Wait()
	w.logger.Info("worker stopped")
}

func (w *Worker) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	// Сразу при старте: задачи, созданные пока воркеры были выключены.
	w.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// poll отдаёт QUEUED задачи в пул. Блокируется, пока пул занят.
func (w *Worker) poll(ctx context.Context) {
	tasks, err := w.tasks.ListQueued(ctx, w.batchSize)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("failed to list queued tasks", "error", err)
		}
		return
	}
	if len(tasks) > 0 {
		w.logger.Debug("poll found queued tasks", "count", len(tasks))
	}

	for _, t := range tasks {
		if ctx.Err() != nil {
			return
		}
		id := t.ID
		w.pool.Go(func() error {
			if err := w.process(ctx, id); err != nil && !skippable(err) {
				w.logger.Error("failed to process polled task", "task_id", id, "error", err)
			}
			return nil
		})
	}
}

func skippable(err error) bool {
	return errors.Is(err, ErrTaskNotFound) || errors.Is(err, ErrTaskNotQueued)
}
