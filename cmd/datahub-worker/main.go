// Datahub Worker — выполняет файлы через их workflow.
//
// Worker:
//   - Получает задачи из files.pending и опросом QUEUED строк
//   - Классифицирует файл, запрашивает workflow и выполняет шаги
//   - Отчитывается о сессии и шагах во внешний workflow-сервис
//   - Пишет локальную историю шагов и публикует file.completed
//
// Workers масштабируются горизонтально.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Datahub/internal/config"
	"github.com/shaiso/Datahub/internal/mq"
	"github.com/shaiso/Datahub/internal/pipeline"
	"github.com/shaiso/Datahub/internal/repo"
	"github.com/shaiso/Datahub/internal/telemetry"
	"github.com/shaiso/Datahub/internal/worker"
)

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting datahub-worker")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := repo.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	taskRepo := repo.NewTaskRepo(pool)
	stepRepo := repo.NewStepRepo(pool)

	opts := pipeline.Options{
		Observer: worker.NewStepRecorder(stepRepo, logger),
		Logger:   logger,
	}
	workerCfg := worker.Config{
		Tasks:         taskRepo,
		Concurrency:   cfg.Worker.Concurrency,
		PollInterval:  cfg.Worker.PollIntervalDuration(),
		HardTimeLimit: cfg.Worker.HardTimeLimitDuration(),
		Prefetch:      cfg.Queue.Prefetch,
		Logger:        logger,
	}

	mqConn, err := mq.Dial(cfg.Queue.URL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, running in polling-only mode", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher := mq.NewPublisher(mqConn, logger)
		opts.Publisher = publisher
		workerCfg.Notifier = publisher
		workerCfg.Conn = mqConn
	}

	p, err := pipeline.New(cfg, opts)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	workerCfg.Runner = p.Orchestrator

	w := worker.New(workerCfg)
	w.Start(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		if mqConn != nil && !mqConn.Healthy() {
			http.Error(rw, "broker reconnecting", http.StatusServiceUnavailable)
			return
		}
		rw.WriteHeader(http.StatusOK)
		rw.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              ":" + cfg.Server.WorkerPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	// Stop ждёт текущие runs.
	w.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)

	logger.Info("datahub-worker stopped")
}
