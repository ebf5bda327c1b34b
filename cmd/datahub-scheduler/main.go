// Datahub Scheduler — по cron переводит зависшие RUNNING задачи в FAILED.
//
// Несколько экземпляров безопасны: тик выполняет только держатель
// advisory lock.
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
	"github.com/shaiso/Datahub/internal/repo"
	"github.com/shaiso/Datahub/internal/scheduler"
	"github.com/shaiso/Datahub/internal/telemetry"
)

const reaperLockKey int64 = 424242

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting datahub-scheduler")

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

	reaper := scheduler.New(scheduler.Config{
		Tasks:      repo.NewTaskRepo(pool),
		Locker:     repo.NewLocker(pool, reaperLockKey),
		Schedule:   cfg.Reaper.Schedule,
		StaleAfter: cfg.Reaper.StaleAfterDuration(),
		Logger:     logger,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              ":" + cfg.Server.SchedulerPort,
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

	if err := reaper.Run(ctx); err != nil {
		logger.Error("reaper stopped", "error", err)
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)

	logger.Info("datahub-scheduler stopped")
}
