package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NextRun возвращает ближайшее срабатывание выражения expr после from.
func NextRun(expr string, from time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron %q: %w", expr, err)
	}
	return sched.Next(from), nil
}

// Run запускает Tick по расписанию до отмены ctx.
// Перекрывающиеся тики пропускаются.
func (r *Reaper) Run(ctx context.Context) error {
	logger := cronLogger{r.logger}
	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	_, err := c.AddFunc(r.schedule, func() {
		if _, err := r.Tick(ctx); err != nil {
			r.logger.Error("reaper tick failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule reaper %q: %w", r.schedule, err)
	}

	if next, err := NextRun(r.schedule, time.Now()); err == nil {
		r.logger.Info("reaper scheduled", "schedule", r.schedule, "next_run", next)
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// cronLogger — cron.Logger поверх slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
