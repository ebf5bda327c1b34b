package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Значения label outcome.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	// RunsTotal — завершённые runs по итоговому статусу (completed/failed).
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "datahub_runs_total",
		Help: "Workflow runs by terminal status.",
	}, []string{"status"})

	// StepsTotal — выполненные шаги. outcome=error при ошибке или panic capability.
	StepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "datahub_steps_total",
		Help: "Dispatched workflow steps by outcome.",
	}, []string{"step", "outcome"})

	// StepDuration — длительность выполнения capability шага.
	StepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "datahub_step_duration_seconds",
		Help:    "Step capability execution time.",
		Buckets: prometheus.DefBuckets,
	}, []string{"step"})

	// RemoteCallsTotal — вызовы внешнего workflow-сервиса.
	RemoteCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "datahub_remote_calls_total",
		Help: "Calls to the workflow service by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	// MaterializationsTotal — записи промежуточных результатов в blob store.
	MaterializationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "datahub_materializations_total",
		Help: "Materialized step outputs by outcome.",
	}, []string{"outcome"})

	// TasksInFlight — задачи, которые воркер выполняет прямо сейчас.
	TasksInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "datahub_tasks_in_flight",
		Help: "Tasks currently executed by this worker.",
	})

	// TasksReaped — задачи, помеченные FAILED reaper'ом.
	TasksReaped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "datahub_tasks_reaped_total",
		Help: "Stale running tasks failed by the reaper.",
	})
)

// Outcome возвращает label для результата операции.
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
