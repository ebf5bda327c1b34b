package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Результаты run, которые возвращает Orchestrator.
const (
	RunResultCompleted = "completed"
	RunResultFailed    = "failed"
)

// Task — задача обработки одного файла.
//
// Task создаётся API при приёме файла. ID задачи является
// run id для engine и внешнего workflow-сервиса.
//
// Task выполняется Worker'ом.
type Task struct {
	// ID — уникальный идентификатор задачи (он же run id).
	ID uuid.UUID `json:"id"`

	// FilePath — путь к файлу (ключ в raw bucket или локальный путь).
	FilePath string `json:"file_path"`

	// Source — откуда читать файл.
	Source SourceType `json:"source"`

	// Status — текущий статус.
	Status TaskStatus `json:"status"`

	// Result — строка результата run: "completed" или "failed: <reason>".
	Result string `json:"result,omitempty"`

	// Error — причина неудачи.
	Error string `json:"error,omitempty"`

	// StartedAt — время начала выполнения.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}

// NewTask создаёт задачу в статусе QUEUED.
func NewTask(filePath string, source SourceType) *Task {
	return &Task{
		ID:        uuid.New(),
		FilePath:  filePath,
		Source:    source,
		Status:    TaskStatusQueued,
		CreatedAt: time.Now(),
	}
}

// Duration возвращает продолжительность выполнения.
func (t *Task) Duration() time.Duration {
	if t.StartedAt == nil || t.FinishedAt == nil {
		return 0
	}
	return t.FinishedAt.Sub(*t.StartedAt)
}

// IsFinished возвращает true, если задача завершена.
func (t *Task) IsFinished() bool {
	return t.Status.IsTerminal()
}

// MarkRunning переводит задачу в статус RUNNING.
func (t *Task) MarkRunning() {
	now := time.Now()
	t.Status = TaskStatusRunning
	t.StartedAt = &now
}

// Finish выставляет финальный статус по строке результата run.
func (t *Task) Finish(result string) {
	if reason, failed := strings.CutPrefix(result, RunResultFailed+": "); failed {
		t.MarkFailed(reason)
		return
	}
	now := time.Now()
	t.Status = TaskStatusCompleted
	t.FinishedAt = &now
	t.Result = result
}

// MarkFailed переводит задачу в статус FAILED с ошибкой.
func (t *Task) MarkFailed(err string) {
	now := time.Now()
	t.Status = TaskStatusFailed
	t.FinishedAt = &now
	t.Error = err
	t.Result = RunResultFailed + ": " + err
}

// MarkRevoked переводит задачу в статус REVOKED.
func (t *Task) MarkRevoked() {
	now := time.Now()
	t.Status = TaskStatusRevoked
	t.FinishedAt = &now
}

// StepRecord — локальная запись о шаге задачи.
// Дублирует то, что отправляется во внешний сервис, чтобы историю
// можно было посмотреть через API без него.
type StepRecord struct {
	ID             uuid.UUID  `json:"id"`
	TaskID         uuid.UUID  `json:"task_id"`
	StepName       string     `json:"step_name"`
	StepOrder      int        `json:"step_order"`
	HistoryID      string     `json:"history_id,omitempty"`
	Status         StepStatus `json:"status"`
	OutputLocation string     `json:"output_location,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}
