package domain

// TaskStatus — статус задачи обработки файла.
//
// Жизненный цикл:
//
//	QUEUED → RUNNING → COMPLETED
//	                 ↘ FAILED
//	(или)  → REVOKED (из QUEUED или RUNNING, по запросу stop)
type TaskStatus string

const (
	// TaskStatusQueued — задача создана, ждёт воркера.
	TaskStatusQueued TaskStatus = "QUEUED"

	// TaskStatusRunning — воркер выполняет run.
	TaskStatusRunning TaskStatus = "RUNNING"

	// TaskStatusCompleted — run дошёл до конца.
	TaskStatusCompleted TaskStatus = "COMPLETED"

	// TaskStatusFailed — run прерван (классификация, workflow, сессия, таймаут).
	TaskStatusFailed TaskStatus = "FAILED"

	// TaskStatusRevoked — задача остановлена пользователем.
	TaskStatusRevoked TaskStatus = "REVOKED"
)

// IsTerminal возвращает true, если статус финальный.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusRevoked:
		return true
	default:
		return false
	}
}

// ParseTaskStatus проверяет строку статуса.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch st := TaskStatus(s); st {
	case TaskStatusQueued, TaskStatusRunning, TaskStatusCompleted, TaskStatusFailed, TaskStatusRevoked:
		return st, true
	default:
		return "", false
	}
}

// StepStatus — статус шага в локальной истории задачи.
type StepStatus string

const (
	StepStatusRunning StepStatus = "RUNNING"
	StepStatusSuccess StepStatus = "SUCCESS"
	StepStatusSkipped StepStatus = "SKIPPED"
)
