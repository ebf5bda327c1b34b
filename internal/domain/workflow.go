package domain

import "encoding/json"

// WorkflowDefinition — упорядоченный список шагов, полученный от
// внешнего workflow-сервиса.
//
// Запрашивается заново на каждую задачу; локально не кешируется
// и не сохраняется.
type WorkflowDefinition struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Steps []WorkflowStep `json:"workflowSteps"`
}

// StepNames возвращает имена шагов в порядке, заданном сервисом.
func (w *WorkflowDefinition) StepNames() []string {
	names := make([]string, len(w.Steps))
	for i, s := range w.Steps {
		names[i] = s.Name
	}
	return names
}

// WorkflowStep — шаг workflow в представлении внешнего сервиса.
type WorkflowStep struct {
	// StepID — идентификатор шага во внешнем сервисе.
	StepID string `json:"workflowStepId"`

	// Name — имя шага, по нему ищется StepDefinition в registry.
	Name string `json:"stepName"`

	// Order — порядковый номер. Только информационный:
	// шаги выполняются в порядке, в котором их вернул сервис.
	Order int `json:"stepOrder"`

	// Configuration — конфигурация шага как есть: сервис отдаёт и объект,
	// и список объектов. Движок её не читает.
	Configuration json.RawMessage `json:"stepConfiguration,omitempty"`
}

// WorkflowSession — сессия выполнения на стороне workflow-сервиса.
// Одна на run; её ID связывает все события шагов.
type WorkflowSession struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// StepHistory — ответ сервиса на старт шага.
// HistoryID нужен, чтобы отправить соответствующий finish.
type StepHistory struct {
	HistoryID string `json:"workflowHistoryId"`
	Status    string `json:"status"`
}

// ResultCode — код результата в lifecycle-событиях.
type ResultCode string

const (
	ResultSuccess    ResultCode = "1"
	ResultFailed     ResultCode = "2"
	ResultSkipped    ResultCode = "3"
	ResultProcessing ResultCode = "4"
)
