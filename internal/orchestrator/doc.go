// Package orchestrator проводит один файл через workflow.
//
// Run — единственная точка входа:
//
//	CLASSIFYING → WORKFLOW_FETCHED → SESSION_OPEN → STEP[i] → SESSION_CLOSED → ARCHIVED → DONE
//
// Ошибка классификации, пустой workflow или неоткрытая сессия завершают
// run досрочно. Шаги выполняются строго по порядку, в котором их вернул
// сервис; результат шага (в том числе пустой) всегда отчитывается кодом
// SUCCESS. Ошибки finish-вызовов и архивации только логируются.
//
// Результат Run — "completed" или "failed: <reason>".
package orchestrator
