// Package cli реализует инструмент командной строки Datahub.
//
// # Обзор
//
// Большинство команд работают через HTTP API и не импортируют
// внутренние пакеты сервиса: ставят файлы в очередь, показывают
// задачи и их шаги, отзывают задачи.
//
// Исключение — run: он выполняет файл через workflow прямо в процессе
// CLI, без очереди и базы. Runner для него собирает main.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Datahub API. Разбирает обёртки {"data": ...} и
// {"error": {...}}; ошибки API возвращаются как *APIError.
//
//	client := cli.NewClient("http://localhost:8080")
//	id, err := client.ProcessFile(ctx, cli.ProcessFileRequest{FilePath: "in/po.pdf"})
//
// ## Output
//
// Таблицы (text/tabwriter) по умолчанию, JSON с флагом --json.
// Данные идут в stdout, сообщения в stderr:
//
//	datahub task list --json | jq .
//
// ## Commands
//
//   - process FILE [--source] [--wait]
//   - task: list, show, steps, stop
//   - run FILE [--source] [--run-id]
//
// Фабрики команд принимают clientFn и outputFn, чтобы Client и Output
// создавались после парсинга persistent flags.
package cli
