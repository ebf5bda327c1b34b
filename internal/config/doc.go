// Package config загружает конфигурацию Datahub.
//
// Источники (в порядке применения):
//   - config.toml (или файл из DATAHUB_CONFIG)
//   - config.<DATAHUB_ENV>.toml — overlay окружения
//   - значения по умолчанию
//   - переменные окружения DATAHUB_*
//
// Каждая секция реализует Merge(overlay) и Finalize(). Ошибки валидации
// (неизвестный storage backend, пустой bucket, невалидный cron) фатальны
// при старте процесса.
package config
