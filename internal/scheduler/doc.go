// Package scheduler — периодическая очистка зависших задач.
//
// Reaper по cron-выражению (robfig/cron) находит задачи в статусе
// RUNNING старше stale_after и переводит их в FAILED. Несколько
// экземпляров datahub-scheduler безопасны: тик выполняется только под
// PostgreSQL advisory lock.
package scheduler
