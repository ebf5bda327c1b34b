// Package engine выполняет отдельные шаги workflow.
//
// Включает:
//   - context.go    — execution context одного run (журнал записей ключ/значение)
//   - dispatcher.go — вызов capability, запись выходов, материализация
//
// Dispatcher не знает о порядке шагов и удалённом сервисе: порядок
// задаёт orchestrator, dispatcher отвечает только за один шаг.
// Любая ошибка шага (неизвестная capability, ошибка, panic) превращается
// в пустой результат и запись в лог.
package engine
