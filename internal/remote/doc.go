// Package remote — клиент внешнего workflow-сервиса.
//
// Все вызовы — POST с JSON телом; ответ приходит в envelope {"data": ...}.
// Не-2xx статус, тело без envelope и пустой data дают ErrEmptyResponse.
// Ответы на finish (сессии и шага) не разбираются: важен только статус.
//
// Каждый вызов учитывается в метрике datahub_remote_calls_total.
package remote
