// Package api — HTTP API приёма файлов и просмотра задач.
//
//	POST /api/v1/files/process   {file_path, source} → {id}
//	GET  /api/v1/tasks           ?status=&limit=&offset=
//	GET  /api/v1/tasks/{id}
//	GET  /api/v1/tasks/{id}/steps
//	POST /api/v1/tasks/{id}/stop
//
// Успешные ответы — {"data": ...}, ошибки — {"error": {code, message}}.
package api
