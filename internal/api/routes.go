package api

import "net/http"

// RegisterRoutes регистрирует маршруты API в mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		RequestID(h.logger),
		Recovery(h.logger),
		Logging(h.logger),
	)

	mux.Handle("POST /api/v1/files/process", chain(http.HandlerFunc(h.ProcessFile)))

	mux.Handle("GET /api/v1/tasks", chain(http.HandlerFunc(h.ListTasks)))
	mux.Handle("GET /api/v1/tasks/{id}", chain(http.HandlerFunc(h.GetTask)))
	mux.Handle("GET /api/v1/tasks/{id}/steps", chain(http.HandlerFunc(h.ListTaskSteps)))
	mux.Handle("POST /api/v1/tasks/{id}/stop", chain(http.HandlerFunc(h.StopTask)))
}
