package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shaiso/Datahub/internal/domain"
	"github.com/shaiso/Datahub/internal/repo"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// ListTasks возвращает задачи, новые первыми.
// GET /api/v1/tasks?status=...&limit=...&offset=...
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repo.TaskFilter{
		Limit:  queryInt(q.Get("limit"), defaultListLimit),
		Offset: queryInt(q.Get("offset"), 0),
	}
	filter.Limit = min(filter.Limit, maxListLimit)

	if s := q.Get("status"); s != "" {
		status, ok := domain.ParseTaskStatus(s)
		if !ok {
			BadRequest(w, "invalid status")
			return
		}
		filter.Status = status
	}

	tasks, err := h.tasks.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	out := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		out[i] = TaskFromDomain(t)
	}
	List(w, out, len(out))
}

// GetTask возвращает задачу.
// GET /api/v1/tasks/{id}
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	task, err := h.tasks.Get(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "task not found") {
		return
	}
	Success(w, TaskFromDomain(*task))
}

// ListTaskSteps возвращает локальную историю шагов задачи.
// GET /api/v1/tasks/{id}/steps
func (h *Handler) ListTaskSteps(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if _, err := h.tasks.Get(r.Context(), id); HandleRepoError(w, h.logger, err, "task not found") {
		return
	}
	steps, err := h.steps.ListByTask(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	out := make([]StepResponse, len(steps))
	for i, s := range steps {
		out[i] = StepFromDomain(s)
	}
	List(w, out, len(out))
}

// StopTask отзывает незавершённую задачу.
// POST /api/v1/tasks/{id}/stop
//
// Задача, ещё не взятая воркером, не будет выполнена. Выполняющийся
// run не прерывается: меняются только статусы в БД.
func (h *Handler) StopTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	task, skipped, err := h.tasks.Revoke(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "task not found") {
		return
	}

	loggerFrom(r, h.logger).Info("task revoked", "task_id", id, "skipped_steps", skipped)
	Success(w, StopTaskResponse{Task: TaskFromDomain(*task), SkippedSteps: skipped})
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid task id")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
