package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shaiso/Datahub/internal/domain"
)

// ProcessFile принимает файл в обработку.
// POST /api/v1/files/process
//
// Создаёт QUEUED задачу и публикует file.pending. Если публикация не
// удалась, задача всё равно создана: её заберёт polling воркера.
func (h *Handler) ProcessFile(w http.ResponseWriter, r *http.Request) {
	var req ProcessFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	req.FilePath = strings.TrimSpace(req.FilePath)
	if req.FilePath == "" {
		BadRequest(w, "file_path is required")
		return
	}
	source, ok := domain.ParseSourceType(req.Source)
	if !ok {
		BadRequest(w, "source must be s3 or local")
		return
	}

	task := domain.NewTask(req.FilePath, source)
	if err := h.tasks.Create(r.Context(), task); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	logger := loggerFrom(r, h.logger).With("task_id", task.ID, "file_path", task.FilePath)
	if h.enqueuer != nil {
		if err := h.enqueuer.PublishFilePending(r.Context(), task); err != nil {
			logger.Warn("failed to publish file.pending, task left for polling", "error", err)
		}
	}
	logger.Info("file accepted", "source", source)

	Accepted(w, ProcessFileResponse{ID: task.ID})
}
