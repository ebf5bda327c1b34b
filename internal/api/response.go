package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shaiso/Datahub/internal/repo"
)

// ErrorCode — машинный код ошибки в ответе.
type ErrorCode string

const (
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeInvalidState  ErrorCode = "INVALID_STATE"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// Конверты ответов: {"data": ...} или {"error": {"code", "message"}}.
type (
	DataResponse struct {
		Data any `json:"data"`
	}

	ListResponse struct {
		Data  any `json:"data"`
		Total int `json:"total"`
	}

	ErrorResponse struct {
		Error ErrorDetail `json:"error"`
	}

	ErrorDetail struct {
		Code    ErrorCode `json:"code"`
		Message string    `json:"message"`
	}
)

// JSON пишет v как тело ответа.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Success(w http.ResponseWriter, data any) { JSON(w, http.StatusOK, DataResponse{Data: data}) }

func Accepted(w http.ResponseWriter, data any) { JSON(w, http.StatusAccepted, DataResponse{Data: data}) }

func List(w http.ResponseWriter, data any, total int) {
	JSON(w, http.StatusOK, ListResponse{Data: data, Total: total})
}

func Error(w http.ResponseWriter, status int, code ErrorCode, message string) {
	JSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// InternalError отвечает 500 без деталей; err (если есть) уходит в лог.
func InternalError(w http.ResponseWriter, logger *slog.Logger, err error) {
	if err != nil {
		logger.Error("internal error", "error", err)
	}
	Error(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
}

// HandleRepoError пишет ответ для ошибки репозитория и возвращает true,
// если err != nil:
//
//	ErrNotFound     → 404 с notFoundMsg
//	ErrInvalidState → 409, задача уже в терминальном статусе
//	остальное       → 500
func HandleRepoError(w http.ResponseWriter, logger *slog.Logger, err error, notFoundMsg string) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, repo.ErrNotFound):
		Error(w, http.StatusNotFound, ErrCodeNotFound, notFoundMsg)
	case errors.Is(err, repo.ErrInvalidState):
		Error(w, http.StatusConflict, ErrCodeInvalidState, err.Error())
	default:
		InternalError(w, logger, err)
	}
	return true
}
