package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// TaskResponse — задача из API.
type TaskResponse struct {
	ID         string `json:"id"`
	FilePath   string `json:"file_path"`
	Source     string `json:"source"`
	Status     string `json:"status"`
	Result     string `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
	CreatedAt  string `json:"created_at"`
	StartedAt  string `json:"started_at,omitempty"`
	FinishedAt string `json:"finished_at,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
}

// StepResponse — шаг задачи из API.
type StepResponse struct {
	Order          int    `json:"step_order"`
	Name           string `json:"step_name"`
	HistoryID      string `json:"history_id,omitempty"`
	Status         string `json:"status"`
	OutputLocation string `json:"output_location,omitempty"`
	StartedAt      string `json:"started_at"`
	FinishedAt     string `json:"finished_at,omitempty"`
}

// StopTaskResponse — результат отзыва задачи.
type StopTaskResponse struct {
	Task         TaskResponse `json:"task"`
	SkippedSteps int64        `json:"skipped_steps"`
}

// --- Request types ---

// ProcessFileRequest — постановка файла в обработку.
type ProcessFileRequest struct {
	FilePath string `json:"file_path"`
	Source   string `json:"source,omitempty"`
}

// ListTasksOpts — параметры фильтрации задач.
type ListTasksOpts struct {
	Status string
	Limit  int
	Offset int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError — ошибка, которую вернул API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error реализует интерфейс error.
func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.StatusCode)
	}
	return e.Code + ": " + e.Message
}

// IsNotFound сообщает, что API ответил 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// --- Client ---

// Client — HTTP-клиент для Datahub API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ProcessFile ставит файл в очередь и возвращает id задачи.
func (c *Client) ProcessFile(ctx context.Context, req ProcessFileRequest) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.doData(ctx, http.MethodPost, "/api/v1/files/process", req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// ListTasks возвращает задачи, новые первыми.
func (c *Client) ListTasks(ctx context.Context, opts ListTasksOpts) ([]TaskResponse, error) {
	params := url.Values{}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		params.Set("offset", strconv.Itoa(opts.Offset))
	}

	path := "/api/v1/tasks"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var tasks []TaskResponse
	err := c.doData(ctx, http.MethodGet, path, nil, &tasks)
	return tasks, err
}

// GetTask возвращает задачу по ID.
func (c *Client) GetTask(ctx context.Context, id string) (*TaskResponse, error) {
	var task TaskResponse
	if err := c.doData(ctx, http.MethodGet, "/api/v1/tasks/"+url.PathEscape(id), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// ListTaskSteps возвращает локальную историю шагов задачи.
func (c *Client) ListTaskSteps(ctx context.Context, id string) ([]StepResponse, error) {
	var steps []StepResponse
	err := c.doData(ctx, http.MethodGet, "/api/v1/tasks/"+url.PathEscape(id)+"/steps", nil, &steps)
	return steps, err
}

// StopTask отзывает задачу.
func (c *Client) StopTask(ctx context.Context, id string) (*StopTaskResponse, error) {
	var res StopTaskResponse
	if err := c.doData(ctx, http.MethodPost, "/api/v1/tasks/"+url.PathEscape(id)+"/stop", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// --- HTTP helpers ---

func (c *Client) doData(ctx context.Context, method, path string, body, result any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkError(resp); err != nil {
		return err
	}
	if resp.StatusCode == http.StatusNoContent || result == nil {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return json.Unmarshal(dr.Data, result)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
		apiErr.Code = er.Error.Code
		apiErr.Message = er.Error.Message
	}
	return apiErr
}
