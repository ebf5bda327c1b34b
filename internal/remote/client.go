package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shaiso/Datahub/internal/config"
	"github.com/shaiso/Datahub/internal/domain"
	"github.com/shaiso/Datahub/internal/telemetry"
)

// Endpoint labels для метрик.
const (
	EndpointWorkflowFilter = "workflow_filter"
	EndpointSessionStart   = "session_start"
	EndpointSessionFinish  = "session_finish"
	EndpointStepStart      = "step_start"
	EndpointStepFinish     = "step_finish"
)

// --- Request types ---

// WorkflowQuery — поиск workflow по файлу.
type WorkflowQuery struct {
	FilePath      string `json:"filePath"`
	FileName      string `json:"fileName"`
	FileExtension string `json:"fileExtension"`
}

// SessionStartRequest — открытие сессии.
type SessionStartRequest struct {
	WorkflowID string `json:"workflowId"`
	RunID      string `json:"runId"`
	FilePath   string `json:"filePath"`
}

// SessionFinishRequest — закрытие сессии.
type SessionFinishRequest struct {
	ID      string            `json:"id"`
	Code    domain.ResultCode `json:"code"`
	Message string            `json:"message"`
}

// StepStartRequest — старт шага.
type StepStartRequest struct {
	SessionID string `json:"sessionId"`
	StepID    string `json:"stepId"`
}

// StepFinishRequest — завершение шага. DataInput и DataOutput
// сериализуются как есть, nil уходит как null.
type StepFinishRequest struct {
	HistoryID  string            `json:"workflowHistoryId"`
	Code       domain.ResultCode `json:"code"`
	Message    string            `json:"message"`
	DataInput  any               `json:"dataInput"`
	DataOutput any               `json:"dataOutput"`
}

// --- Client ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

// Client — HTTP-клиент workflow-сервиса.
type Client struct {
	cfg        config.RemoteConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient создаёт клиент. Если httpClient nil, создаётся клиент с
// таймаутом из конфигурации.
func NewClient(cfg config.RemoteConfig, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		timeout := cfg.TimeoutDuration()
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger.With("component", "remote"),
	}
}

// FilterWorkflow находит workflow для файла.
func (c *Client) FilterWorkflow(ctx context.Context, q WorkflowQuery) (*domain.WorkflowDefinition, error) {
	var wf domain.WorkflowDefinition
	if err := c.call(ctx, EndpointWorkflowFilter, c.cfg.WorkflowFilter, q, &wf); err != nil {
		return nil, err
	}
	if wf.ID == "" {
		return nil, fmt.Errorf("%w: workflow without id", ErrEmptyResponse)
	}
	return &wf, nil
}

// StartSession открывает сессию выполнения.
func (c *Client) StartSession(ctx context.Context, req SessionStartRequest) (*domain.WorkflowSession, error) {
	var s domain.WorkflowSession
	if err := c.call(ctx, EndpointSessionStart, c.cfg.SessionStart, req, &s); err != nil {
		return nil, err
	}
	if s.ID == "" {
		return nil, fmt.Errorf("%w: session without id", ErrEmptyResponse)
	}
	return &s, nil
}

// FinishSession закрывает сессию.
func (c *Client) FinishSession(ctx context.Context, req SessionFinishRequest) error {
	return c.call(ctx, EndpointSessionFinish, c.cfg.SessionFinish, req, nil)
}

// StartStep отмечает старт шага и возвращает history id.
func (c *Client) StartStep(ctx context.Context, req StepStartRequest) (*domain.StepHistory, error) {
	var h domain.StepHistory
	if err := c.call(ctx, EndpointStepStart, c.cfg.StepStart, req, &h); err != nil {
		return nil, err
	}
	if h.HistoryID == "" {
		return nil, ErrMissingHistoryID
	}
	return &h, nil
}

// FinishStep отправляет результат шага.
func (c *Client) FinishStep(ctx context.Context, req StepFinishRequest) error {
	return c.call(ctx, EndpointStepFinish, c.cfg.StepFinish, req, nil)
}

// --- HTTP helpers ---

func (c *Client) call(ctx context.Context, endpoint, path string, body, result any) (err error) {
	defer func() {
		telemetry.RemoteCallsTotal.WithLabelValues(endpoint, telemetry.Outcome(err)).Inc()
		if err != nil {
			c.logger.Error("workflow service call failed", "endpoint", endpoint, "error", err)
		}
	}()

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s: HTTP %d: %s", ErrEmptyResponse, endpoint, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if result == nil {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("%w: %s: decode: %v", ErrEmptyResponse, endpoint, err)
	}
	if isEmptyData(dr.Data) {
		return fmt.Errorf("%w: %s", ErrEmptyResponse, endpoint)
	}
	if err := json.Unmarshal(dr.Data, result); err != nil {
		return fmt.Errorf("%w: %s: decode data: %v", ErrEmptyResponse, endpoint, err)
	}
	return nil
}

func isEmptyData(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "{}", "[]":
		return true
	}
	return false
}
