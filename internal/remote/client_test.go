package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shaiso/Datahub/internal/config"
	"github.com/shaiso/Datahub/internal/domain"
)

func testConfig(baseURL string) config.RemoteConfig {
	return config.RemoteConfig{
		BaseURL:        baseURL,
		Timeout:        "5s",
		WorkflowFilter: "/workflow/filter",
		SessionStart:   "/workflow/session/start",
		SessionFinish:  "/workflow/session/finish",
		StepStart:      "/workflow/step/start",
		StepFinish:     "/workflow/step/finish",
	}
}

// serve возвращает сервер, отвечающий body на любой запрос, и
// сохраняет последний путь и тело запроса.
func serve(t *testing.T, status int, body string) (*httptest.Server, *string, *map[string]any) {
	t.Helper()
	var path string
	var req map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type: %s", ct)
		}
		path = r.URL.Path
		req = nil
		_ = json.NewDecoder(r.Body).Decode(&req)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &path, &req
}

// --- FilterWorkflow Tests ---

func TestFilterWorkflow(t *testing.T) {
	body := `{"data":{"id":"wf-1","name":"orders","workflowSteps":[
		{"workflowStepId":"s1","stepName":"file_parse","stepOrder":1},
		{"workflowStepId":"s2","stepName":"write_json_to_s3","stepOrder":2,"stepConfiguration":{"x":1}}
	]}}`
	srv, path, req := serve(t, http.StatusOK, body)
	c := NewClient(testConfig(srv.URL+"/"), nil, nil)

	wf, err := c.FilterWorkflow(context.Background(), WorkflowQuery{
		FilePath:      "orders/ACME/",
		FileName:      "po1.pdf",
		FileExtension: ".pdf",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if *path != "/workflow/filter" {
		t.Errorf("unexpected path: %s", *path)
	}
	if (*req)["filePath"] != "orders/ACME/" || (*req)["fileName"] != "po1.pdf" || (*req)["fileExtension"] != ".pdf" {
		t.Errorf("unexpected request: %v", *req)
	}

	if wf.ID != "wf-1" || len(wf.Steps) != 2 {
		t.Fatalf("unexpected workflow: %+v", wf)
	}
	if wf.Steps[1].StepID != "s2" || wf.Steps[1].Name != "write_json_to_s3" || wf.Steps[1].Order != 2 {
		t.Errorf("unexpected step: %+v", wf.Steps[1])
	}
}

func TestFilterWorkflow_StepConfigurationShapes(t *testing.T) {
	tests := []struct {
		name string
		conf string
	}{
		{"object", `{"x":1}`},
		{"list of objects", `[{"k":"v"},{"k":"w"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"data":{"id":"wf-1","name":"orders","workflowSteps":[
				{"workflowStepId":"s1","stepName":"file_parse","stepOrder":1,"stepConfiguration":` + tt.conf + `}
			]}}`
			srv, _, _ := serve(t, http.StatusOK, body)
			c := NewClient(testConfig(srv.URL+"/"), nil, nil)

			wf, err := c.FilterWorkflow(context.Background(), WorkflowQuery{FileName: "po1.pdf"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(wf.Steps) != 1 || wf.Steps[0].Name != "file_parse" {
				t.Fatalf("unexpected workflow: %+v", wf)
			}
			if got := string(wf.Steps[0].Configuration); got != tt.conf {
				t.Errorf("expected configuration %s, got %s", tt.conf, got)
			}
		})
	}
}

func TestFilterWorkflow_Empty(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"null data", http.StatusOK, `{"data":null}`},
		{"empty object", http.StatusOK, `{"data":{}}`},
		{"no envelope", http.StatusOK, `{}`},
		{"not json", http.StatusOK, `<html>`},
		{"server error", http.StatusInternalServerError, `{"data":{"id":"wf-1"}}`},
		{"not found", http.StatusNotFound, ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _, _ := serve(t, tt.status, tt.body)
			c := NewClient(testConfig(srv.URL), nil, nil)

			_, err := c.FilterWorkflow(context.Background(), WorkflowQuery{})
			if !errors.Is(err, ErrEmptyResponse) {
				t.Errorf("expected ErrEmptyResponse, got %v", err)
			}
		})
	}
}

// --- Session Tests ---

func TestStartSession(t *testing.T) {
	srv, path, req := serve(t, http.StatusOK, `{"data":{"id":"sess-1","status":"RUNNING"}}`)
	c := NewClient(testConfig(srv.URL), nil, nil)

	s, err := c.StartSession(context.Background(), SessionStartRequest{
		WorkflowID: "wf-1",
		RunID:      "run-1",
		FilePath:   "orders/ACME/po1.pdf",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ID != "sess-1" {
		t.Errorf("unexpected session: %+v", s)
	}
	if *path != "/workflow/session/start" {
		t.Errorf("unexpected path: %s", *path)
	}
	if (*req)["workflowId"] != "wf-1" || (*req)["runId"] != "run-1" || (*req)["filePath"] != "orders/ACME/po1.pdf" {
		t.Errorf("unexpected request: %v", *req)
	}
}

func TestFinishSession(t *testing.T) {
	srv, path, req := serve(t, http.StatusOK, `{"data":null}`)
	c := NewClient(testConfig(srv.URL), nil, nil)

	err := c.FinishSession(context.Background(), SessionFinishRequest{ID: "sess-1", Code: domain.ResultSuccess})
	if err != nil {
		t.Fatalf("ack with empty data should succeed: %v", err)
	}
	if *path != "/workflow/session/finish" || (*req)["code"] != "1" || (*req)["id"] != "sess-1" {
		t.Errorf("unexpected call: %s %v", *path, *req)
	}
}

// --- Step Tests ---

func TestStartStep(t *testing.T) {
	srv, _, req := serve(t, http.StatusOK, `{"data":{"workflowHistoryId":"h-1","status":"PROCESSING"}}`)
	c := NewClient(testConfig(srv.URL), nil, nil)

	h, err := c.StartStep(context.Background(), StepStartRequest{SessionID: "sess-1", StepID: "s1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.HistoryID != "h-1" {
		t.Errorf("unexpected history: %+v", h)
	}
	if (*req)["sessionId"] != "sess-1" || (*req)["stepId"] != "s1" {
		t.Errorf("unexpected request: %v", *req)
	}
}

func TestStartStep_MissingHistoryID(t *testing.T) {
	srv, _, _ := serve(t, http.StatusOK, `{"data":{"status":"PROCESSING"}}`)
	c := NewClient(testConfig(srv.URL), nil, nil)

	if _, err := c.StartStep(context.Background(), StepStartRequest{}); !errors.Is(err, ErrMissingHistoryID) {
		t.Errorf("expected ErrMissingHistoryID, got %v", err)
	}
}

func TestFinishStep_NullOutput(t *testing.T) {
	srv, _, req := serve(t, http.StatusOK, `{"data":{}}`)
	c := NewClient(testConfig(srv.URL), nil, nil)

	err := c.FinishStep(context.Background(), StepFinishRequest{
		HistoryID: "h-1",
		Code:      domain.ResultSuccess,
		DataInput: map[string]any{"a": 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, ok := (*req)["dataOutput"]
	if !ok || out != nil {
		t.Errorf("dataOutput should be sent as null, got %v (present=%v)", out, ok)
	}
	if (*req)["workflowHistoryId"] != "h-1" || (*req)["code"] != "1" {
		t.Errorf("unexpected request: %v", *req)
	}
}

func TestCall_ContextCancelled(t *testing.T) {
	srv, _, _ := serve(t, http.StatusOK, `{"data":{"id":"x"}}`)
	c := NewClient(testConfig(srv.URL), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.StartSession(ctx, SessionStartRequest{}); err == nil {
		t.Error("expected error for cancelled context")
	}
}
