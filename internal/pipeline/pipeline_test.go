package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/shaiso/Datahub/internal/config"
	"github.com/shaiso/Datahub/internal/domain"
)

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Storage: config.StorageConfig{Backend: config.StorageFS, Root: t.TempDir()},
		Buckets: config.BucketsConfig{
			Raw:          "raw",
			Converted:    "converted",
			MasterData:   "master",
			Materialized: "materialized",
		},
		Remote: config.RemoteConfig{BaseURL: baseURL},
	}
	if err := cfg.Storage.Finalize(nil); err != nil {
		t.Fatalf("Storage.Finalize() error = %v", err)
	}
	if err := cfg.Buckets.Finalize(nil); err != nil {
		t.Fatalf("Buckets.Finalize() error = %v", err)
	}
	if err := cfg.Remote.Finalize(nil); err != nil {
		t.Fatalf("Remote.Finalize() error = %v", err)
	}
	if err := cfg.Engine.Finalize(); err != nil {
		t.Fatalf("Engine.Finalize() error = %v", err)
	}
	return cfg
}

// --- New Tests ---

func TestNew(t *testing.T) {
	p, err := New(testConfig(t, "http://localhost:1"), Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if p.Store == nil || p.Orchestrator == nil {
		t.Fatal("pipeline is not assembled")
	}
	for _, name := range []string{"extract_metadata", "file_parse", "publish_data"} {
		if !p.Steps.Known(name) {
			t.Errorf("step %s is not registered", name)
		}
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	cfg := testConfig(t, "http://localhost:1")
	cfg.Storage.Backend = "tape"

	if _, err := New(cfg, Options{}); err == nil {
		t.Error("New() error = nil, want error")
	}
}

func TestNew_UnparseableExtension(t *testing.T) {
	cfg := testConfig(t, "http://localhost:1")
	cfg.Engine.SupportedTypes = append(cfg.Engine.SupportedTypes, ".docx")

	if _, err := New(cfg, Options{}); err == nil {
		t.Error("New() error = nil, want error for extension without parser")
	}
}

// --- End-to-end Tests ---

func TestPipeline_LocalRun(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.URL.Path)
		mu.Unlock()
		var data any
		switch {
		case strings.HasSuffix(r.URL.Path, "/filter"):
			data = map[string]any{"id": "wf", "name": "orders", "workflowSteps": []map[string]any{
				{"workflowStepId": "s1", "stepName": "extract_metadata", "stepOrder": 1},
			}}
		case strings.HasSuffix(r.URL.Path, "/session/start"):
			data = map[string]any{"id": "sess"}
		case strings.HasSuffix(r.URL.Path, "/step/start"):
			data = map[string]any{"workflowHistoryId": "h1"}
		default:
			data = map[string]any{"ok": true}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	p, err := New(cfg, Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	file := filepath.Join(t.TempDir(), "po1.txt")
	if err := os.WriteFile(file, []byte("PO-1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := p.Orchestrator.Run(context.Background(), file, "run-1", domain.SourceLocal)
	if got != domain.RunResultCompleted {
		t.Fatalf("Run() = %q, want completed (calls %v)", got, calls)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 5 {
		t.Errorf("remote calls = %d, want 5: %v", len(calls), calls)
	}
}
