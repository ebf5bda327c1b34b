package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shaiso/Datahub/internal/blob"
	"github.com/shaiso/Datahub/internal/domain"
	"github.com/shaiso/Datahub/internal/steps"
)

// failingStore — Store, у которого запись всегда падает.
type failingStore struct {
	blob.Store
}

func (failingStore) Put(context.Context, string, string, []byte, string) error {
	return errors.New("disk full")
}

func testRun() *steps.Run {
	return &steps.Run{
		ID:       "run-1",
		FilePath: "orders/ACME/po1.txt",
		Record:   domain.FileRecord{FileName: "po1.txt", FileExtension: ".txt"},
		Category: domain.CategoryOrder,
	}
}

func newDispatcher(t *testing.T, store blob.Store, defs []steps.Definition, funcs map[steps.Capability]steps.Func) *Dispatcher {
	t.Helper()
	reg, err := steps.NewRegistry(defs, funcs)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return New(Config{Registry: reg, Store: store, Bucket: "materialized", Prefix: "materialized"})
}

func constant(v any) steps.Func {
	return func(context.Context, *steps.Run, []any) (any, error) { return v, nil }
}

// --- Context Tests ---

func TestContext_Defaults(t *testing.T) {
	rc := NewContext(testRun())

	for _, key := range []string{steps.KeyInputData, KeyMaterializedLocation} {
		v, ok := rc.Get(key)
		if !ok {
			t.Errorf("%s should exist", key)
		}
		if v != nil {
			t.Errorf("%s should be nil, got %v", key, v)
		}
	}
	if _, ok := rc.Get("missing"); ok {
		t.Error("missing key should not exist")
	}
	if rc.Run().ID != "run-1" {
		t.Errorf("unexpected run: %+v", rc.Run())
	}
}

func TestContext_LastWriteWins(t *testing.T) {
	rc := NewContext(testRun())
	rc.Set("a", "k", 1)
	rc.Set("b", "k", 2)

	if rc.Value("k") != 2 {
		t.Errorf("expected 2, got %v", rc.Value("k"))
	}

	h := rc.History()
	if len(h) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(h))
	}
	if h[2].Step != "a" || h[2].Value != 1 || h[3].Seq != 3 {
		t.Errorf("unexpected history: %+v", h)
	}

	// История — копия
	h[3].Value = 99
	if rc.Value("k") != 2 {
		t.Error("history mutation leaked into context")
	}

	snap := rc.Snapshot()
	if snap["k"] != 2 || len(snap) != 3 {
		t.Errorf("unexpected snapshot: %v", snap)
	}
}

// --- Dispatcher Tests ---

func TestExecute_OutputAndInputData(t *testing.T) {
	defs := []steps.Definition{{Name: "a", Capability: steps.CapMapping, Output: "out"}}
	d := newDispatcher(t, blob.NewFS(t.TempDir(), nil), defs, map[steps.Capability]steps.Func{
		steps.CapMapping: constant("R"),
	})

	rc := NewContext(testRun())
	got := d.Execute(context.Background(), defs[0], rc, "run-1")

	if got != "R" {
		t.Errorf("expected R, got %v", got)
	}
	if rc.Value("out") != "R" || rc.InputData() != "R" {
		t.Errorf("unexpected context: %v", rc.Snapshot())
	}
}

func TestExecute_NoOutputKeepsInputData(t *testing.T) {
	defs := []steps.Definition{{Name: "a", Capability: steps.CapPublishData}}
	d := newDispatcher(t, blob.NewFS(t.TempDir(), nil), defs, map[steps.Capability]steps.Func{
		steps.CapPublishData: constant("X"),
	})

	rc := NewContext(testRun())
	rc.Set("prev", steps.KeyInputData, "P")

	if got := d.Execute(context.Background(), defs[0], rc, "run-1"); got != "X" {
		t.Errorf("expected X, got %v", got)
	}
	if rc.InputData() != "P" {
		t.Errorf("input_data should be unchanged, got %v", rc.InputData())
	}
}

func TestExecute_Args(t *testing.T) {
	var seen []any
	capture := func(_ context.Context, _ *steps.Run, args []any) (any, error) {
		seen = args
		return "ok", nil
	}

	tests := []struct {
		name string
		def  steps.Definition
		want []any
	}{
		{"explicit inputs", steps.Definition{Name: "s", Capability: steps.CapMapping, Inputs: []string{"a", "missing", "b"}}, []any{1, nil, 2}},
		{"implicit input", steps.Definition{Name: "s", Capability: steps.CapMapping, Input: "b"}, []any{2}},
		{"no args", steps.Definition{Name: "s", Capability: steps.CapMapping}, []any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDispatcher(t, nil, nil, map[steps.Capability]steps.Func{steps.CapMapping: capture})
			rc := NewContext(testRun())
			rc.Set("x", "a", 1)
			rc.Set("x", "b", 2)

			d.Execute(context.Background(), tt.def, rc, "run-1")

			if len(seen) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, seen)
			}
			for i := range tt.want {
				if seen[i] != tt.want[i] {
					t.Errorf("arg %d: expected %v, got %v", i, tt.want[i], seen[i])
				}
			}
		})
	}
}

func TestExecute_ExtractBindsWholeResult(t *testing.T) {
	result := map[string]any{"x": 1, "y": 2}
	def := steps.Definition{
		Name:       "s",
		Capability: steps.CapMapping,
		Output:     "out",
		Extract:    map[string]string{"a": "x", "b": "y"},
	}
	d := newDispatcher(t, nil, nil, map[steps.Capability]steps.Func{steps.CapMapping: constant(result)})

	rc := NewContext(testRun())
	d.Execute(context.Background(), def, rc, "run-1")

	for _, key := range []string{"a", "b"} {
		got, ok := rc.Value(key).(map[string]any)
		if !ok || len(got) != 2 || got["x"] != 1 {
			t.Errorf("%s: expected whole result, got %v", key, rc.Value(key))
		}
	}
}

func TestExecute_UnknownCapability(t *testing.T) {
	d := newDispatcher(t, nil, nil, map[steps.Capability]steps.Func{})
	rc := NewContext(testRun())
	rc.Set("prev", steps.KeyInputData, "P")

	def := d.registry.Resolve("ocr")
	if got := d.Execute(context.Background(), def, rc, "run-1"); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
	if rc.InputData() != "P" {
		t.Errorf("input_data should be unchanged, got %v", rc.InputData())
	}
}

func TestExecute_ErrorAndPanic(t *testing.T) {
	tests := []struct {
		name string
		fn   steps.Func
	}{
		{"error", func(context.Context, *steps.Run, []any) (any, error) { return "partial", errors.New("boom") }},
		{"panic", func(context.Context, *steps.Run, []any) (any, error) { panic("boom") }},
		{"nil map panic", func(context.Context, *steps.Run, []any) (any, error) {
			var m map[string]int
			m["x"] = 1
			return m, nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := steps.Definition{Name: "s", Capability: steps.CapMapping, Output: "out", Materialize: true}
			d := newDispatcher(t, blob.NewFS(t.TempDir(), nil), nil, map[steps.Capability]steps.Func{steps.CapMapping: tt.fn})
			rc := NewContext(testRun())

			if got := d.Execute(context.Background(), def, rc, "run-1"); got != nil {
				t.Errorf("expected nil, got %v", got)
			}
			if _, ok := rc.Get("out"); ok {
				t.Error("output should not be written on failure")
			}
			if _, ok := rc.MaterializedLocation(); ok {
				t.Error("location should be nil on failure")
			}
		})
	}
}

func TestExecute_Materialize(t *testing.T) {
	store := blob.NewFS(t.TempDir(), nil)
	defs := []steps.Definition{
		{Name: "file_parse", Capability: steps.CapParseFileToJSON, Output: "parsed_data", Materialize: true},
		{Name: "validation", Capability: steps.CapValidation, Output: "validated_data"},
	}
	d := newDispatcher(t, store, defs, map[steps.Capability]steps.Func{
		steps.CapParseFileToJSON: constant(map[string]any{"po": "A1"}),
		steps.CapValidation:      constant("ok"),
	})
	rc := NewContext(testRun())
	ctx := context.Background()

	d.Execute(ctx, defs[0], rc, "run-42")

	loc, ok := rc.MaterializedLocation()
	if !ok || loc != "materialized/run-42/file_parse" {
		t.Fatalf("unexpected location: %v", rc.Value(KeyMaterializedLocation))
	}
	data, err := store.Get(ctx, "materialized", loc)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got["po"] != "A1" {
		t.Errorf("unexpected materialized payload: %v", got)
	}

	d.Execute(ctx, defs[1], rc, "run-42")
	if v := rc.Value(KeyMaterializedLocation); v != nil {
		t.Errorf("location should be reset by a non-materializing step, got %v", v)
	}
}

func TestExecute_MaterializeNilResult(t *testing.T) {
	def := steps.Definition{Name: "s", Capability: steps.CapMapping, Output: "out", Materialize: true}
	d := newDispatcher(t, blob.NewFS(t.TempDir(), nil), nil, map[steps.Capability]steps.Func{steps.CapMapping: constant(nil)})
	rc := NewContext(testRun())

	d.Execute(context.Background(), def, rc, "run-1")
	if _, ok := rc.MaterializedLocation(); ok {
		t.Error("nil result should not be materialized")
	}
}

func TestExecute_MaterializeFailure(t *testing.T) {
	def := steps.Definition{Name: "s", Capability: steps.CapMapping, Output: "out", Materialize: true}
	d := newDispatcher(t, failingStore{}, nil, map[steps.Capability]steps.Func{steps.CapMapping: constant("R")})
	rc := NewContext(testRun())

	if got := d.Execute(context.Background(), def, rc, "run-1"); got != "R" {
		t.Errorf("result should survive a failed write, got %v", got)
	}
	if rc.Value("out") != "R" {
		t.Error("output should stay in context")
	}
	if v := rc.Value(KeyMaterializedLocation); v != nil {
		t.Errorf("location should be nil, got %v", v)
	}
}
