package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// --- Fakes ---

type fakeStore struct {
	ids       []uuid.UUID
	err       error
	calls     int
	olderThan time.Duration
}

func (f *fakeStore) FailStale(_ context.Context, olderThan time.Duration) ([]uuid.UUID, error) {
	f.calls++
	f.olderThan = olderThan
	return f.ids, f.err
}

type fakeLocker struct {
	ok       bool
	err      error
	released bool
}

func (l *fakeLocker) TryLock(context.Context) (func(), bool, error) {
	if l.err != nil || !l.ok {
		return nil, l.ok, l.err
	}
	return func() { l.released = true }, true, nil
}

// --- Reaper Tests ---

func TestReaper_Tick(t *testing.T) {
	store := &fakeStore{ids: []uuid.UUID{uuid.New(), uuid.New()}}
	locker := &fakeLocker{ok: true}
	r := New(Config{Tasks: store, Locker: locker, StaleAfter: 90 * time.Minute})

	n, err := r.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if n != 2 {
		t.Errorf("reaped = %d, want 2", n)
	}
	if store.olderThan != 90*time.Minute {
		t.Errorf("olderThan = %v", store.olderThan)
	}
	if !locker.released {
		t.Error("lock not released")
	}
}

func TestReaper_Tick_LockHeldElsewhere(t *testing.T) {
	store := &fakeStore{}
	r := New(Config{Tasks: store, Locker: &fakeLocker{ok: false}})

	n, err := r.Tick(context.Background())
	if err != nil || n != 0 {
		t.Errorf("Tick() = %d, %v; want 0, nil", n, err)
	}
	if store.calls != 0 {
		t.Error("store called without lock")
	}
}

func TestReaper_Tick_Errors(t *testing.T) {
	tests := []struct {
		name   string
		store  *fakeStore
		locker *fakeLocker
	}{
		{"lock error", &fakeStore{}, &fakeLocker{err: errors.New("db down")}},
		{"store error", &fakeStore{err: errors.New("db down")}, &fakeLocker{ok: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(Config{Tasks: tt.store, Locker: tt.locker})
			if _, err := r.Tick(context.Background()); err == nil {
				t.Error("Tick() error = nil, want error")
			}
		})
	}
}

func TestReaper_Tick_NoLocker(t *testing.T) {
	store := &fakeStore{ids: []uuid.UUID{uuid.New()}}
	r := New(Config{Tasks: store})

	if n, err := r.Tick(context.Background()); err != nil || n != 1 {
		t.Errorf("Tick() = %d, %v; want 1, nil", n, err)
	}
}

// --- Cron Tests ---

func TestNextRun(t *testing.T) {
	from := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	tests := []struct {
		expr string
		want time.Time
	}{
		{"*/5 * * * *", time.Date(2024, 5, 6, 7, 10, 0, 0, time.UTC)},
		{"0 * * * *", time.Date(2024, 5, 6, 8, 0, 0, 0, time.UTC)},
		{"30 2 * * *", time.Date(2024, 5, 7, 2, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := NextRun(tt.expr, from)
			if err != nil {
				t.Fatalf("NextRun() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextRun() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextRun_Invalid(t *testing.T) {
	if _, err := NextRun("every minute", time.Now()); err == nil {
		t.Error("NextRun() error = nil, want error")
	}
}

func TestReaper_Run_StopsOnCancel(t *testing.T) {
	r := New(Config{Tasks: &fakeStore{}})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestReaper_Run_InvalidSchedule(t *testing.T) {
	r := New(Config{Tasks: &fakeStore{}, Schedule: "bogus"})
	if err := r.Run(context.Background()); err == nil {
		t.Error("Run() error = nil, want error")
	}
}
