package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dogwatchapp/dogwatch/internal/localstore"
	"github.com/dogwatchapp/dogwatch/internal/model"
	"github.com/dogwatchapp/dogwatch/internal/reminder"
)

type fakeScheduler struct {
	mu        sync.Mutex
	scheduled map[string]time.Time
	next      int
}

func (f *fakeScheduler) Schedule(fireAt time.Time, title, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scheduled == nil {
		f.scheduled = make(map[string]time.Time)
	}
	f.next++
	handle := fmt.Sprintf("h%d", f.next)
	f.scheduled[handle] = fireAt
	return handle, nil
}

func (f *fakeScheduler) Cancel(handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.scheduled, handle)
	return nil
}

func (f *fakeScheduler) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.scheduled)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func stubAPI(t *testing.T, appointments []model.Appointment, tasks []model.RecurringTask) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/appointments", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-test" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(appointments)
	})
	mux.HandleFunc("GET /api/tasks", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(tasks)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestRefreshSchedulesReminders(t *testing.T) {
	future := time.Now().Add(72 * time.Hour)
	ts := stubAPI(t, []model.Appointment{
		{ID: 1, Title: "Vet checkup", StartTime: future},
		{ID: 2, Title: "Done already", StartTime: future, Completed: true},
	}, nil)

	sched := &fakeScheduler{}
	rec := reminder.NewReconciler(sched, localstore.NewMemStore(), testLogger())
	a := New(Config{ServerURL: ts.URL, Token: "tok-test"}, NewClient(ts.URL, "tok-test"), rec, testLogger())

	if err := a.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if sched.count() != 1 {
		t.Errorf("scheduled = %d reminders, want 1 (completed appointment excluded)", sched.count())
	}

	// A second refresh against the same data is a no-op.
	if err := a.Refresh(context.Background()); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if sched.count() != 1 {
		t.Errorf("second refresh changed timer count to %d", sched.count())
	}
}

func TestRefreshFailsClosed(t *testing.T) {
	// Server that always 500s: existing state must survive.
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	sched := &fakeScheduler{}
	store := localstore.NewMemStore()
	rec := reminder.NewReconciler(sched, store, testLogger())

	// Seed one reminder directly.
	if err := rec.Sync([]reminder.Target{{
		Kind:     reminder.KindAppointment,
		SourceID: 1,
		FireAt:   time.Now().Add(time.Hour),
		Title:    "Vet",
	}}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	a := New(Config{ServerURL: ts.URL, Token: "tok-test"}, NewClient(ts.URL, "tok-test"), rec, testLogger())
	if err := a.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh to fail against a broken server")
	}
	if sched.count() != 1 {
		t.Errorf("failed refresh should not touch timers, have %d", sched.count())
	}
}
