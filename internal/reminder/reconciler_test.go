package reminder

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/dogwatchapp/dogwatch/internal/localstore"
	"github.com/dogwatchapp/dogwatch/internal/model"
)

type fakeScheduler struct {
	scheduleCalls int
	cancelCalls   int
	pending       map[string]time.Time
	failAll       bool
	nextHandle    int
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{pending: map[string]time.Time{}}
}

func (f *fakeScheduler) Schedule(fireAt time.Time, title, body string) (string, error) {
	f.scheduleCalls++
	if f.failAll {
		return "", errors.New("notification permission revoked")
	}
	f.nextHandle++
	handle := fmt.Sprintf("h%d", f.nextHandle)
	f.pending[handle] = fireAt
	return handle, nil
}

func (f *fakeScheduler) Cancel(handle string) error {
	f.cancelCalls++
	delete(f.pending, handle)
	return nil
}

func (f *fakeScheduler) reset() {
	f.scheduleCalls = 0
	f.cancelCalls = 0
}

func target(kind Kind, id int64, fireAt time.Time) Target {
	return Target{Kind: kind, SourceID: id, FireAt: fireAt, Title: "t", Body: "b"}
}

func TestSyncSchedulesNewTargets(t *testing.T) {
	sched := newFakeScheduler()
	store := localstore.NewMemStore()
	r := NewReconciler(sched, store, slog.Default())

	fireAt := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	if err := r.Sync([]Target{target(KindAppointment, 1, fireAt)}); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if sched.scheduleCalls != 1 || sched.cancelCalls != 0 {
		t.Errorf("calls = %d schedule / %d cancel, want 1/0", sched.scheduleCalls, sched.cancelCalls)
	}
	if len(sched.pending) != 1 {
		t.Errorf("pending = %d, want 1", len(sched.pending))
	}
}

func TestSyncIdempotent(t *testing.T) {
	sched := newFakeScheduler()
	store := localstore.NewMemStore()
	r := NewReconciler(sched, store, slog.Default())

	fireAt := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	targets := []Target{
		target(KindAppointment, 1, fireAt),
		target(KindRecurringTask, 7, fireAt.Add(time.Hour)),
	}
	if err := r.Sync(targets); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	sched.reset()
	if err := r.Sync(targets); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if sched.scheduleCalls != 0 || sched.cancelCalls != 0 {
		t.Errorf("second pass made %d schedule / %d cancel calls, want 0/0",
			sched.scheduleCalls, sched.cancelCalls)
	}
}

func TestSyncConverges(t *testing.T) {
	sched := newFakeScheduler()
	store := localstore.NewMemStore()
	r := NewReconciler(sched, store, slog.Default())

	fireAt := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	a := target(KindAppointment, 1, fireAt)
	b := target(KindAppointment, 2, fireAt.Add(time.Hour))
	c := target(KindRecurringTask, 3, fireAt.Add(2*time.Hour))

	if err := r.Sync([]Target{a, b}); err != nil {
		t.Fatalf("sync {A,B}: %v", err)
	}

	sched.reset()
	if err := r.Sync([]Target{b, c}); err != nil {
		t.Fatalf("sync {B,C}: %v", err)
	}
	if sched.cancelCalls != 1 {
		t.Errorf("cancel calls = %d, want exactly 1 (A)", sched.cancelCalls)
	}
	if sched.scheduleCalls != 1 {
		t.Errorf("schedule calls = %d, want exactly 1 (C)", sched.scheduleCalls)
	}
	if len(sched.pending) != 2 {
		t.Errorf("pending = %d, want 2", len(sched.pending))
	}
}

func TestSyncReschedulesMovedFireTime(t *testing.T) {
	sched := newFakeScheduler()
	store := localstore.NewMemStore()
	r := NewReconciler(sched, store, slog.Default())

	fireAt := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	if err := r.Sync([]Target{target(KindAppointment, 1, fireAt)}); err != nil {
		t.Fatalf("sync: %v", err)
	}

	// Appointment rescheduled: same key, new fire time.
	sched.reset()
	moved := fireAt.AddDate(0, 0, 2)
	if err := r.Sync([]Target{target(KindAppointment, 1, moved)}); err != nil {
		t.Fatalf("sync after move: %v", err)
	}
	if sched.cancelCalls != 1 || sched.scheduleCalls != 1 {
		t.Errorf("calls = %d schedule / %d cancel, want 1/1", sched.scheduleCalls, sched.cancelCalls)
	}
	if len(sched.pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(sched.pending))
	}
	for _, at := range sched.pending {
		if !at.Equal(moved) {
			t.Errorf("pending fire time = %v, want %v", at, moved)
		}
	}
}

func TestSyncSurvivesRestart(t *testing.T) {
	sched := newFakeScheduler()
	store := localstore.NewMemStore()

	fireAt := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	targets := []Target{target(KindAppointment, 1, fireAt)}

	if err := NewReconciler(sched, store, slog.Default()).Sync(targets); err != nil {
		t.Fatalf("sync: %v", err)
	}

	// New reconciler over the same persisted ledger: still a no-op.
	sched.reset()
	if err := NewReconciler(sched, store, slog.Default()).Sync(targets); err != nil {
		t.Fatalf("sync after restart: %v", err)
	}
	if sched.scheduleCalls != 0 || sched.cancelCalls != 0 {
		t.Errorf("post-restart pass made %d schedule / %d cancel calls, want 0/0",
			sched.scheduleCalls, sched.cancelCalls)
	}
}

func TestSyncScheduleFailureRetriedNextPass(t *testing.T) {
	sched := newFakeScheduler()
	store := localstore.NewMemStore()
	r := NewReconciler(sched, store, slog.Default())

	fireAt := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	ok := target(KindAppointment, 1, fireAt)
	targets := []Target{ok, target(KindRecurringTask, 2, fireAt.Add(time.Hour))}

	sched.failAll = true
	if err := r.Sync(targets); err != nil {
		t.Fatalf("sync with failing scheduler: %v", err)
	}
	if len(sched.pending) != 0 {
		t.Fatalf("nothing should be pending, got %d", len(sched.pending))
	}

	// Permission restored: both targets are still unledgered and get
	// scheduled now.
	sched.failAll = false
	sched.reset()
	if err := r.Sync(targets); err != nil {
		t.Fatalf("retry sync: %v", err)
	}
	if sched.scheduleCalls != 2 {
		t.Errorf("schedule calls = %d, want 2", sched.scheduleCalls)
	}
	if len(sched.pending) != 2 {
		t.Errorf("pending = %d, want 2", len(sched.pending))
	}
}

func TestCleanupExpired(t *testing.T) {
	sched := newFakeScheduler()
	store := localstore.NewMemStore()
	r := NewReconciler(sched, store, slog.Default())

	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
	past := target(KindAppointment, 1, now.Add(-time.Hour))
	future := target(KindAppointment, 2, now.Add(time.Hour))
	if err := r.Sync([]Target{past, future}); err != nil {
		t.Fatalf("sync: %v", err)
	}

	if err := r.CleanupExpired(now); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	entries, err := loadLedger(store)
	if err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(entries))
	}
	if entries[0].SourceID != 2 {
		t.Errorf("surviving entry source = %d, want 2", entries[0].SourceID)
	}
}

func TestCancelAllForItem(t *testing.T) {
	sched := newFakeScheduler()
	store := localstore.NewMemStore()
	r := NewReconciler(sched, store, slog.Default())

	fireAt := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	if err := r.Sync([]Target{
		target(KindAppointment, 1, fireAt),
		target(KindAppointment, 2, fireAt.Add(time.Hour)),
	}); err != nil {
		t.Fatalf("sync: %v", err)
	}

	sched.reset()
	if err := r.CancelAllForItem(1); err != nil {
		t.Fatalf("cancel all: %v", err)
	}
	if sched.cancelCalls != 1 {
		t.Errorf("cancel calls = %d, want 1", sched.cancelCalls)
	}

	entries, err := loadLedger(store)
	if err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	if len(entries) != 1 || entries[0].SourceID != 2 {
		t.Errorf("ledger should hold only item 2, got %+v", entries)
	}
}

func TestAppointmentTargetsEligibility(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	appointments := []model.Appointment{
		{ID: 1, Title: "Vet checkup", StartTime: now.Add(72 * time.Hour)},
		{ID: 2, Title: "Groomer", StartTime: now.Add(72 * time.Hour), Completed: true},
		{ID: 3, Title: "Vaccination", StartTime: now.Add(12 * time.Hour)}, // lead time already past
	}

	targets := AppointmentTargets(appointments, now)
	if len(targets) != 1 {
		t.Fatalf("targets = %d, want 1", len(targets))
	}
	if targets[0].SourceID != 1 {
		t.Errorf("target source = %d, want 1", targets[0].SourceID)
	}
	want := now.Add(72 * time.Hour).Add(-AppointmentLead)
	if !targets[0].FireAt.Equal(want) {
		t.Errorf("fire at = %v, want %v", targets[0].FireAt, want)
	}
}

func TestTaskTargetsNotifyRange(t *testing.T) {
	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	tasks := []model.RecurringTask{
		{ID: 1, Title: "Flea treatment", IntervalDays: 10, StartDate: start}, // due tomorrow
		{ID: 2, Title: "Nail trim", IntervalDays: 30, StartDate: start},      // far out
		{ID: 3, Title: "Heartworm pill", IntervalDays: 5, StartDate: start},  // overdue
	}

	targets := TaskTargets(tasks, now)
	if len(targets) != 2 {
		t.Fatalf("targets = %d, want 2", len(targets))
	}
	if targets[0].SourceID != 1 {
		t.Errorf("first target source = %d, want 1", targets[0].SourceID)
	}
	wantFire := time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC)
	if !targets[0].FireAt.Equal(wantFire) {
		t.Errorf("due-tomorrow fire at = %v, want %v", targets[0].FireAt, wantFire)
	}

	// Overdue task rolls its reminder to the next midnight, so the fire time
	// is stable for the rest of today and repeat passes stay no-ops.
	if targets[1].SourceID != 3 {
		t.Errorf("second target source = %d, want 3", targets[1].SourceID)
	}
	if !targets[1].FireAt.Equal(wantFire) {
		t.Errorf("overdue fire at = %v, want %v", targets[1].FireAt, wantFire)
	}
}
