// Package reminder keeps a device's local notification schedule in sync
// with the authoritative appointment and task data. Reconciliation diffs
// the current target set against a persisted ledger of what was previously
// scheduled; any number of passes over the same data converge to the same
// ledger, and a pass over stale data is corrected by the next pass over
// fresh data.
package reminder

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dogwatchapp/dogwatch/internal/localstore"
)

// Scheduler is the local notification primitive. Schedule returns an opaque
// handle used to cancel the pending notification.
type Scheduler interface {
	Schedule(fireAt time.Time, title, body string) (handle string, err error)
	Cancel(handle string) error
}

// Reconciler owns the reminder ledger for one device. A mutex serializes
// passes; there is no re-entrancy and no ambient global state.
type Reconciler struct {
	mu     sync.Mutex
	sched  Scheduler
	store  localstore.Store
	logger *slog.Logger
}

func NewReconciler(sched Scheduler, store localstore.Store, logger *slog.Logger) *Reconciler {
	return &Reconciler{sched: sched, store: store, logger: logger}
}

// Sync makes the scheduled reminders match the target set:
//
//   - target without a ledger entry: schedule it and record it
//   - ledger entry without a target: cancel it and drop it
//   - both, fire time moved: cancel and reschedule (the primitive has no
//     update verb)
//   - both, unchanged: nothing, which is what keeps repeated passes cheap
//
// A schedule failure skips only that target; it stays out of the ledger and
// is retried on the next pass.
func (r *Reconciler) Sync(targets []Target) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := loadLedger(r.store)
	if err != nil {
		return err
	}

	want := make(map[string]Target, len(targets))
	for _, t := range targets {
		want[t.Key()] = t
	}

	kept := entries[:0]
	have := make(map[string]bool, len(entries))
	for _, e := range entries {
		k := key(e.Kind, e.SourceID)
		t, ok := want[k]
		if !ok {
			r.cancel(e)
			continue
		}
		have[k] = true
		if t.FireAt.Equal(e.FireAt) {
			kept = append(kept, e)
			continue
		}

		// Fire time moved: replace, don't patch.
		r.cancel(e)
		fresh, ok := r.schedule(t)
		if !ok {
			continue
		}
		kept = append(kept, fresh)
	}

	for _, t := range targets {
		if have[t.Key()] {
			continue
		}
		e, ok := r.schedule(t)
		if !ok {
			continue
		}
		kept = append(kept, e)
	}

	return saveLedger(r.store, kept)
}

// CleanupExpired drops ledger entries whose fire time has passed. Their
// device-level triggers have already fired or lapsed; the entries must not
// be mistaken for still-pending on the next diff. Run at startup.
func (r *Reconciler) CleanupExpired(now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := loadLedger(r.store)
	if err != nil {
		return err
	}

	kept := entries[:0]
	for _, e := range entries {
		if e.FireAt.Before(now) {
			continue
		}
		kept = append(kept, e)
	}
	return saveLedger(r.store, kept)
}

// CancelAllForItem immediately cancels every reminder for one source item,
// used when the item is completed by direct user action rather than waiting
// for the next full pass.
func (r *Reconciler) CancelAllForItem(sourceID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := loadLedger(r.store)
	if err != nil {
		return err
	}

	kept := entries[:0]
	for _, e := range entries {
		if e.SourceID == sourceID {
			r.cancel(e)
			continue
		}
		kept = append(kept, e)
	}
	return saveLedger(r.store, kept)
}

func (r *Reconciler) schedule(t Target) (Entry, bool) {
	handle, err := r.sched.Schedule(t.FireAt, t.Title, t.Body)
	if err != nil {
		// Leave the target unledgered; the next pass retries it.
		r.logger.Warn("reminder: schedule failed", "key", t.Key(), "error", err)
		return Entry{}, false
	}
	return Entry{
		ID:       uuid.NewString(),
		Kind:     t.Kind,
		SourceID: t.SourceID,
		FireAt:   t.FireAt,
		Handle:   handle,
	}, true
}

func (r *Reconciler) cancel(e Entry) {
	if err := r.sched.Cancel(e.Handle); err != nil {
		// The trigger may have fired already; dropping the entry is still
		// correct.
		r.logger.Warn("reminder: cancel failed", "key", key(e.Kind, e.SourceID), "error", err)
	}
}
