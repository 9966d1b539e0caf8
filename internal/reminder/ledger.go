package reminder

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dogwatchapp/dogwatch/internal/localstore"
)

const ledgerKey = "reminder_ledger"

// Entry is one reminder the device believes is currently scheduled. The
// ledger is disposable state: it can always be rebuilt from current data
// plus "now", but it must survive restarts so reconciliation never
// double-schedules.
type Entry struct {
	ID       string    `json:"id"`
	Kind     Kind      `json:"kind"`
	SourceID int64     `json:"source_id"`
	FireAt   time.Time `json:"fire_at"`
	Handle   string    `json:"handle"`
}

func loadLedger(store localstore.Store) ([]Entry, error) {
	raw, ok, err := store.Get(ledgerKey)
	if err != nil {
		return nil, fmt.Errorf("load reminder ledger: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("parse reminder ledger: %w", err)
	}
	return entries, nil
}

func saveLedger(store localstore.Store, entries []Entry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal reminder ledger: %w", err)
	}
	if err := store.Set(ledgerKey, string(raw)); err != nil {
		return fmt.Errorf("save reminder ledger: %w", err)
	}
	return nil
}
