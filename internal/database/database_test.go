package database

import (
	"path/filepath"
	"testing"
)

func TestOpenAppliesPragmas(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "pragmas.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("journal_mode = %q, want wal", journalMode)
	}

	var busyTimeout int
	if err := db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout); err != nil {
		t.Fatalf("query busy_timeout: %v", err)
	}
	if busyTimeout != 5000 {
		t.Errorf("busy_timeout = %d, want 5000", busyTimeout)
	}

	var foreignKeys int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if foreignKeys != 1 {
		t.Errorf("foreign_keys = %d, want 1", foreignKeys)
	}
}

func TestOpenEnforcesForeignKeys(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "fk.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	_, err = db.Exec(
		`INSERT INTO care_shifts (household_id, day, kind) VALUES (999, '2026-08-29', 'first')`,
	)
	if err == nil {
		t.Fatal("insert with dangling household_id should violate foreign key")
	}

	res, err := db.Exec(`INSERT INTO households (name, dog_name, invite_code) VALUES ('Test', 'Rex', 'FKTEST01')`)
	if err != nil {
		t.Fatalf("insert household: %v", err)
	}
	hid, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("last insert id: %v", err)
	}
	if _, err := db.Exec(
		`INSERT INTO care_shifts (household_id, day, kind) VALUES (?, '2026-08-29', 'first')`, hid,
	); err != nil {
		t.Fatalf("insert shift: %v", err)
	}

	if _, err := db.Exec(`DELETE FROM households WHERE id = ?`, hid); err != nil {
		t.Fatalf("delete household: %v", err)
	}
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM care_shifts WHERE household_id = ?`, hid).Scan(&count); err != nil {
		t.Fatalf("count shifts: %v", err)
	}
	if count != 0 {
		t.Errorf("shifts surviving household delete = %d, want 0 (cascade)", count)
	}
}
