package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dogwatchapp/dogwatch/internal/model"
)

type ShiftStore struct {
	db *sql.DB
}

func NewShiftStore(db *sql.DB) *ShiftStore {
	return &ShiftStore{db: db}
}

func scanShift(scanner interface{ Scan(...any) error }) (*model.CareShift, error) {
	var cs model.CareShift
	var assignedID sql.NullInt64
	var completedByID sql.NullInt64
	var completedAt sql.NullTime

	err := scanner.Scan(
		&cs.ID, &cs.HouseholdID, &cs.Day, &cs.Kind,
		&assignedID, &cs.AssignedMemberName,
		&cs.Completed, &completedAt, &completedByID,
		&cs.Notes, &cs.CreatedAt, &cs.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if assignedID.Valid {
		cs.AssignedMemberID = &assignedID.Int64
	}
	if completedByID.Valid {
		cs.CompletedByID = &completedByID.Int64
	}
	if completedAt.Valid {
		t := completedAt.Time
		cs.CompletedAt = &t
	}
	return &cs, nil
}

const shiftCols = `id, household_id, day, kind, assigned_member_id, assigned_member_name, completed, completed_at, completed_by_id, notes, created_at, updated_at`

// UpsertAssignment assigns a member to a slot, creating the row if absent.
// The read-then-write runs inside one transaction so concurrent callers
// cannot create duplicate rows for the same slot; the unique index on
// (household_id, day, kind) backstops it. On an existing row only the
// assignment fields change: reassigning a completed shift keeps the
// completion, since the work is already done.
func (s *ShiftStore) UpsertAssignment(householdID int64, day, kind string, memberID int64, memberName string) (*model.CareShift, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRow(
		`SELECT id FROM care_shifts WHERE household_id = ? AND day = ? AND kind = ?`,
		householdID, day, kind,
	).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		result, err := tx.Exec(
			`INSERT INTO care_shifts (household_id, day, kind, assigned_member_id, assigned_member_name) VALUES (?, ?, ?, ?, ?)`,
			householdID, day, kind, memberID, memberName,
		)
		if err != nil {
			return nil, fmt.Errorf("insert shift: %w", err)
		}
		if id, err = result.LastInsertId(); err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("find slot: %w", err)
	default:
		if _, err := tx.Exec(
			`UPDATE care_shifts SET assigned_member_id = ?, assigned_member_name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			memberID, memberName, id,
		); err != nil {
			return nil, fmt.Errorf("update assignment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

// UpsertLogged records a slot as done right now, self-assigned to the acting
// member, creating the row directly in the completed state if absent.
// Calling it twice for the same slot overwrites the completion metadata
// rather than creating a second row.
func (s *ShiftStore) UpsertLogged(householdID int64, day, kind string, memberID int64, memberName string, at time.Time) (*model.CareShift, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRow(
		`SELECT id FROM care_shifts WHERE household_id = ? AND day = ? AND kind = ?`,
		householdID, day, kind,
	).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		result, err := tx.Exec(
			`INSERT INTO care_shifts (household_id, day, kind, assigned_member_id, assigned_member_name, completed, completed_at, completed_by_id)
			 VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
			householdID, day, kind, memberID, memberName, at.UTC(), memberID,
		)
		if err != nil {
			return nil, fmt.Errorf("insert logged shift: %w", err)
		}
		if id, err = result.LastInsertId(); err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("find slot: %w", err)
	default:
		if _, err := tx.Exec(
			`UPDATE care_shifts SET assigned_member_id = ?, assigned_member_name = ?, completed = 1, completed_at = ?, completed_by_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			memberID, memberName, at.UTC(), memberID, id,
		); err != nil {
			return nil, fmt.Errorf("update logged shift: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *ShiftStore) GetByID(id int64) (*model.CareShift, error) {
	row := s.db.QueryRow(`SELECT `+shiftCols+` FROM care_shifts WHERE id = ?`, id)
	cs, err := scanShift(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shift: %w", err)
	}
	return cs, nil
}

func (s *ShiftStore) GetSlot(householdID int64, day, kind string) (*model.CareShift, error) {
	row := s.db.QueryRow(
		`SELECT `+shiftCols+` FROM care_shifts WHERE household_id = ? AND day = ? AND kind = ?`,
		householdID, day, kind,
	)
	cs, err := scanShift(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	return cs, nil
}

// GetRange returns shifts for days in [startDay, endDay], ordered by day
// then kind (first before second).
func (s *ShiftStore) GetRange(householdID int64, startDay, endDay string) ([]model.CareShift, error) {
	rows, err := s.db.Query(
		`SELECT `+shiftCols+` FROM care_shifts
		 WHERE household_id = ? AND day >= ? AND day <= ?
		 ORDER BY day ASC, CASE kind WHEN 'first' THEN 0 ELSE 1 END ASC`,
		householdID, startDay, endDay,
	)
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	defer rows.Close()

	var shifts []model.CareShift
	for rows.Next() {
		cs, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shift: %w", err)
		}
		shifts = append(shifts, *cs)
	}
	return shifts, rows.Err()
}

func (s *ShiftStore) SetCompleted(id, completedByID int64, at time.Time) error {
	_, err := s.db.Exec(
		`UPDATE care_shifts SET completed = 1, completed_at = ?, completed_by_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		at.UTC(), completedByID, id,
	)
	if err != nil {
		return fmt.Errorf("set completed: %w", err)
	}
	return nil
}

// ClearCompletion reverts a completed slot. The assignment fields are left
// untouched: undo restores who was supposed to do it.
func (s *ShiftStore) ClearCompletion(id int64) error {
	_, err := s.db.Exec(
		`UPDATE care_shifts SET completed = 0, completed_at = NULL, completed_by_id = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("clear completion: %w", err)
	}
	return nil
}

// DeleteIfNotCompleted removes a slot row unless it is completed; completed
// history is never deleted by a clear. Returns true if a row was removed.
func (s *ShiftStore) DeleteIfNotCompleted(householdID int64, day, kind string) (bool, error) {
	result, err := s.db.Exec(
		`DELETE FROM care_shifts WHERE household_id = ? AND day = ? AND kind = ? AND completed = 0`,
		householdID, day, kind,
	)
	if err != nil {
		return false, fmt.Errorf("delete slot: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
