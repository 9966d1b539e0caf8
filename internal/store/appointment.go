package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dogwatchapp/dogwatch/internal/model"
)

type AppointmentStore struct {
	db *sql.DB
}

func NewAppointmentStore(db *sql.DB) *AppointmentStore {
	return &AppointmentStore{db: db}
}

func scanAppointment(scanner interface{ Scan(...any) error }) (*model.Appointment, error) {
	var a model.Appointment
	err := scanner.Scan(
		&a.ID, &a.HouseholdID, &a.Title, &a.StartTime, &a.Location,
		&a.Notes, &a.Completed, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const appointmentCols = `id, household_id, title, start_time, location, notes, completed, created_at, updated_at`

func (s *AppointmentStore) Create(householdID int64, title string, startTime time.Time, location, notes string) (*model.Appointment, error) {
	result, err := s.db.Exec(
		`INSERT INTO appointments (household_id, title, start_time, location, notes) VALUES (?, ?, ?, ?, ?)`,
		householdID, title, startTime.UTC(), location, notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *AppointmentStore) GetByID(id int64) (*model.Appointment, error) {
	row := s.db.QueryRow(`SELECT `+appointmentCols+` FROM appointments WHERE id = ?`, id)
	a, err := scanAppointment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

func (s *AppointmentStore) ListByHousehold(householdID int64) ([]model.Appointment, error) {
	rows, err := s.db.Query(
		`SELECT `+appointmentCols+` FROM appointments WHERE household_id = ? ORDER BY completed ASC, start_time ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var appointments []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appointments = append(appointments, *a)
	}
	return appointments, rows.Err()
}

func (s *AppointmentStore) Update(id int64, title string, startTime time.Time, location, notes string) (*model.Appointment, error) {
	_, err := s.db.Exec(
		`UPDATE appointments SET title = ?, start_time = ?, location = ?, notes = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		title, startTime.UTC(), location, notes, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}
	return s.GetByID(id)
}

// SetCompleted marks an appointment done. Completion is one-way; there is no
// corresponding clear.
func (s *AppointmentStore) SetCompleted(id int64) error {
	_, err := s.db.Exec(
		`UPDATE appointments SET completed = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("set appointment completed: %w", err)
	}
	return nil
}

func (s *AppointmentStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM appointments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	return nil
}
