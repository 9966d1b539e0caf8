package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dogwatchapp/dogwatch/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.RecurringTask, error) {
	var t model.RecurringTask
	var lastCompleted sql.NullTime
	err := scanner.Scan(
		&t.ID, &t.HouseholdID, &t.Title, &t.IntervalDays, &t.StartDate,
		&lastCompleted, &t.Notes, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastCompleted.Valid {
		lc := lastCompleted.Time
		t.LastCompleted = &lc
	}
	return &t, nil
}

const taskCols = `id, household_id, title, interval_days, start_date, last_completed, notes, created_at, updated_at`

func (s *TaskStore) Create(householdID int64, title string, intervalDays int, startDate time.Time, notes string) (*model.RecurringTask, error) {
	result, err := s.db.Exec(
		`INSERT INTO recurring_tasks (household_id, title, interval_days, start_date, notes) VALUES (?, ?, ?, ?, ?)`,
		householdID, title, intervalDays, startDate.UTC(), notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) GetByID(id int64) (*model.RecurringTask, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM recurring_tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// ListByHousehold returns tasks in insertion order; due ordering is derived
// by the caller, which has "now".
func (s *TaskStore) ListByHousehold(householdID int64) ([]model.RecurringTask, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM recurring_tasks WHERE household_id = ? ORDER BY id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.RecurringTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *TaskStore) Update(id int64, title string, intervalDays int, startDate time.Time, notes string) (*model.RecurringTask, error) {
	_, err := s.db.Exec(
		`UPDATE recurring_tasks SET title = ?, interval_days = ?, start_date = ?, notes = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		title, intervalDays, startDate.UTC(), notes, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) SetLastCompleted(id int64, day time.Time) error {
	_, err := s.db.Exec(
		`UPDATE recurring_tasks SET last_completed = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		day.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set last completed: %w", err)
	}
	return nil
}

func (s *TaskStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM recurring_tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
