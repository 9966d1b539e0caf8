package store

import (
	"database/sql"
	"fmt"

	"github.com/dogwatchapp/dogwatch/internal/model"
)

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func scanHousehold(scanner interface{ Scan(...any) error }) (*model.Household, error) {
	var h model.Household
	err := scanner.Scan(&h.ID, &h.Name, &h.DogName, &h.InviteCode, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

const householdCols = `id, name, dog_name, invite_code, created_at, updated_at`

func (s *HouseholdStore) Create(name, dogName, inviteCode string) (*model.Household, error) {
	result, err := s.db.Exec(
		`INSERT INTO households (name, dog_name, invite_code) VALUES (?, ?, ?)`,
		name, dogName, inviteCode,
	)
	if err != nil {
		return nil, fmt.Errorf("insert household: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *HouseholdStore) GetByID(id int64) (*model.Household, error) {
	row := s.db.QueryRow(`SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

// GetByInviteCode looks up a household by invite code, case-insensitively.
func (s *HouseholdStore) GetByInviteCode(code string) (*model.Household, error) {
	row := s.db.QueryRow(
		`SELECT `+householdCols+` FROM households WHERE invite_code = ? COLLATE NOCASE`,
		code,
	)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household by invite code: %w", err)
	}
	return h, nil
}

func (s *HouseholdStore) Update(id int64, name, dogName string) (*model.Household, error) {
	_, err := s.db.Exec(
		`UPDATE households SET name = ?, dog_name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, dogName, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update household: %w", err)
	}
	return s.GetByID(id)
}

func (s *HouseholdStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM households WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete household: %w", err)
	}
	return nil
}
