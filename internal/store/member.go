package store

import (
	"database/sql"
	"fmt"

	"github.com/dogwatchapp/dogwatch/internal/model"
)

type MemberStore struct {
	db *sql.DB
}

func NewMemberStore(db *sql.DB) *MemberStore {
	return &MemberStore{db: db}
}

func scanMember(scanner interface{ Scan(...any) error }) (*model.Member, error) {
	var m model.Member
	var householdID sql.NullInt64
	err := scanner.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &householdID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if householdID.Valid {
		m.HouseholdID = &householdID.Int64
	}
	return &m, nil
}

const memberCols = `id, name, email, subject, household_id, created_at, updated_at`

func (s *MemberStore) Create(name, email, subject string) (*model.Member, error) {
	result, err := s.db.Exec(
		`INSERT INTO members (name, email, subject) VALUES (?, ?, ?)`,
		name, email, subject,
	)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *MemberStore) GetByID(id int64) (*model.Member, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// GetBySubject looks up a member by their external identity subject.
func (s *MemberStore) GetBySubject(subject string) (*model.Member, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM members WHERE subject = ?`, subject)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member by subject: %w", err)
	}
	return m, nil
}

func (s *MemberStore) UpdateProfile(id int64, name, email string) (*model.Member, error) {
	_, err := s.db.Exec(
		`UPDATE members SET name = ?, email = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, email, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	return s.GetByID(id)
}

// SetHousehold moves a member into a household. A member belongs to at most
// one household; joining another replaces the previous reference.
func (s *MemberStore) SetHousehold(id, householdID int64) (*model.Member, error) {
	_, err := s.db.Exec(
		`UPDATE members SET household_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		householdID, id,
	)
	if err != nil {
		return nil, fmt.Errorf("set member household: %w", err)
	}
	return s.GetByID(id)
}

func (s *MemberStore) ListByHousehold(householdID int64) ([]model.Member, error) {
	rows, err := s.db.Query(
		`SELECT `+memberCols+` FROM members WHERE household_id = ? ORDER BY created_at ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *MemberStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}
