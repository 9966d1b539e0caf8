package model

import "time"

// Shift kinds. Each household tracks two care shifts per calendar day.
const (
	ShiftFirst  = "first"
	ShiftSecond = "second"
)

// CareShift is one feeding/walking slot, keyed by (household, day, kind).
// Day is a local calendar day in YYYY-MM-DD form; normalization to the
// household's timezone happens before the value reaches the server.
type CareShift struct {
	ID                 int64      `json:"id"`
	HouseholdID        int64      `json:"household_id"`
	Day                string     `json:"day"`
	Kind               string     `json:"kind"`
	AssignedMemberID   *int64     `json:"assigned_member_id"`
	AssignedMemberName string     `json:"assigned_member_name"`
	Completed          bool       `json:"completed"`
	CompletedAt        *time.Time `json:"completed_at"`
	CompletedByID      *int64     `json:"completed_by_id"`
	Notes              string     `json:"notes"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ValidShiftKind reports whether kind is one of the two fixed shift kinds.
func ValidShiftKind(kind string) bool {
	return kind == ShiftFirst || kind == ShiftSecond
}
