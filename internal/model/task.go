package model

import "time"

// RecurringTask is a repeating care task (flea treatment, nail trim) due
// every IntervalDays. The next due date is always derived, never stored:
// (LastCompleted ?? StartDate) + IntervalDays.
type RecurringTask struct {
	ID            int64      `json:"id"`
	HouseholdID   int64      `json:"household_id"`
	Title         string     `json:"title"`
	IntervalDays  int        `json:"interval_days"`
	StartDate     time.Time  `json:"start_date"`
	LastCompleted *time.Time `json:"last_completed"`
	Notes         string     `json:"notes"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
