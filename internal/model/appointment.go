package model

import "time"

type Appointment struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	Title       string    `json:"title"`
	StartTime   time.Time `json:"start_time"`
	Location    string    `json:"location"`
	Notes       string    `json:"notes"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
