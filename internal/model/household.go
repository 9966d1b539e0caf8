package model

import "time"

type Household struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	DogName    string    `json:"dog_name"`
	InviteCode string    `json:"invite_code"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
