package models

import "time"

type Appointment struct {
	ID              int64     `json:"id"`
	OwnerID         int64     `json:"owner_id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Date            time.Time `json:"date"`
	Time            string    `json:"time"` // normalized HH:MM
	Label           string    `json:"label"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DateKey returns the canonical YYYY-MM-DD form used as the store key
// and as the holiday match key.
func (a *Appointment) DateKey() string {
	return a.Date.Format("2006-01-02")
}
