package model

import "time"

// Activity links a day to an external activity (usually a shared drive
// folder).  IsConfigured is never set directly; it always equals
// DriveURL != "" and is recomputed on every write.
type Activity struct {
	MonthID      int       `json:"month_id"`
	DayNumber    int       `json:"day_number"`
	DriveURL     string    `json:"drive_url"`
	IsConfigured bool      `json:"is_configured"`
	UpdatedAt    time.Time `json:"updated_at"`
}
