package model

import "time"

// UserProgress records whether a reader completed a day.  At most one
// row exists per (UserID, MonthID, DayNumber); un-completing a day
// clears the flag instead of deleting the row.
type UserProgress struct {
	UserID      string     `json:"user_id"`
	MonthID     int        `json:"month_id"`
	DayNumber   int        `json:"day_number"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at"`
}
