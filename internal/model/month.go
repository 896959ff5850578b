package model

// Month is one of the twelve reference rows in the `months` table.
// Months are seeded once and never deleted; only Theme and Icon are
// editable by an admin.
//
// Fields:
//
//	ID    – month number, 1 (Enero) through 12 (Diciembre).
//	Name  – display name.
//	Theme – theme of the month's devotionals.
//	Color – hex background color of the month card.
//	Icon  – emoji shown on the month card.
type Month struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Theme string `json:"theme"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}
