// Package calendar answers the one date question the devotional year needs:
// how many days a month has in a given year.
package calendar

import "time"

// MonthNames are the Spanish month names used for display and seeding,
// indexed by month number minus one.
var MonthNames = [12]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// DaysInMonth returns the number of days of month (1-12) in year, applying
// Gregorian leap-year rules to February.  It returns 0 for an invalid month.
//
// Examples:
//   - DaysInMonth(2024, 2) = 29 (divisible by 4)
//   - DaysInMonth(1900, 2) = 28 (century not divisible by 400)
//   - DaysInMonth(2000, 2) = 29
func DaysInMonth(year, month int) int {
	if month < 1 || month > 12 {
		return 0
	}
	// Day 0 of the following month normalises to the last day of month.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Resolve returns year when it is set, otherwise the current UTC year.
// Callers resolve on every use so an unset year follows the clock.
func Resolve(year int) int { return resolveAt(year, time.Now()) }

func resolveAt(year int, now time.Time) int {
	if year > 0 {
		return year
	}
	return now.UTC().Year()
}

// IsLeap reports whether year is a Gregorian leap year.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// ValidDay reports whether day exists in month for year.
func ValidDay(year, month, day int) bool {
	return day >= 1 && day <= DaysInMonth(year, month)
}

// MonthName returns the display name of month, or "" when out of range.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return MonthNames[month-1]
}
