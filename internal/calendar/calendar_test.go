package calendar

import (
	"testing"
	"time"
)

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		name        string
		year, month int
		want        int
	}{
		{"enero", 2025, 1, 31},
		{"febrero regular", 2025, 2, 28},
		{"febrero leap", 2024, 2, 29},
		{"febrero century", 1900, 2, 28},
		{"febrero 400", 2000, 2, 29},
		{"abril", 2025, 4, 30},
		{"diciembre", 2025, 12, 31},
		{"month zero", 2025, 0, 0},
		{"month thirteen", 2025, 13, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysInMonth(tt.year, tt.month); got != tt.want {
				t.Errorf("DaysInMonth(%d, %d) = %d, want %d", tt.year, tt.month, got, tt.want)
			}
		})
	}
}

func TestDaysInMonthAgreesWithIsLeap(t *testing.T) {
	for year := 1890; year <= 2110; year++ {
		want := 28
		if IsLeap(year) {
			want = 29
		}
		if got := DaysInMonth(year, 2); got != want {
			t.Fatalf("DaysInMonth(%d, 2) = %d, IsLeap says %d", year, got, want)
		}
	}
}

func TestValidDay(t *testing.T) {
	tests := []struct {
		year, month, day int
		want             bool
	}{
		{2024, 2, 29, true},
		{2025, 2, 29, false},
		{2025, 4, 31, false},
		{2025, 1, 0, false},
		{2025, 13, 1, false},
		{2025, 1, 31, true},
	}
	for _, tt := range tests {
		if got := ValidDay(tt.year, tt.month, tt.day); got != tt.want {
			t.Errorf("ValidDay(%d, %d, %d) = %v, want %v", tt.year, tt.month, tt.day, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	newYear := time.Date(2028, 1, 1, 0, 0, 1, 0, time.UTC)
	if got := resolveAt(0, newYear); got != 2028 {
		t.Errorf("resolveAt(0) = %d, want 2028", got)
	}
	if got := resolveAt(0, newYear.Add(-2*time.Second)); got != 2027 {
		t.Errorf("resolveAt(0) before New Year = %d, want 2027", got)
	}
	if got := resolveAt(2024, newYear); got != 2024 {
		t.Errorf("resolveAt(2024) = %d, want 2024", got)
	}
	if DaysInMonth(resolveAt(0, newYear), 2) != 29 {
		t.Error("unset year does not follow the clock into a leap year")
	}
}

func TestMonthName(t *testing.T) {
	if got := MonthName(1); got != "Enero" {
		t.Errorf("MonthName(1) = %q, want Enero", got)
	}
	if got := MonthName(0); got != "" {
		t.Errorf("MonthName(0) = %q, want empty", got)
	}
}
