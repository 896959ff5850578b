package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/devocional/internal/model"
)

func TestWriteUsers(t *testing.T) {
	rows := []model.UserRow{
		{ID: "u1", Username: "Ana", Email: "ana@example.com", Role: "user", DevotionalsRead: 12,
			CreatedAt: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)},
		{ID: "a1", Username: "Admin", Email: "admin@example.com", Role: "admin", IsAdmin: true},
	}
	var buf bytes.Buffer
	if err := WriteUsers(&buf, rows); err != nil {
		t.Fatalf("WriteUsers() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()
	got, err := f.GetRows(UsersSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(got))
	}
	if got[0][1] != "Usuario" || got[1][2] != "ana@example.com" || got[1][4] != "12" || got[1][5] != "2025-03-01 09:30" {
		t.Errorf("first data row = %v", got[1])
	}
	if got[2][3] != "admin" {
		t.Errorf("admin row = %v", got[2])
	}
}
