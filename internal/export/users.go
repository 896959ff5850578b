// Package export writes admin reports as spreadsheets.
package export

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/devocional/internal/model"
)

// UsersSheet is the sheet name of the users workbook.
const UsersSheet = "Usuarios"

var usersHeader = []interface{}{"ID", "Usuario", "Email", "Rol", "Devocionales leídos", "Creado"}

// WriteUsers writes rows as an xlsx workbook to w.
func WriteUsers(w io.Writer, rows []model.UserRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", UsersSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(UsersSheet, "A1", &usersHeader); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(UsersSheet, 1, 1, bold); err != nil {
		return err
	}

	for i, u := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		role := u.Role
		if u.IsAdmin {
			role = model.RoleAdmin
		}
		row := []interface{}{u.ID, u.Username, u.Email, role, u.DevotionalsRead, u.CreatedAt.UTC().Format("2006-01-02 15:04")}
		if err := f.SetSheetRow(UsersSheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(UsersSheet, "A", "A", 38); err != nil {
		return err
	}
	if err := f.SetColWidth(UsersSheet, "B", "F", 22); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}
