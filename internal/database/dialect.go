package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect captures the handful of SQL differences between the supported
// drivers.  Queries are written with '?' placeholders and rebound here.
type Dialect struct {
	Name string

	dollarParams bool   // $1, $2 ... instead of ?
	mysqlUpsert  bool   // ON DUPLICATE KEY UPDATE instead of ON CONFLICT
	timestamp    string // column type for instants
	boolean      string
	autoID       string // auto-increment primary key column definition
	shortText    string // indexed string column
}

var (
	MySQL = Dialect{
		Name:        "mysql",
		mysqlUpsert: true,
		timestamp:   "DATETIME(6)",
		boolean:     "BOOLEAN",
		autoID:      "BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY",
		shortText:   "VARCHAR(191)",
	}
	Postgres = Dialect{
		Name:         "postgres",
		dollarParams: true,
		timestamp:    "TIMESTAMPTZ",
		boolean:      "BOOLEAN",
		autoID:       "BIGSERIAL PRIMARY KEY",
		shortText:    "VARCHAR(191)",
	}
	SQLite = Dialect{
		Name:      "sqlite",
		timestamp: "DATETIME",
		boolean:   "BOOLEAN",
		autoID:    "INTEGER PRIMARY KEY AUTOINCREMENT",
		shortText: "TEXT",
	}
)

// Rebind converts '?' placeholders into the driver's native form.
func (d Dialect) Rebind(q string) string {
	if !d.dollarParams {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

// Upsert returns the clause that follows an INSERT ... VALUES (...) so that a
// conflict on conflictCols overwrites updateCols with the inserted values.
func (d Dialect) Upsert(conflictCols, updateCols []string) string {
	sets := make([]string, len(updateCols))
	if d.mysqlUpsert {
		for i, c := range updateCols {
			sets[i] = c + " = VALUES(" + c + ")"
		}
		return "ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	}
	for i, c := range updateCols {
		sets[i] = c + " = excluded." + c
	}
	return "ON CONFLICT (" + strings.Join(conflictCols, ", ") + ") DO UPDATE SET " + strings.Join(sets, ", ")
}

// expand fills the type placeholders used by the migration statements.
func (d Dialect) expand(stmt string) string {
	return strings.NewReplacer(
		"{{ts}}", d.timestamp,
		"{{bool}}", d.boolean,
		"{{autoid}}", d.autoID,
		"{{key}}", d.shortText,
	).Replace(stmt)
}

// IsUniqueViolation reports whether err is a unique or primary key
// constraint failure on any supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsTransient reports whether err looks like an outage or timeout rather
// than a problem with the statement itself.  Only such errors are worth
// retrying, and only for reads.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// class 08 connection exception, 57P0x operator intervention
		return pqErr.Code.Class() == "08" || strings.HasPrefix(string(pqErr.Code), "57P0")
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		primary := liteErr.Code() & 0xff
		return primary == sqlite3.SQLITE_BUSY || primary == sqlite3.SQLITE_LOCKED
	}
	return false
}
