// Package repository defines error types shared by the data access code.
// Handlers compare against these sentinels instead of driver errors.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrDrinkNotFound is returned when no drink has the requested id.
var ErrDrinkNotFound = errors.New("drink not found")

// ErrDuplicateTitle is returned when a write would give two drinks the
// same title.
var ErrDuplicateTitle = errors.New("drink title already exists")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isDuplicate reports whether err is a unique constraint violation from
// either supported driver.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
	}
	return false
}
