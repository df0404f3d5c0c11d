package sqlstore

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

type dialect struct {
	name string

	// migrationsRoot is the directory inside migrations.FS holding this
	// dialect's files.
	migrationsRoot string
	migrationTable string
	recordApplied  string

	// lockSuffix is appended to the SELECT that loads a note for update.
	lockSuffix string

	isUniqueViolation func(error) bool
}

var sqliteDialect = dialect{
	name:           DriverSQLite,
	migrationsRoot: "sqlite",
	migrationTable: `CREATE TABLE IF NOT EXISTS schema_migrations (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
)`,
	recordApplied:     "INSERT OR IGNORE INTO schema_migrations (name, applied_at) VALUES (?, ?)",
	lockSuffix:        "",
	isUniqueViolation: isSQLiteUniqueViolation,
}

var mysqlDialect = dialect{
	name:           DriverMySQL,
	migrationsRoot: "mysql",
	migrationTable: `CREATE TABLE IF NOT EXISTS schema_migrations (
    name VARCHAR(255) NOT NULL PRIMARY KEY,
    applied_at BIGINT NOT NULL
) ENGINE=InnoDB`,
	recordApplied:     "INSERT IGNORE INTO schema_migrations (name, applied_at) VALUES (?, ?)",
	lockSuffix:        " FOR UPDATE",
	isUniqueViolation: isMySQLUniqueViolation,
}

func isSQLiteUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func isMySQLUniqueViolation(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	return false
}
