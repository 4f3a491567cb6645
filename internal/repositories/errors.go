package repositories

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

// MySQL error numbers
const (
	mysqlDuplicateEntry = 1062
	mysqlDeadlock       = 1213
)

// singleSuperAdminIndex is the unique index that allows at most one super-admin row
const singleSuperAdminIndex = "uq_users_single_super_admin"

// isUniqueViolation reports whether err is a unique constraint failure of either driver
func isUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// isSingleSuperAdminViolation reports whether err is a second super-admin rejected by the schema.
// MySQL names the index in the message, SQLite names the indexed column.
func isSingleSuperAdminViolation(err error) bool {
	if !isUniqueViolation(err) {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, singleSuperAdminIndex) || strings.Contains(msg, "users.role")
}

// isDeadlock reports whether MySQL aborted the statement to break a lock cycle
func isDeadlock(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDeadlock
}

// placeholders returns "?, ?, ..." with n markers
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// stringArgs converts ids to query arguments
func stringArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
