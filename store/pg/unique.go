package pg

import "strings"

// isUniqueViolation reports whether err is a postgres unique constraint
// failure (SQLSTATE 23505). Matching on the error text keeps this free
// of a direct driver dependency.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key")
}
