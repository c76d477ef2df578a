// Package safety rejects non-readonly statements before anything touches a
// database connection, grounded on the teacher's destructive-statement
// rejection in cmd/plan.go (which refuses INSERT/LOAD DATA/CREATE TABLE with
// a friendly message before connecting).
package safety

import (
	"fmt"
	"regexp"
	"strings"
)

var starters = map[string]bool{
	"SELECT":   true,
	"EXPLAIN":  true,
	"WITH":     true,
	"SHOW":     true,
	"DESC":     true,
	"DESCRIBE": true,
}

var destructiveKeywords = []string{
	"INSERT", "UPDATE", "DELETE", "DROP", "ALTER", "TRUNCATE", "CREATE",
	"RENAME", "REPLACE", "GRANT", "REVOKE", "LOCK", "UNLOCK", "CALL", "LOAD",
}

var destructiveRe = func() *regexp.Regexp {
	parts := make([]string, len(destructiveKeywords))
	for i, k := range destructiveKeywords {
		parts[i] = k
	}
	return regexp.MustCompile(`\b(` + strings.Join(parts, "|") + `)\b`)
}()

// Error is returned by Validate when a statement fails the safety check.
type Error struct {
	Reason string
}

func (e *Error) Error() string { return e.Reason }

// Validate succeeds iff the sanitized, uppercased SQL begins with an allowed
// starter keyword, and — for SELECT/WITH statements only — contains no
// word-bounded destructive keyword. SHOW/EXPLAIN/DESC skip the destructive
// scan entirely, so `SHOW CREATE TABLE` is not rejected for containing CREATE.
func Validate(sanitizedSQL string) error {
	upper := strings.ToUpper(strings.TrimSpace(sanitizedSQL))
	starter := firstWord(upper)

	if !starters[starter] {
		return &Error{Reason: fmt.Sprintf("statement must start with one of SELECT, EXPLAIN, WITH, SHOW, DESC, DESCRIBE; got %q", starter)}
	}

	if starter == "SELECT" || starter == "WITH" {
		if m := destructiveRe.FindString(upper); m != "" {
			return &Error{Reason: fmt.Sprintf("statement contains disallowed keyword %q", m)}
		}
	}

	return nil
}

// IsSelect reports whether the statement is a SELECT/WITH read.
func IsSelect(sanitizedSQL string) bool {
	starter := firstWord(strings.ToUpper(strings.TrimSpace(sanitizedSQL)))
	return starter == "SELECT" || starter == "WITH"
}

// IsSafe is the non-throwing form of Validate.
func IsSafe(sanitizedSQL string) bool {
	return Validate(sanitizedSQL) == nil
}

func firstWord(s string) string {
	i := strings.IndexAny(s, " \t\n(")
	if i < 0 {
		return s
	}
	return s[:i]
}
