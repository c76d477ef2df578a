// Package sanitize strips comments and normalizes whitespace ahead of safety
// validation, following the pre-pass regex style of the teacher's
// internal/parser/sql.go (reOptimizeTable/reAlterTablespace): small, single-
// purpose regexes run over the raw text before anything tries to understand
// its structure.
package sanitize

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// reOptimizerHint preserves /*+ ... */ hint blocks: matched first and
	// stashed so the generic block-comment stripper below leaves them alone.
	reOptimizerHint = regexp.MustCompile(`/\*\+[\s\S]*?\*/`)
	reBlockComment  = regexp.MustCompile(`/\*[\s\S]*?\*/`)
	reLineComment   = regexp.MustCompile(`(--|#)[^\n]*`)
	reWhitespace    = regexp.MustCompile(`\s+`)
	reTrailingSemi  = regexp.MustCompile(`;\s*$`)
)

// Sanitize removes comments (preserving optimizer hints), trims a trailing
// semicolon, and collapses whitespace runs to single spaces. Idempotent:
// Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(sql string) string {
	hints := reOptimizerHint.FindAllString(sql, -1)
	masked := sql
	placeholders := make([]string, len(hints))
	for i, h := range hints {
		placeholders[i] = fmt.Sprintf("\x00HINT%d\x00", i)
		masked = strings.Replace(masked, h, placeholders[i], 1)
	}

	masked = reBlockComment.ReplaceAllString(masked, " ")
	masked = reLineComment.ReplaceAllString(masked, " ")

	for i, h := range hints {
		masked = strings.Replace(masked, placeholders[i], h, 1)
	}

	masked = reTrailingSemi.ReplaceAllString(masked, "")
	masked = reWhitespace.ReplaceAllString(masked, " ")
	return strings.TrimSpace(masked)
}
