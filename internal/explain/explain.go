// Package explain is the ExplainExecutor (spec §4.7): wraps a driver.Driver
// and turns both Go errors and the driver's `-- EXPLAIN failed:` sentinel
// into a structured ValidationFailureReport, never an exception. Grounded on
// the teacher's variables.go EstimateRowsAffected/validateSafeForExplain
// pattern of treating EXPLAIN failure as data, not a crash.
package explain

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/nethalo/sqlsentinel/internal/driver"
	"github.com/nethalo/sqlsentinel/internal/report"
)

const explainFailedSentinel = "-- EXPLAIN failed:"

var (
	reSQLState = regexp.MustCompile(`SQLSTATE\[(\w+)\]`)
	reLineNum  = regexp.MustCompile(`(?i)at line (\d+)`)
)

// Result is success(plan, rows) | failure(message, ValidationFailureReport),
// modeled as a struct with an Ok discriminator rather than a Go error return
// because a failure here is expected, structured data, not exceptional.
type Result struct {
	Ok          bool
	PlanText    string
	ExplainRows []map[string]any
	Failure     *report.ValidationFailureReport
}

// Execute runs EXPLAIN ANALYZE (plan text) and, best-effort, tabular EXPLAIN
// (rows). Per spec §4.7, if EXPLAIN ANALYZE succeeds but the tabular EXPLAIN
// fails, the overall result still counts as success — explainRows is simply
// empty.
func Execute(ctx context.Context, d driver.Driver, sql string) Result {
	planText, err := d.RunExplainAnalyze(ctx, sql)
	if err != nil {
		return Result{Ok: false, Failure: Decode(err.Error())}
	}
	if strings.HasPrefix(strings.TrimSpace(planText), explainFailedSentinel) {
		return Result{Ok: false, Failure: Decode(planText)}
	}

	rows, err := d.RunExplain(ctx, sql)
	if err != nil {
		// Enrichment EXPLAIN is best-effort: plan text already succeeded.
		return Result{Ok: true, PlanText: planText}
	}
	return Result{Ok: true, PlanText: planText, ExplainRows: rows}
}

// Decode turns a driver error message (or the `-- EXPLAIN failed:` sentinel
// text) into a structured ValidationFailureReport, shared by Execute's own
// EXPLAIN ANALYZE path and the Validator Pipeline's plain-EXPLAIN syntax
// stage (spec §4.5 step 4).
func Decode(message string) *report.ValidationFailureReport {
	detail := strings.TrimPrefix(strings.TrimSpace(message), explainFailedSentinel)
	detail = strings.TrimSpace(detail)

	vf := &report.ValidationFailureReport{
		Status:        "ERROR — Explain Failed",
		FailureStage:  "Explain",
		DetailedError: detail,
		Recommendations: []string{
			"Only SELECT queries can be analyzed",
		},
	}

	if m := reSQLState.FindStringSubmatch(detail); len(m) == 2 {
		vf.SQLState = m[1]
	}
	if m := reLineNum.FindStringSubmatch(detail); len(m) == 2 {
		if n, err := strconv.Atoi(m[1]); err == nil {
			vf.Line = n
		}
	}

	for misspelled, correct := range commonMisspellings {
		if strings.Contains(strings.ToUpper(detail), misspelled) {
			vf.TypoSuggestion = correct
			break
		}
	}

	return vf
}

var commonMisspellings = map[string]string{
	"SELEC": "SELECT",
	"FORM":  "FROM",
	"WERE":  "WHERE",
	"ORDE":  "ORDER",
	"GROP":  "GROUP",
	"LIMT":  "LIMIT",
}
