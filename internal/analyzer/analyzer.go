// Package analyzer holds the nine spec §4.12 sub-analyzers. Each is an
// independent, side-effect-free (except HypotheticalIndexAnalyzer) function
// over a Context, returning a typed output plus zero or more Findings.
// Grounded on the teacher's internal/topology detection style (probe, then
// classify into a small label set) generalized from cluster topology to
// query-shape signals.
package analyzer

import (
	"github.com/nethalo/sqlsentinel/internal/report"
)

// Context is everything a sub-analyzer may need. Not every analyzer uses
// every field.
type Context struct {
	SQL     string
	Metrics report.Metrics
	Plan    *report.PlanNode
	PlanText string
}
