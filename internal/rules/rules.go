// Package rules is the RuleRegistry (spec §4.11): a fixed, ordered list of
// {key, name, evaluate(metrics)} rules, each producing at most one Finding.
// Grounded on the teacher's internal/analyzer rule-table idiom (a slice of
// structs walked in registration order, not a map) from ddl_matrix.go.
package rules

import (
	"fmt"

	"github.com/nethalo/sqlsentinel/internal/config"
	"github.com/nethalo/sqlsentinel/internal/report"
)

// Rule evaluates one metrics bag and returns a Finding, or nil if it does
// not fire.
type Rule struct {
	Key      string
	Name     string
	Evaluate func(report.Metrics) *report.Finding
}

// Registry holds rules in registration order; GetRules always returns that
// same stable order.
type Registry struct {
	rules []Rule
}

// NewRegistry builds a registry pre-loaded with every built-in rule, in the
// order listed in spec §4.11, with the row-count and nested-loop-depth
// escalation points from t.
func NewRegistry(t config.ThresholdsConfig) *Registry {
	r := &Registry{}
	for _, rule := range builtins(t) {
		r.Register(rule)
	}
	return r
}

// Register appends a rule to the registry.
func (r *Registry) Register(rule Rule) {
	r.rules = append(r.rules, rule)
}

// GetRules returns the registered rules in registration order.
func (r *Registry) GetRules() []Rule {
	return r.rules
}

// Evaluate runs every registered rule against m and returns the findings
// that fired, in registration order.
func (r *Registry) Evaluate(m report.Metrics) []report.Finding {
	var findings []report.Finding
	for _, rule := range r.rules {
		if f := rule.Evaluate(m); f != nil {
			findings = append(findings, *f)
		}
	}
	return findings
}

func builtins(t config.ThresholdsConfig) []Rule {
	rowThreshold := t.MaxRowsExamined
	if rowThreshold <= 0 {
		rowThreshold = 10000
	}
	depthThreshold := t.MaxNestedLoopDepth
	if depthThreshold <= 0 {
		depthThreshold = 6
	}
	return []Rule{
		{Key: "full_table_scan", Name: "Full Table Scan", Evaluate: fullTableScan(rowThreshold)},
		{Key: "temp_table", Name: "Temporary Table", Evaluate: tempTable},
		{Key: "weedout", Name: "Weedout", Evaluate: weedout},
		{Key: "deep_nested_loop", Name: "Deep Nested Loop", Evaluate: deepNestedLoop(depthThreshold)},
		{Key: "index_merge", Name: "Index Merge", Evaluate: indexMerge},
		{Key: "stale_stats", Name: "Stale Statistics", Evaluate: staleStats},
		{Key: "limit_ineffective", Name: "Ineffective LIMIT", Evaluate: limitIneffective},
		{Key: "quadratic_complexity", Name: "Quadratic Complexity", Evaluate: quadraticComplexity},
		{Key: "no_index", Name: "No Index", Evaluate: noIndex(rowThreshold)},
	}
}

// fullTableScan escalates to critical once rowThreshold (config: thresholds.max_rows_examined) is exceeded.
func fullTableScan(rowThreshold float64) func(report.Metrics) *report.Finding {
	return func(m report.Metrics) *report.Finding {
		if !m.HasTableScan {
			return nil
		}
		severity := report.SeverityWarning
		if m.RowsExamined > rowThreshold {
			severity = report.SeverityCritical
		}
		return &report.Finding{
			Severity:       severity,
			Category:       "full_table_scan",
			Title:          "Full table scan",
			Description:    fmt.Sprintf("Query scans the entire table, examining %.0f rows.", m.RowsExamined),
			Recommendation: "Add an index covering the query's WHERE/JOIN columns.",
		}
	}
}

func tempTable(m report.Metrics) *report.Finding {
	if !m.HasTempTable {
		return nil
	}
	severity := report.SeverityWarning
	if m.HasDiskTemp {
		severity = report.SeverityCritical
	}
	return &report.Finding{
		Severity:       severity,
		Category:       "temp_table",
		Title:          "Temporary table materialized",
		Description:    "Query requires an internal temporary table to complete.",
		Recommendation: "Restructure GROUP BY/ORDER BY or add a supporting index to avoid materialization.",
	}
}

func weedout(m report.Metrics) *report.Finding {
	if !m.HasWeedout {
		return nil
	}
	return &report.Finding{
		Severity:       report.SeverityOptimization,
		Category:       "weedout",
		Title:          "Semi-join weedout strategy used",
		Description:    "The optimizer applied a weedout strategy to deduplicate a semi-join.",
		Recommendation: "Verify the subquery is necessary; an EXISTS rewrite may avoid the weedout.",
	}
}

// deepNestedLoop fires once depth reaches 3 and escalates to critical at
// depthThreshold (config: thresholds.max_nested_loop_depth).
func deepNestedLoop(depthThreshold int) func(report.Metrics) *report.Finding {
	return func(m report.Metrics) *report.Finding {
		if m.NestedLoopDepth < 3 {
			return nil
		}
		severity := report.SeverityWarning
		if m.NestedLoopDepth >= depthThreshold {
			severity = report.SeverityCritical
		}
		return &report.Finding{
			Severity:       severity,
			Category:       "deep_nested_loop",
			Title:          "Deeply nested loop join",
			Description:    fmt.Sprintf("Nested loop join depth is %d.", m.NestedLoopDepth),
			Recommendation: "Reduce the number of joined tables or introduce covering indexes to bound fanout.",
		}
	}
}

func indexMerge(m report.Metrics) *report.Finding {
	if !m.HasIndexMerge {
		return nil
	}
	return &report.Finding{
		Severity:       report.SeverityOptimization,
		Category:       "index_merge",
		Title:          "Index merge in use",
		Description:    "The optimizer is merging results from multiple single-column indexes.",
		Recommendation: "A single composite index covering the filter columns may be more efficient.",
	}
}

func staleStats(m report.Metrics) *report.Finding {
	for table, est := range m.PerTableEstimates {
		actual := est.Actual()
		if actual <= 0 || est.EstimatedRows <= 0 {
			continue
		}
		ratio := est.EstimatedRows / actual
		if ratio < 1 {
			ratio = 1 / ratio
		}
		if ratio > 10 {
			return &report.Finding{
				Severity:       report.SeverityWarning,
				Category:       "stale_stats",
				Title:          "Stale table statistics",
				Description:    fmt.Sprintf("Table %q's row estimate deviates from the actual row count by %.1fx.", table, ratio),
				Recommendation: fmt.Sprintf("Run ANALYZE TABLE %s to refresh optimizer statistics.", table),
				Metadata:       map[string]any{"table": table, "deviation_ratio": ratio},
			}
		}
	}
	return nil
}

func limitIneffective(m report.Metrics) *report.Finding {
	if m.HasEarlyTermination {
		return nil
	}
	if m.RowsReturned <= 0 || m.RowsExamined <= 50*m.RowsReturned {
		return nil
	}
	return &report.Finding{
		Severity:       report.SeverityWarning,
		Category:       "limit_ineffective",
		Title:          "LIMIT not pushed down",
		Description:    "The query's LIMIT did not allow early termination; the full candidate set was examined.",
		Recommendation: "Add an index matching the ORDER BY/filter so the optimizer can stop after LIMIT rows.",
	}
}

func quadraticComplexity(m report.Metrics) *report.Finding {
	if m.Complexity != report.ComplexityQuadratic {
		return nil
	}
	return &report.Finding{
		Severity:       report.SeverityCritical,
		Category:       "quadratic_complexity",
		Title:          "Quadratic growth risk",
		Description:    "This query's cost grows quadratically with table size.",
		Recommendation: "Eliminate the nested full scan by adding an index on the inner join's key.",
	}
}

// noIndex escalates to critical once rowThreshold (config: thresholds.max_rows_examined) is exceeded.
func noIndex(rowThreshold float64) func(report.Metrics) *report.Finding {
	return func(m report.Metrics) *report.Finding {
		if m.IsZeroRowConst || m.IsIntentionalScan {
			return nil
		}
		switch m.PrimaryAccessType {
		case report.AccessConstRow, report.AccessSingleRowLookup:
			return nil
		}
		if m.IsIndexBacked {
			return nil
		}
		severity := report.SeverityWarning
		if m.RowsExamined > rowThreshold {
			severity = report.SeverityCritical
		}
		return &report.Finding{
			Severity:       severity,
			Category:       "no_index",
			Title:          "No usable index",
			Description:    "The query does not appear to use an index for row access.",
			Recommendation: "Add an index on the columns used in WHERE/JOIN/ORDER BY.",
		}
	}
}
