package analyzer

import (
	"fmt"

	"github.com/nethalo/sqlsentinel/internal/config"
	"github.com/nethalo/sqlsentinel/internal/lexer"
	"github.com/nethalo/sqlsentinel/internal/report"
)

// AntiPatternOutput lists the lexical anti-patterns detected in the SQL text.
type AntiPatternOutput struct {
	SelectStar            bool
	OrChainCount          int
	CorrelatedSubquery    bool
	FunctionWrappedColumn bool
	LeadingWildcard       bool
	MissingLimitOnScan    bool
}

// AntiPattern flags lexical query shapes known to defeat the optimizer,
// independent of the EXPLAIN plan (spec §4.12).
func AntiPattern(c Context, cfg config.AntiPatternsConfig) (AntiPatternOutput, []report.Finding) {
	out := AntiPatternOutput{
		SelectStar:            lexer.HasSelectStar(c.SQL),
		OrChainCount:          lexer.OrChainCount(c.SQL),
		CorrelatedSubquery:    lexer.HasCorrelatedSubquery(c.SQL),
		FunctionWrappedColumn: lexer.FunctionWrappedColumn(c.SQL),
		LeadingWildcard:       lexer.HasLeadingWildcard(c.SQL),
	}
	out.MissingLimitOnScan = c.Metrics.HasTableScan && !lexer.HasLimit(c.SQL) && c.Metrics.RowsExamined > cfg.MissingLimitRowThreshold

	var findings []report.Finding
	if out.SelectStar {
		findings = append(findings, report.Finding{
			Severity:       report.SeverityOptimization,
			Category:       "select_star",
			Title:          "SELECT * in use",
			Description:    "Selecting all columns prevents covering-index optimization and widens the I/O footprint.",
			Recommendation: "List only the columns the application actually needs.",
		})
	}
	if out.OrChainCount >= cfg.OrChainThreshold {
		findings = append(findings, report.Finding{
			Severity:       report.SeverityWarning,
			Category:       "or_chain",
			Title:          "Long OR chain",
			Description:    fmt.Sprintf("The WHERE clause contains %d OR-joined conditions, which often defeats index range scans.", out.OrChainCount),
			Recommendation: "Consider rewriting as UNION ALL over indexed branches, or an IN() list.",
		})
	}
	if out.CorrelatedSubquery {
		findings = append(findings, report.Finding{
			Severity:       report.SeverityWarning,
			Category:       "correlated_subquery",
			Title:          "Correlated subquery",
			Description:    "A subquery references the outer query, forcing per-row re-evaluation.",
			Recommendation: "Rewrite as a JOIN or a window function where possible.",
		})
	}
	if out.FunctionWrappedColumn {
		findings = append(findings, report.Finding{
			Severity:       report.SeverityWarning,
			Category:       "function_wrapped_column",
			Title:          "Function applied to indexed column",
			Description:    "Wrapping a column in a function in WHERE/JOIN prevents index use for that predicate.",
			Recommendation: "Rewrite the predicate so the column is compared directly, or add a generated/functional index.",
		})
	}
	if out.LeadingWildcard {
		findings = append(findings, report.Finding{
			Severity:       report.SeverityWarning,
			Category:       "leading_wildcard",
			Title:          "Leading wildcard LIKE",
			Description:    "A LIKE pattern starting with '%' cannot use a standard B-tree index.",
			Recommendation: "Use a full-text index, trigram index, or restructure the search.",
		})
	}
	if out.MissingLimitOnScan {
		findings = append(findings, report.Finding{
			Severity:       report.SeverityOptimization,
			Category:       "missing_limit",
			Title:          "Large scan without LIMIT",
			Description:    "The query scans a large number of rows with no LIMIT clause.",
			Recommendation: "Add a LIMIT if only a subset of rows is needed.",
		})
	}

	return out, findings
}
