package analyzer

import (
	"regexp"

	"github.com/nethalo/sqlsentinel/internal/lexer"
	"github.com/nethalo/sqlsentinel/internal/report"
)

var reLockingRead = regexp.MustCompile(`(?i)\bFOR\s+UPDATE\b|\bLOCK\s+IN\s+SHARE\s+MODE\b|\bFOR\s+SHARE\b`)

// LockScope is the breadth of locking a query's access path implies.
type LockScope string

const (
	LockScopeNone  LockScope = "none"
	LockScopeRow   LockScope = "row"
	LockScopeGap   LockScope = "gap"
	LockScopeRange LockScope = "range"
	LockScopeTable LockScope = "table"
)

// ConcurrencyRiskOutput is the estimated lock footprint and deadlock/
// contention exposure of a query.
type ConcurrencyRiskOutput struct {
	LockScope     LockScope
	DeadlockRisk  float64 // 0..1
	Contention    float64
	RiskLabel     string
}

// ConcurrencyRisk assesses lock scope and deadlock/contention exposure (spec
// §4.12). A plain, non-locking SELECT under MVCC takes no locks at all.
func ConcurrencyRisk(c Context) (ConcurrencyRiskOutput, []report.Finding) {
	out := ConcurrencyRiskOutput{}

	isLockingRead := reLockingRead.MatchString(c.SQL)
	if !isLockingRead {
		out.LockScope = LockScopeNone
		out.RiskLabel = "low"
		return out, nil
	}

	out.LockScope = scopeFromAccessType(c.Metrics.PrimaryAccessType)

	var risk float64
	multiTable := len(c.Metrics.TablesAccessed) > 1
	hasSubquery := lexer.HasCorrelatedSubquery(c.SQL)
	notIndexBacked := !c.Metrics.IsIndexBacked && c.Metrics.PrimaryAccessType != report.AccessConstRow
	deepNesting := c.Metrics.NestedLoopDepth > 2

	for _, signal := range []bool{multiTable, hasSubquery, notIndexBacked, deepNesting} {
		if signal {
			risk += 0.25
		}
	}
	out.DeadlockRisk = risk

	depth := float64(c.Metrics.NestedLoopDepth)
	out.Contention = c.Metrics.ExecutionTimeMs * (1 + depth*0.5) * c.Metrics.RowsExamined / 10000

	switch {
	case out.DeadlockRisk >= 0.75 || out.Contention > 100:
		out.RiskLabel = "high"
	case out.DeadlockRisk >= 0.25 || out.Contention > 10:
		out.RiskLabel = "moderate"
	default:
		out.RiskLabel = "low"
	}

	var findings []report.Finding
	if out.RiskLabel == "high" {
		findings = append(findings, report.Finding{
			Severity:       report.SeverityWarning,
			Category:       "concurrency_risk",
			Title:          "High lock contention risk",
			Description:    "This locking read touches a broad, non-selective access path under concurrency.",
			Recommendation: "Narrow the WHERE clause to a selective indexed predicate before locking rows.",
		})
	}
	return out, findings
}

func scopeFromAccessType(a report.AccessType) LockScope {
	switch a {
	case report.AccessConstRow, report.AccessSingleRowLookup:
		return LockScopeRow
	case report.AccessIndexLookup, report.AccessCoveringIndexLookup, report.AccessFulltextIndex:
		return LockScopeGap
	case report.AccessIndexRangeScan:
		return LockScopeRange
	default:
		return LockScopeTable
	}
}
