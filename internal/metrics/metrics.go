// Package metrics is the MetricsExtractor (spec §4.9): walks the flattened
// plan-node list to compute every scalar metric, anti-pattern flag, and the
// complexity classification. Grounded on other_examples' yogisyahroni
// query_analyzer.go plan-walk (analyzeMySQL/analyzePostgreSQL), generalized
// from "detect and emit an issue" to "compute a stable metrics bag".
package metrics

import (
	"regexp"
	"strings"

	"github.com/nethalo/sqlsentinel/internal/report"
)

var (
	reTempTable   = regexp.MustCompile(`(?i)temporary table|using temp`)
	reFilesort    = regexp.MustCompile(`(?i)filesort`)
	reWeedout     = regexp.MustCompile(`(?i)weedout`)
	reIndexMerge  = regexp.MustCompile(`(?i)index merge`)
	reDiskTemp    = regexp.MustCompile(`(?i)using temporary.*disk|disk-based`)
	reMaterialize = regexp.MustCompile(`(?i)materialize`)
	reCovering    = regexp.MustCompile(`(?i)covering index`)
	reLimit       = regexp.MustCompile(`(?i)\blimit\b`)
	reSubquery    = regexp.MustCompile(`<subquery|<temporary>|drv`)
)

// Extract walks root and returns the spec §4.9 metrics bag. planText is the
// original EXPLAIN ANALYZE text, consulted for anti-pattern regexes that
// apply to the whole plan rather than one node (filesort, weedout, ...).
func Extract(root *report.PlanNode, planText string) report.Metrics {
	m := report.Metrics{PerTableEstimates: map[string]report.TableEstimate{}}
	if root == nil {
		return m
	}

	nodes := root.Flatten()
	m.NodeCount = len(nodes)

	if root.ActualTimeEnd != nil {
		m.ExecutionTimeMs = *root.ActualTimeEnd
		m.ParsingValid = true
	}
	if root.ActualRows != nil {
		m.RowsReturned = *root.ActualRows
	}

	var worstAccess report.AccessType
	worstSeverity := -1
	tablesSeen := map[string]bool{}
	indexesSeen := map[string]bool{}

	for _, n := range nodes {
		if strings.Contains(strings.ToLower(n.Operation), "nested loop") {
			m.NestedLoopDepth++
		}
		if n.EstimatedCost != nil && *n.EstimatedCost > m.MaxCost {
			m.MaxCost = *n.EstimatedCost
		}
		if n.Loops != nil && *n.Loops > m.MaxLoops {
			m.MaxLoops = *n.Loops
		}

		if n.AccessType.IsIO() {
			rowsProcessed := n.RowsProcessed()
			m.RowsExamined += rowsProcessed
			if rowsProcessed > m.FanoutFactor {
				m.FanoutFactor = rowsProcessed
			}
		}

		if n.AccessType != "" && n.AccessType.Severity() > worstSeverity {
			worstSeverity = n.AccessType.Severity()
			worstAccess = n.AccessType
		}

		if n.AccessType == report.AccessTableScan && n.Table != "" && !reSubquery.MatchString(n.Table) {
			m.HasTableScan = true
		}
		if n.AccessType == report.AccessCoveringIndexLookup {
			m.HasCoveringIndex = true
		}
		if n.AccessType == report.AccessZeroRowConst {
			m.IsZeroRowConst = true
		}
		if n.AccessType.IndexBacked() {
			m.IsIndexBacked = true
		}

		if n.Table != "" {
			tablesSeen[n.Table] = true
			cur := m.PerTableEstimates[n.Table]
			actual := 0.0
			if n.ActualRows != nil {
				actual = *n.ActualRows
			}
			loops := 1.0
			if n.Loops != nil {
				loops = *n.Loops
			}
			est := 0.0
			if n.EstimatedRows != nil {
				est = *n.EstimatedRows
			}
			if est > cur.EstimatedRows || cur.EstimatedRows == 0 {
				m.PerTableEstimates[n.Table] = report.TableEstimate{
					EstimatedRows: est, ActualRows: actual, Loops: loops,
				}
			}
		}
		if n.Index != "" {
			indexesSeen[n.Index] = true
		}
	}

	m.PrimaryAccessType = worstAccess
	m.MySQLAccessType = toMySQLAccessType(worstAccess)
	m.JoinCount = m.NestedLoopDepth

	for t := range tablesSeen {
		m.TablesAccessed = append(m.TablesAccessed, t)
	}
	for i := range indexesSeen {
		m.IndexesUsed = append(m.IndexesUsed, i)
	}

	lowerPlan := strings.ToLower(planText)
	m.HasTempTable = reTempTable.MatchString(lowerPlan)
	m.HasFilesort = reFilesort.MatchString(lowerPlan)
	m.HasWeedout = reWeedout.MatchString(lowerPlan)
	m.HasIndexMerge = reIndexMerge.MatchString(lowerPlan)
	m.HasDiskTemp = reDiskTemp.MatchString(lowerPlan)
	m.HasMaterialization = reMaterialize.MatchString(lowerPlan)
	if !m.HasCoveringIndex {
		m.HasCoveringIndex = reCovering.MatchString(planText)
	}

	m.HasEarlyTermination = hasEarlyTermination(nodes, planText)

	if m.RowsReturned > 0 {
		m.SelectivityRatio = m.RowsExamined / m.RowsReturned
	} else {
		m.SelectivityRatio = m.RowsExamined
	}

	m.Complexity = classifyComplexity(m)
	m.ComplexityLabel = m.Complexity.Label()
	m.ComplexityRisk = m.Complexity.Risk()

	return m
}

func toMySQLAccessType(a report.AccessType) string {
	switch a {
	case report.AccessConstRow, report.AccessZeroRowConst:
		return "const"
	case report.AccessSingleRowLookup:
		return "eq_ref"
	case report.AccessIndexLookup, report.AccessCoveringIndexLookup:
		return "ref"
	case report.AccessIndexRangeScan:
		return "range"
	case report.AccessIndexScan:
		return "index"
	case report.AccessFulltextIndex:
		return "fulltext"
	case report.AccessTableScan:
		return "ALL"
	default:
		return ""
	}
}

// hasEarlyTermination: plan mentions LIMIT AND any single-pass node
// (loops=1) exhibits estimated >> actual (estimated > 5x actual), per spec
// §4.9/GLOSSARY.
func hasEarlyTermination(nodes []*report.PlanNode, planText string) bool {
	if !reLimit.MatchString(planText) {
		return false
	}
	for _, n := range nodes {
		if n.Loops == nil || *n.Loops != 1 {
			continue
		}
		if n.EstimatedRows == nil || n.ActualRows == nil || *n.ActualRows == 0 {
			continue
		}
		if *n.EstimatedRows > 5*(*n.ActualRows) {
			return true
		}
	}
	return false
}

// classifyComplexity implements spec §4.9's design-level classification:
// table scan + nested loop, or table scan + huge loops, or deep nesting with
// huge loops, all force Quadratic; otherwise a base class from the primary
// access type is lifted by filesort/temp-table/nested-depth signals.
func classifyComplexity(m report.Metrics) report.ComplexityClass {
	if m.HasTableScan && m.NestedLoopDepth > 0 {
		return report.ComplexityQuadratic
	}
	if m.HasTableScan && m.MaxLoops > 10000 {
		return report.ComplexityQuadratic
	}
	if m.NestedLoopDepth > 3 && m.MaxLoops > 1000 {
		return report.ComplexityQuadratic
	}

	base := baseComplexity(m.PrimaryAccessType)

	if m.HasFilesort && base < report.ComplexityLinearithmic {
		base = report.ComplexityLinearithmic
	}
	if m.HasTempTable && base < report.ComplexityLinear {
		base = report.ComplexityLinear
	}
	if m.NestedLoopDepth >= 2 && base <= report.ComplexityLogarithmic {
		base = report.ComplexityLinearithmic
	}

	return base
}

func baseComplexity(a report.AccessType) report.ComplexityClass {
	switch a {
	case report.AccessConstRow, report.AccessZeroRowConst, report.AccessSingleRowLookup:
		return report.ComplexityConstant
	case report.AccessIndexLookup, report.AccessCoveringIndexLookup, report.AccessFulltextIndex:
		return report.ComplexityLogarithmic
	case report.AccessIndexRangeScan:
		return report.ComplexityLogRange
	case report.AccessIndexScan, report.AccessTableScan:
		return report.ComplexityLinear
	default:
		return report.ComplexityLinear
	}
}
