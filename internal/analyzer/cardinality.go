package analyzer

import (
	"fmt"
	"sort"

	"github.com/nethalo/sqlsentinel/internal/config"
	"github.com/nethalo/sqlsentinel/internal/report"
)

// CardinalityDriftOutput is the per-table estimate/actual drift summary.
type CardinalityDriftOutput struct {
	TableDrift   map[string]float64 // 0..1, 1 = maximally wrong
	WorstTable   string
	CompositeDrift float64
}

// CardinalityDrift compares, per table, the optimizer's row estimate against
// the fanout-adjusted actual and emits an ANALYZE TABLE recommendation once
// the worst drift crosses a threshold (spec §4.12).
func CardinalityDrift(c Context, cfg config.CardinalityDriftConfig) (CardinalityDriftOutput, []report.Finding) {
	out := CardinalityDriftOutput{TableDrift: map[string]float64{}}
	if len(c.Metrics.PerTableEstimates) == 0 {
		return out, nil
	}

	var tables []string
	for t := range c.Metrics.PerTableEstimates {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	var sum float64
	worst := -1.0
	for _, t := range tables {
		est := c.Metrics.PerTableEstimates[t]
		drift := driftScore(est.EstimatedRows, est.Actual())
		out.TableDrift[t] = drift
		sum += drift
		if drift > worst {
			worst = drift
			out.WorstTable = t
		}
	}
	out.CompositeDrift = sum / float64(len(tables))

	var findings []report.Finding
	if worst >= cfg.CriticalThreshold {
		findings = append(findings, report.Finding{
			Severity:       report.SeverityCritical,
			Category:       "cardinality_drift",
			Title:          "Severe cardinality estimation drift",
			Description:    fmt.Sprintf("Table %q's optimizer estimate diverges sharply from the observed row count.", out.WorstTable),
			Recommendation: fmt.Sprintf("Run ANALYZE TABLE %s to refresh statistics.", out.WorstTable),
			Metadata:       map[string]any{"table": out.WorstTable, "drift": worst},
		})
	} else if worst >= cfg.WarningThreshold {
		findings = append(findings, report.Finding{
			Severity:       report.SeverityWarning,
			Category:       "cardinality_drift",
			Title:          "Cardinality estimation drift",
			Description:    fmt.Sprintf("Table %q's optimizer estimate differs noticeably from the observed row count.", out.WorstTable),
			Recommendation: fmt.Sprintf("Run ANALYZE TABLE %s to refresh statistics.", out.WorstTable),
			Metadata:       map[string]any{"table": out.WorstTable, "drift": worst},
		})
	}

	return out, findings
}

// driftScore maps estimate/actual into 0..1: 0 when equal, approaching 1 as
// the ratio diverges in either direction.
func driftScore(estimate, actual float64) float64 {
	if estimate <= 0 && actual <= 0 {
		return 0
	}
	if actual <= 0 {
		return 1
	}
	if estimate <= 0 {
		return 1
	}
	ratio := estimate / actual
	if ratio < 1 {
		ratio = 1 / ratio
	}
	// ratio 1 -> 0 drift, ratio >= 11 -> 1.0 drift, linear between.
	drift := (ratio - 1) / 10
	if drift > 1 {
		drift = 1
	}
	return drift
}
