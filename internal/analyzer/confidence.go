package analyzer

import (
	"github.com/nethalo/sqlsentinel/internal/driver"
	"github.com/nethalo/sqlsentinel/internal/report"
)

type confidenceWeights struct {
	estimationAccuracy      float64
	sampleSize              float64
	explainAnalyzeAvailable float64
	cacheWarmth             float64
	statsFreshness          float64
	planStability           float64
	queryComplexity         float64
	driverCapabilities      float64
}

var confWeights = confidenceWeights{
	estimationAccuracy:      0.25,
	sampleSize:              0.20,
	explainAnalyzeAvailable: 0.15,
	cacheWarmth:             0.10,
	statsFreshness:          0.10,
	planStability:           0.10,
	queryComplexity:         0.05,
	driverCapabilities:      0.05,
}

// ConfidenceOutput is the weighted confidence score and its label.
type ConfidenceOutput struct {
	Score  float64
	Label  string
	Factors map[string]float64
}

// ConfidenceScorer combines eight weighted factors into an overall
// confidence that the report's grade reflects reality (spec §4.12). Const/
// eq_ref access forces sample_size to 1.0 since such plans are deterministic
// regardless of how many rows were sampled.
func ConfidenceScorer(c Context, drift CardinalityDriftOutput, caps driver.Capabilities, supportsAnalyze bool) (ConfidenceOutput, []report.Finding) {
	factors := map[string]float64{
		"estimation_accuracy":       1 - drift.CompositeDrift,
		"sample_size":               sampleSizeFactor(c),
		"explain_analyze_available": boolFactor(supportsAnalyze),
		"cache_warmth":              0.7, // no warm/cold signal available without repeated runs
		"stats_freshness":           1 - drift.CompositeDrift,
		"plan_stability":            1.0, // single-sample run; stability requires history, assumed stable
		"query_complexity":          1 - float64(c.Metrics.Complexity)/float64(report.ComplexityQuadratic),
		"driver_capabilities":       capabilitiesFactor(caps),
	}

	switch c.Metrics.PrimaryAccessType {
	case report.AccessConstRow, report.AccessSingleRowLookup:
		factors["sample_size"] = 1.0
	}

	score := confWeights.estimationAccuracy*factors["estimation_accuracy"] +
		confWeights.sampleSize*factors["sample_size"] +
		confWeights.explainAnalyzeAvailable*factors["explain_analyze_available"] +
		confWeights.cacheWarmth*factors["cache_warmth"] +
		confWeights.statsFreshness*factors["stats_freshness"] +
		confWeights.planStability*factors["plan_stability"] +
		confWeights.queryComplexity*factors["query_complexity"] +
		confWeights.driverCapabilities*factors["driver_capabilities"]

	out := ConfidenceOutput{Score: score, Factors: factors}
	switch {
	case score >= 0.9:
		out.Label = "high"
	case score >= 0.7:
		out.Label = "moderate"
	case score >= 0.5:
		out.Label = "low"
	default:
		out.Label = "unreliable"
	}

	var findings []report.Finding
	if score < 0.5 {
		findings = append(findings, report.Finding{
			Severity:       report.SeverityWarning,
			Category:       "confidence",
			Title:          "Low confidence in diagnostic accuracy",
			Description:    "Several confidence factors (stale stats, missing EXPLAIN ANALYZE support, high complexity) reduce trust in this grade.",
			Recommendation: "Refresh table statistics and re-run on a driver/version with full EXPLAIN ANALYZE support.",
		})
	} else if score < 0.7 {
		findings = append(findings, report.Finding{
			Severity:       report.SeverityOptimization,
			Category:       "confidence",
			Title:          "Moderate confidence in diagnostic accuracy",
			Description:    "Some confidence factors are below ideal.",
			Recommendation: "Treat the grade as directional; consider re-running after ANALYZE TABLE.",
		})
	}

	return out, findings
}

func sampleSizeFactor(c Context) float64 {
	if c.Metrics.RowsExamined <= 0 {
		return 0.5
	}
	switch {
	case c.Metrics.RowsExamined >= 1000:
		return 1.0
	case c.Metrics.RowsExamined >= 100:
		return 0.8
	case c.Metrics.RowsExamined >= 10:
		return 0.6
	default:
		return 0.4
	}
}

func boolFactor(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.3
}

func capabilitiesFactor(caps driver.Capabilities) float64 {
	score := 0.0
	total := 0.0
	for _, has := range []bool{caps.ExplainAnalyze, caps.Histograms, caps.JSONExplain, caps.CoveringIndexInfo} {
		total++
		if has {
			score++
		}
	}
	if total == 0 {
		return 0.5
	}
	return score / total
}
