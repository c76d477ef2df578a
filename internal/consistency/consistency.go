// Package consistency is the ConsistencyValidator (spec §4.14): a graceful,
// log-only post-analysis check that a DiagnosticReport's fields don't
// contradict each other. Grounded on the teacher's internal/topology
// invariant-probing style (detect, then log rather than fail).
package consistency

import (
	"fmt"

	"github.com/nethalo/sqlsentinel/internal/report"
	"go.uber.org/zap"
)

// Input is the subset of a diagnose() run's state the validator inspects.
type Input struct {
	Metrics    report.Metrics
	Findings   []report.Finding
	IsPlainSelect bool
	LockScope  string
	Regression *RegressionCheck
}

// RegressionCheck carries the fields needed for invariant 8.
type RegressionCheck struct {
	HasRegressionFinding bool
	BaselineMs           float64
}

// Validate checks every spec §4.14 invariant and returns the violations
// found, in rule order. It never aborts the pipeline — callers log and
// continue.
func Validate(in Input) []string {
	var violations []string

	m := in.Metrics

	if m.PrimaryAccessType != report.AccessTableScan && m.PrimaryAccessType != "" && !m.IsIndexBacked {
		violations = append(violations, "primary_access_type is not table_scan but is_index_backed is false")
	}
	if m.HasTableScan && m.PrimaryAccessType != report.AccessTableScan {
		violations = append(violations, "has_table_scan is true but primary_access_type is not table_scan")
	}
	if m.ComplexityRisk == "LOW" && m.HasTableScan && m.RowsReturned > 1000 && !m.IsIntentionalScan {
		violations = append(violations, "low complexity risk with a large table scan requires is_intentional_scan")
	}
	if dup := firstDuplicateFinding(in.Findings); dup != "" {
		violations = append(violations, fmt.Sprintf("duplicate finding detected: %s", dup))
	}
	if in.IsPlainSelect && in.LockScope != "" && in.LockScope != "none" {
		violations = append(violations, "plain SELECT has non-none lock_scope")
	}
	if m.PrimaryAccessType == report.AccessTableScan && !m.HasTableScan {
		violations = append(violations, "primary_access_type is table_scan but has_table_scan is false")
	}
	if m.IsIntentionalScan && hasSuppressedFinding(in.Findings) {
		violations = append(violations, "is_intentional_scan suppresses no_index/full_table_scan but a matching finding is present")
	}
	if in.Regression != nil && in.Regression.HasRegressionFinding && in.Regression.BaselineMs < 5 {
		violations = append(violations, "regression finding present with baseline below the 5ms measurable floor")
	}
	if !m.ParsingValid && m.ExecutionTimeMs != 0 {
		violations = append(violations, "parsing_valid is false but execution_time_ms is non-zero")
	}

	return violations
}

// LogViolations logs each violation via logger at Warn level. Per spec
// §4.14, violations are recorded but never abort the pipeline.
func LogViolations(logger *zap.Logger, violations []string) {
	if logger == nil {
		return
	}
	for _, v := range violations {
		logger.Warn("consistency violation", zap.String("violation", v))
	}
}

func firstDuplicateFinding(findings []report.Finding) string {
	seen := map[string]bool{}
	for _, f := range findings {
		key := f.DedupKey()
		if seen[key] {
			return key
		}
		seen[key] = true
	}
	return ""
}

var suppressedCategories = map[string]bool{"no_index": true, "full_table_scan": true}

func hasSuppressedFinding(findings []report.Finding) bool {
	for _, f := range findings {
		if !suppressedCategories[f.Category] {
			continue
		}
		if f.Severity == report.SeverityCritical || f.Severity == report.SeverityWarning {
			return true
		}
	}
	return false
}
