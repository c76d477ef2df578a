package consistency

import (
	"testing"

	"github.com/nethalo/sqlsentinel/internal/report"
)

func TestValidateNoViolationsOnConsistentInput(t *testing.T) {
	in := Input{
		Metrics: report.Metrics{
			PrimaryAccessType: report.AccessIndexLookup,
			IsIndexBacked:     true,
			ParsingValid:      true,
			ExecutionTimeMs:   5,
		},
		IsPlainSelect: true,
		LockScope:     "none",
	}
	if v := Validate(in); len(v) != 0 {
		t.Errorf("expected no violations, got %v", v)
	}
}

func TestValidateDetectsTableScanMismatch(t *testing.T) {
	in := Input{Metrics: report.Metrics{
		PrimaryAccessType: report.AccessTableScan,
		HasTableScan:      false,
	}}
	v := Validate(in)
	if len(v) == 0 {
		t.Fatal("expected a violation for table scan mismatch")
	}
}

func TestValidateDetectsDuplicateFindings(t *testing.T) {
	f := report.Finding{Category: "no_index", Title: "No usable index", Recommendation: "add index"}
	in := Input{Findings: []report.Finding{f, f}}
	v := Validate(in)
	found := false
	for _, s := range v {
		if len(s) > 0 {
			found = true
		}
	}
	if !found {
		t.Error("expected duplicate finding violation")
	}
}

func TestValidateParsingInvalidNonZeroTime(t *testing.T) {
	in := Input{Metrics: report.Metrics{ParsingValid: false, ExecutionTimeMs: 12}}
	v := Validate(in)
	if len(v) == 0 {
		t.Fatal("expected a violation for parsing_valid=false with non-zero execution time")
	}
}
