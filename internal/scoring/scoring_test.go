package scoring

import (
	"testing"

	"github.com/nethalo/sqlsentinel/internal/report"
)

func TestScoreFastIndexLookup(t *testing.T) {
	m := report.Metrics{
		ExecutionTimeMs:   0.5,
		RowsExamined:      1,
		RowsReturned:      1,
		IsIndexBacked:     true,
		HasCoveringIndex:  true,
		Complexity:        report.ComplexityConstant,
	}
	b := New().Score(m)
	if b.Grade != "A" {
		t.Errorf("Grade = %q, want A (composite=%v)", b.Grade, b.Composite)
	}
}

func TestScoreTableScanPenalized(t *testing.T) {
	m := report.Metrics{
		ExecutionTimeMs: 5000,
		RowsExamined:    1_000_000,
		RowsReturned:    10,
		HasTableScan:    true,
		IsIndexBacked:   false,
		Complexity:      report.ComplexityLinear,
	}
	b := New().Score(m)
	if b.Grade == "A" || b.Grade == "B" {
		t.Errorf("Grade = %q, want poor grade for table scan", b.Grade)
	}
	if b.IndexQuality != 30 {
		t.Errorf("IndexQuality = %v, want 30 (100-40-30)", b.IndexQuality)
	}
}

func TestContextOverride(t *testing.T) {
	m := report.Metrics{
		ExecutionTimeMs:     2,
		RowsExamined:        500,
		RowsReturned:        10,
		HasEarlyTermination: true,
		HasCoveringIndex:    true,
		IsIndexBacked:       true,
		Complexity:          report.ComplexityLinear,
	}
	b := New().Score(m)
	if !b.ContextOverride {
		t.Error("expected ContextOverride to trigger")
	}
	if b.Composite < 95 {
		t.Errorf("Composite = %v, want >= 95 under override", b.Composite)
	}
}

func TestJoinEfficiencyDeepNesting(t *testing.T) {
	m := report.Metrics{NestedLoopDepth: 6, FanoutFactor: 20000}
	got := scoreJoinEfficiency(m)
	if got != 0 {
		t.Errorf("scoreJoinEfficiency = %v, want 0 (clamped)", got)
	}
}
