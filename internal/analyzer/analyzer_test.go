package analyzer

import (
	"testing"

	"github.com/nethalo/sqlsentinel/internal/config"
	"github.com/nethalo/sqlsentinel/internal/driver"
	"github.com/nethalo/sqlsentinel/internal/report"
)

func TestCardinalityDriftFlagsCritical(t *testing.T) {
	c := Context{Metrics: report.Metrics{PerTableEstimates: map[string]report.TableEstimate{
		"orders": {EstimatedRows: 10, ActualRows: 500, Loops: 1},
	}}}
	out, findings := CardinalityDrift(c, config.Default().CardinalityDrift)
	if out.WorstTable != "orders" {
		t.Errorf("WorstTable = %q, want orders", out.WorstTable)
	}
	if len(findings) != 1 || findings[0].Severity != report.SeverityCritical {
		t.Fatalf("expected one critical finding, got %+v", findings)
	}
}

func TestAntiPatternSelectStar(t *testing.T) {
	c := Context{SQL: "SELECT * FROM users WHERE id = 1"}
	out, findings := AntiPattern(c, config.Default().AntiPatterns)
	if !out.SelectStar {
		t.Error("expected SelectStar true")
	}
	if len(findings) != 1 {
		t.Fatalf("expected one finding, got %d", len(findings))
	}
}

func TestIndexSynthesisProposesEqualityFirst(t *testing.T) {
	c := Context{
		SQL: "SELECT id FROM orders WHERE customer_id = 1 ORDER BY created_at",
		Metrics: report.Metrics{HasTableScan: true},
	}
	out, _ := IndexSynthesis(c, config.Default().IndexSynthesis)
	if len(out.Proposals) == 0 {
		t.Fatal("expected at least one proposal")
	}
	p := out.Proposals[0]
	if p.Columns[0] != "customer_id" {
		t.Errorf("expected equality column first, got %v", p.Columns)
	}
}

func TestConcurrencyRiskNonLockingSelect(t *testing.T) {
	c := Context{SQL: "SELECT * FROM users WHERE id = 1"}
	out, findings := ConcurrencyRisk(c)
	if out.LockScope != LockScopeNone {
		t.Errorf("LockScope = %v, want none", out.LockScope)
	}
	if len(findings) != 0 {
		t.Errorf("expected no findings for non-locking select, got %+v", findings)
	}
}

func TestConcurrencyRiskForUpdate(t *testing.T) {
	c := Context{
		SQL: "SELECT * FROM accounts WHERE id = 1 FOR UPDATE",
		Metrics: report.Metrics{PrimaryAccessType: report.AccessTableScan, IsIndexBacked: false, NestedLoopDepth: 3},
	}
	out, _ := ConcurrencyRisk(c)
	if out.LockScope != LockScopeTable {
		t.Errorf("LockScope = %v, want table", out.LockScope)
	}
}

func TestConcurrencyRiskPlainJoinIsNotCountedAsSubquery(t *testing.T) {
	c := Context{
		SQL:     "SELECT * FROM accounts a JOIN orders o ON o.account_id = a.id WHERE a.id = 1 FOR UPDATE",
		Metrics: report.Metrics{PrimaryAccessType: report.AccessIndexLookup, IsIndexBacked: true, NestedLoopDepth: 1, TablesAccessed: []string{"accounts", "orders"}},
	}
	out, _ := ConcurrencyRisk(c)
	// multiTable (0.25) is the only signal here; a plain join must not also
	// trip the correlated-subquery factor.
	if out.DeadlockRisk != 0.25 {
		t.Errorf("DeadlockRisk = %v, want 0.25 (multi-table only, no subquery)", out.DeadlockRisk)
	}
}

func TestConcurrencyRiskDetectsCorrelatedSubquery(t *testing.T) {
	c := Context{
		SQL:     "SELECT * FROM accounts a WHERE a.id = 1 AND EXISTS (SELECT 1 FROM orders o WHERE o.account_id = a.id) FOR UPDATE",
		Metrics: report.Metrics{PrimaryAccessType: report.AccessIndexLookup, IsIndexBacked: true, NestedLoopDepth: 0},
	}
	out, _ := ConcurrencyRisk(c)
	if out.DeadlockRisk != 0.25 {
		t.Errorf("DeadlockRisk = %v, want 0.25 (correlated subquery at depth 0)", out.DeadlockRisk)
	}
}

func TestScalabilityProjectsHigherForQuadratic(t *testing.T) {
	c := Context{Metrics: report.Metrics{
		Complexity:      report.ComplexityQuadratic,
		RowsExamined:    100,
		ExecutionTimeMs: 10,
	}}
	proj := Scalability(c)
	if proj.Risk != "HIGH" {
		t.Errorf("Risk = %q, want HIGH", proj.Risk)
	}
	if proj.ProjectedAt[10_000_000] <= 0 {
		t.Error("expected a positive projection at 10M rows")
	}
}

func TestConfidenceConstRowForcesSampleSize(t *testing.T) {
	c := Context{Metrics: report.Metrics{PrimaryAccessType: report.AccessConstRow, RowsExamined: 1}}
	caps := driver.Capabilities{ExplainAnalyze: true, Histograms: true, JSONExplain: true, CoveringIndexInfo: true}
	out, _ := ConfidenceScorer(c, CardinalityDriftOutput{}, caps, true)
	if out.Factors["sample_size"] != 1.0 {
		t.Errorf("sample_size = %v, want 1.0 for const access", out.Factors["sample_size"])
	}
}
