package engine

import (
	"context"
	"database/sql"
	"testing"

	"github.com/nethalo/sqlsentinel/internal/config"
	"github.com/nethalo/sqlsentinel/internal/driver"
	"github.com/nethalo/sqlsentinel/internal/report"
)

// fakeDriver is a hand-rolled driver.Driver stub so engine tests don't need
// a live database; it returns the plan text/rows it was constructed with.
type fakeDriver struct {
	planText    string
	explainErr  error
	explainRows []map[string]any
	caps        driver.Capabilities
	supportsAN  bool
}

func (d *fakeDriver) Name() string { return "fake" }
func (d *fakeDriver) RunExplain(ctx context.Context, sql string) ([]map[string]any, error) {
	return d.explainRows, d.explainErr
}
func (d *fakeDriver) RunExplainAnalyze(ctx context.Context, sql string) (string, error) {
	return d.planText, nil
}
func (d *fakeDriver) SupportsAnalyze() bool { return d.supportsAN }
func (d *fakeDriver) GetVersion(ctx context.Context) (driver.Version, error) {
	return driver.Version{Major: 8, Flavor: "mysql"}, nil
}
func (d *fakeDriver) NormalizeAccessType(raw string) report.AccessType { return "" }
func (d *fakeDriver) NormalizeJoinType(raw string) string              { return "" }
func (d *fakeDriver) Capabilities(ctx context.Context) driver.Capabilities { return d.caps }
func (d *fakeDriver) RunAnalyzeTable(ctx context.Context, table string) error { return nil }
func (d *fakeDriver) GetColumnStats(ctx context.Context, table, column string) (driver.ColumnStats, error) {
	return driver.ColumnStats{}, nil
}
func (d *fakeDriver) DDLExecutor() driver.DDLExecutor { return nil }
func (d *fakeDriver) DB() *sql.DB                     { return nil }

const indexLookupPlan = `-> Index lookup on users using idx_email (email='a@example.com')  (cost=1.1 rows=1) (actual time=0.02..0.03 rows=1 loops=1)`

const tableScanPlan = `-> Table scan on orders  (cost=5000 rows=100000) (actual time=1.2..850.5 rows=100000 loops=1)`

func newEngine(d driver.Driver) *Engine {
	return New(config.Default(), d, nil, nil, nil)
}

func TestDiagnoseIndexLookupGradesHigh(t *testing.T) {
	e := newEngine(&fakeDriver{planText: indexLookupPlan, supportsAN: true, caps: driver.Capabilities{ExplainAnalyze: true}})
	diag, fail := e.Diagnose(context.Background(), "SELECT * FROM users WHERE email = 'a@example.com'", "app")
	if fail != nil {
		t.Fatalf("unexpected failure: %+v", fail)
	}
	if diag.Report.Result.Metrics.PrimaryAccessType != report.AccessIndexLookup {
		t.Errorf("access type = %v, want index_lookup", diag.Report.Result.Metrics.PrimaryAccessType)
	}
	if diag.Report.Grade == "F" {
		t.Errorf("grade = F, want a passing grade for an indexed lookup")
	}
	if diag.ID == "" {
		t.Error("expected a generated report ID")
	}
}

func TestDiagnoseTableScanCapsGradeOnCritical(t *testing.T) {
	e := newEngine(&fakeDriver{planText: tableScanPlan, supportsAN: true, caps: driver.Capabilities{ExplainAnalyze: true}})
	diag, fail := e.Diagnose(context.Background(), "SELECT * FROM orders WHERE status = 'pending'", "app")
	if fail != nil {
		t.Fatalf("unexpected failure: %+v", fail)
	}
	if !diag.Report.Result.Metrics.HasTableScan {
		t.Fatal("expected has_table_scan = true")
	}
	hasCritical := false
	for _, f := range diag.Report.Result.Findings {
		if f.Severity == report.SeverityCritical {
			hasCritical = true
		}
	}
	if !hasCritical {
		t.Fatal("expected a full_table_scan critical finding for 100k rows examined")
	}
	if gradeRank(diag.AdjustedGrade) > gradeRank("B") {
		t.Errorf("adjusted grade = %s, want capped at B or below", diag.AdjustedGrade)
	}
	if diag.AdjustedScore > 75 {
		t.Errorf("adjusted score = %v, want capped at 75", diag.AdjustedScore)
	}
}

func TestDiagnoseUnsafeStatementAborts(t *testing.T) {
	e := newEngine(&fakeDriver{planText: indexLookupPlan})
	_, fail := e.Diagnose(context.Background(), "DELETE FROM users WHERE id = 1", "app")
	if fail == nil {
		t.Fatal("expected a ValidationFailureReport for a destructive statement")
	}
	if fail.FailureStage != "Explain" {
		t.Errorf("failure stage = %q, want Explain", fail.FailureStage)
	}
}

func TestDiagnoseNoDriverAborts(t *testing.T) {
	e := newEngine(nil)
	_, fail := e.Diagnose(context.Background(), "SELECT 1", "app")
	if fail == nil {
		t.Fatal("expected a ValidationFailureReport when no driver is configured")
	}
}

func TestAnalyzeSqlOmitsDeepAnalyzers(t *testing.T) {
	e := newEngine(&fakeDriver{planText: indexLookupPlan, supportsAN: true})
	rep, fail := e.AnalyzeSql(context.Background(), "SELECT * FROM users WHERE email = 'a@example.com'", "app")
	if fail != nil {
		t.Fatalf("unexpected failure: %+v", fail)
	}
	if rep.Result.Metrics.PrimaryAccessType != report.AccessIndexLookup {
		t.Errorf("access type = %v, want index_lookup", rep.Result.Metrics.PrimaryAccessType)
	}
}

func TestAdjustGradeCombinesCaps(t *testing.T) {
	grade, score := adjustGrade("A", 98, 0.4, true)
	if grade != "C" || score != 50 {
		t.Errorf("adjustGrade(A,98,0.4,critical) = (%s,%v), want (C,50)", grade, score)
	}
}

func TestAdjustGradeNoCapWhenHealthy(t *testing.T) {
	grade, score := adjustGrade("A", 96, 0.95, false)
	if grade != "A" || score != 96 {
		t.Errorf("adjustGrade(A,96,0.95,false) = (%s,%v), want unchanged (A,96)", grade, score)
	}
}
