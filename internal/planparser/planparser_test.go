package planparser

import (
	"testing"

	"github.com/nethalo/sqlsentinel/internal/report"
)

func TestParseSingleNode(t *testing.T) {
	plan := "-> Table scan on users (cost=100 rows=50000) (actual time=0.1..12.3 rows=50000 loops=1)"
	root := Parse(plan)
	if root == nil {
		t.Fatal("expected non-nil root")
	}
	if root.Table != "users" {
		t.Errorf("Table = %q, want users", root.Table)
	}
	if root.AccessType != report.AccessTableScan {
		t.Errorf("AccessType = %v, want table_scan", root.AccessType)
	}
	if root.ActualRows == nil || *root.ActualRows != 50000 {
		t.Errorf("ActualRows = %v, want 50000", root.ActualRows)
	}
	if root.Loops == nil || *root.Loops != 1 {
		t.Errorf("Loops = %v, want 1", root.Loops)
	}
}

func TestParseNestedTree(t *testing.T) {
	plan := `-> Nested loop inner join  (cost=10 rows=5) (actual time=0.5..2.1 rows=5 loops=1)
    -> Index lookup on orders using idx_user (cost=2 rows=5) (actual time=0.1..0.5 rows=5 loops=1)
    -> Single-row index lookup on users using PRIMARY (cost=1 rows=1) (actual time=0.05..0.05 rows=1 loops=5)`

	root := Parse(plan)
	if root == nil {
		t.Fatal("expected non-nil root")
	}
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(root.Children))
	}
	if root.Children[0].Table != "orders" {
		t.Errorf("child[0].Table = %q, want orders", root.Children[0].Table)
	}
	if root.Children[1].AccessType != report.AccessSingleRowLookup {
		t.Errorf("child[1].AccessType = %v, want single_row_lookup", root.Children[1].AccessType)
	}
}

func TestParseContinuationLine(t *testing.T) {
	plan := `-> Filter: (users.status = 1)
    still filtering more conditions
    -> Table scan on users (cost=1 rows=1) (actual time=0.1..0.2 rows=1 loops=1)`
	root := Parse(plan)
	if root == nil {
		t.Fatal("expected non-nil root")
	}
	if root.Operation == "" || root.Operation[:6] != "Filter" {
		t.Errorf("expected continuation to fold into Filter operation, got %q", root.Operation)
	}
}

func TestParseNeverExecuted(t *testing.T) {
	plan := "-> Table scan on users (cost=1 rows=1) (never executed)"
	root := Parse(plan)
	if !root.NeverExecuted {
		t.Error("expected NeverExecuted = true")
	}
	if root.ActualRows != nil {
		t.Error("expected nil ActualRows for never-executed node")
	}
}
