package mysqldriver

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/nethalo/sqlsentinel/internal/report"
)

func TestGetVersionMemoized(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT VERSION()").WillReturnRows(
		sqlmock.NewRows([]string{"VERSION()"}).AddRow("8.0.35-27-Percona Server"),
	)

	d := &Driver{db: db}
	v, err := d.GetVersion(context.Background())
	if err != nil {
		t.Fatalf("GetVersion: %v", err)
	}
	if v.Major != 8 || v.Minor != 0 || v.Patch != 35 {
		t.Errorf("parsed version = %+v, want 8.0.35", v)
	}
	if v.Flavor != "percona" {
		t.Errorf("flavor = %q, want percona", v.Flavor)
	}

	// Second call must not issue another query (memoized via sync.Once).
	v2, err := d.GetVersion(context.Background())
	if err != nil || v2 != v {
		t.Errorf("expected memoized version on second call, got %+v, err=%v", v2, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestParseVersionAurora(t *testing.T) {
	v, err := parseVersion("8.0.23")
	if err != nil {
		t.Fatalf("parseVersion: %v", err)
	}
	if v.Flavor != "mysql" || v.Major != 8 {
		t.Errorf("got %+v", v)
	}
}

func TestNormalizeAccessType(t *testing.T) {
	d := &Driver{}
	if at := d.NormalizeAccessType("ALL"); at != report.AccessTableScan {
		t.Errorf("NormalizeAccessType(ALL) = %v, want table_scan", at)
	}
	if at := d.NormalizeAccessType("ref"); at != report.AccessIndexLookup {
		t.Errorf("NormalizeAccessType(ref) = %v, want index_lookup", at)
	}
	if at := d.NormalizeAccessType("unknown_type"); at != "" {
		t.Errorf("NormalizeAccessType(unknown) = %v, want empty", at)
	}
}

func TestValidateSafeForExplain(t *testing.T) {
	if err := validateSafeForExplain("SELECT 1; DROP TABLE users"); err == nil {
		t.Error("expected semicolon-chained statement to be rejected")
	}
	if err := validateSafeForExplain("SELECT 1"); err != nil {
		t.Errorf("expected plain select to validate, got %v", err)
	}
}
