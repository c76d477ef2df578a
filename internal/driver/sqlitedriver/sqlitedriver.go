// Package sqlitedriver implements driver.Driver for SQLite using
// github.com/mattn/go-sqlite3, grounded on jordigilh-kubernaut's and
// theRebelliousNerd-codenerd's direct dependencies on that driver.
package sqlitedriver

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nethalo/sqlsentinel/internal/driver"
	"github.com/nethalo/sqlsentinel/internal/report"
)

type Driver struct {
	db          *sql.DB
	versionOnce sync.Once
	version     driver.Version
}

func Open(cfg driver.ConnectionConfig) (*Driver, error) {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite connection: %w", err)
	}
	// SQLite only tolerates one writer; a single connection avoids
	// "database is locked" surprises during hypothetical-index simulation.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}
	return &Driver{db: db}, nil
}

func (d *Driver) Name() string          { return "sqlite" }
func (d *Driver) DB() *sql.DB           { return d.db }
func (d *Driver) SupportsAnalyze() bool { return false } // SQLite has no EXPLAIN ANALYZE

func (d *Driver) GetVersion(ctx context.Context) (driver.Version, error) {
	d.versionOnce.Do(func() {
		var raw string
		_ = d.db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&raw)
		d.version = driver.Version{Raw: raw, Flavor: "sqlite"}
	})
	return d.version, nil
}

func (d *Driver) Capabilities(ctx context.Context) driver.Capabilities {
	return driver.Capabilities{
		Histograms:        false,
		ExplainAnalyze:    false,
		JSONExplain:       false,
		CoveringIndexInfo: true,
		ParallelQuery:     false,
	}
}

func validateSafeForExplain(sqlText string) error {
	upper := strings.ToUpper(strings.TrimSpace(sqlText))
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return fmt.Errorf("sql statement not safe for EXPLAIN: must be SELECT/WITH")
	}
	if strings.Contains(sqlText, ";") {
		return fmt.Errorf("sql statement contains semicolon: statement chaining not allowed")
	}
	return nil
}

// RunExplain runs EXPLAIN QUERY PLAN, the closest SQLite has to a tabular
// EXPLAIN (SQLite's raw EXPLAIN emits VM opcodes, not a plan).
func (d *Driver) RunExplain(ctx context.Context, sqlText string) ([]map[string]any, error) {
	if err := validateSafeForExplain(sqlText); err != nil {
		return nil, err
	}
	rows, err := d.db.QueryContext(ctx, "EXPLAIN QUERY PLAN "+sqlText)
	if err != nil {
		return nil, fmt.Errorf("-- EXPLAIN failed: %s", err.Error())
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	for rows.Next() {
		values := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			continue
		}
		row := map[string]any{}
		for i, col := range cols {
			if values[i].Valid {
				row[col] = values[i].String
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// RunExplainAnalyze has no true SQLite equivalent; it returns the
// EXPLAIN QUERY PLAN text so PlanParser still has something to walk,
// documented by SupportsAnalyze()==false so callers know timings are absent.
func (d *Driver) RunExplainAnalyze(ctx context.Context, sqlText string) (string, error) {
	rows, err := d.RunExplain(ctx, sqlText)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, row := range rows {
		if detail, ok := row["detail"]; ok {
			fmt.Fprintf(&b, "-> %v\n", detail)
		}
	}
	return b.String(), nil
}

func (d *Driver) RunAnalyzeTable(ctx context.Context, table string) error {
	_, err := d.db.ExecContext(ctx, "ANALYZE "+quoteIdent(table))
	return err
}

func (d *Driver) GetColumnStats(ctx context.Context, table, column string) (driver.ColumnStats, error) {
	var distinct sql.NullInt64
	query := fmt.Sprintf("SELECT COUNT(DISTINCT %s) FROM %s", quoteIdent(column), quoteIdent(table))
	if err := d.db.QueryRowContext(ctx, query).Scan(&distinct); err != nil {
		return driver.ColumnStats{}, fmt.Errorf("querying column stats: %w", err)
	}
	return driver.ColumnStats{DistinctValues: distinct.Int64}, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

var reScanTable = regexp.MustCompile(`(?i)SCAN (?:TABLE )?(\w+)`)
var reSearchIndex = regexp.MustCompile(`(?i)SEARCH (?:TABLE )?\w+ USING (?:COVERING )?INDEX`)

// NormalizeAccessType interprets EXPLAIN QUERY PLAN "detail" text, grounded
// on yogisyahroni query_analyzer.go's regex `SCAN TABLE (\w+)` detection for
// SQLite.
func (d *Driver) NormalizeAccessType(raw string) report.AccessType {
	switch {
	case reSearchIndex.MatchString(raw):
		if strings.Contains(strings.ToUpper(raw), "COVERING") {
			return report.AccessCoveringIndexLookup
		}
		return report.AccessIndexLookup
	case reScanTable.MatchString(raw):
		return report.AccessTableScan
	default:
		return ""
	}
}

func (d *Driver) NormalizeJoinType(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func (d *Driver) DDLExecutor() driver.DDLExecutor { return &execDDL{db: d.db} }

type execDDL struct{ db *sql.DB }

func (e *execDDL) Execute(ctx context.Context, ddl string) error {
	_, err := e.db.ExecContext(ctx, ddl)
	return err
}
