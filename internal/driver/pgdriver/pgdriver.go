// Package pgdriver implements driver.Driver for PostgreSQL using
// github.com/jackc/pgx/v5 (grounded on jordigilh-kubernaut's direct
// dependency, wired here to satisfy the multi-engine Driver requirement of
// spec §1/§4.6). Plan-node normalization follows the node-type-to-issue
// mapping in other_examples' yogisyahroni query_analyzer.go, adapted from
// JSON-tree walking to this package's narrower Driver-contract duties (tree
// parsing itself lives in internal/planparser).
package pgdriver

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/nethalo/sqlsentinel/internal/driver"
	"github.com/nethalo/sqlsentinel/internal/report"
)

type Driver struct {
	db          *sql.DB
	versionOnce sync.Once
	version     driver.Version
	versionErr  error
}

func Open(cfg driver.ConnectionConfig) (*Driver, error) {
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslmode := "prefer"
	if cfg.TLSMode == "skip-verify" {
		sslmode = "disable"
	} else if cfg.TLSMode == "custom" || cfg.TLSMode == "true" {
		sslmode = "require"
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, port, cfg.Database, sslmode)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Driver{db: db}, nil
}

func (d *Driver) Name() string { return "pgsql" }
func (d *Driver) DB() *sql.DB  { return d.db }

func (d *Driver) SupportsAnalyze() bool { return true } // PostgreSQL has had EXPLAIN ANALYZE since 7.x

var pgVersionRe = regexp.MustCompile(`PostgreSQL (\d+)\.?(\d+)?`)

func (d *Driver) GetVersion(ctx context.Context) (driver.Version, error) {
	d.versionOnce.Do(func() {
		var raw string
		if err := d.db.QueryRowContext(ctx, "SELECT version()").Scan(&raw); err != nil {
			d.versionErr = fmt.Errorf("querying version: %w", err)
			return
		}
		v := driver.Version{Raw: raw, Flavor: "postgresql"}
		if m := pgVersionRe.FindStringSubmatch(raw); len(m) >= 2 {
			v.Major, _ = strconv.Atoi(m[1])
			if len(m) >= 3 && m[2] != "" {
				v.Minor, _ = strconv.Atoi(m[2])
			}
		}
		d.version = v
	})
	return d.version, d.versionErr
}

func (d *Driver) Capabilities(ctx context.Context) driver.Capabilities {
	v, err := d.GetVersion(ctx)
	if err != nil {
		return driver.Capabilities{}
	}
	return driver.Capabilities{
		Histograms:        true,
		ExplainAnalyze:    true,
		JSONExplain:       true,
		CoveringIndexInfo: v.AtLeast(11, 0, 0), // index-only scans matured around PG 11
		ParallelQuery:     v.AtLeast(9, 6, 0),
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

func (d *Driver) RunExplain(ctx context.Context, sqlText string) ([]map[string]any, error) {
	if err := validateSafeForExplain(sqlText); err != nil {
		return nil, err
	}
	rows, err := d.db.QueryContext(ctx, "EXPLAIN "+sqlText)
	if err != nil {
		return nil, fmt.Errorf("-- EXPLAIN failed: %s", err.Error())
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			continue
		}
		out = append(out, map[string]any{"QUERY PLAN": line})
	}
	return out, rows.Err()
}

func (d *Driver) RunExplainAnalyze(ctx context.Context, sqlText string) (string, error) {
	if err := validateSafeForExplain(sqlText); err != nil {
		return "", err
	}
	rows, err := d.db.QueryContext(ctx, "EXPLAIN (ANALYZE, BUFFERS, FORMAT TEXT) "+sqlText)
	if err != nil {
		return "", fmt.Errorf("-- EXPLAIN failed: %s", err.Error())
	}
	defer rows.Close()

	var b strings.Builder
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("-- EXPLAIN failed: %s", err.Error())
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

// normalizePgAccessType maps Postgres EXPLAIN node-type text (lowercased) to
// the spec's access-type enum, grounded on yogisyahroni query_analyzer.go's
// node-type switch (Seq Scan / Index Scan / Index Only Scan / Bitmap ...).
var normalizePgAccessType = []struct {
	contains string
	access   report.AccessType
}{
	{"result", report.AccessConstRow},
	{"index only scan", report.AccessCoveringIndexLookup},
	{"index scan", report.AccessIndexLookup},
	{"bitmap heap scan", report.AccessIndexRangeScan},
	{"bitmap index scan", report.AccessIndexRangeScan},
	{"seq scan", report.AccessTableScan},
}

func (d *Driver) NormalizeAccessType(raw string) report.AccessType {
	lower := strings.ToLower(raw)
	for _, m := range normalizePgAccessType {
		if strings.Contains(lower, m.contains) {
			return m.access
		}
	}
	return ""
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
