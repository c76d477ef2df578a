// Package mysqldriver implements driver.Driver for MySQL/Percona/MariaDB/
// Aurora, adapted from the teacher's internal/mysql/connection.go (DSN/TLS
// handling) and internal/mysql/variables.go (version parsing, EXPLAIN
// decoding), generalized from DDL-safety analysis to read-only EXPLAIN
// ANALYZE diagnostics.
package mysqldriver

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"

	mysqldrv "github.com/go-sql-driver/mysql"
	vtparser "vitess.io/vitess/go/vt/sqlparser"

	"github.com/nethalo/sqlsentinel/internal/driver"
	"github.com/nethalo/sqlsentinel/internal/report"
)

// Driver is a MySQL-family driver.Driver. It memoizes the server version
// behind a sync.Once, following spec §5's "read-mostly, single-shot
// initializer" guidance for the driver version cache.
type Driver struct {
	db          *sql.DB
	versionOnce sync.Once
	version     driver.Version
	versionErr  error
}

// Open connects to MySQL using the teacher's DSN/TLS-mode construction,
// generalized only in naming (ConnectionConfig moved to the driver package).
func Open(cfg driver.ConnectionConfig) (*Driver, error) {
	if cfg.TLSMode == "custom" && cfg.TLSCA != "" {
		if err := registerCustomTLS(cfg.TLSCA); err != nil {
			return nil, fmt.Errorf("registering custom TLS config: %w", err)
		}
	}

	dsn := buildDSN(cfg)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening mysql connection: %w", err)
	}

	// Conservative pool: this is a diagnostic tool, not an application
	// connection pool, mirroring the teacher's connection.go sizing.
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging mysql: %w", err)
	}

	return &Driver{db: db}, nil
}

func buildDSN(cfg driver.ConnectionConfig) string {
	c := mysqldrv.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.DBName = cfg.Database
	c.ParseTime = true

	if cfg.Socket != "" {
		c.Net = "unix"
		c.Addr = cfg.Socket
	} else {
		c.Net = "tcp"
		port := cfg.Port
		if port == 0 {
			port = 3306
		}
		c.Addr = fmt.Sprintf("%s:%d", cfg.Host, port)
	}

	switch cfg.TLSMode {
	case "custom":
		c.TLSConfig = "sqlsentinel-custom"
	case "skip-verify":
		c.TLSConfig = "skip-verify"
	case "true", "preferred":
		c.TLSConfig = cfg.TLSMode
	}

	return c.FormatDSN()
}

func registerCustomTLS(caPath string) error {
	caCert, err := os.ReadFile(caPath)
	if err != nil {
		return fmt.Errorf("reading CA cert: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return fmt.Errorf("failed to parse CA cert %s", caPath)
	}
	return mysqldrv.RegisterTLSConfig("sqlsentinel-custom", &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12})
}

func (d *Driver) Name() string   { return "mysql" }
func (d *Driver) DB() *sql.DB    { return d.db }

// SupportsAnalyze reports whether EXPLAIN ANALYZE is available, which
// requires MySQL >= 8.0.18 (spec §4.6).
func (d *Driver) SupportsAnalyze() bool {
	v, err := d.GetVersion(context.Background())
	if err != nil {
		return false
	}
	return v.Flavor != "mariadb" && v.AtLeast(8, 0, 18)
}

// GetVersion is memoized via sync.Once: the first caller pays the query
// cost, every later caller (including concurrent ones) reads the cached
// result, matching spec §5's "lazily populated, read-mostly" guidance.
func (d *Driver) GetVersion(ctx context.Context) (driver.Version, error) {
	d.versionOnce.Do(func() {
		var raw string
		err := d.db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&raw)
		if err != nil {
			d.versionErr = fmt.Errorf("querying version: %w", err)
			return
		}
		d.version, d.versionErr = parseVersion(raw)
	})
	return d.version, d.versionErr
}

var versionRe = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)`)

func parseVersion(raw string) (driver.Version, error) {
	v := driver.Version{Raw: raw}
	matches := versionRe.FindStringSubmatch(raw)
	if len(matches) < 4 {
		return v, fmt.Errorf("could not parse mysql version: %s", raw)
	}
	v.Major, _ = strconv.Atoi(matches[1])
	v.Minor, _ = strconv.Atoi(matches[2])
	v.Patch, _ = strconv.Atoi(matches[3])

	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "percona xtradb cluster"):
		v.Flavor = "percona-xtradb-cluster"
	case strings.Contains(lower, "percona"):
		v.Flavor = "percona"
	case strings.Contains(lower, "mariadb"):
		v.Flavor = "mariadb"
	default:
		v.Flavor = "mysql"
	}
	return v, nil
}

// Capabilities derives the spec §4.6 capability map from the memoized
// version: EXPLAIN ANALYZE needs >=8.0.18, histograms need >=8.0.0.
func (d *Driver) Capabilities(ctx context.Context) driver.Capabilities {
	v, err := d.GetVersion(ctx)
	if err != nil {
		return driver.Capabilities{}
	}
	return driver.Capabilities{
		Histograms:        v.Flavor != "mariadb" && v.AtLeast(8, 0, 0),
		ExplainAnalyze:    v.Flavor != "mariadb" && v.AtLeast(8, 0, 18),
		JSONExplain:       true,
		CoveringIndexInfo: true,
		ParallelQuery:     false,
	}
}

var safeExplainPrefixes = []string{"SELECT ", "WITH ", "(SELECT "}

func validateSafeForExplain(sqlText string) error {
	upper := strings.ToUpper(strings.TrimSpace(sqlText))
	ok := false
	for _, p := range safeExplainPrefixes {
		if strings.HasPrefix(upper, p) {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("sql statement not safe for EXPLAIN: must be SELECT/WITH")
	}
	if strings.Contains(sqlText, ";") {
		return fmt.Errorf("sql statement contains semicolon: statement chaining not allowed")
	}
	// Defense-in-depth: confirm vitess can parse the statement as a read form,
	// the same double-check the teacher's own parser package performs before
	// trusting a statement's shape (internal/parser/sql.go).
	if _, err := vtparser.Parse(sqlText); err != nil {
		return fmt.Errorf("sql statement failed parser validation: %w", err)
	}
	return nil
}

// RunExplain runs tabular EXPLAIN and returns each row as a column->value map.
func (d *Driver) RunExplain(ctx context.Context, sqlText string) ([]map[string]any, error) {
	if err := validateSafeForExplain(sqlText); err != nil {
		return nil, err
	}
	rows, err := d.db.QueryContext(ctx, "EXPLAIN "+sqlText)
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
			} else {
				row[col] = nil
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// RunExplainAnalyze runs EXPLAIN ANALYZE (text/tree form) when supported,
// falling back to EXPLAIN FORMAT=TREE for servers < 8.0.18 (spec §4.6).
func (d *Driver) RunExplainAnalyze(ctx context.Context, sqlText string) (string, error) {
	if err := validateSafeForExplain(sqlText); err != nil {
		return "", err
	}

	stmt := "EXPLAIN ANALYZE " + sqlText
	if !d.SupportsAnalyze() {
		stmt = "EXPLAIN FORMAT=TREE " + sqlText
	}

	rows, err := d.db.QueryContext(ctx, stmt)
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
	_, err := d.db.ExecContext(ctx, "ANALYZE TABLE "+escapeIdentifier(table))
	return err
}

func (d *Driver) GetColumnStats(ctx context.Context, table, column string) (driver.ColumnStats, error) {
	var distinct sql.NullInt64
	query := fmt.Sprintf("SELECT COUNT(DISTINCT %s) FROM %s", escapeIdentifier(column), escapeIdentifier(table))
	if err := d.db.QueryRowContext(ctx, query).Scan(&distinct); err != nil {
		return driver.ColumnStats{}, fmt.Errorf("querying column stats: %w", err)
	}
	return driver.ColumnStats{DistinctValues: distinct.Int64}, nil
}

func escapeIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// normalizeAccessTypeTable maps MySQL EXPLAIN access-type dialect strings to
// the spec's normalized enum, listed best (const) to worst (table scan).
var normalizeAccessTypeTable = map[string]report.AccessType{
	"system":          report.AccessConstRow,
	"const":           report.AccessConstRow,
	"eq_ref":          report.AccessSingleRowLookup,
	"ref":             report.AccessIndexLookup,
	"fulltext":        report.AccessFulltextIndex,
	"ref_or_null":     report.AccessIndexLookup,
	"index_merge":     report.AccessIndexRangeScan,
	"unique_subquery": report.AccessSingleRowLookup,
	"index_subquery":  report.AccessIndexLookup,
	"range":           report.AccessIndexRangeScan,
	"index":           report.AccessIndexScan,
	"all":             report.AccessTableScan,
}

// NormalizeAccessType maps MySQL's access-type column (lowercased) to the
// spec's enum (spec §4.6).
func (d *Driver) NormalizeAccessType(raw string) report.AccessType {
	if at, ok := normalizeAccessTypeTable[strings.ToLower(raw)]; ok {
		return at
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
