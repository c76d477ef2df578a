// Package driver defines the Driver contract (spec §4.6): EXPLAIN/EXPLAIN
// ANALYZE execution, version/capability probing, and index DDL execution
// for hypothetical-index simulation. Concrete engines live in the
// mysqldriver/pgdriver/sqlitedriver subpackages; this package holds the
// shared interface and connection config, generalizing the teacher's
// single-engine internal/mysql/connection.go into a multi-engine factory.
package driver

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nethalo/sqlsentinel/internal/report"
)

// Capabilities describes what EXPLAIN-adjacent features a driver/version
// combination supports (spec §4.6).
type Capabilities struct {
	Histograms        bool
	ExplainAnalyze    bool
	JSONExplain       bool
	CoveringIndexInfo bool
	ParallelQuery     bool
}

// Version is a parsed server version, memoized per driver instance.
type Version struct {
	Raw    string
	Major  int
	Minor  int
	Patch  int
	Flavor string
}

func (v Version) AtLeast(major, minor, patch int) bool {
	if v.Major != major {
		return v.Major > major
	}
	if v.Minor != minor {
		return v.Minor > minor
	}
	return v.Patch >= patch
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d (%s)", v.Major, v.Minor, v.Patch, v.Flavor)
}

// ColumnStats is the summary GetColumnStats returns for staleness checks.
type ColumnStats struct {
	DistinctValues int64
	NullFraction   float64
}

// DDLExecutor runs index-creation/drop DDL for hypothetical-index
// simulation (spec §4.12). Injectable for testability per spec §6.
type DDLExecutor interface {
	Execute(ctx context.Context, ddl string) error
}

// Driver is the per-engine contract every diagnose() run depends on.
type Driver interface {
	Name() string
	RunExplain(ctx context.Context, sql string) ([]map[string]any, error)
	RunExplainAnalyze(ctx context.Context, sql string) (string, error)
	SupportsAnalyze() bool
	GetVersion(ctx context.Context) (Version, error)
	NormalizeAccessType(raw string) report.AccessType
	NormalizeJoinType(raw string) string
	Capabilities(ctx context.Context) Capabilities
	RunAnalyzeTable(ctx context.Context, table string) error
	GetColumnStats(ctx context.Context, table, column string) (ColumnStats, error)
	DDLExecutor() DDLExecutor
	DB() *sql.DB
}

// ConnectionConfig generalizes the teacher's mysql-only ConnectionConfig
// (internal/mysql/connection.go) with a Driver discriminator so a single
// config value selects among mysql/pgsql/sqlite.
type ConnectionConfig struct {
	Driver   string // "mysql", "pgsql", "sqlite"
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Socket   string
	TLSMode  string
	TLSCA    string
	// Path is the SQLite file path (or ":memory:"); ignored for other drivers.
	Path string
}
