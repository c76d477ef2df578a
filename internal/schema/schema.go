// Package schema is the SchemaIntrospector (spec §4.4): driver-specific
// lookups over the database's catalog, plus Levenshtein-based typo
// intelligence. Grounded on the teacher's internal/mysql/metadata.go
// information_schema queries (escapeIdentifier, uniform record shape).
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Record is the uniform shape spec §6 requires: every lookup returns objects
// carrying TABLE_NAME and COLUMN_NAME (COLUMN_NAME empty for table-level
// records).
type Record struct {
	TableName  string
	ColumnName string
}

// Dialect selects the catalog-query flavor a given *sql.DB speaks.
type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "pgsql"
	DialectSQLite   Dialect = "sqlite"
)

// Introspector looks up tables/columns for one connection + dialect.
type Introspector struct {
	db      *sql.DB
	dialect Dialect
}

func New(db *sql.DB, dialect Dialect) *Introspector {
	return &Introspector{db: db, dialect: dialect}
}

// TableExists returns the table's record, or nil if it does not exist.
func (in *Introspector) TableExists(ctx context.Context, database, table string) (*Record, error) {
	tables, err := in.ListTables(ctx, database)
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(table)
	for _, r := range tables {
		if strings.ToLower(r.TableName) == lower {
			rec := r
			return &rec, nil
		}
	}
	return nil, nil
}

// ListTables returns every table in the given database/schema.
func (in *Introspector) ListTables(ctx context.Context, database string) ([]Record, error) {
	switch in.dialect {
	case DialectSQLite:
		rows, err := in.db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
		if err != nil {
			return nil, fmt.Errorf("listing sqlite tables: %w", err)
		}
		defer rows.Close()
		var out []Record
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return nil, err
			}
			out = append(out, Record{TableName: name})
		}
		return out, rows.Err()
	case DialectPostgres:
		rows, err := in.db.QueryContext(ctx,
			`SELECT table_name FROM information_schema.tables WHERE table_schema = $1`, schemaOrDefault(database, "public"))
		if err != nil {
			return nil, fmt.Errorf("listing postgres tables: %w", err)
		}
		defer rows.Close()
		var out []Record
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return nil, err
			}
			out = append(out, Record{TableName: name})
		}
		return out, rows.Err()
	default: // MySQL
		rows, err := in.db.QueryContext(ctx,
			`SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = ?`, database)
		if err != nil {
			return nil, fmt.Errorf("listing mysql tables: %w", err)
		}
		defer rows.Close()
		var out []Record
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return nil, err
			}
			out = append(out, Record{TableName: name})
		}
		return out, rows.Err()
	}
}

// ColumnExists returns the column's record, or nil if it does not exist.
func (in *Introspector) ColumnExists(ctx context.Context, database, table, column string) (*Record, error) {
	cols, err := in.ListColumns(ctx, database, table)
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(column)
	for _, r := range cols {
		if strings.ToLower(r.ColumnName) == lower {
			rec := r
			return &rec, nil
		}
	}
	return nil, nil
}

// ListColumns returns every column of the given table.
func (in *Introspector) ListColumns(ctx context.Context, database, table string) ([]Record, error) {
	switch in.dialect {
	case DialectSQLite:
		rows, err := in.db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteSQLiteIdent(table)))
		if err != nil {
			return nil, fmt.Errorf("listing sqlite columns: %w", err)
		}
		defer rows.Close()
		var out []Record
		for rows.Next() {
			var cid int
			var name, ctype string
			var notnull, pk int
			var dflt sql.NullString
			if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
				return nil, err
			}
			out = append(out, Record{TableName: table, ColumnName: name})
		}
		return out, rows.Err()
	case DialectPostgres:
		rows, err := in.db.QueryContext(ctx,
			`SELECT column_name FROM information_schema.columns WHERE table_schema = $1 AND table_name = $2`,
			schemaOrDefault(database, "public"), table)
		if err != nil {
			return nil, fmt.Errorf("listing postgres columns: %w", err)
		}
		defer rows.Close()
		var out []Record
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return nil, err
			}
			out = append(out, Record{TableName: table, ColumnName: name})
		}
		return out, rows.Err()
	default:
		rows, err := in.db.QueryContext(ctx,
			`SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?`,
			database, table)
		if err != nil {
			return nil, fmt.Errorf("listing mysql columns: %w", err)
		}
		defer rows.Close()
		var out []Record
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return nil, err
			}
			out = append(out, Record{TableName: table, ColumnName: name})
		}
		return out, rows.Err()
	}
}

func schemaOrDefault(database, def string) string {
	if database == "" {
		return def
	}
	return database
}

func quoteSQLiteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// keywordTypos is a static map of common SQL keyword misspellings to their
// correct form, consulted ahead of general Levenshtein suggestion (spec
// §4.4: "a static SQL-keyword typo map").
var keywordTypos = map[string]string{
	"SELEC": "SELECT",
	"FORM":  "FROM",
	"WERE":  "WHERE",
	"ORDE":  "ORDER",
	"GROP":  "GROUP",
	"LIMT":  "LIMIT",
}

// KeywordSuggestion returns the corrected keyword for a known misspelling,
// or "" if the input isn't in the static typo map.
func KeywordSuggestion(word string) string {
	return keywordTypos[strings.ToUpper(word)]
}

// Suggest returns the closest candidate to input by case-insensitive
// Levenshtein distance, capped at distance 2, or "" if none qualifies (spec
// §4.4 TypoIntelligence).
func Suggest(input string, candidates []string) string {
	lowerInput := strings.ToLower(input)
	best := ""
	bestDist := 3 // anything >2 is out of range
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(lowerInput, strings.ToLower(c))
		if d <= 2 && d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}
