// Package validator is the Validator Pipeline (spec §4.5): an ordered set of
// schema/syntax checks that run before EXPLAIN, so a missing table reports
// as "table not found" rather than a raw driver error. Grounded on the
// teacher's topology.Detect()-then-classify staging pattern: probe, then
// decide, never guess.
package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/nethalo/sqlsentinel/internal/driver"
	"github.com/nethalo/sqlsentinel/internal/explain"
	"github.com/nethalo/sqlsentinel/internal/lexer"
	"github.com/nethalo/sqlsentinel/internal/report"
	"github.com/nethalo/sqlsentinel/internal/schema"
)

// Stage identifies which pipeline stage produced a ValidationFailureReport.
const (
	StageTableExistence  = "TableExistence"
	StageColumnExistence = "ColumnExistence"
	StageJoinValidity    = "JoinValidity"
	StageSyntax          = "Syntax"
)

// Validate runs the four ordered validation stages. The first failure aborts
// and returns a ValidationFailureReport; nil means every stage passed.
func Validate(ctx context.Context, sql, database string, introspector *schema.Introspector, d driver.Driver) *report.ValidationFailureReport {
	tables := lexer.Tables(sql)

	if f := validateTableExistence(ctx, tables, database, introspector); f != nil {
		return f
	}
	if f := validateColumnExistence(ctx, sql, database, introspector); f != nil {
		return f
	}
	if f := validateJoinValidity(sql, tables); f != nil {
		return f
	}
	if f := validateSyntax(ctx, sql, d); f != nil {
		return f
	}

	return nil
}

// validateSyntax runs a plain EXPLAIN (no ANALYZE, no execution) purely to
// surface parse/semantic errors cheaply, ahead of the ExplainExecutor's own
// EXPLAIN ANALYZE stage that builds the timed plan tree.
func validateSyntax(ctx context.Context, sql string, d driver.Driver) *report.ValidationFailureReport {
	if _, err := d.RunExplain(ctx, sql); err != nil {
		f := explain.Decode(err.Error())
		f.FailureStage = StageSyntax
		return f
	}
	return nil
}

func validateTableExistence(ctx context.Context, tables []string, database string, introspector *schema.Introspector) *report.ValidationFailureReport {
	if introspector == nil {
		return nil
	}
	allTables, err := introspector.ListTables(ctx, database)
	if err != nil {
		return nil // best-effort: a catalog error here falls through to syntax validation
	}
	known := map[string]bool{}
	for _, t := range allTables {
		known[strings.ToLower(t.TableName)] = true
	}

	var names []string
	for _, t := range allTables {
		names = append(names, t.TableName)
	}

	for _, t := range tables {
		base := t
		if idx := strings.LastIndex(t, "."); idx >= 0 {
			base = t[idx+1:]
		}
		if known[strings.ToLower(base)] {
			continue
		}
		suggestion := schema.Suggest(base, names)
		return &report.ValidationFailureReport{
			Status:        "ERROR — Table Not Found",
			FailureStage:  StageTableExistence,
			DetailedError: fmt.Sprintf("table %q does not exist in database %q", base, database),
			TypoSuggestion: suggestion,
			MissingTable:  base,
			Database:      database,
			Recommendations: []string{
				"Check the table name spelling and the target database.",
			},
		}
	}
	return nil
}

func validateColumnExistence(ctx context.Context, sql, database string, introspector *schema.Introspector) *report.ValidationFailureReport {
	if introspector == nil {
		return nil
	}
	aliasMap := lexer.AliasMap(sql)
	selectAliases := map[string]bool{}
	for _, a := range lexer.SelectAliases(sql) {
		selectAliases[strings.ToLower(a)] = true
	}

	aliasToTable := map[string]string{}
	for _, a := range aliasMap {
		if a.Table != "" {
			aliasToTable[strings.ToLower(a.Alias)] = a.Table
		} else {
			aliasToTable[strings.ToLower(a.Alias)] = "" // derived table, skip
		}
	}

	columns := append(lexer.WhereColumns(sql), lexer.JoinOnColumns(sql)...)
	for _, col := range columns {
		parts := strings.SplitN(col, ".", 2)
		if len(parts) != 2 {
			continue // unqualified column: can't resolve to a single table, skip
		}
		alias, column := parts[0], parts[1]
		if selectAliases[strings.ToLower(column)] {
			continue
		}
		table, known := aliasToTable[strings.ToLower(alias)]
		if !known {
			table = alias // not an alias of a FROM/JOIN table; assume it's a base table name
		}
		if table == "" {
			continue // derived-subquery alias; its columns aren't in the schema catalog
		}

		rec, err := introspector.ColumnExists(ctx, database, table, column)
		if err != nil || rec != nil {
			continue
		}

		cols, _ := introspector.ListColumns(ctx, database, table)
		var names []string
		for _, c := range cols {
			names = append(names, c.ColumnName)
		}
		return &report.ValidationFailureReport{
			Status:         "ERROR — Column Not Found",
			FailureStage:   StageColumnExistence,
			DetailedError:  fmt.Sprintf("column %q does not exist on table %q", column, table),
			TypoSuggestion: schema.Suggest(column, names),
			MissingColumn:  column,
			Database:       database,
			Recommendations: []string{
				"Check the column name spelling and qualify it with the correct table/alias.",
			},
		}
	}
	return nil
}

func validateJoinValidity(sql string, tables []string) *report.ValidationFailureReport {
	known := map[string]bool{}
	for _, t := range tables {
		known[strings.ToLower(t)] = true
	}
	for _, a := range lexer.AliasMap(sql) {
		known[strings.ToLower(a.Alias)] = true
	}

	for _, col := range lexer.JoinOnColumns(sql) {
		parts := strings.SplitN(col, ".", 2)
		if len(parts) != 2 {
			continue
		}
		if !known[strings.ToLower(parts[0])] {
			return &report.ValidationFailureReport{
				Status:        "ERROR — Invalid Join",
				FailureStage:  StageJoinValidity,
				DetailedError: fmt.Sprintf("JOIN ON references unknown table/alias %q", parts[0]),
				Recommendations: []string{
					"Ensure every qualifier used in a JOIN ON clause matches a FROM/JOIN table or alias.",
				},
			}
		}
	}
	return nil
}
