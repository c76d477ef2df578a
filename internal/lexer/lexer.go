// Package lexer is a regex-based, read-only SQL utility: it extracts tables,
// aliases, columns, and a handful of structural signals without building an
// AST. Grounded on the teacher's internal/parser/sql.go regex-extraction
// style (package-scope compiled regexes, best-effort matching). Never
// throws; every extractor degrades to an empty result on non-matches, per
// spec §4.3's documented limitation that regex cannot perfectly parse nested
// SQL.
package lexer

import (
	"regexp"
	"strings"
)

var (
	reWhereBlock  = regexp.MustCompile(`(?is)\bWHERE\b(.*?)(?:\bGROUP\s+BY\b|\bORDER\s+BY\b|\bLIMIT\b|\bHAVING\b|$)`)
	reJoinOnBlock = regexp.MustCompile(`(?i)\bON\s+(.+?)(?:\bWHERE\b|\bJOIN\b|\bGROUP\s+BY\b|\bORDER\s+BY\b|\bLIMIT\b|$)`)
	reOrderBy     = regexp.MustCompile(`(?is)\bORDER\s+BY\s+(.+?)(?:\bLIMIT\b|$)`)
	reSelectCols  = regexp.MustCompile(`(?is)\bSELECT\s+(?:DISTINCT\s+)?(.+?)\s+FROM\b`)
	reColumnRef   = regexp.MustCompile(`\b([a-zA-Z_][a-zA-Z0-9_]*)\.([a-zA-Z_][a-zA-Z0-9_]*)\b|\b([a-zA-Z_][a-zA-Z0-9_]*)\s*(?:=|<|>|<=|>=|<>|!=|\bIN\b|\bLIKE\b|\bIS\b|\bBETWEEN\b)`)
	reSelectStar  = regexp.MustCompile(`(?i)\bSELECT\s+(?:DISTINCT\s+)?\*`)
	reLeadingWild = regexp.MustCompile(`(?i)\bLIKE\s+'%`)
	reFuncOnCol   = regexp.MustCompile(`(?i)\b([A-Z_]+)\s*\(\s*([a-zA-Z_][a-zA-Z0-9_.]*)\s*\)\s*(?:=|<|>|<=|>=|<>|!=)`)
	reCorrelated  = regexp.MustCompile(`(?is)\(\s*SELECT\b[^()]*\b(?:WHERE|ON)\b[^()]*?\.\w+\s*=\s*\w+\.\w+[^()]*\)`)
	reSubquery    = regexp.MustCompile(`(?is)\(\s*SELECT\b`)
	reLimit       = regexp.MustCompile(`(?i)\bLIMIT\s+\d+`)
	reExists      = regexp.MustCompile(`(?i)\bEXISTS\s*\(`)
	reGroupBy     = regexp.MustCompile(`(?i)\bGROUP\s+BY\b`)
	reHaving      = regexp.MustCompile(`(?i)\bHAVING\b`)
	reAggFunc     = regexp.MustCompile(`(?i)\b(COUNT|SUM|AVG|MIN|MAX)\s*\(`)
	reOrderKw     = regexp.MustCompile(`(?i)\bORDER\s+BY\b`)
	reOrChain     = regexp.MustCompile(`(?i)\bOR\b`)
)

var (
	reFromTable = regexp.MustCompile(`(?i)\bFROM\s+([a-zA-Z_][a-zA-Z0-9_.]*)\s*(?:(?:AS\s+)?([a-zA-Z_][a-zA-Z0-9_]*))?`)
	reJoinTable = regexp.MustCompile(`(?i)\bJOIN\s+([a-zA-Z_][a-zA-Z0-9_.]*)\s*(?:(?:AS\s+)?([a-zA-Z_][a-zA-Z0-9_]*))?`)
)

// AliasEntry maps an alias to its physical base table name, or "" when the
// alias refers to a derived subquery (spec §4.3).
type AliasEntry struct {
	Alias string
	Table string // "" for derived-subquery aliases
}

// Tables returns every table named in FROM and JOIN clauses (spec §4.3).
func Tables(sql string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range reFromTable.FindAllStringSubmatch(sql, -1) {
		if m[1] != "" && !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	for _, m := range reJoinTable.FindAllStringSubmatch(sql, -1) {
		if m[1] != "" && !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

var reservedNonAlias = map[string]bool{
	"WHERE": true, "ON": true, "GROUP": true, "ORDER": true, "LIMIT": true,
	"HAVING": true, "JOIN": true, "INNER": true, "LEFT": true, "RIGHT": true,
	"FULL": true, "CROSS": true, "OUTER": true, "USING": true,
}

// AliasMap returns the alias → physical-table-name map (spec §4.3). A
// subquery used as a derived table (`FROM (SELECT ...) x`) produces an entry
// with an empty Table.
func AliasMap(sql string) []AliasEntry {
	var out []AliasEntry
	// Derived-table subqueries: `( SELECT ... ) alias`
	reDerived := regexp.MustCompile(`(?is)\(\s*SELECT.*?\)\s*(?:AS\s+)?([a-zA-Z_][a-zA-Z0-9_]*)`)
	derivedAliases := map[string]bool{}
	for _, m := range reDerived.FindAllStringSubmatch(sql, -1) {
		derivedAliases[strings.ToUpper(m[1])] = true
		out = append(out, AliasEntry{Alias: m[1], Table: ""})
	}

	addFrom := func(m []string) {
		if m[1] == "" {
			return
		}
		alias := m[2]
		if alias == "" || reservedNonAlias[strings.ToUpper(alias)] || derivedAliases[strings.ToUpper(alias)] {
			return
		}
		out = append(out, AliasEntry{Alias: alias, Table: m[1]})
	}
	for _, m := range reFromTable.FindAllStringSubmatch(sql, -1) {
		addFrom(m)
	}
	for _, m := range reJoinTable.FindAllStringSubmatch(sql, -1) {
		addFrom(m)
	}
	return out
}

// SelectAliases returns virtual column aliases introduced via `expr AS alias`
// in the SELECT list (spec §4.3).
func SelectAliases(sql string) []string {
	cols := reSelectCols.FindStringSubmatch(sql)
	if len(cols) < 2 {
		return nil
	}
	reAs := regexp.MustCompile(`(?i)\bAS\s+([a-zA-Z_][a-zA-Z0-9_]*)`)
	var out []string
	for _, m := range reAs.FindAllStringSubmatch(cols[1], -1) {
		out = append(out, m[1])
	}
	return out
}

// WhereColumns returns column references found in the WHERE clause.
func WhereColumns(sql string) []string {
	m := reWhereBlock.FindStringSubmatch(sql)
	if len(m) < 2 {
		return nil
	}
	return extractColumnRefs(stripSubqueries(m[1]))
}

// JoinOnColumns returns column references found in JOIN ... ON clauses.
func JoinOnColumns(sql string) []string {
	var out []string
	for _, m := range reJoinOnBlock.FindAllStringSubmatch(sql, -1) {
		out = append(out, extractColumnRefs(m[1])...)
	}
	return out
}

// OrderByColumns returns columns referenced in ORDER BY.
func OrderByColumns(sql string) []string {
	m := reOrderBy.FindStringSubmatch(sql)
	if len(m) < 2 {
		return nil
	}
	var out []string
	for _, part := range strings.Split(m[1], ",") {
		part = strings.TrimSpace(part)
		part = strings.Fields(part)[0]
		out = append(out, strings.TrimSuffix(part, ","))
	}
	return out
}

// SelectColumns returns the column list of the SELECT clause (raw tokens,
// not expression-parsed).
func SelectColumns(sql string) []string {
	m := reSelectCols.FindStringSubmatch(sql)
	if len(m) < 2 {
		return nil
	}
	var out []string
	for _, part := range strings.Split(m[1], ",") {
		out = append(out, strings.TrimSpace(part))
	}
	return out
}

func extractColumnRefs(s string) []string {
	var out []string
	for _, m := range reColumnRef.FindAllStringSubmatch(s, -1) {
		switch {
		case m[2] != "":
			out = append(out, m[1]+"."+m[2])
		case m[3] != "":
			out = append(out, m[3])
		}
	}
	return out
}

func stripSubqueries(s string) string {
	for {
		loc := reSubquery.FindStringIndex(s)
		if loc == nil {
			return s
		}
		depth := 0
		end := -1
		for i := loc[0]; i < len(s); i++ {
			switch s[i] {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					end = i + 1
					break
				}
			}
			if end != -1 {
				break
			}
		}
		if end == -1 {
			return s[:loc[0]]
		}
		s = s[:loc[0]] + s[end:]
	}
}

// HasSelectStar reports whether the SELECT list is `*` or `DISTINCT *`.
func HasSelectStar(sql string) bool { return reSelectStar.MatchString(sql) }

// HasLeadingWildcard reports a LIKE pattern beginning with `%`.
func HasLeadingWildcard(sql string) bool { return reLeadingWild.MatchString(sql) }

// FunctionWrappedColumn reports whether a WHERE predicate wraps a column in
// a function call before comparing it (defeats index usage).
func FunctionWrappedColumn(sql string) bool {
	m := reWhereBlock.FindStringSubmatch(sql)
	if len(m) < 2 {
		return false
	}
	return reFuncOnCol.MatchString(m[1])
}

// HasCorrelatedSubquery reports a subquery whose WHERE/ON references the
// outer query's columns.
func HasCorrelatedSubquery(sql string) bool { return reCorrelated.MatchString(sql) }

// OrChainCount counts OR occurrences in the WHERE clause, excising subqueries
// first so nested statements don't inflate the count.
func OrChainCount(sql string) int {
	m := reWhereBlock.FindStringSubmatch(sql)
	if len(m) < 2 {
		return 0
	}
	clean := stripSubqueries(m[1])
	return len(reOrChain.FindAllString(clean, -1))
}

// HasLimit reports a LIMIT clause.
func HasLimit(sql string) bool { return reLimit.MatchString(sql) }

// HasExists reports an EXISTS(...) predicate.
func HasExists(sql string) bool { return reExists.MatchString(sql) }

// AggregationWithoutGroupBy reports an aggregate function used with no
// GROUP BY (implicit single-group aggregation).
func AggregationWithoutGroupBy(sql string) bool {
	return reAggFunc.MatchString(sql) && !reGroupBy.MatchString(sql)
}

// IntentionalFullScan reports a SELECT with no WHERE/JOIN/GROUP/HAVING/ORDER
// — i.e. deliberately reading a whole table (spec GLOSSARY).
func IntentionalFullScan(sql string) bool {
	upper := strings.ToUpper(sql)
	if !strings.HasPrefix(strings.TrimSpace(upper), "SELECT") {
		return false
	}
	if strings.Contains(upper, "WHERE") || strings.Contains(upper, "JOIN") ||
		reGroupBy.MatchString(sql) || reHaving.MatchString(sql) || reOrderKw.MatchString(sql) {
		return false
	}
	return true
}
