package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nethalo/sqlsentinel/internal/config"
	"github.com/nethalo/sqlsentinel/internal/lexer"
	"github.com/nethalo/sqlsentinel/internal/report"
)

// IndexProposal is one composite-index DDL candidate.
type IndexProposal struct {
	Table     string
	Columns   []string // WHERE/JOIN columns first, then ORDER BY columns
	DDL       string
	Rationale string
	Overlaps  []string // DDL of other proposals on the same table with the same leading column
}

// IndexSynthesisOutput is the ranked set of proposed composite indexes.
type IndexSynthesisOutput struct {
	Proposals []IndexProposal
}

// IndexSynthesis derives composite-index proposals: WHERE/JOIN columns
// (sorted by name) first, then ORDER BY columns. WHERE columns are not split
// by operator, so equality and range predicates are not told apart.
func IndexSynthesis(c Context, cfg config.IndexSynthesisConfig) (IndexSynthesisOutput, []report.Finding) {
	if !c.Metrics.HasTableScan && c.Metrics.IsIndexBacked {
		return IndexSynthesisOutput{}, nil
	}

	tables := lexer.Tables(c.SQL)
	if len(tables) == 0 {
		return IndexSynthesisOutput{}, nil
	}

	equality := columnSet(lexer.WhereColumns(c.SQL), lexer.JoinOnColumns(c.SQL))
	rangeCols := columnSet(lexer.OrderByColumns(c.SQL))

	var proposals []IndexProposal
	for _, table := range tables {
		cols := columnsForTable(table, equality, rangeCols)
		if len(cols) == 0 {
			continue
		}
		if cfg.MaxColumnsPerIndex > 0 && len(cols) > cfg.MaxColumnsPerIndex {
			cols = cols[:cfg.MaxColumnsPerIndex]
		}
		ddl := fmt.Sprintf("CREATE INDEX idx_%s_%s ON %s (%s)",
			table, strings.Join(sanitizeColNames(cols), "_"), table, strings.Join(cols, ", "))
		proposals = append(proposals, IndexProposal{
			Table:     table,
			Columns:   cols,
			DDL:       ddl,
			Rationale: "WHERE/JOIN columns ordered before ORDER BY columns.",
		})
		if cfg.MaxRecommendations > 0 && len(proposals) >= cfg.MaxRecommendations {
			break
		}
	}

	annotateOverlaps(proposals)

	var findings []report.Finding
	for _, p := range proposals {
		findings = append(findings, report.Finding{
			Severity:       report.SeverityOptimization,
			Category:       "index_synthesis",
			Title:          fmt.Sprintf("Candidate composite index on %s", p.Table),
			Description:    p.Rationale,
			Recommendation: p.DDL,
			Metadata:       map[string]any{"table": p.Table, "columns": p.Columns},
		})
	}

	return IndexSynthesisOutput{Proposals: proposals}, findings
}

func columnSet(lists ...[]string) []string {
	seen := map[string]bool{}
	var out []string
	for _, list := range lists {
		for _, c := range list {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	sort.Strings(out)
	return out
}

// columnsForTable filters equality/range column lists down to the bare
// column name for the given table (stripping a `table.` qualifier when
// present, dropping references that are qualified for a different table),
// returning equality columns first then range columns, deduplicated.
func columnsForTable(table string, equality, rangeCols []string) []string {
	var eq, rg []string
	add := func(dst *[]string, cols []string) {
		for _, c := range cols {
			parts := strings.SplitN(c, ".", 2)
			if len(parts) == 2 {
				if !strings.EqualFold(parts[0], table) {
					continue
				}
				*dst = append(*dst, parts[1])
			} else {
				*dst = append(*dst, c)
			}
		}
	}
	add(&eq, equality)
	add(&rg, rangeCols)

	seen := map[string]bool{}
	var out []string
	for _, c := range append(eq, rg...) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

func sanitizeColNames(cols []string) []string {
	out := make([]string, len(cols))
	copy(out, cols)
	return out
}

func annotateOverlaps(proposals []IndexProposal) {
	for i := range proposals {
		for j := range proposals {
			if i == j || proposals[i].Table != proposals[j].Table {
				continue
			}
			if proposals[i].Columns[0] == proposals[j].Columns[0] {
				proposals[i].Overlaps = append(proposals[i].Overlaps, proposals[j].DDL)
			}
		}
	}
}
