// Package planparser turns MySQL's tree-format EXPLAIN ANALYZE / FORMAT=TREE
// text (and the text emitted by the other drivers' RunExplainAnalyze) into a
// report.PlanNode tree via line folding + a stack-based indentation build
// (spec §4.8). The access-type prefix table follows the teacher's static
// keyed-table idiom from internal/analyzer/ddl_matrix.go; the walk itself is
// grounded on other_examples' yogisyahroni query_analyzer.go plan traversal.
package planparser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nethalo/sqlsentinel/internal/report"
)

var reNodeStart = regexp.MustCompile(`^(\s*)->\s*(.*)$`)

// accessTypePrefixes is ordered longest/most-specific first, per spec §4.8:
// "single-row covering index lookup" before "covering index lookup" before
// "index lookup", etc. Matching is starts-with on the lowercased operation.
var accessTypePrefixes = []struct {
	prefix string
	access report.AccessType
}{
	{"single-row covering index lookup", report.AccessSingleRowLookup},
	{"single-row index lookup", report.AccessSingleRowLookup},
	{"covering index lookup", report.AccessCoveringIndexLookup},
	{"index lookup", report.AccessIndexLookup},
	{"table scan", report.AccessTableScan},
	{"index range scan", report.AccessIndexRangeScan},
	{"index scan", report.AccessIndexScan},
	{"full-text index", report.AccessFulltextIndex},
	{"constant row", report.AccessConstRow},
	{"zero rows", report.AccessZeroRowConst},
}

// controlFlowLabels carry no access type — they're structural nodes, not I/O.
var controlFlowLabels = []string{
	"nested loop", "sort", "filter", "limit", "materialize",
	"stream results", "group", "hash join", "hash",
}

var (
	reCostRows   = regexp.MustCompile(`\(cost=([0-9.e+]+)\s+rows=([0-9.e+]+)\)`)
	reActual     = regexp.MustCompile(`\(actual time=([0-9.]+)\.\.([0-9.]+)\s+rows=([0-9.e+]+)\s+loops=([0-9.e+]+)\)`)
	reNeverExec  = regexp.MustCompile(`(?i)never executed`)
	reTableName  = regexp.MustCompile(`(?i)\b(?:scan|lookup|search)\s+on\s+` + "`?" + `([a-zA-Z_][a-zA-Z0-9_$]*)` + "`?")
	reConstTable = regexp.MustCompile(`(?i)Constant row from\s+` + "`?" + `([a-zA-Z_][a-zA-Z0-9_$]*)` + "`?")
	reUsingIndex = regexp.MustCompile(`(?i)\busing\s+` + "`?" + `([a-zA-Z_][a-zA-Z0-9_$]*)` + "`?")
)

var indexNoiseTokens = map[string]bool{
	"index": true, "temporary": true, "where": true,
}

type rawLine struct {
	indent int
	text   string
}

// Parse builds the root PlanNode from plan text. Returns nil if the text
// contains no node lines at all (e.g. an empty plan).
func Parse(planText string) *report.PlanNode {
	lines := foldLines(planText)
	if len(lines) == 0 {
		return nil
	}

	nodes := make([]*report.PlanNode, len(lines))
	for i, l := range lines {
		nodes[i] = parseLine(l)
	}

	return buildTree(nodes, lines)
}

// foldLines splits on newlines; a new node begins at `^\s*->`; any line not
// starting with `->` is a continuation of the current node, appended with a
// single space (spec §4.8 step 1).
func foldLines(planText string) []rawLine {
	var out []rawLine
	for _, line := range strings.Split(planText, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if m := reNodeStart.FindStringSubmatch(line); m != nil {
			out = append(out, rawLine{indent: len(m[1]), text: strings.TrimSpace(m[2])})
			continue
		}
		if len(out) == 0 {
			// Leading non-node preamble (e.g. a header line some drivers
			// emit) is dropped — it carries no plan structure.
			continue
		}
		out[len(out)-1].text += " " + strings.TrimSpace(line)
	}
	return out
}

func parseLine(l rawLine) *report.PlanNode {
	n := &report.PlanNode{RawLine: l.text, Indent: l.indent}

	n.NeverExecuted = reNeverExec.MatchString(l.text)

	n.Operation = extractOperation(l.text)

	if m := reCostRows.FindStringSubmatch(l.text); len(m) == 3 {
		if c, err := parseMaybeScientific(m[1]); err == nil {
			n.EstimatedCost = &c
		}
		if r, err := parseMaybeScientific(m[2]); err == nil {
			n.EstimatedRows = &r
		}
	}

	if m := reActual.FindStringSubmatch(l.text); len(m) == 5 {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			n.ActualTimeStart = &v
		}
		if v, err := strconv.ParseFloat(m[2], 64); err == nil {
			n.ActualTimeEnd = &v
		}
		if v, err := parseMaybeScientific(m[3]); err == nil {
			n.ActualRows = &v
		}
		if v, err := parseMaybeScientific(m[4]); err == nil {
			n.Loops = &v
		}
	}

	if m := reConstTable.FindStringSubmatch(l.text); len(m) == 2 {
		n.Table = m[1]
	} else if m := reTableName.FindStringSubmatch(l.text); len(m) == 2 {
		n.Table = m[1]
	}

	if m := reUsingIndex.FindStringSubmatch(l.text); len(m) == 2 {
		if !indexNoiseTokens[strings.ToLower(m[1])] {
			n.Index = m[1]
		}
	}

	n.AccessType = classifyAccessType(l.text)

	return n
}

func parseMaybeScientific(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// extractOperation returns the substring before "(cost=", "(actual", or
// "never executed", trimmed (spec §4.8 step 2).
func extractOperation(text string) string {
	cut := len(text)
	for _, marker := range []string{"(cost=", "(actual", "never executed"} {
		if idx := strings.Index(strings.ToLower(text), marker); idx >= 0 && idx < cut {
			cut = idx
		}
	}
	return strings.TrimSpace(text[:cut])
}

// classifyAccessType matches the operation text against the priority-
// ordered prefix list; "Zero rows" maps to zero_row_const and "Constant row"
// to const_row per spec §4.8 edge cases. Unknown/control-flow operations
// (nested loop, sort, filter, ...) produce an empty access type.
func classifyAccessType(text string) report.AccessType {
	lower := strings.ToLower(text)
	for _, p := range accessTypePrefixes {
		if strings.HasPrefix(lower, p.prefix) {
			return p.access
		}
	}
	for _, label := range controlFlowLabels {
		if strings.Contains(lower, label) {
			return ""
		}
	}
	return ""
}

// buildTree is the stack-based tree build of spec §4.8 step 3: for each
// parsed entry, pop until top.indent < currentIndent, attach as child of the
// new top, push the new node. A single top-level node is returned as the
// root; several top-level nodes all become children of a synthetic root.
func buildTree(nodes []*report.PlanNode, lines []rawLine) *report.PlanNode {
	type frame struct {
		indent int
		node   *report.PlanNode
	}
	var stack []frame
	var roots []*report.PlanNode

	for i, n := range nodes {
		indent := lines[i].indent
		for len(stack) > 0 && stack[len(stack)-1].indent >= indent {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, n)
		} else {
			parent := stack[len(stack)-1].node
			parent.Children = append(parent.Children, n)
		}
		stack = append(stack, frame{indent: indent, node: n})
	}

	if len(roots) == 0 {
		return nil
	}
	if len(roots) == 1 {
		return roots[0]
	}
	// Multiple top-level nodes (e.g. a plan whose root line itself starts
	// with "->"): synthesize a container root so callers always get one tree.
	synthetic := &report.PlanNode{Operation: "Plan", Indent: -1, Children: roots}
	return synthetic
}
