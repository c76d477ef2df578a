package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/nethalo/sqlsentinel/internal/driver"
	"github.com/nethalo/sqlsentinel/internal/explain"
	"github.com/nethalo/sqlsentinel/internal/planparser"
	"github.com/nethalo/sqlsentinel/internal/report"
)

// defaultHypotheticalEnvs is the spec §4.12 default environment allowlist:
// hypothetical indexes mutate schema, however briefly, so they never run
// against anything but local/testing by default.
var defaultHypotheticalEnvs = map[string]bool{"local": true, "testing": true}

// Improvement classifies how much a hypothetical index helped.
type Improvement string

const (
	ImprovementSignificant Improvement = "significant"
	ImprovementModerate    Improvement = "moderate"
	ImprovementMarginal    Improvement = "marginal"
	ImprovementNone        Improvement = "none"
)

// SimulationResult is one hypothetical-index trial.
type SimulationResult struct {
	DDL              string
	DropDDL          string
	BeforeAccessType report.AccessType
	AfterAccessType  report.AccessType
	BeforeRows       float64
	AfterRows        float64
	Improvement      Improvement
	Validated        bool
	Error            string
}

// HypotheticalIndexOutput is the full set of trial results plus the winner.
type HypotheticalIndexOutput struct {
	Skipped            bool
	SkipReason         string
	Simulations        []SimulationResult
	BestRecommendation string
}

var reIndexDDL = regexp.MustCompile("(?i)CREATE\\s+INDEX\\s+`?([a-zA-Z_][a-zA-Z0-9_]*)`?\\s+ON\\s+`?([a-zA-Z_][a-zA-Z0-9_]*)`?")

// HypotheticalIndex executes each proposed index against a real DDL
// executor, re-runs EXPLAIN, and always drops the index afterward — even on
// error — before returning (spec §4.12). Gated to environments in
// allowedEnvs (defaults to {local, testing} when allowedEnvs is nil).
func HypotheticalIndex(ctx context.Context, c Context, d driver.Driver, environment string, allowedEnvs map[string]bool, proposals []IndexProposal, maxSimulations int) (HypotheticalIndexOutput, []report.Finding) {
	if allowedEnvs == nil {
		allowedEnvs = defaultHypotheticalEnvs
	}
	if !allowedEnvs[environment] {
		return HypotheticalIndexOutput{Skipped: true, SkipReason: fmt.Sprintf("environment %q is not in the simulation allowlist", environment)}, nil
	}
	if d == nil || d.DDLExecutor() == nil {
		return HypotheticalIndexOutput{Skipped: true, SkipReason: "no DDL executor available"}, nil
	}

	if maxSimulations <= 0 || maxSimulations > len(proposals) {
		maxSimulations = len(proposals)
	}

	var out HypotheticalIndexOutput
	var findings []report.Finding
	bestImprovementRank := -1

	for i := 0; i < maxSimulations; i++ {
		p := proposals[i]
		sim := runSimulation(ctx, c, d, p)
		out.Simulations = append(out.Simulations, sim)

		rank := improvementRank(sim.Improvement)
		if sim.Validated && rank > bestImprovementRank {
			bestImprovementRank = rank
			out.BestRecommendation = sim.DDL
		}

		if f := findingFor(sim); f != nil {
			findings = append(findings, *f)
		}
	}

	return out, findings
}

func runSimulation(ctx context.Context, c Context, d driver.Driver, p IndexProposal) SimulationResult {
	sim := SimulationResult{DDL: p.DDL}

	indexName, tableName := parseIndexDDL(p.DDL)
	sim.DropDDL = fmt.Sprintf("DROP INDEX %s ON %s", indexName, tableName)

	before := explain.Execute(ctx, d, c.SQL)
	if before.Ok {
		root := planparser.Parse(before.PlanText)
		if root != nil {
			sim.BeforeAccessType, sim.BeforeRows = worstNode(root)
		}
	}

	executor := d.DDLExecutor()
	createErr := executor.Execute(ctx, p.DDL)

	// Always drop, even if create failed (no-op in that case) or the
	// re-explain below fails — scoped cleanup is unconditional.
	defer func() {
		_ = executor.Execute(ctx, sim.DropDDL)
	}()

	if createErr != nil {
		sim.Error = createErr.Error()
		sim.Improvement = ImprovementNone
		return sim
	}

	after := explain.Execute(ctx, d, c.SQL)
	if !after.Ok {
		sim.Error = "re-explain failed after index creation"
		sim.Improvement = ImprovementNone
		return sim
	}
	root := planparser.Parse(after.PlanText)
	if root != nil {
		sim.AfterAccessType, sim.AfterRows = worstNode(root)
	}

	sim.Improvement, sim.Validated = classifyImprovement(sim)
	return sim
}

func worstNode(root *report.PlanNode) (report.AccessType, float64) {
	var worst report.AccessType
	worstSeverity := -1
	var rows float64
	for _, n := range root.Flatten() {
		if n.AccessType.Severity() > worstSeverity {
			worstSeverity = n.AccessType.Severity()
			worst = n.AccessType
		}
		rows += n.RowsProcessed()
	}
	return worst, rows
}

// classifyImprovement: significant if access-type severity dropped,
// moderate if rows reduced >50%, marginal if >10% and <=50%, else none.
// validated is true only when the access-type severity improved.
func classifyImprovement(sim SimulationResult) (Improvement, bool) {
	validated := sim.AfterAccessType.Severity() >= 0 && sim.AfterAccessType.Severity() < sim.BeforeAccessType.Severity()
	if validated {
		return ImprovementSignificant, true
	}
	if sim.BeforeRows <= 0 {
		return ImprovementNone, false
	}
	reduction := (sim.BeforeRows - sim.AfterRows) / sim.BeforeRows
	switch {
	case reduction > 0.5:
		return ImprovementModerate, false
	case reduction > 0.1:
		return ImprovementMarginal, false
	default:
		return ImprovementNone, false
	}
}

func improvementRank(i Improvement) int {
	switch i {
	case ImprovementSignificant:
		return 3
	case ImprovementModerate:
		return 2
	case ImprovementMarginal:
		return 1
	default:
		return 0
	}
}

func findingFor(sim SimulationResult) *report.Finding {
	switch sim.Improvement {
	case ImprovementSignificant:
		return &report.Finding{
			Severity:       report.SeverityWarning,
			Category:       "hypothetical_index",
			Title:          "Hypothetical index yields significant improvement",
			Description:    fmt.Sprintf("Access type improved from %s to %s when simulated.", sim.BeforeAccessType, sim.AfterAccessType),
			Recommendation: sim.DDL,
		}
	case ImprovementModerate:
		return &report.Finding{
			Severity:       report.SeverityOptimization,
			Category:       "hypothetical_index",
			Title:          "Hypothetical index yields moderate improvement",
			Description:    "Simulated index reduced rows processed by more than half.",
			Recommendation: sim.DDL,
		}
	case ImprovementMarginal:
		return &report.Finding{
			Severity:       report.SeverityInfo,
			Category:       "hypothetical_index",
			Title:          "Hypothetical index yields marginal improvement",
			Description:    "Simulated index reduced rows processed modestly.",
			Recommendation: sim.DDL,
		}
	default:
		return nil
	}
}

func parseIndexDDL(ddl string) (indexName, tableName string) {
	m := reIndexDDL.FindStringSubmatch(ddl)
	if len(m) == 3 {
		return strings.Trim(m[1], "`"), strings.Trim(m[2], "`")
	}
	return "", ""
}
