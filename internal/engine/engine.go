// Package engine is the Engine orchestrator (spec §4.15): the single place
// that wires sanitizer, safety guard, validator pipeline, driver, plan
// parser, metrics extractor, scoring engine, rule registry, the nine deep
// analyzers, baseline store, and consistency validator into one
// diagnose()/analyzeSql() pair. Grounded on the teacher's cmd/plan.go
// top-to-bottom call sequence (connect, validate, explain, render), lifted
// out of the CLI layer into a reusable, stateless orchestrator so it can
// also back future non-CLI collaborators (profiler/interceptor adapters).
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nethalo/sqlsentinel/internal/analyzer"
	"github.com/nethalo/sqlsentinel/internal/baseline"
	"github.com/nethalo/sqlsentinel/internal/config"
	"github.com/nethalo/sqlsentinel/internal/consistency"
	"github.com/nethalo/sqlsentinel/internal/driver"
	"github.com/nethalo/sqlsentinel/internal/explain"
	"github.com/nethalo/sqlsentinel/internal/lexer"
	"github.com/nethalo/sqlsentinel/internal/metrics"
	"github.com/nethalo/sqlsentinel/internal/planparser"
	"github.com/nethalo/sqlsentinel/internal/report"
	"github.com/nethalo/sqlsentinel/internal/rules"
	"github.com/nethalo/sqlsentinel/internal/safety"
	"github.com/nethalo/sqlsentinel/internal/sanitize"
	"github.com/nethalo/sqlsentinel/internal/schema"
	"github.com/nethalo/sqlsentinel/internal/scoring"
	"github.com/nethalo/sqlsentinel/internal/validator"
)

// Engine holds every collaborator one diagnose() run needs. Driver,
// Introspector, and Baseline may be nil; diagnose requires Driver, while
// Introspector/Baseline being nil simply skips schema validation and
// regression tracking respectively. An Engine is stateless once built and
// safe for concurrent use across independent diagnose() calls (spec §5).
type Engine struct {
	Config       config.Config
	Driver       driver.Driver
	Introspector *schema.Introspector
	Baseline     *baseline.Store
	Scoring      scoring.Engine
	Rules        *rules.Registry
	Logger       *zap.Logger
}

// New builds an Engine from cfg and its already-opened collaborators.
func New(cfg config.Config, d driver.Driver, introspector *schema.Introspector, store *baseline.Store, logger *zap.Logger) *Engine {
	return &Engine{
		Config:       cfg,
		Driver:       d,
		Introspector: introspector,
		Baseline:     store,
		Scoring:      scoring.Engine{Weights: cfg.Scoring.Weights, Thresholds: cfg.Scoring.GradeThresholds},
		Rules:        filteredRegistry(cfg.RulesEnabled, cfg.Thresholds),
		Logger:       logger,
	}
}

// filteredRegistry returns every built-in rule when enabled is empty,
// otherwise only the rules whose key appears in enabled, preserving the
// built-in registration order.
func filteredRegistry(enabled []string, thresholds config.ThresholdsConfig) *rules.Registry {
	full := rules.NewRegistry(thresholds)
	if len(enabled) == 0 {
		return full
	}
	allow := map[string]bool{}
	for _, k := range enabled {
		allow[k] = true
	}
	reg := &rules.Registry{}
	for _, r := range full.GetRules() {
		if allow[r.Key] {
			reg.Register(r)
		}
	}
	return reg
}

// Diagnose runs the full pipeline of spec §4.15: sanitize, safety guard,
// validator pipeline, EXPLAIN ANALYZE, plan parse, metrics, scoring, rules,
// the nine deep analyzers, and the consistency validator, returning either a
// DiagnosticReport or the ValidationFailureReport that aborted the run.
func (e *Engine) Diagnose(ctx context.Context, sql, database string) (*report.DiagnosticReport, *report.ValidationFailureReport) {
	start := time.Now()
	clean := sanitize.Sanitize(sql)

	if err := safety.Validate(clean); err != nil {
		return nil, unsafeQueryFailure(err)
	}
	if e.Driver == nil {
		return nil, &report.ValidationFailureReport{
			Status:        "ERROR — No Connection",
			FailureStage:  "Explain",
			DetailedError: "diagnose requires an open driver connection",
		}
	}

	if f := validator.Validate(ctx, clean, database, e.Introspector, e.Driver); f != nil {
		return nil, f
	}

	res := explain.Execute(ctx, e.Driver, clean)
	if !res.Ok {
		return nil, res.Failure
	}

	root := planparser.Parse(res.PlanText)
	m := metrics.Extract(root, res.PlanText)
	m.IsIntentionalScan = lexer.IntentionalFullScan(clean)

	scores := e.Scoring.Score(m)
	ruleFindings := e.Rules.Evaluate(m)

	rep := report.Report{
		Result: report.Result{
			SQL:           clean,
			Driver:        e.Driver.Name(),
			PlanText:      res.PlanText,
			ExplainRows:   res.ExplainRows,
			Metrics:       m,
			Scores:        scores,
			Findings:      ruleFindings,
			ExecutionTime: time.Since(start),
		},
		Grade:          scores.Grade,
		Passed:         scores.Grade != "F",
		CompositeScore: scores.Composite,
		AnalyzedAt:     time.Now(),
		Mode:           report.ModeSQL,
	}

	diag := e.runAnalyzers(ctx, clean, m, root, res.PlanText, &rep)
	diag.ID = uuid.NewString()
	return &diag, nil
}

// AnalyzeSql is the shallow variant of spec §4.15: every stage through rule
// evaluation, but none of the nine deep analyzers.
func (e *Engine) AnalyzeSql(ctx context.Context, sql, database string) (*report.Report, *report.ValidationFailureReport) {
	clean := sanitize.Sanitize(sql)

	if err := safety.Validate(clean); err != nil {
		return nil, unsafeQueryFailure(err)
	}
	if e.Driver == nil {
		return nil, &report.ValidationFailureReport{
			Status:        "ERROR — No Connection",
			FailureStage:  "Explain",
			DetailedError: "analyzeSql requires an open driver connection",
		}
	}

	if f := validator.Validate(ctx, clean, database, e.Introspector, e.Driver); f != nil {
		return nil, f
	}

	res := explain.Execute(ctx, e.Driver, clean)
	if !res.Ok {
		return nil, res.Failure
	}

	root := planparser.Parse(res.PlanText)
	m := metrics.Extract(root, res.PlanText)
	m.IsIntentionalScan = lexer.IntentionalFullScan(clean)

	scores := e.Scoring.Score(m)
	findings := e.Rules.Evaluate(m)

	rep := report.Report{
		Result: report.Result{
			SQL: clean, Driver: e.Driver.Name(), PlanText: res.PlanText,
			ExplainRows: res.ExplainRows, Metrics: m, Scores: scores, Findings: findings,
		},
		Grade:           scores.Grade,
		Passed:          scores.Grade != "F",
		CompositeScore:  scores.Composite,
		Recommendations: collectRecommendations(findings),
		AnalyzedAt:      time.Now(),
		Mode:            report.ModeSQL,
	}
	return &rep, nil
}

func unsafeQueryFailure(err error) *report.ValidationFailureReport {
	return &report.ValidationFailureReport{
		Status:        "ERROR — Unsafe Statement",
		FailureStage:  "Explain",
		DetailedError: err.Error(),
		Recommendations: []string{
			"Only SELECT queries can be analyzed",
		},
	}
}

// runAnalyzers spawns the nine deep analyzers, folds their findings into
// rep, persists a baseline snapshot, runs the consistency validator, and
// assembles the confidence-adjusted DiagnosticReport (spec §4.12/§3).
func (e *Engine) runAnalyzers(ctx context.Context, sql string, m report.Metrics, root *report.PlanNode, planText string, rep *report.Report) report.DiagnosticReport {
	ac := analyzer.Context{SQL: sql, Metrics: m, Plan: root, PlanText: planText}
	outputs := map[string]any{}
	allFindings := append([]report.Finding{}, rep.Result.Findings...)

	drift, driftFindings := analyzer.CardinalityDrift(ac, e.Config.CardinalityDrift)
	outputs["cardinality_drift"] = drift
	allFindings = append(allFindings, driftFindings...)

	ap, apFindings := analyzer.AntiPattern(ac, e.Config.AntiPatterns)
	outputs["anti_pattern"] = ap
	allFindings = append(allFindings, apFindings...)

	idx, idxFindings := analyzer.IndexSynthesis(ac, e.Config.IndexSynthesis)
	outputs["index_synthesis"] = idx
	allFindings = append(allFindings, idxFindings...)

	if e.Config.HypotheticalIndex.Enabled && e.Driver != nil && len(idx.Proposals) > 0 {
		var hypoOut analyzer.HypotheticalIndexOutput
		var hypoFindings []report.Finding
		hypoOut, hypoFindings = analyzer.HypotheticalIndex(ctx, ac, e.Driver, e.Config.Environment,
			e.Config.HypotheticalIndex.AllowedEnvironments, idx.Proposals, e.Config.HypotheticalIndex.MaxSimulations)
		outputs["hypothetical_index"] = hypoOut
		allFindings = append(allFindings, hypoFindings...)
	}

	var regOut analyzer.RegressionOutput
	if e.Config.Regression.Enabled && e.Baseline != nil {
		var regFindings []report.Finding
		regOut, regFindings = analyzer.RegressionBaseline(ac, e.Baseline, sql, e.Config.Regression)
		outputs["regression"] = regOut
		allFindings = append(allFindings, regFindings...)
	}

	conc, concFindings := analyzer.ConcurrencyRisk(ac)
	outputs["concurrency_risk"] = conc
	allFindings = append(allFindings, concFindings...)

	mem, memFindings := analyzer.MemoryPressure(ac, e.Config.MemoryPressure)
	outputs["memory_pressure"] = mem
	allFindings = append(allFindings, memFindings...)

	var caps driver.Capabilities
	var supportsAnalyze bool
	if e.Driver != nil {
		caps = e.Driver.Capabilities(ctx)
		supportsAnalyze = e.Driver.SupportsAnalyze()
	}
	conf, confFindings := analyzer.ConfidenceScorer(ac, drift, caps, supportsAnalyze)
	outputs["confidence"] = conf
	allFindings = append(allFindings, confFindings...)

	scal := analyzer.Scalability(ac)
	outputs["scalability"] = scal
	rep.Scalability = scal

	rep.Result.Findings = allFindings
	rep.Recommendations = collectRecommendations(allFindings)

	if e.Config.Regression.Enabled && e.Baseline != nil {
		hash := baseline.QueryHash(sql)
		_ = e.Baseline.Save(hash, report.BaselineEntry{
			QueryHash: hash,
			Timestamp: rep.AnalyzedAt,
			Snapshot: map[string]float64{
				"execution_time_ms": m.ExecutionTimeMs,
				"rows_examined":     m.RowsExamined,
			},
			Grade:     rep.Grade,
			Composite: rep.CompositeScore,
		})
	}

	hasCritical := false
	for _, f := range allFindings {
		if f.Severity == report.SeverityCritical {
			hasCritical = true
			break
		}
	}
	adjGrade, adjScore := adjustGrade(rep.Grade, rep.CompositeScore, conf.Score, hasCritical)

	violations := consistency.Validate(consistency.Input{
		Metrics:       m,
		Findings:      allFindings,
		IsPlainSelect: safety.IsSelect(sql) && conc.LockScope == analyzer.LockScopeNone,
		LockScope:     string(conc.LockScope),
		Regression:    &consistency.RegressionCheck{HasRegressionFinding: regOut.Regressed, BaselineMs: regOut.BaselineMs},
	})
	consistency.LogViolations(e.Logger, violations)

	return report.DiagnosticReport{
		Report:            *rep,
		AnalyzerOutputs:   outputs,
		Confidence:        conf.Score,
		ConfidenceLabel:   conf.Label,
		AdjustedGrade:     adjGrade,
		AdjustedScore:     adjScore,
		ConsistencyIssues: violations,
	}
}

// collectRecommendations gathers each finding's non-empty recommendation in
// order, once per distinct text.
func collectRecommendations(findings []report.Finding) []string {
	seen := map[string]bool{}
	var out []string
	for _, f := range findings {
		if f.Recommendation == "" || seen[f.Recommendation] {
			continue
		}
		seen[f.Recommendation] = true
		out = append(out, f.Recommendation)
	}
	return out
}

func gradeRank(grade string) int {
	switch grade {
	case "A":
		return 4
	case "B":
		return 3
	case "C":
		return 2
	case "D":
		return 1
	default:
		return 0
	}
}

// adjustGrade applies spec §3's confidence-adjusted caps: a Critical finding
// caps at B/75; confidence < 0.5 caps at C/50; confidence in [0.5, 0.7) caps
// at B/75. Multiple applicable caps combine to the most restrictive grade
// and the lowest score.
func adjustGrade(grade string, composite, confidence float64, hasCritical bool) (string, float64) {
	adjGrade, adjScore := grade, composite
	applyCap := func(capGrade string, capScore float64) {
		if gradeRank(capGrade) < gradeRank(adjGrade) {
			adjGrade = capGrade
		}
		if capScore < adjScore {
			adjScore = capScore
		}
	}

	if hasCritical {
		applyCap("B", 75)
	}
	switch {
	case confidence < 0.5:
		applyCap("C", 50)
	case confidence < 0.7:
		applyCap("B", 75)
	}

	return adjGrade, adjScore
}
