// Package report defines the data-transfer objects produced by one
// diagnose() run: plan nodes, metrics, findings, and the three possible
// top-level outcomes (Report, DiagnosticReport, ValidationFailureReport).
package report

import "time"

// AccessType tags how a plan node locates its rows. Ordering below is
// ascending severity; Severity() returns the rank used by MetricsExtractor
// to pick the bottleneck across a plan.
type AccessType string

const (
	AccessZeroRowConst       AccessType = "zero_row_const"
	AccessConstRow           AccessType = "const_row"
	AccessSingleRowLookup    AccessType = "single_row_lookup"
	AccessCoveringIndexLookup AccessType = "covering_index_lookup"
	AccessFulltextIndex      AccessType = "fulltext_index"
	AccessIndexLookup        AccessType = "index_lookup"
	AccessIndexRangeScan     AccessType = "index_range_scan"
	AccessIndexScan          AccessType = "index_scan"
	AccessTableScan          AccessType = "table_scan"
)

var accessSeverity = map[AccessType]int{
	AccessZeroRowConst:        0,
	AccessConstRow:            1,
	AccessSingleRowLookup:     2,
	AccessCoveringIndexLookup: 3,
	AccessFulltextIndex:       3,
	AccessIndexLookup:         4,
	AccessIndexRangeScan:      5,
	AccessIndexScan:           6,
	AccessTableScan:           7,
}

// Severity returns the ascending-severity rank of the access type, or -1 if
// empty/unknown (an empty access type never outranks a known one).
func (a AccessType) Severity() int {
	if a == "" {
		return -1
	}
	if s, ok := accessSeverity[a]; ok {
		return s
	}
	return -1
}

// IsIO reports whether a node with this access type counts as an I/O
// operation — the read set from spec §3, excluding zero_row_const which is
// resolved at plan time and never counted as I/O.
func (a AccessType) IsIO() bool {
	switch a {
	case AccessTableScan, AccessIndexLookup, AccessIndexRangeScan,
		AccessCoveringIndexLookup, AccessSingleRowLookup, AccessIndexScan,
		AccessFulltextIndex, AccessConstRow:
		return true
	default:
		return false
	}
}

// IndexBacked reports whether the access type counts toward is_index_backed.
func (a AccessType) IndexBacked() bool {
	switch a {
	case AccessConstRow, AccessSingleRowLookup, AccessCoveringIndexLookup,
		AccessFulltextIndex, AccessIndexLookup, AccessIndexRangeScan, AccessIndexScan:
		return true
	default:
		return false
	}
}

// PlanNode is one node of the parsed execution-plan tree (spec §3/§4.8).
type PlanNode struct {
	Operation       string
	RawLine         string
	Indent          int
	ActualTimeStart *float64
	ActualTimeEnd   *float64
	ActualRows      *float64
	Loops           *float64
	EstimatedCost   *float64
	EstimatedRows   *float64
	Table           string
	Index           string
	AccessType      AccessType
	NeverExecuted   bool
	Children        []*PlanNode
}

// RowsProcessed is actualRows*loops when both are present, else 0, per spec §3.
func (n *PlanNode) RowsProcessed() float64 {
	if n.ActualRows == nil || n.Loops == nil {
		return 0
	}
	return *n.ActualRows * *n.Loops
}

// Flatten returns every node in the tree in pre-order (node then children).
func (n *PlanNode) Flatten() []*PlanNode {
	if n == nil {
		return nil
	}
	out := []*PlanNode{n}
	for _, c := range n.Children {
		out = append(out, c.Flatten()...)
	}
	return out
}

// ComplexityClass classifies the asymptotic row-growth shape of a plan.
type ComplexityClass int

const (
	ComplexityConstant ComplexityClass = iota
	ComplexityLogarithmic
	ComplexityLogRange
	ComplexityLinear
	ComplexityLinearithmic
	ComplexityQuadratic
)

type complexityInfo struct {
	label             string
	risk              string
	scalabilityFactor float64
}

var complexityTable = map[ComplexityClass]complexityInfo{
	ComplexityConstant:     {"Constant", "LOW", 1.0},
	ComplexityLogarithmic:  {"Logarithmic", "LOW", 1.2},
	ComplexityLogRange:     {"LogRange", "LOW", 1.8},
	ComplexityLinear:       {"Linear", "MEDIUM", 4.0},
	ComplexityLinearithmic: {"Linearithmic", "MEDIUM", 6.0},
	ComplexityQuadratic:    {"Quadratic", "HIGH", 20.0},
}

func (c ComplexityClass) Label() string             { return complexityTable[c].label }
func (c ComplexityClass) Risk() string               { return complexityTable[c].risk }
func (c ComplexityClass) ScalabilityFactor() float64 { return complexityTable[c].scalabilityFactor }
func (c ComplexityClass) Ordinal() int               { return int(c) }

// Severity is the severity level of a Finding.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityOptimization
	SeverityWarning
	SeverityCritical
)

type severityInfo struct {
	label    string
	weight   float64
	priority int
	color    string
	icon     string
}

var severityTable = map[Severity]severityInfo{
	SeverityCritical:     {"Critical", 4.0, 1, "#FF4040", "✗"},
	SeverityWarning:      {"Warning", 2.0, 2, "#FFB800", "⚠"},
	SeverityOptimization: {"Optimization", 1.0, 3, "#00BFFF", "↑"},
	SeverityInfo:         {"Info", 0.5, 4, "#AAAAAA", "ℹ"},
}

func (s Severity) String() string  { return severityTable[s].label }
func (s Severity) Weight() float64 { return severityTable[s].weight }
func (s Severity) Priority() int   { return severityTable[s].priority }
func (s Severity) Color() string   { return severityTable[s].color }
func (s Severity) Icon() string    { return severityTable[s].icon }

// Finding is one rule/analyzer-produced observation. Immutable once produced.
type Finding struct {
	Severity       Severity
	Category       string
	Title          string
	Description    string
	Recommendation string
	Metadata       map[string]any
}

// DedupKey identifies findings that are consistency-violation duplicates
// when two findings share it (spec §3/§4.14 rule 4).
func (f Finding) DedupKey() string {
	return f.Category + "|" + f.Title + "|" + f.Recommendation
}

// Metrics is the flat, stable-keyed metrics bag produced by MetricsExtractor
// (spec §4.9). Modeled as a struct per spec §9 Design Note 1, not a map.
type Metrics struct {
	ExecutionTimeMs      float64
	RowsExamined         float64
	RowsReturned         float64
	NestedLoopDepth      int
	MaxLoops             float64
	MaxCost              float64
	HasTempTable         bool
	HasWeedout           bool
	HasFilesort          bool
	HasTableScan         bool
	HasIndexMerge        bool
	HasCoveringIndex     bool
	HasDiskTemp          bool
	HasMaterialization   bool
	HasEarlyTermination  bool
	IsIndexBacked        bool
	IsZeroRowConst       bool
	IsIntentionalScan    bool
	PrimaryAccessType    AccessType
	MySQLAccessType      string
	Complexity           ComplexityClass
	ComplexityLabel      string
	ComplexityRisk       string
	FanoutFactor         float64
	JoinCount            int
	SelectivityRatio     float64
	IndexesUsed          []string
	TablesAccessed       []string
	NodeCount            int
	PerTableEstimates    map[string]TableEstimate
	ParsingValid         bool
}

// TableEstimate is the estimated-vs-actual row snapshot for one table,
// keeping the most expensive instance seen across the plan (spec §4.9).
type TableEstimate struct {
	EstimatedRows float64
	ActualRows    float64
	Loops         float64
}

// Actual returns the fanout-adjusted actual row count (actualRows*loops),
// consistent with spec §3's rowsProcessed definition. See DESIGN.md Open
// Question 2 for why this, rather than raw ActualRows, is used uniformly by
// StaleStats/CardinalityDriftAnalyzer.
func (t TableEstimate) Actual() float64 {
	if t.Loops == 0 {
		return t.ActualRows
	}
	return t.ActualRows * t.Loops
}

// ScoreBreakdown is the five weighted ScoringEngine components (spec §4.10).
type ScoreBreakdown struct {
	ExecutionTime  float64
	ScanEfficiency float64
	IndexQuality   float64
	JoinEfficiency float64
	Scalability    float64
	Composite      float64
	Grade          string
	ContextOverride bool
}

// ScalabilityProjection is ScalabilityEstimator's output (spec §4.12).
type ScalabilityProjection struct {
	Risk          string
	ProjectedAt   map[int64]float64
	LimitSensitive bool
}

// Result bundles inputs and pipeline intermediates for one diagnose() run
// (spec §3).
type Result struct {
	SQL           string
	Driver        string
	PlanText      string
	ExplainRows   []map[string]any
	Metrics       Metrics
	Scores        ScoreBreakdown
	Findings      []Finding
	ExecutionTime time.Duration
}

// AnalysisMode distinguishes how the report was produced (spec §3).
type AnalysisMode string

const (
	ModeSQL      AnalysisMode = "sql"
	ModeBuilder  AnalysisMode = "builder"
	ModeProfiler AnalysisMode = "profiler"
)

// Report adds the grading/summary layer over a Result (spec §3).
type Report struct {
	Result          Result
	Grade           string
	Passed          bool
	CompositeScore  float64
	Recommendations []string
	Scalability     ScalabilityProjection
	AnalyzedAt      time.Time
	Mode            AnalysisMode
}

// DiagnosticReport wraps a Report with per-analyzer outputs and a
// confidence-adjusted grade/score (spec §3/§4.15).
type DiagnosticReport struct {
	ID               string
	Report           Report
	AnalyzerOutputs  map[string]any
	Confidence       float64
	ConfidenceLabel  string
	AdjustedGrade    string
	AdjustedScore    float64
	ConsistencyIssues []string
}

// FindingCounts returns the number of findings per severity, for serialization.
func (d DiagnosticReport) FindingCounts() map[string]int {
	counts := map[string]int{}
	for _, f := range d.Report.Result.Findings {
		counts[f.Severity.String()]++
	}
	return counts
}

// WorstSeverity returns the highest-priority (lowest Priority() value)
// severity among the report's findings, or -1 if there are none.
func (d DiagnosticReport) WorstSeverity() Severity {
	worst := Severity(-1)
	best := 1 << 30
	for _, f := range d.Report.Result.Findings {
		if f.Severity.Priority() < best {
			best = f.Severity.Priority()
			worst = f.Severity
		}
	}
	return worst
}

// ValidationFailureReport replaces a performance report whenever validation
// or EXPLAIN execution aborts the pipeline (spec §3/§7).
type ValidationFailureReport struct {
	Status          string
	FailureStage    string
	DetailedError   string
	SQLState        string
	Line            int
	Recommendations []string
	TypoSuggestion  string
	MissingTable    string
	MissingColumn   string
	Database        string
}

func (v *ValidationFailureReport) Error() string {
	return v.Status + ": " + v.DetailedError
}

// BaselineEntry is one persisted metric snapshot (spec §3/§4.13).
type BaselineEntry struct {
	QueryHash string
	Timestamp time.Time
	Snapshot  map[string]float64
	Grade     string
	Composite float64
}
