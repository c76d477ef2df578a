package render

import (
	"encoding/json"
	"io"

	"github.com/nethalo/sqlsentinel/internal/report"
)

// JSONRenderer emits the spec §6 toArray() serialization shape.
type JSONRenderer struct {
	w io.Writer
}

type diagnosticEnvelope struct {
	Mode            report.AnalysisMode   `json:"mode"`
	Result          report.Result         `json:"result"`
	Grade           string                `json:"grade"`
	Passed          bool                  `json:"passed"`
	Summary         string                `json:"summary"`
	CompositeScore  float64               `json:"composite_score"`
	Recommendations []string              `json:"recommendations"`
	Scalability     report.ScalabilityProjection `json:"scalability"`
	AnalyzedAt      string                `json:"analyzed_at"`
	Diagnostic      *diagnosticSubObject  `json:"diagnostic,omitempty"`
}

type diagnosticSubObject struct {
	ID               string           `json:"id"`
	Findings         []report.Finding `json:"findings"`
	FindingCounts    map[string]int   `json:"finding_counts"`
	WorstSeverity    string           `json:"worst_severity"`
	AnalyzerOutputs  map[string]any   `json:"analyzer_outputs"`
	Confidence       float64          `json:"confidence"`
	ConfidenceLabel  string           `json:"confidence_label"`
	AdjustedGrade    string           `json:"adjusted_grade"`
	AdjustedScore    float64          `json:"adjusted_score"`
	ConsistencyIssues []string        `json:"consistency_issues,omitempty"`
}

func (r *JSONRenderer) RenderDiagnostic(d report.DiagnosticReport) {
	env := diagnosticEnvelope{
		Mode:            d.Report.Mode,
		Result:          d.Report.Result,
		Grade:           d.Report.Grade,
		Passed:          d.Report.Passed,
		Summary:         d.Report.Grade + " — " + string(d.Report.Result.Metrics.PrimaryAccessType),
		CompositeScore:  d.Report.CompositeScore,
		Recommendations: d.Report.Recommendations,
		Scalability:     d.Report.Scalability,
		AnalyzedAt:      d.Report.AnalyzedAt.Format("2006-01-02T15:04:05Z07:00"),
		Diagnostic: &diagnosticSubObject{
			ID:                d.ID,
			Findings:          d.Report.Result.Findings,
			FindingCounts:     d.FindingCounts(),
			WorstSeverity:     d.WorstSeverity().String(),
			AnalyzerOutputs:   d.AnalyzerOutputs,
			Confidence:        d.Confidence,
			ConfidenceLabel:   d.ConfidenceLabel,
			AdjustedGrade:     d.AdjustedGrade,
			AdjustedScore:     d.AdjustedScore,
			ConsistencyIssues: d.ConsistencyIssues,
		},
	}

	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(env)
}

func (r *JSONRenderer) RenderValidationFailure(f *report.ValidationFailureReport) {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(f)
}
