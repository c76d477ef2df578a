package render

import (
	"fmt"
	"io"

	"github.com/nethalo/sqlsentinel/internal/report"
)

// PlainRenderer emits unstyled, grep-friendly text (no lipgloss), mirroring
// the teacher's internal/output PlainRenderer's purpose: CI logs and piping.
type PlainRenderer struct {
	w io.Writer
}

func (r *PlainRenderer) RenderDiagnostic(d report.DiagnosticReport) {
	res := d.Report.Result
	fmt.Fprintf(r.w, "grade=%s composite=%.1f execution_time_ms=%.2f rows_examined=%.0f access_type=%s complexity=%s confidence=%s(%.2f)\n",
		d.Report.Grade, d.Report.CompositeScore, res.Metrics.ExecutionTimeMs, res.Metrics.RowsExamined,
		res.Metrics.PrimaryAccessType, res.Metrics.ComplexityLabel, d.ConfidenceLabel, d.Confidence)

	for _, f := range sortedFindings(res.Findings) {
		fmt.Fprintf(r.w, "[%s] %s: %s (%s)\n", f.Severity, f.Title, f.Description, f.Recommendation)
	}
}

func (r *PlainRenderer) RenderValidationFailure(f *report.ValidationFailureReport) {
	fmt.Fprintf(r.w, "status=%q stage=%q detail=%q\n", f.Status, f.FailureStage, f.DetailedError)
	if f.TypoSuggestion != "" {
		fmt.Fprintf(r.w, "typo_suggestion=%q\n", f.TypoSuggestion)
	}
}
