package render

import (
	"fmt"
	"io"

	"github.com/nethalo/sqlsentinel/internal/report"
)

// MarkdownRenderer produces a report suitable for pasting into a PR
// description or CI job summary, mirroring the teacher's
// internal/output MarkdownRenderer.
type MarkdownRenderer struct {
	w io.Writer
}

func (r *MarkdownRenderer) RenderDiagnostic(d report.DiagnosticReport) {
	res := d.Report.Result
	fmt.Fprintf(r.w, "## sqlsentinel report — Grade %s (%.1f)\n\n", d.Report.Grade, d.Report.CompositeScore)
	fmt.Fprintf(r.w, "- Execution time: `%.2fms`\n", res.Metrics.ExecutionTimeMs)
	fmt.Fprintf(r.w, "- Rows examined: `%.0f`\n", res.Metrics.RowsExamined)
	fmt.Fprintf(r.w, "- Access type: `%s`\n", res.Metrics.PrimaryAccessType)
	fmt.Fprintf(r.w, "- Complexity: `%s` (%s risk)\n", res.Metrics.ComplexityLabel, res.Metrics.ComplexityRisk)
	fmt.Fprintf(r.w, "- Confidence: `%s` (%.2f)\n\n", d.ConfidenceLabel, d.Confidence)

	if len(res.Findings) == 0 {
		fmt.Fprintln(r.w, "No findings.")
		return
	}

	fmt.Fprintln(r.w, "| Severity | Category | Title | Recommendation |")
	fmt.Fprintln(r.w, "|---|---|---|---|")
	for _, f := range sortedFindings(res.Findings) {
		fmt.Fprintf(r.w, "| %s | %s | %s | %s |\n", f.Severity, f.Category, f.Title, f.Recommendation)
	}
}

func (r *MarkdownRenderer) RenderValidationFailure(f *report.ValidationFailureReport) {
	fmt.Fprintf(r.w, "## sqlsentinel: %s\n\n", f.Status)
	fmt.Fprintf(r.w, "- Stage: `%s`\n", f.FailureStage)
	fmt.Fprintf(r.w, "- Detail: %s\n", f.DetailedError)
	if f.TypoSuggestion != "" {
		fmt.Fprintf(r.w, "- Did you mean: `%s`?\n", f.TypoSuggestion)
	}
}
