package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/nethalo/sqlsentinel/internal/report"
)

// TextRenderer produces Lip Gloss styled terminal output, generalizing the
// teacher's internal/output TextRenderer box-per-section layout from a
// DDL/DML plan to a query diagnostic report.
type TextRenderer struct {
	w io.Writer
}

func (r *TextRenderer) RenderDiagnostic(d report.DiagnosticReport) {
	width := 64
	res := d.Report.Result

	header := TitleStyle.Render(fmt.Sprintf("sqlsentinel — %s", gradeLabel(d.Report.Grade)))
	summary := []string{
		r.labelValue("Grade:", d.Report.Grade),
		r.labelValue("Composite score:", fmt.Sprintf("%.1f", d.Report.CompositeScore)),
		r.labelValue("Execution time:", fmt.Sprintf("%.2fms", res.Metrics.ExecutionTimeMs)),
		r.labelValue("Rows examined:", fmt.Sprintf("%.0f", res.Metrics.RowsExamined)),
		r.labelValue("Access type:", string(res.Metrics.PrimaryAccessType)),
		r.labelValue("Complexity:", res.Metrics.ComplexityLabel),
		r.labelValue("Confidence:", fmt.Sprintf("%s (%.2f)", d.ConfidenceLabel, d.Confidence)),
	}
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, BoxStyle.Width(width).Render(header+"\n"+strings.Join(summary, "\n")))

	if len(res.Findings) > 0 {
		fmt.Fprintln(r.w, TitleStyle.Render("Findings"))
		for _, f := range sortedFindings(res.Findings) {
			style := severityStyle(f.Severity.Color())
			line := fmt.Sprintf("%s %s — %s", f.Severity.Icon(), style.Render(f.Title), f.Description)
			fmt.Fprintln(r.w, line)
			if f.Recommendation != "" {
				fmt.Fprintln(r.w, MutedText.Render("  → "+f.Recommendation))
			}
		}
	}

	if len(d.ConsistencyIssues) > 0 {
		fmt.Fprintln(r.w, MutedText.Render(fmt.Sprintf("(%d internal consistency notices suppressed — see logs)", len(d.ConsistencyIssues))))
	}
	fmt.Fprintln(r.w)
}

func (r *TextRenderer) RenderValidationFailure(f *report.ValidationFailureReport) {
	fmt.Fprintln(r.w)
	box := BoxStyle.BorderForeground(ColorCritical).Width(64).Render(
		severityStyle("#FF4040").Render(f.Status) + "\n" +
			r.labelValue("Stage:", f.FailureStage) + "\n" +
			r.labelValue("Detail:", f.DetailedError),
	)
	fmt.Fprintln(r.w, box)
	if f.TypoSuggestion != "" {
		fmt.Fprintln(r.w, "Did you mean: "+f.TypoSuggestion+"?")
	}
	for _, rec := range f.Recommendations {
		fmt.Fprintln(r.w, "  - "+rec)
	}
	fmt.Fprintln(r.w)
}

func (r *TextRenderer) labelValue(label, value string) string {
	return LabelStyle.Render(label) + value
}

func gradeLabel(grade string) string {
	return fmt.Sprintf("Grade %s", grade)
}

func sortedFindings(findings []report.Finding) []report.Finding {
	out := make([]report.Finding, len(findings))
	copy(out, findings)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity.Priority() < out[j].Severity.Priority()
	})
	return out
}
