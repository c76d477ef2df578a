// Package render is the output-formatting layer, generalizing the teacher's
// internal/output format-dispatch (NewRenderer) from DDL/DML plan rendering
// to diagnostic-report rendering across text/plain/markdown/json.
package render

import (
	"io"

	"github.com/nethalo/sqlsentinel/internal/report"
)

// Renderer renders the two possible diagnose() outcomes.
type Renderer interface {
	RenderDiagnostic(r report.DiagnosticReport)
	RenderValidationFailure(f *report.ValidationFailureReport)
}

// New returns a Renderer for the given format name, defaulting to text.
func New(format string, w io.Writer) Renderer {
	switch format {
	case "json":
		return &JSONRenderer{w: w}
	case "markdown":
		return &MarkdownRenderer{w: w}
	case "plain":
		return &PlainRenderer{w: w}
	default:
		return &TextRenderer{w: w}
	}
}
