package analyzer

import (
	"fmt"

	"github.com/nethalo/sqlsentinel/internal/config"
	"github.com/nethalo/sqlsentinel/internal/report"
)

const assumedRowWidthBytes = 256

// MemoryPressureOutput estimates the per-query and fleet-wide memory
// footprint implied by temp tables, sorts, and joins.
type MemoryPressureOutput struct {
	SortBufferBytes    float64
	JoinBufferBytes    float64
	TempTableBytes     float64
	PerQueryBytes      float64
	FleetBytes         float64 // PerQueryBytes * ConcurrentSessions
}

// MemoryPressure estimates per-query memory from temp-table, sort-buffer,
// and join-buffer signals, then scales by an assumed concurrent-session
// count to flag fleet-wide pressure (spec §4.12).
func MemoryPressure(c Context, cfg config.MemoryPressureConfig) (MemoryPressureOutput, []report.Finding) {
	var out MemoryPressureOutput

	if c.Metrics.HasFilesort {
		out.SortBufferBytes = c.Metrics.RowsReturned * assumedRowWidthBytes
	}
	if c.Metrics.NestedLoopDepth > 0 {
		out.JoinBufferBytes = c.Metrics.FanoutFactor * assumedRowWidthBytes
	}
	if c.Metrics.HasTempTable {
		out.TempTableBytes = c.Metrics.RowsExamined * assumedRowWidthBytes
	}

	out.PerQueryBytes = out.SortBufferBytes + out.JoinBufferBytes + out.TempTableBytes
	out.FleetBytes = out.PerQueryBytes * float64(cfg.ConcurrentSessions)

	var findings []report.Finding
	switch {
	case out.FleetBytes >= cfg.HighThresholdBytes:
		findings = append(findings, report.Finding{
			Severity:       report.SeverityCritical,
			Category:       "memory_pressure",
			Title:          "High per-query memory footprint",
			Description:    fmt.Sprintf("Estimated working-set memory for this query is %.1fMB; at %d concurrent sessions that is %.1fMB.", out.PerQueryBytes/1024/1024, cfg.ConcurrentSessions, out.FleetBytes/1024/1024),
			Recommendation: "Reduce the rows processed via a supporting index, or cap the result set before sorting/joining.",
		})
	case out.FleetBytes >= cfg.ModerateThresholdBytes:
		findings = append(findings, report.Finding{
			Severity:       report.SeverityOptimization,
			Category:       "memory_pressure",
			Title:          "Elevated per-query memory footprint",
			Description:    fmt.Sprintf("Estimated working-set memory for this query is %.1fMB.", out.PerQueryBytes/1024/1024),
			Recommendation: "Consider an index to avoid materializing a temp table or sort buffer.",
		})
	}

	return out, findings
}
