package analyzer

import (
	"fmt"

	"github.com/nethalo/sqlsentinel/internal/baseline"
	"github.com/nethalo/sqlsentinel/internal/config"
	"github.com/nethalo/sqlsentinel/internal/report"
)

// RegressionOutput compares the current run against the most recent stored
// baseline for the same normalized query shape.
type RegressionOutput struct {
	HasBaseline    bool
	BaselineMs     float64
	CurrentMs      float64
	PercentDelta   float64
	Regressed      bool
}

// RegressionBaseline compares metrics against store's most recent snapshot
// for queryHash = stable-hash(normalized sql) and reports when the delta
// exceeds both a percent and an absolute threshold, suppressing noise below
// the minimum-measurable floor (spec §4.12).
func RegressionBaseline(c Context, store *baseline.Store, sql string, cfg config.RegressionConfig) (RegressionOutput, []report.Finding) {
	hash := baseline.QueryHash(sql)
	prev, ok, err := store.Load(hash)
	out := RegressionOutput{CurrentMs: c.Metrics.ExecutionTimeMs}
	if err != nil || !ok {
		return out, nil
	}

	out.HasBaseline = true
	out.BaselineMs = prevExecutionMs(prev)
	if out.BaselineMs < cfg.MinimumMeasurableMs {
		return out, nil
	}

	delta := out.CurrentMs - out.BaselineMs
	out.PercentDelta = delta / out.BaselineMs

	if out.PercentDelta <= cfg.TimeWarningDelta || delta <= cfg.NoiseFloorMs {
		return out, nil
	}

	out.Regressed = true
	return out, []report.Finding{{
		Severity:       report.SeverityWarning,
		Category:       "regression",
		Title:          "Execution time regression",
		Description:    fmt.Sprintf("Execution time increased from %.2fms to %.2fms (%.0f%%) since the last baseline.", out.BaselineMs, out.CurrentMs, out.PercentDelta*100),
		Recommendation: "Compare the current plan against the baseline plan to find the changed access path.",
		Metadata:       map[string]any{"baseline_ms": out.BaselineMs, "current_ms": out.CurrentMs},
	}}
}

func prevExecutionMs(entry report.BaselineEntry) float64 {
	return entry.Snapshot["execution_time_ms"]
}
