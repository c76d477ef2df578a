package analyzer

import "github.com/nethalo/sqlsentinel/internal/report"

var defaultProjectionTargets = []int64{1_000_000, 10_000_000}

// Scalability projects execution time to larger table sizes using the
// complexity class's scalability factor as a growth multiplier, and flags
// whether a LIMIT clause would blunt that growth (spec §4.12).
func Scalability(c Context) report.ScalabilityProjection {
	proj := report.ScalabilityProjection{ProjectedAt: map[int64]float64{}}

	baseline := c.Metrics.RowsExamined
	if baseline <= 0 {
		baseline = 1
	}
	factor := c.Metrics.Complexity.ScalabilityFactor()

	for _, target := range defaultProjectionTargets {
		growth := target / int64(baseline)
		if growth < 1 {
			growth = 1
		}
		projectedMs := c.Metrics.ExecutionTimeMs * factor * float64(growth) / 10
		proj.ProjectedAt[target] = projectedMs
	}

	proj.Risk = c.Metrics.Complexity.Risk()
	proj.LimitSensitive = c.Metrics.HasEarlyTermination

	return proj
}
