// Package scoring is the ScoringEngine (spec §4.10): combines five 0-100
// sub-scores into a weighted composite and a letter grade. Grounded on the
// teacher's internal/analyzer thresholds-as-config idiom (severity cutoffs
// driven by a struct of configurable numbers rather than hardcoded ifs).
package scoring

import "github.com/nethalo/sqlsentinel/internal/report"

// Weights are the five ScoringEngine component weights. They are used as
// configured and never normalized or validated to sum to 1.0 — see
// DESIGN.md Open Question 1.
type Weights struct {
	ExecutionTime  float64
	ScanEfficiency float64
	IndexQuality   float64
	JoinEfficiency float64
	Scalability    float64
}

// DefaultWeights are the spec §4.10 defaults.
func DefaultWeights() Weights {
	return Weights{
		ExecutionTime:  0.30,
		ScanEfficiency: 0.25,
		IndexQuality:   0.20,
		JoinEfficiency: 0.15,
		Scalability:    0.10,
	}
}

// GradeThresholds maps a minimum composite score to a letter grade, checked
// in descending order.
type GradeThresholds struct {
	A, B, C, D float64
}

// DefaultGradeThresholds are the spec §4.10 defaults.
func DefaultGradeThresholds() GradeThresholds {
	return GradeThresholds{A: 90, B: 75, C: 50, D: 25}
}

// Engine scores metrics into a report.ScoreBreakdown.
type Engine struct {
	Weights    Weights
	Thresholds GradeThresholds
}

// New builds an Engine with the spec defaults.
func New() Engine {
	return Engine{Weights: DefaultWeights(), Thresholds: DefaultGradeThresholds()}
}

// Score computes every sub-score, the weighted composite, the context
// override, and the letter grade (spec §4.10).
func (e Engine) Score(m report.Metrics) report.ScoreBreakdown {
	b := report.ScoreBreakdown{
		ExecutionTime:  scoreExecutionTime(m.ExecutionTimeMs),
		ScanEfficiency: scoreScanEfficiency(selectivity(m)),
		IndexQuality:   scoreIndexQuality(m),
		JoinEfficiency: scoreJoinEfficiency(m),
		Scalability:    scoreScalability(m),
	}

	b.Composite = e.Weights.ExecutionTime*b.ExecutionTime +
		e.Weights.ScanEfficiency*b.ScanEfficiency +
		e.Weights.IndexQuality*b.IndexQuality +
		e.Weights.JoinEfficiency*b.JoinEfficiency +
		e.Weights.Scalability*b.Scalability

	if b.Composite < 90 && m.HasEarlyTermination && m.HasCoveringIndex && !m.HasFilesort && m.ExecutionTimeMs < 10 {
		b.ContextOverride = true
		if b.Composite < 95 {
			b.Composite = 95
		}
	}

	b.Grade = e.grade(b.Composite)
	return b
}

func (e Engine) grade(composite float64) string {
	switch {
	case composite >= e.Thresholds.A:
		return "A"
	case composite >= e.Thresholds.B:
		return "B"
	case composite >= e.Thresholds.C:
		return "C"
	case composite >= e.Thresholds.D:
		return "D"
	default:
		return "F"
	}
}

func selectivity(m report.Metrics) float64 {
	if m.RowsReturned <= 0 {
		return m.RowsExamined
	}
	return m.RowsExamined / m.RowsReturned
}

// lerp linearly interpolates y between (x0,y0) and (x1,y1) at x, clamped to
// the segment's endpoints.
func lerp(x, x0, x1, y0, y1 float64) float64 {
	if x1 == x0 {
		return y0
	}
	t := (x - x0) / (x1 - x0)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return y0 + t*(y1-y0)
}

func scoreExecutionTime(ms float64) float64 {
	switch {
	case ms < 1:
		return 100
	case ms < 10:
		return lerp(ms, 1, 10, 100, 90)
	case ms < 100:
		return lerp(ms, 10, 100, 90, 70)
	case ms < 1000:
		return lerp(ms, 100, 1000, 70, 30)
	case ms < 10000:
		return lerp(ms, 1000, 10000, 30, 0)
	default:
		return 0
	}
}

func scoreScanEfficiency(r float64) float64 {
	switch {
	case r <= 1:
		return 100
	case r <= 2:
		return 95
	case r <= 10:
		return lerp(r, 2, 10, 100, 80)
	case r <= 100:
		return lerp(r, 10, 100, 80, 50)
	case r <= 1000:
		return lerp(r, 100, 1000, 50, 20)
	case r <= 100000:
		return lerp(r, 1000, 100000, 20, 0)
	default:
		return 0
	}
}

func scoreIndexQuality(m report.Metrics) float64 {
	score := 100.0
	if m.HasTableScan {
		score -= 40
	}
	if !m.IsIndexBacked {
		score -= 30
	}
	if m.HasIndexMerge {
		score -= 20
	}
	if !m.HasCoveringIndex && !m.HasTableScan {
		score -= 10
	}
	if score < 0 {
		score = 0
	}
	return score
}

func scoreJoinEfficiency(m report.Metrics) float64 {
	depth := m.NestedLoopDepth
	var score float64
	switch {
	case depth <= 2:
		score = 100
	case depth == 3:
		score = 80
	default:
		score = 60 - 5*float64(depth)
		if score < 20 {
			score = 20
		}
	}

	switch {
	case m.FanoutFactor > 1e4:
		score -= 30
	case m.FanoutFactor > 1e3:
		score -= 20
	case m.FanoutFactor > 1e2:
		score -= 10
	}
	if m.HasWeedout {
		score -= 15
	}
	if m.HasTempTable {
		score -= 10
	}
	if score < 0 {
		score = 0
	}
	return score
}

func scoreScalability(m report.Metrics) float64 {
	var score float64
	switch m.Complexity {
	case report.ComplexityConstant, report.ComplexityLogarithmic:
		score = 100
	case report.ComplexityLogRange:
		score = 80
	case report.ComplexityLinear:
		score = 50
	case report.ComplexityLinearithmic:
		score = 30
	case report.ComplexityQuadratic:
		score = 10
	default:
		score = 50
	}
	if m.HasEarlyTermination {
		score += 20
	}
	if score > 100 {
		score = 100
	}
	return score
}
