// Package config is the typed configuration surface (spec §6). Grounded on
// the teacher's cmd/root.go viper wiring, generalized from a MySQL-only flat
// flag set to the full spec §6 key space bound through Viper with an
// SQLSENTINEL env prefix.
package config

import (
	"fmt"

	"github.com/nethalo/sqlsentinel/internal/driver"
	"github.com/nethalo/sqlsentinel/internal/scoring"
)

// ScoringConfig mirrors scoring.Weights/GradeThresholds for (de)serialization.
type ScoringConfig struct {
	Weights         scoring.Weights         `mapstructure:"weights"`
	GradeThresholds scoring.GradeThresholds `mapstructure:"grade_thresholds"`
}

// ThresholdsConfig bounds rule trigger points (spec §6).
type ThresholdsConfig struct {
	MaxExecutionTimeMs float64 `mapstructure:"max_execution_time_ms"`
	MaxRowsExamined    float64 `mapstructure:"max_rows_examined"`
	MaxLoops           float64 `mapstructure:"max_loops"`
	MaxCost            float64 `mapstructure:"max_cost"`
	MaxNestedLoopDepth int     `mapstructure:"max_nested_loop_depth"`
}

// ProjectionConfig holds the projection.targets row counts. The Scalability
// analyzer does not read it: it always projects to 1M and 10M rows.
type ProjectionConfig struct {
	Targets []int64 `mapstructure:"targets"`
}

// CardinalityDriftConfig configures CardinalityDriftAnalyzer's thresholds.
type CardinalityDriftConfig struct {
	WarningThreshold  float64 `mapstructure:"warning_threshold"`
	CriticalThreshold float64 `mapstructure:"critical_threshold"`
}

// AntiPatternsConfig configures AntiPatternAnalyzer's thresholds.
type AntiPatternsConfig struct {
	OrChainThreshold         int     `mapstructure:"or_chain_threshold"`
	MissingLimitRowThreshold float64 `mapstructure:"missing_limit_row_threshold"`
}

// IndexSynthesisConfig configures IndexSynthesisAnalyzer.
type IndexSynthesisConfig struct {
	MaxRecommendations int `mapstructure:"max_recommendations"`
	MaxColumnsPerIndex int `mapstructure:"max_columns_per_index"`
}

// MemoryPressureConfig configures MemoryPressureAnalyzer's thresholds.
type MemoryPressureConfig struct {
	HighThresholdBytes     float64 `mapstructure:"high_threshold_bytes"`
	ModerateThresholdBytes float64 `mapstructure:"moderate_threshold_bytes"`
	ConcurrentSessions     int     `mapstructure:"concurrent_sessions"`
}

// RegressionConfig configures RegressionBaselineAnalyzer and BaselineStore.
type RegressionConfig struct {
	StoragePath         string  `mapstructure:"storage_path"`
	MaxHistory          int     `mapstructure:"max_history"`
	ScoreWarningDelta   float64 `mapstructure:"score_warning_delta"`
	ScoreCriticalDelta  float64 `mapstructure:"score_critical_delta"`
	TimeWarningDelta    float64 `mapstructure:"time_warning_delta"`
	TimeCriticalDelta   float64 `mapstructure:"time_critical_delta"`
	NoiseFloorMs        float64 `mapstructure:"noise_floor_ms"`
	MinimumMeasurableMs float64 `mapstructure:"minimum_measurable_ms"`
	Enabled             bool    `mapstructure:"enabled"`
}

// HypotheticalIndexConfig configures HypotheticalIndexAnalyzer.
type HypotheticalIndexConfig struct {
	MaxSimulations      int             `mapstructure:"max_simulations"`
	TimeoutSeconds      int             `mapstructure:"timeout_seconds"`
	AllowedEnvironments map[string]bool `mapstructure:"allowed_environments"`
	Enabled             bool            `mapstructure:"enabled"`
}

// CIConfig configures CLI/CI exit-code behavior.
type CIConfig struct {
	FailOnWarning    bool   `mapstructure:"fail_on_warning"`
	FailOnGradeBelow string `mapstructure:"fail_on_grade_below"`
}

// Config is the complete, typed configuration surface for one sqlsentinel
// invocation (spec §6).
type Config struct {
	Driver            string                  `mapstructure:"driver"`
	Connection        string                  `mapstructure:"connection"`
	ConnectionConfig  driver.ConnectionConfig `mapstructure:"-"`
	Environment       string                  `mapstructure:"environment"`
	RulesEnabled      []string                `mapstructure:"rules_enabled"`
	Scoring           ScoringConfig           `mapstructure:"scoring"`
	Thresholds        ThresholdsConfig        `mapstructure:"thresholds"`
	Projection        ProjectionConfig        `mapstructure:"projection"`
	CardinalityDrift  CardinalityDriftConfig  `mapstructure:"cardinality_drift"`
	AntiPatterns      AntiPatternsConfig      `mapstructure:"anti_patterns"`
	IndexSynthesis    IndexSynthesisConfig    `mapstructure:"index_synthesis"`
	MemoryPressure    MemoryPressureConfig    `mapstructure:"memory_pressure"`
	Regression        RegressionConfig        `mapstructure:"regression"`
	HypotheticalIndex HypotheticalIndexConfig `mapstructure:"hypothetical_index"`
	CI                CIConfig                `mapstructure:"ci"`
}

// Default returns the spec's documented defaults.
func Default() Config {
	return Config{
		Driver:      "mysql",
		Environment: "local",
		Scoring: ScoringConfig{
			Weights:         scoring.DefaultWeights(),
			GradeThresholds: scoring.DefaultGradeThresholds(),
		},
		Thresholds: ThresholdsConfig{
			MaxExecutionTimeMs: 1000,
			MaxRowsExamined:    10000,
			MaxLoops:           10000,
			MaxCost:            100000,
			MaxNestedLoopDepth: 6,
		},
		Projection: ProjectionConfig{Targets: []int64{1_000_000, 10_000_000}},
		CardinalityDrift: CardinalityDriftConfig{
			WarningThreshold:  0.5,
			CriticalThreshold: 0.9,
		},
		AntiPatterns: AntiPatternsConfig{
			OrChainThreshold:         3,
			MissingLimitRowThreshold: 1000,
		},
		IndexSynthesis: IndexSynthesisConfig{
			MaxRecommendations: 3,
			MaxColumnsPerIndex: 4,
		},
		MemoryPressure: MemoryPressureConfig{
			HighThresholdBytes:     256 * 1024 * 1024,
			ModerateThresholdBytes: 64 * 1024 * 1024,
			ConcurrentSessions:     50,
		},
		Regression: RegressionConfig{
			StoragePath:         "$HOME/.sqlsentinel/baselines",
			MaxHistory:          50,
			TimeWarningDelta:    0.25,
			TimeCriticalDelta:   0.5,
			NoiseFloorMs:        5,
			MinimumMeasurableMs: 5,
			Enabled:             true,
		},
		HypotheticalIndex: HypotheticalIndexConfig{
			MaxSimulations:      3,
			TimeoutSeconds:      10,
			AllowedEnvironments: map[string]bool{"local": true, "testing": true},
			Enabled:             false,
		},
		CI: CIConfig{
			FailOnWarning:    false,
			FailOnGradeBelow: "",
		},
	}
}

// Validate checks the invariants the spec calls out explicitly (driver
// enum membership; everything else is accepted as configured, including
// scoring weights that don't sum to 1.0 — see DESIGN.md Open Question 1).
func (c Config) Validate() error {
	switch c.Driver {
	case "mysql", "pgsql", "sqlite":
	default:
		return fmt.Errorf("config: unknown driver %q: must be one of mysql, pgsql, sqlite", c.Driver)
	}
	return nil
}
