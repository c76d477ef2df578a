package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/nethalo/sqlsentinel/internal/baseline"
	"github.com/nethalo/sqlsentinel/internal/config"
	"github.com/nethalo/sqlsentinel/internal/driver"
	"github.com/nethalo/sqlsentinel/internal/driver/open"
	"github.com/nethalo/sqlsentinel/internal/engine"
	"github.com/nethalo/sqlsentinel/internal/render"
	"github.com/nethalo/sqlsentinel/internal/report"
	"github.com/nethalo/sqlsentinel/internal/schema"
)

var diagnoseCmd = &cobra.Command{
	Use:          "diagnose [SQL statement]",
	Short:        "Run EXPLAIN ANALYZE against a SELECT and grade the plan",
	SilenceUsage: true,
	Long: `Run EXPLAIN ANALYZE against a SELECT statement and report:
  - Access type per table (index lookup, range scan, table scan, ...)
  - Scan efficiency, join cost, and scalability projection
  - Rule-based findings (full table scan, temp table, deep nested loop, ...)
  - A confidence-adjusted grade`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sqlText, err := getSQLInput(cmd, args)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		connCfg := driver.ConnectionConfig{
			Driver:   cfg.Driver,
			Host:     viper.GetString("host"),
			Port:     viper.GetInt("port"),
			User:     viper.GetString("user"),
			Password: viper.GetString("password"),
			Database: viper.GetString("database"),
			Socket:   viper.GetString("socket"),
			TLSMode:  viper.GetString("tls"),
			TLSCA:    viper.GetString("tls_ca"),
			Path:     viper.GetString("path"),
		}
		if connCfg.Host == "" && connCfg.Socket == "" && connCfg.Path == "" {
			connCfg.Host = "127.0.0.1"
		}
		if connCfg.User == "" {
			connCfg.User = "sqlsentinel"
		}
		if connCfg.Password == "" && connCfg.Driver != "sqlite" {
			connCfg.Password = promptPassword()
		}
		cfg.ConnectionConfig = connCfg

		d, err := open.Open(connCfg)
		if err != nil {
			return fmt.Errorf("connection failed: %w", err)
		}
		defer d.DB().Close()

		dialect := schema.Dialect(cfg.Driver)
		if dialect == "" {
			dialect = schema.DialectMySQL
		}
		introspector := schema.New(d.DB(), dialect)

		store := baseline.New(expandHome(cfg.Regression.StoragePath))

		logger, _ := zap.NewProduction()
		if logger == nil {
			logger = zap.NewNop()
		}
		defer logger.Sync()

		e := engine.New(cfg, d, introspector, store, logger)

		diag, fail := e.Diagnose(context.Background(), sqlText, connCfg.Database)

		format := viper.GetString("format")
		renderer := render.New(format, os.Stdout)
		if fail != nil {
			renderer.RenderValidationFailure(fail)
			return exitForFailure(cfg)
		}
		renderer.RenderDiagnostic(*diag)
		return exitForGrade(cfg, diag.AdjustedGrade, diag.Report.Result.Findings)
	},
}

func init() {
	rootCmd.AddCommand(diagnoseCmd)
	diagnoseCmd.Flags().String("file", "", "read SQL from file instead of argument")
}

// loadConfig builds the typed Config for this invocation: spec §6 defaults,
// overlaid with anything viper resolved from the config file/env/flags (the
// thresholds/anti_patterns/cardinality_drift/index_synthesis/memory_pressure/
// regression sub-keys included), then the driver/environment flags take
// final precedence over whatever the config file set for them.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing configuration: %w", err)
	}
	if d := viper.GetString("driver"); d != "" {
		cfg.Driver = d
	}
	if env := viper.GetString("environment"); env != "" {
		cfg.Environment = env
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// expandHome expands a leading "$HOME" in path, mirroring the shell-style
// paths used in config.Default()'s documented defaults.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "$HOME") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + strings.TrimPrefix(path, "$HOME")
}

// exitForFailure applies the CI exit-code policy (spec §6) for an aborted
// diagnose run: a validation failure exits 1 when either fail_on_warning or
// fail_on_grade_below is configured, and returns nil otherwise.
func exitForFailure(cfg config.Config) error {
	if cfg.CI.FailOnWarning || cfg.CI.FailOnGradeBelow != "" {
		os.Exit(1)
	}
	return nil
}

// exitForGrade applies the CI exit-code policy (spec §6) to a completed
// diagnosis: fail_on_warning exits nonzero on any non-Info finding,
// fail_on_grade_below exits nonzero when the adjusted grade ranks worse than
// the configured floor.
func exitForGrade(cfg config.Config, grade string, findings []report.Finding) error {
	if cfg.CI.FailOnWarning {
		for _, f := range findings {
			if f.Severity != report.SeverityInfo {
				os.Exit(1)
			}
		}
	}
	if cfg.CI.FailOnGradeBelow != "" && gradeWorse(grade, cfg.CI.FailOnGradeBelow) {
		os.Exit(1)
	}
	return nil
}

func gradeWorse(grade, floor string) bool {
	rank := map[string]int{"A": 4, "B": 3, "C": 2, "D": 1, "F": 0}
	gr, ok1 := rank[grade]
	fr, ok2 := rank[floor]
	if !ok1 || !ok2 {
		return false
	}
	return gr < fr
}

// validateSQLFilePath checks if the file path is safe to read: this prevents
// path traversal and reading oversized or sensitive system files.
func validateSQLFilePath(filePath string) error {
	cleanPath := filepath.Clean(filePath)

	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return fmt.Errorf("invalid file path: %w", err)
	}

	fileInfo, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}
	if !fileInfo.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", absPath)
	}

	const maxFileSize = 10 * 1024 * 1024 // 10 MB
	if fileInfo.Size() > maxFileSize {
		return fmt.Errorf("file too large (>10MB): %s - this may not be a SQL file", absPath)
	}

	sensitivePaths := []string{"/etc/", "/sys/", "/proc/", "/dev/"}
	for _, sensitive := range sensitivePaths {
		if strings.HasPrefix(absPath, sensitive) {
			fmt.Fprintf(os.Stderr, "warning: reading from system path %s\n", absPath)
			break
		}
	}

	return nil
}

func getSQLInput(cmd *cobra.Command, args []string) (string, error) {
	filePath, _ := cmd.Flags().GetString("file")

	if filePath != "" {
		if err := validateSQLFilePath(filePath); err != nil {
			return "", fmt.Errorf("file validation failed: %w", err)
		}
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("could not read file %s: %w", filePath, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if len(args) > 0 {
		return strings.TrimSpace(args[0]), nil
	}

	return "", fmt.Errorf("provide a SQL statement as argument or use --file flag")
}
