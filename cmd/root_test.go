package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestInitConfig_FileNotFound(t *testing.T) {
	origHome := os.Getenv("HOME")
	defer os.Setenv("HOME", origHome)

	tmpDir := t.TempDir()
	os.Setenv("HOME", tmpDir)

	viper.Reset()
	cfgFile = ""

	// Should not error even if config doesn't exist; defaults still apply.
	initConfig()
}

func TestInitConfig_WithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".sqlsentinel.yaml")

	configContent := `connections:
  default:
    driver: pgsql
    host: testhost
    port: 5433
    user: testuser
    database: testdb
defaults:
  format: json
  environment: testing
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	viper.Reset()
	cfgFile = configPath

	initConfig()

	if viper.GetString("connections.default.host") != "testhost" {
		t.Errorf("expected nested config to be loaded, got: %s", viper.GetString("connections.default.host"))
	}
	if viper.GetString("defaults.format") != "json" {
		t.Errorf("format = %s, want json", viper.GetString("defaults.format"))
	}
	if viper.GetString("format") != "json" {
		t.Errorf("mapped flat format = %s, want json", viper.GetString("format"))
	}
	if viper.GetString("driver") != "pgsql" {
		t.Errorf("mapped flat driver = %s, want pgsql", viper.GetString("driver"))
	}
}

func TestInitConfig_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".sqlsentinel.yaml")

	invalidYAML := `connections:
  default:
    host: testhost
	invalid indentation
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	viper.Reset()
	cfgFile = configPath

	// initConfig should handle this gracefully, not panic.
	initConfig()

	if viper.GetString("connections.default.host") == "testhost" {
		t.Error("invalid YAML should not have been parsed successfully")
	}
}

func TestConfigMapping(t *testing.T) {
	viper.Reset()
	viper.Set("connections.default.host", "localhost")
	viper.Set("connections.default.port", 3306)
	viper.Set("connections.default.user", "root")
	viper.Set("connections.default.database", "testdb")

	if viper.GetString("connections.default.host") != "localhost" {
		t.Errorf("expected localhost, got %s", viper.GetString("connections.default.host"))
	}
	if viper.GetInt("connections.default.port") != 3306 {
		t.Errorf("expected 3306, got %d", viper.GetInt("connections.default.port"))
	}
}

func TestRootCommand_Structure(t *testing.T) {
	if rootCmd == nil {
		t.Fatal("rootCmd should not be nil")
	}
	if rootCmd.Use != "sqlsentinel" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "sqlsentinel")
	}

	wantSubcommands := []string{"diagnose", "baseline", "config", "version"}
	for _, want := range wantSubcommands {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("rootCmd should have a %q subcommand", want)
		}
	}
}
