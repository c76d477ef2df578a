package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetSQLInput_FromArgs(t *testing.T) {
	diagnoseCmd.Flags().Set("file", "")
	sql, err := getSQLInput(diagnoseCmd, []string{"  SELECT 1  "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sql != "SELECT 1" {
		t.Errorf("sql = %q, want trimmed %q", sql, "SELECT 1")
	}
}

func TestGetSQLInput_NoArgsNoFile(t *testing.T) {
	diagnoseCmd.Flags().Set("file", "")
	if _, err := getSQLInput(diagnoseCmd, nil); err == nil {
		t.Fatal("expected an error when neither args nor --file are provided")
	}
}

func TestGetSQLInput_FromFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "query.sql")
	if err := os.WriteFile(path, []byte("SELECT * FROM users\n"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	diagnoseCmd.Flags().Set("file", path)
	defer diagnoseCmd.Flags().Set("file", "")

	sql, err := getSQLInput(diagnoseCmd, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(sql) != "SELECT * FROM users" {
		t.Errorf("sql = %q, want %q", sql, "SELECT * FROM users")
	}
}

func TestValidateSQLFilePath_RejectsMissingFile(t *testing.T) {
	if err := validateSQLFilePath("/nonexistent/path/query.sql"); err == nil {
		t.Fatal("expected an error for a nonexistent file")
	}
}

func TestValidateSQLFilePath_RejectsDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	if err := validateSQLFilePath(tmpDir); err == nil {
		t.Fatal("expected an error when the path is a directory")
	}
}

func TestValidateSQLFilePath_RejectsOversizedFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "big.sql")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	defer f.Close()
	if err := f.Truncate(11 * 1024 * 1024); err != nil {
		t.Fatalf("failed to truncate test file: %v", err)
	}

	if err := validateSQLFilePath(path); err == nil {
		t.Fatal("expected an error for a file over 10MB")
	}
}

func TestValidateSQLFilePath_AcceptsRegularFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "query.sql")
	if err := os.WriteFile(path, []byte("SELECT 1"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	if err := validateSQLFilePath(path); err != nil {
		t.Errorf("unexpected error for a valid file: %v", err)
	}
}

func TestDiagnoseCmd_Structure(t *testing.T) {
	if diagnoseCmd == nil {
		t.Fatal("diagnoseCmd should not be nil")
	}
	if diagnoseCmd.Use != "diagnose [SQL statement]" {
		t.Errorf("diagnoseCmd.Use = %q", diagnoseCmd.Use)
	}

	found := false
	for _, c := range rootCmd.Commands() {
		if c.Name() == "diagnose" {
			found = true
			break
		}
	}
	if !found {
		t.Error("diagnose command should be registered with root command")
	}
}

func TestGradeWorse(t *testing.T) {
	cases := []struct {
		grade, floor string
		want         bool
	}{
		{"C", "B", true},
		{"B", "B", false},
		{"A", "B", false},
		{"F", "A", true},
		{"", "B", false},
	}
	for _, c := range cases {
		if got := gradeWorse(c.grade, c.floor); got != c.want {
			t.Errorf("gradeWorse(%q,%q) = %v, want %v", c.grade, c.floor, got, c.want)
		}
	}
}
