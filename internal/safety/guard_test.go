package safety

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		wantErr bool
	}{
		{"plain select", "SELECT * FROM users", false},
		{"with cte", "WITH t AS (SELECT 1) SELECT * FROM t", false},
		{"show create table", "SHOW CREATE TABLE users", false},
		{"explain", "EXPLAIN SELECT * FROM users", false},
		{"describe", "DESCRIBE users", false},
		{"insert rejected", "INSERT INTO users VALUES (1)", true},
		{"select with drop word", "SELECT * FROM users WHERE name = 'DROP THE MIC'", true},
		{"update rejected", "UPDATE users SET x=1", true},
		{"select containing create as substring ok boundary", "SELECT created_at FROM users", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.sql)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.sql, err, tt.wantErr)
			}
		})
	}
}

func TestIsSelect(t *testing.T) {
	if !IsSelect("SELECT 1") {
		t.Error("expected SELECT to be IsSelect")
	}
	if IsSelect("SHOW TABLES") {
		t.Error("expected SHOW to not be IsSelect")
	}
}
