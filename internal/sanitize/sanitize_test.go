package sanitize

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips block comment",
			in:   "SELECT /* comment */ id FROM users",
			want: "SELECT id FROM users",
		},
		{
			name: "preserves optimizer hint",
			in:   "SELECT /*+ INDEX(users idx_email) */ id FROM users",
			want: "SELECT /*+ INDEX(users idx_email) */ id FROM users",
		},
		{
			name: "strips line comment",
			in:   "SELECT id FROM users -- trailing note\nWHERE id = 1",
			want: "SELECT id FROM users WHERE id = 1",
		},
		{
			name: "strips hash comment",
			in:   "SELECT id FROM users # note\nWHERE id = 1",
			want: "SELECT id FROM users WHERE id = 1",
		},
		{
			name: "trims trailing semicolon",
			in:   "SELECT id FROM users;",
			want: "SELECT id FROM users",
		},
		{
			name: "collapses whitespace",
			in:   "SELECT   id\n\nFROM    users",
			want: "SELECT id FROM users",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.in)
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"SELECT /* c */ id FROM users; -- x",
		"SELECT /*+ HINT */ 1",
		"   SELECT   1   ",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize not idempotent: Sanitize(%q)=%q, Sanitize(that)=%q", in, once, twice)
		}
	}
}
