package schema

import "testing"

func TestSuggest(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		candidates []string
		want       string
	}{
		{"exact typo", "usres", []string{"users", "orders", "products"}, "users"},
		{"case insensitive", "USRES", []string{"users"}, "users"},
		{"too far", "xyz", []string{"users", "orders"}, ""},
		{"no candidates", "users", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Suggest(tt.input, tt.candidates)
			if got != tt.want {
				t.Errorf("Suggest(%q, %v) = %q, want %q", tt.input, tt.candidates, got, tt.want)
			}
		})
	}
}

func TestKeywordSuggestion(t *testing.T) {
	if got := KeywordSuggestion("selec"); got != "SELECT" {
		t.Errorf("KeywordSuggestion(selec) = %q, want SELECT", got)
	}
	if got := KeywordSuggestion("valid"); got != "" {
		t.Errorf("KeywordSuggestion(valid) = %q, want empty", got)
	}
}
