package normalize

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "The Hobbit", "The Hobbit"},
		{"surrounding whitespace", "  Dune \n", "Dune"},
		{"collapses inner runs", "War   and\t\tPeace", "War and Peace"},
		{"non-breaking space", "The Hobbit", "The Hobbit"},
		{"drops control characters", "Emma\x00\x07", "Emma"},
		{"composes decomposed accents", "Les Misérables", "Les Misérables"},
		{"only whitespace", " \t\n ", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.input); got != tt.expected {
				t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTextPtr(t *testing.T) {
	if TextPtr(nil) != nil {
		t.Fatal("TextPtr(nil) should be nil")
	}

	in := "  Middlemarch  "
	got := TextPtr(&in)
	if got == nil || *got != "Middlemarch" {
		t.Errorf("TextPtr(%q) = %v, want %q", in, got, "Middlemarch")
	}
	if in != "  Middlemarch  " {
		t.Error("TextPtr must not modify its input")
	}
}

func TestToken(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"42", "42"},
		{"  42 ", "42"},
		{"user a:b", "user a:b"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Token(tt.input); got != tt.expected {
				t.Errorf("Token(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
