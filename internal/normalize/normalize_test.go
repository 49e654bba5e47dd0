package normalize

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"newlines", "one\ntwo\r\nthree\rfour", "one two three four"},
		{"single citation", "as shown [3] before", "as shown  before"},
		{"citation range en dash", "see [12]–[15] for details", "see  for details"},
		{"citation range em dash", "see [12]—[15] for details", "see  for details"},
		{"citation range hyphen", "see [1]-[2] here", "see  here"},
		{"empty brackets", "odd [] marker", "odd  marker"},
		{"bracketed words kept", "keep [sic] this", "keep [sic] this"},
		{"line break hyphenation", "exam-\nple text", "example text"},
		{"hyphen before space", "well- known", "wellknown"},
		{"compound kept", "state-of-the-art", "state-of-the-art"},
		{"citation then hyphen", "ref [4]\nnon-\nlinear", "ref  nonlinear"},
		{"spaces not collapsed", "a   b", "a   b"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q): expected %q, got %q", tt.in, tt.want, got)
			}
		})
	}
}

func TestNormalize_NoNewlinesInOutput(t *testing.T) {
	in := "line one\nline two\n\n\nline three [1]\n"
	if out := Normalize(in); strings.ContainsAny(out, "\r\n") {
		t.Errorf("expected no newlines, got %q", out)
	}
}

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ﬁnal oﬃce", "final office"},
		{"and then…", "and then..."},
		{"plain ascii.", "plain ascii."},
		{"en–dash kept", "en–dash kept"},
	}
	for _, tt := range tests {
		if got := Fold(tt.in); got != tt.want {
			t.Errorf("Fold(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
