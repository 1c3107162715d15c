package render

import (
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestTruncateEllipsis(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
		want     string
	}{
		{"fits", "hello", 10, "hello"},
		{"exact fit", "hello", 5, "hello"},
		{"cut", "hello world", 8, "hello w…"},
		{"wide runes", "日本語の曲", 5, "日本…"},
		{"control stripped first", "a\nb", 2, "ab"},
		{"empty", "", 10, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateEllipsis(tt.input, tt.maxWidth)
			if got != tt.want {
				t.Errorf("TruncateEllipsis(%q, %d) = %q, want %q", tt.input, tt.maxWidth, got, tt.want)
			}
			if w := runewidth.StringWidth(got); w > tt.maxWidth {
				t.Errorf("width %d exceeds %d", w, tt.maxWidth)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"clean", "Band - Song", "Band - Song"},
		{"newline", "Song\nTitle", "SongTitle"},
		{"tab", "a\tb", "a\tb"},
		{"escape", "a\x1b[31mb", "a[31mb"},
		{"c1 control", "a\u0085b", "ab"},
		{"invalid byte", "a\xffb", "ab"},
		{"nbsp", "a\u00a0b", "a b"},
		{"accents", "Café Tacvba", "Café Tacvba"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
