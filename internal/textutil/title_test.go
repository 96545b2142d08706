package textutil

import "testing"

func TestDisplayTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"underscores", "/comics/the_long_tomorrow.cbz", "The Long Tomorrow"},
		{"dashes and dots", "saga.vol-01.cbr", "Saga Vol 01"},
		{"collapses runs", "blame!__master--edition.pdf", "Blame Master Edition"},
		{"already clean", "Monstress.zip", "Monstress"},
		{"empty", "", "Untitled"},
		{"only separators", "___.cbz", "Untitled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayTitle(tt.input); got != tt.want {
				t.Errorf("DisplayTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
