package catalog_test

import (
	"testing"

	"github.com/starwatch/sentiment/internal/catalog"
)

func TestValidCandidate(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{name: "plain name", candidate: "Jane Doe", want: true},
		{name: "name with digits", candidate: "Blackpink2", want: true},
		{name: "two letters", candidate: "BP", want: true},
		{name: "empty", candidate: "", want: false},
		{name: "single character", candidate: "j", want: false},
		{name: "emoji only", candidate: "🔥🔥🔥", want: false},
		{name: "punctuation only", candidate: "?!...", want: false},
		{name: "numeric only", candidate: "2024", want: false},
		{name: "stopword", candidate: "the", want: false},
		{name: "chat filler", candidate: "lol", want: false},
		{name: "mostly digits", candidate: "a1234567", want: false},
		{name: "half letters", candidate: "ab12", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := catalog.ValidCandidate(tt.candidate); got != tt.want {
				t.Errorf("ValidCandidate(%q) = %v, want %v", tt.candidate, got, tt.want)
			}
		})
	}
}
