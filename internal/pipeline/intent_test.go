package pipeline

import (
	"strings"
	"testing"
)

func TestClassifyIntent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
		want intent
	}{
		{"question mark", "What is my cholesterol level?", intentChat},
		{"chat keyword", "show me my medical history", intentChat},
		{"report keyword", "blood test results: glucose 110", intentReport},
		{"chat and report keywords", "tell me about this blood test please", intentReport},
		{"long text", strings.Repeat("value ", 60), intentReport},
		{"short ambiguous", "hello there", intentChat},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := classifyIntent(tc.text); got != tc.want {
				t.Fatalf("classifyIntent(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}
