package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestPreprocess - Markdown normalization
// ---------------------------------------------------------------------------

func TestPreprocess(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"crlf line endings", "a\r\nb", "a\nb"},
		{"lone carriage return", "a\rb", "a\nb"},
		{"highlight", "==hi==", markStart + "hi" + markEnd},
		{"two highlights", "==a== and ==b==", markStart + "a" + markEnd + " and " + markStart + "b" + markEnd},
		{"blank line runs collapse", "a\n\n\n\nb", "a\n\nb"},
		{"single equals untouched", "a = b", "a = b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Preprocess(tt.input); got != tt.want {
				t.Errorf("Preprocess(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestGoldmarkConverter - HTML document generation
// ---------------------------------------------------------------------------

func TestGoldmarkConverter_ToHTML(t *testing.T) {
	t.Parallel()

	conv := NewGoldmarkConverter()

	tests := []struct {
		name     string
		input    string
		contains []string
	}{
		{
			name:     "title from first heading",
			input:    "# Quarterly Report\n\nBody",
			contains: []string{"<title>Quarterly Report</title>", `<h1 id="quarterly-report">Quarterly Report</h1>`},
		},
		{
			name:     "default title without heading",
			input:    "just text",
			contains: []string{"<title>Document</title>", "<p>just text</p>"},
		},
		{
			name:     "title strips inline markup",
			input:    "# Hello *world*",
			contains: []string{"<title>Hello world</title>"},
		},
		{
			name:     "title is escaped",
			input:    "# A & B",
			contains: []string{"<title>A &amp; B</title>"},
		},
		{
			name:     "highlight becomes mark",
			input:    "some ==marked== text",
			contains: []string{"<mark>marked</mark>"},
		},
		{
			name:     "gfm table",
			input:    "| a | b |\n|---|---|\n| 1 | 2 |",
			contains: []string{"<table>", "<td>1</td>"},
		},
		{
			name:     "highlighted code uses classes",
			input:    "```go\nfunc main() {}\n```",
			contains: []string{`class="chroma"`},
		},
		{
			name:     "standalone document",
			input:    "x",
			contains: []string{"<!DOCTYPE html>", `<meta charset="utf-8">`, "</html>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := conv.ToHTML(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("ToHTML() error: %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("ToHTML() missing %q in:\n%s", want, got)
				}
			}
		})
	}
}

func TestGoldmarkConverter_ToHTML_ContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGoldmarkConverter().ToHTML(ctx, "# x")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ToHTML() error = %v, want context.Canceled", err)
	}
}
