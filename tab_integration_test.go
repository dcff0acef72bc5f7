//go:build integration

package pdfrender

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alnah/go-pdfrender/internal/pdf"
)

// ---------------------------------------------------------------------------
// TestRodTabRenderer_Render - One job per source kind
// ---------------------------------------------------------------------------

func TestRodTabRenderer_Render(t *testing.T) {
	t.Parallel()

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><h1>From URL</h1></body></html>"))
	}))
	defer site.Close()

	tests := []struct {
		name string
		job  Job
	}{
		{"url", Job{Source: URLSource{URL: site.URL}}},
		{"html", Job{Source: HTMLSource{HTML: "<h1>Hello</h1><p>World</p>"}}},
		{"html with base", Job{Source: HTMLSource{HTML: "<p>relative</p>", BaseURL: site.URL + "/docs/"}}},
		{"markdown", Job{Source: MarkdownSource{Markdown: "# Title\n\n- one\n- two"}}},
		{"letter landscape", Job{
			Source:  HTMLSource{HTML: "<p>wide</p>"},
			Options: &PrintOptions{Format: ptr(FormatLetter), Landscape: ptr(true)},
		}},
	}

	r := NewRodTabRenderer(testBrowser)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
			defer cancel()

			data, err := r.Render(ctx, tt.job)
			if err != nil {
				t.Fatalf("Render() error: %v", err)
			}
			if !bytes.HasPrefix(data, []byte("%PDF-")) {
				t.Fatalf("output is not a PDF: %q", data[:min(len(data), 16)])
			}
			if _, err := pdf.Parse(data); err != nil {
				t.Errorf("rendered PDF does not parse: %v", err)
			}
		})
	}
}

func TestRodTabRenderer_UnreachableURL(t *testing.T) {
	t.Parallel()

	site := httptest.NewServer(http.NotFoundHandler())
	url := site.URL
	site.Close()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	_, err := NewRodTabRenderer(testBrowser).Render(ctx, Job{Source: URLSource{URL: url}})
	if !errors.Is(err, ErrPageLoad) {
		t.Errorf("Render() error = %v, want ErrPageLoad", err)
	}
}

// ---------------------------------------------------------------------------
// TestService_Integration - End to end through the real browser
// ---------------------------------------------------------------------------

func TestService_CombinedIntegration(t *testing.T) {
	t.Parallel()

	svc := NewService(newTestOrchestrator(t, WithMaxTabs(2)), WithVersioner(testBrowser))
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	resp, err := svc.Render(ctx, &Request{Combined: &CombinedRequest{
		Jobs: []Job{
			{Source: HTMLSource{HTML: "<h1>One</h1>"}},
			{Source: HTMLSource{HTML: "<h1>Two</h1>"}},
			{Source: MarkdownSource{Markdown: "# Three"}},
		},
	}})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !resp.Combined.Status.OK() {
		t.Fatalf("combined status = %+v", resp.Combined.Status)
	}

	doc, err := pdf.Parse(resp.Combined.Payload.PDF)
	if err != nil {
		t.Fatalf("merged PDF does not parse: %v", err)
	}
	pages, err := doc.Pages()
	if err != nil {
		t.Fatalf("Pages() error: %v", err)
	}
	if len(pages) != 3 {
		t.Errorf("merged page count = %d, want 3", len(pages))
	}
}

func TestBrowser_Version(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	info, err := testBrowser.Version(ctx)
	if err != nil {
		t.Fatalf("Version() error: %v", err)
	}
	if info.Product == "" || info.UserAgent == "" {
		t.Errorf("Version() = %+v, want product and user agent", info)
	}
}
