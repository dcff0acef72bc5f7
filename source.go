package pdfrender

import (
	"fmt"
	"net/url"
	"strings"
)

// Source is the content of one render job. It is implemented only by
// URLSource, HTMLSource and MarkdownSource.
type Source interface {
	// Validate reports whether the source can be rendered.
	Validate() error

	isSource()
}

// URLSource renders a page the browser navigates to directly.
type URLSource struct {
	URL string
}

// HTMLSource renders an HTML document served to the browser over loopback.
// BaseURL, when set, becomes the document base so relative references
// resolve against it.
type HTMLSource struct {
	HTML    string
	BaseURL string
}

// MarkdownSource is converted to HTML before rendering.
// CSS is appended to the generated document head.
type MarkdownSource struct {
	Markdown string
	CSS      string
}

func (URLSource) isSource()      {}
func (HTMLSource) isSource()     {}
func (MarkdownSource) isSource() {}

// Validate checks that the URL is absolute with an http, https, file or data scheme.
func (s URLSource) Validate() error {
	if strings.TrimSpace(s.URL) == "" {
		return fmt.Errorf("%w: empty URL", ErrInvalidSource)
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSource, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" {
			return fmt.Errorf("%w: URL %q has no host", ErrInvalidSource, s.URL)
		}
	case "file", "data":
	default:
		return fmt.Errorf("%w: unsupported URL scheme %q", ErrInvalidSource, u.Scheme)
	}
	return nil
}

// Validate checks that there is HTML to render.
func (s HTMLSource) Validate() error {
	if strings.TrimSpace(s.HTML) == "" {
		return fmt.Errorf("%w: empty HTML", ErrInvalidSource)
	}
	return nil
}

// Validate checks that there is Markdown to render.
func (s MarkdownSource) Validate() error {
	if strings.TrimSpace(s.Markdown) == "" {
		return fmt.Errorf("%w: empty Markdown", ErrInvalidSource)
	}
	return nil
}

// Job is one unit of rendering work.
type Job struct {
	Source  Source
	Options *PrintOptions
}

// Validate checks the source and print options.
func (j Job) Validate() error {
	if j.Source == nil {
		return fmt.Errorf("%w: no source", ErrInvalidSource)
	}
	if err := j.Source.Validate(); err != nil {
		return err
	}
	return j.Options.Validate()
}

// Result is the outcome of one job. Exactly one of PDF and Err is set.
type Result struct {
	Index int
	PDF   []byte
	Err   error
}
