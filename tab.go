package pdfrender

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-rod/rod"

	"github.com/alnah/go-pdfrender/internal/pipeline"
)

// tabCloseTimeout bounds closing a tab after its job is done or cancelled.
const tabCloseTimeout = 5 * time.Second

// TabRenderer renders one job into PDF bytes.
// Implementations must be safe for concurrent use.
type TabRenderer interface {
	Render(ctx context.Context, job Job) ([]byte, error)
}

// RodTabRenderer renders each job in a fresh tab of a shared Browser.
type RodTabRenderer struct {
	browser  *Browser
	pipeline *pipeline.Pipeline
}

// NewRodTabRenderer creates a renderer on b. The renderer does not own b.
func NewRodTabRenderer(b *Browser) *RodTabRenderer {
	return &RodTabRenderer{
		browser:  b,
		pipeline: pipeline.New(),
	}
}

// Render opens a tab, loads the job source, prints it and closes the tab.
func (r *RodTabRenderer) Render(ctx context.Context, job Job) ([]byte, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	opts := ResolvePrintOptions(job.Options)

	switch src := job.Source.(type) {
	case URLSource:
		return r.print(ctx, src.URL, opts)
	case HTMLSource:
		doc, err := r.pipeline.HTML(src.HTML, src.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSource, err)
		}
		return r.printHTML(ctx, doc, opts)
	case MarkdownSource:
		doc, err := r.pipeline.Markdown(ctx, src.Markdown, src.CSS)
		if err != nil {
			return nil, err
		}
		return r.printHTML(ctx, doc, opts)
	default:
		return nil, fmt.Errorf("%w: unsupported source type %T", ErrInvalidSource, src)
	}
}

// printHTML serves doc on a one-shot loopback listener for the length of the print.
func (r *RodTabRenderer) printHTML(ctx context.Context, doc string, opts ResolvedPrintOptions) ([]byte, error) {
	srv, err := startHTMLServer(doc)
	if err != nil {
		return nil, err
	}
	defer srv.close()

	return r.print(ctx, srv.URL(), opts)
}

func (r *RodTabRenderer) print(ctx context.Context, url string, opts ResolvedPrintOptions) ([]byte, error) {
	page, err := r.browser.newPage(ctx)
	if err != nil {
		return nil, err
	}
	defer closePage(page)

	if err := page.Navigate(url); err != nil {
		return nil, fmt.Errorf("%w: navigating to %s: %v", ErrPageLoad, url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	stream, err := page.PDF(opts.CDP())
	if retry, ok := opts.withoutPageRanges(); err != nil && ok {
		stream, err = page.PDF(retry.CDP())
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return data, nil
}

// closePage closes the tab even when the job context is already done.
func closePage(page *rod.Page) {
	ctx, cancel := context.WithTimeout(context.Background(), tabCloseTimeout)
	defer cancel()
	_ = page.Context(ctx).Close()
}
