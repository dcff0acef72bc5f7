package pipeline

import (
	"context"
	"fmt"
)

// Pipeline prepares HTML documents for the browser.
type Pipeline struct {
	converter HTMLConverter
}

// New creates a Pipeline backed by a GoldmarkConverter.
func New() *Pipeline {
	return &Pipeline{converter: NewGoldmarkConverter()}
}

// NewWithConverter creates a Pipeline using conv for Markdown conversion.
func NewWithConverter(conv HTMLConverter) *Pipeline {
	return &Pipeline{converter: conv}
}

// Markdown converts markdown to a full HTML document with css appended to its head.
func (p *Pipeline) Markdown(ctx context.Context, markdown, css string) (string, error) {
	doc, err := p.converter.ToHTML(ctx, markdown)
	if err != nil {
		return "", fmt.Errorf("converting to HTML: %w", err)
	}
	return InjectCSS(doc, css), nil
}

// HTML returns htmlContent with baseURL set as the document base.
func (p *Pipeline) HTML(htmlContent, baseURL string) (string, error) {
	return InjectBase(htmlContent, baseURL)
}
