package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// ErrHTMLConversion indicates Markdown to HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// defaultTitle is used when the document has no level-one heading.
const defaultTitle = "Document"

// documentTemplate wraps goldmark's fragment output in a complete HTML5 document.
// The title is what the browser reports as the print job name.
const documentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s
</body>
</html>`

// Highlight placeholders live in the Private Use Area so goldmark passes
// them through untouched without WithUnsafe.
const (
	markStart = "\uE000"
	markEnd   = "\uE001"
)

var (
	crlfOrCR           = regexp.MustCompile(`\r\n?`)
	multipleBlankLines = regexp.MustCompile(`\n{3,}`)
	highlightPattern   = regexp.MustCompile(`==(.*?)==`)
)

// HTMLConverter turns Markdown into a standalone HTML document.
type HTMLConverter interface {
	ToHTML(ctx context.Context, markdown string) (string, error)
}

var _ HTMLConverter = (*GoldmarkConverter)(nil)

// GoldmarkConverter converts Markdown to HTML with GFM, footnotes and
// class-based syntax highlighting.
type GoldmarkConverter struct {
	md goldmark.Markdown
}

// NewGoldmarkConverter creates a GoldmarkConverter.
func NewGoldmarkConverter() *GoldmarkConverter {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithHardWraps(),
			gmhtml.WithXHTML(),
		),
	)
	return &GoldmarkConverter{md: md}
}

// ToHTML preprocesses and converts markdown to a full HTML5 document whose
// <title> is the text of the first level-one heading.
// goldmark has no context support, so conversion runs in a goroutine and the
// caller stops waiting on cancellation.
func (c *GoldmarkConverter) ToHTML(ctx context.Context, markdown string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		source := []byte(Preprocess(markdown))
		doc := c.md.Parser().Parse(text.NewReader(source))

		var buf bytes.Buffer
		if err := c.md.Renderer().Render(&buf, source, doc); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}
		body := convertMarkPlaceholders(buf.String())
		done <- result{html: fmt.Sprintf(documentTemplate, html.EscapeString(documentTitle(doc, source)), body)}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}

// documentTitle returns the plain text of the first level-one heading.
func documentTitle(doc ast.Node, source []byte) string {
	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 1 {
			return ast.WalkContinue, nil
		}
		title = strings.TrimSpace(nodeText(h, source))
		return ast.WalkStop, nil
	})
	if title == "" {
		return defaultTitle
	}
	return strings.NewReplacer(markStart, "", markEnd, "").Replace(title)
}

func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
			continue
		}
		sb.WriteString(nodeText(c, source))
	}
	return sb.String()
}

// Preprocess normalizes line endings, turns ==text== into highlight
// placeholders and collapses runs of blank lines.
func Preprocess(markdown string) string {
	markdown = crlfOrCR.ReplaceAllString(markdown, "\n")
	markdown = highlightPattern.ReplaceAllString(markdown, markStart+"$1"+markEnd)
	return multipleBlankLines.ReplaceAllString(markdown, "\n\n")
}

// convertMarkPlaceholders finishes the ==highlight== syntax after goldmark.
func convertMarkPlaceholders(content string) string {
	return strings.NewReplacer(markStart, "<mark>", markEnd, "</mark>").Replace(content)
}
