package pipeline

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrInvalidBaseURL indicates a base URL that is not absolute http(s) or file.
var ErrInvalidBaseURL = errors.New("invalid base URL")

// InjectBase sets the document base URL so relative links, images and
// stylesheets resolve against baseURL instead of the loopback server that
// serves the HTML. An existing <base href> is replaced. Empty baseURL
// returns htmlContent unchanged.
func InjectBase(htmlContent, baseURL string) (string, error) {
	if baseURL == "" {
		return htmlContent, nil
	}
	if err := validateBaseURL(baseURL); err != nil {
		return "", err
	}

	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	// html.Parse always synthesizes <html><head>.
	head := findElement(doc, atom.Head)
	if head == nil {
		return "", fmt.Errorf("parsing HTML: no head element")
	}

	if base := findElement(head, atom.Base); base != nil {
		setAttr(base, "href", baseURL)
	} else {
		base := &html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Base,
			Data:     "base",
			Attr:     []html.Attribute{{Key: "href", Val: baseURL}},
		}
		head.InsertBefore(base, head.FirstChild)
	}

	var sb strings.Builder
	if err := html.Render(&sb, doc); err != nil {
		return "", fmt.Errorf("rendering HTML: %w", err)
	}
	return sb.String(), nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return fmt.Errorf("%w: %q has no host", ErrInvalidBaseURL, raw)
		}
	case "file":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, raw)
	}
	return nil
}

// findElement returns the first element with the given atom in depth-first order.
func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
