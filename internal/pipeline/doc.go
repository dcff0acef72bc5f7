// Package pipeline prepares HTML for the browser before printing.
//
// Markdown sources are preprocessed (line endings, ==highlight== syntax),
// converted with goldmark (GFM, footnotes, chroma highlighting) and wrapped
// in a standalone HTML5 document; optional CSS is injected into its head.
// Raw HTML sources may get a <base href> so relative references resolve
// against their origin rather than the loopback server that serves them.
//
// Page layout (paper size, margins, scale) is not handled here; it belongs
// to the print options passed to the browser.
package pipeline
