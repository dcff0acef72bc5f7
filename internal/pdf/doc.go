// Package pdf reads, edits and writes PDF object graphs.
//
// It is not a renderer. Documents are parsed into a table of indirect
// objects keyed by ObjectID plus a trailer, edited in memory and written
// back with a classic cross-reference table.
//
// # Merging
//
// Merge concatenates documents at the object level:
//
//	merged, err := pdf.MergeBytes([][]byte{a, b, c})
//
// Each input keeps its pages and resources. Source outlines are discarded
// and replaced by one bookmark per input ("Page_1", "Page_2", ...). Inputs
// with no page tree or catalog fail with an error matching ErrMissingRoot.
//
// # Metadata
//
// StampInfo replaces the information dictionary in full:
//
//	title := "Quarterly report"
//	out, err := pdf.StampInfo(data, &pdf.Info{Title: &title})
//
// Encrypted input is rejected with ErrEncrypted.
package pdf
