package pdf

import (
	"errors"
	"fmt"
)

// Sentinel errors for parsing, merging and stamping.
var (
	ErrNotPDF        = errors.New("pdf: missing %PDF header")
	ErrMalformed     = errors.New("pdf: malformed object")
	ErrXref          = errors.New("pdf: unreadable cross-reference data")
	ErrEncrypted     = errors.New("pdf: encrypted documents are not supported")
	ErrUnsupported   = errors.New("pdf: unsupported stream filter")
	ErrNoDocuments   = errors.New("pdf: nothing to merge")
	ErrMissingRoot   = errors.New("pdf: merged object graph has no root")
	ErrPageTreeCycle = errors.New("pdf: page tree contains a cycle")
)

// MissingRootError reports which root object a merge could not find.
// Kind is "Pages" or "Catalog".
type MissingRootError struct {
	Kind string
}

func (e *MissingRootError) Error() string {
	return fmt.Sprintf("%v: no %s object found", ErrMissingRoot, e.Kind)
}

func (e *MissingRootError) Unwrap() error {
	return ErrMissingRoot
}

// SyntaxError locates a parse failure by byte offset.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v at offset %d: %s", ErrMalformed, e.Offset, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return ErrMalformed
}
