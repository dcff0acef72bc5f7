package pdfrender

import (
	"errors"
	"fmt"

	"github.com/alnah/go-pdfrender/internal/pdf"
	"github.com/alnah/go-pdfrender/internal/pipeline"
)

// Sentinel errors for library operations.
var (
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrBrowserClosed  = errors.New("browser is closed")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrJobTimeout     = errors.New("render job timed out")
	ErrHTMLConversion = pipeline.ErrHTMLConversion

	// Input validation errors.
	ErrInvalidSource       = errors.New("invalid content source")
	ErrInvalidPaperFormat  = errors.New("invalid paper format")
	ErrInvalidPrintOptions = errors.New("invalid print options")
	ErrInvalidRequest      = errors.New("invalid render request")
	ErrEmptyBatch          = errors.New("batch has no jobs")

	// Orchestration and output errors.
	ErrOrchestratorClosed = errors.New("orchestrator is closed")
	ErrMissingResult      = errors.New("missing render result")
	ErrMergeFailed        = errors.New("merging PDFs failed")
	ErrMetadata           = errors.New("stamping PDF metadata failed")
	ErrUpload             = errors.New("upload failed")

	// ErrMissingRoot is returned when merged input has no Catalog or no Pages.
	ErrMissingRoot = pdf.ErrMissingRoot
)

// JobError reports the failure of one job in a batch.
type JobError struct {
	Index int
	Err   error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("job %d: %v", e.Index, e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}
