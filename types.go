package pdfrender

import (
	"fmt"
	"strings"

	"github.com/alnah/go-pdfrender/internal/pdf"
)

// Item status codes.
const (
	StatusOK      = 0   // rendered and delivered
	StatusFailed  = 400 // render, merge, metadata or upload failed
	StatusUnknown = 500 // no result was produced for the item
)

// Request is one call to Service.Render. Exactly one of Individual and
// Combined must be set.
type Request struct {
	Individual *IndividualRequest
	Combined   *CombinedRequest
	Subject    *Subject // forwarded to uploads
}

// IndividualRequest renders every item into its own PDF.
type IndividualRequest struct {
	Items []IndividualItem
}

// IndividualItem is one job and what to do with its PDF.
type IndividualItem struct {
	Job    Job
	Output *OutputOptions
}

// CombinedRequest renders every job and merges the PDFs, in order, into one.
type CombinedRequest struct {
	Jobs   []Job
	Output *OutputOptions
}

// OutputOptions control post-processing and delivery of a PDF.
// Both fields are optional.
type OutputOptions struct {
	Meta   *MetaData      `json:"meta,omitempty"`
	Upload *UploadOptions `json:"upload,omitempty"`
}

// MetaData replaces the PDF information dictionary. Only set fields are written.
type MetaData struct {
	Title    *string `json:"title,omitempty"`
	Creator  *string `json:"creator,omitempty"`
	Producer *string `json:"producer,omitempty"`
}

func (m *MetaData) info() *pdf.Info {
	if m == nil {
		return nil
	}
	return &pdf.Info{Title: m.Title, Creator: m.Creator, Producer: m.Producer}
}

// UploadOptions name the object a PDF is stored as.
type UploadOptions struct {
	Bucket             string `json:"bucket"`
	Key                string `json:"key"`
	ContentDisposition string `json:"contentDisposition,omitempty"`
}

// Validate checks that bucket and key are set.
func (u *UploadOptions) Validate() error {
	if u == nil {
		return nil
	}
	if strings.TrimSpace(u.Bucket) == "" {
		return fmt.Errorf("%w: upload bucket is empty", ErrInvalidRequest)
	}
	if strings.TrimSpace(u.Key) == "" {
		return fmt.Errorf("%w: upload key is empty", ErrInvalidRequest)
	}
	return nil
}

// Subject identifies who a render is for. Scope, when set, names the
// organization that owns uploaded objects.
type Subject struct {
	ID    string `json:"id"`
	Scope string `json:"scope,omitempty"`
}

// Status reports how an item or the whole operation went.
type Status struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// OK reports whether the status is StatusOK.
func (s Status) OK() bool {
	return s.Code == StatusOK
}

// UploadResult describes a stored PDF.
type UploadResult struct {
	Length int    `json:"length"`
	URL    string `json:"url"`
}

// Payload carries either the PDF bytes or, when uploaded, where they went.
type Payload struct {
	PDF    []byte        `json:"pdf,omitempty"`
	Upload *UploadResult `json:"upload,omitempty"`
}

// ItemResult is the outcome of one delivered PDF.
type ItemResult struct {
	Status  Status   `json:"status"`
	Payload *Payload `json:"payload,omitempty"`
}

// Response is the outcome of a Render call. Individual has one entry per
// requested item, in order; Combined is set for combined requests.
type Response struct {
	Operation  Status       `json:"operation"`
	Individual []ItemResult `json:"individual,omitempty"`
	Combined   *ItemResult  `json:"combined,omitempty"`
}

// Validate checks the request shape, every job and every output option.
func (r *Request) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}
	switch {
	case r.Individual != nil && r.Combined != nil:
		return fmt.Errorf("%w: both individual and combined set", ErrInvalidRequest)
	case r.Individual != nil:
		if len(r.Individual.Items) == 0 {
			return ErrEmptyBatch
		}
		for i, item := range r.Individual.Items {
			if err := validateJob(i, item.Job, item.Output); err != nil {
				return err
			}
		}
	case r.Combined != nil:
		if len(r.Combined.Jobs) == 0 {
			return ErrEmptyBatch
		}
		for i, job := range r.Combined.Jobs {
			if err := validateJob(i, job, nil); err != nil {
				return err
			}
		}
		if r.Combined.Output != nil {
			if err := r.Combined.Output.Upload.Validate(); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: neither individual nor combined set", ErrInvalidRequest)
	}
	return nil
}

func validateJob(index int, job Job, out *OutputOptions) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, &JobError{Index: index, Err: err})
	}
	if out != nil {
		if err := out.Upload.Validate(); err != nil {
			return fmt.Errorf("%w (item %d)", err, index)
		}
	}
	return nil
}

// wantsUpload reports whether any output of r asks for an upload.
func (r *Request) wantsUpload() bool {
	if r.Combined != nil {
		return r.Combined.Output != nil && r.Combined.Output.Upload != nil
	}
	if r.Individual != nil {
		for _, item := range r.Individual.Items {
			if item.Output != nil && item.Output.Upload != nil {
				return true
			}
		}
	}
	return false
}
