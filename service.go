package pdfrender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alnah/go-pdfrender/internal/hints"
	"github.com/alnah/go-pdfrender/internal/pdf"
)

// Uploader stores a rendered PDF.
type Uploader interface {
	Upload(ctx context.Context, data []byte, opts UploadOptions, subject *Subject) (*UploadResult, error)
}

// Versioner reports browser details. *Browser implements it.
type Versioner interface {
	Version(ctx context.Context) (*BrowserInfo, error)
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithUploader enables upload delivery.
func WithUploader(u Uploader) ServiceOption {
	return func(s *Service) {
		s.uploader = u
	}
}

// WithVersioner sets the source of Info.
func WithVersioner(v Versioner) ServiceOption {
	return func(s *Service) {
		s.versioner = v
	}
}

// WithServiceLogger sets the logger. Nil is ignored.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithServiceRecorder reports merges and uploads to r. Nil is ignored.
func WithServiceRecorder(r Recorder) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// Service renders requests through an Orchestrator, merges combined
// output, stamps metadata and hands PDFs to the uploader.
type Service struct {
	orchestrator *Orchestrator
	uploader     Uploader
	versioner    Versioner
	log          *slog.Logger
	recorder     Recorder
}

// NewService creates a Service on o. The service does not own o.
// Panics if o is nil.
func NewService(o *Orchestrator, opts ...ServiceOption) *Service {
	if o == nil {
		panic("pdfrender: nil Orchestrator in NewService")
	}
	s := &Service{
		orchestrator: o,
		log:          slog.New(slog.DiscardHandler),
		recorder:     nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Render runs req. Failures of single items are reported in their
// ItemResult; an error is returned only when the request as a whole
// cannot run.
func (s *Service) Render(ctx context.Context, req *Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.wantsUpload() && s.uploader == nil {
		return nil, fmt.Errorf("%w: upload requested but no uploader is configured", ErrInvalidRequest)
	}

	if req.Combined != nil {
		return s.renderCombined(ctx, req.Combined, req.Subject)
	}
	return s.renderIndividual(ctx, req.Individual, req.Subject)
}

func (s *Service) renderIndividual(ctx context.Context, r *IndividualRequest, subject *Subject) (*Response, error) {
	jobs := make([]Job, len(r.Items))
	for i, item := range r.Items {
		jobs[i] = item.Job
	}

	results, err := s.orchestrator.Render(ctx, jobs)
	if err != nil {
		return nil, err
	}
	slots := bySlot(results, len(jobs))

	items := make([]ItemResult, len(jobs))
	for i, res := range slots {
		switch {
		case res == nil:
			items[i] = unknownResult(i)
		case res.Err != nil:
			items[i] = failedResult(renderFailure(res.Err))
		default:
			items[i] = s.deliver(ctx, res.PDF, r.Items[i].Output, subject)
		}
	}
	return &Response{Operation: successStatus, Individual: items}, nil
}

func (s *Service) renderCombined(ctx context.Context, r *CombinedRequest, subject *Subject) (*Response, error) {
	results, err := s.orchestrator.Render(ctx, r.Jobs)
	if err != nil {
		return nil, err
	}
	slots := bySlot(results, len(r.Jobs))

	combined := func(item ItemResult) (*Response, error) {
		return &Response{Operation: successStatus, Combined: &item}, nil
	}

	docs := make([][]byte, len(slots))
	for i, res := range slots {
		if res == nil {
			return combined(unknownResult(i))
		}
		if res.Err != nil {
			return combined(failedResult(renderFailure(res.Err)))
		}
		docs[i] = res.PDF
	}

	merged, err := pdf.MergeBytes(docs)
	s.recorder.MergeDone(err)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrMergeFailed, err)
		s.log.Error("merge failed", slog.Int("documents", len(docs)), slog.Any("error", err))
		return combined(failedResult(err.Error()))
	}
	return combined(s.deliver(ctx, merged, r.Output, subject))
}

// deliver stamps metadata, then either uploads data or returns it inline.
func (s *Service) deliver(ctx context.Context, data []byte, out *OutputOptions, subject *Subject) ItemResult {
	if out == nil {
		return ItemResult{Status: successStatus, Payload: &Payload{PDF: data}}
	}

	if out.Meta != nil {
		stamped, err := pdf.StampInfo(data, out.Meta.info())
		if err != nil {
			return failedResult(fmt.Errorf("%w: %w", ErrMetadata, err).Error())
		}
		data = stamped
	}

	if out.Upload == nil {
		return ItemResult{Status: successStatus, Payload: &Payload{PDF: data}}
	}

	up, err := s.uploader.Upload(ctx, data, *out.Upload, subject)
	s.recorder.UploadDone(err)
	if err != nil {
		if !errors.Is(err, ErrUpload) {
			err = fmt.Errorf("%w: %w", ErrUpload, err)
		}
		s.log.Warn("upload failed",
			slog.String("bucket", out.Upload.Bucket),
			slog.String("key", out.Upload.Key),
			slog.Any("error", err))
		return failedResult(err.Error())
	}
	return ItemResult{Status: successStatus, Payload: &Payload{Upload: up}}
}

// Info reads details of the shared browser.
func (s *Service) Info(ctx context.Context) (*BrowserInfo, error) {
	if s.versioner == nil {
		return nil, ErrBrowserClosed
	}
	return s.versioner.Version(ctx)
}

// bySlot places results at their job index. Slots without a result stay nil.
func bySlot(results []Result, n int) []*Result {
	slots := make([]*Result, n)
	for i := range results {
		if idx := results[i].Index; idx >= 0 && idx < n && slots[idx] == nil {
			slots[idx] = &results[i]
		}
	}
	return slots
}

// renderFailure describes a failed job, with a hint when it timed out.
func renderFailure(err error) string {
	msg := fmt.Sprintf("render failed: %v", err)
	if errors.Is(err, ErrJobTimeout) {
		msg += hints.ForJobTimeout()
	}
	return msg
}

var successStatus = Status{Code: StatusOK, Message: "success"}

func failedResult(msg string) ItemResult {
	return ItemResult{Status: Status{Code: StatusFailed, Message: msg}}
}

func unknownResult(index int) ItemResult {
	return ItemResult{Status: Status{
		Code:    StatusUnknown,
		Message: fmt.Sprintf("unknown error: %v", &JobError{Index: index, Err: ErrMissingResult}),
	}}
}
