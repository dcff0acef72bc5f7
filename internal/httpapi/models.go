package httpapi

import (
	"fmt"
	"strings"

	pdfrender "github.com/alnah/go-pdfrender"
)

// renderRequest is the POST /v1/render body. Exactly one of Individual and
// Combined must be present.
type renderRequest struct {
	Individual *individualRequest `json:"individual,omitempty"`
	Combined   *combinedRequest   `json:"combined,omitempty"`
	Subject    *pdfrender.Subject `json:"subject,omitempty"`
}

type individualRequest struct {
	Items []individualItem `json:"items"`
}

type individualItem struct {
	Data   renderData               `json:"data"`
	Output *pdfrender.OutputOptions `json:"output,omitempty"`
}

type combinedRequest struct {
	Data   []renderData             `json:"data"`
	Output *pdfrender.OutputOptions `json:"output,omitempty"`
}

// renderData is one job on the wire.
type renderData struct {
	Source  source                  `json:"source"`
	Options *pdfrender.PrintOptions `json:"options,omitempty"`
}

// source holds exactly one of URL, HTML or Markdown.
type source struct {
	URL      string `json:"url,omitempty"`
	HTML     string `json:"html,omitempty"`
	BaseURL  string `json:"baseUrl,omitempty"`
	Markdown string `json:"markdown,omitempty"`
	CSS      string `json:"css,omitempty"`
}

func (s source) toSource() (pdfrender.Source, error) {
	set := 0
	for _, v := range []string{s.URL, s.HTML, s.Markdown} {
		if strings.TrimSpace(v) != "" {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("%w: source needs exactly one of url, html or markdown", pdfrender.ErrInvalidSource)
	}

	switch {
	case s.URL != "":
		return pdfrender.URLSource{URL: s.URL}, nil
	case s.HTML != "":
		return pdfrender.HTMLSource{HTML: s.HTML, BaseURL: s.BaseURL}, nil
	default:
		return pdfrender.MarkdownSource{Markdown: s.Markdown, CSS: s.CSS}, nil
	}
}

func (d renderData) toJob(index int) (pdfrender.Job, error) {
	src, err := d.Source.toSource()
	if err != nil {
		return pdfrender.Job{}, &pdfrender.JobError{Index: index, Err: err}
	}
	return pdfrender.Job{Source: src, Options: d.Options}, nil
}

// toRequest converts the wire body. Detailed validation is left to the service.
func (r *renderRequest) toRequest() (*pdfrender.Request, error) {
	req := &pdfrender.Request{Subject: r.Subject}

	if r.Individual != nil {
		items := make([]pdfrender.IndividualItem, len(r.Individual.Items))
		for i, it := range r.Individual.Items {
			job, err := it.Data.toJob(i)
			if err != nil {
				return nil, err
			}
			items[i] = pdfrender.IndividualItem{Job: job, Output: it.Output}
		}
		req.Individual = &pdfrender.IndividualRequest{Items: items}
	}

	if r.Combined != nil {
		jobs := make([]pdfrender.Job, len(r.Combined.Data))
		for i, d := range r.Combined.Data {
			job, err := d.toJob(i)
			if err != nil {
				return nil, err
			}
			jobs[i] = job
		}
		req.Combined = &pdfrender.CombinedRequest{Jobs: jobs, Output: r.Combined.Output}
	}
	return req, nil
}

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}
