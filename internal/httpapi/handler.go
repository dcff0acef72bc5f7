// Package httpapi exposes the rendering service over HTTP/JSON.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"

	pdfrender "github.com/alnah/go-pdfrender"
	"github.com/alnah/go-pdfrender/internal/logger"
	"github.com/alnah/go-pdfrender/internal/metrics"
)

// DefaultMaxBodyBytes bounds request bodies when no limit is configured.
const DefaultMaxBodyBytes = 64 << 20

// Renderer is what the handlers call. *pdfrender.Service implements it.
type Renderer interface {
	Render(ctx context.Context, req *pdfrender.Request) (*pdfrender.Response, error)
	Info(ctx context.Context) (*pdfrender.BrowserInfo, error)
}

// Handler serves the HTTP endpoints.
type Handler struct {
	svc          Renderer
	log          *slog.Logger
	maxBodyBytes int64
	ready        atomic.Bool
}

// NewHandler returns a Handler on svc. maxBodyBytes <= 0 uses
// DefaultMaxBodyBytes. The handler starts not ready.
func NewHandler(svc Renderer, log *slog.Logger, maxBodyBytes int64) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{svc: svc, log: log, maxBodyBytes: maxBodyBytes}
}

// SetReady flips the /readyz answer.
func (h *Handler) SetReady(ready bool) {
	h.ready.Store(ready)
}

// NewRouter mounts the handlers with request logging and, when m is not
// nil, request metrics and /metrics.
func NewRouter(h *Handler, log *slog.Logger, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	if m != nil {
		r.Use(metrics.RequestMiddleware(m))
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}
	r.Get("/healthz", h.Health)
	r.Get("/readyz", h.Ready)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/render", h.Render)
		r.Get("/info", h.Info)
	})
	return r
}

// Render handles POST /v1/render.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var body renderRequest
	if err := dec.Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, r, http.StatusRequestEntityTooLarge, err)
			return
		}
		h.log.Debug("invalid render body", slog.String("error", err.Error()))
		h.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	req, err := body.toRequest()
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	resp, err := h.svc.Render(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.log.Error("render failed",
				slog.String("request_id", logger.RequestID(r.Context())),
				slog.String("error", err.Error()))
		}
		h.writeError(w, r, status, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// Info handles GET /v1/info.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.Info(r.Context())
	if err != nil {
		h.log.Warn("browser info failed", slog.String("error", err.Error()))
		h.writeError(w, r, http.StatusServiceUnavailable, err)
		return
	}
	h.writeJSON(w, http.StatusOK, info)
}

// Health handles GET /healthz. It answers as long as the process serves HTTP.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// Ready handles GET /readyz.
func (h *Handler) Ready(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if !h.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready\n"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready\n"))
}

// statusFor maps whole-request failures to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pdfrender.ErrInvalidRequest),
		errors.Is(err, pdfrender.ErrEmptyBatch),
		errors.Is(err, pdfrender.ErrInvalidSource),
		errors.Is(err, pdfrender.ErrInvalidPrintOptions),
		errors.Is(err, pdfrender.ErrInvalidPaperFormat):
		return http.StatusBadRequest
	case errors.Is(err, pdfrender.ErrOrchestratorClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warn("writing response failed", slog.String("error", err.Error()))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	h.writeJSON(w, status, errorResponse{
		Error:     err.Error(),
		RequestID: logger.RequestID(r.Context()),
	})
}
