package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWithWriter(t *testing.T) {
	t.Parallel()

	t.Run("json filters below level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := NewWithWriter(&buf, "warn", "json")
		log.Info("hidden")
		log.Warn("shown", "k", 1)

		out := strings.TrimSpace(buf.String())
		if strings.Contains(out, "hidden") {
			t.Error("info record written at warn level")
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(out), &rec); err != nil {
			t.Fatalf("output is not JSON: %q", out)
		}
		if rec["msg"] != "shown" {
			t.Errorf("msg = %v, want shown", rec["msg"])
		}
	})

	t.Run("text format", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		NewWithWriter(&buf, "info", "TEXT").Info("hello")
		if !strings.Contains(buf.String(), "msg=hello") {
			t.Errorf("text output = %q", buf.String())
		}
	})
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	if Discard().Enabled(t.Context(), slog.LevelError) {
		t.Error("discard logger reports enabled")
	}
}

// ---------------------------------------------------------------------------
// TestRequestLogger - Middleware
// ---------------------------------------------------------------------------

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "json")

	var seen string
	h := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("abc"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/render", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("request id %q is not a UUID", seen)
	}
	if got := rec.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("response header id = %q, want %q", got, seen)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log entry is not JSON: %q", buf.String())
	}
	want := map[string]any{
		"request_id": seen,
		"method":     "POST",
		"path":       "/v1/render",
		"status":     float64(http.StatusTeapot),
		"size":       float64(3),
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("log %s = %v, want %v", k, entry[k], v)
		}
	}
}

func TestRequestLogger_ReusesIncomingID(t *testing.T) {
	t.Parallel()

	incoming := uuid.NewString()
	var seen string
	h := RequestLogger(Discard())(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, incoming)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen != incoming {
		t.Errorf("request id = %q, want incoming %q", seen, incoming)
	}
}

func TestRequestLogger_ReplacesInvalidID(t *testing.T) {
	t.Parallel()

	var seen string
	h := RequestLogger(Discard())(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen == "<script>" {
		t.Error("invalid incoming id was kept")
	}
}
