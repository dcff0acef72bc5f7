package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Recorders(t *testing.T) {
	t.Parallel()

	m := New()
	m.BatchQueued()
	m.BatchQueued()
	m.BatchDequeued()
	m.TabOpened()
	m.TabOpened()
	m.TabClosed()
	m.JobDone("ok", 200*time.Millisecond)
	m.JobDone("timeout", time.Minute)
	m.MergeDone(nil)
	m.MergeDone(errors.New("boom"))
	m.UploadDone(nil)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"batches_total", testutil.ToFloat64(m.batchesTotal), 2},
		{"queue_depth", testutil.ToFloat64(m.queueDepth), 1},
		{"open_tabs", testutil.ToFloat64(m.openTabs), 1},
		{"jobs ok", testutil.ToFloat64(m.jobsTotal.WithLabelValues("ok")), 1},
		{"jobs timeout", testutil.ToFloat64(m.jobsTotal.WithLabelValues("timeout")), 1},
		{"merges ok", testutil.ToFloat64(m.mergesTotal.WithLabelValues("ok")), 1},
		{"merges failed", testutil.ToFloat64(m.mergesTotal.WithLabelValues("failed")), 1},
		{"uploads ok", testutil.ToFloat64(m.uploadsTotal.WithLabelValues("ok")), 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestRequestMiddleware(t *testing.T) {
	t.Parallel()

	m := New()
	h := RequestMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusBadRequest)
		}
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/bad", nil))

	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "200")); got != 1 {
		t.Errorf("GET 200 = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("POST", "400")); got != 1 {
		t.Errorf("POST 400 = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.errorsTotal); got != 1 {
		t.Errorf("errors = %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	t.Parallel()

	m := New()
	m.BatchQueued()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{"pdfrender_batches_total 1", "pdfrender_queue_depth 1", "go_goroutines"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
