package pdfrender

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

// htmlServerShutdownTimeout bounds how long close waits for the served
// request to finish.
const htmlServerShutdownTimeout = 5 * time.Second

// htmlServer hands one HTML document to one browser tab over loopback.
// The first request gets the document; any later request gets 410 Gone.
type htmlServer struct {
	srv      *http.Server
	listener net.Listener
	done     chan struct{}

	mu     sync.Mutex
	body   []byte
	served bool
}

// startHTMLServer listens on an ephemeral loopback port. The caller must
// call close on every path.
func startHTMLServer(html string) (*htmlServer, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("%w: listening for HTML source: %v", ErrPageLoad, err)
	}

	s := &htmlServer{
		listener: ln,
		body:     []byte(html),
		done:     make(chan struct{}),
	}
	s.srv = &http.Server{
		Handler:           http.HandlerFunc(s.serveHTTP),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		defer close(s.done)
		_ = s.srv.Serve(ln)
	}()
	return s, nil
}

// URL is the address the tab navigates to.
func (s *htmlServer) URL() string {
	return "http://" + s.listener.Addr().String() + "/"
}

func (s *htmlServer) serveHTTP(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	if s.served {
		s.mu.Unlock()
		http.Error(w, "document already served", http.StatusGone)
		return
	}
	s.served = true
	body := s.body
	s.body = nil
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// close stops the listener and waits for the serve loop to return.
func (s *htmlServer) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), htmlServerShutdownTimeout)
	defer cancel()

	err := s.srv.Shutdown(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		err = s.srv.Close()
	}
	<-s.done
	return err
}
