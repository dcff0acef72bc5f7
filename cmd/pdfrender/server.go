package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime"
	"time"

	"golang.org/x/net/netutil"

	pdfrender "github.com/alnah/go-pdfrender"
	"github.com/alnah/go-pdfrender/internal/config"
	"github.com/alnah/go-pdfrender/internal/hints"
	"github.com/alnah/go-pdfrender/internal/httpapi"
	"github.com/alnah/go-pdfrender/internal/metrics"
	"github.com/alnah/go-pdfrender/internal/upload"
)

const readHeaderTimeout = 10 * time.Second

// run starts the browser, the render pipeline and the HTTP server, then
// blocks until ctx is done or the server fails. Shutdown order: readiness,
// HTTP server, orchestrator, browser.
func run(ctx context.Context, cfg *config.Config, log *slog.Logger) (err error) {
	met := metrics.New()

	browser, err := pdfrender.LaunchBrowser(pdfrender.BrowserOptions{
		Bin:       cfg.Browser.Bin,
		NoSandbox: cfg.Browser.NoSandbox,
		Headless:  cfg.Browser.Headless,
		Logger:    log,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := browser.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing browser: %w", cerr))
		}
	}()

	ln, err := listen(cfg.Server)
	if err != nil {
		return err
	}

	orchOpts := []pdfrender.OrchestratorOption{
		pdfrender.WithQueueSize(cfg.Renderer.QueueSize),
		pdfrender.WithResultBuffer(cfg.Renderer.ResultBuffer),
		pdfrender.WithJobTimeout(cfg.Renderer.JobTimeout.Std()),
		pdfrender.WithLogger(log),
		pdfrender.WithRecorder(met),
	}
	if cfg.Renderer.MaxTabs != 0 {
		orchOpts = append(orchOpts, pdfrender.WithMaxTabs(cfg.Renderer.MaxTabs))
	}
	orch := pdfrender.NewOrchestrator(pdfrender.NewRodTabRenderer(browser), orchOpts...)
	orch.Start(context.Background())
	defer orch.Close()

	svcOpts := []pdfrender.ServiceOption{
		pdfrender.WithVersioner(browser),
		pdfrender.WithServiceLogger(log),
		pdfrender.WithServiceRecorder(met),
	}
	if cfg.S3.Enabled() {
		up, err := upload.New(ctx, upload.Config{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			ln.Close()
			return fmt.Errorf("configuring uploads: %w", err)
		}
		svcOpts = append(svcOpts, pdfrender.WithUploader(up))
	}
	svc := pdfrender.NewService(orch, svcOpts...)

	h := httpapi.NewHandler(svc, log, cfg.Server.MessageSizeLimit)
	srv := &http.Server{
		Handler:           httpapi.NewRouter(h, log, met),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()
	h.SetReady(true)

	log.Info("server started",
		slog.String("addr", ln.Addr().String()),
		slog.Int("gomaxprocs", runtime.GOMAXPROCS(0)),
		slog.Int("max_tabs", effectiveMaxTabs(cfg.Renderer.MaxTabs)),
		slog.Duration("job_timeout", cfg.Renderer.JobTimeout.Std()),
		slog.Bool("uploads", cfg.S3.Enabled()))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, draining connections")
	case err := <-serveErr:
		h.SetReady(false)
		return fmt.Errorf("serving HTTP: %w", err)
	}

	h.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// listen binds the HTTP address, capping concurrent connections when configured.
func listen(cfg config.ServerConfig) (net.Listener, error) {
	addr := cfg.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w on %s: %v%s", ErrListen, addr, err, hints.ForListen(addr))
	}
	if cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, cfg.MaxConnections)
	}
	return ln, nil
}

// effectiveMaxTabs reports the tab cap the orchestrator uses; 0 means no cap.
func effectiveMaxTabs(configured int) int {
	switch {
	case configured == 0:
		return pdfrender.ResolveTabLimit(0)
	case configured < 0:
		return 0
	default:
		return configured
	}
}
