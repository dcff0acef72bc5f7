package pdfrender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-pdfrender/internal/hints"
	"github.com/alnah/go-pdfrender/internal/process"
)

// BrowserOptions configures LaunchBrowser.
type BrowserOptions struct {
	// Bin is the Chrome binary. Empty falls back to ROD_BROWSER_BIN, then
	// to rod's managed download (~/.cache/rod/browser/).
	Bin string

	// NoSandbox disables the Chrome sandbox. It is also turned on by CI=true,
	// ROD_NO_SANDBOX=1 or a ROD_BROWSER_BIN override, as containers need it.
	NoSandbox bool

	// Headless hides the browser window.
	Headless bool

	Logger *slog.Logger
}

// BrowserInfo describes the running browser.
type BrowserInfo struct {
	Product         string `json:"product"`
	ProtocolVersion string `json:"protocolVersion"`
	Revision        string `json:"revision"`
	UserAgent       string `json:"userAgent"`
	JSVersion       string `json:"jsVersion"`
}

// Browser is the process-wide browser shared by every tab renderer.
// It is safe for concurrent use. Close must be called to stop the process.
type Browser struct {
	rod      *rod.Browser
	launcher *launcher.Launcher
	logger   *slog.Logger

	mu       sync.RWMutex
	closed   bool
	closeErr error
}

// LaunchBrowser starts Chrome and connects to it over the DevTools protocol.
func LaunchBrowser(opts BrowserOptions) (*Browser, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	l := launcher.New().Headless(opts.Headless)

	bin := opts.Bin
	if bin == "" {
		bin = os.Getenv("ROD_BROWSER_BIN")
	}
	if bin != "" {
		l = l.Bin(bin)
	}
	if opts.NoSandbox || os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v%s", ErrBrowserConnect, err, hints.ForBrowserConnect())
	}

	rb := rod.New().ControlURL(u)
	if err := rb.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("%w: %v%s", ErrBrowserConnect, err, hints.ForBrowserConnect())
	}

	log.Info("browser started", slog.Int("pid", l.PID()), slog.String("control_url", u))
	return &Browser{rod: rb, launcher: l, logger: log}, nil
}

// Version reads product and protocol details from the running browser.
func (b *Browser) Version(ctx context.Context) (*BrowserInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrBrowserClosed
	}

	v, err := proto.BrowserGetVersion{}.Call(b.rod.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: reading version: %v", ErrBrowserConnect, err)
	}
	return &BrowserInfo{
		Product:         v.Product,
		ProtocolVersion: v.ProtocolVersion,
		Revision:        v.Revision,
		UserAgent:       v.UserAgent,
		JSVersion:       v.JsVersion,
	}, nil
}

// newPage opens a blank tab bound to ctx. The caller owns the tab.
func (b *Browser) newPage(ctx context.Context) (*rod.Page, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrBrowserClosed
	}

	page, err := b.rod.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	return page, nil
}

// Close shuts the browser down and waits for the process to exit.
// Tabs still open are destroyed with it. Later calls return the first result.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return b.closeErr
	}
	b.closed = true

	var errs []error
	if err := b.rod.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing browser connection: %w", err))
	}

	pid := b.launcher.PID()
	b.launcher.Kill()
	if err := process.KillTree(pid); err != nil && !errors.Is(err, process.ErrInvalidPID) {
		errs = append(errs, fmt.Errorf("killing browser processes: %w", err))
	}
	// Waits for exit and removes the temporary profile directory.
	b.launcher.Cleanup()

	b.closeErr = errors.Join(errs...)
	b.logger.Info("browser stopped", slog.Int("pid", pid))
	return b.closeErr
}
