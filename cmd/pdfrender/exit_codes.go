package main

import (
	"errors"

	pdfrender "github.com/alnah/go-pdfrender"
	"github.com/alnah/go-pdfrender/internal/config"
)

// Sentinel errors raised by the binary itself.
var (
	ErrUsage  = errors.New("invalid usage")
	ErrListen = errors.New("cannot listen")
)

// Exit codes for the pdfrender server.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Clean shutdown
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags or config
	ExitListen  = 3 // Address in use, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, pdfrender.ErrBrowserConnect) ||
		errors.Is(err, pdfrender.ErrBrowserClosed) {
		return ExitBrowser
	}

	if errors.Is(err, ErrListen) {
		return ExitListen
	}

	if errors.Is(err, ErrUsage) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrInvalidConfig) ||
		errors.Is(err, config.ErrEnvOverride) {
		return ExitUsage
	}

	return ExitGeneral
}
