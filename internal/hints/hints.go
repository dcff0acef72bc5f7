// Package hints appends actionable advice to startup and render errors.
// Every hint is formatted as "\n  hint: <text>".
package hints

import (
	"os"
	"strings"
)

// IsInContainer reports whether the process runs in a Docker-like container.
var IsInContainer = func() bool {
	info, err := os.Stat("/.dockerenv")
	return err == nil && !info.IsDir()
}

// ForBrowserConnect suggests sandbox and binary settings when the browser
// fails to start.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && os.Getenv("PDFRENDER_BROWSER_NO_SANDBOX") == "" && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set PDFRENDER_BROWSER_NO_SANDBOX=true (or browser.noSandbox) in Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" && os.Getenv("PDFRENDER_BROWSER_BIN") == "" {
		hints = append(hints, "set browser.bin or ROD_BROWSER_BIN to use an installed Chrome")
	}

	return formatHints(hints)
}

// ForJobTimeout suggests raising the per-job deadline.
func ForJobTimeout() string {
	return format("slow pages need a larger renderer.jobTimeout (--job-timeout)")
}

// ForConfigNotFound suggests --config or a file in the user config directory.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"
	for _, p := range searchedPaths {
		if strings.Contains(p, "go-pdfrender") {
			hint += " or create " + p
			break
		}
	}
	return format(hint)
}

// ForListen suggests a different port when the listener cannot bind.
func ForListen(addr string) string {
	return format("is another process using " + addr + "? change server.port (--port)")
}

func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
