package hints

// Notes:
// - ForBrowserConnect tests cannot use t.Parallel(): they call t.Setenv and
//   replace the package-level IsInContainer.

import (
	"strings"
	"testing"
)

func stubContainer(t *testing.T, in bool) {
	t.Helper()
	orig := IsInContainer
	t.Cleanup(func() { IsInContainer = orig })
	IsInContainer = func() bool { return in }
}

func clearBrowserEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "ROD_NO_SANDBOX", "ROD_BROWSER_BIN", "PDFRENDER_BROWSER_NO_SANDBOX", "PDFRENDER_BROWSER_BIN"} {
		t.Setenv(k, "")
	}
}

// ---------------------------------------------------------------------------
// TestForBrowserConnect - Environment detection
// ---------------------------------------------------------------------------

func TestForBrowserConnect(t *testing.T) {
	tests := []struct {
		name        string
		container   bool
		env         map[string]string
		wantSandbox bool
		wantBin     bool
	}{
		{"plain host", false, nil, false, true},
		{"ci", false, map[string]string{"CI": "true"}, true, true},
		{"docker", true, nil, true, true},
		{"docker sandbox already off", true, map[string]string{"PDFRENDER_BROWSER_NO_SANDBOX": "true"}, false, true},
		{"docker rod sandbox already off", true, map[string]string{"ROD_NO_SANDBOX": "1"}, false, true},
		{"binary configured", false, map[string]string{"ROD_BROWSER_BIN": "/usr/bin/chromium"}, false, false},
		{"binary configured via app env", false, map[string]string{"PDFRENDER_BROWSER_BIN": "/usr/bin/chromium"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubContainer(t, tt.container)
			clearBrowserEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			hint := ForBrowserConnect()
			if got := strings.Contains(hint, "NO_SANDBOX"); got != tt.wantSandbox {
				t.Errorf("sandbox hint = %v, want %v (%q)", got, tt.wantSandbox, hint)
			}
			if got := strings.Contains(hint, "ROD_BROWSER_BIN"); got != tt.wantBin {
				t.Errorf("binary hint = %v, want %v (%q)", got, tt.wantBin, hint)
			}
			if hint != "" && !strings.HasPrefix(hint, "\n  hint: ") {
				t.Errorf("hint not formatted: %q", hint)
			}
		})
	}
}

func TestForBrowserConnect_NothingToSuggest(t *testing.T) {
	stubContainer(t, false)
	clearBrowserEnv(t)
	t.Setenv("ROD_BROWSER_BIN", "/usr/bin/chromium")

	if hint := ForBrowserConnect(); hint != "" {
		t.Errorf("ForBrowserConnect() = %q, want empty", hint)
	}
}

// ---------------------------------------------------------------------------
// TestForConfigNotFound - Path suggestions
// ---------------------------------------------------------------------------

func TestForConfigNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		paths []string
		want  string
	}{
		{
			name:  "suggests user config path",
			paths: []string{"server.yaml", "/home/u/.config/go-pdfrender/server.yaml"},
			want:  "\n  hint: use --config /path/to/file.yaml or create /home/u/.config/go-pdfrender/server.yaml",
		},
		{
			name:  "no user path",
			paths: []string{"server.yaml"},
			want:  "\n  hint: use --config /path/to/file.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ForConfigNotFound(tt.paths); got != tt.want {
				t.Errorf("ForConfigNotFound() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSingleHints(t *testing.T) {
	t.Parallel()

	if got := ForJobTimeout(); !strings.Contains(got, "--job-timeout") {
		t.Errorf("ForJobTimeout() = %q", got)
	}
	if got := ForListen("0.0.0.0:8080"); !strings.Contains(got, "0.0.0.0:8080") || !strings.Contains(got, "--port") {
		t.Errorf("ForListen() = %q", got)
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	if format("") != "" {
		t.Error("empty hint must stay empty")
	}
	if formatHints(nil) != "" {
		t.Error("no hints must be empty")
	}
	if got := formatHints([]string{"a", "b"}); got != "\n  hint: a; b" {
		t.Errorf("formatHints() = %q", got)
	}
}
