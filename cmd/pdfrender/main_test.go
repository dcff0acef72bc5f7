package main

// Notes:
// - runMain: only paths that exit before the browser starts are covered
//   here (version, help, bad flags, bad config). The serving path needs
//   Chrome and is exercised manually.
// - listen: the busy-port case binds a real loopback port.

import (
	"bytes"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-pdfrender/internal/config"
)

// ---------------------------------------------------------------------------
// TestRunMain - Early exits
// ---------------------------------------------------------------------------

func TestRunMain(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	badYAML := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(badYAML, []byte("server:\n  port: [nope\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	unknownKey := filepath.Join(dir, "unknown.yaml")
	if err := os.WriteFile(unknownKey, []byte("server:\n  colour: blue\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		args       []string
		want       int
		wantStdout string
		wantStderr string
	}{
		{name: "version", args: []string{"--version"}, want: ExitSuccess, wantStdout: "pdfrender dev"},
		{name: "help", args: []string{"--help"}, want: ExitSuccess, wantStderr: "Usage: pdfrender"},
		{name: "unknown flag", args: []string{"--colour"}, want: ExitUsage, wantStderr: "invalid usage"},
		{name: "bad port value", args: []string{"--port", "http"}, want: ExitUsage},
		{name: "positional argument", args: []string{"serve"}, want: ExitUsage, wantStderr: "unexpected arguments"},
		{name: "missing config file", args: []string{"--config", filepath.Join(dir, "none.yaml")}, want: ExitUsage, wantStderr: "config file not found"},
		{name: "missing config name", args: []string{"--config", "no-such-pdfrender-config"}, want: ExitUsage, wantStderr: "hint:"},
		{name: "malformed config", args: []string{"--config", badYAML}, want: ExitUsage, wantStderr: "failed to parse config"},
		{name: "unknown config key", args: []string{"--config", unknownKey}, want: ExitUsage},
		{name: "invalid flag value", args: []string{"--log-level", "loud"}, want: ExitUsage, wantStderr: "invalid config"},
		{name: "port out of range", args: []string{"--port", "70000"}, want: ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var stdout, stderr bytes.Buffer
			got := runMain(tt.args, &stdout, &stderr)
			if got != tt.want {
				t.Errorf("runMain(%v) = %d, want %d\nstderr: %s", tt.args, got, tt.want, stderr.String())
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want it to contain %q", stdout.String(), tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestServerFlags - Parsing and overlay onto config
// ---------------------------------------------------------------------------

func TestServerFlags_Apply(t *testing.T) {
	t.Parallel()

	flags, err := parseFlags([]string{
		"--host", "127.0.0.1",
		"-p", "9090",
		"--log-format", "text",
		"--max-tabs", "-1",
		"--job-timeout", "2m",
		"-v",
	}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseFlags() error: %v", err)
	}

	cfg := config.DefaultConfig()
	if err := flags.apply(cfg); err != nil {
		t.Fatalf("apply() error: %v", err)
	}

	if cfg.Server.Addr() != "127.0.0.1:9090" {
		t.Errorf("Addr() = %q", cfg.Server.Addr())
	}
	if cfg.Logger.Format != "text" || cfg.Logger.Level != "debug" {
		t.Errorf("logger = %+v", cfg.Logger)
	}
	if cfg.Renderer.MaxTabs != -1 {
		t.Errorf("MaxTabs = %d, want -1", cfg.Renderer.MaxTabs)
	}
	if cfg.Renderer.JobTimeout.Std() != 2*time.Minute {
		t.Errorf("JobTimeout = %v, want 2m", cfg.Renderer.JobTimeout.Std())
	}
}

func TestServerFlags_UnsetKeepConfig(t *testing.T) {
	t.Parallel()

	flags, err := parseFlags(nil, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseFlags() error: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Server.Port = 7000
	cfg.Renderer.MaxTabs = 3
	if err := flags.apply(cfg); err != nil {
		t.Fatalf("apply() error: %v", err)
	}
	if cfg.Server.Port != 7000 || cfg.Renderer.MaxTabs != 3 {
		t.Errorf("unset flags overwrote config: port %d, maxTabs %d", cfg.Server.Port, cfg.Renderer.MaxTabs)
	}
}

// ---------------------------------------------------------------------------
// TestListen - Address binding
// ---------------------------------------------------------------------------

func TestListen(t *testing.T) {
	t.Parallel()

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer busy.Close()
	port := busy.Addr().(*net.TCPAddr).Port

	_, err = listen(config.ServerConfig{Host: "127.0.0.1", Port: port})
	if !errors.Is(err, ErrListen) {
		t.Errorf("listen() on busy port error = %v, want ErrListen", err)
	}
	if err != nil && !strings.Contains(err.Error(), "hint:") {
		t.Errorf("error %q should carry a hint", err)
	}

	ln, err := listen(config.ServerConfig{Host: "127.0.0.1", Port: 0, MaxConnections: 4})
	if err != nil {
		t.Fatalf("listen() error: %v", err)
	}
	ln.Close()
}

func TestEffectiveMaxTabs(t *testing.T) {
	t.Parallel()

	if got := effectiveMaxTabs(5); got != 5 {
		t.Errorf("effectiveMaxTabs(5) = %d", got)
	}
	if got := effectiveMaxTabs(-1); got != 0 {
		t.Errorf("effectiveMaxTabs(-1) = %d, want 0", got)
	}
	if got := effectiveMaxTabs(0); got < 1 {
		t.Errorf("effectiveMaxTabs(0) = %d, want derived positive value", got)
	}
}
