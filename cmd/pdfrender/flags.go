package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-pdfrender/internal/config"
)

// serverFlags holds command-line overrides. Only flags the user set are
// applied on top of the loaded configuration.
type serverFlags struct {
	config     string
	host       string
	port       int
	logLevel   string
	logFormat  string
	maxTabs    int
	jobTimeout time.Duration
	verbose    bool
	version    bool

	set *flag.FlagSet
}

// parseFlags parses args (without the program name). Help output goes to stderr.
func parseFlags(args []string, stderr io.Writer) (*serverFlags, error) {
	f := &serverFlags{}
	fs := flag.NewFlagSet("pdfrender", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: pdfrender [flags]\n\nRenders HTML, URLs and Markdown to PDF over HTTP.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringVar(&f.host, "host", "", "listen host (server.host)")
	fs.IntVarP(&f.port, "port", "p", 0, "listen port (server.port)")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (logger.level)")
	fs.StringVar(&f.logFormat, "log-format", "", "json or text (logger.format)")
	fs.IntVar(&f.maxTabs, "max-tabs", 0, "concurrent tabs per batch, negative for no cap (renderer.maxTabs)")
	fs.DurationVar(&f.jobTimeout, "job-timeout", 0, "per-job render deadline (renderer.jobTimeout)")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")
	fs.BoolVar(&f.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected arguments %v", ErrUsage, fs.Args())
	}
	f.set = fs
	return f, nil
}

// apply overlays the flags the user set onto cfg and revalidates it.
func (f *serverFlags) apply(cfg *config.Config) error {
	changed := f.set.Changed
	if changed("host") {
		cfg.Server.Host = f.host
	}
	if changed("port") {
		cfg.Server.Port = f.port
	}
	if changed("log-level") {
		cfg.Logger.Level = f.logLevel
	}
	if changed("log-format") {
		cfg.Logger.Format = f.logFormat
	}
	if changed("max-tabs") {
		cfg.Renderer.MaxTabs = f.maxTabs
	}
	if changed("job-timeout") {
		cfg.Renderer.JobTimeout = config.Duration(f.jobTimeout)
	}
	if f.verbose {
		cfg.Logger.Level = "debug"
	}
	return cfg.Validate()
}
