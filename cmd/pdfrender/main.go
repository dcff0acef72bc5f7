package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/alnah/go-pdfrender/internal/config"
	"github.com/alnah/go-pdfrender/internal/hints"
	"github.com/alnah/go-pdfrender/internal/logger"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	os.Exit(runMain(os.Args[1:], os.Stdout, os.Stderr))
}

// runMain runs the server until a signal arrives and returns the exit code.
func runMain(args []string, stdout, stderr io.Writer) int {
	flags, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintln(stderr, err)
		return exitCodeFor(err)
	}

	if flags.version {
		fmt.Fprintf(stdout, "pdfrender %s\n", Version)
		return ExitSuccess
	}

	cfg, err := config.Load(flags.config)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, config.ErrConfigNotFound) {
			msg += hints.ForConfigNotFound(config.SearchPaths(flags.config))
		}
		fmt.Fprintln(stderr, msg)
		return exitCodeFor(err)
	}
	if err := flags.apply(cfg); err != nil {
		fmt.Fprintln(stderr, err)
		return exitCodeFor(err)
	}

	log := logger.NewWithWriter(stdout, cfg.Logger.Level, cfg.Logger.Format)

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply.
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		log.Debug(fmt.Sprintf(format, args...))
	}))

	ctx, stop := notifyContext(context.Background())
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server failed", slog.String("error", err.Error()))
		return exitCodeFor(err)
	}
	return ExitSuccess
}
