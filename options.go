package pdfrender

import (
	"log/slog"
	"time"
)

// Orchestrator defaults.
const (
	DefaultQueueSize    = 32
	DefaultResultBuffer = 32
	DefaultJobTimeout   = 60 * time.Second
)

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*orchestratorConfig)

type orchestratorConfig struct {
	queueSize    int
	resultBuffer int
	maxTabs      int
	jobTimeout   time.Duration
	logger       *slog.Logger
	recorder     Recorder
}

func defaultOrchestratorConfig() orchestratorConfig {
	return orchestratorConfig{
		queueSize:    DefaultQueueSize,
		resultBuffer: DefaultResultBuffer,
		maxTabs:      ResolveTabLimit(0),
		jobTimeout:   DefaultJobTimeout,
		logger:       slog.New(slog.DiscardHandler),
		recorder:     nopRecorder{},
	}
}

// WithQueueSize sets how many batches may wait for dispatch before Submit blocks.
// Panics if n < 1.
func WithQueueSize(n int) OrchestratorOption {
	if n < 1 {
		panic("pdfrender: WithQueueSize must be at least 1")
	}
	return func(c *orchestratorConfig) {
		c.queueSize = n
	}
}

// WithResultBuffer sets the per-batch result channel capacity.
// Zero makes every job wait for the collector.
func WithResultBuffer(n int) OrchestratorOption {
	return func(c *orchestratorConfig) {
		c.resultBuffer = max(n, 0)
	}
}

// WithMaxTabs caps the tabs one batch holds open at once.
// n <= 0 removes the cap.
func WithMaxTabs(n int) OrchestratorOption {
	return func(c *orchestratorConfig) {
		c.maxTabs = n
	}
}

// WithJobTimeout bounds each job. d <= 0 disables the per-job deadline.
func WithJobTimeout(d time.Duration) OrchestratorOption {
	return func(c *orchestratorConfig) {
		c.jobTimeout = d
	}
}

// WithLogger sets the logger. Nil is ignored.
func WithLogger(l *slog.Logger) OrchestratorOption {
	return func(c *orchestratorConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRecorder reports orchestrator events to r. Nil is ignored.
func WithRecorder(r Recorder) OrchestratorOption {
	return func(c *orchestratorConfig) {
		if r != nil {
			c.recorder = r
		}
	}
}
