package pdfrender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// batch is one submitted group of jobs and the channel its results go to.
type batch struct {
	id   string
	ctx  context.Context
	jobs []Job
	sink chan Result
}

// Orchestrator renders batches of jobs concurrently and delivers each
// batch's results in submission order.
//
// Batches wait in a bounded queue. The dispatcher runs each batch in its
// own goroutine; every job of a batch runs in its own goroutine, at most
// maxTabs at a time. A batch always yields exactly one Result per job.
type Orchestrator struct {
	renderer TabRenderer
	cfg      orchestratorConfig
	log      *slog.Logger

	queue   chan *batch
	closing chan struct{} // closed when Close starts; unblocks Submit
	stop    chan struct{} // closed once no Submit can still enqueue

	mu         sync.RWMutex
	started    bool
	closed     bool
	submitters sync.WaitGroup
	dispatcher sync.WaitGroup
	batches    sync.WaitGroup
	closeOnce  sync.Once
}

// NewOrchestrator creates an orchestrator backed by renderer.
// Panics if renderer is nil.
func NewOrchestrator(renderer TabRenderer, opts ...OrchestratorOption) *Orchestrator {
	if renderer == nil {
		panic("pdfrender: nil TabRenderer in NewOrchestrator")
	}

	cfg := defaultOrchestratorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Orchestrator{
		renderer: renderer,
		cfg:      cfg,
		log:      cfg.logger,
		queue:    make(chan *batch, cfg.queueSize),
		closing:  make(chan struct{}),
		stop:     make(chan struct{}),
	}
}

// Start launches the dispatcher. Cancelling ctx closes the orchestrator.
// Calling Start more than once has no effect.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started || o.closed {
		return
	}
	o.started = true

	o.dispatcher.Add(1)
	go o.dispatch()

	context.AfterFunc(ctx, func() { _ = o.Close() })
}

// Close stops accepting batches, runs the batches already queued and
// waits for every batch to be delivered.
func (o *Orchestrator) Close() error {
	o.closeOnce.Do(func() {
		o.mu.Lock()
		o.closed = true
		started := o.started
		close(o.closing)
		o.mu.Unlock()

		o.submitters.Wait()
		close(o.stop)

		if !started {
			// No dispatcher: deliver queued batches here.
			o.drain()
		}
		o.dispatcher.Wait()
		o.batches.Wait()
		o.log.Info("orchestrator stopped")
	})
	return nil
}

// Submit queues jobs as one batch and returns the channel its results
// arrive on, in job order. The channel is closed after the last result.
// Submit blocks while the queue is full.
func (o *Orchestrator) Submit(ctx context.Context, jobs []Job) (<-chan Result, error) {
	if len(jobs) == 0 {
		return nil, ErrEmptyBatch
	}

	o.mu.RLock()
	if o.closed {
		o.mu.RUnlock()
		return nil, ErrOrchestratorClosed
	}
	o.submitters.Add(1)
	o.mu.RUnlock()
	defer o.submitters.Done()

	b := &batch{
		id:   uuid.NewString(),
		ctx:  ctx,
		jobs: jobs,
		sink: make(chan Result, len(jobs)),
	}

	select {
	case o.queue <- b:
		o.cfg.recorder.BatchQueued()
		o.log.Debug("batch queued", slog.String("batch_id", b.id), slog.Int("jobs", len(jobs)))
		return b.sink, nil
	case <-o.closing:
		return nil, ErrOrchestratorClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Render submits jobs and waits for all results, ordered by index.
func (o *Orchestrator) Render(ctx context.Context, jobs []Job) ([]Result, error) {
	sink, err := o.Submit(ctx, jobs)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(jobs))
	for r := range sink {
		results = append(results, r)
	}
	return results, nil
}

func (o *Orchestrator) dispatch() {
	defer o.dispatcher.Done()

	for {
		select {
		case b := <-o.queue:
			o.startBatch(b)
		case <-o.stop:
			o.drain()
			return
		}
	}
}

// drain starts every batch left in the queue. Only called after stop.
func (o *Orchestrator) drain() {
	for {
		select {
		case b := <-o.queue:
			o.startBatch(b)
		default:
			return
		}
	}
}

func (o *Orchestrator) startBatch(b *batch) {
	o.cfg.recorder.BatchDequeued()
	o.batches.Add(1)
	go func() {
		defer o.batches.Done()
		o.runBatch(b)
	}()
}

// runBatch moves a batch through dispatching, collecting, reordering and
// delivery.
func (o *Orchestrator) runBatch(b *batch) {
	log := o.log.With(slog.String("batch_id", b.id))
	n := len(b.jobs)

	log.Debug("batch dispatching", slog.Int("jobs", n))
	var sem *semaphore.Weighted
	if o.cfg.maxTabs > 0 {
		sem = semaphore.NewWeighted(int64(o.cfg.maxTabs))
	}

	results := make(chan Result, o.cfg.resultBuffer)
	for i, job := range b.jobs {
		go func() {
			results <- o.runJob(b.ctx, log, sem, i, job)
		}()
	}

	log.Debug("batch collecting")
	collected := make([]Result, 0, n)
	for range n {
		collected = append(collected, <-results)
	}

	log.Debug("batch reordering")
	sort.Slice(collected, func(i, j int) bool {
		return collected[i].Index < collected[j].Index
	})

	for _, r := range collected {
		b.sink <- r
	}
	close(b.sink)
	log.Debug("batch delivered")
}

// runJob renders one job. It never panics and always returns a Result for index.
func (o *Orchestrator) runJob(ctx context.Context, log *slog.Logger, sem *semaphore.Weighted, index int, job Job) (res Result) {
	res.Index = index

	if sem != nil {
		if err := sem.Acquire(ctx, 1); err != nil {
			res.Err = &JobError{Index: index, Err: err}
			o.cfg.recorder.JobDone(OutcomeFailed, 0)
			return res
		}
		defer sem.Release(1)
	}

	jobCtx := ctx
	if o.cfg.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, o.cfg.jobTimeout)
		defer cancel()
	}

	start := time.Now()
	o.cfg.recorder.TabOpened()
	defer func() {
		o.cfg.recorder.TabClosed()
		if r := recover(); r != nil {
			res = Result{Index: index, Err: fmt.Errorf("internal error: %v", r)}
		}

		outcome := OutcomeOK
		if res.Err != nil {
			res.Err = o.classify(ctx, jobCtx, res.Err)
			outcome = OutcomeFailed
			if errors.Is(res.Err, ErrJobTimeout) {
				outcome = OutcomeTimeout
			}
			res.Err = &JobError{Index: index, Err: res.Err}
			log.Warn("job failed", slog.Int("index", index), slog.Any("error", res.Err))
		}
		o.cfg.recorder.JobDone(outcome, time.Since(start))
	}()

	data, err := o.renderer.Render(jobCtx, job)
	if err != nil {
		res.Err = err
		return res
	}
	res.PDF = data
	return res
}

// classify attributes a failure to the job deadline or the caller's
// cancellation when either ended the job.
func (o *Orchestrator) classify(parent, job context.Context, err error) error {
	switch {
	case parent.Err() != nil:
		if errors.Is(err, parent.Err()) {
			return err
		}
		return fmt.Errorf("%w: %v", parent.Err(), err)
	case errors.Is(job.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w after %s: %v", ErrJobTimeout, o.cfg.jobTimeout, err)
	default:
		return err
	}
}
