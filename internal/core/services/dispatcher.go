package services

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driving"
	"github.com/custodia-labs/bookingest/internal/logger"
)

// Ensure Dispatcher implements the interface.
var _ driving.JobQueue = (*Dispatcher)(nil)

var (
	// ErrQueueFull is returned by Submit when the job queue has no room.
	ErrQueueFull = errors.New("ingest queue is full")

	// ErrDispatcherStopped is returned by Submit after Stop.
	ErrDispatcherStopped = errors.New("ingest dispatcher is stopped")
)

// Dispatcher runs submitted jobs in the background on a fixed pool of
// workers. Outcomes are reported by the ingest service itself; the
// dispatcher only logs them.
type Dispatcher struct {
	ingest   driving.IngestService
	workers  int
	queue    chan *domain.IngestJob
	onResult []func(*domain.IngestJob, []domain.Result)

	mu      sync.Mutex
	running bool
	stopped bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher with the given worker count and queue depth.
func NewDispatcher(ingest driving.IngestService, workers, depth int) *Dispatcher {
	return &Dispatcher{
		ingest:  ingest,
		workers: max(workers, 1),
		queue:   make(chan *domain.IngestJob, max(depth, 1)),
	}
}

// OnResult registers a callback invoked after each job. Must be called before Start.
func (d *Dispatcher) OnResult(fn func(*domain.IngestJob, []domain.Result)) {
	d.onResult = append(d.onResult, fn)
}

// Submit enqueues a job without blocking. Jobs submitted before Start wait
// in the queue.
func (d *Dispatcher) Submit(job *domain.IngestJob) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return ErrDispatcherStopped
	}
	select {
	case d.queue <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the workers and blocks until Stop is called or ctx ends.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running || d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.running = true
	d.stopCh = make(chan struct{})
	stopCh := d.stopCh
	d.mu.Unlock()

	for range d.workers {
		d.wg.Add(1)
		go d.work(ctx, stopCh)
	}

	select {
	case <-ctx.Done():
		d.Stop() //nolint:errcheck
		return ctx.Err()
	case <-stopCh:
		return nil
	}
}

// Stop stops accepting jobs and waits for running ones to finish.
// Jobs still queued are dropped. A stopped dispatcher cannot be restarted.
func (d *Dispatcher) Stop() error {
	d.mu.Lock()
	d.stopped = true
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	close(d.stopCh)
	d.mu.Unlock()

	d.wg.Wait()
	return nil
}

func (d *Dispatcher) work(ctx context.Context, stopCh <-chan struct{}) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case job := <-d.queue:
			d.run(ctx, job)
		}
	}
}

func (d *Dispatcher) run(ctx context.Context, job *domain.IngestJob) {
	results := d.ingest.Run(ctx, job)
	for _, res := range results {
		if res.IsOk() {
			logger.Info("Job %s: %s ingested (%d pages)", job.ID, res.Volume.PID, res.Pages)
			continue
		}
		logger.Warn("Job %s: %s failed (%s): %v", job.ID, res.Bundle, res.Kind, res.Err)
	}
	for _, fn := range d.onResult {
		fn(job, results)
	}
}
