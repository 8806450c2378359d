package geocode

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/openmat/matdir/internal/observability"
)

// queueCapacity bounds waiting lookups. The site geocodes one origin ZIP
// plus a handful of legacy city rows, so this is generous.
const queueCapacity = 64

// ErrQueueStopped is returned by Submit once the worker has exited.
var ErrQueueStopped = errors.New("geocode queue stopped")

// Queue runs submitted functions one at a time in FIFO order, waiting a
// fixed courtesy delay after each completes before starting the next. It is
// the single global chokepoint for upstream geocode traffic.
type Queue struct {
	tasks   chan queueTask
	delay   time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
	stopped chan struct{}
}

type queueTask struct {
	run  func()
	done chan struct{}
}

// NewQueue creates a Queue. Call Run on its own goroutine to start the
// worker.
func NewQueue(delay time.Duration, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Queue {
	return &Queue{
		tasks:   make(chan queueTask, queueCapacity),
		delay:   delay,
		clock:   clock,
		metrics: metrics,
		logger:  logger,
		stopped: make(chan struct{}),
	}
}

// Submit enqueues fn and blocks until it has executed or ctx is done. FIFO
// order across all callers is guaranteed by the single channel and single
// worker.
func (q *Queue) Submit(ctx context.Context, fn func()) error {
	t := queueTask{run: fn, done: make(chan struct{})}

	select {
	case q.tasks <- t:
		q.metrics.GeocodeQueueDepth.Set(float64(len(q.tasks)))
	case <-q.stopped:
		return ErrQueueStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-t.done:
		return nil
	case <-q.stopped:
		return ErrQueueStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run is the worker loop: execute one task, signal its submitter, then hold
// for the courtesy delay before starting the next. Exits when ctx is
// cancelled.
func (q *Queue) Run(ctx context.Context) {
	q.logger.Debug("geocode queue started", "delay", q.delay)
	defer close(q.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-q.tasks:
			q.metrics.GeocodeQueueDepth.Set(float64(len(q.tasks)))
			t.run()
			close(t.done)

			if q.delay <= 0 {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case <-q.clock.After(q.delay):
			}
		}
	}
}
