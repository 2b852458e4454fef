package service

import (
	"context"
	"sync"
	"time"

	"pix-webhook-gateway/internal/metrics"

	"github.com/rs/zerolog"
)

// Task is one unit of detached webhook processing.
type Task func(ctx context.Context)

// Dispatcher runs webhook processing detached from the request lifecycle.
// The provider penalizes slow webhook responses, so the HTTP layer
// answers before processing completes; the dispatcher supervises that
// detached work instead of spawning unsupervised goroutines.
//
// The queue is bounded: on saturation a task is dropped with a log line
// rather than blocking the request path (the provider's own retries are
// the recovery mechanism). Each task gets a fresh context with an
// internal timeout, deliberately not derived from the request context —
// the work outlives the request but must not outlive the timeout.
type Dispatcher struct {
	queue       chan Task
	taskTimeout time.Duration
	log         zerolog.Logger

	// mu orders queue sends against the close in Shutdown. Submit never
	// blocks while holding it.
	mu       sync.Mutex
	wg       sync.WaitGroup
	stopOnce sync.Once
	stopped  chan struct{}
}

// NewDispatcher creates a dispatcher with the given number of workers and
// queue capacity, and starts the workers.
func NewDispatcher(workers, queueSize int, taskTimeout time.Duration, log zerolog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	d := &Dispatcher{
		queue:       make(chan Task, queueSize),
		taskTimeout: taskTimeout,
		log:         log,
		stopped:     make(chan struct{}),
	}

	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker(i)
	}
	return d
}

// Submit enqueues a task. Returns false if the queue is full or the
// dispatcher is shutting down.
func (d *Dispatcher) Submit(task Task) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	select {
	case <-d.stopped:
		return false
	default:
	}

	select {
	case d.queue <- task:
		metrics.DispatcherQueueDepth.Set(float64(len(d.queue)))
		return true
	default:
		metrics.DispatcherDropped.Inc()
		d.log.Warn().Int("queue_size", cap(d.queue)).Msg("dispatcher queue full, task dropped")
		return false
	}
}

// Shutdown stops accepting tasks and waits for in-flight work to finish,
// bounded by ctx.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.stopOnce.Do(func() {
		close(d.stopped)
		// A Submit holding mu may still be sending; take mu so the close
		// cannot interleave with that send.
		d.mu.Lock()
		close(d.queue)
		d.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for task := range d.queue {
		d.run(id, task)
	}
}

// run executes one task with a bounded context and panic supervision.
func (d *Dispatcher) run(worker int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Int("worker", worker).Msg("dispatcher task panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.taskTimeout)
	defer cancel()

	task(ctx)
	metrics.DispatcherQueueDepth.Set(float64(len(d.queue)))
}
