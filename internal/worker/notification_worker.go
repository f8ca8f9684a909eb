package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a unit of background work. It receives a context bounded by the
// worker's per-job timeout and detached from any request.
type Job func(ctx context.Context)

// NotificationWorker runs notification deliveries off the request path on a
// fixed number of goroutines. Jobs are never retried; a full queue drops them.
type NotificationWorker struct {
	jobs    chan Job
	workers int
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewNotificationWorker builds a stopped worker.
func NewNotificationWorker(workers, queueSize int, timeout time.Duration, logger *zap.Logger) *NotificationWorker {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &NotificationWorker{
		jobs:    make(chan Job, queueSize),
		workers: workers,
		timeout: timeout,
		logger:  logger,
	}
}

// Start launches the worker goroutines.
func (w *NotificationWorker) Start() {
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.loop()
	}
}

// Submit enqueues job without blocking. It reports false when the queue is
// full or the worker has been stopped.
func (w *NotificationWorker) Submit(job Job) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return false
	}
	select {
	case w.jobs <- job:
		return true
	default:
		w.logger.Warn("notification queue full; dropping job")
		return false
	}
}

// Stop refuses new jobs and waits for queued ones to finish or ctx to end.
func (w *NotificationWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		close(w.jobs)
	}
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *NotificationWorker) loop() {
	defer w.wg.Done()
	for job := range w.jobs {
		w.run(job)
	}
}

func (w *NotificationWorker) run(job Job) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("notification job panicked", zap.Any("panic", r))
		}
	}()
	ctx := context.Background()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	job(ctx)
}
