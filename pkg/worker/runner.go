package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/risklattice/pkg/logger"
)

// Worker interface that background workers should implement
type Worker interface {
	// Name returns worker name for logging
	Name() string
	// Run executes one iteration of work
	Run(ctx context.Context) error
}

// Stats describes the run history of a periodic worker
type Stats struct {
	LastRun             time.Time
	LastError           error
	Runs                int
	Failures            int
	ConsecutiveFailures int
}

// PeriodicWorker wraps a Worker with periodic execution
type PeriodicWorker struct {
	worker   Worker
	interval time.Duration
	wg       *sync.WaitGroup
	name     string

	statsMu sync.RWMutex
	stats   Stats
}

// NewPeriodicWorker creates new periodic worker
func NewPeriodicWorker(worker Worker, interval time.Duration) *PeriodicWorker {
	return &PeriodicWorker{
		worker:   worker,
		interval: interval,
		wg:       &sync.WaitGroup{},
		name:     worker.Name(),
	}
}

// Name returns the wrapped worker's name
func (pw *PeriodicWorker) Name() string {
	return pw.name
}

// Start starts the worker with graceful shutdown support
func (pw *PeriodicWorker) Start(ctx context.Context) {
	pw.wg.Add(1)
	go pw.run(ctx)
}

// Stop waits for graceful shutdown
func (pw *PeriodicWorker) Stop(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		pw.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("✅ Worker stopped gracefully",
			zap.String("worker", pw.name),
		)
	case <-time.After(timeout):
		logger.Warn("⚠️ Worker stop timeout",
			zap.String("worker", pw.name),
		)
	}
}

// Stats returns a copy of the run history
func (pw *PeriodicWorker) Stats() Stats {
	pw.statsMu.RLock()
	defer pw.statsMu.RUnlock()
	return pw.stats
}

// HealthCheck fails once maxFailures runs in a row returned an error
func (pw *PeriodicWorker) HealthCheck(maxFailures int) func(ctx context.Context) error {
	return func(context.Context) error {
		stats := pw.Stats()
		if stats.ConsecutiveFailures >= maxFailures {
			return fmt.Errorf("%d consecutive failures, last: %w", stats.ConsecutiveFailures, stats.LastError)
		}
		return nil
	}
}

// run executes worker periodically
func (pw *PeriodicWorker) run(ctx context.Context) {
	defer pw.wg.Done()

	logger.Info("🚀 Worker started",
		zap.String("worker", pw.name),
		zap.Duration("interval", pw.interval),
	)

	// Run immediately on start
	pw.execute(ctx)

	ticker := time.NewTicker(pw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("🛑 Worker stopping",
				zap.String("worker", pw.name),
			)
			return

		case <-ticker.C:
			// Continue despite error - don't crash worker
			pw.execute(ctx)
		}
	}
}

// execute runs one iteration and records its outcome
func (pw *PeriodicWorker) execute(ctx context.Context) {
	err := pw.worker.Run(ctx)

	pw.statsMu.Lock()
	pw.stats.Runs++
	pw.stats.LastRun = time.Now()
	pw.stats.LastError = err
	if err != nil {
		pw.stats.Failures++
		pw.stats.ConsecutiveFailures++
	} else {
		pw.stats.ConsecutiveFailures = 0
	}
	failures := pw.stats.ConsecutiveFailures
	pw.statsMu.Unlock()

	if err != nil && ctx.Err() == nil {
		logger.Error("worker execution failed",
			zap.String("worker", pw.name),
			zap.Int("consecutive_failures", failures),
			zap.Error(err),
		)
	}
}

// WorkerGroup manages multiple workers with graceful shutdown
type WorkerGroup struct {
	workers []*PeriodicWorker
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
}

// NewWorkerGroup creates new worker group
func NewWorkerGroup(ctx context.Context) *WorkerGroup {
	ctx, cancel := context.WithCancel(ctx)
	return &WorkerGroup{
		workers: make([]*PeriodicWorker, 0),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Add adds worker to group and returns its periodic wrapper
func (wg *WorkerGroup) Add(worker Worker, interval time.Duration) *PeriodicWorker {
	wg.mu.Lock()
	defer wg.mu.Unlock()

	pw := NewPeriodicWorker(worker, interval)
	wg.workers = append(wg.workers, pw)
	return pw
}

// Start starts all workers
func (wg *WorkerGroup) Start() {
	wg.mu.Lock()
	defer wg.mu.Unlock()

	for _, worker := range wg.workers {
		worker.Start(wg.ctx)
	}

	logger.Info("🚀 Worker group started",
		zap.Int("workers", len(wg.workers)),
	)
}

// Stop stops all workers gracefully
func (wg *WorkerGroup) Stop(timeout time.Duration) {
	logger.Info("🛑 Stopping worker group...",
		zap.Int("workers", len(wg.workers)),
	)

	// Cancel context first
	wg.cancel()

	wg.mu.Lock()
	defer wg.mu.Unlock()

	for _, worker := range wg.workers {
		worker.Stop(timeout)
	}

	logger.Info("✅ Worker group stopped")
}
