/*
scheduler.go - Background allocation scheduler

PURPOSE:

	Periodically runs the renewal allocator over the stored queue so training
	assignments stay current without an operator hitting the allocate endpoint.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Each tick performs one allocation pass and records the run
  - Runs are idempotent: the allocator recomputes from the full queue, so a
    tick with no queue changes records an identical result

CONFIGURATION:
  - CheckInterval: How often to run (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:

	scheduler := NewAllocationScheduler(handler, logger)
	scheduler.Start()
	// ... later
	scheduler.Stop()

SEE ALSO:
  - handlers.go: Allocate (shared allocation pass), RunAllocation endpoint
  - schedule/allocator.go: the allocation algorithm
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// AllocationScheduler re-runs renewal allocation on a fixed interval.
type AllocationScheduler struct {
	Handler       *Handler
	Logger        *zap.Logger
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewAllocationScheduler creates a new scheduler.
func NewAllocationScheduler(handler *Handler, logger *zap.Logger) *AllocationScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllocationScheduler{
		Handler:       handler,
		Logger:        logger,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan struct{}),
	}
}

// Start begins the scheduler.
func (as *AllocationScheduler) Start() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if !as.Enabled {
		as.Logger.Info("allocation scheduler disabled, not starting")
		return
	}

	as.ticker = time.NewTicker(as.CheckInterval)
	as.wg.Add(1)

	go as.run()

	as.Logger.Info("allocation scheduler started",
		zap.Duration("check_interval", as.CheckInterval))
}

// Stop stops the scheduler and waits for an in-flight pass to finish.
func (as *AllocationScheduler) Stop() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.ticker != nil {
		as.ticker.Stop()
		close(as.stop)
		as.wg.Wait()
		as.Logger.Info("allocation scheduler stopped")
	}
}

func (as *AllocationScheduler) run() {
	defer as.wg.Done()

	// Run immediately on start
	as.runOnce()

	for {
		select {
		case <-as.ticker.C:
			as.runOnce()
		case <-as.stop:
			return
		}
	}
}

func (as *AllocationScheduler) runOnce() {
	ctx := context.Background()

	run, err := as.Handler.Allocate(ctx)
	if err != nil {
		as.Logger.Error("scheduled allocation failed", zap.Error(err))
		return
	}

	as.Logger.Info("scheduled allocation completed",
		zap.String("run_id", run.ID),
		zap.Int("assigned", len(run.Result.Assignments)),
		zap.Int("unassignable", len(run.Result.Unassignable)))
}

// RunNow triggers an immediate pass (for testing/admin).
func (as *AllocationScheduler) RunNow() {
	as.runOnce()
}
