package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultSweepInterval is used when no interval is configured
const DefaultSweepInterval = 15 * time.Minute

// Sweeper flags fichas whose deadline has passed
type Sweeper interface {
	SweepOverdue(ctx context.Context) ([]int64, error)
}

// OverdueWorker runs the overdue sweep on a fixed interval, once at start
// and then on every tick, so overdue notifications go out without a read
// having to trigger them.
type OverdueWorker struct {
	sweeper  Sweeper
	interval time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	done      chan struct{}

	sweeps  int
	flagged int
	failed  int
}

// NewOverdueWorker creates a new overdue sweep worker
func NewOverdueWorker(sweeper Sweeper, interval time.Duration, logger *zap.Logger) *OverdueWorker {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &OverdueWorker{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the sweep loop
func (w *OverdueWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return fmt.Errorf("overdue worker already running")
	}

	var loopCtx context.Context
	loopCtx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.isRunning = true

	w.logger.Info("OverdueWorker started", zap.Duration("interval", w.interval))
	go w.loop(loopCtx, w.done)
	return nil
}

// Stop cancels the loop and waits for an in-flight sweep to finish
func (w *OverdueWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done

	w.mu.Lock()
	defer w.mu.Unlock()
	w.logger.Info("OverdueWorker stopped",
		zap.Int("sweeps", w.sweeps),
		zap.Int("flagged", w.flagged),
		zap.Int("failed", w.failed))
	return nil
}

// Name returns the worker name for identification
func (w *OverdueWorker) Name() string {
	return "OverdueWorker"
}

// Stats returns the number of sweeps run, fichas flagged and failed sweeps
func (w *OverdueWorker) Stats() (sweeps, flagged, failed int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sweeps, w.flagged, w.failed
}

// Report summarises Stats for health output
func (w *OverdueWorker) Report() string {
	sweeps, flagged, failed := w.Stats()
	return fmt.Sprintf("every %s: %d sweeps, %d flagged, %d failed", w.interval, sweeps, flagged, failed)
}

func (w *OverdueWorker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *OverdueWorker) sweep(ctx context.Context) {
	ids, err := w.sweeper.SweepOverdue(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.sweeps++
	if err != nil {
		w.failed++
		w.logger.Error("Overdue sweep failed", zap.Error(err))
		return
	}
	w.flagged += len(ids)
	if len(ids) > 0 {
		w.logger.Info("Overdue sweep flagged fichas", zap.Int64s("ficha_ids", ids))
	}
}
