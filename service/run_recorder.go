package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lexportal/models"

	"go.uber.org/zap"
)

// RunRecorder receives snapshots of workflow run progress. Recording is best
// effort and must not block the workflow.
type RunRecorder interface {
	Record(run *models.WorkflowRun)
}

// NopRecorder discards every run
type NopRecorder struct{}

func (NopRecorder) Record(*models.WorkflowRun) {}

// RunStore persists workflow runs
type RunStore interface {
	Save(ctx context.Context, run *models.WorkflowRun) error
}

// LedgerRecorder writes runs to a RunStore from a single worker so that
// updates to one run are saved in order.
type LedgerRecorder struct {
	store   RunStore
	logger  *zap.Logger
	timeout time.Duration

	queue chan *models.WorkflowRun
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewLedgerRecorder starts a recorder with the given queue size
func NewLedgerRecorder(store RunStore, logger *zap.Logger, queueSize int) *LedgerRecorder {
	if queueSize <= 0 {
		queueSize = 256
	}
	r := &LedgerRecorder{
		store:   store,
		logger:  logger.With(zap.String("component", "run_ledger")),
		timeout: 5 * time.Second,
		queue:   make(chan *models.WorkflowRun, queueSize),
	}
	r.wg.Add(1)
	go r.loop()
	return r
}

// Record enqueues a copy of run. When the queue is full the update is dropped.
func (r *LedgerRecorder) Record(run *models.WorkflowRun) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	select {
	case r.queue <- run.Clone():
	default:
		r.logger.Warn("run ledger queue full, dropping update",
			zap.String("run_id", run.ID.String()),
			zap.String("status", string(run.Status)))
	}
}

// Close stops accepting updates and waits for queued ones to be written
func (r *LedgerRecorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *LedgerRecorder) loop() {
	defer r.wg.Done()
	for run := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		if err := r.store.Save(ctx, run); err != nil {
			r.logger.Warn("failed to save workflow run",
				zap.String("run_id", run.ID.String()),
				zap.Error(err))
		}
		cancel()
	}
}

// runTracker maintains one WorkflowRun and reports each change
type runTracker struct {
	mu       sync.Mutex
	run      *models.WorkflowRun
	recorder RunRecorder
	clock    func() time.Time
}

func newRunTracker(recorder RunRecorder, clock func() time.Time, run *models.WorkflowRun) *runTracker {
	run.Status = models.RunStatusPending
	run.Steps = models.NewRunSteps()
	run.CreatedAt = clock()
	run.UpdatedAt = run.CreatedAt
	return &runTracker{run: run, recorder: recorder, clock: clock}
}

func (t *runTracker) step(name, status, description string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.run.Steps.Set(name, status, description)
	if status == string(models.RunStatusInProgress) {
		current := name
		t.run.CurrentStep = &current
		t.run.Status = models.RunStatusInProgress
	}
	t.run.UpdatedAt = t.clock()
	t.recorder.Record(t.run)
}

func (t *runTracker) finish(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock()
	t.run.UpdatedAt = now
	t.run.CompletedAt = &now
	if err != nil {
		msg := err.Error()
		t.run.Status = models.RunStatusFailed
		t.run.ErrorMessage = &msg
	} else {
		t.run.Status = models.RunStatusCompleted
	}
	t.recorder.Record(t.run)
}

// snapshot returns a copy of the current run
func (t *runTracker) snapshot() *models.WorkflowRun {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.run.Clone()
}

// RunPruner deletes finished runs from the ledger
type RunPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// PruneRuns deletes finished runs created more than retention before now.
// A non-positive retention keeps every run.
func PruneRuns(ctx context.Context, store RunPruner, retention time.Duration, now time.Time, logger *zap.Logger) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}

	cutoff := now.Add(-retention)
	n, err := store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune workflow runs: %w", err)
	}
	if n > 0 {
		logger.Info("pruned workflow runs", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
	}
	return n, nil
}
