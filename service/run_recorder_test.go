package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lexportal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type memoryRunStore struct {
	mu    sync.Mutex
	saved []*models.WorkflowRun
	err   error
}

func (s *memoryRunStore) Save(_ context.Context, run *models.WorkflowRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, run)
	return s.err
}

func TestLedgerRecorderSavesInOrder(t *testing.T) {
	store := &memoryRunStore{}
	rec := NewLedgerRecorder(store, zap.NewNop(), 16)

	run := &models.WorkflowRun{ID: uuid.New(), Steps: models.NewRunSteps()}
	for _, status := range []models.RunStatus{models.RunStatusPending, models.RunStatusInProgress, models.RunStatusCompleted} {
		run.Status = status
		rec.Record(run)
	}
	rec.Close()
	rec.Close()

	require.Len(t, store.saved, 3)
	assert.Equal(t, models.RunStatusPending, store.saved[0].Status)
	assert.Equal(t, models.RunStatusCompleted, store.saved[2].Status)
	assert.NotSame(t, run, store.saved[0])

	// records after close are ignored
	rec.Record(run)
	assert.Len(t, store.saved, 3)
}

func TestLedgerRecorderToleratesStoreErrors(t *testing.T) {
	store := &memoryRunStore{err: errors.New("db down")}
	rec := NewLedgerRecorder(store, zap.NewNop(), 0)
	rec.Record(&models.WorkflowRun{ID: uuid.New()})
	rec.Close()
	assert.Len(t, store.saved, 1)
}

type pruneStore struct {
	cutoffs []time.Time
	deleted int64
	err     error
}

func (s *pruneStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.cutoffs = append(s.cutoffs, cutoff)
	return s.deleted, s.err
}

func TestPruneRuns(t *testing.T) {
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	core, logs := observer.New(zapcore.InfoLevel)
	store := &pruneStore{deleted: 3}

	n, err := PruneRuns(context.Background(), store, 24*time.Hour, now, zap.New(core))
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	require.Len(t, store.cutoffs, 1)
	assert.Equal(t, now.Add(-24*time.Hour), store.cutoffs[0])
	assert.Equal(t, 1, logs.FilterMessage("pruned workflow runs").Len())
}

func TestPruneRunsDisabled(t *testing.T) {
	store := &pruneStore{}
	for _, retention := range []time.Duration{0, -time.Second} {
		n, err := PruneRuns(context.Background(), store, retention, time.Now(), zap.NewNop())
		require.NoError(t, err)
		assert.Zero(t, n)
	}
	assert.Empty(t, store.cutoffs)
}

func TestPruneRunsStoreError(t *testing.T) {
	store := &pruneStore{err: errors.New("connection reset")}
	_, err := PruneRuns(context.Background(), store, time.Hour, time.Now(), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}
