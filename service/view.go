package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"lexportal/models"
	"lexportal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is a stage of a view's workflow
type State string

const (
	StateInit        State = "init"
	StateChecking    State = "checking"
	StateGenerating  State = "generating"
	StateNormalizing State = "normalizing"
	StatePersisting  State = "persisting"
	StateDone        State = "done"
	StateError       State = "error"
)

// Terminal reports whether no further transition can happen
func (s State) Terminal() bool {
	return s == StateDone || s == StateError
}

// Pipeline supplies the stages of the workflow for one record type.
// R is the validated provider response, T the canonical stored record.
type Pipeline[R, T any] interface {
	Kind() models.RunKind
	// Lookup returns repository.ErrNotFound when no record is stored
	Lookup(ctx context.Context, token, citation string) (*T, error)
	Generate(ctx context.Context, token, citation string) (*R, error)
	Normalize(citation string, raw *R, now time.Time) *T
	Persist(ctx context.Context, token string, value *T) error
}

// Transition records one state change
type Transition struct {
	From State     `json:"from"`
	To   State     `json:"to"`
	At   time.Time `json:"at"`
}

// Snapshot is a point-in-time copy of a view's state
type Snapshot[T any] struct {
	State   State
	Result  *T
	Err     error
	History []Transition
	Persist *PersistTask
	Run     *models.WorkflowRun
}

// StageStatus is the client-facing summary of a snapshot
type StageStatus struct {
	State   State               `json:"state"`
	Error   string              `json:"error,omitempty"`
	Persist string              `json:"persist,omitempty"`
	Run     *models.WorkflowRun `json:"run,omitempty"`
}

// StatusOf summarizes s. Persist is "pending", "completed" or "failed" once a
// generated record is being written.
func StatusOf[T any](s Snapshot[T]) StageStatus {
	status := StageStatus{State: s.State, Run: s.Run}
	if s.Err != nil {
		status.Error = s.Err.Error()
	}
	if s.Persist != nil {
		select {
		case <-s.Persist.Done():
			if s.Persist.Err() != nil {
				status.Persist = "failed"
			} else {
				status.Persist = "completed"
			}
		default:
			status.Persist = "pending"
		}
	}
	return status
}

// ViewOption is a functional option for View
type ViewOption func(*viewOptions)

type viewOptions struct {
	clock          func() time.Time
	logger         *zap.Logger
	recorder       RunRecorder
	persistTimeout time.Duration
	viewID         string
	persists       *PersistGroup
}

// WithClock sets the clock used for created_at and transition times
func WithClock(clock func() time.Time) ViewOption {
	return func(o *viewOptions) {
		o.clock = clock
	}
}

// WithViewLogger sets the view logger
func WithViewLogger(logger *zap.Logger) ViewOption {
	return func(o *viewOptions) {
		o.logger = logger
	}
}

// WithRunRecorder sets where run progress is reported
func WithRunRecorder(recorder RunRecorder) ViewOption {
	return func(o *viewOptions) {
		o.recorder = recorder
	}
}

// WithPersistTimeout bounds the detached persistence write
func WithPersistTimeout(d time.Duration) ViewOption {
	return func(o *viewOptions) {
		o.persistTimeout = d
	}
}

// WithViewID tags runs with the id of the owning view
func WithViewID(id string) ViewOption {
	return func(o *viewOptions) {
		o.viewID = id
	}
}

// WithPersistGroup registers every persistence write with g
func WithPersistGroup(g *PersistGroup) ViewOption {
	return func(o *viewOptions) {
		o.persists = g
	}
}

// View runs the resolve workflow for one citation at most once.
// A View is owned by a single mounted case view and discarded on navigation.
type View[R, T any] struct {
	citation string
	creds    CredentialProvider
	pipeline Pipeline[R, T]
	opts     viewOptions

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}

	mu      sync.Mutex
	state   State
	history []Transition
	result  *T
	err     error
	persist *PersistTask
	run     *runTracker
}

// NewView creates a view in the init state
func NewView[R, T any](citation string, creds CredentialProvider, pipeline Pipeline[R, T], opts ...ViewOption) *View[R, T] {
	o := viewOptions{
		clock:          time.Now,
		logger:         zap.NewNop(),
		recorder:       NopRecorder{},
		persistTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.With(
		zap.String("kind", string(pipeline.Kind())),
		zap.String("citation", citation))

	ctx, cancel := context.WithCancel(context.Background())
	return &View[R, T]{
		citation: citation,
		creds:    creds,
		pipeline: pipeline,
		opts:     o,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		state:    StateInit,
	}
}

// Citation returns the citation this view resolves
func (v *View[R, T]) Citation() string {
	return v.citation
}

// Resolve starts the workflow on first call and returns its outcome. Later and
// concurrent calls wait for and share the same outcome. A non-nil initial
// value skips every stage and is returned unmodified.
//
// The workflow runs on the view's own context: cancelling ctx only ends this
// caller's wait, and only Close aborts the run.
func (v *View[R, T]) Resolve(ctx context.Context, initial *T) (*T, error) {
	v.once.Do(func() {
		go func() {
			defer close(v.done)
			v.execute(v.ctx, initial)
		}()
	})

	select {
	case <-v.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	return v.result, v.err
}

// Close aborts any in-flight request. A detached persistence write continues.
func (v *View[R, T]) Close() {
	v.cancel()
}

// Snapshot returns the current state
func (v *View[R, T]) Snapshot() Snapshot[T] {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := Snapshot[T]{
		State:   v.state,
		Result:  v.result,
		Err:     v.err,
		History: append([]Transition(nil), v.history...),
		Persist: v.persist,
	}
	if v.run != nil {
		s.Run = v.run.snapshot()
	}
	return s
}

// Persist returns the detached persistence task, or nil when nothing was generated
func (v *View[R, T]) Persist() *PersistTask {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.persist
}

func (v *View[R, T]) execute(ctx context.Context, initial *T) {
	if initial != nil {
		v.succeed(initial, true)
		return
	}
	if v.ctx.Err() != nil {
		v.fail(ErrViewClosed)
		return
	}

	token, err := v.creds.Token(ctx)
	if err != nil || token == "" {
		if err != nil && !errors.Is(err, ErrAuthMissing) {
			v.opts.logger.Debug("credential provider failed", zap.Error(err))
		}
		v.fail(ErrAuthMissing)
		return
	}

	run := newRunTracker(v.opts.recorder, v.opts.clock, &models.WorkflowRun{
		ID:           uuid.New(),
		ViewID:       v.opts.viewID,
		Kind:         v.pipeline.Kind(),
		DLCitationNo: v.citation,
	})
	v.mu.Lock()
	v.run = run
	v.mu.Unlock()

	v.transition(StateChecking)
	run.step(models.StepExistenceCheck, string(models.RunStatusInProgress), "")
	existing, err := v.pipeline.Lookup(ctx, token, v.citation)
	switch {
	case err == nil:
		run.step(models.StepExistenceCheck, string(models.RunStatusCompleted), "found")
		skipRemaining(run, "stored record found")
		v.succeed(existing, true)
		return
	case errors.Is(err, repository.ErrNotFound):
		run.step(models.StepExistenceCheck, string(models.RunStatusCompleted), "not found")
	default:
		run.step(models.StepExistenceCheck, string(models.RunStatusFailed), err.Error())
		v.failStage(fmt.Errorf("%w: %w", ErrFetchFailed, err))
		return
	}

	v.transition(StateGenerating)
	run.step(models.StepGeneration, string(models.RunStatusInProgress), "")
	raw, err := v.pipeline.Generate(ctx, token, v.citation)
	if err != nil {
		run.step(models.StepGeneration, string(models.RunStatusFailed), err.Error())
		v.failStage(generationError(err))
		return
	}
	run.step(models.StepGeneration, string(models.RunStatusCompleted), "")

	v.transition(StateNormalizing)
	value := v.pipeline.Normalize(v.citation, raw, v.opts.clock())
	run.step(models.StepNormalization, string(models.RunStatusCompleted), "")

	v.transition(StatePersisting)
	run.step(models.StepPersistence, string(models.RunStatusInProgress), "")
	task := v.startPersist(ctx, token, value, run)

	v.mu.Lock()
	v.persist = task
	v.mu.Unlock()

	// the run is finished by the persistence task
	v.succeed(value, false)
}

// startPersist writes value on a context detached from the view so that
// closing the view does not abort the write. The run is finished once the
// write settles, so a failed write marks the run failed.
func (v *View[R, T]) startPersist(ctx context.Context, token string, value *T, run *runTracker) *PersistTask {
	task := &PersistTask{done: make(chan struct{})}
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), v.opts.persistTimeout)

	group := v.opts.persists
	if group != nil {
		group.wg.Add(1)
	}
	go func() {
		defer close(task.done)
		defer cancel()
		if group != nil {
			defer group.wg.Done()
		}

		err := v.pipeline.Persist(persistCtx, token, value)
		if err != nil {
			task.err = fmt.Errorf("%w: %w", ErrPersistFailed, err)
			v.opts.logger.Warn("failed to persist generated record", zap.Error(err))
			run.step(models.StepPersistence, string(models.RunStatusFailed), err.Error())
			run.finish(task.err)
			return
		}
		run.step(models.StepPersistence, string(models.RunStatusCompleted), "")
		run.finish(nil)
	}()
	return task
}

func skipRemaining(run *runTracker, reason string) {
	for _, name := range []string{models.StepGeneration, models.StepNormalization, models.StepPersistence} {
		run.step(name, "skipped", reason)
	}
}

func (v *View[R, T]) transition(to State) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.transitionLocked(to)
}

func (v *View[R, T]) transitionLocked(to State) {
	v.history = append(v.history, Transition{From: v.state, To: to, At: v.opts.clock()})
	v.opts.logger.Debug("view transition", zap.String("from", string(v.state)), zap.String("to", string(to)))
	v.state = to
}

func (v *View[R, T]) succeed(value *T, finishRun bool) {
	v.mu.Lock()
	v.result = value
	v.transitionLocked(StateDone)
	run := v.run
	v.mu.Unlock()

	if run != nil && finishRun {
		run.finish(nil)
	}
}

// failStage fails a stage. A stage cut short by Close reports ErrViewClosed
// rather than the transport error it saw.
func (v *View[R, T]) failStage(err error) {
	if v.ctx.Err() != nil {
		v.fail(ErrViewClosed)
		return
	}
	v.fail(err)
}

func (v *View[R, T]) fail(err error) {
	v.mu.Lock()
	v.err = err
	v.transitionLocked(StateError)
	run := v.run
	v.mu.Unlock()

	v.opts.logger.Warn("view failed", zap.Error(err))
	if run != nil {
		run.finish(err)
	}
}

// PersistTask is the detached write of a generated record. It may be observed
// for logging or tests; its outcome never changes the view's state.
type PersistTask struct {
	done chan struct{}
	err  error
}

// Done is closed when the write has finished
func (p *PersistTask) Done() <-chan struct{} {
	return p.done
}

// Err returns the write error once Done is closed, nil before
func (p *PersistTask) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Wait blocks until the write finishes or ctx is done
func (p *PersistTask) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PersistGroup tracks the persistence writes of many views so that a process
// can wait for them before exiting
type PersistGroup struct {
	wg sync.WaitGroup
}

// Wait blocks until every registered write has finished or ctx is done
func (g *PersistGroup) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
