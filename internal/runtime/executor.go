package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/reducer"
	"github.com/aretw0/switchboard/pkg/router"
	"github.com/google/uuid"
)

const (
	// DefaultMaxIterations caps the steps executed by a single run.
	DefaultMaxIterations = 25
	// DefaultStepTimeout bounds a single step invocation.
	DefaultStepTimeout = 30 * time.Second
)

// Input is a new user message submitted to a session.
type Input struct {
	Content   string
	UserID    string
	AccountID string
}

// StepOutput is the result of the last routed step of a run.
type StepOutput struct {
	Step     string
	Outcome  domain.Outcome
	Partial  domain.PartialState
	Duration time.Duration
}

// Executor runs the step graph for one session turn.
type Executor struct {
	store         ports.CheckpointStore
	steps         map[string]domain.Step
	registry      *reducer.Registry
	router        *router.Router
	entry         string
	finalizer     domain.Step
	maxIterations int
	stepTimeout   time.Duration
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
	now           func() time.Time
}

// Option configures the Executor.
type Option func(*Executor)

// WithRegistry sets the reducer registry (default reducer.Default()).
func WithRegistry(r *reducer.Registry) Option {
	return func(e *Executor) {
		e.registry = r
	}
}

// WithRouter sets the router (default router.Default()).
func WithRouter(r *router.Router) Option {
	return func(e *Executor) {
		e.router = r
	}
}

// WithEntryStep forces the first step of every run. When unset the router picks it.
func WithEntryStep(name string) Option {
	return func(e *Executor) {
		e.entry = name
	}
}

// WithFinalizer sets a step that runs once after END.
// Its failure is recorded in the trace and never fails the run.
func WithFinalizer(step domain.Step) Option {
	return func(e *Executor) {
		e.finalizer = step
	}
}

// WithMaxIterations sets the step cap of a run.
func WithMaxIterations(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxIterations = n
		}
	}
}

// WithStepTimeout sets the per-step timeout.
func WithStepTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.stepTimeout = d
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Executor) {
		e.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		e.now = now
	}
}

// NewExecutor creates an executor over the given steps.
// Every step the router can select, and the entry step if any, must be registered.
func NewExecutor(store ports.CheckpointStore, steps []domain.Step, opts ...Option) (*Executor, error) {
	e := &Executor{
		store:         store,
		steps:         make(map[string]domain.Step, len(steps)),
		registry:      reducer.Default(),
		router:        router.Default(),
		maxIterations: DefaultMaxIterations,
		stepTimeout:   DefaultStepTimeout,
		logger:        logging.NewNop(),
		now:           func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}

	for _, s := range steps {
		e.steps[s.Name()] = s
	}
	for _, target := range e.router.Targets() {
		if _, ok := e.steps[target]; !ok {
			return nil, fmt.Errorf("%w: router selects '%s'", domain.ErrUnknownStep, target)
		}
	}
	if e.entry != "" && e.entry != domain.End {
		if _, ok := e.steps[e.entry]; !ok {
			return nil, fmt.Errorf("%w: entry step '%s'", domain.ErrUnknownStep, e.entry)
		}
	}
	return e, nil
}

// Run ingests input into the session and executes steps until the router
// returns END. The State is checkpointed after every step.
//
// It returns the final State and the output of the last routed step (nil when
// no step ran).
func (e *Executor) Run(ctx context.Context, sessionID string, input Input) (*domain.State, *StepOutput, error) {
	start := e.now()
	steps := 0

	state, last, err := e.run(ctx, sessionID, input, &steps)

	if e.hooks.OnRunComplete != nil {
		ev := &domain.RunEvent{
			Timestamp: e.now(),
			SessionID: sessionID,
			Steps:     steps,
			Duration:  e.now().Sub(start),
		}
		if err != nil {
			ev.Error = err.Error()
		}
		e.hooks.OnRunComplete(ctx, ev)
	}
	return state, last, err
}

func (e *Executor) run(ctx context.Context, sessionID string, input Input, steps *int) (*domain.State, *StepOutput, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, nil, domain.ErrEmptyInput
	}

	state, err := e.load(ctx, sessionID, input)
	if err != nil {
		return nil, nil, err
	}

	state = e.ingest(state, input)
	if err := e.save(ctx, state); err != nil {
		return state, nil, err
	}

	var last *StepOutput
	next := e.entry
	if next == "" {
		next = e.router.Decide(state)
	}

	for next != domain.End {
		if err := ctx.Err(); err != nil {
			return state, last, err
		}
		if *steps >= e.maxIterations {
			e.logger.Warn("routing loop exceeded", "session_id", sessionID, "steps", *steps)
			return state, last, fmt.Errorf("%w: %d steps without reaching %s", domain.ErrRoutingLoopExceeded, *steps, domain.End)
		}

		step, ok := e.steps[next]
		if !ok {
			return state, last, fmt.Errorf("%w: '%s'", domain.ErrUnknownStep, next)
		}

		var out *StepOutput
		state, out, err = e.execute(ctx, state, step)
		if err != nil {
			return state, last, err
		}
		last = out
		*steps++

		var rule string
		next, rule = e.router.Explain(state)
		e.logger.Debug("routed", "session_id", sessionID, "next", next, "rule", rule)
	}

	if e.finalizer != nil {
		if err := ctx.Err(); err != nil {
			return state, last, err
		}
		state, _, err = e.execute(ctx, state, e.finalizer)
		if err != nil {
			return state, last, err
		}
	}

	return state, last, nil
}

func (e *Executor) load(ctx context.Context, sessionID string, input Input) (*domain.State, error) {
	state, err := e.store.Load(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		state = domain.NewState(sessionID)
		state.CreatedAt = e.now()
		state.UpdatedAt = state.CreatedAt
	} else if err != nil {
		return nil, &domain.CheckpointIOError{SessionID: sessionID, Op: "load", Err: err}
	}

	if state.UserID == "" {
		state.UserID = input.UserID
	}
	if state.AccountID == "" {
		state.AccountID = input.AccountID
	}
	return state, nil
}

// ingest appends the user message and clears the turn signals.
func (e *Executor) ingest(state *domain.State, input Input) *domain.State {
	msg := domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleUser,
		Content:   input.Content,
		Timestamp: e.now(),
	}
	next := e.registry.Fold(state, domain.PartialState{
		Messages: domain.Set([]domain.Message{msg}),
		Signals:  domain.Set(domain.Signals{}),
	})
	next.UpdatedAt = msg.Timestamp
	return next
}

// execute invokes one step and folds, traces and checkpoints its result.
// A step failure is recorded and leaves the State otherwise unchanged.
func (e *Executor) execute(ctx context.Context, state *domain.State, step domain.Step) (*domain.State, *StepOutput, error) {
	name := step.Name()
	e.logger.Debug("step started", "session_id", state.SessionID, "step", name)

	started := e.now()
	partial, stepErr := e.invoke(ctx, step, state.Snapshot())
	duration := e.now().Sub(started)

	// Run cancelled: keep the last checkpoint as is.
	if err := ctx.Err(); err != nil {
		return state, nil, err
	}

	entry := domain.TraceEntry{Step: name, Outcome: domain.OutcomeSuccess, Duration: duration, At: started}
	next := state
	if stepErr != nil {
		var failure *domain.StepFailure
		if errors.As(stepErr, &failure) {
			entry.Outcome = failure.Outcome
		} else {
			entry.Outcome = domain.OutcomeFailure
		}
		entry.Error = stepErr.Error()
		partial = domain.PartialState{}
		e.logger.Warn("step failed", "session_id", state.SessionID, "step", name, "outcome", entry.Outcome, "error", stepErr)
	} else {
		if err := e.checkContract(step, state, partial); err != nil {
			return state, nil, err
		}
		next = e.registry.Fold(state, partial)
	}

	next = e.registry.Fold(next, domain.PartialState{ExecutionTrace: domain.Set([]domain.TraceEntry{entry})})
	next.UpdatedAt = e.now()

	if err := next.Validate(); err != nil {
		return state, nil, fmt.Errorf("after step '%s': %w", name, err)
	}
	if err := e.save(ctx, next); err != nil {
		return state, nil, err
	}

	e.logger.Debug("step finished", "session_id", state.SessionID, "step", name, "outcome", entry.Outcome, "duration", duration)
	if e.hooks.OnStep != nil {
		e.hooks.OnStep(ctx, &domain.StepEvent{
			Timestamp: e.now(),
			SessionID: state.SessionID,
			Step:      name,
			Outcome:   entry.Outcome,
			Duration:  duration,
			Error:     entry.Error,
		})
	}

	return next, &StepOutput{Step: name, Outcome: entry.Outcome, Partial: partial, Duration: duration}, nil
}

// invoke runs the step under the step timeout, converting panics and timeouts
// into *domain.StepFailure. A step that ignores its context is abandoned.
func (e *Executor) invoke(ctx context.Context, step domain.Step, snapshot *domain.State) (domain.PartialState, error) {
	stepCtx, cancel := context.WithTimeout(ctx, e.stepTimeout)
	defer cancel()

	type result struct {
		partial domain.PartialState
		err     error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- result{err: fmt.Errorf("panic: %v", p)}
			}
		}()
		p, err := step.Invoke(stepCtx, snapshot)
		done <- result{partial: p, err: err}
	}()

	select {
	case <-stepCtx.Done():
		return domain.PartialState{}, &domain.StepFailure{Step: step.Name(), Outcome: domain.OutcomeTimeout, Err: stepCtx.Err()}
	case r := <-done:
		if r.err == nil {
			return r.partial, nil
		}
		outcome := domain.OutcomeFailure
		if errors.Is(r.err, context.DeadlineExceeded) {
			outcome = domain.OutcomeTimeout
		}
		return domain.PartialState{}, &domain.StepFailure{Step: step.Name(), Outcome: outcome, Err: r.err}
	}
}

// checkContract rejects partial updates outside the step's declared fields,
// writes to the executor-owned trace, and attempts to reset escalation.
func (e *Executor) checkContract(step domain.Step, state *domain.State, p domain.PartialState) error {
	writes := step.Writes()
	for _, f := range p.Present() {
		if f == domain.FieldExecutionTrace {
			return &domain.InvalidPartialUpdateError{Step: step.Name(), Field: f, Reason: "execution trace is written by the executor only"}
		}
		if !writes.Has(f) {
			return &domain.InvalidPartialUpdateError{Step: step.Name(), Field: f, Reason: "field not declared in Writes"}
		}
	}
	if v, ok := p.Escalated.Get(); ok && !v && state.Escalated {
		return &domain.InvalidPartialUpdateError{Step: step.Name(), Field: domain.FieldEscalated, Reason: "escalated cannot be reset"}
	}
	return nil
}

func (e *Executor) save(ctx context.Context, state *domain.State) error {
	if err := e.store.Save(ctx, state.SessionID, state); err != nil {
		return &domain.CheckpointIOError{SessionID: state.SessionID, Op: "save", Err: err}
	}
	return nil
}
