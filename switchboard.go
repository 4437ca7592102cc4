package switchboard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/internal/runtime"
	memstore "github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/memory"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/router"
	"github.com/aretw0/switchboard/pkg/session"
	"github.com/aretw0/switchboard/pkg/steps"
	"github.com/aretw0/switchboard/pkg/tools"
	"github.com/google/uuid"
)

// AlreadyEscalatedReply answers messages sent to a session that was already
// handed to a human agent.
const AlreadyEscalatedReply = "Your request has already been escalated. A human agent will respond within 24 hours."

// Engine is the high-level entry point of the support desk.
// It wraps the internal executor and serializes runs per session.
type Engine struct {
	executor *runtime.Executor
	sessions *session.Manager
	tools    *tools.Registry
	router   *router.Router
	steps    []domain.Step
	final    domain.Step

	store      ports.CheckpointStore
	locker     ports.DistributedLocker
	cases      ports.CaseStore
	accounts   ports.AccountStore
	knowledge  *tools.KnowledgeBase
	collab     steps.Collaborators
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	engineOpts []runtime.Option
	stepOpts   []steps.Option
	toolSetup  []func(*tools.Registry)
	maxInput   int

	maxIterations int
	stepTimeout   time.Duration
	lockTTL       time.Duration
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore sets the checkpoint store (default: in-memory).
func WithStore(store ports.CheckpointStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker enables distributed per-session locking across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithCaseStore sets the long-term case store (default: in-memory).
func WithCaseStore(cases ports.CaseStore) Option {
	return func(e *Engine) {
		e.cases = cases
	}
}

// WithAccountStore enables the account lookup tools over accounts.
func WithAccountStore(accounts ports.AccountStore) Option {
	return func(e *Engine) {
		e.accounts = accounts
	}
}

// WithKnowledge sets the knowledge base searched by the resolution step.
func WithKnowledge(kb *tools.KnowledgeBase) Option {
	return func(e *Engine) {
		e.knowledge = kb
	}
}

// WithClassifier replaces the keyword classifier.
func WithClassifier(c ports.Classifier) Option {
	return func(e *Engine) {
		e.collab.Classifier = c
	}
}

// WithResponder replaces the template responder.
func WithResponder(r ports.Responder) Option {
	return func(e *Engine) {
		e.collab.Responder = r
	}
}

// WithSummarizer replaces the token-bounded summarizer.
func WithSummarizer(s ports.Summarizer) Option {
	return func(e *Engine) {
		e.collab.Summarizer = s
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls accumulate.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = domain.MergeHooks(e.hooks, hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxIterations caps the steps of a single run.
func WithMaxIterations(n int) Option {
	return func(e *Engine) {
		e.engineOpts = append(e.engineOpts, runtime.WithMaxIterations(n))
		if n > 0 {
			e.maxIterations = n
		}
	}
}

// WithStepTimeout bounds each step invocation.
func WithStepTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.engineOpts = append(e.engineOpts, runtime.WithStepTimeout(d))
		if d > 0 {
			e.stepTimeout = d
		}
	}
}

// WithLockTTL sets the lease of the distributed session lock.
// By default it covers a full run: (max iterations + 1) step timeouts.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.lockTTL = ttl
	}
}

// WithEntryStep forces the first step of every run.
func WithEntryStep(name string) Option {
	return func(e *Engine) {
		e.engineOpts = append(e.engineOpts, runtime.WithEntryStep(name))
	}
}

// WithMaxInputSize bounds a single user message in bytes (default DefaultMaxInputSize).
func WithMaxInputSize(n int) Option {
	return func(e *Engine) {
		e.maxInput = n
	}
}

// WithToolSetup registers extra tools after the built-in support tools.
// A tool registered under a built-in name replaces it.
func WithToolSetup(setup func(*tools.Registry)) Option {
	return func(e *Engine) {
		e.toolSetup = append(e.toolSetup, setup)
	}
}

// WithMaxReferences caps the active references kept per session.
func WithMaxReferences(n int) Option {
	return func(e *Engine) {
		e.stepOpts = append(e.stepOpts, steps.WithMaxReferences(n))
	}
}

// New initializes the engine with the support workflow.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{
		maxIterations: runtime.DefaultMaxIterations,
		stepTimeout:   runtime.DefaultStepTimeout,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.store == nil {
		eng.store = memstore.NewStore()
	}
	if eng.cases == nil {
		eng.cases = memstore.NewCaseStore()
	}
	if eng.knowledge == nil {
		eng.knowledge = tools.DefaultKnowledge()
	}

	eng.tools = tools.NewRegistry()
	tools.RegisterSupportTools(eng.tools, eng.knowledge, eng.accounts)
	for _, setup := range eng.toolSetup {
		setup(eng.tools)
	}

	stepOpts := append([]steps.Option{
		steps.WithLogger(eng.logger),
		steps.WithTools(eng.tools),
		steps.WithRecaller(memory.NewHistoryRecaller(eng.cases)),
		steps.WithCaseStore(eng.cases),
	}, eng.stepOpts...)
	eng.steps, eng.final = steps.Support(eng.collab, stepOpts...)
	eng.router = router.Default()

	runtimeOpts := append([]runtime.Option{
		runtime.WithRouter(eng.router),
		runtime.WithFinalizer(eng.final),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
	}, eng.engineOpts...)
	executor, err := runtime.NewExecutor(eng.store, eng.steps, runtimeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build executor: %w", err)
	}
	eng.executor = executor

	sessionOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker), session.WithLockTTL(eng.runLockTTL()))
	}
	eng.sessions = session.NewManager(eng.store, sessionOpts...)

	return eng, nil
}

// runLockTTL is the lease of the session lock: long enough for every routed
// step plus the finalizer to hit its timeout.
func (e *Engine) runLockTTL() time.Duration {
	if e.lockTTL > 0 {
		return e.lockTTL
	}
	return time.Duration(e.maxIterations+1) * e.stepTimeout
}

// SubmitRequest is one user message addressed to a session.
// An empty SessionID starts a new session.
type SubmitRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Input     string `json:"input"`
	UserID    string `json:"user_id,omitempty"`
	AccountID string `json:"account_id,omitempty"`
}

// SubmitResponse carries the assistant reply for a submitted message.
type SubmitResponse struct {
	SessionID    string       `json:"session_id"`
	Reply        string       `json:"reply"`
	StateSummary StateSummary `json:"state"`
}

// StateSummary is the public view of a session after a run.
type StateSummary struct {
	IssueType           domain.IssueType `json:"issue_type,omitempty"`
	Urgency             domain.Urgency   `json:"urgency,omitempty"`
	Confidence          float64          `json:"confidence,omitempty"`
	ResolutionAttempted bool             `json:"resolution_attempted"`
	EscalationRequested bool             `json:"escalation_requested"`
	Escalated           bool             `json:"escalated"`
	UserSatisfied       bool             `json:"user_satisfied"`
	Messages            int              `json:"messages"`
	ActiveReferences    []string         `json:"active_references,omitempty"`
	LastStep            string           `json:"last_step,omitempty"`
}

// Summarize builds the public view of s.
func Summarize(s *domain.State) StateSummary {
	sum := StateSummary{
		ResolutionAttempted: s.ResolutionAttempted,
		EscalationRequested: s.EscalationRequested,
		Escalated:           s.Escalated,
		UserSatisfied:       s.Signals.UserSatisfied,
		Messages:            len(s.Messages),
		ActiveReferences:    s.ActiveReferences,
	}
	if c := s.Classification; c != nil {
		sum.IssueType, sum.Urgency, sum.Confidence = c.IssueType, c.Urgency, c.Confidence
	}
	if n := len(s.ExecutionTrace); n > 0 {
		sum.LastStep = s.ExecutionTrace[n-1].Step
	}
	return sum
}

// Submit runs one turn for the session and returns the assistant reply.
// Runs for the same session are serialized.
func (e *Engine) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	input, err := SanitizeInput(req.Input, e.maxInput)
	if err != nil {
		return nil, err
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	var state *domain.State
	err = e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		state, _, err = e.executor.Run(ctx, sessionID, runtime.Input{
			Content:   input,
			UserID:    req.UserID,
			AccountID: req.AccountID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	reply := latestReply(state)
	if reply == "" && state.Escalated {
		reply = AlreadyEscalatedReply
	}
	return &SubmitResponse{
		SessionID:    sessionID,
		Reply:        reply,
		StateSummary: Summarize(state),
	}, nil
}

// latestReply joins the assistant messages written after the latest user message.
func latestReply(s *domain.State) string {
	var parts []string
	for i := len(s.Messages) - 1; i >= 0; i-- {
		m := s.Messages[i]
		if m.Role == domain.RoleUser {
			break
		}
		if m.Role == domain.RoleAssistant {
			parts = append([]string{m.Content}, parts...)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Inspect returns the stored state of a session.
func (e *Engine) Inspect(ctx context.Context, sessionID string) (*domain.State, error) {
	return e.sessions.Load(ctx, sessionID)
}

// Sessions lists the stored session ids.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// Delete removes a session checkpoint. Long-term case records are kept.
func (e *Engine) Delete(ctx context.Context, sessionID string) error {
	return e.sessions.Delete(ctx, sessionID)
}

// Workflow returns the registered steps, the routing rules and the finalizer.
func (e *Engine) Workflow() (stepList []domain.Step, rules []router.Rule, finalizer domain.Step) {
	return append([]domain.Step(nil), e.steps...), e.router.Rules(), e.final
}

// Tools lists the tools available to the resolution step.
func (e *Engine) Tools() []tools.Info {
	return e.tools.List()
}

// InvokeTool calls a registered tool directly.
func (e *Engine) InvokeTool(ctx context.Context, name string, args map[string]any) domain.ToolResult {
	return e.tools.Invoke(ctx, name, args)
}

// Cases returns the long-term case records of a user, most recent first.
func (e *Engine) Cases(ctx context.Context, userID string) ([]domain.CaseRecord, error) {
	return e.cases.Cases(ctx, userID)
}
