package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zen-systems/alphacouncil/pkg/adapter"
	"github.com/zen-systems/alphacouncil/pkg/apperr"
	"github.com/zen-systems/alphacouncil/pkg/artifact"
	"github.com/zen-systems/alphacouncil/pkg/market"
	"github.com/zen-systems/alphacouncil/pkg/prompt"
)

// MarketSource returns a quote for symbol, or nil when none is available.
type MarketSource interface {
	Fetch(ctx context.Context, symbol, apiKey string) *market.Quote
}

// ModelResolver canonicalizes a model name for a provider.
type ModelResolver interface {
	Resolve(provider adapter.Provider, model string) (string, error)
}

// RunRequest starts a run.
type RunRequest struct {
	Symbol      string
	Credentials Credentials
	// IncludeExit appends the optional exit/hold stage.
	IncludeExit bool
	HoldingCost string
}

// Controller owns one session's WorkflowState and stage configuration and
// drives runs over them. All writes go through its transitions.
type Controller struct {
	mu     sync.RWMutex
	base   *Pipeline
	stages *Pipeline
	state  *WorkflowState
	creds  Credentials
	// epoch changes on every reset and start; writes from an older run
	// are discarded.
	epoch uint64

	executor *Executor
	market   MarketSource
	resolver ModelResolver
	logger   *slog.Logger
	metrics  *Metrics
	now      func() time.Time
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithMarket sets the market-data source. Without one every run proceeds
// without live data.
func WithMarket(m MarketSource) ControllerOption {
	return func(c *Controller) {
		c.market = m
	}
}

// WithResolver sets the model resolver used for stage overrides.
func WithResolver(r ModelResolver) ControllerOption {
	return func(c *Controller) {
		c.resolver = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithControllerMetrics attaches metrics collectors.
func WithControllerMetrics(m *Metrics) ControllerOption {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// NewController creates a controller in IDLE over the given stage catalogue.
func NewController(base *Pipeline, executor *Executor, opts ...ControllerOption) *Controller {
	c := &Controller{
		base:     base.Clone(),
		stages:   base.Clone(),
		state:    newIdleState(),
		creds:    Credentials{},
		executor: executor,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a snapshot of the current WorkflowState.
func (c *Controller) State() WorkflowState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Snapshot()
}

// Stages returns copies of the session's stage definitions.
func (c *Controller) Stages() []*Stage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stages.Clone().Stages
}

// Credentials returns a copy of the session's sticky credentials.
func (c *Controller) Credentials() Credentials {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds.Clone()
}

// SetCredentials overlays keys onto the session credentials.
func (c *Controller) SetCredentials(keys Credentials) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds = c.creds.Merge(keys)
}

// Reset returns the session to IDLE: outputs, progress and stage overrides
// are dropped, credentials are kept. A run still blocked in a call is
// orphaned and its result discarded.
func (c *Controller) Reset() WorkflowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.state = newIdleState()
	c.stages = c.base.Clone()
	c.logger.Info("session reset")
	return c.state.Snapshot()
}

// Configure applies an override to one stage. It is rejected while a run is
// in flight.
func (c *Controller) Configure(stageID string, o Override) (*Stage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Status.Active() {
		return nil, apperr.New(apperr.KindConflict, "cannot change stage %s while a run is in progress", stageID)
	}
	current, ok := c.stages.Stage(stageID)
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "unknown stage %q", stageID)
	}

	next, err := c.applyOverride(current, o)
	if err != nil {
		return nil, err
	}
	for i, s := range c.stages.Stages {
		if s.ID == stageID {
			c.stages.Stages[i] = next
		}
	}
	c.logger.Info("stage configured",
		slog.String("stage", stageID),
		slog.String("provider", string(next.Provider)),
		slog.String("model", next.Model),
	)
	return next.Clone(), nil
}

func (c *Controller) applyOverride(current *Stage, o Override) (*Stage, error) {
	next := current.Clone()
	if o.Title != nil {
		next.Title = strings.TrimSpace(*o.Title)
	}
	if o.Prompt != nil {
		next.Prompt = *o.Prompt
	}
	if o.Provider != nil {
		p, err := adapter.ParseProvider(*o.Provider)
		if err != nil {
			return nil, err
		}
		next.Provider = p
	}
	if o.Model != nil {
		next.Model = strings.TrimSpace(*o.Model)
	}
	if o.Temperature != nil {
		next.Temperature = *o.Temperature
	}
	if c.resolver != nil && (o.Model != nil || o.Provider != nil) {
		model, err := c.resolver.Resolve(next.Provider, next.Model)
		if err != nil {
			return nil, err
		}
		next.Model = model
	}
	if err := next.Validate(); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, err, "")
	}
	return next, nil
}

// Execution is a run that has passed validation and holds the session. Call
// Execute to drive it.
type Execution struct {
	c       *Controller
	epoch   uint64
	runID   string
	symbol  string
	spec    *Spec
	creds   Credentials
	cost    string
	titles  map[string]string
	logger  *slog.Logger
	err     error
	started time.Time
}

// RunID identifies the execution.
func (e *Execution) RunID() string {
	return e.runID
}

// Err returns the error that stopped the run, if any.
func (e *Execution) Err() error {
	return e.err
}

// Start validates req and moves the session to FETCHING_DATA. It is rejected
// with a conflict while another run is in flight. The returned Execution
// must be driven with Execute.
func (c *Controller) Start(req RunRequest) (*Execution, error) {
	symbol, err := market.NormalizeSymbol(req.Symbol)
	if err != nil {
		return nil, err
	}
	symbol = strings.ToUpper(symbol)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Status.Active() {
		return nil, apperr.New(apperr.KindConflict, "a run is already in progress for %s", c.state.Symbol)
	}

	spec, err := Build(c.stages, req.IncludeExit)
	if err != nil {
		return nil, err
	}

	c.creds = c.creds.Merge(req.Credentials)
	c.epoch++

	exec := &Execution{
		c:       c,
		epoch:   c.epoch,
		runID:   uuid.NewString(),
		symbol:  symbol,
		spec:    spec,
		creds:   c.creds.Clone(),
		cost:    strings.TrimSpace(req.HoldingCost),
		titles:  make(map[string]string, spec.Len()),
		started: c.now(),
	}
	for _, s := range spec.stages {
		exec.titles[s.ID] = s.Title
	}
	exec.logger = c.logger.With(slog.String("run_id", exec.runID), slog.String("symbol", symbol))

	c.state = &WorkflowState{
		RunID:       exec.runID,
		Status:      StatusFetching,
		StageIDs:    spec.IDs(),
		Symbol:      symbol,
		HoldingCost: exec.cost,
		Outputs:     make(map[string]*artifact.StageOutput),
		StartedAt:   exec.started,
	}
	exec.logger.Info("run started", slog.Any("stages", spec.IDs()))
	return exec, nil
}

// Run starts and drives a run to completion, blocking until it reaches
// COMPLETED or ERROR. The returned error is either the start rejection or
// the stage failure that stopped the run.
func (c *Controller) Run(ctx context.Context, req RunRequest) (WorkflowState, error) {
	exec, err := c.Start(req)
	if err != nil {
		return c.State(), err
	}
	state := exec.Execute(ctx)
	return state, exec.Err()
}

// update applies fn to the state if the execution still owns the session.
func (e *Execution) update(fn func(s *WorkflowState)) bool {
	e.c.mu.Lock()
	defer e.c.mu.Unlock()
	if e.c.epoch != e.epoch {
		return false
	}
	fn(e.c.state)
	return true
}

// Execute fetches market data and runs every stage in order. It returns the
// final state snapshot. If the session was reset meanwhile, nothing is
// written and the current state is returned.
func (e *Execution) Execute(ctx context.Context) WorkflowState {
	c := e.c

	var quote *market.Quote
	if c.market != nil {
		quote = c.market.Fetch(ctx, e.symbol, e.creds.Get(MarketCredential))
	}
	marketBlock := market.FormatForPrompt(quote)
	c.metrics.marketFetched(quote != nil)
	if quote == nil {
		e.logger.Warn("proceeding without live market data")
	}

	if !e.update(func(s *WorkflowState) {
		s.Status = StatusRunning
		s.MarketContext = marketBlock
		s.MarketLive = quote != nil
		s.CurrentStepIndex = 1
	}) {
		return e.orphaned()
	}

	date := e.started.Format("2006-01-02")
	prior := make([]*artifact.StageOutput, 0, e.spec.Len())

	for i := 0; i < e.spec.Len(); i++ {
		stage := e.spec.At(i)
		if !e.update(func(s *WorkflowState) { s.CurrentStepIndex = i + 1 }) {
			return e.orphaned()
		}

		values := prompt.Values{
			prompt.Ticker:      e.symbol,
			prompt.PriceData:   marketBlock,
			prompt.Context:     BuildContext(prior, e.titles),
			prompt.CurrentDate: date,
		}
		if stage.Wants(InputHoldingCost) {
			values[prompt.Cost] = e.cost
		}
		rendered := prompt.Render(stage.Prompt, values)

		e.logger.Info("stage started",
			slog.Int("step", i+1),
			slog.Int("of", e.spec.Len()),
			slog.String("stage", stage.ID),
		)
		resp, err := c.executor.Execute(ctx, stage, rendered, e.creds)
		if err != nil {
			e.err = fmt.Errorf("stage %s: %w", stage.ID, err)
			return e.fail(stage.ID, err)
		}

		out := artifact.New(stage.ID, stage.Title, resp.Text, string(stage.Provider), stage.Model, c.now())
		if resp.Usage != nil {
			out = out.WithTokens(resp.Usage.TotalTokens)
		}
		if !e.update(func(s *WorkflowState) { s.Outputs[stage.ID] = out }) {
			return e.orphaned()
		}
		prior = append(prior, out)
	}

	var snap WorkflowState
	if !e.update(func(s *WorkflowState) {
		s.Status = StatusCompleted
		s.FinishedAt = c.now()
		snap = s.Snapshot()
	}) {
		return e.orphaned()
	}
	c.metrics.runFinished(StatusCompleted)
	e.logger.Info("run completed", slog.Int("stages", e.spec.Len()), slog.Duration("elapsed", time.Since(e.started)))
	return snap
}

func (e *Execution) fail(stageID string, err error) WorkflowState {
	var snap WorkflowState
	if !e.update(func(s *WorkflowState) {
		s.Status = StatusError
		s.Error = ErrorMessage(err)
		s.ErrorKind = apperr.KindOf(err)
		s.FailedStage = stageID
		s.FinishedAt = e.c.now()
		snap = s.Snapshot()
	}) {
		return e.orphaned()
	}
	e.c.metrics.runFinished(StatusError)
	e.logger.Error("run failed", slog.String("stage", stageID), slog.Any("error", err))
	return snap
}

func (e *Execution) orphaned() WorkflowState {
	e.logger.Info("run discarded after reset")
	if e.err == nil {
		e.err = apperr.New(apperr.KindConflict, "run %s was superseded", e.runID)
	}
	return e.c.State()
}

// ErrorMessage is the text surfaced to the caller for a failed run: the
// provider's own reason when one was reported, the error text otherwise.
func ErrorMessage(err error) string {
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Reason() != "" {
		return ae.Reason()
	}
	return err.Error()
}
