package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"wellness-planner/internal/mealplan"
	"wellness-planner/internal/metrics"
	"wellness-planner/internal/profile"
	"wellness-planner/internal/shared"
)

var (
	// ErrBusy is returned when a request is already in flight.
	ErrBusy = errors.New("a meal plan is already being generated")
	// ErrInvalidTransition is returned when an operation is not allowed in the current state.
	ErrInvalidTransition = errors.New("operation not allowed in the current state")
)

// PlanGenerator produces a plan for a profile.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, prof profile.Profile) (*mealplan.Plan, shared.AgentMeta, error)
}

// Listener is called after every state transition with the new snapshot.
// It runs outside the orchestrator's lock.
type Listener func(Snapshot)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTimeout bounds each plan request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// WithRecorder hands token usage of each request to r.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithLogger sets the logger used for transitions.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// WithListener registers fn to observe transitions.
func WithListener(fn Listener) Option {
	return func(o *Orchestrator) { o.listener = fn }
}

// Orchestrator owns one user's profile, plan and dialog state. It allows a
// single outstanding plan request at a time.
type Orchestrator struct {
	gen      PlanGenerator
	timeout  time.Duration
	recorder metrics.Recorder
	listener Listener
	log      zerolog.Logger

	mu         sync.Mutex
	state      State
	profile    profile.Profile
	hasProfile bool
	dialogOpen bool
}

// New creates an Orchestrator in the Idle state.
func New(gen PlanGenerator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gen:      gen,
		recorder: metrics.NopRecorder{},
		log:      zerolog.Nop(),
		state:    Idle{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Snapshot returns the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// Submit starts the first generation for prof. The returned channel
// receives the terminal snapshot once the request finishes.
func (o *Orchestrator) Submit(ctx context.Context, prof profile.Profile) (<-chan Snapshot, error) {
	return o.start(ctx, prof, func(s State) error {
		switch s.(type) {
		case Idle:
			return nil
		case Loading:
			return ErrBusy
		default:
			return ErrInvalidTransition
		}
	})
}

// ConfirmUpdate replaces the stored profile with prof, closes the update
// dialog and generates a new plan.
func (o *Orchestrator) ConfirmUpdate(ctx context.Context, prof profile.Profile) (<-chan Snapshot, error) {
	return o.start(ctx, prof, func(s State) error {
		switch s.(type) {
		case Ready, Failed:
			return nil
		case Loading:
			return ErrBusy
		default:
			return ErrInvalidTransition
		}
	})
}

// Regenerate opens the update dialog. The plan and profile are kept.
func (o *Orchestrator) Regenerate() error {
	o.mu.Lock()
	switch o.state.(type) {
	case Ready, Failed:
	case Loading:
		o.mu.Unlock()
		return ErrBusy
	default:
		o.mu.Unlock()
		return ErrInvalidTransition
	}
	if o.dialogOpen {
		o.mu.Unlock()
		return nil
	}
	o.dialogOpen = true
	snap := o.snapshotLocked()
	o.mu.Unlock()

	o.notify(snap)
	return nil
}

// CloseDialog dismisses the update dialog without changes.
func (o *Orchestrator) CloseDialog() {
	o.mu.Lock()
	if !o.dialogOpen {
		o.mu.Unlock()
		return
	}
	o.dialogOpen = false
	snap := o.snapshotLocked()
	o.mu.Unlock()

	o.notify(snap)
}

func (o *Orchestrator) start(ctx context.Context, prof profile.Profile, allowed func(State) error) (<-chan Snapshot, error) {
	prof = prof.Normalize()
	if err := prof.Validate(); err != nil {
		return nil, err
	}

	o.mu.Lock()
	if err := allowed(o.state); err != nil {
		o.mu.Unlock()
		return nil, err
	}
	o.profile = prof
	o.hasProfile = true
	o.dialogOpen = false
	o.state = Loading{}
	snap := o.snapshotLocked()
	o.mu.Unlock()

	o.log.Info().Str("phase", string(PhaseLoading)).Msg("Generating meal plan")
	o.notify(snap)

	done := make(chan Snapshot, 1)
	go o.run(context.WithoutCancel(ctx), prof, done)
	return done, nil
}

func (o *Orchestrator) run(ctx context.Context, prof profile.Profile, done chan<- Snapshot) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	plan, meta, err := o.gen.GeneratePlan(ctx, prof)

	if recErr := o.recorder.RecordMeta(context.WithoutCancel(ctx), meta, err != nil); recErr != nil {
		o.log.Warn().Err(recErr).Msg("Failed to record usage metrics")
	}

	var next State
	if err != nil {
		o.log.Error().Err(err).EmbedObject(meta).Msg("Meal plan generation failed")
		next = Failed{Message: err.Error()}
	} else {
		o.log.Info().EmbedObject(meta).Msg("Meal plan ready")
		next = Ready{Plan: plan}
	}

	o.mu.Lock()
	o.state = next
	snap := o.snapshotLocked()
	o.mu.Unlock()

	o.notify(snap)
	done <- snap
	close(done)
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	return Snapshot{
		State:      o.state,
		Profile:    o.profile,
		HasProfile: o.hasProfile,
		DialogOpen: o.dialogOpen,
	}
}

func (o *Orchestrator) notify(snap Snapshot) {
	if o.listener != nil {
		o.listener(snap)
	}
}
