package session

import (
	"wellness-planner/internal/mealplan"
	"wellness-planner/internal/profile"
)

// Phase names a State variant.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseFailed  Phase = "failed"
)

// State is one of Idle, Loading, Ready or Failed.
type State interface {
	Phase() Phase
	isState()
}

// Idle: no profile submitted yet.
type Idle struct{}

// Loading: a plan request is in flight.
type Loading struct{}

// Ready holds the last generated plan.
type Ready struct {
	Plan *mealplan.Plan
}

// Failed holds the message of the last failed generation.
type Failed struct {
	Message string
}

func (Idle) Phase() Phase    { return PhaseIdle }
func (Loading) Phase() Phase { return PhaseLoading }
func (Ready) Phase() Phase   { return PhaseReady }
func (Failed) Phase() Phase  { return PhaseFailed }

func (Idle) isState()    {}
func (Loading) isState() {}
func (Ready) isState()   {}
func (Failed) isState()  {}

// Snapshot is a consistent copy of an orchestrator's observable data.
type Snapshot struct {
	State      State
	Profile    profile.Profile
	HasProfile bool
	DialogOpen bool
}

// Phase returns the phase of the snapshot's state.
func (s Snapshot) Phase() Phase {
	if s.State == nil {
		return PhaseIdle
	}
	return s.State.Phase()
}

// Plan returns the plan when the state is Ready, nil otherwise.
func (s Snapshot) Plan() *mealplan.Plan {
	if r, ok := s.State.(Ready); ok {
		return r.Plan
	}
	return nil
}

// ErrorMessage returns the failure message when the state is Failed.
func (s Snapshot) ErrorMessage() string {
	if f, ok := s.State.(Failed); ok {
		return f.Message
	}
	return ""
}
