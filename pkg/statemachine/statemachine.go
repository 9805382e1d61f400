// Package statemachine provides a small guarded finite state machine.
// Transitions are declared up front; firing an event either moves the
// machine to the target state or fails with a typed error, which makes it
// suitable for validating externally-driven lifecycles before persisting
// their effects.
package statemachine

import "context"

// State is a named state.
type State interface {
	Name() string
}

// Event is a named trigger for a transition.
type Event interface {
	Name() string
}

// Guard decides at runtime whether a transition may proceed.
type Guard func(ctx context.Context, from State, event Event, data any) bool

// Action runs side effects during a transition. An error aborts the
// transition before the state changes.
type Action func(ctx context.Context, from, to State, event Event, data any) error

// Transition is a state change triggered by an event.
type Transition struct {
	From    State
	To      State
	Event   Event
	Guards  []Guard  // all must pass
	Actions []Action // run in order before the state change
}

// StateMachine is the core finite state machine contract.
type StateMachine interface {
	Current() State
	AddTransition(from, to State, event Event, guards []Guard, actions []Action) error
	Fire(ctx context.Context, event Event, data any) error
	CanFire(ctx context.Context, event Event, data any) bool
	Reset() error
}

// StringState is a plain string-backed State.
type StringState string

func (s StringState) Name() string { return string(s) }

// StringEvent is a plain string-backed Event.
type StringEvent string

func (e StringEvent) Name() string { return string(e) }
