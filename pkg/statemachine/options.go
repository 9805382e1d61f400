package statemachine

import "fmt"

// Option configures a state machine during construction.
type Option func(*SimpleStateMachine) error

// TransitionDef declares one transition for WithTransitions.
type TransitionDef struct {
	From    State
	To      State
	Event   Event
	Guards  []Guard
	Actions []Action
}

// New creates a state machine in the given initial state.
func New(initialState State, opts ...Option) (StateMachine, error) {
	if initialState == nil {
		return nil, fmt.Errorf("initial state cannot be nil")
	}

	sm := newSimpleStateMachine(initialState)
	for _, opt := range opts {
		if err := opt(sm); err != nil {
			return nil, err
		}
	}
	return sm, nil
}

// MustNew is New that panics on configuration errors, for transition
// tables that are fixed at compile time.
func MustNew(initialState State, opts ...Option) StateMachine {
	sm, err := New(initialState, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return sm
}

// WithTransition adds a single transition.
func WithTransition(from, to State, event Event) Option {
	return func(sm *SimpleStateMachine) error {
		return sm.AddTransition(from, to, event, nil, nil)
	}
}

// WithTransitions adds a batch of transitions.
func WithTransitions(transitions []TransitionDef) Option {
	return func(sm *SimpleStateMachine) error {
		for i, t := range transitions {
			if err := sm.AddTransition(t.From, t.To, t.Event, t.Guards, t.Actions); err != nil {
				return fmt.Errorf("transition[%d]: %w", i, err)
			}
		}
		return nil
	}
}
