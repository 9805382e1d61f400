package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// SimpleStateMachine is a thread-safe in-memory state machine. Transition
// lookup is O(1) via a nested map keyed by state name then event name.
type SimpleStateMachine struct {
	initialState State
	currentState State
	transitions  map[string]map[string][]Transition
	mu           sync.RWMutex
}

func newSimpleStateMachine(initialState State) *SimpleStateMachine {
	return &SimpleStateMachine{
		initialState: initialState,
		currentState: initialState,
		transitions:  make(map[string]map[string][]Transition),
	}
}

func (sm *SimpleStateMachine) Current() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.currentState
}

func (sm *SimpleStateMachine) AddTransition(from, to State, event Event, guards []Guard, actions []Action) error {
	if from == nil || to == nil || event == nil {
		return ErrInvalidTransition
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	fromName := from.Name()
	if _, ok := sm.transitions[fromName]; !ok {
		sm.transitions[fromName] = make(map[string][]Transition)
	}

	// Multiple transitions per from/event pair are allowed so guards can
	// branch to different targets.
	sm.transitions[fromName][event.Name()] = append(sm.transitions[fromName][event.Name()], Transition{
		From:    from,
		To:      to,
		Event:   event,
		Guards:  guards,
		Actions: actions,
	})
	return nil
}

func (sm *SimpleStateMachine) Fire(ctx context.Context, event Event, data any) error {
	if event == nil {
		return ErrInvalidEvent
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	stateName := sm.currentState.Name()
	candidates, ok := sm.transitions[stateName][event.Name()]
	if !ok || len(candidates) == 0 {
		return NewErrNoTransitionAvailable(stateName, event.Name())
	}

	// First transition whose guards all pass wins.
	var match *Transition
	for i := range candidates {
		if sm.guardsPass(ctx, candidates[i], event, data) {
			match = &candidates[i]
			break
		}
	}
	if match == nil {
		return NewErrTransitionRejected(stateName, event.Name())
	}

	// Any action failure aborts before the state changes.
	for _, action := range match.Actions {
		if action == nil {
			continue
		}
		if err := action(ctx, sm.currentState, match.To, event, data); err != nil {
			return fmt.Errorf("action failed: %w", err)
		}
	}

	sm.currentState = match.To
	return nil
}

func (sm *SimpleStateMachine) CanFire(ctx context.Context, event Event, data any) bool {
	if event == nil {
		return false
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	candidates, ok := sm.transitions[sm.currentState.Name()][event.Name()]
	if !ok {
		return false
	}
	for i := range candidates {
		if sm.guardsPass(ctx, candidates[i], event, data) {
			return true
		}
	}
	return false
}

func (sm *SimpleStateMachine) Reset() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.currentState = sm.initialState
	return nil
}

// guardsPass must be called with the mutex held.
func (sm *SimpleStateMachine) guardsPass(ctx context.Context, t Transition, event Event, data any) bool {
	for _, guard := range t.Guards {
		if guard != nil && !guard(ctx, sm.currentState, event, data) {
			return false
		}
	}
	return true
}
