package entitlement

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Decision is the tri-state outcome of a capability check.
type Decision string

const (
	DecisionGranted Decision = "granted"
	DecisionDenied  Decision = "denied"
	DecisionPending Decision = "pending"
)

// StatusReader is the slice of Service the gate depends on.
type StatusReader interface {
	Status(ctx context.Context, userID uuid.UUID) (*StatusView, error)
}

// Gate answers capability checks at the point a capability is consumed.
// PLUS is one bundled tier, so every capability resolves from the same
// IsPlus flag. The gate fails closed: a store or read error is a denial,
// never a grant.
type Gate struct {
	status StatusReader
}

// NewGate creates a feature gate backed by the given status reader.
// Panics on nil to fail fast during initialization.
func NewGate(status StatusReader) *Gate {
	if status == nil {
		panic("entitlement: StatusReader is required")
	}
	return &Gate{status: status}
}

// CanAccess resolves a capability check synchronously.
func (g *Gate) CanAccess(ctx context.Context, userID uuid.UUID, capability Capability) Decision {
	view, err := g.status.Status(ctx, userID)
	if err != nil || view == nil {
		return DecisionDenied
	}
	if view.Derived.IsPlus {
		return DecisionGranted
	}
	return DecisionDenied
}

// Check starts a capability check without blocking. The returned Access
// reports DecisionPending until the underlying status read resolves, so
// callers that must answer immediately never treat an unresolved check as
// granted.
func (g *Gate) Check(ctx context.Context, userID uuid.UUID, capability Capability) *Access {
	a := &Access{done: make(chan struct{})}
	go func() {
		decision := g.CanAccess(ctx, userID, capability)
		a.mu.Lock()
		a.decision = decision
		a.mu.Unlock()
		close(a.done)
	}()
	return a
}

// Access is an in-flight capability check.
type Access struct {
	mu       sync.Mutex
	decision Decision
	done     chan struct{}
}

// Decision returns the current outcome: DecisionPending while the status
// read is still in flight, the resolved decision afterwards.
func (a *Access) Decision() Decision {
	select {
	case <-a.done:
		a.mu.Lock()
		defer a.mu.Unlock()
		return a.decision
	default:
		return DecisionPending
	}
}

// Wait blocks until the check resolves or the context is done. A
// cancelled context is a denial.
func (a *Access) Wait(ctx context.Context) Decision {
	select {
	case <-a.done:
		a.mu.Lock()
		defer a.mu.Unlock()
		return a.decision
	case <-ctx.Done():
		return DecisionDenied
	}
}
