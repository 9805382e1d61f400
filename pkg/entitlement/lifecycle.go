package entitlement

import (
	"context"
	"time"

	"github.com/pricewise/plus/pkg/statemachine"
)

// Lifecycle states. These are a projection of a record plus wall-clock
// time, not the persisted status: a pending record inside its trial
// window is TRIALING, the same record past the window is EXPIRED.
const (
	lifecycleNone      = statemachine.StringState("NONE")
	lifecycleTrialing  = statemachine.StringState("TRIALING")
	lifecycleActive    = statemachine.StringState("ACTIVE")
	lifecyclePastDue   = statemachine.StringState("PAST_DUE")
	lifecycleCancelled = statemachine.StringState("CANCELLED")
	lifecycleExpired   = statemachine.StringState("EXPIRED")
)

// Lifecycle events. All but the two checkout events arrive asynchronously
// from the billing provider.
const (
	eventCheckoutTrial    = statemachine.StringEvent("checkout_trial")
	eventCheckoutPaid     = statemachine.StringEvent("checkout_paid")
	eventActivated        = statemachine.StringEvent("activated")
	eventCancelRequested  = statemachine.StringEvent("cancel_requested")
	eventPaymentFailed    = statemachine.StringEvent("payment_failed")
	eventPaymentRecovered = statemachine.StringEvent("payment_recovered")
	eventLapsed           = statemachine.StringEvent("lapsed")
)

var lifecycleTransitions = []statemachine.TransitionDef{
	{From: lifecycleNone, To: lifecycleTrialing, Event: eventCheckoutTrial},
	{From: lifecycleNone, To: lifecycleActive, Event: eventCheckoutPaid},

	{From: lifecycleTrialing, To: lifecycleActive, Event: eventActivated},
	{From: lifecycleTrialing, To: lifecycleCancelled, Event: eventCancelRequested},
	{From: lifecycleTrialing, To: lifecyclePastDue, Event: eventPaymentFailed},

	{From: lifecycleActive, To: lifecyclePastDue, Event: eventPaymentFailed},
	{From: lifecycleActive, To: lifecycleCancelled, Event: eventCancelRequested},
	// Providers report an already-active subscription again on plan or
	// period changes; treat that as a self-transition.
	{From: lifecycleActive, To: lifecycleActive, Event: eventActivated},

	{From: lifecyclePastDue, To: lifecycleActive, Event: eventPaymentRecovered},
	// Providers usually report recovery as a plain status update back to
	// active rather than a dedicated event.
	{From: lifecyclePastDue, To: lifecycleActive, Event: eventActivated},
	{From: lifecyclePastDue, To: lifecycleExpired, Event: eventLapsed},
	{From: lifecyclePastDue, To: lifecycleCancelled, Event: eventCancelRequested},

	{From: lifecycleCancelled, To: lifecycleExpired, Event: eventLapsed},
}

// lifecycleStateOf projects a record onto its lifecycle state at now.
func lifecycleStateOf(record *SubscriptionRecord, now time.Time) statemachine.State {
	if record == nil {
		return lifecycleNone
	}
	switch record.Status {
	case StatusActive:
		if record.IsTrialingAt(now) {
			return lifecycleTrialing
		}
		return lifecycleActive
	case StatusInactive:
		// Pending records never confirmed by the provider: trialing while
		// the trial window is open, expired after it closes.
		if record.IsTrialingAt(now) {
			return lifecycleTrialing
		}
		return lifecycleExpired
	case StatusPastDue, StatusUnpaid:
		return lifecyclePastDue
	case StatusCancelled:
		return lifecycleCancelled
	default:
		return lifecycleExpired
	}
}

// canTransition reports whether firing event from the record's current
// lifecycle state is legal. A throwaway machine instance is seeded per
// call because the machine mutates its current state when fired.
func canTransition(ctx context.Context, record *SubscriptionRecord, event statemachine.Event, now time.Time) bool {
	sm := statemachine.MustNew(lifecycleStateOf(record, now),
		statemachine.WithTransitions(lifecycleTransitions))
	return sm.CanFire(ctx, event, record)
}

// eventForType maps a normalized provider event to the lifecycle event it
// drives. The ok result is false for event types that do not move the
// lifecycle (informational deliveries).
func eventForType(t EventType, status Status) (statemachine.Event, bool) {
	switch t {
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		switch status {
		case StatusActive:
			return eventActivated, true
		case StatusPastDue, StatusUnpaid:
			return eventPaymentFailed, true
		case StatusCancelled:
			return eventCancelRequested, true
		case StatusExpired:
			return eventLapsed, true
		}
		return nil, false
	case EventSubscriptionCancelled:
		return eventCancelRequested, true
	case EventPaymentFailed:
		return eventPaymentFailed, true
	case EventPaymentRecovered:
		return eventPaymentRecovered, true
	default:
		return nil, false
	}
}
