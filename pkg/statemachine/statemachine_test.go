package statemachine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricewise/plus/pkg/statemachine"
)

var (
	trialing = statemachine.StringState("trialing")
	active   = statemachine.StringState("active")
	pastDue  = statemachine.StringState("past_due")
	expired  = statemachine.StringState("expired")

	convert = statemachine.StringEvent("convert")
	fail    = statemachine.StringEvent("fail")
	recovered = statemachine.StringEvent("recover")
	lapse   = statemachine.StringEvent("lapse")
)

func newBillingMachine(t *testing.T, initial statemachine.State, opts ...statemachine.Option) statemachine.StateMachine {
	t.Helper()
	base := []statemachine.Option{
		statemachine.WithTransition(trialing, active, convert),
		statemachine.WithTransition(trialing, pastDue, fail),
		statemachine.WithTransition(active, pastDue, fail),
		statemachine.WithTransition(pastDue, active, recovered),
		statemachine.WithTransition(pastDue, expired, lapse),
	}
	sm, err := statemachine.New(initial, append(base, opts...)...)
	require.NoError(t, err)
	return sm
}

func TestStateMachine_Fire(t *testing.T) {
	t.Parallel()

	t.Run("walks declared transitions", func(t *testing.T) {
		t.Parallel()
		sm := newBillingMachine(t, trialing)
		ctx := context.Background()

		require.NoError(t, sm.Fire(ctx, convert, nil))
		assert.Equal(t, active.Name(), sm.Current().Name())

		require.NoError(t, sm.Fire(ctx, fail, nil))
		require.NoError(t, sm.Fire(ctx, lapse, nil))
		assert.Equal(t, expired.Name(), sm.Current().Name())
	})

	t.Run("rejects undeclared transitions", func(t *testing.T) {
		t.Parallel()
		sm := newBillingMachine(t, expired)

		err := sm.Fire(context.Background(), recovered, nil)
		require.Error(t, err)
		assert.True(t, statemachine.IsNoTransitionAvailableError(err))
		assert.Equal(t, expired.Name(), sm.Current().Name())
	})

	t.Run("guard blocks transition", func(t *testing.T) {
		t.Parallel()
		denyAll := func(ctx context.Context, from statemachine.State, event statemachine.Event, data any) bool {
			return false
		}
		sm, err := statemachine.New(pastDue, statemachine.WithTransitions([]statemachine.TransitionDef{
			{From: pastDue, To: active, Event: recovered, Guards: []statemachine.Guard{denyAll}},
		}))
		require.NoError(t, err)

		err = sm.Fire(context.Background(), recovered, nil)
		require.Error(t, err)
		assert.True(t, statemachine.IsTransitionRejectedError(err))
	})

	t.Run("action failure aborts before state change", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		failing := func(ctx context.Context, from, to statemachine.State, event statemachine.Event, data any) error {
			return boom
		}
		sm, err := statemachine.New(trialing, statemachine.WithTransitions([]statemachine.TransitionDef{
			{From: trialing, To: active, Event: convert, Actions: []statemachine.Action{failing}},
		}))
		require.NoError(t, err)

		err = sm.Fire(context.Background(), convert, nil)
		require.ErrorIs(t, err, boom)
		assert.Equal(t, trialing.Name(), sm.Current().Name())
	})
}

func TestStateMachine_CanFire(t *testing.T) {
	t.Parallel()

	sm := newBillingMachine(t, active)
	ctx := context.Background()

	assert.True(t, sm.CanFire(ctx, fail, nil))
	assert.False(t, sm.CanFire(ctx, convert, nil))
	assert.False(t, sm.CanFire(ctx, nil, nil))
}

func TestStateMachine_Reset(t *testing.T) {
	t.Parallel()

	sm := newBillingMachine(t, trialing)
	ctx := context.Background()

	require.NoError(t, sm.Fire(ctx, convert, nil))
	require.NoError(t, sm.Reset())
	assert.Equal(t, trialing.Name(), sm.Current().Name())
}

func TestMustNew_PanicsOnNilInitialState(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		_ = statemachine.MustNew(nil)
	})
}
