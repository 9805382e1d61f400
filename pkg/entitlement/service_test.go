package entitlement_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pricewise/plus/pkg/entitlement"
)

const (
	testCustomerID = "ctm_01jabc"
	testSubID      = "sub_01jxyz"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestService(t *testing.T, provider entitlement.BillingProvider, store entitlement.EntitlementStore, users entitlement.UserDirectory, clk *clock) entitlement.Service {
	t.Helper()
	svc, err := entitlement.NewService(context.Background(), testPlans(), provider, store, users,
		entitlement.WithClock(clk.Now))
	require.NoError(t, err)
	return svc
}

func TestServiceTrialEligibility(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clk := &clock{now: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}

	t.Run("unauthenticated", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, &mockProvider{}, entitlement.NewMemoryStore(), &mockUsers{}, clk)
		_, err := svc.TrialEligibility(ctx, uuid.Nil)
		assert.ErrorIs(t, err, entitlement.ErrUnauthenticated)
	})

	t.Run("new user is eligible", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, &mockProvider{}, entitlement.NewMemoryStore(), &mockUsers{}, clk)
		elig, err := svc.TrialEligibility(ctx, uuid.New())
		require.NoError(t, err)
		assert.True(t, elig.IsEligible)
		assert.Equal(t, entitlement.ReasonNeverSubscribed, elig.Reason)
	})

	t.Run("store failure surfaces as internal", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{}
		store.On("GetHistory", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

		svc := newTestService(t, &mockProvider{}, store, &mockUsers{}, clk)
		_, err := svc.TrialEligibility(ctx, uuid.New())
		require.Error(t, err)
		assert.Equal(t, entitlement.CodeInternal, entitlement.CodeOf(err))
	})
}

func TestServiceCheckout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	params := entitlement.CheckoutParams{
		PriceID:    "pri_plus_monthly",
		SuccessURL: "https://app.pricewise.test/upgrade/done",
		CancelURL:  "https://app.pricewise.test/upgrade",
	}

	t.Run("unauthenticated", func(t *testing.T) {
		t.Parallel()

		clk := &clock{now: time.Now().UTC()}
		svc := newTestService(t, &mockProvider{}, entitlement.NewMemoryStore(), &mockUsers{}, clk)
		_, err := svc.Checkout(ctx, uuid.Nil, params)
		assert.ErrorIs(t, err, entitlement.ErrUnauthenticated)
	})

	t.Run("unknown price is rejected before any side effect", func(t *testing.T) {
		t.Parallel()

		clk := &clock{now: time.Now().UTC()}
		provider := &mockProvider{}
		store := &mockStore{}
		users := &mockUsers{}

		svc := newTestService(t, provider, store, users, clk)
		_, err := svc.Checkout(ctx, uuid.New(), entitlement.CheckoutParams{PriceID: "pri_unknown"})
		assert.ErrorIs(t, err, entitlement.ErrPriceNotAllowed)
		assert.Equal(t, entitlement.CodeInvalidArgument, entitlement.CodeOf(err))

		// No store read, no provider call, nothing written.
		store.AssertNotCalled(t, "GetActiveRecord")
		store.AssertNotCalled(t, "UpsertRecord")
		provider.AssertNotCalled(t, "CreateCheckoutSession")
	})

	t.Run("active subscription conflicts", func(t *testing.T) {
		t.Parallel()

		clk := &clock{now: time.Now().UTC()}
		userID := uuid.New()
		store := entitlement.NewMemoryStore()
		require.NoError(t, store.UpsertRecord(ctx, &entitlement.SubscriptionRecord{
			ID: uuid.New(), UserID: userID,
			PlanType: entitlement.PlanPlus, Status: entitlement.StatusActive,
			StartDate: clk.now, CreatedAt: clk.now,
		}))

		svc := newTestService(t, &mockProvider{}, store, &mockUsers{}, clk)
		_, err := svc.Checkout(ctx, userID, params)
		assert.ErrorIs(t, err, entitlement.ErrAlreadySubscribed)
		assert.Equal(t, entitlement.CodeConflict, entitlement.CodeOf(err))
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()

		clk := &clock{now: time.Now().UTC()}
		userID := uuid.New()
		users := &mockUsers{}
		users.On("Lookup", mock.Anything, userID).Return(nil, entitlement.ErrUserNotFound)

		svc := newTestService(t, &mockProvider{}, entitlement.NewMemoryStore(), users, clk)
		_, err := svc.Checkout(ctx, userID, params)
		assert.ErrorIs(t, err, entitlement.ErrUserNotFound)
	})

	t.Run("eligible user gets trial checkout and a pending record", func(t *testing.T) {
		t.Parallel()

		clk := &clock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
		userID := uuid.New()
		store := entitlement.NewMemoryStore()

		users := &mockUsers{}
		users.On("Lookup", mock.Anything, userID).Return(&entitlement.UserProfile{
			Email: "ada@example.com", Name: "Ada",
		}, nil)

		provider := &mockProvider{}
		provider.On("CreateOrGetCustomer", mock.Anything, "ada@example.com", "Ada", userID.String()).
			Return(testCustomerID, nil)
		provider.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(req entitlement.CheckoutSessionRequest) bool {
			return req.CustomerID == testCustomerID &&
				req.PriceID == params.PriceID &&
				req.TrialPeriodDays == entitlement.TrialPeriodDays
		})).Return(&entitlement.CheckoutSession{SessionID: "txn_01j", URL: "https://checkout.test/txn_01j"}, nil)

		svc := newTestService(t, provider, store, users, clk)
		session, err := svc.Checkout(ctx, userID, params)
		require.NoError(t, err)
		assert.Equal(t, "https://checkout.test/txn_01j", session.URL)

		history, err := store.GetHistory(ctx, userID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		pending := history[0]
		assert.Equal(t, entitlement.StatusInactive, pending.Status)
		require.NotNil(t, pending.TrialStart)
		require.NotNil(t, pending.TrialEnd)
		assert.Equal(t, clk.now, *pending.TrialStart)
		assert.Equal(t, clk.now.AddDate(0, 0, entitlement.TrialPeriodDays), *pending.TrialEnd)
		assert.False(t, pending.TrialEnd.Before(*pending.TrialStart))

		// Eligibility is burned immediately.
		elig, err := svc.TrialEligibility(ctx, userID)
		require.NoError(t, err)
		assert.False(t, elig.IsEligible)
		assert.Equal(t, entitlement.ReasonTrialAlreadyUsed, elig.Reason)

		provider.AssertExpectations(t)
	})

	t.Run("used trial means paid checkout without a new record", func(t *testing.T) {
		t.Parallel()

		clk := &clock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
		userID := uuid.New()
		store := entitlement.NewMemoryStore()

		oldStart := clk.now.AddDate(-1, 0, 0)
		oldEnd := oldStart.AddDate(0, 0, 7)
		require.NoError(t, store.UpsertRecord(ctx, &entitlement.SubscriptionRecord{
			ID: uuid.New(), UserID: userID,
			PlanType: entitlement.PlanPlus, Status: entitlement.StatusExpired,
			StartDate: oldStart, EndDate: &oldEnd,
			TrialStart: &oldStart, TrialEnd: &oldEnd,
			ExternalCustomerID: testCustomerID,
			CreatedAt:          oldStart,
		}))

		users := &mockUsers{}
		users.On("Lookup", mock.Anything, userID).Return(&entitlement.UserProfile{Email: "ada@example.com"}, nil)

		provider := &mockProvider{}
		provider.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(req entitlement.CheckoutSessionRequest) bool {
			return req.TrialPeriodDays == 0 && req.CustomerID == testCustomerID
		})).Return(&entitlement.CheckoutSession{SessionID: "txn_02j", URL: "https://checkout.test/txn_02j"}, nil)

		svc := newTestService(t, provider, store, users, clk)
		_, err := svc.Checkout(ctx, userID, params)
		require.NoError(t, err)

		// The stored customer ID is reused; no provider customer lookup.
		provider.AssertNotCalled(t, "CreateOrGetCustomer")

		history, err := store.GetHistory(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})

	t.Run("provider failure is upstream", func(t *testing.T) {
		t.Parallel()

		clk := &clock{now: time.Now().UTC()}
		userID := uuid.New()
		users := &mockUsers{}
		users.On("Lookup", mock.Anything, userID).Return(&entitlement.UserProfile{Email: "a@b.c"}, nil)

		provider := &mockProvider{}
		provider.On("CreateOrGetCustomer", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("", errors.New("503 from billing API"))

		svc := newTestService(t, provider, entitlement.NewMemoryStore(), users, clk)
		_, err := svc.Checkout(ctx, userID, params)
		assert.ErrorIs(t, err, entitlement.ErrProviderFailure)
		assert.Equal(t, entitlement.CodeUpstreamError, entitlement.CodeOf(err))
	})
}

func TestServicePortal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clk := &clock{now: time.Now().UTC()}

	t.Run("requires return URL", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, &mockProvider{}, entitlement.NewMemoryStore(), &mockUsers{}, clk)
		_, err := svc.Portal(ctx, uuid.New(), "")
		assert.ErrorIs(t, err, entitlement.ErrMissingReturnURL)
	})

	t.Run("no billing account", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, &mockProvider{}, entitlement.NewMemoryStore(), &mockUsers{}, clk)
		_, err := svc.Portal(ctx, uuid.New(), "https://app.pricewise.test/account")
		assert.ErrorIs(t, err, entitlement.ErrNoBillingAccount)
		assert.Equal(t, entitlement.CodeNotFound, entitlement.CodeOf(err))
	})

	t.Run("opens portal for existing customer", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		store := entitlement.NewMemoryStore()
		require.NoError(t, store.UpsertRecord(ctx, &entitlement.SubscriptionRecord{
			ID: uuid.New(), UserID: userID,
			PlanType: entitlement.PlanPlus, Status: entitlement.StatusActive,
			ExternalCustomerID: testCustomerID,
			StartDate:          clk.now, CreatedAt: clk.now,
		}))

		provider := &mockProvider{}
		provider.On("CreatePortalSession", mock.Anything, testCustomerID, "https://app.pricewise.test/account").
			Return(&entitlement.PortalSession{URL: "https://portal.test/s"}, nil)

		svc := newTestService(t, provider, store, &mockUsers{}, clk)
		session, err := svc.Portal(ctx, userID, "https://app.pricewise.test/account")
		require.NoError(t, err)
		assert.Equal(t, "https://portal.test/s", session.URL)
	})
}

func TestServiceApplyEvent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("rejects malformed events", func(t *testing.T) {
		t.Parallel()

		clk := &clock{now: time.Now().UTC()}
		svc := newTestService(t, &mockProvider{}, entitlement.NewMemoryStore(), &mockUsers{}, clk)

		assert.ErrorIs(t, svc.ApplyEvent(ctx, nil), entitlement.ErrInvalidEvent)
		assert.ErrorIs(t, svc.ApplyEvent(ctx, &entitlement.LifecycleEvent{UserID: uuid.NewString()}), entitlement.ErrInvalidEvent)
		assert.ErrorIs(t, svc.ApplyEvent(ctx, &entitlement.LifecycleEvent{
			SubscriptionID: testSubID, UserID: "not-a-uuid",
		}), entitlement.ErrInvalidEvent)
	})

	t.Run("subscription created activates a new record", func(t *testing.T) {
		t.Parallel()

		clk := &clock{now: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
		userID := uuid.New()
		store := entitlement.NewMemoryStore()
		svc := newTestService(t, &mockProvider{}, store, &mockUsers{}, clk)

		periodEnd := clk.now.AddDate(0, 1, 0)
		require.NoError(t, svc.ApplyEvent(ctx, &entitlement.LifecycleEvent{
			EventID:            "evt_1",
			Type:               entitlement.EventSubscriptionCreated,
			SubscriptionID:     testSubID,
			CustomerID:         testCustomerID,
			UserID:             userID.String(),
			Status:             "active",
			OccurredAt:         clk.now,
			CurrentPeriodStart: &clk.now,
			CurrentPeriodEnd:   &periodEnd,
		}))

		rec, err := store.GetActiveRecord(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, entitlement.StatusActive, rec.Status)
		assert.Equal(t, testSubID, rec.ExternalSubscriptionID)
		assert.False(t, rec.HasTrial())
	})

	t.Run("links confirmation to the pending trial record", func(t *testing.T) {
		t.Parallel()

		clk := &clock{now: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
		userID := uuid.New()
		store := entitlement.NewMemoryStore()
		trialEnd := clk.now.AddDate(0, 0, 7)
		pendingID := uuid.New()
		require.NoError(t, store.UpsertRecord(ctx, &entitlement.SubscriptionRecord{
			ID: pendingID, UserID: userID,
			PlanType: entitlement.PlanPlus, Status: entitlement.StatusInactive,
			StartDate: clk.now, EndDate: &trialEnd,
			TrialStart: &clk.now, TrialEnd: &trialEnd,
			ExternalCustomerID: testCustomerID,
			CreatedAt:          clk.now,
		}))

		svc := newTestService(t, &mockProvider{}, store, &mockUsers{}, clk)
		require.NoError(t, svc.ApplyEvent(ctx, &entitlement.LifecycleEvent{
			EventID:        "evt_2",
			Type:           entitlement.EventSubscriptionCreated,
			SubscriptionID: testSubID,
			UserID:         userID.String(),
			Status:         "trialing",
			OccurredAt:     clk.now,
		}))

		rec, err := store.GetActiveRecord(ctx, userID)
		require.NoError(t, err)
		// The pending record was linked and confirmed, not duplicated.
		assert.Equal(t, pendingID, rec.ID)
		assert.Equal(t, testSubID, rec.ExternalSubscriptionID)
		assert.True(t, rec.IsTrialingAt(clk.now))

		history, err := store.GetHistory(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})

	t.Run("redelivered event is a no-op refresh", func(t *testing.T) {
		t.Parallel()

		clk := &clock{now: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
		userID := uuid.New()
		store := entitlement.NewMemoryStore()
		svc := newTestService(t, &mockProvider{}, store, &mockUsers{}, clk)

		event := &entitlement.LifecycleEvent{
			EventID:        "evt_3",
			Type:           entitlement.EventSubscriptionCreated,
			SubscriptionID: testSubID,
			UserID:         userID.String(),
			Status:         "active",
			OccurredAt:     clk.now,
		}
		require.NoError(t, svc.ApplyEvent(ctx, event))
		require.NoError(t, svc.ApplyEvent(ctx, event))

		history, err := store.GetHistory(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})

	t.Run("rejects transitions out of a terminal state", func(t *testing.T) {
		t.Parallel()

		clk := &clock{now: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
		userID := uuid.New()
		store := entitlement.NewMemoryStore()
		require.NoError(t, store.UpsertRecord(ctx, &entitlement.SubscriptionRecord{
			ID: uuid.New(), UserID: userID,
			PlanType: entitlement.PlanPlus, Status: entitlement.StatusExpired,
			ExternalSubscriptionID: testSubID,
			StartDate:              clk.now.AddDate(0, -2, 0),
			CreatedAt:              clk.now.AddDate(0, -2, 0),
		}))

		svc := newTestService(t, &mockProvider{}, store, &mockUsers{}, clk)
		err := svc.ApplyEvent(ctx, &entitlement.LifecycleEvent{
			EventID:        "evt_4",
			Type:           entitlement.EventSubscriptionUpdated,
			SubscriptionID: testSubID,
			UserID:         userID.String(),
			Status:         "past_due",
			OccurredAt:     clk.now,
		})
		assert.ErrorIs(t, err, entitlement.ErrInvalidTransition)
		assert.Equal(t, entitlement.CodeInvalidArgument, entitlement.CodeOf(err))
	})

	t.Run("payment failure and recovery", func(t *testing.T) {
		t.Parallel()

		clk := &clock{now: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
		userID := uuid.New()
		store := entitlement.NewMemoryStore()
		svc := newTestService(t, &mockProvider{}, store, &mockUsers{}, clk)

		apply := func(status string, eventType entitlement.EventType) error {
			return svc.ApplyEvent(ctx, &entitlement.LifecycleEvent{
				EventID:        uuid.NewString(),
				Type:           eventType,
				SubscriptionID: testSubID,
				UserID:         userID.String(),
				Status:         status,
				OccurredAt:     clk.now,
			})
		}

		require.NoError(t, apply("active", entitlement.EventSubscriptionCreated))
		require.NoError(t, apply("past_due", entitlement.EventPaymentFailed))

		view := statusOf(t, svc, userID)
		assert.True(t, view.Derived.IsPastDue)
		assert.False(t, view.Derived.IsPlus)

		require.NoError(t, apply("active", entitlement.EventPaymentRecovered))
		view = statusOf(t, svc, userID)
		assert.True(t, view.Derived.IsPlus)
		assert.False(t, view.Derived.IsPastDue)
	})

	t.Run("cancellation keeps access until period end", func(t *testing.T) {
		t.Parallel()

		clk := &clock{now: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
		userID := uuid.New()
		store := entitlement.NewMemoryStore()
		svc := newTestService(t, &mockProvider{}, store, &mockUsers{}, clk)

		periodEnd := clk.now.AddDate(0, 1, 0)
		require.NoError(t, svc.ApplyEvent(ctx, &entitlement.LifecycleEvent{
			EventID: "evt_5", Type: entitlement.EventSubscriptionCreated,
			SubscriptionID: testSubID, UserID: userID.String(),
			Status: "active", OccurredAt: clk.now, CurrentPeriodEnd: &periodEnd,
		}))
		require.NoError(t, svc.ApplyEvent(ctx, &entitlement.LifecycleEvent{
			EventID: "evt_6", Type: entitlement.EventSubscriptionCancelled,
			SubscriptionID: testSubID, UserID: userID.String(),
			Status: "cancelled", OccurredAt: clk.now, CurrentPeriodEnd: &periodEnd,
		}))

		view := statusOf(t, svc, userID)
		assert.True(t, view.Derived.IsCancelled)
		assert.False(t, view.Derived.IsExpired)
		require.NotNil(t, view.Record.EndDate)
		assert.Equal(t, periodEnd, *view.Record.EndDate)
		// Immediate cancellations arrive without a scheduled change flag;
		// the record must still never report an upcoming renewal.
		assert.False(t, view.Record.AutoRenew)

		// Past the period end the same record reads as expired.
		clk.Advance(32 * 24 * time.Hour)
		view = statusOf(t, svc, userID)
		assert.True(t, view.Derived.IsExpired)
	})
}

func statusOf(t *testing.T, svc entitlement.Service, userID uuid.UUID) *entitlement.StatusView {
	t.Helper()
	view, err := svc.Status(context.Background(), userID)
	require.NoError(t, err)
	return view
}

// TestTrialJourney walks the full first-week experience: eligibility,
// trial checkout, provider confirmation, the expiring-soon window, and
// both possible endings (conversion to paid, silent lapse).
func TestTrialJourney(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	params := entitlement.CheckoutParams{
		PriceID:    "pri_plus_monthly",
		SuccessURL: "https://app.pricewise.test/done",
		CancelURL:  "https://app.pricewise.test/upgrade",
	}

	setup := func(t *testing.T) (entitlement.Service, *clock, uuid.UUID) {
		t.Helper()

		clk := &clock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
		userID := uuid.New()

		users := &mockUsers{}
		users.On("Lookup", mock.Anything, userID).Return(&entitlement.UserProfile{
			Email: "grace@example.com", Name: "Grace",
		}, nil)

		provider := &mockProvider{}
		provider.On("CreateOrGetCustomer", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(testCustomerID, nil)
		provider.On("CreateCheckoutSession", mock.Anything, mock.Anything).
			Return(&entitlement.CheckoutSession{SessionID: "txn_07", URL: "https://checkout.test/txn_07"}, nil)

		svc := newTestService(t, provider, entitlement.NewMemoryStore(), users, clk)
		return svc, clk, userID
	}

	confirmTrial := func(t *testing.T, svc entitlement.Service, clk *clock, userID uuid.UUID) {
		t.Helper()
		require.NoError(t, svc.ApplyEvent(ctx, &entitlement.LifecycleEvent{
			EventID:        uuid.NewString(),
			Type:           entitlement.EventSubscriptionCreated,
			SubscriptionID: testSubID,
			CustomerID:     testCustomerID,
			UserID:         userID.String(),
			Status:         "trialing",
			OccurredAt:     clk.now,
		}))
	}

	t.Run("trial converts to paid", func(t *testing.T) {
		t.Parallel()

		svc, clk, userID := setup(t)
		gate := entitlement.NewGate(svc)

		// Day 0: eligible, checkout, provider confirms the trial.
		elig, err := svc.TrialEligibility(ctx, userID)
		require.NoError(t, err)
		require.True(t, elig.IsEligible)

		_, err = svc.Checkout(ctx, userID, params)
		require.NoError(t, err)
		confirmTrial(t, svc, clk, userID)

		view := statusOf(t, svc, userID)
		assert.True(t, view.Derived.IsPlus)
		assert.True(t, view.Derived.IsTrial)
		assert.Equal(t, 7, view.Derived.TrialDaysRemaining)
		assert.Equal(t, entitlement.DecisionGranted,
			gate.CanAccess(ctx, userID, entitlement.CapabilityPriceAlerts))

		// Day 5: inside the expiring-soon window.
		clk.Advance(5 * 24 * time.Hour)
		view = statusOf(t, svc, userID)
		assert.True(t, view.Derived.IsTrial)
		assert.Equal(t, 2, view.Derived.TrialDaysRemaining)
		assert.True(t, view.Derived.IsTrialExpiringSoon)

		// Day 7: the provider converts the trial into a paid cycle.
		clk.Advance(2 * 24 * time.Hour)
		periodEnd := clk.now.AddDate(0, 1, 0)
		require.NoError(t, svc.ApplyEvent(ctx, &entitlement.LifecycleEvent{
			EventID:          uuid.NewString(),
			Type:             entitlement.EventSubscriptionUpdated,
			SubscriptionID:   testSubID,
			UserID:           userID.String(),
			Status:           "active",
			OccurredAt:       clk.now,
			CurrentPeriodEnd: &periodEnd,
		}))

		view = statusOf(t, svc, userID)
		assert.True(t, view.Derived.IsPlus)
		assert.False(t, view.Derived.IsTrial)
		assert.Zero(t, view.Derived.TrialDaysRemaining)
	})

	t.Run("abandoned trial lapses on day eight", func(t *testing.T) {
		t.Parallel()

		svc, clk, userID := setup(t)
		gate := entitlement.NewGate(svc)

		_, err := svc.Checkout(ctx, userID, params)
		require.NoError(t, err)
		// No provider confirmation ever arrives.

		// Day 8: the unconfirmed window has closed.
		clk.Advance(8 * 24 * time.Hour)
		view := statusOf(t, svc, userID)
		assert.False(t, view.Derived.IsPlus)
		assert.False(t, view.Derived.IsTrial)
		assert.True(t, view.Derived.IsExpired)
		assert.Zero(t, view.Derived.TrialDaysRemaining)
		assert.Equal(t, entitlement.DecisionDenied,
			gate.CanAccess(ctx, userID, entitlement.CapabilityAdvancedSearch))

		// Eligibility stays burned.
		elig, err := svc.TrialEligibility(ctx, userID)
		require.NoError(t, err)
		assert.False(t, elig.IsEligible)
	})
}
