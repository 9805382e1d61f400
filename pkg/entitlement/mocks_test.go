package entitlement_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/pricewise/plus/pkg/entitlement"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) CreateOrGetCustomer(ctx context.Context, email, name, userID string) (string, error) {
	args := m.Called(ctx, email, name, userID)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) CreateCheckoutSession(ctx context.Context, req entitlement.CheckoutSessionRequest) (*entitlement.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if s := args.Get(0); s != nil {
		return s.(*entitlement.CheckoutSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*entitlement.PortalSession, error) {
	args := m.Called(ctx, customerID, returnURL)
	if s := args.Get(0); s != nil {
		return s.(*entitlement.PortalSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*entitlement.LifecycleEvent, error) {
	args := m.Called(ctx, payload, signature)
	if e := args.Get(0); e != nil {
		return e.(*entitlement.LifecycleEvent), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetActiveRecord(ctx context.Context, userID uuid.UUID) (*entitlement.SubscriptionRecord, error) {
	args := m.Called(ctx, userID)
	if r := args.Get(0); r != nil {
		return r.(*entitlement.SubscriptionRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetHistory(ctx context.Context, userID uuid.UUID) ([]entitlement.SubscriptionRecord, error) {
	args := m.Called(ctx, userID)
	if h := args.Get(0); h != nil {
		return h.([]entitlement.SubscriptionRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) UpsertRecord(ctx context.Context, record *entitlement.SubscriptionRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) Lookup(ctx context.Context, userID uuid.UUID) (*entitlement.UserProfile, error) {
	args := m.Called(ctx, userID)
	if p := args.Get(0); p != nil {
		return p.(*entitlement.UserProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func ptr[T any](v T) *T { return &v }

func testPlans() entitlement.PlanSource {
	return entitlement.NewInMemSource(
		entitlement.Plan{
			PriceID:   "pri_plus_monthly",
			Name:      "PLUS Monthly",
			Price:     entitlement.Money{Amount: 499, Currency: "USD"},
			Interval:  entitlement.BillingIntervalMonthly,
			TrialDays: entitlement.TrialPeriodDays,
		},
		entitlement.Plan{
			PriceID:   "pri_plus_annual",
			Name:      "PLUS Annual",
			Price:     entitlement.Money{Amount: 3999, Currency: "USD"},
			Interval:  entitlement.BillingIntervalAnnual,
			TrialDays: entitlement.TrialPeriodDays,
		},
	)
}
