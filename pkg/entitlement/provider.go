package entitlement

import (
	"context"
	"time"
)

// BillingProvider is the minimal contract this core consumes from the
// external billing collaborator. Everything provider-specific (hosted
// checkout UX, payment collection, dunning) stays behind this interface;
// implementations should use the official provider SDK and absorb its
// quirks internally.
type BillingProvider interface {
	// CreateOrGetCustomer resolves the provider-side customer for a user,
	// creating one only when neither a stored ID nor the email matches an
	// existing customer. Must never create duplicates for the same user.
	CreateOrGetCustomer(ctx context.Context, email, name, userID string) (customerID string, err error)

	// CreateCheckoutSession opens a hosted checkout flow.
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error)

	// CreatePortalSession opens a hosted billing-management flow for an
	// existing customer.
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (*PortalSession, error)

	// ParseWebhook verifies and normalizes an asynchronous lifecycle
	// event delivery. The signature must be validated before any payload
	// field is trusted.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*LifecycleEvent, error)
}

// CheckoutSessionRequest carries everything the provider needs to open a
// checkout session.
type CheckoutSessionRequest struct {
	CustomerID      string
	UserID          string // round-tripped through provider custom data
	PriceID         string
	SuccessURL      string
	CancelURL       string
	TrialPeriodDays int // 0 means no trial
}

// EventType is the normalized lifecycle event class. Provider
// implementations map their native event names onto these.
type EventType string

const (
	EventSubscriptionCreated   EventType = "subscription_created"
	EventSubscriptionUpdated   EventType = "subscription_updated"
	EventSubscriptionCancelled EventType = "subscription_cancelled"
	EventPaymentFailed         EventType = "payment_failed"
	EventPaymentRecovered      EventType = "payment_recovered"
)

// LifecycleEvent is a normalized provider event, applied to the store as
// an idempotent upsert keyed by SubscriptionID.
type LifecycleEvent struct {
	EventID            string // provider's delivery ID, used for dedup
	Type               EventType
	ProviderEvent      string // original provider event name
	SubscriptionID     string // provider's subscription ID
	CustomerID         string // provider's customer ID
	UserID             string // our user ID, round-tripped via custom data
	Status             string // provider's subscription status
	PriceID            string
	OccurredAt         time.Time
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
	Raw                map[string]any
}
