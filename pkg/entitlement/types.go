package entitlement

// PlanType identifies the entitlement tier a record grants.
type PlanType string

const (
	PlanFree PlanType = "FREE"
	PlanPlus PlanType = "PLUS"
)

// Status is the persisted lifecycle status of a subscription record.
// It mirrors the billing provider's vocabulary; derived flags are computed
// from it together with the record's dates, never stored.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusInactive  Status = "INACTIVE" // created, awaiting provider confirmation
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
	StatusPastDue   Status = "PAST_DUE"
	StatusUnpaid    Status = "UNPAID"
)

// Capability names a PLUS feature at the point it is consumed.
// PLUS is a single bundled tier: every capability gates on the same
// IsPlus flag, the keys exist for call-site readability and audit logs.
type Capability string

const (
	CapabilityAdvancedSearch  Capability = "advanced_search"
	CapabilityPriceAlerts     Capability = "price_alerts"
	CapabilityAnalytics       Capability = "analytics"
	CapabilityExportData      Capability = "export_data"
	CapabilityCoupons         Capability = "coupons"
	CapabilityPrioritySupport Capability = "priority_support"
	CapabilityAdFree          Capability = "ad_free"
)

// BillingInterval is the billing frequency of a plan.
type BillingInterval string

const (
	BillingIntervalMonthly BillingInterval = "monthly"
	BillingIntervalAnnual  BillingInterval = "annual"
)

// Money is a monetary amount in the smallest currency unit.
// $9.99 USD is Amount: 999, Currency: "USD".
type Money struct {
	Amount   int64  `yaml:"amount" json:"amount"`
	Currency string `yaml:"currency" json:"currency"`
}

const (
	// TrialPeriodDays is the length of the one-time free trial.
	TrialPeriodDays = 7

	// TrialExpiryWarningDays is the remaining-days threshold at which
	// clients surface an "expiring soon" prompt.
	TrialExpiryWarningDays = 2
)

// CheckoutParams are the caller-supplied inputs to Checkout.
type CheckoutParams struct {
	PriceID    string
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is a provider-hosted checkout flow.
type CheckoutSession struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// PortalSession is a provider-hosted billing management flow.
type PortalSession struct {
	URL string `json:"url"`
}
