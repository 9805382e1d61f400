package entitlement

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionRecord is one subscription lifecycle instance. A user
// accumulates records over time (append-mostly, never deleted): cancelled
// and expired records stay behind for trial-eligibility history and
// auditing. At most one record per user is ACTIVE at any instant, and at
// most one record in a user's entire history carries trial dates — both
// enforced at the storage boundary, not just here.
type SubscriptionRecord struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"userId"`

	PlanType PlanType `json:"planType"`
	Status   Status   `json:"status"`

	StartDate          time.Time  `json:"startDate"`
	EndDate            *time.Time `json:"endDate,omitempty"`
	CurrentPeriodStart *time.Time `json:"currentPeriodStart,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"currentPeriodEnd,omitempty"`

	// Trial dates are set at most once, at record creation, and only when
	// the trial was granted. TrialEnd is always >= TrialStart.
	TrialStart *time.Time `json:"trialStart,omitempty"`
	TrialEnd   *time.Time `json:"trialEnd,omitempty"`

	AutoRenew         bool       `json:"autoRenew"`
	CancelAtPeriodEnd bool       `json:"cancelAtPeriodEnd"`
	CanceledAt        *time.Time `json:"canceledAt,omitempty"`

	ExternalCustomerID     string `json:"externalCustomerId,omitempty"`
	ExternalSubscriptionID string `json:"externalSubscriptionId,omitempty"`
	ExternalPriceID        string `json:"externalPriceId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasTrial reports whether this record carries a trial grant.
func (r *SubscriptionRecord) HasTrial() bool {
	return r.TrialStart != nil
}

// IsTrialingAt reports whether the record's trial window covers now.
// A record without TrialStart is never trialing, regardless of TrialEnd.
func (r *SubscriptionRecord) IsTrialingAt(now time.Time) bool {
	return r.TrialStart != nil && r.TrialEnd != nil && r.TrialEnd.After(now)
}

// TrialDaysRemainingAt returns the whole days left in the trial window,
// rounding partial days up. Zero once the trial has ended or when no
// trial was granted.
func (r *SubscriptionRecord) TrialDaysRemainingAt(now time.Time) int {
	if !r.IsTrialingAt(now) {
		return 0
	}
	remaining := r.TrialEnd.Sub(now)
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) > 0 {
		days++
	}
	return days
}
