package entitlement

import "time"

// DerivedStatus is the ephemeral projection of a subscription record at a
// point in time. It is computed on every read and never persisted, so the
// scattered per-endpoint boolean checks all collapse into Derive.
type DerivedStatus struct {
	IsPlus              bool `json:"isPlus"`
	IsTrial             bool `json:"isTrial"`
	IsActive            bool `json:"isActive"`
	IsCancelled         bool `json:"isCancelled"`
	IsExpired           bool `json:"isExpired"`
	IsPastDue           bool `json:"isPastDue"`
	TrialDaysRemaining  int  `json:"trialDaysRemaining"`
	IsTrialExpiringSoon bool `json:"isTrialExpiringSoon"`
}

// Derive computes the DerivedStatus of a record at the given time.
// A nil record means the user has no subscription history at all: every
// flag is false and the caller is treated as FREE tier.
func Derive(record *SubscriptionRecord, now time.Time) DerivedStatus {
	if record == nil {
		return DerivedStatus{}
	}

	s := DerivedStatus{
		IsTrial:            record.IsTrialingAt(now),
		IsActive:           record.Status == StatusActive,
		IsCancelled:        record.Status == StatusCancelled,
		IsPastDue:          record.Status == StatusPastDue,
		TrialDaysRemaining: record.TrialDaysRemainingAt(now),
	}
	s.IsPlus = s.IsActive && record.PlanType == PlanPlus
	s.IsExpired = record.Status == StatusExpired ||
		(record.EndDate != nil && record.EndDate.Before(now) && record.Status != StatusActive)
	s.IsTrialExpiringSoon = s.IsTrial && s.TrialDaysRemaining <= TrialExpiryWarningDays

	return s
}

// StatusView pairs the derived flags with the raw record they were
// computed from, as returned by the status endpoint.
type StatusView struct {
	Derived DerivedStatus       `json:"derived"`
	Record  *SubscriptionRecord `json:"record,omitempty"`
}
