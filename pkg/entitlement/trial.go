package entitlement

// EligibilityReason explains a trial-eligibility decision for user-facing
// messaging.
type EligibilityReason string

const (
	// ReasonNeverSubscribed: no subscription history at all.
	ReasonNeverSubscribed EligibilityReason = "never_subscribed"
	// ReasonNoTrialUsed: has history, but no record ever carried a trial.
	ReasonNoTrialUsed EligibilityReason = "no_trial_used"
	// ReasonTrialAlreadyUsed: the one-time trial was already granted.
	ReasonTrialAlreadyUsed EligibilityReason = "trial_already_used"
)

// TrialEligibility is the outcome of evaluating a user's history.
type TrialEligibility struct {
	IsEligible bool              `json:"isEligible"`
	Reason     EligibilityReason `json:"reason"`
	TrialDays  int               `json:"trialDays"`
}

// EvaluateTrialEligibility decides whether a user may still claim the
// one-time free trial. Pure and order-independent over the history slice,
// safe for concurrent use: eligible iff no record in the user's entire
// history carries a trial grant.
func EvaluateTrialEligibility(history []SubscriptionRecord) TrialEligibility {
	if len(history) == 0 {
		return TrialEligibility{IsEligible: true, Reason: ReasonNeverSubscribed, TrialDays: TrialPeriodDays}
	}
	for i := range history {
		if history[i].HasTrial() {
			return TrialEligibility{IsEligible: false, Reason: ReasonTrialAlreadyUsed, TrialDays: 0}
		}
	}
	return TrialEligibility{IsEligible: true, Reason: ReasonNoTrialUsed, TrialDays: TrialPeriodDays}
}
