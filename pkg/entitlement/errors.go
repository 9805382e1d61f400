package entitlement

import "errors"

var (
	ErrUnauthenticated = errors.New("caller identity is missing or unverified")

	ErrPriceNotAllowed   = errors.New("price ID is not in the configured plan list")
	ErrMissingReturnURL  = errors.New("return URL is required")
	ErrMalformedRequest  = errors.New("request body is malformed")
	ErrInvalidEvent      = errors.New("lifecycle event is missing required fields")
	ErrInvalidTransition = errors.New("lifecycle event is not valid for the record's current state")

	ErrAlreadySubscribed = errors.New("user already has an active subscription")
	// Storage-boundary conflicts: raised by stores when a conditional
	// write would violate the one-active-record or one-trial-ever rule.
	ErrActiveRecordExists  = errors.New("an active subscription record already exists for this user")
	ErrTrialAlreadyGranted = errors.New("a trial was already granted to this user")

	ErrUserNotFound     = errors.New("no internal user record found")
	ErrRecordNotFound   = errors.New("subscription record not found")
	ErrNoBillingAccount = errors.New("no billing account exists for this user")

	ErrProviderFailure = errors.New("billing provider request failed")
	ErrStoreFailure    = errors.New("entitlement store operation failed")

	ErrFailedToLoadPlans = errors.New("failed to load plan definitions")
)

// Code is a stable machine-readable error class for programmatic
// branching; the paired error message stays human-readable.
type Code string

const (
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeNotFound        Code = "NOT_FOUND"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeConflict        Code = "CONFLICT"
	CodeUpstreamError   Code = "UPSTREAM_ERROR"
	CodeInternal        Code = "INTERNAL"
)

// CodeOf classifies an error into its stable code. Unrecognized errors,
// including store failures, report INTERNAL so nothing leaks as success.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthenticated):
		return CodeUnauthenticated
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrRecordNotFound),
		errors.Is(err, ErrNoBillingAccount):
		return CodeNotFound
	case errors.Is(err, ErrPriceNotAllowed),
		errors.Is(err, ErrMissingReturnURL),
		errors.Is(err, ErrMalformedRequest),
		errors.Is(err, ErrInvalidEvent),
		errors.Is(err, ErrInvalidTransition):
		return CodeInvalidArgument
	case errors.Is(err, ErrAlreadySubscribed),
		errors.Is(err, ErrActiveRecordExists),
		errors.Is(err, ErrTrialAlreadyGranted):
		return CodeConflict
	case errors.Is(err, ErrProviderFailure):
		return CodeUpstreamError
	default:
		return CodeInternal
	}
}
