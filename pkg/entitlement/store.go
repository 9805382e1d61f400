package entitlement

import (
	"context"

	"github.com/google/uuid"
)

// EntitlementStore persists subscription records. Each call is atomic.
//
// UpsertRecord is the single write path and owns the invariants: an
// insert or update that would leave a user with two ACTIVE records must
// fail with ErrActiveRecordExists, and one that would grant a second
// trial must fail with ErrTrialAlreadyGranted. Enforcing this at the
// storage boundary (conditional write, partial unique index) is what
// closes the race between two concurrent checkouts, or a checkout racing
// a provider event delivery — application-level pre-checks alone cannot.
type EntitlementStore interface {
	// GetActiveRecord returns the user's single ACTIVE record, or
	// ErrRecordNotFound when none exists.
	GetActiveRecord(ctx context.Context, userID uuid.UUID) (*SubscriptionRecord, error)

	// GetHistory returns every record the user ever held, newest first.
	// An empty slice (not an error) means no history.
	GetHistory(ctx context.Context, userID uuid.UUID) ([]SubscriptionRecord, error)

	// UpsertRecord inserts or replaces a record keyed by record ID.
	UpsertRecord(ctx context.Context, record *SubscriptionRecord) error
}
