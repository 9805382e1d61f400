package entitlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service is the public interface of the entitlement core. Callers pass
// an explicit, already-verified user identity into every operation; there
// is no ambient session state.
type Service interface {
	// TrialEligibility reports whether the user may still claim the
	// one-time free trial.
	TrialEligibility(ctx context.Context, userID uuid.UUID) (TrialEligibility, error)

	// Status returns the derived authorization flags plus the raw record
	// they were computed from.
	Status(ctx context.Context, userID uuid.UUID) (*StatusView, error)

	// Checkout validates the request and opens a provider-hosted checkout
	// session. It never flips a record to ACTIVE itself; activation
	// arrives later as a provider event.
	Checkout(ctx context.Context, userID uuid.UUID, params CheckoutParams) (*CheckoutSession, error)

	// Portal opens a provider-hosted billing management session for a
	// user that already has a billing account.
	Portal(ctx context.Context, userID uuid.UUID, returnURL string) (*PortalSession, error)

	// ApplyEvent reconciles an asynchronous provider lifecycle event into
	// stored state as an idempotent upsert keyed by the provider's
	// subscription ID.
	ApplyEvent(ctx context.Context, event *LifecycleEvent) error
}

// UserDirectory resolves internal user profiles. It is an external
// collaborator (the account system); this core only reads from it.
type UserDirectory interface {
	// Lookup returns ErrUserNotFound when no user record exists.
	Lookup(ctx context.Context, userID uuid.UUID) (*UserProfile, error)
}

// UserProfile is the slice of an account this core needs for billing.
type UserProfile struct {
	Email string
	Name  string
}

type service struct {
	plans    map[string]Plan
	provider BillingProvider
	store    EntitlementStore
	users    UserDirectory
	clock    func() time.Time
	log      *slog.Logger
}

// NewService creates the entitlement service. Panics when a required
// dependency is nil so misconfiguration fails at startup, not at request
// time.
func NewService(ctx context.Context, src PlanSource, provider BillingProvider, store EntitlementStore, users UserDirectory, opts ...ServiceOption) (Service, error) {
	if src == nil {
		panic("entitlement: PlanSource is required")
	}
	if provider == nil {
		panic("entitlement: BillingProvider is required")
	}
	if store == nil {
		panic("entitlement: EntitlementStore is required")
	}
	if users == nil {
		panic("entitlement: UserDirectory is required")
	}

	plans, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	if len(plans) == 0 {
		return nil, ErrFailedToLoadPlans
	}

	s := &service{
		plans:    plans,
		provider: provider,
		store:    store,
		users:    users,
		clock:    func() time.Time { return time.Now().UTC() },
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *service) TrialEligibility(ctx context.Context, userID uuid.UUID) (TrialEligibility, error) {
	if userID == uuid.Nil {
		return TrialEligibility{}, ErrUnauthenticated
	}

	history, err := s.store.GetHistory(ctx, userID)
	if err != nil {
		return TrialEligibility{}, errors.Join(ErrStoreFailure, err)
	}
	return EvaluateTrialEligibility(history), nil
}

func (s *service) Status(ctx context.Context, userID uuid.UUID) (*StatusView, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	record, err := s.relevantRecord(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &StatusView{Derived: Derive(record, s.clock()), Record: record}, nil
}

// relevantRecord selects the single record status is reported from: the
// ACTIVE one when it exists (unique per user), otherwise the most
// recently created, otherwise nil.
func (s *service) relevantRecord(ctx context.Context, userID uuid.UUID) (*SubscriptionRecord, error) {
	record, err := s.store.GetActiveRecord(ctx, userID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, ErrRecordNotFound) {
		return nil, errors.Join(ErrStoreFailure, err)
	}

	history, err := s.store.GetHistory(ctx, userID)
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	if len(history) == 0 {
		return nil, nil
	}
	latest := history[0]
	return &latest, nil
}

func (s *service) Checkout(ctx context.Context, userID uuid.UUID, params CheckoutParams) (*CheckoutSession, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	// Validation happens before any store write or provider call, first
	// failure wins.
	plan, allowed := s.plans[params.PriceID]
	if !allowed {
		return nil, fmt.Errorf("%w: %q", ErrPriceNotAllowed, params.PriceID)
	}

	if _, err := s.store.GetActiveRecord(ctx, userID); err == nil {
		return nil, ErrAlreadySubscribed
	} else if !errors.Is(err, ErrRecordNotFound) {
		return nil, errors.Join(ErrStoreFailure, err)
	}

	profile, err := s.users.Lookup(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, errors.Join(ErrStoreFailure, err)
	}

	history, err := s.store.GetHistory(ctx, userID)
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}

	// Reuse the stored provider customer when one exists; the provider
	// implementation additionally matches by email before creating, so
	// the same user never ends up with duplicate customers.
	customerID := storedCustomerID(history)
	if customerID == "" {
		customerID, err = s.provider.CreateOrGetCustomer(ctx, profile.Email, profile.Name, userID.String())
		if err != nil {
			return nil, errors.Join(ErrProviderFailure, err)
		}
	}

	trialDays := 0
	if elig := EvaluateTrialEligibility(history); elig.IsEligible {
		trialDays = plan.TrialDays
	}

	session, err := s.provider.CreateCheckoutSession(ctx, CheckoutSessionRequest{
		CustomerID:      customerID,
		UserID:          userID.String(),
		PriceID:         params.PriceID,
		SuccessURL:      params.SuccessURL,
		CancelURL:       params.CancelURL,
		TrialPeriodDays: trialDays,
	})
	if err != nil {
		return nil, errors.Join(ErrProviderFailure, err)
	}

	// Record the trial window optimistically so eligibility is burned the
	// moment the session exists. The record stays INACTIVE until the
	// provider confirms; if it never does, the window simply expires.
	if trialDays > 0 {
		now := s.clock()
		trialEnd := now.AddDate(0, 0, trialDays)
		pending := &SubscriptionRecord{
			ID:                 uuid.New(),
			UserID:             userID,
			PlanType:           PlanPlus,
			Status:             StatusInactive,
			StartDate:          now,
			EndDate:            &trialEnd,
			TrialStart:         &now,
			TrialEnd:           &trialEnd,
			AutoRenew:          true,
			ExternalCustomerID: customerID,
			ExternalPriceID:    params.PriceID,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := s.store.UpsertRecord(ctx, pending); err != nil {
			// The session exists at the provider and is independently
			// resumable; the conflict means a concurrent checkout already
			// claimed the trial.
			s.log.ErrorContext(ctx, "failed to record pending trial",
				slog.String("user_id", userID.String()), slog.Any("error", err))
			return nil, err
		}
	}

	s.log.InfoContext(ctx, "checkout session created",
		slog.String("user_id", userID.String()),
		slog.String("price_id", params.PriceID),
		slog.Int("trial_days", trialDays))

	return session, nil
}

func (s *service) Portal(ctx context.Context, userID uuid.UUID, returnURL string) (*PortalSession, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if returnURL == "" {
		return nil, ErrMissingReturnURL
	}

	history, err := s.store.GetHistory(ctx, userID)
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}

	customerID := storedCustomerID(history)
	if customerID == "" {
		return nil, ErrNoBillingAccount
	}

	session, err := s.provider.CreatePortalSession(ctx, customerID, returnURL)
	if err != nil {
		return nil, errors.Join(ErrProviderFailure, err)
	}
	return session, nil
}

func (s *service) ApplyEvent(ctx context.Context, event *LifecycleEvent) error {
	if event == nil || event.SubscriptionID == "" {
		return ErrInvalidEvent
	}
	userID, err := uuid.Parse(event.UserID)
	if err != nil {
		return fmt.Errorf("%w: bad user ID %q", ErrInvalidEvent, event.UserID)
	}

	history, err := s.store.GetHistory(ctx, userID)
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}

	now := s.clock()
	status := statusFromProvider(event.Status)
	record := matchRecord(history, event)

	smEvent, moves := eventForType(event.Type, status)
	if !moves {
		s.log.DebugContext(ctx, "ignoring informational provider event",
			slog.String("event", event.ProviderEvent))
		return nil
	}
	// A confirmation with no prior record is the initial checkout
	// transition out of NONE, not an activation of an existing cycle.
	if record == nil && status == StatusActive {
		if strings.EqualFold(event.Status, "trialing") {
			smEvent = eventCheckoutTrial
		} else {
			smEvent = eventCheckoutPaid
		}
	}

	if record != nil && record.Status == status {
		// Redelivery of a state we already hold: refresh period fields
		// and fall through to the upsert, no transition to validate.
	} else if !canTransition(ctx, record, smEvent, now) {
		return fmt.Errorf("%w: %s in state %s", ErrInvalidTransition,
			smEvent.Name(), lifecycleStateOf(record, now).Name())
	}

	if record == nil {
		record = &SubscriptionRecord{
			ID:        uuid.New(),
			UserID:    userID,
			PlanType:  PlanPlus,
			StartDate: eventTime(event, now),
			CreatedAt: now,
		}
		// A provider-side trial on a brand-new record claims the one-time
		// grant; skip when history already holds one so the storage
		// constraint is the final arbiter, not the provider.
		if strings.EqualFold(event.Status, "trialing") && !hasTrialInHistory(history) {
			start := eventTime(event, now)
			end := start.AddDate(0, 0, TrialPeriodDays)
			record.TrialStart = &start
			record.TrialEnd = &end
		}
	}

	record.Status = status
	record.ExternalSubscriptionID = event.SubscriptionID
	if event.CustomerID != "" {
		record.ExternalCustomerID = event.CustomerID
	}
	if event.PriceID != "" {
		record.ExternalPriceID = event.PriceID
	}
	if event.CurrentPeriodStart != nil {
		record.CurrentPeriodStart = event.CurrentPeriodStart
	}
	if event.CurrentPeriodEnd != nil {
		record.CurrentPeriodEnd = event.CurrentPeriodEnd
	}
	record.CancelAtPeriodEnd = event.CancelAtPeriodEnd
	record.AutoRenew = !event.CancelAtPeriodEnd

	switch status {
	case StatusActive:
		record.EndDate = nil
	case StatusCancelled:
		if record.CanceledAt == nil {
			t := eventTime(event, now)
			record.CanceledAt = &t
		}
		// A cancelled subscription stays usable until the period ends.
		if record.CurrentPeriodEnd != nil {
			record.EndDate = record.CurrentPeriodEnd
		}
	case StatusExpired:
		if record.EndDate == nil {
			t := eventTime(event, now)
			record.EndDate = &t
		}
	}
	// A terminated subscription never renews, even when the provider sent
	// an immediate cancellation without a scheduled change flag.
	if status == StatusCancelled || status == StatusExpired {
		record.AutoRenew = false
	}
	record.UpdatedAt = now

	if err := s.store.UpsertRecord(ctx, record); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "applied provider lifecycle event",
		slog.String("user_id", userID.String()),
		slog.String("event", event.ProviderEvent),
		slog.String("status", string(status)))
	return nil
}

// storedCustomerID returns the first provider customer ID found in the
// user's history, newest record first.
func storedCustomerID(history []SubscriptionRecord) string {
	for i := range history {
		if history[i].ExternalCustomerID != "" {
			return history[i].ExternalCustomerID
		}
	}
	return ""
}

// matchRecord finds the record an event applies to: by provider
// subscription ID first, then the newest pending record not yet linked to
// a provider subscription (the optimistic trial record from checkout).
func matchRecord(history []SubscriptionRecord, event *LifecycleEvent) *SubscriptionRecord {
	for i := range history {
		if history[i].ExternalSubscriptionID == event.SubscriptionID {
			return &history[i]
		}
	}
	for i := range history {
		if history[i].Status == StatusInactive && history[i].ExternalSubscriptionID == "" {
			return &history[i]
		}
	}
	return nil
}

func hasTrialInHistory(history []SubscriptionRecord) bool {
	for i := range history {
		if history[i].HasTrial() {
			return true
		}
	}
	return false
}

func eventTime(event *LifecycleEvent, fallback time.Time) time.Time {
	if !event.OccurredAt.IsZero() {
		return event.OccurredAt
	}
	return fallback
}

// statusFromProvider normalizes a provider status string to the persisted
// status vocabulary. A provider "trialing" subscription is stored ACTIVE;
// the trial window on the record is what makes it a trial.
func statusFromProvider(providerStatus string) Status {
	switch strings.ToLower(providerStatus) {
	case "trialing", "active":
		return StatusActive
	case "past_due":
		return StatusPastDue
	case "unpaid":
		return StatusUnpaid
	case "canceled", "cancelled":
		return StatusCancelled
	case "expired":
		return StatusExpired
	default:
		return StatusInactive
	}
}
