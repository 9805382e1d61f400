// Package pgstore is the PostgreSQL EntitlementStore. The invariants the
// core depends on live here as partial unique indexes, so two concurrent
// writers cannot both succeed in activating a subscription or granting a
// trial for the same user.
package pgstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pricewise/plus/pkg/entitlement"
)

const (
	activeRecordConstraint = "subscription_records_one_active_per_user"
	trialGrantConstraint   = "subscription_records_one_trial_per_user"
)

// Store implements entitlement.EntitlementStore on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a store. Panics on a nil pool to fail fast at startup.
func New(pool *pgxpool.Pool) *Store {
	if pool == nil {
		panic("pgstore: connection pool is required")
	}
	return &Store{pool: pool}
}

const recordColumns = `
	id, user_id, plan_type, status,
	start_date, end_date, current_period_start, current_period_end,
	trial_start, trial_end,
	auto_renew, cancel_at_period_end, canceled_at,
	external_customer_id, external_subscription_id, external_price_id,
	created_at, updated_at`

func (s *Store) GetActiveRecord(ctx context.Context, userID uuid.UUID) (*entitlement.SubscriptionRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+recordColumns+`
		FROM subscription_records
		WHERE user_id = $1 AND status = $2`,
		userID, entitlement.StatusActive)

	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entitlement.ErrRecordNotFound
		}
		return nil, err
	}
	return record, nil
}

func (s *Store) GetHistory(ctx context.Context, userID uuid.UUID) ([]entitlement.SubscriptionRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+recordColumns+`
		FROM subscription_records
		WHERE user_id = $1
		ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []entitlement.SubscriptionRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, *record)
	}
	return history, rows.Err()
}

func (s *Store) UpsertRecord(ctx context.Context, record *entitlement.SubscriptionRecord) error {
	if record == nil || record.ID == uuid.Nil || record.UserID == uuid.Nil {
		return entitlement.ErrInvalidEvent
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO subscription_records (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			end_date = EXCLUDED.end_date,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end = EXCLUDED.current_period_end,
			auto_renew = EXCLUDED.auto_renew,
			cancel_at_period_end = EXCLUDED.cancel_at_period_end,
			canceled_at = EXCLUDED.canceled_at,
			external_customer_id = EXCLUDED.external_customer_id,
			external_subscription_id = EXCLUDED.external_subscription_id,
			external_price_id = EXCLUDED.external_price_id,
			updated_at = EXCLUDED.updated_at`,
		record.ID, record.UserID, record.PlanType, record.Status,
		record.StartDate, record.EndDate, record.CurrentPeriodStart, record.CurrentPeriodEnd,
		record.TrialStart, record.TrialEnd,
		record.AutoRenew, record.CancelAtPeriodEnd, record.CanceledAt,
		nullable(record.ExternalCustomerID), nullable(record.ExternalSubscriptionID), nullable(record.ExternalPriceID),
		record.CreatedAt, record.UpdatedAt)
	if err != nil {
		return classifyConflict(err)
	}
	return nil
}

// classifyConflict maps unique-violation errors from the partial indexes
// onto the core's conflict sentinels.
func classifyConflict(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	switch pgErr.ConstraintName {
	case activeRecordConstraint:
		return entitlement.ErrActiveRecordExists
	case trialGrantConstraint:
		return entitlement.ErrTrialAlreadyGranted
	default:
		return err
	}
}

// nullable maps empty strings to NULL so the partial unique index on
// external_subscription_id never collides on "".
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*entitlement.SubscriptionRecord, error) {
	var (
		record                     entitlement.SubscriptionRecord
		customerID, subID, priceID *string
	)
	err := row.Scan(
		&record.ID, &record.UserID, &record.PlanType, &record.Status,
		&record.StartDate, &record.EndDate, &record.CurrentPeriodStart, &record.CurrentPeriodEnd,
		&record.TrialStart, &record.TrialEnd,
		&record.AutoRenew, &record.CancelAtPeriodEnd, &record.CanceledAt,
		&customerID, &subID, &priceID,
		&record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if customerID != nil {
		record.ExternalCustomerID = *customerID
	}
	if subID != nil {
		record.ExternalSubscriptionID = *subID
	}
	if priceID != nil {
		record.ExternalPriceID = *priceID
	}
	return &record, nil
}
