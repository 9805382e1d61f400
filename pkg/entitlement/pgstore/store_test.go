package pgstore

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/pricewise/plus/pkg/entitlement"
)

func TestClassifyConflict(t *testing.T) {
	t.Parallel()

	t.Run("active record constraint", func(t *testing.T) {
		t.Parallel()
		err := classifyConflict(&pgconn.PgError{Code: "23505", ConstraintName: activeRecordConstraint})
		assert.ErrorIs(t, err, entitlement.ErrActiveRecordExists)
	})

	t.Run("trial grant constraint", func(t *testing.T) {
		t.Parallel()
		err := classifyConflict(&pgconn.PgError{Code: "23505", ConstraintName: trialGrantConstraint})
		assert.ErrorIs(t, err, entitlement.ErrTrialAlreadyGranted)
	})

	t.Run("other unique violation passes through", func(t *testing.T) {
		t.Parallel()
		src := &pgconn.PgError{Code: "23505", ConstraintName: "subscription_records_pkey"}
		assert.Equal(t, error(src), classifyConflict(src))
	})

	t.Run("non unique errors pass through", func(t *testing.T) {
		t.Parallel()
		src := errors.New("connection refused")
		assert.Equal(t, src, classifyConflict(src))
	})
}

func TestNullable(t *testing.T) {
	t.Parallel()

	assert.Nil(t, nullable(""))

	got := nullable("sub_01j")
	if assert.NotNil(t, got) {
		assert.Equal(t, "sub_01j", *got)
	}
}
