package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"serialization failure", &pgconn.PgError{Code: "40001"}, ErrSerializationFailure},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, ErrSerializationFailure},
		{"wrapped serialization failure", fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40001"}), ErrSerializationFailure},
		{"idempotency key collision", &pgconn.PgError{Code: "23505", ConstraintName: "idx_ledger_entries_idempotency_key"}, ErrDuplicateIdempotencyKey},
		{"other unique index", &pgconn.PgError{Code: "23505", ConstraintName: "accounts_pkey"}, nil},
		{"plain error", errors.New("boom"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if tt.want == nil {
				assert.False(t, errors.Is(got, ErrSerializationFailure))
				assert.False(t, errors.Is(got, ErrDuplicateIdempotencyKey))
				assert.Equal(t, tt.err, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
			var pgErr *pgconn.PgError
			assert.True(t, errors.As(got, &pgErr), "driver error kept in chain")
		})
	}
	assert.NoError(t, classify(nil))
}
