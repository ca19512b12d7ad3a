package repositories

import (
	"context"
	"errors"

	"gamewallet/internal/models"
)

var (
	ErrAccountNotFound         = errors.New("account not found")
	ErrEntryNotFound           = errors.New("ledger entry not found")
	ErrDuplicateIdempotencyKey = errors.New("idempotency key already committed")
	ErrSerializationFailure    = errors.New("transaction serialization failure")
	ErrAccountNotLocked        = errors.New("account row not locked in this transaction")
)

// LedgerRepository is the persistence contract for accounts and the journal.
// Methods marked "unit only" must be called on the repository handed to the
// ExecuteInTransaction callback.
type LedgerRepository interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, id string) (*models.Account, error)

	GetEntryByIdempotencyKey(ctx context.Context, key string) (*models.LedgerEntry, error)
	ListEntriesByAccount(ctx context.Context, tenantID, accountID string, limit, offset int) ([]*models.LedgerEntry, error)

	// LockAccount reads the row and holds an exclusive lock on it until the
	// unit ends. Unit only.
	LockAccount(ctx context.Context, id string) (*models.Account, error)
	// UpdateBalance persists account.Balance for a row locked by this unit.
	// Unit only.
	UpdateBalance(ctx context.Context, account *models.Account) error
	// CreateEntry appends to the journal. A key collision surfaces as
	// ErrDuplicateIdempotencyKey, at the latest on commit. Unit only.
	CreateEntry(ctx context.Context, entry *models.LedgerEntry) error

	// ExecuteInTransaction runs fn in a serializable transaction. Serialization
	// failures are reported as ErrSerializationFailure so callers can retry.
	ExecuteInTransaction(ctx context.Context, fn func(LedgerRepository) error) error
}
