package ledger

import (
	"context"
	"time"

	"gamewallet/internal/models"

	"github.com/shopspring/decimal"
)

// Posting is a fully resolved, authorized money movement ready to be applied.
// Debit is nil for a mint; Credit is nil for the reversal of a mint.
type Posting struct {
	TenantID       string
	Operation      models.OperationKind
	Debit          *models.AccountRef
	Credit         *models.AccountRef
	Amount         decimal.Decimal
	Description    string
	Actor          models.Actor
	IdempotencyKey string
	ReversesKey    string
	// AllowNegative lets the debited balance drop below zero.
	AllowNegative bool
}

// Config tunes the atomic unit.
type Config struct {
	MaxAttempts    int
	RetryBaseDelay time.Duration
	MaxRetryDelay  time.Duration
}

// EntryCache is an optional read-through cache of committed entries.
type EntryCache interface {
	Get(ctx context.Context, idempotencyKey string) (*models.LedgerEntry, bool, error)
	Set(ctx context.Context, entry *models.LedgerEntry) error
}

// MetricsCollector defines the interface for collecting ledger metrics
type MetricsCollector interface {
	RecordOperationDuration(operation string, duration time.Duration)
	RecordOperationResult(operation, result string)
	RecordRetry(operation string)
	RecordTransactionVolume(operation string, amount decimal.Decimal)
}

// Result is the outcome of a transfer or rollback. Replayed is set when the
// idempotency key was already committed and Entry is the stored original.
type Result struct {
	Entry    *models.LedgerEntry
	Replayed bool
}

// Outcome returns the metrics label of r: created or replayed.
func (r *Result) Outcome() string {
	if r.Replayed {
		return "replayed"
	}
	return "created"
}
